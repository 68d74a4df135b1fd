package analytics

import (
	"context"
	"sync"
	"time"
)

// Session measures engagement time for one page view. It replaces a
// process-wide timer so concurrent renders never share a start time.
type Session struct {
	tracker Tracker
	now     func() time.Time

	mu      sync.Mutex
	started time.Time
}

// NewSession creates an unstarted session that reports to tracker.
func NewSession(tracker Tracker) *Session {
	if tracker == nil {
		tracker = Nop
	}
	return &Session{tracker: tracker, now: time.Now}
}

// Start records the session start. Calling it again restarts the clock.
func (s *Session) Start() {
	s.mu.Lock()
	s.started = s.now()
	s.mu.Unlock()
}

// Started reports whether Start has been called since the last End.
func (s *Session) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.started.IsZero()
}

// End emits session_end with the elapsed seconds and resets the session.
// Ending an unstarted session is a no-op and returns zero.
func (s *Session) End(ctx context.Context) time.Duration {
	s.mu.Lock()
	started := s.started
	s.started = time.Time{}
	s.mu.Unlock()

	if started.IsZero() {
		return 0
	}
	elapsed := s.now().Sub(started)
	s.tracker.Track(ctx, Event{
		Action:   "session_end",
		Category: "engagement",
		Label:    "session_duration",
		Value:    int64(elapsed / time.Second),
	})
	return elapsed
}

type sessionKey struct{}

// WithSession attaches s to ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the session carried by ctx, if any.
func SessionFrom(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s != nil
}
