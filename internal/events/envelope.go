package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event is a versioned lead event payload.
type Event interface {
	EventType() string
	LeadKey() string
}

// Envelope is the message body written to the lead events queue.
type Envelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	LeadID     string          `json:"lead_id"`
	RequestID  string          `json:"request_id,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

var (
	ErrNoEvent        = errors.New("events: event is required")
	ErrNoLeadID       = errors.New("events: lead id is required")
	ErrNoType         = errors.New("events: event type is required")
	ErrUnexpectedType = errors.New("events: unexpected event type")
)

var (
	now   = time.Now
	newID = uuid.NewString
)

// Seal wraps evt in an envelope with a fresh id. requestID ties the event
// back to the intake request that produced it and may be empty.
func Seal(evt Event, requestID string) (Envelope, error) {
	if evt == nil {
		return Envelope{}, ErrNoEvent
	}
	typ := strings.TrimSpace(evt.EventType())
	if typ == "" {
		return Envelope{}, ErrNoType
	}
	leadID := strings.TrimSpace(evt.LeadKey())
	if leadID == "" {
		return Envelope{}, ErrNoLeadID
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return Envelope{}, fmt.Errorf("events: encode %s: %w", typ, err)
	}
	return Envelope{
		ID:         newID(),
		Type:       typ,
		LeadID:     leadID,
		RequestID:  strings.TrimSpace(requestID),
		OccurredAt: now().UTC().Truncate(time.Millisecond),
		Data:       data,
	}, nil
}

// Open decodes a queue message body. When want is set the envelope type must
// match it; when dst is non-nil the payload is decoded into it.
func Open(body []byte, want string, dst any) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Envelope{}, fmt.Errorf("events: decode envelope: %w", err)
	}
	if want != "" && env.Type != want {
		return env, fmt.Errorf("%w: got %q, want %q", ErrUnexpectedType, env.Type, want)
	}
	if dst != nil {
		if err := json.Unmarshal(env.Data, dst); err != nil {
			return env, fmt.Errorf("events: decode %s payload: %w", env.Type, err)
		}
	}
	return env, nil
}
