package analytics

import (
	"context"
	"sync"

	"github.com/wolfman30/visitplus-leads/pkg/logging"
)

// Event is one analytics hit, shaped like a gtag event.
type Event struct {
	Action   string `json:"action"`
	Category string `json:"category"`
	Label    string `json:"label,omitempty"`
	Value    int64  `json:"value,omitempty"`
}

// Conversion events emitted after a successful submission.
var (
	FormSubmit    = Event{Action: "form_submit", Category: "conversion", Label: "contact_form"}
	LeadGenerated = Event{Action: "lead_generated", Category: "conversion", Label: "demand_validation", Value: 1}
)

// Tracker receives analytics events.
type Tracker interface {
	Track(ctx context.Context, e Event)
}

// LogTracker writes events to the structured log.
type LogTracker struct {
	logger *logging.Logger
}

func NewLogTracker(logger *logging.Logger) *LogTracker {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogTracker{logger: logger}
}

func (t *LogTracker) Track(ctx context.Context, e Event) {
	t.logger.InfoContext(ctx, "analytics event",
		"action", e.Action,
		"category", e.Category,
		"label", e.Label,
		"value", e.Value,
	)
}

// Recorder keeps events in memory. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Track(_ context.Context, e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of everything tracked so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Actions lists tracked event actions in order.
func (r *Recorder) Actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Action
	}
	return out
}

type nopTracker struct{}

func (nopTracker) Track(context.Context, Event) {}

// Nop discards every event.
var Nop Tracker = nopTracker{}
