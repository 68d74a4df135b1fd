package delivery

import (
	"context"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/visitplus-leads/internal/events"
	"github.com/wolfman30/visitplus-leads/internal/leads"
)

type eventPublisher interface {
	Publish(ctx context.Context, evt events.Event, requestID string) (events.Envelope, string, error)
}

// Queue publishes lead.submitted.v1 for downstream consumers.
type Queue struct {
	publisher eventPublisher
}

func NewQueue(publisher eventPublisher) *Queue {
	return &Queue{publisher: publisher}
}

func (q *Queue) Name() string { return NameQueue }

// Deliver returns the queue message id. The request id, when present, is
// carried in the envelope.
func (q *Queue) Deliver(ctx context.Context, sub *leads.Submission) (string, error) {
	_, msgID, err := q.publisher.Publish(ctx, events.NewLeadSubmittedV1(sub), middleware.GetReqID(ctx))
	if err != nil {
		return "", err
	}
	return msgID, nil
}
