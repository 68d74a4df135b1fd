package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSPublisher writes sealed lead events to an SQS queue.
type SQSPublisher struct {
	client   sqsAPI
	queueURL string
	fifo     bool
}

// NewSQSPublisher creates a publisher for queueURL. FIFO queues (".fifo"
// suffix) are grouped by lead id and deduplicated per lead and event type.
func NewSQSPublisher(client sqsAPI, queueURL string) *SQSPublisher {
	if client == nil {
		panic("events: SQS client cannot be nil")
	}
	if queueURL == "" {
		panic("events: SQS queueURL cannot be empty")
	}
	return &SQSPublisher{
		client:   client,
		queueURL: queueURL,
		fifo:     strings.HasSuffix(queueURL, ".fifo"),
	}
}

// Publish seals evt and sends it. The SQS message id is returned.
func (p *SQSPublisher) Publish(ctx context.Context, evt Event, requestID string) (Envelope, string, error) {
	env, err := Seal(evt, requestID)
	if err != nil {
		return Envelope{}, "", err
	}
	body, err := json.Marshal(env)
	if err != nil {
		return Envelope{}, "", fmt.Errorf("events: encode envelope: %w", err)
	}

	in := &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event_type": {DataType: aws.String("String"), StringValue: aws.String(env.Type)},
			"lead_id":    {DataType: aws.String("String"), StringValue: aws.String(env.LeadID)},
		},
	}
	if p.fifo {
		in.MessageGroupId = aws.String(env.LeadID)
		in.MessageDeduplicationId = aws.String(env.LeadID + ":" + env.Type)
	}

	out, err := p.client.SendMessage(ctx, in)
	if err != nil {
		return Envelope{}, "", fmt.Errorf("events: send %s for lead %s: %w", env.Type, env.LeadID, err)
	}
	return env, aws.ToString(out.MessageId), nil
}
