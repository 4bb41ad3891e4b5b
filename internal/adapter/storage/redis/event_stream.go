package redis

import (
	"context"
	"fmt"

	"relief-fund-gateway/internal/core/domain"

	goredis "github.com/redis/go-redis/v9"
)

const eventStreamKey = "events:stream"

// EventStream implements ports.EventPublisher over a Redis stream. Consumers
// (notification workers, off-platform indexers) read the stream with XREAD;
// the Postgres event row remains the durable record, so the stream is capped
// and approximate.
type EventStream struct {
	client *goredis.Client
	maxLen int64
}

// NewEventStream creates a Redis stream publisher.
func NewEventStream(client *goredis.Client) *EventStream {
	return &EventStream{client: client, maxLen: 100_000}
}

// Publish appends the event to the stream with XADD.
func (s *EventStream) Publish(ctx context.Context, event *domain.Event) error {
	values := map[string]interface{}{
		"id":      event.ID.String(),
		"type":    string(event.Type),
		"actor":   event.Actor.String(),
		"subject": event.Subject.String(),
	}
	if event.CampaignID != nil {
		values["campaign_id"] = event.CampaignID.String()
	}
	if event.Amount != nil {
		values["amount"] = *event.Amount
	}
	if len(event.Payload) > 0 {
		values["payload"] = string(event.Payload)
	}

	err := s.client.XAdd(ctx, &goredis.XAddArgs{
		Stream: eventStreamKey,
		MaxLen: s.maxLen,
		Approx: true,
		Values: values,
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd event: %w", err)
	}
	return nil
}
