package service

import (
	"context"
	"time"

	"relief-fund-gateway/internal/core/domain"
	"relief-fund-gateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// eventSink records events durably inside the operation's transaction and
// publishes them to the stream after commit. Publishing is best-effort: the
// Postgres row is the record of truth, so a stream failure is logged and
// swallowed.
type eventSink struct {
	repo ports.EventRepository
	pub  ports.EventPublisher
	log  zerolog.Logger
}

func newEventSink(repo ports.EventRepository, pub ports.EventPublisher, log zerolog.Logger) eventSink {
	return eventSink{repo: repo, pub: pub, log: log}
}

// record persists the event row on the caller's transaction.
func (s eventSink) record(ctx context.Context, tx pgx.Tx, e *domain.Event) error {
	return s.repo.Create(ctx, tx, e)
}

// publish pushes a committed event to the stream, logging on failure.
func (s eventSink) publish(ctx context.Context, e *domain.Event) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(ctx, e); err != nil {
		s.log.Warn().Err(err).Str("event_type", string(e.Type)).Msg("failed to publish event to stream")
	}
}

// newEvent builds an event with a fresh ID and timestamp.
func newEvent(t domain.EventType, actor, subject uuid.UUID) *domain.Event {
	return &domain.Event{
		ID:        uuid.New(),
		Type:      t,
		Actor:     actor,
		Subject:   subject,
		CreatedAt: time.Now().UTC(),
	}
}

func withAmount(e *domain.Event, amount int64) *domain.Event {
	e.Amount = &amount
	return e
}

func withCampaign(e *domain.Event, campaignID uuid.UUID) *domain.Event {
	e.CampaignID = &campaignID
	return e
}
