package postgres

import (
	"context"
	"fmt"

	"relief-fund-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// EventRepo implements ports.EventRepository. Rows are append-only; nothing
// updates or deletes them.
type EventRepo struct {
	pool Pool
}

// NewEventRepo creates a new EventRepo.
func NewEventRepo(pool Pool) *EventRepo {
	return &EventRepo{pool: pool}
}

// Create inserts an event row within the same transaction as the state
// change it records.
func (r *EventRepo) Create(ctx context.Context, tx pgx.Tx, event *domain.Event) error {
	query := `INSERT INTO events (id, type, actor, subject, campaign_id, amount, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := tx.Exec(ctx, query,
		event.ID, event.Type, event.Actor, event.Subject,
		event.CampaignID, event.Amount, event.Payload, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// ListByCampaign returns a campaign's most recent events.
func (r *EventRepo) ListByCampaign(ctx context.Context, campaignID uuid.UUID, limit int) ([]domain.Event, error) {
	query := `SELECT id, type, actor, subject, campaign_id, amount, payload, created_at
		FROM events WHERE campaign_id = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, campaignID, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		e := domain.Event{}
		if err := rows.Scan(&e.ID, &e.Type, &e.Actor, &e.Subject, &e.CampaignID, &e.Amount, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
