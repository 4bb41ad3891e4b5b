package postgres

import (
	"context"
	"errors"
	"fmt"

	"relief-fund-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const campaignColumns = `id, title, description, location, disaster_type,
	goal_amount, raised_amount, total_allocated, organizer, admin, status,
	created_at, updated_at`

// CampaignRepo implements ports.CampaignRepository.
type CampaignRepo struct {
	pool Pool
}

// NewCampaignRepo creates a new CampaignRepo.
func NewCampaignRepo(pool Pool) *CampaignRepo {
	return &CampaignRepo{pool: pool}
}

func scanCampaign(row pgx.Row) (*domain.Campaign, error) {
	c := &domain.Campaign{}
	err := row.Scan(
		&c.ID, &c.Title, &c.Description, &c.Location, &c.DisasterType,
		&c.GoalAmount, &c.RaisedAmount, &c.TotalAllocated, &c.Organizer,
		&c.Admin, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Create inserts a new campaign within a database transaction.
func (r *CampaignRepo) Create(ctx context.Context, tx pgx.Tx, c *domain.Campaign) error {
	query := `INSERT INTO campaigns (id, title, description, location, disaster_type,
		goal_amount, raised_amount, total_allocated, organizer, admin, status,
		created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := tx.Exec(ctx, query,
		c.ID, c.Title, c.Description, c.Location, c.DisasterType,
		c.GoalAmount, c.RaisedAmount, c.TotalAllocated, c.Organizer,
		c.Admin, c.Status, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}
	return nil
}

// GetByID fetches a campaign by its UUID (without locking).
func (r *CampaignRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`

	c, err := scanCampaign(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get campaign by id: %w", err)
	}
	return c, nil
}

// GetByIDForUpdate fetches a campaign with pessimistic locking.
// This MUST be called within a transaction.
func (r *CampaignRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1 FOR UPDATE`

	c, err := scanCampaign(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get campaign for update: %w", err)
	}
	return c, nil
}

// UpdateStatus sets a campaign's status within a transaction.
func (r *CampaignRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.CampaignStatus) error {
	query := `UPDATE campaigns SET status = $1, updated_at = NOW() WHERE id = $2`

	tag, err := tx.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update campaign status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("campaign not found: %s", id)
	}
	return nil
}

// AddRaised increments raised_amount within a transaction.
func (r *CampaignRepo) AddRaised(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int64) error {
	query := `UPDATE campaigns SET raised_amount = raised_amount + $1, updated_at = NOW()
		WHERE id = $2`

	tag, err := tx.Exec(ctx, query, amount, id)
	if err != nil {
		return fmt.Errorf("add raised: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("campaign not found: %s", id)
	}
	return nil
}

// AddAllocated increments total_allocated within a transaction. The guard
// keeps total_allocated within raised_amount even if a caller raced past the
// service-level check.
func (r *CampaignRepo) AddAllocated(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int64) error {
	query := `UPDATE campaigns SET total_allocated = total_allocated + $1, updated_at = NOW()
		WHERE id = $2 AND total_allocated + $1 <= raised_amount`

	tag, err := tx.Exec(ctx, query, amount, id)
	if err != nil {
		return fmt.Errorf("add allocated: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("allocation exceeds raised amount for campaign %s", id)
	}
	return nil
}

// List returns campaigns newest-first.
func (r *CampaignRepo) List(ctx context.Context, limit, offset int) ([]domain.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []domain.Campaign
	for rows.Next() {
		c := domain.Campaign{}
		err := rows.Scan(
			&c.ID, &c.Title, &c.Description, &c.Location, &c.DisasterType,
			&c.GoalAmount, &c.RaisedAmount, &c.TotalAllocated, &c.Organizer,
			&c.Admin, &c.Status, &c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// Count returns the total number of campaigns ever created.
func (r *CampaignRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM campaigns`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count campaigns: %w", err)
	}
	return count, nil
}
