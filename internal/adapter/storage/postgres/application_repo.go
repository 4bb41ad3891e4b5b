package postgres

import (
	"context"
	"errors"
	"fmt"

	"relief-fund-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const applicationColumns = `id, campaign_id, beneficiary, state, reviewed_by, applied_at, reviewed_at`

// ApplicationRepo implements ports.ApplicationRepository. The table carries a
// unique constraint on (campaign_id, beneficiary).
type ApplicationRepo struct {
	pool Pool
}

// NewApplicationRepo creates a new ApplicationRepo.
func NewApplicationRepo(pool Pool) *ApplicationRepo {
	return &ApplicationRepo{pool: pool}
}

func scanApplication(row pgx.Row) (*domain.BeneficiaryApplication, error) {
	a := &domain.BeneficiaryApplication{}
	err := row.Scan(&a.ID, &a.CampaignID, &a.Beneficiary, &a.State, &a.ReviewedBy, &a.AppliedAt, &a.ReviewedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create inserts a new application within a database transaction.
func (r *ApplicationRepo) Create(ctx context.Context, tx pgx.Tx, a *domain.BeneficiaryApplication) error {
	query := `INSERT INTO beneficiary_applications (id, campaign_id, beneficiary, state, reviewed_by, applied_at, reviewed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := tx.Exec(ctx, query, a.ID, a.CampaignID, a.Beneficiary, a.State, a.ReviewedBy, a.AppliedAt, a.ReviewedAt)
	if err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

// Get fetches an application by (campaign, beneficiary) without locking.
func (r *ApplicationRepo) Get(ctx context.Context, campaignID, beneficiary uuid.UUID) (*domain.BeneficiaryApplication, error) {
	query := `SELECT ` + applicationColumns + ` FROM beneficiary_applications
		WHERE campaign_id = $1 AND beneficiary = $2`

	a, err := scanApplication(r.pool.QueryRow(ctx, query, campaignID, beneficiary))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get application: %w", err)
	}
	return a, nil
}

// GetForUpdate fetches an application with pessimistic locking.
// This MUST be called within a transaction.
func (r *ApplicationRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, campaignID, beneficiary uuid.UUID) (*domain.BeneficiaryApplication, error) {
	query := `SELECT ` + applicationColumns + ` FROM beneficiary_applications
		WHERE campaign_id = $1 AND beneficiary = $2 FOR UPDATE`

	a, err := scanApplication(tx.QueryRow(ctx, query, campaignID, beneficiary))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get application for update: %w", err)
	}
	return a, nil
}

// UpdateState records a review verdict within a transaction.
func (r *ApplicationRepo) UpdateState(ctx context.Context, tx pgx.Tx, id uuid.UUID, state domain.ApplicationState, reviewedBy uuid.UUID) error {
	query := `UPDATE beneficiary_applications
		SET state = $1, reviewed_by = $2, reviewed_at = NOW() WHERE id = $3`

	tag, err := tx.Exec(ctx, query, state, reviewedBy, id)
	if err != nil {
		return fmt.Errorf("update application state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("application not found: %s", id)
	}
	return nil
}

// ListByCampaign returns all applications on a campaign.
func (r *ApplicationRepo) ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]domain.BeneficiaryApplication, error) {
	query := `SELECT ` + applicationColumns + ` FROM beneficiary_applications
		WHERE campaign_id = $1 ORDER BY applied_at`

	rows, err := r.pool.Query(ctx, query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var apps []domain.BeneficiaryApplication
	for rows.Next() {
		a := domain.BeneficiaryApplication{}
		if err := rows.Scan(&a.ID, &a.CampaignID, &a.Beneficiary, &a.State, &a.ReviewedBy, &a.AppliedAt, &a.ReviewedAt); err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}
