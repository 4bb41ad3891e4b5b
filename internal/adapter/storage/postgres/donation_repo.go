package postgres

import (
	"context"
	"fmt"

	"relief-fund-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DonationRepo implements ports.DonationRepository.
type DonationRepo struct {
	pool Pool
}

// NewDonationRepo creates a new DonationRepo.
func NewDonationRepo(pool Pool) *DonationRepo {
	return &DonationRepo{pool: pool}
}

// Create inserts a donation record within a transaction.
func (r *DonationRepo) Create(ctx context.Context, tx pgx.Tx, donation *domain.Donation) error {
	query := `INSERT INTO donations (id, campaign_id, donor, amount, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := tx.Exec(ctx, query, donation.ID, donation.CampaignID, donation.Donor, donation.Amount, donation.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert donation: %w", err)
	}
	return nil
}

// ListByCampaign returns a campaign's donations, newest first.
func (r *DonationRepo) ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]domain.Donation, error) {
	query := `SELECT id, campaign_id, donor, amount, created_at
		FROM donations WHERE campaign_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	defer rows.Close()

	var donations []domain.Donation
	for rows.Next() {
		d := domain.Donation{}
		if err := rows.Scan(&d.ID, &d.CampaignID, &d.Donor, &d.Amount, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan donation: %w", err)
		}
		donations = append(donations, d)
	}
	return donations, rows.Err()
}

// SumByCampaign totals a campaign's donations.
func (r *DonationRepo) SumByCampaign(ctx context.Context, campaignID uuid.UUID) (int64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM donations WHERE campaign_id = $1`

	var sum int64
	if err := r.pool.QueryRow(ctx, query, campaignID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum donations: %w", err)
	}
	return sum, nil
}

// CountByCampaign counts a campaign's donations.
func (r *DonationRepo) CountByCampaign(ctx context.Context, campaignID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM donations WHERE campaign_id = $1`

	var count int64
	if err := r.pool.QueryRow(ctx, query, campaignID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count donations: %w", err)
	}
	return count, nil
}
