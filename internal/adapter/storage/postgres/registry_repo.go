package postgres

import (
	"context"
	"fmt"

	"relief-fund-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// RegistryRepo implements ports.RegistryRepository over the
// organizer_approvals and merchant_verifications tables. Both are keyed by
// identity, so the ON CONFLICT clauses make grants idempotent at the storage
// level; the services still report duplicates before reaching here.
type RegistryRepo struct {
	pool Pool
}

// NewRegistryRepo creates a new RegistryRepo.
func NewRegistryRepo(pool Pool) *RegistryRepo {
	return &RegistryRepo{pool: pool}
}

// ApproveOrganizer records an organizer grant within a transaction.
func (r *RegistryRepo) ApproveOrganizer(ctx context.Context, tx pgx.Tx, approval *domain.OrganizerApproval) error {
	query := `INSERT INTO organizer_approvals (identity, approved_by, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (identity) DO NOTHING`

	_, err := tx.Exec(ctx, query, approval.Identity, approval.ApprovedBy)
	if err != nil {
		return fmt.Errorf("insert organizer approval: %w", err)
	}
	return nil
}

// IsApprovedOrganizer reports whether the identity may create campaigns.
func (r *RegistryRepo) IsApprovedOrganizer(ctx context.Context, identity uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM organizer_approvals WHERE identity = $1)`

	var approved bool
	if err := r.pool.QueryRow(ctx, query, identity).Scan(&approved); err != nil {
		return false, fmt.Errorf("check organizer approval: %w", err)
	}
	return approved, nil
}

// VerifyMerchant records a platform-wide merchant verification within a
// transaction.
func (r *RegistryRepo) VerifyMerchant(ctx context.Context, tx pgx.Tx, verification *domain.MerchantVerification) error {
	query := `INSERT INTO merchant_verifications (identity, verified_by, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (identity) DO NOTHING`

	_, err := tx.Exec(ctx, query, verification.Identity, verification.VerifiedBy)
	if err != nil {
		return fmt.Errorf("insert merchant verification: %w", err)
	}
	return nil
}

// RevokeMerchant removes a merchant's platform verification within a
// transaction. Existing per-wallet approvals survive revocation; only new
// approvals are blocked.
func (r *RegistryRepo) RevokeMerchant(ctx context.Context, tx pgx.Tx, identity uuid.UUID) error {
	query := `DELETE FROM merchant_verifications WHERE identity = $1`

	tag, err := tx.Exec(ctx, query, identity)
	if err != nil {
		return fmt.Errorf("delete merchant verification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("merchant not verified: %s", identity)
	}
	return nil
}

// IsVerifiedMerchant reports whether the identity holds platform
// verification.
func (r *RegistryRepo) IsVerifiedMerchant(ctx context.Context, identity uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM merchant_verifications WHERE identity = $1)`

	var verified bool
	if err := r.pool.QueryRow(ctx, query, identity).Scan(&verified); err != nil {
		return false, fmt.Errorf("check merchant verification: %w", err)
	}
	return verified, nil
}
