package postgres

import (
	"context"
	"fmt"

	"relief-fund-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AllocationRepo implements ports.AllocationRepository.
type AllocationRepo struct {
	pool Pool
}

// NewAllocationRepo creates a new AllocationRepo.
func NewAllocationRepo(pool Pool) *AllocationRepo {
	return &AllocationRepo{pool: pool}
}

// Create inserts an allocation record within a transaction.
func (r *AllocationRepo) Create(ctx context.Context, tx pgx.Tx, allocation *domain.Allocation) error {
	query := `INSERT INTO allocations (id, campaign_id, beneficiary, wallet_id, amount, executed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := tx.Exec(ctx, query,
		allocation.ID, allocation.CampaignID, allocation.Beneficiary,
		allocation.WalletID, allocation.Amount, allocation.Executed, allocation.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert allocation: %w", err)
	}
	return nil
}

// ListByWallet returns a wallet's allocations, newest first.
func (r *AllocationRepo) ListByWallet(ctx context.Context, walletID uuid.UUID) ([]domain.Allocation, error) {
	query := `SELECT id, campaign_id, beneficiary, wallet_id, amount, executed, created_at
		FROM allocations WHERE wallet_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, walletID)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	defer rows.Close()

	var allocations []domain.Allocation
	for rows.Next() {
		a := domain.Allocation{}
		if err := rows.Scan(&a.ID, &a.CampaignID, &a.Beneficiary, &a.WalletID, &a.Amount, &a.Executed, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}
		allocations = append(allocations, a)
	}
	return allocations, rows.Err()
}

// SumByWallet totals a wallet's executed allocations.
func (r *AllocationRepo) SumByWallet(ctx context.Context, walletID uuid.UUID) (int64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM allocations WHERE wallet_id = $1 AND executed`

	var sum int64
	if err := r.pool.QueryRow(ctx, query, walletID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum allocations: %w", err)
	}
	return sum, nil
}
