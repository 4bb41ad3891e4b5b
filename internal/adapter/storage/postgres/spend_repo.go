package postgres

import (
	"context"
	"fmt"

	"relief-fund-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SpendRepo implements ports.SpendRepository.
type SpendRepo struct {
	pool Pool
}

// NewSpendRepo creates a new SpendRepo.
func NewSpendRepo(pool Pool) *SpendRepo {
	return &SpendRepo{pool: pool}
}

// Create inserts a spend record within a transaction.
func (r *SpendRepo) Create(ctx context.Context, tx pgx.Tx, spend *domain.SpendRecord) error {
	query := `INSERT INTO wallet_spends (id, wallet_id, merchant, amount, category, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := tx.Exec(ctx, query,
		spend.ID, spend.WalletID, spend.Merchant, spend.Amount,
		spend.Category, spend.Description, spend.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert spend: %w", err)
	}
	return nil
}

// ListByWallet returns a wallet's spend records, newest first.
func (r *SpendRepo) ListByWallet(ctx context.Context, walletID uuid.UUID) ([]domain.SpendRecord, error) {
	query := `SELECT id, wallet_id, merchant, amount, category, description, created_at
		FROM wallet_spends WHERE wallet_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, walletID)
	if err != nil {
		return nil, fmt.Errorf("list spends: %w", err)
	}
	defer rows.Close()

	var spends []domain.SpendRecord
	for rows.Next() {
		s := domain.SpendRecord{}
		if err := rows.Scan(&s.ID, &s.WalletID, &s.Merchant, &s.Amount, &s.Category, &s.Description, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan spend: %w", err)
		}
		spends = append(spends, s)
	}
	return spends, rows.Err()
}

// SumByWallet totals a wallet's spends.
func (r *SpendRepo) SumByWallet(ctx context.Context, walletID uuid.UUID) (int64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM wallet_spends WHERE wallet_id = $1`

	var sum int64
	if err := r.pool.QueryRow(ctx, query, walletID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum spends: %w", err)
	}
	return sum, nil
}
