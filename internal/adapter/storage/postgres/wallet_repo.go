package postgres

import (
	"context"
	"errors"
	"fmt"

	"relief-fund-gateway/internal/core/domain"
	"relief-fund-gateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const walletColumns = `id, campaign_id, beneficiary, total_received, total_spent, created_at, updated_at`

// WalletRepo implements ports.WalletRepository over the wallets and
// merchant_approvals tables. wallets carries a unique constraint on
// (campaign_id, beneficiary); merchant_approvals on
// (wallet_id, merchant, category).
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

func scanWallet(row pgx.Row) (*domain.RestrictedWallet, error) {
	w := &domain.RestrictedWallet{}
	err := row.Scan(&w.ID, &w.CampaignID, &w.Beneficiary, &w.TotalReceived, &w.TotalSpent, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// CreateIfAbsent inserts the wallet unless one already exists for its
// (campaign, beneficiary) pair, then re-reads the surviving row under a row
// lock. The ON CONFLICT clause makes the insert race-safe: two concurrent
// allocations both land on the same row, serialized by the lock.
func (r *WalletRepo) CreateIfAbsent(ctx context.Context, tx pgx.Tx, wallet *domain.RestrictedWallet) (*domain.RestrictedWallet, bool, error) {
	insert := `INSERT INTO wallets (id, campaign_id, beneficiary, total_received, total_spent, created_at, updated_at)
		VALUES ($1, $2, $3, 0, 0, NOW(), NOW())
		ON CONFLICT (campaign_id, beneficiary) DO NOTHING`

	tag, err := tx.Exec(ctx, insert, wallet.ID, wallet.CampaignID, wallet.Beneficiary)
	if err != nil {
		return nil, false, fmt.Errorf("insert wallet: %w", err)
	}
	created := tag.RowsAffected() == 1

	query := `SELECT ` + walletColumns + ` FROM wallets
		WHERE campaign_id = $1 AND beneficiary = $2 FOR UPDATE`

	w, err := scanWallet(tx.QueryRow(ctx, query, wallet.CampaignID, wallet.Beneficiary))
	if err != nil {
		return nil, false, fmt.Errorf("reread wallet: %w", err)
	}
	return w, created, nil
}

// GetByID fetches a wallet without locking.
func (r *WalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.RestrictedWallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1`

	w, err := scanWallet(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet: %w", err)
	}
	return w, nil
}

// GetByIDForUpdate fetches a wallet with pessimistic locking.
// This MUST be called within a transaction.
func (r *WalletRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.RestrictedWallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1 FOR UPDATE`

	w, err := scanWallet(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet for update: %w", err)
	}
	return w, nil
}

// GetByCampaignAndBeneficiary fetches the single wallet for the pair, nil if
// none was ever allocated.
func (r *WalletRepo) GetByCampaignAndBeneficiary(ctx context.Context, campaignID, beneficiary uuid.UUID) (*domain.RestrictedWallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets
		WHERE campaign_id = $1 AND beneficiary = $2`

	w, err := scanWallet(r.pool.QueryRow(ctx, query, campaignID, beneficiary))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet by pair: %w", err)
	}
	return w, nil
}

// AddReceived bumps the lifetime top-up counter within a transaction.
func (r *WalletRepo) AddReceived(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount int64) error {
	query := `UPDATE wallets
		SET total_received = total_received + $1, updated_at = NOW() WHERE id = $2`

	tag, err := tx.Exec(ctx, query, amount, walletID)
	if err != nil {
		return fmt.Errorf("add received: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", walletID)
	}
	return nil
}

// AddSpent bumps the lifetime spend counter within a transaction. The SQL
// guard mirrors the service check: total spent can never pass total received.
func (r *WalletRepo) AddSpent(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount int64) error {
	query := `UPDATE wallets
		SET total_spent = total_spent + $1, updated_at = NOW()
		WHERE id = $2 AND total_spent + $1 <= total_received`

	tag, err := tx.Exec(ctx, query, amount, walletID)
	if err != nil {
		return fmt.Errorf("add spent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet overspend refused: %s", walletID)
	}
	return nil
}

// CreateApproval records a per-wallet merchant approval within a transaction.
// A zero-row insert means another transaction already holds the triple.
func (r *WalletRepo) CreateApproval(ctx context.Context, tx pgx.Tx, approval *domain.MerchantApproval) error {
	query := `INSERT INTO merchant_approvals (id, wallet_id, merchant, category, approved_by, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (wallet_id, merchant, category) DO NOTHING`

	tag, err := tx.Exec(ctx, query, approval.ID, approval.WalletID, approval.Merchant, approval.Category, approval.ApprovedBy)
	if err != nil {
		return fmt.Errorf("insert merchant approval: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrDuplicateApproval
	}
	return nil
}

// IsMerchantApproved reports whether the merchant may receive spends of the
// category from the wallet.
func (r *WalletRepo) IsMerchantApproved(ctx context.Context, walletID, merchant uuid.UUID, category domain.SpendCategory) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM merchant_approvals
		WHERE wallet_id = $1 AND merchant = $2 AND category = $3)`

	var approved bool
	if err := r.pool.QueryRow(ctx, query, walletID, merchant, category).Scan(&approved); err != nil {
		return false, fmt.Errorf("check merchant approval: %w", err)
	}
	return approved, nil
}

// ListApprovals returns every approval granted on the wallet.
func (r *WalletRepo) ListApprovals(ctx context.Context, walletID uuid.UUID) ([]domain.MerchantApproval, error) {
	query := `SELECT id, wallet_id, merchant, category, approved_by, created_at
		FROM merchant_approvals WHERE wallet_id = $1 ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, walletID)
	if err != nil {
		return nil, fmt.Errorf("list merchant approvals: %w", err)
	}
	defer rows.Close()

	var approvals []domain.MerchantApproval
	for rows.Next() {
		a := domain.MerchantApproval{}
		if err := rows.Scan(&a.ID, &a.WalletID, &a.Merchant, &a.Category, &a.ApprovedBy, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan merchant approval: %w", err)
		}
		approvals = append(approvals, a)
	}
	return approvals, rows.Err()
}
