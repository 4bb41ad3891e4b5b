package postgres

import (
	"context"
	"errors"
	"fmt"

	"relief-fund-gateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Ledger implements ports.TokenLedger over a single balances table. Every
// movement runs on the caller's transaction; the conditional debit makes
// overdrafts impossible regardless of what the caller checked beforehand.
type Ledger struct {
	pool Pool
}

// NewLedger creates a new Ledger.
func NewLedger(pool Pool) *Ledger {
	return &Ledger{pool: pool}
}

// EnsureAccount creates the holder's balance row if it does not exist.
func (l *Ledger) EnsureAccount(ctx context.Context, tx pgx.Tx, holder uuid.UUID) error {
	query := `INSERT INTO ledger_accounts (holder, balance) VALUES ($1, 0)
		ON CONFLICT (holder) DO NOTHING`

	if _, err := tx.Exec(ctx, query, holder); err != nil {
		return fmt.Errorf("ensure ledger account: %w", err)
	}
	return nil
}

// Transfer debits from and credits to, returning the credited amount. The
// debit is conditional on sufficient balance; zero rows affected means the
// source could not cover the amount.
func (l *Ledger) Transfer(ctx context.Context, tx pgx.Tx, from, to uuid.UUID, amount int64) (int64, error) {
	debit := `UPDATE ledger_accounts SET balance = balance - $1
		WHERE holder = $2 AND balance >= $1`

	tag, err := tx.Exec(ctx, debit, amount, from)
	if err != nil {
		return 0, fmt.Errorf("ledger debit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, ports.ErrInsufficientFunds
	}

	credit := `UPDATE ledger_accounts SET balance = balance + $1 WHERE holder = $2
		RETURNING balance`

	var newBalance int64
	if err := tx.QueryRow(ctx, credit, amount, to).Scan(&newBalance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("ledger credit: no account for holder %s", to)
		}
		return 0, fmt.Errorf("ledger credit: %w", err)
	}

	return amount, nil
}

// Mint credits new value to the holder, returning the credited amount.
func (l *Ledger) Mint(ctx context.Context, tx pgx.Tx, holder uuid.UUID, amount int64) (int64, error) {
	query := `UPDATE ledger_accounts SET balance = balance + $1 WHERE holder = $2`

	tag, err := tx.Exec(ctx, query, amount, holder)
	if err != nil {
		return 0, fmt.Errorf("ledger mint: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, fmt.Errorf("ledger mint: no account for holder %s", holder)
	}
	return amount, nil
}

// BalanceOf returns the holder's current balance, zero if no account exists.
func (l *Ledger) BalanceOf(ctx context.Context, holder uuid.UUID) (int64, error) {
	query := `SELECT balance FROM ledger_accounts WHERE holder = $1`

	var balance int64
	err := l.pool.QueryRow(ctx, query, holder).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("ledger balance: %w", err)
	}
	return balance, nil
}
