package repository

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/greenbasket/grocer/internal/domain/ledger"
)

const (
	// The balance check lives inside the UPDATE predicate, so a concurrent
	// debit can never interleave a read-modify-write: zero returned rows
	// means either an unknown account or a debit past zero.
	applyBalanceSQL = `UPDATE wallets
		SET balance_cents = balance_cents + $2, updated_at = now()
		WHERE account_id = $1 AND balance_cents + $2 >= 0
		RETURNING balance_cents`

	walletExistsSQL = `SELECT EXISTS (SELECT 1 FROM wallets WHERE account_id = $1)`

	getBalanceSQL = `SELECT balance_cents FROM wallets WHERE account_id = $1`

	insertEntrySQL = `INSERT INTO wallet_ledger
		(id, account_id, type, amount_cents, reference_type, reference_id,
		 balance_after_cents, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	listEntriesSQL = `SELECT id, account_id, type, amount_cents, reference_type,
		reference_id, balance_after_cents, description, created_at
		FROM wallet_ledger WHERE account_id = $1
		ORDER BY created_at DESC LIMIT $2`

	ensureWalletSQL = `INSERT INTO wallets (account_id) VALUES ($1)
		ON CONFLICT (account_id) DO NOTHING`
)

var _ ledger.Store = (*LedgerRepository)(nil)

// LedgerRepository implements ledger.Store backed by PostgreSQL.
type LedgerRepository struct {
	db *DB
}

// NewLedgerRepository returns a LedgerRepository using the given DB.
func NewLedgerRepository(db *DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// RecordTransaction applies the balance change and appends the ledger entry
// as one atomic unit. It joins an ambient transaction when the caller runs
// inside WithinTx, and opens its own otherwise.
func (r *LedgerRepository) RecordTransaction(ctx context.Context, accountID string, input ledger.TransactionInput) (*ledger.Entry, error) {
	var entry *ledger.Entry

	err := r.db.WithinTx(ctx, func(ctx context.Context) error {
		q := r.db.q(ctx)

		var newBalance int64
		err := q.QueryRow(ctx, applyBalanceSQL, accountID, input.AmountCents).Scan(&newBalance)
		if err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				return errors.Wrap(err, "apply balance change")
			}
			var exists bool
			if err := q.QueryRow(ctx, walletExistsSQL, accountID).Scan(&exists); err != nil {
				return errors.Wrap(err, "check wallet exists")
			}
			if !exists {
				return ledger.ErrAccountNotFound
			}
			return ledger.ErrInsufficientFunds
		}

		e := ledger.Entry{
			ID:                uuid.New().String(),
			AccountID:         accountID,
			Type:              input.Type,
			AmountCents:       input.AmountCents,
			ReferenceType:     input.ReferenceType,
			ReferenceID:       input.ReferenceID,
			BalanceAfterCents: newBalance,
			Description:       input.Description,
			CreatedAt:         time.Now(),
		}
		_, err = q.Exec(ctx, insertEntrySQL,
			e.ID, e.AccountID, string(e.Type), e.AmountCents,
			e.ReferenceType, e.ReferenceID, e.BalanceAfterCents,
			e.Description, e.CreatedAt,
		)
		if err != nil {
			return errors.Wrap(err, "append ledger entry")
		}

		entry = &e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// GetBalance returns the current balance for an account.
func (r *LedgerRepository) GetBalance(ctx context.Context, accountID string) (int64, error) {
	var balance int64
	err := r.db.q(ctx).QueryRow(ctx, getBalanceSQL, accountID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ledger.ErrAccountNotFound
		}
		return 0, errors.Wrapf(err, "get balance for %q", accountID)
	}
	return balance, nil
}

// ListEntries returns the newest ledger entries for an account.
func (r *LedgerRepository) ListEntries(ctx context.Context, accountID string, limit int) ([]ledger.Entry, error) {
	rows, err := r.db.q(ctx).Query(ctx, listEntriesSQL, accountID, limit)
	if err != nil {
		return nil, errors.Wrapf(err, "list ledger entries for %q", accountID)
	}

	entries, err := pgx.CollectRows(rows, scanLedgerEntry)
	if err != nil {
		return nil, errors.Wrapf(err, "list ledger entries for %q", accountID)
	}
	return entries, nil
}

// EnsureWallet creates a zero-balance wallet for the account if none exists.
// Used by the admin top-up path so the first credit opens the wallet.
func (r *LedgerRepository) EnsureWallet(ctx context.Context, accountID string) error {
	if _, err := r.db.q(ctx).Exec(ctx, ensureWalletSQL, accountID); err != nil {
		return errors.Wrapf(err, "ensure wallet for %q", accountID)
	}
	return nil
}

func scanLedgerEntry(row pgx.CollectableRow) (ledger.Entry, error) {
	var (
		e         ledger.Entry
		entryType string
	)
	err := row.Scan(
		&e.ID, &e.AccountID, &entryType, &e.AmountCents,
		&e.ReferenceType, &e.ReferenceID, &e.BalanceAfterCents,
		&e.Description, &e.CreatedAt,
	)
	e.Type = ledger.EntryType(entryType)
	return e, err
}
