package ledger

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// EntryType enumerates the kinds of balance mutations recorded in the ledger.
type EntryType string

const (
	// EntryTopUp credits a wallet from an external payment.
	EntryTopUp EntryType = "top_up"
	// EntryOrderPayment debits a wallet to pay for an order.
	EntryOrderPayment EntryType = "order_payment"
	// EntryRefund credits a wallet when an order is cancelled.
	EntryRefund EntryType = "refund"
	// EntryAdjustment is a manual operator correction, either direction.
	EntryAdjustment EntryType = "adjustment"
)

// ReferenceOrder links a ledger entry to the order that caused it.
const ReferenceOrder = "order"

var (
	// ErrInsufficientFunds is returned when a debit would take the balance
	// below zero. The balance is left unchanged.
	ErrInsufficientFunds = errors.New("insufficient wallet funds")
	// ErrAccountNotFound is returned when no wallet exists for the account.
	ErrAccountNotFound = errors.New("wallet account not found")
)

// Entry is one immutable record of a balance change. Entries are append-only:
// created exactly once per mutation, never updated or deleted.
type Entry struct {
	ID                string
	AccountID         string
	Type              EntryType
	AmountCents       int64 // positive = credit, negative = debit
	ReferenceType     string
	ReferenceID       string
	BalanceAfterCents int64
	Description       string
	CreatedAt         time.Time
}

// TransactionInput describes a requested balance mutation.
type TransactionInput struct {
	Type          EntryType
	AmountCents   int64
	Description   string
	ReferenceType string
	ReferenceID   string
}

// RefundResult reports the outcome of a refund attempt. Refunds are issued
// during order cancellation, which must proceed even when the refund fails,
// so the failure is carried as a value instead of an error return.
type RefundResult struct {
	OK    bool
	Entry *Entry
	Err   error
}

// Store persists wallet balances and the append-only transaction log.
type Store interface {
	// RecordTransaction applies the balance change and appends the matching
	// ledger entry as one atomic unit. Returns ErrInsufficientFunds when a
	// debit would go negative and ErrAccountNotFound for unknown accounts.
	RecordTransaction(ctx context.Context, accountID string, input TransactionInput) (*Entry, error)
	// GetBalance returns the current balance in cents.
	GetBalance(ctx context.Context, accountID string) (int64, error)
	// ListEntries returns the most recent entries for an account, newest first.
	ListEntries(ctx context.Context, accountID string, limit int) ([]Entry, error)
}

// RefundForOrder credits amountCents back to the account with an order
// reference. It never returns an error: the caller inspects the result and
// decides whether the failure matters.
func RefundForOrder(ctx context.Context, store Store, accountID, orderID string, amountCents int64, orderNumber string) RefundResult {
	entry, err := store.RecordTransaction(ctx, accountID, TransactionInput{
		Type:          EntryRefund,
		AmountCents:   amountCents,
		Description:   "Refund for order " + orderNumber,
		ReferenceType: ReferenceOrder,
		ReferenceID:   orderID,
	})
	if err != nil {
		return RefundResult{OK: false, Err: err}
	}
	return RefundResult{OK: true, Entry: entry}
}
