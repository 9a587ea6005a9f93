package inventory

import (
	"context"

	"github.com/go-faster/errors"
)

var (
	// ErrInsufficientStock is returned when a decrement asks for more units
	// than are available. Stock is left unchanged.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrProductNotFound is returned when no inventory row exists for the
	// product. Restore callers treat this as a soft failure.
	ErrProductNotFound = errors.New("inventory product not found")
)

// Record is the stock counter for one product.
type Record struct {
	ProductID     string
	StockQuantity int64
}

// Store persists per-product stock counters. Both mutations execute as a
// single conditional update so concurrent orders on the same product cannot
// interleave a read-modify-write.
type Store interface {
	// DecrementStock subtracts quantity and returns the new stock level.
	// Returns ErrInsufficientStock when quantity exceeds the current stock.
	DecrementStock(ctx context.Context, productID string, quantity int64) (int64, error)
	// RestoreStock adds quantity back and returns the new stock level.
	// Returns ErrProductNotFound when the product row no longer exists.
	RestoreStock(ctx context.Context, productID string, quantity int64) (int64, error)
	// GetStock returns the current stock level for a product.
	GetStock(ctx context.Context, productID string) (int64, error)
}
