package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/greenbasket/grocer/internal/domain/inventory"
)

const (
	// The stock check is part of the UPDATE predicate so concurrent orders on
	// the same product cannot both pass a read-then-write check.
	decrementStockSQL = `UPDATE inventory
		SET stock_quantity = stock_quantity - $2
		WHERE product_id = $1 AND stock_quantity >= $2
		RETURNING stock_quantity`

	restoreStockSQL = `UPDATE inventory
		SET stock_quantity = stock_quantity + $2
		WHERE product_id = $1
		RETURNING stock_quantity`

	getStockSQL = `SELECT stock_quantity FROM inventory WHERE product_id = $1`

	inventoryExistsSQL = `SELECT EXISTS (SELECT 1 FROM inventory WHERE product_id = $1)`
)

var _ inventory.Store = (*InventoryRepository)(nil)

// InventoryRepository implements inventory.Store backed by PostgreSQL.
type InventoryRepository struct {
	db *DB
}

// NewInventoryRepository returns an InventoryRepository using the given DB.
func NewInventoryRepository(db *DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

// DecrementStock subtracts quantity from the product's stock counter.
func (r *InventoryRepository) DecrementStock(ctx context.Context, productID string, quantity int64) (int64, error) {
	q := r.db.q(ctx)

	var remaining int64
	err := q.QueryRow(ctx, decrementStockSQL, productID, quantity).Scan(&remaining)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return 0, errors.Wrapf(err, "decrement stock for %q", productID)
		}
		var exists bool
		if err := q.QueryRow(ctx, inventoryExistsSQL, productID).Scan(&exists); err != nil {
			return 0, errors.Wrapf(err, "check inventory for %q", productID)
		}
		if !exists {
			return 0, inventory.ErrProductNotFound
		}
		return 0, inventory.ErrInsufficientStock
	}
	return remaining, nil
}

// RestoreStock adds quantity back to the product's stock counter.
func (r *InventoryRepository) RestoreStock(ctx context.Context, productID string, quantity int64) (int64, error) {
	var remaining int64
	err := r.db.q(ctx).QueryRow(ctx, restoreStockSQL, productID, quantity).Scan(&remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, inventory.ErrProductNotFound
		}
		return 0, errors.Wrapf(err, "restore stock for %q", productID)
	}
	return remaining, nil
}

// GetStock returns the current stock level for a product.
func (r *InventoryRepository) GetStock(ctx context.Context, productID string) (int64, error) {
	var stock int64
	err := r.db.q(ctx).QueryRow(ctx, getStockSQL, productID).Scan(&stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, inventory.ErrProductNotFound
		}
		return 0, errors.Wrapf(err, "get stock for %q", productID)
	}
	return stock, nil
}
