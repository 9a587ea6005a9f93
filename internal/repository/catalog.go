package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/greenbasket/grocer/internal/domain/catalog"
)

const (
	listProductsSQL = `SELECT id, name, price_cents, category, active
		FROM products WHERE active ORDER BY category, name`

	getProductsByIDsSQL = `SELECT id, name, price_cents, category, active
		FROM products WHERE active AND id = ANY($1)`

	listAreasSQL = `SELECT id, name, delivery_fee_cents, min_order_cents, active
		FROM service_areas WHERE active ORDER BY name`

	getAreaSQL = `SELECT id, name, delivery_fee_cents, min_order_cents, active
		FROM service_areas WHERE id = $1 AND active`
)

var (
	_ catalog.ProductRepository = (*ProductRepository)(nil)
	_ catalog.AreaRepository    = (*AreaRepository)(nil)
)

// ProductRepository implements catalog.ProductRepository backed by PostgreSQL.
type ProductRepository struct {
	db *DB
}

// NewProductRepository returns a ProductRepository using the given DB.
func NewProductRepository(db *DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// List returns all active products.
func (r *ProductRepository) List(ctx context.Context) ([]catalog.Product, error) {
	rows, err := r.db.q(ctx).Query(ctx, listProductsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "listing products")
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, errors.Wrap(err, "listing products")
	}
	return products, nil
}

// GetByIDs returns the active products matching ids, in a single query.
// Missing ids are simply absent from the result; the caller decides whether
// that is an error.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]catalog.Product, error) {
	rows, err := r.db.q(ctx).Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, errors.Wrap(err, "getting products by ids")
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, errors.Wrap(err, "getting products by ids")
	}
	return products, nil
}

func scanProduct(row pgx.CollectableRow) (catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(&p.ID, &p.Name, &p.PriceCents, &p.Category, &p.Active)
	return p, err
}

// AreaRepository implements catalog.AreaRepository backed by PostgreSQL.
type AreaRepository struct {
	db *DB
}

// NewAreaRepository returns an AreaRepository using the given DB.
func NewAreaRepository(db *DB) *AreaRepository {
	return &AreaRepository{db: db}
}

// List returns all active service areas.
func (r *AreaRepository) List(ctx context.Context) ([]catalog.ServiceArea, error) {
	rows, err := r.db.q(ctx).Query(ctx, listAreasSQL)
	if err != nil {
		return nil, errors.Wrap(err, "listing service areas")
	}
	areas, err := pgx.CollectRows(rows, scanArea)
	if err != nil {
		return nil, errors.Wrap(err, "listing service areas")
	}
	return areas, nil
}

// GetByID returns an active service area.
// Returns catalog.ErrAreaNotFound for unknown or inactive areas.
func (r *AreaRepository) GetByID(ctx context.Context, id string) (*catalog.ServiceArea, error) {
	rows, err := r.db.q(ctx).Query(ctx, getAreaSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "getting service area %q", id)
	}
	area, err := pgx.CollectExactlyOneRow(rows, scanArea)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrAreaNotFound
		}
		return nil, errors.Wrapf(err, "getting service area %q", id)
	}
	return &area, nil
}

func scanArea(row pgx.CollectableRow) (catalog.ServiceArea, error) {
	var a catalog.ServiceArea
	err := row.Scan(&a.ID, &a.Name, &a.DeliveryFeeCents, &a.MinOrderCents, &a.Active)
	return a, err
}
