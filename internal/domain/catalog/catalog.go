package catalog

import (
	"context"

	"github.com/go-faster/errors"
)

var (
	// ErrProductNotFound is returned when a requested product does not exist.
	ErrProductNotFound = errors.New("product not found")
	// ErrAreaNotFound is returned when a service area does not exist or is
	// not accepting orders.
	ErrAreaNotFound = errors.New("service area not found")
)

// Product is a catalog item available for purchase. PriceCents is the current
// catalog price; orders snapshot it into line items at placement time and
// never read it back.
type Product struct {
	ID         string
	Name       string
	PriceCents int64
	Category   string
	Active     bool
}

// ServiceArea is a delivery zone with its own fee and minimum order amount.
type ServiceArea struct {
	ID               string
	Name             string
	DeliveryFeeCents int64
	MinOrderCents    int64
	Active           bool
}

// ProductRepository defines read operations for the product catalog.
type ProductRepository interface {
	List(ctx context.Context) ([]Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
}

// AreaRepository defines read operations for delivery service areas.
type AreaRepository interface {
	List(ctx context.Context) ([]ServiceArea, error)
	// GetByID returns an active service area. Returns ErrAreaNotFound for
	// unknown or inactive areas.
	GetByID(ctx context.Context, id string) (*ServiceArea, error)
}
