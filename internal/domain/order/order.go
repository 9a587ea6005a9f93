package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
)

// PaymentMethod enumerates how an order is paid.
type PaymentMethod string

const (
	PaymentWallet         PaymentMethod = "WALLET"
	PaymentCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"
	PaymentGateway        PaymentMethod = "GATEWAY"
)

// PaymentStatus enumerates the payment state of an order.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusAwaiting PaymentStatus = "AWAITING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

// Sentinel errors for order validation and lookup.
var (
	ErrNotFound              = errors.New("order not found")
	ErrEmptyItems            = errors.New("items required")
	ErrUnknownPaymentMethod  = errors.New("unknown payment method")
	ErrWalletRequiresAccount = errors.New("wallet payment requires an account")
)

// MaxItemQuantity bounds a single cart line. It keeps request payloads
// honest and puts subtotal arithmetic far away from int64 overflow.
const MaxItemQuantity = 1_000

// InvalidQuantityError indicates a line item quantity outside
// [1, MaxItemQuantity].
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be between 1 and %d for product %s", MaxItemQuantity, e.ProductID)
}

// ProductNotFoundError indicates a requested product does not exist or is no
// longer sold.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// OutOfStockError indicates a line item requested more units than available.
type OutOfStockError struct {
	ProductID string
	Requested int64
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("product %s is out of stock", e.ProductID)
}

// BelowMinimumError indicates the subtotal is under the service area's
// minimum order amount.
type BelowMinimumError struct {
	AreaID        string
	MinOrderCents int64
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("order subtotal is below the %d cent minimum for area %s", e.MinOrderCents, e.AreaID)
}

// InvalidPromoError carries the user-facing rejection message from promo
// validation.
type InvalidPromoError struct {
	Message string
}

func (e *InvalidPromoError) Error() string {
	return e.Message
}

// Item is one product+quantity+price-snapshot line within an order.
// UnitPriceCents is fixed at placement time and never recomputed from the
// catalog.
type Item struct {
	ProductID      string `json:"product_id"`
	VariantID      string `json:"variant_id,omitempty"`
	Quantity       int64  `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

// Recipient holds the delivery contact details captured at checkout.
type Recipient struct {
	Name    string
	Phone   string
	Address string
	Notes   string
}

// Order represents one purchase: line items, computed totals, delivery
// assignment, payment state, and lifecycle status. Totals always satisfy
// TotalCents = SubtotalCents + DeliveryFeeCents - DiscountCents, with
// TotalCents >= 0.
type Order struct {
	ID               string
	OrderNumber      string
	AccountID        string // empty for guest orders
	Status           Status
	Items            []Item
	SubtotalCents    int64
	DeliveryFeeCents int64
	DiscountCents    int64
	TotalCents       int64
	PromoCode        string
	ServiceAreaID    string
	PaymentMethod    PaymentMethod
	PaymentStatus    PaymentStatus
	Recipient        Recipient
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeliveredAt      *time.Time
}

// Repository defines persistence operations for orders. Implementations must
// honor an ambient storage transaction when one is carried in the context.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByAccount(ctx context.Context, accountID string, limit int) ([]Order, error)
	// TransitionStatus moves the order to next only while its current
	// status is one of from, atomically against concurrent writers; a
	// transition to StatusDelivered also stamps delivered_at. Reports
	// whether the transition happened; false means another writer moved
	// the order first (or it does not exist).
	TransitionStatus(ctx context.Context, id string, next Status, from ...Status) (bool, error)
	// SettlePayment moves the payment state from -> to atomically.
	// Reports whether the payment state changed.
	SettlePayment(ctx context.Context, id string, from, to PaymentStatus) (bool, error)
}

// TxRunner runs fn inside one storage transaction. Every repository call made
// with the ctx passed to fn joins that transaction; an error from fn rolls
// the whole unit back.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
