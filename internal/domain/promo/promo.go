package promo

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported promo discount strategies.
type DiscountType string

const (
	// DiscountPercentage applies a percentage of the subtotal.
	DiscountPercentage DiscountType = "PERCENTAGE"
	// DiscountFixedAmount subtracts a fixed amount of cents, capped at the subtotal.
	DiscountFixedAmount DiscountType = "FIXED_AMOUNT"
)

var (
	// ErrCodeNotFound is returned by repositories when no promo matches a code.
	ErrCodeNotFound = errors.New("promo code not found")
	// ErrUsageLimitReached is returned by IncrementUsage when the code is
	// already at its redemption cap.
	ErrUsageLimitReached = errors.New("promo usage limit reached")
)

// Rule defines a promo code's discount behaviour and eligibility constraints.
// Value holds a percentage (possibly fractional) for DiscountPercentage and
// an amount of cents for DiscountFixedAmount.
type Rule struct {
	Code          string
	DiscountType  DiscountType
	Value         decimal.Decimal
	MinOrderCents int64
	MaxUsageCount int
	UsageCount    int
	StartsAt      *time.Time
	ExpiresAt     *time.Time
	Active        bool
}

// Validation is the outcome of checking a code against an order subtotal.
// Rejections carry a user-facing message rather than an error: they are
// display text, not program logic.
type Validation struct {
	Valid         bool
	Message       string
	Code          string
	DiscountType  DiscountType
	DiscountValue decimal.Decimal
	DiscountCents int64
}

// Validator validates a promo code against an order subtotal.
type Validator interface {
	Validate(ctx context.Context, code string, subtotalCents int64) (Validation, error)
}

// Repository provides lookup and mutation of promo rules. Lookup is
// case-insensitive on the code.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Rule, error)
	// IncrementUsage bumps the redemption counter; called once per
	// successfully placed order that used the code. Returns
	// ErrUsageLimitReached when the counter is already at the cap.
	IncrementUsage(ctx context.Context, code string) error
}
