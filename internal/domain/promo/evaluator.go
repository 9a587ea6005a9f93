package promo

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Evaluate runs the rejection checks for a rule against an order subtotal.
// The check order is fixed: the caller handles not-found, then active flag,
// start time, expiry, usage limit, and minimum order, each short-circuiting
// with its own user-facing message.
func Evaluate(rule *Rule, subtotalCents int64, now time.Time) Validation {
	if !rule.Active {
		return rejected("This promo code is no longer active")
	}
	if rule.StartsAt != nil && now.Before(*rule.StartsAt) {
		return rejected("This promo code is not yet active")
	}
	if rule.ExpiresAt != nil && now.After(*rule.ExpiresAt) {
		return rejected("This promo code has expired")
	}
	if rule.MaxUsageCount > 0 && rule.UsageCount >= rule.MaxUsageCount {
		return rejected("This promo code has reached its usage limit")
	}
	if subtotalCents < rule.MinOrderCents {
		return rejected(fmt.Sprintf("Minimum order of %s required", formatCents(rule.MinOrderCents)))
	}

	return Validation{
		Valid:         true,
		Code:          rule.Code,
		DiscountType:  rule.DiscountType,
		DiscountValue: rule.Value,
		DiscountCents: discountFor(rule, subtotalCents),
	}
}

// discountFor computes the discount in cents, clamped to the subtotal so the
// order total can never go negative.
func discountFor(rule *Rule, subtotalCents int64) int64 {
	var amount int64
	switch rule.DiscountType {
	case DiscountPercentage:
		amount = decimal.NewFromInt(subtotalCents).
			Mul(rule.Value).
			Div(hundred).
			Round(0).
			IntPart()
	case DiscountFixedAmount:
		amount = rule.Value.Round(0).IntPart()
	}

	if amount < 0 {
		amount = 0
	}
	if amount > subtotalCents {
		amount = subtotalCents
	}
	return amount
}

func rejected(message string) Validation {
	return Validation{Valid: false, Message: message}
}

func formatCents(cents int64) string {
	return "$" + decimal.NewFromInt(cents).Div(hundred).StringFixed(2)
}

// Evaluator implements Validator by looking up promo rules from a Repository
// and evaluating them with an injectable clock.
type Evaluator struct {
	repo Repository
	now  func() time.Time
}

var _ Validator = (*Evaluator)(nil)

// NewEvaluator creates an Evaluator backed by the given Repository.
func NewEvaluator(repo Repository) *Evaluator {
	return &Evaluator{repo: repo, now: time.Now}
}

// Validate looks up a code (case-insensitive) and evaluates it against the
// subtotal. An unknown code is a rejection, not an error; errors are reserved
// for repository failures.
func (e *Evaluator) Validate(ctx context.Context, code string, subtotalCents int64) (Validation, error) {
	rule, err := e.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrCodeNotFound) {
			return rejected("Invalid promo code"), nil
		}
		return Validation{}, errors.Wrap(err, "lookup promo code")
	}
	return Evaluate(rule, subtotalCents, e.now()), nil
}
