package promo

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func tp(t time.Time) *time.Time {
	return &t
}

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name          string
		rule          *Rule
		subtotalCents int64
		wantValid     bool
		wantMessage   string
		wantDiscount  int64
	}{
		{
			name: "inactive code",
			rule: &Rule{
				Code:         "OLDCODE",
				DiscountType: DiscountPercentage,
				Value:        d("10"),
				Active:       false,
			},
			subtotalCents: 5000,
			wantValid:     false,
			wantMessage:   "This promo code is no longer active",
		},
		{
			name: "not yet active",
			rule: &Rule{
				Code:         "SOON",
				DiscountType: DiscountPercentage,
				Value:        d("10"),
				StartsAt:     tp(testNow.Add(24 * time.Hour)),
				Active:       true,
			},
			subtotalCents: 5000,
			wantValid:     false,
			wantMessage:   "This promo code is not yet active",
		},
		{
			name: "expired",
			rule: &Rule{
				Code:         "GONE",
				DiscountType: DiscountPercentage,
				Value:        d("10"),
				ExpiresAt:    tp(testNow.Add(-time.Hour)),
				Active:       true,
			},
			subtotalCents: 5000,
			wantValid:     false,
			wantMessage:   "This promo code has expired",
		},
		{
			name: "usage limit reached",
			rule: &Rule{
				Code:          "LIMITED",
				DiscountType:  DiscountPercentage,
				Value:         d("10"),
				MaxUsageCount: 100,
				UsageCount:    100,
				Active:        true,
			},
			subtotalCents: 5000,
			wantValid:     false,
			wantMessage:   "This promo code has reached its usage limit",
		},
		{
			name: "below minimum order",
			rule: &Rule{
				Code:          "BIGONLY",
				DiscountType:  DiscountPercentage,
				Value:         d("10"),
				MinOrderCents: 2500,
				Active:        true,
			},
			subtotalCents: 2000,
			wantValid:     false,
			wantMessage:   "Minimum order of $25.00 required",
		},
		{
			name: "inactive wins over expiry",
			rule: &Rule{
				Code:         "BOTH",
				DiscountType: DiscountPercentage,
				Value:        d("10"),
				ExpiresAt:    tp(testNow.Add(-time.Hour)),
				Active:       false,
			},
			subtotalCents: 5000,
			wantValid:     false,
			wantMessage:   "This promo code is no longer active",
		},
		{
			name: "percentage 10% of $50.00",
			rule: &Rule{
				Code:         "TEN",
				DiscountType: DiscountPercentage,
				Value:        d("10"),
				Active:       true,
			},
			subtotalCents: 5000,
			wantValid:     true,
			wantDiscount:  500,
		},
		{
			name: "fractional percentage rounds half up",
			rule: &Rule{
				Code:         "ODD",
				DiscountType: DiscountPercentage,
				Value:        d("12.5"),
				Active:       true,
			},
			subtotalCents: 999,
			wantValid:     true,
			wantDiscount:  125,
		},
		{
			name: "percentage clamped at 100",
			rule: &Rule{
				Code:         "FREEBIE",
				DiscountType: DiscountPercentage,
				Value:        d("100"),
				Active:       true,
			},
			subtotalCents: 4200,
			wantValid:     true,
			wantDiscount:  4200,
		},
		{
			name: "fixed amount",
			rule: &Rule{
				Code:         "FIVE",
				DiscountType: DiscountFixedAmount,
				Value:        d("500"),
				Active:       true,
			},
			subtotalCents: 5000,
			wantValid:     true,
			wantDiscount:  500,
		},
		{
			name: "fixed amount clamped to subtotal",
			rule: &Rule{
				Code:         "HUGE",
				DiscountType: DiscountFixedAmount,
				Value:        d("5000"),
				Active:       true,
			},
			subtotalCents: 100,
			wantValid:     true,
			wantDiscount:  100,
		},
		{
			name: "limit not reached with zero max means unlimited",
			rule: &Rule{
				Code:          "FOREVER",
				DiscountType:  DiscountPercentage,
				Value:         d("10"),
				MaxUsageCount: 0,
				UsageCount:    999999,
				Active:        true,
			},
			subtotalCents: 1000,
			wantValid:     true,
			wantDiscount:  100,
		},
		{
			name: "minimum order met exactly",
			rule: &Rule{
				Code:          "EXACT",
				DiscountType:  DiscountFixedAmount,
				Value:         d("200"),
				MinOrderCents: 2000,
				Active:        true,
			},
			subtotalCents: 2000,
			wantValid:     true,
			wantDiscount:  200,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.rule, tt.subtotalCents, testNow)

			assert.Equal(t, tt.wantValid, got.Valid)
			if !tt.wantValid {
				assert.Equal(t, tt.wantMessage, got.Message)
				return
			}
			assert.Equal(t, tt.rule.Code, got.Code)
			assert.Equal(t, tt.wantDiscount, got.DiscountCents)
		})
	}
}

type stubPromoRepo struct {
	rules map[string]*Rule
}

func (s *stubPromoRepo) FindByCode(_ context.Context, code string) (*Rule, error) {
	r, ok := s.rules[code]
	if !ok {
		return nil, ErrCodeNotFound
	}
	return r, nil
}

func (s *stubPromoRepo) IncrementUsage(context.Context, string) error { return nil }

func TestEvaluatorValidate(t *testing.T) {
	repo := &stubPromoRepo{rules: map[string]*Rule{
		"FRESH10": {
			Code:         "FRESH10",
			DiscountType: DiscountPercentage,
			Value:        d("10"),
			Active:       true,
		},
	}}
	ev := NewEvaluator(repo)
	ev.now = func() time.Time { return testNow }

	t.Run("unknown code is a rejection not an error", func(t *testing.T) {
		got, err := ev.Validate(context.Background(), "NOPE", 5000)
		require.NoError(t, err)
		assert.False(t, got.Valid)
		assert.Equal(t, "Invalid promo code", got.Message)
	})

	t.Run("known code validates", func(t *testing.T) {
		got, err := ev.Validate(context.Background(), "FRESH10", 5000)
		require.NoError(t, err)
		assert.True(t, got.Valid)
		assert.Equal(t, int64(500), got.DiscountCents)
	})
}
