package repository

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/greenbasket/grocer/internal/domain/promo"
)

const (
	getPromoSQL = `SELECT code, discount_type, discount_value, min_order_cents,
		max_usage_count, usage_count, starts_at, expires_at, active
		FROM promo_codes WHERE UPPER(code) = UPPER($1)`

	incrementUsageSQL = `UPDATE promo_codes SET usage_count = usage_count + 1
		WHERE UPPER(code) = UPPER($1)
		AND (max_usage_count = 0 OR usage_count < max_usage_count)`
)

var _ promo.Repository = (*PromoRepository)(nil)

// PromoRepository implements promo.Repository backed by PostgreSQL.
type PromoRepository struct {
	db *DB
}

// NewPromoRepository returns a PromoRepository using the given DB.
func NewPromoRepository(db *DB) *PromoRepository {
	return &PromoRepository{db: db}
}

// FindByCode looks up a promo rule by its code, case-insensitively.
// Returns promo.ErrCodeNotFound when no matching code exists. Inactive rules
// are returned so the evaluator can produce the "no longer active" message.
func (r *PromoRepository) FindByCode(ctx context.Context, code string) (*promo.Rule, error) {
	rows, err := r.db.q(ctx).Query(ctx, getPromoSQL, code)
	if err != nil {
		return nil, errors.Wrapf(err, "finding promo code %q", code)
	}

	rule, err := pgx.CollectExactlyOneRow(rows, scanPromoRule)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, promo.ErrCodeNotFound
		}
		return nil, errors.Wrapf(err, "finding promo code %q", code)
	}
	return &rule, nil
}

// IncrementUsage atomically bumps the redemption counter for the code. The
// cap is enforced in the UPDATE predicate, so concurrent redemptions racing
// past validation cannot push the counter over max_usage_count.
func (r *PromoRepository) IncrementUsage(ctx context.Context, code string) error {
	tag, err := r.db.q(ctx).Exec(ctx, incrementUsageSQL, code)
	if err != nil {
		return errors.Wrapf(err, "incrementing usage for promo %q", code)
	}
	if tag.RowsAffected() == 0 {
		return promo.ErrUsageLimitReached
	}
	return nil
}

func scanPromoRule(row pgx.CollectableRow) (promo.Rule, error) {
	var (
		rule         promo.Rule
		discountType string
		value        decimal.Decimal
		maxUsage     int32
		usage        int32
		startsAt     *time.Time
		expiresAt    *time.Time
	)
	err := row.Scan(
		&rule.Code, &discountType, &value, &rule.MinOrderCents,
		&maxUsage, &usage, &startsAt, &expiresAt, &rule.Active,
	)
	rule.DiscountType = promo.DiscountType(discountType)
	rule.Value = value
	rule.MaxUsageCount = int(maxUsage)
	rule.UsageCount = int(usage)
	rule.StartsAt = startsAt
	rule.ExpiresAt = expiresAt
	return rule, err
}
