package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/greenbasket/grocer/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO orders
		(id, order_number, account_id, status, subtotal_cents, delivery_fee_cents,
		 discount_cents, total_cents, promo_code, service_area_id, payment_method,
		 payment_status, recipient_name, recipient_phone, delivery_address,
		 delivery_notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	insertOrderItemSQL = `INSERT INTO order_items
		(order_id, product_id, variant_id, quantity, unit_price_cents)
		VALUES ($1, $2, $3, $4, $5)`

	selectOrderSQL = `SELECT id, order_number, account_id, status, subtotal_cents,
		delivery_fee_cents, discount_cents, total_cents, promo_code, service_area_id,
		payment_method, payment_status, recipient_name, recipient_phone,
		delivery_address, delivery_notes, created_at, updated_at, delivered_at
		FROM orders`

	getOrderSQL = selectOrderSQL + ` WHERE id = $1`

	listOrdersSQL = selectOrderSQL + ` WHERE account_id = $1
		ORDER BY created_at DESC LIMIT $2`

	selectItemsSQL = `SELECT product_id, variant_id, quantity, unit_price_cents
		FROM order_items WHERE order_id = $1`

	transitionStatusSQL = `UPDATE orders SET status = $2, updated_at = now(),
		delivered_at = CASE WHEN $2 = 'DELIVERED' THEN now() ELSE delivered_at END
		WHERE id = $1 AND status = ANY($3)`

	settlePaymentSQL = `UPDATE orders SET payment_status = $3, updated_at = now()
		WHERE id = $1 AND payment_status = $2`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Line
// items live in their own table so stock and pricing queries can join on
// them directly.
type OrderRepository struct {
	db *DB
}

// NewOrderRepository returns an OrderRepository using the given DB.
func NewOrderRepository(db *DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create persists the order and its line items.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	q := r.db.q(ctx)

	var accountID *string
	if o.AccountID != "" {
		accountID = &o.AccountID
	}

	_, err := q.Exec(ctx, insertOrderSQL,
		o.ID, o.OrderNumber, accountID, string(o.Status),
		o.SubtotalCents, o.DeliveryFeeCents, o.DiscountCents, o.TotalCents,
		o.PromoCode, o.ServiceAreaID, string(o.PaymentMethod), string(o.PaymentStatus),
		o.Recipient.Name, o.Recipient.Phone, o.Recipient.Address, o.Recipient.Notes,
		o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "creating order %q", o.ID)
	}

	for _, item := range o.Items {
		_, err := q.Exec(ctx, insertOrderItemSQL,
			o.ID, item.ProductID, item.VariantID, item.Quantity, item.UnitPriceCents,
		)
		if err != nil {
			return errors.Wrapf(err, "creating order item %q/%q", o.ID, item.ProductID)
		}
	}
	return nil
}

// GetByID returns the order with its line items.
// Returns order.ErrNotFound when no matching order exists.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	q := r.db.q(ctx)

	rows, err := q.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "getting order %q", id)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "getting order %q", id)
	}

	itemRows, err := q.Query(ctx, selectItemsSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "getting items for order %q", id)
	}
	o.Items, err = pgx.CollectRows(itemRows, scanOrderItem)
	if err != nil {
		return nil, errors.Wrapf(err, "getting items for order %q", id)
	}

	return &o, nil
}

// ListByAccount returns an account's most recent orders, items included.
func (r *OrderRepository) ListByAccount(ctx context.Context, accountID string, limit int) ([]order.Order, error) {
	q := r.db.q(ctx)

	rows, err := q.Query(ctx, listOrdersSQL, accountID, limit)
	if err != nil {
		return nil, errors.Wrapf(err, "listing orders for %q", accountID)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, errors.Wrapf(err, "listing orders for %q", accountID)
	}

	for i := range orders {
		itemRows, err := q.Query(ctx, selectItemsSQL, orders[i].ID)
		if err != nil {
			return nil, errors.Wrapf(err, "getting items for order %q", orders[i].ID)
		}
		orders[i].Items, err = pgx.CollectRows(itemRows, scanOrderItem)
		if err != nil {
			return nil, errors.Wrapf(err, "getting items for order %q", orders[i].ID)
		}
	}
	return orders, nil
}

// TransitionStatus moves the order to next only while its current status is
// one of from, in a single conditional UPDATE so concurrent writers cannot
// both win; DELIVERED also stamps delivered_at. Reports whether the row
// changed.
func (r *OrderRepository) TransitionStatus(ctx context.Context, id string, next order.Status, from ...order.Status) (bool, error) {
	states := make([]string, len(from))
	for i, s := range from {
		states[i] = string(s)
	}
	tag, err := r.db.q(ctx).Exec(ctx, transitionStatusSQL, id, string(next), states)
	if err != nil {
		return false, errors.Wrapf(err, "transitioning order %q to %s", id, next)
	}
	return tag.RowsAffected() > 0, nil
}

// SettlePayment moves the payment state from -> to with the same
// conditional-UPDATE pattern, so a settled payment can never be settled
// again. Reports whether the row changed.
func (r *OrderRepository) SettlePayment(ctx context.Context, id string, from, to order.PaymentStatus) (bool, error) {
	tag, err := r.db.q(ctx).Exec(ctx, settlePaymentSQL, id, string(from), string(to))
	if err != nil {
		return false, errors.Wrapf(err, "settling payment for order %q", id)
	}
	return tag.RowsAffected() > 0, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o             order.Order
		accountID     *string
		status        string
		paymentMethod string
		paymentStatus string
	)
	err := row.Scan(
		&o.ID, &o.OrderNumber, &accountID, &status,
		&o.SubtotalCents, &o.DeliveryFeeCents, &o.DiscountCents, &o.TotalCents,
		&o.PromoCode, &o.ServiceAreaID, &paymentMethod, &paymentStatus,
		&o.Recipient.Name, &o.Recipient.Phone, &o.Recipient.Address, &o.Recipient.Notes,
		&o.CreatedAt, &o.UpdatedAt, &o.DeliveredAt,
	)
	if accountID != nil {
		o.AccountID = *accountID
	}
	o.Status = order.Status(status)
	o.PaymentMethod = order.PaymentMethod(paymentMethod)
	o.PaymentStatus = order.PaymentStatus(paymentStatus)
	return o, err
}

func scanOrderItem(row pgx.CollectableRow) (order.Item, error) {
	var item order.Item
	err := row.Scan(&item.ProductID, &item.VariantID, &item.Quantity, &item.UnitPriceCents)
	return item, err
}
