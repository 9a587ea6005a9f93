package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/greenbasket/grocer/internal/domain/catalog"
	"github.com/greenbasket/grocer/internal/domain/inventory"
	"github.com/greenbasket/grocer/internal/domain/ledger"
	"github.com/greenbasket/grocer/internal/domain/promo"
)

// ItemRequest is one cart line at checkout.
type ItemRequest struct {
	ProductID string
	VariantID string
	Quantity  int64
}

// PlaceOrderRequest holds the input for placing an order.
type PlaceOrderRequest struct {
	AccountID     string // empty for guest checkout
	Items         []ItemRequest
	ServiceAreaID string
	PromoCode     string
	PaymentMethod PaymentMethod
	Recipient     Recipient
}

// Service is the order lifecycle coordinator. It orchestrates creation,
// cancellation, and status transitions, calling into the inventory and
// ledger stores and enforcing the status machine.
type Service struct {
	orders   Repository
	products catalog.ProductRepository
	areas    catalog.AreaRepository
	promos   promo.Validator
	usage    promo.Repository
	stock    inventory.Store
	wallet   ledger.Store
	tx       TxRunner
	lg       *zap.Logger
	now      func() time.Time
}

// NewService creates the coordinator with its domain dependencies.
func NewService(
	orders Repository,
	products catalog.ProductRepository,
	areas catalog.AreaRepository,
	promos promo.Validator,
	usage promo.Repository,
	stock inventory.Store,
	wallet ledger.Store,
	tx TxRunner,
	lg *zap.Logger,
) *Service {
	return &Service{
		orders:   orders,
		products: products,
		areas:    areas,
		promos:   promos,
		usage:    usage,
		stock:    stock,
		wallet:   wallet,
		tx:       tx,
		lg:       lg,
		now:      time.Now,
	}
}

// PlaceOrder validates the cart, computes totals, and persists the order with
// all of its side effects in one storage transaction: order + item inserts,
// per-item stock decrements, promo usage increment, and the wallet debit for
// wallet payments. Any failure rolls the entire placement back, so a later
// out-of-stock item or an insufficient wallet balance leaves no partial
// decrement behind.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	switch req.PaymentMethod {
	case PaymentWallet:
		if req.AccountID == "" {
			return nil, ErrWalletRequiresAccount
		}
	case PaymentCashOnDelivery, PaymentGateway:
	default:
		return nil, ErrUnknownPaymentMethod
	}

	ids := make([]string, len(req.Items))
	for i, item := range req.Items {
		if item.Quantity <= 0 || item.Quantity > MaxItemQuantity {
			return nil, &InvalidQuantityError{ProductID: item.ProductID}
		}
		ids[i] = item.ProductID
	}

	area, err := s.areas.GetByID(ctx, req.ServiceAreaID)
	if err != nil {
		return nil, err
	}

	// Batch fetch all products and snapshot their prices into line items.
	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	priceByID := make(map[string]int64, len(fetched))
	for _, p := range fetched {
		priceByID[p.ID] = p.PriceCents
	}

	items := make([]Item, len(req.Items))
	var subtotal int64
	for i, item := range req.Items {
		price, ok := priceByID[item.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: item.ProductID}
		}
		items[i] = Item{
			ProductID:      item.ProductID,
			VariantID:      item.VariantID,
			Quantity:       item.Quantity,
			UnitPriceCents: price,
		}
		subtotal += price * item.Quantity
	}

	if subtotal < area.MinOrderCents {
		return nil, &BelowMinimumError{AreaID: area.ID, MinOrderCents: area.MinOrderCents}
	}

	var discount int64
	promoCode := ""
	if req.PromoCode != "" {
		validation, err := s.promos.Validate(ctx, req.PromoCode, subtotal)
		if err != nil {
			return nil, errors.Wrap(err, "validate promo")
		}
		if !validation.Valid {
			return nil, &InvalidPromoError{Message: validation.Message}
		}
		discount = validation.DiscountCents
		promoCode = validation.Code
	}

	total := subtotal + area.DeliveryFeeCents - discount
	now := s.now()

	o := &Order{
		ID:               uuid.New().String(),
		OrderNumber:      s.newOrderNumber(now),
		AccountID:        req.AccountID,
		Status:           StatusPending,
		Items:            items,
		SubtotalCents:    subtotal,
		DeliveryFeeCents: area.DeliveryFeeCents,
		DiscountCents:    discount,
		TotalCents:       total,
		PromoCode:        promoCode,
		ServiceAreaID:    area.ID,
		PaymentMethod:    req.PaymentMethod,
		PaymentStatus:    initialPaymentStatus(req.PaymentMethod),
		Recipient:        req.Recipient,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.orders.Create(ctx, o); err != nil {
			return errors.Wrap(err, "create order")
		}

		for _, item := range o.Items {
			if _, err := s.stock.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				if errors.Is(err, inventory.ErrInsufficientStock) || errors.Is(err, inventory.ErrProductNotFound) {
					return &OutOfStockError{ProductID: item.ProductID, Requested: item.Quantity}
				}
				return errors.Wrapf(err, "decrement stock for %s", item.ProductID)
			}
		}

		if promoCode != "" {
			if err := s.usage.IncrementUsage(ctx, promoCode); err != nil {
				if errors.Is(err, promo.ErrUsageLimitReached) {
					// A concurrent order took the last redemption
					// between validation and here.
					return &InvalidPromoError{Message: "This promo code has reached its usage limit"}
				}
				return errors.Wrap(err, "increment promo usage")
			}
		}

		if o.PaymentMethod == PaymentWallet {
			_, err := s.wallet.RecordTransaction(ctx, o.AccountID, ledger.TransactionInput{
				Type:          ledger.EntryOrderPayment,
				AmountCents:   -o.TotalCents,
				Description:   "Payment for order " + o.OrderNumber,
				ReferenceType: ledger.ReferenceOrder,
				ReferenceID:   o.ID,
			})
			if err != nil {
				return err
			}
			if _, err := s.orders.SettlePayment(ctx, o.ID, PaymentStatusPending, PaymentStatusPaid); err != nil {
				return errors.Wrap(err, "mark order paid")
			}
			o.PaymentStatus = PaymentStatusPaid
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.lg.Info("order placed",
		zap.String("order_id", o.ID),
		zap.String("order_number", o.OrderNumber),
		zap.Int64("total_cents", o.TotalCents),
		zap.String("payment_method", string(o.PaymentMethod)),
	)
	return o, nil
}

// CancelOrder cancels an order if the status machine permits. Cancelling an
// already-cancelled order is an explicit no-op. The status write is a
// conditional transition, so of any number of concurrent cancel requests
// exactly one performs the stock restores and the refund; the status change
// and stock restores commit as one transaction, and the wallet refund runs
// after the commit with its failure logged, never surfaced: a downstream
// payment problem must not block the cancellation itself.
func (s *Service) CancelOrder(ctx context.Context, orderID, actor string) error {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	if o.Status == StatusCancelled {
		s.lg.Info("order already cancelled",
			zap.String("order_id", o.ID),
			zap.String("actor", actor),
		)
		return nil
	}
	if !o.Status.Cancellable() {
		return &InvalidTransitionError{From: o.Status, To: StatusCancelled}
	}

	var won bool
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var txErr error
		won, txErr = s.orders.TransitionStatus(ctx, o.ID, StatusCancelled, StatusPending, StatusConfirmed)
		if txErr != nil {
			return errors.Wrap(txErr, "set status cancelled")
		}
		if !won {
			return nil
		}
		for _, item := range o.Items {
			if _, err := s.stock.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
				if errors.Is(err, inventory.ErrProductNotFound) {
					// Product removed since the order was placed; nothing to
					// restore and not worth failing the cancellation over.
					s.lg.Warn("restore stock skipped, product missing",
						zap.String("order_id", o.ID),
						zap.String("product_id", item.ProductID),
					)
					continue
				}
				return errors.Wrapf(err, "restore stock for %s", item.ProductID)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !won {
		// A concurrent writer moved the order first. Re-read to tell a
		// racing cancel (no-op) from a fulfilment step (rejected).
		cur, err := s.orders.GetByID(ctx, o.ID)
		if err != nil {
			return err
		}
		if cur.Status == StatusCancelled {
			s.lg.Info("order already cancelled",
				zap.String("order_id", o.ID),
				zap.String("actor", actor),
			)
			return nil
		}
		return &InvalidTransitionError{From: cur.Status, To: StatusCancelled}
	}
	o.Status = StatusCancelled

	s.refundIfPaid(ctx, o)

	s.lg.Info("order cancelled",
		zap.String("order_id", o.ID),
		zap.String("order_number", o.OrderNumber),
		zap.String("actor", actor),
	)
	return nil
}

// UpdateStatus applies a lifecycle transition requested by an operator.
// Moving to CANCELLED goes through the full cancellation path so stock
// restore and refund happen regardless of entry point.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, next Status, actor string) error {
	if _, err := ParseStatus(string(next)); err != nil {
		return err
	}
	if next == StatusCancelled {
		return s.CancelOrder(ctx, orderID, actor)
	}

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !CanTransition(o.Status, next) {
		return &InvalidTransitionError{From: o.Status, To: next}
	}

	// Conditional on the observed status, so a concurrent writer cannot
	// make this transition apply from a state the table forbids.
	won, err := s.orders.TransitionStatus(ctx, orderID, next, o.Status)
	if err != nil {
		return errors.Wrap(err, "set status")
	}
	if !won {
		cur, err := s.orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		return &InvalidTransitionError{From: cur.Status, To: next}
	}

	// Cash is collected at the door, so delivery settles COD payments.
	if next == StatusDelivered && o.PaymentMethod == PaymentCashOnDelivery {
		if _, err := s.orders.SettlePayment(ctx, orderID, PaymentStatusPending, PaymentStatusPaid); err != nil {
			return errors.Wrap(err, "mark delivered order paid")
		}
	}

	s.lg.Info("order status updated",
		zap.String("order_id", orderID),
		zap.String("from", string(o.Status)),
		zap.String("to", string(next)),
		zap.String("actor", actor),
	)
	return nil
}

// GetOrder returns one order with its line items.
func (s *Service) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	return s.orders.GetByID(ctx, orderID)
}

// ListOrders returns an account's most recent orders.
func (s *Service) ListOrders(ctx context.Context, accountID string, limit int) ([]Order, error) {
	return s.orders.ListByAccount(ctx, accountID, limit)
}

// refundIfPaid issues the wallet refund for a cancelled order that was paid
// from a wallet. The refund result is inspected, not returned: a failure
// leaves the order cancelled with payment status PAID as a manual follow-up.
func (s *Service) refundIfPaid(ctx context.Context, o *Order) {
	if o.PaymentMethod != PaymentWallet || o.PaymentStatus != PaymentStatusPaid {
		return
	}

	res := ledger.RefundForOrder(ctx, s.wallet, o.AccountID, o.ID, o.TotalCents, o.OrderNumber)
	if !res.OK {
		s.lg.Error("refund failed, order stays cancelled",
			zap.String("order_id", o.ID),
			zap.String("order_number", o.OrderNumber),
			zap.Int64("amount_cents", o.TotalCents),
			zap.Error(res.Err),
		)
		return
	}

	settled, err := s.orders.SettlePayment(ctx, o.ID, PaymentStatusPaid, PaymentStatusRefunded)
	if err != nil {
		s.lg.Error("refund recorded but payment status update failed",
			zap.String("order_id", o.ID),
			zap.Error(err),
		)
		return
	}
	if !settled {
		s.lg.Error("refund recorded but payment was no longer PAID",
			zap.String("order_id", o.ID),
		)
		return
	}
	o.PaymentStatus = PaymentStatusRefunded
}

func initialPaymentStatus(method PaymentMethod) PaymentStatus {
	switch method {
	case PaymentGateway:
		return PaymentStatusAwaiting
	default:
		return PaymentStatusPending
	}
}

// newOrderNumber builds a human-readable unique order number like
// GB-20260830-7F3A92.
func (s *Service) newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6])
	return fmt.Sprintf("GB-%s-%s", now.Format("20060102"), suffix)
}
