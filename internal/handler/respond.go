package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"

	"github.com/greenbasket/grocer/internal/domain/ledger"
	"github.com/greenbasket/grocer/internal/domain/order"
)

// writeJSON encodes a response body with jx and writes it with the given
// status code.
func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	var e jx.Encoder
	encode(&e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError writes the standard error envelope.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(status) })
			e.Field("message", func(e *jx.Encoder) { e.Str(message) })
		})
	})
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(o.ID) })
		e.Field("order_number", func(e *jx.Encoder) { e.Str(o.OrderNumber) })
		if o.AccountID != "" {
			e.Field("account_id", func(e *jx.Encoder) { e.Str(o.AccountID) })
		}
		e.Field("status", func(e *jx.Encoder) { e.Str(string(o.Status)) })
		e.Field("subtotal_cents", func(e *jx.Encoder) { e.Int64(o.SubtotalCents) })
		e.Field("delivery_fee_cents", func(e *jx.Encoder) { e.Int64(o.DeliveryFeeCents) })
		e.Field("discount_cents", func(e *jx.Encoder) { e.Int64(o.DiscountCents) })
		e.Field("total_cents", func(e *jx.Encoder) { e.Int64(o.TotalCents) })
		if o.PromoCode != "" {
			e.Field("promo_code", func(e *jx.Encoder) { e.Str(o.PromoCode) })
		}
		e.Field("service_area_id", func(e *jx.Encoder) { e.Str(o.ServiceAreaID) })
		e.Field("payment_method", func(e *jx.Encoder) { e.Str(string(o.PaymentMethod)) })
		e.Field("payment_status", func(e *jx.Encoder) { e.Str(string(o.PaymentStatus)) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, item := range o.Items {
					encodeOrderItem(e, item)
				}
			})
		})
		e.Field("created_at", func(e *jx.Encoder) { e.Str(o.CreatedAt.Format(time.RFC3339)) })
		e.Field("updated_at", func(e *jx.Encoder) { e.Str(o.UpdatedAt.Format(time.RFC3339)) })
		if o.DeliveredAt != nil {
			e.Field("delivered_at", func(e *jx.Encoder) { e.Str(o.DeliveredAt.Format(time.RFC3339)) })
		}
	})
}

func encodeOrderItem(e *jx.Encoder, item order.Item) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("product_id", func(e *jx.Encoder) { e.Str(item.ProductID) })
		if item.VariantID != "" {
			e.Field("variant_id", func(e *jx.Encoder) { e.Str(item.VariantID) })
		}
		e.Field("quantity", func(e *jx.Encoder) { e.Int64(item.Quantity) })
		e.Field("unit_price_cents", func(e *jx.Encoder) { e.Int64(item.UnitPriceCents) })
	})
}

func encodeLedgerEntry(e *jx.Encoder, entry *ledger.Entry) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(entry.ID) })
		e.Field("account_id", func(e *jx.Encoder) { e.Str(entry.AccountID) })
		e.Field("type", func(e *jx.Encoder) { e.Str(string(entry.Type)) })
		e.Field("amount_cents", func(e *jx.Encoder) { e.Int64(entry.AmountCents) })
		if entry.ReferenceType != "" {
			e.Field("reference_type", func(e *jx.Encoder) { e.Str(entry.ReferenceType) })
			e.Field("reference_id", func(e *jx.Encoder) { e.Str(entry.ReferenceID) })
		}
		e.Field("balance_after_cents", func(e *jx.Encoder) { e.Int64(entry.BalanceAfterCents) })
		e.Field("description", func(e *jx.Encoder) { e.Str(entry.Description) })
		e.Field("created_at", func(e *jx.Encoder) { e.Str(entry.CreatedAt.Format(time.RFC3339)) })
	})
}
