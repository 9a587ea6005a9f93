package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/greenbasket/grocer/internal/domain/catalog"
	"github.com/greenbasket/grocer/internal/domain/ledger"
	"github.com/greenbasket/grocer/internal/domain/order"
)

type placeOrderRequest struct {
	Items []struct {
		ProductID string `json:"product_id"`
		VariantID string `json:"variant_id"`
		Quantity  int64  `json:"quantity"`
	} `json:"items"`
	ServiceAreaID string `json:"service_area_id"`
	PromoCode     string `json:"promo_code"`
	PaymentMethod string `json:"payment_method"`
	Recipient     struct {
		Name    string `json:"name"`
		Phone   string `json:"phone"`
		Address string `json:"address"`
		Notes   string `json:"notes"`
	} `json:"recipient"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	items := make([]order.ItemRequest, len(req.Items))
	for i, item := range req.Items {
		items[i] = order.ItemRequest{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
		}
	}

	o, err := h.orders.PlaceOrder(r.Context(), order.PlaceOrderRequest{
		AccountID:     accountID(r),
		Items:         items,
		ServiceAreaID: req.ServiceAreaID,
		PromoCode:     req.PromoCode,
		PaymentMethod: order.PaymentMethod(req.PaymentMethod),
		Recipient: order.Recipient{
			Name:    req.Recipient.Name,
			Phone:   req.Recipient.Phone,
			Address: req.Recipient.Address,
			Notes:   req.Recipient.Notes,
		},
	})
	if err != nil {
		writeOrderError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeOrder(e, o) })
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeOrderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, o) })
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	account := accountID(r)
	if account == "" {
		writeError(w, http.StatusBadRequest, "missing "+AccountHeader+" header")
		return
	}

	orders, err := h.orders.ListOrders(r.Context(), account, 50)
	if err != nil {
		writeOrderError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for i := range orders {
				encodeOrder(e, &orders[i])
			}
		})
	})
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	actor := accountID(r)
	if actor == "" {
		actor = "guest"
	}

	if err := h.orders.CancelOrder(r.Context(), chi.URLParam(r, "id"), actor); err != nil {
		writeOrderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	status, err := order.ParseStatus(req.Status)
	if err != nil {
		writeOrderError(w, err)
		return
	}

	err = h.orders.UpdateStatus(r.Context(), chi.URLParam(r, "id"), status, ActorFromContext(r.Context()))
	if err != nil {
		writeOrderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeOrderError maps domain errors onto the HTTP taxonomy: 404 for missing
// entities, 409 for status-machine violations, 422 for business rejections,
// 400 for malformed input.
func writeOrderError(w http.ResponseWriter, err error) {
	var (
		invalidQty    *order.InvalidQuantityError
		notFound      *order.ProductNotFoundError
		outOfStock    *order.OutOfStockError
		belowMin      *order.BelowMinimumError
		invalidPromo  *order.InvalidPromoError
		invalidStatus *order.InvalidStatusError
		invalidTrans  *order.InvalidTransitionError
	)

	switch {
	case errors.Is(err, order.ErrNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, order.ErrEmptyItems),
		errors.Is(err, order.ErrUnknownPaymentMethod),
		errors.Is(err, order.ErrWalletRequiresAccount):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &invalidQty):
		writeError(w, http.StatusBadRequest, invalidQty.Error())
	case errors.As(err, &invalidStatus):
		writeError(w, http.StatusBadRequest, invalidStatus.Error())
	case errors.As(err, &invalidTrans):
		writeError(w, http.StatusConflict, invalidTrans.Error())
	case errors.As(err, &notFound):
		writeError(w, http.StatusUnprocessableEntity, notFound.Error())
	case errors.As(err, &outOfStock):
		writeError(w, http.StatusUnprocessableEntity, outOfStock.Error())
	case errors.As(err, &belowMin):
		writeError(w, http.StatusUnprocessableEntity, belowMin.Error())
	case errors.As(err, &invalidPromo):
		writeError(w, http.StatusUnprocessableEntity, invalidPromo.Error())
	case errors.Is(err, catalog.ErrAreaNotFound):
		writeError(w, http.StatusUnprocessableEntity, "service area not found")
	case errors.Is(err, ledger.ErrInsufficientFunds):
		writeError(w, http.StatusUnprocessableEntity, "insufficient wallet balance")
	case errors.Is(err, ledger.ErrAccountNotFound):
		writeError(w, http.StatusUnprocessableEntity, "wallet not found")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
