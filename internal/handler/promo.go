package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/jx"
)

type validatePromoRequest struct {
	Code          string `json:"code"`
	SubtotalCents int64  `json:"subtotal_cents"`
}

// validatePromo checks a code against a cart subtotal for checkout preview.
// A rejected code is a 200 with valid=false and the rejection message; the
// storefront shows the message inline rather than treating it as a failure.
func (h *Handler) validatePromo(w http.ResponseWriter, r *http.Request) {
	var req validatePromoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	validation, err := h.promos.Validate(r.Context(), req.Code, req.SubtotalCents)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("valid", func(e *jx.Encoder) { e.Bool(validation.Valid) })
			if !validation.Valid {
				e.Field("message", func(e *jx.Encoder) { e.Str(validation.Message) })
				return
			}
			e.Field("code", func(e *jx.Encoder) { e.Str(validation.Code) })
			e.Field("discount_type", func(e *jx.Encoder) { e.Str(string(validation.DiscountType)) })
			e.Field("discount_value", func(e *jx.Encoder) { e.Str(validation.DiscountValue.String()) })
			e.Field("discount_cents", func(e *jx.Encoder) { e.Int64(validation.DiscountCents) })
		})
	})
}
