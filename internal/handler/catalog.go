package handler

import (
	"net/http"

	"github.com/go-faster/jx"
)

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, p := range products {
				e.Obj(func(e *jx.Encoder) {
					e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
					e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
					e.Field("price_cents", func(e *jx.Encoder) { e.Int64(p.PriceCents) })
					e.Field("category", func(e *jx.Encoder) { e.Str(p.Category) })
				})
			}
		})
	})
}

func (h *Handler) listAreas(w http.ResponseWriter, r *http.Request) {
	areas, err := h.areas.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, a := range areas {
				e.Obj(func(e *jx.Encoder) {
					e.Field("id", func(e *jx.Encoder) { e.Str(a.ID) })
					e.Field("name", func(e *jx.Encoder) { e.Str(a.Name) })
					e.Field("delivery_fee_cents", func(e *jx.Encoder) { e.Int64(a.DeliveryFeeCents) })
					e.Field("min_order_cents", func(e *jx.Encoder) { e.Int64(a.MinOrderCents) })
				})
			}
		})
	})
}
