package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/greenbasket/grocer/internal/domain/ledger"
)

type recordTransactionRequest struct {
	Type        string `json:"type"`
	AmountCents int64  `json:"amount_cents"`
	Description string `json:"description"`
}

// walletBalance reports the caller's balance. An account without a wallet
// yet reads as zero: the missing row is a storage detail, not something a
// customer should see as an error.
func (h *Handler) walletBalance(w http.ResponseWriter, r *http.Request) {
	account := accountID(r)
	if account == "" {
		writeError(w, http.StatusBadRequest, "missing "+AccountHeader+" header")
		return
	}

	balance, err := h.wallet.GetBalance(r.Context(), account)
	if err != nil && !errors.Is(err, ledger.ErrAccountNotFound) {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("account_id", func(e *jx.Encoder) { e.Str(account) })
			e.Field("balance_cents", func(e *jx.Encoder) { e.Int64(balance) })
		})
	})
}

func (h *Handler) walletTransactions(w http.ResponseWriter, r *http.Request) {
	account := accountID(r)
	if account == "" {
		writeError(w, http.StatusBadRequest, "missing "+AccountHeader+" header")
		return
	}

	entries, err := h.wallet.ListEntries(r.Context(), account, 100)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for i := range entries {
				encodeLedgerEntry(e, &entries[i])
			}
		})
	})
}

// recordWalletTransaction is the admin entry point for top-ups and manual
// adjustments. A top-up for an account without a wallet opens one first.
func (h *Handler) recordWalletTransaction(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "accountID")

	var req recordTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	entryType := ledger.EntryType(req.Type)
	switch entryType {
	case ledger.EntryTopUp, ledger.EntryAdjustment:
	default:
		writeError(w, http.StatusBadRequest, "type must be top_up or adjustment")
		return
	}

	if entryType == ledger.EntryTopUp {
		if req.AmountCents <= 0 {
			writeError(w, http.StatusBadRequest, "top_up amount must be positive")
			return
		}
		if err := h.provisioner.EnsureWallet(r.Context(), account); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
	}

	entry, err := h.wallet.RecordTransaction(r.Context(), account, ledger.TransactionInput{
		Type:        entryType,
		AmountCents: req.AmountCents,
		Description: req.Description,
	})
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrAccountNotFound):
			writeError(w, http.StatusNotFound, "wallet not found")
		case errors.Is(err, ledger.ErrInsufficientFunds):
			writeError(w, http.StatusUnprocessableEntity, "adjustment would make balance negative")
		default:
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeLedgerEntry(e, entry) })
}
