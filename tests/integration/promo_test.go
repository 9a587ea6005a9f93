//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func validatePromo(t *testing.T, code string, subtotal int64) promoValidateResponse {
	t.Helper()

	resp := doPost(t, "/api/promos/validate", promoValidateRequest{
		Code:          code,
		SubtotalCents: subtotal,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	return decodeJSON[promoValidateResponse](t, resp)
}

func TestValidatePromo_Percentage(t *testing.T) {
	v := validatePromo(t, "FRESH10", 5000)

	if !v.Valid {
		t.Fatalf("expected valid, got message %q", v.Message)
	}
	if v.DiscountCents != 500 {
		t.Errorf("discount: got %d, want 500", v.DiscountCents)
	}
}

func TestValidatePromo_CaseInsensitive(t *testing.T) {
	v := validatePromo(t, "fresh10", 5000)

	if !v.Valid {
		t.Fatalf("expected valid, got message %q", v.Message)
	}
	if v.Code != "FRESH10" {
		t.Errorf("code: got %q, want FRESH10", v.Code)
	}
}

func TestValidatePromo_UnknownCode(t *testing.T) {
	v := validatePromo(t, "NOSUCHCODE", 5000)

	if v.Valid {
		t.Fatal("expected invalid")
	}
	if v.Message != "Invalid promo code" {
		t.Errorf("message: got %q", v.Message)
	}
}

func TestValidatePromo_BelowMinimum(t *testing.T) {
	// SAVE5 requires a 2500 minimum.
	v := validatePromo(t, "SAVE5", 2000)

	if v.Valid {
		t.Fatal("expected invalid")
	}
	if v.Message != "Minimum order of $25.00 required" {
		t.Errorf("message: got %q", v.Message)
	}
}

func TestValidatePromo_FixedAmount(t *testing.T) {
	v := validatePromo(t, "SAVE5", 3000)

	if !v.Valid {
		t.Fatalf("expected valid, got message %q", v.Message)
	}
	if v.DiscountCents != 500 {
		t.Errorf("discount: got %d, want 500", v.DiscountCents)
	}
}

func TestValidatePromo_EmptyCode(t *testing.T) {
	resp := doPost(t, "/api/promos/validate", promoValidateRequest{SubtotalCents: 1000})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
