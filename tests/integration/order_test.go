//go:build integration

package integration

import (
	"net/http"
	"regexp"
	"testing"
)

var orderNumberPattern = regexp.MustCompile(`^GB-\d{8}-[0-9A-F]{6}$`)

func validOrder() orderRequest {
	return orderRequest{
		Items: []orderItemRequest{
			{ProductID: "prod-bananas", Quantity: 2}, // 2 x 189
			{ProductID: "prod-milk-2l", Quantity: 4}, // 4 x 329
		},
		ServiceAreaID: "downtown", // fee 299, minimum 1500
		PaymentMethod: "CASH_ON_DELIVERY",
		Recipient: recipientRequest{
			Name:    "Dana",
			Phone:   "555-0101",
			Address: "42 Market St",
		},
	}
}

func TestPlaceOrder_CashOnDelivery(t *testing.T) {
	resp := doPost(t, "/api/orders", validOrder(), asAccount("acct-cod"))
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	o := decodeJSON[orderResponse](t, resp)
	if !orderNumberPattern.MatchString(o.OrderNumber) {
		t.Errorf("order number %q does not match pattern", o.OrderNumber)
	}
	// 2x189 + 4x329 = 1694 subtotal, plus 299 delivery fee.
	if o.SubtotalCents != 1694 {
		t.Errorf("subtotal: got %d, want 1694", o.SubtotalCents)
	}
	if o.TotalCents != 1993 {
		t.Errorf("total: got %d, want 1993", o.TotalCents)
	}
	if o.Status != "PENDING" {
		t.Errorf("status: got %q, want PENDING", o.Status)
	}
	if o.PaymentStatus != "PENDING" {
		t.Errorf("payment status: got %q, want PENDING", o.PaymentStatus)
	}
	if len(o.Items) != 2 {
		t.Fatalf("items: got %d, want 2", len(o.Items))
	}
	if o.Items[0].UnitPriceCents != 189 {
		t.Errorf("unit price snapshot: got %d, want 189", o.Items[0].UnitPriceCents)
	}
}

func TestPlaceOrder_EmptyItems(t *testing.T) {
	req := validOrder()
	req.Items = nil
	resp := doPost(t, "/api/orders", req, asAccount("acct-cod"))
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_UnknownProduct(t *testing.T) {
	req := validOrder()
	req.Items = []orderItemRequest{{ProductID: "prod-unicorn", Quantity: 1}}
	resp := doPost(t, "/api/orders", req, asAccount("acct-cod"))
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_BelowAreaMinimum(t *testing.T) {
	req := validOrder()
	req.Items = []orderItemRequest{{ProductID: "prod-bananas", Quantity: 1}} // 189 < 1500
	resp := doPost(t, "/api/orders", req, asAccount("acct-cod"))
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_OutOfStockRollsBack(t *testing.T) {
	// Salmon stock is 32; ordering more must fail without touching the
	// other line's stock.
	req := validOrder()
	req.Items = []orderItemRequest{
		{ProductID: "prod-pasta-penne", Quantity: 1},
		{ProductID: "prod-salmon-fillet", Quantity: 5000},
	}
	resp := doPost(t, "/api/orders", req, asAccount("acct-cod"))
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	body := decodeJSON[errorResponse](t, resp)
	if body.Message == "" {
		t.Error("expected an error message")
	}
}

func TestPlaceOrder_WalletPaysAndRefundsOnCancel(t *testing.T) {
	const account = "acct-wallet-cycle"
	topUp(t, account, 5000)

	req := validOrder()
	req.PaymentMethod = "WALLET"
	resp := doPost(t, "/api/orders", req, asAccount(account))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("place: expected 201, got %d", resp.StatusCode)
	}
	o := decodeJSON[orderResponse](t, resp)
	resp.Body.Close()

	if o.PaymentStatus != "PAID" {
		t.Fatalf("payment status: got %q, want PAID", o.PaymentStatus)
	}

	balResp := doGet(t, "/api/wallet/balance", asAccount(account))
	bal := decodeJSON[balanceResponse](t, balResp)
	balResp.Body.Close()
	if bal.BalanceCents != 5000-o.TotalCents {
		t.Fatalf("balance after payment: got %d, want %d", bal.BalanceCents, 5000-o.TotalCents)
	}

	cancelResp := doPost(t, "/api/orders/"+o.ID+"/cancel", nil, asAccount(account))
	cancelResp.Body.Close()
	if cancelResp.StatusCode != http.StatusNoContent {
		t.Fatalf("cancel: expected 204, got %d", cancelResp.StatusCode)
	}

	balResp = doGet(t, "/api/wallet/balance", asAccount(account))
	bal = decodeJSON[balanceResponse](t, balResp)
	balResp.Body.Close()
	if bal.BalanceCents != 5000 {
		t.Fatalf("balance after refund: got %d, want 5000", bal.BalanceCents)
	}

	getResp := doGet(t, "/api/orders/"+o.ID, asAccount(account))
	got := decodeJSON[orderResponse](t, getResp)
	getResp.Body.Close()
	if got.Status != "CANCELLED" {
		t.Errorf("status: got %q, want CANCELLED", got.Status)
	}
	if got.PaymentStatus != "REFUNDED" {
		t.Errorf("payment status: got %q, want REFUNDED", got.PaymentStatus)
	}
}

func TestPlaceOrder_WalletInsufficientFunds(t *testing.T) {
	const account = "acct-wallet-poor"
	topUp(t, account, 100)

	req := validOrder()
	req.PaymentMethod = "WALLET"
	resp := doPost(t, "/api/orders", req, asAccount(account))
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	// The failed placement must leave the balance untouched.
	balResp := doGet(t, "/api/wallet/balance", asAccount(account))
	defer balResp.Body.Close()
	bal := decodeJSON[balanceResponse](t, balResp)
	if bal.BalanceCents != 100 {
		t.Fatalf("balance: got %d, want 100", bal.BalanceCents)
	}
}

func TestCancelOrder_Twice(t *testing.T) {
	resp := doPost(t, "/api/orders", validOrder(), asAccount("acct-cancel-twice"))
	o := decodeJSON[orderResponse](t, resp)
	resp.Body.Close()

	for range 2 {
		cancelResp := doPost(t, "/api/orders/"+o.ID+"/cancel", nil, asAccount("acct-cancel-twice"))
		cancelResp.Body.Close()
		if cancelResp.StatusCode != http.StatusNoContent {
			t.Fatalf("cancel: expected 204, got %d", cancelResp.StatusCode)
		}
	}
}

func TestUpdateStatus_RequiresAPIKey(t *testing.T) {
	resp := doRequest(t, http.MethodPatch, "/api/admin/orders/any/status",
		statusUpdateRequest{Status: "CONFIRMED"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestUpdateStatus_FullDeliveryPath(t *testing.T) {
	resp := doPost(t, "/api/orders", validOrder(), asAccount("acct-delivery"))
	o := decodeJSON[orderResponse](t, resp)
	resp.Body.Close()

	for _, next := range []string{"CONFIRMED", "PROCESSING", "OUT_FOR_DELIVERY", "DELIVERED"} {
		stResp := doRequest(t, http.MethodPatch, "/api/admin/orders/"+o.ID+"/status",
			statusUpdateRequest{Status: next}, withAPIKey(testAPIKey))
		stResp.Body.Close()
		if stResp.StatusCode != http.StatusNoContent {
			t.Fatalf("transition to %s: expected 204, got %d", next, stResp.StatusCode)
		}
	}

	getResp := doGet(t, "/api/orders/"+o.ID, asAccount("acct-delivery"))
	defer getResp.Body.Close()
	got := decodeJSON[orderResponse](t, getResp)
	if got.Status != "DELIVERED" {
		t.Errorf("status: got %q, want DELIVERED", got.Status)
	}
	// Cash on delivery settles when the order is delivered.
	if got.PaymentStatus != "PAID" {
		t.Errorf("payment status: got %q, want PAID", got.PaymentStatus)
	}

	// No transitions out of a terminal state.
	stResp := doRequest(t, http.MethodPatch, "/api/admin/orders/"+o.ID+"/status",
		statusUpdateRequest{Status: "CONFIRMED"}, withAPIKey(testAPIKey))
	defer stResp.Body.Close()
	if stResp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", stResp.StatusCode)
	}
}

func TestUpdateStatus_SkippingStepsRejected(t *testing.T) {
	resp := doPost(t, "/api/orders", validOrder(), asAccount("acct-skip"))
	o := decodeJSON[orderResponse](t, resp)
	resp.Body.Close()

	stResp := doRequest(t, http.MethodPatch, "/api/admin/orders/"+o.ID+"/status",
		statusUpdateRequest{Status: "DELIVERED"}, withAPIKey(testAPIKey))
	defer stResp.Body.Close()
	if stResp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", stResp.StatusCode)
	}
}

func TestListOrders(t *testing.T) {
	const account = "acct-lister"
	for range 2 {
		resp := doPost(t, "/api/orders", validOrder(), asAccount(account))
		resp.Body.Close()
	}

	resp := doGet(t, "/api/orders", asAccount(account))
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	orders := decodeJSON[[]orderResponse](t, resp)
	if len(orders) != 2 {
		t.Fatalf("orders: got %d, want 2", len(orders))
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	resp := doGet(t, "/api/orders/does-not-exist", asAccount("acct-cod"))
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_WithPromo(t *testing.T) {
	req := validOrder()
	req.PromoCode = "FRESH10"
	resp := doPost(t, "/api/orders", req, asAccount("acct-promo"))
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	o := decodeJSON[orderResponse](t, resp)
	// 10% of 1694 rounds to 169.
	if o.DiscountCents != 169 {
		t.Errorf("discount: got %d, want 169", o.DiscountCents)
	}
	if o.TotalCents != 1694+299-169 {
		t.Errorf("total: got %d, want %d", o.TotalCents, 1694+299-169)
	}
	if o.PromoCode != "FRESH10" {
		t.Errorf("promo code: got %q, want FRESH10", o.PromoCode)
	}
}

func TestPlaceOrder_PromoUsageCapEnforced(t *testing.T) {
	req := validOrder()
	req.PromoCode = "ONETIME"

	first := doPost(t, "/api/orders", req, asAccount("acct-cap-1"))
	defer first.Body.Close()
	if first.StatusCode != http.StatusCreated {
		t.Fatalf("first redemption: expected 201, got %d", first.StatusCode)
	}

	// The single redemption is spent; the next placement is rejected even
	// though validation alone would still pass a stale usage count.
	second := doPost(t, "/api/orders", req, asAccount("acct-cap-2"))
	defer second.Body.Close()
	if second.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("second redemption: expected 422, got %d", second.StatusCode)
	}
	e := decodeJSON[errorResponse](t, second)
	if e.Message != "This promo code has reached its usage limit" {
		t.Errorf("message: got %q", e.Message)
	}
}
