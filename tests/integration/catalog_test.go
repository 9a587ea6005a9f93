//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestListProducts(t *testing.T) {
	resp := doGet(t, "/api/products")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	products := decodeJSON[[]productResponse](t, resp)
	if len(products) != 10 {
		t.Fatalf("products: got %d, want 10", len(products))
	}

	byID := make(map[string]productResponse, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	bananas, ok := byID["prod-bananas"]
	if !ok {
		t.Fatal("prod-bananas not found")
	}
	if bananas.PriceCents != 189 {
		t.Errorf("price: got %d, want 189", bananas.PriceCents)
	}
	if bananas.Category != "produce" {
		t.Errorf("category: got %q, want produce", bananas.Category)
	}
}

func TestListAreas(t *testing.T) {
	resp := doGet(t, "/api/areas")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	areas := decodeJSON[[]areaResponse](t, resp)
	if len(areas) != 3 {
		t.Fatalf("areas: got %d, want 3", len(areas))
	}

	for _, a := range areas {
		if a.ID == "downtown" {
			if a.DeliveryFeeCents != 299 {
				t.Errorf("fee: got %d, want 299", a.DeliveryFeeCents)
			}
			if a.MinOrderCents != 1500 {
				t.Errorf("minimum: got %d, want 1500", a.MinOrderCents)
			}
			return
		}
	}
	t.Fatal("downtown area not found")
}
