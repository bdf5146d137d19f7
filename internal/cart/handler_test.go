package cart

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/tabng/tab-backend/internal/product"
)

func strPtr(s string) *string { return &s }

func newTestApp() (*fiber.App, *MemorySnapshots) {
	sale := decimal.NewFromInt(20000)
	catalog := product.NewService(product.NewInMemoryRepository([]product.Product{
		{ID: "p1", Name: "Agbada", Slug: "agbada", Price: decimal.NewFromInt(45000), Images: []string{"/uploads/agbada.jpg"}, Inventory: 3,
			Variants: []product.Variant{{ID: "v1", ProductID: "p1", Size: strPtr("XL"), SKU: "AG-XL", Price: decimal.NewFromInt(47000)}}},
		{ID: "p2", Name: "Kaftan", Slug: "kaftan", Price: decimal.NewFromInt(25000), SalePrice: &sale},
	}))
	snaps := NewMemorySnapshots()
	app := fiber.New()
	NewHandler(NewManager(snaps, nil), catalog).RegisterPublicRoutes(app)
	return app, snaps
}

func do(t *testing.T, app *fiber.App, method, path, body string) View {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderName, "c1")
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	b, _ := io.ReadAll(res.Body)
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 for %s %s, got %d: %s", method, path, res.StatusCode, string(b))
	}
	var v View
	if err := json.Unmarshal(b, &v); err != nil {
		t.Fatalf("bad body %s: %v", string(b), err)
	}
	return v
}

func TestCartRoutes_AddPricesFromCatalog(t *testing.T) {
	app, _ := newTestApp()

	v := do(t, app, "POST", "/api/v1/cart/items", `{"productId":"p2","quantity":2}`)
	if len(v.Items) != 1 || !v.Items[0].Price.Equal(decimal.NewFromInt(20000)) {
		t.Fatalf("expected sale price line, got %+v", v.Items)
	}
	if v.ItemCount != 2 || !v.Subtotal.Equal(decimal.NewFromInt(40000)) {
		t.Fatalf("unexpected totals: count=%d subtotal=%s", v.ItemCount, v.Subtotal)
	}
	if !v.Shipping.Equal(FlatShipping) || !v.Total.Equal(decimal.NewFromInt(42500)) {
		t.Fatalf("expected flat shipping, got shipping=%s total=%s", v.Shipping, v.Total)
	}
	if !v.IsCartOpen || len(v.Notices) != 1 || v.Notices[0].Message != "Added Kaftan to cart" {
		t.Fatalf("expected open cart with add notice, got %+v", v)
	}

	v = do(t, app, "POST", "/api/v1/cart/items", `{"productId":"p1","size":"XL"}`)
	if len(v.Items) != 2 || !v.Items[1].Price.Equal(decimal.NewFromInt(47000)) || v.Items[1].Image != "/uploads/agbada.jpg" {
		t.Fatalf("expected variant-priced line, got %+v", v.Items)
	}
	if !v.Shipping.IsZero() {
		t.Fatalf("expected free shipping at %s, got %s", v.Subtotal, v.Shipping)
	}
}

func TestCartRoutes_UnknownProductRejected(t *testing.T) {
	app, _ := newTestApp()
	req := httptest.NewRequest("POST", "/api/v1/cart/items", strings.NewReader(`{"productId":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.StatusCode)
	}
}

func TestCartRoutes_UpdateRemoveClear(t *testing.T) {
	app, snaps := newTestApp()
	do(t, app, "POST", "/api/v1/cart/items", `{"productId":"p2","quantity":1}`)
	do(t, app, "POST", "/api/v1/cart/items", `{"productId":"p1","size":"XL","quantity":1}`)

	v := do(t, app, "PATCH", "/api/v1/cart/items", `{"productId":"p2","quantity":5}`)
	if v.ItemCount != 6 {
		t.Fatalf("expected 6 items, got %d", v.ItemCount)
	}

	v = do(t, app, "PATCH", "/api/v1/cart/items", `{"productId":"p2","quantity":0}`)
	if len(v.Items) != 1 || v.Notices[0].Message != "Removed Kaftan from cart" {
		t.Fatalf("expected zero quantity to remove, got %+v", v)
	}

	v = do(t, app, "DELETE", "/api/v1/cart/items?productId=p1&size=XL", "")
	if len(v.Items) != 0 {
		t.Fatalf("expected empty cart, got %+v", v.Items)
	}

	do(t, app, "POST", "/api/v1/cart/items", `{"productId":"p2"}`)
	v = do(t, app, "DELETE", "/api/v1/cart", "")
	if len(v.Items) != 0 || v.Notices[0].Message != "Cart cleared" {
		t.Fatalf("expected cleared cart, got %+v", v)
	}
	snap, err := snaps.Load(context.Background(), "c1")
	if err != nil || len(snap.Items) != 0 {
		t.Fatalf("expected persisted empty snapshot, got %+v %v", snap, err)
	}
}

func TestCartRoutes_SnapshotSurvivesRequests(t *testing.T) {
	app, _ := newTestApp()
	do(t, app, "POST", "/api/v1/cart/items", `{"productId":"p2","quantity":3}`)
	do(t, app, "PATCH", "/api/v1/cart", `{"isCartOpen":false}`)

	v := do(t, app, "GET", "/api/v1/cart", "")
	if v.ItemCount != 3 || v.IsCartOpen {
		t.Fatalf("expected saved cart closed with 3 items, got %+v", v)
	}
	if len(v.Notices) != 0 {
		t.Fatalf("expected no notices on read, got %+v", v.Notices)
	}
}

func TestCartRoutes_IssuesCookie(t *testing.T) {
	app, _ := newTestApp()
	res, _ := app.Test(httptest.NewRequest("GET", "/api/v1/cart", nil))
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	if !strings.Contains(res.Header.Get("Set-Cookie"), CookieName+"=") {
		t.Fatalf("expected cart cookie, got %q", res.Header.Get("Set-Cookie"))
	}
	if res.Header.Get(HeaderName) == "" {
		t.Fatalf("expected cart id header")
	}
}
