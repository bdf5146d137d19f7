package product

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/shopspring/decimal"
)

// makeAppWithProductHandler injects a jwt.Token into locals when X-User-ID is
// present, so tests can skip the real jwtware middleware.
func makeAppWithProductHandler(h *Handler) *fiber.App {
	app := fiber.New()
	h.RegisterPublicRoutes(app)
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			claims := jwt.MapClaims{"user_id": v, "role": c.Get("X-Role")}
			c.Locals("user", &jwt.Token{Claims: claims})
		}
		return c.Next()
	})
	h.RegisterProtectedRoutes(app)
	return app
}

func seedProducts() []Product {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	sale := decimal.NewFromInt(38000)
	return []Product{
		{ID: "p1", Name: "Adire Kaftan", Slug: "adire-kaftan", Description: "Hand-dyed indigo kaftan", Price: decimal.NewFromInt(45000), SalePrice: &sale, Inventory: 4, Images: []string{"/k.jpg"}, Featured: true, CategoryID: "c1", CreatedAt: base},
		{ID: "p2", Name: "Aso Oke Cap", Slug: "aso-oke-cap", Description: "Woven cap", Price: decimal.NewFromInt(12000), Inventory: 10, Images: []string{"/c.jpg"}, CategoryID: "c2", CreatedAt: base.Add(time.Hour)},
		{ID: "p3", Name: "Ankara Shirt", Slug: "ankara-shirt", Description: "Wax print shirt", Price: decimal.NewFromInt(18000), Inventory: 0, Images: []string{"/s.jpg"}, IsNew: true, CategoryID: "c1", CreatedAt: base.Add(2 * time.Hour)},
	}
}

func TestProductRoutes_Registered(t *testing.T) {
	app := makeAppWithProductHandler(NewHandler(NewService(NewInMemoryRepository(seedProducts()))))

	routes := map[string]bool{}
	for _, grp := range app.Stack() {
		for _, r := range grp {
			routes[r.Method+" "+r.Path] = true
		}
	}
	for _, want := range []string{
		"GET /api/v1/products",
		"GET /api/v1/products/slug/:slug",
		"GET /api/v1/products/:id",
		"POST /api/v1/products",
		"POST /api/v1/products/:id/reviews",
	} {
		if !routes[want] {
			t.Fatalf("expected route %q to be registered", want)
		}
	}
}

func TestGetProducts_PaginatesNewestFirst(t *testing.T) {
	app := makeAppWithProductHandler(NewHandler(NewService(NewInMemoryRepository(seedProducts()))))

	res, err := app.Test(httptest.NewRequest("GET", "/api/v1/products?limit=2", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	var page struct {
		Items      []Product `json:"items"`
		NextCursor *string   `json:"nextCursor"`
	}
	if err := json.NewDecoder(res.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Items) != 2 || page.Items[0].ID != "p3" || page.Items[1].ID != "p2" {
		t.Fatalf("unexpected page: %+v", page.Items)
	}
	if page.NextCursor == nil || *page.NextCursor != "p1" {
		t.Fatalf("expected nextCursor p1, got %v", page.NextCursor)
	}

	res2, _ := app.Test(httptest.NewRequest("GET", "/api/v1/products?limit=2&cursor=p1", nil))
	b, _ := io.ReadAll(res2.Body)
	if !strings.Contains(string(b), `"id":"p1"`) || !strings.Contains(string(b), `"nextCursor":null`) {
		t.Fatalf("unexpected second page: %s", string(b))
	}
}

func TestGetProducts_Filters(t *testing.T) {
	app := makeAppWithProductHandler(NewHandler(NewService(NewInMemoryRepository(seedProducts()))))

	res, _ := app.Test(httptest.NewRequest("GET", "/api/v1/products?search=KAFTAN", nil))
	b, _ := io.ReadAll(res.Body)
	if !strings.Contains(string(b), "adire-kaftan") || strings.Contains(string(b), "aso-oke-cap") {
		t.Fatalf("search filter failed: %s", string(b))
	}

	res2, _ := app.Test(httptest.NewRequest("GET", "/api/v1/products?isNew=true&categoryId=c1", nil))
	b2, _ := io.ReadAll(res2.Body)
	if !strings.Contains(string(b2), "ankara-shirt") || strings.Contains(string(b2), "adire-kaftan") {
		t.Fatalf("isNew filter failed: %s", string(b2))
	}
}

func TestGetProduct_BySlugAndNotFound(t *testing.T) {
	app := makeAppWithProductHandler(NewHandler(NewService(NewInMemoryRepository(seedProducts()))))

	res, _ := app.Test(httptest.NewRequest("GET", "/api/v1/products/slug/aso-oke-cap", nil))
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	res2, _ := app.Test(httptest.NewRequest("GET", "/api/v1/products/missing", nil))
	if res2.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", res2.StatusCode)
	}
}

func TestCreateProduct_RequiresAdminAndValidates(t *testing.T) {
	app := makeAppWithProductHandler(NewHandler(NewService(NewInMemoryRepository(nil))))
	body := `{"name":"Agbada Set","description":"Three piece","price":"95000","inventory":3,"images":["/a.jpg"],"categoryId":"c1","variants":[{"size":"L","sku":"AGB-L","price":"95000","inventory":1}]}`

	req := httptest.NewRequest("POST", "/api/v1/products", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "u1")
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", res.StatusCode)
	}

	req2 := httptest.NewRequest("POST", "/api/v1/products", strings.NewReader(body))
	req2.Header.Set("Content-Type", "application/json")
	req2.Header.Set("X-User-ID", "admin")
	req2.Header.Set("X-Role", "ADMIN")
	res2, _ := app.Test(req2)
	if res2.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", res2.StatusCode)
	}
	b2, _ := io.ReadAll(res2.Body)
	if !strings.Contains(string(b2), `"slug":"agbada-set"`) || !strings.Contains(string(b2), `"sku":"AGB-L"`) {
		t.Fatalf("unexpected create response: %s", string(b2))
	}

	req3 := httptest.NewRequest("POST", "/api/v1/products", strings.NewReader(`{"name":"","price":"0","images":[]}`))
	req3.Header.Set("Content-Type", "application/json")
	req3.Header.Set("X-User-ID", "admin")
	req3.Header.Set("X-Role", "ADMIN")
	res3, _ := app.Test(req3)
	if res3.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res3.StatusCode)
	}
	b3, _ := io.ReadAll(res3.Body)
	for _, field := range []string{`"name"`, `"price"`, `"images"`} {
		if !strings.Contains(string(b3), field) {
			t.Fatalf("expected field error %s in %s", field, string(b3))
		}
	}
}

func TestUpdateProduct_PartialAndReslug(t *testing.T) {
	app := makeAppWithProductHandler(NewHandler(NewService(NewInMemoryRepository(seedProducts()))))

	req := httptest.NewRequest("PATCH", "/api/v1/products/p2", strings.NewReader(`{"name":"Aso Oke Fila","inventory":7}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "admin")
	req.Header.Set("X-Role", "ADMIN")
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	b, _ := io.ReadAll(res.Body)
	if !strings.Contains(string(b), `"slug":"aso-oke-fila"`) || !strings.Contains(string(b), `"inventory":7`) || !strings.Contains(string(b), `"Woven cap"`) {
		t.Fatalf("unexpected update response: %s", string(b))
	}
}

func TestCreateReview(t *testing.T) {
	app := makeAppWithProductHandler(NewHandler(NewService(NewInMemoryRepository(seedProducts()))))

	req := httptest.NewRequest("POST", "/api/v1/products/p1/reviews", strings.NewReader(`{"rating":6}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "u1")
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for rating 6, got %d", res.StatusCode)
	}

	req2 := httptest.NewRequest("POST", "/api/v1/products/p1/reviews", strings.NewReader(`{"rating":5,"title":"Lovely"}`))
	req2.Header.Set("Content-Type", "application/json")
	req2.Header.Set("X-User-ID", "u1")
	res2, _ := app.Test(req2)
	if res2.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", res2.StatusCode)
	}

	res3, _ := app.Test(httptest.NewRequest("GET", "/api/v1/products/p1", nil))
	b3, _ := io.ReadAll(res3.Body)
	if !strings.Contains(string(b3), "Lovely") {
		t.Fatalf("review missing from product: %s", string(b3))
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Adire Kaftan":          "adire-kaftan",
		"  Men's Agbada -- XL ": "mens-agbada-xl",
		"Ìró & Bùbá":            "r-bb",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Fatalf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEffectivePrice(t *testing.T) {
	p := seedProducts()[0]
	if !p.EffectivePrice().Equal(decimal.NewFromInt(38000)) {
		t.Fatalf("expected sale price, got %s", p.EffectivePrice())
	}
	p.SalePrice = nil
	if !p.EffectivePrice().Equal(decimal.NewFromInt(45000)) {
		t.Fatalf("expected list price, got %s", p.EffectivePrice())
	}
}
