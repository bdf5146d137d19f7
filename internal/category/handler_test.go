package category

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/shopspring/decimal"
	"github.com/tabng/tab-backend/internal/product"
)

func ptr(s string) *string { return &s }

func seedCategories() []Category {
	return []Category{
		{ID: "men", Name: "Men", Slug: "men"},
		{ID: "women", Name: "Women", Slug: "women"},
		{ID: "kaftans", Name: "Kaftans", Slug: "kaftans", ParentID: ptr("men")},
		{ID: "agbada", Name: "Agbada", Slug: "agbada", ParentID: ptr("men")},
		{ID: "short-kaftans", Name: "Short Kaftans", Slug: "short-kaftans", ParentID: ptr("kaftans")},
	}
}

func makeAppWithCategoryHandler(repo *InMemoryRepository, products []product.Product) *fiber.App {
	productSvc := product.NewService(product.NewInMemoryRepository(products))
	h := NewHandler(NewService(repo, productSvc))
	app := fiber.New()
	h.RegisterPublicRoutes(app)
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			c.Locals("user", &jwt.Token{Claims: jwt.MapClaims{"user_id": v, "role": c.Get("X-Role")}})
		}
		return c.Next()
	})
	h.RegisterProtectedRoutes(app)
	return app
}

func adminRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "admin")
	req.Header.Set("X-Role", "ADMIN")
	return req
}

func TestGetCategories_RootsSortedByName(t *testing.T) {
	app := makeAppWithCategoryHandler(NewInMemoryRepository(seedCategories(), nil), nil)

	res, err := app.Test(httptest.NewRequest("GET", "/api/v1/categories", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	b, _ := io.ReadAll(res.Body)
	body := string(b)
	if strings.Contains(body, "kaftans") {
		t.Fatalf("expected roots only: %s", body)
	}
	if strings.Index(body, `"Men"`) > strings.Index(body, `"Women"`) {
		t.Fatalf("expected name ascending: %s", body)
	}
}

func TestGetCategories_WithSubcategories(t *testing.T) {
	app := makeAppWithCategoryHandler(NewInMemoryRepository(seedCategories(), nil), nil)

	res, _ := app.Test(httptest.NewRequest("GET", "/api/v1/categories?includeSubcategories=true", nil))
	b, _ := io.ReadAll(res.Body)
	body := string(b)
	for _, slug := range []string{"agbada", "kaftans", "short-kaftans"} {
		if !strings.Contains(body, `"slug":"`+slug+`"`) {
			t.Fatalf("expected %s nested in %s", slug, body)
		}
	}

	res2, _ := app.Test(httptest.NewRequest("GET", "/api/v1/categories?parentId=men", nil))
	b2, _ := io.ReadAll(res2.Body)
	if !strings.Contains(string(b2), "agbada") || strings.Contains(string(b2), `"slug":"women"`) {
		t.Fatalf("parent filter failed: %s", string(b2))
	}
}

func TestGetCategoryBySlug_IncludesParentAndProducts(t *testing.T) {
	products := []product.Product{
		{ID: "p1", Name: "Indigo Kaftan", Slug: "indigo-kaftan", Price: decimal.NewFromInt(40000), CategoryID: "kaftans", CreatedAt: time.Now()},
	}
	app := makeAppWithCategoryHandler(NewInMemoryRepository(seedCategories(), nil), products)

	res, _ := app.Test(httptest.NewRequest("GET", "/api/v1/categories/slug/kaftans", nil))
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	b, _ := io.ReadAll(res.Body)
	body := string(b)
	if !strings.Contains(body, `"parent":{"id":"men"`) || !strings.Contains(body, "short-kaftans") || !strings.Contains(body, "indigo-kaftan") {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestDeleteCategory_Guards(t *testing.T) {
	repo := NewInMemoryRepository(seedCategories(), map[string]int{"agbada": 3})
	app := makeAppWithCategoryHandler(repo, nil)

	res, _ := app.Test(adminRequest("DELETE", "/api/v1/categories/agbada", ""))
	if res.StatusCode != fiber.StatusConflict {
		t.Fatalf("expected 409 for category with products, got %d", res.StatusCode)
	}
	b, _ := io.ReadAll(res.Body)
	if !strings.Contains(string(b), "Cannot delete category with products") {
		t.Fatalf("unexpected body: %s", string(b))
	}

	res2, _ := app.Test(adminRequest("DELETE", "/api/v1/categories/kaftans", ""))
	if res2.StatusCode != fiber.StatusConflict {
		t.Fatalf("expected 409 for category with subcategories, got %d", res2.StatusCode)
	}

	// blocked deletes leave the rows in place
	res3, _ := app.Test(httptest.NewRequest("GET", "/api/v1/categories/kaftans", nil))
	if res3.StatusCode != fiber.StatusOK {
		t.Fatalf("expected kaftans to survive, got %d", res3.StatusCode)
	}

	res4, _ := app.Test(adminRequest("DELETE", "/api/v1/categories/women", ""))
	if res4.StatusCode != fiber.StatusNoContent {
		t.Fatalf("expected 204, got %d", res4.StatusCode)
	}
}

func TestCreateCategory(t *testing.T) {
	app := makeAppWithCategoryHandler(NewInMemoryRepository(seedCategories(), nil), nil)

	res, _ := app.Test(adminRequest("POST", "/api/v1/categories", `{"name":"","slug":""}`))
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.StatusCode)
	}

	res2, _ := app.Test(adminRequest("POST", "/api/v1/categories", `{"name":"Caps","slug":"caps","parentId":"missing"}`))
	if res2.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for unknown parent, got %d", res2.StatusCode)
	}

	res3, _ := app.Test(adminRequest("POST", "/api/v1/categories", `{"name":"Caps","slug":"caps","parentId":"men"}`))
	if res3.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", res3.StatusCode)
	}

	res4, _ := app.Test(adminRequest("POST", "/api/v1/categories", `{"name":"Caps again","slug":"caps"}`))
	if res4.StatusCode != fiber.StatusConflict {
		t.Fatalf("expected 409 for duplicate slug, got %d", res4.StatusCode)
	}
}
