package address

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

func makeAppWithAddressHandler(repo *InMemoryRepository) *fiber.App {
	h := NewHandler(NewService(repo))
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			c.Locals("user", &jwt.Token{Claims: jwt.MapClaims{"user_id": v}})
		}
		return c.Next()
	})
	h.RegisterProtectedRoutes(app)
	return app
}

func userRequest(method, target, userID, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", userID)
	return req
}

const lagosBody = `{"type":"SHIPPING","firstName":"Ada","lastName":"Obi","address1":"12 Admiralty Way","city":"Lekki","state":"Lagos","postalCode":"106104","country":"Nigeria","isDefault":true}`

func seedAddresses() []Address {
	now := time.Now()
	return []Address{
		{ID: "a1", UserID: "u1", Type: TypeShipping, FirstName: "Ada", City: "Ikeja", IsDefault: true, CreatedAt: now.Add(-time.Hour)},
		{ID: "a2", UserID: "u1", Type: TypeBilling, FirstName: "Ada", City: "Yaba", IsDefault: true, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "b1", UserID: "u2", Type: TypeShipping, FirstName: "Tunde", City: "Abuja", CreatedAt: now},
	}
}

func TestGetAddresses_OnlyCallers(t *testing.T) {
	app := makeAppWithAddressHandler(NewInMemoryRepository(seedAddresses()))

	res, err := app.Test(userRequest("GET", "/api/v1/address", "u1", ""))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	b, _ := io.ReadAll(res.Body)
	body := string(b)
	if strings.Contains(body, "Abuja") || !strings.Contains(body, "Ikeja") {
		t.Fatalf("unexpected body: %s", body)
	}

	res2, _ := app.Test(httptest.NewRequest("GET", "/api/v1/address", nil))
	if res2.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 without a user, got %d", res2.StatusCode)
	}
}

func TestAddAddress_DefaultClearsSameType(t *testing.T) {
	repo := NewInMemoryRepository(seedAddresses())
	app := makeAppWithAddressHandler(repo)

	res, _ := app.Test(userRequest("POST", "/api/v1/address", "u1", lagosBody))
	if res.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", res.StatusCode)
	}

	list, _ := repo.ListByUser(context.Background(), "u1")
	defaults := map[Type]int{}
	for _, a := range list {
		if a.IsDefault {
			defaults[a.Type]++
			if a.Type == TypeShipping && a.City != "Lekki" {
				t.Fatalf("old shipping default kept: %+v", a)
			}
		}
	}
	if defaults[TypeShipping] != 1 || defaults[TypeBilling] != 1 {
		t.Fatalf("expected one default per type, got %v", defaults)
	}
}

func TestAddAddress_Validation(t *testing.T) {
	app := makeAppWithAddressHandler(NewInMemoryRepository(nil))

	res, _ := app.Test(userRequest("POST", "/api/v1/address", "u1", `{"type":"HOME","firstName":"Ada"}`))
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.StatusCode)
	}
	b, _ := io.ReadAll(res.Body)
	if !strings.Contains(string(b), "City is required") || !strings.Contains(string(b), `"type"`) {
		t.Fatalf("unexpected body: %s", string(b))
	}
}

func TestUpdateAndDeleteAddress_Ownership(t *testing.T) {
	app := makeAppWithAddressHandler(NewInMemoryRepository(seedAddresses()))

	res, _ := app.Test(userRequest("PATCH", "/api/v1/address/b1", "u1", lagosBody))
	if res.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 for someone else's address, got %d", res.StatusCode)
	}

	res2, _ := app.Test(userRequest("DELETE", "/api/v1/address/b1", "u1", ""))
	if res2.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", res2.StatusCode)
	}

	res3, _ := app.Test(userRequest("PATCH", "/api/v1/address/a1", "u1", lagosBody))
	if res3.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res3.StatusCode)
	}
	b, _ := io.ReadAll(res3.Body)
	if !strings.Contains(string(b), `"city":"Lekki"`) {
		t.Fatalf("unexpected body: %s", string(b))
	}

	res4, _ := app.Test(userRequest("DELETE", "/api/v1/address/a1", "u1", ""))
	if res4.StatusCode != fiber.StatusNoContent {
		t.Fatalf("expected 204, got %d", res4.StatusCode)
	}
}
