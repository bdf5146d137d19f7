package cart

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tabng/tab-backend/internal/apperror"
	"github.com/tabng/tab-backend/internal/product"
)

const (
	CookieName = "cart_id"
	HeaderName = "X-Cart-ID"
)

var ErrProductNotFound = apperror.BadRequest("Product not found")

type Catalog interface {
	GetByID(ctx context.Context, id string) (product.Product, error)
}

type Handler struct {
	carts   *Manager
	catalog Catalog
}

func NewHandler(carts *Manager, catalog Catalog) *Handler {
	return &Handler{carts: carts, catalog: catalog}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/cart", h.getCart)
	app.Patch("/api/v1/cart", h.setOpen)
	app.Delete("/api/v1/cart", h.clearCart)
	app.Post("/api/v1/cart/items", h.addItem)
	app.Patch("/api/v1/cart/items", h.updateItem)
	app.Delete("/api/v1/cart/items", h.removeItem)
}

type itemRequest struct {
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

// View is the cart as returned to clients. Totals are derived on every read.
type View struct {
	Items      []Item          `json:"items"`
	ItemCount  int             `json:"itemCount"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Shipping   decimal.Decimal `json:"shipping"`
	Total      decimal.Decimal `json:"total"`
	IsCartOpen bool            `json:"isCartOpen"`
	Notices    []Notice        `json:"notices"`
}

func NewView(s *Store) View {
	subtotal := s.Subtotal()
	shipping := Shipping(subtotal)
	return View{
		Items:      s.Items(),
		ItemCount:  s.ItemCount(),
		Subtotal:   subtotal,
		Shipping:   shipping,
		Total:      subtotal.Add(shipping),
		IsCartOpen: s.IsOpen(),
		Notices:    s.Notices(),
	}
}

func (h *Handler) getCart(c *fiber.Ctx) error {
	s, err := h.carts.Open(c.UserContext(), ResolveID(c))
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(NewView(s))
}

func (h *Handler) addItem(c *fiber.Ctx) error {
	payload := new(itemRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.ProductID == "" {
		return apperror.Respond(c, apperror.Invalid(map[string]string{"productId": "Product is required"}))
	}
	if payload.Quantity == 0 {
		payload.Quantity = 1
	}
	if payload.Quantity < 0 {
		return apperror.Respond(c, apperror.Invalid(map[string]string{"quantity": "Quantity must be positive"}))
	}
	item, err := h.lookup(c.UserContext(), *payload)
	if err != nil {
		return apperror.Respond(c, err)
	}
	s, err := h.carts.Open(c.UserContext(), ResolveID(c))
	if err != nil {
		return apperror.Respond(c, err)
	}
	if err := s.Add(c.UserContext(), item); err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(NewView(s))
}

func (h *Handler) updateItem(c *fiber.Ctx) error {
	payload := new(itemRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	s, err := h.carts.Open(c.UserContext(), ResolveID(c))
	if err != nil {
		return apperror.Respond(c, err)
	}
	if err := s.UpdateQuantity(c.UserContext(), payload.ProductID, payload.Size, payload.Quantity); err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(NewView(s))
}

func (h *Handler) removeItem(c *fiber.Ctx) error {
	payload := new(itemRequest)
	if len(c.Body()) > 0 {
		if err := c.BodyParser(payload); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
		}
	} else {
		payload.ProductID = c.Query("productId")
		payload.Size = c.Query("size")
	}
	s, err := h.carts.Open(c.UserContext(), ResolveID(c))
	if err != nil {
		return apperror.Respond(c, err)
	}
	if err := s.Remove(c.UserContext(), payload.ProductID, payload.Size); err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(NewView(s))
}

func (h *Handler) clearCart(c *fiber.Ctx) error {
	s, err := h.carts.Open(c.UserContext(), ResolveID(c))
	if err != nil {
		return apperror.Respond(c, err)
	}
	if err := s.Clear(c.UserContext()); err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(NewView(s))
}

func (h *Handler) setOpen(c *fiber.Ctx) error {
	payload := struct {
		IsCartOpen bool `json:"isCartOpen"`
	}{}
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	s, err := h.carts.Open(c.UserContext(), ResolveID(c))
	if err != nil {
		return apperror.Respond(c, err)
	}
	if err := s.SetOpen(c.UserContext(), payload.IsCartOpen); err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(NewView(s))
}

// lookup prices a line from the catalog: the variant matching the size when
// there is one, else the effective product price.
func (h *Handler) lookup(ctx context.Context, req itemRequest) (Item, error) {
	p, err := h.catalog.GetByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return Item{}, ErrProductNotFound
		}
		return Item{}, err
	}
	item := Item{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.EffectivePrice(),
		Quantity: req.Quantity,
		Size:     req.Size,
		Slug:     p.Slug,
	}
	if len(p.Images) > 0 {
		item.Image = p.Images[0]
	}
	if req.Size != "" {
		if v, ok := p.VariantBySize(req.Size); ok && v.Price.IsPositive() {
			item.Price = v.Price
		}
	}
	return item, nil
}

// ResolveID returns the caller's cart id from the cookie or header, issuing a
// new cookie when neither is present.
func ResolveID(c *fiber.Ctx) string {
	if id := c.Cookies(CookieName); id != "" {
		return id
	}
	if id := c.Get(HeaderName); id != "" {
		return id
	}
	if id, ok := c.Locals(CookieName).(string); ok {
		return id
	}
	id := uuid.NewString()
	c.Locals(CookieName, id)
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		Expires:  time.Now().Add(snapshotTTL),
		HTTPOnly: true,
		SameSite: "Lax",
	})
	c.Set(HeaderName, id)
	return id
}
