package order

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tabng/tab-backend/internal/apperror"
	"github.com/tabng/tab-backend/internal/auth"
	"github.com/tabng/tab-backend/internal/pagination"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/orders", h.getUserOrders)
	app.Post("/api/v1/orders", h.createOrder)
	app.Get("/api/v1/orders/:id", h.getOrder)
	app.Post("/api/v1/orders/:id/cancel", h.cancelOrder)

	app.Get("/api/v1/admin/orders", auth.RequireAdmin(), h.getAllOrders)
	app.Patch("/api/v1/admin/orders/:id/status", auth.RequireAdmin(), h.updateOrderStatus)
}

func (h *Handler) createOrder(c *fiber.Ctx) error {
	userID, err := auth.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	payload := new(CreateInput)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	created, err := h.service.Create(c.UserContext(), userID, *payload)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// getUserOrders returns the caller's orders, newest first.
func (h *Handler) getUserOrders(c *fiber.Ctx) error {
	userID, err := auth.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	page, err := h.service.UserOrders(c.UserContext(), userID, FilterFromQuery(c))
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(page)
}

func (h *Handler) getOrder(c *fiber.Ctx) error {
	p, err := auth.PrincipalFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	o, err := h.service.Get(c.UserContext(), p, c.Params("id"))
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(o)
}

func (h *Handler) cancelOrder(c *fiber.Ctx) error {
	userID, err := auth.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	o, err := h.service.Cancel(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(o)
}

func (h *Handler) getAllOrders(c *fiber.Ctx) error {
	f := FilterFromQuery(c)
	f.UserID = c.Query("userId")
	page, err := h.service.All(c.UserContext(), f)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(page)
}

func (h *Handler) updateOrderStatus(c *fiber.Ctx) error {
	payload := new(StatusUpdate)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	o, err := h.service.UpdateStatus(c.UserContext(), c.Params("id"), *payload)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(o)
}

// FilterFromQuery reads limit, cursor, status, paymentStatus and search.
// Unknown enum values are ignored.
func FilterFromQuery(c *fiber.Ctx) ListFilter {
	f := ListFilter{
		Limit:  pagination.Limit(c.Query("limit"), pagination.DefaultLimit, pagination.MaxLimit),
		Cursor: c.Query("cursor"),
		Search: c.Query("search"),
	}
	if st, err := ParseStatus(c.Query("status")); err == nil {
		f.Status = &st
	}
	if ps, err := ParsePaymentStatus(c.Query("paymentStatus")); err == nil {
		f.PaymentStatus = &ps
	}
	return f
}
