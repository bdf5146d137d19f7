package checkout

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tabng/tab-backend/internal/apperror"
	"github.com/tabng/tab-backend/internal/cart"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/checkout", h.getState)
	app.Delete("/api/v1/checkout", h.reset)
	app.Post("/api/v1/checkout/information", h.submitInformation)
	app.Post("/api/v1/checkout/shipping", h.submitShipping)
	app.Post("/api/v1/checkout/payment-method", h.selectPaymentMethod)
	app.Post("/api/v1/checkout/back", h.back)
	app.Post("/api/v1/checkout/place-order", h.placeOrder)
}

func (h *Handler) session(c *fiber.Ctx) *Session {
	return h.service.Session(cart.ResolveID(c))
}

func (h *Handler) getState(c *fiber.Ctx) error {
	return c.JSON(h.service.State(cart.ResolveID(c)))
}

func (h *Handler) reset(c *fiber.Ctx) error {
	h.service.Reset(cart.ResolveID(c))
	return c.JSON(initialState())
}

func (h *Handler) submitInformation(c *fiber.Ctx) error {
	payload := new(CustomerInfo)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	st, err := h.session(c).SubmitInformation(*payload)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(st)
}

func (h *Handler) submitShipping(c *fiber.Ctx) error {
	payload := new(ShippingAddress)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	st, err := h.session(c).SubmitShipping(*payload)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(st)
}

func (h *Handler) selectPaymentMethod(c *fiber.Ctx) error {
	payload := struct {
		Type string `json:"type"`
	}{}
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	t, err := ParsePaymentType(payload.Type)
	if err != nil {
		return apperror.Respond(c, apperror.Invalid(map[string]string{"type": "Payment type must be paystack or cash-on-delivery"}))
	}
	st, err := h.session(c).SelectPaymentMethod(t)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(st)
}

func (h *Handler) back(c *fiber.Ctx) error {
	st, err := h.session(c).Back()
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(st)
}

// placeOrder answers 200 with the confirmation for cash on delivery and 202
// with the hosted payment details for Paystack.
func (h *Handler) placeOrder(c *fiber.Ctx) error {
	p, err := h.session(c).PlaceOrder(c.UserContext())
	if err != nil {
		return apperror.Respond(c, err)
	}
	if p.Reference != "" {
		return c.Status(fiber.StatusAccepted).JSON(p)
	}
	return c.JSON(p)
}
