package slider

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tabng/tab-backend/internal/apperror"
	"github.com/tabng/tab-backend/internal/auth"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/sliders", h.getSliders)
	app.Get("/api/v1/sliders/active", h.getActiveSliders)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Put("/api/v1/sliders/order", auth.RequireAdmin(), h.updateOrder)
	app.Get("/api/v1/sliders/:id", auth.RequireAdmin(), h.getSlider)
	app.Post("/api/v1/sliders", auth.RequireAdmin(), h.createSlider)
	app.Put("/api/v1/sliders/:id", auth.RequireAdmin(), h.updateSlider)
	app.Delete("/api/v1/sliders/:id", auth.RequireAdmin(), h.deleteSlider)
}

func (h *Handler) getSliders(c *fiber.Ctx) error {
	items, err := h.service.List(c.UserContext())
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(items)
}

func (h *Handler) getActiveSliders(c *fiber.Ctx) error {
	items, err := h.service.Active(c.UserContext())
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(items)
}

func (h *Handler) getSlider(c *fiber.Ctx) error {
	sl, err := h.service.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(sl)
}

func (h *Handler) createSlider(c *fiber.Ctx) error {
	payload := new(Input)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	sl, err := h.service.Create(c.UserContext(), *payload)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sl)
}

func (h *Handler) updateSlider(c *fiber.Ctx) error {
	payload := new(Input)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	sl, err := h.service.Update(c.UserContext(), c.Params("id"), *payload)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(sl)
}

func (h *Handler) deleteSlider(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

func (h *Handler) updateOrder(c *fiber.Ctx) error {
	var positions []Position
	if err := c.BodyParser(&positions); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if err := h.service.Reorder(c.UserContext(), positions); err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}
