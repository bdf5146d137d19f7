package category

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
	app.Get("/api/v1/categories", h.getCategories)
	app.Get("/api/v1/categories/slug/:slug", h.getCategoryBySlug)
	app.Get("/api/v1/categories/:id", h.getCategory)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/v1/categories", auth.RequireAdmin(), h.createCategory)
	app.Put("/api/v1/categories/:id", auth.RequireAdmin(), h.updateCategory)
	app.Delete("/api/v1/categories/:id", auth.RequireAdmin(), h.deleteCategory)
}

func (h *Handler) getCategories(c *fiber.Ctx) error {
	var parentID *string
	if p := c.Query("parentId"); p != "" {
		parentID = &p
	}
	items, err := h.service.List(c.UserContext(), parentID, c.QueryBool("includeSubcategories", false))
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(items)
}

func (h *Handler) getCategory(c *fiber.Ctx) error {
	cat, err := h.service.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(cat)
}

func (h *Handler) getCategoryBySlug(c *fiber.Ctx) error {
	cat, err := h.service.GetBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(cat)
}

func (h *Handler) createCategory(c *fiber.Ctx) error {
	payload := new(Input)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	cat, err := h.service.Create(c.UserContext(), *payload)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(cat)
}

func (h *Handler) updateCategory(c *fiber.Ctx) error {
	payload := new(Input)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	cat, err := h.service.Update(c.UserContext(), c.Params("id"), *payload)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(cat)
}

func (h *Handler) deleteCategory(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return apperror.Respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
