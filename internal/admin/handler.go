package admin

import (
	"bytes"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/tabng/tab-backend/internal/apperror"
	"github.com/tabng/tab-backend/internal/auth"
	"github.com/tabng/tab-backend/internal/order"
	"github.com/tabng/tab-backend/internal/user"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

// RegisterProtectedRoutes mounts the back office API. Order listing and
// status updates live with the order handler.
func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	admin := app.Group("/api/v1/admin", auth.RequireAdmin())
	admin.Get("/dashboard", h.getDashboard)
	admin.Get("/users", h.getUsers)
	admin.Post("/users", h.createUser)
	admin.Get("/users/:id", h.getUserDetails)
	admin.Patch("/users/:id", h.updateUser)
	admin.Put("/users/:id", h.updateUser)
	admin.Delete("/users/:id", h.deleteUser)
	admin.Get("/products/stats", h.getProductStats)
	admin.Get("/orders/export", h.exportOrders)
}

func (h *Handler) getDashboard(c *fiber.Ctx) error {
	stats, err := h.service.Dashboard(c.UserContext())
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(stats)
}

func (h *Handler) getUsers(c *fiber.Ctx) error {
	page, err := h.service.Users(c.UserContext(), user.ListFilterFromQuery(c))
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(page)
}

func (h *Handler) getUserDetails(c *fiber.Ctx) error {
	d, err := h.service.UserDetails(c.UserContext(), c.Params("id"))
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(d)
}

func (h *Handler) createUser(c *fiber.Ctx) error {
	payload := new(user.CreateInput)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	u, err := h.service.CreateUser(c.UserContext(), *payload)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(u)
}

func (h *Handler) updateUser(c *fiber.Ctx) error {
	payload := new(user.UpdateInput)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	u, err := h.service.UpdateUser(c.UserContext(), c.Params("id"), *payload)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(u)
}

func (h *Handler) deleteUser(c *fiber.Ctx) error {
	actorID, err := auth.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	if err := h.service.DeleteUser(c.UserContext(), actorID, c.Params("id")); err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

func (h *Handler) getProductStats(c *fiber.Ctx) error {
	stats, err := h.service.ProductStats(c.UserContext())
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(stats)
}

func (h *Handler) exportOrders(c *fiber.Ctx) error {
	f := order.FilterFromQuery(c)
	f.UserID = c.Query("userId")
	var buf bytes.Buffer
	if err := h.service.ExportOrders(c.UserContext(), f, &buf); err != nil {
		return apperror.Respond(c, err)
	}
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=orders-%s.xlsx", h.service.now().UTC().Format("20060102")))
	return c.Send(buf.Bytes())
}
