package user

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tabng/tab-backend/internal/apperror"
	"github.com/tabng/tab-backend/internal/auth"
	"github.com/tabng/tab-backend/internal/pagination"
)

type Handler struct {
	service *Service
	issuer  *auth.Issuer
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type roleRequest struct {
	Role string `json:"role"`
}

func NewHandler(service *Service, issuer *auth.Issuer) *Handler {
	return &Handler{service: service, issuer: issuer}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Post("/api/v1/sign-in", h.login)
	app.Post("/api/v1/sign-up", h.register)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/profile", h.getProfile)
	app.Patch("/api/v1/profile", h.updateProfile)
	app.Put("/api/v1/profile", h.updateProfile)
	app.Post("/api/v1/profile/password", h.changePassword)

	app.Get("/api/v1/users", auth.RequireAdmin(), h.getUsers)
	app.Patch("/api/v1/users/:id/role", auth.RequireAdmin(), h.updateUserRole)
}

func (h *Handler) login(c *fiber.Ctx) error {
	payload := new(loginRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	u, err := h.service.Authenticate(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return apperror.Respond(c, err)
	}
	token, err := h.issuer.Issue(auth.Principal{UserID: u.ID, Email: u.Email, Role: u.Role})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to generate token"})
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"user":    sanitizeUser(u),
		"token":   token,
	})
}

func (h *Handler) register(c *fiber.Ctx) error {
	payload := new(SignUpInput)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	created, err := h.service.Register(c.UserContext(), *payload)
	if err != nil {
		return apperror.Respond(c, err)
	}
	token, err := h.issuer.Issue(auth.Principal{UserID: created.ID, Email: created.Email, Role: created.Role})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to generate token"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": sanitizeUser(created), "token": token})
}

// getProfile returns the caller, including the address book.
func (h *Handler) getProfile(c *fiber.Ctx) error {
	userID, err := auth.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	u, err := h.service.Profile(c.UserContext(), userID)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(u)
}

func (h *Handler) updateProfile(c *fiber.Ctx) error {
	userID, err := auth.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	payload := new(ProfileInput)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	u, err := h.service.UpdateProfile(c.UserContext(), userID, *payload)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(u)
}

func (h *Handler) changePassword(c *fiber.Ctx) error {
	userID, err := auth.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	payload := new(PasswordInput)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if err := h.service.ChangePassword(c.UserContext(), userID, *payload); err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password updated"})
}

func (h *Handler) getUsers(c *fiber.Ctx) error {
	page, err := h.service.List(c.UserContext(), ListFilterFromQuery(c))
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(page)
}

func (h *Handler) updateUserRole(c *fiber.Ctx) error {
	payload := new(roleRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	u, err := h.service.UpdateRole(c.UserContext(), c.Params("id"), payload.Role)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(u)
}

// ListFilterFromQuery reads limit, cursor, search and role query values.
// An unknown role is ignored.
func ListFilterFromQuery(c *fiber.Ctx) ListFilter {
	f := ListFilter{
		Limit:  pagination.Limit(c.Query("limit"), pagination.DefaultLimit, pagination.MaxLimit),
		Cursor: c.Query("cursor"),
		Search: c.Query("search"),
	}
	if raw := c.Query("role"); raw != "" {
		if r, err := auth.ParseRole(raw); err == nil {
			f.Role = &r
		}
	}
	return f
}
