package upload

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/tabng/tab-backend/internal/auth"
	"go.uber.org/zap"
)

type Handler struct {
	store Store
	log   *zap.Logger
	now   func() time.Time
}

func NewHandler(store Store, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{store: store, log: log, now: time.Now}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/v1/upload", auth.RequireAdmin(), h.upload)
}

func (h *Handler) upload(c *fiber.Ctx) error {
	filename := c.Query("filename")
	if filename == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Filename is required"})
	}
	fh, err := c.FormFile("file")
	if err != nil || fh == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "File is required"})
	}
	f, err := fh.Open()
	if err != nil {
		h.log.Error("open upload", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Error uploading file"})
	}
	defer f.Close()

	name := UniqueName(filename, fh.Filename, h.now())
	blob, err := h.store.Put(c.UserContext(), name, fh.Header.Get(fiber.HeaderContentType), f)
	if err != nil {
		h.log.Error("store upload", zap.String("name", name), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Error uploading file"})
	}
	h.log.Info("file uploaded", zap.String("pathname", blob.Pathname), zap.Int64("size", blob.Size))
	return c.JSON(blob)
}
