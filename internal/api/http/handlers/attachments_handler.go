package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/magiclink-auth/internal/api/dto"
	"github.com/spec-kit/magiclink-auth/internal/auth"
	"github.com/spec-kit/magiclink-auth/internal/storage"
	apperrors "github.com/spec-kit/magiclink-auth/pkg/util"
)

// AttachmentsHandler serves admin-only files. Routes are mounted behind
// the Guard so no handler runs for other callers.
type AttachmentsHandler struct {
	store  *storage.AttachmentStore
	logger *zap.Logger
}

// NewAttachmentsHandler constructs handler.
func NewAttachmentsHandler(store *storage.AttachmentStore, logger *zap.Logger) *AttachmentsHandler {
	return &AttachmentsHandler{store: store, logger: logger}
}

// List handles GET /api/attachments.
func (h *AttachmentsHandler) List(c *fiber.Ctx) error {
	files, err := h.store.List()
	if err != nil {
		return apperrors.NewDependencyFailure("filesystem", err)
	}
	out := make([]dto.AttachmentResponse, 0, len(files))
	for _, f := range files {
		out = append(out, dto.AttachmentResponse{Name: f.Name, Size: f.Size, ModifiedAt: f.ModifiedAt})
	}
	return c.JSON(fiber.Map{"data": out})
}

// Download handles GET /api/attachments/:name.
func (h *AttachmentsHandler) Download(c *fiber.Ctx) error {
	name := c.Params("name")
	path, err := h.store.Path(name)
	if err != nil {
		return mapStorageError(err, name)
	}
	h.logger.Info("attachment downloaded", zap.String("name", name), zap.String("user_id", auth.UserFromContext(c).ID))
	return c.Download(path, name)
}

// Delete handles DELETE /api/attachments/:name.
func (h *AttachmentsHandler) Delete(c *fiber.Ctx) error {
	name := c.Params("name")
	if err := h.store.Delete(name); err != nil {
		return mapStorageError(err, name)
	}
	h.logger.Info("attachment deleted", zap.String("name", name), zap.String("user_id", auth.UserFromContext(c).ID))
	return c.SendStatus(fiber.StatusNoContent)
}

func mapStorageError(err error, name string) error {
	switch {
	case errors.Is(err, storage.ErrInvalidName):
		return apperrors.NewValidationError("invalid attachment name", nil)
	case errors.Is(err, storage.ErrNotFound):
		return apperrors.NewNotFound("attachment", map[string]any{"name": name})
	default:
		return apperrors.NewDependencyFailure("filesystem", err)
	}
}
