package handlers

import (
	"errors"

	"replay/internal/app"
	historyController "replay/internal/controllers/history"

	logger "github.com/Bparsons0904/goLogger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type HistoryHandler struct {
	Handler
	historyController historyController.HistoryControllerInterface
}

func NewHistoryHandler(app app.App, router fiber.Router) *HistoryHandler {
	log := logger.New("handlers").File("history_handler")
	return &HistoryHandler{
		historyController: app.Controllers.History,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *HistoryHandler) Register() {
	history := h.router.Group("/history")
	history.Get("", h.listRecent)
	history.Post("", h.recordPlay)
	history.Delete("", h.deleteAll)
	history.Get("/liked", h.listLiked)
	history.Get("/most-played", h.listMostPlayed)
	history.Get("/:id", h.getByID)
	history.Patch("/:id/like", h.toggleLike)
	history.Delete("/:id", h.deleteOne)
}

func (h *HistoryHandler) listRecent(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	offset := c.QueryInt("offset", 0)

	entries, err := h.historyController.GetRecent(c.UserContext(), limit, offset)
	if err != nil {
		return h.errorResponse(c, err, "Failed to fetch recently played")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    entries,
		"count":   len(entries),
	})
}

func (h *HistoryHandler) recordPlay(c *fiber.Ctx) error {
	var req historyController.RecordPlayRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	entry, err := h.historyController.RecordPlay(c.UserContext(), &req)
	if err != nil {
		return h.errorResponse(c, err, "Failed to record play")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    entry,
	})
}

func (h *HistoryHandler) deleteAll(c *fiber.Ctx) error {
	cleared, err := h.historyController.DeleteAll(c.UserContext())
	if err != nil {
		return h.errorResponse(c, err, "Failed to clear history")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"cleared": cleared},
	})
}

func (h *HistoryHandler) listLiked(c *fiber.Ctx) error {
	entries, err := h.historyController.GetLiked(c.UserContext())
	if err != nil {
		return h.errorResponse(c, err, "Failed to fetch liked tracks")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    entries,
		"count":   len(entries),
	})
}

func (h *HistoryHandler) listMostPlayed(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)

	entries, err := h.historyController.GetMostPlayed(c.UserContext(), limit)
	if err != nil {
		return h.errorResponse(c, err, "Failed to fetch most played tracks")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    entries,
		"count":   len(entries),
	})
}

func (h *HistoryHandler) getByID(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid history entry ID",
		})
	}

	entry, err := h.historyController.GetByID(c.UserContext(), id)
	if err != nil {
		return h.errorResponse(c, err, "Failed to fetch history entry")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    entry,
	})
}

func (h *HistoryHandler) toggleLike(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid history entry ID",
		})
	}

	entry, err := h.historyController.ToggleLike(c.UserContext(), id)
	if err != nil {
		return h.errorResponse(c, err, "Failed to toggle like")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    entry,
	})
}

func (h *HistoryHandler) deleteOne(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid history entry ID",
		})
	}

	deleted, err := h.historyController.Delete(c.UserContext(), id)
	if err != nil {
		return h.errorResponse(c, err, "Failed to delete history entry")
	}

	if !deleted {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "History entry not found",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"deleted": true},
	})
}

// errorResponse maps controller error kinds onto HTTP statuses. Validation
// and not-found messages are safe to surface; anything else gets a generic
// message with details kept to the logs.
func (h *HistoryHandler) errorResponse(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, historyController.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	case errors.Is(err, historyController.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	case errors.Is(err, historyController.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	case errors.Is(err, historyController.ErrStorage):
		h.log.Er(fallback, err, "path", c.Path())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   fallback,
		})
	default:
		h.log.Er(fallback, err, "path", c.Path())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   fallback,
		})
	}
}
