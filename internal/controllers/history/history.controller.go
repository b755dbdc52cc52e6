package historyController

import (
	"context"
	"errors"
	"strings"
	"time"

	"replay/config"
	"replay/internal/database"
	"replay/internal/events"
	. "replay/internal/models"
	"replay/internal/repositories"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	MaxTextLength = 512
	MaxURLLength  = 2048
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrStorage    = errors.New("storage error")
)

type HistoryController struct {
	historyRepo repositories.HistoryRepository
	eventBus    *events.EventBus
	Config      config.Config
}

type RecordPlayRequest struct {
	Title      string         `json:"title"`
	Artist     string         `json:"artist"`
	Album      string         `json:"album,omitempty"`
	Duration   *int           `json:"duration"`
	ArtworkURL string         `json:"artworkUrl,omitempty"`
	ExternalID string         `json:"externalId,omitempty"`
	Metadata   datatypes.JSON `json:"metadata,omitempty"`
}

type HistoryControllerInterface interface {
	RecordPlay(ctx context.Context, request *RecordPlayRequest) (*HistoryEntry, error)
	GetByID(ctx context.Context, id uuid.UUID) (*HistoryEntry, error)
	GetRecent(ctx context.Context, limit, offset int) ([]*HistoryEntry, error)
	GetLiked(ctx context.Context) ([]*HistoryEntry, error)
	GetMostPlayed(ctx context.Context, limit int) ([]*HistoryEntry, error)
	ToggleLike(ctx context.Context, id uuid.UUID) (*HistoryEntry, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	DeleteAll(ctx context.Context) (int64, error)
}

func New(
	repos repositories.Repository,
	eventBus *events.EventBus,
	config config.Config,
	db database.DB,
) HistoryControllerInterface {
	return &HistoryController{
		historyRepo: repos.History,
		eventBus:    eventBus,
		Config:      config,
	}
}

func (c *HistoryController) validateRecordPlay(
	request *RecordPlayRequest,
	log logger.Logger,
) error {
	if strings.TrimSpace(request.Title) == "" {
		return log.ErrorWithType(ErrValidation, "title is required")
	}

	if strings.TrimSpace(request.Artist) == "" {
		return log.ErrorWithType(ErrValidation, "artist is required")
	}

	if request.Duration == nil {
		return log.ErrorWithType(ErrValidation, "duration is required")
	}

	if *request.Duration < 0 {
		return log.ErrorWithType(
			ErrValidation,
			"duration cannot be negative",
			"duration", *request.Duration,
		)
	}

	if len(request.Title) > MaxTextLength || len(request.Artist) > MaxTextLength ||
		len(request.Album) > MaxTextLength {
		return log.ErrorWithType(ErrValidation, "text field exceeds maximum length")
	}

	if len(request.ArtworkURL) > MaxURLLength {
		return log.ErrorWithType(ErrValidation, "artworkUrl exceeds maximum length")
	}

	return nil
}

// RecordPlay records a play event. A non-empty externalId merges into the
// existing entry for that id when present; anything else creates a new row.
func (c *HistoryController) RecordPlay(
	ctx context.Context,
	request *RecordPlayRequest,
) (*HistoryEntry, error) {
	log := logger.New("historyController").TraceFromContext(ctx).Function("RecordPlay")

	if err := c.validateRecordPlay(request, log); err != nil {
		return nil, err
	}

	var externalID *string
	if trimmed := strings.TrimSpace(request.ExternalID); trimmed != "" {
		externalID = &trimmed
	}

	entry := &HistoryEntry{
		Title:      request.Title,
		Artist:     request.Artist,
		Album:      request.Album,
		Duration:   *request.Duration,
		ArtworkURL: request.ArtworkURL,
		ExternalID: externalID,
		PlayedAt:   time.Now().UTC(),
		Metadata:   request.Metadata,
	}

	entry, err := c.historyRepo.RecordPlay(ctx, entry)
	if err != nil {
		if errors.Is(err, repositories.ErrMergeRace) {
			return nil, log.ErrorWithType(
				ErrConflict,
				"play merge lost race with concurrent delete, retry",
			)
		}
		return nil, log.ErrorWithType(ErrStorage, "failed to record play", "error", err, "title", request.Title)
	}

	c.publish(ctx, events.HistoryRecorded, entry, log)

	log.Info(
		"Play recorded",
		"entryID", entry.ID,
		"playCount", entry.PlayCount,
		"merged", entry.PlayCount > 1,
	)

	return entry, nil
}

func (c *HistoryController) GetByID(ctx context.Context, id uuid.UUID) (*HistoryEntry, error) {
	log := logger.New("historyController").TraceFromContext(ctx).Function("GetByID")

	if id == uuid.Nil {
		return nil, log.ErrorWithType(ErrValidation, "id is required")
	}

	entry, err := c.historyRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, log.ErrorWithType(ErrNotFound, "history entry not found")
		}
		return nil, log.ErrorWithType(ErrStorage, "failed to get history entry", "error", err, "id", id)
	}

	return entry, nil
}

func (c *HistoryController) GetRecent(
	ctx context.Context,
	limit, offset int,
) ([]*HistoryEntry, error) {
	log := logger.New("historyController").TraceFromContext(ctx).Function("GetRecent")

	entries, err := c.historyRepo.GetRecent(ctx, limit, offset)
	if err != nil {
		return nil, log.ErrorWithType(ErrStorage, "failed to get recent history", "error", err)
	}

	return entries, nil
}

func (c *HistoryController) GetLiked(ctx context.Context) ([]*HistoryEntry, error) {
	log := logger.New("historyController").TraceFromContext(ctx).Function("GetLiked")

	entries, err := c.historyRepo.GetLiked(ctx)
	if err != nil {
		return nil, log.ErrorWithType(ErrStorage, "failed to get liked history", "error", err)
	}

	return entries, nil
}

func (c *HistoryController) GetMostPlayed(
	ctx context.Context,
	limit int,
) ([]*HistoryEntry, error) {
	log := logger.New("historyController").TraceFromContext(ctx).Function("GetMostPlayed")

	entries, err := c.historyRepo.GetMostPlayed(ctx, limit)
	if err != nil {
		return nil, log.ErrorWithType(ErrStorage, "failed to get most played history", "error", err)
	}

	return entries, nil
}

// ToggleLike flips the liked flag. Each call is an observable mutation;
// two calls in sequence restore the original state.
func (c *HistoryController) ToggleLike(
	ctx context.Context,
	id uuid.UUID,
) (*HistoryEntry, error) {
	log := logger.New("historyController").TraceFromContext(ctx).Function("ToggleLike")

	if id == uuid.Nil {
		return nil, log.ErrorWithType(ErrValidation, "id is required")
	}

	entry, err := c.historyRepo.ToggleLike(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, log.ErrorWithType(ErrNotFound, "history entry not found")
		}
		return nil, log.ErrorWithType(ErrStorage, "failed to toggle like", "error", err, "id", id)
	}

	c.publish(ctx, events.HistoryLiked, entry, log)

	log.Info("Like toggled", "entryID", entry.ID, "isLiked", entry.IsLiked)

	return entry, nil
}

func (c *HistoryController) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	log := logger.New("historyController").TraceFromContext(ctx).Function("Delete")

	if id == uuid.Nil {
		return false, log.ErrorWithType(ErrValidation, "id is required")
	}

	deleted, err := c.historyRepo.Delete(ctx, id)
	if err != nil {
		return false, log.ErrorWithType(ErrStorage, "failed to delete history entry", "error", err, "id", id)
	}

	if deleted {
		c.publish(ctx, events.HistoryDeleted, &HistoryEntry{BaseUUIDModel: BaseUUIDModel{ID: id}}, log)
		log.Info("History entry deleted", "entryID", id)
	}

	return deleted, nil
}

func (c *HistoryController) DeleteAll(ctx context.Context) (int64, error) {
	log := logger.New("historyController").TraceFromContext(ctx).Function("DeleteAll")

	cleared, err := c.historyRepo.DeleteAll(ctx)
	if err != nil {
		return 0, log.ErrorWithType(ErrStorage, "failed to clear history", "error", err)
	}

	c.publish(ctx, events.HistoryCleared, nil, log)

	log.Info("History cleared", "cleared", cleared)

	return cleared, nil
}

func (c *HistoryController) publish(
	ctx context.Context,
	eventType events.MessageType,
	entry *HistoryEntry,
	log logger.Logger,
) {
	if c.eventBus == nil {
		return
	}

	data := map[string]any{}
	if entry != nil {
		data["entryId"] = entry.ID
		data["entry"] = entry
	}

	event := events.Event{
		Type: eventType,
		Data: data,
	}

	if err := c.eventBus.Publish(events.HISTORY_CHANNEL, event); err != nil {
		log.Warn("failed to publish history event", "type", eventType, "error", err)
	}
}
