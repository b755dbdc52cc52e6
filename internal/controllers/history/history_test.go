package historyController

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"replay/config"
	"replay/internal/database"
	"replay/internal/models"
	"replay/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type stubHistoryRepo struct {
	recordPlayFn func(ctx context.Context, entry *models.HistoryEntry) (*models.HistoryEntry, error)
	getByIDFn    func(ctx context.Context, id uuid.UUID) (*models.HistoryEntry, error)
	toggleLikeFn func(ctx context.Context, id uuid.UUID) (*models.HistoryEntry, error)
	deleteFn     func(ctx context.Context, id uuid.UUID) (bool, error)
}

func (s *stubHistoryRepo) RecordPlay(
	ctx context.Context,
	entry *models.HistoryEntry,
) (*models.HistoryEntry, error) {
	if s.recordPlayFn != nil {
		return s.recordPlayFn(ctx, entry)
	}
	return entry, nil
}

func (s *stubHistoryRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.HistoryEntry, error) {
	if s.getByIDFn != nil {
		return s.getByIDFn(ctx, id)
	}
	return &models.HistoryEntry{}, nil
}

func (s *stubHistoryRepo) GetRecent(
	ctx context.Context,
	limit, offset int,
) ([]*models.HistoryEntry, error) {
	return nil, nil
}

func (s *stubHistoryRepo) GetLiked(ctx context.Context) ([]*models.HistoryEntry, error) {
	return nil, nil
}

func (s *stubHistoryRepo) GetMostPlayed(
	ctx context.Context,
	limit int,
) ([]*models.HistoryEntry, error) {
	return nil, nil
}

func (s *stubHistoryRepo) ToggleLike(
	ctx context.Context,
	id uuid.UUID,
) (*models.HistoryEntry, error) {
	if s.toggleLikeFn != nil {
		return s.toggleLikeFn(ctx, id)
	}
	return &models.HistoryEntry{}, nil
}

func (s *stubHistoryRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return true, nil
}

func (s *stubHistoryRepo) DeleteAll(ctx context.Context) (int64, error) {
	return 0, nil
}

func (s *stubHistoryRepo) DeleteStaleUnliked(
	ctx context.Context,
	olderThan time.Time,
) (int64, error) {
	return 0, nil
}

func newTestController(repo repositories.HistoryRepository) HistoryControllerInterface {
	return New(
		repositories.Repository{History: repo},
		nil,
		config.Config{},
		database.DB{},
	)
}

func intPtr(i int) *int {
	return &i
}

func TestHistoryController_RecordPlay_Validation(t *testing.T) {
	controller := newTestController(&stubHistoryRepo{})

	tests := []struct {
		name    string
		request *RecordPlayRequest
	}{
		{
			name: "missing title",
			request: &RecordPlayRequest{
				Artist:   "Neil Young",
				Duration: intPtr(303),
			},
		},
		{
			name: "whitespace title",
			request: &RecordPlayRequest{
				Title:    "   ",
				Artist:   "Neil Young",
				Duration: intPtr(303),
			},
		},
		{
			name: "missing artist",
			request: &RecordPlayRequest{
				Title:    "Harvest Moon",
				Duration: intPtr(303),
			},
		},
		{
			name: "missing duration",
			request: &RecordPlayRequest{
				Title:  "Harvest Moon",
				Artist: "Neil Young",
			},
		},
		{
			name: "negative duration",
			request: &RecordPlayRequest{
				Title:    "Harvest Moon",
				Artist:   "Neil Young",
				Duration: intPtr(-1),
			},
		},
		{
			name: "title too long",
			request: &RecordPlayRequest{
				Title:    strings.Repeat("a", MaxTextLength+1),
				Artist:   "Neil Young",
				Duration: intPtr(303),
			},
		},
		{
			name: "artwork url too long",
			request: &RecordPlayRequest{
				Title:      "Harvest Moon",
				Artist:     "Neil Young",
				Duration:   intPtr(303),
				ArtworkURL: "https://example.com/" + strings.Repeat("a", MaxURLLength),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := controller.RecordPlay(context.Background(), tt.request)
			assert.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
		})
	}
}

func TestHistoryController_RecordPlay_Success(t *testing.T) {
	var captured *models.HistoryEntry
	controller := newTestController(&stubHistoryRepo{
		recordPlayFn: func(ctx context.Context, entry *models.HistoryEntry) (*models.HistoryEntry, error) {
			captured = entry
			return entry, nil
		},
	})

	entry, err := controller.RecordPlay(context.Background(), &RecordPlayRequest{
		Title:    "Harvest Moon",
		Artist:   "Neil Young",
		Album:    "Harvest Moon",
		Duration: intPtr(303),
	})

	assert.NoError(t, err)
	assert.NotNil(t, entry)
	assert.Equal(t, "Harvest Moon", captured.Title)
	assert.Equal(t, 303, captured.Duration)
	assert.Nil(t, captured.ExternalID)
	assert.False(t, captured.PlayedAt.IsZero())
}

func TestHistoryController_RecordPlay_ExternalIDHandling(t *testing.T) {
	t.Run("external id is trimmed", func(t *testing.T) {
		var captured *models.HistoryEntry
		controller := newTestController(&stubHistoryRepo{
			recordPlayFn: func(ctx context.Context, entry *models.HistoryEntry) (*models.HistoryEntry, error) {
				captured = entry
				return entry, nil
			},
		})

		_, err := controller.RecordPlay(context.Background(), &RecordPlayRequest{
			Title:      "Harvest Moon",
			Artist:     "Neil Young",
			Duration:   intPtr(303),
			ExternalID: "  spotify:track:1vFwllxrBGLPz8y1D4aX9q  ",
		})

		assert.NoError(t, err)
		assert.NotNil(t, captured.ExternalID)
		assert.Equal(t, "spotify:track:1vFwllxrBGLPz8y1D4aX9q", *captured.ExternalID)
	})

	t.Run("blank external id becomes nil", func(t *testing.T) {
		var captured *models.HistoryEntry
		controller := newTestController(&stubHistoryRepo{
			recordPlayFn: func(ctx context.Context, entry *models.HistoryEntry) (*models.HistoryEntry, error) {
				captured = entry
				return entry, nil
			},
		})

		_, err := controller.RecordPlay(context.Background(), &RecordPlayRequest{
			Title:      "Harvest Moon",
			Artist:     "Neil Young",
			Duration:   intPtr(303),
			ExternalID: "   ",
		})

		assert.NoError(t, err)
		assert.Nil(t, captured.ExternalID)
	})
}

func TestHistoryController_RecordPlay_MergeRaceBecomesConflict(t *testing.T) {
	controller := newTestController(&stubHistoryRepo{
		recordPlayFn: func(ctx context.Context, entry *models.HistoryEntry) (*models.HistoryEntry, error) {
			return nil, repositories.ErrMergeRace
		},
	})

	_, err := controller.RecordPlay(context.Background(), &RecordPlayRequest{
		Title:      "Harvest Moon",
		Artist:     "Neil Young",
		Duration:   intPtr(303),
		ExternalID: "spotify:track:1vFwllxrBGLPz8y1D4aX9q",
	})

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrConflict))
}

func TestHistoryController_RecordPlay_StorageErrorsAreTyped(t *testing.T) {
	controller := newTestController(&stubHistoryRepo{
		recordPlayFn: func(ctx context.Context, entry *models.HistoryEntry) (*models.HistoryEntry, error) {
			return nil, errors.New("connection refused")
		},
	})

	_, err := controller.RecordPlay(context.Background(), &RecordPlayRequest{
		Title:    "Harvest Moon",
		Artist:   "Neil Young",
		Duration: intPtr(303),
	})

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrStorage))
}

func TestHistoryController_GetByID(t *testing.T) {
	t.Run("nil id fails validation", func(t *testing.T) {
		controller := newTestController(&stubHistoryRepo{})

		_, err := controller.GetByID(context.Background(), uuid.Nil)

		assert.Error(t, err)
		assert.True(t, errors.Is(err, ErrValidation))
	})

	t.Run("missing entry maps to not found", func(t *testing.T) {
		controller := newTestController(&stubHistoryRepo{
			getByIDFn: func(ctx context.Context, id uuid.UUID) (*models.HistoryEntry, error) {
				return nil, gorm.ErrRecordNotFound
			},
		})

		_, err := controller.GetByID(context.Background(), uuid.New())

		assert.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}

func TestHistoryController_ToggleLike(t *testing.T) {
	t.Run("nil id fails validation", func(t *testing.T) {
		controller := newTestController(&stubHistoryRepo{})

		_, err := controller.ToggleLike(context.Background(), uuid.Nil)

		assert.Error(t, err)
		assert.True(t, errors.Is(err, ErrValidation))
	})

	t.Run("missing entry maps to not found", func(t *testing.T) {
		controller := newTestController(&stubHistoryRepo{
			toggleLikeFn: func(ctx context.Context, id uuid.UUID) (*models.HistoryEntry, error) {
				return nil, gorm.ErrRecordNotFound
			},
		})

		_, err := controller.ToggleLike(context.Background(), uuid.New())

		assert.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("returns the toggled entry", func(t *testing.T) {
		id := uuid.New()
		controller := newTestController(&stubHistoryRepo{
			toggleLikeFn: func(ctx context.Context, toggleID uuid.UUID) (*models.HistoryEntry, error) {
				entry := &models.HistoryEntry{IsLiked: true}
				entry.ID = toggleID
				return entry, nil
			},
		})

		entry, err := controller.ToggleLike(context.Background(), id)

		assert.NoError(t, err)
		assert.Equal(t, id, entry.ID)
		assert.True(t, entry.IsLiked)
	})
}

func TestHistoryController_Delete(t *testing.T) {
	t.Run("nil id fails validation", func(t *testing.T) {
		controller := newTestController(&stubHistoryRepo{})

		_, err := controller.Delete(context.Background(), uuid.Nil)

		assert.Error(t, err)
		assert.True(t, errors.Is(err, ErrValidation))
	})

	t.Run("missing entry reports false without error", func(t *testing.T) {
		controller := newTestController(&stubHistoryRepo{
			deleteFn: func(ctx context.Context, id uuid.UUID) (bool, error) {
				return false, nil
			},
		})

		deleted, err := controller.Delete(context.Background(), uuid.New())

		assert.NoError(t, err)
		assert.False(t, deleted)
	})
}
