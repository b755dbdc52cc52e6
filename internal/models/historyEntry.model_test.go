package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHistoryEntry_BeforeCreate_Validation(t *testing.T) {
	tests := []struct {
		name      string
		entry     *HistoryEntry
		expectErr bool
	}{
		{
			name: "valid entry",
			entry: &HistoryEntry{
				Title:    "Harvest Moon",
				Artist:   "Neil Young",
				Duration: 303,
			},
			expectErr: false,
		},
		{
			name: "missing title",
			entry: &HistoryEntry{
				Artist:   "Neil Young",
				Duration: 303,
			},
			expectErr: true,
		},
		{
			name: "missing artist",
			entry: &HistoryEntry{
				Title:    "Harvest Moon",
				Duration: 303,
			},
			expectErr: true,
		},
		{
			name: "negative duration",
			entry: &HistoryEntry{
				Title:    "Harvest Moon",
				Artist:   "Neil Young",
				Duration: -1,
			},
			expectErr: true,
		},
		{
			name: "zero duration is allowed",
			entry: &HistoryEntry{
				Title:    "Harvest Moon",
				Artist:   "Neil Young",
				Duration: 0,
			},
			expectErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.BeforeCreate(nil)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHistoryEntry_BeforeCreate_Defaults(t *testing.T) {
	t.Run("empty external id becomes nil", func(t *testing.T) {
		emptyID := ""
		entry := &HistoryEntry{
			Title:      "Harvest Moon",
			Artist:     "Neil Young",
			Duration:   303,
			ExternalID: &emptyID,
		}

		assert.NoError(t, entry.BeforeCreate(nil))
		assert.Nil(t, entry.ExternalID)
	})

	t.Run("non-empty external id is preserved", func(t *testing.T) {
		externalID := "spotify:track:1vFwllxrBGLPz8y1D4aX9q"
		entry := &HistoryEntry{
			Title:      "Harvest Moon",
			Artist:     "Neil Young",
			Duration:   303,
			ExternalID: &externalID,
		}

		assert.NoError(t, entry.BeforeCreate(nil))
		assert.Equal(t, &externalID, entry.ExternalID)
	})

	t.Run("play count defaults to one", func(t *testing.T) {
		entry := &HistoryEntry{
			Title:    "Harvest Moon",
			Artist:   "Neil Young",
			Duration: 303,
		}

		assert.NoError(t, entry.BeforeCreate(nil))
		assert.Equal(t, 1, entry.PlayCount)
	})

	t.Run("zero played at defaults to now", func(t *testing.T) {
		entry := &HistoryEntry{
			Title:    "Harvest Moon",
			Artist:   "Neil Young",
			Duration: 303,
		}

		before := time.Now().UTC()
		assert.NoError(t, entry.BeforeCreate(nil))
		assert.False(t, entry.PlayedAt.IsZero())
		assert.False(t, entry.PlayedAt.Before(before))
	})

	t.Run("explicit played at is preserved", func(t *testing.T) {
		playedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		entry := &HistoryEntry{
			Title:    "Harvest Moon",
			Artist:   "Neil Young",
			Duration: 303,
			PlayedAt: playedAt,
		}

		assert.NoError(t, entry.BeforeCreate(nil))
		assert.Equal(t, playedAt, entry.PlayedAt)
	})
}
