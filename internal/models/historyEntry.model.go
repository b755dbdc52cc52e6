package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// HistoryEntry is one deduplicated record of a track's play history. Tracks
// carrying an external catalog id collapse into a single row whose play count
// and recency advance on every play; tracks without one always insert fresh.
type HistoryEntry struct {
	BaseUUIDModel
	Title      string         `gorm:"type:text;not null"              json:"title"`
	Artist     string         `gorm:"type:text;not null"              json:"artist"`
	Album      string         `gorm:"type:text"                       json:"album,omitempty"`
	Duration   int            `gorm:"type:int;not null"               json:"duration"`
	ArtworkURL string         `gorm:"type:text"                       json:"artworkUrl,omitempty"`
	ExternalID *string        `gorm:"type:text;uniqueIndex"           json:"externalId,omitempty"`
	PlayedAt   time.Time      `gorm:"not null;index:idx_history_entries_played_at,sort:desc" json:"playedAt"`
	PlayCount  int            `gorm:"type:int;not null;default:1"     json:"playCount"`
	IsLiked    bool           `gorm:"not null;default:false"          json:"isLiked"`
	Metadata   datatypes.JSON `gorm:"type:jsonb"                      json:"metadata,omitempty"`
}

func (e *HistoryEntry) BeforeCreate(tx *gorm.DB) error {
	if e.Title == "" {
		return gorm.ErrInvalidValue
	}
	if e.Artist == "" {
		return gorm.ErrInvalidValue
	}
	if e.Duration < 0 {
		return gorm.ErrInvalidValue
	}
	// An empty external id must be stored as NULL, never "". The unique
	// index treats NULLs as distinct but would collapse empty strings.
	if e.ExternalID != nil && *e.ExternalID == "" {
		e.ExternalID = nil
	}
	if e.PlayCount < 1 {
		e.PlayCount = 1
	}
	if e.PlayedAt.IsZero() {
		e.PlayedAt = time.Now().UTC()
	}
	return nil
}
