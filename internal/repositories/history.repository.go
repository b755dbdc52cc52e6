package repositories

import (
	"context"
	"errors"
	"time"

	"replay/internal/database"
	. "replay/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	HISTORY_CACHE_PREFIX = "history"
	// A projection read racing a mutation's invalidation can re-set a
	// pre-mutation page; the TTL bounds how long that page survives.
	HISTORY_CACHE_EXPIRY = 5 * time.Minute

	RECENT_CACHE_KEY      = "recent"
	LIKED_CACHE_KEY       = "liked"
	MOST_PLAYED_CACHE_KEY = "most_played"

	DefaultRecentLimit     = 20
	DefaultMostPlayedLimit = 10
)

// ErrMergeRace means the atomic merge found its identity key but the row
// vanished before the update applied (a concurrent delete won). Callers
// should retry the record-play.
var ErrMergeRace = errors.New("merge lost race with concurrent delete")

type HistoryRepository interface {
	RecordPlay(ctx context.Context, entry *HistoryEntry) (*HistoryEntry, error)
	GetByID(ctx context.Context, id uuid.UUID) (*HistoryEntry, error)
	GetRecent(ctx context.Context, limit, offset int) ([]*HistoryEntry, error)
	GetLiked(ctx context.Context) ([]*HistoryEntry, error)
	GetMostPlayed(ctx context.Context, limit int) ([]*HistoryEntry, error)
	ToggleLike(ctx context.Context, id uuid.UUID) (*HistoryEntry, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	DeleteAll(ctx context.Context) (int64, error)
	DeleteStaleUnliked(ctx context.Context, olderThan time.Time) (int64, error)
}

type historyRepository struct {
	db  database.DB
	log logger.Logger
}

func NewHistoryRepository(db database.DB) HistoryRepository {
	return &historyRepository{
		db:  db,
		log: logger.New("historyRepository"),
	}
}

// RecordPlay inserts a new history entry, or, when the entry carries an
// external id already present in the table, merges into the existing row:
// play count +1, played at advanced, descriptive fields left as first seen.
// The merge is a single ON CONFLICT statement so two simultaneous plays of
// the same track can neither double-insert nor lose an increment.
func (r *historyRepository) RecordPlay(
	ctx context.Context,
	entry *HistoryEntry,
) (*HistoryEntry, error) {
	log := r.log.Function("RecordPlay")

	entry.PlayCount = 1
	entry.IsLiked = false
	if entry.PlayedAt.IsZero() {
		entry.PlayedAt = time.Now().UTC()
	}

	db := r.db.SQLWithContext(ctx)

	if entry.ExternalID == nil {
		// No identity key: always a fresh row. Matching title/artist is
		// not a dedup signal, distinct recordings legitimately share both.
		if err := db.Create(entry).Error; err != nil {
			return nil, log.Err("failed to insert history entry", err, "title", entry.Title)
		}

		r.invalidateProjectionCaches(ctx)
		return entry, nil
	}

	result := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"play_count": gorm.Expr("history_entries.play_count + 1"),
			"played_at":  gorm.Expr("GREATEST(history_entries.played_at, EXCLUDED.played_at)"),
			"updated_at": gorm.Expr("EXCLUDED.updated_at"),
		}),
	}, clause.Returning{}).Create(entry)
	if result.Error != nil {
		return nil, log.Err(
			"failed to upsert history entry",
			result.Error,
			"externalID", *entry.ExternalID,
		)
	}

	if result.RowsAffected == 0 {
		return nil, log.Err(
			"history entry vanished during merge",
			ErrMergeRace,
			"externalID", *entry.ExternalID,
		)
	}

	r.invalidateProjectionCaches(ctx)

	return entry, nil
}

func (r *historyRepository) GetByID(ctx context.Context, id uuid.UUID) (*HistoryEntry, error) {
	log := r.log.Function("GetByID")

	var entry HistoryEntry
	if err := r.db.SQLWithContext(ctx).First(&entry, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, log.Err("failed to get history entry", err, "id", id)
	}

	return &entry, nil
}

// GetRecent returns entries ordered by last play, newest first. Ties on
// played_at fall back to id descending, which is insertion order under
// uuidv7 keys.
func (r *historyRepository) GetRecent(
	ctx context.Context,
	limit, offset int,
) ([]*HistoryEntry, error) {
	log := r.log.Function("GetRecent")

	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if offset < 0 {
		offset = 0
	}

	cacheable := limit == DefaultRecentLimit && offset == 0 && r.db.Cache.History != nil

	if cacheable {
		var cached []*HistoryEntry
		found, err := database.NewCacheBuilder(r.db.Cache.History, RECENT_CACHE_KEY).
			WithContext(ctx).
			WithHash(HISTORY_CACHE_PREFIX).
			Get(&cached)
		if err != nil {
			log.Warn("failed to get recent history from cache", "error", err)
		}
		if found {
			return cached, nil
		}
	}

	var entries []*HistoryEntry
	err := r.db.SQLWithContext(ctx).
		Order("played_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, log.Err("failed to get recent history", err, "limit", limit, "offset", offset)
	}

	if cacheable {
		r.cacheProjection(ctx, RECENT_CACHE_KEY, entries)
	}

	return entries, nil
}

// GetLiked returns the full liked set, newest play first. Unpaginated:
// liked lists are expected to stay small.
func (r *historyRepository) GetLiked(ctx context.Context) ([]*HistoryEntry, error) {
	log := r.log.Function("GetLiked")

	if r.db.Cache.History != nil {
		var cached []*HistoryEntry
		found, err := database.NewCacheBuilder(r.db.Cache.History, LIKED_CACHE_KEY).
			WithContext(ctx).
			WithHash(HISTORY_CACHE_PREFIX).
			Get(&cached)
		if err != nil {
			log.Warn("failed to get liked history from cache", "error", err)
		}
		if found {
			return cached, nil
		}
	}

	var entries []*HistoryEntry
	err := r.db.SQLWithContext(ctx).
		Where("is_liked = ?", true).
		Order("played_at DESC, id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, log.Err("failed to get liked history", err)
	}

	r.cacheProjection(ctx, LIKED_CACHE_KEY, entries)

	return entries, nil
}

// GetMostPlayed ranks by play count; equal counts break toward the more
// recently played row so currently-trending tracks beat stale high counts.
func (r *historyRepository) GetMostPlayed(
	ctx context.Context,
	limit int,
) ([]*HistoryEntry, error) {
	log := r.log.Function("GetMostPlayed")

	if limit <= 0 {
		limit = DefaultMostPlayedLimit
	}

	cacheable := limit == DefaultMostPlayedLimit && r.db.Cache.History != nil

	if cacheable {
		var cached []*HistoryEntry
		found, err := database.NewCacheBuilder(r.db.Cache.History, MOST_PLAYED_CACHE_KEY).
			WithContext(ctx).
			WithHash(HISTORY_CACHE_PREFIX).
			Get(&cached)
		if err != nil {
			log.Warn("failed to get most played from cache", "error", err)
		}
		if found {
			return cached, nil
		}
	}

	var entries []*HistoryEntry
	err := r.db.SQLWithContext(ctx).
		Order("play_count DESC, played_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, log.Err("failed to get most played history", err, "limit", limit)
	}

	if cacheable {
		r.cacheProjection(ctx, MOST_PLAYED_CACHE_KEY, entries)
	}

	return entries, nil
}

// ToggleLike flips is_liked in a single UPDATE ... RETURNING so a racing
// play-count merge on the same row can never overwrite the flip.
func (r *historyRepository) ToggleLike(
	ctx context.Context,
	id uuid.UUID,
) (*HistoryEntry, error) {
	log := r.log.Function("ToggleLike")

	var entry HistoryEntry
	result := r.db.SQLWithContext(ctx).
		Model(&entry).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Update("is_liked", gorm.Expr("NOT is_liked"))
	if result.Error != nil {
		return nil, log.Err("failed to toggle like", result.Error, "id", id)
	}

	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	r.invalidateProjectionCaches(ctx)

	return &entry, nil
}

// Delete removes one entry. Not finding the row is reported, not an error,
// so callers can distinguish "nothing to delete" from failure.
func (r *historyRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	log := r.log.Function("Delete")

	result := r.db.SQLWithContext(ctx).Where("id = ?", id).Delete(&HistoryEntry{})
	if result.Error != nil {
		return false, log.Err("failed to delete history entry", result.Error, "id", id)
	}

	if result.RowsAffected == 0 {
		return false, nil
	}

	r.invalidateProjectionCaches(ctx)

	return true, nil
}

func (r *historyRepository) DeleteAll(ctx context.Context) (int64, error) {
	log := r.log.Function("DeleteAll")

	result := r.db.SQLWithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&HistoryEntry{})
	if result.Error != nil {
		return 0, log.Err("failed to clear history", result.Error)
	}

	r.invalidateProjectionCaches(ctx)

	log.Info("History cleared", "deleted", result.RowsAffected)
	return result.RowsAffected, nil
}

// DeleteStaleUnliked prunes never-liked entries whose last play predates the
// cutoff. Liked entries are kept regardless of age.
func (r *historyRepository) DeleteStaleUnliked(
	ctx context.Context,
	olderThan time.Time,
) (int64, error) {
	log := r.log.Function("DeleteStaleUnliked")

	result := r.db.SQLWithContext(ctx).
		Where("is_liked = ? AND played_at < ?", false, olderThan).
		Delete(&HistoryEntry{})
	if result.Error != nil {
		return 0, log.Err("failed to prune stale history", result.Error, "olderThan", olderThan)
	}

	if result.RowsAffected > 0 {
		r.invalidateProjectionCaches(ctx)
	}

	return result.RowsAffected, nil
}

func (r *historyRepository) cacheProjection(
	ctx context.Context,
	key string,
	entries []*HistoryEntry,
) {
	if r.db.Cache.History == nil || len(entries) == 0 {
		return
	}

	err := database.NewCacheBuilder(r.db.Cache.History, key).
		WithContext(ctx).
		WithHash(HISTORY_CACHE_PREFIX).
		WithStruct(entries).
		WithTTL(HISTORY_CACHE_EXPIRY).
		Set()
	if err != nil {
		r.log.Warn("failed to cache history projection", "key", key, "error", err)
	}
}

func (r *historyRepository) invalidateProjectionCaches(ctx context.Context) {
	if r.db.Cache.History == nil {
		return
	}

	for _, key := range []string{RECENT_CACHE_KEY, LIKED_CACHE_KEY, MOST_PLAYED_CACHE_KEY} {
		err := database.NewCacheBuilder(r.db.Cache.History, key).
			WithContext(ctx).
			WithHash(HISTORY_CACHE_PREFIX).
			Delete()
		if err != nil {
			r.log.Warn("failed to invalidate history cache", "key", key, "error", err)
		}
	}
}
