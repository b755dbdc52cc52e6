package database

import (
	"replay/internal/models"

	logger "github.com/Bparsons0904/goLogger"
)

// MigrateModels runs GORM AutoMigrate for all models
func (db *DB) MigrateModels() error {
	log := logger.New("database").Function("MigrateModels")
	log.Info("Starting database migration")

	modelsToMigrate := []any{
		&models.HistoryEntry{},
	}

	for _, model := range modelsToMigrate {
		if err := db.SQL.AutoMigrate(model); err != nil {
			return log.Err("failed to migrate model", err, "model", model)
		}
	}

	log.Info("Database migration completed successfully")
	return nil
}

// CreateIndexes creates additional indexes that GORM doesn't create automatically
func (db *DB) CreateIndexes() error {
	log := logger.New("database").Function("CreateIndexes")
	log.Info("Creating additional database indexes")

	indexes := []string{
		// recency projection: played_at DESC with id DESC tie-break
		"CREATE INDEX IF NOT EXISTS idx_history_entries_recency ON history_entries(played_at DESC, id DESC)",
		// most-played projection: play_count DESC with played_at DESC tie-break
		"CREATE INDEX IF NOT EXISTS idx_history_entries_frequency ON history_entries(play_count DESC, played_at DESC)",
		// liked projection only ever scans liked rows
		"CREATE INDEX IF NOT EXISTS idx_history_entries_liked ON history_entries(played_at DESC) WHERE is_liked",
	}

	for _, indexSQL := range indexes {
		if err := db.SQL.Exec(indexSQL).Error; err != nil {
			log.Warn("Failed to create index", "sql", indexSQL, "error", err)
		}
	}

	log.Info("Additional database indexes created")
	return nil
}
