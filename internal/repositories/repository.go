package repositories

import (
	"replay/internal/database"
)

type Repository struct {
	History HistoryRepository
}

func New(db database.DB) Repository {
	return Repository{
		History: NewHistoryRepository(db),
	}
}
