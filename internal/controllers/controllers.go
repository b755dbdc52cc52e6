package controllers

import (
	"replay/config"
	"replay/internal/database"
	"replay/internal/events"
	"replay/internal/repositories"

	historyController "replay/internal/controllers/history"
)

type Controllers struct {
	History historyController.HistoryControllerInterface
}

func New(
	repos repositories.Repository,
	eventBus *events.EventBus,
	config config.Config,
	db database.DB,
) Controllers {
	return Controllers{
		History: historyController.New(repos, eventBus, config, db),
	}
}
