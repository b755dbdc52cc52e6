package app

import (
	"context"

	"replay/config"
	"replay/internal/controllers"
	"replay/internal/database"
	"replay/internal/events"
	"replay/internal/handlers/middleware"
	"replay/internal/jobs"
	"replay/internal/repositories"
	"replay/internal/services"
	"replay/internal/websockets"

	logger "github.com/Bparsons0904/goLogger"
)

type App struct {
	Database   database.DB
	Middleware middleware.Middleware
	Websocket  *websockets.Manager
	EventBus   *events.EventBus
	Config     config.Config

	SchedulerService *services.SchedulerService

	Repository  repositories.Repository
	Controllers controllers.Controllers
}

func New() (*App, error) {
	log := logger.New("app").Function("New")

	config, err := config.InitConfig()
	if err != nil {
		return &App{}, log.Err("failed to initialize config", err)
	}

	db, err := database.New(config)
	if err != nil {
		return &App{}, log.Err("failed to create database", err)
	}

	eventBus := events.New(db.Cache.Events, config)

	repository := repositories.New(db)
	schedulerService := services.NewSchedulerService()

	websocket, err := websockets.New(db, eventBus, config)
	if err != nil {
		return &App{}, log.Err("failed to create websocket manager", err)
	}

	middleware := middleware.New(db, eventBus, config)
	controllers := controllers.New(repository, eventBus, config, db)

	if config.SchedulerEnabled {
		retentionJob := jobs.NewRetentionJob(
			repository.History,
			config.HistoryRetentionDays,
			services.Daily,
		)
		if err := schedulerService.AddJob(retentionJob); err != nil {
			return &App{}, log.Err("failed to register history retention job", err)
		}

		if err := schedulerService.Start(context.Background()); err != nil {
			return &App{}, log.Err("failed to start scheduler", err)
		}
		log.Info("Registered history retention job with scheduler")
	}

	app := &App{
		Database:         db,
		Config:           config,
		Middleware:       middleware,
		SchedulerService: schedulerService,
		Repository:       repository,
		Controllers:      controllers,
		Websocket:        websocket,
		EventBus:         eventBus,
	}

	if err := app.validate(); err != nil {
		return &App{}, log.Err("failed to validate app", err)
	}

	return app, nil
}

func (a *App) validate() error {
	log := logger.New("app").Function("validate")
	if a.Database.SQL == nil {
		return log.ErrMsg("database is nil")
	}

	if a.Config == (config.Config{}) {
		return log.ErrMsg("config is nil")
	}

	nilChecks := []any{
		a.Websocket,
		a.EventBus,
		a.SchedulerService,
		a.Repository.History,
		a.Controllers.History,
	}

	for _, check := range nilChecks {
		if check == nil {
			return log.ErrMsg("nil check failed")
		}
	}

	return nil
}

func (a *App) Close() (err error) {
	if a.EventBus != nil {
		if closeErr := a.EventBus.Close(); closeErr != nil {
			err = closeErr
		}
	}

	if a.SchedulerService != nil {
		if closeErr := a.SchedulerService.Stop(context.Background()); closeErr != nil {
			err = closeErr
		}
	}

	if dbErr := a.Database.Close(); dbErr != nil {
		err = dbErr
	}

	return err
}
