package app

import (
	"log/slog"

	"property-desk/api"
	"property-desk/database"
	"property-desk/engine"
	"property-desk/metrics"
	"property-desk/validator"
)

// App holds all application dependencies
// This struct is the central point for dependency injection
type App struct {
	DB        *database.DB
	Templates *engine.Cache
	Validator *validator.Validator
	Metrics   *metrics.Recorder
	Logger    *slog.Logger
}

// New creates a new App instance with all dependencies
func New(db *database.DB, logger *slog.Logger) *App {
	templates := engine.NewCache(db, logger)
	return &App{
		DB:        db,
		Templates: templates,
		Validator: validator.New(),
		Metrics:   metrics.New(templates.Len),
		Logger:    logger,
	}
}

// Deps returns the collaborators endpoints are constructed with.
func (a *App) Deps() api.Deps {
	return api.Deps{
		Cache:     a.Templates,
		Validator: a.Validator,
		Logger:    a.Logger,
		Observer:  a.Metrics,
	}
}

// Close releases the compiled templates. The database is owned by the caller.
func (a *App) Close() error {
	return a.Templates.Close()
}
