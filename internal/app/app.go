package app

import (
	"context"

	"github.com/rs/zerolog"

	"training-load/internal/config"
	"training-load/internal/fetcher"
	"training-load/internal/service"
	"training-load/internal/storage"
	"training-load/internal/taskbridge"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newSource() (fetcher.ActivitySource, error) {
	source, err := fetcher.NewStrava(fetcher.StravaOptions{
		ClientID:     a.Config.Strava.ClientID,
		ClientSecret: a.Config.Strava.ClientSecret,
		RefreshToken: a.Config.Strava.RefreshToken,
		BaseURL:      a.Config.Strava.BaseURL,
		TokenURL:     a.Config.Strava.TokenURL,
		Timeout:      a.Config.Strava.RequestTimeout,
		PerPage:      a.Config.Strava.PerPage,
	}, a.Logger)
	if err != nil {
		return nil, err
	}
	return source, nil
}

func (a *App) newTaskBridge() (*taskbridge.Client, error) {
	if a.Config.Todoist.APIToken == "" {
		return nil, nil
	}
	return taskbridge.NewClient(
		a.Config.Todoist.APIToken,
		a.Config.Todoist.BaseURL,
		a.Config.Todoist.Label,
		a.Config.Todoist.RequestTimeout,
		a.Logger,
	)
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, nil, err
	}

	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

func (a *App) newService(source fetcher.ActivitySource, store storage.LoadStore) *service.Service {
	return service.New(
		source,
		store,
		a.Config.Params(),
		a.Config.Load.UserID,
		a.Config.Load.FetchDays,
		a.Logger,
	)
}

// ComputeOptions configure a one-shot pipeline run.
type ComputeOptions struct {
	Days int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}

// ExportOptions hold parameters for exporting stored history.
type ExportOptions struct {
	PNGPath string
	CSVPath string
	MaxRows int
}
