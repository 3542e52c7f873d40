package app

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"training-load/internal/faults"
	"training-load/internal/scheduler"
	"training-load/internal/server"
	"training-load/internal/service"
	"training-load/internal/storage"
)

// Serve runs the HTTP API and, when configured, a periodic refresh loop.
func (a *App) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; persistence disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	source, err := a.newSource()
	if err != nil {
		if !errors.Is(err, faults.ErrMissingCredentials) {
			return err
		}
		a.Logger.Warn().Err(err).Msg("strava credentials not configured; training-load routes disabled")
		source = nil
	}

	tasks, err := a.newTaskBridge()
	if err != nil {
		return err
	}
	if tasks == nil {
		a.Logger.Warn().Msg("todoist.api_token not configured; task routes disabled")
	}

	var loadStore storage.LoadStore
	if store != nil {
		loadStore = store
	}
	var svc *service.Service
	if source != nil {
		svc = a.newService(source, loadStore)
	}

	handler := server.NewHandler(svc, loadStore, source, tasks,
		a.Config.Load.UserID, a.Config.Server.APIKey, a.Logger)
	srv := server.NewServer(a.Config.Server, handler.Routes())

	if svc != nil && a.Config.Scheduler.Interval > 0 {
		sched := scheduler.New(scheduler.Options{
			Interval:     a.Config.Scheduler.Interval,
			AlignToStart: a.Config.Scheduler.AlignToBucket,
			StartupDelay: a.Config.Scheduler.StartupDelay,
		}, a.Logger)
		go func() {
			if err := sched.Run(ctx, svc.ProcessTick); err != nil && !errors.Is(err, context.Canceled) {
				a.Logger.Error().Err(err).Msg("refresh scheduler stopped")
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.Logger.Error().Err(err).Msg("server shutdown failed")
		}
		a.Logger.Info().Msg("server stopped")
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
