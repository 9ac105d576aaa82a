package server

import (
	"context"
	"fmt"

	"FinCast/internal/usecase"
	"FinCast/pkg/config"
	xhttp "FinCast/pkg/http"
	applogger "FinCast/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg       *config.Config
	http      *xhttp.Server
	forecasts *usecase.ForecastUseCase
	l         *applogger.Logger
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, srv *xhttp.Server, forecasts *usecase.ForecastUseCase, l *applogger.Logger) *App {
	return &App{cfg: cfg, http: srv, forecasts: forecasts, l: l}
}

// HTTP returns the API server.
func (a *App) HTTP() *xhttp.Server { return a.http }

// Run starts the API and blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.l.Info("starting fincast",
		applogger.Strings("assets", a.forecasts.Assets()),
		applogger.String("data_source", a.cfg.Data.Source),
		applogger.String("model_backend", a.cfg.Model.Backend),
		applogger.String("anchor", a.cfg.Correlation.Anchor),
	)
	if err := a.http.Start(); err != nil {
		return fmt.Errorf("http server start: %w", err)
	}

	<-ctx.Done()
	a.l.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown drains the HTTP server. Clients and producers are released by
// the injector's cleanup.
func (a *App) shutdown() error {
	if err := a.http.Stop(context.Background()); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
		return err
	}
	a.l.Info("shutdown complete")
	return nil
}
