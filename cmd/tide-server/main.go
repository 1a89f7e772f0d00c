// tide-server serves the tide API as JSON over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/timgluz/tidevann/config"
	"github.com/timgluz/tidevann/log"
	"github.com/timgluz/tidevann/measurement"
	"github.com/timgluz/tidevann/secret"
	"github.com/timgluz/tidevann/server"
	"github.com/timgluz/tidevann/task"
	"github.com/timgluz/tidevann/tideapi"
)

func main() {
	configPath := flag.String("config", "", "Path to TOML config file")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	app := fx.New(
		fx.Supply(cfg),
		fx.Provide(
			newLogger,
			newTideClient,
			newMeasurementRepository,
			newCollector,
			newTokenStore,
			newServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With("component", "fx")}
		}),
		fx.Invoke(registerHTTPServer),
	)

	app.Run()
}

func newLogger(cfg *config.Config) *slog.Logger {
	return log.New(os.Stderr, cfg.Logging.Format, cfg.Logging.Level).With("app", "tide-server")
}

func newTideClient(cfg *config.Config, logger *slog.Logger) (*tideapi.Client, error) {
	timeout, err := cfg.APITimeout()
	if err != nil {
		return nil, err
	}

	client := tideapi.NewClient(cfg.API.Endpoint, &http.Client{Timeout: timeout}, logger.With("component", "tideapi"))
	if !client.IsReady() {
		return nil, fmt.Errorf("tide client is not ready")
	}
	return client, nil
}

func newMeasurementRepository(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) (measurement.Repository, error) {
	db, err := measurement.OpenSqliteDB(cfg.Storage.SqlitePath)
	if err != nil {
		return nil, err
	}

	repo, err := measurement.NewSqlRepository(db, logger.With("component", "measurement"))
	if err != nil {
		return nil, fmt.Errorf("failed to create measurement repository: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return repo.Close()
		},
	})
	return repo, nil
}

func newCollector(repo measurement.Repository, client *tideapi.Client, logger *slog.Logger) *task.WaterLevelCollector {
	return task.NewWaterLevelCollector(repo, client, logger.With("component", "collector"))
}

func newTokenStore(cfg *config.Config) (secret.Store, error) {
	return secret.NewInMemoryStore(cfg.Server.Tokens...)
}

func newServer(cfg *config.Config, client *tideapi.Client, collector *task.WaterLevelCollector, tokens secret.Store, logger *slog.Logger) *server.Server {
	if tokens.Len() == 0 {
		logger.Warn("No API tokens configured, the API is open to everyone")
	}

	srv := server.New(client, collector, tokens, logger.With("component", "server"))
	srv.FallbackDistanceKm = cfg.Correction.FallbackDistanceKm
	return srv
}

func registerHTTPServer(lc fx.Lifecycle, cfg *config.Config, srv *server.Server, logger *slog.Logger) {
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			listener, err := net.Listen("tcp", httpServer.Addr)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", httpServer.Addr, err)
			}

			logger.Info("Starting HTTP server", "addr", listener.Addr().String())
			go func() {
				if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("HTTP server stopped", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping HTTP server")
			return httpServer.Shutdown(ctx)
		},
	})
}
