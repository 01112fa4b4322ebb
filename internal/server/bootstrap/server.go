// Package bootstrap wires configuration, the hub, stores and the HTTP
// surface into a running server.
package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"viewsync/internal/auth"
	"viewsync/internal/config"
	"viewsync/internal/content"
	"viewsync/internal/department"
	"viewsync/internal/hub"
	"viewsync/internal/logging"
	"viewsync/internal/observability"
	"viewsync/internal/server/app"
	serverhttp "viewsync/internal/server/http"
	"viewsync/internal/store"
)

const shutdownGrace = 10 * time.Second

// Version is the release identifier reported by the CLI and the root
// endpoint.
const Version = "0.3.0"

// RunServer builds the full server from configuration and blocks until
// SIGINT/SIGTERM or a fatal listener error.
func RunServer(configFile, observabilityConfigFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	logger := logging.NewComponentLogger("Server")

	obsCfg, err := observability.LoadConfig(observabilityConfigFile)
	if err != nil {
		return err
	}
	if observabilityConfigFile == "" && cfg.Metrics.Enabled {
		obsCfg = observability.Config{Enabled: true, PrometheusPort: cfg.Metrics.Port}
	}
	metrics, err := observability.NewMetrics(obsCfg, logger)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
		return err
	}

	aliasStore := store.NewFileAliasStore(cfg.Data.ClientInfoPath(), logger)
	registry := hub.New(aliasStore, hub.WithOutboxCapacity(cfg.Stream.OutboxCapacity))

	contentStore := content.NewStore(cfg.Data.Dir, logger)
	mediaLibrary, err := content.NewMediaLibrary(contentStore, 128)
	if err != nil {
		return err
	}

	departmentStore, err := department.Open(filepath.Join(cfg.Data.Dir, "viewsync.db"), logger)
	if err != nil {
		return err
	}
	defer departmentStore.Close()

	var authService *auth.Service
	if cfg.Auth.Enabled {
		authService = auth.NewService(
			cfg.Auth.Secret,
			cfg.Auth.AdminUser,
			cfg.Auth.AdminPassHash,
			cfg.Auth.AccessTTL,
			cfg.Auth.RefreshTTL,
		)
		logger.Info("Admin authentication enabled for user %s", cfg.Auth.AdminUser)
	}

	syncService := app.NewSyncService(registry)

	health := app.NewHealthChecker()
	health.RegisterProbe(func(ctx context.Context) app.ComponentHealth {
		return app.ComponentHealth{
			Name:   "hub",
			Status: app.HealthStatusReady,
			Details: map[string]any{
				"connectedClients": registry.Count(),
				"version":          registry.Version(),
			},
		}
	})
	health.RegisterProbe(func(ctx context.Context) app.ComponentHealth {
		if _, err := os.Stat(cfg.Data.Dir); err != nil {
			return app.ComponentHealth{
				Name:    "data",
				Status:  app.HealthStatusDegraded,
				Message: err.Error(),
			}
		}
		return app.ComponentHealth{Name: "data", Status: app.HealthStatusReady}
	})

	var authHandler *serverhttp.AuthHandler
	if authService != nil {
		authHandler = serverhttp.NewAuthHandler(authService)
	}
	router := serverhttp.NewRouter(serverhttp.RouterDeps{
		Config:      cfg,
		Hub:         registry,
		SSE:         serverhttp.NewSSEHandler(registry, metrics, cfg.Stream.HeartbeatInterval),
		Clients:     serverhttp.NewClientsHandler(registry, syncService),
		Sync:        serverhttp.NewSyncHandler(syncService),
		Content:     serverhttp.NewContentHandler(contentStore, mediaLibrary, registry),
		Department:  serverhttp.NewDepartmentHandler(departmentStore, registry),
		Auth:        authHandler,
		AuthService: authService,
		Health:      health,
		Logger:      logger,
		Version:     Version,
	})

	server := &http.Server{
		Addr:        cfg.Server.Addr(),
		Handler:     router,
		ReadTimeout: cfg.Server.ReadTimeout,
		// WriteTimeout stays at the configured zero so SSE streams are
		// never cut by the listener.
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("Listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("Shutting down")

		// Closing the hub first lets every stream loop exit, so Shutdown
		// does not wait on connections that never finish.
		registry.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		metrics.Shutdown(shutdownCtx)
		return server.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
