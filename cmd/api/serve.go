package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/punchamoorthee/estatedocs/internal/api"
	"github.com/punchamoorthee/estatedocs/internal/catalog"
	"github.com/punchamoorthee/estatedocs/internal/checkout"
	"github.com/punchamoorthee/estatedocs/internal/config"
	"github.com/punchamoorthee/estatedocs/internal/logger"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg)
		},
	}
	return cmd
}

func runServer(ctx context.Context, cfg *config.Config) error {
	log := logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cat := catalog.Default()
	svc, closeRegistry, err := buildService(ctx, cfg, cat, log)
	if err != nil {
		return err
	}
	defer closeRegistry()

	h := api.NewHandler(svc, checkout.NewStripeLinker(cfg.StripeSecretKey, cfg.PublicBaseURL), api.Options{
		Catalog:              cat,
		StripePublishableKey: cfg.StripePublishableKey,
		Logger:               log,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewRouter(h, log),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting",
			"port", cfg.Port,
			"env", cfg.Env,
			"generator", cfg.GeneratorBackend,
			"storage", cfg.StorageBackend,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		return err
	}
	log.Info("server exited gracefully")
	return nil
}
