package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/dashpanel/internal/config"
	"github.com/John-Robertt/dashpanel/internal/engine"
	"github.com/John-Robertt/dashpanel/internal/httpapi"
	"github.com/John-Robertt/dashpanel/internal/policy"
)

func newServeCmd(load loadFunc) *cobra.Command {
	var (
		readHeaderTimeout time.Duration
		shutdownTimeout   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve panels over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load(cmd)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, logger, readHeaderTimeout, shutdownTimeout)
		},
	}
	cmd.Flags().DurationVar(&readHeaderTimeout, "read-header-timeout", 5*time.Second, "HTTP ReadHeaderTimeout")
	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 10*time.Second, "grace period for in-flight requests after a shutdown signal")
	return cmd
}

func runServe(ctx context.Context, cfg config.Config, logger *slog.Logger, readHeaderTimeout, shutdownTimeout time.Duration) error {
	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	if v, dirty, err := st.SchemaVersion(); err == nil {
		logger.Info("panel store ready", "path", cfg.Database.Path, "schema", v, "dirty", dirty)
	}

	checker := policy.Checker{}
	eng := engine.New(engine.Options{
		Lookup:   st,
		Policy:   checker,
		MaxDepth: cfg.Engine.MaxDepth,
	})

	srv := &http.Server{
		Addr: cfg.Server.Listen,
		Handler: httpapi.NewHandler(httpapi.Options{
			Panels:          st,
			Renderer:        eng,
			Policy:          checker,
			Ping:            st.Ping,
			Logger:          logger,
			RenderTimeout:   cfg.Server.RenderTimeout,
			ShowStackTraces: cfg.Server.ShowStackTraces,
		}),
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	logger.Info("listening", "addr", cfg.Server.Listen)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")

		shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil {
			logger.Warn("graceful shutdown failed", "err", err)
			_ = srv.Close()
		}

		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
