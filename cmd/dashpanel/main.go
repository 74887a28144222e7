package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/dashpanel/internal/config"
	"github.com/John-Robertt/dashpanel/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "dashpanel",
		Short:         "Render dashboard panels over HTTP",
		SilenceUsage:  true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file (default $DASHPANEL_CONFIG or config.yaml in /etc/dashpanel, ~/.config/dashpanel)")
	pf.String("listen", "", "HTTP listen address")
	pf.Duration("render-timeout", 0, "timeout for loading and rendering one panel")
	pf.Bool("show-stack-traces", false, "include stack traces on error pages")
	pf.String("db", "", "SQLite database path")
	pf.String("redis-url", "", "Redis URL for the panel cache (empty disables it)")
	pf.Duration("redis-ttl", 0, "panel cache TTL")
	pf.Int("max-depth", 0, "maximum panel nesting depth")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: text or json")

	load := func(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
		cfg, err := config.Load(configFile, cmd.Flags())
		if err != nil {
			return config.Config{}, nil, err
		}
		logger, err := cfg.Log.NewLogger(os.Stderr)
		if err != nil {
			return config.Config{}, nil, err
		}
		slog.SetDefault(logger)
		return cfg, logger, nil
	}

	root.AddCommand(
		newServeCmd(load),
		newSeedCmd(load),
		newListCmd(load),
		newHealthcheckCmd(load),
	)
	return root
}

type loadFunc func(cmd *cobra.Command) (config.Config, *slog.Logger, error)

// openStore opens the panel store, with the Redis cache when configured.
// The returned func releases both.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (*store.Store, func(), error) {
	var cache *store.Cache
	if cfg.Redis.URL != "" {
		c, err := store.NewCacheFromURL(ctx, cfg.Redis.URL, cfg.Redis.TTL)
		if err != nil {
			return nil, nil, err
		}
		cache = c
		logger.Info("panel cache enabled", "ttl", cfg.Redis.TTL)
	}
	st, err := store.Open(ctx, store.Options{Path: cfg.Database.Path, Logger: logger, Cache: cache})
	if err != nil {
		if cache != nil {
			_ = cache.Close()
		}
		return nil, nil, err
	}
	return st, func() {
		_ = st.Close()
		if cache != nil {
			_ = cache.Close()
		}
	}, nil
}
