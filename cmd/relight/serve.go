package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/relight-dev/relight/examples/guide"
	"github.com/relight-dev/relight/internal/config"
	"github.com/relight-dev/relight/internal/errors"
	"github.com/relight-dev/relight/pkg/hooks"
	"github.com/relight-dev/relight/pkg/middleware"
	"github.com/relight-dev/relight/pkg/server"
	"github.com/relight-dev/relight/pkg/session"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		address    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the demo server",
		Long: `Start a relight server hosting the built-in guide application.

Configuration comes from relight.yaml in the working directory (or
--config), overridden by RELIGHT_* environment variables.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg *config.Config
			var err error
			if configPath != "" {
				cfg, err = config.Load(configPath)
			} else {
				cfg, err = config.LoadFromDir(".")
			}
			if err != nil {
				return err
			}
			if address != "" {
				cfg.Server.Address = address
			}

			logger := buildLogger(cfg.Log)
			slog.SetDefault(logger)

			srvConfig, err := buildServerConfig(cfg)
			if err != nil {
				return err
			}

			srv := server.New(srvConfig)
			srv.SetRoot(func() hooks.Component { return guide.App() })
			srv.Use(middleware.Logging(logger))
			if cfg.Server.Metrics {
				srv.Use(middleware.Prometheus())
			}

			info("serving guide app on %s", cfg.Server.Address)
			return srv.Run(context.Background())
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to relight.yaml")
	cmd.Flags().StringVarP(&address, "address", "a", "", "Listen address (overrides config)")

	return cmd
}

func buildLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func buildServerConfig(cfg *config.Config) (*server.Config, error) {
	resumeWindow, err := cfg.ResumeWindow()
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := cfg.ShutdownTimeout()
	if err != nil {
		return nil, err
	}

	store, err := buildStore(cfg)
	if err != nil {
		return nil, err
	}

	managerConfig := session.DefaultManagerConfig()
	managerConfig.ResumeWindow = resumeWindow
	if cfg.Session.MaxDetached > 0 {
		managerConfig.MaxDetached = cfg.Session.MaxDetached
	}
	if cfg.Session.MaxPerIP > 0 {
		managerConfig.MaxPerIP = cfg.Session.MaxPerIP
	}

	return &server.Config{
		Address:         cfg.Server.Address,
		MaxSessions:     cfg.Server.MaxSessions,
		EventQueueSize:  cfg.Server.EventQueueSize,
		RenderBudget:    cfg.Server.RenderBudget,
		EnableMetrics:   cfg.Server.Metrics,
		TrustedProxies:  cfg.Server.TrustedProxies,
		ShutdownTimeout: shutdownTimeout,
		Store:           store,
		Manager:         managerConfig,
	}, nil
}

// buildStore constructs the session store for the CLI. Backends that
// need drivers or SDK clients are only reachable through the library
// API, where the caller supplies them.
func buildStore(cfg *config.Config) (session.Store, error) {
	switch cfg.Session.Store {
	case "", config.StoreMemory:
		return session.NewMemoryStore(), nil
	default:
		return nil, errors.New("E123").
			WithDetail("the relight CLI only hosts the memory store").
			WithSuggestion("embed relight as a library and pass session.NewSQLStore, NewRedisStore, or NewS3Store to server.Config.Store")
	}
}
