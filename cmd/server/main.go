package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/woudc-registry/internal/catalog"
	"github.com/JonMunkholm/woudc-registry/internal/config"
	"github.com/JonMunkholm/woudc-registry/internal/core"
	"github.com/JonMunkholm/woudc-registry/internal/logging"
	"github.com/JonMunkholm/woudc-registry/internal/store"
	"github.com/JonMunkholm/woudc-registry/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"store_enabled", cfg.Database.Enabled(),
		"validation_max_concurrent", cfg.Validation.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	var source catalog.Source = catalog.EmbeddedSource{}
	if cfg.Catalog.Path != "" {
		source = catalog.FileSource{Path: cfg.Catalog.Path}
	}
	holder, err := catalog.NewHolder(source)
	if err != nil {
		slog.Error("failed to load catalog", "source", source.Name(), "error", err)
		os.Exit(1)
	}
	slog.Info("catalog loaded",
		"source", holder.SourceName(),
		"datasets", len(holder.Current().Datasets()),
		"leaves", len(holder.Current().Leaves()),
	)

	// Background jobs stop when this is cancelled.
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	if cfg.Catalog.ReloadInterval > 0 {
		go holder.Watch(jobCtx, cfg.Catalog.ReloadInterval)
	}

	svcCfg := core.ServiceConfig{
		Holder:  holder,
		Limiter: core.NewLimiter(cfg.Validation.MaxConcurrent, cfg.Validation.MaxWaitTime),
		Options: validationOptions(cfg.Validation),
	}

	var checks []web.HealthCheck
	var st *store.Store
	if cfg.Database.Enabled() {
		st, err = store.Open(jobCtx, store.Config{
			URL:             cfg.Database.URL,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
			Migrate:         cfg.Database.Migrate,
		})
		if err != nil {
			slog.Error("failed to open report store", "error", err)
			os.Exit(1)
		}
		defer st.Close()

		svcCfg.Store = st
		checks = append(checks, web.HealthCheck{Name: "database", Check: st.Ping})
	} else {
		slog.Warn("DATABASE_URL not set, reports will not be kept")
	}

	service, err := core.NewService(svcCfg)
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(service, cfg, checks...)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		limiter := service.Limiter()
		if n := limiter.ActiveCount(); n > 0 {
			slog.Info("waiting for validations to complete", "active", n)
			if err := limiter.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("validations did not complete in time", "error", err)
			}
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Error("server stopped", "error", err)
		cancelJobs()
		if st != nil {
			st.Close()
		}
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func validationOptions(cfg config.ValidationConfig) []core.Option {
	var opts []core.Option
	if cfg.FormSearch {
		opts = append(opts, core.WithFormSearch())
	}
	if cfg.MetadataTables {
		opts = append(opts, core.WithMetadataTables(core.DefaultMetadataTables))
	}
	return opts
}
