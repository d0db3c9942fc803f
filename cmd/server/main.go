package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/sheetdb/internal/app"
	"github.com/JonMunkholm/sheetdb/internal/catalog"
	"github.com/JonMunkholm/sheetdb/internal/config"
	"github.com/JonMunkholm/sheetdb/internal/core"
	_ "github.com/JonMunkholm/sheetdb/internal/core/collections" // Register all collections
	"github.com/JonMunkholm/sheetdb/internal/logging"
	"github.com/JonMunkholm/sheetdb/internal/web"
)

func main() {
	// A .env file is optional; real environment variables win.
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()

	store, err := app.OpenStore(cfg)
	if err != nil {
		slog.Error("failed to open store", "backend", cfg.Store.Backend, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	recorder, closeAudit, err := app.NewRecorder(ctx, cfg, slog.Default())
	if err != nil {
		slog.Error("failed to set up audit trail", "error", err)
		os.Exit(1)
	}
	defer closeAudit()

	engine := core.NewEngine(store, core.WithRecorder(recorder))
	slog.Info("collections registered", "count", core.CollectionCount(), "backend", engine.Backend())
	for _, def := range core.All() {
		slog.Debug("collection", "name", def.Name, "id_field", def.IDField, "fields", len(def.Fields))
	}

	var opts []web.Option
	if pg := recorder.Postgres(); pg != nil {
		opts = append(opts, web.WithAuditLog(pg))
	}
	server := web.NewServer(engine, catalog.New(engine), cfg, opts...)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
