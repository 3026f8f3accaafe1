package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/weekly-events/internal/application"
	"github.com/example/weekly-events/internal/catalog"
	"github.com/example/weekly-events/internal/commands"
	"github.com/example/weekly-events/internal/config"
	httptransport "github.com/example/weekly-events/internal/http"
	"github.com/example/weekly-events/internal/persistence"
	"github.com/example/weekly-events/internal/persistence/jsonfile"
	"github.com/example/weekly-events/internal/persistence/sqlite"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		logger.Error("failed to open storage", "error", err, "storage", cfg.Storage)
		os.Exit(1)
	}
	defer func() {
		if cerr := closeStore(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	userService := application.NewUserServiceWithLogger(store, nil, nil, logger)

	if len(os.Args) > 1 && os.Args[1] == "hash-password" {
		if err := commands.RunSeedAdmin(ctx, os.Args[2:], os.Stdin, os.Stdout, userService); err != nil {
			logger.Error("failed to seed account", "error", err)
			os.Exit(1)
		}
		return
	}

	seed, err := catalog.Load(cfg.SeedPath)
	if err != nil {
		logger.Error("failed to load event catalog", "error", err, "path", cfg.SeedPath)
		os.Exit(1)
	}

	authService := application.NewAuthServiceWithLogger(uuid.NewString, time.Now, cfg.SessionTTL, logger)
	scheduleService := application.NewScheduleServiceWithLogger(store, seed.Templates, seed.Hosts, time.Now, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:       httptransport.NewAuthHandler(userService, authService, logger),
		Schedule:   httptransport.NewScheduleHandler(scheduleService, logger),
		Admin:      httptransport.NewAdminHandler(scheduleService, logger),
		Sessions:   authService,
		Logger:     logger,
		Middleware: []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("weekly events API listening", "addr", server.Addr, "storage", cfg.Storage)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func openStore(cfg config.Config) (persistence.DocumentStore, func() error, error) {
	switch cfg.Storage {
	case config.StorageSQLite:
		store, err := sqlite.Open(cfg.SQLiteDSN)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		store, err := jsonfile.New(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return store, func() error { return nil }, nil
	}
}
