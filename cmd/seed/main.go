package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/gdg-garage/events-api/internal/config"
	"github.com/gdg-garage/events-api/internal/database"
	"github.com/gdg-garage/events-api/internal/seed"
	"github.com/gdg-garage/events-api/internal/store"
	flag "github.com/spf13/pflag"
)

func main() {
	path := flag.StringP("file", "f", "fixtures/seed.yaml", "fixture file to load")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}
	if cfg.DatabaseDriver == "memory" {
		logger.Error("seeding the in-memory store has no effect; set DATABASE_DRIVER to sqlite or postgres")
		os.Exit(1)
	}

	fx, err := seed.Load(*path)
	if err != nil {
		logger.Error("load fixture", "path", *path, "error", err)
		os.Exit(1)
	}

	db, err := database.Open(cfg)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}

	res, err := seed.Apply(context.Background(), store.NewGormStore(db), fx, logger)
	if err != nil {
		logger.Error("seed failed", "error", err)
		os.Exit(1)
	}
	logger.Info("seed complete",
		"users_created", res.UsersCreated, "users_skipped", res.UsersSkipped,
		"events_created", res.EventsCreated, "events_skipped", res.EventsSkipped)
}
