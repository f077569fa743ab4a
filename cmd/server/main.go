package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gdg-garage/events-api/internal/auth"
	"github.com/gdg-garage/events-api/internal/config"
	"github.com/gdg-garage/events-api/internal/database"
	"github.com/gdg-garage/events-api/internal/handlers"
	"github.com/gdg-garage/events-api/internal/notifier"
	"github.com/gdg-garage/events-api/internal/service"
	"github.com/gdg-garage/events-api/internal/store"
	"github.com/go-chi/chi/v5"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	clock := func() time.Time { return time.Now().In(loc) }

	// Connect to Database
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	revocations, err := openRevocationStore(cfg)
	if err != nil {
		return err
	}

	// A nil *DiscordNotifier must not end up inside the interface.
	var n notifier.Notifier
	if cfg.DiscordBotToken != "" || cfg.DiscordNotificationsChannelID != "" {
		discordNotifier, err := notifier.NewDiscordNotifier(cfg.DiscordBotToken, cfg.DiscordNotificationsChannelID)
		if err != nil {
			logger.Warn("discord notifier not initialized", "error", err)
		} else {
			n = discordNotifier
		}
	}

	users := service.NewUserService(st, logger)
	events := service.NewEventService(st, n, clock, logger)
	defer events.Close()

	if err := users.EnsureAdmin(context.Background(), cfg.AdminUsername, cfg.AdminPassword); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	sessions := auth.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL, cfg.CookieSecure, revocations)
	providers := auth.NewProviders(cfg)
	for name := range providers {
		logger.Info("oauth provider enabled", "provider", name)
	}

	// Initialize Router
	r := chi.NewRouter()
	opts := handlers.RouterOptions{Sessions: sessions, Users: st, Logger: logger}
	if cfg.EnableCORS {
		opts.CORSOrigin = origin(cfg.FrontendURL)
	}
	handlers.RegisterRoutes(r, opts,
		handlers.NewAuthHandler(users, sessions, providers, cfg.FrontendURL, logger),
		handlers.NewEventHandler(events, logger),
		handlers.NewUserHandler(users, logger),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-quit:
	}

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.DatabaseDriver == "memory" {
		slog.Warn("using in-memory store; data is lost on restart")
		return store.NewMemoryStore(), nil
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	return store.NewGormStore(db), nil
}

func openRevocationStore(cfg *config.Config) (auth.RevocationStore, error) {
	if cfg.RedisURL == "" {
		return auth.NewMemoryRevocationStore(), nil
	}
	client, err := auth.ConnectRedis(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return auth.NewRedisRevocationStore(client), nil
}

func origin(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return strings.TrimRight(raw, "/")
	}
	return u.Scheme + "://" + u.Host
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
