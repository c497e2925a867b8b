// Copyright (c) 2026 Matajihat Portal contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Command matajihat runs the community news portal server.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/matajihat/matajihat/internal/cache"
	"github.com/matajihat/matajihat/internal/config"
	"github.com/matajihat/matajihat/internal/handler/api"
	"github.com/matajihat/matajihat/internal/i18n"
	"github.com/matajihat/matajihat/internal/logging"
	"github.com/matajihat/matajihat/internal/middleware"
	"github.com/matajihat/matajihat/internal/session"
	"github.com/matajihat/matajihat/internal/store"
)

// Version information injected at build time via ldflags.
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "matajihat - community news portal\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PORTAL_SESSION_SECRET   Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PORTAL_DB_PATH          SQLite database path (default: ./data/matajihat.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PORTAL_SERVER_PORT      Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PORTAL_ENV              Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PORTAL_REDIS_URL        Redis URL for distributed caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PORTAL_IMAGE_HOST_KEY   API key for the external image host (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PORTAL_DO_SEED          Seed the default admin and categories (default: false)\n")
	}
	flag.Parse()

	if *showVersion {
		_, _ = fmt.Printf("matajihat %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	if err := i18n.Init(logger); err != nil {
		return fmt.Errorf("initializing i18n: %w", err)
	}
	slog.Info("i18n initialized", "languages", i18n.SupportedLanguages)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database", "error", err)
		}
	}(db)

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// From here on WARN and ERROR records also land in the events table.
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)

	ctx := context.Background()
	if cfg.DoSeed {
		if err := store.Seed(ctx, db); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
		slog.Info("seed data applied")
	}

	sessionManager := session.New(db, cfg.IsDevelopment())
	middleware.SetSessionManager(sessionManager)

	cacher, err := cache.New(cfg)
	if err != nil {
		return fmt.Errorf("initializing cache: %w", err)
	}
	defer func() {
		if err := cacher.Close(); err != nil {
			slog.Error("error closing cache", "error", err)
		}
	}()
	if cfg.UseRedisCache() {
		slog.Info("cache initialized", "backend", "redis", "url", cfg.RedisURL)
	} else {
		slog.Info("cache initialized", "backend", "memory")
	}

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	apiHandler := api.NewHandler(db, cfg, sessionManager, loginProtection, cacher)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(sessionManager.LoadAndSave)

	rateLimiter := middleware.NewGlobalRateLimiter(20, 40)
	csrfMiddleware := middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment()))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rateLimiter.Middleware())
		r.Use(csrfMiddleware)

		// Public surface. The viewer is loaded when present so approved-only
		// visibility rules can make exceptions for authors and moderators.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalLoadUser(sessionManager, db))

			r.Get("/session", apiHandler.Session)
			r.Put("/session/lang", apiHandler.SetLang)
			r.Post("/auth/register", apiHandler.Register)
			r.Post("/auth/login", apiHandler.Login)
			r.Post("/auth/logout", apiHandler.Logout)

			r.Get("/news", apiHandler.ListNews)
			r.Get("/news/{id}", apiHandler.GetNews)
			r.Get("/categories", apiHandler.ListCategories)
			r.Get("/categories/resolve/{slug}", apiHandler.ResolveCategory)
			r.Get("/settings", apiHandler.GetSettings)
		})

		// Signed-in surface.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(sessionManager))
			r.Use(middleware.LoadUser(sessionManager, db))

			r.Post("/news", apiHandler.CreateNews)
			r.Put("/news/{id}", apiHandler.UpdateNews)
			r.Get("/profile", apiHandler.Profile)
			r.Put("/profile", apiHandler.UpdateProfile)
			r.Put("/profile/password", apiHandler.ChangePassword)
			r.Post("/media", apiHandler.UploadImage)

			// Moderation: admin and sub-admin.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireModerator())

				r.Get("/admin/news", apiHandler.AdminListNews)
				r.Get("/admin/stats", apiHandler.AdminStats)
				r.Post("/news/{id}/status", apiHandler.SetNewsStatus)
				r.Post("/news/{id}/breaking", apiHandler.SetNewsBreaking)
			})

			// Administration: admin only.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin())

				r.Delete("/news/{id}", apiHandler.DeleteNews)
				r.Post("/categories", apiHandler.CreateCategory)
				r.Put("/categories/{id}", apiHandler.RenameCategory)
				r.Delete("/categories/{id}", apiHandler.DeleteCategory)
				r.Get("/admin/users", apiHandler.ListUsers)
				r.Post("/admin/users", apiHandler.CreateUser)
				r.Put("/admin/users/{id}", apiHandler.UpdateUser)
				r.Put("/admin/users/{id}/role", apiHandler.ChangeUserRole)
				r.Delete("/admin/users/{id}", apiHandler.DeleteUser)
				r.Put("/settings", apiHandler.UpdateSettings)
				r.Get("/events", apiHandler.ListEvents)
			})
		})
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
