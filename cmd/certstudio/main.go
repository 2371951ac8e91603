// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the certstudio server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"certstudio/internal/cache"
	"certstudio/internal/config"
	"certstudio/internal/database"
	"certstudio/internal/engine"
	"certstudio/internal/handlers"
	"certstudio/internal/middleware"
	"certstudio/internal/render"
	"certstudio/internal/router"
	"certstudio/internal/storage"
	"certstudio/internal/store"
)

func main() {
	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: text in development, JSON everywhere else.
	var logHandler slog.Handler
	if cfg.IsDev() {
		logHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		logHandler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(logHandler))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"base_url", cfg.BaseURL,
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Insert the starter gallery (no-op if templates already exist).
	if cfg.SeedGallery {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (drafts + rendered page cache).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	renderer, err := render.New(cfg.IsDev())
	if err != nil {
		slog.Error("failed to initialize template renderer", "error", err)
		os.Exit(1)
	}

	deps := handlers.Deps{
		Templates:      store.NewTemplateStore(db),
		Certificates:   store.NewCertificateStore(db),
		Settings:       store.NewSiteSettingStore(db),
		Drafts:         cache.NewDraftStore(valkeyClient, cfg.DraftTTL),
		Cache:          cache.NewRenderCache(valkeyClient, cfg.RenderCacheTTL),
		Engine:         engine.New(),
		Renderer:       renderer,
		BaseURL:        cfg.BaseURL,
		GridSize:       cfg.GridSize,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}

	// Connect to S3-compatible object storage (optional, uploads are
	// disabled without it).
	if cfg.StorageEnabled() {
		storageClient, err := storage.New(storage.Config{
			Endpoint:      cfg.S3Endpoint,
			Region:        cfg.S3Region,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			PublicBucket:  cfg.S3BucketPublic,
			PrivateBucket: cfg.S3BucketPrivate,
			PublicURL:     cfg.S3PublicURL,
		})
		if err != nil {
			slog.Error("failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
		deps.Storage = storageClient
		slog.Info("s3 storage connected",
			"endpoint", cfg.S3Endpoint,
			"public_bucket", cfg.S3BucketPublic,
			"private_bucket", cfg.S3BucketPrivate,
		)
	} else {
		slog.Warn("s3 storage not configured, asset uploads disabled")
	}

	var limiter *middleware.RateLimiter
	if cfg.WriteRateLimit > 0 {
		limiter = middleware.NewRateLimiter(cfg.WriteRateLimit, time.Minute)
		defer limiter.Stop()
	}

	r := router.New(handlers.New(deps), limiter)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
