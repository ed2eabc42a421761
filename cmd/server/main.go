package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"vulnsphere/internal/config"
	"vulnsphere/internal/database"
	"vulnsphere/internal/handlers"
	"vulnsphere/internal/markdown"
	"vulnsphere/internal/metrics"
	"vulnsphere/internal/renderer"
	"vulnsphere/internal/reportctx"
	"vulnsphere/internal/reports"
	"vulnsphere/internal/server"
	"vulnsphere/internal/service"
	"vulnsphere/internal/signals"
	"vulnsphere/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if strings.EqualFold(cfg.LogFormat, "json") {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(h)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)
	gin.SetMode(cfg.GinMode)

	db, err := database.Init(cfg)
	if err != nil {
		logger.Error("database init failed", "error", err)
		os.Exit(1)
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	ctx, cancel := context.Background(), context.CancelFunc(func() {})
	if cfg.Storage.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, cfg.Storage.Timeout)
	}
	store, err := storage.NewFromConfig(ctx, cfg.Storage, logger, m)
	cancel()
	if err != nil {
		logger.Error("storage init failed", "adapter", cfg.Storage.Adapter, "error", err)
		os.Exit(1)
	}

	// вложения лежат в media root, чтобы Markdown мог на них ссылаться
	mediaStore, err := storage.NewFilesystem(cfg.MediaRoot, logger, m)
	if err != nil {
		logger.Error("media storage init failed", "media_root", cfg.MediaRoot, "error", err)
		os.Exit(1)
	}

	md := markdown.New(markdown.Options{
		MediaRoot:     cfg.MediaRoot,
		MediaURL:      cfg.MediaURL,
		MaxEmbedBytes: cfg.MaxEmbedBytes,
		Logger:        logger,
	})

	graph := signals.Default(logger, m)
	svc := service.New(db, graph, logger)
	attachments := service.NewAttachments(db, mediaStore, cfg.MediaURL, logger)
	rnd := renderer.New(db, store, md, renderer.WithLogger(logger), renderer.WithMetrics(m))
	gen := reports.NewGenerator(db, store, reportctx.NewBuilder(md), rnd, logger)
	templates := reports.NewTemplates(db, store)

	r := server.NewRouter(server.Deps{
		DB:        db,
		Handlers:  handlers.New(db, svc, attachments, gen, templates),
		Gatherer:  prometheus.DefaultGatherer,
		Logger:    logger,
		MediaRoot: cfg.MediaRoot,
		MediaURL:  cfg.MediaURL,
	})

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	logger.Info("starting server", "addr", addr)
	if err := r.Run(addr); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
