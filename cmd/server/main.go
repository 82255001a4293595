package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdfpipe/server/internal/config"
	"github.com/pdfpipe/server/internal/handlers"
	"github.com/pdfpipe/server/internal/httpapi"
	"github.com/pdfpipe/server/internal/queue"
	"github.com/pdfpipe/server/internal/ratelimit"
	"github.com/pdfpipe/server/internal/tempstore"
	"github.com/pdfpipe/server/internal/tooladapter"
	"github.com/pdfpipe/server/internal/worker"
)

func main() {
	cfg := config.Load()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	store, err := tempstore.New(cfg.UploadDir, cfg.DownloadDir)
	if err != nil {
		log.Fatalf("failed to initialize temp store: %v", err)
	}

	deps := &handlers.Deps{
		Store:   store,
		PDF:     tooladapter.NewPDFEngine(),
		Raster:  tooladapter.NewRasterizer(cfg.JobTimeout),
		Office:  tooladapter.NewOfficeConverter(cfg.JobTimeout),
		Text:    tooladapter.NewTextExtractor(cfg.JobTimeout),
		Browser: tooladapter.NewBrowserRenderer(30*time.Second, cfg.ChromiumPath),
	}
	registry := handlers.NewRegistry()

	manager := queue.NewManager(queue.Config{
		Concurrency: cfg.QueueConcurrency,
		MaxPerUser:  cfg.QueueMaxPerUser,
		JobTimeout:  cfg.JobTimeout,
		JobTTL:      cfg.JobTTL,
		OutputTTL:   cfg.OutputTTL,
	}, store, logger)

	limiter := ratelimit.New(cfg.RateLimitWindow, cfg.RateLimitMax)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := worker.NewPool(manager, registry, deps, cfg.QueueConcurrency, cfg.JobTimeout, cfg.ShutdownGrace, logger)

	stop := make(chan struct{})
	limiter.StartEvictor(stop)
	manager.StartReaper(ctx)

	poolDone := make(chan struct{})
	go func() {
		pool.Run(ctx)
		close(poolDone)
	}()

	server := httpapi.NewServer(manager, deps, registry, cfg)
	router := httpapi.NewRouter(server, limiter, cfg.CORSOrigins)

	go func() {
		logger.Info().Str("port", cfg.Port).Str("provider", cfg.PDFProvider).Msg("starting server")
		if err := router.Run(":" + cfg.Port); err != nil {
			logger.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info().Msg("shutdown signal received, draining workers")
	cancel()
	close(stop)

	select {
	case <-poolDone:
	case <-time.After(cfg.ShutdownGrace + 2*time.Second):
		logger.Warn().Msg("pool did not drain before shutdown fallback elapsed")
	}
}
