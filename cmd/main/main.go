package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RichardKnop/agentrouter"
	"github.com/RichardKnop/agentrouter/adapter/filestorage"
	"github.com/RichardKnop/agentrouter/adapter/manifest"
	"github.com/RichardKnop/agentrouter/adapter/prometheus"
	"github.com/RichardKnop/agentrouter/adapter/rest"
	"github.com/RichardKnop/agentrouter/adapter/store"
	"github.com/RichardKnop/agentrouter/internal/app"
	"github.com/RichardKnop/agentrouter/pkg/config"
	"github.com/RichardKnop/agentrouter/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".", "cmd/main")
	if err != nil {
		log.Fatal("config: ", err)
	}

	l, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatal("logger: ", err)
	}
	defer l.Sync() //nolint:errcheck
	sugar := l.Sugar()

	// Connect to the database and run migrations
	db, err := store.Open(cfg.DB.Name)
	if err != nil {
		sugar.Fatalw("db open", "error", err)
	}
	defer db.Close()
	if err := store.Migrate(db, cfg.DB.MigrationsPath); err != nil {
		sugar.Fatalw("db migrate", "error", err)
	}

	models, err := app.NewModels(ctx, cfg.Adapter, l)
	if err != nil {
		sugar.Fatalw("models", "error", err)
	}
	defer func() {
		if err := models.Close(); err != nil {
			sugar.Errorw("models close", "error", err)
		}
	}()

	retriever, err := app.NewRetriever(ctx, cfg.Redis, l)
	if err != nil {
		sugar.Fatalw("retriever", "error", err)
	}

	extractor, err := app.NewExtractor(ctx, cfg.Adapter.Extract, l)
	if err != nil {
		sugar.Fatalw("extractor", "error", err)
	}

	templates, err := agentrouter.LoadTemplates(cfg.Agents.TemplatesDir)
	if err != nil {
		sugar.Fatalw("templates", "error", err)
	}

	var (
		registry     = manifest.New(cfg.Agents.Root, manifest.WithLogger(l))
		storeAdapter = store.New(db, store.WithLogger(l))
		metrics      = prometheus.New(prometheus.WithRuntimeCollectors())
	)

	ar, err := agentrouter.New(
		registry,
		models.Embedder,
		retriever,
		models.Generative,
		storeAdapter,
		agentrouter.WithExtractor(extractor),
		agentrouter.WithDocStore(retriever),
		agentrouter.WithRecorder(metrics),
		agentrouter.WithTemplates(templates),
		agentrouter.WithDescriptorCacheSize(cfg.Agents.CacheSize),
		agentrouter.WithChunking(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap),
		agentrouter.WithLogger(l),
	)
	if err != nil {
		sugar.Fatalw("agent router", "error", err)
	}

	uploads, err := filestorage.New(filestorage.WithDir(cfg.HTTP.UploadsDir), filestorage.WithLogger(l))
	if err != nil {
		sugar.Fatalw("upload storage", "error", err)
	}

	restOpts := []rest.Option{
		rest.WithLogger(l),
		rest.WithUploadStore(uploads),
		rest.WithActTimeout(cfg.HTTP.ActTimeout),
		rest.WithMaxUploadSize(cfg.HTTP.MaxUploadSize),
	}
	if cfg.Metrics.Enabled {
		restOpts = append(restOpts, rest.WithMetricsHandler(metrics.Handler()))
	}

	var (
		restAdapter = rest.New(ar, restOpts...)
		address     = cfg.HTTP.Address()
	)

	httpServer := &http.Server{
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
		Addr:              address,
		Handler:           restAdapter.Handler(),
	}

	sugar.Infow("listening", "address", address)

	go func() {
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("HTTP server error", "error", err)
		}
		sugar.Info("Stopped serving new connections.")
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	shutdownCtx, shutdownRelease := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownRelease()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		sugar.Fatalw("HTTP shutdown error", "error", err)
	}
	sugar.Info("Graceful shutdown complete.")
}
