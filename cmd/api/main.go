package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"videoads/internal/bootstrap"
	"videoads/internal/catalog"
	"videoads/internal/feedback"
	"videoads/internal/http/handlers"
	httpapi "videoads/internal/http/httpapi"
	"videoads/internal/infra"
	"videoads/internal/infra/geoip"
	"videoads/internal/middleware"
	"videoads/internal/storage"
	"videoads/internal/workflow"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel)
	startedAt := time.Now()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := bootstrap.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open job log")
	}
	defer closeStore()

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	defer resolver.Close()

	cat, err := catalog.Default()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load prompt catalog")
	}
	docs, err := storage.NewFileStore(cfg.FeedbackPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open feedback storage")
	}

	factory := bootstrap.GeminiFactory(cfg, logger)
	engine := workflow.NewEngine(store, bootstrap.PollPolicy(cfg), logger)

	app := &handlers.App{
		Engine:        engine,
		Store:         store,
		Providers:     factory,
		Keys:          factory,
		Media:         factory,
		Catalog:       cat,
		Feedback:      feedback.NewBoard(docs, feedback.NewLimiter(cfg.FeedbackMinInterval, nil), logger),
		Defaults:      handlers.Defaults{Model: cfg.GeminiVideoModel},
		Logger:        logger,
		DefaultLocale: cfg.DefaultLocale,
	}

	var lookup middleware.CountryLookup
	if resolver != nil {
		lookup = resolver.CountryCode
	}
	router := httpapi.NewRouter(app, httpapi.Options{
		AllowedOrigins:  cfg.AllowedOrigins,
		DefaultLocale:   cfg.DefaultLocale,
		CountryLookup:   lookup,
		GenerateLimiter: middleware.NewWindowLimiter(cfg.RateLimitPerMin, time.Minute, nil),
		Logger:          logger,
	})
	server := infra.NewHTTPServer(cfg, router)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", server.Addr()).Str("db_driver", cfg.DBDriver).Msg("API listening")
		return server.Start()
	})

	if cfg.ReconcileOnStart {
		g.Go(func() error {
			rec := workflow.NewReconciler(store, engine, workflow.ReconcilerOptions{
				Factory:    factory,
				APIKey:     cfg.GeminiAPIKey,
				StaleAfter: cfg.ReconcileStale,
			}, logger)
			if _, err := rec.Run(gctx, startedAt); err != nil {
				logger.Error().Err(err).Msg("startup reconciliation failed")
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server")
		}
		if err := engine.Wait(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("workflows still running at shutdown")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		closeStore()
		os.Exit(1)
	}
	logger.Info().Msg("server stopped")
}
