package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"konbini-planner/internal/advisor"
	"konbini-planner/internal/catalog"
	"konbini-planner/internal/config"
	"konbini-planner/internal/database"
	"konbini-planner/internal/llm"
	"konbini-planner/internal/logging"
	"konbini-planner/internal/metrics"
	"konbini-planner/internal/planner"
	"konbini-planner/internal/telegram"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Fatal().Err(err).Msg("failed to load .env")
	}

	// 1. Load Configuration
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Setup(cfg.LogLevel, false)
	if err := cfg.RequireTelegram(); err != nil {
		log.Fatal().Err(err).Msg("telegram is not configured")
	}

	ctx := context.Background()

	// 2. Catalog and storage
	cat, err := catalog.LoadOrDefault(cfg.CatalogPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load catalog")
	}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	metricsStore := metrics.NewStore(db.SQL)

	// 3. Planner and its optional advisor
	opts := []planner.Option{
		planner.WithPool(cfg.PlanWorkers, cfg.PlanTimeout),
		planner.WithHistory(planner.NewPlanRepository(db.SQL)),
		planner.WithRecorder(metricsStore),
	}
	textGen, err := llm.FromConfig(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize llm client")
	}
	if closer, ok := textGen.(llm.Closer); ok {
		defer closer.Close()
	}
	if adv := advisor.New(textGen); adv != nil {
		opts = append(opts, planner.WithCommenter(adv))
	}

	// 4. Telegram Bot
	sessions := telegram.NewSessionRepository(db.SQL, telegram.DefaultSessionTTL)
	if n, err := sessions.CleanupExpired(ctx, time.Now()); err != nil {
		log.Warn().Err(err).Msg("failed to clean up sessions")
	} else if n > 0 {
		log.Info().Int64("removed", n).Msg("expired sessions removed")
	}

	bot, err := telegram.NewBot(cfg, planner.NewPlanner(cat, opts...), metricsStore, sessions)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telegram bot")
	}

	// 5. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           bot.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("telegram bot server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
}
