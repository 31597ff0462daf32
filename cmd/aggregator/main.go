// jobflow-aggregator-service
//
// Aggregates job postings from external search providers (LinkedIn, Monster,
// Indeed via hosted scraper actors), deduplicates them into the canonical
// jobs table, and emails each subscriber a digest of newly observed matching
// postings — each posting at most once per user.
//
// Cycles are triggered through the authenticated /internal/* endpoints or,
// optionally, by the in-process cron.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"jobflow/aggregator-service/internal/apify"
	"jobflow/aggregator-service/internal/config"
	"jobflow/aggregator-service/internal/db"
	"jobflow/aggregator-service/internal/digest"
	"jobflow/aggregator-service/internal/httpserver"
	"jobflow/aggregator-service/internal/logger"
	"jobflow/aggregator-service/internal/mailer"
	"jobflow/aggregator-service/internal/provider"
	"jobflow/aggregator-service/internal/scheduler"
	"jobflow/aggregator-service/internal/scrape"
	"jobflow/aggregator-service/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.PrettyLog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── PostgreSQL ───────────────────────────────────────────────────────
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(pool); err != nil {
		log.Fatal("migrations", zap.Error(err))
	}
	log.Info("postgres connected, schema up to date")

	// ── Redis ────────────────────────────────────────────────────────────
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()
	log.Info("redis connected")

	// ── Pipeline wiring ──────────────────────────────────────────────────
	store := storage.NewPostgres(pool)
	adapters := []provider.Adapter{
		provider.NewLinkedIn(),
		provider.NewMonster(),
		provider.NewIndeed(),
	}

	orch := scrape.NewOrchestrator(apify.New(cfg.ApifyToken), cfg.PollInterval, cfg.MaxWait, log)
	ingester := scrape.NewIngester(store, log)
	scrapeCycle := scrape.NewCycle(
		store, rdb, adapters, orch, ingester,
		cfg.RecencyWindow, cfg.ResultLimit, cfg.Workers, log,
	)

	renderer := mailer.NewHTMLRenderer(cfg.AppURL)
	sender := mailer.NewResend(cfg.ResendAPIKey, cfg.EmailFrom)
	builder := digest.NewBuilder(store, cfg.DigestLimit)
	dispatcher := digest.NewDispatcher(renderer, sender, store, log)
	digestCycle := digest.NewCycle(store, rdb, builder, dispatcher, log)

	// ── Cron (optional) ──────────────────────────────────────────────────
	sched := scheduler.New(scrapeCycle, digestCycle, cfg.ScrapeIntervalHours, cfg.DigestIntervalHours, log)
	if err := sched.Start(ctx); err != nil {
		log.Fatal("scheduler", zap.Error(err))
	}
	defer sched.Stop()

	// ── HTTP server ──────────────────────────────────────────────────────
	srv := httpserver.New(scrapeCycle, digestCycle, cfg.CronSecret, log)

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("port", cfg.Port), zap.String("version", "1.0.0"))
		errCh <- srv.Listen(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
		// Drain matches the server's write timeout: a cycle running inline
		// in a trigger request gets to finish before the process exits.
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Minute)
		defer cancelShutdown()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("http server shutdown", zap.Error(err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server", zap.Error(err))
		}
	}
}
