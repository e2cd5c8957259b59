// The matching service consumes donation events, resolves each to the
// nearest recipient within the service radius, and persists the match. A
// small HTTP surface exposes cache administration and match lookups.
// Dependencies are wired here once and passed down; business logic lives in
// internal/match.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"foodmatch/internal/match"
	"foodmatch/internal/match/cache"
	"foodmatch/internal/match/consumer"
	"foodmatch/internal/match/handler"
	"foodmatch/internal/match/store"
	"foodmatch/internal/platform/config"
	"foodmatch/internal/platform/httpserver"
	"foodmatch/internal/platform/logger"
	"foodmatch/internal/platform/postgres"
	"foodmatch/internal/platform/redis"
	"foodmatch/pkg/platform/httputil"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Cache backend: Redis when configured, in-process otherwise. Either way
	// the engine fails open, so a broken cache never fails a lookup.
	var matchCache match.Cache
	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("redis setup failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		matchCache = cache.NewRedis(redisClient.Client)
		log.Info("using redis match cache")
	} else {
		matchCache = cache.NewMemory()
		log.Info("REDIS_URL not set, using in-process match cache")
	}

	// Repository: Postgres when configured, in-process otherwise.
	var matches handler.Repository
	pool, err := postgres.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		log.Error("postgres setup failed", "error", err)
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
		pg := store.NewPostgres(pool)
		if err := pg.Migrate(ctx); err != nil {
			log.Error("postgres migration failed", "error", err)
			os.Exit(1)
		}
		matches = pg
		log.Info("using postgres match repository")
	} else {
		matches = store.NewMemory()
		log.Warn("POSTGRES_URL not set, matches are kept in memory only")
	}

	directory := match.SeedDirectory()
	engine := match.NewEngine(directory, matchCache,
		match.WithLogger(log),
		match.WithTTL(cfg.CacheTTL),
	)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Recoverer)
	// Liveness stays 200 on a cache outage: the engine fails open, so a
	// degraded cache is reported, not fatal.
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		health := map[string]string{"status": "ok"}
		if redisClient != nil {
			health["cache"] = "ok"
			if err := redisClient.Health(r.Context()); err != nil {
				health["cache"] = "degraded"
			}
		}
		httputil.WriteJSON(w, http.StatusOK, health)
	})
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())
	handler.New(engine, matchCache, matches, directory.Len(), log).Register(router)

	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting matching service", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if len(cfg.Kafka.Brokers) > 0 {
		intake := consumer.NewIntake(engine, matches, consumer.WithIntakeLogger(log))
		kafkaConsumer, err := consumer.New(consumer.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			Group:   cfg.Kafka.Group,
			Workers: cfg.Kafka.Workers,
		}, intake, log)
		if err != nil {
			log.Error("kafka setup failed", "error", err)
			os.Exit(1)
		}
		defer kafkaConsumer.Close()
		g.Go(func() error {
			log.Info("consuming donation events",
				"topic", cfg.Kafka.Topic, "group", cfg.Kafka.Group, "workers", cfg.Kafka.Workers)
			return kafkaConsumer.Run(ctx)
		})
	} else {
		log.Warn("KAFKA_BROKERS not set, event intake disabled")
	}

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("service exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
