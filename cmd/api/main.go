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

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/agenda-engine/internal/audit"
	"github.com/BruksfildServices01/agenda-engine/internal/config"
	dbpkg "github.com/BruksfildServices01/agenda-engine/internal/db"
	domain "github.com/BruksfildServices01/agenda-engine/internal/domain/booking"
	"github.com/BruksfildServices01/agenda-engine/internal/events"
	"github.com/BruksfildServices01/agenda-engine/internal/infra/repository"
	"github.com/BruksfildServices01/agenda-engine/internal/logging"
	"github.com/BruksfildServices01/agenda-engine/internal/metrics"
	"github.com/BruksfildServices01/agenda-engine/internal/notify"
	"github.com/BruksfildServices01/agenda-engine/internal/ratelimit"
	"github.com/BruksfildServices01/agenda-engine/internal/routes"
	"github.com/BruksfildServices01/agenda-engine/internal/usecase/availability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, logCloser, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if logCloser != nil {
		defer logCloser.Close()
	}

	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zerolog.Logger) error {
	metrics.Register()

	// ======================================================
	// STORAGE
	// ======================================================
	repo, err := openRepository(cfg, log)
	if err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
	}

	// ======================================================
	// EVENTS
	// ======================================================
	var queue events.Queue = events.NewMemoryQueue(cfg.Events.BufferSize)
	if cfg.Events.Queue == "redis" {
		if redisClient == nil {
			return errors.New("events.queue=redis requires redis.address")
		}
		queue = events.NewRedisQueue(redisClient, cfg.Events.QueueKey, cfg.Events.BufferSize)
	}

	dispatcher := events.NewDispatcher(queue, events.Options{
		Workers: cfg.Events.Workers,
		Policy: events.RetryPolicy{
			MaxRetries:    cfg.Events.MaxRetries,
			InitialDelay:  time.Duration(cfg.Events.InitialDelayMS) * time.Millisecond,
			MaxDelay:      time.Duration(cfg.Events.MaxDelayMS) * time.Millisecond,
			BackoffFactor: 2,
		},
	}, log)
	defer dispatcher.Close()

	audit.New(repo).Subscribe(dispatcher)
	availability.NewReconciler(repo, log, cfg.Events.HorizonDays).Subscribe(dispatcher)
	notify.NewSubscriber(repo, notify.NewLogNotifier(log), log).Subscribe(dispatcher)

	sweeper := availability.NewSweeper(repo, dispatcher, log)
	if err := sweeper.Start(cfg.Events.SweepSchedule); err != nil {
		return err
	}
	defer sweeper.Stop()

	// ======================================================
	// HTTP
	// ======================================================
	window := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
	var limiter ratelimit.Limiter = ratelimit.NewLocalLimiter(cfg.RateLimit.Requests, window)
	if redisClient != nil {
		limiter = ratelimit.NewRedisLimiter(redisClient, cfg.RateLimit.Requests, window)
	}

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	routes.RegisterRoutes(r, routes.Deps{
		Repo:      repo,
		Publisher: dispatcher,
		Limiter:   limiter,
		Config:    cfg,
		Log:       log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("storage", cfg.Database.Driver).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func openRepository(cfg *config.Config, log *zerolog.Logger) (domain.Repository, error) {
	if cfg.Database.Driver == "memory" {
		log.Warn().Msg("using in-memory storage; data is lost on restart")
		return repository.NewMemoryRepository(), nil
	}

	db, err := dbpkg.NewDB(cfg, log)
	if err != nil {
		return nil, err
	}
	return repository.NewGormRepository(db), nil
}
