package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/iliyamo/coach-scheduler/internal/cache"
	"github.com/iliyamo/coach-scheduler/internal/config"
	"github.com/iliyamo/coach-scheduler/internal/database"
	"github.com/iliyamo/coach-scheduler/internal/handler"
	"github.com/iliyamo/coach-scheduler/internal/logger"
	"github.com/iliyamo/coach-scheduler/internal/queue"
	"github.com/iliyamo/coach-scheduler/internal/repository"
	"github.com/iliyamo/coach-scheduler/internal/router"
	"github.com/iliyamo/coach-scheduler/internal/scheduling"
	queue_publisher "github.com/iliyamo/coach-scheduler/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real environment wins
	cfg := config.Load()

	log, err := logger.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal("database unavailable", zap.Error(err))
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable; rate limiting and availability cache disabled")
	} else {
		defer rdb.Close()
	}
	rlCfg := config.LoadRateLimitConfig()
	cacheCfg := config.LoadCacheConfig()
	availability := cache.NewAvailabilityCache(rdb, cacheCfg.Prefix, cacheCfg.TTL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var notifier scheduling.Notifier = scheduling.LogNotifier{Log: log}
	if cfg.BrokerEnabled {
		pub := queue_publisher.NewPublisher(cfg.BrokerURL, log)
		defer pub.Close()
		notifier = pub
	}
	if cfg.ConsumerEnabled {
		consumer := queue.NewConsumer(cfg.BrokerURL, cfg.NotificationLogPath, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("notification consumer stopped", zap.Error(err))
			}
		}()
	}

	slots := repository.NewSlotRepo(db)
	deps := scheduling.Deps{
		Tx:           database.NewTransactor(db),
		Slots:        slots,
		Sessions:     repository.NewSessionRepo(db),
		Reschedules:  repository.NewRescheduleRepo(db),
		Reviews:      repository.NewReviewRepo(db),
		Tiers:        repository.NewTierRepo(db),
		Notifier:     notifier,
		Invalidator:  availability,
		Logger:       log,
		SlotDuration: cfg.DefaultSlotDuration(),
	}

	e := router.New(router.Deps{
		JWTSecret: cfg.JWTSecret,
		DB:        db,
		Redis:     rdb,
		Cache:     availability,
		RateLimit: rlCfg,
		CacheCfg:  cacheCfg,
		Log:       log,
		Slots:     handler.NewSlotHandler(slots),
		Sessions: handler.NewSessionHandler(
			scheduling.NewBookingService(deps),
			scheduling.NewSessionService(deps),
			scheduling.NewRescheduleCoordinator(deps),
			log,
		),
	})

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
