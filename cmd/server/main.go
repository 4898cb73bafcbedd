package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"                             // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware"           // Recover, RequestID
	"github.com/prometheus/client_golang/prometheus"          // default registry
	"github.com/prometheus/client_golang/prometheus/promhttp" // /metrics handler

	"github.com/iliyamo/event-seat-reservation/internal/config"     // Internal config loader
	"github.com/iliyamo/event-seat-reservation/internal/handler"    // HTTP handlers
	"github.com/iliyamo/event-seat-reservation/internal/middleware" // auth, rate limit, cache
	"github.com/iliyamo/event-seat-reservation/internal/obs"        // logger and metrics
	"github.com/iliyamo/event-seat-reservation/internal/queue"      // seat.reserved publisher and consumer
	"github.com/iliyamo/event-seat-reservation/internal/repository" // Redis store adapter
	"github.com/iliyamo/event-seat-reservation/internal/router"     // Internal router setup
	"github.com/iliyamo/event-seat-reservation/internal/service"    // holds and reservations
)

func main() {
	cfg := config.Load() // Load environment config
	logger := obs.NewLogger(cfg.LogLevel, cfg.LogFormat)

	// Cancel context on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rc := config.LoadRedisConfig()
	rdb, err := config.NewRedisClient(ctx, rc)
	if err != nil {
		logger.Error("redis connect failed", "error", err)
		os.Exit(1)
	}
	defer func() { _ = rdb.Close() }()

	metrics := obs.NewMetrics(prometheus.DefaultRegisterer)

	events := repository.NewEventRepo(rdb)
	holds := repository.NewHoldRepo(rdb)
	users := repository.NewUserRepo(rdb)
	locker := repository.NewSeatLocker(rdb)
	feed := repository.NewExpiryFeed(rdb)

	if rc.ConfigureNotifications {
		if err := feed.EnableNotifications(ctx); err != nil {
			// managed Redis often forbids CONFIG; the sweeper still repairs indexes
			logger.Warn("could not enable keyspace notifications", "error", err)
		}
	}

	catalog := service.NewCatalog(events)
	holdMgr := service.NewHoldManager(service.HoldConfig{
		HoldDuration:    cfg.HoldDuration,
		MaxHoldsPerUser: cfg.MaxHoldsPerUser,
		Strict:          cfg.HoldStrict,
		LockTTL:         cfg.ReserveLockTTL,
	}, events, holds, locker, metrics, logger.Named("holds"))

	var wg sync.WaitGroup
	runBackground := func(run func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			run(ctx) // exits when ctx is cancelled
		}()
	}

	runBackground(service.NewReconciler(feed, holds, metrics, logger.Named("reconciler")).Run)
	if cfg.SweepInterval > 0 {
		runBackground(service.NewSweeper(holds, metrics, logger.Named("sweeper"), cfg.SweepInterval).Run)
	}

	var publisher handler.ReservationPublisher
	if cfg.RabbitEnabled {
		publisher = queue.NewPublisher(cfg.RabbitURL, logger.Named("queue"))
		consumer := &queue.Consumer{URL: cfg.RabbitURL, Dir: "logs", Log: logger.Named("queue")}
		runBackground(consumer.Run)
	}

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	auth := middleware.JWTAuth(cfg.TokenSecret, cfg.TokenMaxAge, users, logger.Named("auth"))
	rateLimit := middleware.NewRateLimiter(config.LoadRateLimitConfig(), rdb, logger.Named("ratelimit"))
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e, func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, logger.Named("http")), auth, rateLimit)
	eventHandler := handler.NewEventHandler(catalog, holdMgr, publisher, cfg.MaxHoldsPerUser, logger.Named("http"))
	eventHandler.Background = func(f func()) {
		// in-flight publishes finish before wg.Wait returns
		wg.Add(1)
		go func() {
			defer wg.Done()
			f()
		}()
	}
	router.RegisterEvents(e, eventHandler, auth, rateLimit, cache)

	addr := ":" + cfg.Port // Address string with port
	go func() {
		logger.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "error", err)
	}
	wg.Wait()
	logger.Info("server stopped")
}
