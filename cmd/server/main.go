package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/oceanview/resort-booking/internal/config"
	"github.com/oceanview/resort-booking/internal/database"
	"github.com/oceanview/resort-booking/internal/handler"
	"github.com/oceanview/resort-booking/internal/jobs"
	"github.com/oceanview/resort-booking/internal/logger"
	"github.com/oceanview/resort-booking/internal/middleware"
	"github.com/oceanview/resort-booking/internal/queue"
	"github.com/oceanview/resort-booking/internal/repository"
	"github.com/oceanview/resort-booking/internal/router"
	"github.com/oceanview/resort-booking/internal/service"
)

func main() {
	cfg := config.Load()
	log := logger.Must(cfg.Env)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	db, err := database.Open(ctx, database.Options{
		User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
	})
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.DBMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
		log.Info("schema up to date")
	}

	var events service.EventPublisher = service.NopPublisher{}
	if cfg.RabbitURL != "" {
		events = queue.NewPublisher(cfg.RabbitURL, log)
		consumer := queue.NewConsumer(cfg.RabbitURL, cfg.NotifyDir, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("notification consumer stopped", zap.Error(err))
			}
		}()
	} else {
		log.Warn("RABBITMQ_URL not set; reservation events are dropped")
	}

	rooms := repository.NewRoomRepo(db)
	reservations := service.NewReservationService(
		rooms,
		repository.NewReservationRepo(db),
		repository.NewInvoiceRepo(db),
		repository.NewUserRepo(db, cfg.BcryptCost),
		events, log,
		service.WithLocation(cfg.Location),
	)

	opts := router.Options{JWTSecret: cfg.JWTSecret, RequestTimeout: cfg.RequestTimeout, Log: log}
	if rdb := config.NewRedisClient(ctx, config.LoadRedisConfig()); rdb != nil {
		defer rdb.Close()
		opts.RateLimit = middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log).Middleware()
		cacheCfg := config.LoadCacheConfig()
		opts.Cache = middleware.NewRedisCache(cacheCfg, rdb)
		opts.CachePurge = middleware.NewCachePurge(cacheCfg, rdb, log)
	} else {
		log.Warn("redis unavailable; rate limiting and catalog cache disabled")
	}

	e := router.New(router.Handlers{
		Catalog:      handler.NewCatalogHandler(service.NewCatalogService(rooms, repository.NewRoomTypeRepo(db), log)),
		Reservations: handler.NewReservationHandler(reservations),
		Dashboard:    handler.NewDashboardHandler(service.NewDashboardService(repository.NewStatsRepo(db))),
		Users:        handler.NewUserHandler(service.NewUserService(repository.NewUserRepo(db, cfg.BcryptCost), log)),
		Health:       &handler.HealthHandler{DB: db},
	}, opts)

	sched, err := jobs.NewCompletionScheduler(cfg.CompletionCron, cfg.Location, reservations, time.Minute, log)
	if err != nil {
		return err
	}
	sched.Start()
	defer func() {
		if err := sched.Shutdown(); err != nil {
			log.Warn("scheduler shutdown", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
