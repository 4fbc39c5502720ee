package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"citysense/internal/config"
	"citysense/internal/httpapi"
	"citysense/internal/ingest"
	"citysense/internal/producer"
	"citysense/internal/repository"
	"citysense/internal/scheduler"
	"citysense/internal/service"
	"citysense/internal/simulator"
	"citysense/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := newLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := connectPostgres(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	if err := repository.EnsureSchema(ctx, db); err != nil {
		logger.Fatal("failed to ensure schema", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		// caches degrade gracefully, so Redis being down is not fatal
		logger.Warn("redis unreachable, caches will fall back to database", zap.Error(err))
	}
	kv := store.NewRedisKV(redisClient)
	realtime := store.NewRealtimeCache(kv, cfg.Cache.RealtimeKeyPrefix, cfg.Cache.RealtimeTTL, logger)
	suppression := store.NewSuppressionCache(kv, cfg.Cache.SuppressKeyPrefix, cfg.Cache.SuppressTTL, logger)

	sensorsRepo := repository.NewSensorsRepository(db, logger)
	alertsRepo := repository.NewAlertsRepository(db, logger)
	reportsRepo := repository.NewReportsRepository(db, logger)

	registry := service.NewSensorRegistry(sensorsRepo, realtime, logger)
	alertManager := service.NewAlertManager(alertsRepo, sensorsRepo, suppression, logger)
	reportService := service.NewReportService(reportsRepo, service.NewStochasticAging(cfg.Aging), logger)
	dashboard := service.NewDashboard(sensorsRepo, alertsRepo, reportsRepo, logger)

	if created, err := registry.Seed(ctx); err != nil {
		logger.Warn("failed to seed sensors", zap.Error(err))
	} else if created > 0 {
		logger.Info("seeded sensor fleet", zap.Int("created", created))
	}

	sched := scheduler.New(logger)
	sched.Register(scheduler.Task{
		Name:     "evaluate-thresholds",
		Interval: cfg.Scheduler.EvaluateInterval,
		Run: func(ctx context.Context) error {
			_, err := alertManager.EvaluateAndRaiseAlerts(ctx)
			return err
		},
	})
	sched.Register(scheduler.Task{
		Name:     "age-reports",
		Interval: cfg.Scheduler.AgingInterval,
		Run: func(ctx context.Context) error {
			_, err := reportService.AgeReports(ctx)
			return err
		},
	})

	if cfg.Simulation.Enabled {
		sim := simulator.New(registry, alertManager, reportService, cfg.Simulation, logger)
		sched.Register(scheduler.Task{
			Name:     "simulate-readings",
			Interval: cfg.Scheduler.ReadingInterval,
			Run:      sim.ProduceReadings,
		})
		sched.Register(scheduler.Task{
			Name:     "simulate-incidents",
			Interval: cfg.Scheduler.ReportInterval,
			Run: func(ctx context.Context) error {
				if _, err := sim.ProduceAlert(ctx); err != nil {
					return err
				}
				_, err := sim.ProduceReport(ctx)
				return err
			},
		})
	}

	if poller := producer.NewFeedPoller(cfg.ReportFeed.URL, cfg.ReportFeed.Timeout, reportService, logger); poller != nil {
		sched.Register(scheduler.Task{
			Name:     "poll-report-feed",
			Interval: cfg.Scheduler.ReportInterval,
			Run: func(ctx context.Context) error {
				_, err := poller.Poll(ctx)
				return err
			},
		})
	}

	consumer, err := ingest.NewConsumer(cfg.MQTT, registry, logger)
	if err != nil {
		logger.Fatal("failed to connect to mqtt broker", zap.Error(err))
	}
	if consumer != nil {
		if err := consumer.Start(ctx); err != nil {
			logger.Fatal("failed to start mqtt ingestion", zap.Error(err))
		}
		defer consumer.Stop()
	}

	sched.Start(ctx)

	router := httpapi.NewRouter(logger)
	router.RegisterOpsRoutes()
	router.RegisterSensorRoutes(httpapi.NewSensorsHandler(registry, logger))
	router.RegisterAlertRoutes(httpapi.NewAlertsHandler(alertManager, logger))
	router.RegisterReportRoutes(httpapi.NewReportsHandler(reportService, logger))
	router.RegisterDashboardRoutes(httpapi.NewDashboardHandler(dashboard, logger))

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.HTTP.Addr))
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", zap.Error(err))
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown incomplete", zap.Error(err))
	}
	sched.Wait()
	logger.Info("stopped")
}

// connectPostgres opens the pool and pings it with exponential backoff,
// so the service survives the database coming up after it in compose.
func connectPostgres(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.GetDSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.Database.MaxConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdle)
	db.SetConnMaxLifetime(time.Hour)

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 10), ctx)
	err = backoff.RetryNotify(
		func() error { return db.PingContext(ctx) },
		policy,
		func(err error, next time.Duration) {
			logger.Warn("postgres not ready, retrying",
				zap.Duration("next", next),
				zap.Error(err))
		},
	)
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func newLogger(level, format string) (*zap.Logger, error) {
	var zapCfg zap.Config
	if format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	zapCfg.Level = zap.NewAtomicLevelAt(lvl)
	return zapCfg.Build()
}
