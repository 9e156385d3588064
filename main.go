package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/jkihlstad/weapons-admin-hooks/internal/api"
	"github.com/jkihlstad/weapons-admin-hooks/internal/cache"
	"github.com/jkihlstad/weapons-admin-hooks/internal/config"
	"github.com/jkihlstad/weapons-admin-hooks/internal/registry"
	"github.com/jkihlstad/weapons-admin-hooks/internal/service"
	"github.com/jkihlstad/weapons-admin-hooks/internal/stats"
	"github.com/jkihlstad/weapons-admin-hooks/internal/store"
	"github.com/jkihlstad/weapons-admin-hooks/internal/validate"
	"github.com/jkihlstad/weapons-admin-hooks/internal/worker"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.Load()

	st, err := store.Connect(cfg.PostgresDSN)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to database")
	}
	defer st.Close()
	logrus.Info("connected to database")

	if err := st.Migrate(); err != nil {
		logrus.WithError(err).Fatal("failed to migrate database")
	}
	logrus.Info("database migrated")

	redisClient, err := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to redis")
	}
	logrus.Info("connected to redis")

	validator := validate.New(5*time.Second, cfg.RequireHTTPS)
	reg := registry.New(st, redisClient, validator, cfg.FailingThreshold)
	dispatcher := worker.New(reg, st, worker.Config{
		Workers:        cfg.Workers,
		QueueSize:      cfg.QueueSize,
		AttemptTimeout: cfg.AttemptTimeout,
		BackoffBase:    cfg.BackoffBase,
		BackoffMax:     cfg.BackoffMax,
	})
	aggregator := stats.New(st, st)
	svc := service.New(reg, dispatcher, aggregator, validator)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	service.StartRetentionWorker(ctx, st, cfg.RetentionHours, cfg.CleanupIntervalHours)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{echo.GET, echo.PUT, echo.POST, echo.DELETE, echo.OPTIONS},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	api.RegisterRoutes(e, svc)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		logrus.Info("shutting down")
		cancel()
		dispatcher.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Error("server shutdown failed")
		}
	}()

	e.Logger.Fatal(e.Start(cfg.ListenAddr))
}
