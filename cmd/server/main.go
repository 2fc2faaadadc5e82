package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/pos-backoffice/internal/config"
	"github.com/iliyamo/pos-backoffice/internal/database"
	"github.com/iliyamo/pos-backoffice/internal/handler"
	"github.com/iliyamo/pos-backoffice/internal/middleware"
	"github.com/iliyamo/pos-backoffice/internal/queue"
	"github.com/iliyamo/pos-backoffice/internal/repository"
	"github.com/iliyamo/pos-backoffice/internal/router"
	"github.com/iliyamo/pos-backoffice/internal/service"
)

func newLogger(cfg config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	if cfg.IsProd() {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	lvl, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

func main() {
	cfg := config.Load() // Load environment config
	log := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Directory database: accounts, login log and connection targets.
	cred := database.Credentials{User: cfg.DBUser, Pass: cfg.DBPass}
	dirPort := 3306
	if t, err := database.ParseTarget(cfg.DBHost, cfg.DBPort); err == nil {
		dirPort = t.Port
	}
	dir, err := database.Open(ctx, cred, cfg.DBHost, dirPort, cfg.DBName)
	if err != nil {
		log.WithError(err).Fatal("directory database unreachable")
	}
	defer dir.Close()

	broker := database.NewMySQLBroker(cred, cfg.TenantDBName)
	defer func() {
		if err := broker.Close(); err != nil {
			log.WithError(err).Warn("closing tenant pools")
		}
	}()

	rdb, err := config.NewRedisClient(ctx)
	if err != nil {
		log.WithError(err).Warn("redis unavailable; using in-process rate limit, cache and locks")
		rdb = nil
	}
	if rdb != nil {
		defer rdb.Close()
	}

	var events service.EventPublisher = service.NopPublisher{}
	if cfg.AMQPURL != "" {
		events = service.AMQPPublisher{URL: cfg.AMQPURL}
		consumer := queue.NewConsumer(cfg.AMQPURL, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("stock consumer stopped")
			}
		}()
	}

	users := repository.NewUserRepo(dir)
	targets := service.NewTenantResolver(users, rdb, cfg.TargetCacheTTL, log)
	authSvc := service.NewAuthService(users, broker, targets, service.NewSMTPMailer(cfg.SMTP), service.AuthConfig{
		Secret:       cfg.JWTSecret,
		SessionTTL:   time.Duration(cfg.SessionTTLMin) * time.Minute,
		ResetTTL:     time.Duration(cfg.ResetTTLMin) * time.Minute,
		BcryptCost:   cfg.BcryptCost,
		ResetLinkURL: cfg.FrontendBaseURL + "reset-password?token=",
		Timeout:      cfg.AuthTimeout,
	}, log)
	reportSvc := service.NewReportService(service.NewLocker(rdb, cfg.StagingLockTTL), cfg.ReportTimeout, log)
	stockSvc := service.NewStockService(events, log)

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echomw.BodyLimit("1M"))
	e.Use(middleware.RequestLogger(log))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(authSvc, log), authSvc,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log))

	tenant := router.TenantGroup(e, authSvc, middleware.Tenant(targets, broker, log))
	router.RegisterReports(tenant, handler.NewReportHandler(reportSvc, log),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	router.RegisterStock(tenant, handler.NewStockHandler(stockSvc, cfg.ProductDBName, log))

	addr := ":" + cfg.Port
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
