package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"                      // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware" // Recover and CORS
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/swasthya/internal/config"
	"github.com/iliyamo/swasthya/internal/database"
	"github.com/iliyamo/swasthya/internal/handler"
	"github.com/iliyamo/swasthya/internal/locator"
	"github.com/iliyamo/swasthya/internal/logging"
	"github.com/iliyamo/swasthya/internal/metrics"
	"github.com/iliyamo/swasthya/internal/middleware"
	"github.com/iliyamo/swasthya/internal/overpass"
	"github.com/iliyamo/swasthya/internal/queue"
	"github.com/iliyamo/swasthya/internal/repository"
	"github.com/iliyamo/swasthya/internal/router"
	"github.com/iliyamo/swasthya/internal/service"
	"github.com/iliyamo/swasthya/internal/session"
)

func main() {
	envFiles, envErr := config.LoadEnv() // .env then .env.local, both optional
	cfg := config.Load()                 // Load environment config
	log := logging.NewLoggerWithService("swasthya-api", cfg.LogLevel).WithField("env", cfg.Env)
	if envErr != nil {
		log.WithError(envErr).Warn("env file could not be parsed")
	}
	log.WithField("files", envFiles).Debug("env files loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// MySQL is required
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.WithError(err).Fatal("mysql: connect failed")
	}
	defer db.Close()
	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	if err := database.Migrate(migrateCtx, db); err != nil {
		cancel()
		log.WithError(err).Fatal("mysql: migrate failed")
	}
	cancel()

	// Redis is optional: sessions fall back to memory, cache and rate limit switch off
	rdb, err := config.NewRedisClient()
	var sessions session.Store
	if err != nil {
		log.WithError(err).Warn("redis: unavailable, using in-memory sessions without cache or rate limit")
		sessions = session.NewMemoryStore()
	} else {
		defer rdb.Close()
		sessions = session.NewRedisStore(rdb, "swasthya:session", time.Duration(cfg.RefreshTTLDays)*24*time.Hour)
	}

	lc := config.LoadLocatorConfig()
	provider := overpass.NewClient().
		WithURL(lc.OverpassURL).
		WithLogger(log.WithField("component", "overpass")).
		WithBreaker(overpass.BreakerConfig{Failures: uint(lc.BreakerFailures), Delay: lc.BreakerDelay})
	loc := locator.New(provider,
		locator.WithRadius(lc.RadiusMeters),
		locator.WithTimeout(lc.Timeout),
		locator.WithLogger(log.WithField("component", "locator")),
	)

	var events service.LookupPublisher = service.NopPublisher{}
	if cfg.LookupEvents {
		events = service.NewAMQPPublisher(cfg.AMQPURL, log.WithField("component", "publisher"))
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	mc, err := metrics.New(reg)
	if err != nil {
		log.WithError(err).Fatal("metrics: register failed")
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.LookupConsumer {
		consumer := queue.NewLookupConsumer(cfg.AMQPURL, cfg.LookupLogDir, log.WithField("component", "lookup-consumer"))
		g.Go(func() error {
			if err := consumer.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Warn("lookup consumer stopped")
			}
			return nil
		})
	}

	authH := handler.NewAuthHandler(cfg,
		repository.NewUserRepo(db),
		repository.NewTokenRepo(db),
		sessions,
		service.NewDemoOTP(cfg.DemoOTP, log.WithField("component", "otp")),
		log.WithField("component", "auth"),
	)
	hospH := handler.NewHospitalHandler(loc, events, log.WithField("component", "hospitals")).WithMetrics(mc)
	guideH := handler.NewGuidanceHandler()

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.Use(middleware.RequestLogger(log.WithField("component", "http")))
	e.Use(echomw.Recover()) // inside the logger so recovered panics are logged as 500s
	e.Use(mc.Middleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{cfg.CORSOrigin},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization, "Cache-Control"},
	}))

	rl := middleware.NewRateLimiter(config.LoadRateLimitConfig(), rdb, log.WithField("component", "ratelimit"))
	router.RegisterRoutes(e, &handler.ReadyHandler{DB: db, Redis: rdb})
	router.RegisterMetrics(e, mc.Handler())
	router.RegisterAuth(e, authH, cfg.JWTSecret, rl)
	router.RegisterPublic(e, hospH, guideH, rl, middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	addr := ":" + cfg.Port // Address string with port
	g.Go(func() error {
		log.WithField("addr", addr).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("server stopped with error")
		os.Exit(1)
	}
}
