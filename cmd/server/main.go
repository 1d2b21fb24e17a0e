package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lawyer_site_go/config"
	"lawyer_site_go/db"
	"lawyer_site_go/handlers"
	"lawyer_site_go/logger"
	"lawyer_site_go/metrics"
	"lawyer_site_go/middleware"
	"lawyer_site_go/services"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 20 * time.Second

func main() {
	boot := logger.Bootstrap()

	// Load configuration
	cfg, err := config.Load(boot)
	if err != nil {
		boot.Fatalw("failed to load configuration", "error", err)
	}

	log, flush, err := logger.New(logger.Options{
		Dir:   cfg.LogDir,
		Level: cfg.LogLevel,
		Tee:   !cfg.IsProduction() || logger.RunningInTTY(),
	})
	if err != nil {
		boot.Fatalw("failed to initialize logger", "error", err)
	}
	defer flush()

	if err := run(cfg, log); err != nil {
		log.Errorw("server stopped with error", "error", err)
		flush()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	contactMetrics := metrics.NewContactMetrics(prometheus.DefaultRegisterer)

	mailer, err := services.NewMailer(ctx, cfg, log)
	if err != nil {
		return err
	}
	log.Infow("mailer ready", "provider", mailer.Provider(), "test_mode", cfg.EmailTestMode)

	store, closeStore, err := rateLimitStore(cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	// Optional delivery log
	var recorder *services.DeliveryRecorder
	if cfg.DeliveryLogEnabled() {
		conn, err := db.Open(db.Options{
			Path:        cfg.DeliveryLogPath,
			TursoURL:    cfg.TursoDatabaseURL,
			TursoToken:  cfg.TursoAuthToken,
			Environment: cfg.Environment,
		}, log)
		if err != nil {
			return err
		}
		defer func() {
			if err := db.Close(conn); err != nil {
				log.Warnw("failed to close delivery log database", "error", err)
			}
		}()
		recorder = services.NewDeliveryRecorder(conn, log)
		// Deferred last, so pending writes finish before Close
		defer recorder.Wait()
	}

	contact := handlers.NewContactHandler(cfg, mailer, recorder, contactMetrics, log)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.IPExtractor = echo.ExtractIPFromXFFHeader()
	e.HTTPErrorHandler = handlers.ErrorHandler(log)

	// Middleware
	e.Use(echomiddleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, "HX-Request", "HX-Target", "HX-Current-URL"},
	}))
	e.Use(echomiddleware.BodyLimit(cfg.BodyLimit))

	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Requests: cfg.ContactRateLimit,
		Window:   cfg.ContactRateWindow,
		OnLimited: func(c echo.Context) {
			contactMetrics.ObserveRateLimited(c.Path())
		},
	}, store, log)

	// Public API
	api := e.Group("/api")
	api.POST("/send-email", contact.SendEmail, limiter.Middleware())
	api.GET("/config", contact.Config)

	// Operations
	e.GET("/healthz", handlers.Healthz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infow("server starting", "port", cfg.ServerPort, "environment", cfg.Environment)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Infow("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// rateLimitStore picks Redis when REDIS_URL is set so limits hold across
// instances, otherwise an in-process store.
func rateLimitStore(cfg *config.Config, log *zap.SugaredLogger) (middleware.RateLimitStore, func(), error) {
	if cfg.RedisURL == "" {
		store := middleware.NewMemoryStore(time.Minute)
		log.Infow("rate limiting with in-memory store")
		return store, func() { _ = store.Close() }, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	client := redis.NewClient(opts)
	log.Infow("rate limiting with redis store", "addr", opts.Addr)
	return middleware.NewRedisStore(client, ""), func() {
		if err := client.Close(); err != nil {
			log.Warnw("failed to close redis client", "error", err)
		}
	}, nil
}
