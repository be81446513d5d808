package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harentsoaR/medbook-api/internal/booking"
	"github.com/harentsoaR/medbook-api/internal/config"
	"github.com/harentsoaR/medbook-api/internal/handlers"
	"github.com/harentsoaR/medbook-api/internal/metrics"
	"github.com/harentsoaR/medbook-api/internal/middleware"
	"github.com/harentsoaR/medbook-api/internal/services"
	"github.com/harentsoaR/medbook-api/internal/utils"
	"github.com/harentsoaR/medbook-api/pkg/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting medbook api", "env", cfg.Env, "port", cfg.Port)

	jwtManager, err := utils.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		logger.Error("invalid auth configuration", "error", err)
		os.Exit(1)
	}

	// --- Database Connection ---
	st, closeStore, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	// --- Initialize Services ---
	calendar, err := booking.NewCalendar(cfg.ClinicHolidays)
	if err != nil {
		logger.Error("invalid CLINIC_HOLIDAYS", "error", err)
		os.Exit(1)
	}
	locker, closeLocker := newLocker(cfg, logger)
	defer closeLocker()

	bookingSvc := booking.NewService(st, locker,
		booking.NewRules(calendar, cfg.ClinicLocation(), nil),
		booking.WithMetrics(metrics.NewBookingMetrics(prometheus.DefaultRegisterer)),
		booking.WithLogger(logger.With("component", "booking")),
	)

	ctx := context.Background()
	awsCfg, awsErr := loadAWSConfig(ctx, cfg)
	if awsErr != nil {
		logger.Warn("aws config unavailable, s3 and ses disabled", "error", awsErr)
	}
	emailSender := newEmailSender(cfg, awsCfg, awsErr == nil, logger)
	notifier := services.NewNotificationService(cfg.TextbeltURL, cfg.TextbeltAPIKey, emailSender, logger.With("component", "notifications"))
	pictures := newPictureStore(cfg, awsCfg, awsErr == nil, logger)
	identity := newIdentity(ctx, cfg, logger)

	h := handlers.NewHandler(handlers.Handler{
		Store:     st,
		Booking:   bookingSvc,
		Notifier:  notifier,
		Email:     emailSender,
		Pictures:  pictures,
		Identity:  identity,
		JWT:       jwtManager,
		Passwords: utils.NewPasswordHasher(cfg.BcryptCost),
		Logger:    logger,
	})

	// --- Gin Router ---
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Metrics(metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h.RegisterRoutes(r, handlers.RouteOptions{
		Auth:      middleware.NewAuthenticator(jwtManager, identity, st),
		RateLimit: middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	notifier.Wait()
	logger.Info("server stopped")
}
