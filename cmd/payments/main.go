package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pijushrbiswas/dispatch-core/internal/payments"
	"github.com/pijushrbiswas/dispatch-core/pkg/common"
	"github.com/pijushrbiswas/dispatch-core/pkg/config"
	"github.com/pijushrbiswas/dispatch-core/pkg/database"
	"github.com/pijushrbiswas/dispatch-core/pkg/eventbus"
	"github.com/pijushrbiswas/dispatch-core/pkg/jwtkeys"
	"github.com/pijushrbiswas/dispatch-core/pkg/logger"
	"github.com/pijushrbiswas/dispatch-core/pkg/middleware"
	"go.uber.org/zap"
)

const (
	serviceName = "payments-service"
	version     = "1.0.0"
)

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := logger.Init(cfg.Server.Environment); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting payments service", zap.String("version", version))

	db, err := database.NewPostgresPool(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)
	log.Info("Connected to database")

	if cfg.Payment.StripeAPIKey == "" {
		log.Warn("STRIPE_API_KEY not set, payment processing will fail against the real PSP")
	}

	stripeClient := payments.NewStripeClient(cfg.Payment.StripeAPIKey)
	var psp payments.PSPClient = payments.NewStripeChargeClient(stripeClient)
	if cfg.Resilience.CircuitBreaker.Enabled {
		psp = payments.NewCircuitBreakingPSPClient(psp)
	}

	bus := eventbus.New()
	repo := payments.NewRepository(db)
	service := payments.NewService(repo, bus)
	handler := payments.NewHandler(service, cfg.Payment.WebhookSecret)

	worker := payments.NewWorker(repo, psp)
	go worker.Start(rootCtx)
	defer worker.Stop()
	log.Info("Outbox worker started")

	jwtProvider, err := jwtkeys.NewManagerFromConfig(rootCtx, cfg.JWT, true)
	if err != nil {
		log.Fatal("Failed to initialize JWT key manager", zap.Error(err))
	}
	jwtProvider.StartAutoRefresh(rootCtx, time.Duration(cfg.JWT.RefreshMinutes)*time.Minute)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RecoveryWithSentry())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger(serviceName))
	router.Use(middleware.CORS())

	router.GET("/healthz", common.HealthCheck(serviceName, version))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler.RegisterRoutes(router, jwtProvider)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", zap.String("port", cfg.Server.Port), zap.String("environment", cfg.Server.Environment))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server stopped")
}
