// Command dispatchd runs the Dispatch Worker (C10) standalone: the poll
// loop that moves rides from MATCHING to DRIVER_ASSIGNED or EXPIRED. Its
// only HTTP surface is a /healthz and /metrics router.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pijushrbiswas/dispatch-core/internal/assignment"
	"github.com/pijushrbiswas/dispatch-core/internal/dispatch"
	"github.com/pijushrbiswas/dispatch-core/internal/geo"
	"github.com/pijushrbiswas/dispatch-core/internal/matching"
	"github.com/pijushrbiswas/dispatch-core/pkg/common"
	"github.com/pijushrbiswas/dispatch-core/pkg/config"
	"github.com/pijushrbiswas/dispatch-core/pkg/database"
	"github.com/pijushrbiswas/dispatch-core/pkg/eventbus"
	"github.com/pijushrbiswas/dispatch-core/pkg/logger"
	redisclient "github.com/pijushrbiswas/dispatch-core/pkg/redis"
)

const (
	serviceName = "dispatch-worker"
	version     = "1.0.0"
)

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting dispatch worker", zap.String("version", version))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.NewPostgresPool(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	redisClient, err := redisclient.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Fatal("Failed to initialize redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Warn("Failed to close redis client", zap.Error(err))
		}
	}()

	geoIndex := geo.NewIndex(redisClient)
	matcher := matching.NewService(geoIndex)
	bus := eventbus.New()

	assignRepo := assignment.NewRepository(db)
	assigner := assignment.NewService(assignRepo, geoIndex, bus)

	queue := dispatch.NewRepository(db)
	worker := dispatch.NewWorker(queue, matcher, assigner)

	go worker.Start(ctx)
	log.Info("Dispatch worker poll loop started")

	router := gin.New()
	router.GET("/healthz", common.HealthCheck(serviceName, version))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Info("Health/metrics server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start health server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down dispatch worker...")
	worker.Stop()
	cancel()
	log.Info("Dispatch worker stopped")
}
