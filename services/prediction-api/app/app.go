package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/fraud-prediction-gateway/pkg"
	"github.com/nimeshabuddhika/fraud-prediction-gateway/pkg/cache"
	middleware "github.com/nimeshabuddhika/fraud-prediction-gateway/pkg/middlewares"
	"github.com/nimeshabuddhika/fraud-prediction-gateway/pkg/utils"
	"github.com/nimeshabuddhika/fraud-prediction-gateway/services/prediction-api/configs"
	"github.com/nimeshabuddhika/fraud-prediction-gateway/services/prediction-api/internal/handlers"
	"github.com/nimeshabuddhika/fraud-prediction-gateway/services/prediction-api/internal/services"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewApp wires dependencies, builds the Gin engine, and returns an *http.Server and a cleanup func.
// It reads configuration from environment variables via configs.Load.
func NewApp(ctx context.Context, logger *zap.Logger) (*http.Server, func(), error) {
	cfg, err := configs.Load(logger)
	if err != nil {
		return nil, nil, err
	}

	// Redis is optional; without it the scorer throttle is per replica.
	var redisClient *redis.Client
	cleanup := func() {}
	if !utils.IsEmpty(cfg.RedisAddr) {
		client, closer, err := cache.New(ctx, cache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		logger.Info("redis client initialized", zap.String("addr", cfg.RedisAddr))
		redisClient = client
		cleanup = closer
	}

	r := NewRouter(logger, cfg, redisClient, nil)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: r,
	}
	return srv, cleanup, nil
}

// NewRouter builds the Gin engine for cfg. A nil noise uses the default fallback noise source.
func NewRouter(logger *zap.Logger, cfg *configs.Config, redisClient *redis.Client, noise services.NoiseFunc) *gin.Engine {
	limiter := pkg.NewDistributedLimiter(redisClient, cfg.RedisRateLimitKey, cfg.MlRateLimitPerSec, cfg.MlRequestBurst, cfg.RedisRateLimitTTL, logger)

	httpClient := utils.NewHTTPClient(
		utils.WithClientTimeout(cfg.RemoteTimeout),
		utils.WithResponseHeaderTimeout(cfg.RemoteTimeout),
	)
	remote := services.NewRemoteScorer(services.RemoteScorerConfig{
		Logger:          logger,
		BaseURL:         cfg.FinancialServiceURL,
		Timeout:         cfg.RemoteTimeout,
		ProbeTimeout:    cfg.HealthProbeTimeout,
		HTTPClient:      httpClient,
		Limiter:         limiter,
		MaxThrottleWait: cfg.MlRequestMaxThrottleWait,
	})
	predictionService := services.NewPredictionService(services.PredictionServiceConfig{
		Logger:   logger,
		Remote:   remote,
		Fallback: services.NewFallbackScorer(noise),
	})

	baseHandler := handlers.NewBaseHandler(logger, remote)
	predictionHandler := handlers.NewPredictionHandler(logger, predictionService)

	r := gin.New()
	r.Use(middleware.TraceID())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.AccessLog(logger))
	r.Use(middleware.Metrics())

	predictionHandler.RegisterRoutes(r.Group("/api"))
	predictionHandler.RegisterRoutes(r.Group("/api/v1"))
	baseHandler.RegisterRoutes(r)

	logger.Info("remote scorer configured",
		zap.String("url", remote.BaseURL()),
		zap.Duration("timeout", cfg.RemoteTimeout))
	return r
}
