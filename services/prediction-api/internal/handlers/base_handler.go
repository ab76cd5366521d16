package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const ServiceVersion = "1.0.0"

// ScorerProbe reports whether the remote scorer answers its health check.
type ScorerProbe interface {
	Probe(ctx context.Context) error
	BaseURL() string
}

type BaseHandler struct {
	logger *zap.Logger
	probe  ScorerProbe
}

func NewBaseHandler(logger *zap.Logger, probe ScorerProbe) *BaseHandler {
	return &BaseHandler{logger: logger, probe: probe}
}

func (b *BaseHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", b.GetInfo)
	r.GET("/health", b.GetHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (b *BaseHandler) GetInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Fraud Detection API",
		"status":  "running",
		"version": ServiceVersion,
	})
}

// GetHealth always answers 200; an unreachable scorer only means predictions use the fallback.
func (b *BaseHandler) GetHealth(c *gin.Context) {
	remote := gin.H{"reachable": false}
	if b.probe != nil {
		remote["url"] = b.probe.BaseURL()
		if err := b.probe.Probe(c.Request.Context()); err != nil {
			b.logger.Debug("remote_scorer_probe_failed", zap.Error(err))
		} else {
			remote["reachable"] = true
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"remoteScorer": remote,
	})
}
