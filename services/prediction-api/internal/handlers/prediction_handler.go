package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/fraud-prediction-gateway/pkg"
	"github.com/nimeshabuddhika/fraud-prediction-gateway/pkg/utils"
	"github.com/nimeshabuddhika/fraud-prediction-gateway/pkg/views"
	"github.com/nimeshabuddhika/fraud-prediction-gateway/services/prediction-api/internal/services"
	"go.uber.org/zap"
)

type PredictionHandler struct {
	logger  *zap.Logger
	service services.PredictionService
}

func NewPredictionHandler(logger *zap.Logger, svc services.PredictionService) *PredictionHandler {
	return &PredictionHandler{logger: logger, service: svc}
}

// RegisterRoutes registers prediction routes on the provided group.
func (h *PredictionHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/predict", h.Predict)
}

func (h *PredictionHandler) Predict(c *gin.Context) {
	traceID, err := utils.GetTraceID(c)
	if err != nil {
		h.writeError(c, traceID, err)
		return
	}

	req, err := views.DecodePredictionBatch(c.Request.Body)
	if err != nil {
		h.writeError(c, traceID, pkg.NewInvalidInputError(err))
		return
	}

	outcome, err := h.service.Predict(c.Request.Context(), traceID, req)
	if err != nil {
		h.writeError(c, traceID, err)
		return
	}

	if outcome.Source == pkg.PredictionSourceRemote {
		c.Data(http.StatusOK, "application/json; charset=utf-8", outcome.Remote)
		return
	}
	c.JSON(http.StatusOK, outcome.Fallback)
}

func (h *PredictionHandler) writeError(c *gin.Context, traceID string, err error) {
	resp := pkg.ToErrorResponse(h.logger, traceID, err)
	c.JSON(resp.Status, resp)
}
