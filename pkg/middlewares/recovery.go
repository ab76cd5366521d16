package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/fraud-prediction-gateway/pkg"
	"go.uber.org/zap"
)

// Recovery turns a panic into the standard 500 error body.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		resp := pkg.ToErrorResponse(logger, c.GetString(pkg.TraceId), fmt.Errorf("panic: %v", recovered))
		c.AbortWithStatusJSON(resp.Status, resp)
	})
}
