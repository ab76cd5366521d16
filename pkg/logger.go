package pkg

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Logger *zap.Logger

// NewLogger builds the service logger for a gin mode. Release mode logs JSON to stdout;
// debug and test modes use the colored console encoder. Every entry carries the service name.
func NewLogger(mode, service string) (*zap.Logger, error) {
	var config zap.Config
	switch mode {
	case gin.ReleaseMode:
		config = zap.NewProductionConfig()
		config.OutputPaths = []string{"stdout"}
		config.ErrorOutputPaths = []string{"stderr"}
		config.EncoderConfig.TimeKey = "ts"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	default:
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	if gin.TestMode == mode {
		config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}

	logger, err := config.Build(zap.AddStacktrace(zap.DPanicLevel))
	if err != nil {
		return nil, err
	}
	if service != "" {
		logger = logger.With(zap.String("service", service))
	}
	return logger, nil
}

// InitLogger sets the global Logger for the current gin mode.
func InitLogger(service string) {
	logger, err := NewLogger(gin.Mode(), service)
	if err != nil {
		panic(err)
	}
	Logger = logger
}
