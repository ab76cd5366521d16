package configs

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/nimeshabuddhika/fraud-prediction-gateway/pkg/utils"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	DefaultFinancialServiceURL = "http://localhost:5000"
	DefaultRemoteTimeout       = 30 * time.Second
)

// Config holds application configuration for prediction-api. It is read once at
// startup and treated as immutable afterwards.
type Config struct {
	Port                     string        `mapstructure:"PORT" validate:"required"`
	FinancialServiceURL      string        `mapstructure:"FINANCIAL_SERVICE_URL" validate:"required,url"`
	RemoteTimeout            time.Duration `mapstructure:"REMOTE_TIMEOUT" validate:"gt=0"`
	HealthProbeTimeout       time.Duration `mapstructure:"HEALTH_PROBE_TIMEOUT" validate:"gt=0"`
	MlRateLimitPerSec        int           `mapstructure:"ML_RATE_LIMIT_PER_SEC" validate:"min=0"`
	MlRequestBurst           int           `mapstructure:"ML_REQUEST_BURST" validate:"min=0"`
	MlRequestMaxThrottleWait time.Duration `mapstructure:"ML_REQUEST_MAX_THROTTLE_WAIT" validate:"gte=0"` // Throttle wait guard: if a token takes longer than this, score locally
	RedisAddr                string        `mapstructure:"REDIS_ADDR"`
	RedisPassword            string        `mapstructure:"REDIS_PASSWORD"`
	RedisRateLimitKey        string        `mapstructure:"REDIS_RATE_LIMIT_KEY" validate:"required_with=RedisAddr"`
	RedisRateLimitTTL        time.Duration `mapstructure:"REDIS_RATE_LIMIT_TTL" validate:"required_with=RedisAddr"`
}

func Load(logger *zap.Logger) (*Config, error) {
	viper.SetEnvPrefix("app") // Prefix for env vars
	viper.AutomaticEnv()

	// Default values
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("FINANCIAL_SERVICE_URL", DefaultFinancialServiceURL)
	viper.SetDefault("REMOTE_TIMEOUT", DefaultRemoteTimeout.String())
	viper.SetDefault("HEALTH_PROBE_TIMEOUT", "2s")
	viper.SetDefault("ML_RATE_LIMIT_PER_SEC", "0") // 0 disables the scorer throttle
	viper.SetDefault("ML_REQUEST_BURST", "50")
	viper.SetDefault("ML_REQUEST_MAX_THROTTLE_WAIT", "1s")
	viper.SetDefault("REDIS_RATE_LIMIT_KEY", "fraud_gateway:scorer_rate")
	viper.SetDefault("REDIS_RATE_LIMIT_TTL", "1s")

	// Optional: Read from config.yaml if exists
	if gin.ReleaseMode == gin.Mode() {
		viper.SetConfigName("config.prod")
	} else if gin.TestMode == gin.Mode() {
		viper.SetConfigName("config.test")
	} else {
		logger.Warn("running_in_development_mode")
		viper.SetConfigName("config.dev")
	}
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./services/prediction-api/configs")
	_ = viper.ReadInConfig() // Ignore if no file

	var cfg Config
	if err := utils.ParseStructEnv(&cfg); err != nil {
		return nil, err
	}
	// The scorer address was historically exported without the APP_ prefix.
	if err := viper.BindEnv("FINANCIAL_SERVICE_URL", "APP_FINANCIAL_SERVICE_URL", "FINANCIAL_SERVICE_URL"); err != nil {
		return nil, err
	}
	cfg.FinancialServiceURL = viper.GetString("FINANCIAL_SERVICE_URL")

	// Validate after unmarshal
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, utils.FormatConfigErrors(logger, err, cfg)
	}
	return &cfg, nil
}
