package configs

import (
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestLoad_Defaults(t *testing.T) {
	gin.SetMode(gin.TestMode)
	viper.Reset()
	t.Setenv("APP_FINANCIAL_SERVICE_URL", "")
	t.Setenv("FINANCIAL_SERVICE_URL", "")

	cfg, err := Load(zaptest.NewLogger(t))

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DefaultFinancialServiceURL, cfg.FinancialServiceURL)
	assert.Equal(t, 30*time.Second, cfg.RemoteTimeout)
	assert.Equal(t, 2*time.Second, cfg.HealthProbeTimeout)
	assert.Equal(t, time.Second, cfg.MlRequestMaxThrottleWait)
	assert.Zero(t, cfg.MlRateLimitPerSec, "scorer throttle is opt-in")
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoad_ScorerURLFromEnv(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("unprefixed", func(t *testing.T) {
		viper.Reset()
		t.Setenv("APP_FINANCIAL_SERVICE_URL", "")
		t.Setenv("FINANCIAL_SERVICE_URL", "https://scorer.internal:8000")

		cfg, err := Load(zaptest.NewLogger(t))
		require.NoError(t, err)
		assert.Equal(t, "https://scorer.internal:8000", cfg.FinancialServiceURL)
	})

	t.Run("prefixed wins", func(t *testing.T) {
		viper.Reset()
		t.Setenv("APP_FINANCIAL_SERVICE_URL", "http://primary:5000")
		t.Setenv("FINANCIAL_SERVICE_URL", "http://secondary:5000")

		cfg, err := Load(zaptest.NewLogger(t))
		require.NoError(t, err)
		assert.Equal(t, "http://primary:5000", cfg.FinancialServiceURL)
	})
}

func TestLoad_Overrides(t *testing.T) {
	gin.SetMode(gin.TestMode)
	viper.Reset()
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_REMOTE_TIMEOUT", "5s")
	t.Setenv("APP_ML_RATE_LIMIT_PER_SEC", "7")

	cfg, err := Load(zaptest.NewLogger(t))

	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.RemoteTimeout)
	assert.Equal(t, 7, cfg.MlRateLimitPerSec)
}

func TestLoad_InvalidURL(t *testing.T) {
	gin.SetMode(gin.TestMode)
	viper.Reset()
	t.Setenv("APP_FINANCIAL_SERVICE_URL", "not a url")

	_, err := Load(zaptest.NewLogger(t))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "FINANCIAL_SERVICE_URL")
}
