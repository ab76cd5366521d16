package app

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/fraud-prediction-gateway/pkg"
	"github.com/nimeshabuddhika/fraud-prediction-gateway/services/prediction-api/configs"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func testConfig(remoteURL string) *configs.Config {
	return &configs.Config{
		Port:                     "0",
		FinancialServiceURL:      remoteURL,
		RemoteTimeout:            200 * time.Millisecond,
		HealthProbeTimeout:       200 * time.Millisecond,
		MlRateLimitPerSec:        0,
		MlRequestMaxThrottleWait: 0,
	}
}

func zeroNoise() float64 { return 0 }

func postPredict(t *testing.T, r http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPredict_RemoteSuccessPassesThrough(t *testing.T) {
	const remoteBody = `{"success":true,"predictions":[{"TransactionID":2987000,"TransactionAmt":68.5,"prediction":0}],"fallback":false,"model_used":true}`

	forwarded := make(chan []byte, 1)
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		forwarded <- body
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, remoteBody)
	}))
	defer remote.Close()

	r := NewRouter(zaptest.NewLogger(t), testConfig(remote.URL), nil, zeroNoise)
	w := postPredict(t, r, "/api/predict", `{"data":[{"TransactionID":2987000,"TransactionAmt":68.5,"card4":"discover","V1":12345678901234567890}]}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, remoteBody, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(pkg.HeaderTraceId))

	// numbers are forwarded exactly as received
	assert.JSONEq(t, `{"data":[{"TransactionID":2987000,"TransactionAmt":68.5,"card4":"discover","V1":12345678901234567890}]}`, string(<-forwarded))
}

func TestPredict_DefaultConfigUsesHealthyRemoteForEveryRequest(t *testing.T) {
	const remoteBody = `{"predictions":[{"prediction":0}],"fallback":false}`
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, remoteBody)
	}))
	defer remote.Close()

	viper.Reset()
	t.Setenv("APP_FINANCIAL_SERVICE_URL", remote.URL)
	logger := zaptest.NewLogger(t)
	cfg, err := configs.Load(logger)
	require.NoError(t, err)

	r := NewRouter(logger, cfg, nil, zeroNoise)

	const requests = 200
	bodies := make(chan string, requests)
	var wg sync.WaitGroup
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/api/predict", bytes.NewBufferString(`{"data":[{"TransactionAmt":10}]}`))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			bodies <- w.Body.String()
		}()
	}
	wg.Wait()
	close(bodies)

	for body := range bodies {
		assert.Equal(t, remoteBody, body)
	}
}

func TestPredict_FallbackWhenRemoteFails(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusServiceUnavailable)
	}))
	defer remote.Close()

	r := NewRouter(zaptest.NewLogger(t), testConfig(remote.URL), nil, zeroNoise)
	w := postPredict(t, r, "/api/v1/predict", `{"data":[{"TransactionAmt":"750","card4":"visa","ProductCD":"W"},{"card4":"mastercard"}]}`)

	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Success     bool             `json:"success"`
		Predictions []map[string]any `json:"predictions"`
		Fallback    bool             `json:"fallback"`
		Message     string           `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.True(t, out.Success)
	assert.True(t, out.Fallback)
	assert.Equal(t, "Using fallback prediction (remote service unavailable)", out.Message)
	require.Len(t, out.Predictions, 2)
	assert.Equal(t, map[string]any{"TransactionAmt": "750", "card4": "visa", "ProductCD": "W", "prediction": float64(0)}, out.Predictions[0])
	assert.Equal(t, map[string]any{"card4": "mastercard", "prediction": float64(0)}, out.Predictions[1])
}

func TestPredict_FallbackWhenRemoteTimesOut(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(3 * time.Second):
		}
	}))
	defer remote.Close()

	r := NewRouter(zaptest.NewLogger(t), testConfig(remote.URL), nil, zeroNoise)
	w := postPredict(t, r, "/api/predict", `{"data":[{"TransactionAmt":10}]}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"fallback":true`)
	assert.Contains(t, w.Body.String(), `"message":"Using fallback prediction (remote service unavailable)"`)
}

func TestPredict_InvalidInput(t *testing.T) {
	var calls atomic.Int32
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer remote.Close()

	r := NewRouter(zaptest.NewLogger(t), testConfig(remote.URL), nil, zeroNoise)

	bodies := map[string]string{
		"empty data":      `{"data":[]}`,
		"missing data":    `{}`,
		"null data":       `{"data":null}`,
		"data not a list": `{"data":{"TransactionAmt":1}}`,
		"scalar records":  `{"data":[1,2]}`,
		"malformed json":  `{"data":[`,
		"empty body":      ``,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			w := postPredict(t, r, "/api/predict", body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var out pkg.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
			assert.Equal(t, "Invalid data provided", out.Error)
			assert.Equal(t, pkg.ErrInvalidInputCode.Code, out.Code)
		})
	}
	assert.Zero(t, calls.Load())
}

func TestPredict_TraceIDIsEchoed(t *testing.T) {
	r := NewRouter(zaptest.NewLogger(t), testConfig("http://127.0.0.1:1"), nil, zeroNoise)

	req := httptest.NewRequest(http.MethodPost, "/api/predict", bytes.NewBufferString(`{"data":[{"TransactionAmt":1}]}`))
	req.Header.Set(pkg.HeaderTraceId, "trace-from-client")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "trace-from-client", w.Header().Get(pkg.HeaderTraceId))
}

func TestBaseRoutes(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"healthy"}`)
	}))
	defer remote.Close()

	r := NewRouter(zaptest.NewLogger(t), testConfig(remote.URL), nil, zeroNoise)

	t.Run("info", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"Fraud Detection API","status":"running","version":"1.0.0"}`, w.Body.String())
	})

	t.Run("health with reachable scorer", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok","remoteScorer":{"url":"`+remote.URL+`","reachable":true}}`, w.Body.String())
	})

	t.Run("health with unreachable scorer", func(t *testing.T) {
		down := NewRouter(zaptest.NewLogger(t), testConfig("http://127.0.0.1:1"), nil, zeroNoise)
		w := httptest.NewRecorder()
		down.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"reachable":false`)
	})

	t.Run("metrics", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "fraud_gateway_http_requests_total")
	})
}
