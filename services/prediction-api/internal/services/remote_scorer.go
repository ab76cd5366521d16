package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/nimeshabuddhika/fraud-prediction-gateway/pkg"
	"github.com/nimeshabuddhika/fraud-prediction-gateway/pkg/views"
	"github.com/nimeshabuddhika/fraud-prediction-gateway/services/prediction-api/internal/observability"
	"go.uber.org/zap"
)

const (
	predictPath = "/predict"
	healthPath  = "/health"

	// upper bound of an error body copied into logs
	maxLoggedErrorBody = 4 << 10
)

// RemoteFailureReason classifies why the remote scorer produced no usable answer.
type RemoteFailureReason string

const (
	ReasonThrottled RemoteFailureReason = "throttled"
	ReasonEncode    RemoteFailureReason = "encode"
	ReasonTransport RemoteFailureReason = "transport"
	ReasonTimeout   RemoteFailureReason = "timeout"
	ReasonStatus    RemoteFailureReason = "status"
	ReasonDecode    RemoteFailureReason = "decode"
)

// RemoteFailure is a recoverable remote scorer failure. It always matches pkg.ErrRemoteUnavailable.
type RemoteFailure struct {
	Reason     RemoteFailureReason
	StatusCode int
	Cause      error
}

func (e *RemoteFailure) Error() string {
	msg := fmt.Sprintf("%s (%s)", pkg.ErrRemoteUnavailable, e.Reason)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s: status %d", msg, e.StatusCode)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *RemoteFailure) Unwrap() []error {
	if e.Cause == nil {
		return []error{pkg.ErrRemoteUnavailable}
	}
	return []error{pkg.ErrRemoteUnavailable, e.Cause}
}

// RemoteScorer sends a batch to the external fraud scoring service.
type RemoteScorer interface {
	// Score makes exactly one call. On success the body is returned verbatim;
	// every failure is a *RemoteFailure.
	Score(ctx context.Context, traceID string, batch []views.TransactionRecord) (json.RawMessage, error)
	// Probe checks the scorer's health endpoint.
	Probe(ctx context.Context) error
	BaseURL() string
}

// RemoteScorerConfig holds configuration for the remote scorer client.
type RemoteScorerConfig struct {
	Logger          *zap.Logger
	BaseURL         string
	Timeout         time.Duration
	ProbeTimeout    time.Duration
	HTTPClient      *http.Client
	Limiter         *pkg.DistributedLimiter // optional
	MaxThrottleWait time.Duration
}

type remoteScorer struct {
	logger          *zap.Logger
	baseURL         string
	timeout         time.Duration
	probeTimeout    time.Duration
	client          *http.Client
	limiter         *pkg.DistributedLimiter
	maxThrottleWait time.Duration
}

// NewRemoteScorer creates a RemoteScorer for cfg.BaseURL.
func NewRemoteScorer(cfg RemoteScorerConfig) RemoteScorer {
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return &remoteScorer{
		logger:          cfg.Logger,
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		timeout:         cfg.Timeout,
		probeTimeout:    cfg.ProbeTimeout,
		client:          client,
		limiter:         cfg.Limiter,
		maxThrottleWait: cfg.MaxThrottleWait,
	}
}

func (r *remoteScorer) BaseURL() string {
	return r.baseURL
}

func (r *remoteScorer) Score(ctx context.Context, traceID string, batch []views.TransactionRecord) (json.RawMessage, error) {
	// The throttle wait counts against the scorer deadline.
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	if err := r.limiter.Wait(ctx, r.maxThrottleWait); err != nil {
		return nil, &RemoteFailure{Reason: ReasonThrottled, Cause: err}
	}

	body, err := json.Marshal(views.PredictionBatchRequest{Data: batch})
	if err != nil {
		return nil, &RemoteFailure{Reason: ReasonEncode, Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+predictPath, bytes.NewReader(body))
	if err != nil {
		return nil, &RemoteFailure{Reason: ReasonTransport, Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if traceID != "" {
		req.Header.Set(pkg.HeaderTraceId, traceID)
	}

	r.logger.Debug("calling_remote_scorer", zap.String(pkg.TraceId, traceID), zap.String("url", req.URL.String()), zap.Int("records", len(batch)))

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		observability.RemoteLatency.Observe(time.Since(start).Seconds())
		return nil, &RemoteFailure{Reason: transportReason(err), Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxLoggedErrorBody))
		observability.RemoteLatency.Observe(time.Since(start).Seconds())
		r.logger.Warn("remote_scorer_error_response",
			zap.String(pkg.TraceId, traceID),
			zap.Int("status", resp.StatusCode),
			zap.String("status_text", resp.Status),
			zap.ByteString("body", errBody))
		return nil, &RemoteFailure{Reason: ReasonStatus, StatusCode: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	observability.RemoteLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, &RemoteFailure{Reason: transportReason(err), StatusCode: resp.StatusCode, Cause: err}
	}
	if !json.Valid(raw) {
		return nil, &RemoteFailure{Reason: ReasonDecode, StatusCode: resp.StatusCode, Cause: errors.New("response body is not valid JSON")}
	}
	return json.RawMessage(raw), nil
}

func (r *remoteScorer) Probe(ctx context.Context) error {
	if r.probeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.probeTimeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+healthPath, nil)
	if err != nil {
		return err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxLoggedErrorBody))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("remote scorer health returned status: %d", resp.StatusCode)
	}
	return nil
}

func transportReason(err error) RemoteFailureReason {
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimeout
	}
	return ReasonTransport
}
