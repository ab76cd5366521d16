package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/nimeshabuddhika/fraud-prediction-gateway/pkg"
	"github.com/nimeshabuddhika/fraud-prediction-gateway/pkg/views"
	"github.com/nimeshabuddhika/fraud-prediction-gateway/services/prediction-api/internal/observability"
	"go.uber.org/zap"
)

const FallbackMessage = "Using fallback prediction (remote service unavailable)"

// PredictionOutcome is the answer for one batch. Exactly one of Remote or Fallback is set.
type PredictionOutcome struct {
	Source pkg.PredictionSource
	// Remote is the remote scorer's body, forwarded without modification.
	Remote json.RawMessage
	// Fallback is the locally computed response.
	Fallback *views.PredictionResponse
}

// PredictionService scores a batch remotely and degrades to the local heuristic.
type PredictionService interface {
	Predict(ctx context.Context, traceID string, req views.PredictionBatchRequest) (*PredictionOutcome, error)
}

// PredictionServiceConfig holds dependencies for the prediction service.
type PredictionServiceConfig struct {
	Logger   *zap.Logger
	Remote   RemoteScorer
	Fallback *FallbackScorer
}

type predictionService struct {
	logger   *zap.Logger
	remote   RemoteScorer
	fallback *FallbackScorer
	validate *validator.Validate
}

// NewPredictionService creates a PredictionService. A nil Fallback uses the default noise source.
func NewPredictionService(cfg PredictionServiceConfig) PredictionService {
	fallback := cfg.Fallback
	if fallback == nil {
		fallback = NewFallbackScorer(nil)
	}
	return &predictionService{
		logger:   cfg.Logger,
		remote:   cfg.Remote,
		fallback: fallback,
		validate: validator.New(),
	}
}

// remoteAttempt is the result of step one: either a body or the reason there is none.
type remoteAttempt struct {
	body    json.RawMessage
	failure *RemoteFailure
}

func (a remoteAttempt) ok() bool {
	return a.failure == nil
}

// Predict validates the batch, tries the remote scorer once and, on any remote
// failure, labels the full batch with the fallback heuristic. Remote failures are
// never returned to the caller.
func (p *predictionService) Predict(ctx context.Context, traceID string, req views.PredictionBatchRequest) (*PredictionOutcome, error) {
	if err := p.validate.Struct(req); err != nil {
		return nil, pkg.NewInvalidInputError(err)
	}
	observability.BatchSize.Observe(float64(len(req.Data)))

	attempt := p.tryRemote(ctx, traceID, req.Data)
	if attempt.ok() {
		p.recordScored(pkg.PredictionSourceRemote, len(req.Data))
		return &PredictionOutcome{Source: pkg.PredictionSourceRemote, Remote: attempt.body}, nil
	}

	observability.RemoteFailures.WithLabelValues(string(attempt.failure.Reason)).Inc()
	p.logger.Warn("remote_scorer_unavailable_using_fallback",
		zap.String(pkg.TraceId, traceID),
		zap.String("reason", string(attempt.failure.Reason)),
		zap.Int("records", len(req.Data)),
		zap.Error(attempt.failure))

	predictions := p.fallback.Predict(req.Data)
	for _, prediction := range predictions {
		observability.FallbackFraudLabels.WithLabelValues(strconv.Itoa(prediction[views.FieldPrediction].(int))).Inc()
	}
	p.recordScored(pkg.PredictionSourceFallback, len(predictions))

	return &PredictionOutcome{
		Source: pkg.PredictionSourceFallback,
		Fallback: &views.PredictionResponse{
			Success:     true,
			Predictions: predictions,
			Fallback:    true,
			Message:     FallbackMessage,
		},
	}, nil
}

func (p *predictionService) tryRemote(ctx context.Context, traceID string, batch []views.TransactionRecord) remoteAttempt {
	if p.remote == nil {
		return remoteAttempt{failure: &RemoteFailure{Reason: ReasonTransport, Cause: errors.New("no remote scorer configured")}}
	}
	body, err := p.remote.Score(ctx, traceID, batch)
	if err == nil {
		return remoteAttempt{body: body}
	}
	var failure *RemoteFailure
	if !errors.As(err, &failure) {
		failure = &RemoteFailure{Reason: ReasonTransport, Cause: err}
	}
	return remoteAttempt{failure: failure}
}

func (p *predictionService) recordScored(source pkg.PredictionSource, records int) {
	observability.BatchesScored.WithLabelValues(string(source)).Inc()
	observability.RecordsScored.WithLabelValues(string(source)).Add(float64(records))
}
