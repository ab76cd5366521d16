package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"

	"github.com/nimeshabuddhika/fraud-prediction-gateway/pkg/views"
)

// Heuristic weights. Amount tiers use strict comparisons, so an amount equal
// to a threshold falls into the tier below it.
const (
	HighAmountThreshold   = 500.0
	MediumAmountThreshold = 200.0
	LowAmountThreshold    = 100.0

	HighAmountRisk   = 0.3
	MediumAmountRisk = 0.2
	LowAmountRisk    = 0.1

	VisaRisk       = 0.1
	MastercardRisk = 0.05

	MaxNoise       = 0.3
	FraudThreshold = 0.5

	CardNetworkVisa       = "visa"
	CardNetworkMastercard = "mastercard"
	CardNetworkUnknown    = "unknown"
)

// NoiseFunc returns the noise term added to every risk score, in [0, MaxNoise).
type NoiseFunc func() float64

// UniformNoise draws from the shared, goroutine-safe math/rand/v2 source.
func UniformNoise() float64 {
	return rand.Float64() * MaxNoise
}

// FallbackScorer labels records locally when the remote scorer is unavailable.
// It never rejects a record: unreadable fields degrade to defaults.
type FallbackScorer struct {
	noise NoiseFunc
}

// NewFallbackScorer creates a FallbackScorer. A nil noise uses UniformNoise.
func NewFallbackScorer(noise NoiseFunc) *FallbackScorer {
	if noise == nil {
		noise = UniformNoise
	}
	return &FallbackScorer{noise: noise}
}

// Predict returns one result per record, in input order. Each result is a shallow
// copy of the record with "prediction" set.
func (f *FallbackScorer) Predict(batch []views.TransactionRecord) []views.PredictionResult {
	results := make([]views.PredictionResult, len(batch))
	for i, record := range batch {
		result := make(views.PredictionResult, len(record)+1)
		for k, v := range record {
			result[k] = v
		}
		result[views.FieldPrediction] = Label(f.RiskScore(record))
		results[i] = result
	}
	return results
}

// RiskScore is BaseRiskScore plus one draw of the noise term.
func (f *FallbackScorer) RiskScore(record views.TransactionRecord) float64 {
	return BaseRiskScore(TransactionAmount(record), CardNetwork(record)) + f.noise()
}

// BaseRiskScore is the deterministic part of the heuristic.
func BaseRiskScore(amount float64, cardNetwork string) float64 {
	score := 0.0
	switch {
	case amount > HighAmountThreshold:
		score += HighAmountRisk
	case amount > MediumAmountThreshold:
		score += MediumAmountRisk
	case amount > LowAmountThreshold:
		score += LowAmountRisk
	}

	switch cardNetwork {
	case CardNetworkVisa:
		score += VisaRisk
	case CardNetworkMastercard:
		score += MastercardRisk
	}
	return score
}

// Label thresholds a risk score into 0 (not fraud) or 1 (fraud).
func Label(riskScore float64) int {
	if riskScore > FraudThreshold {
		return views.PredictionFraud
	}
	return views.PredictionNotFraud
}

// TransactionAmount reads TransactionAmt as a float. Strings are read by their leading
// decimal number; missing or unparseable values are 0.
func TransactionAmount(record views.TransactionRecord) float64 {
	v, ok := record[views.FieldTransactionAmt]
	if !ok || v == nil {
		return 0
	}

	var raw string
	switch t := v.(type) {
	case float64:
		return nanToZero(t)
	case json.Number:
		raw = t.String()
	case string:
		raw = t
	default:
		raw = fmt.Sprint(t)
	}

	return parseAmountPrefix(raw)
}

// decimalPrefix matches the leading decimal literal of an amount. Hex literals and
// spellings such as "inf" or "1_000" only contribute their leading decimal digits.
var decimalPrefix = regexp.MustCompile(`^[+-]?(?:Infinity|(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?)`)

// parseAmountPrefix reads the longest decimal prefix of raw, so "12abc" is 12 and
// "0x1p9" is 0. Anything without a numeric prefix is 0.
func parseAmountPrefix(raw string) float64 {
	literal := decimalPrefix.FindString(strings.TrimLeft(raw, " \t\n\r\v\f"))
	if literal == "" {
		return 0
	}
	switch strings.TrimLeft(literal, "+") {
	case "Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	amount, err := strconv.ParseFloat(literal, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0
	}
	return nanToZero(amount)
}

// CardNetwork reads card4 as a string. Missing or empty values become "unknown".
func CardNetwork(record views.TransactionRecord) string {
	v, ok := record[views.FieldCardNetwork]
	if !ok || v == nil {
		return CardNetworkUnknown
	}

	var network string
	switch t := v.(type) {
	case string:
		network = t
	case json.Number:
		network = t.String()
	default:
		network = fmt.Sprint(t)
	}
	if network == "" {
		return CardNetworkUnknown
	}
	return network
}

// NaN reads as 0; infinities keep their sign so they still land in a tier.
func nanToZero(f float64) float64 {
	if math.IsNaN(f) {
		return 0
	}
	return f
}
