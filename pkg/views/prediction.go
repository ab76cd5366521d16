package views

import (
	"encoding/json"
	"fmt"
	"io"
)

// Field names the fallback scorer reads and writes.
const (
	FieldTransactionAmt = "TransactionAmt"
	FieldCardNetwork    = "card4"
	FieldPrediction     = "prediction"
)

const (
	PredictionNotFraud = 0
	PredictionFraud    = 1
)

// TransactionRecord is an open field->scalar mapping. Fields other than
// TransactionAmt and card4 are opaque and passed through untouched.
type TransactionRecord map[string]any

// PredictionResult is a TransactionRecord carrying an extra "prediction" field (0 or 1).
type PredictionResult map[string]any

// PredictionBatchRequest is the body accepted by the predict endpoint and forwarded to the remote scorer.
type PredictionBatchRequest struct {
	Data []TransactionRecord `json:"data" validate:"required,min=1,dive,required"`
}

// PredictionResponse is the body returned for a scored batch.
type PredictionResponse struct {
	Success     bool               `json:"success"`
	Predictions []PredictionResult `json:"predictions"`
	Fallback    bool               `json:"fallback"`
	Message     string             `json:"message,omitempty"`
}

// DecodePredictionBatch reads a {"data": [...]} body. Numbers are kept as json.Number
// so pass-through fields are re-encoded exactly as received.
func DecodePredictionBatch(r io.Reader) (PredictionBatchRequest, error) {
	var req PredictionBatchRequest
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("decode prediction batch: %w", err)
	}
	if dec.More() {
		return req, fmt.Errorf("decode prediction batch: unexpected data after body")
	}
	return req, nil
}
