package pkg

const HeaderTraceId string = "X-Trace-Id"

const TraceId string = "trace_id"

// PredictionSource identifies which scorer produced a response.
type PredictionSource string

const (
	PredictionSourceRemote   PredictionSource = "remote"
	PredictionSourceFallback PredictionSource = "fallback"
)
