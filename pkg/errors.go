package pkg

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var ExposeErrorDetails = false

func init() {
	if gin.DebugMode == gin.Mode() || gin.TestMode == gin.Mode() {
		ExposeErrorDetails = true
	}
}

// Reusable errors
var (
	ErrRemoteUnavailable = errors.New("remote scorer unavailable")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// ErrorCode defines a standardized error code
type ErrorCode struct {
	Code    string
	Status  int
	Message string // default message
}

var (
	ErrInvalidInputCode = ErrorCode{Code: "APP_INVALID_INPUT", Status: http.StatusBadRequest, Message: "Invalid data provided"}
	ErrServerCode       = ErrorCode{Code: "APP_INTERNAL", Status: http.StatusInternalServerError, Message: "Internal server error during prediction"}
)

type AppError struct {
	Code    ErrorCode
	Message string // public-facing message
	Cause   error  // internal cause (wrapped)
}

func (e AppError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}
func (e AppError) Unwrap() error { return e.Cause }

func NewAppError(code ErrorCode, msg string, cause error) error {
	return AppError{Code: code, Message: msg, Cause: cause}
}

// NewInvalidInputError wraps cause with the invalid input code and its default message.
func NewInvalidInputError(cause error) error {
	return NewAppError(ErrInvalidInputCode, ErrInvalidInputCode.Message, cause)
}

// IsInvalidInput reports whether err carries the invalid input code.
func IsInvalidInput(err error) bool {
	var appErr AppError
	return errors.As(err, &appErr) && appErr.Code.Code == ErrInvalidInputCode.Code
}

// ErrorResponse defines the standardized error response format
type ErrorResponse struct {
	Status  int    `json:"-"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// ToErrorResponse converts an error into an ErrorResponse, logging details and optionally exposing error messages.
// If the error is not an AppError, it is converted to a generic 500 error.
func ToErrorResponse(logger *zap.Logger, traceID string, err error) ErrorResponse {
	var appErr AppError
	if errors.As(err, &appErr) {
		resp := ErrorResponse{
			Status: appErr.Code.Status,
			Code:   appErr.Code.Code,
			Error:  appErr.Message,
		}
		if appErr.Code.Status >= http.StatusInternalServerError {
			logger.Error("application error", zap.String(TraceId, traceID), zap.Error(err))
		} else {
			logger.Warn("request rejected", zap.String(TraceId, traceID), zap.Error(err))
		}
		if ExposeErrorDetails && appErr.Cause != nil {
			resp.Details = appErr.Cause.Error()
		}
		return resp
	}
	// Unknown error : 500
	resp := ErrorResponse{
		Status: ErrServerCode.Status,
		Code:   ErrServerCode.Code,
		Error:  ErrServerCode.Message,
	}
	logger.Error("application error", zap.String(TraceId, traceID), zap.Error(err))
	if ExposeErrorDetails {
		resp.Details = err.Error()
	}
	return resp
}
