package pkg

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestToErrorResponse(t *testing.T) {
	logger := zaptest.NewLogger(t)

	t.Run("invalid input", func(t *testing.T) {
		err := fmt.Errorf("handler: %w", NewInvalidInputError(errors.New("data is empty")))

		resp := ToErrorResponse(logger, "trace", err)

		assert.Equal(t, http.StatusBadRequest, resp.Status)
		assert.Equal(t, "Invalid data provided", resp.Error)
		assert.Equal(t, "APP_INVALID_INPUT", resp.Code)
		assert.True(t, IsInvalidInput(err))
	})

	t.Run("unknown error", func(t *testing.T) {
		err := errors.New("boom")

		resp := ToErrorResponse(logger, "trace", err)

		assert.Equal(t, http.StatusInternalServerError, resp.Status)
		assert.Equal(t, "Internal server error during prediction", resp.Error)
		assert.Equal(t, "APP_INTERNAL", resp.Code)
		assert.False(t, IsInvalidInput(err))
	})
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("root")
	err := NewAppError(ErrServerCode, "wrapped", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "wrapped: root", err.Error())
	assert.Equal(t, "wrapped", NewAppError(ErrServerCode, "wrapped", nil).Error())
}
