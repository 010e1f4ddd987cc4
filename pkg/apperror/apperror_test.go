package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInsufficientStockDetails(t *testing.T) {
	err := InsufficientStock("SKU-1", 5, 3)

	assert.Equal(t, CodeInsufficientStock, err.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, err.HTTPStatus)
	assert.Equal(t, "5", err.Details["requested"])
	assert.Equal(t, "3", err.Details["available"])
	assert.Contains(t, err.Message, "SKU-1")
}

func TestFromWrapsUnknownErrors(t *testing.T) {
	cause := errors.New("connection refused")

	err := From(cause)

	assert.Equal(t, CodeInternal, err.Code)
	assert.ErrorIs(t, err, cause)
	assert.NotContains(t, err.Message, "connection refused")
}

func TestFromKeepsWrappedAppError(t *testing.T) {
	wrapped := fmt.Errorf("post: %w", Conflict("only draft purchases can be posted"))

	err := From(wrapped)

	assert.Equal(t, CodeConflict, err.Code)
	assert.True(t, Is(wrapped, CodeConflict))
	assert.False(t, Is(wrapped, CodeNotFound))
	assert.Nil(t, From(nil))
}
