package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, KindValidation.HTTPStatus())
	assert.Equal(t, http.StatusConflict, KindConflict.HTTPStatus())
	assert.Equal(t, http.StatusBadGateway, KindBadGateway.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, KindInternal.HTTPStatus())
}

func TestIsMatchesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("add to cart: %w", ErrInsufficientStock.WithDetails(map[string]any{"available": 2}))

	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.False(t, errors.Is(err, ErrProductNotFound))
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, 2, As(err).Details["available"])
}

func TestAsUnknownIsInternal(t *testing.T) {
	cause := errors.New("connection reset")
	appErr := As(cause)

	assert.Equal(t, KindInternal, appErr.Kind)
	assert.ErrorIs(t, appErr, cause)
}

func TestWithDetailsDoesNotMutateSentinel(t *testing.T) {
	_ = ErrCartNotOrderable.WithDetails(map[string]any{"items": 1})
	assert.Nil(t, ErrCartNotOrderable.Details)
}
