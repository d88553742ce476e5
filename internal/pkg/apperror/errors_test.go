package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap_KeepsCauseAndStatus(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(cause, ErrCodeRemoteWriteFailed, "не удалось сохранить закладку")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusBadGateway, err.HTTPStatus)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestIs_ThroughFmtWrapping(t *testing.T) {
	err := fmt.Errorf("engagement: %w", ErrAlreadyBookmarked)

	assert.True(t, IsAlreadyExists(err))
	assert.False(t, IsNotFound(err))
	assert.Equal(t, ErrCodeAlreadyExists, CodeOf(err))
}

func TestCodeOf_PlainError(t *testing.T) {
	assert.Equal(t, ErrCodeInternal, CodeOf(errors.New("boom")))
}

func TestStatusMapping(t *testing.T) {
	cases := map[ErrorCode]int{
		ErrCodeUnauthenticated:      http.StatusUnauthorized,
		ErrCodeForbidden:            http.StatusForbidden,
		ErrCodeNotFound:             http.StatusNotFound,
		ErrCodeAlreadyExists:        http.StatusConflict,
		ErrCodeConfirmationRequired: http.StatusBadRequest,
		ErrCodeTimeout:              http.StatusGatewayTimeout,
		ErrCodeNotSupported:         http.StatusNotImplemented,
		ErrCodePartialCascade:       http.StatusBadGateway,
		ErrCodeInternal:             http.StatusInternalServerError,
	}
	for code, status := range cases {
		assert.Equal(t, status, New(code, "x").HTTPStatus, code)
	}
}
