package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBodyOfClassifiedError(t *testing.T) {
	err := fmt.Errorf("login: %w", Unauthorized("Invalid email or password"))

	body := BodyOf(err)
	assert.False(t, body.Success)
	assert.Equal(t, http.StatusUnauthorized, body.StatusCode)
	assert.Equal(t, "Invalid email or password", body.Message)
	assert.Equal(t, http.StatusUnauthorized, StatusOf(err))
}

func TestBodyOfUnknownErrorHidesCause(t *testing.T) {
	body := BodyOf(errors.New("pq: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, body.StatusCode)
	assert.Equal(t, "Internal server error", body.Message)
}

func TestWrapKeepsClientMessage(t *testing.T) {
	cause := errors.New("signature is invalid")
	err := Unauthorized("Unauthorized").Wrap(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Unauthorized", BodyOf(err).Message)
	assert.Contains(t, err.Error(), "signature is invalid")
}

func TestWrappedErrorMatchesSentinel(t *testing.T) {
	sentinel := Unauthorized("Unauthorized")
	err := fmt.Errorf("guard: %w", sentinel.Wrap(errors.New("token expired")))

	assert.ErrorIs(t, err, sentinel)
	assert.NotErrorIs(t, err, Unauthorized("Invalid refresh token"))
	assert.NotErrorIs(t, err, Forbidden("Unauthorized"))
}
