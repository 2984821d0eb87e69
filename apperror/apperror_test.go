package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	for _, tc := range []struct {
		err  *AppError
		want int
	}{
		{NewDatabaseError("db", nil), http.StatusInternalServerError},
		{NewConfigError("cfg", nil), http.StatusInternalServerError},
		{NewAuthError("auth", nil), http.StatusUnauthorized},
		{NewNotFoundError("nf", nil), http.StatusNotFound},
		{NewValidationError("invalid", nil), http.StatusBadRequest},
		{NewBadRequestError("bad", nil), http.StatusBadRequest},
		{NewMethodNotAllowedError("POST"), http.StatusMethodNotAllowed},
		{NewInternalError("boom", nil), http.StatusInternalServerError},
		{NewAppError(UnknownError, "?", nil), http.StatusInternalServerError},
	} {
		assert.Equal(t, tc.want, tc.err.StatusCode(), tc.err.Message)
	}
}

func TestErrorAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewDatabaseError("failed to get user", cause)

	assert.Equal(t, "failed to get user: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "plain", NewBadRequestError("plain", nil).Error())
}

func TestToResponseHidesCause(t *testing.T) {
	err := NewValidationError("invalid input", errors.New("secret detail")).
		WithField("email", "user with this email already exists.").
		WithField("email", "second message")

	resp := err.ToResponse()
	assert.Equal(t, "invalid input", resp.Error)
	assert.Equal(t, []string{"user with this email already exists.", "second message"}, resp.Fields["email"])
}

func TestFromErrorFollowsWrapping(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", NewNotFoundError("user not found", nil))

	appErr, ok := FromError(wrapped)
	assert.True(t, ok)
	assert.Equal(t, NotFoundError, appErr.Type)
	assert.False(t, IsAuthError(wrapped))

	_, ok = FromError(errors.New("plain"))
	assert.False(t, ok)
	_, ok = FromError(nil)
	assert.False(t, ok)
}

func TestTypeHelpers(t *testing.T) {
	assert.True(t, IsAuthError(NewAuthError("x", nil)))
	assert.True(t, IsValidationError(NewValidationError("x", nil)))
	assert.True(t, IsConfigError(NewConfigError("x", nil)))
	assert.False(t, IsAuthError(errors.New("x")))
}
