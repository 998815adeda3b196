package apperrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromStatus(t *testing.T) {
	cases := []struct {
		status int
		kind   error
	}{
		{http.StatusUnauthorized, ErrAuthentication},
		{http.StatusForbidden, ErrAuthorization},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusBadRequest, ErrRemote},
		{http.StatusInternalServerError, ErrRemote},
	}

	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			err := FromStatus(tc.status, "backend says no")
			assert.ErrorIs(t, err, tc.kind)
			assert.Equal(t, tc.status, StatusOf(err))
			assert.Equal(t, "backend says no", err.Error())
		})
	}
}

func TestError_WrappedStillMatches(t *testing.T) {
	err := fmt.Errorf("update profile: %w", Policy("no email change"))
	assert.ErrorIs(t, err, ErrPolicy)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Equal(t, "no email change", Message(err))
}

func TestWithKind(t *testing.T) {
	err := WithKind(FromStatus(http.StatusBadRequest, "Credenciales inválidas"), ErrAuthentication)
	assert.ErrorIs(t, err, ErrAuthentication)
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.Equal(t, "Credenciales inválidas", err.Error())

	plain := WithKind(context.DeadlineExceeded, ErrAuthentication)
	assert.ErrorIs(t, plain, ErrAuthentication)
	assert.ErrorIs(t, plain, context.DeadlineExceeded)
	assert.Equal(t, GenericMessage, plain.Error())
}

func TestWithFallbackMessage(t *testing.T) {
	err := WithFallbackMessage(FromStatus(http.StatusBadGateway, ""), "Error al cargar logros")
	assert.Equal(t, "Error al cargar logros", err.Error())
	assert.ErrorIs(t, err, ErrRemote)

	err = WithFallbackMessage(FromStatus(http.StatusBadGateway, "upstream down"), "Error al cargar logros")
	assert.Equal(t, "upstream down", err.Error())

	other := errors.New("boom")
	assert.Equal(t, other, WithFallbackMessage(other, "fallback"))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "boom", Message(errors.New("boom")))
	assert.Equal(t, "remote error", (&Error{Kind: ErrRemote}).Error())
	assert.Equal(t, GenericMessage, (&Error{}).Error())
}
