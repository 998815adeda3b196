package session_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/2beens/gymclient/internal/apperrors"
	"github.com/2beens/gymclient/internal/session"
	"github.com/2beens/gymclient/internal/testinternals"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestOAuthLogin_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	validator := NewMockIDTokenValidator(ctrl)
	f := newFixture(t, func(p *session.Params) {
		p.GoogleValidator = validator
	})

	user := testinternals.FakeUser(21, false)
	f.backend.Handle(http.MethodPost, "/auth/google", testinternals.LoginHandler(user, "tkn-g"))
	validator.EXPECT().Validate(gomock.Any(), "google-id-token").Return(nil)

	res, err := f.store.OAuthLogin(context.Background(), "google-id-token")
	require.NoError(t, err)
	assert.Equal(t, 21, res.User.ID)

	assert.Equal(t, session.AuthGoogle, f.store.AuthMethod())
	assert.True(t, f.store.IsOAuthLinked())
	assert.Equal(t, f.ephemeral.Name(), f.store.ActiveTier())
	assertSessionInvariant(t, f.store)

	snap, ok := f.stored(t, f.ephemeral)
	require.True(t, ok)
	assert.Equal(t, string(session.AuthGoogle), snap.AuthMethod)
	f.assertTierEmpty(t, f.durable)

	req, ok := f.backend.LastRequest()
	require.True(t, ok)
	assert.JSONEq(t, `{"idToken": "google-id-token"}`, string(req.Body))
	assert.Equal(t, 1.0, f.sessionEvents(t, "oauth"))
}

func TestOAuthLogin_BackendFailures(t *testing.T) {
	cases := map[string]struct {
		status  int
		message string
		want    string
	}{
		"bad token": {
			status:  http.StatusBadRequest,
			message: "Invalid token",
			want:    "El token de Google no es válido o ha expirado",
		},
		"server misconfigured": {
			status:  http.StatusUnauthorized,
			message: "",
			want:    "La autenticación con Google no está configurada correctamente en el servidor",
		},
		"server error": {
			status:  http.StatusInternalServerError,
			message: "",
			want:    "Error en la autenticación con Google",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			f.backend.Handle(http.MethodPost, "/auth/google", func(w http.ResponseWriter, _ *http.Request) {
				testinternals.WriteError(w, tc.status, tc.message)
			})

			res, err := f.store.OAuthLogin(context.Background(), "google-id-token")
			require.Error(t, err)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, apperrors.ErrAuthentication)
			assert.Equal(t, tc.want, err.Error())
			assert.Equal(t, tc.want, f.store.Error())

			assert.Equal(t, session.StateAnonymous, f.store.State())
			assert.False(t, f.store.IsAuthenticated())
			f.assertTierEmpty(t, f.ephemeral)
			assert.Equal(t, 1.0, f.sessionEvents(t, "oauth_failed"))
		})
	}
}

func TestOAuthLogin_RejectedLocally(t *testing.T) {
	ctrl := gomock.NewController(t)
	validator := NewMockIDTokenValidator(ctrl)
	f := newFixture(t, func(p *session.Params) {
		p.GoogleValidator = validator
	})

	validator.EXPECT().
		Validate(gomock.Any(), "forged").
		Return(errors.New("idtoken: audience provided does not match aud claim"))

	_, err := f.store.OAuthLogin(context.Background(), "forged")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, "El token de Google no es válido o ha expirado", err.Error())
	assert.Empty(t, f.backend.Requests())
	assert.False(t, f.store.IsAuthenticated())
}

func TestOAuthLogin_EmptyToken(t *testing.T) {
	f := newFixture(t)

	_, err := f.store.OAuthLogin(context.Background(), "  ")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Empty(t, f.backend.Requests())
}
