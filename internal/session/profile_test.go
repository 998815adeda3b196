package session_test

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/2beens/gymclient/internal/apperrors"
	"github.com/2beens/gymclient/internal/session"
	"github.com/2beens/gymclient/internal/storage"
	"github.com/2beens/gymclient/internal/testinternals"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loggedIn(t *testing.T, f *fixture, user map[string]any, method string) {
	t.Helper()
	f.seed(t, f.ephemeral, "tkn", user, method)
	f.backend.Handle(http.MethodGet, "/auth/verify", testinternals.EnvelopeHandler(http.StatusOK, user))
	f.store.Init(context.Background())
	require.True(t, f.store.IsAuthenticated())
}

func strPtr(s string) *string { return &s }

func TestUpdateProfile_GoogleAccountPolicy(t *testing.T) {
	cases := map[string]session.ProfileUpdate{
		"email":            {Email: strPtr("nuevo@correo.com")},
		"new password":     {NewPassword: "otra"},
		"current password": {CurrentPassword: "vieja"},
	}

	for name, update := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			loggedIn(t, f, testinternals.FakeUser(3, false), string(session.AuthGoogle))
			requestsBefore := len(f.backend.Requests())

			_, err := f.store.UpdateProfile(context.Background(), update)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrPolicy)
			assert.Contains(t, err.Error(), "Las cuentas vinculadas a Google")
			assert.Equal(t, err.Error(), f.store.Error())
			assert.Len(t, f.backend.Requests(), requestsBefore, "no request sent")
		})
	}
}

func TestUpdateProfile_LegacyGoogleTag(t *testing.T) {
	f := newFixture(t)
	loggedIn(t, f, testinternals.FakeUser(3, false), "oauth-google")
	assert.True(t, f.store.IsOAuthLinked())

	_, err := f.store.UpdateProfile(context.Background(), session.ProfileUpdate{Email: strPtr("x@y.com")})
	assert.ErrorIs(t, err, apperrors.ErrPolicy)
}

func TestUpdateProfile_GmailAddressIsNotOAuth(t *testing.T) {
	f := newFixture(t)
	user := testinternals.FakeUser(3, false)
	user["email"] = "someone@gmail.com"
	loggedIn(t, f, user, string(session.AuthCredentials))
	assert.False(t, f.store.IsOAuthLinked())

	f.backend.Handle(http.MethodPut, "/usuario/3", testinternals.JSONHandler(http.StatusOK, map[string]any{
		"success": true, "message": "Perfil actualizado",
	}))
	updated, err := f.store.UpdateProfile(context.Background(), session.ProfileUpdate{Email: strPtr("other@gmail.com")})
	require.NoError(t, err)
	assert.Equal(t, "other@gmail.com", updated.Email)
}

func TestUpdateProfile_PatchesSuppliedFields(t *testing.T) {
	f := newFixture(t)
	user := testinternals.FakeUser(3, false)
	loggedIn(t, f, user, string(session.AuthGoogle))

	f.backend.Handle(http.MethodPut, "/usuario/3", testinternals.JSONHandler(http.StatusOK, map[string]any{
		"success": true, "message": "Perfil actualizado",
	}))

	age := 31
	updated, err := f.store.UpdateProfile(context.Background(), session.ProfileUpdate{
		Name: strPtr("Lucía"),
		Age:  &age,
	})
	require.NoError(t, err)
	assert.Equal(t, "Lucía", updated.Name)
	assert.Equal(t, user["apellido"], updated.Surname)
	require.NotNil(t, updated.Age)
	assert.Equal(t, 31, *updated.Age)
	assert.Equal(t, "Lucía", f.store.User().Name)

	req, _ := f.backend.LastRequest()
	assert.Equal(t, "Bearer tkn", req.Header.Get("Authorization"))
	assert.JSONEq(t, `{"nombre": "Lucía", "edad": 31}`, string(req.Body))

	// re-serialized to the tier that holds the session
	snap, ok := f.stored(t, f.ephemeral)
	require.True(t, ok)
	var persisted session.User
	require.NoError(t, json.Unmarshal([]byte(snap.User), &persisted))
	assert.Equal(t, "Lucía", persisted.Name)
	f.assertTierEmpty(t, f.durable)
}

func TestUpdateProfile_ServerEchoWins(t *testing.T) {
	f := newFixture(t)
	loggedIn(t, f, testinternals.FakeUser(3, false), string(session.AuthCredentials))

	f.backend.Handle(http.MethodPut, "/usuario/3", testinternals.EnvelopeHandler(http.StatusOK, map[string]any{
		"usuarioID": 3,
		"nombre":    "Normalizado",
		"email":     "normalizado@correo.com",
	}))

	updated, err := f.store.UpdateProfile(context.Background(), session.ProfileUpdate{
		Name:  strPtr("  normalizado "),
		Email: strPtr("NORMALIZADO@correo.com"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Normalizado", updated.Name)
	assert.Equal(t, "normalizado@correo.com", updated.Email)
}

func TestUpdateProfile_Failure(t *testing.T) {
	f := newFixture(t)
	user := testinternals.FakeUser(3, false)
	loggedIn(t, f, user, string(session.AuthCredentials))
	f.backend.Handle(http.MethodPut, "/usuario/3", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := f.store.UpdateProfile(context.Background(), session.ProfileUpdate{Name: strPtr("Nadie")})
	require.Error(t, err)
	assert.Equal(t, "Error al actualizar el perfil", err.Error())
	assert.Equal(t, user["nombre"], f.store.User().Name, "user untouched")
}

func TestUpdateProfile_Anonymous(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.UpdateProfile(context.Background(), session.ProfileUpdate{Name: strPtr("x")})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrAuthentication)
	assert.Equal(t, "No autorizado", err.Error())
	assert.Empty(t, f.backend.Requests())
}

func TestUpdateProfilePhoto_Validation(t *testing.T) {
	cases := map[string]session.PhotoFile{
		"too big": {
			Name:        "big.png",
			ContentType: "image/png",
			Data:        make([]byte, 6*1024*1024),
		},
		"wrong type": {
			Name:        "doc.pdf",
			ContentType: "application/pdf",
			Data:        []byte("%PDF"),
		},
		"unknown extension": {
			Name: "photo.heic",
			Data: []byte("heic"),
		},
		"empty": {
			Name:        "empty.png",
			ContentType: "image/png",
		},
	}

	for name, photo := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			loggedIn(t, f, testinternals.FakeUser(3, false), string(session.AuthCredentials))
			requestsBefore := len(f.backend.Requests())

			_, err := f.store.UpdateProfilePhoto(context.Background(), photo)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
			assert.Len(t, f.backend.Requests(), requestsBefore, "no request sent")
		})
	}
}

func TestUpdateProfilePhoto_Success(t *testing.T) {
	f := newFixture(t)
	loggedIn(t, f, testinternals.FakeUser(3, false), string(session.AuthCredentials))

	var gotField, gotType, gotContent string
	f.backend.Handle(http.MethodPost, "/usuario/3/foto", func(w http.ResponseWriter, r *http.Request) {
		_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil {
			testinternals.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		part, err := multipart.NewReader(r.Body, params["boundary"]).NextPart()
		if err != nil {
			testinternals.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		content, _ := io.ReadAll(part)
		gotField = part.FormName()
		gotType = part.Header.Get("Content-Type")
		gotContent = string(content)
		testinternals.WriteEnvelope(w, http.StatusOK, "https://cdn.gym/fotos/3.webp")
	})

	photoURL, err := f.store.UpdateProfilePhoto(context.Background(), session.PhotoFile{
		Name: "/home/me/selfie.webp",
		Data: []byte("webp-bytes"),
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.gym/fotos/3.webp", photoURL)
	assert.Equal(t, "file", gotField)
	assert.Equal(t, "image/webp", gotType)
	assert.Equal(t, "webp-bytes", gotContent)

	user := f.store.User()
	require.NotNil(t, user.PhotoURL)
	assert.Equal(t, photoURL, *user.PhotoURL)

	req, _ := f.backend.LastRequest()
	assert.Equal(t, "Bearer tkn", req.Header.Get("Authorization"))
	assert.True(t, strings.HasPrefix(req.Header.Get("Content-Type"), "multipart/form-data"))

	snap, _ := f.stored(t, f.ephemeral)
	assert.Contains(t, snap.User, "https://cdn.gym/fotos/3.webp")
}

func TestRemoveProfilePhoto(t *testing.T) {
	f := newFixture(t)
	user := testinternals.FakeUser(3, false)
	user["fotoPerfilURL"] = "https://cdn.gym/fotos/3.png"
	loggedIn(t, f, user, string(session.AuthCredentials))
	require.NotNil(t, f.store.User().PhotoURL)

	f.backend.Handle(http.MethodDelete, "/usuario/3/foto", testinternals.EnvelopeHandler(http.StatusOK, nil))

	require.NoError(t, f.store.RemoveProfilePhoto(context.Background()))
	assert.Nil(t, f.store.User().PhotoURL)

	snap, _ := f.stored(t, f.ephemeral)
	var persisted session.User
	require.NoError(t, json.Unmarshal([]byte(snap.User), &persisted))
	assert.Nil(t, persisted.PhotoURL)
}

func TestRemoveProfilePhoto_Failure(t *testing.T) {
	f := newFixture(t)
	user := testinternals.FakeUser(3, false)
	user["fotoPerfilURL"] = "https://cdn.gym/fotos/3.png"
	loggedIn(t, f, user, string(session.AuthCredentials))

	f.backend.Handle(http.MethodDelete, "/usuario/3/foto", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := f.store.RemoveProfilePhoto(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Error al eliminar la foto de perfil", f.store.Error())
	assert.NotNil(t, f.store.User().PhotoURL)
}

func TestFetchProfile(t *testing.T) {
	f := newFixture(t)
	loggedIn(t, f, testinternals.FakeUser(3, false), string(session.AuthCredentials))

	profile := testinternals.FakeUser(3, true)
	f.backend.Handle(http.MethodGet, "/usuario/profile", testinternals.EnvelopeHandler(http.StatusOK, profile))

	user, err := f.store.FetchProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, profile["nombre"], user.Name)
	assert.True(t, f.store.IsAdmin())

	req, _ := f.backend.LastRequest()
	assert.Equal(t, "no-cache", req.Header.Get("Cache-Control"))
}

func TestResetPassword(t *testing.T) {
	f := newFixture(t)

	_, err := f.store.ResetPassword(context.Background(), session.ResetPasswordData{
		Token: "reset", Password: "a", ConfirmPassword: "b",
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, "Las contraseñas no coinciden", err.Error())
	assert.Empty(t, f.backend.Requests())

	f.backend.Handle(http.MethodPost, "/auth/reset-password", testinternals.JSONHandler(http.StatusOK, map[string]any{
		"success": true, "message": "Contraseña restablecida",
	}))
	msg, err := f.store.ResetPassword(context.Background(), session.ResetPasswordData{
		Token: "reset", Password: "nueva", ConfirmPassword: "nueva",
	})
	require.NoError(t, err)
	assert.Equal(t, "Contraseña restablecida", msg)
}

func TestRequestPasswordReset(t *testing.T) {
	f := newFixture(t)

	_, err := f.store.RequestPasswordReset(context.Background(), " ")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	f.backend.Handle(http.MethodPost, "/auth/request-reset", func(w http.ResponseWriter, _ *http.Request) {
		testinternals.WriteError(w, http.StatusNotFound, "")
	})
	_, err = f.store.RequestPasswordReset(context.Background(), "a@b.c")
	require.Error(t, err)
	assert.Equal(t, "Error al solicitar recuperación de contraseña", err.Error())

	req, _ := f.backend.LastRequest()
	assert.JSONEq(t, `{"email": "a@b.c"}`, string(req.Body))
}

func TestSessionTiersAreExclusive(t *testing.T) {
	f := newFixture(t)
	user := testinternals.FakeUser(1, false)
	f.backend.Handle(http.MethodPost, "/auth/login", testinternals.LoginHandler(user, "tkn"))

	_, err := f.store.Login(context.Background(), session.Credentials{}, true)
	require.NoError(t, err)
	_, err = f.store.Login(context.Background(), session.Credentials{}, false)
	require.NoError(t, err)

	for _, tier := range []storage.PersistenceTier{f.durable, f.ephemeral} {
		_, ok := f.stored(t, tier)
		assert.Equal(t, tier == storage.PersistenceTier(f.ephemeral), ok, tier.Name())
	}
}
