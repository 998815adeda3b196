package testinternals

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/2beens/gymclient/internal/session"
	"github.com/2beens/gymclient/internal/storage"

	"github.com/brianvoe/gofakeit/v6"
)

const TestToken = "test-bearer-token"

// FakeUser is a user as the backend sends it.
func FakeUser(id int, admin bool) map[string]any {
	return map[string]any{
		"usuarioID":     id,
		"nombre":        gofakeit.FirstName(),
		"apellido":      gofakeit.LastName(),
		"email":         gofakeit.Email(),
		"fechaRegistro": gofakeit.DateRange(time.Now().AddDate(-2, 0, 0), time.Now()).Format("2006-01-02T15:04:05"),
		"estaActivo":    true,
		"esAdmin":       admin,
		"fotoPerfilURL": nil,
	}
}

// LoginHandler answers /auth/login like the backend does, {user, token} in
// an envelope.
func LoginHandler(user map[string]any, token string) http.HandlerFunc {
	return EnvelopeHandler(http.StatusOK, map[string]any{
		"user":  user,
		"token": token,
	})
}

// NewSession returns a session store over memory tiers, logged in against the
// backend as user. A nil user leaves the session anonymous.
func NewSession(t *testing.T, backend *Backend, user map[string]any) *session.Store {
	t.Helper()

	sessionStore := session.NewStore(session.Params{
		Client:    backend.NewClient(),
		Durable:   storage.NewMemoryTier(1),
		Ephemeral: storage.NewMemoryTier(1),
	})
	if user == nil {
		return sessionStore
	}

	backend.Handle(http.MethodPost, "/auth/login", LoginHandler(user, TestToken))
	if _, err := sessionStore.Login(context.Background(), session.Credentials{
		Email:    user["email"].(string),
		Password: gofakeit.Password(true, true, true, false, false, 12),
	}, false); err != nil {
		t.Fatalf("login test user: %s", err)
	}
	return sessionStore
}
