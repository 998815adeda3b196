package session

import (
	"context"
	"net/http"
	"strings"

	"github.com/2beens/gymclient/internal/apiclient"
	"github.com/2beens/gymclient/internal/apperrors"
	"github.com/2beens/gymclient/internal/storage"
	"github.com/2beens/gymclient/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
)

const (
	googleInvalidTokenMessage   = "El token de Google no es válido o ha expirado"
	googleMisconfiguredMessage  = "La autenticación con Google no está configurada correctamente en el servidor"
	googleGenericFailureMessage = "Error en la autenticación con Google"
	invalidAuthResponseMessage  = "Respuesta inválida del servidor"
)

type authAttempt struct {
	event        string
	path         string
	body         any
	method       AuthMethod
	tier         storage.PersistenceTier
	errorMessage string
}

// Login authenticates with email and password. remember selects the durable
// tier, otherwise the session lives in the ephemeral one.
func (s *Store) Login(ctx context.Context, creds Credentials, remember bool) (_ *LoginResult, err error) {
	ctx, finish := tracing.StartSpan(ctx, "session.login")
	defer finish(&err)

	tier := s.ephemeral
	if remember {
		tier = s.durable
	}

	return s.authenticate(ctx, authAttempt{
		event:        "login",
		path:         "/auth/login",
		body:         creds,
		method:       AuthCredentials,
		tier:         tier,
		errorMessage: "Error en la autenticación",
	})
}

// Register creates the account and starts an ephemeral session for it.
func (s *Store) Register(ctx context.Context, data RegisterData) (_ *LoginResult, err error) {
	ctx, finish := tracing.StartSpan(ctx, "session.register")
	defer finish(&err)

	return s.authenticate(ctx, authAttempt{
		event:        "register",
		path:         "/auth/register",
		body:         data,
		method:       AuthCredentials,
		tier:         s.ephemeral,
		errorMessage: "Error en el registro",
	})
}

// OAuthLogin exchanges a Google id token for a session. OAuth sessions are
// always ephemeral.
func (s *Store) OAuthLogin(ctx context.Context, idToken string) (_ *LoginResult, err error) {
	ctx, finish := tracing.StartSpan(ctx, "session.oauth-login")
	defer finish(&err)

	if strings.TrimSpace(idToken) == "" {
		return nil, s.status.Fail(apperrors.Validation(googleInvalidTokenMessage))
	}
	if s.googleValidator != nil {
		if err := s.googleValidator.Validate(ctx, idToken); err != nil {
			log.Debugf("session: google id token rejected locally: %s", err)
			return nil, s.status.Fail(&apperrors.Error{
				Kind:    apperrors.ErrValidation,
				Message: googleInvalidTokenMessage,
				Cause:   err,
			})
		}
	}

	res, err := s.authenticate(ctx, authAttempt{
		event:        "oauth",
		path:         "/auth/google",
		body:         map[string]string{"idToken": idToken},
		method:       AuthGoogle,
		tier:         s.ephemeral,
		errorMessage: googleGenericFailureMessage,
	})
	if err != nil {
		switch apperrors.StatusOf(err) {
		case http.StatusBadRequest:
			err = s.status.Fail(&apperrors.Error{
				Kind:    apperrors.ErrAuthentication,
				Message: googleInvalidTokenMessage,
				Status:  http.StatusBadRequest,
			})
		case http.StatusUnauthorized:
			err = s.status.Fail(&apperrors.Error{
				Kind:    apperrors.ErrAuthentication,
				Message: googleMisconfiguredMessage,
				Status:  http.StatusUnauthorized,
			})
		}
		return nil, err
	}
	return res, nil
}

func (s *Store) authenticate(ctx context.Context, attempt authAttempt) (_ *LoginResult, err error) {
	end := s.status.Begin()
	defer func() { end(err) }()

	s.mu.Lock()
	prevState := s.state
	s.state = StateAuthenticating
	s.mu.Unlock()

	defer func() {
		if err == nil {
			s.metrics.CounterSessionEvents.WithLabelValues(attempt.event).Inc()
			return
		}
		s.metrics.CounterSessionEvents.WithLabelValues(attempt.event + "_failed").Inc()
		s.mu.Lock()
		if s.state == StateAuthenticating {
			s.state = prevState
			if s.token == "" {
				s.state = StateAnonymous
			}
		}
		s.mu.Unlock()
	}()

	var payload authPayload
	if err := s.client.DoJSON(ctx, apiclient.Request{
		Method:       http.MethodPost,
		Path:         attempt.path,
		Body:         attempt.body,
		ErrorMessage: attempt.errorMessage,
	}, &payload); err != nil {
		return nil, apperrors.WithKind(err, apperrors.ErrAuthentication)
	}
	if payload.User == nil || payload.Token == "" {
		return nil, apperrors.Authentication(invalidAuthResponseMessage)
	}

	s.establish(ctx, payload.User, payload.Token, attempt.method, attempt.tier)
	log.Debugf("session: %s ok for user %d", attempt.event, payload.User.ID)

	return &LoginResult{
		User:    payload.User.clone(),
		IsAdmin: payload.User.Admin,
	}, nil
}

// RequestPasswordReset asks the backend to mail a reset link and returns its
// message.
func (s *Store) RequestPasswordReset(ctx context.Context, email string) (_ string, err error) {
	ctx, finish := tracing.StartSpan(ctx, "session.request-password-reset")
	defer finish(&err)

	if strings.TrimSpace(email) == "" {
		return "", s.status.Fail(apperrors.Validation("El correo electrónico es obligatorio"))
	}

	end := s.status.Begin()
	defer func() { end(err) }()

	res, err := s.client.Do(ctx, apiclient.Request{
		Method:       http.MethodPost,
		Path:         "/auth/request-reset",
		Body:         map[string]string{"email": email},
		ErrorMessage: "Error al solicitar recuperación de contraseña",
	})
	if err != nil {
		return "", err
	}
	return res.Message, nil
}

func (s *Store) ResetPassword(ctx context.Context, data ResetPasswordData) (_ string, err error) {
	ctx, finish := tracing.StartSpan(ctx, "session.reset-password")
	defer finish(&err)

	switch {
	case data.Token == "":
		return "", s.status.Fail(apperrors.Validation("El enlace de recuperación no es válido"))
	case data.Password == "":
		return "", s.status.Fail(apperrors.Validation("La contraseña es obligatoria"))
	case data.Password != data.ConfirmPassword:
		return "", s.status.Fail(apperrors.Validation("Las contraseñas no coinciden"))
	}

	end := s.status.Begin()
	defer func() { end(err) }()

	res, err := s.client.Do(ctx, apiclient.Request{
		Method:       http.MethodPost,
		Path:         "/auth/reset-password",
		Body:         data,
		ErrorMessage: "Error al restablecer la contraseña",
	})
	if err != nil {
		return "", err
	}
	return res.Message, nil
}
