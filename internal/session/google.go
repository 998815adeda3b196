package session

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"google.golang.org/api/idtoken"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=session_test

type IDTokenValidator interface {
	Validate(ctx context.Context, idToken string) error
}

// GoogleValidator checks signature, expiry and audience of a Google id token.
type GoogleValidator struct {
	clientID  string
	validator *idtoken.Validator
}

func NewGoogleValidator(ctx context.Context, clientID string) (*GoogleValidator, error) {
	validator, err := idtoken.NewValidator(ctx)
	if err != nil {
		return nil, fmt.Errorf("create google id token validator: %w", err)
	}
	return &GoogleValidator{
		clientID:  clientID,
		validator: validator,
	}, nil
}

func (g *GoogleValidator) Validate(ctx context.Context, idToken string) error {
	payload, err := g.validator.Validate(ctx, idToken, g.clientID)
	if err != nil {
		return err
	}
	log.Debugf("google id token ok, subject: %s", payload.Subject)
	return nil
}
