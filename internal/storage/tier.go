// Package storage holds the key/value tiers a session is persisted to.
//
// A durable tier survives a restart of the client; an ephemeral tier lives
// as long as the process. Each tier holds at most the keys below.
package storage

import (
	"context"
	"errors"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=storage_test

const (
	KeyToken      = "token"
	KeyUser       = "user"
	KeyAuthMethod = "authMethod"
)

// SessionKeys are all the keys a session writes; logout removes every one.
var SessionKeys = []string{KeyToken, KeyUser, KeyAuthMethod}

var ErrKeyNotFound = errors.New("key not found")

type PersistenceTier interface {
	// Name is used in logs only.
	Name() string
	Durable() bool
	// Get returns ErrKeyNotFound when the key is not set.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes the keys; missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}

// Snapshot is the persisted copy of a session.
type Snapshot struct {
	Token      string
	User       string
	AuthMethod string
}

// Load reads a complete session snapshot. ok is false unless both token and
// user are present.
func Load(ctx context.Context, tier PersistenceTier) (Snapshot, bool, error) {
	var snap Snapshot

	token, err := tier.Get(ctx, KeyToken)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return snap, false, nil
		}
		return snap, false, err
	}
	user, err := tier.Get(ctx, KeyUser)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return snap, false, nil
		}
		return snap, false, err
	}
	authMethod, err := tier.Get(ctx, KeyAuthMethod)
	if err != nil && !errors.Is(err, ErrKeyNotFound) {
		return snap, false, err
	}

	snap.Token = token
	snap.User = user
	snap.AuthMethod = authMethod
	return snap, token != "" && user != "", nil
}

// Save writes every field of the snapshot to the tier.
func Save(ctx context.Context, tier PersistenceTier, snap Snapshot) error {
	if err := tier.Set(ctx, KeyToken, snap.Token); err != nil {
		return err
	}
	if err := tier.Set(ctx, KeyUser, snap.User); err != nil {
		return err
	}
	return tier.Set(ctx, KeyAuthMethod, snap.AuthMethod)
}

// Clear removes every session key from the tier.
func Clear(ctx context.Context, tier PersistenceTier) error {
	return tier.Delete(ctx, SessionKeys...)
}
