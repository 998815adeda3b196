package storage

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/2beens/gymclient/pkg"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	sessionFileName  = "session.json"
	scopedFilePrefix = "session-"
	keyDerivationID  = "gymclient session file v1"
	nonceSize        = 24
)

var ErrCorruptedFile = errors.New("session file corrupted or sealed with another key")

// FileTier keeps the session in a single JSON file, sealed with secretbox when
// a secret is configured.
type FileTier struct {
	mu      sync.Mutex
	path    string
	durable bool
	sealed  bool
	key     [32]byte
}

// NewFileTier is the durable tier, one file per directory.
func NewFileTier(dir string, secret string) (*FileTier, error) {
	return newFileTier(filepath.Join(dir, sessionFileName), true, secret)
}

// NewScopedFileTier is an ephemeral tier shared only by processes passing the
// same scope, e.g. commands run from one terminal session. The file lives
// until the session logs out or dir is cleaned.
func NewScopedFileTier(dir, scope, secret string) (*FileTier, error) {
	if scope == "" || strings.ContainsAny(scope, `/\`) {
		return nil, fmt.Errorf("invalid session scope %q", scope)
	}
	return newFileTier(filepath.Join(dir, scopedFilePrefix+scope+".json"), false, secret)
}

func newFileTier(path string, durable bool, secret string) (*FileTier, error) {
	if err := pkg.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, err
	}

	t := &FileTier{
		path:    path,
		durable: durable,
	}
	if secret != "" {
		kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte(keyDerivationID))
		if _, err := io.ReadFull(kdf, t.key[:]); err != nil {
			return nil, fmt.Errorf("derive file tier key: %w", err)
		}
		t.sealed = true
	}

	return t, nil
}

func (t *FileTier) Name() string {
	if t.durable {
		return "durable-file"
	}
	return "ephemeral-file"
}

func (t *FileTier) Durable() bool { return t.durable }

func (t *FileTier) Path() string {
	return t.path
}

func (t *FileTier) Get(_ context.Context, key string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries, err := t.read()
	if err != nil {
		return "", err
	}
	val, ok := entries[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return val, nil
}

func (t *FileTier) Set(_ context.Context, key, value string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries, err := t.read()
	if err != nil {
		if !errors.Is(err, ErrCorruptedFile) {
			return err
		}
		// a file we cannot open is replaced rather than blocking every login
		entries = map[string]string{}
	}
	entries[key] = value
	return t.write(entries)
}

func (t *FileTier) Delete(_ context.Context, keys ...string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries, err := t.read()
	if err != nil {
		if errors.Is(err, ErrCorruptedFile) {
			return t.remove()
		}
		return err
	}
	for _, key := range keys {
		delete(entries, key)
	}
	if len(entries) == 0 {
		return t.remove()
	}
	return t.write(entries)
}

func (t *FileTier) read() (map[string]string, error) {
	raw, err := os.ReadFile(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}

	if t.sealed {
		raw, err = t.open(raw)
		if err != nil {
			return nil, err
		}
	}

	entries := map[string]string{}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorruptedFile, err)
	}
	return entries, nil
}

func (t *FileTier) write(entries map[string]string) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal session file: %w", err)
	}
	if t.sealed {
		raw, err = t.seal(raw)
		if err != nil {
			return err
		}
	}

	tmp := t.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp, t.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

func (t *FileTier) remove() error {
	if err := os.Remove(t.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

func (t *FileTier) seal(plain []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], plain, &nonce, &t.key), nil
}

func (t *FileTier) open(sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return nil, ErrCorruptedFile
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &t.key)
	if !ok {
		return nil, ErrCorruptedFile
	}
	return plain, nil
}
