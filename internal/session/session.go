// Package session owns the authenticated identity: the user record, the bearer
// token and the persistence tier holding them.
//
// A Store is safe for concurrent use. Other stores read the token through
// RequireToken and never keep a copy of their own.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/2beens/gymclient/internal/apiclient"
	"github.com/2beens/gymclient/internal/apperrors"
	"github.com/2beens/gymclient/internal/storage"
	"github.com/2beens/gymclient/internal/store"
	"github.com/2beens/gymclient/internal/telemetry/metrics"
	"github.com/2beens/gymclient/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

const notAuthorizedMessage = "No autorizado"

type Store struct {
	client          *apiclient.Client
	durable         storage.PersistenceTier
	ephemeral       storage.PersistenceTier
	metrics         *metrics.Manager
	googleValidator IDTokenValidator
	now             func() time.Time

	status store.Status

	// writeMu serializes profile and photo mutations
	writeMu sync.Mutex

	mu         sync.RWMutex
	state      State
	user       *User
	token      string
	authMethod AuthMethod
	// tier holds the live copy of the session, nil when anonymous
	tier storage.PersistenceTier

	listenersMu sync.Mutex
	listeners   []func()
}

type Params struct {
	Client    *apiclient.Client
	Durable   storage.PersistenceTier
	Ephemeral storage.PersistenceTier
	Metrics   *metrics.Manager
	// GoogleValidator is optional; when set, OAuthLogin checks the id token
	// locally before calling the backend.
	GoogleValidator IDTokenValidator
	// Now is used for token expiry checks, time.Now when nil.
	Now func() time.Time
}

func NewStore(params Params) *Store {
	metricsManager := params.Metrics
	if metricsManager == nil {
		metricsManager = metrics.NewTestManager()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		client:          params.Client,
		durable:         params.Durable,
		ephemeral:       params.Ephemeral,
		metrics:         metricsManager,
		googleValidator: params.GoogleValidator,
		now:             now,
		state:           StateAnonymous,
	}
}

// Init restores the session from the first tier holding one, durable first,
// and verifies it with the backend.
func (s *Store) Init(ctx context.Context) {
	ctx, finish := tracing.StartSpan(ctx, "session.init")
	var spanErr error
	defer finish(&spanErr)

	tier, snap, found := s.findStored(ctx)
	if !found {
		log.Debugln("session: nothing stored")
		return
	}

	var user User
	if err := json.Unmarshal([]byte(snap.User), &user); err != nil {
		spanErr = err
		log.Errorf("session: stored user in %s tier is unreadable, purging: %s", tier.Name(), err)
		s.reset(StateAnonymous)
		return
	}

	if tokenExpired(snap.Token, s.now()) {
		log.Warnf("session: stored token for user %d has expired", user.ID)
		s.metrics.CounterImplicitLogouts.Inc()
		s.metrics.CounterSessionEvents.WithLabelValues("expired").Inc()
		s.reset(StateExpired)
		return
	}

	s.mu.Lock()
	s.user = &user
	s.token = snap.Token
	s.authMethod = AuthMethod(snap.AuthMethod)
	s.tier = tier
	s.state = StateAuthenticated
	s.mu.Unlock()

	log.Debugf("session: restored user %d from %s tier", user.ID, tier.Name())
	s.CheckAuth(ctx)
}

// CheckAuth verifies the stored token. A rejected token, or a backend that
// cannot be reached, ends the session. It never fails.
func (s *Store) CheckAuth(ctx context.Context) {
	ctx, finish := tracing.StartSpan(ctx, "session.check-auth")
	var spanErr error
	defer finish(&spanErr)

	tier, token, found := s.findStoredToken(ctx)
	if !found {
		return
	}

	var user User
	err := s.client.DoJSON(ctx, apiclient.Request{
		Method:       http.MethodGet,
		Path:         "/auth/verify",
		Token:        token,
		ErrorMessage: "Sesión inválida",
	}, &user)
	if err != nil {
		spanErr = err
		log.Warnf("session: stored token rejected, logging out: %s", err)
		s.metrics.CounterImplicitLogouts.Inc()
		s.metrics.CounterSessionEvents.WithLabelValues("verify_rejected").Inc()
		s.Logout()
		return
	}

	s.mu.Lock()
	s.user = &user
	s.token = token
	s.tier = tier
	if s.authMethod == "" {
		if method, err := tier.Get(ctx, storage.KeyAuthMethod); err == nil {
			s.authMethod = AuthMethod(method)
		}
	}
	s.state = StateAuthenticated
	s.mu.Unlock()

	s.metrics.CounterSessionEvents.WithLabelValues("verify_ok").Inc()
	s.persistUser(ctx, &user)
}

// Logout clears memory and both tiers. It never fails and is idempotent.
func (s *Store) Logout() {
	s.reset(StateAnonymous)
	s.status.ClearError()
	s.metrics.CounterSessionEvents.WithLabelValues("logout").Inc()
}

func (s *Store) reset(state State) {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.authMethod = ""
	s.tier = nil
	s.state = state
	s.mu.Unlock()

	if err := s.clearTiers(context.Background(), nil); err != nil {
		log.Errorf("session: clear storage: %s", err)
	}
	s.notifyIdentityChange()
}

// OnIdentityChange registers fn to run after the session is dropped, or
// replaced by another user's. Stores holding per-user data reset through it.
// fn runs outside the store's locks and must not block.
func (s *Store) OnIdentityChange(fn func()) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) notifyIdentityChange() {
	s.listenersMu.Lock()
	listeners := append([]func(){}, s.listeners...)
	s.listenersMu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// clearTiers removes the session from every tier except keep.
func (s *Store) clearTiers(ctx context.Context, keep storage.PersistenceTier) error {
	var errs error
	for _, tier := range s.tiers() {
		if tier == keep {
			continue
		}
		errs = multierr.Append(errs, storage.Clear(ctx, tier))
	}
	return errs
}

func (s *Store) tiers() []storage.PersistenceTier {
	tiers := make([]storage.PersistenceTier, 0, 2)
	if s.durable != nil {
		tiers = append(tiers, s.durable)
	}
	if s.ephemeral != nil {
		tiers = append(tiers, s.ephemeral)
	}
	return tiers
}

func (s *Store) findStored(ctx context.Context) (storage.PersistenceTier, storage.Snapshot, bool) {
	for _, tier := range s.tiers() {
		snap, ok, err := storage.Load(ctx, tier)
		if err != nil {
			log.Errorf("session: load from %s tier: %s", tier.Name(), err)
			continue
		}
		if ok {
			return tier, snap, true
		}
	}
	return nil, storage.Snapshot{}, false
}

func (s *Store) findStoredToken(ctx context.Context) (storage.PersistenceTier, string, bool) {
	for _, tier := range s.tiers() {
		token, err := tier.Get(ctx, storage.KeyToken)
		if err != nil {
			if !errors.Is(err, storage.ErrKeyNotFound) {
				log.Errorf("session: read token from %s tier: %s", tier.Name(), err)
			}
			continue
		}
		if token != "" {
			return tier, token, true
		}
	}
	return nil, "", false
}

// establish makes user/token the live session, held by tier only.
func (s *Store) establish(ctx context.Context, user *User, token string, method AuthMethod, tier storage.PersistenceTier) {
	s.mu.Lock()
	sameUser := s.user != nil && s.user.ID == user.ID
	s.user = user.clone()
	s.token = token
	s.authMethod = method
	s.tier = tier
	s.state = StateAuthenticated
	s.mu.Unlock()

	if !sameUser {
		s.notifyIdentityChange()
	}

	userJSON, err := json.Marshal(user)
	if err != nil {
		log.Errorf("session: marshal user: %s", err)
		return
	}

	errs := s.clearTiers(ctx, tier)
	if tier != nil {
		errs = multierr.Append(errs, storage.Save(ctx, tier, storage.Snapshot{
			Token:      token,
			User:       string(userJSON),
			AuthMethod: string(method),
		}))
	}
	if errs != nil {
		log.Errorf("session: persist session: %s", errs)
	}
}

// persistUser re-serializes the user to the tier holding the session.
func (s *Store) persistUser(ctx context.Context, user *User) {
	s.mu.RLock()
	tier := s.tier
	s.mu.RUnlock()
	if tier == nil {
		return
	}

	userJSON, err := json.Marshal(user)
	if err != nil {
		log.Errorf("session: marshal user: %s", err)
		return
	}
	if err := tier.Set(ctx, storage.KeyUser, string(userJSON)); err != nil {
		log.Errorf("session: persist user to %s tier: %s", tier.Name(), err)
	}
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// User returns a copy of the current user, nil when anonymous.
func (s *Store) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.clone()
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// RequireToken returns the bearer token or an authentication error.
func (s *Store) RequireToken() (string, error) {
	token := s.Token()
	if token == "" {
		return "", apperrors.Authentication(notAuthorizedMessage)
	}
	return token, nil
}

func (s *Store) AuthMethod() AuthMethod {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authMethod
}

// ActiveTier returns the name of the tier holding the session, or "".
func (s *Store) ActiveTier() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tier == nil {
		return ""
	}
	return s.tier.Name()
}

func (s *Store) IsAuthenticated() bool {
	return s.Token() != ""
}

func (s *Store) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.user.Admin
}

// IsOAuthLinked is derived from the stored auth method tag only, never from
// the email address.
func (s *Store) IsOAuthLinked() bool {
	method := s.AuthMethod()
	return method == AuthGoogle || method == authGoogleLegacy
}

func (s *Store) Loading() bool {
	return s.status.Loading()
}

func (s *Store) Error() string {
	return s.status.Error()
}
