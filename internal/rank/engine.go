// Package rank derives the user's weekly training rank, from the backend or
// locally from the completed routines summary.
package rank

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/2beens/gymclient/internal/apiclient"
	"github.com/2beens/gymclient/internal/apperrors"
	"github.com/2beens/gymclient/internal/config"
	"github.com/2beens/gymclient/internal/routines"
	"github.com/2beens/gymclient/internal/session"
	"github.com/2beens/gymclient/internal/store"
	"github.com/2beens/gymclient/internal/telemetry/metrics"
	"github.com/2beens/gymclient/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultRetryDelay = time.Second

	rankErrorMessage = "Error al obtener el rango del usuario"
)

type Engine struct {
	client     *apiclient.Client
	session    *session.Store
	routines   *routines.Store
	metrics    *metrics.Manager
	source     string
	retryDelay time.Duration
	now        func() time.Time

	status store.Status

	mu      sync.RWMutex
	current *UserRank
}

type Params struct {
	Client   *apiclient.Client
	Session  *session.Store
	Routines *routines.Store
	Metrics  *metrics.Manager
	// Source is config.RankSourceServer (default) or config.RankSourceClient.
	Source     string
	RetryDelay time.Duration
	Now        func() time.Time
}

func NewEngine(params Params) *Engine {
	source := params.Source
	if source == "" {
		source = config.RankSourceServer
	}
	retryDelay := params.RetryDelay
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	metricsManager := params.Metrics
	if metricsManager == nil {
		metricsManager = metrics.NewTestManager()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	e := &Engine{
		client:     params.Client,
		session:    params.Session,
		routines:   params.Routines,
		metrics:    metricsManager,
		source:     source,
		retryDelay: retryDelay,
		now:        now,
	}
	if params.Session != nil {
		params.Session.OnIdentityChange(e.Reset)
	}
	return e
}

// Rank returns the current rank from the configured source.
func (e *Engine) Rank(ctx context.Context) (*UserRank, error) {
	if e.source == config.RankSourceClient {
		return e.ClientRank(ctx)
	}
	return e.CurrentUserRank(ctx)
}

// CurrentUserRank asks the backend for the rank it computed. A 404 means the
// rank is not computed yet for a new user and is retried once after the retry
// delay. Anonymous callers get nil, nil. On any failure the result is nil and
// the error is recorded.
func (e *Engine) CurrentUserRank(ctx context.Context) (_ *UserRank, err error) {
	ctx, finish := tracing.StartSpan(ctx, "rank.current-user-rank")
	defer finish(&err)

	token := e.session.Token()
	if token == "" {
		return nil, nil
	}

	end := e.status.Begin()
	defer func() { end(err) }()

	rank, err := e.fetchRank(ctx, token)
	if errors.Is(err, apperrors.ErrNotFound) {
		log.Debugf("rank: not computed yet, retrying in %s", e.retryDelay)
		e.metrics.CounterRankRetries.Inc()
		if waitErr := sleepCtx(ctx, e.retryDelay); waitErr != nil {
			e.setCurrent(nil)
			return nil, apperrors.Transport(waitErr, rankErrorMessage)
		}
		rank, err = e.fetchRank(ctx, token)
	}
	if err != nil {
		log.Warnf("rank: lookup failed: %s", err)
		e.setCurrent(nil)
		return nil, err
	}

	e.setCurrent(rank)
	return rank, nil
}

func (e *Engine) fetchRank(ctx context.Context, token string) (*UserRank, error) {
	var rank UserRank
	if err := e.client.DoJSON(ctx, apiclient.Request{
		Method:       http.MethodGet,
		Path:         "/Rol/usuario",
		Token:        token,
		NoCache:      true,
		ErrorMessage: rankErrorMessage,
	}, &rank); err != nil {
		return nil, err
	}
	return &rank, nil
}

// ClientRank computes the rank locally from the weekly count in the routines
// summary, for backends without the rank endpoint.
func (e *Engine) ClientRank(ctx context.Context) (_ *UserRank, err error) {
	ctx, finish := tracing.StartSpan(ctx, "rank.client-rank")
	defer finish(&err)

	if !e.session.IsAuthenticated() {
		return nil, nil
	}

	end := e.status.Begin()
	defer func() { end(err) }()

	summary, err := e.routines.Summary(ctx)
	if err != nil {
		e.setCurrent(nil)
		return nil, err
	}

	rank := Compute(catalog, summary.LastWeek, e.now())
	e.setCurrent(&rank)
	return &rank, nil
}

// Current returns the last rank fetched or computed, nil if none.
func (e *Engine) Current() *UserRank {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.current == nil {
		return nil
	}
	cp := *e.current
	return &cp
}

func (e *Engine) setCurrent(rank *UserRank) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.current = rank
}

// Reset forgets the rank of the previous session.
func (e *Engine) Reset() {
	e.setCurrent(nil)
	e.status.ClearError()
}

func (e *Engine) Loading() bool { return e.status.Loading() }
func (e *Engine) Error() string { return e.status.Error() }

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
