// Package achievements fetches the achievement catalog and the user's
// progress on it.
package achievements

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/2beens/gymclient/internal/apiclient"
	"github.com/2beens/gymclient/internal/session"
	"github.com/2beens/gymclient/internal/store"
	"github.com/2beens/gymclient/internal/telemetry/tracing"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultRecentCount = 5
	DefaultCatalogTTL  = time.Hour

	catalogCacheKey  = "achievements::catalog"
	catalogCacheSize = 512 * 1024
)

type Tracker struct {
	client     *apiclient.Client
	session    *session.Store
	cache      *freecache.Cache
	catalogTTL time.Duration
	status     store.Status

	mu        sync.RWMutex
	available []Achievement
	user      []UserAchievement
	recent    []UserAchievement
}

func NewTracker(client *apiclient.Client, sessionStore *session.Store, catalogTTL time.Duration) *Tracker {
	if catalogTTL <= 0 {
		catalogTTL = DefaultCatalogTTL
	}
	t := &Tracker{
		client:     client,
		session:    sessionStore,
		cache:      freecache.NewCache(catalogCacheSize),
		catalogTTL: catalogTTL,
	}
	if sessionStore != nil {
		sessionStore.OnIdentityChange(t.Reset)
	}
	return t
}

// FetchAvailable returns the full catalog. The catalog only changes with a
// deployment, so it is served from cache for the catalog TTL.
func (t *Tracker) FetchAvailable(ctx context.Context) (_ []Achievement, err error) {
	ctx, finish := tracing.StartSpan(ctx, "achievements.fetch-available")
	defer finish(&err)

	token, err := t.session.RequireToken()
	if err != nil {
		return nil, t.status.Fail(err)
	}

	if cached, err := t.cache.Get([]byte(catalogCacheKey)); err == nil {
		var catalog []Achievement
		if err := json.Unmarshal(cached, &catalog); err == nil {
			log.Tracef("achievements: catalog served from cache (%d entries)", len(catalog))
			t.setAvailable(catalog)
			return catalog, nil
		}
		log.Errorf("achievements: cached catalog unreadable: %s", err)
	}

	end := t.status.Begin()
	defer func() { end(err) }()

	res, err := t.client.Do(ctx, apiclient.Request{
		Method:       http.MethodGet,
		Path:         "/Logro/disponibles",
		Token:        token,
		ErrorMessage: "Error al cargar logros disponibles",
	})
	if err != nil {
		t.setAvailable(nil)
		return nil, err
	}
	var catalog []Achievement
	if err := res.Decode(&catalog); err != nil {
		t.setAvailable(nil)
		return nil, err
	}

	if err := t.cache.Set([]byte(catalogCacheKey), res.Data, int(t.catalogTTL.Seconds())); err != nil {
		log.Errorf("achievements: cache catalog: %s", err)
	}
	t.setAvailable(catalog)
	return catalog, nil
}

// FetchUserAchievements returns the user's state on every achievement.
func (t *Tracker) FetchUserAchievements(ctx context.Context) (_ []UserAchievement, err error) {
	ctx, finish := tracing.StartSpan(ctx, "achievements.fetch-user")
	defer finish(&err)

	token, err := t.session.RequireToken()
	if err != nil {
		return nil, t.status.Fail(err)
	}
	end := t.status.Begin()
	defer func() { end(err) }()

	list, err := t.fetchUser(ctx, token)
	t.mu.Lock()
	t.user = list
	t.mu.Unlock()
	return list, err
}

// FetchRecent returns the count most recently unlocked achievements; count
// <= 0 means DefaultRecentCount.
func (t *Tracker) FetchRecent(ctx context.Context, count int) (_ []UserAchievement, err error) {
	ctx, finish := tracing.StartSpan(ctx, "achievements.fetch-recent")
	defer finish(&err)

	token, err := t.session.RequireToken()
	if err != nil {
		return nil, t.status.Fail(err)
	}
	end := t.status.Begin()
	defer func() { end(err) }()

	list, err := t.fetchRecent(ctx, token, count)
	t.mu.Lock()
	t.recent = list
	t.mu.Unlock()
	return list, err
}

// VerifyAchievements asks the backend to re-evaluate unlock conditions, then
// refreshes the user and recent lists before returning.
func (t *Tracker) VerifyAchievements(ctx context.Context) (err error) {
	ctx, finish := tracing.StartSpan(ctx, "achievements.verify")
	defer finish(&err)

	token, err := t.session.RequireToken()
	if err != nil {
		return t.status.Fail(err)
	}
	end := t.status.Begin()
	defer func() { end(err) }()

	if _, err := t.client.Do(ctx, apiclient.Request{
		Method:       http.MethodPost,
		Path:         "/Logro/verificar",
		Token:        token,
		ErrorMessage: "Error al verificar logros",
	}); err != nil {
		return err
	}

	userList, err := t.fetchUser(ctx, token)
	t.mu.Lock()
	t.user = userList
	t.mu.Unlock()
	if err != nil {
		return err
	}

	recent, err := t.fetchRecent(ctx, token, DefaultRecentCount)
	t.mu.Lock()
	t.recent = recent
	t.mu.Unlock()
	return err
}

func (t *Tracker) fetchUser(ctx context.Context, token string) ([]UserAchievement, error) {
	var list []UserAchievement
	if err := t.client.DoJSON(ctx, apiclient.Request{
		Method:       http.MethodGet,
		Path:         "/Logro",
		Token:        token,
		ErrorMessage: "Error al cargar logros del usuario",
	}, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (t *Tracker) fetchRecent(ctx context.Context, token string, count int) ([]UserAchievement, error) {
	if count <= 0 {
		count = DefaultRecentCount
	}
	var list []UserAchievement
	if err := t.client.DoJSON(ctx, apiclient.Request{
		Method:       http.MethodGet,
		Path:         "/Logro/recientes",
		Query:        url.Values{"cantidad": []string{strconv.Itoa(count)}},
		Token:        token,
		ErrorMessage: "Error al cargar logros recientes",
	}, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (t *Tracker) setAvailable(catalog []Achievement) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.available = catalog
}

// InvalidateCatalog makes the next FetchAvailable hit the backend.
func (t *Tracker) InvalidateCatalog() {
	t.cache.Del([]byte(catalogCacheKey))
	t.setAvailable(nil)
}

func (t *Tracker) Available() []Achievement {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Achievement(nil), t.available...)
}

func (t *Tracker) UserAchievements() []UserAchievement {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]UserAchievement(nil), t.user...)
}

func (t *Tracker) Recent() []UserAchievement {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]UserAchievement(nil), t.recent...)
}

// TotalExperience over the last fetched user achievements.
func (t *Tracker) TotalExperience() int {
	return TotalExperience(t.UserAchievements())
}

func (t *Tracker) CompletionPercentage() int {
	return CompletionPercentage(t.UserAchievements())
}

func (t *Tracker) ByCategory() []CategoryGroup {
	return GroupByCategory(t.UserAchievements())
}

// Reset drops the user's achievements. The catalog is the same for every
// user and stays cached.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.user = nil
	t.recent = nil
	t.mu.Unlock()
	t.status.ClearError()
}

func (t *Tracker) Loading() bool { return t.status.Loading() }
func (t *Tracker) Error() string { return t.status.Error() }
