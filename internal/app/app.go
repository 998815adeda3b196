// Package app assembles the client from its configuration.
package app

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/2beens/gymclient/internal/achievements"
	"github.com/2beens/gymclient/internal/admin"
	"github.com/2beens/gymclient/internal/apiclient"
	"github.com/2beens/gymclient/internal/comments"
	"github.com/2beens/gymclient/internal/config"
	"github.com/2beens/gymclient/internal/exercises"
	"github.com/2beens/gymclient/internal/measurements"
	"github.com/2beens/gymclient/internal/rank"
	"github.com/2beens/gymclient/internal/routines"
	"github.com/2beens/gymclient/internal/session"
	"github.com/2beens/gymclient/internal/storage"
	"github.com/2beens/gymclient/internal/telemetry/metrics"
	"github.com/2beens/gymclient/internal/workouts"

	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

type App struct {
	Config *config.Config

	Client       *apiclient.Client
	Session      *session.Store
	Routines     *routines.Store
	Rank         *rank.Engine
	Achievements *achievements.Tracker
	Workouts     *workouts.Store
	Exercises    *exercises.Store
	Comments     *comments.Store
	Measurements *measurements.Store
	Admin        *admin.Console

	Metrics      *metrics.Manager
	PromRegistry *prometheus.Registry

	httpClient  *http.Client
	redisClient *redis.Client
	ownsRedis   bool
}

type Params struct {
	Config *config.Config
	// StoreKey seals the durable session file; empty leaves it in plain JSON.
	StoreKey      string
	RedisPassword string
	// RedisClient replaces the client built from Config, e.g. in tests.
	RedisClient *redis.Client
	// SessionScope names the ephemeral session file shared by the processes
	// of one terminal. Empty keeps the ephemeral session in memory.
	SessionScope string
}

func New(ctx context.Context, params Params) (*App, error) {
	cfg := params.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	promRegistry := metrics.SetupPrometheus()
	metricsManager := metrics.NewManager("gymclient", "cli", promRegistry)

	a := &App{
		Config:       cfg,
		Metrics:      metricsManager,
		PromRegistry: promRegistry,
		httpClient:   apiclient.NewTracedHTTPClient(),
	}

	if needsRedis(cfg) {
		a.redisClient = params.RedisClient
		if a.redisClient == nil {
			a.redisClient = newRedisClient(ctx, cfg, params.RedisPassword)
			a.ownsRedis = true
		}
	}

	var limiter apiclient.Limiter
	if cfg.RateLimitPerMinute > 0 {
		limiter = apiclient.NewRedisLimiter(a.redisClient, cfg.RateLimitPerMinute, cfg.Environment)
		log.Debugf("api rate limit: %d requests per minute", cfg.RateLimitPerMinute)
	}

	a.Client = apiclient.NewClient(apiclient.Params{
		BaseURL:    cfg.ApiBaseURL,
		HTTPClient: a.httpClient,
		Timeout:    cfg.RequestTimeout.Duration,
		Metrics:    metricsManager,
		Limiter:    limiter,
	})

	durable, err := a.durableTier(params.StoreKey)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	ephemeral, err := a.ephemeralTier(params.SessionScope, params.StoreKey)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	var googleValidator session.IDTokenValidator
	if cfg.GoogleClientID != "" {
		validator, err := session.NewGoogleValidator(ctx, cfg.GoogleClientID)
		if err != nil {
			// the backend validates the token anyway
			log.Errorf("google id token validator unavailable: %s", err)
		} else {
			googleValidator = validator
		}
	}

	a.Session = session.NewStore(session.Params{
		Client:          a.Client,
		Durable:         durable,
		Ephemeral:       ephemeral,
		Metrics:         metricsManager,
		GoogleValidator: googleValidator,
	})
	a.Routines = routines.NewStore(a.Client, a.Session)
	a.Rank = rank.NewEngine(rank.Params{
		Client:     a.Client,
		Session:    a.Session,
		Routines:   a.Routines,
		Metrics:    metricsManager,
		Source:     cfg.RankSource,
		RetryDelay: cfg.RankRetryDelay.Duration,
	})
	a.Achievements = achievements.NewTracker(a.Client, a.Session, cfg.AchievementCatalogTTL.Duration)
	a.Workouts = workouts.NewStore(a.Client, a.Session)
	a.Exercises = exercises.NewStore(a.Client, a.Session)
	a.Comments = comments.NewStore(a.Client, a.Session)
	a.Measurements = measurements.NewStore(a.Client, a.Session)
	a.Admin = admin.NewConsole(a.Client, a.Session)

	return a, nil
}

func (a *App) durableTier(storeKey string) (storage.PersistenceTier, error) {
	switch a.Config.DurableStore {
	case config.DurableStoreRedis:
		log.Debugf("durable session tier: redis %s:%s", a.Config.RedisHost, a.Config.RedisPort)
		return storage.NewRedisTier(a.redisClient, a.Config.Environment), nil
	default:
		tier, err := storage.NewFileTier(a.Config.DurableStorePath, storeKey)
		if err != nil {
			return nil, fmt.Errorf("new file tier: %w", err)
		}
		if storeKey == "" {
			log.Warnf("session file %s is not sealed, set GYM_STORE_KEY to seal it", tier.Path())
		}
		log.Debugf("durable session tier: file %s", tier.Path())
		return tier, nil
	}
}

func (a *App) ephemeralTier(scope, storeKey string) (storage.PersistenceTier, error) {
	if a.Config.EphemeralStore == config.EphemeralStoreMemory || scope == "" {
		log.Debugln("ephemeral session tier: memory, sessions end with the process")
		return storage.NewMemoryTier(a.Config.EphemeralCacheSizeMB), nil
	}
	tier, err := storage.NewScopedFileTier(a.Config.EphemeralStorePath, scope, storeKey)
	if err != nil {
		return nil, fmt.Errorf("new scoped file tier: %w", err)
	}
	log.Debugf("ephemeral session tier: file %s", tier.Path())
	return tier, nil
}

// Close drops idle API connections and releases the redis connection when
// the app created it.
func (a *App) Close() error {
	a.httpClient.CloseIdleConnections()
	if a.redisClient == nil || !a.ownsRedis {
		return nil
	}
	if err := a.redisClient.Close(); err != nil {
		return fmt.Errorf("close redis: %w", err)
	}
	return nil
}

func needsRedis(cfg *config.Config) bool {
	return cfg.DurableStore == config.DurableStoreRedis || cfg.RateLimitPerMinute > 0
}

func newRedisClient(ctx context.Context, cfg *config.Config, password string) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: password,
		DB:       cfg.RedisDB,
	})
	rdb.AddHook(redisotel.NewTracingHook())

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	}
	return rdb
}
