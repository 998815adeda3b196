package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	RankSourceServer = "server"
	RankSourceClient = "client"

	DurableStoreFile  = "file"
	DurableStoreRedis = "redis"

	EphemeralStoreFile   = "file"
	EphemeralStoreMemory = "memory"
)

type Config struct {
	Environment string `toml:"-"`

	// api
	ApiBaseURL         string   `toml:"api_base_url"`
	RequestTimeout     Duration `toml:"request_timeout"`
	RateLimitPerMinute int      `toml:"rate_limit_per_minute"`
	GoogleClientID     string   `toml:"google_client_id"`

	// gamification
	RankSource            string   `toml:"rank_source"`
	RankRetryDelay        Duration `toml:"rank_retry_delay"`
	AchievementCatalogTTL Duration `toml:"achievement_catalog_ttl"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// session persistence
	DurableStore         string `toml:"durable_store"`
	DurableStorePath     string `toml:"durable_store_path"`
	EphemeralStore       string `toml:"ephemeral_store"`
	EphemeralStorePath   string `toml:"ephemeral_store_path"`
	EphemeralCacheSizeMB int    `toml:"ephemeral_cache_size_mb"`

	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`
	RedisDB   int    `toml:"redis_db"`

	// telemetry
	TracingEnabled bool   `toml:"tracing_enabled"`
	MetricsFile    string `toml:"metrics_file"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config section for env: %s", env)
	}
	return cfg, nil
}

// Load reads the TOML file at path and returns the section for env, with
// defaults applied to every unset value.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	cfg.Environment = strings.ToLower(env)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Default returns a development config pointing at a local backend.
func Default() *Config {
	cfg := &Config{Environment: "development"}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.ApiBaseURL == "" {
		c.ApiBaseURL = "http://localhost:5288"
	}
	c.ApiBaseURL = strings.TrimRight(c.ApiBaseURL, "/")
	if c.RequestTimeout.Duration == 0 {
		c.RequestTimeout.Duration = 15 * time.Second
	}
	if c.RankSource == "" {
		c.RankSource = RankSourceServer
	}
	if c.RankRetryDelay.Duration == 0 {
		c.RankRetryDelay.Duration = time.Second
	}
	if c.AchievementCatalogTTL.Duration == 0 {
		c.AchievementCatalogTTL.Duration = time.Hour
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.DurableStore == "" {
		c.DurableStore = DurableStoreFile
	}
	if c.DurableStorePath == "" {
		c.DurableStorePath = "./.gymclient"
	}
	if c.EphemeralStore == "" {
		c.EphemeralStore = EphemeralStoreFile
	}
	if c.EphemeralStorePath == "" {
		c.EphemeralStorePath = defaultEphemeralPath()
	}
	if c.EphemeralCacheSizeMB <= 0 {
		c.EphemeralCacheSizeMB = 1
	}
	if c.RedisHost == "" {
		c.RedisHost = "localhost"
	}
	if c.RedisPort == "" {
		c.RedisPort = "6379"
	}
}

func (c *Config) Validate() error {
	switch c.RankSource {
	case RankSourceServer, RankSourceClient:
	default:
		return fmt.Errorf("unknown rank source: %s", c.RankSource)
	}
	switch c.DurableStore {
	case DurableStoreFile, DurableStoreRedis:
	default:
		return fmt.Errorf("unknown durable store: %s", c.DurableStore)
	}
	switch c.EphemeralStore {
	case EphemeralStoreFile, EphemeralStoreMemory:
	default:
		return fmt.Errorf("unknown ephemeral store: %s", c.EphemeralStore)
	}
	if c.RateLimitPerMinute > 0 && c.DurableStore != DurableStoreRedis {
		return errors.New("rate limiting requires the redis durable store")
	}
	return nil
}

// defaultEphemeralPath prefers the per-login runtime dir, which the OS wipes
// when the user logs out.
func defaultEphemeralPath() string {
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return filepath.Join(runtimeDir, "gymclient")
	}
	return filepath.Join(os.TempDir(), "gymclient-"+strconv.Itoa(os.Getuid()))
}

// Duration lets TOML files use strings such as "15s" or "1h".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}
