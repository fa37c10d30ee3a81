package config

import (
	"time"
)

// Config is the full engine configuration. Values come from defaults, an
// optional YAML file and RISK_-prefixed environment variables, in that order.
type Config struct {
	Server      Server         `mapstructure:"server"`
	Log         Log            `mapstructure:"log"`
	Auth        AuthConfig     `mapstructure:"auth"`
	Redis       RedisConfig    `mapstructure:"redis"`
	Postgres    PostgresConfig `mapstructure:"postgres"`
	Kafka       KafkaConfig    `mapstructure:"kafka"`
	Screening   Screening      `mapstructure:"screening"`
	Scoring     Scoring        `mapstructure:"scoring"`
	Idempotency Idempotency    `mapstructure:"idempotency"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

type Log struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// AuthConfig enables caller authentication when SigningKey is set.
type AuthConfig struct {
	SigningKey string `mapstructure:"signing_key"`
	Issuer     string `mapstructure:"issuer"`
	Audience   string `mapstructure:"audience"`
}

// RedisConfig selects the shared idempotency backend. Empty URL means in-memory.
type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size" validate:"gte=0"`
	MinIdleConns int           `mapstructure:"min_idle_conns" validate:"gte=0"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// PostgresConfig selects the durable ResultStore. Empty DSN means in-memory.
type PostgresConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	Migrate         bool          `mapstructure:"migrate"`
}

// KafkaConfig enables assessment events when Brokers is non-empty.
type KafkaConfig struct {
	Brokers  []string `mapstructure:"brokers"`
	Topic    string   `mapstructure:"topic"`
	ClientID string   `mapstructure:"client_id"`
}

// VendorConfig holds the endpoint and credentials of one HTTP vendor.
type VendorConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
}

// WatchlistConfig configures the local list vendor.
type WatchlistConfig struct {
	Path      string  `mapstructure:"path"`
	Threshold float64 `mapstructure:"threshold" validate:"gt=0,lte=1"`
}

// SignalDurations carries one duration per screening signal.
type SignalDurations struct {
	Sanctions       time.Duration `mapstructure:"sanctions" validate:"gt=0"`
	PEP             time.Duration `mapstructure:"pep" validate:"gt=0"`
	AdverseMedia    time.Duration `mapstructure:"adverse_media" validate:"gt=0"`
	CountryBaseline time.Duration `mapstructure:"country_baseline" validate:"gt=0"`
	InternalHistory time.Duration `mapstructure:"internal_history" validate:"gt=0"`
}

type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts" validate:"gte=1,lte=5"`
	BaseDelay   time.Duration `mapstructure:"base_delay" validate:"gt=0"`
	MaxDelay    time.Duration `mapstructure:"max_delay" validate:"gtefield=BaseDelay"`
}

type BreakerConfig struct {
	FailureThreshold int           `mapstructure:"failure_threshold" validate:"gte=1"`
	SuccessThreshold int           `mapstructure:"success_threshold" validate:"gte=1"`
	Cooldown         time.Duration `mapstructure:"cooldown" validate:"gt=0"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gt=0"`
	Burst             int     `mapstructure:"burst" validate:"gte=1"`
}

// Screening configures the provider adapters and the vendor registry.
type Screening struct {
	Vendor           string          `mapstructure:"vendor"`
	ComplyAdvantage  VendorConfig    `mapstructure:"complyadvantage"`
	WorldCheck       VendorConfig    `mapstructure:"worldcheck"`
	Watchlist        WatchlistConfig `mapstructure:"watchlist"`
	AdverseMedia     VendorConfig    `mapstructure:"adverse_media"`
	Timeouts         SignalDurations `mapstructure:"timeouts"`
	Retry            RetryConfig     `mapstructure:"retry"`
	Breaker          BreakerConfig   `mapstructure:"breaker"`
	RateLimit        RateLimitConfig `mapstructure:"rate_limit"`
	DegradedAfter    time.Duration   `mapstructure:"degraded_after" validate:"gt=0"`
	HistoryDepth     int             `mapstructure:"history_depth" validate:"gte=1,lte=50"`
	CountryBaselines map[string]int  `mapstructure:"country_baselines" validate:"dive,keys,len=2,endkeys,gte=0,lte=100"`
}

// Weights is the signal weight table. It must sum to 1.0.
type Weights struct {
	Sanctions       float64 `mapstructure:"sanctions" validate:"gte=0"`
	PEP             float64 `mapstructure:"pep" validate:"gte=0"`
	AdverseMedia    float64 `mapstructure:"adverse_media" validate:"gte=0"`
	InternalHistory float64 `mapstructure:"internal_history" validate:"gte=0"`
	CountryBaseline float64 `mapstructure:"country_baseline" validate:"gte=0"`
}

// SignalScores carries one 0-100 score per signal.
type SignalScores struct {
	Sanctions       int `mapstructure:"sanctions" validate:"gte=1,lte=100"`
	PEP             int `mapstructure:"pep" validate:"gte=1,lte=100"`
	AdverseMedia    int `mapstructure:"adverse_media" validate:"gte=1,lte=100"`
	InternalHistory int `mapstructure:"internal_history" validate:"gte=1,lte=100"`
	CountryBaseline int `mapstructure:"country_baseline" validate:"gte=1,lte=100"`
}

// Scoring configures the aggregator.
type Scoring struct {
	Weights        Weights       `mapstructure:"weights"`
	LowCut         int           `mapstructure:"low_cut" validate:"gt=0,ltfield=HighCut"`
	HighCut        int           `mapstructure:"high_cut" validate:"lte=100"`
	Fallbacks      SignalScores  `mapstructure:"fallbacks"`
	RulesetVersion int           `mapstructure:"ruleset_version" validate:"gte=1"`
	Validity       time.Duration `mapstructure:"validity" validate:"gt=0"`
}

// Idempotency configures replay protection.
type Idempotency struct {
	TTL          time.Duration `mapstructure:"ttl" validate:"gt=0"`
	LockTTL      time.Duration `mapstructure:"lock_ttl" validate:"gt=0"`
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"gt=0,ltfield=LockTTL"`
}
