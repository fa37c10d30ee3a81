package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. RISK_SCREENING_VENDOR.
const EnvPrefix = "RISK"

// weightTolerance absorbs float rounding in the weight-sum check.
const weightTolerance = 0.001

var validate = validator.New(validator.WithRequiredStructEnabled())

// DefaultCountryBaselines is the built-in per-country baseline table. Codes
// not listed fall back to the moderate default in the country adapter.
var DefaultCountryBaselines = map[string]int{
	"US": 15, "CA": 12, "GB": 15, "DE": 12, "FR": 15, "NL": 12, "CH": 20,
	"SE": 8, "NO": 8, "DK": 8, "FI": 8, "IE": 15, "AU": 12, "NZ": 8,
	"JP": 10, "SG": 18, "HK": 30, "AE": 40, "TR": 45, "BR": 45, "MX": 50,
	"IN": 40, "CN": 50, "ZA": 40, "NG": 65, "PA": 60, "CY": 35, "MT": 30,
	"RU": 85, "BY": 80, "IR": 95, "KP": 100, "SY": 95, "CU": 80, "VE": 75,
	"AF": 90, "MM": 85, "YE": 80, "SD": 85, "SS": 80, "LY": 80, "SO": 85,
}

// SetDefaults registers every key so environment overrides resolve through Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.issuer", "riskwatch")
	v.SetDefault("auth.audience", "riskwatch")

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.pool_size", 20)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 2*time.Second)
	v.SetDefault("redis.read_timeout", time.Second)
	v.SetDefault("redis.write_timeout", time.Second)

	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.max_open_conns", 20)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("postgres.migrate", true)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "risk.assessment.completed")
	v.SetDefault("kafka.client_id", "riskwatch")

	v.SetDefault("screening.vendor", "watchlist")
	for _, vendor := range []string{"complyadvantage", "worldcheck", "adverse_media"} {
		v.SetDefault("screening."+vendor+".base_url", "")
		v.SetDefault("screening."+vendor+".api_key", "")
		v.SetDefault("screening."+vendor+".api_secret", "")
	}
	v.SetDefault("screening.watchlist.path", "")
	v.SetDefault("screening.watchlist.threshold", 0.8)
	v.SetDefault("screening.timeouts.sanctions", 10*time.Second)
	v.SetDefault("screening.timeouts.pep", 10*time.Second)
	v.SetDefault("screening.timeouts.adverse_media", 8*time.Second)
	v.SetDefault("screening.timeouts.country_baseline", 3*time.Second)
	v.SetDefault("screening.timeouts.internal_history", 3*time.Second)
	v.SetDefault("screening.retry.max_attempts", 3)
	v.SetDefault("screening.retry.base_delay", 200*time.Millisecond)
	v.SetDefault("screening.retry.max_delay", 2*time.Second)
	v.SetDefault("screening.breaker.failure_threshold", 5)
	v.SetDefault("screening.breaker.success_threshold", 2)
	v.SetDefault("screening.breaker.cooldown", 30*time.Second)
	v.SetDefault("screening.rate_limit.requests_per_second", 20.0)
	v.SetDefault("screening.rate_limit.burst", 10)
	v.SetDefault("screening.degraded_after", time.Second)
	v.SetDefault("screening.history_depth", 5)
	v.SetDefault("screening.country_baselines", DefaultCountryBaselines)

	v.SetDefault("scoring.weights.sanctions", 0.45)
	v.SetDefault("scoring.weights.pep", 0.15)
	v.SetDefault("scoring.weights.adverse_media", 0.15)
	v.SetDefault("scoring.weights.internal_history", 0.15)
	v.SetDefault("scoring.weights.country_baseline", 0.10)
	v.SetDefault("scoring.low_cut", 20)
	v.SetDefault("scoring.high_cut", 40)
	v.SetDefault("scoring.fallbacks.sanctions", 50)
	v.SetDefault("scoring.fallbacks.pep", 30)
	v.SetDefault("scoring.fallbacks.adverse_media", 30)
	v.SetDefault("scoring.fallbacks.internal_history", 20)
	v.SetDefault("scoring.fallbacks.country_baseline", 50)
	v.SetDefault("scoring.ruleset_version", 1)
	v.SetDefault("scoring.validity", 30*24*time.Hour)

	v.SetDefault("idempotency.ttl", time.Hour)
	v.SetDefault("idempotency.lock_ttl", 30*time.Second)
	v.SetDefault("idempotency.poll_interval", 100*time.Millisecond)
}

// NewViper returns a viper instance with defaults and environment binding.
// path, when non-empty, names a YAML file read on top of the defaults.
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}
	return v, nil
}

// Load reads and validates the configuration.
func Load(path string) (*Config, *viper.Viper, error) {
	v, err := NewViper(path)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := Decode(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

// Decode unmarshals and validates the current viper state.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the validated built-in configuration, ignoring the environment.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("default config does not decode: %v", err))
	}
	return &cfg
}

// Validate checks struct constraints and the cross-field scoring rules.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid config: %s failed %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return ValidateWeights(cfg.Scoring.Weights)
}

// ValidateWeights enforces a non-negative weight table summing to 1.0.
func ValidateWeights(w Weights) error {
	values := []float64{w.Sanctions, w.PEP, w.AdverseMedia, w.InternalHistory, w.CountryBaseline}
	sum := 0.0
	for _, value := range values {
		if value < 0 {
			return fmt.Errorf("invalid config: weight %.3f is negative", value)
		}
		sum += value
	}
	if math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("invalid config: weights sum to %.4f, want 1.0", sum)
	}
	return nil
}
