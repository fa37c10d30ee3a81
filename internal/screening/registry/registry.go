// Package registry resolves the concrete adapter serving each screening
// signal from configuration. The sanctions and PEP signals share one vendor,
// selected by screening.vendor.
package registry

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"riskwatch/internal/platform/config"
	"riskwatch/internal/screening/providers"
	"riskwatch/internal/screening/providers/adversemedia"
	"riskwatch/internal/screening/providers/country"
	"riskwatch/internal/screening/providers/history"
	"riskwatch/internal/screening/providers/sanctions"
	"riskwatch/internal/screening/providers/sanctions/complyadvantage"
	"riskwatch/internal/screening/providers/sanctions/watchlist"
	"riskwatch/internal/screening/providers/sanctions/worldcheck"
	dErrors "riskwatch/pkg/domain-errors"
	"riskwatch/pkg/platform/circuit"
)

// VendorFactory builds a sanctions vendor from configuration. opts carry the
// shared transport settings for HTTP vendors.
type VendorFactory func(cfg *config.Config, opts []providers.HTTPOption) (sanctions.Vendor, error)

// Vendors lists the supported sanctions vendors by configuration name.
var Vendors = map[string]VendorFactory{
	watchlist.ProviderID: func(cfg *config.Config, _ []providers.HTTPOption) (sanctions.Vendor, error) {
		return watchlist.Load(cfg.Screening.Watchlist.Path, cfg.Screening.Watchlist.Threshold)
	},
	complyadvantage.ProviderID: func(cfg *config.Config, opts []providers.HTTPOption) (sanctions.Vendor, error) {
		vc := cfg.Screening.ComplyAdvantage
		return complyadvantage.New(vc.BaseURL, vc.APIKey, cfg.Screening.DegradedAfter, opts...)
	},
	worldcheck.ProviderID: func(cfg *config.Config, opts []providers.HTTPOption) (sanctions.Vendor, error) {
		vc := cfg.Screening.WorldCheck
		return worldcheck.New(vc.BaseURL, vc.APIKey, vc.APISecret, cfg.Screening.DegradedAfter, opts...)
	},
}

// SupportedVendors returns the configurable vendor names, sorted.
func SupportedVendors() []string {
	names := make([]string, 0, len(Vendors))
	for name := range Vendors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Registry caches resolved adapters per configuration generation.
type Registry struct {
	source     config.Source
	history    history.Store
	logger     *slog.Logger
	httpClient *http.Client

	mu         sync.Mutex
	generation uint64
	vendor     string
	adapters   map[providers.Signal]providers.Adapter
	errs       map[providers.Signal]error
}

// Option configures a Registry.
type Option func(*Registry)

// WithHTTPClient sets the client used by HTTP vendors.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Registry) { r.httpClient = c }
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// New resolves every signal once and fails with a configuration error if any
// signal cannot be served. historyStore may be nil, leaving the history signal
// unconfigured.
func New(source config.Source, historyStore history.Store, opts ...Option) (*Registry, error) {
	r := &Registry{
		source:     source,
		history:    historyStore,
		logger:     slog.Default(),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(r)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.refreshLocked()
	for _, signal := range providers.AllSignals {
		if err := r.errs[signal]; err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Adapter returns the adapter serving signal. After a configuration change
// that cannot be resolved it returns a configuration error.
func (r *Registry) Adapter(signal providers.Signal) (providers.Adapter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refreshLocked()

	if err := r.errs[signal]; err != nil {
		return nil, err
	}
	adapter, ok := r.adapters[signal]
	if !ok {
		return nil, dErrors.New(dErrors.CodeConfiguration, fmt.Sprintf("no adapter for signal %s", signal))
	}
	return adapter, nil
}

// All returns one adapter per signal in canonical order. Signals that cannot
// be resolved are represented by an unconfigured placeholder.
func (r *Registry) All() []providers.Adapter {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refreshLocked()

	cfg, _ := r.source.Current()
	out := make([]providers.Adapter, 0, len(providers.AllSignals))
	for _, signal := range providers.AllSignals {
		if adapter, ok := r.adapters[signal]; ok {
			out = append(out, adapter)
			continue
		}
		reason := "not configured"
		if err := r.errs[signal]; err != nil {
			reason = err.Error()
		}
		out = append(out, providers.NewUnconfigured(signal, reason, timeoutFor(cfg, signal)))
	}
	return out
}

// Vendor names the sanctions vendor currently in use.
func (r *Registry) Vendor() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refreshLocked()
	return r.vendor
}

func (r *Registry) refreshLocked() {
	cfg, generation := r.source.Current()
	if r.adapters != nil && generation == r.generation {
		return
	}

	adapters := make(map[providers.Signal]providers.Adapter, len(providers.AllSignals))
	errs := make(map[providers.Signal]error)
	retry := r.retryPolicy(cfg)

	vendor, err := r.buildVendor(cfg)
	if err != nil {
		errs[providers.SignalSanctions] = err
		errs[providers.SignalPEP] = err
	} else {
		screener := sanctions.NewScreener(vendor, retry)
		adapters[providers.SignalSanctions] = sanctions.NewSanctionsAdapter(screener, cfg.Screening.Timeouts.Sanctions)
		adapters[providers.SignalPEP] = sanctions.NewPEPAdapter(screener, cfg.Screening.Timeouts.PEP)
	}

	if media, err := r.buildAdverseMedia(cfg, retry); err != nil {
		r.logger.Warn("adverse media source not configured", "error", err)
		adapters[providers.SignalAdverseMedia] = providers.NewUnconfigured(providers.SignalAdverseMedia, err.Error(), cfg.Screening.Timeouts.AdverseMedia)
	} else {
		adapters[providers.SignalAdverseMedia] = media
	}

	adapters[providers.SignalCountryBaseline] = country.New(cfg.Screening.CountryBaselines, cfg.Screening.Timeouts.CountryBaseline)

	if r.history != nil {
		adapters[providers.SignalInternalHistory] = history.New(r.history, cfg.Screening.HistoryDepth, cfg.Screening.Timeouts.InternalHistory)
	} else {
		adapters[providers.SignalInternalHistory] = providers.NewUnconfigured(providers.SignalInternalHistory, "no result store", cfg.Screening.Timeouts.InternalHistory)
	}

	if r.adapters != nil {
		r.logger.Info("screening adapters re-resolved", "generation", generation, "vendor", cfg.Screening.Vendor)
	}
	r.generation = generation
	r.vendor = cfg.Screening.Vendor
	r.adapters = adapters
	r.errs = errs
}

func (r *Registry) buildVendor(cfg *config.Config) (sanctions.Vendor, error) {
	name := cfg.Screening.Vendor
	factory, ok := Vendors[name]
	if !ok {
		return nil, dErrors.New(dErrors.CodeConfiguration, fmt.Sprintf("unsupported screening vendor %q (supported: %v)", name, SupportedVendors()))
	}
	vendor, err := factory(cfg, r.httpOptions(cfg, name))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeConfiguration, fmt.Sprintf("screening vendor %s", name))
	}
	return vendor, nil
}

func (r *Registry) buildAdverseMedia(cfg *config.Config, retry providers.RetryPolicy) (providers.Adapter, error) {
	mc := cfg.Screening.AdverseMedia
	return adversemedia.New(mc.BaseURL, mc.APIKey, cfg.Screening.Timeouts.AdverseMedia, cfg.Screening.DegradedAfter, retry,
		r.httpOptions(cfg, adversemedia.ProviderID)...)
}

func (r *Registry) httpOptions(cfg *config.Config, name string) []providers.HTTPOption {
	bc := cfg.Screening.Breaker
	rl := cfg.Screening.RateLimit
	return []providers.HTTPOption{
		providers.WithHTTPClient(r.httpClient),
		providers.WithBreaker(circuit.New(name,
			circuit.WithFailureThreshold(bc.FailureThreshold),
			circuit.WithSuccessThreshold(bc.SuccessThreshold),
			circuit.WithCooldown(bc.Cooldown),
		)),
		providers.WithLimiter(rate.NewLimiter(rate.Limit(rl.RequestsPerSecond), rl.Burst)),
	}
}

func (r *Registry) retryPolicy(cfg *config.Config) providers.RetryPolicy {
	rc := cfg.Screening.Retry
	return providers.RetryPolicy{
		MaxAttempts: rc.MaxAttempts,
		BaseDelay:   rc.BaseDelay,
		MaxDelay:    rc.MaxDelay,
		OnRetry: func(err error, wait time.Duration) {
			r.logger.Debug("retrying screening call", "error", err, "wait", wait)
		},
	}
}

func timeoutFor(cfg *config.Config, signal providers.Signal) time.Duration {
	t := cfg.Screening.Timeouts
	switch signal {
	case providers.SignalSanctions:
		return t.Sanctions
	case providers.SignalPEP:
		return t.PEP
	case providers.SignalAdverseMedia:
		return t.AdverseMedia
	case providers.SignalCountryBaseline:
		return t.CountryBaseline
	default:
		return t.InternalHistory
	}
}
