package config

import (
	"log/slog"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Source hands out the current configuration and a generation number that
// increments on every accepted reload.
type Source interface {
	Current() (*Config, uint64)
}

// Static is a Source that never changes.
type Static struct {
	cfg *Config
}

func NewStatic(cfg *Config) *Static {
	return &Static{cfg: cfg}
}

func (s *Static) Current() (*Config, uint64) {
	return s.cfg, 1
}

// Watcher reloads the config file on change. Invalid edits are logged and
// ignored so the last good configuration stays in force.
type Watcher struct {
	v      *viper.Viper
	logger *slog.Logger

	mu         sync.RWMutex
	current    *Config
	generation uint64
	listeners  []func(*Config, uint64)
}

// NewWatcher wraps an already-loaded configuration.
func NewWatcher(v *viper.Viper, initial *Config, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{v: v, logger: logger, current: initial, generation: 1}
}

func (w *Watcher) Current() (*Config, uint64) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current, w.generation
}

// OnChange registers a callback run after each accepted reload.
func (w *Watcher) OnChange(fn func(*Config, uint64)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, fn)
}

// Start begins watching the config file. No-op when no file was loaded.
func (w *Watcher) Start() {
	if w.v.ConfigFileUsed() == "" {
		return
	}
	w.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		w.Reload()
	})
	w.v.WatchConfig()
}

// Reload decodes the current viper state and publishes it if valid.
func (w *Watcher) Reload() bool {
	cfg, err := Decode(w.v)
	if err != nil {
		w.logger.Error("config reload rejected", "file", w.v.ConfigFileUsed(), "error", err)
		return false
	}

	w.mu.Lock()
	w.current = cfg
	w.generation++
	gen := w.generation
	listeners := append([]func(*Config, uint64){}, w.listeners...)
	w.mu.Unlock()

	w.logger.Info("config reloaded", "file", w.v.ConfigFileUsed(), "generation", gen)
	for _, fn := range listeners {
		fn(cfg, gen)
	}
	return true
}
