package providers

import (
	"context"
	"time"
)

// Unconfigured stands in for a signal whose source has no usable
// configuration. Every Screen call fails with ErrorNotConfigured.
type Unconfigured struct {
	signal  Signal
	reason  string
	timeout time.Duration
}

func NewUnconfigured(signal Signal, reason string, timeout time.Duration) *Unconfigured {
	return &Unconfigured{signal: signal, reason: reason, timeout: timeout}
}

func (u *Unconfigured) ID() string             { return "unconfigured" }
func (u *Unconfigured) Signal() Signal         { return u.signal }
func (u *Unconfigured) Timeout() time.Duration { return u.timeout }

func (u *Unconfigured) Screen(context.Context, Query) (Result, error) {
	return Result{}, NewProviderError(ErrorNotConfigured, u.ID(), u.reason, ErrNotConfigured)
}

func (u *Unconfigured) HealthCheck(context.Context) HealthReport {
	return HealthReport{Status: HealthUnhealthy, Error: u.reason}
}
