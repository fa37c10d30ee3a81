// Package sanctions exposes the sanctions and PEP signals as two filtered
// views over a single screening vendor. Both views share one vendor call per
// subject.
package sanctions

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"riskwatch/internal/screening/providers"
	pkgstrings "riskwatch/pkg/platform/strings"
)

// Clean floor scores reported when the vendor returns no relevant match.
const (
	SanctionsCleanScore = 5
	PEPCleanScore       = 10
)

// Vendor is the capability set every sanctions data source implements.
// ScreenPerson returns both sanctions and PEP matches; callers filter by kind.
type Vendor interface {
	ID() string
	ScreenPerson(ctx context.Context, q providers.Query) ([]providers.MatchRecord, error)
	HealthCheck(ctx context.Context) providers.HealthReport
}

// Screener wraps a vendor with retries and collapses concurrent identical
// lookups into one vendor call. The shared call is bounded by the longest
// timeout among the views built over it, never by a single caller's context.
type Screener struct {
	vendor Vendor
	retry  providers.RetryPolicy
	group  singleflight.Group
	budget atomic.Int64
}

func NewScreener(vendor Vendor, retry providers.RetryPolicy) *Screener {
	return &Screener{vendor: vendor, retry: retry}
}

func (s *Screener) VendorID() string {
	return s.vendor.ID()
}

// extendBudget raises the shared call's deadline to cover timeout.
func (s *Screener) extendBudget(timeout time.Duration) {
	for {
		cur := s.budget.Load()
		if int64(timeout) <= cur || s.budget.CompareAndSwap(cur, int64(timeout)) {
			return
		}
	}
}

func (s *Screener) matches(ctx context.Context, q providers.Query) ([]providers.MatchRecord, error) {
	key := strings.Join([]string{pkgstrings.NormalizeName(q.SubjectName), strings.ToUpper(q.CountryISO), q.SubjectType}, "|")
	ch := s.group.DoChan(key, func() (any, error) {
		callCtx := context.WithoutCancel(ctx)
		if budget := time.Duration(s.budget.Load()); budget > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(callCtx, budget)
			defer cancel()
		}
		var out []providers.MatchRecord
		err := s.retry.Do(callCtx, s.vendor.ID(), func(ctx context.Context) error {
			matches, err := s.vendor.ScreenPerson(ctx, q)
			if err != nil {
				return err
			}
			out = matches
			return nil
		})
		return out, err
	})

	select {
	case <-ctx.Done():
		return nil, providers.NewProviderError(providers.ErrorTimeout, s.vendor.ID(), "screening deadline exceeded", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		matches, _ := res.Val.([]providers.MatchRecord)
		return matches, nil
	}
}

// Adapter is one signal's view over the shared screener.
type Adapter struct {
	signal   providers.Signal
	kind     providers.MatchKind
	floor    int
	timeout  time.Duration
	screener *Screener
}

// NewSanctionsAdapter serves the sanctions signal from sanctions-list hits.
func NewSanctionsAdapter(s *Screener, timeout time.Duration) *Adapter {
	s.extendBudget(timeout)
	return &Adapter{
		signal:   providers.SignalSanctions,
		kind:     providers.KindSanctionsListHit,
		floor:    SanctionsCleanScore,
		timeout:  timeout,
		screener: s,
	}
}

// NewPEPAdapter serves the PEP signal from PEP hits.
func NewPEPAdapter(s *Screener, timeout time.Duration) *Adapter {
	s.extendBudget(timeout)
	return &Adapter{
		signal:   providers.SignalPEP,
		kind:     providers.KindPEPHit,
		floor:    PEPCleanScore,
		timeout:  timeout,
		screener: s,
	}
}

func (a *Adapter) ID() string               { return a.screener.VendorID() }
func (a *Adapter) Signal() providers.Signal { return a.signal }
func (a *Adapter) Timeout() time.Duration   { return a.timeout }

func (a *Adapter) Screen(ctx context.Context, q providers.Query) (providers.Result, error) {
	matches, err := a.screener.matches(ctx, q)
	if err != nil {
		return providers.Result{}, err
	}
	relevant := providers.FilterKind(matches, a.kind)
	score := providers.MaxScore(relevant, a.floor)
	return providers.Succeeded(a.signal, a.ID(), score, providers.MaxConfidence(relevant, 100), relevant), nil
}

func (a *Adapter) HealthCheck(ctx context.Context) providers.HealthReport {
	return a.screener.vendor.HealthCheck(ctx)
}
