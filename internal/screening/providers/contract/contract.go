package contract

import (
	"context"
	"testing"

	"riskwatch/internal/screening/providers"
)

// ContractTest defines a test case for adapter contract validation
type ContractTest struct {
	Name         string
	Adapter      providers.Adapter
	Query        providers.Query
	ValidateFunc func(result providers.Result) error
}

// ContractSuite is a collection of contract tests for one adapter
type ContractSuite struct {
	ProviderID string
	Signal     providers.Signal
	Tests      []ContractTest
}

// Run executes all contract tests in the suite
func (s *ContractSuite) Run(t *testing.T) {
	for _, test := range s.Tests {
		t.Run(test.Name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), test.Adapter.Timeout())
			defer cancel()

			result, err := test.Adapter.Screen(ctx, test.Query)
			if err != nil {
				t.Fatalf("adapter screen failed: %v", err)
			}

			if result.ProviderID != s.ProviderID {
				t.Errorf("expected provider ID %s, got %s", s.ProviderID, result.ProviderID)
			}
			if result.Signal != s.Signal {
				t.Errorf("expected signal %s, got %s", s.Signal, result.Signal)
			}
			if !result.Success {
				t.Error("successful screen must report Success")
			}
			if result.Score < 0 || result.Score > 100 {
				t.Errorf("score %d out of range [0, 100]", result.Score)
			}
			if result.Confidence < 0 || result.Confidence > 100 {
				t.Errorf("confidence %d out of range [0, 100]", result.Confidence)
			}
			for i, m := range result.RawMatches {
				if m.Kind == "" {
					t.Errorf("match %d has no kind", i)
				}
				if m.Confidence < 0 || m.Confidence > 100 {
					t.Errorf("match %d confidence %d out of range", i, m.Confidence)
				}
			}

			if test.ValidateFunc != nil {
				if err := test.ValidateFunc(result); err != nil {
					t.Errorf("custom validation failed: %v", err)
				}
			}
		})
	}
}

// IdentityTest validates that an adapter declares a usable identity
type IdentityTest struct {
	Adapter providers.Adapter
	Signal  providers.Signal
}

// Run executes an identity test
func (it *IdentityTest) Run(t *testing.T) {
	if it.Adapter.ID() == "" {
		t.Error("provider ID not set")
	}
	if it.Adapter.Signal() != it.Signal {
		t.Errorf("expected signal %s, got %s", it.Signal, it.Adapter.Signal())
	}
	if it.Adapter.Timeout() <= 0 {
		t.Error("timeout must be positive")
	}
}

// ErrorContractTest validates that adapter errors follow the taxonomy
type ErrorContractTest struct {
	Name          string
	Adapter       providers.Adapter
	Query         providers.Query
	ExpectedError providers.ErrorCategory
	ExpectedRetry bool
}

// Run executes an error contract test
func (ect *ErrorContractTest) Run(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), ect.Adapter.Timeout())
	defer cancel()

	_, err := ect.Adapter.Screen(ctx, ect.Query)
	if err == nil {
		t.Fatal("expected error but got none")
	}

	category := providers.GetCategory(err)
	if category != ect.ExpectedError {
		t.Errorf("expected error category %s, got %s", ect.ExpectedError, category)
	}

	isRetryable := providers.IsRetryable(err)
	if isRetryable != ect.ExpectedRetry {
		t.Errorf("expected retryable=%v, got %v", ect.ExpectedRetry, isRetryable)
	}
}
