package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
)

func TestExecuteRetriesTemporaryFailure(t *testing.T) {
	exec := NewExecutor(SingleProfile(Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 1 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	}))

	attempts := 0
	errTemp := errors.New("temporary")
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errTemp
		}
		return nil
	}, func(err error) ErrorClassification {
		return ErrorClassification{
			Retryable:     errors.Is(err, errTemp),
			RecordFailure: true,
		}
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestExecuteDoesNotRetryPermanentFailure(t *testing.T) {
	exec := NewExecutor(SingleProfile(Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 1 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	}))

	attempts := 0
	errPermanent := errors.New("permanent")
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		return errPermanent
	}, func(error) ErrorClassification {
		return ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	})
	if !errors.Is(err, errPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestExecuteUsesPerOperationProfile(t *testing.T) {
	exec := NewExecutor(Profiles{
		Default: Config{
			RetryMaxAttempts:    1,
			RetryInitialBackoff: 1 * time.Millisecond,
			RetryMaxBackoff:     1 * time.Millisecond,
			RetryMultiplier:     2,
			BreakerEnabled:      false,
		},
		PerOperation: map[string]Config{
			"edgar.document": {
				RetryMaxAttempts:    4,
				RetryInitialBackoff: 1 * time.Millisecond,
				RetryMaxBackoff:     1 * time.Millisecond,
				RetryMultiplier:     2,
				BreakerEnabled:      false,
			},
		},
	})

	errTemp := errors.New("temporary")
	classifier := func(error) ErrorClassification {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	}

	attempts := 0
	err := exec.Execute(context.Background(), "edgar.document", func(context.Context) error {
		attempts++
		return errTemp
	}, classifier)
	if !errors.Is(err, errTemp) {
		t.Fatalf("expected temporary error, got %v", err)
	}
	if attempts != 4 {
		t.Fatalf("expected profile to allow 4 attempts, got %d", attempts)
	}

	attempts = 0
	err = exec.Execute(context.Background(), "other_op", func(context.Context) error {
		attempts++
		return errTemp
	}, classifier)
	if !errors.Is(err, errTemp) {
		t.Fatalf("expected temporary error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected default profile to allow 1 attempt, got %d", attempts)
	}
}

func TestExecuteOpensCircuitAfterFailures(t *testing.T) {
	exec := NewExecutor(SingleProfile(Config{
		RetryMaxAttempts:        1,
		RetryInitialBackoff:     1 * time.Millisecond,
		RetryMaxBackoff:         1 * time.Millisecond,
		RetryMultiplier:         2,
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      50 * time.Millisecond,
		BreakerHalfOpenMaxCalls: 1,
	}))

	errTemp := errors.New("temporary")
	classifier := func(error) ErrorClassification {
		return ErrorClassification{
			Retryable:     false,
			RecordFailure: true,
		}
	}

	for i := 0; i < 2; i++ {
		err := exec.Execute(context.Background(), "op", func(context.Context) error {
			return errTemp
		}, classifier)
		if !errors.Is(err, errTemp) {
			t.Fatalf("expected temporary error on iteration %d, got %v", i, err)
		}
	}

	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		t.Fatalf("circuit should be open and must not call operation")
		return nil
	}, classifier)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open state error, got %v", err)
	}
}
