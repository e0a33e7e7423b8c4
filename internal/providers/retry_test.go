package providers

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/utils"
)

func newTestRetrier(maxAttempts int) (*Retrier, *[]time.Duration) {
	r := NewRetrier(maxAttempts, 10*time.Millisecond, nil)
	var slept []time.Duration
	r.sleep = func(d time.Duration) { slept = append(slept, d) }
	return r, &slept
}

func TestRetrierRetriesTransientFailures(t *testing.T) {
	r, slept := newTestRetrier(3)

	attempts := 0
	err := r.Do(context.Background(), "op", func() error {
		attempts++
		if attempts < 3 {
			return utils.NewAppError("op", utils.KindTransient, "flaky", nil)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
	if len(*slept) != 2 {
		t.Fatalf("slept %d times, want 2", len(*slept))
	}
	if (*slept)[0] != 10*time.Millisecond || (*slept)[1] != 20*time.Millisecond {
		t.Fatalf("unexpected delays: %v", *slept)
	}
}

func TestRetrierGivesUpAfterMaxAttempts(t *testing.T) {
	r, _ := newTestRetrier(3)

	attempts := 0
	cause := errors.New("rate limited")
	err := r.Do(context.Background(), "op", func() error {
		attempts++
		return utils.NewAppError("op", utils.KindTransient, "throttled", cause)
	})
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
	if !strings.Contains(err.Error(), "giving up after 3 attempts") {
		t.Fatalf("unexpected error message: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("aggregated error should wrap the last cause, got %v", err)
	}
}

func TestRetrierDoesNotRetryAuthFailures(t *testing.T) {
	r, slept := newTestRetrier(3)

	attempts := 0
	err := r.Do(context.Background(), "op", func() error {
		attempts++
		return utils.NewAppError("op", utils.KindAuth, "bad credentials", nil)
	})
	if !utils.IsAuth(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
	if len(*slept) != 0 {
		t.Fatalf("should not sleep on auth failure, slept %v", *slept)
	}
}

func TestRetrierDoesNotRetryNotFound(t *testing.T) {
	r, _ := newTestRetrier(3)

	attempts := 0
	err := r.Do(context.Background(), "op", func() error {
		attempts++
		return utils.NewAppError("op", utils.KindNotFound, "gone", nil)
	})
	if !utils.IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
}

func TestRetrierHonorsContextCancellation(t *testing.T) {
	r, _ := newTestRetrier(5)

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := r.Do(ctx, "op", func() error {
		attempts++
		cancel()
		return utils.NewAppError("op", utils.KindTransient, "flaky", nil)
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
}
