package providers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/metrics"
	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/utils"
)

const (
	defaultMaxAttempts    = 3
	defaultRetryBaseDelay = 500 * time.Millisecond
)

// Retrier wraps vendor calls in a bounded retry loop with exponential delay
// (base << attempt). Auth, not-found and validation failures propagate
// immediately without consuming further attempts; everything else is retried
// until attempts are exhausted and then surfaced as one aggregated failure
// referencing the last underlying error.
type Retrier struct {
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
	sleep       func(time.Duration)
}

// NewRetrier constructs a Retrier. Non-positive arguments fall back to the
// defaults (3 attempts, 500ms base delay).
func NewRetrier(maxAttempts int, baseDelay time.Duration, logger *slog.Logger) *Retrier {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if baseDelay <= 0 {
		baseDelay = defaultRetryBaseDelay
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retrier{
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		logger:      logger,
		sleep:       time.Sleep,
	}
}

// Do runs fn up to the configured attempt ceiling.
func (r *Retrier) Do(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !utils.IsRetryable(err) {
			return err
		}
		if attempt < r.maxAttempts-1 {
			delay := r.backoff(attempt)
			metrics.RetryObserved(op)
			r.logger.Warn("retrying vendor call",
				slog.String("op", op),
				slog.Int("attempt", attempt+1),
				slog.Duration("delay", delay),
				slog.Any("error", err))
			r.sleep(delay)
		}
	}
	return utils.NewAppError(op, utils.KindTransient,
		fmt.Sprintf("giving up after %d attempts", r.maxAttempts), lastErr)
}

func (r *Retrier) backoff(attempt int) time.Duration {
	return r.baseDelay * time.Duration(1<<attempt)
}
