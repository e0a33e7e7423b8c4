package providers

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/utils"
)

// collectScopes fans a fetch out over discovery scopes (regions,
// subscriptions, zones) and merges the results. A scope that fails with a
// retryable or not-found error is logged and contributes nothing, so one bad
// scope never empties the whole run. Auth failures cancel the group and
// propagate, since they affect every scope equally.
func collectScopes[T any](ctx context.Context, logger *slog.Logger, op string, scopes []string, fetch func(ctx context.Context, scope string) ([]T, error)) ([]T, error) {
	var (
		mu     sync.Mutex
		merged []T
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, scope := range scopes {
		scope := scope
		g.Go(func() error {
			items, err := fetch(ctx, scope)
			if err != nil {
				if utils.IsAuth(err) {
					return err
				}
				logger.Warn("scope fetch failed, skipping",
					slog.String("op", op),
					slog.String("scope", scope),
					slog.Any("error", err))
				return nil
			}
			mu.Lock()
			merged = append(merged, items...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return merged, nil
}
