package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/models"
	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/providers"
	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/utils"
)

// ProviderFactory builds a ready-to-call adapter for an account, including
// credential decryption. Injected so tests can substitute fakes without
// touching ciphertext.
type ProviderFactory func(account models.CloudAccount) (providers.CloudProvider, error)

// CostStore persists cost line items.
type CostStore interface {
	UpsertCosts(ctx context.Context, tenantID, accountID string, items []models.CloudCostData) (int, error)
}

// AssetStore persists discovered resources.
type AssetStore interface {
	UpsertAssets(ctx context.Context, tenantID, accountID string, assets []models.CloudAsset) (int, error)
}

// SyncStore stamps successful collection runs.
type SyncStore interface {
	MarkSynced(ctx context.Context, tenantID, accountID string, at time.Time) error
}

// Orchestrator runs collection for one account at a time and reports a
// structured outcome instead of propagating adapter errors. A run that
// obtains zero records is still a success; a run that cannot authenticate is
// a failure that leaves the sync stamp untouched.
type Orchestrator struct {
	logger      *slog.Logger
	newProvider ProviderFactory
	costs       CostStore
	assets      AssetStore
	sync        SyncStore
	clock       func() time.Time
}

func NewOrchestrator(factory ProviderFactory, costs CostStore, assets AssetStore, sync SyncStore, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		logger:      logger,
		newProvider: factory,
		costs:       costs,
		assets:      assets,
		sync:        sync,
		clock:       time.Now,
	}
}

// CollectCosts fetches and persists cost data for one account over a date
// range.
func (o *Orchestrator) CollectCosts(ctx context.Context, account models.CloudAccount, rng models.DateRange) models.CollectionResult {
	return o.run(ctx, account, "costs", func(ctx context.Context, p providers.CloudProvider) (int, int, error) {
		items, err := p.GetCosts(ctx, rng, nil)
		if err != nil {
			return 0, 0, err
		}
		saved, err := o.costs.UpsertCosts(ctx, account.TenantID, account.AccountID, items)
		if err != nil {
			return len(items), 0, err
		}
		return len(items), saved, nil
	})
}

// CollectAssets discovers and persists the account's resources.
func (o *Orchestrator) CollectAssets(ctx context.Context, account models.CloudAccount, filters *models.AssetFilters) models.CollectionResult {
	return o.run(ctx, account, "assets", func(ctx context.Context, p providers.CloudProvider) (int, int, error) {
		assets, err := p.DiscoverAssets(ctx, filters)
		if err != nil {
			return 0, 0, err
		}
		saved, err := o.assets.UpsertAssets(ctx, account.TenantID, account.AccountID, assets)
		if err != nil {
			return len(assets), 0, err
		}
		return len(assets), saved, nil
	})
}

func (o *Orchestrator) run(ctx context.Context, account models.CloudAccount, kind string, collect func(ctx context.Context, p providers.CloudProvider) (int, int, error)) models.CollectionResult {
	started := o.clock()
	result := models.CollectionResult{}
	finish := func() models.CollectionResult {
		result.ExecutionTimeMs = o.clock().Sub(started).Milliseconds()
		return result
	}
	fail := func(msg string) models.CollectionResult {
		result.Success = false
		result.Errors = append(result.Errors, msg)
		o.logger.Error("collection failed",
			slog.String("kind", kind),
			slog.String("tenant", account.TenantID),
			slog.String("account", account.AccountID),
			slog.String("error", msg))
		return finish()
	}

	provider, err := o.newProvider(account)
	if err != nil {
		if utils.IsAuth(err) {
			return fail(fmt.Sprintf("authentication failed for account %s: %v", account.AccountID, err))
		}
		return fail(fmt.Sprintf("provider setup failed for account %s: %v", account.AccountID, err))
	}

	obtained, saved, err := collect(ctx, provider)
	result.RecordsObtained = obtained
	result.RecordsSaved = saved
	if err != nil {
		if utils.IsAuth(err) {
			return fail(fmt.Sprintf("authentication failed for account %s: %v", account.AccountID, err))
		}
		return fail(fmt.Sprintf("collection failed for account %s: %v", account.AccountID, err))
	}

	if err := o.sync.MarkSynced(ctx, account.TenantID, account.AccountID, o.clock()); err != nil {
		o.logger.Warn("mark synced failed",
			slog.String("tenant", account.TenantID),
			slog.String("account", account.AccountID),
			slog.Any("error", err))
	}

	result.Success = true
	o.logger.Info("collection finished",
		slog.String("kind", kind),
		slog.String("tenant", account.TenantID),
		slog.String("account", account.AccountID),
		slog.Int("obtained", obtained),
		slog.Int("saved", saved))
	return finish()
}
