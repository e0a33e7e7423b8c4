package services

import (
	"context"
	"testing"
	"time"

	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/api"
	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/collector"
	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/models"
	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/providers"
	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/utils"
)

type fakeDirectory struct {
	accounts map[string]models.CloudAccount
}

func (f *fakeDirectory) GetAccount(ctx context.Context, tenantID, accountID string) (*models.CloudAccount, error) {
	account, ok := f.accounts[tenantID+"/"+accountID]
	if !ok {
		return nil, utils.NewAppError("store.GetAccount", utils.KindNotFound, "account "+accountID+" not found", nil)
	}
	return &account, nil
}

func (f *fakeDirectory) ListAccounts(ctx context.Context) ([]models.CloudAccount, error) {
	var out []models.CloudAccount
	for _, a := range f.accounts {
		out = append(out, a)
	}
	return out, nil
}

type stubProvider struct {
	providers.CloudProvider
	costs []models.CloudCostData
}

func (s *stubProvider) GetCosts(ctx context.Context, rng models.DateRange, filters *models.AssetFilters) ([]models.CloudCostData, error) {
	return s.costs, nil
}

type countingStore struct {
	costsSaved int
	synced     int
}

func (c *countingStore) UpsertCosts(ctx context.Context, tenantID, accountID string, items []models.CloudCostData) (int, error) {
	c.costsSaved += len(items)
	return len(items), nil
}

func (c *countingStore) UpsertAssets(ctx context.Context, tenantID, accountID string, assets []models.CloudAsset) (int, error) {
	return len(assets), nil
}

func (c *countingStore) MarkSynced(ctx context.Context, tenantID, accountID string, at time.Time) error {
	c.synced++
	return nil
}

func testService(t *testing.T) (*OpsService, *countingStore) {
	t.Helper()
	store := &countingStore{}
	factory := func(models.CloudAccount) (providers.CloudProvider, error) {
		return &stubProvider{costs: []models.CloudCostData{
			{Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), Service: "compute", Amount: 3},
		}}, nil
	}
	orchestrator := collector.NewOrchestrator(factory, store, store, store, nil)
	directory := &fakeDirectory{accounts: map[string]models.CloudAccount{
		"t1/acct-1": {TenantID: "t1", AccountID: "acct-1", Provider: models.ProviderAWS},
	}}
	return NewOpsService(nil, directory, orchestrator, nil, factory, nil, nil), store
}

func TestCollectCostsHappyPath(t *testing.T) {
	svc, store := testService(t)

	result, err := svc.CollectCosts(context.Background(), "t1", "acct-1",
		api.DateRangeDTO{Start: "2026-03-01", End: "2026-03-02"})
	if err != nil {
		t.Fatalf("CollectCosts: %v", err)
	}
	if !result.Success || result.RecordsSaved != 1 {
		t.Fatalf("result = %+v", result)
	}
	if store.costsSaved != 1 || store.synced != 1 {
		t.Fatalf("store state = %+v", store)
	}
}

func TestCollectCostsRejectsBadRangeBeforeAnyCall(t *testing.T) {
	svc, store := testService(t)

	_, err := svc.CollectCosts(context.Background(), "t1", "acct-1",
		api.DateRangeDTO{Start: "2026-03-05", End: "2026-03-01"})
	if !utils.IsInvalid(err) {
		t.Fatalf("expected invalid, got %v", err)
	}
	if store.costsSaved != 0 {
		t.Fatal("invalid range must not reach the store")
	}
}

func TestCollectCostsUnknownAccount(t *testing.T) {
	svc, _ := testService(t)

	_, err := svc.CollectCosts(context.Background(), "t1", "missing",
		api.DateRangeDTO{Start: "2026-03-01", End: "2026-03-02"})
	if !utils.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestUpdateIncidentStatusRejectsUnknownStatus(t *testing.T) {
	svc, _ := testService(t)

	_, err := svc.UpdateIncidentStatus(context.Background(), "inc-1", "reopened", "", "")
	if !utils.IsInvalid(err) {
		t.Fatalf("expected invalid, got %v", err)
	}
}
