package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/advisor"
	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/api"
	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/collector"
	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/correlation"
	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/metrics"
	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/models"
	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/utils"
)

// AccountDirectory resolves registered cloud accounts.
type AccountDirectory interface {
	GetAccount(ctx context.Context, tenantID, accountID string) (*models.CloudAccount, error)
	ListAccounts(ctx context.Context) ([]models.CloudAccount, error)
}

// CostReader aggregates persisted costs for the advisor.
type CostReader interface {
	CostsByService(ctx context.Context, tenantID, accountID string, rng models.DateRange) ([]models.CostByService, error)
}

// OpsService is the in-process facade embedding hosts call. It validates DTO
// input at the boundary, drives the collector and correlation engine, and
// records collection metrics and latency percentiles.
type OpsService struct {
	logger       *slog.Logger
	accounts     AccountDirectory
	orchestrator *collector.Orchestrator
	engine       *correlation.Engine
	factory      collector.ProviderFactory
	costs        CostReader
	advisor      *advisor.Advisor
	latencies    *utils.LatencyTracker
}

// NewOpsService constructs the facade. Factory, cost reader and advisor may
// be nil for hosts that only collect and correlate.
func NewOpsService(logger *slog.Logger, accounts AccountDirectory, orchestrator *collector.Orchestrator, engine *correlation.Engine, factory collector.ProviderFactory, costs CostReader, adv *advisor.Advisor) *OpsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OpsService{
		logger:       logger,
		accounts:     accounts,
		orchestrator: orchestrator,
		engine:       engine,
		factory:      factory,
		costs:        costs,
		advisor:      adv,
		latencies:    utils.NewLatencyTracker(1024),
	}
}

// CollectCosts runs cost collection for one registered account.
func (s *OpsService) CollectCosts(ctx context.Context, tenantID, accountID string, rangeDTO api.DateRangeDTO) (api.CollectionResultDTO, error) {
	rng, err := api.ParseDateRange(rangeDTO)
	if err != nil {
		return api.CollectionResultDTO{}, err
	}
	account, err := s.accounts.GetAccount(ctx, tenantID, accountID)
	if err != nil {
		return api.CollectionResultDTO{}, err
	}

	start := time.Now()
	result := s.orchestrator.CollectCosts(ctx, *account, rng)
	s.observe(string(account.Provider), time.Since(start), result.Success)
	return api.ToCollectionResultDTO(result), nil
}

// CollectAssets runs asset discovery for one registered account.
func (s *OpsService) CollectAssets(ctx context.Context, tenantID, accountID string, filters *models.AssetFilters) (api.CollectionResultDTO, error) {
	account, err := s.accounts.GetAccount(ctx, tenantID, accountID)
	if err != nil {
		return api.CollectionResultDTO{}, err
	}

	start := time.Now()
	result := s.orchestrator.CollectAssets(ctx, *account, filters)
	s.observe(string(account.Provider), time.Since(start), result.Success)
	return api.ToCollectionResultDTO(result), nil
}

// CollectAll sweeps every registered account, collecting costs over the
// window and refreshing assets. Per-account failures are reported in the
// per-account results, never as a sweep error.
func (s *OpsService) CollectAll(ctx context.Context, rng models.DateRange) map[string]api.CollectionResultDTO {
	results := make(map[string]api.CollectionResultDTO)
	accounts, err := s.accounts.ListAccounts(ctx)
	if err != nil {
		s.logger.Error("account sweep failed", slog.Any("error", err))
		return results
	}

	for _, account := range accounts {
		if ctx.Err() != nil {
			return results
		}
		start := time.Now()
		costResult := s.orchestrator.CollectCosts(ctx, account, rng)
		assetResult := s.orchestrator.CollectAssets(ctx, account, nil)
		s.observe(string(account.Provider), time.Since(start), costResult.Success && assetResult.Success)

		merged := costResult
		merged.Success = costResult.Success && assetResult.Success
		merged.RecordsObtained += assetResult.RecordsObtained
		merged.RecordsSaved += assetResult.RecordsSaved
		merged.ExecutionTimeMs += assetResult.ExecutionTimeMs
		merged.Errors = append(merged.Errors, assetResult.Errors...)
		results[account.TenantID+"/"+account.AccountID] = api.ToCollectionResultDTO(merged)
	}
	return results
}

// AggregateAlerts correlates the account's active alerts into incidents.
func (s *OpsService) AggregateAlerts(ctx context.Context, tenantID, accountID string) ([]api.IncidentDTO, error) {
	incidents, err := s.engine.Aggregate(ctx, tenantID, accountID)
	if err != nil {
		return nil, err
	}
	out := make([]api.IncidentDTO, 0, len(incidents))
	for _, incident := range incidents {
		out = append(out, api.ToIncidentDTO(incident))
	}
	return out, nil
}

// UpdateIncidentStatus transitions an incident and returns its new state.
func (s *OpsService) UpdateIncidentStatus(ctx context.Context, incidentID, status, assignee, note string) (api.IncidentDTO, error) {
	parsed, err := parseIncidentStatus(status)
	if err != nil {
		return api.IncidentDTO{}, err
	}
	incident, err := s.engine.UpdateStatus(ctx, incidentID, parsed, assignee, note)
	if err != nil {
		return api.IncidentDTO{}, err
	}
	return api.ToIncidentDTO(*incident), nil
}

// IncidentTimeline returns the assembled timeline projection.
func (s *OpsService) IncidentTimeline(ctx context.Context, incidentID string) ([]api.TimelineEventDTO, error) {
	events, err := s.engine.Timeline(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	return api.ToTimelineDTOs(events), nil
}

// Recommendations scans the account for misconfigurations, joins the
// findings with persisted cost roll-ups over the range, and runs the
// advisory rule pack. Without a loaded rule pack it returns nothing.
func (s *OpsService) Recommendations(ctx context.Context, tenantID, accountID string, rangeDTO api.DateRangeDTO) ([]api.RecommendationDTO, error) {
	const op = "services.Recommendations"
	if s.factory == nil || s.costs == nil {
		return nil, utils.NewAppError(op, utils.KindInvalid, "advisory dependencies not configured", nil)
	}
	rng, err := api.ParseDateRange(rangeDTO)
	if err != nil {
		return nil, err
	}
	account, err := s.accounts.GetAccount(ctx, tenantID, accountID)
	if err != nil {
		return nil, err
	}
	provider, err := s.factory(*account)
	if err != nil {
		return nil, err
	}

	findings, err := provider.ScanForMisconfigurations(ctx, nil)
	if err != nil {
		return nil, err
	}
	costs, err := s.costs.CostsByService(ctx, tenantID, accountID, rng)
	if err != nil {
		return nil, err
	}
	return api.ToRecommendationDTOs(s.advisor.Advise(findings, costs)), nil
}

// LatencyP95 reports the current p95 collection latency.
func (s *OpsService) LatencyP95() time.Duration {
	if s.latencies == nil {
		return 0
	}
	return s.latencies.Percentile(95)
}

func (s *OpsService) observe(provider string, duration time.Duration, success bool) {
	outcome := metrics.OutcomeSuccess
	if !success {
		outcome = metrics.OutcomeError
	}
	metrics.ObserveCollection(provider, duration, outcome)
	s.latencies.Observe(duration)
	if count := s.latencies.Count(); count >= 20 && count%20 == 0 {
		s.logger.Info("collection latency",
			slog.Duration("p95", s.latencies.Percentile(95)),
			slog.Int("samples", count))
	}
}

func parseIncidentStatus(raw string) (models.IncidentStatus, error) {
	switch models.IncidentStatus(raw) {
	case models.IncidentStatusNew, models.IncidentStatusAcknowledged, models.IncidentStatusInvestigating,
		models.IncidentStatusResolved, models.IncidentStatusClosed:
		return models.IncidentStatus(raw), nil
	default:
		return "", utils.NewAppError("services.UpdateIncidentStatus", utils.KindInvalid,
			"unknown incident status "+raw, nil)
	}
}
