package providers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/models"
	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/utils"
)

const (
	defaultGCPBaseURL = "http://localhost:8381/gcp"
	defaultGCPZone    = "us-central1-a"
)

// GCPProvider translates Compute Engine, billing export and Security Command
// Center shaped payloads into canonical types. Asset discovery fans out over
// the configured zones within one project; credentials without zones fall
// back to us-central1-a, matching the AWS region default.
type GCPProvider struct {
	creds   Credentials
	client  *apiClient
	retrier *Retrier
	logger  *slog.Logger
	zones   []string
}

func NewGCPProvider(creds Credentials, cfg Config, logger *slog.Logger) *GCPProvider {
	if logger == nil {
		logger = slog.Default()
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultGCPBaseURL
	}
	zones := creds.Zones
	if len(zones) == 0 {
		zones = []string{defaultGCPZone}
	}
	authorize := func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	}
	return &GCPProvider{
		creds:   creds,
		client:  newAPIClient(baseURL, cfg.Timeout, authorize),
		retrier: NewRetrier(cfg.MaxAttempts, cfg.RetryBaseDelay, logger),
		logger:  logger,
		zones:   zones,
	}
}

func (p *GCPProvider) ValidateCredentials(ctx context.Context) error {
	const op = "gcp.ValidateCredentials"
	return p.retrier.Do(ctx, op, func() error {
		var project struct {
			ProjectID string `json:"projectId"`
			State     string `json:"lifecycleState"`
		}
		return p.client.getJSON(ctx, op, "projects/"+p.creds.ProjectID, nil, &project)
	})
}

type gcpCostsResponse struct {
	Costs []struct {
		Date       string  `json:"date"`
		Service    string  `json:"service"`
		Amount     float64 `json:"amount"`
		Currency   string  `json:"currency"`
		UsageType  string  `json:"usageType"`
		Region     string  `json:"region"`
		ResourceID string  `json:"resourceId"`
	} `json:"costs"`
}

func (p *GCPProvider) GetCosts(ctx context.Context, rng models.DateRange, filters *models.AssetFilters) ([]models.CloudCostData, error) {
	const op = "gcp.GetCosts"
	query := url.Values{
		"startDate": {rng.Start.UTC().Format("2006-01-02")},
		"endDate":   {rng.End.UTC().Format("2006-01-02")},
	}

	var resp gcpCostsResponse
	err := p.retrier.Do(ctx, op, func() error {
		path := fmt.Sprintf("billing/projects/%s/costs", p.creds.ProjectID)
		return p.client.getJSON(ctx, op, path, query, &resp)
	})
	if err != nil {
		return nil, err
	}

	var items []models.CloudCostData
	for _, row := range resp.Costs {
		date, err := utils.ParseDate(row.Date)
		if err != nil {
			p.logger.Warn("skipping cost row with bad date",
				slog.String("date", row.Date), slog.Any("error", err))
			continue
		}
		items = append(items, models.CloudCostData{
			Date:       date,
			Service:    row.Service,
			Amount:     row.Amount,
			Currency:   row.Currency,
			UsageType:  row.UsageType,
			Region:     row.Region,
			ResourceID: row.ResourceID,
			Metadata:   map[string]string{"projectId": p.creds.ProjectID},
		})
	}
	return ApplyCostFilters(items, filters), nil
}

func (p *GCPProvider) GetCostsByService(ctx context.Context, rng models.DateRange) ([]models.CostByService, error) {
	items, err := p.GetCosts(ctx, rng, nil)
	if err != nil {
		return nil, err
	}
	return RollupByService(items), nil
}

func (p *GCPProvider) GetCostTrends(ctx context.Context, rng models.DateRange, granularity models.Granularity) ([]models.CostTrend, error) {
	items, err := p.GetCosts(ctx, rng, nil)
	if err != nil {
		return nil, err
	}
	return RollupTrends(items, granularity), nil
}

type gcpInstancesResponse struct {
	Items []gcpInstance `json:"items"`
}

type gcpInstance struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	MachineType       string            `json:"machineType"`
	Status            string            `json:"status"`
	Zone              string            `json:"zone"`
	Labels            map[string]string `json:"labels"`
	CreationTimestamp string            `json:"creationTimestamp"`
}

func (p *GCPProvider) DiscoverAssets(ctx context.Context, filters *models.AssetFilters) ([]models.CloudAsset, error) {
	const op = "gcp.DiscoverAssets"
	assets, err := collectScopes(ctx, p.logger, op, p.zones, p.instancesInZone)
	if err != nil {
		return nil, err
	}
	return ApplyFilters(assets, filters), nil
}

func (p *GCPProvider) instancesInZone(ctx context.Context, zone string) ([]models.CloudAsset, error) {
	const op = "gcp.ListInstances"
	var resp gcpInstancesResponse
	err := p.retrier.Do(ctx, op, func() error {
		path := fmt.Sprintf("compute/projects/%s/zones/%s/instances", p.creds.ProjectID, zone)
		return p.client.getJSON(ctx, op, path, nil, &resp)
	})
	if err != nil {
		return nil, err
	}

	assets := make([]models.CloudAsset, 0, len(resp.Items))
	for _, inst := range resp.Items {
		assets = append(assets, p.toAsset(zone, inst))
	}
	return assets, nil
}

func (p *GCPProvider) toAsset(zone string, inst gcpInstance) models.CloudAsset {
	created, _ := utils.ParseRFC3339(inst.CreationTimestamp)
	return models.CloudAsset{
		ResourceID:   inst.ID,
		ResourceType: "compute:instance",
		Name:         inst.Name,
		Region:       regionFromZone(zone),
		Zone:         zone,
		Status:       NormalizeStatus(inst.Status),
		Tags:         inst.Labels,
		Metadata: map[string]string{
			"machineType": inst.MachineType,
			"projectId":   p.creds.ProjectID,
		},
		CreatedAt: created,
	}
}

// regionFromZone strips the trailing zone letter, us-central1-a to
// us-central1. Values without a zone suffix pass through unchanged.
func regionFromZone(zone string) string {
	if len(zone) > 2 && zone[len(zone)-2] == '-' {
		return zone[:len(zone)-2]
	}
	return zone
}

func (p *GCPProvider) GetAssetDetails(ctx context.Context, resourceID string) (*models.CloudAsset, error) {
	const op = "gcp.GetAssetDetails"
	for _, zone := range p.zones {
		var inst gcpInstance
		err := p.retrier.Do(ctx, op, func() error {
			path := fmt.Sprintf("compute/projects/%s/zones/%s/instances/%s", p.creds.ProjectID, zone, resourceID)
			return p.client.getJSON(ctx, op, path, nil, &inst)
		})
		if err != nil {
			if utils.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		asset := p.toAsset(zone, inst)
		return &asset, nil
	}
	return nil, utils.NewAppError(op, utils.KindNotFound,
		fmt.Sprintf("instance %s not found in any configured zone", resourceID), nil)
}

type gcpFindingsResponse struct {
	Findings []struct {
		Name         string `json:"name"`
		Category     string `json:"category"`
		Severity     string `json:"severity"`
		ResourceName string `json:"resourceName"`
		Description  string `json:"description"`
		EventTime    string `json:"eventTime"`
	} `json:"findings"`
}

func (p *GCPProvider) ScanForMisconfigurations(ctx context.Context, filters *models.AssetFilters) ([]models.SecurityFinding, error) {
	findings, err := p.securityFindings(ctx, nil)
	if err != nil {
		return nil, err
	}
	return ApplyFindingFilters(findings, filters), nil
}

func (p *GCPProvider) GetSecurityFindings(ctx context.Context, resourceID string) ([]models.SecurityFinding, error) {
	return p.securityFindings(ctx, url.Values{"resourceName": {resourceID}})
}

func (p *GCPProvider) securityFindings(ctx context.Context, query url.Values) ([]models.SecurityFinding, error) {
	const op = "gcp.GetSecurityFindings"
	var resp gcpFindingsResponse
	err := p.retrier.Do(ctx, op, func() error {
		path := fmt.Sprintf("securitycenter/projects/%s/findings", p.creds.ProjectID)
		return p.client.getJSON(ctx, op, path, query, &resp)
	})
	if err != nil {
		return nil, err
	}

	findings := make([]models.SecurityFinding, 0, len(resp.Findings))
	for _, f := range resp.Findings {
		detected, _ := utils.ParseRFC3339(f.EventTime)
		findings = append(findings, models.SecurityFinding{
			ResourceID:  f.ResourceName,
			Rule:        f.Category,
			Severity:    NormalizeSeverity(f.Severity),
			Description: f.Description,
			DetectedAt:  detected,
			Metadata:    map[string]string{"findingName": f.Name},
		})
	}
	return findings, nil
}
