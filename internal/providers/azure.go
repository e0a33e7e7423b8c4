package providers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/models"
	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/utils"
)

const defaultAzureBaseURL = "http://localhost:8381/azure"

// AzureProvider translates ARM shaped payloads into canonical types. Every
// read fans out over the configured subscriptions; the resource group is
// recovered from the ARM resource ID path.
type AzureProvider struct {
	creds         Credentials
	client        *apiClient
	retrier       *Retrier
	logger        *slog.Logger
	subscriptions []string
}

func NewAzureProvider(creds Credentials, cfg Config, logger *slog.Logger) *AzureProvider {
	if logger == nil {
		logger = slog.Default()
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultAzureBaseURL
	}
	authorize := func(req *http.Request) {
		req.Header.Set("X-Tenant-Id", creds.TenantID)
		req.Header.Set("X-Client-Id", creds.ClientID)
		req.Header.Set("X-Client-Secret", creds.ClientSecret)
	}
	return &AzureProvider{
		creds:         creds,
		client:        newAPIClient(baseURL, cfg.Timeout, authorize),
		retrier:       NewRetrier(cfg.MaxAttempts, cfg.RetryBaseDelay, logger),
		logger:        logger,
		subscriptions: creds.SubscriptionIDs,
	}
}

func (p *AzureProvider) ValidateCredentials(ctx context.Context) error {
	const op = "azure.ValidateCredentials"
	if len(p.subscriptions) == 0 {
		return utils.NewAppError(op, utils.KindInvalid, "no subscriptions configured", nil)
	}
	return p.retrier.Do(ctx, op, func() error {
		var sub struct {
			SubscriptionID string `json:"subscriptionId"`
			State          string `json:"state"`
		}
		return p.client.getJSON(ctx, op, "subscriptions/"+p.subscriptions[0], nil, &sub)
	})
}

type azureUsageResponse struct {
	Value []struct {
		Properties struct {
			UsageStart      string  `json:"usageStart"`
			ConsumedService string  `json:"consumedService"`
			PretaxCost      float64 `json:"pretaxCost"`
			Currency        string  `json:"currency"`
			InstanceID      string  `json:"instanceId"`
			MeterCategory   string  `json:"meterCategory"`
		} `json:"properties"`
	} `json:"value"`
}

func (p *AzureProvider) GetCosts(ctx context.Context, rng models.DateRange, filters *models.AssetFilters) ([]models.CloudCostData, error) {
	const op = "azure.GetCosts"
	query := url.Values{
		"startDate": {rng.Start.UTC().Format("2006-01-02")},
		"endDate":   {rng.End.UTC().Format("2006-01-02")},
	}
	items, err := collectScopes(ctx, p.logger, op, p.subscriptions, func(ctx context.Context, sub string) ([]models.CloudCostData, error) {
		var resp azureUsageResponse
		err := p.retrier.Do(ctx, op, func() error {
			path := fmt.Sprintf("subscriptions/%s/consumption/usageDetails", sub)
			return p.client.getJSON(ctx, op, path, query, &resp)
		})
		if err != nil {
			return nil, err
		}

		var items []models.CloudCostData
		for _, row := range resp.Value {
			date, err := utils.ParseDate(row.Properties.UsageStart)
			if err != nil {
				p.logger.Warn("skipping usage row with bad date",
					slog.String("date", row.Properties.UsageStart), slog.Any("error", err))
				continue
			}
			items = append(items, models.CloudCostData{
				Date:       date,
				Service:    row.Properties.ConsumedService,
				Amount:     row.Properties.PretaxCost,
				Currency:   row.Properties.Currency,
				UsageType:  row.Properties.MeterCategory,
				ResourceID: row.Properties.InstanceID,
				Metadata:   map[string]string{"subscriptionId": sub},
			})
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return ApplyCostFilters(items, filters), nil
}

func (p *AzureProvider) GetCostsByService(ctx context.Context, rng models.DateRange) ([]models.CostByService, error) {
	items, err := p.GetCosts(ctx, rng, nil)
	if err != nil {
		return nil, err
	}
	return RollupByService(items), nil
}

func (p *AzureProvider) GetCostTrends(ctx context.Context, rng models.DateRange, granularity models.Granularity) ([]models.CostTrend, error) {
	items, err := p.GetCosts(ctx, rng, nil)
	if err != nil {
		return nil, err
	}
	return RollupTrends(items, granularity), nil
}

type azureResourcesResponse struct {
	Value []azureResource `json:"value"`
}

type azureResource struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Type       string            `json:"type"`
	Location   string            `json:"location"`
	Tags       map[string]string `json:"tags"`
	Properties struct {
		ProvisioningState string `json:"provisioningState"`
		PowerState        string `json:"powerState"`
	} `json:"properties"`
	CreatedTime string `json:"createdTime"`
	ChangedTime string `json:"changedTime"`
}

func (p *AzureProvider) DiscoverAssets(ctx context.Context, filters *models.AssetFilters) ([]models.CloudAsset, error) {
	const op = "azure.DiscoverAssets"
	assets, err := collectScopes(ctx, p.logger, op, p.subscriptions, p.resourcesInSubscription)
	if err != nil {
		return nil, err
	}
	return ApplyFilters(assets, filters), nil
}

func (p *AzureProvider) resourcesInSubscription(ctx context.Context, sub string) ([]models.CloudAsset, error) {
	const op = "azure.ListResources"
	var resp azureResourcesResponse
	err := p.retrier.Do(ctx, op, func() error {
		return p.client.getJSON(ctx, op, fmt.Sprintf("subscriptions/%s/resources", sub), nil, &resp)
	})
	if err != nil {
		return nil, err
	}

	assets := make([]models.CloudAsset, 0, len(resp.Value))
	for _, res := range resp.Value {
		assets = append(assets, p.toAsset(sub, res))
	}
	return assets, nil
}

func (p *AzureProvider) toAsset(sub string, res azureResource) models.CloudAsset {
	rawState := res.Properties.PowerState
	if rawState == "" {
		rawState = res.Properties.ProvisioningState
	}
	created, _ := utils.ParseRFC3339(res.CreatedTime)
	modified, _ := utils.ParseRFC3339(res.ChangedTime)
	return models.CloudAsset{
		ResourceID:   res.ID,
		ResourceType: res.Type,
		Name:         res.Name,
		Region:       res.Location,
		Status:       NormalizeStatus(rawState),
		Tags:         res.Tags,
		Metadata: map[string]string{
			"subscriptionId": sub,
			"resourceGroup":  resourceGroupFromID(res.ID),
		},
		CreatedAt:  created,
		ModifiedAt: modified,
	}
}

// resourceGroupFromID recovers the resource group segment from an ARM resource
// ID such as /subscriptions/<sub>/resourceGroups/<group>/providers/...
// Malformed IDs yield "unknown".
func resourceGroupFromID(id string) string {
	parts := strings.Split(strings.Trim(id, "/"), "/")
	for i := 0; i < len(parts)-1; i++ {
		if strings.EqualFold(parts[i], "resourceGroups") {
			return parts[i+1]
		}
	}
	return "unknown"
}

func (p *AzureProvider) GetAssetDetails(ctx context.Context, resourceID string) (*models.CloudAsset, error) {
	const op = "azure.GetAssetDetails"
	sub := subscriptionFromID(resourceID)
	if sub == "" {
		if len(p.subscriptions) == 0 {
			return nil, utils.NewAppError(op, utils.KindInvalid, "no subscriptions configured", nil)
		}
		sub = p.subscriptions[0]
	}

	var res azureResource
	err := p.retrier.Do(ctx, op, func() error {
		path := fmt.Sprintf("subscriptions/%s/resources/by-id", sub)
		return p.client.getJSON(ctx, op, path, url.Values{"id": {resourceID}}, &res)
	})
	if err != nil {
		return nil, err
	}
	asset := p.toAsset(sub, res)
	return &asset, nil
}

func subscriptionFromID(id string) string {
	parts := strings.Split(strings.Trim(id, "/"), "/")
	for i := 0; i < len(parts)-1; i++ {
		if strings.EqualFold(parts[i], "subscriptions") {
			return parts[i+1]
		}
	}
	return ""
}

type azureAssessmentsResponse struct {
	Value []struct {
		Name       string `json:"name"`
		Properties struct {
			DisplayName string `json:"displayName"`
			Description string `json:"description"`
			Status      struct {
				Code     string `json:"code"`
				Severity string `json:"severity"`
			} `json:"status"`
			ResourceDetails struct {
				ID string `json:"id"`
			} `json:"resourceDetails"`
			TimeGenerated string `json:"timeGenerated"`
		} `json:"properties"`
	} `json:"value"`
}

func (p *AzureProvider) ScanForMisconfigurations(ctx context.Context, filters *models.AssetFilters) ([]models.SecurityFinding, error) {
	const op = "azure.ScanForMisconfigurations"
	findings, err := collectScopes(ctx, p.logger, op, p.subscriptions, func(ctx context.Context, sub string) ([]models.SecurityFinding, error) {
		return p.assessments(ctx, sub, "")
	})
	if err != nil {
		return nil, err
	}
	return ApplyFindingFilters(findings, filters), nil
}

func (p *AzureProvider) GetSecurityFindings(ctx context.Context, resourceID string) ([]models.SecurityFinding, error) {
	sub := subscriptionFromID(resourceID)
	if sub == "" && len(p.subscriptions) > 0 {
		sub = p.subscriptions[0]
	}
	return p.assessments(ctx, sub, resourceID)
}

func (p *AzureProvider) assessments(ctx context.Context, sub, resourceID string) ([]models.SecurityFinding, error) {
	const op = "azure.GetSecurityFindings"
	query := url.Values{}
	if resourceID != "" {
		query.Set("resourceId", resourceID)
	}

	var resp azureAssessmentsResponse
	err := p.retrier.Do(ctx, op, func() error {
		path := fmt.Sprintf("subscriptions/%s/security/assessments", sub)
		return p.client.getJSON(ctx, op, path, query, &resp)
	})
	if err != nil {
		return nil, err
	}

	var findings []models.SecurityFinding
	for _, item := range resp.Value {
		// Healthy assessments are not findings.
		if strings.EqualFold(item.Properties.Status.Code, "healthy") {
			continue
		}
		detected, _ := utils.ParseRFC3339(item.Properties.TimeGenerated)
		findings = append(findings, models.SecurityFinding{
			ResourceID:  item.Properties.ResourceDetails.ID,
			Rule:        item.Properties.DisplayName,
			Severity:    NormalizeSeverity(item.Properties.Status.Severity),
			Description: item.Properties.Description,
			DetectedAt:  detected,
			Metadata:    map[string]string{"assessmentName": item.Name, "subscriptionId": sub},
		})
	}
	return findings, nil
}
