package providers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/models"
	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/utils"
)

const (
	defaultAWSBaseURL = "http://localhost:8381/aws"
	defaultAWSRegion  = "us-east-1"
	awsDateLayout     = "2006-01-02"
)

// AWSProvider translates Cost Explorer, EC2 and Security Hub shaped payloads
// into canonical types. Discovery fans out over the configured regions.
type AWSProvider struct {
	creds   Credentials
	client  *apiClient
	retrier *Retrier
	logger  *slog.Logger
	regions []string
}

func NewAWSProvider(creds Credentials, cfg Config, logger *slog.Logger) *AWSProvider {
	if logger == nil {
		logger = slog.Default()
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultAWSBaseURL
	}
	regions := creds.Regions
	if len(regions) == 0 {
		regions = []string{defaultAWSRegion}
	}
	authorize := func(req *http.Request) {
		req.Header.Set("X-Access-Key-Id", creds.AccessKeyID)
		req.Header.Set("X-Secret-Access-Key", creds.SecretAccessKey)
	}
	return &AWSProvider{
		creds:   creds,
		client:  newAPIClient(baseURL, cfg.Timeout, authorize),
		retrier: NewRetrier(cfg.MaxAttempts, cfg.RetryBaseDelay, logger),
		logger:  logger,
		regions: regions,
	}
}

type awsCallerIdentity struct {
	Account string `json:"Account"`
	Arn     string `json:"Arn"`
}

func (p *AWSProvider) ValidateCredentials(ctx context.Context) error {
	const op = "aws.ValidateCredentials"
	return p.retrier.Do(ctx, op, func() error {
		var identity awsCallerIdentity
		return p.client.getJSON(ctx, op, "sts/caller-identity", nil, &identity)
	})
}

type awsCostResponse struct {
	ResultsByTime []struct {
		TimePeriod struct {
			Start string `json:"Start"`
		} `json:"TimePeriod"`
		Groups []struct {
			Keys    []string `json:"Keys"`
			Metrics struct {
				UnblendedCost struct {
					Amount string `json:"Amount"`
					Unit   string `json:"Unit"`
				} `json:"UnblendedCost"`
			} `json:"Metrics"`
		} `json:"Groups"`
	} `json:"ResultsByTime"`
}

func (p *AWSProvider) GetCosts(ctx context.Context, rng models.DateRange, filters *models.AssetFilters) ([]models.CloudCostData, error) {
	const op = "aws.GetCosts"
	payload := map[string]any{
		"TimePeriod": map[string]string{
			"Start": rng.Start.UTC().Format(awsDateLayout),
			"End":   rng.End.UTC().Format(awsDateLayout),
		},
		"Granularity": "DAILY",
		"Metrics":     []string{"UnblendedCost"},
		"GroupBy":     []map[string]string{{"Type": "DIMENSION", "Key": "SERVICE"}},
	}

	var resp awsCostResponse
	err := p.retrier.Do(ctx, op, func() error {
		return p.client.postJSON(ctx, op, "ce/get-cost-and-usage", payload, &resp)
	})
	if err != nil {
		return nil, err
	}

	var items []models.CloudCostData
	for _, result := range resp.ResultsByTime {
		date, err := utils.ParseDate(result.TimePeriod.Start)
		if err != nil {
			p.logger.Warn("skipping cost bucket with bad date",
				slog.String("date", result.TimePeriod.Start), slog.Any("error", err))
			continue
		}
		for _, group := range result.Groups {
			amount, err := strconv.ParseFloat(group.Metrics.UnblendedCost.Amount, 64)
			if err != nil {
				p.logger.Warn("skipping cost group with bad amount",
					slog.String("amount", group.Metrics.UnblendedCost.Amount), slog.Any("error", err))
				continue
			}
			service := ""
			if len(group.Keys) > 0 {
				service = group.Keys[0]
			}
			items = append(items, models.CloudCostData{
				Date:     date,
				Service:  service,
				Amount:   amount,
				Currency: group.Metrics.UnblendedCost.Unit,
			})
		}
	}
	return ApplyCostFilters(items, filters), nil
}

func (p *AWSProvider) GetCostsByService(ctx context.Context, rng models.DateRange) ([]models.CostByService, error) {
	items, err := p.GetCosts(ctx, rng, nil)
	if err != nil {
		return nil, err
	}
	return RollupByService(items), nil
}

func (p *AWSProvider) GetCostTrends(ctx context.Context, rng models.DateRange, granularity models.Granularity) ([]models.CostTrend, error) {
	items, err := p.GetCosts(ctx, rng, nil)
	if err != nil {
		return nil, err
	}
	return RollupTrends(items, granularity), nil
}

type awsInstancesResponse struct {
	Reservations []struct {
		Instances []awsInstance `json:"Instances"`
	} `json:"Reservations"`
}

type awsInstance struct {
	InstanceID   string `json:"InstanceId"`
	InstanceType string `json:"InstanceType"`
	State        struct {
		Name string `json:"Name"`
	} `json:"State"`
	Placement struct {
		AvailabilityZone string `json:"AvailabilityZone"`
	} `json:"Placement"`
	Tags []struct {
		Key   string `json:"Key"`
		Value string `json:"Value"`
	} `json:"Tags"`
	LaunchTime string `json:"LaunchTime"`
}

func (p *AWSProvider) DiscoverAssets(ctx context.Context, filters *models.AssetFilters) ([]models.CloudAsset, error) {
	const op = "aws.DiscoverAssets"
	assets, err := collectScopes(ctx, p.logger, op, p.regions, p.instancesInRegion)
	if err != nil {
		return nil, err
	}
	return ApplyFilters(assets, filters), nil
}

func (p *AWSProvider) instancesInRegion(ctx context.Context, region string) ([]models.CloudAsset, error) {
	const op = "aws.DescribeInstances"
	query := url.Values{"region": {region}}

	var resp awsInstancesResponse
	err := p.retrier.Do(ctx, op, func() error {
		return p.client.getJSON(ctx, op, "ec2/describe-instances", query, &resp)
	})
	if err != nil {
		return nil, err
	}

	var assets []models.CloudAsset
	for _, reservation := range resp.Reservations {
		for _, inst := range reservation.Instances {
			assets = append(assets, p.toAsset(region, inst))
		}
	}
	return assets, nil
}

func (p *AWSProvider) toAsset(region string, inst awsInstance) models.CloudAsset {
	tags := make(map[string]string, len(inst.Tags))
	name := inst.InstanceID
	for _, tag := range inst.Tags {
		tags[tag.Key] = tag.Value
		if tag.Key == "Name" && tag.Value != "" {
			name = tag.Value
		}
	}
	created, _ := utils.ParseRFC3339(inst.LaunchTime)
	return models.CloudAsset{
		ResourceID:   inst.InstanceID,
		ResourceType: "ec2:instance",
		Name:         name,
		Region:       region,
		Zone:         inst.Placement.AvailabilityZone,
		Status:       NormalizeStatus(inst.State.Name),
		Tags:         tags,
		Metadata:     map[string]string{"instanceType": inst.InstanceType},
		CreatedAt:    created,
	}
}

func (p *AWSProvider) GetAssetDetails(ctx context.Context, resourceID string) (*models.CloudAsset, error) {
	const op = "aws.GetAssetDetails"
	for _, region := range p.regions {
		query := url.Values{"region": {region}, "instance-id": {resourceID}}
		var resp awsInstancesResponse
		err := p.retrier.Do(ctx, op, func() error {
			return p.client.getJSON(ctx, op, "ec2/describe-instances", query, &resp)
		})
		if err != nil {
			if utils.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		for _, reservation := range resp.Reservations {
			for _, inst := range reservation.Instances {
				if inst.InstanceID == resourceID {
					asset := p.toAsset(region, inst)
					return &asset, nil
				}
			}
		}
	}
	return nil, utils.NewAppError(op, utils.KindNotFound,
		fmt.Sprintf("instance %s not found in any configured region", resourceID), nil)
}

type awsFindingsResponse struct {
	Findings []struct {
		ID          string `json:"Id"`
		Title       string `json:"Title"`
		Description string `json:"Description"`
		Severity    struct {
			Label string `json:"Label"`
		} `json:"Severity"`
		Resources []struct {
			ID string `json:"Id"`
		} `json:"Resources"`
		Region    string `json:"Region"`
		CreatedAt string `json:"CreatedAt"`
	} `json:"Findings"`
}

func (p *AWSProvider) ScanForMisconfigurations(ctx context.Context, filters *models.AssetFilters) ([]models.SecurityFinding, error) {
	const op = "aws.ScanForMisconfigurations"
	findings, err := collectScopes(ctx, p.logger, op, p.regions, func(ctx context.Context, region string) ([]models.SecurityFinding, error) {
		return p.findings(ctx, url.Values{"region": {region}})
	})
	if err != nil {
		return nil, err
	}
	return ApplyFindingFilters(findings, filters), nil
}

func (p *AWSProvider) GetSecurityFindings(ctx context.Context, resourceID string) ([]models.SecurityFinding, error) {
	return p.findings(ctx, url.Values{"resource-id": {resourceID}})
}

func (p *AWSProvider) findings(ctx context.Context, query url.Values) ([]models.SecurityFinding, error) {
	const op = "aws.GetSecurityFindings"
	var resp awsFindingsResponse
	err := p.retrier.Do(ctx, op, func() error {
		return p.client.getJSON(ctx, op, "securityhub/findings", query, &resp)
	})
	if err != nil {
		return nil, err
	}

	findings := make([]models.SecurityFinding, 0, len(resp.Findings))
	for _, f := range resp.Findings {
		resourceID := ""
		if len(f.Resources) > 0 {
			resourceID = f.Resources[0].ID
		}
		detected, _ := utils.ParseRFC3339(f.CreatedAt)
		findings = append(findings, models.SecurityFinding{
			ResourceID:  resourceID,
			Rule:        f.Title,
			Severity:    NormalizeSeverity(f.Severity.Label),
			Description: f.Description,
			Region:      f.Region,
			DetectedAt:  detected,
			Metadata:    map[string]string{"findingId": f.ID},
		})
	}
	return findings, nil
}
