package providers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/models"
)

// CloudProvider is the uniform capability contract every vendor adapter
// implements. Adapters accept vendor shapes and return canonical types only;
// orchestration code never sees a vendor payload.
//
// Filters are optional and applied after vendor translation so every adapter
// shares one matching algorithm. Cost rows and findings honor the filter
// fields they carry (region); assets honor the full set.
//
// GetAssetDetails reports a missing resource through an error satisfying
// utils.IsNotFound, never through a vendor exception shape.
type CloudProvider interface {
	ValidateCredentials(ctx context.Context) error
	GetCosts(ctx context.Context, rng models.DateRange, filters *models.AssetFilters) ([]models.CloudCostData, error)
	GetCostsByService(ctx context.Context, rng models.DateRange) ([]models.CostByService, error)
	GetCostTrends(ctx context.Context, rng models.DateRange, granularity models.Granularity) ([]models.CostTrend, error)
	DiscoverAssets(ctx context.Context, filters *models.AssetFilters) ([]models.CloudAsset, error)
	GetAssetDetails(ctx context.Context, resourceID string) (*models.CloudAsset, error)
	ScanForMisconfigurations(ctx context.Context, filters *models.AssetFilters) ([]models.SecurityFinding, error)
	GetSecurityFindings(ctx context.Context, resourceID string) ([]models.SecurityFinding, error)
}

// Credentials carries decrypted provider secrets and discovery scopes. Only
// the fields for the selected vendor are populated.
type Credentials struct {
	// AWS
	AccessKeyID     string   `json:"accessKeyId,omitempty"`
	SecretAccessKey string   `json:"secretAccessKey,omitempty"`
	Regions         []string `json:"regions,omitempty"`

	// Azure
	TenantID        string   `json:"tenantId,omitempty"`
	ClientID        string   `json:"clientId,omitempty"`
	ClientSecret    string   `json:"clientSecret,omitempty"`
	SubscriptionIDs []string `json:"subscriptionIds,omitempty"`

	// GCP
	ProjectID   string   `json:"projectId,omitempty"`
	AccessToken string   `json:"accessToken,omitempty"`
	Zones       []string `json:"zones,omitempty"`
}

// Config tunes one adapter instance. Zero values fall back to vendor
// defaults.
type Config struct {
	BaseURL        string
	Timeout        time.Duration
	MaxAttempts    int
	RetryBaseDelay time.Duration
}

// New constructs the adapter for the given vendor. The set is closed; an
// unrecognized kind is a configuration error.
func New(kind models.ProviderKind, creds Credentials, cfg Config, logger *slog.Logger) (CloudProvider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch kind {
	case models.ProviderAWS:
		return NewAWSProvider(creds, cfg, logger), nil
	case models.ProviderAzure:
		return NewAzureProvider(creds, cfg, logger), nil
	case models.ProviderGCP:
		return NewGCPProvider(creds, cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported provider kind %q", kind)
	}
}
