package api

import (
	"fmt"

	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/models"
	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/utils"
)

// The api package is the serialization boundary for embedding hosts. Domain
// types cross it as JSON-friendly DTOs with ISO-8601 timestamps; parsing
// failures come back as invalid-classified errors before any provider or
// store call happens.

// DateRangeDTO carries a cost query range as bare dates or RFC3339 strings.
type DateRangeDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ParseDateRange validates and converts a range DTO. End before start is
// rejected; start equal to end is a valid single-day range.
func ParseDateRange(dto DateRangeDTO) (models.DateRange, error) {
	const op = "api.ParseDateRange"
	start, err := utils.ParseDate(dto.Start)
	if err != nil {
		return models.DateRange{}, utils.NewAppError(op, utils.KindInvalid, fmt.Sprintf("bad start date %q", dto.Start), err)
	}
	end, err := utils.ParseDate(dto.End)
	if err != nil {
		return models.DateRange{}, utils.NewAppError(op, utils.KindInvalid, fmt.Sprintf("bad end date %q", dto.End), err)
	}
	if end.Before(start) {
		return models.DateRange{}, utils.NewAppError(op, utils.KindInvalid, "end date before start date", nil)
	}
	return models.DateRange{Start: start, End: end}, nil
}

// ParseGranularity validates a trend granularity string.
func ParseGranularity(raw string) (models.Granularity, error) {
	switch models.Granularity(raw) {
	case models.GranularityDaily, models.GranularityWeekly, models.GranularityMonthly:
		return models.Granularity(raw), nil
	default:
		return "", utils.NewAppError("api.ParseGranularity", utils.KindInvalid,
			fmt.Sprintf("unknown granularity %q", raw), nil)
	}
}

// CostDataDTO is one cost line item.
type CostDataDTO struct {
	Date       string            `json:"date"`
	Service    string            `json:"service"`
	Amount     float64           `json:"amount"`
	Currency   string            `json:"currency"`
	UsageType  string            `json:"usageType,omitempty"`
	Operation  string            `json:"operation,omitempty"`
	Region     string            `json:"region,omitempty"`
	ResourceID string            `json:"resourceId,omitempty"`
	Tags       map[string]string `json:"tags,omitempty"`
}

// ToCostDataDTOs converts cost items for serialization.
func ToCostDataDTOs(items []models.CloudCostData) []CostDataDTO {
	out := make([]CostDataDTO, 0, len(items))
	for _, it := range items {
		out = append(out, CostDataDTO{
			Date:       it.Date.UTC().Format("2006-01-02"),
			Service:    it.Service,
			Amount:     it.Amount,
			Currency:   it.Currency,
			UsageType:  it.UsageType,
			Operation:  it.Operation,
			Region:     it.Region,
			ResourceID: it.ResourceID,
			Tags:       it.Tags,
		})
	}
	return out
}

// AssetDTO is one discovered resource.
type AssetDTO struct {
	ResourceID   string            `json:"resourceId"`
	ResourceType string            `json:"resourceType"`
	Name         string            `json:"name"`
	Region       string            `json:"region,omitempty"`
	Zone         string            `json:"zone,omitempty"`
	Status       string            `json:"status"`
	Tags         map[string]string `json:"tags,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	CreatedAt    string            `json:"createdAt,omitempty"`
	ModifiedAt   string            `json:"modifiedAt,omitempty"`
}

// ToAssetDTO converts one asset for serialization.
func ToAssetDTO(a models.CloudAsset) AssetDTO {
	return AssetDTO{
		ResourceID:   a.ResourceID,
		ResourceType: a.ResourceType,
		Name:         a.Name,
		Region:       a.Region,
		Zone:         a.Zone,
		Status:       string(a.Status),
		Tags:         a.Tags,
		Metadata:     a.Metadata,
		CreatedAt:    utils.FormatRFC3339(a.CreatedAt),
		ModifiedAt:   utils.FormatRFC3339(a.ModifiedAt),
	}
}

// ToAssetDTOs converts a discovery result for serialization.
func ToAssetDTOs(assets []models.CloudAsset) []AssetDTO {
	out := make([]AssetDTO, 0, len(assets))
	for _, a := range assets {
		out = append(out, ToAssetDTO(a))
	}
	return out
}

// IncidentDTO is the external view of an incident.
type IncidentDTO struct {
	ID                string   `json:"id"`
	TenantID          string   `json:"tenantId"`
	AccountID         string   `json:"accountId"`
	Title             string   `json:"title"`
	Description       string   `json:"description,omitempty"`
	Severity          string   `json:"severity"`
	Status            string   `json:"status"`
	AffectedResources []string `json:"affectedResources,omitempty"`
	AlertIDs          []string `json:"alertIds,omitempty"`
	Assignee          string   `json:"assignee,omitempty"`
	AcknowledgedAt    string   `json:"acknowledgedAt,omitempty"`
	ResolvedAt        string   `json:"resolvedAt,omitempty"`
	CreatedAt         string   `json:"createdAt"`
	UpdatedAt         string   `json:"updatedAt"`
}

// ToIncidentDTO converts one incident for serialization. Unset lifecycle
// stamps render as empty strings, never zero timestamps.
func ToIncidentDTO(incident models.Incident) IncidentDTO {
	dto := IncidentDTO{
		ID:                incident.ID,
		TenantID:          incident.TenantID,
		AccountID:         incident.AccountID,
		Title:             incident.Title,
		Description:       incident.Description,
		Severity:          string(incident.Severity),
		Status:            string(incident.Status),
		AffectedResources: incident.AffectedResources,
		AlertIDs:          incident.AlertIDs,
		Assignee:          incident.Assignee,
		CreatedAt:         utils.FormatRFC3339(incident.CreatedAt),
		UpdatedAt:         utils.FormatRFC3339(incident.UpdatedAt),
	}
	if incident.AcknowledgedAt != nil {
		dto.AcknowledgedAt = utils.FormatRFC3339(*incident.AcknowledgedAt)
	}
	if incident.ResolvedAt != nil {
		dto.ResolvedAt = utils.FormatRFC3339(*incident.ResolvedAt)
	}
	return dto
}

// TimelineEventDTO is one entry in an incident timeline.
type TimelineEventDTO struct {
	Type        string            `json:"type"`
	Time        string            `json:"time"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// ToTimelineDTOs converts a timeline projection for serialization.
func ToTimelineDTOs(events []models.TimelineEvent) []TimelineEventDTO {
	out := make([]TimelineEventDTO, 0, len(events))
	for _, ev := range events {
		out = append(out, TimelineEventDTO{
			Type:        string(ev.Type),
			Time:        utils.FormatRFC3339(ev.Time),
			Description: ev.Description,
			Metadata:    ev.Metadata,
		})
	}
	return out
}

// RecommendationDTO is one advisory suggestion.
type RecommendationDTO struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Severity    string   `json:"severity"`
	ResourceIDs []string `json:"resourceIds,omitempty"`
}

// ToRecommendationDTOs converts advisory output for serialization.
func ToRecommendationDTOs(recs []models.Recommendation) []RecommendationDTO {
	out := make([]RecommendationDTO, 0, len(recs))
	for _, r := range recs {
		out = append(out, RecommendationDTO{
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description,
			Severity:    string(r.Severity),
			ResourceIDs: r.ResourceIDs,
		})
	}
	return out
}

// CollectionResultDTO mirrors a collection outcome.
type CollectionResultDTO struct {
	Success         bool     `json:"success"`
	RecordsObtained int      `json:"recordsObtained"`
	RecordsSaved    int      `json:"recordsSaved"`
	ExecutionTimeMs int64    `json:"executionTimeMs"`
	Errors          []string `json:"errors,omitempty"`
}

// ToCollectionResultDTO converts a collection outcome for serialization.
func ToCollectionResultDTO(result models.CollectionResult) CollectionResultDTO {
	return CollectionResultDTO{
		Success:         result.Success,
		RecordsObtained: result.RecordsObtained,
		RecordsSaved:    result.RecordsSaved,
		ExecutionTimeMs: result.ExecutionTimeMs,
		Errors:          result.Errors,
	}
}
