package providers

import "github.com/TechnesSoluciones/cloud-governance-copilot/internal/models"

// MatchFilters reports whether the asset satisfies every set field of the
// filter. A nil filter matches everything; tag filters require every listed
// key to be present with the exact value.
func MatchFilters(asset models.CloudAsset, filters *models.AssetFilters) bool {
	if filters == nil {
		return true
	}
	if filters.ResourceType != "" && asset.ResourceType != filters.ResourceType {
		return false
	}
	if filters.Region != "" && asset.Region != filters.Region {
		return false
	}
	if filters.Status != "" && asset.Status != filters.Status {
		return false
	}
	for k, v := range filters.Tags {
		if asset.Tags[k] != v {
			return false
		}
	}
	return true
}

// ApplyFilters keeps only assets matching the filter. Filtering runs after
// vendor translation so every adapter shares one matching algorithm.
func ApplyFilters(assets []models.CloudAsset, filters *models.AssetFilters) []models.CloudAsset {
	if filters == nil {
		return assets
	}
	kept := make([]models.CloudAsset, 0, len(assets))
	for _, a := range assets {
		if MatchFilters(a, filters) {
			kept = append(kept, a)
		}
	}
	return kept
}

// MatchCostFilters reports whether the cost row satisfies the filter. Cost
// rows carry no type, status or tags, so only the region field applies; a row
// without a region never matches a region filter.
func MatchCostFilters(item models.CloudCostData, filters *models.AssetFilters) bool {
	if filters == nil {
		return true
	}
	if filters.Region != "" && item.Region != filters.Region {
		return false
	}
	return true
}

// ApplyCostFilters keeps only cost rows matching the filter.
func ApplyCostFilters(items []models.CloudCostData, filters *models.AssetFilters) []models.CloudCostData {
	if filters == nil {
		return items
	}
	kept := make([]models.CloudCostData, 0, len(items))
	for _, it := range items {
		if MatchCostFilters(it, filters) {
			kept = append(kept, it)
		}
	}
	return kept
}

// MatchFindingFilters reports whether the finding satisfies the filter. Like
// cost rows, findings carry region only; a finding without a region never
// matches a region filter.
func MatchFindingFilters(finding models.SecurityFinding, filters *models.AssetFilters) bool {
	if filters == nil {
		return true
	}
	if filters.Region != "" && finding.Region != filters.Region {
		return false
	}
	return true
}

// ApplyFindingFilters keeps only findings matching the filter.
func ApplyFindingFilters(findings []models.SecurityFinding, filters *models.AssetFilters) []models.SecurityFinding {
	if filters == nil {
		return findings
	}
	kept := make([]models.SecurityFinding, 0, len(findings))
	for _, f := range findings {
		if MatchFindingFilters(f, filters) {
			kept = append(kept, f)
		}
	}
	return kept
}
