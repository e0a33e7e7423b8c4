package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/models"
	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/utils"
)

// UpsertAssets writes discovered resources for one account, replaying safely
// over the natural key (tenant, account, resource). Returns the number of
// rows written.
func (s *Store) UpsertAssets(ctx context.Context, tenantID, accountID string, assets []models.CloudAsset) (int, error) {
	if len(assets) == 0 {
		return 0, nil
	}

	records := make([]AssetRecord, 0, len(assets))
	for _, a := range assets {
		records = append(records, AssetRecord{
			TenantID:           tenantID,
			AccountID:          accountID,
			ResourceID:         a.ResourceID,
			ResourceType:       a.ResourceType,
			Name:               a.Name,
			Region:             a.Region,
			Zone:               a.Zone,
			Status:             string(a.Status),
			Tags:               jsonMap(a.Tags),
			Metadata:           jsonMap(a.Metadata),
			ResourceCreatedAt:  a.CreatedAt,
			ResourceModifiedAt: a.ModifiedAt,
		})
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "tenant_id"}, {Name: "account_id"}, {Name: "resource_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"resource_type", "name", "region", "zone", "status",
			"tags", "metadata", "resource_created_at", "resource_modified_at", "updated_at",
		}),
	}).Create(&records).Error
	if err != nil {
		return 0, fmt.Errorf("upsert assets: %w", err)
	}
	return len(records), nil
}

// GetAsset fetches one persisted asset by its natural key.
func (s *Store) GetAsset(ctx context.Context, tenantID, accountID, resourceID string) (*models.CloudAsset, error) {
	const op = "store.GetAsset"
	var rec AssetRecord
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND account_id = ? AND resource_id = ?", tenantID, accountID, resourceID).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NewAppError(op, utils.KindNotFound, fmt.Sprintf("asset %s not found", resourceID), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get asset: %w", err)
	}
	asset := rec.toModel()
	return &asset, nil
}

// ListAssets returns the persisted assets for one account, optionally
// filtered.
func (s *Store) ListAssets(ctx context.Context, tenantID, accountID string, filters *models.AssetFilters) ([]models.CloudAsset, error) {
	q := s.db.WithContext(ctx).
		Where("tenant_id = ? AND account_id = ?", tenantID, accountID).
		Order("resource_id ASC")
	if filters != nil {
		if filters.ResourceType != "" {
			q = q.Where("resource_type = ?", filters.ResourceType)
		}
		if filters.Region != "" {
			q = q.Where("region = ?", filters.Region)
		}
		if filters.Status != "" {
			q = q.Where("status = ?", string(filters.Status))
		}
	}

	var recs []AssetRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}

	assets := make([]models.CloudAsset, 0, len(recs))
	for _, rec := range recs {
		asset := rec.toModel()
		// Tag filters are matched client-side; tags live in a JSON column.
		if filters != nil && len(filters.Tags) > 0 {
			match := true
			for k, v := range filters.Tags {
				if asset.Tags[k] != v {
					match = false
					break
				}
			}
			if !match {
				continue
			}
		}
		assets = append(assets, asset)
	}
	return assets, nil
}

func (r AssetRecord) toModel() models.CloudAsset {
	return models.CloudAsset{
		ResourceID:   r.ResourceID,
		ResourceType: r.ResourceType,
		Name:         r.Name,
		Region:       r.Region,
		Zone:         r.Zone,
		Status:       models.AssetStatus(r.Status),
		Tags:         mapFromJSON(r.Tags),
		Metadata:     mapFromJSON(r.Metadata),
		CreatedAt:    r.ResourceCreatedAt,
		ModifiedAt:   r.ResourceModifiedAt,
	}
}
