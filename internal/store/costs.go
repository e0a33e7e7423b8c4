package store

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/models"
	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/utils"
)

// UpsertCosts writes cost line items for one account, replaying safely over
// the natural key (tenant, account, date, service, resource). Returns the
// number of rows written.
func (s *Store) UpsertCosts(ctx context.Context, tenantID, accountID string, items []models.CloudCostData) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	records := make([]CostRecord, 0, len(items))
	for _, it := range items {
		records = append(records, CostRecord{
			TenantID:   tenantID,
			AccountID:  accountID,
			Date:       utils.TruncateToDay(it.Date),
			Service:    it.Service,
			ResourceID: it.ResourceID,
			Amount:     it.Amount,
			Currency:   it.Currency,
			UsageType:  it.UsageType,
			Operation:  it.Operation,
			Region:     it.Region,
			Tags:       jsonMap(it.Tags),
			Metadata:   jsonMap(it.Metadata),
		})
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "tenant_id"}, {Name: "account_id"}, {Name: "date"},
			{Name: "service"}, {Name: "resource_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"amount", "currency", "usage_type", "operation", "region",
			"tags", "metadata", "updated_at",
		}),
	}).Create(&records).Error
	if err != nil {
		return 0, fmt.Errorf("upsert costs: %w", err)
	}
	return len(records), nil
}

// CostsByService aggregates persisted costs per service over a range.
func (s *Store) CostsByService(ctx context.Context, tenantID, accountID string, rng models.DateRange) ([]models.CostByService, error) {
	var rows []struct {
		Service  string
		Amount   float64
		Currency string
	}
	err := s.db.WithContext(ctx).
		Model(&CostRecord{}).
		Select("service, SUM(amount) AS amount, MIN(currency) AS currency").
		Where("tenant_id = ? AND account_id = ? AND date >= ? AND date <= ?",
			tenantID, accountID, utils.TruncateToDay(rng.Start), utils.TruncateToDay(rng.End)).
		Group("service").
		Order("amount DESC, service ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate costs by service: %w", err)
	}

	out := make([]models.CostByService, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.CostByService{Service: row.Service, Amount: row.Amount, Currency: row.Currency})
	}
	return out, nil
}
