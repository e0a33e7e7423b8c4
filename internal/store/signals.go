package store

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/models"
)

// UpsertAlerts ingests monitoring signals, replaying safely over the natural
// key (tenant, account, vendor alert ID).
func (s *Store) UpsertAlerts(ctx context.Context, alerts []models.Alert) (int, error) {
	if len(alerts) == 0 {
		return 0, nil
	}

	records := make([]AlertRecord, 0, len(alerts))
	for _, a := range alerts {
		records = append(records, AlertRecord{
			TenantID:      a.TenantID,
			AccountID:     a.AccountID,
			VendorAlertID: a.VendorAlertID,
			Name:          a.Name,
			Severity:      string(a.Severity),
			Status:        string(a.Status),
			ResourceID:    a.ResourceID,
			Description:   a.Description,
			FiredAt:       a.FiredAt,
			ResolvedAt:    a.ResolvedAt,
			Metadata:      jsonMap(a.Metadata),
		})
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "tenant_id"}, {Name: "account_id"}, {Name: "vendor_alert_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "severity", "status", "resource_id", "description",
			"fired_at", "resolved_at", "metadata", "updated_at",
		}),
	}).Create(&records).Error
	if err != nil {
		return 0, fmt.Errorf("upsert alerts: %w", err)
	}
	return len(records), nil
}

// ListAlerts returns alerts matching the query, newest first.
func (s *Store) ListAlerts(ctx context.Context, query models.AlertQuery) ([]models.Alert, error) {
	q := s.db.WithContext(ctx).
		Where("tenant_id = ? AND account_id = ?", query.TenantID, query.AccountID).
		Order("fired_at DESC")
	if query.Status != "" {
		q = q.Where("status = ?", string(query.Status))
	}
	if query.Severity != "" {
		q = q.Where("severity = ?", string(query.Severity))
	}
	if query.ResourceID != "" {
		q = q.Where("resource_id = ?", query.ResourceID)
	}
	if !query.Start.IsZero() {
		q = q.Where("fired_at >= ?", query.Start)
	}
	if !query.End.IsZero() {
		q = q.Where("fired_at <= ?", query.End)
	}

	var recs []AlertRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}

	alerts := make([]models.Alert, 0, len(recs))
	for _, rec := range recs {
		alerts = append(alerts, rec.toModel())
	}
	return alerts, nil
}

// InsertActivityLogs appends operation records. Logs are immutable; there is
// no update path.
func (s *Store) InsertActivityLogs(ctx context.Context, logs []models.ActivityLog) (int, error) {
	if len(logs) == 0 {
		return 0, nil
	}

	records := make([]ActivityLogRecord, 0, len(logs))
	for _, l := range logs {
		records = append(records, ActivityLogRecord{
			TenantID:    l.TenantID,
			AccountID:   l.AccountID,
			Operation:   l.Operation,
			Status:      l.Status,
			Caller:      l.Caller,
			ResourceID:  l.ResourceID,
			OccurredAt:  l.OccurredAt,
			Level:       string(l.Level),
			Description: l.Description,
			Metadata:    jsonMap(l.Metadata),
		})
	}
	if err := s.db.WithContext(ctx).Create(&records).Error; err != nil {
		return 0, fmt.Errorf("insert activity logs: %w", err)
	}
	return len(records), nil
}

// ListActivityLogs returns logs matching the query in ascending time order.
func (s *Store) ListActivityLogs(ctx context.Context, query models.ActivityLogQuery) ([]models.ActivityLog, error) {
	q := s.db.WithContext(ctx).
		Where("tenant_id = ? AND account_id = ?", query.TenantID, query.AccountID).
		Order("occurred_at ASC")
	if len(query.ResourceIDs) > 0 {
		q = q.Where("resource_id IN ?", query.ResourceIDs)
	}
	if !query.Start.IsZero() {
		q = q.Where("occurred_at >= ?", query.Start)
	}
	if !query.End.IsZero() {
		q = q.Where("occurred_at <= ?", query.End)
	}

	var recs []ActivityLogRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list activity logs: %w", err)
	}

	logs := make([]models.ActivityLog, 0, len(recs))
	for _, rec := range recs {
		logs = append(logs, models.ActivityLog{
			TenantID:    rec.TenantID,
			AccountID:   rec.AccountID,
			Operation:   rec.Operation,
			Status:      rec.Status,
			Caller:      rec.Caller,
			ResourceID:  rec.ResourceID,
			OccurredAt:  rec.OccurredAt,
			Level:       models.AlertSeverity(rec.Level),
			Description: rec.Description,
			Metadata:    mapFromJSON(rec.Metadata),
		})
	}
	return logs, nil
}

func (r AlertRecord) toModel() models.Alert {
	return models.Alert{
		TenantID:      r.TenantID,
		AccountID:     r.AccountID,
		VendorAlertID: r.VendorAlertID,
		Name:          r.Name,
		Severity:      models.AlertSeverity(r.Severity),
		Status:        models.AlertStatus(r.Status),
		ResourceID:    r.ResourceID,
		Description:   r.Description,
		FiredAt:       r.FiredAt,
		ResolvedAt:    r.ResolvedAt,
		Metadata:      mapFromJSON(r.Metadata),
	}
}
