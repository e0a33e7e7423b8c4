package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/models"
	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/utils"
)

// CreateIncident persists a new incident.
func (s *Store) CreateIncident(ctx context.Context, incident models.Incident) error {
	rec := incidentRecord(incident)
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("create incident: %w", err)
	}
	return nil
}

// GetIncident fetches one incident by ID.
func (s *Store) GetIncident(ctx context.Context, id string) (*models.Incident, error) {
	const op = "store.GetIncident"
	var rec IncidentRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NewAppError(op, utils.KindNotFound, fmt.Sprintf("incident %s not found", id), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get incident: %w", err)
	}
	incident := rec.toModel()
	return &incident, nil
}

// UpdateIncident saves all mutable incident fields.
func (s *Store) UpdateIncident(ctx context.Context, incident models.Incident) error {
	rec := incidentRecord(incident)
	result := s.db.WithContext(ctx).Model(&IncidentRecord{}).Where("id = ?", incident.ID).
		Select("title", "description", "severity", "status", "assignee",
			"affected_resources", "alert_ids", "acknowledged_at", "resolved_at", "updated_at").
		Updates(&rec)
	if result.Error != nil {
		return fmt.Errorf("update incident: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return utils.NewAppError("store.UpdateIncident", utils.KindNotFound,
			fmt.Sprintf("incident %s not found", incident.ID), nil)
	}
	return nil
}

// ListIncidents returns all incidents for one account, newest first.
func (s *Store) ListIncidents(ctx context.Context, tenantID, accountID string) ([]models.Incident, error) {
	var recs []IncidentRecord
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND account_id = ?", tenantID, accountID).
		Order("created_at DESC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}

	incidents := make([]models.Incident, 0, len(recs))
	for _, rec := range recs {
		incidents = append(incidents, rec.toModel())
	}
	return incidents, nil
}

// AddComment appends a comment to an incident.
func (s *Store) AddComment(ctx context.Context, comment models.IncidentComment) error {
	rec := IncidentCommentRecord{
		ID:         comment.ID,
		IncidentID: comment.IncidentID,
		Author:     comment.Author,
		Body:       comment.Body,
		CreatedAt:  comment.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("add comment: %w", err)
	}
	return nil
}

// ListComments returns an incident's comments in creation order.
func (s *Store) ListComments(ctx context.Context, incidentID string) ([]models.IncidentComment, error) {
	var recs []IncidentCommentRecord
	err := s.db.WithContext(ctx).
		Where("incident_id = ?", incidentID).
		Order("created_at ASC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	comments := make([]models.IncidentComment, 0, len(recs))
	for _, rec := range recs {
		comments = append(comments, models.IncidentComment{
			ID:         rec.ID,
			IncidentID: rec.IncidentID,
			Author:     rec.Author,
			Body:       rec.Body,
			CreatedAt:  rec.CreatedAt,
		})
	}
	return comments, nil
}

// ListAlertsByIDs fetches the alerts an incident references by their vendor
// alert IDs.
func (s *Store) ListAlertsByIDs(ctx context.Context, tenantID, accountID string, vendorAlertIDs []string) ([]models.Alert, error) {
	if len(vendorAlertIDs) == 0 {
		return nil, nil
	}
	var recs []AlertRecord
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND account_id = ? AND vendor_alert_id IN ?", tenantID, accountID, vendorAlertIDs).
		Order("fired_at ASC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("list alerts by ids: %w", err)
	}

	alerts := make([]models.Alert, 0, len(recs))
	for _, rec := range recs {
		alerts = append(alerts, rec.toModel())
	}
	return alerts, nil
}

func incidentRecord(incident models.Incident) IncidentRecord {
	return IncidentRecord{
		ID:                incident.ID,
		TenantID:          incident.TenantID,
		AccountID:         incident.AccountID,
		Title:             incident.Title,
		Description:       incident.Description,
		Severity:          string(incident.Severity),
		Status:            string(incident.Status),
		Assignee:          incident.Assignee,
		AffectedResources: jsonList(incident.AffectedResources),
		AlertIDs:          jsonList(incident.AlertIDs),
		AcknowledgedAt:    incident.AcknowledgedAt,
		ResolvedAt:        incident.ResolvedAt,
		CreatedAt:         incident.CreatedAt,
		UpdatedAt:         incident.UpdatedAt,
	}
}

func (r IncidentRecord) toModel() models.Incident {
	return models.Incident{
		ID:                r.ID,
		TenantID:          r.TenantID,
		AccountID:         r.AccountID,
		Title:             r.Title,
		Description:       r.Description,
		Severity:          models.AlertSeverity(r.Severity),
		Status:            models.IncidentStatus(r.Status),
		AffectedResources: listFromJSON(r.AffectedResources),
		AlertIDs:          listFromJSON(r.AlertIDs),
		Assignee:          r.Assignee,
		AcknowledgedAt:    r.AcknowledgedAt,
		ResolvedAt:        r.ResolvedAt,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}
