package correlation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/models"
)

// activityLookback widens the timeline window before incident creation so
// the operations that led up to the alerts are visible.
const activityLookback = time.Hour

// Timeline assembles the read-only event projection for one incident:
// creation and lifecycle stamps, the alerts it references, activity logs
// touching its affected resources inside the incident window, and comments.
// Events come back in ascending time order. The projection is recomputed on
// every call and never persisted.
func (e *Engine) Timeline(ctx context.Context, incidentID string) ([]models.TimelineEvent, error) {
	incident, err := e.incidents.GetIncident(ctx, incidentID)
	if err != nil {
		return nil, err
	}

	events := []models.TimelineEvent{{
		Type:        models.EventStatusChange,
		Time:        incident.CreatedAt,
		Description: "incident created",
		Metadata:    map[string]string{"status": string(models.IncidentStatusNew)},
	}}
	if incident.AcknowledgedAt != nil {
		events = append(events, models.TimelineEvent{
			Type:        models.EventStatusChange,
			Time:        *incident.AcknowledgedAt,
			Description: "incident acknowledged",
			Metadata:    map[string]string{"status": string(models.IncidentStatusAcknowledged)},
		})
	}
	if incident.ResolvedAt != nil {
		events = append(events, models.TimelineEvent{
			Type:        models.EventStatusChange,
			Time:        *incident.ResolvedAt,
			Description: "incident resolved",
			Metadata:    map[string]string{"status": string(incident.Status)},
		})
	}

	alerts, err := e.incidents.ListAlertsByIDs(ctx, incident.TenantID, incident.AccountID, incident.AlertIDs)
	if err != nil {
		return nil, fmt.Errorf("load incident alerts: %w", err)
	}
	for _, a := range alerts {
		events = append(events, models.TimelineEvent{
			Type:        models.EventAlertFired,
			Time:        a.FiredAt,
			Description: a.Name,
			Metadata: map[string]string{
				"alertId":  a.VendorAlertID,
				"severity": string(a.Severity),
				"resource": a.ResourceID,
			},
		})
	}

	if len(incident.AffectedResources) > 0 {
		end := e.clock()
		if incident.ResolvedAt != nil {
			end = *incident.ResolvedAt
		}
		logs, err := e.ActivityFor(ctx, models.ActivityLogQuery{
			TenantID:    incident.TenantID,
			AccountID:   incident.AccountID,
			ResourceIDs: incident.AffectedResources,
			Start:       incident.CreatedAt.Add(-activityLookback),
			End:         end,
		})
		if err != nil {
			return nil, fmt.Errorf("load incident activity: %w", err)
		}
		for _, l := range logs {
			events = append(events, models.TimelineEvent{
				Type:        models.EventActivityLogged,
				Time:        l.OccurredAt,
				Description: l.Operation,
				Metadata: map[string]string{
					"caller":   l.Caller,
					"status":   l.Status,
					"resource": l.ResourceID,
				},
			})
		}
	}

	comments, err := e.incidents.ListComments(ctx, incident.ID)
	if err != nil {
		return nil, fmt.Errorf("load incident comments: %w", err)
	}
	for _, c := range comments {
		events = append(events, models.TimelineEvent{
			Type:        models.EventCommentAdded,
			Time:        c.CreatedAt,
			Description: c.Body,
			Metadata:    map[string]string{"author": c.Author},
		})
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].Time.Before(events[j].Time) })
	return events, nil
}
