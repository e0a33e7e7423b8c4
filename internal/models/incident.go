package models

import "time"

// IncidentStatus tracks the incident lifecycle
// (new -> acknowledged -> investigating -> resolved -> closed). The engine
// stamps timestamps on transitions but does not enforce ordering; legal-move
// validation belongs to callers.
type IncidentStatus string

const (
	IncidentStatusNew           IncidentStatus = "new"
	IncidentStatusAcknowledged  IncidentStatus = "acknowledged"
	IncidentStatusInvestigating IncidentStatus = "investigating"
	IncidentStatusResolved      IncidentStatus = "resolved"
	IncidentStatusClosed        IncidentStatus = "closed"
)

// Incident is a correlated group of alerts. Owned by the correlation engine;
// mutated only through its status-transition operation.
type Incident struct {
	ID                string
	TenantID          string
	AccountID         string
	Title             string
	Description       string
	Severity          AlertSeverity
	Status            IncidentStatus
	AffectedResources []string
	AlertIDs          []string
	Assignee          string
	AcknowledgedAt    *time.Time
	ResolvedAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IncidentComment belongs to exactly one incident and is immutable once
// created.
type IncidentComment struct {
	ID         string
	IncidentID string
	Author     string
	Body       string
	CreatedAt  time.Time
}

// TimelineEventType labels entries in an incident timeline.
type TimelineEventType string

const (
	EventStatusChange   TimelineEventType = "status_change"
	EventAlertFired     TimelineEventType = "alert_fired"
	EventActivityLogged TimelineEventType = "activity_logged"
	EventCommentAdded   TimelineEventType = "comment_added"
)

// TimelineEvent is a derived, read-only projection entry. Timelines are
// recomputed on every read and never persisted.
type TimelineEvent struct {
	Type        TimelineEventType
	Time        time.Time
	Description string
	Metadata    map[string]string
}
