package models

import "time"

// AlertSeverity captures impact levels for alerts, logs and incidents.
type AlertSeverity string

const (
	SeverityCritical AlertSeverity = "critical"
	SeverityHigh     AlertSeverity = "high"
	SeverityMedium   AlertSeverity = "medium"
	SeverityLow      AlertSeverity = "low"
)

// AlertStatus enumerates alert lifecycle states.
type AlertStatus string

const (
	AlertStatusActive     AlertStatus = "active"
	AlertStatusResolved   AlertStatus = "resolved"
	AlertStatusSuppressed AlertStatus = "suppressed"
)

// Alert is a raw monitoring signal scoped to a tenant and account.
type Alert struct {
	TenantID      string
	AccountID     string
	VendorAlertID string
	Name          string
	Severity      AlertSeverity
	Status        AlertStatus
	ResourceID    string
	Description   string
	FiredAt       time.Time
	ResolvedAt    *time.Time
	Metadata      map[string]string
}

// ActivityLog records one operation observed against a cloud account.
type ActivityLog struct {
	TenantID    string
	AccountID   string
	Operation   string
	Status      string
	Caller      string
	ResourceID  string
	OccurredAt  time.Time
	Level       AlertSeverity
	Description string
	Metadata    map[string]string
}

// AlertQuery filters persisted alerts. Every field participates in the
// correlation cache key, so differently filtered queries never collide.
type AlertQuery struct {
	TenantID   string
	AccountID  string
	Status     AlertStatus
	Severity   AlertSeverity
	ResourceID string
	Start      time.Time
	End        time.Time
}

// ActivityLogQuery filters persisted activity logs.
type ActivityLogQuery struct {
	TenantID    string
	AccountID   string
	ResourceIDs []string
	Start       time.Time
	End         time.Time
}
