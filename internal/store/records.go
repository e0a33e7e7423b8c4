package store

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// AccountRecord is a registered cloud account. The credential blob stays
// ciphertext at rest.
type AccountRecord struct {
	ID             uint   `gorm:"primaryKey"`
	TenantID       string `gorm:"size:64;uniqueIndex:idx_account_natural"`
	AccountID      string `gorm:"size:128;uniqueIndex:idx_account_natural"`
	Provider       string `gorm:"size:16"`
	Name           string `gorm:"size:255"`
	CredentialBlob string `gorm:"type:text"`
	LastSyncedAt   *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (AccountRecord) TableName() string { return "cloud_accounts" }

// CostRecord is one canonical cost line item. The natural key makes the
// collection window replay-safe.
type CostRecord struct {
	ID         uint      `gorm:"primaryKey"`
	TenantID   string    `gorm:"size:64;uniqueIndex:idx_cost_natural"`
	AccountID  string    `gorm:"size:128;uniqueIndex:idx_cost_natural"`
	Date       time.Time `gorm:"uniqueIndex:idx_cost_natural"`
	Service    string    `gorm:"size:255;uniqueIndex:idx_cost_natural"`
	ResourceID string    `gorm:"size:512;uniqueIndex:idx_cost_natural"`
	Amount     float64
	Currency   string `gorm:"size:8"`
	UsageType  string `gorm:"size:255"`
	Operation  string `gorm:"size:255"`
	Region     string `gorm:"size:64"`
	Tags       datatypes.JSON
	Metadata   datatypes.JSON
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (CostRecord) TableName() string { return "cost_records" }

// AssetRecord is the persisted view of a discovered resource.
type AssetRecord struct {
	ID                 uint   `gorm:"primaryKey"`
	TenantID           string `gorm:"size:64;uniqueIndex:idx_asset_natural"`
	AccountID          string `gorm:"size:128;uniqueIndex:idx_asset_natural"`
	ResourceID         string `gorm:"size:512;uniqueIndex:idx_asset_natural"`
	ResourceType       string `gorm:"size:255"`
	Name               string `gorm:"size:255"`
	Region             string `gorm:"size:64"`
	Zone               string `gorm:"size:64"`
	Status             string `gorm:"size:32"`
	Tags               datatypes.JSON
	Metadata           datatypes.JSON
	ResourceCreatedAt  time.Time
	ResourceModifiedAt time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (AssetRecord) TableName() string { return "cloud_assets" }

// AlertRecord is a raw monitoring signal keyed by the vendor's alert ID.
type AlertRecord struct {
	ID            uint   `gorm:"primaryKey"`
	TenantID      string `gorm:"size:64;uniqueIndex:idx_alert_natural;index:idx_alert_query"`
	AccountID     string `gorm:"size:128;uniqueIndex:idx_alert_natural;index:idx_alert_query"`
	VendorAlertID string `gorm:"size:255;uniqueIndex:idx_alert_natural"`
	Name          string `gorm:"size:255"`
	Severity      string `gorm:"size:16"`
	Status        string `gorm:"size:16"`
	ResourceID    string `gorm:"size:512"`
	Description   string `gorm:"type:text"`
	FiredAt       time.Time
	ResolvedAt    *time.Time
	Metadata      datatypes.JSON
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (AlertRecord) TableName() string { return "alerts" }

// ActivityLogRecord is append-only; logs are never updated after insert.
type ActivityLogRecord struct {
	ID          uint   `gorm:"primaryKey"`
	TenantID    string `gorm:"size:64;index:idx_log_query"`
	AccountID   string `gorm:"size:128;index:idx_log_query"`
	Operation   string `gorm:"size:255"`
	Status      string `gorm:"size:64"`
	Caller      string `gorm:"size:255"`
	ResourceID  string `gorm:"size:512;index"`
	OccurredAt  time.Time
	Level       string `gorm:"size:16"`
	Description string `gorm:"type:text"`
	Metadata    datatypes.JSON
	CreatedAt   time.Time
}

func (ActivityLogRecord) TableName() string { return "activity_logs" }

// IncidentRecord is a correlated alert group.
type IncidentRecord struct {
	ID                string `gorm:"primaryKey;size:36"`
	TenantID          string `gorm:"size:64;index:idx_incident_query"`
	AccountID         string `gorm:"size:128;index:idx_incident_query"`
	Title             string `gorm:"size:255"`
	Description       string `gorm:"type:text"`
	Severity          string `gorm:"size:16"`
	Status            string `gorm:"size:16"`
	Assignee          string `gorm:"size:255"`
	AffectedResources datatypes.JSON
	AlertIDs          datatypes.JSON
	AcknowledgedAt    *time.Time
	ResolvedAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (IncidentRecord) TableName() string { return "incidents" }

// IncidentCommentRecord is immutable once written.
type IncidentCommentRecord struct {
	ID         string `gorm:"primaryKey;size:36"`
	IncidentID string `gorm:"size:36;index"`
	Author     string `gorm:"size:255"`
	Body       string `gorm:"type:text"`
	CreatedAt  time.Time
}

func (IncidentCommentRecord) TableName() string { return "incident_comments" }

func jsonMap(m map[string]string) datatypes.JSON {
	if len(m) == 0 {
		return nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return raw
}

func mapFromJSON(raw datatypes.JSON) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

func jsonList(items []string) datatypes.JSON {
	if len(items) == 0 {
		return datatypes.JSON("[]")
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return raw
}

func listFromJSON(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var items []string
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}
