package models

import "time"

// AssetStatus is the normalized lifecycle/power state shared by all providers.
type AssetStatus string

const (
	AssetStatusRunning     AssetStatus = "running"
	AssetStatusStopped     AssetStatus = "stopped"
	AssetStatusDeallocated AssetStatus = "deallocated"
	AssetStatusPending     AssetStatus = "pending"
	AssetStatusStopping    AssetStatus = "stopping"
	AssetStatusUnknown     AssetStatus = "unknown"
)

// CloudAsset is the canonical representation of a discovered cloud resource.
// ResourceID is stable across discovery runs and acts as the upsert key
// together with tenant and account.
type CloudAsset struct {
	ResourceID   string
	ResourceType string
	Name         string
	Region       string
	Zone         string
	Status       AssetStatus
	Tags         map[string]string
	Metadata     map[string]string
	CreatedAt    time.Time
	ModifiedAt   time.Time
}

// AssetFilters narrows discovery and scan results. All set fields must match;
// filtering runs client-side after vendor-shape translation so every provider
// shares one matching algorithm.
type AssetFilters struct {
	ResourceType string
	Region       string
	Status       AssetStatus
	Tags         map[string]string
}
