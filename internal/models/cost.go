package models

import "time"

// Granularity buckets cost trends.
type Granularity string

const (
	GranularityDaily   Granularity = "daily"
	GranularityWeekly  Granularity = "weekly"
	GranularityMonthly Granularity = "monthly"
)

// DateRange bounds a cost query at day granularity. Start == End is a valid
// single-day range.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// CloudCostData is one canonical cost line item. The tuple
// (tenant, account, date, service, resource) is the dedup key for upserts.
type CloudCostData struct {
	Date       time.Time
	Service    string
	Amount     float64
	Currency   string
	UsageType  string
	Operation  string
	Region     string
	ResourceID string
	Tags       map[string]string
	Metadata   map[string]string
}

// CostByService is a per-service roll-up over a date range.
type CostByService struct {
	Service  string
	Amount   float64
	Currency string
}

// CostTrend is one bucketed total in a trend series.
type CostTrend struct {
	PeriodStart time.Time
	Amount      float64
	Currency    string
}
