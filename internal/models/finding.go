package models

import "time"

// SecurityFinding is a canonical misconfiguration or risk detected by a
// provider scan. Findings are surfaced to callers, not persisted by the core.
type SecurityFinding struct {
	ResourceID  string
	Rule        string
	Severity    AlertSeverity
	Description string
	Region      string
	DetectedAt  time.Time
	Metadata    map[string]string
}

// Recommendation is an actionable suggestion derived from findings and cost
// roll-ups.
type Recommendation struct {
	ID          string
	Title       string
	Description string
	Severity    AlertSeverity
	ResourceIDs []string
}
