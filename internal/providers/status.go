package providers

import (
	"strings"

	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/models"
)

// statusMappings is an ordered case-insensitive substring table. First match
// wins, so more specific tokens must come before their prefixes.
var statusMappings = []struct {
	token  string
	status models.AssetStatus
}{
	{"deallocat", models.AssetStatusDeallocated},
	{"terminated", models.AssetStatusStopped},
	{"stopping", models.AssetStatusStopping},
	{"stopped", models.AssetStatusStopped},
	{"running", models.AssetStatusRunning},
	{"provisioning", models.AssetStatusPending},
	{"staging", models.AssetStatusPending},
	{"starting", models.AssetStatusPending},
	{"pending", models.AssetStatusPending},
}

// NormalizeStatus maps a raw vendor lifecycle string onto the shared status
// vocabulary. Unrecognized values become unknown rather than an error so one
// odd resource never fails a discovery run.
func NormalizeStatus(raw string) models.AssetStatus {
	lower := strings.ToLower(strings.TrimSpace(raw))
	for _, m := range statusMappings {
		if strings.Contains(lower, m.token) {
			return m.status
		}
	}
	return models.AssetStatusUnknown
}

// NormalizeSeverity maps vendor severity labels onto the shared severity
// vocabulary. Unrecognized labels default to medium.
func NormalizeSeverity(raw string) models.AlertSeverity {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "critical", "fatal":
		return models.SeverityCritical
	case "high", "error", "severe":
		return models.SeverityHigh
	case "medium", "warning", "moderate":
		return models.SeverityMedium
	case "low", "info", "informational":
		return models.SeverityLow
	default:
		return models.SeverityMedium
	}
}
