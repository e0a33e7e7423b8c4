package correlation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/cache"
	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/metrics"
	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/models"
)

const defaultSignalTTL = 5 * time.Minute

// SignalStore reads persisted monitoring signals.
type SignalStore interface {
	ListAlerts(ctx context.Context, query models.AlertQuery) ([]models.Alert, error)
	ListActivityLogs(ctx context.Context, query models.ActivityLogQuery) ([]models.ActivityLog, error)
}

// IncidentStore owns incident persistence.
type IncidentStore interface {
	CreateIncident(ctx context.Context, incident models.Incident) error
	GetIncident(ctx context.Context, id string) (*models.Incident, error)
	UpdateIncident(ctx context.Context, incident models.Incident) error
	AddComment(ctx context.Context, comment models.IncidentComment) error
	ListComments(ctx context.Context, incidentID string) ([]models.IncidentComment, error)
	ListAlertsByIDs(ctx context.Context, tenantID, accountID string, vendorAlertIDs []string) ([]models.Alert, error)
}

// Engine correlates alerts into incidents and serves signal reads through a
// short-lived cache. Aggregation always creates fresh incidents and never
// amends existing ones; callers schedule runs after alert ingestion windows
// close to avoid regrouping the same signals.
type Engine struct {
	logger    *slog.Logger
	signals   SignalStore
	incidents IncidentStore
	cache     cache.Provider
	ttl       time.Duration
	clock     func() time.Time
	newID     func() string
}

// Option tweaks engine construction.
type Option func(*Engine)

// WithSignalTTL overrides the signal cache TTL.
func WithSignalTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		if ttl > 0 {
			e.ttl = ttl
		}
	}
}

// WithClock injects a deterministic clock.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithIDGenerator injects a deterministic incident ID source.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) {
		if newID != nil {
			e.newID = newID
		}
	}
}

func NewEngine(signals SignalStore, incidents IncidentStore, cacheProvider cache.Provider, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cacheProvider == nil {
		cacheProvider = cache.NewMemoryProvider(nil)
	}
	e := &Engine{
		logger:    logger,
		signals:   signals,
		incidents: incidents,
		cache:     cacheProvider,
		ttl:       defaultSignalTTL,
		clock:     time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AlertsFor returns alerts matching the query, served from the signal cache
// when a fresh entry exists.
func (e *Engine) AlertsFor(ctx context.Context, query models.AlertQuery) ([]models.Alert, error) {
	key := alertCacheKey(query)
	if raw, err := e.cache.Get(ctx, key); err == nil {
		var alerts []models.Alert
		if err := json.Unmarshal(raw, &alerts); err == nil {
			metrics.ObserveCacheLookup(metrics.CacheHit)
			return alerts, nil
		}
	}
	metrics.ObserveCacheLookup(metrics.CacheMiss)

	alerts, err := e.signals.ListAlerts(ctx, query)
	if err != nil {
		return nil, err
	}
	e.cachePut(ctx, key, alerts)
	return alerts, nil
}

// ActivityFor returns activity logs matching the query, cached like alerts.
func (e *Engine) ActivityFor(ctx context.Context, query models.ActivityLogQuery) ([]models.ActivityLog, error) {
	key := activityCacheKey(query)
	if raw, err := e.cache.Get(ctx, key); err == nil {
		var logs []models.ActivityLog
		if err := json.Unmarshal(raw, &logs); err == nil {
			metrics.ObserveCacheLookup(metrics.CacheHit)
			return logs, nil
		}
	}
	metrics.ObserveCacheLookup(metrics.CacheMiss)

	logs, err := e.signals.ListActivityLogs(ctx, query)
	if err != nil {
		return nil, err
	}
	e.cachePut(ctx, key, logs)
	return logs, nil
}

func (e *Engine) cachePut(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := e.cache.Set(ctx, key, raw, e.ttl); err != nil {
		e.logger.Warn("signal cache write failed", slog.String("key", key), slog.Any("error", err))
	}
}

// Cache keys JSON-encode the full query so field values containing the
// separator cannot collide with each other.
func alertCacheKey(q models.AlertQuery) string {
	raw, _ := json.Marshal(q)
	return "alerts:" + string(raw)
}

func activityCacheKey(q models.ActivityLogQuery) string {
	raw, _ := json.Marshal(q)
	return "activity:" + string(raw)
}

// signalGroup identifies one correlation bucket.
type signalGroup struct {
	resource string
	severity models.AlertSeverity
}

// incidentTitle leads with the first named alert in the group so operators
// see the triggering condition, not just the resource. Groups where no alert
// carries a name fall back to the resource alone.
func incidentTitle(g signalGroup, group []models.Alert) string {
	for _, a := range group {
		if a.Name != "" {
			return fmt.Sprintf("[%s] %s on %s", g.severity, a.Name, g.resource)
		}
	}
	return fmt.Sprintf("[%s] %s", g.severity, g.resource)
}

// Aggregate groups the account's active alerts by (resource, severity) and
// creates one new incident per group. Groups are processed in sorted order
// so runs are deterministic. Returns the incidents created.
func (e *Engine) Aggregate(ctx context.Context, tenantID, accountID string) ([]models.Incident, error) {
	alerts, err := e.AlertsFor(ctx, models.AlertQuery{
		TenantID:  tenantID,
		AccountID: accountID,
		Status:    models.AlertStatusActive,
	})
	if err != nil {
		return nil, fmt.Errorf("list active alerts: %w", err)
	}
	if len(alerts) == 0 {
		return nil, nil
	}

	groups := make(map[signalGroup][]models.Alert)
	for _, a := range alerts {
		resource := a.ResourceID
		if resource == "" {
			resource = "unknown"
		}
		g := signalGroup{resource: resource, severity: a.Severity}
		groups[g] = append(groups[g], a)
	}

	keys := make([]signalGroup, 0, len(groups))
	for g := range groups {
		keys = append(keys, g)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].resource != keys[j].resource {
			return keys[i].resource < keys[j].resource
		}
		return keys[i].severity < keys[j].severity
	})

	now := e.clock()
	created := make([]models.Incident, 0, len(keys))
	for _, g := range keys {
		group := groups[g]

		alertIDs := make([]string, 0, len(group))
		for _, a := range group {
			alertIDs = append(alertIDs, a.VendorAlertID)
		}
		affected := []string{g.resource}

		incident := models.Incident{
			ID:                e.newID(),
			TenantID:          tenantID,
			AccountID:         accountID,
			Title:             incidentTitle(g, group),
			Description:       fmt.Sprintf("%d active alert(s) across %d affected resource(s)", len(group), len(affected)),
			Severity:          g.severity,
			Status:            models.IncidentStatusNew,
			AffectedResources: affected,
			AlertIDs:          alertIDs,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := e.incidents.CreateIncident(ctx, incident); err != nil {
			return created, fmt.Errorf("create incident for %s: %w", g.resource, err)
		}
		metrics.IncidentCreated()
		created = append(created, incident)
	}

	e.logger.Info("aggregated alerts into incidents",
		slog.String("tenant", tenantID),
		slog.String("account", accountID),
		slog.Int("alerts", len(alerts)),
		slog.Int("incidents", len(created)))
	return created, nil
}

// UpdateStatus moves an incident to a new status, stamping acknowledged and
// resolved times on the matching transitions. A non-empty assignee replaces
// the current one; a non-empty note is appended as a system comment.
func (e *Engine) UpdateStatus(ctx context.Context, incidentID string, status models.IncidentStatus, assignee, note string) (*models.Incident, error) {
	incident, err := e.incidents.GetIncident(ctx, incidentID)
	if err != nil {
		return nil, err
	}

	now := e.clock()
	incident.Status = status
	incident.UpdatedAt = now
	switch status {
	case models.IncidentStatusAcknowledged:
		if incident.AcknowledgedAt == nil {
			stamp := now
			incident.AcknowledgedAt = &stamp
		}
	case models.IncidentStatusResolved, models.IncidentStatusClosed:
		if incident.ResolvedAt == nil {
			stamp := now
			incident.ResolvedAt = &stamp
		}
	}
	if assignee != "" {
		incident.Assignee = assignee
	}

	if err := e.incidents.UpdateIncident(ctx, *incident); err != nil {
		return nil, err
	}

	if note != "" {
		comment := models.IncidentComment{
			ID:         e.newID(),
			IncidentID: incident.ID,
			Author:     "system",
			Body:       note,
			CreatedAt:  now,
		}
		if err := e.incidents.AddComment(ctx, comment); err != nil {
			e.logger.Warn("status note not recorded",
				slog.String("incident", incident.ID), slog.Any("error", err))
		}
	}
	return incident, nil
}
