package correlation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/cache"
	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/models"
	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/utils"
)

type fakeSignals struct {
	alerts     []models.Alert
	logs       []models.ActivityLog
	alertCalls int
	logCalls   int
}

func (f *fakeSignals) ListAlerts(ctx context.Context, query models.AlertQuery) ([]models.Alert, error) {
	f.alertCalls++
	var out []models.Alert
	for _, a := range f.alerts {
		if query.Status != "" && a.Status != query.Status {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeSignals) ListActivityLogs(ctx context.Context, query models.ActivityLogQuery) ([]models.ActivityLog, error) {
	f.logCalls++
	var out []models.ActivityLog
	for _, l := range f.logs {
		if !query.Start.IsZero() && l.OccurredAt.Before(query.Start) {
			continue
		}
		if !query.End.IsZero() && l.OccurredAt.After(query.End) {
			continue
		}
		match := len(query.ResourceIDs) == 0
		for _, id := range query.ResourceIDs {
			if l.ResourceID == id {
				match = true
			}
		}
		if match {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakeIncidents struct {
	incidents map[string]models.Incident
	comments  map[string][]models.IncidentComment
	alerts    []models.Alert
}

func newFakeIncidents() *fakeIncidents {
	return &fakeIncidents{
		incidents: make(map[string]models.Incident),
		comments:  make(map[string][]models.IncidentComment),
	}
}

func (f *fakeIncidents) CreateIncident(ctx context.Context, incident models.Incident) error {
	f.incidents[incident.ID] = incident
	return nil
}

func (f *fakeIncidents) GetIncident(ctx context.Context, id string) (*models.Incident, error) {
	incident, ok := f.incidents[id]
	if !ok {
		return nil, utils.NewAppError("store.GetIncident", utils.KindNotFound, "incident "+id+" not found", nil)
	}
	return &incident, nil
}

func (f *fakeIncidents) UpdateIncident(ctx context.Context, incident models.Incident) error {
	if _, ok := f.incidents[incident.ID]; !ok {
		return utils.NewAppError("store.UpdateIncident", utils.KindNotFound, "incident not found", nil)
	}
	f.incidents[incident.ID] = incident
	return nil
}

func (f *fakeIncidents) AddComment(ctx context.Context, comment models.IncidentComment) error {
	f.comments[comment.IncidentID] = append(f.comments[comment.IncidentID], comment)
	return nil
}

func (f *fakeIncidents) ListComments(ctx context.Context, incidentID string) ([]models.IncidentComment, error) {
	return f.comments[incidentID], nil
}

func (f *fakeIncidents) ListAlertsByIDs(ctx context.Context, tenantID, accountID string, vendorAlertIDs []string) ([]models.Alert, error) {
	var out []models.Alert
	for _, a := range f.alerts {
		for _, id := range vendorAlertIDs {
			if a.VendorAlertID == id {
				out = append(out, a)
			}
		}
	}
	return out, nil
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func testEngine(signals *fakeSignals, incidents *fakeIncidents, now *time.Time) *Engine {
	return NewEngine(signals, incidents, cache.NewMemoryProvider(func() time.Time { return *now }), nil,
		WithClock(func() time.Time { return *now }),
		WithIDGenerator(sequentialIDs()))
}

func at(h, m int) time.Time {
	return time.Date(2026, 3, 10, h, m, 0, 0, time.UTC)
}

func TestAggregateGroupsByResourceAndSeverity(t *testing.T) {
	now := at(12, 0)
	signals := &fakeSignals{alerts: []models.Alert{
		{TenantID: "t1", AccountID: "a1", VendorAlertID: "va-1", Name: "cpu high", Severity: models.SeverityCritical, Status: models.AlertStatusActive, ResourceID: "r1", FiredAt: at(11, 0)},
		{TenantID: "t1", AccountID: "a1", VendorAlertID: "va-2", Name: "disk full", Severity: models.SeverityCritical, Status: models.AlertStatusActive, ResourceID: "r1", FiredAt: at(11, 5)},
		{TenantID: "t1", AccountID: "a1", VendorAlertID: "va-3", Name: "latency", Severity: models.SeverityHigh, Status: models.AlertStatusActive, ResourceID: "r2", FiredAt: at(11, 10)},
		{TenantID: "t1", AccountID: "a1", VendorAlertID: "va-4", Name: "old", Severity: models.SeverityLow, Status: models.AlertStatusResolved, ResourceID: "r1", FiredAt: at(9, 0)},
	}}
	incidents := newFakeIncidents()
	e := testEngine(signals, incidents, &now)

	created, err := e.Aggregate(context.Background(), "t1", "a1")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("created %d incidents, want 2", len(created))
	}

	first := created[0]
	if first.Title != "[critical] cpu high on r1" {
		t.Fatalf("first title = %q", first.Title)
	}
	if first.Description != "2 active alert(s) across 1 affected resource(s)" {
		t.Fatalf("first description = %q", first.Description)
	}
	if len(first.AlertIDs) != 2 || first.AlertIDs[0] != "va-1" || first.AlertIDs[1] != "va-2" {
		t.Fatalf("first alert ids = %v", first.AlertIDs)
	}
	if first.Severity != models.SeverityCritical || first.Status != models.IncidentStatusNew {
		t.Fatalf("first = %+v", first)
	}
	if len(first.AffectedResources) != 1 || first.AffectedResources[0] != "r1" {
		t.Fatalf("first resources = %v", first.AffectedResources)
	}

	second := created[1]
	if second.Title != "[high] latency on r2" || len(second.AlertIDs) != 1 {
		t.Fatalf("second = %+v", second)
	}
}

func TestAggregateNoActiveAlertsCreatesNothing(t *testing.T) {
	now := at(12, 0)
	signals := &fakeSignals{alerts: []models.Alert{
		{VendorAlertID: "va-1", Status: models.AlertStatusResolved, ResourceID: "r1"},
	}}
	incidents := newFakeIncidents()
	e := testEngine(signals, incidents, &now)

	created, err := e.Aggregate(context.Background(), "t1", "a1")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(created) != 0 || len(incidents.incidents) != 0 {
		t.Fatalf("expected no incidents, got %v", created)
	}
}

func TestAggregateAlertWithoutResourceGoesToUnknownBucket(t *testing.T) {
	now := at(12, 0)
	signals := &fakeSignals{alerts: []models.Alert{
		{VendorAlertID: "va-1", Severity: models.SeverityMedium, Status: models.AlertStatusActive},
	}}
	incidents := newFakeIncidents()
	e := testEngine(signals, incidents, &now)

	created, err := e.Aggregate(context.Background(), "t1", "a1")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(created) != 1 || created[0].Title != "[medium] unknown" {
		t.Fatalf("created = %+v", created)
	}
}

func TestAlertsForUsesCacheUntilTTL(t *testing.T) {
	now := at(12, 0)
	signals := &fakeSignals{alerts: []models.Alert{
		{VendorAlertID: "va-1", Status: models.AlertStatusActive, ResourceID: "r1"},
	}}
	e := testEngine(signals, newFakeIncidents(), &now)

	query := models.AlertQuery{TenantID: "t1", AccountID: "a1", Status: models.AlertStatusActive}
	if _, err := e.AlertsFor(context.Background(), query); err != nil {
		t.Fatalf("first read: %v", err)
	}
	if _, err := e.AlertsFor(context.Background(), query); err != nil {
		t.Fatalf("second read: %v", err)
	}
	if signals.alertCalls != 1 {
		t.Fatalf("store reads = %d, want 1 (second served from cache)", signals.alertCalls)
	}

	now = now.Add(defaultSignalTTL + time.Second)
	if _, err := e.AlertsFor(context.Background(), query); err != nil {
		t.Fatalf("read after ttl: %v", err)
	}
	if signals.alertCalls != 2 {
		t.Fatalf("store reads = %d, want 2 after ttl expiry", signals.alertCalls)
	}
}

func TestAlertsForDifferentQueriesDoNotCollide(t *testing.T) {
	now := at(12, 0)
	signals := &fakeSignals{alerts: []models.Alert{
		{VendorAlertID: "va-1", Status: models.AlertStatusActive},
		{VendorAlertID: "va-2", Status: models.AlertStatusResolved},
	}}
	e := testEngine(signals, newFakeIncidents(), &now)

	active, err := e.AlertsFor(context.Background(), models.AlertQuery{TenantID: "t1", AccountID: "a1", Status: models.AlertStatusActive})
	if err != nil {
		t.Fatalf("active read: %v", err)
	}
	resolved, err := e.AlertsFor(context.Background(), models.AlertQuery{TenantID: "t1", AccountID: "a1", Status: models.AlertStatusResolved})
	if err != nil {
		t.Fatalf("resolved read: %v", err)
	}
	if len(active) != 1 || active[0].VendorAlertID != "va-1" {
		t.Fatalf("active = %+v", active)
	}
	if len(resolved) != 1 || resolved[0].VendorAlertID != "va-2" {
		t.Fatalf("resolved = %+v", resolved)
	}
}

func TestAlertsForSeparatorInFieldsDoesNotCollide(t *testing.T) {
	now := at(12, 0)
	signals := &fakeSignals{}
	e := testEngine(signals, newFakeIncidents(), &now)

	// Joined naively these two queries would produce the same key.
	if _, err := e.AlertsFor(context.Background(), models.AlertQuery{TenantID: "t1|a1"}); err != nil {
		t.Fatalf("first read: %v", err)
	}
	if _, err := e.AlertsFor(context.Background(), models.AlertQuery{TenantID: "t1", AccountID: "a1"}); err != nil {
		t.Fatalf("second read: %v", err)
	}
	if signals.alertCalls != 2 {
		t.Fatalf("store reads = %d, want 2 (distinct queries must not share a cache entry)", signals.alertCalls)
	}
}

func TestUpdateStatusStampsTransitions(t *testing.T) {
	now := at(12, 0)
	incidents := newFakeIncidents()
	incidents.incidents["inc-1"] = models.Incident{
		ID: "inc-1", TenantID: "t1", AccountID: "a1",
		Status: models.IncidentStatusNew, CreatedAt: at(11, 0),
	}
	e := testEngine(&fakeSignals{}, incidents, &now)

	got, err := e.UpdateStatus(context.Background(), "inc-1", models.IncidentStatusAcknowledged, "sre-oncall", "taking a look")
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if got.Status != models.IncidentStatusAcknowledged || got.Assignee != "sre-oncall" {
		t.Fatalf("got %+v", got)
	}
	if got.AcknowledgedAt == nil || !got.AcknowledgedAt.Equal(at(12, 0)) {
		t.Fatalf("acknowledged at = %v", got.AcknowledgedAt)
	}
	if got.ResolvedAt != nil {
		t.Fatalf("resolved at should be nil, got %v", got.ResolvedAt)
	}
	comments := incidents.comments["inc-1"]
	if len(comments) != 1 || comments[0].Body != "taking a look" || comments[0].Author != "system" {
		t.Fatalf("comments = %+v", comments)
	}

	now = at(13, 0)
	got, err = e.UpdateStatus(context.Background(), "inc-1", models.IncidentStatusResolved, "", "")
	if err != nil {
		t.Fatalf("UpdateStatus resolved: %v", err)
	}
	if got.ResolvedAt == nil || !got.ResolvedAt.Equal(at(13, 0)) {
		t.Fatalf("resolved at = %v", got.ResolvedAt)
	}
	if got.AcknowledgedAt == nil || !got.AcknowledgedAt.Equal(at(12, 0)) {
		t.Fatalf("acknowledged at changed: %v", got.AcknowledgedAt)
	}
	if got.Assignee != "sre-oncall" {
		t.Fatalf("assignee cleared: %q", got.Assignee)
	}
	if len(incidents.comments["inc-1"]) != 1 {
		t.Fatal("empty note should not add a comment")
	}
}

func TestUpdateStatusUnknownIncident(t *testing.T) {
	now := at(12, 0)
	e := testEngine(&fakeSignals{}, newFakeIncidents(), &now)

	_, err := e.UpdateStatus(context.Background(), "missing", models.IncidentStatusAcknowledged, "", "")
	if !utils.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestTimelineOrdersAllEventKinds(t *testing.T) {
	now := at(14, 0)
	incidents := newFakeIncidents()
	ack := at(12, 30)
	incidents.incidents["inc-1"] = models.Incident{
		ID: "inc-1", TenantID: "t1", AccountID: "a1",
		Status:            models.IncidentStatusAcknowledged,
		AffectedResources: []string{"r1"},
		AlertIDs:          []string{"va-1"},
		AcknowledgedAt:    &ack,
		CreatedAt:         at(12, 0),
	}
	incidents.alerts = []models.Alert{
		{VendorAlertID: "va-1", Name: "cpu high", Severity: models.SeverityCritical, ResourceID: "r1", FiredAt: at(11, 50)},
	}
	incidents.comments["inc-1"] = []models.IncidentComment{
		{ID: "c-1", IncidentID: "inc-1", Author: "sre", Body: "restarting", CreatedAt: at(12, 45)},
	}
	signals := &fakeSignals{logs: []models.ActivityLog{
		{ResourceID: "r1", Operation: "vm.restart", Caller: "sre", OccurredAt: at(11, 30)},
		{ResourceID: "r2", Operation: "vm.delete", OccurredAt: at(11, 40)},
		{ResourceID: "r1", Operation: "vm.resize", OccurredAt: at(9, 0)}, // before lookback window
	}}
	e := testEngine(signals, incidents, &now)

	events, err := e.Timeline(context.Background(), "inc-1")
	if err != nil {
		t.Fatalf("Timeline: %v", err)
	}

	wantTypes := []models.TimelineEventType{
		models.EventActivityLogged, // 11:30 vm.restart
		models.EventAlertFired,     // 11:50
		models.EventStatusChange,   // 12:00 created
		models.EventStatusChange,   // 12:30 acknowledged
		models.EventCommentAdded,   // 12:45
	}
	if len(events) != len(wantTypes) {
		t.Fatalf("got %d events, want %d: %+v", len(events), len(wantTypes), events)
	}
	for i, want := range wantTypes {
		if events[i].Type != want {
			t.Errorf("event %d type = %q, want %q", i, events[i].Type, want)
		}
	}
	for i := 1; i < len(events); i++ {
		if events[i].Time.Before(events[i-1].Time) {
			t.Fatalf("events out of order at %d", i)
		}
	}
}

func TestTimelineUnknownIncident(t *testing.T) {
	now := at(12, 0)
	e := testEngine(&fakeSignals{}, newFakeIncidents(), &now)

	_, err := e.Timeline(context.Background(), "missing")
	if !utils.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}
