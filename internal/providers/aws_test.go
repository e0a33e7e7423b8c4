package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/models"
	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/utils"
)

func testConfig(baseURL string) Config {
	return Config{BaseURL: baseURL, Timeout: time.Second, MaxAttempts: 1}
}

func TestAWSGetCostsTransformsGroups(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ce/get-cost-and-usage" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var payload struct {
			TimePeriod struct {
				Start string `json:"Start"`
				End   string `json:"End"`
			} `json:"TimePeriod"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		if payload.TimePeriod.Start != "2026-03-01" || payload.TimePeriod.End != "2026-03-02" {
			t.Errorf("unexpected time period %+v", payload.TimePeriod)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"ResultsByTime": []map[string]any{{
				"TimePeriod": map[string]string{"Start": "2026-03-01"},
				"Groups": []map[string]any{
					{"Keys": []string{"AmazonEC2"}, "Metrics": map[string]any{"UnblendedCost": map[string]string{"Amount": "12.34", "Unit": "USD"}}},
					{"Keys": []string{"AmazonS3"}, "Metrics": map[string]any{"UnblendedCost": map[string]string{"Amount": "not-a-number", "Unit": "USD"}}},
				},
			}},
		})
	}))
	defer server.Close()

	p := NewAWSProvider(Credentials{AccessKeyID: "ak", SecretAccessKey: "sk"}, testConfig(server.URL), nil)
	items, err := p.GetCosts(context.Background(), models.DateRange{
		Start: day(2026, time.March, 1),
		End:   day(2026, time.March, 2),
	}, nil)
	if err != nil {
		t.Fatalf("GetCosts: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1 (bad amount skipped)", len(items))
	}
	it := items[0]
	if it.Service != "AmazonEC2" || it.Amount != 12.34 || it.Currency != "USD" {
		t.Fatalf("unexpected item %+v", it)
	}
	if !it.Date.Equal(day(2026, time.March, 1)) {
		t.Fatalf("unexpected date %v", it.Date)
	}
}

func TestAWSDiscoverAssetsFansOutOverRegions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		region := r.URL.Query().Get("region")
		json.NewEncoder(w).Encode(map[string]any{
			"Reservations": []map[string]any{{
				"Instances": []map[string]any{{
					"InstanceId":   "i-" + region,
					"InstanceType": "t3.micro",
					"State":        map[string]string{"Name": "running"},
					"Placement":    map[string]string{"AvailabilityZone": region + "a"},
					"Tags":         []map[string]string{{"Key": "Name", "Value": "web-" + region}},
					"LaunchTime":   "2026-01-01T00:00:00Z",
				}},
			}},
		})
	}))
	defer server.Close()

	creds := Credentials{AccessKeyID: "ak", SecretAccessKey: "sk", Regions: []string{"us-east-1", "eu-west-1"}}
	p := NewAWSProvider(creds, testConfig(server.URL), nil)
	assets, err := p.DiscoverAssets(context.Background(), nil)
	if err != nil {
		t.Fatalf("DiscoverAssets: %v", err)
	}
	if len(assets) != 2 {
		t.Fatalf("got %d assets, want 2", len(assets))
	}
	seen := map[string]bool{}
	for _, a := range assets {
		seen[a.Region] = true
		if a.Status != models.AssetStatusRunning {
			t.Errorf("asset %s status = %q", a.ResourceID, a.Status)
		}
		if a.Name != "web-"+a.Region {
			t.Errorf("asset name not taken from Name tag: %q", a.Name)
		}
	}
	if !seen["us-east-1"] || !seen["eu-west-1"] {
		t.Fatalf("missing regions in %v", seen)
	}
}

func TestAWSGetAssetDetailsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"Reservations": []any{}})
	}))
	defer server.Close()

	creds := Credentials{Regions: []string{"us-east-1"}}
	p := NewAWSProvider(creds, testConfig(server.URL), nil)
	_, err := p.GetAssetDetails(context.Background(), "i-missing")
	if !utils.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestAWSValidateCredentialsAuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid credentials"}`, http.StatusForbidden)
	}))
	defer server.Close()

	p := NewAWSProvider(Credentials{}, testConfig(server.URL), nil)
	err := p.ValidateCredentials(context.Background())
	if !utils.IsAuth(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestAWSScanHonorsRegionFilter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		region := r.URL.Query().Get("region")
		json.NewEncoder(w).Encode(map[string]any{
			"Findings": []map[string]any{{
				"Id":       "f-" + region,
				"Title":    "Open security group",
				"Severity": map[string]string{"Label": "MEDIUM"},
				"Region":   region,
			}},
		})
	}))
	defer server.Close()

	creds := Credentials{Regions: []string{"us-east-1", "eu-west-1"}}
	p := NewAWSProvider(creds, testConfig(server.URL), nil)
	findings, err := p.ScanForMisconfigurations(context.Background(), &models.AssetFilters{Region: "eu-west-1"})
	if err != nil {
		t.Fatalf("ScanForMisconfigurations: %v", err)
	}
	if len(findings) != 1 || findings[0].Region != "eu-west-1" {
		t.Fatalf("unexpected findings %+v", findings)
	}
}

func TestAWSSecurityFindingsTransform(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("resource-id"); got != "i-1" {
			t.Errorf("resource-id = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"Findings": []map[string]any{{
				"Id":          "f-1",
				"Title":       "S3 bucket public",
				"Description": "bucket allows public read",
				"Severity":    map[string]string{"Label": "HIGH"},
				"Resources":   []map[string]string{{"Id": "i-1"}},
				"Region":      "us-east-1",
				"CreatedAt":   "2026-02-01T10:00:00Z",
			}},
		})
	}))
	defer server.Close()

	p := NewAWSProvider(Credentials{}, testConfig(server.URL), nil)
	findings, err := p.GetSecurityFindings(context.Background(), "i-1")
	if err != nil {
		t.Fatalf("GetSecurityFindings: %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("got %d findings, want 1", len(findings))
	}
	f := findings[0]
	if f.ResourceID != "i-1" || f.Rule != "S3 bucket public" || f.Severity != models.SeverityHigh {
		t.Fatalf("unexpected finding %+v", f)
	}
}
