package providers

import (
	"testing"

	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/models"
)

func TestMatchFiltersNilMatchesEverything(t *testing.T) {
	if !MatchFilters(models.CloudAsset{ResourceID: "i-1"}, nil) {
		t.Fatal("nil filter should match")
	}
}

func TestMatchFiltersAllFieldsMustMatch(t *testing.T) {
	asset := models.CloudAsset{
		ResourceID:   "i-1",
		ResourceType: "ec2:instance",
		Region:       "us-east-1",
		Status:       models.AssetStatusRunning,
		Tags:         map[string]string{"env": "prod", "team": "core"},
	}

	cases := []struct {
		name    string
		filters models.AssetFilters
		want    bool
	}{
		{"all match", models.AssetFilters{ResourceType: "ec2:instance", Region: "us-east-1", Status: models.AssetStatusRunning, Tags: map[string]string{"env": "prod"}}, true},
		{"wrong type", models.AssetFilters{ResourceType: "s3:bucket"}, false},
		{"wrong region", models.AssetFilters{Region: "eu-west-1"}, false},
		{"wrong status", models.AssetFilters{Status: models.AssetStatusStopped}, false},
		{"missing tag", models.AssetFilters{Tags: map[string]string{"owner": "x"}}, false},
		{"wrong tag value", models.AssetFilters{Tags: map[string]string{"env": "dev"}}, false},
		{"multiple tags all present", models.AssetFilters{Tags: map[string]string{"env": "prod", "team": "core"}}, true},
	}
	for _, tc := range cases {
		if got := MatchFilters(asset, &tc.filters); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestApplyFilters(t *testing.T) {
	assets := []models.CloudAsset{
		{ResourceID: "a", Region: "us-east-1"},
		{ResourceID: "b", Region: "eu-west-1"},
		{ResourceID: "c", Region: "us-east-1"},
	}
	got := ApplyFilters(assets, &models.AssetFilters{Region: "us-east-1"})
	if len(got) != 2 || got[0].ResourceID != "a" || got[1].ResourceID != "c" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestApplyCostFiltersByRegion(t *testing.T) {
	items := []models.CloudCostData{
		{ResourceID: "a", Region: "us-central1"},
		{ResourceID: "b", Region: "europe-west4"},
		{ResourceID: "c"},
	}
	got := ApplyCostFilters(items, &models.AssetFilters{Region: "us-central1"})
	if len(got) != 1 || got[0].ResourceID != "a" {
		t.Fatalf("unexpected result: %+v", got)
	}
	if got := ApplyCostFilters(items, nil); len(got) != 3 {
		t.Fatalf("nil filter should keep everything, got %d", len(got))
	}
}

func TestApplyFindingFiltersByRegion(t *testing.T) {
	findings := []models.SecurityFinding{
		{ResourceID: "a", Region: "us-east-1"},
		{ResourceID: "b", Region: "eu-west-1"},
		{ResourceID: "c"},
	}
	got := ApplyFindingFilters(findings, &models.AssetFilters{Region: "eu-west-1"})
	if len(got) != 1 || got[0].ResourceID != "b" {
		t.Fatalf("unexpected result: %+v", got)
	}
	if got := ApplyFindingFilters(findings, nil); len(got) != 3 {
		t.Fatalf("nil filter should keep everything, got %d", len(got))
	}
}
