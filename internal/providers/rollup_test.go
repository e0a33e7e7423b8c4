package providers

import (
	"testing"
	"time"

	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRollupByService(t *testing.T) {
	items := []models.CloudCostData{
		{Service: "compute", Amount: 10, Currency: "USD"},
		{Service: "storage", Amount: 30, Currency: "USD"},
		{Service: "compute", Amount: 5, Currency: "USD"},
		{Service: "", Amount: 1, Currency: "USD"},
	}
	got := RollupByService(items)
	if len(got) != 3 {
		t.Fatalf("got %d services, want 3", len(got))
	}
	if got[0].Service != "storage" || got[0].Amount != 30 {
		t.Fatalf("first entry = %+v, want storage/30", got[0])
	}
	if got[1].Service != "compute" || got[1].Amount != 15 {
		t.Fatalf("second entry = %+v, want compute/15", got[1])
	}
	if got[2].Service != "unknown" || got[2].Amount != 1 {
		t.Fatalf("third entry = %+v, want unknown/1", got[2])
	}
}

func TestRollupTrendsDaily(t *testing.T) {
	items := []models.CloudCostData{
		{Date: day(2026, time.March, 2), Amount: 1, Currency: "USD"},
		{Date: day(2026, time.March, 2), Amount: 2, Currency: "USD"},
		{Date: day(2026, time.March, 3), Amount: 4, Currency: "USD"},
	}
	got := RollupTrends(items, models.GranularityDaily)
	if len(got) != 2 {
		t.Fatalf("got %d buckets, want 2", len(got))
	}
	if !got[0].PeriodStart.Equal(day(2026, time.March, 2)) || got[0].Amount != 3 {
		t.Fatalf("first bucket = %+v", got[0])
	}
	if !got[1].PeriodStart.Equal(day(2026, time.March, 3)) || got[1].Amount != 4 {
		t.Fatalf("second bucket = %+v", got[1])
	}
}

func TestRollupTrendsWeeklyStartsMonday(t *testing.T) {
	// 2026-03-04 is a Wednesday; its week starts Monday 2026-03-02.
	items := []models.CloudCostData{
		{Date: day(2026, time.March, 4), Amount: 2, Currency: "USD"},
		{Date: day(2026, time.March, 8), Amount: 3, Currency: "USD"}, // Sunday, same week
		{Date: day(2026, time.March, 9), Amount: 7, Currency: "USD"}, // next Monday
	}
	got := RollupTrends(items, models.GranularityWeekly)
	if len(got) != 2 {
		t.Fatalf("got %d buckets, want 2", len(got))
	}
	if !got[0].PeriodStart.Equal(day(2026, time.March, 2)) || got[0].Amount != 5 {
		t.Fatalf("first bucket = %+v", got[0])
	}
	if !got[1].PeriodStart.Equal(day(2026, time.March, 9)) || got[1].Amount != 7 {
		t.Fatalf("second bucket = %+v", got[1])
	}
}

func TestRollupTrendsMonthly(t *testing.T) {
	items := []models.CloudCostData{
		{Date: day(2026, time.January, 15), Amount: 1, Currency: "USD"},
		{Date: day(2026, time.January, 31), Amount: 2, Currency: "USD"},
		{Date: day(2026, time.February, 1), Amount: 8, Currency: "USD"},
	}
	got := RollupTrends(items, models.GranularityMonthly)
	if len(got) != 2 {
		t.Fatalf("got %d buckets, want 2", len(got))
	}
	if !got[0].PeriodStart.Equal(day(2026, time.January, 1)) || got[0].Amount != 3 {
		t.Fatalf("first bucket = %+v", got[0])
	}
	if !got[1].PeriodStart.Equal(day(2026, time.February, 1)) || got[1].Amount != 8 {
		t.Fatalf("second bucket = %+v", got[1])
	}
}
