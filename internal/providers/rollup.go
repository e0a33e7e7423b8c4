package providers

import (
	"sort"
	"time"

	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/models"
)

// RollupByService sums raw line items per service, sorted by descending
// amount then service name for a stable order. The currency of the first
// contributing item wins per service; vendors do not mix currencies within
// one account.
func RollupByService(items []models.CloudCostData) []models.CostByService {
	totals := make(map[string]*models.CostByService)
	for _, it := range items {
		svc := it.Service
		if svc == "" {
			svc = "unknown"
		}
		agg, ok := totals[svc]
		if !ok {
			agg = &models.CostByService{Service: svc, Currency: it.Currency}
			totals[svc] = agg
		}
		agg.Amount += it.Amount
	}

	out := make([]models.CostByService, 0, len(totals))
	for _, agg := range totals {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Service < out[j].Service
	})
	return out
}

// RollupTrends buckets raw line items by period start and sums amounts,
// returning buckets in ascending time order. Weekly buckets start on Monday,
// monthly buckets on the first of the month.
func RollupTrends(items []models.CloudCostData, granularity models.Granularity) []models.CostTrend {
	buckets := make(map[time.Time]*models.CostTrend)
	for _, it := range items {
		start := bucketStart(it.Date, granularity)
		agg, ok := buckets[start]
		if !ok {
			agg = &models.CostTrend{PeriodStart: start, Currency: it.Currency}
			buckets[start] = agg
		}
		agg.Amount += it.Amount
	}

	out := make([]models.CostTrend, 0, len(buckets))
	for _, agg := range buckets {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodStart.Before(out[j].PeriodStart) })
	return out
}

func bucketStart(t time.Time, granularity models.Granularity) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch granularity {
	case models.GranularityWeekly:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case models.GranularityMonthly:
		return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return day
	}
}
