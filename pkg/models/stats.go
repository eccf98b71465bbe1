package models

// AccountingState holds the durable per-provider counters. Counters only
// grow; they are reset solely by explicit operator action (cache clear with
// --reset-stats).
type AccountingState struct {
	TotalRequests      int64   `json:"total_requests"`
	CacheHits          int64   `json:"cache_hits"`
	EstimatedCostSaved float64 `json:"estimated_cost_saved"`
}

// Stats is the read-only reporting view derived from AccountingState.
type Stats struct {
	TotalRequests      int64   `json:"total_requests"`
	CacheHits          int64   `json:"cache_hits"`
	HitRatePercent     float64 `json:"hit_rate_percent"`
	EstimatedCostSaved float64 `json:"estimated_cost_saved"`
}

// StatsFrom derives Stats from raw counters, guarding the zero-request case.
func StatsFrom(s AccountingState) Stats {
	var rate float64
	if s.TotalRequests > 0 {
		rate = 100 * float64(s.CacheHits) / float64(s.TotalRequests)
	}
	return Stats{
		TotalRequests:      s.TotalRequests,
		CacheHits:          s.CacheHits,
		HitRatePercent:     rate,
		EstimatedCostSaved: s.EstimatedCostSaved,
	}
}

// ProviderStats combines accounting stats with the provider's live entry
// count for reporting surfaces.
type ProviderStats struct {
	Provider Provider `json:"provider"`
	Entries  int      `json:"entries"`
	Stats
}
