package domain

// CacheStats is a point-in-time view of embedding cache activity.
type CacheStats struct {
	Hits          uint64 `json:"hits"`
	Misses        uint64 `json:"misses"`
	Evictions     uint64 `json:"evictions"`
	ResidentBytes int64  `json:"resident_bytes"`
	Entries       int    `json:"entries"`
	BudgetBytes   int64  `json:"budget_bytes"`
}
