package indexstore

import "time"

// RunEntry is the catalog row of one run, derived from its detail
// document. The whole table can be rebuilt from storage at any time.
type RunEntry struct {
	ID              uint   `gorm:"primaryKey" json:"-"`
	RunID           string `gorm:"not null;uniqueIndex" json:"run_id"`
	ModelIdentifier string `json:"model_identifier"`
	ModelName       string `json:"model_name"`
	Vendor          string `gorm:"index" json:"vendor,omitempty"`
	Version         string `json:"version,omitempty"`
	Scope           string `json:"scope"`
	Status          string `gorm:"index" json:"status"`

	Score  float64 `json:"score"`
	Rating string  `json:"rating"`

	// Denormalized verdict counts.
	TotalTests  int `json:"total_tests"`
	JudgedTests int `json:"judged_tests"`
	Passed      int `json:"passed"`
	Partial     int `json:"partial"`
	Failed      int `json:"failed"`

	TotalCost   float64 `json:"total_cost"`
	TotalTokens int64   `json:"total_tokens"`
	CompletedAt string  `json:"completed_at,omitempty"`

	IndexedAt   time.Time  `json:"indexed_at"`
	ReindexedAt *time.Time `json:"reindexed_at,omitempty"`
}

// Pending is the number of results not judged yet.
func (e *RunEntry) Pending() int {
	return max(0, e.TotalTests-e.JudgedTests)
}
