package compare

import (
	"github.com/ethpandaops/smbench/pkg/model"
	"github.com/ethpandaops/smbench/pkg/vendor"
)

// EmptyMessage is shown while no run is selected.
const EmptyMessage = "Pick two or more runs to compare categories."

// RunItem is one entry of the selectable run list.
type RunItem struct {
	ID        string        `json:"id"`
	Label     string        `json:"label"`
	Vendor    *vendor.Match `json:"vendor,omitempty"`
	Scope     string        `json:"scope"`
	Date      string        `json:"date"`
	Score     float64       `json:"score"`
	ScoreText string        `json:"score_text"`
	Rating    string        `json:"rating"`
	Selected  bool          `json:"selected"`
}

// OverallEntry is one selected run in the overall ranking.
type OverallEntry struct {
	ID string `json:"id"`
	// Label is the full model label; ModelLabel has the vendor stripped.
	Label      string        `json:"label"`
	ModelLabel string        `json:"model_label"`
	Vendor     *vendor.Match `json:"vendor,omitempty"`
	Scope      string        `json:"scope"`
	Date       string        `json:"date"`
	Score      float64       `json:"score"`
	ScoreText  string        `json:"score_text"`
	BarWidth   float64       `json:"bar_width"`
	Rating     string        `json:"rating"`
}

// CategoryRow is one selected run's result in a category.
type CategoryRow struct {
	RunID     string        `json:"run_id"`
	Label     string        `json:"label"`
	Vendor    *vendor.Match `json:"vendor,omitempty"`
	Score     float64       `json:"score"`
	ScoreText string        `json:"score_text"`
	Counts    model.Counts  `json:"counts"`
	// Present is false when the run has no score for the category.
	Present bool `json:"present"`
}

// CategoryBlock is one category of the comparison matrix.
type CategoryBlock struct {
	Name  string        `json:"name"`
	Label string        `json:"label"`
	Rows  []CategoryRow `json:"rows"`
}

// Layout is the overall card grid arrangement.
type Layout struct {
	Width    float64 `json:"width"`
	Columns  int     `json:"columns"`
	SpanLast bool    `json:"span_last"`
}

// View is the full render model of a compare page.
type View struct {
	Query        string          `json:"query"`
	Runs         []RunItem       `json:"runs"`
	Selected     []string        `json:"selected"`
	Empty        bool            `json:"empty"`
	EmptyMessage string          `json:"empty_message,omitempty"`
	Overall      []OverallEntry  `json:"overall"`
	Categories   []CategoryBlock `json:"categories"`
	Footnote     string          `json:"footnote,omitempty"`
	Layout       Layout          `json:"layout"`
}

// Listed reports whether id appears in the filtered run list.
func (v View) Listed(id string) bool {
	for _, r := range v.Runs {
		if r.ID == id {
			return true
		}
	}

	return false
}
