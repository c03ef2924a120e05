package aggregate

import (
	"github.com/ethpandaops/smbench/pkg/category"
	"github.com/ethpandaops/smbench/pkg/model"
	"github.com/ethpandaops/smbench/pkg/pager"
	"github.com/ethpandaops/smbench/pkg/vendor"
)

// RunView is the render model of a run detail page.
type RunView struct {
	Summary      RunSummary       `json:"summary"`
	Vendor       *vendor.Match    `json:"vendor,omitempty"`
	Categories   []CategoryDetail `json:"categories"`
	ScoreChart   ScoreChartView   `json:"score_chart"`
	VerdictChart StackedChartView `json:"verdict_chart"`
	Difficulty   Difficulty       `json:"difficulty"`
	Footnote     string           `json:"footnote"`
	Cases        *pager.CaseList  `json:"-"`
}

// BuildRun derives every section of the run page from its document.
func BuildRun(doc *model.RunDocument, resolver *vendor.Resolver) RunView {
	items := CategoryChartItems(doc.CategoryScores)

	return RunView{
		Summary:      Summarize(doc),
		Vendor:       resolveVendor(resolver, &doc.Run),
		Categories:   Aggregate(doc.Results, doc.CategoryScores),
		ScoreChart:   ScoreChart(items, LabelCategory),
		VerdictChart: StackedChart(items),
		Difficulty:   DifficultyTotals(doc.Results),
		Footnote:     category.Footnote,
		Cases:        pager.NewCaseList(doc.Results),
	}
}
