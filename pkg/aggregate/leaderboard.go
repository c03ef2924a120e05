package aggregate

import (
	"cmp"
	"slices"

	"github.com/ethpandaops/smbench/pkg/model"
	"github.com/ethpandaops/smbench/pkg/vendor"
)

// LeaderboardChartSize is the number of top runs drawn in the chart.
const LeaderboardChartSize = 16

// LeaderboardRow is one entry of the ranked run list.
type LeaderboardRow struct {
	ID        string        `json:"id"`
	Label     string        `json:"label"`
	Vendor    *vendor.Match `json:"vendor,omitempty"`
	Version   string        `json:"version"`
	Date      string        `json:"date"`
	Cost      string        `json:"cost"`
	Score     float64       `json:"score"`
	ScoreText string        `json:"score_text"`
	Rating    string        `json:"rating"`
}

// Meta returns the secondary line parts of the row.
func (r LeaderboardRow) Meta() []string {
	return []string{r.Version, r.Date, r.Cost}
}

// LeaderboardView is the render model of the leaderboard page.
type LeaderboardView struct {
	Rows  []LeaderboardRow `json:"rows"`
	Chart ScoreChartView   `json:"chart"`
}

// Empty reports whether there are no runs to show.
func (v LeaderboardView) Empty() bool {
	return len(v.Rows) == 0
}

// Leaderboard returns a copy of runs ordered by final score, highest
// first. Equal scores keep their input order.
func Leaderboard(runs []model.Run) []model.Run {
	out := slices.Clone(runs)
	if out == nil {
		out = []model.Run{}
	}

	slices.SortStableFunc(out, func(a, b model.Run) int {
		return cmp.Compare(b.Score(), a.Score())
	})

	return out
}

// BuildLeaderboard ranks runs and lays out the leaderboard chart.
func BuildLeaderboard(runs []model.Run, resolver *vendor.Resolver) LeaderboardView {
	ranked := Leaderboard(runs)

	view := LeaderboardView{
		Rows: make([]LeaderboardRow, 0, len(ranked)),
	}

	items := make([]ChartItem, 0, min(len(ranked), LeaderboardChartSize))

	for i := range ranked {
		run := &ranked[i]
		match := resolveVendor(resolver, run)

		view.Rows = append(view.Rows, LeaderboardRow{
			ID:        run.ID,
			Label:     run.Label(),
			Vendor:    match,
			Version:   run.BenchmarkVersion.Display(),
			Date:      FormatDate(run.CompletedAt),
			Cost:      FormatCost(run.TotalCost.Float()),
			Score:     run.Score(),
			ScoreText: FormatPercent(run.Score()),
			Rating:    run.Rating(),
		})

		if i < LeaderboardChartSize {
			items = append(items, ChartItem{
				ID:     run.ID,
				Label:  run.Label(),
				Score:  run.Score(),
				Vendor: match,
			})
		}
	}

	view.Chart = ScoreChart(items, LabelModel)

	return view
}

func resolveVendor(resolver *vendor.Resolver, run *model.Run) *vendor.Match {
	m, ok := resolver.Resolve(run.ModelIdentifier, run.ModelName)
	if !ok {
		return nil
	}

	return &m
}
