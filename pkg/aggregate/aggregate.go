// Package aggregate folds run documents into the rollups, rankings and
// chart models shown on the leaderboard, run and compare pages.
package aggregate

import (
	"github.com/ethpandaops/smbench/pkg/category"
	"github.com/ethpandaops/smbench/pkg/model"
)

// Difficulty holds per-difficulty case counts.
type Difficulty struct {
	Easy   int `json:"easy"`
	Medium int `json:"medium"`
	Hard   int `json:"hard"`
}

func (d *Difficulty) add(level model.Difficulty) {
	switch level {
	case model.DifficultyEasy:
		d.Easy++
	case model.DifficultyMedium:
		d.Medium++
	case model.DifficultyHard:
		d.Hard++
	}
}

// CategoryDetail is the rollup of one category's results.
type CategoryDetail struct {
	Name       string     `json:"name"`
	Slug       string     `json:"slug,omitempty"`
	Total      int        `json:"total"`
	Pass       int        `json:"pass"`
	Partial    int        `json:"partial"`
	Fail       int        `json:"fail"`
	Pending    int        `json:"pending"`
	Difficulty Difficulty `json:"difficulty"`
	Score      float64    `json:"score"`
}

// Label returns the category name with the overfit marker.
func (d CategoryDetail) Label() string {
	return category.Footnoted(d.Name, d.Slug)
}

// Counts returns the judged verdict counts.
func (d CategoryDetail) Counts() model.Counts {
	return model.Counts{Pass: d.Pass, Partial: d.Partial, Fail: d.Fail}
}

// AggregateByName buckets results by category name. Each result is
// counted in exactly one of pass, partial, fail or pending. Scores are
// joined from scores by category name.
func AggregateByName(
	results []model.TestCaseResult,
	scores []model.CategoryScore,
) map[string]*CategoryDetail {
	details := make(map[string]*CategoryDetail, 8)

	for i := range results {
		result := &results[i]
		cat := result.TestCase.Category

		detail, ok := details[cat.Name]
		if !ok {
			detail = &CategoryDetail{Name: cat.Name}
			details[cat.Name] = detail
		}

		if detail.Slug == "" {
			detail.Slug = cat.Slug
		}

		detail.Total++
		detail.Difficulty.add(result.TestCase.Difficulty)

		switch {
		case result.IsPending():
			detail.Pending++
		case result.Is(model.VerdictPass):
			detail.Pass++
		case result.Is(model.VerdictPartial):
			detail.Partial++
		case result.Is(model.VerdictFail):
			detail.Fail++
		default:
			// Unrecognized verdicts are not judged outcomes.
			detail.Pending++
		}
	}

	byName := make(map[string]float64, len(scores))
	for _, s := range scores {
		byName[s.CategoryName] = s.Score.Float()
	}

	for name, detail := range details {
		detail.Score = byName[name]
	}

	return details
}

// Aggregate returns the category rollups in canonical category order.
func Aggregate(results []model.TestCaseResult, scores []model.CategoryScore) []CategoryDetail {
	byName := AggregateByName(results, scores)

	// Seed in first-seen order so the final tie-break is deterministic.
	out := make([]CategoryDetail, 0, len(byName))
	seen := make(map[string]struct{}, len(byName))

	for i := range results {
		name := results[i].TestCase.Category.Name
		if _, ok := seen[name]; ok {
			continue
		}

		seen[name] = struct{}{}
		out = append(out, *byName[name])
	}

	return category.Sort(out, func(d CategoryDetail) category.Ref {
		return category.Ref{Name: d.Name, Slug: d.Slug}
	})
}

// DifficultyTotals counts results per difficulty across all categories.
func DifficultyTotals(results []model.TestCaseResult) Difficulty {
	var totals Difficulty
	for i := range results {
		totals.add(results[i].TestCase.Difficulty)
	}

	return totals
}

// SortedScores returns category scores in canonical category order.
func SortedScores(scores []model.CategoryScore) []model.CategoryScore {
	return category.Sort(scores, func(s model.CategoryScore) category.Ref {
		return category.Ref{Name: s.CategoryName}
	})
}
