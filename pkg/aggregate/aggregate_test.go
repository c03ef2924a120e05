package aggregate

import (
	"math/rand/v2"
	"testing"

	"github.com/ethpandaops/smbench/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func verdict(v model.Verdict) *model.Verdict {
	return &v
}

func result(cat string, diff model.Difficulty, v *model.Verdict) model.TestCaseResult {
	return model.TestCaseResult{
		TestCase: model.TestCase{
			Category:   model.CategoryRef{Name: cat},
			Difficulty: diff,
		},
		PassFail: v,
	}
}

func TestAggregate(t *testing.T) {
	results := []model.TestCaseResult{
		result("Custom X", model.DifficultyEasy, verdict(model.VerdictPass)),
		result("NSFW (Explicit)", model.DifficultyHard, verdict(model.VerdictFail)),
		result("NSFW (Explicit)", model.DifficultyMedium, nil),
		result("Overfit", model.DifficultyEasy, verdict(model.VerdictPartial)),
		result("Overfit", "extreme", verdict(model.VerdictPass)),
	}
	scores := []model.CategoryScore{
		{CategoryName: "Overfit", Score: 75},
		{CategoryName: "NSFW (Explicit)", Score: 40},
	}

	details := Aggregate(results, scores)
	require.Len(t, details, 3)

	assert.Equal(t, "Overfit", details[0].Name)
	assert.Equal(t, "NSFW (Explicit)", details[1].Name)
	assert.Equal(t, "Custom X", details[2].Name)

	overfit := details[0]
	assert.Equal(t, 2, overfit.Total)
	assert.Equal(t, 1, overfit.Pass)
	assert.Equal(t, 1, overfit.Partial)
	assert.InDelta(t, 75.0, overfit.Score, 1e-9)
	assert.Equal(t, Difficulty{Easy: 1}, overfit.Difficulty, "unknown difficulty is not bucketed")
	assert.Equal(t, "Overfit*", overfit.Label())

	nsfw := details[1]
	assert.Equal(t, 1, nsfw.Fail)
	assert.Equal(t, 1, nsfw.Pending)
	assert.Equal(t, model.Counts{Fail: 1}, nsfw.Counts())

	assert.Zero(t, details[2].Score, "missing category score defaults to 0")
}

func TestAggregate_FirstSlugWins(t *testing.T) {
	a := result("Boundaries", model.DifficultyEasy, nil)
	b := result("Boundaries", model.DifficultyEasy, nil)
	b.TestCase.Category.Slug = "eq-boundaries"
	c := result("Boundaries", model.DifficultyEasy, nil)
	c.TestCase.Category.Slug = "other"

	details := AggregateByName([]model.TestCaseResult{a, b, c}, nil)
	assert.Equal(t, "eq-boundaries", details["Boundaries"].Slug)
}

func TestAggregate_CountsInvariant(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	cats := []string{"Overfit", "Ambiguous Interpretation", "Custom", "Other"}
	verdicts := []*model.Verdict{
		nil,
		verdict(model.VerdictPass),
		verdict(model.VerdictPartial),
		verdict(model.VerdictFail),
	}
	diffs := []model.Difficulty{model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard, ""}

	for round := range 20 {
		n := rng.IntN(200)
		results := make([]model.TestCaseResult, 0, n)
		nulls := make(map[string]int, len(cats))

		for range n {
			v := verdicts[rng.IntN(len(verdicts))]
			cat := cats[rng.IntN(len(cats))]

			if v == nil {
				nulls[cat]++
			}

			results = append(results, result(cat, diffs[rng.IntN(len(diffs))], v))
		}

		total := 0

		for _, d := range Aggregate(results, nil) {
			assert.Equal(t, d.Total, d.Pass+d.Partial+d.Fail+d.Pending, "round %d %s", round, d.Name)
			assert.Equal(t, nulls[d.Name], d.Pending, "round %d %s", round, d.Name)

			total += d.Total
		}

		assert.Equal(t, n, total)
	}
}

func TestDifficultyTotals(t *testing.T) {
	results := []model.TestCaseResult{
		result("a", model.DifficultyEasy, nil),
		result("b", model.DifficultyEasy, nil),
		result("a", model.DifficultyHard, nil),
		result("c", "", nil),
	}

	assert.Equal(t, Difficulty{Easy: 2, Hard: 1}, DifficultyTotals(results))
	assert.Equal(t, Difficulty{}, DifficultyTotals(nil))
}

func TestSortedScores(t *testing.T) {
	scores := []model.CategoryScore{
		{CategoryName: "Custom"},
		{CategoryName: "Adversarial (Hostile Logic)"},
		{CategoryName: "Overfit"},
	}

	sorted := SortedScores(scores)
	assert.Equal(t, "Overfit", sorted[0].CategoryName)
	assert.Equal(t, "Adversarial (Hostile Logic)", sorted[1].CategoryName)
	assert.Equal(t, "Custom", sorted[2].CategoryName)
	assert.Equal(t, "Custom", scores[0].CategoryName)
}
