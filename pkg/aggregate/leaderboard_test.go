package aggregate

import (
	"fmt"
	"testing"

	"github.com/ethpandaops/smbench/pkg/model"
	"github.com/ethpandaops/smbench/pkg/vendor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(runs []model.Run) []string {
	out := make([]string, 0, len(runs))
	for _, r := range runs {
		out = append(out, r.ModelName)
	}

	return out
}

func TestLeaderboard_TiesKeepInputOrder(t *testing.T) {
	runs := []model.Run{
		{ID: "b", ModelName: "B", FinalScore: 82.5},
		{ID: "a", ModelName: "A", FinalScore: 91.0},
		{ID: "c", ModelName: "C", FinalScore: 91.0},
	}

	assert.Equal(t, []string{"A", "C", "B"}, names(Leaderboard(runs)))

	// No name tie-break: C stays ahead of A when it comes first.
	swapped := []model.Run{runs[2], runs[1], runs[0]}
	assert.Equal(t, []string{"C", "A", "B"}, names(Leaderboard(swapped)))

	assert.Equal(t, "B", runs[0].ModelName, "input must not be reordered")
}

func TestLeaderboard_Empty(t *testing.T) {
	assert.NotNil(t, Leaderboard(nil))
	assert.True(t, BuildLeaderboard(nil, vendor.Default()).Empty())
}

func TestBuildLeaderboard(t *testing.T) {
	runs := make([]model.Run, 0, 20)
	for i := range 20 {
		runs = append(runs, model.Run{
			ID:              fmt.Sprintf("r%02d", i),
			ModelIdentifier: "openai/gpt-" + fmt.Sprint(i),
			FinalScore:      model.Number(i),
			CompletedAt:     "2025-01-02T03:04:05Z",
			TotalCost:       1.23457,
		})
	}

	view := BuildLeaderboard(runs, vendor.Default())

	require.Len(t, view.Rows, 20)
	require.Len(t, view.Chart.Bars, LeaderboardChartSize)

	top := view.Rows[0]
	assert.Equal(t, "r19", top.ID)
	assert.Equal(t, "openai/gpt-19", top.Label)
	assert.Equal(t, "19.0%", top.ScoreText)
	assert.Equal(t, "-", top.Rating)
	assert.Equal(t, []string{"v-", "2025-01-02", "$1.2346"}, top.Meta())
	require.NotNil(t, top.Vendor)
	assert.Equal(t, "OpenAI", top.Vendor.Label)

	assert.Equal(t, "r19", view.Chart.Bars[0].ID)
	assert.Equal(t, []string{"gpt-19"}, view.Chart.Bars[0].Lines)
	assert.Equal(t, 19, view.Chart.BarWidth)
}
