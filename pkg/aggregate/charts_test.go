package aggregate

import (
	"testing"

	"github.com/ethpandaops/smbench/pkg/model"
	"github.com/ethpandaops/smbench/pkg/vendor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreChart_Sizing(t *testing.T) {
	tests := []struct {
		count    int
		barWidth int
		labelMax int
	}{
		{count: 1, barWidth: 30, labelMax: 20},
		{count: 8, barWidth: 30, labelMax: 20},
		{count: 9, barWidth: 24, labelMax: 16},
		{count: 12, barWidth: 24, labelMax: 16},
		{count: 13, barWidth: 19, labelMax: 14},
		{count: 16, barWidth: 19, labelMax: 14},
		{count: 17, barWidth: 15, labelMax: 12},
	}

	for _, tt := range tests {
		view := ScoreChart(make([]ChartItem, tt.count), LabelCategory)
		assert.Equal(t, tt.barWidth, view.BarWidth, "count %d", tt.count)
		assert.Equal(t, tt.labelMax, view.LabelMax, "count %d", tt.count)
	}

	assert.True(t, ScoreChart(nil, LabelCategory).Empty())
}

func TestScoreChart_Bars(t *testing.T) {
	anthropic := &vendor.Match{Label: "Anthropic", Logo: "Anthropic.svg"}

	view := ScoreChart([]ChartItem{
		{ID: "r1", Label: "anthropic/claude-3-opus-20240229-extended-thinking", Score: 112, Vendor: anthropic},
		{ID: "r2", Label: "Mystery", Score: -3},
	}, LabelModel)

	require.Len(t, view.Bars, 2)

	first := view.Bars[0]
	assert.InDelta(t, 100.0, first.Height, 1e-9)
	assert.Equal(t, "112.0", first.ScoreText)
	assert.Equal(t, []string{"claude-3-opus-202402", "29-extended-thinking"}, first.Lines)
	assert.Equal(t, anthropic, first.Vendor)

	assert.InDelta(t, 0.0, view.Bars[1].Height, 1e-9)
	assert.Equal(t, []string{"Mystery"}, view.Bars[1].Lines)
}

func TestScoreChart_CategoryModeKeepsLabel(t *testing.T) {
	view := ScoreChart([]ChartItem{{Label: "Overfit*", Score: 50}}, LabelCategory)
	assert.Equal(t, []string{"Overfit*"}, view.Bars[0].Lines)
}

func TestStackedChart(t *testing.T) {
	view := StackedChart([]ChartItem{
		{Label: "Creative Writing (Mature Themes)", Counts: model.Counts{Pass: 2, Partial: 1, Fail: 1}},
		{Label: "Empty", Counts: model.Counts{}},
	})

	assert.Equal(t, 22, view.BarWidth)
	require.Len(t, view.Bars, 2)

	bar := view.Bars[0]
	assert.InDelta(t, 50.0, bar.PassPct, 1e-9)
	assert.InDelta(t, 25.0, bar.PartialPct, 1e-9)
	assert.InDelta(t, 25.0, bar.FailPct, 1e-9)
	assert.Equal(t, []string{"Creative", "Writing", "(Mature", "Themes)"}, bar.Lines)

	assert.Zero(t, view.Bars[1].PassPct)
	assert.Zero(t, view.Bars[1].FailPct)

	assert.Equal(t, 10, StackedChart(make([]ChartItem, 17)).BarWidth)
	assert.Equal(t, 12, StackedChart(make([]ChartItem, 13)).BarWidth)
	assert.Equal(t, 16, StackedChart(make([]ChartItem, 9)).BarWidth)
}

func TestCategoryChartItems(t *testing.T) {
	items := CategoryChartItems([]model.CategoryScore{
		{CategoryName: "Zeta", Score: 10},
		{CategoryName: "Overfit", Score: 20, Counts: model.Counts{Pass: 1}},
	})

	require.Len(t, items, 2)
	assert.Equal(t, "Overfit*", items[0].Label)
	assert.Equal(t, model.Counts{Pass: 1}, items[0].Counts)
	assert.Equal(t, "Zeta", items[1].Label)
}

func TestBarWidth(t *testing.T) {
	assert.InDelta(t, 2.0, BarWidth(0), 1e-9)
	assert.InDelta(t, 2.0, BarWidth(-5), 1e-9)
	assert.InDelta(t, 4.0, BarWidth(1.5), 1e-9)
	assert.InDelta(t, 55.0, BarWidth(55), 1e-9)
	assert.InDelta(t, 100.0, BarWidth(180), 1e-9)
}

func TestSpanLastCard(t *testing.T) {
	tests := []struct {
		name     string
		width    float64
		count    int
		expected bool
	}{
		{name: "single column never spans", width: 300, count: 3, expected: false},
		{name: "two columns odd count", width: 500, count: 3, expected: true},
		{name: "two columns even count", width: 500, count: 4, expected: false},
		{name: "three columns remainder one", width: 780, count: 4, expected: true},
		{name: "three columns remainder two", width: 780, count: 5, expected: false},
		{name: "zero width", width: 0, count: 1, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SpanLastCard(tt.width, tt.count))
		})
	}
}
