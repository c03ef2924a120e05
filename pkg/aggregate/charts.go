package aggregate

import (
	"github.com/ethpandaops/smbench/pkg/category"
	"github.com/ethpandaops/smbench/pkg/label"
	"github.com/ethpandaops/smbench/pkg/model"
	"github.com/ethpandaops/smbench/pkg/vendor"
)

// LabelMode selects how score chart labels are derived.
type LabelMode int

const (
	// LabelCategory uses item labels as given.
	LabelCategory LabelMode = iota
	// LabelModel strips the vendor from model labels.
	LabelModel
)

// Chart and card layout constants.
const (
	StackedLabelWidth = 8
	ScoreLabelLines   = 2

	cardMinWidth = 240
	cardGap      = 18
)

// ChartItem is one bar input.
type ChartItem struct {
	ID     string        `json:"id,omitempty"`
	Label  string        `json:"label"`
	Score  float64       `json:"score"`
	Counts model.Counts  `json:"counts"`
	Vendor *vendor.Match `json:"vendor,omitempty"`
}

// ScoreBar is one rendered bar of a score chart.
type ScoreBar struct {
	ID        string        `json:"id,omitempty"`
	Score     float64       `json:"score"`
	ScoreText string        `json:"score_text"`
	Height    float64       `json:"height"`
	Lines     []string      `json:"lines"`
	Vendor    *vendor.Match `json:"vendor,omitempty"`
}

// ScoreChartView is a bar chart of scores.
type ScoreChartView struct {
	BarWidth int        `json:"bar_width"`
	LabelMax int        `json:"label_max"`
	Bars     []ScoreBar `json:"bars"`
}

// Empty reports whether there is nothing to draw.
func (v ScoreChartView) Empty() bool {
	return len(v.Bars) == 0
}

// StackedBar is one pass/partial/fail column.
type StackedBar struct {
	Lines      []string     `json:"lines"`
	Counts     model.Counts `json:"counts"`
	PassPct    float64      `json:"pass_pct"`
	PartialPct float64      `json:"partial_pct"`
	FailPct    float64      `json:"fail_pct"`
}

// StackedChartView is a chart of verdict shares per item.
type StackedChartView struct {
	BarWidth int          `json:"bar_width"`
	Bars     []StackedBar `json:"bars"`
}

// Empty reports whether there is nothing to draw.
func (v StackedChartView) Empty() bool {
	return len(v.Bars) == 0
}

// scoreChartSizing narrows bars and labels as the bar count grows.
func scoreChartSizing(count int) (barWidth, labelMax int) {
	switch {
	case count > 16:
		return 15, 12
	case count > 12:
		return 19, 14
	case count > 8:
		return 24, 16
	default:
		return 30, 20
	}
}

func stackedChartWidth(count int) int {
	switch {
	case count > 16:
		return 10
	case count > 12:
		return 12
	case count > 8:
		return 16
	default:
		return 22
	}
}

// ScoreChart lays out a score bar chart.
func ScoreChart(items []ChartItem, mode LabelMode) ScoreChartView {
	barWidth, labelMax := scoreChartSizing(len(items))

	view := ScoreChartView{
		BarWidth: barWidth,
		LabelMax: labelMax,
		Bars:     make([]ScoreBar, 0, len(items)),
	}

	for _, item := range items {
		display := item.Label
		if mode == LabelModel {
			hint := ""
			if item.Vendor != nil {
				hint = item.Vendor.Label
			}

			display = label.StripVendor(item.Label, hint)
		}

		view.Bars = append(view.Bars, ScoreBar{
			ID:        item.ID,
			Score:     item.Score,
			ScoreText: FormatScore(item.Score),
			Height:    model.ClampScore(item.Score),
			Lines:     label.WrapLimit(display, labelMax, ScoreLabelLines),
			Vendor:    item.Vendor,
		})
	}

	return view
}

// StackedChart lays out verdict shares as stacked columns.
func StackedChart(items []ChartItem) StackedChartView {
	view := StackedChartView{
		BarWidth: stackedChartWidth(len(items)),
		Bars:     make([]StackedBar, 0, len(items)),
	}

	for _, item := range items {
		bar := StackedBar{
			Lines:  label.Wrap(item.Label, StackedLabelWidth),
			Counts: item.Counts,
		}

		if total := item.Counts.Total(); total > 0 {
			bar.PassPct = float64(item.Counts.Pass) / float64(total) * 100
			bar.PartialPct = float64(item.Counts.Partial) / float64(total) * 100
			bar.FailPct = float64(item.Counts.Fail) / float64(total) * 100
		}

		view.Bars = append(view.Bars, bar)
	}

	return view
}

// CategoryChartItems turns category scores into chart items, in
// canonical order and with footnoted labels.
func CategoryChartItems(scores []model.CategoryScore) []ChartItem {
	sorted := SortedScores(scores)
	items := make([]ChartItem, 0, len(sorted))

	for _, s := range sorted {
		items = append(items, ChartItem{
			Label:  category.Footnoted(s.CategoryName, ""),
			Score:  s.Score.Float(),
			Counts: s.Counts,
		})
	}

	return items
}

// BarWidth returns the width percentage of a horizontal score bar. Zero
// scores keep a sliver so the bar stays visible.
func BarWidth(score float64) float64 {
	if score <= 0 {
		return 2
	}

	return max(4, min(score, 100))
}

// GridColumns returns how many cards fit side by side in width pixels.
func GridColumns(width float64) int {
	return max(1, int((max(width, 0)+cardGap)/(cardMinWidth+cardGap)))
}

// SpanLastCard reports whether the last of count cards in a grid of the
// given pixel width sits alone on its row and should span it.
func SpanLastCard(width float64, count int) bool {
	columns := GridColumns(width)

	return columns > 1 && count%columns == 1
}
