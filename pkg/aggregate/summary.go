package aggregate

import (
	"math"
	"strconv"

	"github.com/ethpandaops/smbench/pkg/model"
)

// Scope labels.
const (
	ScopeAllLabel      = "All categories"
	ScopeSingleLabel   = "Single category"
	ScopeMultipleLabel = "Multiple categories"
	ScopeCustomLabel   = "Custom scope"
)

// DefaultRunTitle is used when a run names neither model nor identifier.
const DefaultRunTitle = "SM Bench run"

// RunSummary is the header block of a run page.
type RunSummary struct {
	ID     string       `json:"id"`
	Title  string       `json:"title"`
	Status model.Status `json:"status"`
	// StatusText is the status shown to readers; absent means completed.
	StatusText string `json:"status_text"`
	Badge      string `json:"badge"`
	Version    string `json:"version,omitempty"`
	Scope      string `json:"scope"`

	TotalTests     int          `json:"total_tests"`
	CompletedTests int          `json:"completed_tests"`
	JudgedTests    int          `json:"judged_tests"`
	Progress       float64      `json:"progress"`
	Verdicts       model.Counts `json:"verdicts"`

	AvgModelLatencyMs *int64 `json:"avg_model_latency_ms,omitempty"`
	AvgJudgeLatencyMs *int64 `json:"avg_judge_latency_ms,omitempty"`

	Score  float64 `json:"score"`
	Rating string  `json:"rating"`

	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
	TotalTokens  int64 `json:"total_tokens"`

	TotalCost float64 `json:"total_cost"`
	ModelCost float64 `json:"model_cost"`
	JudgeCost float64 `json:"judge_cost"`

	CostPerPoint   *float64 `json:"cost_per_point,omitempty"`
	TokensPerPoint *float64 `json:"tokens_per_point,omitempty"`
}

// Summarize derives the run page header from a run document.
func Summarize(doc *model.RunDocument) RunSummary {
	run := &doc.Run

	s := RunSummary{
		ID:             run.ID,
		Title:          run.Label(),
		Status:         run.Status,
		StatusText:     string(run.Status),
		Badge:          StatusBadge(run.Status),
		Version:        run.BenchmarkVersion.Version,
		Scope:          runScopeLabel(run, doc.CategoryScores),
		CompletedTests: len(doc.Results),
		Score:          run.Score(),
		Rating:         run.Rating(),
		InputTokens:    run.TotalInputTokens.Int(),
		OutputTokens:   run.TotalOutputTokens.Int(),
		TotalTokens:    run.TotalTokens(),
		TotalCost:      run.TotalCost.Float(),
		ModelCost:      run.ModelCost.Float(),
		JudgeCost:      run.JudgeCost.Float(),
	}

	if s.Title == "" {
		s.Title = DefaultRunTitle
	}

	if s.StatusText == "" {
		s.StatusText = string(model.StatusCompleted)
	}

	s.TotalTests = doc.TotalTests
	if s.TotalTests == 0 {
		s.TotalTests = len(doc.Results)
	}

	var (
		modelLatency latencyMean
		judgeLatency latencyMean
	)

	for i := range doc.Results {
		result := &doc.Results[i]

		switch {
		case result.IsPending():
		case result.Is(model.VerdictPass):
			s.Verdicts.Pass++
			s.JudgedTests++
		case result.Is(model.VerdictPartial):
			s.Verdicts.Partial++
			s.JudgedTests++
		case result.Is(model.VerdictFail):
			s.Verdicts.Fail++
			s.JudgedTests++
		}

		modelLatency.add(result.ModelLatencyMs)
		judgeLatency.add(result.JudgeLatencyMs)
	}

	if s.TotalTests > 0 {
		s.Progress = min(100, float64(s.JudgedTests)/float64(s.TotalTests)*100)
	}

	s.AvgModelLatencyMs = modelLatency.mean()
	s.AvgJudgeLatencyMs = judgeLatency.mean()

	if s.Score > 0 {
		costPerPoint := s.TotalCost / s.Score
		tokensPerPoint := float64(s.TotalTokens) / s.Score

		s.CostPerPoint = &costPerPoint
		s.TokensPerPoint = &tokensPerPoint
	}

	return s
}

// StatusBadge returns the badge text for a run status.
func StatusBadge(status model.Status) string {
	switch status {
	case model.StatusCompleted:
		return "SM Bench complete"
	case model.StatusCancelled:
		return "SM Bench cancelled"
	case model.StatusFailed:
		return "SM Bench failed"
	default:
		return "Live SM Bench"
	}
}

// ScopeLabel describes a run's category scope, naming a single category
// by looking its id up in categories.
func ScopeLabel(run *model.Run, categories []model.CategoryRef) string {
	scope := model.ParseScope(run.CategoryFilter)

	if scope.Kind == model.ScopeSingle {
		for _, c := range categories {
			if c.ID.String() == scope.IDs[0] {
				return ScopeSingleLabel + ": " + c.Name
			}
		}

		return ScopeSingleLabel
	}

	return scopeKindLabel(scope)
}

// runScopeLabel names a single category after the run's first category
// score, since the run document carries no category list.
func runScopeLabel(run *model.Run, scores []model.CategoryScore) string {
	scope := model.ParseScope(run.CategoryFilter)

	if scope.Kind == model.ScopeSingle {
		if len(scores) > 0 {
			return ScopeSingleLabel + ": " + scores[0].CategoryName
		}

		return ScopeSingleLabel
	}

	return scopeKindLabel(scope)
}

func scopeKindLabel(scope model.Scope) string {
	switch scope.Kind {
	case model.ScopeAll:
		return ScopeAllLabel
	case model.ScopeMultiple:
		return ScopeMultipleLabel + ": " + strconv.Itoa(len(scope.IDs))
	default:
		return ScopeCustomLabel
	}
}

type latencyMean struct {
	sum   int64
	count int64
}

func (m *latencyMean) add(v *int64) {
	if v == nil {
		return
	}

	m.sum += *v
	m.count++
}

func (m *latencyMean) mean() *int64 {
	if m.count == 0 {
		return nil
	}

	avg := int64(math.Round(float64(m.sum) / float64(m.count)))

	return &avg
}
