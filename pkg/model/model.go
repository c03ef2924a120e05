// Package model defines the records published by the scoring pipeline:
// runs, per-category scores and judged test case results, plus the three
// page documents (leaderboard, compare and run detail) that carry them.
package model

import "strings"

// Status is the lifecycle state of a run.
type Status string

// Run statuses.
const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether the run will not change anymore.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusFailed:
		return true
	default:
		return false
	}
}

// Verdict is the judged outcome of a test case. A nil *Verdict on a
// result means the case has not been judged yet.
type Verdict string

// Verdict values.
const (
	VerdictPass    Verdict = "pass"
	VerdictPartial Verdict = "partial"
	VerdictFail    Verdict = "fail"
)

// VerdictPending is the display label for an unjudged result.
const VerdictPending = "pending"

// Difficulty of a test case.
type Difficulty string

// Difficulty values.
const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Run is one evaluation of a model against the benchmark.
type Run struct {
	ID                string           `json:"id"`
	ModelIdentifier   string           `json:"model_identifier"`
	ModelName         string           `json:"model_name"`
	FinalScore        Number           `json:"final_score"`
	FinalRating       string           `json:"final_rating"`
	BenchmarkVersion  BenchmarkVersion `json:"benchmark_version"`
	CategoryFilter    CategoryFilter   `json:"category_filter"`
	Status            Status           `json:"status"`
	CompletedAt       string           `json:"completed_at"`
	TotalCost         Number           `json:"total_cost"`
	ModelCost         Number           `json:"model_cost"`
	JudgeCost         Number           `json:"judge_cost"`
	TotalInputTokens  Number           `json:"total_input_tokens"`
	TotalOutputTokens Number           `json:"total_output_tokens"`
	CategoryScores    []CategoryScore  `json:"categoryScores,omitempty"`
}

// Label returns the display name of the run's model, falling back to the
// model identifier.
func (r *Run) Label() string {
	if r.ModelName != "" {
		return r.ModelName
	}

	return r.ModelIdentifier
}

// Score returns the final score as a float.
func (r *Run) Score() float64 {
	return r.FinalScore.Float()
}

// Rating returns the final rating or "-" when absent.
func (r *Run) Rating() string {
	if r.FinalRating == "" {
		return "-"
	}

	return r.FinalRating
}

// TotalTokens is the sum of input and output tokens.
func (r *Run) TotalTokens() int64 {
	return r.TotalInputTokens.Int() + r.TotalOutputTokens.Int()
}

// CategoryScoreByName returns the category score with the given name.
func (r *Run) CategoryScoreByName(name string) (CategoryScore, bool) {
	for _, cs := range r.CategoryScores {
		if cs.CategoryName == name {
			return cs, true
		}
	}

	return CategoryScore{}, false
}

// Counts holds verdict counts for a category.
type Counts struct {
	Pass    int `json:"pass"`
	Partial int `json:"partial"`
	Fail    int `json:"fail"`
}

// Total is pass + partial + fail.
func (c Counts) Total() int {
	return c.Pass + c.Partial + c.Fail
}

// CategoryScore is one category's rollup for one run. Score is computed
// upstream (including any category weighting) and only displayed here.
type CategoryScore struct {
	CategoryName string `json:"categoryName"`
	Score        Number `json:"score"`
	Counts       Counts `json:"counts"`
}

// CategoryRef identifies a category by id, name and optional slug.
type CategoryRef struct {
	ID   ID     `json:"id,omitempty"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

// TestCase is one prompt/expected-behavior pair.
type TestCase struct {
	ID                   ID          `json:"id"`
	Category             CategoryRef `json:"category"`
	Difficulty           Difficulty  `json:"difficulty"`
	Prompt               string      `json:"prompt"`
	PromptHTML           string      `json:"prompt_html,omitempty"`
	ExpectedBehavior     string      `json:"expected_behavior"`
	ExpectedBehaviorHTML string      `json:"expected_behavior_html,omitempty"`
	ReferenceAnswer      string      `json:"reference_answer,omitempty"`
	ReferenceAnswerHTML  string      `json:"reference_answer_html,omitempty"`
}

// TestCaseResult is one judged, or still pending, model response.
type TestCaseResult struct {
	TestCase            TestCase `json:"test_case"`
	ModelResponse       string   `json:"model_response"`
	ModelResponseHTML   string   `json:"model_response_html,omitempty"`
	JudgeEvaluation     string   `json:"judge_evaluation,omitempty"`
	JudgeEvaluationHTML string   `json:"judge_evaluation_html,omitempty"`
	PassFail            *Verdict `json:"pass_fail"`
	ModelLatencyMs      *int64   `json:"model_latency_ms,omitempty"`
	JudgeLatencyMs      *int64   `json:"judge_latency_ms,omitempty"`
}

// IsPending reports whether the result has not been judged yet.
func (r *TestCaseResult) IsPending() bool {
	return r.PassFail == nil || *r.PassFail == ""
}

// Is reports whether the result carries verdict v.
func (r *TestCaseResult) Is(v Verdict) bool {
	return !r.IsPending() && *r.PassFail == v
}

// NoResponse reports whether the model response is empty or whitespace.
func (r *TestCaseResult) NoResponse() bool {
	return strings.TrimSpace(r.ModelResponse) == ""
}

// LeaderboardDocument is the payload of the leaderboard page.
type LeaderboardDocument struct {
	Runs []Run `json:"runs"`
}

// CompareDocument is the payload of the compare page.
type CompareDocument struct {
	Runs       []Run         `json:"runs"`
	Categories []CategoryRef `json:"categories"`
}

// RunDocument is the payload of the run detail page.
type RunDocument struct {
	Run            Run              `json:"run"`
	Results        []TestCaseResult `json:"results"`
	CategoryScores []CategoryScore  `json:"categoryScores"`
	TotalTests     int              `json:"totalTests"`
}
