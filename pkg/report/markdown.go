// Package report renders plain-text summaries of runs.
package report

import (
	"fmt"
	"strings"

	"github.com/ethpandaops/smbench/pkg/aggregate"
	"github.com/ethpandaops/smbench/pkg/category"
	"github.com/ethpandaops/smbench/pkg/model"
	"github.com/ethpandaops/smbench/pkg/pager"
	"github.com/ethpandaops/smbench/pkg/vendor"
)

// DefaultMaxChars caps RunMarkdown output when the caller has no limit of
// its own.
const DefaultMaxChars = 60000

// failedCase is one failed result listed at the end of the summary.
type failedCase struct {
	Number     int
	Category   string
	Difficulty model.Difficulty
	Tag        string
}

// RunMarkdown renders a markdown summary of a run document. The output is
// capped at maxChars characters; zero or less means no cap.
func RunMarkdown(doc *model.RunDocument, resolver *vendor.Resolver, maxChars int) string {
	summary := aggregate.Summarize(doc)

	var sb strings.Builder

	sb.Grow(4096)

	writeTitle(&sb, &summary)
	writeOverview(&sb, doc, &summary, resolver)
	writeVerdicts(&sb, &summary)
	writeUsage(&sb, &summary)
	writeCategories(&sb, aggregate.Aggregate(doc.Results, doc.CategoryScores))
	writeDifficulty(&sb, aggregate.DifficultyTotals(doc.Results))

	// Failed cases come last so truncation only ever cuts them.
	writeFailedCases(&sb, collectFailedCases(doc.Results), maxChars)

	return sb.String()
}

func writeTitle(sb *strings.Builder, s *aggregate.RunSummary) {
	fmt.Fprintf(sb, "# SM Bench Run: %s\n\n", s.Title)
}

func writeOverview(
	sb *strings.Builder,
	doc *model.RunDocument,
	s *aggregate.RunSummary,
	resolver *vendor.Resolver,
) {
	sb.WriteString("## Overview\n\n")
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|---|---|\n")

	fmt.Fprintf(sb, "| Run ID | `%s` |\n", s.ID)

	if doc.Run.ModelIdentifier != "" {
		fmt.Fprintf(sb, "| Model | `%s` |\n", doc.Run.ModelIdentifier)
	}

	if v := resolver.Label(doc.Run.ModelIdentifier, doc.Run.ModelName); v != "" {
		fmt.Fprintf(sb, "| Vendor | %s |\n", v)
	}

	fmt.Fprintf(sb, "| Status | %s |\n", s.StatusText)
	fmt.Fprintf(sb, "| Scope | %s |\n", s.Scope)

	if s.Version != "" {
		fmt.Fprintf(sb, "| SM Bench Version | %s |\n", s.Version)
	}

	fmt.Fprintf(sb, "| Score | %s%% (%s) |\n", aggregate.FormatFixed(s.Score, 2), s.Rating)

	if doc.Run.CompletedAt != "" {
		fmt.Fprintf(sb, "| Completed | %s |\n", aggregate.FormatDate(doc.Run.CompletedAt))
	}

	sb.WriteByte('\n')
}

func writeVerdicts(sb *strings.Builder, s *aggregate.RunSummary) {
	sb.WriteString("## Test Results\n\n")
	sb.WriteString("| Total | Completed | Judged | Pass | Partial | Fail |\n")
	sb.WriteString("|---|---|---|---|---|---|\n")
	fmt.Fprintf(sb, "| %d | %d | %d | %d | %d | %d |\n\n",
		s.TotalTests, s.CompletedTests, s.JudgedTests,
		s.Verdicts.Pass, s.Verdicts.Partial, s.Verdicts.Fail,
	)
}

func writeUsage(sb *strings.Builder, s *aggregate.RunSummary) {
	sb.WriteString("## Cost and Tokens\n\n")
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|---|---|\n")
	fmt.Fprintf(sb, "| Total Cost | %s |\n", aggregate.FormatCost(s.TotalCost))
	fmt.Fprintf(sb, "| Model Cost | %s |\n", aggregate.FormatCost(s.ModelCost))
	fmt.Fprintf(sb, "| Judge Cost | %s |\n", aggregate.FormatCost(s.JudgeCost))
	fmt.Fprintf(sb, "| Input Tokens | %s |\n", aggregate.FormatCount(s.InputTokens))
	fmt.Fprintf(sb, "| Output Tokens | %s |\n", aggregate.FormatCount(s.OutputTokens))

	if s.CostPerPoint != nil {
		fmt.Fprintf(sb, "| Cost per Point | %s |\n", aggregate.FormatCost(*s.CostPerPoint))
	}

	if s.TokensPerPoint != nil {
		fmt.Fprintf(sb, "| Tokens per Point | %s |\n", aggregate.FormatCompact(*s.TokensPerPoint))
	}

	if s.AvgModelLatencyMs != nil {
		fmt.Fprintf(sb, "| Avg Model Latency | %s |\n", aggregate.FormatLatency(s.AvgModelLatencyMs))
	}

	if s.AvgJudgeLatencyMs != nil {
		fmt.Fprintf(sb, "| Avg Judge Latency | %s |\n", aggregate.FormatLatency(s.AvgJudgeLatencyMs))
	}

	sb.WriteByte('\n')
}

func writeCategories(sb *strings.Builder, details []aggregate.CategoryDetail) {
	if len(details) == 0 {
		return
	}

	sb.WriteString("## Categories\n\n")
	sb.WriteString("| Category | Score | Pass | Partial | Fail | Pending |\n")
	sb.WriteString("|---|---|---|---|---|---|\n")

	for _, d := range details {
		fmt.Fprintf(sb, "| %s | %s | %d | %d | %d | %d |\n",
			escapeCell(d.Label()),
			aggregate.FormatPercent(d.Score),
			d.Pass, d.Partial, d.Fail, d.Pending,
		)
	}

	fmt.Fprintf(sb, "\n%s\n\n", category.Footnote)
}

func writeDifficulty(sb *strings.Builder, d aggregate.Difficulty) {
	sb.WriteString("## Difficulty\n\n")
	sb.WriteString("| Easy | Medium | Hard |\n")
	sb.WriteString("|---|---|---|\n")
	fmt.Fprintf(sb, "| %d | %d | %d |\n\n", d.Easy, d.Medium, d.Hard)
}

func writeFailedCases(sb *strings.Builder, failed []failedCase, maxChars int) {
	if len(failed) == 0 {
		return
	}

	sb.WriteString("## Failed Cases\n\n")
	sb.WriteString("| # | Category | Difficulty | Tag |\n")
	sb.WriteString("|---|---|---|---|\n")

	// Room for the truncation note.
	const reserveChars = 100

	for i, fc := range failed {
		row := fmt.Sprintf("| %d | %s | %s | %s |\n",
			fc.Number, escapeCell(fc.Category), fc.Difficulty, fc.Tag)

		if maxChars > 0 && sb.Len()+len(row)+reserveChars > maxChars {
			fmt.Fprintf(sb,
				"\n*%d more failed case(s) not shown "+
					"(output truncated at %d chars)*\n",
				len(failed)-i, maxChars)

			return
		}

		sb.WriteString(row)
	}
}

// collectFailedCases lists failed results in case list order, numbered
// within their category group.
func collectFailedCases(results []model.TestCaseResult) []failedCase {
	failed := make([]failedCase, 0)

	for _, g := range pager.Groups(results) {
		for i := range g.Results {
			r := &g.Results[i]
			if !r.Is(model.VerdictFail) {
				continue
			}

			failed = append(failed, failedCase{
				Number:     i + 1,
				Category:   g.Name,
				Difficulty: r.TestCase.Difficulty,
				Tag:        pager.TagLabel(r),
			})
		}
	}

	return failed
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
