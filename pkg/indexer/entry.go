package indexer

import (
	"github.com/ethpandaops/smbench/pkg/aggregate"
	"github.com/ethpandaops/smbench/pkg/indexstore"
	"github.com/ethpandaops/smbench/pkg/model"
	"github.com/ethpandaops/smbench/pkg/vendor"
)

// BuildEntry derives the catalog row of a run document.
func BuildEntry(doc *model.RunDocument, resolver *vendor.Resolver) *indexstore.RunEntry {
	summary := aggregate.Summarize(doc)
	run := &doc.Run

	entry := &indexstore.RunEntry{
		RunID:           run.ID,
		ModelIdentifier: run.ModelIdentifier,
		ModelName:       run.ModelName,
		Version:         summary.Version,
		Scope:           summary.Scope,
		Status:          summary.StatusText,
		Score:           summary.Score,
		Rating:          summary.Rating,
		TotalTests:      summary.TotalTests,
		JudgedTests:     summary.JudgedTests,
		Passed:          summary.Verdicts.Pass,
		Partial:         summary.Verdicts.Partial,
		Failed:          summary.Verdicts.Fail,
		TotalCost:       summary.TotalCost,
		TotalTokens:     summary.TotalTokens,
		CompletedAt:     run.CompletedAt,
	}

	if match, ok := resolver.Resolve(run.ModelIdentifier, run.ModelName); ok {
		entry.Vendor = match.Label
	}

	return entry
}
