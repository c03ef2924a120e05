package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ethpandaops/smbench/pkg/report"
)

var summaryCmd = &cobra.Command{
	Use:   "summary <run-id>",
	Short: "Generate a markdown summary of a run",
	Long: `Read the detail document of a run from storage and produce a markdown
summary: overview, verdict totals, category scores, difficulty breakdown
and failed cases.`,
	Args: cobra.ExactArgs(1),
	RunE: runSummary,
}

var (
	summaryOutput   string
	summaryMaxChars int
)

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryCmd.Flags().StringVar(&summaryOutput, "output", "",
		"Output file path (default: summary-<run_id>.md, - for stdout)")
	summaryCmd.Flags().IntVar(&summaryMaxChars, "max-chars", report.DefaultMaxChars,
		"Maximum length of the summary")
}

func runSummary(cmd *cobra.Command, args []string) error {
	runID := args[0]

	// Keep stdout clean for the markdown.
	if summaryOutput == "-" {
		log.SetOutput(os.Stderr)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	source, resolver, err := openSource(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	log.WithField("run_id", runID).Info("Generating markdown summary")

	doc, err := source.Run(ctx, runID)
	if err != nil {
		return fmt.Errorf("loading run: %w", err)
	}

	md := report.RunMarkdown(doc, resolver, summaryMaxChars)

	if summaryOutput == "-" {
		_, err := fmt.Fprint(os.Stdout, md)

		return err
	}

	output := summaryOutput
	if output == "" {
		output = fmt.Sprintf("summary-%s.md", runID)
	}

	if err := os.WriteFile(output, []byte(md), 0o644); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}

	log.WithField("output", output).
		Info("Markdown summary generated successfully")

	return nil
}
