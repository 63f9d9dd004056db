package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/cite-engine/internal/cite"
	"github.com/pdiddy/cite-engine/pkg/types"
)

var citeCmd = &cobra.Command{
	Use:   "cite <file>",
	Short: "Run the citation pipeline on an essay file",
	Long: `Cite reads essay sentences and prints the sentences that need a citation
with their rewritten form. Input is a JSON or YAML file shaped like the HTTP
request body ({"sentences": [{"text": ..., "paragraph_index": ...}]}), or
plain text split into paragraphs on blank lines. Use "-" for stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runCite,
}

func init() {
	citeCmd.Flags().String("input-format", "", "input format: json, yaml or text (default: from extension)")
	citeCmd.Flags().StringP("output", "o", "json", "output format: json or yaml")
	citeCmd.Flags().Bool("report", false, "print stage timings and counts to stderr")

	rootCmd.AddCommand(citeCmd)
}

type citeOutput struct {
	Results []types.ResultItem `json:"results" yaml:"results"`
}

func runCite(cmd *cobra.Command, args []string) error {
	inFormat, _ := cmd.Flags().GetString("input-format")
	outFormat, _ := cmd.Flags().GetString("output")
	showReport, _ := cmd.Flags().GetBool("report")

	sentences, err := readSentences(args[0], inFormat)
	if err != nil {
		return err
	}
	if err := cite.Validate(sentences); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Server.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Server.RequestTimeout)
		defer cancel()
	}

	c, err := buildComponents(ctx, cfg, creds, stages{pipeline: true}, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	items, report, err := c.pipeline.RunWithReport(ctx, sentences)
	if showReport {
		printReport(report)
	}
	if err != nil {
		return err
	}
	return writeOutput(os.Stdout, outFormat, citeOutput{Results: items})
}

func printReport(r cite.Report) {
	fmt.Fprintf(os.Stderr, "sentences: %d\n", r.Sentences)
	fmt.Fprintf(os.Stderr, "terms:     %v\n", r.Terms)
	fmt.Fprintf(os.Stderr, "papers:    %d (%d/%d terms failed, %d duplicates removed)\n",
		r.Search.Papers, r.Search.FailedTerms, r.Search.Terms, r.Search.DupsRemoved)
	fmt.Fprintf(os.Stderr, "pairs:     %d\n", r.Pairs)
	fmt.Fprintf(os.Stderr, "results:   %d\n", r.Results)
	for _, st := range r.Stages {
		fmt.Fprintf(os.Stderr, "  %-10s %v\n", st.Stage, st.Duration)
	}
	fmt.Fprintf(os.Stderr, "total:     %v\n", r.Total)
	if r.FailedStage != "" {
		fmt.Fprintf(os.Stderr, "failed at: %s\n", r.FailedStage)
	}
}
