package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdiddy/cite-engine/internal/citation"
	"github.com/pdiddy/cite-engine/internal/search"
	"github.com/pdiddy/cite-engine/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search <term>...",
	Short: "Query the paper source for search terms",
	Long: `Search sends each term to the configured paper source (Semantic Scholar by
default, or OpenAlex or arXiv) and prints the pooled papers that carry an
abstract. Failed terms are reported on stderr and skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("provider", "", "paper source: semantic_scholar, openalex or arxiv")
	searchCmd.Flags().Int("limit", 0, "papers per term (default from config, 3)")
	searchCmd.Flags().Bool("dedupe", false, "collapse papers returned for more than one term")
	searchCmd.Flags().String("format", "table", "output format: table, json, yaml or csl")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if p, _ := cmd.Flags().GetString("provider"); p != "" {
		cfg.Search.Provider = p
	}
	if n, _ := cmd.Flags().GetInt("limit"); n > 0 {
		cfg.Search.Limit = n
	}
	if d, _ := cmd.Flags().GetBool("dedupe"); d {
		cfg.Search.Dedupe = true
	}
	format, _ := cmd.Flags().GetString("format")

	ctx := context.Background()
	c, err := buildComponents(ctx, cfg, creds, stages{search: true}, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	papers, report := search.FetchAll(ctx, c.source, args, search.FetchOptions{
		Concurrency: cfg.Search.Concurrency,
		Dedupe:      cfg.Search.Dedupe,
		Logger:      logger,
	})
	fmt.Fprintf(os.Stderr, "%s: %d papers from %d terms (%d failed)\n",
		c.source.Name(), report.Papers, report.Terms, report.FailedTerms)

	switch format {
	case "table":
		return printPaperTable(papers)
	case "csl":
		return search.FormatCSL(papers, os.Stdout)
	default:
		return writeOutput(os.Stdout, format, papers)
	}
}

func printPaperTable(papers []types.Paper) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CITATION\tTITLE\tID")
	for _, p := range papers {
		fmt.Fprintf(w, "%s\t%s\t%s\n", citation.Format(p.Authors, p.Year), truncate(p.Title, 70), p.PaperID)
	}
	return w.Flush()
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
