package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/cite-engine/internal/cite"
)

var keywordsCmd = &cobra.Command{
	Use:   "keywords <file>",
	Short: "Print the search terms extracted from an essay",
	Long: `Keywords runs only the keyphrase extraction stage and prints one search
term per line, best first. Input formats are the same as for cite.`,
	Args: cobra.ExactArgs(1),
	RunE: runKeywords,
}

func init() {
	keywordsCmd.Flags().String("input-format", "", "input format: json, yaml or text (default: from extension)")
	keywordsCmd.Flags().Int("top", 0, "number of terms (default from config, 5)")

	rootCmd.AddCommand(keywordsCmd)
}

func runKeywords(cmd *cobra.Command, args []string) error {
	inFormat, _ := cmd.Flags().GetString("input-format")
	if top, _ := cmd.Flags().GetInt("top"); top > 0 {
		cfg.Keywords.TopN = top
	}

	sentences, err := readSentences(args[0], inFormat)
	if err != nil {
		return err
	}
	if err := cite.Validate(sentences); err != nil {
		return err
	}

	ctx := context.Background()
	c, err := buildComponents(ctx, cfg, creds, stages{keywords: true}, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	terms, err := c.keywords.Extract(ctx, sentences)
	if err != nil {
		return err
	}
	for _, t := range terms {
		fmt.Println(t)
	}
	return nil
}
