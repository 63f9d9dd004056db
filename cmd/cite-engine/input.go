package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/cite-engine/internal/segment"
	"github.com/pdiddy/cite-engine/pkg/types"
)

// sentenceFile is the request body shape, also accepted from files.
type sentenceFile struct {
	Sentences []types.EssaySentence `json:"sentences" yaml:"sentences"`
}

var paragraphBreak = regexp.MustCompile(`\n\s*\n`)

// readSentences loads essay sentences from path ("-" reads stdin). format
// is json, yaml or text; empty infers it from the file extension. Text
// input is split into paragraphs on blank lines and into sentences with
// the Punkt segmenter.
func readSentences(path, format string) ([]types.EssaySentence, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if format == "" {
		format = formatFromExt(path)
	}
	switch format {
	case "json":
		var f sentenceFile
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parsing %s as JSON: %w", path, err)
		}
		return f.Sentences, nil
	case "yaml":
		var f sentenceFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parsing %s as YAML: %w", path, err)
		}
		return f.Sentences, nil
	case "text":
		seg, err := segment.NewPunkt()
		if err != nil {
			return nil, err
		}
		return splitText(seg, string(data)), nil
	default:
		return nil, fmt.Errorf("unknown input format %q (want json, yaml or text)", format)
	}
}

func formatFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "text"
	}
}

// splitText numbers non-empty paragraphs from zero and tags every sentence
// with its paragraph.
func splitText(seg segment.Segmenter, text string) []types.EssaySentence {
	var out []types.EssaySentence
	para := 0
	for _, p := range paragraphBreak.Split(text, -1) {
		sentences := seg.Split(p)
		if len(sentences) == 0 {
			continue
		}
		for _, s := range sentences {
			out = append(out, types.EssaySentence{Text: s, ParagraphIndex: para})
		}
		para++
	}
	return out
}

// writeOutput encodes v as indented JSON or YAML.
func writeOutput(w io.Writer, format string, v any) error {
	switch format {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (want json or yaml)", format)
	}
}
