// Package segment splits abstract text into sentences using a pre-trained
// Punkt model for English.
package segment

import (
	"fmt"
	"strings"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// Segmenter splits text into sentences.
type Segmenter interface {
	Split(text string) []string
}

// Punkt wraps the English Punkt tokenizer. The tokenizer is read-only after
// construction and safe for concurrent use.
type Punkt struct {
	tok *sentences.DefaultSentenceTokenizer
}

// NewPunkt loads the bundled English Punkt parameters.
func NewPunkt() (*Punkt, error) {
	tok, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("loading english sentence model: %w", err)
	}
	return &Punkt{tok: tok}, nil
}

// Split returns the sentences of text with surrounding whitespace trimmed.
// Empty segments are dropped, so blank text yields nil.
func (p *Punkt) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var out []string
	for _, s := range p.tok.Tokenize(text) {
		if t := strings.TrimSpace(s.Text); t != "" {
			out = append(out, t)
		}
	}
	return out
}
