// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// MatchedPair links an essay sentence to the best-matching sentence of one
// paper's abstract. There is at most one pair per (essay sentence, paper).
type MatchedPair struct {
	EssaySentence    string  `json:"essay_sentence" yaml:"essay_sentence"`
	PaperTitle       string  `json:"paper_title" yaml:"paper_title"`
	AbstractSentence string  `json:"abstract_sentence" yaml:"abstract_sentence"`
	Score            float64 `json:"score" yaml:"score"`
	ParagraphIndex   int     `json:"paragraph_index" yaml:"paragraph_index"`

	// SuggestedCitation is an "(Author, Year)" string built from the paper
	// metadata. It gives the language model the real authors and year to
	// cite instead of leaving it to guess them from the title.
	SuggestedCitation string `json:"suggested_citation,omitempty" yaml:"suggested_citation,omitempty"`
}

// CitationDecision is the synthesizer's verdict for one MatchedPair.
type CitationDecision struct {
	OriginalSentence  string  `json:"original_sentence" yaml:"original_sentence"`
	RewrittenSentence string  `json:"rewritten_sentence" yaml:"rewritten_sentence"`
	Citation          *string `json:"citation" yaml:"citation"`
	NeedsCitation     bool    `json:"needs_citation" yaml:"needs_citation"`
	ParagraphIndex    int     `json:"paragraph_index" yaml:"paragraph_index"`
}

// ResultItem is the externally visible unit of a citation response. It only
// exists for decisions where NeedsCitation is true.
type ResultItem struct {
	Original       string `json:"original" yaml:"original"`
	Rewritten      string `json:"rewritten" yaml:"rewritten"`
	ParagraphIndex int    `json:"paragraph_index" yaml:"paragraph_index"`
}
