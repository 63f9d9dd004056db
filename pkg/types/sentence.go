// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the cite-engine pipeline.
// Values flow strictly forward through the stages:
//
//	EssaySentence -> SearchTerm -> Paper -> MatchedPair -> CitationDecision -> ResultItem
//
// None of them outlive a single request.
package types

// EssaySentence is one sentence of the user's essay as received in the
// request. Its identity is its position in the input sequence.
type EssaySentence struct {
	// Text is the sentence as written by the user.
	Text string `json:"text" yaml:"text"`

	// ParagraphIndex locates the sentence in the source document. It is
	// carried unchanged to every value derived from this sentence.
	ParagraphIndex int `json:"paragraph_index" yaml:"paragraph_index"`
}

// SearchTerm is a 1-3 word phrase extracted from the essay and used to
// query the paper source.
type SearchTerm = string

// SentenceTexts returns the Text of each sentence in input order.
func SentenceTexts(sentences []EssaySentence) []string {
	texts := make([]string, len(sentences))
	for i, s := range sentences {
		texts[i] = s.Text
	}
	return texts
}
