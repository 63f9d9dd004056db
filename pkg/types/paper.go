// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// Paper holds the metadata of a candidate paper returned by the paper
// source. Only papers with a non-empty abstract are usable by the matcher.
type Paper struct {
	// PaperID is the source's identifier (Semantic Scholar paperId). It may
	// be empty for fixtures and is only used for optional deduplication.
	PaperID string `json:"paper_id,omitempty" yaml:"paper_id,omitempty"`

	// Title is the paper title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Abstract is the paper abstract.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Authors lists author names in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Year is the publication year, or 0 when unknown.
	Year int `json:"year" yaml:"year"`
}

// HasAbstract reports whether the paper carries a non-blank abstract.
func (p Paper) HasAbstract() bool {
	return strings.TrimSpace(p.Abstract) != ""
}
