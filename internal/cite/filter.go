// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cite

import "github.com/pdiddy/cite-engine/pkg/types"

// Filter keeps the decisions that need a citation and projects them to
// result items, preserving order.
func Filter(decisions []types.CitationDecision) []types.ResultItem {
	items := []types.ResultItem{}
	for _, d := range decisions {
		if !d.NeedsCitation {
			continue
		}
		items = append(items, types.ResultItem{
			Original:       d.OriginalSentence,
			Rewritten:      d.RewrittenSentence,
			ParagraphIndex: d.ParagraphIndex,
		})
	}
	return items
}
