// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cite

import (
	"testing"

	"github.com/pdiddy/cite-engine/pkg/types"
)

func TestFilter(t *testing.T) {
	c := "(Smith, 2020)"
	tests := []struct {
		name      string
		decisions []types.CitationDecision
		want      []types.ResultItem
	}{
		{
			name: "keeps only cited",
			decisions: []types.CitationDecision{
				{OriginalSentence: "a", RewrittenSentence: "a (Smith, 2020)", Citation: &c, NeedsCitation: true, ParagraphIndex: 0},
				{OriginalSentence: "b", RewrittenSentence: "b", NeedsCitation: false, ParagraphIndex: 1},
			},
			want: []types.ResultItem{{Original: "a", Rewritten: "a (Smith, 2020)", ParagraphIndex: 0}},
		},
		{
			name: "preserves input order",
			decisions: []types.CitationDecision{
				{OriginalSentence: "z", RewrittenSentence: "z1", NeedsCitation: true, ParagraphIndex: 9},
				{OriginalSentence: "m", RewrittenSentence: "m1", NeedsCitation: false, ParagraphIndex: 4},
				{OriginalSentence: "a", RewrittenSentence: "a1", NeedsCitation: true, ParagraphIndex: 2},
				{OriginalSentence: "k", RewrittenSentence: "k1", NeedsCitation: true, ParagraphIndex: 2},
			},
			want: []types.ResultItem{
				{Original: "z", Rewritten: "z1", ParagraphIndex: 9},
				{Original: "a", Rewritten: "a1", ParagraphIndex: 2},
				{Original: "k", Rewritten: "k1", ParagraphIndex: 2},
			},
		},
		{
			name:      "none cited",
			decisions: []types.CitationDecision{{OriginalSentence: "b", NeedsCitation: false}},
			want:      []types.ResultItem{},
		},
		{name: "empty", decisions: nil, want: []types.ResultItem{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(tt.decisions)
			if got == nil {
				t.Fatal("Filter returned nil, want empty slice")
			}
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("item %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
