package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/cite-engine/internal/segment"
	"github.com/pdiddy/cite-engine/pkg/types"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadSentences_JSON(t *testing.T) {
	path := writeTemp(t, "essay.json", `{"sentences":[{"text":"Graphene conducts heat.","paragraph_index":2}]}`)
	got, err := readSentences(path, "")
	require.NoError(t, err)
	assert.Equal(t, []types.EssaySentence{{Text: "Graphene conducts heat.", ParagraphIndex: 2}}, got)
}

func TestReadSentences_YAML(t *testing.T) {
	path := writeTemp(t, "essay.yml", "sentences:\n  - text: Graphene conducts heat.\n    paragraph_index: 4\n")
	got, err := readSentences(path, "")
	require.NoError(t, err)
	assert.Equal(t, []types.EssaySentence{{Text: "Graphene conducts heat.", ParagraphIndex: 4}}, got)
}

func TestReadSentences_Text(t *testing.T) {
	path := writeTemp(t, "essay.txt", "Graphene conducts heat. It is strong.\n\n\n\nCats sleep a lot.\n")
	got, err := readSentences(path, "")
	require.NoError(t, err)
	assert.Equal(t, []types.EssaySentence{
		{Text: "Graphene conducts heat.", ParagraphIndex: 0},
		{Text: "It is strong.", ParagraphIndex: 0},
		{Text: "Cats sleep a lot.", ParagraphIndex: 1},
	}, got)
}

func TestReadSentences_Errors(t *testing.T) {
	_, err := readSentences(filepath.Join(t.TempDir(), "missing.json"), "")
	assert.Error(t, err)

	bad := writeTemp(t, "essay.json", `{"sentences":`)
	_, err = readSentences(bad, "")
	assert.ErrorContains(t, err, "parsing")

	_, err = readSentences(bad, "xml")
	assert.ErrorContains(t, err, "unknown input format")
}

func TestSplitText_SkipsBlankParagraphs(t *testing.T) {
	seg, err := segment.NewPunkt()
	require.NoError(t, err)

	got := splitText(seg, "\n\nFirst one.\n\n   \n\nSecond one.")
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].ParagraphIndex)
	assert.Equal(t, 1, got[1].ParagraphIndex)
}

func TestWriteOutput(t *testing.T) {
	v := citeOutput{Results: []types.ResultItem{{Original: "a", Rewritten: "a (Smith, 2020)", ParagraphIndex: 1}}}

	var buf bytes.Buffer
	require.NoError(t, writeOutput(&buf, "json", v))
	assert.JSONEq(t, `{"results":[{"original":"a","rewritten":"a (Smith, 2020)","paragraph_index":1}]}`, buf.String())

	buf.Reset()
	require.NoError(t, writeOutput(&buf, "yaml", v))
	assert.Contains(t, buf.String(), "rewritten: a (Smith, 2020)")
	assert.Contains(t, buf.String(), "paragraph_index: 1")

	assert.Error(t, writeOutput(&buf, "toml", v))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("  short ", 10))
	got := truncate(strings.Repeat("é", 20), 10)
	assert.Equal(t, 10, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "…"))
}
