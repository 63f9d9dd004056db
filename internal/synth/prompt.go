// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/cite-engine/pkg/types"
)

// systemPromptTmpl is the fixed instruction sent with every batch of pairs.
var systemPromptTmpl = template.Must(template.New("system").Parse(`Analyze essay-abstract pairs and decide, for each pair, whether the essay sentence makes a claim that the paper abstract supports and should therefore cite.

Each pair has:
- essay_sentence: a sentence from the user's essay
- paper_title: the title of a related paper
- abstract_sentence: the abstract sentence most similar to the essay sentence
- score: the cosine similarity of the two sentences
- suggested_citation: the citation to use for this paper, when known

For every pair, in the same order as the input, return:
- original_sentence: the essay sentence unchanged
- rewritten_sentence: the essay sentence with an in-text citation in the form {{.Style}} inserted before the final punctuation, or the unchanged sentence when no citation is needed
- citation: the citation in the form {{.Style}}, or null when no citation is needed
- needs_citation: true or false

Return exactly one entry per pair. Respond with a JSON object only, in this format:
{"analysis": [{"original_sentence": "...", "rewritten_sentence": "...", "citation": "{{.Example}}", "needs_citation": true}]}
`))

// renderSystemPrompt executes the system prompt template.
func renderSystemPrompt() (string, error) {
	var buf bytes.Buffer
	err := systemPromptTmpl.Execute(&buf, struct{ Style, Example string }{
		Style:   "(Author, Year)",
		Example: "(Smith, 2020)",
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// userPayload is the JSON document sent as the user message.
func userPayload(pairs []types.MatchedPair) (string, error) {
	b, err := json.Marshal(struct {
		Pairs []types.MatchedPair `json:"pairs"`
	}{Pairs: pairs})
	if err != nil {
		return "", fmt.Errorf("marshaling pairs: %w", err)
	}
	return string(b), nil
}

// parseResponse decodes the model's JSON object. Surrounding Markdown code
// fences are tolerated; anything else that is not the expected object is
// ErrMalformedResponse.
func parseResponse(content string) (Response, error) {
	content = stripCodeFence(content)
	if content == "" {
		return Response{}, fmt.Errorf("%w: empty content", ErrMalformedResponse)
	}

	var raw struct {
		Analysis *[]Verdict `json:"analysis"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if raw.Analysis == nil {
		return Response{}, fmt.Errorf("%w: missing analysis list", ErrMalformedResponse)
	}
	return Response{Analysis: *raw.Analysis}, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
