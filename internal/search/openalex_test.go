// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconstructAbstract(t *testing.T) {
	tests := []struct {
		name  string
		index map[string][]int
		want  string
	}{
		{"nil", nil, ""},
		{"single", map[string][]int{"hello": {0}}, "hello"},
		{"ordered", map[string][]int{"world": {1}, "hello": {0}}, "hello world"},
		{"repeated word", map[string][]int{"the": {0, 2}, "cat": {1}, "dog": {3}}, "the cat the dog"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, reconstructAbstract(tt.index))
		})
	}
}

func TestOpenAlexSearch(t *testing.T) {
	var captured *http.Request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
		fmt.Fprint(w, `{"results":[
			{"id":"https://openalex.org/W1","title":"Graph Networks","publication_year":2021,
			 "authorships":[{"author":{"display_name":"Ada Lovelace"}}],
			 "abstract_inverted_index":{"Graphs":[0],"generalize.":[1]}},
			{"id":"https://openalex.org/W2","title":"No Abstract","publication_year":2022,
			 "authorships":[],"abstract_inverted_index":null}
		]}`)
	}))
	defer ts.Close()

	cfg := testCfg()
	cfg.Mailto = "dev@example.com"
	o := NewOpenAlex(cfg, ts.Client())
	o.BaseURL = ts.URL

	papers, err := o.Search(context.Background(), "graph networks")
	require.NoError(t, err)
	require.Len(t, papers, 1)
	assert.Equal(t, "Graphs generalize.", papers[0].Abstract)
	assert.Equal(t, []string{"Ada Lovelace"}, papers[0].Authors)
	assert.Equal(t, 2021, papers[0].Year)

	q := captured.URL.Query()
	assert.Equal(t, "graph networks", q.Get("search"))
	assert.Equal(t, "3", q.Get("per_page"))
	assert.Equal(t, "dev@example.com", q.Get("mailto"))
}

func TestOpenAlexSearchHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	o := NewOpenAlex(testCfg(), ts.Client())
	o.BaseURL = ts.URL
	_, err := o.Search(context.Background(), "graphs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 403")
}
