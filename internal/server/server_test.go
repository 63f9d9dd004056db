// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pdiddy/cite-engine/internal/cite"
	"github.com/pdiddy/cite-engine/internal/metrics"
	"github.com/pdiddy/cite-engine/internal/synth"
	"github.com/pdiddy/cite-engine/pkg/types"
)

type runnerFunc func(ctx context.Context, sentences []types.EssaySentence) ([]types.ResultItem, cite.Report, error)

func (f runnerFunc) RunWithReport(ctx context.Context, s []types.EssaySentence) ([]types.ResultItem, cite.Report, error) {
	return f(ctx, s)
}

func testConfig() types.ServerConfig {
	cfg := types.DefaultPipelineConfig().Server
	cfg.RequestTimeout = time.Second
	return cfg
}

func newTestServer(t *testing.T, cfg types.ServerConfig, r Runner) (*Server, *metrics.Metrics) {
	t.Helper()
	m := metrics.New()
	return New(cfg, r, m, zaptest.NewLogger(t)), m
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestCite_Success(t *testing.T) {
	var got []types.EssaySentence
	srv, m := newTestServer(t, testConfig(), runnerFunc(func(_ context.Context, s []types.EssaySentence) ([]types.ResultItem, cite.Report, error) {
		got = s
		return []types.ResultItem{{Original: "a", Rewritten: "a (Smith, 2020)", ParagraphIndex: 3}}, cite.Report{Results: 1}, nil
	}))
	h := srv.Handler()

	for _, path := range []string{PathCiteOpenAI, PathCite} {
		rec := post(t, h, path, `{"sentences":[{"text":"a","paragraph_index":3}]}`)
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))
		assert.JSONEq(t, `{"results":[{"original":"a","rewritten":"a (Smith, 2020)","paragraph_index":3}]}`, rec.Body.String())
	}

	assert.Equal(t, []types.EssaySentence{{Text: "a", ParagraphIndex: 3}}, got)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", PathCite, "200")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PipelineRunsTotal.WithLabelValues("ok", "")))
}

func TestCite_EmptyResultsIsArray(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), runnerFunc(func(context.Context, []types.EssaySentence) ([]types.ResultItem, cite.Report, error) {
		return []types.ResultItem{}, cite.Report{}, nil
	}))
	rec := post(t, srv.Handler(), PathCite, `{"sentences":[{"text":"a","paragraph_index":0}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"results":[]}`, rec.Body.String())
}

func TestCite_NoSentences(t *testing.T) {
	// Validation happens before any stage runs, so a pipeline with no
	// stage components is enough.
	srv, _ := newTestServer(t, testConfig(), cite.New(cite.Deps{}))
	h := srv.Handler()

	for _, body := range []string{`{"sentences":[]}`, `{}`} {
		rec := post(t, h, PathCiteOpenAI, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "No sentences provided", decodeError(t, rec))
	}
}

func TestCite_BadJSON(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), cite.New(cite.Deps{}))
	rec := post(t, srv.Handler(), PathCite, `{"sentences":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Request body is not valid JSON", decodeError(t, rec))
}

func TestCite_BodyTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.MaxBodyBytes = 16
	srv, _ := newTestServer(t, cfg, cite.New(cite.Deps{}))
	rec := post(t, srv.Handler(), PathCite, `{"sentences":[{"text":"far too long for the limit"}]}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestCite_ProviderFailureIsSanitized(t *testing.T) {
	srv, m := newTestServer(t, testConfig(), runnerFunc(func(context.Context, []types.EssaySentence) ([]types.ResultItem, cite.Report, error) {
		err := fmt.Errorf("synthesizing citations: %w: content was %q", synth.ErrMalformedResponse, "secret prompt text")
		return nil, cite.Report{FailedStage: cite.StageSynthesis}, err
	}))
	rec := post(t, srv.Handler(), PathCite, `{"sentences":[{"text":"a"}]}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	msg := decodeError(t, rec)
	assert.NotContains(t, msg, "secret")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PipelineRunsTotal.WithLabelValues("error", cite.StageSynthesis)))
}

func TestCite_RequestTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.RequestTimeout = 20 * time.Millisecond
	srv, _ := newTestServer(t, cfg, runnerFunc(func(ctx context.Context, _ []types.EssaySentence) ([]types.ResultItem, cite.Report, error) {
		<-ctx.Done()
		return nil, cite.Report{}, fmt.Errorf("synthesizing citations: %w", ctx.Err())
	}))
	rec := post(t, srv.Handler(), PathCite, `{"sentences":[{"text":"a"}]}`)
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, "Citation request timed out", decodeError(t, rec))
}

func TestCite_MethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), cite.New(cite.Deps{}))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, PathCite, nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRequestID_Echoed(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), cite.New(cite.Deps{}))
	req := httptest.NewRequest(http.MethodGet, PathHealth, nil)
	req.Header.Set(HeaderRequestID, "req-123")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-123", rec.Header().Get(HeaderRequestID))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCORS(t *testing.T) {
	cfg := testConfig()
	cfg.AllowedOrigins = []string{"https://app.example.com"}
	srv, _ := newTestServer(t, cfg, cite.New(cite.Deps{}))
	h := srv.Handler()

	req := httptest.NewRequest(http.MethodOptions, PathCite, nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")

	req = httptest.NewRequest(http.MethodGet, PathHealth, nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsRoute(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), cite.New(cite.Deps{}))
	h := srv.Handler()
	post(t, h, "/nope", `{}`)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, PathMetrics, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `path="other"`)

	noMetrics := New(testConfig(), cite.New(cite.Deps{}), nil, nil)
	rec = httptest.NewRecorder()
	noMetrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, PathMetrics, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv, _ := newTestServer(t, testConfig(), cite.New(cite.Deps{}))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + PathHealth
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
