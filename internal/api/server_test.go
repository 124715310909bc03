package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/srip/internal/config"
	"github.com/hugo-lorenzo-mato/srip/internal/core"
	"github.com/hugo-lorenzo-mato/srip/internal/events"
	"github.com/hugo-lorenzo-mato/srip/internal/service"
	"github.com/hugo-lorenzo-mato/srip/internal/service/pipeline"
	"github.com/hugo-lorenzo-mato/srip/internal/testutil"
)

func newTestAnalyzer(t *testing.T, completer core.Completer, metrics *service.MetricsCollector) *pipeline.Service {
	t.Helper()
	cfg := config.Defaults()
	cfg.Gateway.Models = []string{"tier-1", "tier-2"}

	gateway, err := service.NewGateway(completer, service.GatewayConfig{
		Models:           cfg.Gateway.Models,
		MinResponseChars: 150,
	})
	require.NoError(t, err)

	svc, err := pipeline.NewService(gateway, cfg,
		pipeline.WithRetryPolicy(service.NewRetryPolicy(service.WithSleep(testutil.NoSleep))),
		pipeline.WithServiceMetrics(metrics),
		pipeline.WithServiceIDGenerator(func() string { return "run-1" }),
	)
	require.NoError(t, err)
	return svc
}

func postAnalysis(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	fixed := time.Date(2025, 1, 21, 15, 30, 45, 0, time.UTC)
	srv := NewServer(newTestAnalyzer(t, testutil.NewScriptedCompleter(), nil), WithClock(func() time.Time { return fixed }))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "2025-01-21T15:30:45Z", body["time"])
}

func TestHandleAnalyze_Complete(t *testing.T) {
	srv := NewServer(newTestAnalyzer(t, testutil.NewScriptedCompleter(), nil))

	payload, err := json.Marshal(AnalysisRequest{Query: testutil.CloudStorageQuery, Targets: testutil.CloudStorageTargets})
	require.NoError(t, err)
	rec := postAnalysis(t, srv.Handler(), string(payload))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp AnalysisResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "run-1", resp.RunID)
	assert.Equal(t, string(core.StatusComplete), resp.CompletionStatus)
	assert.Contains(t, resp.Report, "## Executive Summary")
	assert.True(t, strings.HasPrefix(resp.Status, "Analysis Complete in "), resp.Status)
	assert.Greater(t, resp.AggregateConfidence, 0.3)
	require.Len(t, resp.Agents, 4)
	assert.Equal(t, core.RoleMarket, resp.Agents[0].Agent)
	assert.Equal(t, "tier-1", resp.Agents[0].Model)
}

func TestHandleAnalyze_ValidationFailure(t *testing.T) {
	completer := testutil.NewScriptedCompleter()
	srv := NewServer(newTestAnalyzer(t, completer, nil))

	rec := postAnalysis(t, srv.Handler(), `{"query":"hi","targets":""}`)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var resp AnalysisResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, completionInvalid, resp.CompletionStatus)
	assert.True(t, strings.HasPrefix(resp.Status, pipeline.ValidationStatusPrefix), resp.Status)
	assert.Contains(t, resp.Report, "# Input Validation Failed")
	assert.Empty(t, resp.RunID)
	assert.Empty(t, resp.Agents)
	assert.Zero(t, completer.CallCount())
}

func TestHandleAnalyze_BadRequests(t *testing.T) {
	srv := NewServer(newTestAnalyzer(t, testutil.NewScriptedCompleter(), nil))

	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"malformed", `{"query":`},
		{"wrong type", `{"query": 42}`},
		{"unknown field", `{"query":"Analyze the enterprise cloud storage market","model":"x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postAnalysis(t, srv.Handler(), tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestHandleAnalyze_TooLarge(t *testing.T) {
	srv := NewServer(newTestAnalyzer(t, testutil.NewScriptedCompleter(), nil))

	body := `{"query":"` + strings.Repeat("a", maxRequestBytes) + `"}`
	rec := postAnalysis(t, srv.Handler(), body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

type failingAnalyzer struct {
	err error
}

func (f failingAnalyzer) Analyze(context.Context, string, string) (*core.Report, *core.PipelineRun, error) {
	return nil, nil, f.err
}

func (f failingAnalyzer) Render(*core.Report) (string, string) { return "", "" }

func (f failingAnalyzer) ValidationReport(error) (string, string) { return "", "" }

func TestHandleAnalyze_UnexpectedError(t *testing.T) {
	srv := NewServer(failingAnalyzer{err: core.ErrService("gateway unavailable")})

	rec := postAnalysis(t, srv.Handler(), `{"query":"Analyze the enterprise cloud storage market"}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "gateway unavailable")
}

func TestHandleMetrics(t *testing.T) {
	metrics := service.NewMetricsCollector()
	srv := NewServer(newTestAnalyzer(t, testutil.NewScriptedCompleter(), metrics), WithMetrics(metrics))

	rec := postAnalysis(t, srv.Handler(), `{"query":"Analyze the enterprise cloud storage market"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Runs   service.RunMetrics `json:"runs"`
		Models []json.RawMessage  `json:"models"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Runs.RunsTotal)
	assert.Equal(t, 1, body.Runs.ByStatus[core.StatusComplete])
}

func TestHandleMetrics_Disabled(t *testing.T) {
	srv := NewServer(newTestAnalyzer(t, testutil.NewScriptedCompleter(), nil))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleSSE_NoBus(t *testing.T) {
	srv := NewServer(newTestAnalyzer(t, testutil.NewScriptedCompleter(), nil))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleSSE_StreamsFilteredEvents(t *testing.T) {
	bus := events.New(10)
	defer bus.Close()
	srv := NewServer(newTestAnalyzer(t, testutil.NewScriptedCompleter(), nil), WithEventBus(bus))

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/v1/events?run=run-7", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readEvent := func() (string, string) {
		var name, data string
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			line = strings.TrimRight(line, "\n")
			switch {
			case strings.HasPrefix(line, "event: "):
				name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				data = strings.TrimPrefix(line, "data: ")
			case line == "":
				return name, data
			}
		}
	}

	name, _ := readEvent()
	require.Equal(t, "connected", name)

	bus.Publish(events.NewRunStartedEvent("run-other", "ignored query", nil))
	bus.Publish(events.NewRunCompletedEvent("run-7", "complete", 0.82, 0, time.Second))

	name, data := readEvent()
	assert.Equal(t, events.TypeRunCompleted, name)
	assert.Contains(t, data, `"run_id":"run-7"`)
	assert.Contains(t, data, `"status":"complete"`)
}
