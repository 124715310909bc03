package service

import (
	"sort"
	"sync"
	"time"

	"github.com/hugo-lorenzo-mato/srip/internal/core"
)

// MetricsCollector aggregates gateway and pipeline metrics for the life of
// the process. It is safe for concurrent use.
type MetricsCollector struct {
	runs   RunMetrics
	models map[string]*ModelMetrics
	mu     sync.RWMutex
}

// RunMetrics holds pipeline-level counters.
type RunMetrics struct {
	RunsTotal      int                           `json:"runs_total"`
	ByStatus       map[core.CompletionStatus]int `json:"by_status"`
	FallbacksTotal int                           `json:"fallbacks_total"`
	RetriesTotal   int                           `json:"retries_total"`
	TotalDuration  time.Duration                 `json:"-"`
	AvgDurationMS  int64                         `json:"avg_duration_ms"`
}

// ModelMetrics holds per-tier call metrics.
type ModelMetrics struct {
	Model          string                     `json:"model"`
	Calls          int                        `json:"calls"`
	Successes      int                        `json:"successes"`
	Failures       map[core.ErrorCategory]int `json:"failures"`
	CacheHits      int                        `json:"cache_hits"`
	TotalTokensIn  int                        `json:"total_tokens_in"`
	TotalTokensOut int                        `json:"total_tokens_out"`
	TotalDuration  time.Duration              `json:"-"`
	AvgDurationMS  int64                      `json:"avg_duration_ms"`
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		runs:   RunMetrics{ByStatus: make(map[core.CompletionStatus]int)},
		models: make(map[string]*ModelMetrics),
	}
}

// RecordCall records one gateway call. err is the classified failure, or
// nil on success.
func (m *MetricsCollector) RecordCall(model string, comp core.Completion, duration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mm, ok := m.models[model]
	if !ok {
		mm = &ModelMetrics{Model: model, Failures: make(map[core.ErrorCategory]int)}
		m.models[model] = mm
	}

	mm.Calls++
	mm.TotalDuration += duration
	mm.AvgDurationMS = (mm.TotalDuration / time.Duration(mm.Calls)).Milliseconds()
	if err != nil {
		mm.Failures[core.GetCategory(err)]++
		return
	}
	mm.Successes++
	mm.TotalTokensIn += comp.TokensIn
	mm.TotalTokensOut += comp.TokensOut
	if comp.Cached {
		mm.CacheHits++
	}
}

// RecordRetry records a retry or escalation.
func (m *MetricsCollector) RecordRetry() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs.RetriesTotal++
}

// RecordRun records a finished pipeline run.
func (m *MetricsCollector) RecordRun(run *core.PipelineRun) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.runs.RunsTotal++
	m.runs.ByStatus[run.Status]++
	m.runs.FallbacksTotal += run.FallbackCount()
	m.runs.TotalDuration += run.TotalElapsed
	m.runs.AvgDurationMS = (m.runs.TotalDuration / time.Duration(m.runs.RunsTotal)).Milliseconds()
}

// GetRunMetrics returns a copy of the run metrics.
func (m *MetricsCollector) GetRunMetrics() RunMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := m.runs
	out.ByStatus = make(map[core.CompletionStatus]int, len(m.runs.ByStatus))
	for k, v := range m.runs.ByStatus {
		out.ByStatus[k] = v
	}
	return out
}

// GetModelMetrics returns a copy of the per-model metrics sorted by model.
func (m *MetricsCollector) GetModelMetrics() []ModelMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]ModelMetrics, 0, len(m.models))
	for _, mm := range m.models {
		c := *mm
		c.Failures = make(map[core.ErrorCategory]int, len(mm.Failures))
		for k, v := range mm.Failures {
			c.Failures[k] = v
		}
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Model < result[j].Model })
	return result
}

// Reset clears all metrics.
func (m *MetricsCollector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.runs = RunMetrics{ByStatus: make(map[core.CompletionStatus]int)}
	m.models = make(map[string]*ModelMetrics)
}
