// Package metrics exposes Prometheus collectors for tool calls, report generation
// and extraction.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/saam-fiscal/rotina178/internal/report"
	"github.com/saam-fiscal/rotina178/internal/tool"
)

const namespace = "rotina178"

// Tool call outcomes used as the "outcome" label.
const (
	OutcomeOK          = "ok"
	OutcomeClientError = "client_error"
	OutcomeTimeout     = "timeout"
	OutcomeSystemError = "system_error"
)

// Metrics owns a private registry so tests and multiple servers never collide.
type Metrics struct {
	registry *prometheus.Registry

	toolCalls      *prometheus.CounterVec
	toolDuration   *prometheus.HistogramVec
	reports        *prometheus.CounterVec
	records        prometheus.Counter
	chunkFiles     prometheus.Counter
	extractions    prometheus.Counter
	extractedChars prometheus.Counter
}

// New creates and registers all collectors, including the Go runtime and process
// collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool calls by tool and outcome.",
		}, []string{"tool", "outcome"}),
		toolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_call_duration_seconds",
			Help:      "Tool call latency.",
			Buckets:   []float64{0.01, 0.05, 0.25, 1, 5, 15, 60, 180},
		}, []string{"tool"}),
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_generated_total",
			Help:      "Successful report generations by table and whether records were returned.",
		}, []string{"table", "result"}),
		records: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_records_total",
			Help:      "Records persisted across all generations.",
		}),
		chunkFiles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_chunk_files_total",
			Help:      "Chunk files written.",
		}),
		extractions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "Extraction windows served.",
		}),
		extractedChars: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extracted_characters_total",
			Help:      "Characters returned by extraction windows.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.toolCalls,
		m.toolDuration,
		m.reports,
		m.records,
		m.chunkFiles,
		m.extractions,
		m.extractedChars,
	)
	return m
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveToolCall matches tool.WithOnAfterExecute.
func (m *Metrics) ObserveToolCall(_ context.Context, call tool.Call, summary tool.ExecutionSummary, d time.Duration) {
	m.toolCalls.WithLabelValues(call.ToolName, Outcome(summary.Error)).Inc()
	m.toolDuration.WithLabelValues(call.ToolName).Observe(d.Seconds())
}

// ObserveReport matches report.WithObserver.
func (m *Metrics) ObserveReport(s report.Summary) {
	result := "written"
	if s.Empty() {
		result = "empty"
	}
	m.reports.WithLabelValues(s.Table, result).Inc()
	m.records.Add(float64(s.Total))
	m.chunkFiles.Add(float64(len(s.Files)))
}

// ObserveExtraction records one served window.
func (m *Metrics) ObserveExtraction(r report.Result) {
	m.extractions.Inc()
	m.extractedChars.Add(float64(r.End - r.Offset))
}

// Outcome classifies a tool error for the outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case tool.IsClientError(err):
		return OutcomeClientError
	case errors.Is(err, tool.ErrTimeout):
		return OutcomeTimeout
	default:
		return OutcomeSystemError
	}
}
