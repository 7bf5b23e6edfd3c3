// Package metrics exposes Prometheus instruments for the query pipeline.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alexanderramin/itopnl/internal/itop"
)

var (
	// remoteCallsTotal counts REST calls by operation and outcome code.
	remoteCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "itopnl",
		Subsystem: "remote",
		Name:      "calls_total",
		Help:      "REST calls to iTop by operation and status",
	}, []string{"operation", "status"})

	remoteLatencySeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "itopnl",
		Subsystem: "remote",
		Name:      "latency_seconds",
		Help:      "REST call latency by operation",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"operation"})

	// classifierRulesTotal counts which detection rule picked the class.
	classifierRulesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "itopnl",
		Subsystem: "classifier",
		Name:      "rules_total",
		Help:      "Class detections by rule and resulting class",
	}, []string{"rule", "class"})

	schemaCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "itopnl",
		Subsystem: "schema",
		Name:      "lookups_total",
		Help:      "Schema lookups by result (hit, miss, empty)",
	}, []string{"result"})

	// valueMatchesTotal counts value discovery outcomes by match kind.
	valueMatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "itopnl",
		Subsystem: "discovery",
		Name:      "matches_total",
		Help:      "Value discovery results by match kind",
	}, []string{"kind"})

	pipelineRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "itopnl",
		Subsystem: "pipeline",
		Name:      "runs_total",
		Help:      "Natural-language queries processed by action and outcome",
	}, []string{"action", "outcome"})
)

// RecordDetection records which classifier rule fired.
func RecordDetection(rule, class string) {
	classifierRulesTotal.WithLabelValues(rule, class).Inc()
}

// RecordSchemaLookup records a schema cache hit, miss or empty discovery.
func RecordSchemaLookup(result string) {
	schemaCacheTotal.WithLabelValues(result).Inc()
}

// RecordValueMatch records one value discovery outcome.
func RecordValueMatch(kind string) {
	valueMatchesTotal.WithLabelValues(kind).Inc()
}

// RecordPipelineRun records one processed query.
func RecordPipelineRun(action, outcome string) {
	pipelineRunsTotal.WithLabelValues(action, outcome).Inc()
}

// RemoteObserver feeds REST call events into the remote metrics.
type RemoteObserver struct{}

func (RemoteObserver) OnCallComplete(_ context.Context, e itop.CallEvent) {
	status := "ok"
	if !e.Success {
		status = e.ErrorCode
	}
	remoteCallsTotal.WithLabelValues(e.Operation, status).Inc()
	remoteLatencySeconds.WithLabelValues(e.Operation).Observe((time.Duration(e.LatencyMs) * time.Millisecond).Seconds())
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
