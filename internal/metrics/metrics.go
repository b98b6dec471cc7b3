// Package metrics holds the Prometheus collectors of the engine. Collectors
// are registered with the default registry at init and exposed by Handler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cmdgraph"

// Label values.
const (
	KindCommand = "command"
	KindGraph   = "graph"

	KindNode  = "node"
	KindNodes = "nodes"
	KindWhole = "whole_graph"

	ResultOK      = "ok"
	ResultError   = "error"
	ResultSkipped = "skipped"
)

var (
	// Submissions counts work accepted for execution by queues.
	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "submissions_total",
		Help:      "Total submissions accepted for execution, by kind (command, graph).",
	}, []string{"kind"})

	// RecordedCommands counts submissions intercepted by a recording graph.
	RecordedCommands = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recorded_commands_total",
		Help:      "Total queue submissions converted into graph nodes.",
	})

	// NodeExecutions counts node outcomes inside graph submissions.
	NodeExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "node_executions_total",
		Help:      "Total node executions, by result (ok, error, skipped).",
	}, []string{"result"})

	// NodeDuration tracks body execution latency.
	NodeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "node_duration_seconds",
		Help:      "Duration of node body executions.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
	})

	// Finalizations counts finalize calls, by result.
	Finalizations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "finalizations_total",
		Help:      "Total finalize calls, by result (ok, error).",
	}, []string{"result"})

	// Updates counts successful executable graph updates, by kind.
	Updates = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "updates_total",
		Help:      "Total executable graph updates, by kind (node, nodes, whole_graph).",
	}, []string{"kind"})
)

// Result maps an error to a result label.
func Result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
