// Package metrics provides Prometheus metrics for the Vine service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ConnectionDecisionsTotal tracks connection request verdicts by outcome
	ConnectionDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vine",
			Subsystem: "connections",
			Name:      "decisions_total",
			Help:      "Total number of connection request decisions by outcome and reject reason",
		},
		[]string{"outcome", "reason"},
	)

	// ConnectionResponsesTotal tracks accept/decline actions on pending requests
	ConnectionResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vine",
			Subsystem: "connections",
			Name:      "responses_total",
			Help:      "Total number of responses to pending connection requests",
		},
		[]string{"action"},
	)

	// ReachableQueryDuration tracks degree-resolution query duration by depth
	ReachableQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vine",
			Subsystem: "graph",
			Name:      "reachable_query_duration_seconds",
			Help:      "Duration of bounded-depth reachability queries",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"depth"},
	)

	// MessageTransitionsTotal tracks message lifecycle transitions
	MessageTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vine",
			Subsystem: "messages",
			Name:      "transitions_total",
			Help:      "Total number of message lifecycle transitions",
		},
		[]string{"transition"},
	)
)
