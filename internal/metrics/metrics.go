// Package metrics exposes Prometheus instrumentation for the agent.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultRegistry collects all agent metrics; the API server exposes it
// on /metrics.
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(
		TurnsTotal, TurnDuration,
		ToolExecutionsTotal, ToolDuration,
		SafetyDenialsTotal, OverrideHitsTotal,
		NotifierFailuresTotal, BudgetExhaustionsTotal,
	)
}

// TurnsTotal counts completed user turns by outcome.
var TurnsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "deskagent_turns_total",
		Help: "Completed user turns by outcome.",
	},
	[]string{"outcome"}, // done | safety_abort
)

// TurnDuration measures end-to-end turn latency.
var TurnDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "deskagent_turn_duration_seconds",
		Help:    "End-to-end user turn latency in seconds.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	},
)

// ToolExecutionsTotal counts tool executions by tool and result.
var ToolExecutionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "deskagent_tool_executions_total",
		Help: "Tool executions by tool name and result.",
	},
	[]string{"tool", "result"}, // result: ok | error | unknown
)

// ToolDuration measures tool execution latency by tool.
var ToolDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "deskagent_tool_duration_seconds",
		Help:    "Tool execution latency in seconds.",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"tool"},
)

// SafetyDenialsTotal counts mutating tool requests refused by the gate.
var SafetyDenialsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "deskagent_safety_denials_total",
		Help: "Mutating tool requests refused pending confirmation.",
	},
)

// OverrideHitsTotal counts user turns routed by the intent override.
var OverrideHitsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "deskagent_override_hits_total",
		Help: "User turns short-circuited by the intent override router.",
	},
)

// NotifierFailuresTotal counts swallowed side-effect notifier failures.
// The turn never blocks on these, but they must not be invisible.
var NotifierFailuresTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "deskagent_notifier_failures_total",
		Help: "Side-effect notifier failures (swallowed, never user-visible).",
	},
)

// BudgetExhaustionsTotal counts turns that hit the iteration ceiling.
var BudgetExhaustionsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "deskagent_budget_exhaustions_total",
		Help: "Turns that exhausted the tool-step budget.",
	},
)
