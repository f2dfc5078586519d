// Package metrics defines and registers all custom Prometheus metrics for
// the task tracker API. It is the single source of truth for metric names,
// labels, and help strings. Metrics register with the default registry via
// promauto at package load; the /metrics route is mounted by the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tasktracker"

// ── Authentication metrics ────────────────────────────────────────────────────

// LoginsTotal counts login attempts by outcome.
// Label:
//   - result: "success", "invalid_credentials", "account_disabled", "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// TokenRejectionsTotal counts bearer tokens that failed resolution.
// Label:
//   - reason: "malformed", "expired", "unknown_subject", "subject_mismatch", "disabled"
var TokenRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_rejections_total",
		Help:      "Total number of bearer tokens rejected during resolution, by reason.",
	},
	[]string{"reason"},
)

// ── Task metrics ──────────────────────────────────────────────────────────────

// TaskMutationsTotal counts successful task writes by path.
// Label:
//   - operation: "create", "replace", "status", "patch", "delete"
var TaskMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "task_mutations_total",
		Help:      "Total number of successful task mutations, by write path.",
	},
	[]string{"operation"},
)

// TaskEventsRecordedTotal counts activity-trail events that were persisted.
// Label:
//   - status: the task status carried by the event
var TaskEventsRecordedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "task_events_recorded_total",
		Help:      "Total number of task activity events persisted.",
	},
	[]string{"status"},
)

// TaskEventErrorsTotal counts activity-trail events that failed to persist.
// Label:
//   - reason: short description of the failure
var TaskEventErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "task_event_errors_total",
		Help:      "Total number of task activity events that failed to persist.",
	},
	[]string{"reason"},
)
