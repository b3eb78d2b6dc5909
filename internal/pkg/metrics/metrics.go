// Package metrics defines and registers all custom Prometheus metrics for
// formauth. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation and exposed by the HTTP surface at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "formauth"

// ── Authentication metrics ────────────────────────────────────────────────────

// LoginAttemptsTotal counts credential checks.
// Label:
//   - result: "success", "user_not_found", "inactive", "invalid_credentials", "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of authentication attempts, by result.",
	},
	[]string{"result"},
)

// SessionValidationsTotal counts session validity checks.
// Label:
//   - result: "valid" (extended), "absent", "expired", "corrupt"
var SessionValidationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_validations_total",
		Help:      "Total number of session validity checks, by result.",
	},
	[]string{"result"},
)

// ── Registry metrics ──────────────────────────────────────────────────────────

// RegistryLoadsTotal counts registry loads by the origin that won.
// Label:
//   - origin: "remote", "snapshot", or "default"
var RegistryLoadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registry_loads_total",
		Help:      "Total number of user registry loads, by origin.",
	},
	[]string{"origin"},
)

// RegistryUsers tracks the number of records currently held by the registry.
var RegistryUsers = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "registry_users",
		Help:      "Current number of user records in the registry.",
	},
)

// PersistenceFailuresTotal counts storage writes/reads that failed and were absorbed.
// Label:
//   - key: the storage entry ("users" or "session")
var PersistenceFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "persistence_failures_total",
		Help:      "Total number of absorbed persistence failures, by storage key.",
	},
	[]string{"key"},
)

// BootstrapFetchDuration measures how long a bootstrap fetch takes.
// Label:
//   - result: "ok" or "error"
var BootstrapFetchDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "bootstrap_fetch_duration_seconds",
		Help:      "Duration of bootstrap source fetches, including retries.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
	[]string{"result"},
)

// ── HTTP metrics ──────────────────────────────────────────────────────────────

// HTTPRequestsTotal counts served requests.
// Labels:
//   - method: HTTP method
//   - route: the matched route pattern (e.g. "/admin/users/:username")
//   - code: response status code
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests, by method, route and status code.",
	},
	[]string{"method", "route", "code"},
)

// HTTPRequestDuration measures request latency per route.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests, by method and route.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)
