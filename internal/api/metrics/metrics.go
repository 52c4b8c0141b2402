// Package metrics defines the domain Prometheus metrics for the notes API.
// HTTP request metrics come from echoprometheus; this package only covers
// what the handlers know: registrations, logins and note operations.
//
// Metrics are registered on the Registerer passed to New so that each router
// (and each test) can own an isolated registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "notes"

// Result label values.
const (
	ResultSuccess  = "success"
	ResultFailure  = "failure"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

type Metrics struct {
	// RegistrationsTotal counts registration attempts.
	// Label:
	//   - result: "success", "failure" (306 conflict) or "error"
	RegistrationsTotal *prometheus.CounterVec

	// LoginsTotal counts login attempts.
	// Label:
	//   - result: "success", "failure" (401) or "error"
	LoginsTotal *prometheus.CounterVec

	// NoteOperationsTotal counts note and category operations.
	// Labels:
	//   - operation: e.g. "create", "delete", "toggle_archived", "add_category"
	//   - result: "success", "not_found" or "error"
	NoteOperationsTotal *prometheus.CounterVec

	// NoteContentBytes observes the size of note content on create and update.
	NoteContentBytes prometheus.Histogram
}

// New creates the metrics and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RegistrationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "registrations_total",
				Help:      "Total number of user registration attempts, by result.",
			},
			[]string{"result"},
		),
		LoginsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "logins_total",
				Help:      "Total number of login attempts, by result.",
			},
			[]string{"result"},
		),
		NoteOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "note_operations_total",
				Help:      "Total number of note and category operations, by operation and result.",
			},
			[]string{"operation", "result"},
		),
		NoteContentBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "note_content_bytes",
				Help:      "Size of note content written on create and update.",
				Buckets:   prometheus.ExponentialBuckets(16, 4, 8), // 16B .. 256KiB
			},
		),
	}
}
