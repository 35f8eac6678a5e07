package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Bootstrap subsystem metrics
var (
	// RunsTotal counts orchestration runs by outcome (success, failed)
	RunsTotal *prometheus.CounterVec

	// RunDuration tracks how long a full orchestration run takes
	RunDuration prometheus.Histogram

	// LastRunTimestamp records the Unix timestamp of the last run
	LastRunTimestamp prometheus.Gauge

	// CategoryRegistrationsTotal counts registration calls per content category
	CategoryRegistrationsTotal *prometheus.CounterVec

	// AssetsRegisteredTotal counts individual items and recipes written to the registry
	AssetsRegisteredTotal *prometheus.CounterVec

	// PatchStepsTotal counts patch step outcomes (applied, skipped)
	PatchStepsTotal *prometheus.CounterVec

	// ErrorsTotal tracks errors encountered outside isolated patch steps
	ErrorsTotal prometheus.Counter
)

func initBootstrapMetrics() {
	RunsTotal = NewCounterVec(
		"arsenal_bootstrap_runs_total",
		"Total number of bootstrap runs by outcome.",
		[]string{"outcome"},
	)

	RunDuration = NewDurationHistogram(
		"arsenal_bootstrap_duration_seconds",
		"Duration of bootstrap runs in seconds.",
	)

	LastRunTimestamp = NewGauge(
		"arsenal_bootstrap_last_run_timestamp",
		"Timestamp of the last bootstrap run (Unix epoch seconds).",
	)

	CategoryRegistrationsTotal = NewCounterVec(
		"arsenal_category_registrations_total",
		"Total registration calls per content category.",
		[]string{"category"},
	)

	AssetsRegisteredTotal = NewCounterVec(
		"arsenal_assets_registered_total",
		"Total assets written to the content registry.",
		[]string{"kind"},
	)

	PatchStepsTotal = NewCounterVec(
		"arsenal_patch_steps_total",
		"Total patch step outcomes.",
		[]string{"step", "state"},
	)

	ErrorsTotal = NewCounter(
		"arsenal_errors_total",
		"Total number of non-isolated errors.",
	)
}

func registerBootstrapMetrics() {
	prometheus.MustRegister(RunsTotal)
	prometheus.MustRegister(RunDuration)
	prometheus.MustRegister(LastRunTimestamp)
	prometheus.MustRegister(CategoryRegistrationsTotal)
	prometheus.MustRegister(AssetsRegisteredTotal)
	prometheus.MustRegister(PatchStepsTotal)
	prometheus.MustRegister(ErrorsTotal)
}

// RecordRun records a finished run and updates /health
func RecordRun(outcome string, elapsed time.Duration) {
	RunsTotal.WithLabelValues(outcome).Inc()
	RunDuration.Observe(elapsed.Seconds())
	LastRunTimestamp.Set(float64(time.Now().Unix()))
	setLastOutcome(outcome)
}

// RecordCategory records one category registration call
func RecordCategory(category string) {
	CategoryRegistrationsTotal.WithLabelValues(category).Inc()
}

// RecordAssets records n assets of a kind written to the registry
func RecordAssets(kind string, n int) {
	AssetsRegisteredTotal.WithLabelValues(kind).Add(float64(n))
}

// RecordPatchStep records the final state of one patch step
func RecordPatchStep(step, state string) {
	PatchStepsTotal.WithLabelValues(step, state).Inc()
}
