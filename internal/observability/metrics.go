// Package observability holds the Prometheus metrics shared by the schedule and
// attendance workflows.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "clubadmin"

var (
	activityPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "persistence",
		Name:      "last_activity_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent activity persisted.",
	})

	generationRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "schedule",
		Name:      "generation_runs_total",
		Help:      "Bulk generation runs, labeled by outcome (complete, partial, rejected).",
	}, []string{"outcome"})

	generatedActivities = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "schedule",
		Name:      "generated_activities_total",
		Help:      "Activities produced by bulk generation, labeled by submission result.",
	}, []string{"result"})

	skippedRows = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "schedule",
		Name:      "skipped_rows_total",
		Help:      "Template row instances skipped during expansion.",
	})

	batchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "schedule",
		Name:      "submit_batch_duration_seconds",
		Help:      "Time spent submitting one batch of generated activities.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	})

	bucketingWarnings = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "attendance",
		Name:      "bucketing_warnings_total",
		Help:      "Attendance values that could not be placed into a day bucket, labeled by reason.",
	}, []string{"reason"})

	bucketingFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "attendance",
		Name:      "bucketing_fallbacks_total",
		Help:      "Groupings where no attending record could be classified.",
	})
)

func init() {
	prometheus.MustRegister(
		activityPersistGauge,
		generationRuns,
		generatedActivities,
		skippedRows,
		batchDuration,
		bucketingWarnings,
		bucketingFallbacks,
	)
}

// RecordActivityPersisted updates the persistence watermark gauge.
func RecordActivityPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	activityPersistGauge.Set(float64(ts.Unix()))
}

// RecordGenerationRun counts one bulk generation run.
func RecordGenerationRun(outcome string, created, failed, skipped int) {
	generationRuns.WithLabelValues(outcome).Inc()
	generatedActivities.WithLabelValues("created").Add(float64(created))
	generatedActivities.WithLabelValues("failed").Add(float64(failed))
	skippedRows.Add(float64(skipped))
}

// ObserveSubmitBatch records the wall time of one submission batch.
func ObserveSubmitBatch(d time.Duration) {
	batchDuration.Observe(d.Seconds())
}

// RecordBucketingWarning counts one unplaced attendance value.
func RecordBucketingWarning(reason string) {
	bucketingWarnings.WithLabelValues(reason).Inc()
}

// RecordBucketingFallback counts a grouping that fell back to the flat list.
func RecordBucketingFallback() {
	bucketingFallbacks.Inc()
}
