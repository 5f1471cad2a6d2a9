package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecordGenerationRun(t *testing.T) {
	runs := testutil.ToFloat64(generationRuns.WithLabelValues("partial"))
	created := testutil.ToFloat64(generatedActivities.WithLabelValues("created"))
	failed := testutil.ToFloat64(generatedActivities.WithLabelValues("failed"))
	skipped := testutil.ToFloat64(skippedRows)

	RecordGenerationRun("partial", 8, 2, 1)

	require.InDelta(t, runs+1, testutil.ToFloat64(generationRuns.WithLabelValues("partial")), 0.0001)
	require.InDelta(t, created+8, testutil.ToFloat64(generatedActivities.WithLabelValues("created")), 0.0001)
	require.InDelta(t, failed+2, testutil.ToFloat64(generatedActivities.WithLabelValues("failed")), 0.0001)
	require.InDelta(t, skipped+1, testutil.ToFloat64(skippedRows), 0.0001)
}

func TestRecordBucketing(t *testing.T) {
	warnings := testutil.ToFloat64(bucketingWarnings.WithLabelValues("unmatched_day"))
	fallbacks := testutil.ToFloat64(bucketingFallbacks)

	RecordBucketingWarning("unmatched_day")
	RecordBucketingFallback()

	require.InDelta(t, warnings+1, testutil.ToFloat64(bucketingWarnings.WithLabelValues("unmatched_day")), 0.0001)
	require.InDelta(t, fallbacks+1, testutil.ToFloat64(bucketingFallbacks), 0.0001)
}

func TestRecordActivityPersistedIgnoresZeroTime(t *testing.T) {
	ts := time.Date(2024, time.June, 3, 6, 0, 0, 0, time.UTC)
	RecordActivityPersisted(ts)
	RecordActivityPersisted(time.Time{})
	require.InDelta(t, float64(ts.Unix()), testutil.ToFloat64(activityPersistGauge), 0.0001)
}
