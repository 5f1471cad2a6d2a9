package outbox

import "github.com/prometheus/client_golang/prometheus"

const namespace = "clubadmin"

var (
	deliveredCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "outbox",
		Name:      "events_delivered_total",
		Help:      "Club schedule events published to Kafka.",
	})

	deliveredByType = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "outbox",
		Name:      "events_delivered_by_type_total",
		Help:      "Club schedule events published to Kafka, by event type (activity.scheduled, schedule.generated).",
	}, []string{"event_type"})

	failedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "outbox",
		Name:      "events_failed_total",
		Help:      "Club schedule events whose batch failed to publish and was moved to outbox_dlq.",
	})

	batchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "outbox",
		Name:      "batch_duration_seconds",
		Help:      "Time to claim, publish and mark one outbox batch.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
	})

	batchSize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "outbox",
		Name:      "batch_events",
		Help:      "Events claimed per non-empty outbox batch. A bulk generation run enqueues one event per activity plus one for the run.",
		Buckets:   []float64{1, 5, 10, 25, 50, 100},
	})

	dlqCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "outbox",
		Name:      "events_dlq_total",
		Help:      "Club schedule events moved to outbox_dlq, by topic.",
	}, []string{"topic"})
)

func init() {
	prometheus.MustRegister(deliveredCounter, deliveredByType, failedCounter, batchDuration, batchSize, dlqCounter)
}

func recordClaimed(messages []Message) {
	batchSize.Observe(float64(len(messages)))
}

func recordDelivered(messages []Message) {
	deliveredCounter.Add(float64(len(messages)))
	for _, msg := range messages {
		deliveredByType.WithLabelValues(msg.EventType).Inc()
	}
}

func recordFailed(messages []Message) {
	failedCounter.Add(float64(len(messages)))
}

func recordDeadLettered(msg Message) {
	dlqCounter.WithLabelValues(msg.Topic).Inc()
}
