package outbox

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

var dlqLabels = []string{"topic", "event_type"}

var (
	dlqProcessedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "dlq",
		Name:      "messages_processed_total",
		Help:      "Dead-lettered club events handled in a DLQ pass without error.",
	}, dlqLabels)

	dlqRequeuedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "dlq",
		Name:      "messages_requeued_total",
		Help:      "Dead-lettered club events reinserted into the outbox for another delivery attempt.",
	}, dlqLabels)

	dlqQuarantinedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "dlq",
		Name:      "messages_quarantined_total",
		Help:      "Club events quarantined after DLQ_MAX_RETRIES failed replays.",
	}, dlqLabels)

	dlqRetryCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "dlq",
		Name:      "retry_scheduled_total",
		Help:      "Replays that failed to reach the outbox and were rescheduled with backoff.",
	}, dlqLabels)

	dlqBacklogGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "dlq",
		Name:      "queued_messages",
		Help:      "Club events waiting in outbox_dlq, excluding quarantined entries.",
	})
)

func init() {
	prometheus.MustRegister(dlqProcessedCounter, dlqRequeuedCounter, dlqQuarantinedCounter, dlqRetryCounter, dlqBacklogGauge)
}

func incDLQ(vec *prometheus.CounterVec, entry dlqEntry) {
	vec.WithLabelValues(entry.Topic, entry.EventType).Inc()
}

func recordDLQProcessed(entry dlqEntry)   { incDLQ(dlqProcessedCounter, entry) }
func recordDLQRequeued(entry dlqEntry)    { incDLQ(dlqRequeuedCounter, entry) }
func recordDLQQuarantined(entry dlqEntry) { incDLQ(dlqQuarantinedCounter, entry) }
func recordDLQRetry(entry dlqEntry)       { incDLQ(dlqRetryCounter, entry) }

func countBacklog(ctx context.Context, pool *pgxpool.Pool) (int, error) {
	var count int
	err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox_dlq WHERE quarantined_at IS NULL`).Scan(&count)
	return count, err
}
