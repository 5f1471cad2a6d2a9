package outbox

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const quarantineReason = "retry limit reached"

// DLQManager replays club events that failed delivery and quarantines entries
// that keep failing.
type DLQManager struct {
	pool       *pgxpool.Pool
	maxRetries int
	baseDelay  time.Duration
	logger     *log.Logger
}

// NewDLQManager constructs a DLQManager with the provided pool and retry configuration.
func NewDLQManager(pool *pgxpool.Pool, maxRetries int, baseDelay time.Duration, logger *log.Logger) *DLQManager {
	if maxRetries <= 0 {
		maxRetries = 5
	}
	if baseDelay <= 0 {
		baseDelay = time.Minute
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[dlq] ", log.LstdFlags)
	}
	return &DLQManager{pool: pool, maxRetries: maxRetries, baseDelay: baseDelay, logger: logger}
}

// DLQPass summarises one RunOnce call.
type DLQPass struct {
	Handled     int
	Requeued    int
	Retried     int
	Quarantined int
	// Backlog is the number of unquarantined entries left afterwards, or -1
	// when it could not be counted.
	Backlog int
}

type dlqOutcome int

const (
	outcomeRequeued dlqOutcome = iota
	outcomeRetried
	outcomeQuarantined
)

// RunOnce processes a batch of due DLQ entries. Per-entry failures are joined
// into the returned error and do not stop the rest of the batch.
func (m *DLQManager) RunOnce(ctx context.Context, batchSize int) (DLQPass, error) {
	const query = `SELECT dlq_id, club_id, event_id, event_type, topic, payload, reason, aggregate_type, aggregate_id, schema_subject, partition_key, retry_count
        FROM outbox_dlq
        WHERE quarantined_at IS NULL AND (next_retry_at IS NULL OR next_retry_at <= NOW())
        ORDER BY created_at
        LIMIT $1`

	pass := DLQPass{Backlog: -1}
	rows, err := m.pool.Query(ctx, query, batchSize)
	if err != nil {
		return pass, err
	}
	entries, err := pgx.CollectRows(rows, scanDLQEntry)
	if err != nil {
		return pass, err
	}

	var errs []error
	for _, entry := range entries {
		outcome, procErr := m.handleEntry(ctx, entry)
		if procErr != nil {
			errs = append(errs, fmt.Errorf("dlq entry %d club_id=%s: %w", entry.ID, entry.ClubID, procErr))
			continue
		}
		switch outcome {
		case outcomeRequeued:
			pass.Requeued++
		case outcomeRetried:
			pass.Retried++
		case outcomeQuarantined:
			pass.Quarantined++
		}
		recordDLQProcessed(entry)
		pass.Handled++
	}
	if backlog, err := countBacklog(ctx, m.pool); err == nil {
		pass.Backlog = backlog
		dlqBacklogGauge.Set(float64(backlog))
	}
	return pass, errors.Join(errs...)
}

// handleEntry requeues a club event into the outbox, or quarantines it once
// retries are exhausted.
func (m *DLQManager) handleEntry(ctx context.Context, entry dlqEntry) (dlqOutcome, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	if entry.RetryCount >= m.maxRetries {
		if _, err := tx.Exec(ctx, `UPDATE outbox_dlq SET quarantined_at = NOW(), quarantine_reason = $1 WHERE dlq_id = $2`, quarantineReason, entry.ID); err != nil {
			return 0, err
		}
		if err := tx.Commit(ctx); err != nil {
			return 0, err
		}
		recordDLQQuarantined(entry)
		m.logger.Printf("quarantined dlq_id=%d club_id=%s event_type=%s aggregate=%s/%s retries=%d last_reason=%q",
			entry.ID, entry.ClubID, entry.EventType, entry.AggregateType, entry.AggregateID, entry.RetryCount, entry.Reason)
		return outcomeQuarantined, nil
	}

	if requeueErr := requeueOutbox(ctx, tx, entry); requeueErr != nil {
		// The failed insert aborted tx; schedule the retry in a fresh one.
		_ = tx.Rollback(ctx)
		if err := m.scheduleRetry(ctx, entry, requeueErr); err != nil {
			return 0, err
		}
		return outcomeRetried, nil
	}

	if _, err := tx.Exec(ctx, `DELETE FROM outbox_dlq WHERE dlq_id = $1`, entry.ID); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	recordDLQRequeued(entry)
	m.logger.Printf("requeued dlq_id=%d club_id=%s event_type=%s aggregate=%s/%s attempt=%d",
		entry.ID, entry.ClubID, entry.EventType, entry.AggregateType, entry.AggregateID, entry.RetryCount+1)
	return outcomeRequeued, nil
}

func (m *DLQManager) scheduleRetry(ctx context.Context, entry dlqEntry, cause error) error {
	delay := m.backoffDelay(entry.RetryCount + 1)
	if _, err := m.pool.Exec(ctx,
		`UPDATE outbox_dlq
            SET retry_count = retry_count + 1,
                last_attempt_at = NOW(),
                next_retry_at = NOW() + $1::interval,
                reason = $2
          WHERE dlq_id = $3`,
		delay, cause.Error(), entry.ID,
	); err != nil {
		return err
	}
	recordDLQRetry(entry)
	m.logger.Printf("retry scheduled dlq_id=%d club_id=%s event_type=%s attempt=%d delay=%s cause=%v",
		entry.ID, entry.ClubID, entry.EventType, entry.RetryCount+1, delay, cause)
	return nil
}

// backoffDelay doubles baseDelay per attempt, capped at one hour.
func (m *DLQManager) backoffDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 31 {
		return time.Hour
	}
	delay := time.Duration(1<<uint(attempt-1)) * m.baseDelay
	if delay > time.Hour || delay <= 0 {
		delay = time.Hour
	}
	return delay
}

// requeueOutbox reinserts the payload into the primary outbox table for replay.
func requeueOutbox(ctx context.Context, tx pgx.Tx, entry dlqEntry) error {
	if entry.SchemaSubject == "" {
		return fmt.Errorf("missing schema_subject for dlq entry %d", entry.ID)
	}
	if _, ok := Lookup(entry.EventType); !ok {
		return fmt.Errorf("no schema metadata for event_type=%s", entry.EventType)
	}

	const stmt = `INSERT INTO outbox (club_id, aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err := tx.Exec(ctx, stmt,
		entry.ClubID,
		entry.AggregateType,
		entry.AggregateID,
		entry.EventType,
		entry.Topic,
		entry.SchemaSubject,
		entry.PartitionKey,
		entry.Payload,
	)
	return err
}

// dlqEntry represents an outbox_dlq row selected for processing.
type dlqEntry struct {
	ID            int64
	ClubID        string
	EventID       int64
	EventType     string
	Topic         string
	Payload       []byte
	Reason        string
	AggregateType string
	AggregateID   string
	SchemaSubject string
	PartitionKey  string
	RetryCount    int
}

func scanDLQEntry(row pgx.CollectableRow) (dlqEntry, error) {
	var entry dlqEntry
	err := row.Scan(&entry.ID, &entry.ClubID, &entry.EventID, &entry.EventType, &entry.Topic, &entry.Payload, &entry.Reason, &entry.AggregateType, &entry.AggregateID, &entry.SchemaSubject, &entry.PartitionKey, &entry.RetryCount)
	return entry, err
}
