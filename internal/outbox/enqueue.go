package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Record is an event to be written to the outbox inside a caller's transaction.
type Record struct {
	ClubID        string
	AggregateType string
	AggregateID   string
	EventType     string
	PartitionKey  string
	Payload       any
}

// Enqueue inserts rec into the outbox using tx. The dedupe key is derived from
// the aggregate and event type, so replays of the same write are ignored.
func Enqueue(ctx context.Context, tx pgx.Tx, rec Record) error {
	meta, ok := Lookup(rec.EventType)
	if !ok {
		return fmt.Errorf("unknown event type: %s", rec.EventType)
	}

	body, err := json.Marshal(rec.Payload)
	if err != nil {
		return err
	}

	partitionKey := rec.PartitionKey
	if partitionKey == "" {
		partitionKey = rec.ClubID
	}

	const stmt = `INSERT INTO outbox (club_id, aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        ON CONFLICT (dedupe_key) DO NOTHING`

	_, err = tx.Exec(ctx, stmt,
		rec.ClubID,
		rec.AggregateType,
		rec.AggregateID,
		rec.EventType,
		meta.Topic,
		meta.SchemaSubject,
		partitionKey,
		body,
		fmt.Sprintf("%s:%s", rec.AggregateID, rec.EventType),
	)
	return err
}
