//go:build integration

package consumer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"example.com/clubadmin/internal/testsupport"
)

func TestPersistenceHandlerStoresEventOnce(t *testing.T) {
	ctx := context.Background()
	pool := testsupport.StartPostgres(ctx, t)

	handler := NewPersistenceHandler(pool)

	payload := json.RawMessage(`{"activity_id":"abc","club_id":"club-123"}`)
	msg := Message{
		EventType:     "activity.scheduled",
		ClubID:        "club-123",
		SchemaID:      42,
		SchemaSubject: "club_activity_events-value",
		Topic:         "club_activity_events",
		Partition:     0,
		Offset:        5,
		Payload:       payload,
		Timestamp:     time.Now().UTC(),
	}

	duplicates := duplicateCounter.WithLabelValues(msg.Topic)
	before := testutil.ToFloat64(duplicates)

	require.NoError(t, handler.Handle(ctx, msg))
	require.InDelta(t, before, testutil.ToFloat64(duplicates), 0.0001)
	require.NoError(t, handler.Handle(ctx, msg), "redelivery must be ignored")
	require.InDelta(t, before+1, testutil.ToFloat64(duplicates), 0.0001)

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM club_event_log`).Scan(&count))
	require.Equal(t, 1, count)

	var (
		storedPayload []byte
		clubID        string
	)
	require.NoError(t, pool.QueryRow(ctx, `SELECT payload, club_id FROM club_event_log LIMIT 1`).Scan(&storedPayload, &clubID))
	require.JSONEq(t, string(payload), string(storedPayload))
	require.Equal(t, "club-123", clubID)
}
