package outbox

import "example.com/clubadmin/internal/events"

// EventMetadata describes how an event type is routed and validated.
type EventMetadata struct {
	Topic         string
	SchemaSubject string
	Schema        string
}

var catalog = map[string]EventMetadata{
	events.TypeActivityScheduled: {
		Topic:         "club_activity_events",
		SchemaSubject: "club_activity_events-value",
		Schema:        activityScheduledSchema,
	},
	events.TypeScheduleGenerated: {
		Topic:         "club_schedule_runs",
		SchemaSubject: "club_schedule_runs-value",
		Schema:        scheduleGeneratedSchema,
	},
}

// Lookup returns routing metadata for an event type.
func Lookup(eventType string) (EventMetadata, bool) {
	meta, ok := catalog[eventType]
	return meta, ok
}

// Topics lists every topic the outbox publishes to.
func Topics() []string {
	seen := make(map[string]struct{}, len(catalog))
	topics := make([]string, 0, len(catalog))
	for _, meta := range catalog {
		if _, ok := seen[meta.Topic]; ok {
			continue
		}
		seen[meta.Topic] = struct{}{}
		topics = append(topics, meta.Topic)
	}
	return topics
}

const activityScheduledSchema = `{
  "type": "object",
  "title": "ActivityScheduled",
  "properties": {
    "activity_id": {"type": "string"},
    "club_id": {"type": "string"},
    "title": {"type": "string"},
    "activity_type": {"type": "string"},
    "start_at": {"type": "string", "format": "date-time"},
    "end_at": {"type": "string", "format": "date-time"},
    "host_user_id": {"type": "string"},
    "cost": {"type": "integer", "minimum": 0},
    "visibility": {"type": "string"},
    "run_id": {"type": "string"},
    "version": {"type": "string"}
  },
  "required": ["activity_id", "club_id", "title", "activity_type", "start_at", "end_at", "cost", "visibility", "version"],
  "additionalProperties": false
}`

const scheduleGeneratedSchema = `{
  "type": "object",
  "title": "ScheduleGenerated",
  "properties": {
    "run_id": {"type": "string"},
    "club_id": {"type": "string"},
    "admin_id": {"type": "string"},
    "start_date": {"type": "string", "format": "date"},
    "weeks": {"type": "integer", "minimum": 1},
    "requested": {"type": "integer"},
    "created": {"type": "integer"},
    "failed": {"type": "integer"},
    "skipped": {"type": "integer"},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["run_id", "club_id", "admin_id", "start_date", "weeks", "requested", "created", "failed", "skipped", "occurred_at"],
  "additionalProperties": false
}`
