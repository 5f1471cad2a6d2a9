// Package events defines the payloads the service publishes through its outbox.
package events

import "time"

// Event types recorded in the outbox.
const (
	TypeActivityScheduled = "activity.scheduled"
	TypeScheduleGenerated = "schedule.generated"
)

// ActivityScheduled is emitted when an activity is added to a club's timetable.
type ActivityScheduled struct {
	ActivityID   string    `json:"activity_id"`
	ClubID       string    `json:"club_id"`
	Title        string    `json:"title"`
	ActivityType string    `json:"activity_type"`
	StartAt      time.Time `json:"start_at"`
	EndAt        time.Time `json:"end_at"`
	HostUserID   string    `json:"host_user_id,omitempty"`
	Cost         int       `json:"cost"`
	Visibility   string    `json:"visibility"`
	RunID        string    `json:"run_id,omitempty"`
	Version      string    `json:"version"`
}

// ScheduleGenerated summarises one bulk generation run.
type ScheduleGenerated struct {
	RunID      string    `json:"run_id"`
	ClubID     string    `json:"club_id"`
	AdminID    string    `json:"admin_id"`
	StartDate  string    `json:"start_date"`
	Weeks      int       `json:"weeks"`
	Requested  int       `json:"requested"`
	Created    int       `json:"created"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
	OccurredAt time.Time `json:"occurred_at"`
}
