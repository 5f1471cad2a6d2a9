package domain

import (
	"context"
	"time"

	"example.com/clubadmin/internal/attendance"
	"example.com/clubadmin/internal/schedule"
)

// Activity is a scheduled class or session on a club's timetable.
type Activity struct {
	ID           string
	ClubID       string
	Title        string
	Description  string
	StartAt      time.Time
	EndAt        time.Time
	LocationName string
	ActivityType string
	HostUserID   string
	Cost         int
	Icon         string
	Visibility   string
	Attendees    []string
	// RunID links activities created by the same bulk generation run.
	RunID     string
	Version   string
	CreatedAt time.Time
}

// ScheduleRun summarises one bulk generation run.
type ScheduleRun struct {
	ID        string
	ClubID    string
	AdminID   string
	StartDate time.Time
	Weeks     int
	Requested int
	Created   int
	Failed    int
	Skipped   int
	CreatedAt time.Time
}

// Event is a (possibly multi-day) club event with its attendance.
type Event struct {
	ID           string
	ClubID       string
	Title        string
	Description  string
	LocationName string
	StartAt      time.Time
	EndAt        time.Time
	Attendance   []attendance.Record
}

// Cursor models the pagination token for activity listings.
type Cursor struct {
	StartAt time.Time
	ID      string
}

// ActivityFilter bounds a listing by start time. Zero values are open ends.
type ActivityFilter struct {
	From time.Time
	To   time.Time
}

// ActivityRepository persists activities and generation runs. Implementations
// record the matching outbox events in the same transaction.
type ActivityRepository interface {
	Create(ctx context.Context, activity Activity) error
	Get(ctx context.Context, clubID, activityID string) (*Activity, error)
	List(ctx context.Context, clubID string, filter ActivityFilter, cursor *Cursor, limit int) ([]Activity, *Cursor, error)
	RecordRun(ctx context.Context, run ScheduleRun) error
}

// TemplateRepository stores one bulk template per admin account.
type TemplateRepository interface {
	GetTemplate(ctx context.Context, clubID, adminID string) ([]schedule.TemplateRow, error)
	SaveTemplate(ctx context.Context, clubID, adminID string, rows []schedule.TemplateRow) error
}

// EventRepository loads events with their attendance.
type EventRepository interface {
	GetEvent(ctx context.Context, clubID, eventID string) (*Event, error)
}
