// Package domain defines the business workflows behind the club admin API.
package domain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"example.com/clubadmin/internal/attendance"
	"example.com/clubadmin/internal/observability"
	"example.com/clubadmin/internal/schedule"
)

var (
	// ErrActivityNotFound is returned when an activity cannot be located.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrEventNotFound is returned when an event cannot be located.
	ErrEventNotFound = errors.New("event not found")
	// ErrInvalidActivity wraps activity validation failures.
	ErrInvalidActivity = errors.New("invalid activity")
)

// ActivityVersion is stamped on every persisted activity and its events.
const ActivityVersion = "v1"

// Service orchestrates scheduling and attendance workflows.
type Service struct {
	activities ActivityRepository
	templates  TemplateRepository
	events     EventRepository

	expander  schedule.Expander
	bucketer  attendance.Bucketer
	batchSize int
	logger    *log.Logger
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger overrides the service logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLocation sets the club time zone used for template times and day keys.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		s.expander.Location = loc
		s.bucketer.Location = loc
	}
}

// WithDefaultHost sets the host assigned to template rows that name none.
func WithDefaultHost(userID string) Option {
	return func(s *Service) {
		s.expander.DefaultHostUserID = strings.TrimSpace(userID)
	}
}

// WithBatchSize sets how many generated activities are submitted concurrently.
func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService constructs a Service.
func NewService(activities ActivityRepository, templates TemplateRepository, events EventRepository, opts ...Option) *Service {
	s := &Service{
		activities: activities,
		templates:  templates,
		events:     events,
		batchSize:  DefaultBatchSize,
		logger:     log.New(io.Discard, "", 0),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the club time zone.
func (s *Service) Location() *time.Location {
	if s.expander.Location == nil {
		return time.UTC
	}
	return s.expander.Location
}

// ValidateDraft checks an activity before it is persisted.
func ValidateDraft(draft schedule.GeneratedActivity) error {
	switch {
	case strings.TrimSpace(draft.Title) == "":
		return fmt.Errorf("%w: title is required", ErrInvalidActivity)
	case draft.StartAt.IsZero():
		return fmt.Errorf("%w: start_at is required", ErrInvalidActivity)
	case !draft.EndAt.After(draft.StartAt):
		return fmt.Errorf("%w: end_at must be after start_at", ErrInvalidActivity)
	case draft.Cost < 0:
		return fmt.Errorf("%w: cost cannot be negative", ErrInvalidActivity)
	}
	return nil
}

// CreateActivity validates and persists a single activity.
func (s *Service) CreateActivity(ctx context.Context, clubID string, draft schedule.GeneratedActivity) (*Activity, error) {
	return s.createActivity(ctx, clubID, "", draft)
}

func (s *Service) createActivity(ctx context.Context, clubID, runID string, draft schedule.GeneratedActivity) (*Activity, error) {
	if err := ValidateDraft(draft); err != nil {
		return nil, err
	}

	visibility := strings.TrimSpace(draft.Visibility)
	if visibility == "" {
		visibility = schedule.VisibilityPublic
	}
	icon := strings.TrimSpace(draft.Icon)
	if icon == "" {
		icon = schedule.IconFor(draft.ActivityType, draft.Title)
	}
	attendees := draft.Attendees
	if attendees == nil {
		attendees = []string{}
	}

	activity := Activity{
		ID:           uuid.NewString(),
		ClubID:       clubID,
		Title:        strings.TrimSpace(draft.Title),
		Description:  draft.Description,
		StartAt:      draft.StartAt.UTC(),
		EndAt:        draft.EndAt.UTC(),
		LocationName: draft.LocationName,
		ActivityType: draft.ActivityType,
		HostUserID:   draft.HostUserID,
		Cost:         draft.Cost,
		Icon:         icon,
		Visibility:   visibility,
		Attendees:    attendees,
		RunID:        runID,
		Version:      ActivityVersion,
		CreatedAt:    s.now(),
	}
	if err := s.activities.Create(ctx, activity); err != nil {
		return nil, err
	}
	return &activity, nil
}

// GetActivity fetches by ID.
func (s *Service) GetActivity(ctx context.Context, clubID, activityID string) (*Activity, error) {
	activity, err := s.activities.Get(ctx, clubID, activityID)
	if err != nil {
		return nil, err
	}
	if activity == nil {
		return nil, ErrActivityNotFound
	}
	return activity, nil
}

// ListActivities returns a page of activities ordered by start time.
func (s *Service) ListActivities(ctx context.Context, clubID string, filter ActivityFilter, cursor *Cursor, limit int) ([]Activity, *Cursor, error) {
	return s.activities.List(ctx, clubID, filter, cursor, limit)
}

// GetTemplate loads the admin's bulk template with icons repaired.
func (s *Service) GetTemplate(ctx context.Context, clubID, adminID string) ([]schedule.TemplateRow, error) {
	rows, err := s.templates.GetTemplate(ctx, clubID, adminID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []schedule.TemplateRow{}, nil
	}
	return schedule.NormalizeTemplate(rows), nil
}

// SaveTemplate validates, normalises and stores the admin's bulk template.
func (s *Service) SaveTemplate(ctx context.Context, clubID, adminID string, rows []schedule.TemplateRow) ([]schedule.TemplateRow, error) {
	if err := schedule.ValidateTemplate(rows); err != nil {
		return nil, err
	}
	normalized := schedule.NormalizeTemplate(rows)
	if normalized == nil {
		normalized = []schedule.TemplateRow{}
	}
	if err := s.templates.SaveTemplate(ctx, clubID, adminID, normalized); err != nil {
		return nil, err
	}
	return normalized, nil
}

// GetEvent fetches an event with its attendance.
func (s *Service) GetEvent(ctx context.Context, clubID, eventID string) (*Event, error) {
	event, err := s.events.GetEvent(ctx, clubID, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	return event, nil
}

// GroupAttendees buckets an event's attending records by selected day.
func (s *Service) GroupAttendees(ctx context.Context, clubID, eventID string) (*Event, attendance.Grouping, error) {
	event, err := s.GetEvent(ctx, clubID, eventID)
	if err != nil {
		return nil, attendance.Grouping{}, err
	}

	grouping := s.bucketer.Group(event.StartAt, event.EndAt, event.Attendance)
	for _, w := range grouping.Warnings {
		observability.RecordBucketingWarning(w.Reason)
		s.logger.Printf("attendance warning event_id=%s user_id=%s reason=%s value=%q", event.ID, w.UserID, w.Reason, w.Value)
	}
	if grouping.NeedsFallback() {
		observability.RecordBucketingFallback()
		s.logger.Printf("attendance grouping fell back to flat list event_id=%s attending=%d", event.ID, len(grouping.Attending))
	}
	return event, grouping, nil
}
