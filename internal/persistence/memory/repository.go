// Package memory provides in-process repositories for local development and tests.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"example.com/clubadmin/internal/domain"
	"example.com/clubadmin/internal/observability"
	"example.com/clubadmin/internal/schedule"
)

// Repository stores activities, templates and events in memory.
type Repository struct {
	mu         sync.RWMutex
	activities map[string]domain.Activity
	runs       []domain.ScheduleRun
	templates  map[string][]schedule.TemplateRow
	events     map[string]domain.Event
}

// NewRepository constructs an empty Repository.
func NewRepository() *Repository {
	return &Repository{
		activities: make(map[string]domain.Activity),
		templates:  make(map[string][]schedule.TemplateRow),
		events:     make(map[string]domain.Event),
	}
}

func scopedKey(clubID, id string) string {
	return clubID + "/" + id
}

// Create implements domain.ActivityRepository.
func (r *Repository) Create(ctx context.Context, activity domain.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(activity.ID) == "" {
		activity.ID = uuid.NewString()
	}
	activity.Attendees = slices.Clone(activity.Attendees)
	r.activities[scopedKey(activity.ClubID, activity.ID)] = activity
	observability.RecordActivityPersisted(activity.CreatedAt)
	return nil
}

// Get implements domain.ActivityRepository.
func (r *Repository) Get(ctx context.Context, clubID, activityID string) (*domain.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	activity, ok := r.activities[scopedKey(clubID, activityID)]
	if !ok {
		return nil, nil
	}
	return &activity, nil
}

// List implements domain.ActivityRepository, ordering by start time then id.
func (r *Repository) List(ctx context.Context, clubID string, filter domain.ActivityFilter, cursor *domain.Cursor, limit int) ([]domain.Activity, *domain.Cursor, error) {
	r.mu.RLock()
	matches := make([]domain.Activity, 0)
	for _, a := range r.activities {
		if a.ClubID != clubID {
			continue
		}
		if !filter.From.IsZero() && a.StartAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !a.StartAt.Before(filter.To) {
			continue
		}
		matches = append(matches, a)
	}
	r.mu.RUnlock()

	slices.SortFunc(matches, func(a, b domain.Activity) int {
		if c := a.StartAt.Compare(b.StartAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	if cursor != nil {
		idx := slices.IndexFunc(matches, func(a domain.Activity) bool {
			c := a.StartAt.Compare(cursor.StartAt)
			return c > 0 || (c == 0 && a.ID > cursor.ID)
		})
		if idx < 0 {
			return []domain.Activity{}, nil, nil
		}
		matches = matches[idx:]
	}

	var next *domain.Cursor
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	if limit > 0 && len(matches) == limit {
		last := matches[len(matches)-1]
		next = &domain.Cursor{StartAt: last.StartAt, ID: last.ID}
	}
	return matches, next, nil
}

// RecordRun implements domain.ActivityRepository.
func (r *Repository) RecordRun(ctx context.Context, run domain.ScheduleRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	return nil
}

// Runs returns the recorded generation runs in order.
func (r *Repository) Runs() []domain.ScheduleRun {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.runs)
}

// GetTemplate implements domain.TemplateRepository.
func (r *Repository) GetTemplate(ctx context.Context, clubID, adminID string) ([]schedule.TemplateRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.templates[scopedKey(clubID, adminID)]), nil
}

// SaveTemplate implements domain.TemplateRepository.
func (r *Repository) SaveTemplate(ctx context.Context, clubID, adminID string, rows []schedule.TemplateRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[scopedKey(clubID, adminID)] = slices.Clone(rows)
	return nil
}

// PutEvent stores an event, replacing any previous version.
func (r *Repository) PutEvent(event domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if strings.TrimSpace(event.ID) == "" {
		event.ID = uuid.NewString()
	}
	event.Attendance = slices.Clone(event.Attendance)
	r.events[scopedKey(event.ClubID, event.ID)] = event
}

// GetEvent implements domain.EventRepository.
func (r *Repository) GetEvent(ctx context.Context, clubID, eventID string) (*domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	event, ok := r.events[scopedKey(clubID, eventID)]
	if !ok {
		return nil, nil
	}
	event.Attendance = slices.Clone(event.Attendance)
	return &event, nil
}

var _ interface {
	domain.ActivityRepository
	domain.TemplateRepository
	domain.EventRepository
} = (*Repository)(nil)
