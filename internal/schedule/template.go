package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Activity types offered in the template editor. Rows may carry other values.
const (
	TypeCircuits = "Circuits"
	TypeRunning  = "Running"
	TypePilates  = "Pilates"
	TypeCardio   = "Cardio"
	TypePT       = "PT"
	TypeStrength = "Strength"
)

// Icon tags rendered by the dashboard.
const (
	IconCircuits = "circuits"
	IconRunning  = "running"
	IconPilates  = "pilates"
	IconCardio   = "cardio"
	IconRowing   = "rowing"
	IconPT       = "pt"
	IconStrength = "strength"
	IconDefault  = "activity"
)

// TimeLayout is the HH:MM layout of TemplateRow.Time.
const TimeLayout = "15:04"

// Template validation errors.
var (
	ErrInvalidTime     = errors.New("time must be HH:MM")
	ErrInvalidDuration = errors.New("duration must be at least 1 minute")
	ErrNegativeCost    = errors.New("cost cannot be negative")
)

// TemplateRow is one recurring weekly slot of a bulk template.
type TemplateRow struct {
	Day          string `json:"day"`
	Time         string `json:"time"`
	Duration     int    `json:"duration"`
	ActivityType string `json:"activityType"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Location     string `json:"location"`
	HostUserID   string `json:"hostUserId,omitempty"`
	Cost         int    `json:"cost"`
	Icon         string `json:"icon"`
}

// RowError ties a validation failure to its row position.
type RowError struct {
	Index int
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Index+1, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Validate checks the fields the editor enforces before a template is saved.
// Titles are not checked here: blank titles are rejected at generation time.
func (r TemplateRow) Validate() error {
	if _, ok := ParseWeekday(r.Day); !ok {
		return ErrUnknownWeekday
	}
	if _, err := time.Parse(TimeLayout, strings.TrimSpace(r.Time)); err != nil {
		return ErrInvalidTime
	}
	if r.Duration < 1 {
		return ErrInvalidDuration
	}
	if r.Cost < 0 {
		return ErrNegativeCost
	}
	return nil
}

// ValidateTemplate returns the first invalid row wrapped in a *RowError.
func ValidateTemplate(rows []TemplateRow) error {
	for i, row := range rows {
		if err := row.Validate(); err != nil {
			return &RowError{Index: i, Err: err}
		}
	}
	return nil
}

// IconFor derives the icon tag from the activity type, using the title to
// tell rowing sessions apart from other cardio.
func IconFor(activityType, title string) string {
	switch strings.ToLower(strings.TrimSpace(activityType)) {
	case "circuits":
		return IconCircuits
	case "running":
		return IconRunning
	case "pilates":
		return IconPilates
	case "cardio":
		t := strings.ToLower(title)
		if strings.Contains(t, "erg") || strings.Contains(t, "rowing") {
			return IconRowing
		}
		return IconCardio
	case "pt":
		return IconPT
	case "strength":
		return IconStrength
	default:
		return IconDefault
	}
}

// IsFree reports whether sessions of this type or title never cost credits.
func IsFree(activityType, title string) bool {
	switch strings.ToLower(strings.TrimSpace(activityType)) {
	case "running", "pilates":
		return true
	}
	return strings.Contains(strings.ToLower(title), "hyrox")
}

// CostFor applies the free-session rule to the row's stored cost.
func CostFor(row TemplateRow) int {
	if IsFree(row.ActivityType, row.Title) {
		return 0
	}
	return row.Cost
}

// NormalizeTemplate returns a copy of rows with icons recomputed. Stored
// templates predating a mapping change are repaired this way on load.
func NormalizeTemplate(rows []TemplateRow) []TemplateRow {
	out := make([]TemplateRow, len(rows))
	for i, row := range rows {
		row.Icon = IconFor(row.ActivityType, row.Title)
		out[i] = row
	}
	return out
}
