package schedule

import (
	"strings"
	"time"
)

// VisibilityPublic is applied to every bulk-generated activity.
const VisibilityPublic = "public"

// GeneratedActivity is a dated instance of a template row, ready for submission.
// It shares the dashboard's camelCase field names with TemplateRow.
type GeneratedActivity struct {
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	StartAt      time.Time `json:"startAt"`
	EndAt        time.Time `json:"endAt"`
	LocationName string    `json:"locationName"`
	ActivityType string    `json:"activityType"`
	HostUserID   string    `json:"hostUserId,omitempty"`
	Cost         int       `json:"cost"`
	Icon         string    `json:"icon"`
	Visibility   string    `json:"visibility"`
	Attendees    []string  `json:"attendees"`
}

// Expander turns template rows into activities in the club's local time zone.
type Expander struct {
	// Location is the club time zone row times are interpreted in. Nil means UTC.
	Location *time.Location
	// DefaultHostUserID is used for rows without a host.
	DefaultHostUserID string
}

func (e Expander) location() *time.Location {
	if e.Location == nil {
		return time.UTC
	}
	return e.Location
}

// Expand builds the activity for row in the week that is week weeks after anchor.
func (e Expander) Expand(row TemplateRow, anchor time.Time, week int) (GeneratedActivity, error) {
	date, err := ResolveDate(anchor, row.Day, week)
	if err != nil {
		return GeneratedActivity{}, err
	}
	clock, err := time.Parse(TimeLayout, strings.TrimSpace(row.Time))
	if err != nil {
		return GeneratedActivity{}, ErrInvalidTime
	}
	if row.Duration < 1 {
		return GeneratedActivity{}, ErrInvalidDuration
	}

	y, m, d := date.Date()
	start := time.Date(y, m, d, clock.Hour(), clock.Minute(), 0, 0, e.location())
	end := start.Add(time.Duration(row.Duration) * time.Minute)

	host := strings.TrimSpace(row.HostUserID)
	if host == "" {
		host = e.DefaultHostUserID
	}

	return GeneratedActivity{
		Title:        strings.TrimSpace(row.Title),
		Description:  row.Description,
		StartAt:      start,
		EndAt:        end,
		LocationName: row.Location,
		ActivityType: row.ActivityType,
		HostUserID:   host,
		Cost:         CostFor(row),
		Icon:         IconFor(row.ActivityType, row.Title),
		Visibility:   VisibilityPublic,
		Attendees:    []string{},
	}, nil
}
