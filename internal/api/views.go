package api

import (
	"time"

	"example.com/clubadmin/internal/domain"
)

// ActivityView exposes full details about an activity.
type ActivityView struct {
	ActivityID   string    `json:"activity_id"`
	ClubID       string    `json:"club_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	StartAt      time.Time `json:"start_at"`
	EndAt        time.Time `json:"end_at"`
	LocationName string    `json:"location_name"`
	ActivityType string    `json:"activity_type"`
	HostUserID   string    `json:"host_user_id,omitempty"`
	Cost         int       `json:"cost"`
	Icon         string    `json:"icon"`
	Visibility   string    `json:"visibility"`
	Attendees    []string  `json:"attendees"`
	RunID        string    `json:"run_id,omitempty"`
	Version      string    `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
}

// ListActivitiesResponse packages list results.
type ListActivitiesResponse struct {
	Items      []ActivityView `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

func toActivityView(a domain.Activity) ActivityView {
	attendees := a.Attendees
	if attendees == nil {
		attendees = []string{}
	}
	return ActivityView{
		ActivityID:   a.ID,
		ClubID:       a.ClubID,
		Title:        a.Title,
		Description:  a.Description,
		StartAt:      a.StartAt,
		EndAt:        a.EndAt,
		LocationName: a.LocationName,
		ActivityType: a.ActivityType,
		HostUserID:   a.HostUserID,
		Cost:         a.Cost,
		Icon:         a.Icon,
		Visibility:   a.Visibility,
		Attendees:    attendees,
		RunID:        a.RunID,
		Version:      a.Version,
		CreatedAt:    a.CreatedAt,
	}
}
