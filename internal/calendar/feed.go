// Package calendar renders scheduled activities as an iCalendar feed.
package calendar

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"example.com/clubadmin/internal/domain"
)

// ProductID identifies the feed producer in PRODID.
const ProductID = "-//clubadmin//schedule//EN"

// Feed describes the calendar that wraps the activities.
type Feed struct {
	Name string
	// Domain qualifies event UIDs, e.g. "club.example.com".
	Domain string
}

// Render serialises activities into a VCALENDAR with one VEVENT each. Activities
// keep their order; times are written in UTC.
func (f Feed) Render(activities []domain.Activity, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(ProductID)
	if f.Name != "" {
		cal.SetXWRCalName(f.Name)
	}

	for _, activity := range activities {
		event := cal.AddEvent(f.uid(activity))
		event.SetDtStampTime(stamp.UTC())
		event.SetStartAt(activity.StartAt.UTC())
		event.SetEndAt(activity.EndAt.UTC())
		event.SetSummary(activity.Title)
		if activity.LocationName != "" {
			event.SetLocation(activity.LocationName)
		}
		if desc := describe(activity); desc != "" {
			event.SetDescription(desc)
		}
		if activity.ActivityType != "" {
			event.AddProperty(ics.ComponentPropertyCategories, activity.ActivityType)
		}
	}
	return cal.Serialize()
}

func (f Feed) uid(activity domain.Activity) string {
	host := f.Domain
	if host == "" {
		host = "clubadmin"
	}
	return fmt.Sprintf("%s@%s", activity.ID, host)
}

func describe(activity domain.Activity) string {
	var parts []string
	if d := strings.TrimSpace(activity.Description); d != "" {
		parts = append(parts, d)
	}
	if activity.Cost > 0 {
		parts = append(parts, fmt.Sprintf("Cost: %d credit(s)", activity.Cost))
	} else {
		parts = append(parts, "Free session")
	}
	return strings.Join(parts, "\n")
}
