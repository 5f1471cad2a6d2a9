// Package schedule expands weekly bulk templates into concrete club activities.
package schedule

import (
	"errors"
	"strings"
	"time"
)

// Day names accepted in template rows.
const (
	Monday    = "Monday"
	Tuesday   = "Tuesday"
	Wednesday = "Wednesday"
	Thursday  = "Thursday"
	Friday    = "Friday"
	Saturday  = "Saturday"
	Sunday    = "Sunday"
)

// ValidDays lists the day names in Monday-first order.
var ValidDays = []string{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// ErrUnknownWeekday is returned when a row names a day outside ValidDays.
var ErrUnknownWeekday = errors.New("unknown weekday")

var weekdayIndex = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday maps a day name (any case) to its time.Weekday.
func ParseWeekday(name string) (time.Weekday, bool) {
	wd, ok := weekdayIndex[strings.ToLower(strings.TrimSpace(name))]
	return wd, ok
}

// ResolveDate returns the calendar date of the named day in the week that is
// weekOffset weeks after anchor. The target never falls before anchor within
// the offset week: a day earlier in the week than anchor rolls to the next 7-day window.
func ResolveDate(anchor time.Time, day string, weekOffset int) (time.Time, error) {
	target, ok := ParseWeekday(day)
	if !ok {
		return time.Time{}, ErrUnknownWeekday
	}
	daysToAdd := int(target) - int(anchor.Weekday())
	if daysToAdd < 0 {
		daysToAdd += 7
	}
	return anchor.AddDate(0, 0, weekOffset*7+daysToAdd), nil
}

// SnapToMonday advances date to the following Monday unless it already is one.
// The time of day is dropped.
func SnapToMonday(date time.Time) time.Time {
	y, m, d := date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, date.Location())
	if day.Weekday() == time.Monday {
		return day
	}
	shift := (int(time.Monday) - int(day.Weekday()) + 7) % 7
	return day.AddDate(0, 0, shift)
}
