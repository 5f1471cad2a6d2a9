package attendance

import (
	"regexp"
	"strings"
	"time"
)

// DayLayout formats day keys.
const DayLayout = "2006-01-02"

// StatusAttending is compared case-insensitively against Record.Status.
const StatusAttending = "attending"

// Warning reasons.
const (
	ReasonUnmatchedDay    = "unmatched_day"
	ReasonUnparseableDays = "unparseable_selected_days"
	ReasonMalformedDays   = "malformed_selected_days"
	ReasonEmptyUserID     = "missing_user_id"
)

// Record is a user's attendance for an event.
type Record struct {
	ID           string            `json:"id,omitempty"`
	EventID      string            `json:"event_id,omitempty"`
	UserID       string            `json:"user_id"`
	Status       string            `json:"status"`
	SelectedDays SelectedDays      `json:"selected_days"`
	StartTimes   map[string]string `json:"start_times,omitempty"`
}

// IsAttending reports whether the record's status is "attending" in any case.
func (r Record) IsAttending() bool {
	return strings.EqualFold(strings.TrimSpace(r.Status), StatusAttending)
}

// Warning describes data that could not be placed into a day bucket.
type Warning struct {
	UserID string `json:"user_id"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// Grouping is the bucketed view of an event's attending records.
type Grouping struct {
	Days      []string            `json:"days"`
	FullEvent []Record            `json:"full_event"`
	ByDay     map[string][]Record `json:"by_day"`
	Attending []Record            `json:"attending"`
	Warnings  []Warning           `json:"warnings"`
}

// NeedsFallback is true when attendees exist but none could be classified.
// Callers then show Attending ungrouped.
func (g Grouping) NeedsFallback() bool {
	if len(g.Attending) == 0 || len(g.FullEvent) > 0 {
		return false
	}
	for _, bucket := range g.ByDay {
		if len(bucket) > 0 {
			return false
		}
	}
	return true
}

// Bucketer assigns attendees to full-event or per-day buckets.
type Bucketer struct {
	// Location decides calendar days. Nil means UTC.
	Location *time.Location
}

func (b Bucketer) location() *time.Location {
	if b.Location == nil {
		return time.UTC
	}
	return b.Location
}

// DaySpan lists the day keys from start to end inclusive. An end before start
// yields only the start day.
func (b Bucketer) DaySpan(start, end time.Time) []string {
	loc := b.location()
	first := truncateDay(start.In(loc))
	last := truncateDay(end.In(loc))
	days := []string{first.Format(DayLayout)}
	for d := first.AddDate(0, 0, 1); !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(DayLayout))
	}
	return days
}

// Group buckets the attending records of an event spanning start..end.
func (b Bucketer) Group(start, end time.Time, records []Record) Grouping {
	days := b.DaySpan(start, end)
	g := Grouping{
		Days:      days,
		FullEvent: []Record{},
		ByDay:     make(map[string][]Record, len(days)),
		Attending: []Record{},
		Warnings:  []Warning{},
	}
	known := make(map[string]struct{}, len(days))
	for _, day := range days {
		g.ByDay[day] = []Record{}
		known[day] = struct{}{}
	}

	fullSeen := make(map[string]struct{})
	daySeen := make(map[string]map[string]struct{}, len(days))

	for _, rec := range records {
		if !rec.IsAttending() {
			continue
		}
		g.Attending = append(g.Attending, rec)
		if strings.TrimSpace(rec.UserID) == "" {
			g.Warnings = append(g.Warnings, Warning{Value: rec.ID, Reason: ReasonEmptyUserID})
		}

		sel := rec.SelectedDays
		switch {
		case sel.Kind == DaysUnparseable:
			g.Warnings = append(g.Warnings, Warning{UserID: rec.UserID, Value: sel.Raw, Reason: ReasonUnparseableDays})
			continue
		case sel.Malformed():
			g.Warnings = append(g.Warnings, Warning{UserID: rec.UserID, Value: sel.Raw, Reason: ReasonMalformedDays})
		}
		for _, raw := range sel.Invalid {
			g.Warnings = append(g.Warnings, Warning{UserID: rec.UserID, Value: raw, Reason: ReasonUnmatchedDay})
		}

		matched := make([]string, 0, len(sel.Values))
		covered := make(map[string]struct{}, len(days))
		for _, raw := range sel.Values {
			day, ok := b.matchDay(raw, known)
			if !ok {
				g.Warnings = append(g.Warnings, Warning{UserID: rec.UserID, Value: raw, Reason: ReasonUnmatchedDay})
				continue
			}
			if _, dup := covered[day]; dup {
				continue
			}
			covered[day] = struct{}{}
			matched = append(matched, day)
		}

		noSelection := len(sel.Values) == 0 && len(sel.Invalid) == 0
		// Distinct days, so a repeated day cannot stand in for one that was never picked.
		if noSelection || len(covered) == len(days) {
			addOnce(&g.FullEvent, fullSeen, rec)
			continue
		}

		for _, day := range matched {
			seen, ok := daySeen[day]
			if !ok {
				seen = make(map[string]struct{})
				daySeen[day] = seen
			}
			bucket := g.ByDay[day]
			addOnce(&bucket, seen, rec)
			g.ByDay[day] = bucket
		}
	}
	return g
}

// matchDay resolves a selected day against the span: the normalised value is
// tried first, then the raw value up to any "T" time separator.
func (b Bucketer) matchDay(raw string, known map[string]struct{}) (string, bool) {
	if day, ok := b.NormalizeDay(raw); ok {
		if _, hit := known[day]; hit {
			return day, true
		}
	}
	prefix, _, _ := strings.Cut(strings.TrimSpace(raw), "T")
	if _, hit := known[prefix]; hit {
		return prefix, true
	}
	return "", false
}

var dayPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

var dayLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006/01/02",
	"Jan 2, 2006",
	"2 Jan 2006",
	time.RFC1123,
	time.RFC1123Z,
}

// NormalizeDay converts a selected day into a day key. Values already shaped
// YYYY-MM-DD pass through; others are parsed and re-formatted in the bucketer's zone.
func (b Bucketer) NormalizeDay(value string) (string, bool) {
	v := strings.TrimSpace(value)
	if dayPattern.MatchString(v) {
		return v, true
	}
	for _, layout := range dayLayouts {
		if t, err := time.ParseInLocation(layout, v, b.location()); err == nil {
			return t.In(b.location()).Format(DayLayout), true
		}
	}
	return v, false
}

func addOnce(bucket *[]Record, seen map[string]struct{}, rec Record) {
	if key, ok := dedupeKey(rec); ok {
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
	}
	*bucket = append(*bucket, rec)
}

// dedupeKey identifies a record by user, falling back to the record id when the
// user is missing. Records with neither are never merged.
func dedupeKey(rec Record) (string, bool) {
	if id := strings.TrimSpace(rec.UserID); id != "" {
		return "user:" + id, true
	}
	if id := strings.TrimSpace(rec.ID); id != "" {
		return "record:" + id, true
	}
	return "", false
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
