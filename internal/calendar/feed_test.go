package calendar

import (
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/require"

	"example.com/clubadmin/internal/domain"
)

func TestRenderRoundTrip(t *testing.T) {
	club := time.FixedZone("club", 2*60*60)
	activities := []domain.Activity{
		{
			ID:           "a1",
			Title:        "Run Club",
			StartAt:      time.Date(2024, time.June, 3, 6, 0, 0, 0, club),
			EndAt:        time.Date(2024, time.June, 3, 7, 0, 0, 0, club),
			LocationName: "Front door",
			ActivityType: "Running",
		},
		{
			ID:          "a2",
			Title:       "Circuits",
			Description: "Bring a towel",
			StartAt:     time.Date(2024, time.June, 5, 18, 30, 0, 0, club),
			EndAt:       time.Date(2024, time.June, 5, 19, 15, 0, 0, club),
			Cost:        2,
		},
	}

	out := Feed{Name: "Club timetable", Domain: "club.test"}.Render(activities, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))
	require.Contains(t, out, "METHOD:PUBLISH")
	require.Contains(t, out, "X-WR-CALNAME:Club timetable")

	cal, err := ics.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 2)

	first := events[0]
	require.Equal(t, "a1@club.test", first.GetProperty(ics.ComponentPropertyUniqueId).Value)
	require.Equal(t, "Run Club", first.GetProperty(ics.ComponentPropertySummary).Value)
	require.Equal(t, "Front door", first.GetProperty(ics.ComponentPropertyLocation).Value)
	start, err := first.GetStartAt()
	require.NoError(t, err)
	require.True(t, start.Equal(activities[0].StartAt), "got %s", start)

	second := events[1]
	require.Nil(t, second.GetProperty(ics.ComponentPropertyLocation))
	end, err := second.GetEndAt()
	require.NoError(t, err)
	require.True(t, end.Equal(activities[1].EndAt), "got %s", end)
}

func TestDescribe(t *testing.T) {
	require.Equal(t, "Free session", describe(domain.Activity{}))
	require.Equal(t, "Bring water\nCost: 3 credit(s)", describe(domain.Activity{Description: " Bring water ", Cost: 3}))
}

func TestRenderEmpty(t *testing.T) {
	out := Feed{}.Render(nil, time.Now())
	require.Contains(t, out, "BEGIN:VCALENDAR")
	require.NotContains(t, out, "BEGIN:VEVENT")
	require.Contains(t, out, "PRODID:"+ProductID)
}
