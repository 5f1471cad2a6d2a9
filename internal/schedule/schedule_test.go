package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveDate(t *testing.T) {
	monday := date(2024, time.June, 3)
	tests := []struct {
		name   string
		anchor time.Time
		day    string
		offset int
		want   time.Time
	}{
		{name: "same day", anchor: monday, day: "Monday", want: monday},
		{name: "later in week", anchor: monday, day: "Wednesday", want: date(2024, time.June, 5)},
		{name: "sunday ends the week", anchor: monday, day: "Sunday", want: date(2024, time.June, 9)},
		{name: "second week", anchor: monday, day: "Friday", offset: 1, want: date(2024, time.June, 14)},
		{name: "lower case name", anchor: monday, day: "tuesday", want: date(2024, time.June, 4)},
		{name: "earlier day rolls forward", anchor: date(2024, time.June, 5), day: "Monday", want: date(2024, time.June, 10)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveDate(tt.anchor, tt.day, tt.offset)
			require.NoError(t, err)
			require.True(t, tt.want.Equal(got), "got %s want %s", got, tt.want)
		})
	}
}

func TestResolveDateUnknownWeekday(t *testing.T) {
	_, err := ResolveDate(date(2024, time.June, 3), "Funday", 0)
	require.ErrorIs(t, err, ErrUnknownWeekday)
}

func TestSnapToMonday(t *testing.T) {
	require.Equal(t, date(2024, time.June, 3), SnapToMonday(date(2024, time.June, 3)))
	require.Equal(t, date(2024, time.June, 10), SnapToMonday(date(2024, time.June, 4)))
	require.Equal(t, date(2024, time.June, 10), SnapToMonday(date(2024, time.June, 9)))
	require.Equal(t, date(2024, time.June, 10), SnapToMonday(time.Date(2024, time.June, 8, 17, 30, 0, 0, time.UTC)))
}

func TestIconFor(t *testing.T) {
	tests := []struct {
		activityType string
		title        string
		want         string
	}{
		{TypeCircuits, "Morning Circuits", IconCircuits},
		{TypeRunning, "Run Club", IconRunning},
		{TypePilates, "Reformer", IconPilates},
		{TypeCardio, "Spin", IconCardio},
		{TypeCardio, "Erg Intervals", IconRowing},
		{TypeCardio, "Indoor Rowing", IconRowing},
		{TypePT, "1:1", IconPT},
		{TypeStrength, "Lifting", IconStrength},
		{"Yoga", "Flow", IconDefault},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, IconFor(tt.activityType, tt.title), "%s/%s", tt.activityType, tt.title)
	}
}

func TestCostForFreeSessions(t *testing.T) {
	require.Equal(t, 0, CostFor(TemplateRow{ActivityType: TypeRunning, Title: "Run Club", Cost: 1}))
	require.Equal(t, 0, CostFor(TemplateRow{ActivityType: TypePilates, Title: "Mat", Cost: 2}))
	require.Equal(t, 0, CostFor(TemplateRow{ActivityType: TypeCircuits, Title: "HYROX Sim", Cost: 3}))
	require.Equal(t, 3, CostFor(TemplateRow{ActivityType: TypeCircuits, Title: "Circuits", Cost: 3}))
}

func TestNormalizeTemplateRepairsIcons(t *testing.T) {
	rows := []TemplateRow{
		{Day: Monday, ActivityType: TypeCardio, Title: "Erg Sprint", Icon: "cardio"},
		{Day: Tuesday, ActivityType: TypeStrength, Title: "Lifting", Icon: ""},
	}
	out := NormalizeTemplate(rows)
	require.Equal(t, IconRowing, out[0].Icon)
	require.Equal(t, IconStrength, out[1].Icon)
	require.Equal(t, "cardio", rows[0].Icon, "input must not be mutated")
}

func TestValidateTemplate(t *testing.T) {
	valid := TemplateRow{Day: Monday, Time: "06:00", Duration: 60, Title: "Run"}
	require.NoError(t, ValidateTemplate([]TemplateRow{valid}))

	bad := valid
	bad.Time = "6am"
	err := ValidateTemplate([]TemplateRow{valid, bad})
	var rowErr *RowError
	require.True(t, errors.As(err, &rowErr))
	require.Equal(t, 1, rowErr.Index)
	require.ErrorIs(t, err, ErrInvalidTime)

	bad = valid
	bad.Duration = 0
	require.ErrorIs(t, ValidateTemplate([]TemplateRow{bad}), ErrInvalidDuration)

	bad = valid
	bad.Day = "Someday"
	require.ErrorIs(t, ValidateTemplate([]TemplateRow{bad}), ErrUnknownWeekday)

	bad = valid
	bad.Cost = -1
	require.ErrorIs(t, ValidateTemplate([]TemplateRow{bad}), ErrNegativeCost)
}

func TestGenerateRunClubExample(t *testing.T) {
	rows := []TemplateRow{{
		Day:          Monday,
		Time:         "06:00",
		Duration:     60,
		ActivityType: TypeRunning,
		Title:        "Run Club",
		Cost:         1,
	}}
	e := Expander{Location: time.UTC}

	plan, err := e.Generate(rows, 2, date(2024, time.June, 3))
	require.NoError(t, err)
	require.Len(t, plan.Activities, 2)
	require.Empty(t, plan.Skipped)

	first, second := plan.Activities[0], plan.Activities[1]
	require.Equal(t, time.Date(2024, time.June, 3, 6, 0, 0, 0, time.UTC), first.StartAt)
	require.Equal(t, time.Date(2024, time.June, 10, 6, 0, 0, 0, time.UTC), second.StartAt)
	for _, a := range plan.Activities {
		require.Equal(t, 0, a.Cost)
		require.Equal(t, 60*time.Minute, a.EndAt.Sub(a.StartAt))
		require.Equal(t, VisibilityPublic, a.Visibility)
		require.Empty(t, a.Attendees)
		require.Equal(t, IconRunning, a.Icon)
	}
}

func TestGenerateCountAndOrder(t *testing.T) {
	rows := []TemplateRow{
		{Day: Wednesday, Time: "18:30", Duration: 45, ActivityType: TypeCircuits, Title: "Circuits", Cost: 2},
		{Day: Monday, Time: "07:00", Duration: 30, ActivityType: TypeStrength, Title: "Strength", Cost: 1},
		{Day: Saturday, Time: "09:15", Duration: 90, ActivityType: TypeCardio, Title: "Erg", Cost: 1},
	}
	e := Expander{Location: time.UTC}

	for weeks := 1; weeks <= 4; weeks++ {
		plan, err := e.Generate(rows, weeks, date(2024, time.June, 3))
		require.NoError(t, err)
		require.Len(t, plan.Activities, weeks*len(rows))
		for i, a := range plan.Activities {
			row := rows[i%len(rows)]
			require.Equal(t, row.Title, a.Title)
			require.Equal(t, time.Duration(row.Duration)*time.Minute, a.EndAt.Sub(a.StartAt))
		}
	}
}

func TestGenerateSkipsUnknownWeekday(t *testing.T) {
	rows := []TemplateRow{
		{Day: "Caturday", Time: "10:00", Duration: 30, Title: "Mystery"},
		{Day: Friday, Time: "10:00", Duration: 30, Title: "Stretch"},
	}
	plan, err := Expander{}.Generate(rows, 3, date(2024, time.June, 3))
	require.NoError(t, err)
	require.Len(t, plan.Activities, 3)
	require.Len(t, plan.Skipped, 3)
	require.Equal(t, 0, plan.Skipped[0].RowIndex)
	require.Equal(t, ErrUnknownWeekday.Error(), plan.Skipped[0].Reason)
}

func TestGenerateRejectsBlankTitles(t *testing.T) {
	rows := []TemplateRow{
		{Day: Monday, Time: "06:00", Duration: 60, Title: " "},
		{Day: Tuesday, Time: "06:00", Duration: 60, Title: "Ok"},
		{Day: Friday, Time: "06:00", Duration: 60, Title: ""},
	}
	_, err := Expander{}.Generate(rows, 1, date(2024, time.June, 3))
	var blank *BlankTitleError
	require.True(t, errors.As(err, &blank))
	require.Equal(t, 2, blank.Count)
	require.Equal(t, []int{0, 2}, blank.Rows)
}

func TestGeneratePreconditions(t *testing.T) {
	rows := []TemplateRow{{Day: Monday, Time: "06:00", Duration: 60, Title: "Run"}}

	_, err := Expander{}.Generate(rows, 0, date(2024, time.June, 3))
	require.ErrorIs(t, err, ErrInvalidWeeks)

	_, err = Expander{}.Generate(rows, 1, date(2024, time.June, 4))
	require.ErrorIs(t, err, ErrStartNotMonday)

	_, err = Expander{}.Generate(nil, 1, date(2024, time.June, 3))
	require.ErrorIs(t, err, ErrEmptyTemplate)
}

func TestExpandUsesClubLocationAndDefaultHost(t *testing.T) {
	loc := time.FixedZone("club", 10*60*60)
	e := Expander{Location: loc, DefaultHostUserID: "coach-1"}

	a, err := e.Expand(TemplateRow{Day: Thursday, Time: "17:45", Duration: 50, Title: "PT", ActivityType: TypePT, Cost: 4}, time.Date(2024, time.June, 3, 0, 0, 0, 0, loc), 0)
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, time.June, 6, 17, 45, 0, 0, loc), a.StartAt)
	require.Equal(t, "coach-1", a.HostUserID)
	require.Equal(t, 4, a.Cost)

	a, err = e.Expand(TemplateRow{Day: Thursday, Time: "17:45", Duration: 50, Title: "PT", HostUserID: "coach-2"}, time.Date(2024, time.June, 3, 0, 0, 0, 0, loc), 0)
	require.NoError(t, err)
	require.Equal(t, "coach-2", a.HostUserID)
}
