package attendance

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	eventStart = time.Date(2024, time.June, 3, 9, 0, 0, 0, time.UTC)
	eventEnd   = time.Date(2024, time.June, 5, 17, 0, 0, 0, time.UTC)
)

func decodeRecords(t *testing.T, raw string) []Record {
	t.Helper()
	var records []Record
	require.NoError(t, json.Unmarshal([]byte(raw), &records))
	return records
}

func userIDs(records []Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.UserID)
	}
	return out
}

func TestSelectedDaysDecoding(t *testing.T) {
	tests := []struct {
		name string
		json string
		kind SelectedDaysKind
		want []string
	}{
		{name: "null", json: `null`, kind: DaysAbsent},
		{name: "array", json: `["2024-01-01","2024-01-02"]`, kind: DaysList, want: []string{"2024-01-01", "2024-01-02"}},
		{name: "empty array", json: `[]`, kind: DaysAbsent},
		{name: "json string", json: `"[\"2024-01-01\",\"2024-01-02\"]"`, kind: DaysJSONString, want: []string{"2024-01-01", "2024-01-02"}},
		{name: "comma list", json: `"2024-01-01, 2024-01-02"`, kind: DaysDelimited, want: []string{"2024-01-01", "2024-01-02"}},
		{name: "single", json: `"2024-01-01"`, kind: DaysSingle, want: []string{"2024-01-01"}},
		{name: "empty string", json: `""`, kind: DaysAbsent},
		{name: "broken json string", json: `"[\"2024-01-01\""`, kind: DaysSingle, want: []string{`["2024-01-01"`}},
		{name: "broken json list", json: `"[2024-01-01, 2024-01-02]"`, kind: DaysDelimited, want: []string{"[2024-01-01", "2024-01-02]"}},
		{name: "number", json: `42`, kind: DaysUnparseable},
		{name: "object", json: `{"days":1}`, kind: DaysUnparseable},
		{name: "mixed array", json: `["2024-01-01", 3]`, kind: DaysList, want: []string{"2024-01-01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d SelectedDays
			require.NoError(t, json.Unmarshal([]byte(tt.json), &d))
			require.Equal(t, tt.kind, d.Kind)
			if tt.want != nil {
				require.Equal(t, tt.want, d.Values)
			}
		})
	}
}

func TestSelectedDaysMissingField(t *testing.T) {
	records := decodeRecords(t, `[{"user_id":"u1","status":"attending"}]`)
	require.Equal(t, DaysAbsent, records[0].SelectedDays.Kind)
}

func TestDaySpan(t *testing.T) {
	b := Bucketer{}
	require.Equal(t, []string{"2024-06-03", "2024-06-04", "2024-06-05"}, b.DaySpan(eventStart, eventEnd))
	require.Equal(t, []string{"2024-06-03"}, b.DaySpan(eventStart, eventStart.Add(time.Hour)))
	require.Equal(t, []string{"2024-06-03"}, b.DaySpan(eventStart, eventStart.Add(-48*time.Hour)))

	loc := time.FixedZone("club", -5*60*60)
	require.Equal(t, []string{"2024-06-03", "2024-06-04"}, Bucketer{Location: loc}.DaySpan(
		time.Date(2024, time.June, 3, 23, 0, 0, 0, time.UTC),
		time.Date(2024, time.June, 5, 3, 0, 0, 0, time.UTC),
	))
}

func TestGroupExampleScenario(t *testing.T) {
	records := decodeRecords(t, `[
		{"user_id":"u1","status":"attending","selected_days":"[\"2024-06-04\"]"},
		{"user_id":"u2","status":"Attending","selected_days":null}
	]`)

	g := Bucketer{}.Group(eventStart, eventEnd, records)

	require.Equal(t, []string{"u2"}, userIDs(g.FullEvent))
	require.Equal(t, []string{"u1"}, userIDs(g.ByDay["2024-06-04"]))
	require.Empty(t, g.ByDay["2024-06-03"])
	require.Empty(t, g.ByDay["2024-06-05"])
	require.Empty(t, g.Warnings)
	require.False(t, g.NeedsFallback())
}

func TestGroupFiltersNonAttending(t *testing.T) {
	records := []Record{
		{UserID: "u1", Status: "declined"},
		{UserID: "u2", Status: " ATTENDING "},
		{UserID: "u3", Status: "maybe", SelectedDays: Days("2024-06-03")},
	}
	g := Bucketer{}.Group(eventStart, eventEnd, records)
	require.Equal(t, []string{"u2"}, userIDs(g.Attending))
	require.Equal(t, []string{"u2"}, userIDs(g.FullEvent))
	require.Empty(t, g.ByDay["2024-06-03"])
}

func TestGroupAllDaysIsFullEvent(t *testing.T) {
	records := []Record{
		{UserID: "u1", Status: "attending", SelectedDays: Days("2024-06-03", "2024-06-04", "2024-06-05")},
		{UserID: "u2", Status: "attending", SelectedDays: ParseSelectedDays("2024-06-05T08:00:00Z,2024-06-03,2024-06-04")},
	}
	g := Bucketer{}.Group(eventStart, eventEnd, records)
	require.Equal(t, []string{"u1", "u2"}, userIDs(g.FullEvent))
	for _, day := range g.Days {
		require.Empty(t, g.ByDay[day])
	}
}

func TestGroupSubsetLandsInExactlyThoseDays(t *testing.T) {
	records := []Record{
		{UserID: "u1", Status: "attending", SelectedDays: Days("2024-06-03", "2024-06-05")},
	}
	g := Bucketer{}.Group(eventStart, eventEnd, records)
	require.Empty(t, g.FullEvent)
	require.Equal(t, []string{"u1"}, userIDs(g.ByDay["2024-06-03"]))
	require.Empty(t, g.ByDay["2024-06-04"])
	require.Equal(t, []string{"u1"}, userIDs(g.ByDay["2024-06-05"]))
}

func TestGroupDuplicateDaysAreNotFullEvent(t *testing.T) {
	records := []Record{
		{UserID: "u1", Status: "attending", SelectedDays: Days("2024-06-03", "2024-06-03", "2024-06-04")},
	}
	g := Bucketer{}.Group(eventStart, eventEnd, records)
	require.Empty(t, g.FullEvent)
	require.Len(t, g.ByDay["2024-06-03"], 1)
	require.Len(t, g.ByDay["2024-06-04"], 1)
}

func TestGroupJSONStringAndArrayAgree(t *testing.T) {
	fromString := decodeRecords(t, `[{"user_id":"u1","status":"attending","selected_days":"[\"2024-06-03\",\"2024-06-04\"]"}]`)
	fromArray := decodeRecords(t, `[{"user_id":"u1","status":"attending","selected_days":["2024-06-03","2024-06-04"]}]`)

	a := Bucketer{}.Group(eventStart, eventEnd, fromString)
	b := Bucketer{}.Group(eventStart, eventEnd, fromArray)

	require.Equal(t, userIDs(a.FullEvent), userIDs(b.FullEvent))
	for _, day := range a.Days {
		require.Equal(t, userIDs(a.ByDay[day]), userIDs(b.ByDay[day]), day)
	}
}

func TestGroupIsIdempotentAndDeduplicates(t *testing.T) {
	records := []Record{
		{UserID: "u1", Status: "attending", SelectedDays: Days("2024-06-04")},
		{UserID: "u1", Status: "attending", SelectedDays: Days("2024-06-04")},
		{UserID: "u2", Status: "attending"},
		{UserID: "u2", Status: "attending"},
	}
	bucketer := Bucketer{}
	first := bucketer.Group(eventStart, eventEnd, records)
	second := bucketer.Group(eventStart, eventEnd, records)

	require.Equal(t, first, second)
	require.Equal(t, []string{"u1"}, userIDs(first.ByDay["2024-06-04"]))
	require.Equal(t, []string{"u2"}, userIDs(first.FullEvent))
}

func TestGroupMatchesTimestampPrefix(t *testing.T) {
	records := []Record{
		{UserID: "u1", Status: "attending", SelectedDays: Days("2024-06-04T00:00:00.000Z")},
		{UserID: "u2", Status: "attending", SelectedDays: Days("2024-06-05Tjunk")},
	}
	g := Bucketer{}.Group(eventStart, eventEnd, records)
	require.Equal(t, []string{"u1"}, userIDs(g.ByDay["2024-06-04"]))
	require.Equal(t, []string{"u2"}, userIDs(g.ByDay["2024-06-05"]))
	require.Empty(t, g.Warnings)
}

func TestGroupReportsUnmatchedDays(t *testing.T) {
	records := []Record{
		{UserID: "u1", Status: "attending", SelectedDays: Days("2024-06-04", "2024-07-01", "someday")},
	}
	g := Bucketer{}.Group(eventStart, eventEnd, records)
	require.Equal(t, []string{"u1"}, userIDs(g.ByDay["2024-06-04"]))
	require.Len(t, g.Warnings, 2)
	require.Equal(t, ReasonUnmatchedDay, g.Warnings[0].Reason)
	require.Equal(t, "2024-07-01", g.Warnings[0].Value)
	require.Equal(t, "someday", g.Warnings[1].Value)
}

func TestSelectedDaysRepairs(t *testing.T) {
	var d SelectedDays
	require.NoError(t, json.Unmarshal([]byte(`"[2024-06-04]"`), &d))
	require.True(t, d.Malformed())
	require.Equal(t, "[2024-06-04]", d.Raw)

	require.NoError(t, json.Unmarshal([]byte(`["2024-06-04", 3, {"a":1}]`), &d))
	require.False(t, d.Malformed())
	require.Equal(t, []string{"2024-06-04"}, d.Values)
	require.Equal(t, []string{"3", `{"a":1}`}, d.Invalid)

	require.NoError(t, json.Unmarshal([]byte(`"[\"2024-06-04\", 5]"`), &d))
	require.Equal(t, DaysJSONString, d.Kind)
	require.Equal(t, []string{"2024-06-04"}, d.Values)
	require.Equal(t, []string{"5"}, d.Invalid)

	require.NoError(t, json.Unmarshal([]byte(`42`), &d))
	require.False(t, d.Malformed())
	require.Equal(t, DaysUnparseable, d.Kind)
}

func TestGroupMalformedDaysAreNeverFullEvent(t *testing.T) {
	tests := []struct {
		name     string
		json     string
		reasons  []string
		wantDays map[string][]string
	}{
		{
			name:    "broken json single",
			json:    `"[2024-06-04]"`,
			reasons: []string{ReasonMalformedDays, ReasonUnmatchedDay},
		},
		{
			name:    "broken json list",
			json:    `"[\"2024-06-04\", 2024-06-05]"`,
			reasons: []string{ReasonMalformedDays, ReasonUnmatchedDay, ReasonUnmatchedDay},
		},
		{
			name:    "number array",
			json:    `[20240604]`,
			reasons: []string{ReasonUnmatchedDay},
		},
		{
			name:     "mixed array keeps strings",
			json:     `["2024-06-04", 3]`,
			reasons:  []string{ReasonUnmatchedDay},
			wantDays: map[string][]string{"2024-06-04": {"u1"}},
		},
		{
			name:    "object",
			json:    `{"days":1}`,
			reasons: []string{ReasonUnparseableDays},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := decodeRecords(t, `[{"user_id":"u1","status":"attending","selected_days":`+tt.json+`}]`)
			g := Bucketer{}.Group(eventStart, eventEnd, records)

			require.Empty(t, g.FullEvent)
			require.Len(t, g.Attending, 1)
			for _, day := range g.Days {
				require.ElementsMatch(t, tt.wantDays[day], userIDs(g.ByDay[day]), day)
			}
			reasons := make([]string, 0, len(g.Warnings))
			for _, w := range g.Warnings {
				reasons = append(reasons, w.Reason)
			}
			require.Equal(t, tt.reasons, reasons)
			require.Equal(t, tt.wantDays == nil, g.NeedsFallback())
		})
	}
}

func TestGroupKeepsRecordsWithoutUserID(t *testing.T) {
	records := []Record{
		{ID: "a1", Status: "attending"},
		{ID: "a2", Status: "attending"},
		{ID: "a2", Status: "attending"},
		{ID: "a3", Status: "attending", SelectedDays: Days("2024-06-04")},
		{ID: "a4", Status: "attending", SelectedDays: Days("2024-06-04")},
	}
	g := Bucketer{}.Group(eventStart, eventEnd, records)

	require.Len(t, g.FullEvent, 2)
	require.Equal(t, "a1", g.FullEvent[0].ID)
	require.Equal(t, "a2", g.FullEvent[1].ID)
	require.Len(t, g.ByDay["2024-06-04"], 2)
	require.Len(t, g.Warnings, 5)
	require.Equal(t, ReasonEmptyUserID, g.Warnings[0].Reason)
	require.Equal(t, "a1", g.Warnings[0].Value)
}

func TestNeedsFallback(t *testing.T) {
	records := []Record{
		{UserID: "u1", Status: "attending", SelectedDays: Days("2023-01-01")},
	}
	g := Bucketer{}.Group(eventStart, eventEnd, records)
	require.True(t, g.NeedsFallback())
	require.Len(t, g.Attending, 1)

	empty := Bucketer{}.Group(eventStart, eventEnd, nil)
	require.False(t, empty.NeedsFallback())
}

func TestNormalizeDay(t *testing.T) {
	b := Bucketer{}
	day, ok := b.NormalizeDay("2024-06-04")
	require.True(t, ok)
	require.Equal(t, "2024-06-04", day)

	day, ok = b.NormalizeDay("2024-06-04T22:00:00-05:00")
	require.True(t, ok)
	require.Equal(t, "2024-06-05", day)

	day, ok = b.NormalizeDay("Jun 4, 2024")
	require.True(t, ok)
	require.Equal(t, "2024-06-04", day)

	_, ok = b.NormalizeDay("not a date")
	require.False(t, ok)
}

func TestSelectedDaysMarshal(t *testing.T) {
	out, err := json.Marshal(Record{UserID: "u1", Status: "attending", SelectedDays: Days("2024-06-03")})
	require.NoError(t, err)
	require.JSONEq(t, `{"user_id":"u1","status":"attending","selected_days":["2024-06-03"]}`, string(out))

	out, err = json.Marshal(Record{UserID: "u1", Status: "attending"})
	require.NoError(t, err)
	require.JSONEq(t, `{"user_id":"u1","status":"attending","selected_days":null}`, string(out))
}
