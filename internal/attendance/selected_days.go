// Package attendance groups event attendance records by the days attendees selected.
package attendance

import (
	"bytes"
	"encoding/json"
	"strings"
)

// SelectedDaysKind identifies which representation a selected_days value arrived in.
type SelectedDaysKind int

const (
	// DaysAbsent covers null, a missing field and empty strings.
	DaysAbsent SelectedDaysKind = iota
	// DaysList is a JSON array.
	DaysList
	// DaysJSONString is a string holding a JSON array.
	DaysJSONString
	// DaysDelimited is a comma-separated string.
	DaysDelimited
	// DaysSingle is a string holding one day.
	DaysSingle
	// DaysUnparseable is any value none of the above could decode.
	DaysUnparseable
)

func (k SelectedDaysKind) String() string {
	switch k {
	case DaysAbsent:
		return "absent"
	case DaysList:
		return "list"
	case DaysJSONString:
		return "json_string"
	case DaysDelimited:
		return "delimited"
	case DaysSingle:
		return "single"
	default:
		return "unparseable"
	}
}

// SelectedDays is the decoded form of an attendance record's selected_days column.
// Upstream writers have stored it as a JSON array, as a JSON-encoded string and as
// a comma list, so decoding never fails. Raw keeps the original text whenever the
// value had to be repaired or could not be read at all.
type SelectedDays struct {
	Kind   SelectedDaysKind
	Values []string
	// Invalid holds array elements that were not strings, as raw JSON.
	Invalid []string
	Raw     string
}

// Malformed reports whether the value was repaired rather than decoded cleanly.
func (d SelectedDays) Malformed() bool {
	return d.Raw != "" && d.Kind != DaysUnparseable
}

// Days builds a list-shaped value.
func Days(values ...string) SelectedDays {
	if len(values) == 0 {
		return SelectedDays{Kind: DaysAbsent}
	}
	return SelectedDays{Kind: DaysList, Values: values}
}

// ParseSelectedDays decodes a string value. A JSON array is tried first, then a
// comma split, then the whole string as one day.
func ParseSelectedDays(s string) SelectedDays {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return SelectedDays{Kind: DaysAbsent}
	}
	if strings.HasPrefix(trimmed, "[") {
		if values, invalid, ok := decodeArray([]byte(trimmed)); ok {
			return fromArray(DaysJSONString, values, invalid)
		}
		d := splitDays(trimmed)
		d.Raw = s
		return d
	}
	return splitDays(trimmed)
}

func splitDays(s string) SelectedDays {
	if strings.Contains(s, ",") {
		values := compact(strings.Split(s, ","))
		if len(values) == 0 {
			return SelectedDays{Kind: DaysAbsent}
		}
		return SelectedDays{Kind: DaysDelimited, Values: values}
	}
	return SelectedDays{Kind: DaysSingle, Values: []string{s}}
}

// decodeArray reads a JSON array element by element. Non-string elements are
// returned separately so one bad entry does not discard the rest.
func decodeArray(data []byte) (values, invalid []string, ok bool) {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, nil, false
	}
	for _, elem := range elems {
		var v string
		if err := json.Unmarshal(elem, &v); err != nil {
			invalid = append(invalid, string(bytes.TrimSpace(elem)))
			continue
		}
		values = append(values, v)
	}
	return compact(values), invalid, true
}

func fromArray(kind SelectedDaysKind, values, invalid []string) SelectedDays {
	if len(values) == 0 && len(invalid) == 0 {
		return SelectedDays{Kind: DaysAbsent}
	}
	return SelectedDays{Kind: kind, Values: values, Invalid: invalid}
}

// UnmarshalJSON accepts null, a string or an array. Any other JSON value is kept
// as DaysUnparseable.
func (d *SelectedDays) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*d = SelectedDays{Kind: DaysAbsent}
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*d = SelectedDays{Kind: DaysUnparseable, Raw: string(data)}
			return nil
		}
		*d = ParseSelectedDays(s)
	case data[0] == '[':
		values, invalid, ok := decodeArray(data)
		if !ok {
			*d = SelectedDays{Kind: DaysUnparseable, Raw: string(data)}
			return nil
		}
		*d = fromArray(DaysList, values, invalid)
	default:
		*d = SelectedDays{Kind: DaysUnparseable, Raw: string(data)}
	}
	return nil
}

// MarshalJSON writes decoded values as an array, null when absent and the raw
// text as a string when unparseable.
func (d SelectedDays) MarshalJSON() ([]byte, error) {
	switch d.Kind {
	case DaysAbsent:
		return []byte("null"), nil
	case DaysUnparseable:
		return json.Marshal(d.Raw)
	default:
		if d.Values == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(d.Values)
	}
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
