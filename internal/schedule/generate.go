package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Generation precondition errors.
var (
	ErrInvalidWeeks   = errors.New("weeks must be at least 1")
	ErrStartNotMonday = errors.New("start date must be a Monday")
	ErrEmptyTemplate  = errors.New("template has no rows")
)

// BlankTitleError rejects a whole generation run because some rows have no title.
type BlankTitleError struct {
	Count int
	Rows  []int
}

func (e *BlankTitleError) Error() string {
	return fmt.Sprintf("%d template row(s) have a blank title", e.Count)
}

// SkippedRow records a row instance that produced no activity.
type SkippedRow struct {
	Week     int    `json:"week"`
	RowIndex int    `json:"row_index"`
	Day      string `json:"day"`
	Title    string `json:"title"`
	Reason   string `json:"reason"`
}

// Plan is the output of Generate, in submission order.
type Plan struct {
	Activities []GeneratedActivity
	Skipped    []SkippedRow
}

// CheckTitles rejects rows with blank titles, reporting every offender.
func CheckTitles(rows []TemplateRow) error {
	var blank []int
	for i, row := range rows {
		if strings.TrimSpace(row.Title) == "" {
			blank = append(blank, i)
		}
	}
	if len(blank) > 0 {
		return &BlankTitleError{Count: len(blank), Rows: blank}
	}
	return nil
}

// Generate expands rows for weeks consecutive weeks starting on the Monday start.
// Weeks form the outer loop and rows the inner loop, preserving row order.
// Rows that cannot be expanded are recorded in Plan.Skipped rather than failing the run.
func (e Expander) Generate(rows []TemplateRow, weeks int, start time.Time) (Plan, error) {
	if weeks < 1 {
		return Plan{}, ErrInvalidWeeks
	}
	if start.Weekday() != time.Monday {
		return Plan{}, ErrStartNotMonday
	}
	if len(rows) == 0 {
		return Plan{}, ErrEmptyTemplate
	}
	if err := CheckTitles(rows); err != nil {
		return Plan{}, err
	}

	plan := Plan{Activities: make([]GeneratedActivity, 0, weeks*len(rows))}
	for week := 0; week < weeks; week++ {
		for i, row := range rows {
			activity, err := e.Expand(row, start, week)
			if err != nil {
				plan.Skipped = append(plan.Skipped, SkippedRow{
					Week:     week,
					RowIndex: i,
					Day:      row.Day,
					Title:    row.Title,
					Reason:   err.Error(),
				})
				continue
			}
			plan.Activities = append(plan.Activities, activity)
		}
	}
	return plan, nil
}
