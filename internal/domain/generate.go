package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"example.com/clubadmin/internal/observability"
	"example.com/clubadmin/internal/schedule"
)

// Generation run outcomes.
const (
	RunComplete = "complete"
	RunPartial  = "partial"
	RunRejected = "rejected"
)

// GenerateInput describes a bulk generation request.
type GenerateInput struct {
	ClubID  string
	AdminID string
	// StartDate is snapped forward to a Monday before expansion.
	StartDate time.Time
	Weeks     int
	// Rows overrides the stored template when non-nil.
	Rows []schedule.TemplateRow
}

// BulkFailure describes a generated activity the repository rejected.
type BulkFailure struct {
	Index   int
	Title   string
	StartAt time.Time
	Err     error
}

// BulkReport summarises a generation run.
type BulkReport struct {
	RunID       string
	StartDate   time.Time
	Weeks       int
	Requested   int
	Created     []Activity
	Failures    []BulkFailure
	Skipped     []schedule.SkippedRow
	CompletedAt time.Time
}

// Outcome classifies the run for metrics and callers.
func (r BulkReport) Outcome() string {
	if len(r.Failures) > 0 || len(r.Skipped) > 0 {
		return RunPartial
	}
	return RunComplete
}

// GenerateSchedule expands the template for the requested weeks and submits
// every generated activity, reporting per-activity outcomes. Blank titles reject
// the whole run before anything is submitted.
func (s *Service) GenerateSchedule(ctx context.Context, in GenerateInput) (*BulkReport, error) {
	rows := in.Rows
	if rows == nil {
		stored, err := s.GetTemplate(ctx, in.ClubID, in.AdminID)
		if err != nil {
			return nil, err
		}
		rows = stored
	}

	start := schedule.SnapToMonday(in.StartDate.In(s.Location()))
	plan, err := s.expander.Generate(rows, in.Weeks, start)
	if err != nil {
		var blank *schedule.BlankTitleError
		if errors.As(err, &blank) {
			observability.RecordGenerationRun(RunRejected, 0, 0, 0)
		}
		return nil, err
	}
	for _, skip := range plan.Skipped {
		s.logger.Printf("template row skipped club_id=%s week=%d row=%d day=%q reason=%s", in.ClubID, skip.Week, skip.RowIndex, skip.Day, skip.Reason)
	}

	runID := uuid.NewString()
	submitter := BatchSubmitter{
		Size: s.batchSize,
		Submit: func(ctx context.Context, draft schedule.GeneratedActivity) (*Activity, error) {
			return s.createActivity(ctx, in.ClubID, runID, draft)
		},
	}
	outcomes := submitter.Run(ctx, plan.Activities)

	report := &BulkReport{
		RunID:     runID,
		StartDate: start,
		Weeks:     in.Weeks,
		Requested: len(plan.Activities),
		Created:   make([]Activity, 0, len(outcomes)),
		Skipped:   plan.Skipped,
	}
	for _, o := range outcomes {
		if o.Err != nil {
			draft := plan.Activities[o.Index]
			report.Failures = append(report.Failures, BulkFailure{Index: o.Index, Title: draft.Title, StartAt: draft.StartAt, Err: o.Err})
			continue
		}
		report.Created = append(report.Created, *o.Activity)
	}
	if err := JoinFailures(outcomes); err != nil {
		s.logger.Printf("bulk submit failures club_id=%s run_id=%s failed=%d err=%v", in.ClubID, runID, len(report.Failures), err)
	}
	report.CompletedAt = s.now()

	observability.RecordGenerationRun(report.Outcome(), len(report.Created), len(report.Failures), len(report.Skipped))

	run := ScheduleRun{
		ID:        runID,
		ClubID:    in.ClubID,
		AdminID:   in.AdminID,
		StartDate: start,
		Weeks:     in.Weeks,
		Requested: report.Requested,
		Created:   len(report.Created),
		Failed:    len(report.Failures),
		Skipped:   len(report.Skipped),
		CreatedAt: report.CompletedAt,
	}
	if err := s.activities.RecordRun(context.WithoutCancel(ctx), run); err != nil {
		s.logger.Printf("record schedule run failed club_id=%s run_id=%s err=%v", in.ClubID, runID, err)
	}
	return report, nil
}
