package domain_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/clubadmin/internal/attendance"
	"example.com/clubadmin/internal/domain"
	"example.com/clubadmin/internal/persistence/memory"
	"example.com/clubadmin/internal/schedule"
)

// flakyRepository fails Create for titles containing failOn.
type flakyRepository struct {
	*memory.Repository
	failOn string
}

func (f flakyRepository) Create(ctx context.Context, a domain.Activity) error {
	if f.failOn != "" && strings.Contains(a.Title, f.failOn) {
		return errors.New("insert rejected")
	}
	return f.Repository.Create(ctx, a)
}

func newService(repo domain.ActivityRepository, store *memory.Repository, opts ...domain.Option) *domain.Service {
	return domain.NewService(repo, store, store, opts...)
}

func sampleRows() []schedule.TemplateRow {
	return []schedule.TemplateRow{
		{Day: schedule.Monday, Time: "06:00", Duration: 60, ActivityType: schedule.TypeRunning, Title: "Run Club", Cost: 1},
		{Day: schedule.Wednesday, Time: "18:00", Duration: 45, ActivityType: schedule.TypeCircuits, Title: "Circuits", Cost: 2},
	}
}

func TestGenerateScheduleCreatesAllActivities(t *testing.T) {
	store := memory.NewRepository()
	svc := newService(store, store, domain.WithDefaultHost("coach-1"))

	report, err := svc.GenerateSchedule(context.Background(), domain.GenerateInput{
		ClubID:    "club-1",
		AdminID:   "admin-1",
		StartDate: time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC),
		Weeks:     3,
		Rows:      sampleRows(),
	})
	require.NoError(t, err)
	require.Equal(t, 6, report.Requested)
	require.Len(t, report.Created, 6)
	require.Empty(t, report.Failures)
	require.Equal(t, domain.RunComplete, report.Outcome())

	items, _, err := svc.ListActivities(context.Background(), "club-1", domain.ActivityFilter{}, nil, 100)
	require.NoError(t, err)
	require.Len(t, items, 6)
	for _, a := range items {
		require.Equal(t, report.RunID, a.RunID)
		require.Equal(t, "coach-1", a.HostUserID)
		require.Equal(t, schedule.VisibilityPublic, a.Visibility)
	}
	require.Equal(t, "Run Club", items[0].Title)
	require.Equal(t, 0, items[0].Cost)

	runs := store.Runs()
	require.Len(t, runs, 1)
	require.Equal(t, 6, runs[0].Created)
}

func TestGenerateScheduleSnapsToMonday(t *testing.T) {
	store := memory.NewRepository()
	svc := newService(store, store)

	report, err := svc.GenerateSchedule(context.Background(), domain.GenerateInput{
		ClubID:    "club-1",
		StartDate: time.Date(2024, time.June, 5, 0, 0, 0, 0, time.UTC),
		Weeks:     1,
		Rows:      sampleRows(),
	})
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC), report.StartDate)
	require.Equal(t, time.Date(2024, time.June, 10, 6, 0, 0, 0, time.UTC), report.Created[0].StartAt)
}

func TestGenerateScheduleReportsPartialFailures(t *testing.T) {
	store := memory.NewRepository()
	svc := newService(flakyRepository{Repository: store, failOn: "Circuits"}, store, domain.WithBatchSize(3))

	report, err := svc.GenerateSchedule(context.Background(), domain.GenerateInput{
		ClubID:    "club-1",
		StartDate: time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC),
		Weeks:     2,
		Rows:      sampleRows(),
	})
	require.NoError(t, err)
	require.Equal(t, 4, report.Requested)
	require.Len(t, report.Created, 2)
	require.Len(t, report.Failures, 2)
	require.Equal(t, domain.RunPartial, report.Outcome())
	for _, f := range report.Failures {
		require.Equal(t, "Circuits", f.Title)
		require.EqualError(t, f.Err, "insert rejected")
	}
	require.Equal(t, 2, store.Runs()[0].Failed)
}

func TestGenerateScheduleRejectsBlankTitles(t *testing.T) {
	store := memory.NewRepository()
	svc := newService(store, store)

	rows := sampleRows()
	rows[1].Title = "  "
	_, err := svc.GenerateSchedule(context.Background(), domain.GenerateInput{
		ClubID:    "club-1",
		StartDate: time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC),
		Weeks:     1,
		Rows:      rows,
	})
	var blank *schedule.BlankTitleError
	require.True(t, errors.As(err, &blank))
	require.Equal(t, 1, blank.Count)

	items, _, err := svc.ListActivities(context.Background(), "club-1", domain.ActivityFilter{}, nil, 10)
	require.NoError(t, err)
	require.Empty(t, items)
	require.Empty(t, store.Runs())
}

func TestGenerateScheduleUsesStoredTemplate(t *testing.T) {
	store := memory.NewRepository()
	svc := newService(store, store)
	ctx := context.Background()

	_, err := svc.SaveTemplate(ctx, "club-1", "admin-1", sampleRows())
	require.NoError(t, err)

	report, err := svc.GenerateSchedule(ctx, domain.GenerateInput{
		ClubID:    "club-1",
		AdminID:   "admin-1",
		StartDate: time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC),
		Weeks:     1,
	})
	require.NoError(t, err)
	require.Len(t, report.Created, 2)

	_, err = svc.GenerateSchedule(ctx, domain.GenerateInput{
		ClubID:    "club-1",
		AdminID:   "admin-2",
		StartDate: time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC),
		Weeks:     1,
	})
	require.ErrorIs(t, err, schedule.ErrEmptyTemplate)
}

func TestTemplateSaveValidatesAndLoadRepairsIcons(t *testing.T) {
	store := memory.NewRepository()
	svc := newService(store, store)
	ctx := context.Background()

	rows, err := svc.GetTemplate(ctx, "club-1", "admin-1")
	require.NoError(t, err)
	require.NotNil(t, rows)
	require.Empty(t, rows)

	bad := sampleRows()
	bad[0].Time = "25:99"
	_, err = svc.SaveTemplate(ctx, "club-1", "admin-1", bad)
	require.ErrorIs(t, err, schedule.ErrInvalidTime)

	stale := []schedule.TemplateRow{{Day: schedule.Friday, Time: "07:00", Duration: 30, ActivityType: schedule.TypeCardio, Title: "Erg Blast", Icon: "cardio"}}
	require.NoError(t, store.SaveTemplate(ctx, "club-1", "admin-1", stale))

	rows, err = svc.GetTemplate(ctx, "club-1", "admin-1")
	require.NoError(t, err)
	require.Equal(t, schedule.IconRowing, rows[0].Icon)
}

func TestCreateActivityValidation(t *testing.T) {
	store := memory.NewRepository()
	svc := newService(store, store)
	start := time.Date(2024, time.June, 3, 6, 0, 0, 0, time.UTC)

	_, err := svc.CreateActivity(context.Background(), "club-1", schedule.GeneratedActivity{Title: "Run", StartAt: start, EndAt: start})
	require.ErrorIs(t, err, domain.ErrInvalidActivity)

	_, err = svc.CreateActivity(context.Background(), "club-1", schedule.GeneratedActivity{Title: " ", StartAt: start, EndAt: start.Add(time.Hour)})
	require.ErrorIs(t, err, domain.ErrInvalidActivity)

	created, err := svc.CreateActivity(context.Background(), "club-1", schedule.GeneratedActivity{
		Title: "Strength", ActivityType: schedule.TypeStrength, StartAt: start, EndAt: start.Add(time.Hour), Cost: 2,
	})
	require.NoError(t, err)
	require.Equal(t, schedule.IconStrength, created.Icon)
	require.Equal(t, schedule.VisibilityPublic, created.Visibility)

	got, err := svc.GetActivity(context.Background(), "club-1", created.ID)
	require.NoError(t, err)
	require.Equal(t, created.Title, got.Title)

	_, err = svc.GetActivity(context.Background(), "club-2", created.ID)
	require.ErrorIs(t, err, domain.ErrActivityNotFound)
}

func TestGroupAttendees(t *testing.T) {
	store := memory.NewRepository()
	svc := newService(store, store)
	store.PutEvent(domain.Event{
		ID:      "evt-1",
		ClubID:  "club-1",
		Title:   "Summer Camp",
		StartAt: time.Date(2024, time.June, 3, 9, 0, 0, 0, time.UTC),
		EndAt:   time.Date(2024, time.June, 5, 17, 0, 0, 0, time.UTC),
		Attendance: []attendance.Record{
			{UserID: "u1", Status: "attending", SelectedDays: attendance.ParseSelectedDays(`["2024-06-04"]`)},
			{UserID: "u2", Status: "Attending"},
		},
	})

	event, grouping, err := svc.GroupAttendees(context.Background(), "club-1", "evt-1")
	require.NoError(t, err)
	require.Equal(t, "Summer Camp", event.Title)
	require.Len(t, grouping.FullEvent, 1)
	require.Equal(t, "u2", grouping.FullEvent[0].UserID)
	require.Len(t, grouping.ByDay["2024-06-04"], 1)

	_, _, err = svc.GroupAttendees(context.Background(), "club-1", "missing")
	require.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestBatchSubmitterBoundsConcurrency(t *testing.T) {
	drafts := make([]schedule.GeneratedActivity, 25)
	var (
		mu       sync.Mutex
		inFlight int
		peak     int
		calls    atomic.Int32
	)
	submitter := domain.BatchSubmitter{
		Size: 10,
		Submit: func(ctx context.Context, draft schedule.GeneratedActivity) (*domain.Activity, error) {
			calls.Add(1)
			mu.Lock()
			inFlight++
			peak = max(peak, inFlight)
			mu.Unlock()
			time.Sleep(5 * time.Millisecond)
			mu.Lock()
			inFlight--
			mu.Unlock()
			return &domain.Activity{}, nil
		},
	}

	outcomes := submitter.Run(context.Background(), drafts)
	require.Len(t, outcomes, 25)
	require.EqualValues(t, 25, calls.Load())
	require.LessOrEqual(t, peak, 10)
	for i, o := range outcomes {
		require.Equal(t, i, o.Index)
		require.NoError(t, o.Err)
	}
	require.NoError(t, domain.JoinFailures(outcomes))
}

func TestBatchSubmitterStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	submitter := domain.BatchSubmitter{
		Size: 2,
		Submit: func(ctx context.Context, draft schedule.GeneratedActivity) (*domain.Activity, error) {
			if calls.Add(1) == 2 {
				cancel()
			}
			return &domain.Activity{}, nil
		},
	}

	outcomes := submitter.Run(ctx, make([]schedule.GeneratedActivity, 5))
	require.EqualValues(t, 2, calls.Load())
	require.NoError(t, outcomes[0].Err)
	require.NoError(t, outcomes[1].Err)
	for _, o := range outcomes[2:] {
		require.ErrorIs(t, o.Err, context.Canceled)
	}
	require.ErrorIs(t, domain.JoinFailures(outcomes), context.Canceled)
}
