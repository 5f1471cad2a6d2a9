// Package postgres implements the domain repositories on PostgreSQL. Every
// statement runs in a transaction scoped to one club through app.club_id.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/clubadmin/internal/domain"
	"example.com/clubadmin/internal/events"
	"example.com/clubadmin/internal/observability"
	"example.com/clubadmin/internal/outbox"
)

// Repository provides Postgres-backed persistence for activities, templates,
// events and their outbox records.
type Repository struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// Option configures a Repository.
type Option func(*Repository)

// WithLogger overrides the repository logger.
func WithLogger(logger *log.Logger) Option {
	return func(r *Repository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool, opts ...Option) *Repository {
	r := &Repository{
		pool:   pool,
		logger: log.New(log.Writer(), "[postgres] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// inClubTx runs fn in a transaction with app.club_id set, committing on success.
func (r *Repository) inClubTx(ctx context.Context, clubID string, fn func(pgx.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT set_config('app.club_id', $1, true)", clubID); err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const activityColumns = `activity_id::text, club_id, title, description, start_at, end_at, location_name, activity_type,
        COALESCE(host_user_id, ''), cost, icon, visibility, attendees, COALESCE(run_id::text, ''), version, created_at`

func scanActivity(row pgx.Row) (domain.Activity, error) {
	var (
		a         domain.Activity
		attendees []byte
	)
	if err := row.Scan(&a.ID, &a.ClubID, &a.Title, &a.Description, &a.StartAt, &a.EndAt, &a.LocationName, &a.ActivityType,
		&a.HostUserID, &a.Cost, &a.Icon, &a.Visibility, &attendees, &a.RunID, &a.Version, &a.CreatedAt); err != nil {
		return domain.Activity{}, err
	}
	a.Attendees = []string{}
	if len(attendees) > 0 {
		if err := json.Unmarshal(attendees, &a.Attendees); err != nil {
			return domain.Activity{}, fmt.Errorf("decode attendees for %s: %w", a.ID, err)
		}
	}
	return a, nil
}

// Create persists the activity and records an activity.scheduled outbox event
// inside a single transaction.
func (r *Repository) Create(ctx context.Context, a domain.Activity) error {
	attendees, err := json.Marshal(nonNil(a.Attendees))
	if err != nil {
		return err
	}

	err = r.inClubTx(ctx, a.ClubID, func(tx pgx.Tx) error {
		const insertActivity = `INSERT INTO activities (activity_id, club_id, title, description, start_at, end_at, location_name, activity_type,
                host_user_id, cost, icon, visibility, attendees, run_id, version, created_at)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`

		if _, err := tx.Exec(ctx, insertActivity,
			a.ID, a.ClubID, a.Title, a.Description, a.StartAt, a.EndAt, a.LocationName, a.ActivityType,
			nullIfEmpty(a.HostUserID), a.Cost, a.Icon, a.Visibility, attendees, nullIfEmpty(a.RunID), a.Version, a.CreatedAt,
		); err != nil {
			return err
		}

		return outbox.Enqueue(ctx, tx, outbox.Record{
			ClubID:        a.ClubID,
			AggregateType: "activity",
			AggregateID:   a.ID,
			EventType:     events.TypeActivityScheduled,
			PartitionKey:  a.ClubID,
			Payload: events.ActivityScheduled{
				ActivityID:   a.ID,
				ClubID:       a.ClubID,
				Title:        a.Title,
				ActivityType: a.ActivityType,
				StartAt:      a.StartAt,
				EndAt:        a.EndAt,
				HostUserID:   a.HostUserID,
				Cost:         a.Cost,
				Visibility:   a.Visibility,
				RunID:        a.RunID,
				Version:      a.Version,
			},
		})
	})
	if err != nil {
		return err
	}
	observability.RecordActivityPersisted(a.CreatedAt)
	return nil
}

// Get retrieves an activity by ID. A missing row yields nil, nil.
func (r *Repository) Get(ctx context.Context, clubID, activityID string) (*domain.Activity, error) {
	var found *domain.Activity
	err := r.inClubTx(ctx, clubID, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+activityColumns+` FROM activities WHERE club_id=$1 AND activity_id=$2`, clubID, activityID)
		a, err := scanActivity(row)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		found = &a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// List returns activities ordered by start time, then id.
func (r *Repository) List(ctx context.Context, clubID string, filter domain.ActivityFilter, cursor *domain.Cursor, limit int) ([]domain.Activity, *domain.Cursor, error) {
	args := []any{clubID, limit}
	query := `SELECT ` + activityColumns + ` FROM activities WHERE club_id=$1`

	if !filter.From.IsZero() {
		args = append(args, filter.From)
		query += fmt.Sprintf(` AND start_at >= $%d`, len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		query += fmt.Sprintf(` AND start_at < $%d`, len(args))
	}
	if cursor != nil {
		args = append(args, cursor.StartAt, cursor.ID)
		query += fmt.Sprintf(` AND (start_at, activity_id) > ($%d, $%d::uuid)`, len(args)-1, len(args))
	}
	query += ` ORDER BY start_at, activity_id LIMIT $2`

	results := make([]domain.Activity, 0, limit)
	err := r.inClubTx(ctx, clubID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			a, err := scanActivity(rows)
			if err != nil {
				return err
			}
			results = append(results, a)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, nil, err
	}

	var next *domain.Cursor
	if limit > 0 && len(results) == limit {
		last := results[len(results)-1]
		next = &domain.Cursor{StartAt: last.StartAt, ID: last.ID}
	}
	return results, next, nil
}

// RecordRun stores a generation run summary and its schedule.generated event.
func (r *Repository) RecordRun(ctx context.Context, run domain.ScheduleRun) error {
	return r.inClubTx(ctx, run.ClubID, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO schedule_runs (run_id, club_id, admin_id, start_date, weeks, requested, created, failed, skipped, created_at)
             VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			run.ID, run.ClubID, run.AdminID, run.StartDate, run.Weeks, run.Requested, run.Created, run.Failed, run.Skipped, run.CreatedAt,
		); err != nil {
			return err
		}

		return outbox.Enqueue(ctx, tx, outbox.Record{
			ClubID:        run.ClubID,
			AggregateType: "schedule_run",
			AggregateID:   run.ID,
			EventType:     events.TypeScheduleGenerated,
			PartitionKey:  run.ClubID,
			Payload: events.ScheduleGenerated{
				RunID:      run.ID,
				ClubID:     run.ClubID,
				AdminID:    run.AdminID,
				StartDate:  run.StartDate.Format("2006-01-02"),
				Weeks:      run.Weeks,
				Requested:  run.Requested,
				Created:    run.Created,
				Failed:     run.Failed,
				Skipped:    run.Skipped,
				OccurredAt: run.CreatedAt,
			},
		})
	})
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

var _ domain.ActivityRepository = (*Repository)(nil)
