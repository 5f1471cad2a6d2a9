package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"example.com/clubadmin/internal/attendance"
	"example.com/clubadmin/internal/domain"
)

// GetEvent loads an event with its attendance. A missing event yields nil, nil.
func (r *Repository) GetEvent(ctx context.Context, clubID, eventID string) (*domain.Event, error) {
	var found *domain.Event
	err := r.inClubTx(ctx, clubID, func(tx pgx.Tx) error {
		var e domain.Event
		err := tx.QueryRow(ctx,
			`SELECT event_id, club_id, title, description, location_name, start_at, end_at
               FROM events WHERE club_id=$1 AND event_id=$2`, clubID, eventID,
		).Scan(&e.ID, &e.ClubID, &e.Title, &e.Description, &e.LocationName, &e.StartAt, &e.EndAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}

		rows, err := tx.Query(ctx,
			`SELECT attendance_id::text, event_id, user_id, status, selected_days, start_times
               FROM event_attendance WHERE event_id=$1 ORDER BY attendance_id`, eventID)
		if err != nil {
			return err
		}
		e.Attendance, err = pgx.CollectRows(rows, r.scanAttendance)
		if err != nil {
			return err
		}
		found = &e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// scanAttendance decodes selected_days through attendance.SelectedDays so every
// stored shape is tolerated. A start_times value that is not an object is logged
// and dropped.
func (r *Repository) scanAttendance(row pgx.CollectableRow) (attendance.Record, error) {
	var (
		rec        attendance.Record
		days       []byte
		startTimes []byte
	)
	if err := row.Scan(&rec.ID, &rec.EventID, &rec.UserID, &rec.Status, &days, &startTimes); err != nil {
		return attendance.Record{}, err
	}
	if days == nil {
		days = []byte("null")
	}
	if err := json.Unmarshal(days, &rec.SelectedDays); err != nil {
		return attendance.Record{}, err
	}
	times, err := decodeStartTimes(startTimes)
	if err != nil {
		r.logger.Printf("skipping start_times attendance_id=%s event_id=%s value=%q: %v", rec.ID, rec.EventID, startTimes, err)
	}
	rec.StartTimes = times
	return rec, nil
}

// decodeStartTimes reads the start_times column. Null and empty values yield a nil map.
func decodeStartTimes(raw []byte) (map[string]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var times map[string]string
	if err := json.Unmarshal(raw, &times); err != nil {
		return nil, fmt.Errorf("decode start_times: %w", err)
	}
	return times, nil
}

var _ domain.EventRepository = (*Repository)(nil)
