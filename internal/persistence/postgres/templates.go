package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"example.com/clubadmin/internal/domain"
	"example.com/clubadmin/internal/schedule"
)

// GetTemplate loads the admin's template blob. No row yields an empty template.
func (r *Repository) GetTemplate(ctx context.Context, clubID, adminID string) ([]schedule.TemplateRow, error) {
	var rows []schedule.TemplateRow
	err := r.inClubTx(ctx, clubID, func(tx pgx.Tx) error {
		var data []byte
		err := tx.QueryRow(ctx, `SELECT template_data FROM bulk_templates WHERE club_id=$1 AND admin_id=$2`, clubID, adminID).Scan(&data)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, &rows); err != nil {
			return fmt.Errorf("decode template for admin %s: %w", adminID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// SaveTemplate upserts the admin's template blob.
func (r *Repository) SaveTemplate(ctx context.Context, clubID, adminID string, rows []schedule.TemplateRow) error {
	if rows == nil {
		rows = []schedule.TemplateRow{}
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	return r.inClubTx(ctx, clubID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO bulk_templates (club_id, admin_id, template_data, updated_at)
             VALUES ($1,$2,$3,NOW())
             ON CONFLICT (club_id, admin_id) DO UPDATE SET template_data = EXCLUDED.template_data, updated_at = NOW()`,
			clubID, adminID, data)
		return err
	})
}

var _ domain.TemplateRepository = (*Repository)(nil)
