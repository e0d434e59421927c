package storage

import (
	"context"
	"database/sql"
	"time"
)

// UpsertActivities stores the activities of a member and returns how many
// were new. Known activities are left untouched, including their scanned
// flag.
func (d *DB) UpsertActivities(ctx context.Context, memberID int64, activities []Activity) (inserted int, err error) {
	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO activities(member_id, instance_id, reference_hash, mode, started_at, duration_seconds)
VALUES(?,?,?,?,?,?) ON CONFLICT(member_id, instance_id) DO NOTHING`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, a := range activities {
		var res sql.Result
		res, err = stmt.ExecContext(ctx, memberID, a.InstanceID, int64(a.ReferenceHash), a.Mode,
			formatTime(a.StartedAt), int64(a.Duration/time.Second))
		if err != nil {
			return 0, err
		}
		var n int64
		if n, err = res.RowsAffected(); err != nil {
			return 0, err
		}
		inserted += int(n)
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// ListUnscanned returns the activities of a member not yet checked against
// videos, oldest first.
func (d *DB) ListUnscanned(ctx context.Context, memberID int64) ([]Activity, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT id, member_id, instance_id, reference_hash, mode, started_at, duration_seconds, scanned
FROM activities WHERE member_id = ? AND scanned = 0 ORDER BY started_at`, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Activity
	for rows.Next() {
		var (
			a         Activity
			ref       int64
			startedAt string
			seconds   int64
			scanned   int
		)
		if err := rows.Scan(&a.ID, &a.MemberID, &a.InstanceID, &ref, &a.Mode, &startedAt, &seconds, &scanned); err != nil {
			return nil, err
		}
		a.ReferenceHash = uint32(ref)
		a.StartedAt = parseTime(startedAt)
		a.Duration = time.Duration(seconds) * time.Second
		a.Scanned = scanned == 1
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkScanned flags activities as checked.
func (d *DB) MarkScanned(ctx context.Context, activityIDs ...int64) error {
	if len(activityIDs) == 0 {
		return nil
	}
	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	for _, id := range activityIDs {
		if _, err := tx.ExecContext(ctx, "UPDATE activities SET scanned = ? WHERE id = ?", boolToInt(true), id); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
