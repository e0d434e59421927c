package storage

import (
	"context"
	"time"
)

// RecordClipMatch stores the match of an activity. An activity keeps its
// first match; later calls for it are ignored.
func (d *DB) RecordClipMatch(ctx context.Context, m ClipMatch) error {
	matchedAt := m.MatchedAt
	if matchedAt.IsZero() {
		matchedAt = time.Now()
	}
	_, err := d.sql.ExecContext(ctx, `INSERT INTO clip_matches(activity_id, video_id, video_url, video_title, activity_name, offset_seconds, matched_at)
VALUES(?,?,?,?,?,?,?) ON CONFLICT(activity_id) DO NOTHING`,
		m.ActivityID, m.VideoID, m.VideoURL, nullIfEmpty(cleanText(m.VideoTitle)), nullIfEmpty(cleanText(m.ActivityName)),
		int64(m.Offset/time.Second), formatTime(matchedAt))
	return err
}

// ListClipMatches returns matches, most recent first.
func (d *DB) ListClipMatches(ctx context.Context, opts ListOptions) ([]ClipMatch, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	if opts.MemberID != 0 {
		where += " AND a.member_id = ?"
		args = append(args, opts.MemberID)
	}
	if !opts.Since.IsZero() {
		where += " AND c.matched_at >= ?"
		args = append(args, formatTime(opts.Since))
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)

	q := `SELECT c.id, c.activity_id, c.video_id, c.video_url, COALESCE(c.video_title, ''), COALESCE(c.activity_name, ''),
       c.offset_seconds, c.matched_at, m.display_name, a.reference_hash, a.started_at, a.duration_seconds
FROM clip_matches c
JOIN activities a ON a.id = c.activity_id
JOIN members m ON m.id = a.member_id
` + where + " ORDER BY c.matched_at DESC, c.id DESC LIMIT ?"

	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ClipMatch
	for rows.Next() {
		var (
			c                     ClipMatch
			offset, duration, ref int64
			matchedAt, started    string
		)
		if err := rows.Scan(&c.ID, &c.ActivityID, &c.VideoID, &c.VideoURL, &c.VideoTitle, &c.ActivityName,
			&offset, &matchedAt, &c.MemberName, &ref, &started, &duration); err != nil {
			return nil, err
		}
		c.ActivityHash = uint32(ref)
		c.Offset = time.Duration(offset) * time.Second
		c.MatchedAt = parseTime(matchedAt)
		c.ActivityStartedAt = parseTime(started)
		c.ActivityDuration = time.Duration(duration) * time.Second
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
