package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ghostwire/ghostbot/pkg/destiny"
)

const memberColumns = "id, membership_type, membership_id, display_name, character_id, twitch_login, twitch_user_id, created_at, updated_at"

// UpsertMember inserts the member or updates the stored one with the same
// membership. The returned id is the row id either way.
func (d *DB) UpsertMember(ctx context.Context, m Member) (int64, error) {
	now := formatTime(time.Now())
	_, err := d.sql.ExecContext(ctx, `
INSERT INTO members(membership_type, membership_id, display_name, character_id, twitch_login, twitch_user_id, created_at, updated_at)
VALUES(?,?,?,?,?,?,?,?)
ON CONFLICT(membership_type, membership_id) DO UPDATE SET
  display_name   = excluded.display_name,
  character_id   = COALESCE(excluded.character_id, members.character_id),
  twitch_login   = COALESCE(excluded.twitch_login, members.twitch_login),
  twitch_user_id = COALESCE(excluded.twitch_user_id, members.twitch_user_id),
  updated_at     = excluded.updated_at`,
		int(m.MembershipType), m.MembershipID, cleanText(m.DisplayName), nullIfEmpty(m.CharacterID),
		nullIfEmpty(cleanLogin(m.TwitchLogin)), nullIfEmpty(m.TwitchUserID), now, now)
	if err != nil {
		return 0, err
	}

	var id int64
	err = d.sql.QueryRowContext(ctx, "SELECT id FROM members WHERE membership_type = ? AND membership_id = ?",
		int(m.MembershipType), m.MembershipID).Scan(&id)
	return id, err
}

// SetCharacter records the character whose activities are tracked.
func (d *DB) SetCharacter(ctx context.Context, memberID int64, characterID string) error {
	res, err := d.sql.ExecContext(ctx, "UPDATE members SET character_id = ?, updated_at = ? WHERE id = ?",
		nullIfEmpty(characterID), formatTime(time.Now()), memberID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetMember returns ErrNotFound when no member has that membership.
func (d *DB) GetMember(ctx context.Context, mt destiny.MembershipType, membershipID string) (*Member, error) {
	row := d.sql.QueryRowContext(ctx, "SELECT "+memberColumns+" FROM members WHERE membership_type = ? AND membership_id = ?",
		int(mt), membershipID)
	m, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return m, err
}

// ListMembers returns every member; linkedOnly keeps only members with a
// streaming channel.
func (d *DB) ListMembers(ctx context.Context, linkedOnly bool) ([]Member, error) {
	q := "SELECT " + memberColumns + " FROM members"
	if linkedOnly {
		q += " WHERE twitch_login IS NOT NULL"
	}
	q += " ORDER BY display_name"

	rows, err := d.sql.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanMember(s scanner) (*Member, error) {
	var (
		m                    Member
		mt                   int
		charID, login, twID  sql.NullString
		createdAt, updatedAt string
	)
	if err := s.Scan(&m.ID, &mt, &m.MembershipID, &m.DisplayName, &charID, &login, &twID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	m.MembershipType = destiny.MembershipType(mt)
	m.CharacterID = charID.String
	m.TwitchLogin = login.String
	m.TwitchUserID = twID.String
	m.CreatedAt = parseTime(createdAt)
	m.UpdatedAt = parseTime(updatedAt)
	return &m, nil
}
