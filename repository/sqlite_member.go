package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/agrispine/server/models"
)

type sqliteMemberRepo struct {
	db *sql.DB
}

// NewSQLiteMemberRepo, constructor: interface döner.
func NewSQLiteMemberRepo(db *sql.DB) MemberRepository {
	return &sqliteMemberRepo{db: db}
}

// Upsert: boş isim gelirse mevcut isim korunur.
func (r *sqliteMemberRepo) Upsert(ctx context.Context, member *models.VillageMember) error {
	now := time.Now().UTC()
	if member.JoinedAt.IsZero() {
		member.JoinedAt = now
	}
	if member.LastSeenAt.IsZero() {
		member.LastSeenAt = now
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO village_members (village, user_id, name, joined_at, last_seen_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(village, user_id) DO UPDATE SET
			name = CASE WHEN excluded.name != '' THEN excluded.name ELSE village_members.name END,
			last_seen_at = excluded.last_seen_at`,
		member.Village, member.UserID, member.Name,
		member.JoinedAt.UnixNano(), member.LastSeenAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert village member: %w", err)
	}
	return nil
}

func (r *sqliteMemberRepo) ListByVillage(ctx context.Context, village string) ([]models.VillageMember, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT village, user_id, name, joined_at, last_seen_at
		FROM village_members
		WHERE village = ?
		ORDER BY joined_at, user_id`,
		village,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list village members: %w", err)
	}
	defer rows.Close()

	members := []models.VillageMember{}
	for rows.Next() {
		var m models.VillageMember
		var joined, seen int64
		if err := rows.Scan(&m.Village, &m.UserID, &m.Name, &joined, &seen); err != nil {
			return nil, fmt.Errorf("failed to scan village member: %w", err)
		}
		m.JoinedAt = time.Unix(0, joined).UTC()
		m.LastSeenAt = time.Unix(0, seen).UTC()
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate village members: %w", err)
	}
	return members, nil
}
