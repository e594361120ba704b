package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agrispine/server/database"
	"github.com/agrispine/server/models"
	"github.com/agrispine/server/pkg"
)

// sqliteMessageRepo, MessageRepository'nin SQLite implementasyonu.
//
// Mesajın skaler alanları "messages" tablosunda, set alanları ise
// message_stars / message_reads / message_reactions / message_hidden
// tablolarında tutulur. Okumada setler toplu (batch) yüklenir; N+1 sorgu yok.
type sqliteMessageRepo struct {
	db *sql.DB
}

// NewSQLiteMessageRepo, constructor: interface döner.
func NewSQLiteMessageRepo(db *sql.DB) MessageRepository {
	return &sqliteMessageRepo{db: db}
}

const messageColumns = `id, sender_id, sender_name, village, text, image, audio, reply_to, reply_text, is_deleted, created_at`

func (r *sqliteMessageRepo) Insert(ctx context.Context, m *models.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	m.Normalize()

	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO messages (`+messageColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ID, m.SenderID, m.SenderName, m.Village, m.Text, m.Image, m.Audio,
			m.ReplyTo, m.ReplyText, m.IsDeleted, m.CreatedAt.UnixNano(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}

		for _, u := range m.StarredBy {
			if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO message_stars (message_id, user_id) VALUES (?, ?)`, m.ID, u); err != nil {
				return fmt.Errorf("failed to insert star: %w", err)
			}
		}
		for _, u := range m.ReadBy {
			if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO message_reads (message_id, user_id) VALUES (?, ?)`, m.ID, u); err != nil {
				return fmt.Errorf("failed to insert read: %w", err)
			}
		}
		for _, rc := range m.Reactions {
			if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO message_reactions (message_id, user_id, emoji) VALUES (?, ?, ?)`, m.ID, rc.UserID, rc.Emoji); err != nil {
				return fmt.Errorf("failed to insert reaction: %w", err)
			}
		}
		for _, u := range m.DeletedBy {
			if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO message_hidden (message_id, user_id) VALUES (?, ?)`, m.ID, u); err != nil {
				return fmt.Errorf("failed to insert hidden: %w", err)
			}
		}
		return nil
	})
}

func (r *sqliteMessageRepo) GetByID(ctx context.Context, id string) (*models.Message, error) {
	return getMessage(ctx, r.db, id)
}

func (r *sqliteMessageRepo) ListVisible(ctx context.Context, village, viewerID string) ([]models.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+messageColumns+`
		FROM messages m
		WHERE m.village = ?
		  AND NOT EXISTS (
		      SELECT 1 FROM message_hidden h
		      WHERE h.message_id = m.id AND h.user_id = ?)
		ORDER BY m.created_at, m.rowid`,
		village, viewerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	messages, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}

	if err := loadSets(ctx, r.db, messages, `SELECT id FROM messages WHERE village = ?`, village); err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkReadBulk: INSERT OR IGNORE sayesinde zaten okumuş olunan mesajlar
// etkilenmez; RowsAffected yalnızca yeni eklenenleri sayar.
func (r *sqliteMessageRepo) MarkReadBulk(ctx context.Context, village, viewerID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO message_reads (message_id, user_id)
		SELECT id, ? FROM messages WHERE village = ?
		ORDER BY created_at, rowid`,
		viewerID, village,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}
	return res.RowsAffected()
}

func (r *sqliteMessageRepo) SoftDeleteForEveryone(ctx context.Context, id, requesterID string) (*models.Message, error) {
	var out *models.Message

	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var senderID string
		err := tx.QueryRowContext(ctx, `SELECT sender_id FROM messages WHERE id = ?`, id).Scan(&senderID)
		if errors.Is(err, sql.ErrNoRows) {
			return pkg.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get message sender: %w", err)
		}

		if senderID != requesterID {
			return fmt.Errorf("%w: only the sender can delete this message", pkg.ErrUnauthorized)
		}

		if err := tombstone(ctx, tx, []string{id}); err != nil {
			return err
		}

		out, err = getMessage(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sqliteMessageRepo) SoftDeleteOwned(ctx context.Context, ids []string, requesterID string) ([]models.Message, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return []models.Message{}, nil
	}

	var out []models.Message

	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		args := append([]any{requesterID}, toArgs(ids)...)
		rows, err := tx.QueryContext(ctx,
			`SELECT id FROM messages WHERE sender_id = ? AND id IN (`+placeholders(len(ids))+`)`,
			args...,
		)
		if err != nil {
			return fmt.Errorf("failed to select owned messages: %w", err)
		}

		var owned []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan owned message id: %w", err)
			}
			owned = append(owned, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to iterate owned messages: %w", err)
		}

		if len(owned) == 0 {
			out = []models.Message{}
			return nil
		}

		if err := tombstone(ctx, tx, owned); err != nil {
			return err
		}

		out, err = listByIDs(ctx, tx, owned)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sqliteMessageRepo) DeleteForMe(ctx context.Context, ids []string, viewerID string) (int64, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return 0, nil
	}

	args := append([]any{viewerID}, toArgs(ids)...)
	res, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO message_hidden (message_id, user_id)
		SELECT id, ? FROM messages WHERE id IN (`+placeholders(len(ids))+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to hide messages: %w", err)
	}
	return res.RowsAffected()
}

func (r *sqliteMessageRepo) ToggleStar(ctx context.Context, id, userID string) (*models.Message, error) {
	return r.mutate(ctx, id, func(tx *sql.Tx, _ bool) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM message_stars WHERE message_id = ? AND user_id = ?`, id, userID)
		if err != nil {
			return fmt.Errorf("failed to unstar message: %w", err)
		}

		removed, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read rows affected: %w", err)
		}
		if removed > 0 {
			return nil
		}

		if _, err := tx.ExecContext(ctx, `INSERT INTO message_stars (message_id, user_id) VALUES (?, ?)`, id, userID); err != nil {
			return fmt.Errorf("failed to star message: %w", err)
		}
		return nil
	})
}

// SetReaction: kullanıcının eski tepkisi silinip yenisi sona eklenir,
// yani tepki listesinde en son tepki veren en sonda görünür.
func (r *sqliteMessageRepo) SetReaction(ctx context.Context, id, userID, emoji string) (*models.Message, error) {
	return r.mutate(ctx, id, func(tx *sql.Tx, isDeleted bool) error {
		if isDeleted {
			return fmt.Errorf("%w: cannot react to a deleted message", pkg.ErrBadRequest)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM message_reactions WHERE message_id = ? AND user_id = ?`, id, userID); err != nil {
			return fmt.Errorf("failed to clear previous reaction: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO message_reactions (message_id, user_id, emoji) VALUES (?, ?, ?)`, id, userID, emoji); err != nil {
			return fmt.Errorf("failed to add reaction: %w", err)
		}
		return nil
	})
}

func (r *sqliteMessageRepo) ClearReaction(ctx context.Context, id, userID string) (*models.Message, error) {
	return r.mutate(ctx, id, func(tx *sql.Tx, _ bool) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM message_reactions WHERE message_id = ? AND user_id = ?`, id, userID); err != nil {
			return fmt.Errorf("failed to remove reaction: %w", err)
		}
		return nil
	})
}

// SweepUnstarred: alt tablolardaki satırlar ON DELETE CASCADE ile gider.
func (r *sqliteMessageRepo) SweepUnstarred(ctx context.Context, village string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM messages
		WHERE village = ?
		  AND NOT EXISTS (SELECT 1 FROM message_stars s WHERE s.message_id = messages.id)`,
		village,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep unstarred messages: %w", err)
	}
	return res.RowsAffected()
}

// mutate, tek mesajlık bir read-modify-write'ı transaction içinde çalıştırır
// ve güncel mesajı döner. Mesaj yoksa pkg.ErrNotFound.
func (r *sqliteMessageRepo) mutate(ctx context.Context, id string, fn func(tx *sql.Tx, isDeleted bool) error) (*models.Message, error) {
	var out *models.Message

	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var isDeleted bool
		err := tx.QueryRowContext(ctx, `SELECT is_deleted FROM messages WHERE id = ?`, id).Scan(&isDeleted)
		if errors.Is(err, sql.ErrNoRows) {
			return pkg.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get message: %w", err)
		}

		if err := fn(tx, isDeleted); err != nil {
			return err
		}

		out, err = getMessage(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ─── yardımcılar ───

func tombstone(ctx context.Context, q database.TxQuerier, ids []string) error {
	args := append([]any{models.DeletedPlaceholder}, toArgs(ids)...)
	if _, err := q.ExecContext(ctx,
		`UPDATE messages SET is_deleted = 1, text = ?, reply_text = '' WHERE id IN (`+placeholders(len(ids))+`)`,
		args...,
	); err != nil {
		return fmt.Errorf("failed to tombstone messages: %w", err)
	}

	if _, err := q.ExecContext(ctx,
		`DELETE FROM message_reactions WHERE message_id IN (`+placeholders(len(ids))+`)`,
		toArgs(ids)...,
	); err != nil {
		return fmt.Errorf("failed to clear reactions: %w", err)
	}
	return nil
}

func getMessage(ctx context.Context, q database.TxQuerier, id string) (*models.Message, error) {
	m, err := scanMessage(q.QueryRowContext(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message by id: %w", err)
	}

	msgs := []models.Message{m}
	if err := loadSets(ctx, q, msgs, `?`, id); err != nil {
		return nil, err
	}
	return &msgs[0], nil
}

func listByIDs(ctx context.Context, q database.TxQuerier, ids []string) ([]models.Message, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE id IN (`+placeholders(len(ids))+`) ORDER BY created_at, rowid`,
		toArgs(ids)...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages by id: %w", err)
	}

	messages, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}

	if err := loadSets(ctx, q, messages, placeholders(len(ids)), toArgs(ids)...); err != nil {
		return nil, err
	}
	return messages, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(s rowScanner) (models.Message, error) {
	var (
		m         models.Message
		replyTo   sql.NullString
		createdAt int64
	)

	err := s.Scan(
		&m.ID, &m.SenderID, &m.SenderName, &m.Village,
		&m.Text, &m.Image, &m.Audio, &replyTo, &m.ReplyText,
		&m.IsDeleted, &createdAt,
	)
	if err != nil {
		return m, err
	}

	if replyTo.Valid {
		v := replyTo.String
		m.ReplyTo = &v
	}
	m.CreatedAt = time.Unix(0, createdAt).UTC()
	return m, nil
}

func scanMessages(rows *sql.Rows) ([]models.Message, error) {
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return messages, nil
}

// loadSets, verilen mesajların set alanlarını dört sorguyla doldurur.
// scope, "message_id IN (...)" içine yazılacak alt sorgu veya placeholder listesidir.
func loadSets(ctx context.Context, q database.TxQuerier, msgs []models.Message, scope string, args ...any) error {
	index := make(map[string]*models.Message, len(msgs))
	for i := range msgs {
		msgs[i].Normalize()
		index[msgs[i].ID] = &msgs[i]
	}
	if len(msgs) == 0 {
		return nil
	}

	pairs := []struct {
		table string
		order string
		add   func(m *models.Message, userID string)
	}{
		{"message_stars", "rowid", func(m *models.Message, u string) { m.StarredBy = append(m.StarredBy, u) }},
		{"message_reads", "seq", func(m *models.Message, u string) { m.ReadBy = append(m.ReadBy, u) }},
		{"message_hidden", "rowid", func(m *models.Message, u string) { m.DeletedBy = append(m.DeletedBy, u) }},
	}

	for _, p := range pairs {
		rows, err := q.QueryContext(ctx,
			`SELECT message_id, user_id FROM `+p.table+` WHERE message_id IN (`+scope+`) ORDER BY `+p.order,
			args...,
		)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", p.table, err)
		}

		for rows.Next() {
			var msgID, userID string
			if err := rows.Scan(&msgID, &userID); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan %s: %w", p.table, err)
			}
			if m, ok := index[msgID]; ok {
				p.add(m, userID)
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to iterate %s: %w", p.table, err)
		}
	}

	rows, err := q.QueryContext(ctx,
		`SELECT message_id, user_id, emoji FROM message_reactions WHERE message_id IN (`+scope+`) ORDER BY seq`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to load reactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var msgID string
		var rc models.Reaction
		if err := rows.Scan(&msgID, &rc.UserID, &rc.Emoji); err != nil {
			return fmt.Errorf("failed to scan reaction: %w", err)
		}
		if m, ok := index[msgID]; ok {
			m.Reactions = append(m.Reactions, rc)
		}
	}
	return rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func toArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// uniqueIDs, boş ve tekrar eden id'leri sırayı koruyarak atar.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
