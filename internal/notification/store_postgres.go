package notification

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	id "bridges/pkg/domain"
	"bridges/pkg/platform/sentinel"
)

// PostgresStore persists notifications in the notifications table. Data is
// stored as JSONB.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const notificationColumns = `id, recipient_id, sender_id, type, title, body, data, is_read, created_at`

func (s *PostgresStore) Record(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec.Data)
	if err != nil {
		return fmt.Errorf("marshal notification data: %w", err)
	}
	query := `
		INSERT INTO notifications (` + notificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = s.db.ExecContext(ctx, query,
		rec.ID, rec.RecipientID, rec.SenderID, string(rec.Type), rec.Title, rec.Body, string(data), rec.IsRead, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByRecipient(ctx context.Context, recipientID id.UserID, unreadOnly bool, limit int) ([]*Record, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE recipient_id = $1 AND (NOT $2 OR is_read = FALSE)
		ORDER BY created_at DESC
		LIMIT $3
	`
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, query, recipientID, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := make([]*Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) MarkRead(ctx context.Context, recipientID id.UserID, notificationID id.NotificationID) (*Record, error) {
	query := `
		UPDATE notifications SET is_read = TRUE
		WHERE id = $1 AND recipient_id = $2
		RETURNING ` + notificationColumns
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, notificationID, recipientID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var (
		rec     Record
		recType string
		data    []byte
	)
	if err := row.Scan(&rec.ID, &rec.RecipientID, &rec.SenderID, &recType, &rec.Title, &rec.Body, &data, &rec.IsRead, &rec.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan notification: %w", err)
	}
	rec.Type = Type(recType)
	rec.Data = map[string]string{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &rec.Data); err != nil {
			return nil, fmt.Errorf("decode notification data: %w", err)
		}
	}
	return &rec, nil
}
