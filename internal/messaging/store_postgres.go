package messaging

import (
	"context"
	"database/sql"
	"fmt"

	id "bridges/pkg/domain"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, m *Message) error {
	query := `
		INSERT INTO messages (id, sender_id, recipient_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := s.db.ExecContext(ctx, query, m.ID, m.SenderID, m.RecipientID, m.Body, m.CreatedAt); err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListConversation(ctx context.Context, a, b id.UserID, limit int) ([]*Message, error) {
	query := `
		SELECT id, sender_id, recipient_id, body, created_at FROM (
			SELECT id, sender_id, recipient_id, body, created_at
			FROM messages
			WHERE LEAST(sender_id, recipient_id) = LEAST($1::uuid, $2::uuid)
			  AND GREATEST(sender_id, recipient_id) = GREATEST($1::uuid, $2::uuid)
			ORDER BY created_at DESC
			LIMIT $3
		) recent
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, a, b, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	out := make([]*Message, 0)
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return out, nil
}
