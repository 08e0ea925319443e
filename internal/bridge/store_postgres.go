package bridge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bridges/internal/visibility"
	id "bridges/pkg/domain"
	"bridges/pkg/platform/sentinel"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, b *Bridge) error {
	query := `
		INSERT INTO bridges (id, owner_id, body, visibility, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := s.db.ExecContext(ctx, query, b.ID, b.OwnerID, b.Body, string(b.Visibility), b.CreatedAt); err != nil {
		return fmt.Errorf("create bridge: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, contentID id.ContentID) (*Bridge, error) {
	query := `SELECT id, owner_id, body, visibility, created_at FROM bridges WHERE id = $1`
	b, err := scanBridge(s.db.QueryRowContext(ctx, query, contentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return b, err
}

func (s *PostgresStore) Delete(ctx context.Context, contentID id.ContentID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM bridges WHERE id = $1`, contentID)
	if err != nil {
		return fmt.Errorf("delete bridge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete bridge: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, ownerID id.UserID, limit int) ([]*Bridge, error) {
	query := `
		SELECT id, owner_id, body, visibility, created_at
		FROM bridges
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list bridges: %w", err)
	}
	defer rows.Close()

	out := make([]*Bridge, 0)
	for rows.Next() {
		b, err := scanBridge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bridges: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBridge(row scanner) (*Bridge, error) {
	var (
		b     Bridge
		level string
	)
	if err := row.Scan(&b.ID, &b.OwnerID, &b.Body, &level, &b.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan bridge: %w", err)
	}
	b.Visibility = visibility.Level(level)
	return &b, nil
}
