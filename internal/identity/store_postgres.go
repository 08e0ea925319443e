package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bridges/internal/platform/postgres"
	id "bridges/pkg/domain"
	"bridges/pkg/platform/sentinel"
)

// PostgresStore persists accounts in the users table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, account *Account) error {
	query := `
		INSERT INTO users (id, username, is_private, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.db.ExecContext(ctx, query, account.ID, account.Username, account.IsPrivate, account.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*Account, error) {
	query := `SELECT id, username, is_private, created_at FROM users WHERE id = $1`
	return scanAccount(s.db.QueryRowContext(ctx, query, userID))
}

func (s *PostgresStore) SetPrivacy(ctx context.Context, userID id.UserID, private bool) (*Account, error) {
	query := `
		UPDATE users SET is_private = $2
		WHERE id = $1
		RETURNING id, username, is_private, created_at
	`
	return scanAccount(s.db.QueryRowContext(ctx, query, userID, private))
}

func scanAccount(row *sql.Row) (*Account, error) {
	var a Account
	if err := row.Scan(&a.ID, &a.Username, &a.IsPrivate, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return &a, nil
}
