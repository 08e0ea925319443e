package engagement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bridges/internal/platform/postgres"
	id "bridges/pkg/domain"
	"bridges/pkg/platform/sentinel"
)

// PostgresStore relies on the likes primary key for uniqueness and on
// ON DELETE CASCADE for comment threads.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateLike(ctx context.Context, like *Like) error {
	query := `INSERT INTO likes (user_id, bridge_id, created_at) VALUES ($1, $2, $3)`
	if _, err := s.db.ExecContext(ctx, query, like.UserID, like.ContentID, like.CreatedAt); err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create like: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteLike(ctx context.Context, userID id.UserID, contentID id.ContentID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM likes WHERE user_id = $1 AND bridge_id = $2`, userID, contentID)
	if err != nil {
		return fmt.Errorf("delete like: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete like: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) HasLiked(ctx context.Context, userID id.UserID, contentID id.ContentID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM likes WHERE user_id = $1 AND bridge_id = $2)`
	if err := s.db.QueryRowContext(ctx, query, userID, contentID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}
	return exists, nil
}

const commentColumns = `id, bridge_id, author_id, parent_id, body, created_at`

func (s *PostgresStore) CreateComment(ctx context.Context, c *Comment) error {
	query := `INSERT INTO comments (` + commentColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := s.db.ExecContext(ctx, query, c.ID, c.ContentID, c.ActorID, c.ParentID, c.Body, c.CreatedAt); err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindComment(ctx context.Context, commentID id.CommentID) (*Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`
	c, err := scanComment(s.db.QueryRowContext(ctx, query, commentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return c, err
}

func (s *PostgresStore) DeleteComment(ctx context.Context, commentID id.CommentID) ([]*Comment, error) {
	query := `
		WITH RECURSIVE thread AS (
			SELECT id FROM comments WHERE id = $1
			UNION ALL
			SELECT c.id FROM comments c JOIN thread t ON c.parent_id = t.id
		)
		DELETE FROM comments WHERE id IN (SELECT id FROM thread)
		RETURNING ` + commentColumns
	removed, err := s.queryComments(ctx, query, commentID)
	if err != nil {
		return nil, fmt.Errorf("delete comment: %w", err)
	}
	if len(removed) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return removed, nil
}

func (s *PostgresStore) ListComments(ctx context.Context, contentID id.ContentID, limit int) ([]*Comment, error) {
	query := `
		SELECT ` + commentColumns + `
		FROM comments
		WHERE bridge_id = $1
		ORDER BY created_at ASC
		LIMIT $2
	`
	comments, err := s.queryComments(ctx, query, contentID, limit)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

func (s *PostgresStore) queryComments(ctx context.Context, query string, args ...any) ([]*Comment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanComment(row scanner) (*Comment, error) {
	var c Comment
	if err := row.Scan(&c.ID, &c.ContentID, &c.ActorID, &c.ParentID, &c.Body, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan comment: %w", err)
	}
	return &c, nil
}
