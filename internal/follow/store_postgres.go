package follow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bridges/internal/platform/postgres"
	id "bridges/pkg/domain"
	"bridges/pkg/platform/sentinel"
)

const edgeColumns = `follower_id, following_id, status, created_at, approved_at`

// PostgresStore persists edges in the follows table. The primary key on
// (follower_id, following_id) arbitrates concurrent requests; state
// transitions are conditional single-statement updates.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, edge *Edge) error {
	query := `
		INSERT INTO follows (` + edgeColumns + `)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		edge.FollowerID, edge.FollowingID, string(edge.Status), edge.CreatedAt, edge.ApprovedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create follow edge: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, followerID, followingID id.UserID) (*Edge, error) {
	query := `SELECT ` + edgeColumns + ` FROM follows WHERE follower_id = $1 AND following_id = $2`
	return scanEdge(s.db.QueryRowContext(ctx, query, followerID, followingID))
}

func (s *PostgresStore) Approve(ctx context.Context, followerID, followingID id.UserID, at time.Time) (*Edge, error) {
	query := `
		UPDATE follows SET status = 'approved', approved_at = $3
		WHERE follower_id = $1 AND following_id = $2 AND status = 'pending'
		RETURNING ` + edgeColumns
	return scanEdge(s.db.QueryRowContext(ctx, query, followerID, followingID, at))
}

func (s *PostgresStore) DeletePending(ctx context.Context, followerID, followingID id.UserID) error {
	query := `DELETE FROM follows WHERE follower_id = $1 AND following_id = $2 AND status = 'pending'`
	res, err := s.db.ExecContext(ctx, query, followerID, followingID)
	if err != nil {
		return fmt.Errorf("delete pending follow edge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete pending follow edge: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, followerID, followingID id.UserID) (*Edge, error) {
	query := `
		DELETE FROM follows WHERE follower_id = $1 AND following_id = $2
		RETURNING ` + edgeColumns
	return scanEdge(s.db.QueryRowContext(ctx, query, followerID, followingID))
}

func (s *PostgresStore) ListByFollowing(ctx context.Context, followingID id.UserID, status Status, limit int) ([]*Edge, error) {
	query := `
		SELECT ` + edgeColumns + ` FROM follows
		WHERE following_id = $1 AND status = $2
		ORDER BY created_at DESC LIMIT $3
	`
	return s.list(ctx, query, followingID, string(status), limit)
}

func (s *PostgresStore) ListByFollower(ctx context.Context, followerID id.UserID, status Status, limit int) ([]*Edge, error) {
	query := `
		SELECT ` + edgeColumns + ` FROM follows
		WHERE follower_id = $1 AND status = $2
		ORDER BY created_at DESC LIMIT $3
	`
	return s.list(ctx, query, followerID, string(status), limit)
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*Edge, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list follow edges: %w", err)
	}
	defer rows.Close()

	edges := make([]*Edge, 0)
	for rows.Next() {
		edge, err := scanEdge(rows)
		if err != nil {
			return nil, err
		}
		edges = append(edges, edge)
	}
	return edges, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEdge(row scanner) (*Edge, error) {
	var (
		e          Edge
		status     string
		approvedAt sql.NullTime
	)
	if err := row.Scan(&e.FollowerID, &e.FollowingID, &status, &e.CreatedAt, &approvedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan follow edge: %w", err)
	}
	e.Status = Status(status)
	if approvedAt.Valid {
		at := approvedAt.Time
		e.ApprovedAt = &at
	}
	return &e, nil
}
