package counter

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore keeps counters in the counters table, one row per
// (target, field). The upsert is a single statement so concurrent
// increments serialize on the row lock.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Increment(ctx context.Context, target Target, field Field, amount int64) (int64, error) {
	query := `
		INSERT INTO counters (target_kind, target_id, field, value)
		VALUES ($1, $2, $3, $4::BIGINT)
		ON CONFLICT (target_kind, target_id, field)
		DO UPDATE SET value = counters.value + $4::BIGINT
		RETURNING value
	`
	var value int64
	if err := s.db.QueryRowContext(ctx, query, string(target.Kind), target.ID, string(field), amount).Scan(&value); err != nil {
		return 0, fmt.Errorf("increment %s.%s: %w", target, field, err)
	}
	return value, nil
}

func (s *PostgresStore) Counts(ctx context.Context, target Target) (Counts, error) {
	query := `SELECT field, value FROM counters WHERE target_kind = $1 AND target_id = $2`
	rows, err := s.db.QueryContext(ctx, query, string(target.Kind), target.ID)
	if err != nil {
		return nil, fmt.Errorf("read counters %s: %w", target, err)
	}
	defer rows.Close()

	out := Counts{}
	for rows.Next() {
		var field string
		var value int64
		if err := rows.Scan(&field, &value); err != nil {
			return nil, fmt.Errorf("scan counter %s: %w", target, err)
		}
		out[Field(field)] = value
	}
	return out, rows.Err()
}
