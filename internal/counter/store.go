package counter

import "context"

// Store applies atomic signed increments. Values are never floored: deltas
// for one counter may land in any order and must still sum to the edge count.
type Store interface {
	Increment(ctx context.Context, target Target, field Field, amount int64) (int64, error)
	Counts(ctx context.Context, target Target) (Counts, error)
}
