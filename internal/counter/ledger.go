// Package counter maintains the denormalized engagement counters.
//
// Counters are adjusted by signed deltas derived from committed edge
// changes. Adjustments are best-effort: a failed delta is logged, counted
// and dropped, and the triggering user action still succeeds. Nothing
// reconciles a dropped delta, so counters can drift from the true edge
// count until rebuilt offline.
package counter

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"bridges/pkg/requestcontext"
)

var tracer = otel.Tracer("bridges/internal/counter")

// Ledger applies counter deltas against a Store.
type Ledger struct {
	store   Store
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures a Ledger.
type Option func(*Ledger)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(l *Ledger) {
		l.metrics = m
	}
}

func NewLedger(store Store, opts ...Option) *Ledger {
	l := &Ledger{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Apply adjusts one counter atomically and returns the store's error.
func (l *Ledger) Apply(ctx context.Context, d Delta) error {
	if d.Amount == 0 {
		return nil
	}
	_, err := l.store.Increment(ctx, d.Target, d.Field, d.Amount)
	return err
}

// Record translates e into deltas and applies each one independently.
// Failures never propagate to the caller.
func (l *Ledger) Record(ctx context.Context, e Event) {
	ctx, span := tracer.Start(ctx, "counter.Record")
	span.SetAttributes(attribute.String("event", string(e.Kind)))
	defer span.End()

	for _, d := range Deltas(e) {
		if err := l.Apply(ctx, d); err != nil {
			span.RecordError(err)
			if l.metrics != nil {
				l.metrics.IncrementFailures(d.Field)
			}
			l.logger.ErrorContext(ctx, "counter delta dropped",
				"event", e.Kind,
				"target", d.Target.String(),
				"field", d.Field,
				"amount", d.Amount,
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
			continue
		}
		if l.metrics != nil {
			l.metrics.IncrementApplied(d.Field)
		}
	}
}

// Counts reads every counter stored for target. A value can sit below zero
// while a decrement is ahead of its increment; it reads as zero.
func (l *Ledger) Counts(ctx context.Context, target Target) (Counts, error) {
	counts, err := l.store.Counts(ctx, target)
	if err != nil {
		return nil, err
	}
	for field, v := range counts {
		counts[field] = max(v, 0)
	}
	return counts, nil
}
