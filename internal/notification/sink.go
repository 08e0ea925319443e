// Package notification persists and publishes durable notifications.
//
// Producers hand records to a Notifier, which stamps them and forwards them
// to a Sink. Sink failures never propagate to the producer: a missed
// notification is logged and counted, and the triggering operation
// succeeds.
package notification

import (
	"context"
	"errors"
	"log/slog"

	"bridges/pkg/platform/circuit"
)

// ErrSinkUnavailable is returned by a guarded sink while its circuit is
// open.
var ErrSinkUnavailable = errors.New("notification sink unavailable")

// Sink is the write-only contract for notification backends.
type Sink interface {
	Record(ctx context.Context, rec Record) error
}

type tee []Sink

// Tee fans a record out to every sink. All sinks are attempted; their
// errors are joined.
func Tee(sinks ...Sink) Sink {
	out := make(tee, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (t tee) Record(ctx context.Context, rec Record) error {
	var errs []error
	for _, s := range t {
		if err := s.Record(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type guarded struct {
	sink    Sink
	breaker *circuit.Breaker
	logger  *slog.Logger
}

// Guard skips sink while breaker is open so an unreachable backend does not
// add its timeout to every producing request.
func Guard(sink Sink, breaker *circuit.Breaker, logger *slog.Logger) Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &guarded{sink: sink, breaker: breaker, logger: logger}
}

func (g *guarded) Record(ctx context.Context, rec Record) error {
	if !g.breaker.Allow() {
		return ErrSinkUnavailable
	}
	if err := g.sink.Record(ctx, rec); err != nil {
		if g.breaker.RecordFailure() {
			g.logger.WarnContext(ctx, "notification sink circuit opened",
				"sink", g.breaker.Name(),
				"error", err,
			)
		}
		return err
	}
	if g.breaker.RecordSuccess() {
		g.logger.InfoContext(ctx, "notification sink circuit closed", "sink", g.breaker.Name())
	}
	return nil
}
