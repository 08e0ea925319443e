package notification

import (
	"context"
	"log/slog"
	"time"

	id "bridges/pkg/domain"
	"bridges/pkg/requestcontext"
)

// Notifier stamps records and writes them to a sink best-effort.
type Notifier struct {
	sink    Sink
	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time
}

type NotifierOption func(*Notifier)

func WithLogger(logger *slog.Logger) NotifierOption {
	return func(n *Notifier) {
		n.logger = logger
	}
}

func WithMetrics(m *Metrics) NotifierOption {
	return func(n *Notifier) {
		n.metrics = m
	}
}

func NewNotifier(sink Sink, opts ...NotifierOption) *Notifier {
	n := &Notifier{
		sink:   sink,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify assigns an ID and creation time, forces IsRead=false and records
// the notification. Errors are logged and swallowed.
func (n *Notifier) Notify(ctx context.Context, rec Record) {
	if rec.RecipientID.IsNil() || rec.RecipientID == rec.SenderID {
		return
	}
	rec.ID = id.NewNotificationID()
	rec.CreatedAt = n.now().UTC().Truncate(time.Microsecond)
	rec.IsRead = false
	if rec.Data == nil {
		rec.Data = map[string]string{}
	}

	if err := n.sink.Record(ctx, rec); err != nil {
		n.logger.ErrorContext(ctx, "failed to record notification",
			"request_id", requestcontext.RequestID(ctx),
			"notification_type", string(rec.Type),
			"recipient_id", rec.RecipientID.String(),
			"error", err,
		)
		if n.metrics != nil {
			n.metrics.IncrementFailures(rec.Type)
		}
		return
	}
	if n.metrics != nil {
		n.metrics.IncrementRecorded(rec.Type)
	}
}
