package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/Rizki-Rahmadani/management-product/internal/usecase"
)

// Publisher is what the dispatcher needs from the broker side.
type Publisher interface {
	Publish(ctx context.Context, body []byte) error
}

// OutboxDispatcher drains PENDING outbox rows to the broker. The order
// transaction only stages rows; delivery happens here, after commit, so a
// rolled-back order never produces an event.
type OutboxDispatcher struct {
	outbox   usecase.OutboxRepo
	producer Publisher
	log      *slog.Logger

	interval  time.Duration
	batchSize int
}

type DispatcherOption func(*OutboxDispatcher)

func WithInterval(d time.Duration) DispatcherOption {
	return func(o *OutboxDispatcher) { o.interval = d }
}

func WithBatchSize(n int) DispatcherOption {
	return func(o *OutboxDispatcher) { o.batchSize = n }
}

// NewOutboxDispatcher constructs a dispatcher. Defaults: interval=1s, batch=100.
func NewOutboxDispatcher(outbox usecase.OutboxRepo, producer Publisher, log *slog.Logger, opts ...DispatcherOption) *OutboxDispatcher {
	d := &OutboxDispatcher{
		outbox:    outbox,
		producer:  producer,
		log:       log,
		interval:  time.Second,
		batchSize: 100,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run blocks until ctx is cancelled.
func (d *OutboxDispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			d.drain(ctx)
		}
	}
}

func (d *OutboxDispatcher) drain(ctx context.Context) {
	rows, err := d.outbox.ClaimPending(ctx, d.batchSize)
	if err != nil {
		d.log.Error("outbox claim failed", "err", err)
		return
	}

	for _, row := range rows {
		if err := d.producer.Publish(ctx, row.Payload); err != nil {
			next := time.Now().Add(backoff(row.RetryCount))
			d.log.Error("outbox publish failed",
				"id", row.ID, "channel", row.Channel, "retry", row.RetryCount, "err", err)
			if merr := d.outbox.MarkFailed(ctx, row.ID, next); merr != nil {
				d.log.Error("outbox mark-failed failed", "id", row.ID, "err", merr)
			}
			continue
		}
		if err := d.outbox.MarkSent(ctx, row.ID); err != nil {
			// Row stays PENDING and will be republished; consumers must
			// tolerate duplicates (at-least-once).
			d.log.Error("outbox mark-sent failed", "id", row.ID, "err", err)
		}
	}
}

// backoff: 2s, 4s, 8s ... capped at 5 minutes.
func backoff(retries int) time.Duration {
	d := 2 * time.Second
	for i := 0; i < retries && d < 5*time.Minute; i++ {
		d *= 2
	}
	if d > 5*time.Minute {
		d = 5 * time.Minute
	}
	return d
}
