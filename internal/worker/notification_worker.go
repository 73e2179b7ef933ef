package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/idcard-backend/internal/config"
	"github.com/stemsi/idcard-backend/internal/notify"
)

// Deliverer hands a code to its final transport.
type Deliverer interface {
	Deliver(ctx context.Context, job notify.CodeJob) error
}

// LogDeliverer records deliveries in the log. No mail transport is wired.
type LogDeliverer struct {
	log zerolog.Logger
}

// NewLogDeliverer creates a new LogDeliverer.
func NewLogDeliverer(log zerolog.Logger) *LogDeliverer {
	return &LogDeliverer{log: log.With().Str("component", "log_deliverer").Logger()}
}

func (d *LogDeliverer) Deliver(_ context.Context, job notify.CodeJob) error {
	d.log.Info().
		Str("destination", job.Destination).
		Time("queued_at", job.QueuedAt).
		Msg("Password reset code delivered")
	d.log.Debug().Str("destination", job.Destination).Str("code", job.Code).Msg("Delivered code")
	return nil
}

// NotificationWorker consumes notify_codes_queue and delivers each code.
type NotificationWorker struct {
	rdb        *redis.Client
	deliverer  Deliverer
	log        zerolog.Logger
	queue      string
	retryDelay time.Duration
}

// NewNotificationWorker creates a new NotificationWorker.
func NewNotificationWorker(rdb *redis.Client, deliverer Deliverer, log zerolog.Logger) *NotificationWorker {
	return &NotificationWorker{
		rdb:        rdb,
		deliverer:  deliverer,
		log:        log.With().Str("component", "notification_worker").Logger(),
		queue:      config.WorkerKey.NotifyCodesQueue,
		retryDelay: 5 * time.Second,
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *NotificationWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *NotificationWorker) processNext(ctx context.Context) {
	result, err := w.rdb.BLPop(ctx, time.Second, w.queue).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}
	if len(result) < 2 {
		return
	}

	if err := w.handle(ctx, result[1]); err != nil {
		w.log.Error().Err(err).Msg("Delivery error, retrying")
		w.rdb.RPush(context.Background(), w.queue, result[1])
		select {
		case <-ctx.Done():
		case <-time.After(w.retryDelay):
		}
	}
}

// handle delivers one raw payload. Malformed payloads are dropped.
func (w *NotificationWorker) handle(ctx context.Context, raw string) error {
	var job notify.CodeJob
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error, dropping job")
		return nil
	}
	return w.deliverer.Deliver(ctx, job)
}

// drain delivers whatever is still queued before shutdown.
func (w *NotificationWorker) drain(ctx context.Context) {
	drained := 0
	for {
		raw, err := w.rdb.LPop(ctx, w.queue).Result()
		if err != nil {
			break
		}
		if err := w.handle(ctx, raw); err != nil {
			w.log.Error().Err(err).Msg("Drain delivery error")
			w.rdb.RPush(ctx, w.queue, raw)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
