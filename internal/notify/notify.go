// Package notify delivers one-time password-reset codes to administrators.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/idcard-backend/internal/config"
)

// CodeJob is one queued code delivery.
type CodeJob struct {
	Destination string    `json:"destination"`
	Code        string    `json:"code"`
	QueuedAt    time.Time `json:"queued_at"`
}

// InBandSender only logs the code. The caller hands it back to the client.
type InBandSender struct {
	log zerolog.Logger
}

// NewInBandSender creates a new InBandSender.
func NewInBandSender(log zerolog.Logger) *InBandSender {
	return &InBandSender{log: log.With().Str("component", "inband_sender").Logger()}
}

func (s *InBandSender) SendCode(_ context.Context, destination, code string) error {
	s.log.Debug().Str("destination", destination).Str("code", code).Msg("Reset code issued in-band")
	return nil
}

func (s *InBandSender) OutOfBand() bool { return false }

// QueueSender pushes codes onto a Redis list drained by the notification worker.
type QueueSender struct {
	rdb   *redis.Client
	queue string
	now   func() time.Time
}

// NewQueueSender creates a new QueueSender.
func NewQueueSender(rdb *redis.Client) *QueueSender {
	return &QueueSender{
		rdb:   rdb,
		queue: config.WorkerKey.NotifyCodesQueue,
		now:   time.Now,
	}
}

func (s *QueueSender) SendCode(ctx context.Context, destination, code string) error {
	payload, err := json.Marshal(CodeJob{Destination: destination, Code: code, QueuedAt: s.now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal code job: %w", err)
	}
	if err := s.rdb.RPush(ctx, s.queue, payload).Err(); err != nil {
		return fmt.Errorf("queue code job: %w", err)
	}
	return nil
}

func (s *QueueSender) OutOfBand() bool { return true }
