package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/orris-inc/referrals/internal/shared/logger"
)

// ReferralReportQueue is the Redis list consumed by the referral report worker.
const ReferralReportQueue = "referrals:queue:referral-report"

// ErrMalformedEvent marks a queue item that could not be decoded. The item is
// already removed from the queue.
var ErrMalformedEvent = errors.New("malformed referral report event")

// ReferralReportEvent announces that a referral batch has been processed.
type ReferralReportEvent struct {
	TransactionID string `json:"transactionId"`
}

// RedisReferralEventQueue pushes referral report events onto a Redis list.
type RedisReferralEventQueue struct {
	client *redis.Client
	queue  string
	logger logger.Interface
}

// NewRedisReferralEventQueue creates a new Redis-backed referral event queue
func NewRedisReferralEventQueue(client *redis.Client, logger logger.Interface) *RedisReferralEventQueue {
	return &RedisReferralEventQueue{
		client: client,
		queue:  ReferralReportQueue,
		logger: logger,
	}
}

// PublishReferralReport enqueues a report event for transactionID
func (q *RedisReferralEventQueue) PublishReferralReport(ctx context.Context, transactionID string) error {
	data, err := json.Marshal(ReferralReportEvent{TransactionID: transactionID})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := q.client.RPush(ctx, q.queue, data).Err(); err != nil {
		q.logger.Errorw("failed to enqueue referral report",
			"transaction_id", transactionID,
			"queue", q.queue,
			"error", err,
		)
		return fmt.Errorf("failed to enqueue event: %w", err)
	}

	q.logger.Debugw("referral report enqueued",
		"transaction_id", transactionID,
		"queue", q.queue,
	)
	return nil
}

// Pop blocks up to timeout for the next event. It returns nil, nil on timeout.
func (q *RedisReferralEventQueue) Pop(ctx context.Context, timeout time.Duration) (*ReferralReportEvent, error) {
	values, err := q.client.BLPop(ctx, timeout, q.queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to pop event: %w", err)
	}

	// BLPOP replies with [key, value].
	if len(values) != 2 {
		return nil, fmt.Errorf("unexpected BLPOP reply length %d", len(values))
	}

	var event ReferralReportEvent
	if err := json.Unmarshal([]byte(values[1]), &event); err != nil {
		q.logger.Warnw("dropping malformed referral report event",
			"queue", q.queue,
			"payload", values[1],
			"error", err,
		)
		return nil, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}
	return &event, nil
}

// EventHandler processes one popped event.
type EventHandler func(ctx context.Context, event *ReferralReportEvent) error

// Consume pops events and hands them to handle until ctx is cancelled.
// Handler errors and malformed events are logged and skipped; queue errors
// back off for retryDelay before the next attempt.
func (q *RedisReferralEventQueue) Consume(ctx context.Context, pollTimeout, retryDelay time.Duration, handle EventHandler) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		event, err := q.Pop(ctx, pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, ErrMalformedEvent) {
				continue
			}
			q.logger.Errorw("failed to pop referral report event", "queue", q.queue, "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(retryDelay):
			}
			continue
		}
		if event == nil {
			continue
		}

		if err := handle(ctx, event); err != nil {
			q.logger.Errorw("failed to handle referral report event",
				"transaction_id", event.TransactionID,
				"error", err,
			)
		}
	}
}

// Len returns the number of pending events.
func (q *RedisReferralEventQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.queue).Result()
}
