// Package redisq provides a Redis-backed implementation of the record queue
// port. Multi-host deployments use it so that queue state survives engine
// restarts and is visible to the operator UI while a batch is in flight.
package redisq

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mfigueira/formpilot/pkg/models"
)

const keyPrefix = "formpilot:queue:"

// Queue implements persistence.Queue over Redis hashes, one hash per record.
type Queue struct {
	client *redis.Client
	ttl    time.Duration
}

func NewQueue(client *redis.Client, ttl time.Duration) *Queue {
	return &Queue{client: client, ttl: ttl}
}

// NewQueueFromURL parses a redis:// URL and builds a queue with the given
// entry TTL. A zero TTL keeps entries until deleted.
func NewQueueFromURL(url string, ttl time.Duration) (*Queue, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	return NewQueue(redis.NewClient(opts), ttl), nil
}

func (q *Queue) UpdateQueueStatus(ctx context.Context, recordID string, status models.QueueStatus, errorMessage string) error {
	key := keyPrefix + recordID

	fields := map[string]any{
		"status":     string(status),
		"error":      errorMessage,
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	}

	pipe := q.client.TxPipeline()
	pipe.HSet(ctx, key, fields)

	if q.ttl > 0 {
		pipe.Expire(ctx, key, q.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("update queue status for record %s: %w", recordID, err)
	}

	return nil
}

func (q *Queue) DeleteFromQueue(ctx context.Context, recordID string) error {
	if err := q.client.Del(ctx, keyPrefix+recordID).Err(); err != nil {
		return fmt.Errorf("delete queue entry for record %s: %w", recordID, err)
	}

	return nil
}

// StatusOf reads back a record's queue state; used by the API.
func (q *Queue) StatusOf(ctx context.Context, recordID string) (models.QueueStatus, string, error) {
	values, err := q.client.HGetAll(ctx, keyPrefix+recordID).Result()
	if err != nil {
		return "", "", fmt.Errorf("read queue entry for record %s: %w", recordID, err)
	}

	return models.QueueStatus(values["status"]), values["error"], nil
}

func (q *Queue) HealthCheck(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

func (q *Queue) Close() error {
	return q.client.Close()
}
