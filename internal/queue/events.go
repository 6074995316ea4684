package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"pix-service/internal/dtos"
	internalErrors "pix-service/internal/errors"

	"github.com/go-redis/redis/v8"
)

const defaultEventsKey = "pix:events:queue"

// RedisQueue keeps pending events in a sorted set scored by enqueue time, so
// workers on any replica drain them oldest first.
type RedisQueue struct {
	rc          *redis.Client
	key         string
	waitTimeout time.Duration
}

func NewRedisQueue(rc *redis.Client) *RedisQueue {
	return &RedisQueue{
		rc:          rc,
		key:         defaultEventsKey,
		waitTimeout: 200 * time.Millisecond,
	}
}

func (rq *RedisQueue) Close() error {
	return rq.rc.Close()
}

func (rq *RedisQueue) Enqueue(ctx context.Context, e *dtos.ChargeEvent) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}

	score := e.OccurredAt
	if score.IsZero() {
		score = time.Now()
	}

	return rq.rc.ZAdd(ctx, rq.key, &redis.Z{
		Score:  float64(score.UnixMilli()),
		Member: payload,
	}).Err()
}

// Dequeue pops the oldest event. An empty set is reported as
// ErrNoEventsInQueue after waitTimeout.
func (rq *RedisQueue) Dequeue(ctx context.Context) (*dtos.ChargeEvent, error) {
	result, err := rq.rc.ZPopMin(ctx, rq.key, 1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	if len(result) == 0 {
		timer := time.NewTimer(rq.waitTimeout)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return nil, internalErrors.ErrNoEventsInQueue
		}
	}

	memberStr, ok := result[0].Member.(string)
	if !ok {
		return nil, errors.New("invalid member type in queue")
	}

	var event dtos.ChargeEvent
	if err := json.Unmarshal([]byte(memberStr), &event); err != nil {
		return nil, err
	}

	return &event, nil
}

func (rq *RedisQueue) Len(ctx context.Context) (int64, error) {
	return rq.rc.ZCard(ctx, rq.key).Result()
}
