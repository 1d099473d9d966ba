package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/mattraynor/fundraiser-api/internal/config"
)

// Task types the email worker understands.
const (
	TaskThankYouEmail     = "send_thank_you_email"
	TaskOwnerNotification = "send_donation_notification"
)

const (
	tasksKey      = "emails:tasks"
	deadLetterKey = "emails:dead"
)

// Task is the unit of work handed to the email worker. It carries only
// the donation id; the worker re-reads all state from the database.
type Task struct {
	Type       string `json:"type"`
	DonationID uint   `json:"donation_id"`
	Attempts   int    `json:"attempts"`
}

// RedisQueue is a Redis-list backed task queue: LPUSH to enqueue,
// blocking BRPOP to consume. Delivery is at-least-once; consumers must
// be idempotent.
type RedisQueue struct {
	rdb *redis.Client
}

func NewRedisQueue(conf *config.RedisConfig) (*RedisQueue, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed -> %w", err)
	}

	return &RedisQueue{rdb: rdb}, nil
}

func (q *RedisQueue) Enqueue(ctx context.Context, task Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task -> %w", err)
	}

	if err := q.rdb.LPush(ctx, tasksKey, payload).Err(); err != nil {
		return fmt.Errorf("redis LPUSH -> %w", err)
	}

	return nil
}

// Dequeue blocks up to timeout for the next task. It returns nil when
// the timeout elapses with no work available.
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (*Task, error) {
	res, err := q.rdb.BRPop(ctx, timeout, tasksKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}

		return nil, fmt.Errorf("redis BRPOP -> %w", err)
	}

	// BRPOP returns [key, value].
	var task Task
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		return nil, fmt.Errorf("unmarshal task -> %w", err)
	}

	return &task, nil
}

// DeadLetter parks a task that exhausted its retries so it can be
// inspected and replayed by hand.
func (q *RedisQueue) DeadLetter(ctx context.Context, task Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task -> %w", err)
	}

	if err := q.rdb.LPush(ctx, deadLetterKey, payload).Err(); err != nil {
		return fmt.Errorf("redis LPUSH -> %w", err)
	}

	return nil
}

func (q *RedisQueue) Close() error {
	return q.rdb.Close()
}
