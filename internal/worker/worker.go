package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mattraynor/fundraiser-api/internal/queue"
)

// maxAttempts bounds retries per task before it is dead-lettered.
const maxAttempts = 3

const dequeueTimeout = 5 * time.Second

type EmailSender interface {
	SendThankYou(ctx context.Context, donationID uint) error
	SendOwnerNotification(ctx context.Context, donationID uint) error
}

type TaskQueue interface {
	Enqueue(ctx context.Context, task queue.Task) error
	Dequeue(ctx context.Context, timeout time.Duration) (*queue.Task, error)
	DeadLetter(ctx context.Context, task queue.Task) error
}

// EmailWorker consumes notification tasks off the queue and executes
// them. Tasks are retried on failure up to maxAttempts, then parked on
// the dead-letter list. Every task handler is idempotent, so delivery
// being at-least-once is safe.
type EmailWorker struct {
	tasks  TaskQueue
	emails EmailSender
}

func NewEmailWorker(tasks TaskQueue, emails EmailSender) *EmailWorker {
	return &EmailWorker{
		tasks:  tasks,
		emails: emails,
	}
}

// Start blocks consuming tasks until ctx is cancelled.
func (w *EmailWorker) Start(ctx context.Context) error {
	zap.L().Info("email worker started")

	for {
		task, err := w.tasks.Dequeue(ctx, dequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				zap.L().Info("email worker stopping")

				return ctx.Err()
			}

			zap.L().Error("failed to dequeue task", zap.Error(err))
			time.Sleep(time.Second)

			continue
		}
		if task == nil {
			continue
		}

		if err := w.handle(ctx, *task); err != nil {
			w.retry(ctx, *task, err)
		}
	}
}

func (w *EmailWorker) handle(ctx context.Context, task queue.Task) error {
	switch task.Type {
	case queue.TaskThankYouEmail:
		return w.emails.SendThankYou(ctx, task.DonationID)
	case queue.TaskOwnerNotification:
		return w.emails.SendOwnerNotification(ctx, task.DonationID)
	default:
		zap.L().Warn("dropping task of unknown type", zap.String("type", task.Type))

		return nil
	}
}

func (w *EmailWorker) retry(ctx context.Context, task queue.Task, cause error) {
	task.Attempts++

	if task.Attempts >= maxAttempts {
		zap.L().Error("task exhausted retries, dead-lettering",
			zap.String("type", task.Type),
			zap.Uint("donation_id", task.DonationID),
			zap.Int("attempts", task.Attempts),
			zap.Error(cause),
		)

		if err := w.tasks.DeadLetter(ctx, task); err != nil {
			zap.L().Error("failed to dead-letter task", zap.Error(err))
		}

		return
	}

	zap.L().Warn(fmt.Sprintf("task failed, retry %d/%d", task.Attempts, maxAttempts-1),
		zap.String("type", task.Type),
		zap.Uint("donation_id", task.DonationID),
		zap.Error(cause),
	)

	if err := w.tasks.Enqueue(ctx, task); err != nil {
		zap.L().Error("failed to re-enqueue task", zap.Error(err))
	}
}
