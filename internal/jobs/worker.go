package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// runWorker is one worker slot: claim the next eligible job, execute its
// handler, settle the outcome, repeat. Grounded polling, no pub/sub.
func (e *Engine) runWorker(ctx context.Context, q *queue) {
	defer e.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stop:
			return
		default:
		}

		job, err := e.store.Claim(ctx, q.name, time.Now())
		if err != nil {
			if !errors.Is(err, ErrNoJob) && !errors.Is(err, context.Canceled) {
				log.Printf("failed to claim job on queue %v: %v", q.name, err)
			}
			select {
			case <-ctx.Done():
				return
			case <-e.stop:
				return
			case <-time.After(q.cfg.PollInterval):
			}
			continue
		}

		e.execute(ctx, q, job)
	}
}

func (e *Engine) execute(ctx context.Context, q *queue, job *Job) {
	// Lifecycle writes settle on a context detached from the run context:
	// shutdown cancels ctx while a handler is in flight, and a settle
	// query failing with context.Canceled would strand the claimed row in
	// active forever.
	settleCtx := context.WithoutCancel(ctx)

	handler, exists := q.handler(job.Type)
	if !exists {
		// Nothing will ever be able to run this occurrence; fail it
		// outright instead of burning the retry budget.
		log.Printf("no handler for job type %v on queue %v, job id = %v", job.Type, q.name, job.ID)
		e.settleFailure(settleCtx, q, job, fmt.Sprintf("no handler registered for type %q", job.Type))
		return
	}

	start := time.Now()
	handlerErr := runHandler(ctx, handler, job)
	JobDuration.WithLabelValues(q.name, job.Type).Observe(time.Since(start).Seconds())

	if handlerErr == nil {
		if err := e.store.MarkCompleted(settleCtx, job.ID); err != nil {
			log.Printf("failed to mark job completed id = %v: %v", job.ID, err)
		}
		JobsProcessed.WithLabelValues(q.name, "completed").Inc()
		e.scheduleRepeat(settleCtx, job)
		return
	}

	log.Printf("job handler error on queue %v type %v id = %v attempt %d/%d: %v",
		q.name, job.Type, job.ID, job.AttemptsMade+1, job.MaxAttempts, handlerErr)

	job.AttemptsMade++
	if job.AttemptsMade < job.MaxAttempts {
		delay := backoffDelay(job.BackoffKind, job.BackoffDelay, job.AttemptsMade)
		if err := e.store.Reschedule(settleCtx, job.ID, time.Now().Add(delay), job.AttemptsMade, handlerErr.Error()); err != nil {
			log.Printf("failed to reschedule job id = %v: %v", job.ID, err)
		}
		JobsProcessed.WithLabelValues(q.name, "retried").Inc()
		return
	}

	e.settleFailure(settleCtx, q, job, handlerErr.Error())
}

// runHandler converts a handler panic into an ordinary retryable error.
func runHandler(ctx context.Context, handler Handler, job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job handler panic: %v", r)
		}
	}()
	return handler(ctx, job.Payload)
}

func (e *Engine) settleFailure(ctx context.Context, q *queue, job *Job, lastError string) {
	if err := e.store.MarkFailed(ctx, job.ID, lastError); err != nil {
		log.Printf("failed to mark job failed id = %v: %v", job.ID, err)
	}
	JobsProcessed.WithLabelValues(q.name, "failed").Inc()
	// A recurring job keeps its schedule even when one occurrence
	// exhausts its retries.
	e.scheduleRepeat(ctx, job)
}

// scheduleRepeat enqueues the next occurrence of a recurring job once
// the current one reached a terminal state. Missed ticks are skipped,
// never backfilled.
func (e *Engine) scheduleRepeat(ctx context.Context, job *Job) {
	if job.RepeatEvery <= 0 {
		return
	}

	next := job.RunAt.Add(job.RepeatEvery)
	now := time.Now()
	for !next.After(now) {
		next = next.Add(job.RepeatEvery)
	}

	repeat := &Job{
		ID:           uuid.New().String(),
		Queue:        job.Queue,
		Type:         job.Type,
		Payload:      job.Payload,
		Status:       StatusWaiting,
		MaxAttempts:  job.MaxAttempts,
		BackoffKind:  job.BackoffKind,
		BackoffDelay: job.BackoffDelay,
		RunAt:        next,
		RepeatEvery:  job.RepeatEvery,
	}
	if err := e.store.Enqueue(ctx, repeat); err != nil {
		log.Printf("failed to enqueue recurring occurrence for job id = %v: %v", job.ID, err)
		return
	}
	JobsEnqueued.WithLabelValues(job.Queue, job.Type).Inc()
}
