package jobs

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNoJob       = errors.New("no eligible job")
	ErrJobNotFound = errors.New("job not found")
)

type Stats struct {
	Waiting   int `json:"waiting"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// Store persists jobs across the producer and worker processes.
//
// Claim is the one operation requiring real mutual exclusion: it must
// move exactly one waiting job (lowest run_at, then FIFO) to active
// atomically so two workers can never execute the same occurrence.
type Store interface {
	Enqueue(ctx context.Context, job *Job) error
	Claim(ctx context.Context, queue string, now time.Time) (*Job, error)
	MarkCompleted(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, lastError string) error
	Reschedule(ctx context.Context, id string, runAt time.Time, attemptsMade int, lastError string) error
	Stats(ctx context.Context, queue string) (Stats, error)
}
