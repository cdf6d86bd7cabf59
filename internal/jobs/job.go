package jobs

import (
	"context"
	"encoding/json"
	"time"
)

type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

type BackoffKind string

const (
	BackoffFixed       BackoffKind = "fixed"
	BackoffExponential BackoffKind = "exponential"
)

// Job is one unit of deferred work. Producers only ever see the copy
// returned by Enqueue; the engine owns the stored record.
type Job struct {
	ID           string          `json:"id"`
	Seq          int64           `json:"seq"` // store-assigned, FIFO tie-break within equal run_at
	Queue        string          `json:"queue"`
	Type         string          `json:"type"`
	Payload      json.RawMessage `json:"payload"`
	Status       Status          `json:"status"`
	AttemptsMade int             `json:"attemptsMade"`
	MaxAttempts  int             `json:"maxAttempts"`
	BackoffKind  BackoffKind     `json:"backoffKind"`
	BackoffDelay time.Duration   `json:"backoffDelay"`
	RunAt        time.Time       `json:"runAt"`
	RepeatEvery  time.Duration   `json:"repeatEvery,omitempty"`
	LastError    string          `json:"lastError,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// Options tune a single enqueue. Zero values fall back to the queue's
// configured defaults.
type Options struct {
	Delay        time.Duration
	Attempts     int
	Backoff      BackoffKind
	BackoffDelay time.Duration
	RepeatEvery  time.Duration
}

// Handler executes the business logic for one job occurrence. A non-nil
// error schedules a retry until the attempt budget is spent.
type Handler func(ctx context.Context, payload json.RawMessage) error

// backoffDelay returns the wait before the next attempt. attempt is the
// number of attempts already made (1-based after the first failure).
func backoffDelay(kind BackoffKind, base time.Duration, attempt int) time.Duration {
	if kind == BackoffExponential {
		return base * time.Duration(1<<(attempt-1))
	}
	return base
}
