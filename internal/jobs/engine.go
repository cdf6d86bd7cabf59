package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrQueueNotRegistered = errors.New("queue not registered")
	ErrHandlerExists      = errors.New("handler already registered for job type")
)

// QueueConfig tunes one named queue. Zero values get sane defaults.
type QueueConfig struct {
	Workers             int
	PollInterval        time.Duration
	DefaultMaxAttempts  int
	DefaultBackoff      BackoffKind
	DefaultBackoffDelay time.Duration
}

type queue struct {
	name string
	cfg  QueueConfig

	mu       sync.RWMutex
	handlers map[string]Handler
}

func (q *queue) handler(jobType string) (Handler, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	h, exists := q.handlers[jobType]
	return h, exists
}

// Engine owns a registry of named queues over a shared job store. It is
// constructed and injected explicitly; there is no process-wide instance.
type Engine struct {
	store Store

	mu     sync.RWMutex
	queues map[string]*queue

	stop    chan struct{}
	wg      sync.WaitGroup
	started bool
}

func NewEngine(store Store) *Engine {
	return &Engine{
		store:  store,
		queues: make(map[string]*queue),
		stop:   make(chan struct{}),
	}
}

// RegisterQueue declares a named queue. Must happen before Start.
func (e *Engine) RegisterQueue(name string, cfg QueueConfig) {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 200 * time.Millisecond
	}
	if cfg.DefaultMaxAttempts <= 0 {
		cfg.DefaultMaxAttempts = 3
	}
	if cfg.DefaultBackoff == "" {
		cfg.DefaultBackoff = BackoffExponential
	}
	if cfg.DefaultBackoffDelay <= 0 {
		cfg.DefaultBackoffDelay = time.Second
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.queues[name] = &queue{
		name:     name,
		cfg:      cfg,
		handlers: make(map[string]Handler),
	}
}

// Handle registers the handler executed for (queue, jobType).
func (e *Engine) Handle(queueName, jobType string, h Handler) error {
	e.mu.RLock()
	q, exists := e.queues[queueName]
	e.mu.RUnlock()
	if !exists {
		return fmt.Errorf("%w: %s", ErrQueueNotRegistered, queueName)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if _, dup := q.handlers[jobType]; dup {
		return fmt.Errorf("%w: %s/%s", ErrHandlerExists, queueName, jobType)
	}
	q.handlers[jobType] = h
	return nil
}

// Enqueue stores a job and returns its handle immediately; execution
// never blocks the producer. payload is marshalled to JSON.
func (e *Engine) Enqueue(ctx context.Context, queueName, jobType string, payload interface{}, opts Options) (*Job, error) {
	e.mu.RLock()
	q, exists := e.queues[queueName]
	e.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrQueueNotRegistered, queueName)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal job payload: %w", err)
	}

	job := &Job{
		ID:           uuid.New().String(),
		Queue:        queueName,
		Type:         jobType,
		Payload:      data,
		Status:       StatusWaiting,
		MaxAttempts:  opts.Attempts,
		BackoffKind:  opts.Backoff,
		BackoffDelay: opts.BackoffDelay,
		RunAt:        time.Now().Add(opts.Delay),
		RepeatEvery:  opts.RepeatEvery,
	}
	if job.MaxAttempts <= 0 {
		job.MaxAttempts = q.cfg.DefaultMaxAttempts
	}
	if job.BackoffKind == "" {
		job.BackoffKind = q.cfg.DefaultBackoff
	}
	if job.BackoffDelay <= 0 {
		job.BackoffDelay = q.cfg.DefaultBackoffDelay
	}

	if err := e.store.Enqueue(ctx, job); err != nil {
		return nil, err
	}

	JobsEnqueued.WithLabelValues(queueName, jobType).Inc()

	cp := *job
	return &cp, nil
}

// Stats reports queue depth counts for operational visibility.
func (e *Engine) Stats(ctx context.Context, queueName string) (Stats, error) {
	e.mu.RLock()
	_, exists := e.queues[queueName]
	e.mu.RUnlock()
	if !exists {
		return Stats{}, fmt.Errorf("%w: %s", ErrQueueNotRegistered, queueName)
	}
	return e.store.Stats(ctx, queueName)
}

// QueueNames lists the registered queues.
func (e *Engine) QueueNames() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.queues))
	for name := range e.queues {
		names = append(names, name)
	}
	return names
}

// Start launches the worker pools. Safe to call once.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return
	}
	e.started = true
	queues := make([]*queue, 0, len(e.queues))
	for _, q := range e.queues {
		queues = append(queues, q)
	}
	e.mu.Unlock()

	for _, q := range queues {
		for i := 0; i < q.cfg.Workers; i++ {
			e.wg.Add(1)
			go e.runWorker(ctx, q)
		}
	}
}

// Stop signals the workers and waits for in-flight jobs to finish.
func (e *Engine) Stop() {
	close(e.stop)
	e.wg.Wait()
}
