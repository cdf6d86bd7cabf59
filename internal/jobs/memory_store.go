package jobs

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store with in-memory storage. It backs tests
// and single-process deployments; production workers share the Postgres
// store instead.
type MemoryStore struct {
	mu      sync.Mutex
	jobs    map[string]*Job
	nextSeq int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs: make(map[string]*Job),
	}
}

func (s *MemoryStore) Enqueue(_ context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSeq++
	job.Seq = s.nextSeq
	now := time.Now()
	job.CreatedAt = now
	job.UpdatedAt = now

	cp := *job
	s.jobs[job.ID] = &cp
	return nil
}

func (s *MemoryStore) Claim(_ context.Context, queue string, now time.Time) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next *Job
	for _, j := range s.jobs {
		if j.Queue != queue || j.Status != StatusWaiting || j.RunAt.After(now) {
			continue
		}
		if next == nil || j.RunAt.Before(next.RunAt) ||
			(j.RunAt.Equal(next.RunAt) && j.Seq < next.Seq) {
			next = j
		}
	}
	if next == nil {
		return nil, ErrNoJob
	}

	next.Status = StatusActive
	next.UpdatedAt = time.Now()
	cp := *next
	return &cp, nil
}

func (s *MemoryStore) MarkCompleted(_ context.Context, id string) error {
	return s.setStatus(id, StatusCompleted, "")
}

func (s *MemoryStore) MarkFailed(_ context.Context, id string, lastError string) error {
	return s.setStatus(id, StatusFailed, lastError)
}

func (s *MemoryStore) Reschedule(_ context.Context, id string, runAt time.Time, attemptsMade int, lastError string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, exists := s.jobs[id]
	if !exists {
		return ErrJobNotFound
	}
	j.Status = StatusWaiting
	j.RunAt = runAt
	j.AttemptsMade = attemptsMade
	j.LastError = lastError
	j.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) Stats(_ context.Context, queue string) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var st Stats
	for _, j := range s.jobs {
		if j.Queue != queue {
			continue
		}
		switch j.Status {
		case StatusWaiting:
			st.Waiting++
		case StatusActive:
			st.Active++
		case StatusCompleted:
			st.Completed++
		case StatusFailed:
			st.Failed++
		}
	}
	return st, nil
}

// Get returns a snapshot of a stored job. Used by tests and operational
// introspection, never by the worker path.
func (s *MemoryStore) Get(id string) (*Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, exists := s.jobs[id]
	if !exists {
		return nil, false
	}
	cp := *j
	return &cp, true
}

func (s *MemoryStore) setStatus(id string, status Status, lastError string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, exists := s.jobs[id]
	if !exists {
		return ErrJobNotFound
	}
	j.Status = status
	if lastError != "" {
		j.LastError = lastError
	}
	j.UpdatedAt = time.Now()
	return nil
}
