package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore implements Store on a shared jobs table. The claim uses
// FOR UPDATE SKIP LOCKED so concurrent workers never grab the same row.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Enqueue(ctx context.Context, job *Job) error {
	query := `INSERT INTO jobs (id, queue, job_type, payload, status, attempts_made, max_attempts,
	                            backoff_kind, backoff_delay_ms, run_at, repeat_every_ms, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
	          RETURNING seq`

	err := s.db.QueryRowContext(ctx, query,
		job.ID,
		job.Queue,
		job.Type,
		[]byte(job.Payload),
		job.Status,
		job.AttemptsMade,
		job.MaxAttempts,
		job.BackoffKind,
		job.BackoffDelay.Milliseconds(),
		job.RunAt,
		job.RepeatEvery.Milliseconds(),
	).Scan(&job.Seq)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (s *PostgresStore) Claim(ctx context.Context, queue string, now time.Time) (*Job, error) {
	query := `WITH next AS (
	              SELECT id FROM jobs
	              WHERE queue = $1 AND status = 'waiting' AND run_at <= $2
	              ORDER BY run_at, seq
	              LIMIT 1
	              FOR UPDATE SKIP LOCKED
	          )
	          UPDATE jobs SET status = 'active', updated_at = NOW()
	          FROM next WHERE jobs.id = next.id
	          RETURNING jobs.id, jobs.seq, jobs.queue, jobs.job_type, jobs.payload, jobs.status,
	                    jobs.attempts_made, jobs.max_attempts, jobs.backoff_kind, jobs.backoff_delay_ms,
	                    jobs.run_at, jobs.repeat_every_ms, jobs.last_error, jobs.created_at, jobs.updated_at`

	var job Job
	var backoffMs, repeatMs int64
	var lastError sql.NullString
	err := s.db.QueryRowContext(ctx, query, queue, now).Scan(
		&job.ID,
		&job.Seq,
		&job.Queue,
		&job.Type,
		(*[]byte)(&job.Payload),
		&job.Status,
		&job.AttemptsMade,
		&job.MaxAttempts,
		&job.BackoffKind,
		&backoffMs,
		&job.RunAt,
		&repeatMs,
		&lastError,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoJob
	}
	if err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}

	job.BackoffDelay = time.Duration(backoffMs) * time.Millisecond
	job.RepeatEvery = time.Duration(repeatMs) * time.Millisecond
	job.LastError = lastError.String
	return &job, nil
}

func (s *PostgresStore) MarkCompleted(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, StatusCompleted, "")
}

func (s *PostgresStore) MarkFailed(ctx context.Context, id string, lastError string) error {
	return s.setStatus(ctx, id, StatusFailed, lastError)
}

func (s *PostgresStore) Reschedule(ctx context.Context, id string, runAt time.Time, attemptsMade int, lastError string) error {
	query := `UPDATE jobs SET status = 'waiting', run_at = $2, attempts_made = $3, last_error = $4, updated_at = NOW()
	          WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id, runAt, attemptsMade, lastError)
	if err != nil {
		return fmt.Errorf("reschedule job: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reschedule job rows affected: %w", err)
	}
	if rows == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (s *PostgresStore) Stats(ctx context.Context, queue string) (Stats, error) {
	query := `SELECT status, COUNT(*) FROM jobs WHERE queue = $1 GROUP BY status`

	rows, err := s.db.QueryContext(ctx, query, queue)
	if err != nil {
		return Stats{}, fmt.Errorf("query job stats: %w", err)
	}
	defer rows.Close()

	var st Stats
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Stats{}, fmt.Errorf("scan job stats row: %w", err)
		}
		switch status {
		case StatusWaiting:
			st.Waiting = count
		case StatusActive:
			st.Active = count
		case StatusCompleted:
			st.Completed = count
		case StatusFailed:
			st.Failed = count
		}
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("job stats iteration: %w", err)
	}
	return st, nil
}

func (s *PostgresStore) setStatus(ctx context.Context, id string, status Status, lastError string) error {
	query := `UPDATE jobs SET status = $2, last_error = NULLIF($3, ''), updated_at = NOW() WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id, status, lastError)
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update job status rows affected: %w", err)
	}
	if rows == 0 {
		return ErrJobNotFound
	}
	return nil
}
