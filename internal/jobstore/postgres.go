package jobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// registers the "postgres" driver with database/sql.
	_ "github.com/lib/pq"
)

// PostgresStore is the Store implementation backed by the single
// jobs(job_id bigserial primary key, priority int, payload bytea) table.
// It is used only by leaders during the commit phase, and by dequeue/
// update read paths.
type PostgresStore struct {
	db *sql.DB
}

// Open connects to databaseURL (the DATABASE_URL environment variable)
// and returns a ready-to-use PostgresStore.
func Open(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return &PostgresStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Insert(ctx context.Context, priority uint32, payload []byte) (uint64, error) {
	const q = `INSERT INTO jobs (priority, payload) VALUES ($1, $2) RETURNING job_id`
	var jobID uint64
	if err := s.db.QueryRowContext(ctx, q, priority, payload).Scan(&jobID); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return jobID, nil
}

func (s *PostgresStore) Select(ctx context.Context, jobID uint64) (Job, error) {
	const q = `SELECT job_id, priority, payload FROM jobs WHERE job_id = $1`
	var job Job
	err := s.db.QueryRowContext(ctx, q, jobID).Scan(&job.JobID, &job.Priority, &job.Payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, ErrNotFound
	}
	if err != nil {
		return Job{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return job, nil
}

func (s *PostgresStore) UpdatePriority(ctx context.Context, jobID uint64, newPriority uint32) error {
	const q = `UPDATE jobs SET priority = $1 WHERE job_id = $2`
	res, err := s.db.ExecContext(ctx, q, newPriority, jobID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	// idempotent on equal values: zero rows affected because the row
	// already holds newPriority is not distinguished from zero rows
	// affected because the row is missing, so fall back to a read to tell
	// the two apart before reporting NotFound.
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, selErr := s.Select(ctx, jobID); selErr != nil {
			return selErr
		}
	}
	return nil
}
