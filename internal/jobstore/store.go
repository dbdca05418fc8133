// Package jobstore is the thin contract over the durable job row the
// replication engine and the dequeue/update read paths depend on. It is
// the only database coupling the core requires: insert, select-by-id,
// update-priority.
package jobstore

import (
	"context"
	"errors"
)

// ErrStoreUnavailable is returned when the store connection or a query
// against it fails.
var ErrStoreUnavailable = errors.New("jobstore: store unavailable")

// ErrNotFound is returned by Select/UpdatePriority when no row exists for
// the given job id.
var ErrNotFound = errors.New("jobstore: job not found")

// Job mirrors the durable row: job_id, priority, payload. enqueue_time is
// not persisted (it is a heap-local concept, not a store column).
type Job struct {
	JobID   uint64
	Priority uint32
	Payload  []byte
}

// Store is the contract every leader and read-path caller depends on. The
// durable row is exclusively owned by the leader that inserts it.
type Store interface {
	// Insert atomically assigns a new job_id and persists priority/payload.
	Insert(ctx context.Context, priority uint32, payload []byte) (uint64, error)

	// Select returns the row for jobID, or ErrNotFound if it does not exist.
	Select(ctx context.Context, jobID uint64) (Job, error)

	// UpdatePriority mutates priority for jobID. Idempotent on equal values.
	UpdatePriority(ctx context.Context, jobID uint64, newPriority uint32) error
}
