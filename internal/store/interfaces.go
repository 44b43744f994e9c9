package store

import (
	"context"

	"github.com/google/uuid"
)

// JobStore handles the persistence of job descriptors.
//
// The claim operations must be atomic with respect to concurrent callers:
// two simultaneous claims never return the same job. Implementations back
// this with a conditional update (compare-and-set on status).
type JobStore interface {
	// CreateJob inserts a new descriptor with status pending.
	CreateJob(ctx context.Context, job *Job) error

	// GetJobByID returns a descriptor by its ID, or ErrJobNotFound.
	GetJobByID(ctx context.Context, id uuid.UUID) (*Job, error)

	// ClaimOldestPending atomically claims the oldest pending job (FIFO by
	// created_at), stamping claimant and claimed_at. Returns
	// ErrNoJobAvailable when the pending set is empty.
	ClaimOldestPending(ctx context.Context, claimant string) (*Job, error)

	// ClaimJob claims a specific job. Returns ErrClaimConflict if the job
	// exists but is not pending, ErrJobNotFound if it does not exist.
	ClaimJob(ctx context.Context, id uuid.UUID, claimant string) (*Job, error)

	// CompleteJob transitions claimed -> completed and records the output
	// key. Returns ErrInvalidTransition unless the job is claimed.
	CompleteJob(ctx context.Context, id uuid.UUID, outputKey string) error

	// FailJob transitions claimed -> failed. outputKey may be empty when
	// the worker produced nothing.
	FailJob(ctx context.Context, id uuid.UUID, outputKey, errMsg string) error

	// CountByStatus returns the number of jobs in the given status.
	CountByStatus(ctx context.Context, status JobStatus) (int64, error)

	// Ping checks the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases the store's resources.
	Close() error
}
