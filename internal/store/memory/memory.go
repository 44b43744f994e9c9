// Package memory implements the job store in process memory.
// It backs local development (STORE_DRIVER=memory) and the concurrency
// property tests; its claim semantics mirror the postgres implementation.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"handoff/internal/store"

	"github.com/google/uuid"
)

// Store is a mutex-guarded in-process job store.
type Store struct {
	mu      sync.Mutex
	jobs    map[uuid.UUID]*store.Job
	nextSeq int64
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{jobs: make(map[uuid.UUID]*store.Job)}
}

// CreateJob inserts a new descriptor and assigns its sequence number.
func (s *Store) CreateJob(ctx context.Context, job *store.Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSeq++
	job.Seq = s.nextSeq

	clone := cloneJob(job)
	s.jobs[job.ID] = clone
	return nil
}

// GetJobByID returns a copy of the descriptor.
func (s *Store) GetJobByID(ctx context.Context, id uuid.UUID) (*store.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, store.ErrJobNotFound
	}
	return cloneJob(job), nil
}

// ClaimOldestPending claims the oldest pending job under the store lock,
// so the check-and-claim is a single atomic step.
func (s *Store) ClaimOldestPending(ctx context.Context, claimant string) (*store.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []*store.Job
	for _, job := range s.jobs {
		if job.Status == store.JobStatusPending {
			pending = append(pending, job)
		}
	}
	if len(pending) == 0 {
		return nil, store.ErrNoJobAvailable
	}

	sort.Slice(pending, func(i, j int) bool {
		if pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].Seq < pending[j].Seq
		}
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})

	oldest := pending[0]
	claim(oldest, claimant)
	return cloneJob(oldest), nil
}

// ClaimJob claims one specific job if it is still pending.
func (s *Store) ClaimJob(ctx context.Context, id uuid.UUID, claimant string) (*store.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, store.ErrJobNotFound
	}
	if job.Status != store.JobStatusPending {
		return nil, store.ErrClaimConflict
	}

	claim(job, claimant)
	return cloneJob(job), nil
}

// CompleteJob transitions claimed -> completed.
func (s *Store) CompleteJob(ctx context.Context, id uuid.UUID, outputKey string) error {
	return s.finish(ctx, id, store.JobStatusCompleted, outputKey, "")
}

// FailJob transitions claimed -> failed.
func (s *Store) FailJob(ctx context.Context, id uuid.UUID, outputKey, errMsg string) error {
	return s.finish(ctx, id, store.JobStatusFailed, outputKey, errMsg)
}

func (s *Store) finish(ctx context.Context, id uuid.UUID, status store.JobStatus, outputKey, errMsg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return store.ErrJobNotFound
	}
	if job.Status != store.JobStatusClaimed {
		return store.ErrInvalidTransition
	}

	job.Status = status
	if outputKey != "" {
		job.OutputKey = &outputKey
	}
	if errMsg != "" {
		job.ErrorMessage = &errMsg
	}
	now := time.Now().UTC()
	job.CompletedAt = &now
	return nil
}

// CountByStatus returns the number of jobs in the given status.
func (s *Store) CountByStatus(ctx context.Context, status store.JobStatus) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, job := range s.jobs {
		if job.Status == status {
			count++
		}
	}
	return count, nil
}

// Ping always succeeds; there is no backing service.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

func claim(job *store.Job, claimant string) {
	now := time.Now().UTC()
	job.Status = store.JobStatusClaimed
	job.Claimant = &claimant
	job.ClaimedAt = &now
}

func cloneJob(job *store.Job) *store.Job {
	clone := *job
	clone.InputKeys = append([]string(nil), job.InputKeys...)
	if job.OutputKey != nil {
		v := *job.OutputKey
		clone.OutputKey = &v
	}
	if job.Claimant != nil {
		v := *job.Claimant
		clone.Claimant = &v
	}
	if job.ErrorMessage != nil {
		v := *job.ErrorMessage
		clone.ErrorMessage = &v
	}
	if job.ClaimedAt != nil {
		v := *job.ClaimedAt
		clone.ClaimedAt = &v
	}
	if job.CompletedAt != nil {
		v := *job.CompletedAt
		clone.CompletedAt = &v
	}
	return &clone
}
