package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"handoff/internal/store"

	"github.com/google/uuid"
)

// ClaimOldestPending atomically claims the oldest pending job.
//
// The inner SELECT uses FOR UPDATE SKIP LOCKED so concurrent claimers never
// block on each other and never receive the same row; the surrounding UPDATE
// commits the claim in the same statement, so a cancelled request leaves no
// partial claim behind.
func (s *Store) ClaimOldestPending(ctx context.Context, claimant string) (*store.Job, error) {
	query := fmt.Sprintf(`
		UPDATE jobs
		SET status = $1, claimant = $2, claimed_at = NOW()
		WHERE id = (
			SELECT id FROM jobs
			WHERE status = $3
			ORDER BY created_at ASC, seq ASC
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING %s
	`, jobColumns)

	job, err := scanJob(s.db.QueryRowContext(ctx, query,
		store.JobStatusClaimed, claimant, store.JobStatusPending))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNoJobAvailable
		}
		return nil, fmt.Errorf("claim query failed: %w", err)
	}
	return job, nil
}

// ClaimJob claims one specific job. The status predicate is the
// compare-and-set: a job that is no longer pending loses with
// ErrClaimConflict rather than being claimed twice.
func (s *Store) ClaimJob(ctx context.Context, id uuid.UUID, claimant string) (*store.Job, error) {
	query := fmt.Sprintf(`
		UPDATE jobs
		SET status = $1, claimant = $2, claimed_at = NOW()
		WHERE id = $3 AND status = $4
		RETURNING %s
	`, jobColumns)

	job, err := scanJob(s.db.QueryRowContext(ctx, query,
		store.JobStatusClaimed, claimant, id, store.JobStatusPending))
	if err == nil {
		return job, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("targeted claim failed: %w", err)
	}

	// Zero rows: either the job is gone or someone else holds it.
	var exists bool
	if err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM jobs WHERE id = $1)", id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check job %s: %w", id, err)
	}
	if !exists {
		return nil, store.ErrJobNotFound
	}
	return nil, store.ErrClaimConflict
}
