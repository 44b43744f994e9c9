package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"handoff/internal/store"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const jobColumns = "id, seq, status, input_keys, output_key, claimant, error_message, created_at, claimed_at, completed_at"

// CreateJob inserts a new descriptor row with status pending.
// The seq column is assigned by the database.
func (s *Store) CreateJob(ctx context.Context, job *store.Job) error {
	query := `
		INSERT INTO jobs (id, status, input_keys, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING seq
	`

	err := s.db.QueryRowContext(ctx, query,
		job.ID,
		job.Status,
		pq.Array(job.InputKeys),
		job.CreatedAt,
	).Scan(&job.Seq)
	if err != nil {
		return fmt.Errorf("failed to insert job %s: %w", job.ID, err)
	}
	return nil
}

// GetJobByID returns a descriptor by its ID.
func (s *Store) GetJobByID(ctx context.Context, id uuid.UUID) (*store.Job, error) {
	query := fmt.Sprintf("SELECT %s FROM jobs WHERE id = $1", jobColumns)

	job, err := scanJob(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to fetch job %s: %w", id, err)
	}
	return job, nil
}

// CompleteJob transitions claimed -> completed. The conditional WHERE is the
// compare-and-set that keeps terminal states absorbing.
func (s *Store) CompleteJob(ctx context.Context, id uuid.UUID, outputKey string) error {
	query := `
		UPDATE jobs
		SET status = $1, output_key = $2, completed_at = NOW()
		WHERE id = $3 AND status = $4
	`

	res, err := s.db.ExecContext(ctx, query, store.JobStatusCompleted, outputKey, id, store.JobStatusClaimed)
	if err != nil {
		return fmt.Errorf("failed to complete job %s: %w", id, err)
	}
	return s.checkTransition(ctx, res, id)
}

// FailJob transitions claimed -> failed and records the error message.
func (s *Store) FailJob(ctx context.Context, id uuid.UUID, outputKey, errMsg string) error {
	query := `
		UPDATE jobs
		SET status = $1, output_key = NULLIF($2, ''), error_message = $3, completed_at = NOW()
		WHERE id = $4 AND status = $5
	`

	res, err := s.db.ExecContext(ctx, query, store.JobStatusFailed, outputKey, errMsg, id, store.JobStatusClaimed)
	if err != nil {
		return fmt.Errorf("failed to fail job %s: %w", id, err)
	}
	return s.checkTransition(ctx, res, id)
}

// CountByStatus returns the number of jobs in the given status.
func (s *Store) CountByStatus(ctx context.Context, status store.JobStatus) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM jobs WHERE status = $1", status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	return count, nil
}

// checkTransition distinguishes a missing job from a lost CAS after a
// conditional update matched zero rows.
func (s *Store) checkTransition(ctx context.Context, res sql.Result, id uuid.UUID) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM jobs WHERE id = $1)", id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check job %s: %w", id, err)
	}
	if !exists {
		return store.ErrJobNotFound
	}
	return store.ErrInvalidTransition
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*store.Job, error) {
	var job store.Job
	err := row.Scan(
		&job.ID,
		&job.Seq,
		&job.Status,
		pq.Array(&job.InputKeys),
		&job.OutputKey,
		&job.Claimant,
		&job.ErrorMessage,
		&job.CreatedAt,
		&job.ClaimedAt,
		&job.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &job, nil
}
