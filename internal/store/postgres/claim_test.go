package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"handoff/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	return &Store{db: db}, mock
}

func jobRows(id uuid.UUID, status store.JobStatus, claimant *string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "seq", "status", "input_keys", "output_key",
		"claimant", "error_message", "created_at", "claimed_at", "completed_at",
	})
	var claimedAt interface{}
	if claimant != nil {
		claimedAt = time.Now()
	}
	return rows.AddRow(id, int64(1), string(status), "{in/a.pdf,in/b.pdf}", nil, claimant, nil, time.Now(), claimedAt, nil)
}

func TestClaimOldestPending_Success(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	ctx := context.Background()
	jobID := uuid.New()
	claimant := "worker-1"

	// The generated SQL must keep the FIFO ordering and SKIP LOCKED; this
	// catches regression if someone deletes the ordering or locking clause.
	mock.ExpectQuery(`UPDATE jobs .*SELECT id FROM jobs .*ORDER BY created_at ASC, seq ASC.*FOR UPDATE SKIP LOCKED.*RETURNING`).
		WithArgs(string(store.JobStatusClaimed), claimant, string(store.JobStatusPending)).
		WillReturnRows(jobRows(jobID, store.JobStatusClaimed, &claimant))

	job, err := s.ClaimOldestPending(ctx, claimant)
	if err != nil {
		t.Fatalf("ClaimOldestPending failed: %v", err)
	}
	if job.ID != jobID {
		t.Errorf("got job %v, want %v", job.ID, jobID)
	}
	if job.Status != store.JobStatusClaimed {
		t.Errorf("got status %s, want claimed", job.Status)
	}
	if job.Claimant == nil || *job.Claimant != claimant {
		t.Errorf("claimant not recorded: %v", job.Claimant)
	}
	if len(job.InputKeys) != 2 {
		t.Errorf("expected 2 input keys, got %v", job.InputKeys)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestClaimOldestPending_EmptyQueue(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	mock.ExpectQuery(`UPDATE jobs`).
		WillReturnError(sql.ErrNoRows)

	_, err := s.ClaimOldestPending(context.Background(), "worker-1")
	if !errors.Is(err, store.ErrNoJobAvailable) {
		t.Errorf("expected ErrNoJobAvailable, got %v", err)
	}
}

func TestClaimOldestPending_StoreFailure(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	mock.ExpectQuery(`UPDATE jobs`).
		WillReturnError(errors.New("connection reset"))

	_, err := s.ClaimOldestPending(context.Background(), "worker-1")
	if err == nil {
		t.Fatal("expected error")
	}
	if store.IsDomainError(err) {
		t.Errorf("backend failure must not be a domain error: %v", err)
	}
}

func TestClaimJob_Success(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	jobID := uuid.New()
	claimant := "worker-2"

	mock.ExpectQuery(`UPDATE jobs .*WHERE id = \$3 AND status = \$4.*RETURNING`).
		WithArgs(string(store.JobStatusClaimed), claimant, jobID, string(store.JobStatusPending)).
		WillReturnRows(jobRows(jobID, store.JobStatusClaimed, &claimant))

	job, err := s.ClaimJob(context.Background(), jobID, claimant)
	if err != nil {
		t.Fatalf("ClaimJob failed: %v", err)
	}
	if job.ID != jobID {
		t.Errorf("got job %v, want %v", job.ID, jobID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestClaimJob_AlreadyClaimed(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	jobID := uuid.New()

	mock.ExpectQuery(`UPDATE jobs`).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(jobID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := s.ClaimJob(context.Background(), jobID, "worker-2")
	if !errors.Is(err, store.ErrClaimConflict) {
		t.Errorf("expected ErrClaimConflict, got %v", err)
	}
}

func TestClaimJob_NotFound(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	jobID := uuid.New()

	mock.ExpectQuery(`UPDATE jobs`).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(jobID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := s.ClaimJob(context.Background(), jobID, "worker-2")
	if !errors.Is(err, store.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}
