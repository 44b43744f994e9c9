package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"handoff/internal/store"

	"github.com/google/uuid"
)

func newPendingJob(createdAt time.Time) *store.Job {
	return &store.Job{
		ID:        uuid.New(),
		Status:    store.JobStatusPending,
		InputKeys: []string{"in/file.pdf"},
		CreatedAt: createdAt,
	}
}

func TestClaimOldestPending_FIFO(t *testing.T) {
	s := New()
	ctx := context.Background()

	base := time.Now().UTC()
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		job := newPendingJob(base.Add(time.Duration(i) * time.Second))
		if err := s.CreateJob(ctx, job); err != nil {
			t.Fatalf("CreateJob failed: %v", err)
		}
		ids = append(ids, job.ID)
	}

	for i := 0; i < 3; i++ {
		job, err := s.ClaimOldestPending(ctx, "worker-1")
		if err != nil {
			t.Fatalf("claim %d failed: %v", i, err)
		}
		if job.ID != ids[i] {
			t.Errorf("claim %d: got %v, want %v (FIFO order)", i, job.ID, ids[i])
		}
		if job.Status != store.JobStatusClaimed {
			t.Errorf("claim %d: status %s, want claimed", i, job.Status)
		}
		if job.ClaimedAt == nil || job.Claimant == nil {
			t.Errorf("claim %d: claimed_at/claimant not stamped", i)
		}
	}

	if _, err := s.ClaimOldestPending(ctx, "worker-1"); !errors.Is(err, store.ErrNoJobAvailable) {
		t.Errorf("expected ErrNoJobAvailable on empty set, got %v", err)
	}
}

func TestClaimOldestPending_EqualTimestampsUseSeq(t *testing.T) {
	s := New()
	ctx := context.Background()

	ts := time.Now().UTC()
	first := newPendingJob(ts)
	second := newPendingJob(ts)
	if err := s.CreateJob(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateJob(ctx, second); err != nil {
		t.Fatal(err)
	}

	job, err := s.ClaimOldestPending(ctx, "w")
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if job.ID != first.ID {
		t.Errorf("expected insert order to break the tie, got %v want %v", job.ID, first.ID)
	}
}

// Firing K concurrent claims against M < K pending jobs must yield exactly
// M distinct claims and K-M no-job results.
func TestClaimOldestPending_ConcurrentClaims(t *testing.T) {
	const (
		pendingJobs = 5  // M
		claimers    = 20 // K
	)

	s := New()
	ctx := context.Background()

	for i := 0; i < pendingJobs; i++ {
		if err := s.CreateJob(ctx, newPendingJob(time.Now().UTC())); err != nil {
			t.Fatalf("CreateJob failed: %v", err)
		}
	}

	var (
		mu      sync.Mutex
		claimed []uuid.UUID
		empty   int
	)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			<-start

			job, err := s.ClaimOldestPending(ctx, fmt.Sprintf("worker-%d", worker))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				claimed = append(claimed, job.ID)
			case errors.Is(err, store.ErrNoJobAvailable):
				empty++
			default:
				t.Errorf("unexpected claim error: %v", err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	if len(claimed) != pendingJobs {
		t.Errorf("expected %d successful claims, got %d", pendingJobs, len(claimed))
	}
	if empty != claimers-pendingJobs {
		t.Errorf("expected %d no-job results, got %d", claimers-pendingJobs, empty)
	}

	seen := make(map[uuid.UUID]bool)
	for _, id := range claimed {
		if seen[id] {
			t.Errorf("job %v claimed twice", id)
		}
		seen[id] = true
	}
}

func TestClaimJob_Conflict(t *testing.T) {
	s := New()
	ctx := context.Background()

	job := newPendingJob(time.Now().UTC())
	if err := s.CreateJob(ctx, job); err != nil {
		t.Fatal(err)
	}

	if _, err := s.ClaimJob(ctx, job.ID, "worker-1"); err != nil {
		t.Fatalf("first claim failed: %v", err)
	}

	_, err := s.ClaimJob(ctx, job.ID, "worker-2")
	if !errors.Is(err, store.ErrClaimConflict) {
		t.Errorf("expected ErrClaimConflict on second claim, got %v", err)
	}

	_, err = s.ClaimJob(ctx, uuid.New(), "worker-2")
	if !errors.Is(err, store.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound for unknown job, got %v", err)
	}
}

func TestStatusTransitions(t *testing.T) {
	ctx := context.Background()

	t.Run("claimed to completed", func(t *testing.T) {
		s := New()
		job := newPendingJob(time.Now().UTC())
		s.CreateJob(ctx, job)
		s.ClaimJob(ctx, job.ID, "w")

		if err := s.CompleteJob(ctx, job.ID, "out/result.zip"); err != nil {
			t.Fatalf("CompleteJob failed: %v", err)
		}

		got, _ := s.GetJobByID(ctx, job.ID)
		if got.Status != store.JobStatusCompleted {
			t.Errorf("status %s, want completed", got.Status)
		}
		if got.OutputKey == nil || *got.OutputKey != "out/result.zip" {
			t.Errorf("output key not recorded: %v", got.OutputKey)
		}
		if got.CompletedAt == nil {
			t.Error("completed_at not stamped")
		}

		// Terminal states are absorbing.
		if err := s.FailJob(ctx, job.ID, "", "late failure"); !errors.Is(err, store.ErrInvalidTransition) {
			t.Errorf("expected ErrInvalidTransition out of completed, got %v", err)
		}
	})

	t.Run("claimed to failed", func(t *testing.T) {
		s := New()
		job := newPendingJob(time.Now().UTC())
		s.CreateJob(ctx, job)
		s.ClaimJob(ctx, job.ID, "w")

		if err := s.FailJob(ctx, job.ID, "", "download timed out"); err != nil {
			t.Fatalf("FailJob failed: %v", err)
		}

		got, _ := s.GetJobByID(ctx, job.ID)
		if got.Status != store.JobStatusFailed {
			t.Errorf("status %s, want failed", got.Status)
		}
		if got.OutputKey != nil {
			t.Errorf("output key must stay null on failure without output, got %v", *got.OutputKey)
		}
		if got.ErrorMessage == nil || *got.ErrorMessage != "download timed out" {
			t.Errorf("error message not recorded: %v", got.ErrorMessage)
		}
	})

	t.Run("pending cannot complete", func(t *testing.T) {
		s := New()
		job := newPendingJob(time.Now().UTC())
		s.CreateJob(ctx, job)

		if err := s.CompleteJob(ctx, job.ID, "out.zip"); !errors.Is(err, store.ErrInvalidTransition) {
			t.Errorf("expected ErrInvalidTransition from pending, got %v", err)
		}
	})
}

func TestGetJobByID_ReturnsCopy(t *testing.T) {
	s := New()
	ctx := context.Background()

	job := newPendingJob(time.Now().UTC())
	s.CreateJob(ctx, job)

	got, err := s.GetJobByID(ctx, job.ID)
	if err != nil {
		t.Fatal(err)
	}
	got.InputKeys[0] = "mutated"
	got.Status = store.JobStatusFailed

	again, _ := s.GetJobByID(ctx, job.ID)
	if again.InputKeys[0] != "in/file.pdf" || again.Status != store.JobStatusPending {
		t.Error("store state leaked through returned descriptor")
	}
}

func TestContextCancellation(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.CreateJob(ctx, newPendingJob(time.Now().UTC())); err == nil {
		t.Error("expected context error on CreateJob")
	}
	if _, err := s.ClaimOldestPending(ctx, "w"); err == nil {
		t.Error("expected context error on ClaimOldestPending")
	}
}
