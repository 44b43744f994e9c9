package handoff

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"handoff/internal/blob"
	"handoff/internal/config"
	"handoff/internal/store"
)

// FetchService atomically claims pending jobs for workers.
type FetchService struct {
	jobs   store.JobStore
	blobs  blob.Store
	cfg    *config.Config
	logger *slog.Logger
}

// NewFetchService creates a new job-fetch service.
func NewFetchService(jobs store.JobStore, blobs blob.Store, cfg *config.Config, logger *slog.Logger) *FetchService {
	return &FetchService{jobs: jobs, blobs: blobs, cfg: cfg, logger: logger}
}

// FetchJob claims the oldest pending job for the given claimant and returns
// it with presigned download URLs for its inputs. Returns
// store.ErrNoJobAvailable when the pending set is empty; that is an
// empty-result signal, not a failure.
func (s *FetchService) FetchJob(ctx context.Context, claimant string) (*ClaimedJob, error) {
	log := logFrom(ctx, s.logger)

	// The claim itself is atomic (SKIP LOCKED / single critical section), so
	// a lost race just hands the racer a different job. Only transient store
	// errors are retried here.
	var job *store.Job
	err := withStoreRetry(ctx, func() error {
		var claimErr error
		job, claimErr = s.jobs.ClaimOldestPending(ctx, claimant)
		return claimErr
	})
	if err != nil {
		if errors.Is(err, store.ErrNoJobAvailable) {
			return nil, err
		}
		return nil, fmt.Errorf("claim failed: %w", err)
	}

	claimed := &ClaimedJob{
		Job:       job,
		ReportURL: fmt.Sprintf("%s/jobs/%s/result", s.cfg.BaseURL(), job.ID),
	}
	for _, key := range job.InputKeys {
		signed, err := s.blobs.PresignDownload(ctx, key, s.cfg.DownloadURLTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to presign download for %s: %w", key, err)
		}
		claimed.Files = append(claimed.Files, signed)
	}

	log.Info("job claimed", "job_id", job.ID, "claimant", claimant)
	return claimed, nil
}
