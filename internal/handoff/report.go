package handoff

import (
	"context"
	"fmt"
	"log/slog"

	"handoff/internal/blob"
	"handoff/internal/config"
	"handoff/internal/store"

	"github.com/google/uuid"
)

// ReportService records the terminal outcome a worker reports for a claimed
// job. Completed and failed are absorbing; the store rejects anything else
// with ErrInvalidTransition.
type ReportService struct {
	jobs   store.JobStore
	cfg    *config.Config
	logger *slog.Logger
}

// NewReportService creates a new result-reporting service.
func NewReportService(jobs store.JobStore, cfg *config.Config, logger *slog.Logger) *ReportService {
	return &ReportService{jobs: jobs, cfg: cfg, logger: logger}
}

// validateOutputKey checks a worker-reported result key. AllowedPrefix bounds
// client-supplied input keys; result keys live under UploadPrefix because the
// service issues the result-upload URL there itself, so a key under either
// prefix is reportable.
func (s *ReportService) validateOutputKey(key string) error {
	if s.cfg.UploadPrefix != "" {
		if err := blob.ValidateKey(key, s.cfg.UploadPrefix); err == nil {
			return nil
		}
	}
	return blob.ValidateKey(key, s.cfg.AllowedPrefix)
}

// Complete transitions a claimed job to completed and records its output key.
func (s *ReportService) Complete(ctx context.Context, jobID uuid.UUID, outputKey string) error {
	if err := s.validateOutputKey(outputKey); err != nil {
		return err
	}

	if err := withStoreRetry(ctx, func() error {
		return s.jobs.CompleteJob(ctx, jobID, outputKey)
	}); err != nil {
		return err
	}

	logFrom(ctx, s.logger).Info("job completed", "job_id", jobID, "output_key", outputKey)
	return nil
}

// Fail transitions a claimed job to failed. outputKey may be empty when the
// worker produced nothing before failing.
func (s *ReportService) Fail(ctx context.Context, jobID uuid.UUID, outputKey, errMsg string) error {
	if outputKey != "" {
		if err := s.validateOutputKey(outputKey); err != nil {
			return err
		}
	}

	if err := withStoreRetry(ctx, func() error {
		return s.jobs.FailJob(ctx, jobID, outputKey, errMsg)
	}); err != nil {
		return err
	}

	logFrom(ctx, s.logger).Info("job failed", "job_id", jobID, "error", errMsg)
	return nil
}

// GetJob returns the descriptor for status queries.
func (s *ReportService) GetJob(ctx context.Context, jobID uuid.UUID) (*store.Job, error) {
	var job *store.Job
	err := withStoreRetry(ctx, func() error {
		var getErr error
		job, getErr = s.jobs.GetJobByID(ctx, jobID)
		return getErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load job %s: %w", jobID, err)
	}
	return job, nil
}
