package handoff

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"time"

	"handoff/internal/blob"
	"handoff/internal/config"
	"handoff/internal/store"
	"handoff/pkg/api"

	"github.com/google/uuid"
)

// PrepareService registers new jobs and hands the requestor the upload URLs
// for input objects that are still missing.
type PrepareService struct {
	jobs   store.JobStore
	blobs  blob.Store
	cfg    *config.Config
	logger *slog.Logger
}

// NewPrepareService creates a new job-preparation service.
func NewPrepareService(jobs store.JobStore, blobs blob.Store, cfg *config.Config, logger *slog.Logger) *PrepareService {
	return &PrepareService{jobs: jobs, blobs: blobs, cfg: cfg, logger: logger}
}

// PrepareJob creates a pending descriptor for the given input keys and
// persists it. For every input key not yet present in the blob store it
// returns a presigned upload URL so the requestor can push the payload.
//
// Repeated calls create distinct jobs; there is no idempotency key or
// deduplication. Nothing is persisted when validation fails.
func (s *PrepareService) PrepareJob(ctx context.Context, inputKeys []string) (*PreparedJob, error) {
	if len(inputKeys) == 0 {
		return nil, ErrEmptyInputSet
	}
	for _, key := range inputKeys {
		if err := blob.ValidateKey(key, s.cfg.AllowedPrefix); err != nil {
			return nil, err
		}
	}

	log := logFrom(ctx, s.logger)

	job := &store.Job{
		ID:        uuid.New(),
		Status:    store.JobStatusPending,
		InputKeys: inputKeys,
		CreatedAt: time.Now().UTC(),
	}

	if err := withStoreRetry(ctx, func() error {
		return s.jobs.CreateJob(ctx, job)
	}); err != nil {
		return nil, fmt.Errorf("failed to persist job: %w", err)
	}

	prepared := &PreparedJob{Job: job}
	for _, key := range inputKeys {
		exists, err := s.blobs.Exists(ctx, key)
		if err != nil {
			// Probe failure is not fatal; hand out the upload URL anyway,
			// matching a missing object.
			log.Warn("existence probe failed", "key", key, "error", err)
			exists = false
		}
		if exists {
			continue
		}

		signed, err := s.blobs.PresignUpload(ctx, key, "", s.cfg.UploadURLTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to presign upload for %s: %w", key, err)
		}
		prepared.UploadURLs = append(prepared.UploadURLs, signed)
	}

	if url, err := s.writeManifest(ctx, job); err != nil {
		// The descriptor is already durable; a missing manifest only costs
		// the direct-download path.
		log.Warn("failed to write job manifest", "job_id", job.ID, "error", err)
	} else {
		prepared.JobFileURL = url
	}

	log.Info("job prepared",
		"job_id", job.ID,
		"input_keys", len(inputKeys),
		"upload_urls", len(prepared.UploadURLs),
	)
	return prepared, nil
}

// writeManifest stores the job file under {job_prefix}/{job_id}.json and
// returns a presigned download URL for it.
func (s *PrepareService) writeManifest(ctx context.Context, job *store.Job) (string, error) {
	manifest := api.JobManifest{
		JobID:     job.ID.String(),
		ReportURL: fmt.Sprintf("%s/get-upload-url?job_id=%s", s.cfg.BaseURL(), job.ID),
		CreatedAt: job.CreatedAt,
	}

	for _, key := range job.InputKeys {
		signed, err := s.blobs.PresignDownload(ctx, key, s.cfg.DownloadURLTTL)
		if err != nil {
			return "", fmt.Errorf("failed to presign download for %s: %w", key, err)
		}
		manifest.Files = append(manifest.Files, api.FileObject{
			FileName: path.Base(key),
			Key:      key,
			URL:      signed.URL,
		})
	}

	body, err := json.Marshal(manifest)
	if err != nil {
		return "", err
	}

	manifestKey := fmt.Sprintf("%s/%s.json", s.cfg.JobPrefix, job.ID)
	if err := s.blobs.PutObject(ctx, manifestKey, "application/json", bytes.NewReader(body)); err != nil {
		return "", err
	}

	signed, err := s.blobs.PresignDownload(ctx, manifestKey, s.cfg.DownloadURLTTL)
	if err != nil {
		return "", err
	}
	return signed.URL, nil
}
