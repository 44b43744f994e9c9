package handoff

import (
	"context"
	"fmt"
	"log/slog"

	"handoff/internal/blob"
	"handoff/internal/config"

	"github.com/google/uuid"
)

// UploadURLService issues presigned PUT URLs for direct uploads.
// Signing is stateless; the service holds no reference to a URL after
// returning it.
type UploadURLService struct {
	blobs  blob.Store
	cfg    *config.Config
	logger *slog.Logger
}

// NewUploadURLService creates a new upload-URL service.
func NewUploadURLService(blobs blob.Store, cfg *config.Config, logger *slog.Logger) *UploadURLService {
	return &UploadURLService{blobs: blobs, cfg: cfg, logger: logger}
}

// IssueUploadURL validates the requested key and returns a presigned PUT URL
// bounded by the configured TTL.
func (s *UploadURLService) IssueUploadURL(ctx context.Context, key, contentType string) (blob.SignedURL, error) {
	if err := blob.ValidateKey(key, s.cfg.AllowedPrefix); err != nil {
		return blob.SignedURL{}, err
	}

	signed, err := s.blobs.PresignUpload(ctx, key, contentType, s.cfg.UploadURLTTL)
	if err != nil {
		return blob.SignedURL{}, fmt.Errorf("failed to presign upload for %s: %w", key, err)
	}

	logger := logFrom(ctx, s.logger)
	logger.Info("issued upload URL", "key", key, "expires_at", signed.ExpiresAt)
	return signed, nil
}

// IssueJobUploadURL returns a presigned PUT URL for a job's result archive,
// keyed {upload_prefix}/{job_id}/{job_id}.zip.
func (s *UploadURLService) IssueJobUploadURL(ctx context.Context, jobID uuid.UUID) (blob.SignedURL, error) {
	key := ResultKey(s.cfg.UploadPrefix, jobID)
	signed, err := s.blobs.PresignUpload(ctx, key, "application/zip", s.cfg.UploadURLTTL)
	if err != nil {
		return blob.SignedURL{}, fmt.Errorf("failed to presign result upload for job %s: %w", jobID, err)
	}

	logger := logFrom(ctx, s.logger)
	logger.Info("issued result upload URL", "job_id", jobID, "key", key)
	return signed, nil
}

// ResultKey is the blob key a job's result archive is uploaded under.
func ResultKey(uploadPrefix string, jobID uuid.UUID) string {
	return fmt.Sprintf("%s/%s/%s.zip", uploadPrefix, jobID, jobID)
}
