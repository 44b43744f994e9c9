// Package handoff contains the job-handoff services: upload-URL issuance,
// job preparation and job fetch. Handlers stay thin; the contracts and the
// retry behavior live here.
package handoff

import (
	"context"
	"errors"
	"log/slog"

	"handoff/internal/blob"
	"handoff/internal/logger"
	"handoff/internal/store"
)

// ErrEmptyInputSet is returned when job preparation receives no input keys.
var ErrEmptyInputSet = errors.New("no input keys given")

// PreparedJob is the result of registering a new job.
type PreparedJob struct {
	Job *store.Job

	// UploadURLs contains one presigned PUT URL per input key that is not
	// yet present in the blob store.
	UploadURLs []blob.SignedURL

	// JobFileURL is a presigned GET URL for the job manifest written to the
	// blob store. Empty when the manifest write failed (non-fatal).
	JobFileURL string
}

// ClaimedJob is a claimed descriptor enriched with the presigned download
// URLs a worker needs to process it.
type ClaimedJob struct {
	Job *store.Job

	// Files holds one presigned GET URL per input key, in input order.
	Files []blob.SignedURL

	// ReportURL is where the worker posts the job result.
	ReportURL string
}

func logFrom(ctx context.Context, base *slog.Logger) *slog.Logger {
	return logger.FromContext(ctx, base)
}
