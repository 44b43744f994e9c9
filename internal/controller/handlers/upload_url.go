package handlers

import (
	"net/http"

	"handoff/internal/blob"
	"handoff/pkg/api"

	"github.com/google/uuid"
)

// GetUploadURL handles GET /get-upload-url.
// Callers pass either an explicit key (with optional content_type) or a
// job_id, which resolves to the job's fixed result-archive key.
func (h *Handlers) GetUploadURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	key := query.Get("key")
	jobIDStr := query.Get("job_id")

	var (
		signed blob.SignedURL
		err    error
	)
	switch {
	case jobIDStr != "":
		jobID, parseErr := uuid.Parse(jobIDStr)
		if parseErr != nil {
			h.httpError(w, "Invalid job id", http.StatusBadRequest)
			return
		}
		signed, err = h.uploads.IssueJobUploadURL(ctx, jobID)
	case key != "":
		signed, err = h.uploads.IssueUploadURL(ctx, key, query.Get("content_type"))
	default:
		h.httpError(w, "Either key or job_id is required", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.serviceError(w, err)
		return
	}

	h.metrics.RecordUploadURLIssued(ctx)
	h.respondJson(w, http.StatusOK, api.UploadURLResponse{
		Key:       signed.Key,
		URL:       signed.URL,
		Method:    signed.Method,
		ExpiresAt: signed.ExpiresAt,
	})
}
