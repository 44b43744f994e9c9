// Package handlers contains HTTP handlers for the controller API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"handoff/internal/blob"
	"handoff/internal/handoff"
	"handoff/internal/observability"
	"handoff/internal/store"
	"handoff/pkg/api"

	"github.com/google/uuid"
)

// UploadURLIssuer issues presigned PUT URLs.
type UploadURLIssuer interface {
	IssueUploadURL(ctx context.Context, key, contentType string) (blob.SignedURL, error)
	IssueJobUploadURL(ctx context.Context, jobID uuid.UUID) (blob.SignedURL, error)
}

// JobPreparer registers new jobs.
type JobPreparer interface {
	PrepareJob(ctx context.Context, keys []string) (*handoff.PreparedJob, error)
}

// JobFetcher claims pending jobs for workers.
type JobFetcher interface {
	FetchJob(ctx context.Context, claimant string) (*handoff.ClaimedJob, error)
}

// ResultReporter records terminal job outcomes and serves status queries.
type ResultReporter interface {
	Complete(ctx context.Context, jobID uuid.UUID, outputKey string) error
	Fail(ctx context.Context, jobID uuid.UUID, outputKey, errMsg string) error
	GetJob(ctx context.Context, jobID uuid.UUID) (*store.Job, error)
}

// Pinger reports store reachability for the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds all HTTP handlers and their dependencies.
type Handlers struct {
	uploads UploadURLIssuer
	prepare JobPreparer
	fetch   JobFetcher
	report  ResultReporter
	pinger  Pinger
	metrics *observability.HandoffMetrics
}

// New creates a new Handlers instance. metrics may be nil.
func New(uploads UploadURLIssuer, prepare JobPreparer, fetch JobFetcher, report ResultReporter, pinger Pinger, metrics *observability.HandoffMetrics) *Handlers {
	return &Handlers{
		uploads: uploads,
		prepare: prepare,
		fetch:   fetch,
		report:  report,
		pinger:  pinger,
		metrics: metrics,
	}
}

// A helper function to write standard JSON responses.
func (h *Handlers) respondJson(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// A helper function to return consistent error messages.
func (h *Handlers) httpError(w http.ResponseWriter, message string, code int) {
	h.respondJson(w, code, api.ErrorResponse{
		Error: message,
		Code:  strconv.Itoa(code),
	})
}

// serviceError maps domain errors to status codes. Callers that handle a
// domain error specially (NoJobAvailable) must do so before calling this.
func (h *Handlers) serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, blob.ErrInvalidKey):
		h.httpError(w, "Invalid object key", http.StatusBadRequest)
	case errors.Is(err, handoff.ErrEmptyInputSet):
		h.httpError(w, "At least one input key is required", http.StatusBadRequest)
	case errors.Is(err, store.ErrJobNotFound):
		h.httpError(w, "Job not found", http.StatusNotFound)
	case errors.Is(err, store.ErrInvalidTransition), errors.Is(err, store.ErrClaimConflict):
		h.httpError(w, "Job is not in a claimable or claimed state", http.StatusConflict)
	default:
		h.httpError(w, "Service unavailable, retry later", http.StatusServiceUnavailable)
	}
}

func jobResponse(job *store.Job) *api.JobResponse {
	return &api.JobResponse{
		JobID:     job.ID.String(),
		Status:    string(job.Status),
		InputKeys: job.InputKeys,
		OutputKey: job.OutputKey,
		Claimant:  job.Claimant,
		CreatedAt: job.CreatedAt,
		ClaimedAt: job.ClaimedAt,
	}
}
