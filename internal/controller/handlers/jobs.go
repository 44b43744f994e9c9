package handlers

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"path"

	"handoff/internal/store"
	"handoff/pkg/api"

	"github.com/google/uuid"
)

// PrepareJob handles GET /prepare-job.
// It registers a job for the given input keys and returns upload URLs for
// the keys that are not yet in the blob store.
func (h *Handlers) PrepareJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	keys := r.URL.Query()["key"]

	prepared, err := h.prepare.PrepareJob(ctx, keys)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	resp := api.PrepareJobResponse{
		JobID:      prepared.Job.ID.String(),
		UploadURLs: []api.UploadURLResponse{},
		JobFileURL: prepared.JobFileURL,
		FilesCount: len(prepared.Job.InputKeys),
	}
	for _, signed := range prepared.UploadURLs {
		resp.UploadURLs = append(resp.UploadURLs, api.UploadURLResponse{
			Key:       signed.Key,
			URL:       signed.URL,
			Method:    signed.Method,
			ExpiresAt: signed.ExpiresAt,
		})
	}

	h.metrics.RecordJobPrepared(ctx)
	h.respondJson(w, http.StatusOK, resp)
}

// GetJob handles GET /get-job.
// It atomically claims the oldest pending job for the caller. An empty
// queue is not an error: the response is 200 with a null job.
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claimant := r.URL.Query().Get("claimant")
	if claimant == "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			claimant = host
		} else {
			claimant = r.RemoteAddr
		}
	}

	claimed, err := h.fetch.FetchJob(ctx, claimant)
	if err != nil {
		if errors.Is(err, store.ErrNoJobAvailable) {
			h.metrics.RecordFetchEmpty(ctx)
			h.respondJson(w, http.StatusOK, api.GetJobResponse{Job: nil})
			return
		}
		h.serviceError(w, err)
		return
	}

	job := jobResponse(claimed.Job)
	job.ReportURL = claimed.ReportURL
	for _, signed := range claimed.Files {
		job.Files = append(job.Files, api.FileObject{
			FileName: path.Base(signed.Key),
			Key:      signed.Key,
			URL:      signed.URL,
		})
	}

	h.metrics.RecordClaimGranted(ctx)
	h.respondJson(w, http.StatusOK, api.GetJobResponse{Job: job})
}

// GetJobByID handles GET /jobs/{id}.
func (h *Handlers) GetJobByID(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "Invalid job id", http.StatusBadRequest)
		return
	}

	job, err := h.report.GetJob(r.Context(), jobID)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	h.respondJson(w, http.StatusOK, jobResponse(job))
}

// ReportResult handles POST /jobs/{id}/result.
// Workers post {status, output_key, error} when a claimed job reaches a
// terminal state.
func (h *Handlers) ReportResult(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	jobID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "Invalid job id", http.StatusBadRequest)
		return
	}

	var req api.ReportResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	switch req.Status {
	case string(store.JobStatusCompleted):
		err = h.report.Complete(ctx, jobID, req.OutputKey)
	case string(store.JobStatusFailed):
		err = h.report.Fail(ctx, jobID, req.OutputKey, req.Error)
	default:
		h.httpError(w, "Status must be completed or failed", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.serviceError(w, err)
		return
	}

	h.respondJson(w, http.StatusOK, map[string]string{"status": req.Status})
}
