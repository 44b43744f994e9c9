// Package api contains shared JSON request/response structs.
// This package is shared between the CLI, the worker and the controller.
package api

import "time"

// UploadURLResponse is the response body for GET /get-upload-url.
type UploadURLResponse struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expires_at"`
}

// FileObject pairs an object key with a presigned download URL.
type FileObject struct {
	FileName string `json:"file_name"`
	Key      string `json:"key"`
	URL      string `json:"url"`
}

// PrepareJobResponse is the response body for GET /prepare-job.
type PrepareJobResponse struct {
	JobID      string              `json:"job_id"`
	UploadURLs []UploadURLResponse `json:"upload_urls"`
	JobFileURL string              `json:"job_file_url,omitempty"`
	FilesCount int                 `json:"files_count"`
}

// JobResponse is the descriptor returned to a worker that claimed a job.
type JobResponse struct {
	JobID     string       `json:"job_id"`
	Status    string       `json:"status"`
	InputKeys []string     `json:"input_keys"`
	OutputKey *string      `json:"output_key"`
	Claimant  *string      `json:"claimant,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	ClaimedAt *time.Time   `json:"claimed_at,omitempty"`
	Files     []FileObject `json:"files,omitempty"`
	ReportURL string       `json:"report_url,omitempty"`
}

// GetJobResponse is the response body for GET /get-job.
// Job is null when no pending job is available; that is not an error.
type GetJobResponse struct {
	Job *JobResponse `json:"job"`
}

// Terminal statuses a worker may report.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ReportResultRequest is the payload a worker posts when a job finishes.
// Status must be "completed" or "failed".
type ReportResultRequest struct {
	Status    string `json:"status"`
	OutputKey string `json:"output_key,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// JobManifest is the job file written to the blob store at prepare time.
// Workers can fetch it directly without talking to the API again.
type JobManifest struct {
	JobID     string       `json:"job_id"`
	Files     []FileObject `json:"file_object"`
	ReportURL string       `json:"call_url_when_done_with_job_id"`
	CreatedAt time.Time    `json:"created_at"`
}
