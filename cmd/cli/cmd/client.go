package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"handoff/pkg/api"
)

// JobClient handles API calls to the handoff controller.
type JobClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewJobClient creates a new client with the given base URL.
func NewJobClient(baseURL string) *JobClient {
	return &JobClient{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError represents an error response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

func (c *JobClient) get(endpoint string, out interface{}) error {
	httpReq, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Add("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// GetUploadURL sends GET /get-upload-url for an explicit object key.
func (c *JobClient) GetUploadURL(key, contentType string) (*api.UploadURLResponse, error) {
	q := url.Values{"key": {key}}
	if contentType != "" {
		q.Set("content_type", contentType)
	}

	var result api.UploadURLResponse
	if err := c.get(fmt.Sprintf("%s/get-upload-url?%s", c.BaseURL, q.Encode()), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetJobUploadURL sends GET /get-upload-url for a job's result archive.
func (c *JobClient) GetJobUploadURL(jobID string) (*api.UploadURLResponse, error) {
	q := url.Values{"job_id": {jobID}}

	var result api.UploadURLResponse
	if err := c.get(fmt.Sprintf("%s/get-upload-url?%s", c.BaseURL, q.Encode()), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PrepareJob sends GET /prepare-job to register a job for the given keys.
func (c *JobClient) PrepareJob(keys []string) (*api.PrepareJobResponse, error) {
	q := url.Values{"key": keys}

	var result api.PrepareJobResponse
	if err := c.get(fmt.Sprintf("%s/prepare-job?%s", c.BaseURL, q.Encode()), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// FetchJob sends GET /get-job to claim the oldest pending job.
// A nil job with a nil error means no job is pending.
func (c *JobClient) FetchJob(claimant string) (*api.JobResponse, error) {
	q := url.Values{}
	if claimant != "" {
		q.Set("claimant", claimant)
	}

	var result api.GetJobResponse
	if err := c.get(fmt.Sprintf("%s/get-job?%s", c.BaseURL, q.Encode()), &result); err != nil {
		return nil, err
	}
	return result.Job, nil
}

// GetJob sends GET /jobs/{id} to retrieve a job descriptor.
func (c *JobClient) GetJob(jobID string) (*api.JobResponse, error) {
	var result api.JobResponse
	if err := c.get(fmt.Sprintf("%s/jobs/%s", c.BaseURL, jobID), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ReportResult sends POST /jobs/{id}/result with a terminal status.
func (c *JobClient) ReportResult(jobID string, req api.ReportResultRequest) error {
	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/jobs/%s/result", c.BaseURL, jobID), bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Add("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}
	return nil
}
