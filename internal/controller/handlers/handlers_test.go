package handlers

import (
	"context"

	"handoff/internal/blob"
	"handoff/internal/handoff"
	"handoff/internal/store"

	"github.com/google/uuid"
)

// mockServices implements every handler dependency so tests can inject
// canned responses and errors per call.
type mockServices struct {
	issueResp    blob.SignedURL
	issueErr     error
	issueJobResp blob.SignedURL
	issueJobErr  error

	prepareResp *handoff.PreparedJob
	prepareErr  error
	prepareKeys []string

	fetchResp    *handoff.ClaimedJob
	fetchErr     error
	lastClaimant string

	completeErr   error
	failErr       error
	lastOutputKey string
	lastErrMsg    string

	getJobResp *store.Job
	getJobErr  error

	pingErr error
}

func (m *mockServices) IssueUploadURL(ctx context.Context, key, contentType string) (blob.SignedURL, error) {
	return m.issueResp, m.issueErr
}

func (m *mockServices) IssueJobUploadURL(ctx context.Context, jobID uuid.UUID) (blob.SignedURL, error) {
	return m.issueJobResp, m.issueJobErr
}

func (m *mockServices) PrepareJob(ctx context.Context, keys []string) (*handoff.PreparedJob, error) {
	m.prepareKeys = keys
	return m.prepareResp, m.prepareErr
}

func (m *mockServices) FetchJob(ctx context.Context, claimant string) (*handoff.ClaimedJob, error) {
	m.lastClaimant = claimant
	return m.fetchResp, m.fetchErr
}

func (m *mockServices) Complete(ctx context.Context, jobID uuid.UUID, outputKey string) error {
	m.lastOutputKey = outputKey
	return m.completeErr
}

func (m *mockServices) Fail(ctx context.Context, jobID uuid.UUID, outputKey, errMsg string) error {
	m.lastOutputKey = outputKey
	m.lastErrMsg = errMsg
	return m.failErr
}

func (m *mockServices) GetJob(ctx context.Context, jobID uuid.UUID) (*store.Job, error) {
	return m.getJobResp, m.getJobErr
}

func (m *mockServices) Ping(ctx context.Context) error {
	return m.pingErr
}

func newTestHandlers(m *mockServices) *Handlers {
	return New(m, m, m, m, m, nil)
}
