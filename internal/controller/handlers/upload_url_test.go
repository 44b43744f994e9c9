package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"handoff/internal/blob"

	"github.com/google/uuid"
)

func TestGetUploadURL(t *testing.T) {
	signed := blob.SignedURL{
		URL:       "https://bucket.example/in/report.pdf?sig=abc",
		Method:    "PUT",
		Key:       "in/report.pdf",
		ExpiresAt: time.Now().Add(15 * time.Minute).UTC(),
	}

	tests := []struct {
		name           string
		target         string
		mockSetup      func(*mockServices)
		expectedStatus int
		expectedInBody string
	}{
		{
			name:   "Success With Key",
			target: "/get-upload-url?key=in/report.pdf&content_type=application/pdf",
			mockSetup: func(m *mockServices) {
				m.issueResp = signed
			},
			expectedStatus: http.StatusOK,
			expectedInBody: "https://bucket.example/in/report.pdf",
		},
		{
			name:   "Success With Job ID",
			target: "/get-upload-url?job_id=" + uuid.NewString(),
			mockSetup: func(m *mockServices) {
				m.issueJobResp = signed
			},
			expectedStatus: http.StatusOK,
			expectedInBody: `"method":"PUT"`,
		},
		{
			name:           "Missing Key And Job ID",
			target:         "/get-upload-url",
			mockSetup:      func(m *mockServices) {},
			expectedStatus: http.StatusBadRequest,
			expectedInBody: "key or job_id",
		},
		{
			name:           "Invalid Job ID",
			target:         "/get-upload-url?job_id=not-a-uuid",
			mockSetup:      func(m *mockServices) {},
			expectedStatus: http.StatusBadRequest,
			expectedInBody: "Invalid job id",
		},
		{
			name:   "Invalid Key",
			target: "/get-upload-url?key=../../etc/passwd",
			mockSetup: func(m *mockServices) {
				m.issueErr = blob.ErrInvalidKey
			},
			expectedStatus: http.StatusBadRequest,
			expectedInBody: "Invalid object key",
		},
		{
			name:   "Signer Failure",
			target: "/get-upload-url?key=in/report.pdf",
			mockSetup: func(m *mockServices) {
				m.issueErr = errors.New("signer down")
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedInBody: "retry later",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockServices{}
			tt.mockSetup(mock)
			h := newTestHandlers(mock)

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			rr := httptest.NewRecorder()
			h.GetUploadURL(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("handler returned wrong status code: got %v want %v",
					rr.Code, tt.expectedStatus)
			}
			if tt.expectedInBody != "" && !strings.Contains(rr.Body.String(), tt.expectedInBody) {
				t.Errorf("handler returned unexpected body: got %v want substring %v",
					rr.Body.String(), tt.expectedInBody)
			}
		})
	}
}
