package handoff

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"handoff/internal/blob"

	"github.com/google/uuid"
)

func TestIssueUploadURL(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{name: "Valid key", key: "incoming/file.pdf"},
		{name: "Empty key", key: "", wantErr: blob.ErrInvalidKey},
		{name: "Traversal", key: "../outside", wantErr: blob.ErrInvalidKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewUploadURLService(newFakeBlob(), testConfig(), testLogger())

			signed, err := svc.IssueUploadURL(context.Background(), tt.key, "application/pdf")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if signed.Method != "PUT" {
				t.Errorf("expected PUT, got %s", signed.Method)
			}
			if !signed.ExpiresAt.After(time.Now()) {
				t.Error("expiry must be strictly in the future")
			}
			if signed.Key != tt.key {
				t.Errorf("expected key %s, got %s", tt.key, signed.Key)
			}
		})
	}
}

func TestIssueUploadURL_PrefixEnforced(t *testing.T) {
	cfg := testConfig()
	cfg.AllowedPrefix = "incoming"
	svc := NewUploadURLService(newFakeBlob(), cfg, testLogger())

	if _, err := svc.IssueUploadURL(context.Background(), "incoming/file.pdf", ""); err != nil {
		t.Errorf("key inside prefix rejected: %v", err)
	}
	if _, err := svc.IssueUploadURL(context.Background(), "elsewhere/file.pdf", ""); !errors.Is(err, blob.ErrInvalidKey) {
		t.Errorf("expected ErrInvalidKey outside prefix, got %v", err)
	}
}

func TestIssueJobUploadURL(t *testing.T) {
	svc := NewUploadURLService(newFakeBlob(), testConfig(), testLogger())
	jobID := uuid.New()

	signed, err := svc.IssueJobUploadURL(context.Background(), jobID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantKey := "zip_processed_by_processor/" + jobID.String() + "/" + jobID.String() + ".zip"
	if signed.Key != wantKey {
		t.Errorf("expected key %s, got %s", wantKey, signed.Key)
	}
	if signed.Method != "PUT" {
		t.Errorf("expected PUT, got %s", signed.Method)
	}
	if !strings.Contains(signed.URL, jobID.String()) {
		t.Errorf("URL should reference the job: %s", signed.URL)
	}
}
