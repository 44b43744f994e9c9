package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestInitMetrics(t *testing.T) {
	handler, shutdown, err := InitMetrics()
	if err != nil {
		t.Fatalf("InitMetrics failed: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()
		_ = shutdown(shutdownCtx)
	}()

	if handler == nil {
		t.Fatal("expected handler to be non-nil")
	}

	// Smoke test: verify handler returns 200 and non-empty body
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
	}
	if rr.Body.Len() == 0 {
		t.Error("handler returned empty body")
	}
}

func TestHandoffMetrics_AppearInOutput(t *testing.T) {
	ctx := context.Background()

	handler, shutdown, err := InitMetrics()
	if err != nil {
		t.Fatalf("InitMetrics failed: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()
		_ = shutdown(shutdownCtx)
	}()

	metrics, err := NewHandoffMetrics()
	if err != nil {
		t.Fatalf("NewHandoffMetrics failed: %v", err)
	}

	metrics.RecordJobPrepared(ctx)
	metrics.RecordClaimGranted(ctx)
	metrics.RecordClaimGranted(ctx)
	metrics.RecordFetchEmpty(ctx)
	metrics.RecordUploadURLIssued(ctx)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	body := rr.Body.String()
	for _, name := range []string{
		"handoff_jobs_prepared_total",
		"handoff_claims_granted_total",
		"handoff_fetches_empty_total",
		"handoff_upload_urls_issued_total",
	} {
		if !strings.Contains(body, name) {
			t.Errorf("expected metric %q in output", name)
		}
	}
}

func TestHandoffMetrics_NilIsNoop(t *testing.T) {
	var metrics *HandoffMetrics

	// Must not panic.
	metrics.RecordJobPrepared(context.Background())
	metrics.RecordClaimGranted(context.Background())
	metrics.RecordFetchEmpty(context.Background())
	metrics.RecordUploadURLIssued(context.Background())
}

func TestRegisterPendingGauge(t *testing.T) {
	handler, shutdown, err := InitMetrics()
	if err != nil {
		t.Fatalf("InitMetrics failed: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()
		_ = shutdown(shutdownCtx)
	}()

	err = RegisterPendingGauge(func(ctx context.Context) (int64, error) {
		return 7, nil
	})
	if err != nil {
		t.Fatalf("RegisterPendingGauge failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if !strings.Contains(rr.Body.String(), "handoff_jobs_pending") {
		t.Error("expected handoff_jobs_pending gauge in output")
	}
}
