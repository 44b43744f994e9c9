// Package observability provides OpenTelemetry instrumentation for tracing and metrics.
package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// InitMetrics initializes the OpenTelemetry metrics provider with a Prometheus exporter.
// It returns the HTTP handler for the /metrics endpoint and a shutdown function.
// The shutdown function should be called on application exit for graceful cleanup.
func InitMetrics() (http.Handler, func(context.Context) error, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)

	otel.SetMeterProvider(provider)

	return promhttp.Handler(), provider.Shutdown, nil
}

// HandoffMetrics bundles the controller's request counters.
// A nil receiver is valid; all record methods become no-ops so callers
// don't need to guard against an uninstrumented deployment.
type HandoffMetrics struct {
	jobsPrepared  metric.Int64Counter
	claimsGranted metric.Int64Counter
	fetchesEmpty  metric.Int64Counter
	uploadURLs    metric.Int64Counter
}

// NewHandoffMetrics creates the counters on the global meter provider.
// Call after InitMetrics.
func NewHandoffMetrics() (*HandoffMetrics, error) {
	meter := otel.Meter("handoff")

	jobsPrepared, err := meter.Int64Counter("handoff_jobs_prepared_total")
	if err != nil {
		return nil, err
	}
	claimsGranted, err := meter.Int64Counter("handoff_claims_granted_total")
	if err != nil {
		return nil, err
	}
	fetchesEmpty, err := meter.Int64Counter("handoff_fetches_empty_total")
	if err != nil {
		return nil, err
	}
	uploadURLs, err := meter.Int64Counter("handoff_upload_urls_issued_total")
	if err != nil {
		return nil, err
	}

	return &HandoffMetrics{
		jobsPrepared:  jobsPrepared,
		claimsGranted: claimsGranted,
		fetchesEmpty:  fetchesEmpty,
		uploadURLs:    uploadURLs,
	}, nil
}

// RecordJobPrepared counts a successful job preparation.
func (m *HandoffMetrics) RecordJobPrepared(ctx context.Context) {
	if m == nil {
		return
	}
	m.jobsPrepared.Add(ctx, 1)
}

// RecordClaimGranted counts a job handed to a worker.
func (m *HandoffMetrics) RecordClaimGranted(ctx context.Context) {
	if m == nil {
		return
	}
	m.claimsGranted.Add(ctx, 1)
}

// RecordFetchEmpty counts a fetch that found no pending job.
func (m *HandoffMetrics) RecordFetchEmpty(ctx context.Context) {
	if m == nil {
		return
	}
	m.fetchesEmpty.Add(ctx, 1)
}

// RecordUploadURLIssued counts an issued presigned upload URL.
func (m *HandoffMetrics) RecordUploadURLIssued(ctx context.Context) {
	if m == nil {
		return
	}
	m.uploadURLs.Add(ctx, 1)
}

// RegisterPendingGauge exports the current pending-job count as an
// observable gauge. count is polled at scrape time.
func RegisterPendingGauge(count func(context.Context) (int64, error)) error {
	meter := otel.Meter("handoff")

	gauge, err := meter.Int64ObservableGauge("handoff_jobs_pending")
	if err != nil {
		return err
	}

	_, err = meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		n, err := count(ctx)
		if err != nil {
			return err
		}
		o.ObserveInt64(gauge, n)
		return nil
	}, gauge)
	return err
}
