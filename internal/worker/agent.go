// Package worker contains the processor agent that pulls jobs from the
// controller, downloads their inputs, packages the results and reports back.
package worker

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"handoff/pkg/api"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AgentConfig holds configuration for the worker agent.
type AgentConfig struct {
	ID                  string
	Concurrency         int
	PollInterval        time.Duration
	MaxBackoff          time.Duration // Maximum backoff when queue is empty (default: 30s)
	ControllerURL       string
	DownloadParallelism int // Parallel input downloads per job (default: 4)
	DownloadRetries     int // Attempts per input file (default: 3)
	WorkDir             string
}

// Agent is the worker that runs the pull-loop for job processing.
type Agent struct {
	config     AgentConfig
	httpClient *http.Client
	logger     *slog.Logger
	done       chan struct{}
}

// New creates a new worker agent.
func New(config AgentConfig, logger *slog.Logger) *Agent {
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}

	if config.PollInterval <= 0 {
		config.PollInterval = 1 * time.Second
	}

	if config.MaxBackoff <= 0 {
		config.MaxBackoff = 30 * time.Second
	}

	if config.DownloadParallelism <= 0 {
		config.DownloadParallelism = 4
	}

	if config.DownloadRetries <= 0 {
		config.DownloadRetries = 3
	}

	if config.WorkDir == "" {
		config.WorkDir = os.TempDir()
	}

	// Ensure no trailing slash
	if len(config.ControllerURL) > 0 && config.ControllerURL[len(config.ControllerURL)-1] == '/' {
		config.ControllerURL = config.ControllerURL[:len(config.ControllerURL)-1]
	}

	return &Agent{
		config: config,
		logger: logger,
		done:   make(chan struct{}),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Run starts the main pull-loop. It blocks until the context is cancelled.
// On SIGTERM, it stops fetching new work and lets in-flight jobs finish.
func (a *Agent) Run(ctx context.Context) error {
	a.logger.Info("agent starting", "agent_id", a.config.ID, "concurrency", a.config.Concurrency)

	// Semaphore to limit concurrency
	sem := make(chan struct{}, a.config.Concurrency)
	var wg sync.WaitGroup

	// Channel to signal when a slot becomes available (adaptive polling)
	pollNow := make(chan struct{}, 1)

	// Current backoff duration (increases on empty queue, resets on work found)
	currentBackoff := a.config.PollInterval

	triggerPoll := func() {
		select {
		case pollNow <- struct{}{}:
		default:
			// Already a poll pending
		}
	}

	// Initial poll
	triggerPoll()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("context cancelled, waiting for running jobs to finish")
			wg.Wait()
			close(a.done)
			return ctx.Err()

		case <-time.After(currentBackoff):
			triggerPoll()

		case <-pollNow:
			if len(sem) >= a.config.Concurrency {
				continue
			}

			job, err := a.fetchJob(ctx)
			if err != nil {
				a.logger.Error("fetch failed", "error", err)
				continue
			}

			if job == nil {
				// Empty queue - increase backoff (exponential, capped at MaxBackoff)
				currentBackoff = currentBackoff * 2
				if currentBackoff > a.config.MaxBackoff {
					currentBackoff = a.config.MaxBackoff
				}
				continue
			}

			// Found work - reset backoff to minimum
			currentBackoff = a.config.PollInterval

			sem <- struct{}{}
			wg.Add(1)
			go func(job *api.JobResponse) {
				defer wg.Done()
				defer func() {
					<-sem
					// A slot is free again - trigger immediate re-poll
					triggerPoll()
				}()
				// Detached from the poll-loop context so cancellation stops
				// new fetches but lets this job run to completion.
				a.processJob(context.WithoutCancel(ctx), job)
			}(job)

			// More slots may still be free
			triggerPoll()
		}
	}
}

// Done returns a channel that is closed when the agent has fully stopped.
func (a *Agent) Done() <-chan struct{} {
	return a.done
}

// fetchJob asks the controller for the oldest pending job. A nil job with a
// nil error means the queue is empty.
func (a *Agent) fetchJob(ctx context.Context) (*api.JobResponse, error) {
	url := fmt.Sprintf("%s/get-job?claimant=%s", a.config.ControllerURL, a.config.ID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("api returned status %d", resp.StatusCode)
	}

	var body api.GetJobResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode job response: %w", err)
	}
	return body.Job, nil
}

// processJob downloads the job's inputs, packages them into a single zip
// archive, uploads it and reports the terminal result. The caller hands in a
// context that survives SIGTERM (graceful drain); the report call carries its
// own timeout on top.
func (a *Agent) processJob(ctx context.Context, job *api.JobResponse) {
	tracer := otel.Tracer("worker-agent")
	spanCtx, span := tracer.Start(ctx, "process_job",
		trace.WithAttributes(
			attribute.String("job.id", job.JobID),
			attribute.Int("job.files", len(job.Files)),
		),
		trace.WithSpanKind(trace.SpanKindConsumer),
	)
	defer span.End()

	log := a.logger.With("job_id", job.JobID)
	log.Info("processing job", "files", len(job.Files))

	jobDir, err := os.MkdirTemp(a.config.WorkDir, "job-"+job.JobID+"-")
	if err != nil {
		span.RecordError(err)
		a.reportFailure(job, fmt.Sprintf("failed to create work dir: %v", err))
		return
	}
	defer os.RemoveAll(jobDir)

	paths, err := a.downloadInputs(spanCtx, job, jobDir)
	if err != nil {
		span.RecordError(err)
		log.Error("download failed", "error", err)
		a.reportFailure(job, fmt.Sprintf("download failed: %v", err))
		return
	}

	archivePath := filepath.Join(jobDir, job.JobID+".zip")
	if err := writeArchive(archivePath, paths); err != nil {
		span.RecordError(err)
		log.Error("packaging failed", "error", err)
		a.reportFailure(job, fmt.Sprintf("packaging failed: %v", err))
		return
	}

	outputKey, err := a.uploadResult(spanCtx, job, archivePath)
	if err != nil {
		span.RecordError(err)
		log.Error("upload failed", "error", err)
		a.reportFailure(job, fmt.Sprintf("upload failed: %v", err))
		return
	}

	if err := a.reportResult(job, api.StatusCompleted, outputKey, ""); err != nil {
		span.RecordError(err)
		log.Error("result report failed", "error", err)
		return
	}

	log.Info("job completed", "output_key", outputKey)
}

// downloadInputs fetches every input file in parallel, bounded by
// DownloadParallelism, with per-file retries. Returns the local paths in
// input order.
func (a *Agent) downloadInputs(ctx context.Context, job *api.JobResponse, jobDir string) ([]string, error) {
	paths := make([]string, len(job.Files))
	errs := make([]error, len(job.Files))

	sem := make(chan struct{}, a.config.DownloadParallelism)
	var wg sync.WaitGroup

	for i, file := range job.Files {
		sem <- struct{}{}
		wg.Add(1)
		go func(i int, file api.FileObject) {
			defer wg.Done()
			defer func() { <-sem }()

			dest := filepath.Join(jobDir, fmt.Sprintf("%03d_%s", i, file.FileName))
			errs[i] = a.downloadFile(ctx, file.URL, dest)
			paths[i] = dest
		}(i, file)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", job.Files[i].Key, err)
		}
	}
	return paths, nil
}

func (a *Agent) downloadFile(ctx context.Context, url, dest string) error {
	var lastErr error
	for attempt := 0; attempt < a.config.DownloadRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}

		lastErr = a.tryDownload(ctx, url, dest)
		if lastErr == nil {
			return nil
		}
	}
	return lastErr
}

func (a *Agent) tryDownload(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return err
	}
	return f.Close()
}

// writeArchive packages the given files into a zip archive at archivePath.
// Entry names keep only the base name, without the ordering prefix.
func writeArchive(archivePath string, paths []string) error {
	out, err := os.Create(archivePath)
	if err != nil {
		return err
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for _, p := range paths {
		name := filepath.Base(p)
		if len(name) > 4 && name[3] == '_' {
			name = name[4:]
		}

		w, err := zw.Create(name)
		if err != nil {
			return err
		}

		f, err := os.Open(p)
		if err != nil {
			return err
		}
		if _, err := io.Copy(w, f); err != nil {
			f.Close()
			return err
		}
		f.Close()
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return out.Close()
}

// uploadResult asks the controller for a presigned result-upload URL and PUTs
// the archive there. Returns the object key the archive was stored under.
func (a *Agent) uploadResult(ctx context.Context, job *api.JobResponse, archivePath string) (string, error) {
	url := fmt.Sprintf("%s/get-upload-url?job_id=%s", a.config.ControllerURL, job.JobID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upload-url api returned status %d", resp.StatusCode)
	}

	var signed api.UploadURLResponse
	if err := json.NewDecoder(resp.Body).Decode(&signed); err != nil {
		return "", fmt.Errorf("failed to decode upload-url response: %w", err)
	}

	data, err := os.ReadFile(archivePath)
	if err != nil {
		return "", err
	}

	putReq, err := http.NewRequestWithContext(ctx, http.MethodPut, signed.URL, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	putReq.Header.Set("Content-Type", "application/zip")

	putResp, err := a.httpClient.Do(putReq)
	if err != nil {
		return "", err
	}
	defer putResp.Body.Close()

	if putResp.StatusCode < 200 || putResp.StatusCode >= 300 {
		return "", fmt.Errorf("upload returned status %d", putResp.StatusCode)
	}
	return signed.Key, nil
}

func (a *Agent) reportFailure(job *api.JobResponse, errMsg string) {
	if err := a.reportResult(job, api.StatusFailed, "", errMsg); err != nil {
		a.logger.Error("failure report failed", "job_id", job.JobID, "error", err)
	}
}

// reportResult posts the terminal status. Uses a fresh context so a drained
// worker still reports jobs it finished after SIGTERM.
func (a *Agent) reportResult(job *api.JobResponse, status, outputKey, errMsg string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	url := job.ReportURL
	if url == "" {
		url = fmt.Sprintf("%s/jobs/%s/result", a.config.ControllerURL, job.JobID)
	}

	body, _ := json.Marshal(api.ReportResultRequest{
		Status:    status,
		OutputKey: outputKey,
		Error:     errMsg,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("api returned status %d", resp.StatusCode)
	}
	return nil
}
