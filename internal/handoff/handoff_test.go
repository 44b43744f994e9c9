package handoff

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"handoff/internal/blob"
	"handoff/internal/config"
)

// fakeBlob is an in-memory blob.Store. Presigned URLs are synthesized from
// the key; uploads and manifest writes land in the objects map.
type fakeBlob struct {
	mu      sync.Mutex
	objects map[string][]byte

	presignUploadErr   error
	presignDownloadErr error
	existsErr          error
	putErr             error
}

func newFakeBlob(existing ...string) *fakeBlob {
	fb := &fakeBlob{objects: make(map[string][]byte)}
	for _, key := range existing {
		fb.objects[key] = []byte("data")
	}
	return fb
}

func (f *fakeBlob) PresignUpload(ctx context.Context, key, contentType string, ttl time.Duration) (blob.SignedURL, error) {
	if f.presignUploadErr != nil {
		return blob.SignedURL{}, f.presignUploadErr
	}
	return blob.SignedURL{
		URL:       fmt.Sprintf("https://blob.test/%s?sig=put", key),
		Method:    "PUT",
		Key:       key,
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

func (f *fakeBlob) PresignDownload(ctx context.Context, key string, ttl time.Duration) (blob.SignedURL, error) {
	if f.presignDownloadErr != nil {
		return blob.SignedURL{}, f.presignDownloadErr
	}
	return blob.SignedURL{
		URL:       fmt.Sprintf("https://blob.test/%s?sig=get", key),
		Method:    "GET",
		Key:       key,
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

func (f *fakeBlob) Exists(ctx context.Context, key string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok, nil
}

func (f *fakeBlob) PutObject(ctx context.Context, key, contentType string, body io.Reader) error {
	if f.putErr != nil {
		return f.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Bucket:         "test-bucket",
		UploadPrefix:   "zip_processed_by_processor",
		JobPrefix:      "my_jobs_to_send",
		UploadURLTTL:   15 * time.Minute,
		DownloadURLTTL: 10 * time.Hour,
		APIBaseURL:     "https://api.test",
		APIStage:       "dev",
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
