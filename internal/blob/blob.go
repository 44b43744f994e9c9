// Package blob wraps a key-addressed object store and issues time-limited
// presigned URLs for direct uploads and downloads.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// ErrInvalidKey is returned for empty, traversing or otherwise disallowed
// object keys. It maps to a 4xx at the HTTP boundary.
var ErrInvalidKey = errors.New("invalid object key")

// SignedURL is a capability token: it authorizes one HTTP method on one key
// until it expires. It is never persisted.
type SignedURL struct {
	URL       string
	Method    string
	Key       string
	ExpiresAt time.Time
}

// Store is the minimal object-store surface the handoff services need.
// Presigning is pure computation; only Exists and PutObject touch the network.
type Store interface {
	// PresignUpload returns a URL authorizing a PUT of the given key.
	PresignUpload(ctx context.Context, key, contentType string, ttl time.Duration) (SignedURL, error)

	// PresignDownload returns a URL authorizing a GET of the given key.
	PresignDownload(ctx context.Context, key string, ttl time.Duration) (SignedURL, error)

	// Exists reports whether an object is present under the key.
	Exists(ctx context.Context, key string) (bool, error)

	// PutObject writes an object directly. Used for job manifests.
	PutObject(ctx context.Context, key, contentType string, body io.Reader) error
}

// ValidateKey rejects keys that are empty, absolute, escape the permitted
// prefix, or contain path traversal. allowedPrefix may be empty to permit
// any well-formed key.
func ValidateKey(key, allowedPrefix string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	if strings.HasPrefix(key, "/") {
		return fmt.Errorf("%w: absolute path %q", ErrInvalidKey, key)
	}
	if strings.Contains(key, "\\") {
		return fmt.Errorf("%w: backslash in %q", ErrInvalidKey, key)
	}
	for _, r := range key {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("%w: control character in key", ErrInvalidKey)
		}
	}

	// path.Clean collapses any ../ segments; a key that changes under Clean
	// or still starts with ".." is trying to escape.
	cleaned := path.Clean(key)
	if cleaned != key || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return fmt.Errorf("%w: path traversal in %q", ErrInvalidKey, key)
	}

	if allowedPrefix != "" && !strings.HasPrefix(key, allowedPrefix+"/") && key != allowedPrefix {
		return fmt.Errorf("%w: %q outside permitted prefix %q", ErrInvalidKey, key, allowedPrefix)
	}
	return nil
}
