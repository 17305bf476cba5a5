// Package storage defines the object storage client the media provider delegates to.
// Swap implementations by changing the concrete type injected at startup:
// Supabase Storage through its Go SDK, or any S3-compatible service through minio-go.
package storage

import (
	"context"
	"io"
)

// UploadOptions are passed along with every object write.
type UploadOptions struct {
	ContentType  string
	CacheControl string
	// Upsert overwrites an existing object stored under the same key.
	Upsert bool
}

// Client is the capability the provider needs from an object storage service.
type Client interface {
	// Upload streams reader into bucket under key.
	Upload(ctx context.Context, bucket, key string, reader io.Reader, opts UploadOptions) error
	// Remove deletes the objects identified by keys.
	Remove(ctx context.Context, bucket string, keys []string) error
	// PublicURL reports the URL the service advertises for an object.
	// It may be absolute or relative to the service endpoint.
	PublicURL(bucket, key string) string
}

// Error is a failed storage call. Its message is the service's own message,
// which the provider hands through to callers.
type Error struct {
	Op      string
	Key     string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}
