package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	storage_go "github.com/supabase-community/storage-go"
)

// storagePath is the prefix under which Supabase serves the Storage REST API.
const storagePath = "/storage/v1"

// SupabaseClient implements Client using the Supabase Storage SDK.
//
// The SDK writes per-upload headers into the client's shared header set, so
// every call builds its own SDK client. Construction allocates and does no I/O.
type SupabaseClient struct {
	endpoint string
	apiKey   string
}

// NewSupabaseClient creates a Storage SDK client for the project at apiURL.
// The SDK authenticates with "Authorization: Bearer <apiKey>"; the apikey header
// is required by the Supabase gateway as well.
func NewSupabaseClient(apiURL, apiKey string) (*SupabaseClient, error) {
	if apiKey == "" {
		return nil, errors.New("supabase api key is required")
	}
	endpoint, err := StorageEndpoint(apiURL)
	if err != nil {
		return nil, err
	}

	return &SupabaseClient{endpoint: endpoint, apiKey: apiKey}, nil
}

func (s *SupabaseClient) sdk() *storage_go.Client {
	return storage_go.NewClient(s.endpoint, s.apiKey, map[string]string{
		"apikey": s.apiKey,
	})
}

// StorageEndpoint returns the Storage API base for a project URL, e.g.
// "https://xyz.supabase.co" -> "https://xyz.supabase.co/storage/v1".
// URLs that already point at the Storage API are returned as is.
func StorageEndpoint(apiURL string) (string, error) {
	u, err := url.Parse(apiURL)
	if err != nil {
		return "", fmt.Errorf("parse storage api url: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return "", fmt.Errorf("storage api url %q must be absolute", apiURL)
	}

	p := strings.TrimRight(u.Path, "/")
	if !strings.HasSuffix(p, storagePath) {
		p += storagePath
	}
	u.Path = p
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

// Endpoint returns the Storage API base the client talks to.
func (s *SupabaseClient) Endpoint() string {
	return s.endpoint
}

// Upload sends the object body to Supabase. The SDK has no context support,
// so ctx is not propagated to the HTTP request.
func (s *SupabaseClient) Upload(_ context.Context, bucket, key string, reader io.Reader, opts UploadOptions) error {
	contentType := opts.ContentType
	cacheControl := opts.CacheControl
	upsert := opts.Upsert

	_, err := s.sdk().UploadFile(bucket, key, reader, storage_go.FileOptions{
		ContentType:  &contentType,
		CacheControl: &cacheControl,
		Upsert:       &upsert,
	})
	return err
}

// Remove deletes keys from bucket.
func (s *SupabaseClient) Remove(_ context.Context, bucket string, keys []string) error {
	_, err := s.sdk().RemoveFile(bucket, keys)
	return err
}

// PublicURL returns the SDK's public object URL,
// "<endpoint>/object/public/<bucket>/<key>".
func (s *SupabaseClient) PublicURL(bucket, key string) string {
	return s.sdk().GetPublicUrl(bucket, key).SignedURL
}
