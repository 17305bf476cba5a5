// Package provider implements the media-library storage provider. It derives
// storage keys for files, delegates uploads and deletions to an object storage
// client and rewrites the object URLs the client reports against the public
// endpoint before handing them back to the host.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/radif/mediastore/internal/storage"
)

// DefaultCacheControl is sent with uploads when Config.CacheControl is empty.
const DefaultCacheControl = "3600"

// Config is the provider configuration. It is read once by New and never
// modified afterwards.
type Config struct {
	// APIURL is the storage API endpoint used for authenticated calls.
	APIURL string
	// PublicURL is the externally advertised endpoint (CDN, reverse proxy).
	// Empty means the same as APIURL.
	PublicURL    string
	APIKey       string
	Bucket       string
	Directory    string
	CacheControl string
}

// Provider uploads, deletes and validates media files against one bucket.
type Provider struct {
	cfg      Config
	client   storage.Client
	resolver *Resolver
	log      *zap.Logger
}

// Init builds a Supabase Storage client from cfg's credentials and returns a
// provider backed by it.
func Init(cfg Config, log *zap.Logger) (*Provider, error) {
	client, err := storage.NewSupabaseClient(cfg.APIURL, cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return New(cfg, client, log)
}

// New returns a provider that delegates to client.
func New(cfg Config, client storage.Client, log *zap.Logger) (*Provider, error) {
	if client == nil {
		return nil, errors.New("storage client is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("bucket is required")
	}
	if cfg.CacheControl == "" {
		cfg.CacheControl = DefaultCacheControl
	}
	if log == nil {
		log = zap.NewNop()
	}

	resolver, err := NewResolver(cfg.APIURL, cfg.PublicURL)
	if err != nil {
		return nil, fmt.Errorf("configure url resolver: %w", err)
	}

	return &Provider{
		cfg:      cfg,
		client:   client,
		resolver: resolver,
		log:      log.With(zap.String("bucket", cfg.Bucket)),
	}, nil
}

// Key returns the storage key of file under the configured directory.
func (p *Provider) Key(file *File) string {
	return Key(file, p.cfg.Directory)
}

// Upload stores file, overwriting any object under the same key, and sets
// file.URL to its public URL. file.URL is left untouched on failure.
func (p *Provider) Upload(ctx context.Context, file *File) error {
	if file == nil {
		return errors.New("upload: nil file")
	}
	body, err := file.body()
	if err != nil {
		return fmt.Errorf("upload %s: %w", file.Name, err)
	}

	key := p.Key(file)
	err = p.client.Upload(ctx, p.cfg.Bucket, key, body, storage.UploadOptions{
		ContentType:  file.Mime,
		CacheControl: p.cfg.CacheControl,
		Upsert:       true,
	})
	if err != nil {
		p.log.Warn("upload rejected", zap.String("key", key), zap.Error(err))
		return serviceError("upload", err)
	}

	publicURL, err := p.resolver.Resolve(p.client.PublicURL(p.cfg.Bucket, key))
	if err != nil {
		return fmt.Errorf("resolve public url of %q: %w", key, err)
	}
	file.URL = publicURL

	p.log.Info("file uploaded",
		zap.String("key", key),
		zap.String("url", publicURL),
		zap.String("size", humanize.IBytes(sizeInBytes(file.Size))),
	)
	return nil
}

// UploadStream is Upload; the body is always streamed.
func (p *Provider) UploadStream(ctx context.Context, file *File) error {
	return p.Upload(ctx, file)
}

// Delete removes the object stored for file.
func (p *Provider) Delete(ctx context.Context, file *File) error {
	if file == nil {
		return errors.New("delete: nil file")
	}

	return p.DeleteKey(ctx, p.Key(file))
}

// DeleteKey removes the object stored under key. Hosts that recorded the key
// at upload time use it so a later Directory change cannot redirect deletes.
func (p *Provider) DeleteKey(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("delete: empty key")
	}
	if err := p.client.Remove(ctx, p.cfg.Bucket, []string{key}); err != nil {
		p.log.Warn("delete rejected", zap.String("key", key), zap.Error(err))
		return serviceError("delete", err)
	}

	p.log.Info("file deleted", zap.String("key", key))
	return nil
}

// CheckFileSize fails with a *SizeLimitError when file is larger than
// opts.SizeLimit bytes. A file exactly at the limit passes.
func (p *Provider) CheckFileSize(file *File, opts SizeOptions) error {
	return checkFileSize(file, opts)
}
