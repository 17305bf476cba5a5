package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radif/mediastore/internal/provider"
)

// Store persists file records. *Repository is the PostgreSQL implementation.
type Store interface {
	Create(ctx context.Context, f *File) (*File, error)
	GetByID(ctx context.Context, id string) (*File, error)
	List(ctx context.Context, limit, offset int) ([]File, error)
	Delete(ctx context.Context, id string) error
}

// Upload is an incoming file.
type Upload struct {
	Name   string
	Mime   string
	Size   int64 // bytes
	Reader io.Reader
}

// Service contains business logic for media files.
type Service struct {
	store     Store
	provider  *provider.Provider
	sizeLimit int64
	log       *zap.Logger
}

// NewService creates a new media Service. sizeLimit is in bytes; zero disables it.
func NewService(store Store, p *provider.Provider, sizeLimit int64, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, provider: p, sizeLimit: sizeLimit, log: log}
}

// Upload validates the file size, stores the content and records the file.
// When the record cannot be saved the stored object is removed again.
func (s *Service) Upload(ctx context.Context, in Upload) (*File, error) {
	desc := describe(in)

	if err := s.provider.CheckFileSize(desc, provider.SizeOptions{SizeLimit: s.sizeLimit}); err != nil {
		return nil, err
	}
	if err := s.provider.Upload(ctx, desc); err != nil {
		return nil, fmt.Errorf("upload file: %w", err)
	}

	f, err := s.store.Create(ctx, &File{
		Name:       desc.Name,
		Hash:       desc.Hash,
		Ext:        desc.Ext,
		Mime:       desc.Mime,
		Size:       desc.Size,
		URL:        desc.URL,
		StorageKey: s.provider.Key(desc),
	})
	if err != nil {
		if derr := s.provider.Delete(ctx, desc); derr != nil {
			s.log.Error("orphaned object after failed insert",
				zap.String("key", s.provider.Key(desc)), zap.Error(derr))
		}
		return nil, fmt.Errorf("save file record: %w", err)
	}

	s.log.Info("media file stored",
		zap.String("id", f.ID),
		zap.String("name", f.Name),
		zap.String("size", humanize.IBytes(uint64(in.Size))),
	)
	return f, nil
}

// Get returns a file record.
func (s *Service) Get(ctx context.Context, id string) (*File, error) {
	return s.store.GetByID(ctx, id)
}

// List returns a page of file records.
func (s *Service) List(ctx context.Context, limit, offset int) ([]File, error) {
	return s.store.List(ctx, limit, offset)
}

// Delete removes the stored object and then its record.
func (s *Service) Delete(ctx context.Context, id string) error {
	f, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}

	var derr error
	if f.StorageKey != "" {
		derr = s.provider.DeleteKey(ctx, f.StorageKey)
	} else {
		derr = s.provider.Delete(ctx, &provider.File{Name: f.Name, Hash: f.Hash, Ext: f.Ext})
	}
	if derr != nil {
		return fmt.Errorf("delete file: %w", derr)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete file record: %w", err)
	}
	return nil
}

// IsNotFound returns true when the error indicates a file was not found.
func (s *Service) IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func describe(in Upload) *provider.File {
	ext := filepath.Ext(in.Name)
	mime := in.Mime
	if mime == "" {
		mime = "application/octet-stream"
	}
	return &provider.File{
		Name:   in.Name,
		Hash:   hashName(strings.TrimSuffix(in.Name, ext)),
		Ext:    strings.ToLower(ext),
		Mime:   mime,
		Size:   float64(in.Size) / 1024,
		Stream: in.Reader,
	}
}

// hashName builds a unique object name from the uploaded base name:
// "My Photo" -> "my_photo_3f2a1b9c0d".
func hashName(base string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(base) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if b.Len() > 0 && !underscore {
			b.WriteByte('_')
			underscore = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "_")
	if slug == "" {
		slug = "file"
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	return slug + "_" + suffix
}
