package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/radif/mediastore/internal/provider"
	"github.com/radif/mediastore/internal/storage"
)

type memStore struct {
	mu        sync.Mutex
	files     map[string]*File
	seq       int
	createErr error
}

func newMemStore() *memStore {
	return &memStore{files: map[string]*File{}}
}

func (s *memStore) Create(_ context.Context, in *File) (*File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.seq++
	f := *in
	f.ID = fmt.Sprintf("00000000-0000-0000-0000-%012d", s.seq)
	f.CreatedAt = time.Unix(int64(s.seq), 0).UTC()
	s.files[f.ID] = &f
	return &f, nil
}

func (s *memStore) GetByID(_ context.Context, id string) (*File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (s *memStore) List(_ context.Context, limit, offset int) ([]File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	files := []File{}
	for _, f := range s.files {
		files = append(files, *f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].CreatedAt.After(files[j].CreatedAt) })
	if offset >= len(files) {
		return []File{}, nil
	}
	files = files[offset:]
	if len(files) > limit {
		files = files[:limit]
	}
	return files, nil
}

func (s *memStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[id]; !ok {
		return ErrNotFound
	}
	delete(s.files, id)
	return nil
}

type memBucket struct {
	mu        sync.Mutex
	objects   map[string]string
	uploadErr error
	removeErr error
}

func newMemBucket() *memBucket {
	return &memBucket{objects: map[string]string{}}
}

func (b *memBucket) Upload(_ context.Context, bucket, key string, reader io.Reader, _ storage.UploadOptions) error {
	if b.uploadErr != nil {
		return b.uploadErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[bucket+"/"+key] = string(data)
	return nil
}

func (b *memBucket) Remove(_ context.Context, bucket string, keys []string) error {
	if b.removeErr != nil {
		return b.removeErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, k := range keys {
		if _, ok := b.objects[bucket+"/"+k]; !ok {
			return errors.New("Object not found")
		}
		delete(b.objects, bucket+"/"+k)
	}
	return nil
}

func (b *memBucket) PublicURL(bucket, key string) string {
	return "/storage/v1/object/public/" + bucket + "/" + key
}

func (b *memBucket) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.objects)
}

func newTestService(t *testing.T, store Store, bucket *memBucket, sizeLimit int64) *Service {
	t.Helper()
	p, err := provider.New(provider.Config{
		APIURL:    "https://xyz.supabase.co",
		PublicURL: "https://cdn.example.com",
		Bucket:    "media",
		Directory: "uploads",
	}, bucket, nil)
	require.NoError(t, err)
	return NewService(store, p, sizeLimit, nil)
}
