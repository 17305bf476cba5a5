package provider

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/radif/mediastore/internal/storage"
)

type uploadCall struct {
	bucket string
	key    string
	body   string
	opts   storage.UploadOptions
}

type fakeClient struct {
	uploads   []uploadCall
	removed   [][]string
	uploadErr error
	removeErr error
	publicURL func(bucket, key string) string
}

func (c *fakeClient) Upload(_ context.Context, bucket, key string, reader io.Reader, opts storage.UploadOptions) error {
	if c.uploadErr != nil {
		return c.uploadErr
	}
	b, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	c.uploads = append(c.uploads, uploadCall{bucket: bucket, key: key, body: string(b), opts: opts})
	return nil
}

func (c *fakeClient) Remove(_ context.Context, _ string, keys []string) error {
	if c.removeErr != nil {
		return c.removeErr
	}
	c.removed = append(c.removed, keys)
	return nil
}

func (c *fakeClient) PublicURL(bucket, key string) string {
	if c.publicURL != nil {
		return c.publicURL(bucket, key)
	}
	return "https://api.example.com/storage/v1/object/public/" + bucket + "/" + key
}

func newTestProvider(t *testing.T, client storage.Client, cfg Config) *Provider {
	t.Helper()
	if cfg.APIURL == "" {
		cfg.APIURL = "https://api.example.com"
	}
	if cfg.Bucket == "" {
		cfg.Bucket = "media"
	}
	p, err := New(cfg, client, zap.NewNop())
	require.NoError(t, err)
	return p
}

func testFile() *File {
	return &File{
		Name:   "photo.png",
		Hash:   "photo_3f2a1b9c0d",
		Ext:    ".png",
		Mime:   "image/png",
		Size:   12.5,
		Stream: strings.NewReader("png-bytes"),
	}
}

func TestUpload(t *testing.T) {
	client := &fakeClient{}
	p := newTestProvider(t, client, Config{Directory: "uploads"})

	f := testFile()
	require.NoError(t, p.Upload(context.Background(), f))

	require.Len(t, client.uploads, 1)
	call := client.uploads[0]
	assert.Equal(t, "media", call.bucket)
	assert.Equal(t, "uploads/photo_3f2a1b9c0d.png", call.key)
	assert.Equal(t, "png-bytes", call.body)
	assert.Equal(t, storage.UploadOptions{ContentType: "image/png", CacheControl: "3600", Upsert: true}, call.opts)
	assert.Equal(t, "https://api.example.com/storage/v1/object/public/media/uploads/photo_3f2a1b9c0d.png", f.URL)
}

func TestUploadUsesPublicEndpoint(t *testing.T) {
	client := &fakeClient{publicURL: func(bucket, key string) string {
		return "/object/public/" + bucket + "/" + key + "?token=abc#frag"
	}}
	p := newTestProvider(t, client, Config{
		APIURL:       "https://api.example.com/v1",
		PublicURL:    "https://cdn.example.com",
		CacheControl: "max-age=60",
	})

	f := testFile()
	require.NoError(t, p.UploadStream(context.Background(), f))

	assert.Equal(t, "max-age=60", client.uploads[0].opts.CacheControl)
	assert.Equal(t, "https://cdn.example.com/object/public/media/photo_3f2a1b9c0d.png?token=abc#frag", f.URL)
}

func TestUploadFromBuffer(t *testing.T) {
	client := &fakeClient{}
	p := newTestProvider(t, client, Config{})

	f := testFile()
	f.Stream = nil
	f.Buffer = []byte("buffered")
	require.NoError(t, p.Upload(context.Background(), f))
	assert.Equal(t, "buffered", client.uploads[0].body)
}

func TestUploadWithoutContent(t *testing.T) {
	client := &fakeClient{}
	p := newTestProvider(t, client, Config{})

	f := testFile()
	f.Stream = nil
	assert.Error(t, p.Upload(context.Background(), f))
	assert.Empty(t, client.uploads)
}

func TestUploadServiceError(t *testing.T) {
	p := newTestProvider(t, &fakeClient{uploadErr: errors.New("Bucket not found")}, Config{})

	f := testFile()
	err := p.Upload(context.Background(), f)
	require.Error(t, err)
	assert.EqualError(t, err, "Bucket not found")
	assert.Empty(t, f.URL)

	var svcErr *Error
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, "upload", svcErr.Op)
}

func TestUploadServiceErrorWithoutMessage(t *testing.T) {
	p := newTestProvider(t, &fakeClient{uploadErr: errors.New("")}, Config{})

	err := p.Upload(context.Background(), testFile())
	assert.EqualError(t, err, "Something went wrong")
}

func TestUploadBadPublicURL(t *testing.T) {
	client := &fakeClient{publicURL: func(string, string) string { return "" }}
	p := newTestProvider(t, client, Config{})

	f := testFile()
	err := p.Upload(context.Background(), f)
	assert.ErrorIs(t, err, ErrInvalidURL)
	assert.Empty(t, f.URL)
}

func TestDelete(t *testing.T) {
	client := &fakeClient{}
	p := newTestProvider(t, client, Config{Directory: "uploads"})

	require.NoError(t, p.Delete(context.Background(), testFile()))
	assert.Equal(t, [][]string{{"uploads/photo_3f2a1b9c0d.png"}}, client.removed)
}

func TestDeleteTargetsUploadedKey(t *testing.T) {
	for _, dir := range []string{"", "uploads", "/nested/dir/"} {
		client := &fakeClient{}
		p := newTestProvider(t, client, Config{Directory: dir})

		f := testFile()
		require.NoError(t, p.Upload(context.Background(), f))
		require.NoError(t, p.Delete(context.Background(), f))
		assert.Equal(t, client.uploads[0].key, client.removed[0][0], "directory %q", dir)
	}
}

func TestDeleteServiceError(t *testing.T) {
	p := newTestProvider(t, &fakeClient{removeErr: errors.New("Object not found")}, Config{})
	assert.EqualError(t, p.Delete(context.Background(), testFile()), "Object not found")

	p = newTestProvider(t, &fakeClient{removeErr: errors.New(" ")}, Config{})
	assert.EqualError(t, p.Delete(context.Background(), testFile()), "Something went wrong")
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{APIURL: "https://api.example.com"}, &fakeClient{}, nil)
	assert.Error(t, err)

	_, err = New(Config{APIURL: "https://api.example.com", Bucket: "media"}, nil, nil)
	assert.Error(t, err)

	_, err = New(Config{APIURL: "not a url", Bucket: "media"}, &fakeClient{}, nil)
	assert.ErrorIs(t, err, ErrInvalidEndpoint)

	_, err = New(Config{APIURL: "https://api.example.com", PublicURL: "/cdn", Bucket: "media"}, &fakeClient{}, nil)
	assert.ErrorIs(t, err, ErrInvalidEndpoint)
}

func TestInitBuildsSupabaseClient(t *testing.T) {
	p, err := Init(Config{APIURL: "https://xyz.supabase.co", APIKey: "key", Bucket: "media"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "photo_3f2a1b9c0d.png", p.Key(testFile()))

	_, err = Init(Config{APIURL: "https://xyz.supabase.co", Bucket: "media"}, nil)
	assert.Error(t, err)
}

func TestUploadLogsKey(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	p, err := New(Config{APIURL: "https://api.example.com", Bucket: "media"}, &fakeClient{}, zap.New(core))
	require.NoError(t, err)

	require.NoError(t, p.Upload(context.Background(), testFile()))

	entries := logs.FilterMessage("file uploaded").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "photo_3f2a1b9c0d.png", fields["key"])
	assert.Equal(t, "media", fields["bucket"])
}

func TestDeleteKey(t *testing.T) {
	client := &fakeClient{}
	p := newTestProvider(t, client, Config{Directory: "uploads"})

	require.NoError(t, p.DeleteKey(context.Background(), "legacy/photo.png"))
	assert.Equal(t, [][]string{{"legacy/photo.png"}}, client.removed)

	assert.Error(t, p.DeleteKey(context.Background(), ""))
	assert.Len(t, client.removed, 1)
}

func TestUploadLogsNegativeSizeAsZero(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	p, err := New(Config{APIURL: "https://api.example.com", Bucket: "media"}, &fakeClient{}, zap.New(core))
	require.NoError(t, err)

	f := testFile()
	f.Size = -12
	require.NoError(t, p.Upload(context.Background(), f))

	entries := logs.FilterMessage("file uploaded").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "0 B", entries[0].ContextMap()["size"])
}
