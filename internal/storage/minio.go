package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// ErrObjectExists is returned by MinioClient.Upload when upsert is disabled
// and the key is already taken.
var ErrObjectExists = errors.New("object already exists")

// MinioClient implements Client using a MinIO (or any S3-compatible) backend.
// To switch to ArvanCloud or AWS S3, change STORAGE_API_URL and credentials.
type MinioClient struct {
	client *minio.Client
	log    *zap.Logger
}

// NewMinioClient creates a MinIO client for apiURL ("http://localhost:9000").
// TLS is enabled when the scheme is https.
func NewMinioClient(apiURL, accessKey, secretKey string, log *zap.Logger) (*MinioClient, error) {
	if log == nil {
		log = zap.NewNop()
	}

	u, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("parse storage api url: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("storage api url %q must be absolute", apiURL)
	}

	client, err := minio.New(u.Host, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: u.Scheme == "https",
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &MinioClient{client: client, log: log}, nil
}

// EnsureBucket creates bucket when missing and applies a public-read policy,
// so PublicURL links can be dereferenced anonymously.
func (s *MinioClient) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %q: %w", bucket, err)
		}
		s.log.Info("created bucket", zap.String("bucket", bucket))
	}

	if err := s.client.SetBucketPolicy(ctx, bucket, publicReadPolicy(bucket)); err != nil {
		return fmt.Errorf("set bucket policy: %w", err)
	}
	return nil
}

// Upload streams reader to the bucket under key. The size is unknown at this
// point, so minio-go buffers the body into multipart chunks.
func (s *MinioClient) Upload(ctx context.Context, bucket, key string, reader io.Reader, opts UploadOptions) error {
	if !opts.Upsert {
		_, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
		if err == nil {
			return minioError("put object", key, ErrObjectExists)
		}
		if minio.ToErrorResponse(err).Code != "NoSuchKey" {
			return minioError("stat object", key, err)
		}
	}

	_, err := s.client.PutObject(ctx, bucket, key, reader, -1, minio.PutObjectOptions{
		ContentType:  opts.ContentType,
		CacheControl: opts.CacheControl,
	})
	if err != nil {
		return minioError("put object", key, err)
	}
	return nil
}

// Remove deletes each key from the bucket.
func (s *MinioClient) Remove(ctx context.Context, bucket string, keys []string) error {
	for _, key := range keys {
		if err := s.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
			return minioError("remove object", key, err)
		}
	}
	return nil
}

// PublicURL returns the path-style object URL on the S3 endpoint:
// "http://localhost:9000/media/uploads/photo_ab12.png".
func (s *MinioClient) PublicURL(bucket, key string) string {
	u := *s.client.EndpointURL()
	u.Path = path.Join("/", u.Path, bucket, key)
	return u.String()
}

// minioError keeps the S3 error message as the visible message and the
// operation and key as context.
func minioError(op, key string, err error) error {
	msg := minio.ToErrorResponse(err).Message
	if msg == "" {
		msg = err.Error()
	}
	return &Error{Op: op, Key: key, Message: msg, Err: err}
}

// publicReadPolicy returns an S3 bucket policy JSON that allows anonymous GET on all objects.
func publicReadPolicy(bucket string) string {
	policy := map[string]interface{}{
		"Version": "2012-10-17",
		"Statement": []map[string]interface{}{
			{
				"Effect":    "Allow",
				"Principal": "*",
				"Action":    "s3:GetObject",
				"Resource":  fmt.Sprintf("arn:aws:s3:::%s/*", bucket),
			},
		},
	}
	b, _ := json.Marshal(policy)
	return string(b)
}
