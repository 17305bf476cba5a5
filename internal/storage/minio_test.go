package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/minio/minio-go/v7"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinioClientPublicURL(t *testing.T) {
	c, err := NewMinioClient("http://localhost:9000", "minioadmin", "minioadmin", nil)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000/media/uploads/photo_ab12.png", c.PublicURL("media", "uploads/photo_ab12.png"))
}

func TestMinioClientUsesTLSForHTTPS(t *testing.T) {
	c, err := NewMinioClient("https://s3.example.com", "key", "secret", nil)
	require.NoError(t, err)

	assert.Equal(t, "https://s3.example.com/media/a.png", c.PublicURL("media", "a.png"))
}

func TestNewMinioClientRejectsBareHost(t *testing.T) {
	_, err := NewMinioClient("localhost", "key", "secret", nil)
	assert.Error(t, err)
}

func TestPublicReadPolicy(t *testing.T) {
	var policy struct {
		Statement []struct {
			Action   string
			Resource string
		}
	}
	require.NoError(t, json.Unmarshal([]byte(publicReadPolicy("media")), &policy))
	require.Len(t, policy.Statement, 1)
	assert.Equal(t, "s3:GetObject", policy.Statement[0].Action)
	assert.Equal(t, "arn:aws:s3:::media/*", policy.Statement[0].Resource)
}

func TestMinioErrorKeepsServiceMessage(t *testing.T) {
	sdkErr := minio.ErrorResponse{Code: "NoSuchBucket", Message: "The specified bucket does not exist"}

	err := minioError("put object", "uploads/a.png", sdkErr)
	assert.EqualError(t, err, "The specified bucket does not exist")

	var storageErr *Error
	require.True(t, errors.As(err, &storageErr))
	assert.Equal(t, "put object", storageErr.Op)
	assert.Equal(t, "uploads/a.png", storageErr.Key)
	assert.Equal(t, "NoSuchBucket", minio.ToErrorResponse(errors.Unwrap(err)).Code)
}

func TestMinioErrorFallsBackToErrorText(t *testing.T) {
	err := minioError("put object", "a.png", ErrObjectExists)
	assert.EqualError(t, err, "object already exists")
	assert.ErrorIs(t, err, ErrObjectExists)

	err = minioError("remove object", "a.png", fmt.Errorf("dial tcp: connection refused"))
	assert.EqualError(t, err, "dial tcp: connection refused")
}
