package provider

import (
	"bytes"
	"errors"
	"io"
)

// File describes a media file handed to the provider by the host.
// The provider sets URL after a successful upload and keeps no reference
// to the descriptor once a call returns.
type File struct {
	Name string
	// Hash is the content-addressed identifier the storage key is derived from.
	Hash string
	Ext  string
	Mime string
	// Size is expressed in kilobytes.
	Size float64
	URL  string

	// Stream is read once during upload. Buffer is used when Stream is nil.
	Stream io.Reader
	Buffer []byte
}

var errNoContent = errors.New("file has no content")

func (f *File) body() (io.Reader, error) {
	if f.Stream != nil {
		return f.Stream, nil
	}
	if f.Buffer != nil {
		return bytes.NewReader(f.Buffer), nil
	}
	return nil, errNoContent
}
