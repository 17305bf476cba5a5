package provider

import (
	"errors"
	"fmt"
	"math"
)

// ErrSizeLimitExceeded matches every *SizeLimitError.
var ErrSizeLimitExceeded = errors.New("size limit exceeded")

// SizeOptions carries the host's upload limits.
type SizeOptions struct {
	// SizeLimit is the maximum file size in bytes. Zero disables the check.
	SizeLimit int64
}

// SizeLimitError reports a file larger than the configured limit.
type SizeLimitError struct {
	Name  string
	Limit int64
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("%s exceeds size limit of %s.", e.Name, humanBytes(e.Limit))
}

func (e *SizeLimitError) Is(target error) bool {
	return target == ErrSizeLimitExceeded
}

func checkFileSize(file *File, opts SizeOptions) error {
	if opts.SizeLimit <= 0 {
		return nil
	}
	if kilobytesToBytes(file.Size) > float64(opts.SizeLimit) {
		return &SizeLimitError{Name: file.Name, Limit: opts.SizeLimit}
	}
	return nil
}

func kilobytesToBytes(kb float64) float64 {
	return kb * 1024
}

// sizeInBytes converts kb for display; negative sizes become zero.
func sizeInBytes(kb float64) uint64 {
	if kb <= 0 {
		return 0
	}
	return uint64(kilobytesToBytes(kb))
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB", "TB"}

// humanBytes formats n with decimal units rounded to a whole number:
// 5242880 -> "5MB".
func humanBytes(n int64) string {
	v := float64(n)
	i := 0
	for v >= 1000 && i < len(sizeUnits)-1 {
		v /= 1000
		i++
	}
	return fmt.Sprintf("%d%s", int64(math.Round(v)), sizeUnits[i])
}
