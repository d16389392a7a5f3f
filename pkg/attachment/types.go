// Package attachment manages the single image a form may carry: selection
// under a size and type policy, a previewable handle, and deterministic
// release of that handle.
package attachment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// MaxSize is the default inclusive upper bound for selected files (2 MiB).
const MaxSize int64 = 2 * 1024 * 1024

var (
	// ErrTooLarge is matched by size policy violations.
	ErrTooLarge = errors.New("attachment: file too large")
	// ErrUnsupportedType marks files that are not images. Select does not
	// return it; it is recorded as the handler notice.
	ErrUnsupportedType = errors.New("attachment: unsupported file type")
	// ErrClosed is returned once the handler has been torn down.
	ErrClosed = errors.New("attachment: handler closed")
	// ErrNoFile is returned when a file has nothing to read.
	ErrNoFile = errors.New("attachment: no file content")
	// ErrUnknownPreview is returned when releasing a handle the store does not hold.
	ErrUnknownPreview = errors.New("attachment: unknown preview handle")
)

// PolicyError describes a rejected selection.
type PolicyError struct {
	Name        string
	Size        int64
	Limit       int64
	ContentType string
	Err         error
}

func (e *PolicyError) Error() string {
	if errors.Is(e.Err, ErrTooLarge) {
		return fmt.Sprintf("attachment: %s is %d bytes, limit is %d", e.Name, e.Size, e.Limit)
	}
	return fmt.Sprintf("attachment: %s has type %q, only images are accepted", e.Name, e.ContentType)
}

func (e *PolicyError) Unwrap() error { return e.Err }

// Opener returns a fresh reader over the file content.
type Opener func() (io.ReadCloser, error)

// File is a user selected file. The content is never buffered by the
// handler; Open is called whenever the bytes are needed.
type File struct {
	Name        string
	Size        int64
	ContentType string
	Open        Opener
}

// IsImage reports whether the content type is an image type.
func (f File) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(f.ContentType)), "image/")
}

// Reader opens the file content.
func (f File) Reader() (io.ReadCloser, error) {
	if f.Open == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoFile, f.Name)
	}
	return f.Open()
}

// FromBytes builds a File over an in-memory buffer.
func FromBytes(name, contentType string, data []byte) File {
	return File{
		Name:        name,
		Size:        int64(len(data)),
		ContentType: contentType,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// Preview is a previewable handle derived from a file.
type Preview struct {
	URL  string
	Name string
	Size int64
}

// PreviewStore creates and releases preview handles. Every handle returned
// by Create must be passed to Release exactly once.
type PreviewStore interface {
	Create(ctx context.Context, f File) (Preview, error)
	Release(ctx context.Context, p Preview) error
	Live() int
}

// State is the attachment state.
type State int

const (
	StateEmpty State = iota
	StateSelected
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateSelected:
		return "selected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}
