package attachment

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
)

// FileFromPath describes a file on disk. The content type is sniffed from
// the first bytes and falls back to the extension.
func FileFromPath(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("attachment: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("attachment: %s is a directory", path)
	}

	contentType, err := sniff(path)
	if err != nil {
		return File{}, err
	}
	return File{
		Name:        filepath.Base(path),
		Size:        info.Size(),
		ContentType: contentType,
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

func sniff(path string) (string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("attachment: open %s: %w", path, err)
	}
	defer fh.Close()

	buf := make([]byte, 512)
	n, err := io.ReadFull(fh, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("attachment: read %s: %w", path, err)
	}
	detected := http.DetectContentType(buf[:n])
	if detected == "application/octet-stream" || detected == "text/plain; charset=utf-8" {
		if byExt := mime.TypeByExtension(filepath.Ext(path)); byExt != "" {
			return byExt, nil
		}
	}
	return detected, nil
}

// Scoped runs fn with a fresh handler and tears it down on every exit path,
// including panics, which are re-raised after release. The teardown error is
// returned when fn itself succeeded.
func Scoped(ctx context.Context, store PreviewStore, fn func(*Handler) error, opts ...Option) (err error) {
	h := NewHandler(store, opts...)
	defer func() {
		if r := recover(); r != nil {
			_ = h.Teardown(context.WithoutCancel(ctx))
			panic(r)
		}
		if tdErr := h.Teardown(context.WithoutCancel(ctx)); tdErr != nil && err == nil {
			err = tdErr
		}
	}()
	return fn(h)
}
