package attachment

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore hands out blob style handles without copying file content.
type MemoryStore struct {
	mu   sync.Mutex
	live map[string]File
}

// NewMemoryStore returns an empty in-memory preview store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{live: make(map[string]File)}
}

// Create registers f under a fresh "blob:formdraft/<uuid>" handle.
func (s *MemoryStore) Create(_ context.Context, f File) (Preview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	handle := "blob:formdraft/" + uuid.NewString()
	s.live[handle] = f
	return Preview{URL: handle, Name: f.Name, Size: f.Size}, nil
}

// Release drops the handle.
func (s *MemoryStore) Release(_ context.Context, p Preview) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.live[p.URL]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPreview, p.URL)
	}
	delete(s.live, p.URL)
	return nil
}

// Live returns the number of unreleased handles.
func (s *MemoryStore) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// Open returns the file behind a live handle.
func (s *MemoryStore) Open(handle string) (File, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.live[handle]
	return f, ok
}

// FileStore materialises previews as files under a directory so external
// viewers can open them. Release removes the file.
type FileStore struct {
	root string

	mu   sync.Mutex
	live map[string]string
}

// NewFileStore returns a store rooted at dir, creating it if needed. An
// empty dir uses a fresh directory under os.TempDir.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		tmp, err := os.MkdirTemp("", "formdraft-previews-*")
		if err != nil {
			return nil, fmt.Errorf("attachment: preview dir: %w", err)
		}
		dir = tmp
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("attachment: preview dir: %w", err)
	}
	return &FileStore{root: dir, live: make(map[string]string)}, nil
}

// Root returns the directory previews are written to.
func (s *FileStore) Root() string {
	return s.root
}

// Create copies f into the preview directory and returns its file URL.
func (s *FileStore) Create(ctx context.Context, f File) (Preview, error) {
	if err := ctx.Err(); err != nil {
		return Preview{}, err
	}
	src, err := f.Reader()
	if err != nil {
		return Preview{}, err
	}
	defer src.Close()

	path := filepath.Join(s.root, uuid.NewString()+previewExt(f))
	dst, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return Preview{}, err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(path)
		return Preview{}, err
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(path)
		return Preview{}, err
	}

	u := (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
	s.mu.Lock()
	s.live[u] = path
	s.mu.Unlock()
	return Preview{URL: u, Name: f.Name, Size: f.Size}, nil
}

// Release deletes the preview file.
func (s *FileStore) Release(_ context.Context, p Preview) error {
	s.mu.Lock()
	path, ok := s.live[p.URL]
	delete(s.live, p.URL)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPreview, p.URL)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Live returns the number of preview files not yet released.
func (s *FileStore) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

func previewExt(f File) string {
	if ext := filepath.Ext(f.Name); ext != "" {
		return ext
	}
	if exts, _ := mime.ExtensionsByType(f.ContentType); len(exts) > 0 {
		return exts[0]
	}
	return ""
}
