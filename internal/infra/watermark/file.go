// Package watermark provides a file-backed watermark repository.
package watermark

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"newsbot/internal/domain/entity"
	"newsbot/internal/repository"
)

// FileStore keeps watermarks in a single JSON object mapping key to an
// RFC 3339 instant. Writes replace the file atomically.
type FileStore struct {
	path string
	mu   sync.Mutex
}

var _ repository.WatermarkRepository = (*FileStore)(nil)

// NewFileStore returns a store backed by path. The file is created on the
// first Advance.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get(ctx context.Context, key string) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return time.Time{}, err
	}
	t, ok := all[key]
	if !ok {
		return time.Time{}, entity.ErrNotFound
	}
	return t, nil
}

func (s *FileStore) Advance(ctx context.Context, key string, t time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return err
	}
	if cur, ok := all[key]; ok && !t.After(cur) {
		return nil
	}
	all[key] = t.UTC()
	return s.write(all)
}

// List returns every stored watermark.
func (s *FileStore) List(ctx context.Context) (map[string]time.Time, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *FileStore) read() (map[string]time.Time, error) {
	out := make(map[string]time.Time)

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read watermark file: %w", err)
	}
	if len(data) == 0 {
		return out, nil
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode watermark file %s: %w", s.path, err)
	}
	for k, v := range raw {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("decode watermark %q in %s: %w", k, s.path, err)
		}
		out[k] = t
	}
	return out, nil
}

func (s *FileStore) write(all map[string]time.Time) error {
	raw := make(map[string]string, len(all))
	for k, t := range all {
		raw[k] = t.UTC().Format(time.RFC3339Nano)
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("encode watermark file: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create watermark dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".watermarks-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace watermark file: %w", err)
	}
	return nil
}
