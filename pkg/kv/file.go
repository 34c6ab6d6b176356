package kv

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"sync"
)

// File is a Store persisted as a single JSON object on disk.
// Every write replaces the file atomically (temp file + rename).
type File struct {
	data   map[string]string
	path   string
	perm   fs.FileMode
	mu     sync.Mutex
	loaded bool
}

// FileOption configures a File store.
type FileOption func(*File)

// WithFileMode sets the permission bits of the state file.
// Default: 0600
func WithFileMode(perm fs.FileMode) FileOption {
	return func(f *File) {
		f.perm = perm
	}
}

// NewFile creates a store backed by the file at path.
// The file and its parent directories are created on first write.
func NewFile(path string, opts ...FileOption) (*File, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	f := &File{path: path, perm: 0o600}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Path returns the location of the state file.
func (f *File) Path() string {
	return f.path
}

func (f *File) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.load(); err != nil {
		return nil, err
	}
	v, ok := f.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return []byte(v), nil
}

func (f *File) Set(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.load(); err != nil {
		return err
	}
	prev, had := f.data[key]
	f.data[key] = string(value)
	if err := f.flush(); err != nil {
		if had {
			f.data[key] = prev
		} else {
			delete(f.data, key)
		}
		return err
	}
	return nil
}

func (f *File) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.load(); err != nil {
		return err
	}
	removed := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := f.data[k]; ok {
			removed[k] = v
			delete(f.data, k)
		}
	}
	if len(removed) == 0 {
		return nil
	}
	if err := f.flush(); err != nil {
		maps.Copy(f.data, removed)
		return err
	}
	return nil
}

// load reads the file once. A missing file is an empty store.
func (f *File) load() error {
	if f.loaded {
		return nil
	}
	f.data = make(map[string]string)

	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		f.loaded = true
		return nil
	}
	if err != nil {
		return err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &f.data); err != nil {
			return errors.Join(ErrDecode, err)
		}
	}
	f.loaded = true
	return nil
}

func (f *File) flush() error {
	raw, err := json.MarshalIndent(f.data, "", "  ")
	if err != nil {
		return errors.Join(ErrEncode, err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".kv-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(f.perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}
