package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrInvalidKey is returned for keys that would escape the store root.
var ErrInvalidKey = errors.New("invalid object key")

// LocalStore keeps objects as files under a root directory.
type LocalStore struct {
	root string
}

// NewLocalStore creates the root directory if needed.
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) path(key string) (string, error) {
	clean := path.Clean("/" + key)[1:]
	if clean == "" || clean != key || strings.Contains(key, `\`) {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

// Put writes the object atomically through a temp file in the same directory.
func (s *LocalStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	dst, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close object: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("commit object: %w", err)
	}
	return nil
}

// Get opens the object. The content type is derived from the key extension.
func (s *LocalStore) Get(_ context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	src, err := s.path(key)
	if err != nil {
		return nil, ObjectInfo{}, err
	}

	f, err := os.Open(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ObjectInfo{}, ErrObjectNotFound
		}
		return nil, ObjectInfo{}, fmt.Errorf("open object: %w", err)
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, ObjectInfo{}, fmt.Errorf("stat object: %w", err)
	}
	if st.IsDir() {
		f.Close()
		return nil, ObjectInfo{}, ErrObjectNotFound
	}

	ct := mime.TypeByExtension(filepath.Ext(src))
	if ct == "" {
		ct = "application/octet-stream"
	}

	return f, ObjectInfo{Size: st.Size(), ContentType: ct, ModTime: st.ModTime()}, nil
}

// Delete removes the object file.
func (s *LocalStore) Delete(_ context.Context, key string) error {
	dst, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// Ping checks that the root directory is still accessible.
func (s *LocalStore) Ping(_ context.Context) error {
	st, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("stat media dir: %w", err)
	}
	if !st.IsDir() {
		return fmt.Errorf("media root %s is not a directory", s.root)
	}
	return nil
}
