package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

// Verify interface compliance
var (
	_ driven.FileStore      = (*FileSystem)(nil)
	_ driven.ArtifactWriter = (*FileSystem)(nil)
)

// FileSystem stores uploads under Root/<resource id>/<file name> and writes
// artifacts next to them. Every write goes to a temp file in the target
// directory and is renamed into place, so readers never see partial files.
type FileSystem struct {
	root string
}

// NewFileSystem creates the root directory if needed.
func NewFileSystem(root string) (*FileSystem, error) {
	if root == "" {
		return nil, fmt.Errorf("upload directory is required: %w", domain.ErrInvalidInput)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve upload directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &FileSystem{root: abs}, nil
}

// Root returns the absolute upload directory.
func (fs *FileSystem) Root() string {
	return fs.root
}

// Save copies at most maxBytes from r. Larger bodies are discarded with
// domain.ErrFileTooLarge.
func (fs *FileSystem) Save(ctx context.Context, id, fileName string, r io.Reader, maxBytes int64) (string, int64, error) {
	name := filepath.Base(fileName)
	if id == "" || name == "." || name == string(filepath.Separator) || strings.Contains(id, "..") || strings.ContainsRune(id, filepath.Separator) {
		return "", 0, fmt.Errorf("bad upload name %q/%q: %w", id, fileName, domain.ErrInvalidInput)
	}

	dir := filepath.Join(fs.root, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create resource directory: %w", err)
	}

	var size int64
	path := filepath.Join(dir, name)
	err := writeAtomic(path, func(w io.Writer) error {
		n, err := io.Copy(w, &contextReader{ctx: ctx, r: io.LimitReader(r, maxBytes+1)})
		size = n
		if err != nil {
			return err
		}
		if n > maxBytes {
			return fmt.Errorf("upload exceeds %d bytes: %w", maxBytes, domain.ErrFileTooLarge)
		}
		return nil
	})
	if err != nil {
		_ = os.Remove(dir) // only succeeds if empty
		return "", 0, err
	}
	return path, size, nil
}

// Remove deletes a stored upload and its directory when that is left empty.
func (fs *FileSystem) Remove(ctx context.Context, path string) error {
	if err := fs.contains(path); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove upload: %w", err)
	}
	_ = os.Remove(filepath.Dir(path))
	return nil
}

// Write serializes body as indented JSON at path.
func (fs *FileSystem) Write(ctx context.Context, path string, body any) error {
	if err := fs.contains(path); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(body)
	})
}

// Read returns the bytes at path, or domain.ErrNotFound.
func (fs *FileSystem) Read(ctx context.Context, path string) ([]byte, error) {
	if err := fs.contains(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// contains rejects paths outside the root.
func (fs *FileSystem) contains(path string) error {
	rel, err := filepath.Rel(fs.root, filepath.Clean(path))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return fmt.Errorf("path %s is outside %s: %w", path, fs.root, domain.ErrInvalidInput)
	}
	return nil
}

func writeAtomic(path string, fill func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}

	if err := fill(tmp); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}

// contextReader stops a long copy once ctx is cancelled.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
