package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// FileStore serves objects from an afero filesystem, the OS filesystem in
// production and an in-memory one in tests.
type FileStore struct {
	fs afero.Fs
}

var _ ObjectStore = (*FileStore)(nil)

func NewFileStore(fs afero.Fs) *FileStore {
	return &FileStore{fs: fs}
}

// NewLocalStore serves objects from the local filesystem.
func NewLocalStore() *FileStore {
	return NewFileStore(afero.NewOsFs())
}

// NewMemoryStore serves objects from a fresh in-memory filesystem.
func NewMemoryStore() *FileStore {
	return NewFileStore(afero.NewMemMapFs())
}

// Fs exposes the backing filesystem, mostly for seeding tables in tests.
func (s *FileStore) Fs() afero.Fs {
	return s.fs
}

func (s *FileStore) Exists(_ context.Context, filePath string) (bool, error) {
	info, err := s.fs.Stat(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", filePath, err)
	}
	return !info.IsDir(), nil
}

func (s *FileStore) List(_ context.Context, dir, suffix string) ([]string, error) {
	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		files = append(files, path.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func (s *FileStore) Open(_ context.Context, filePath string) (io.ReadCloser, error) {
	file, err := s.fs.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filePath, err)
	}
	return file, nil
}

func (s *FileStore) OpenReaderAt(_ context.Context, filePath string) (ReaderAt, error) {
	file, err := s.fs.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filePath, err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat %s: %w", filePath, err)
	}
	return &fileReaderAt{File: file, size: info.Size()}, nil
}

type fileReaderAt struct {
	afero.File
	size int64
}

func (f *fileReaderAt) Size() int64 {
	return f.size
}
