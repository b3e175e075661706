// Package filestorage implements the Storage interface over files on disk.
package filestorage

import (
	"os"
	"path/filepath"

	"github.com/mistbt/mist/storage"
)

// FileStorage keeps files under a destination directory.
type FileStorage struct {
	dest string
}

// New returns a new FileStorage rooted at dest.
func New(dest string) (*FileStorage, error) {
	var err error
	dest, err = filepath.Abs(dest)
	if err != nil {
		return nil, err
	}
	return &FileStorage{dest: dest}, nil
}

var _ storage.Storage = (*FileStorage)(nil)

// Dest returns the destination directory.
func (s *FileStorage) Dest() string {
	return s.dest
}

// Open opens the file read-write, creating and pre-sizing it if necessary.
func (s *FileStorage) Open(name string, size int64) (f storage.File, exists bool, err error) {
	name = filepath.Join(s.dest, filepath.Clean(name))

	err = os.MkdirAll(filepath.Dir(name), os.ModeDir|0o750)
	if err != nil {
		return
	}

	var of *os.File
	defer func() {
		if err != nil && of != nil {
			_ = of.Close()
		}
	}()

	const mode = 0o640
	of, err = os.OpenFile(name, os.O_RDWR, mode) // nolint: gosec
	if os.IsNotExist(err) {
		of, err = os.OpenFile(name, os.O_RDWR|os.O_CREATE, mode) // nolint: gosec
		if err != nil {
			return
		}
		err = of.Truncate(size)
		if err != nil {
			return
		}
		_ = disableReadAhead(of)
		f = of
		return
	}
	if err != nil {
		return
	}
	exists = true
	fi, err := of.Stat()
	if err != nil {
		return
	}
	if fi.Size() != size {
		err = of.Truncate(size)
		if err != nil {
			return
		}
	}
	_ = disableReadAhead(of)
	f = of
	return
}

// OpenExisting opens the file read-only without creating it.
func (s *FileStorage) OpenExisting(name string) (storage.File, error) {
	name = filepath.Join(s.dest, filepath.Clean(name))
	of, err := os.OpenFile(name, os.O_RDONLY, 0o640) // nolint: gosec
	if err != nil {
		return nil, err
	}
	_ = disableReadAhead(of)
	return of, nil
}
