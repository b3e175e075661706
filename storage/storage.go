// Package storage contains an interface for reading and writing the files in
// a torrent.
package storage

import "io"

// Storage is an interface for opening torrent data files.
type Storage interface {
	// Open opens the named file read-write, creating it pre-sized to size
	// (parent directories included) if it does not exist. exists reports
	// whether the file was already on disk.
	Open(name string, size int64) (f File, exists bool, err error)
	// OpenExisting opens the named file read-only. If the file does not
	// exist the returned error wraps os.ErrNotExist and nothing is created.
	OpenExisting(name string) (File, error)
}

// File interface for reading/writing torrent data.
type File interface {
	io.ReaderAt
	io.WriterAt
	io.Closer
}
