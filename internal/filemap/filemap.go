// Package filemap maps a contiguous virtual byte space onto an ordered list
// of backing files and serves range reads and writes across them.
package filemap

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mistbt/mist/storage"
)

// Entry is one backing file. Offset is the position of the file's first byte
// in the virtual byte space; entries are immutable after New.
type Entry struct {
	Path   string
	Length int64
	Offset int64
}

// OpError records a failed file operation and the path it failed on.
type OpError struct {
	Op   string
	Path string
	Err  error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("filemap: %s %q: %v", e.Op, e.Path, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// Map is a pool of file handles backing the virtual byte space.
//
// The mutex only guards handle acquisition; I/O on an acquired handle runs
// outside the lock. Callers serialize conflicting operations on the same
// byte range.
type Map struct {
	files []Entry
	total int64
	sto   storage.Storage

	m       sync.Mutex
	handles map[string]*handle
}

type handle struct {
	file     storage.File
	writable bool
}

// New returns a Map over files opened through sto. Entry offsets are
// computed from the given lengths; any Offset values in files are ignored.
func New(files []Entry, sto storage.Storage) *Map {
	entries := make([]Entry, len(files))
	var total int64
	for i, f := range files {
		entries[i] = Entry{Path: f.Path, Length: f.Length, Offset: total}
		total += f.Length
	}
	return &Map{
		files:   entries,
		total:   total,
		sto:     sto,
		handles: make(map[string]*handle),
	}
}

// Files returns the entries in order.
func (m *Map) Files() []Entry { return m.files }

// TotalLength returns the size of the virtual byte space.
func (m *Map) TotalLength() int64 { return m.total }

// Read returns count bytes starting at start. Regions not covered by any
// file, past the last file, or belonging to files not yet on disk read as
// zeroes.
func (m *Map) Read(start, count int64) ([]byte, error) {
	buf := make([]byte, count)
	end := start + count

	for i := range m.files {
		f := &m.files[i]
		fileStart := f.Offset
		fileEnd := f.Offset + f.Length
		if fileStart >= end || fileEnd <= start {
			continue
		}

		fstart := max64(0, start-fileStart)
		flength := min64(end, fileEnd) - max64(start, fileStart)
		bstart := max64(0, fileStart-start)

		h, err := m.acquire(f, false)
		if err != nil {
			if os.IsNotExist(err) {
				continue // zeroes
			}
			return nil, &OpError{Op: "open", Path: f.Path, Err: err}
		}
		// A file shorter than its declared length reads as zeroes past its
		// current end, so a short read with io.EOF is not an error.
		if _, err := h.ReadAt(buf[bstart:bstart+flength], fstart); err != nil && err != io.EOF {
			return nil, &OpError{Op: "read", Path: f.Path, Err: err}
		}
	}
	return buf, nil
}

// Write stores p starting at start. Files are created and pre-sized to their
// declared length on first write. Bytes of p that fall outside every file
// are dropped, symmetric with Read.
func (m *Map) Write(start int64, p []byte) error {
	end := start + int64(len(p))

	for i := range m.files {
		f := &m.files[i]
		fileStart := f.Offset
		fileEnd := f.Offset + f.Length
		if fileStart >= end || fileEnd <= start {
			continue
		}

		fstart := max64(0, start-fileStart)
		flength := min64(end, fileEnd) - max64(start, fileStart)
		bstart := max64(0, fileStart-start)

		h, err := m.acquire(f, true)
		if err != nil {
			return &OpError{Op: "open", Path: f.Path, Err: err}
		}
		if _, err := h.WriteAt(p[bstart:bstart+flength], fstart); err != nil {
			return &OpError{Op: "write", Path: f.Path, Err: err}
		}
	}
	return nil
}

// EnsureExist creates and pre-sizes every file that is not yet on disk.
// It is idempotent.
func (m *Map) EnsureExist() error {
	for i := range m.files {
		if _, err := m.acquire(&m.files[i], true); err != nil {
			return &OpError{Op: "create", Path: m.files[i].Path, Err: err}
		}
	}
	return nil
}

// Close closes all cached handles. The map is usable afterwards, handles
// reopen on demand.
func (m *Map) Close() error {
	m.m.Lock()
	defer m.m.Unlock()
	var first error
	for path, h := range m.handles {
		if err := h.file.Close(); err != nil && first == nil {
			first = &OpError{Op: "close", Path: path, Err: err}
		}
		delete(m.handles, path)
	}
	return first
}

// acquire returns the cached handle for f, opening it if needed. With create
// set the file is created pre-sized; otherwise a missing file reports
// os.ErrNotExist.
func (m *Map) acquire(f *Entry, create bool) (storage.File, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if h, ok := m.handles[f.Path]; ok {
		if !create || h.writable {
			return h.file, nil
		}
		// Cached handle is read-only, upgrade it for writing.
		_ = h.file.Close()
		delete(m.handles, f.Path)
	}
	if create {
		file, _, err := m.sto.Open(f.Path, f.Length)
		if err != nil {
			return nil, err
		}
		m.handles[f.Path] = &handle{file: file, writable: true}
		return file, nil
	}
	file, err := m.sto.OpenExisting(f.Path)
	if err != nil {
		return nil, err
	}
	m.handles[f.Path] = &handle{file: file}
	return file, nil
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
