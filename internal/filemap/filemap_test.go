package filemap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mistbt/mist/storage/filestorage"
)

func newMap(t *testing.T, lengths ...int64) (*Map, string) {
	t.Helper()
	dir := t.TempDir()
	sto, err := filestorage.New(dir)
	require.NoError(t, err)
	files := make([]Entry, len(lengths))
	for i, l := range lengths {
		files[i] = Entry{Path: "file" + string(rune('0'+i)), Length: l}
	}
	m := New(files, sto)
	t.Cleanup(func() { _ = m.Close() })
	return m, dir
}

func TestOffsets(t *testing.T) {
	m, _ := newMap(t, 10, 5, 7)
	files := m.Files()
	assert.Equal(t, int64(0), files[0].Offset)
	assert.Equal(t, int64(10), files[1].Offset)
	assert.Equal(t, int64(15), files[2].Offset)
	assert.Equal(t, int64(22), m.TotalLength())
}

func TestWriteReadSymmetry(t *testing.T) {
	m, _ := newMap(t, 10, 5, 7)

	data := make([]byte, 22)
	for i := range data {
		data[i] = byte(i + 1)
	}
	require.NoError(t, m.Write(0, data))

	got, err := m.Read(0, 22)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestReadSpansFiles(t *testing.T) {
	// Reading bytes 7..17 returns byte 7 of file 0, all of file 1 and
	// bytes 0..1 of file 2.
	m, dir := newMap(t, 10, 5, 7)

	data := make([]byte, 22)
	for i := range data {
		data[i] = byte(i)
	}
	require.NoError(t, m.Write(0, data))

	got, err := m.Read(7, 10)
	require.NoError(t, err)
	assert.Equal(t, data[7:17], got)

	// The write must have landed in three separate files.
	b, err := os.ReadFile(filepath.Join(dir, "file1"))
	require.NoError(t, err)
	assert.Equal(t, data[10:15], b)
}

func TestReadMissingFilesIsZero(t *testing.T) {
	m, _ := newMap(t, 10, 5, 7)

	got, err := m.Read(0, 22)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 22), got)
}

func TestReadPastEndIsZero(t *testing.T) {
	m, _ := newMap(t, 4)
	require.NoError(t, m.Write(0, []byte{1, 2, 3, 4}))

	got, err := m.Read(2, 6)
	require.NoError(t, err)
	assert.Equal(t, []byte{3, 4, 0, 0, 0, 0}, got)
}

func TestPartialWriteThenRead(t *testing.T) {
	m, _ := newMap(t, 10, 5, 7)

	// Write only to the middle file's range. Files around it stay absent
	// and read as zeroes.
	require.NoError(t, m.Write(10, []byte{9, 9, 9, 9, 9}))

	got, err := m.Read(8, 9)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 9, 9, 9, 9, 9, 0, 0}, got)
}

func TestWritePresizesFile(t *testing.T) {
	m, dir := newMap(t, 100)
	require.NoError(t, m.Write(10, []byte{1}))

	fi, err := os.Stat(filepath.Join(dir, "file0"))
	require.NoError(t, err)
	assert.Equal(t, int64(100), fi.Size())
}

func TestEnsureExist(t *testing.T) {
	m, dir := newMap(t, 3, 0, 5)
	require.NoError(t, m.EnsureExist())
	require.NoError(t, m.EnsureExist()) // idempotent

	for i, want := range []int64{3, 0, 5} {
		fi, err := os.Stat(filepath.Join(dir, "file"+string(rune('0'+i))))
		require.NoError(t, err)
		assert.Equal(t, want, fi.Size())
	}
}

func TestReadAfterClose(t *testing.T) {
	m, _ := newMap(t, 4)
	require.NoError(t, m.Write(0, []byte{1, 2, 3, 4}))
	require.NoError(t, m.Close())

	// Handles reopen on demand.
	got, err := m.Read(0, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, got)
}
