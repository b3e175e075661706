package torrent

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testFile is one content file of a synthetic torrent.
type testFile struct {
	path string // slash-separated, relative to the content dir
	size int64
}

// makeContent writes deterministic content files under a fresh directory and
// returns the directory and the concatenated byte space.
func makeContent(t *testing.T, files []testFile) (string, []byte) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "data")
	var all []byte
	var offset int64
	for _, f := range files {
		b := make([]byte, f.size)
		for i := range b {
			b[i] = byte((offset + int64(i)) % 251)
		}
		offset += f.size
		all = append(all, b...)
		p := filepath.Join(root, filepath.FromSlash(f.path))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, b, 0o640))
	}
	return root, all
}

// makeTorrent creates a torrent over synthetic content, then loads it into
// an empty download directory so piece state starts from zero.
func makeTorrent(t *testing.T, files []testFile, pieceLength, blockLength uint32) (*Torrent, []byte) {
	t.Helper()
	root, content := makeContent(t, files)
	created, err := Create(root, CreateOptions{
		Trackers:    []string{"http://tracker.example.com/announce"},
		PieceLength: pieceLength,
	})
	require.NoError(t, err)

	cfg := DefaultConfig
	cfg.DownloadDir = t.TempDir()
	cfg.BlockLength = blockLength
	tor, err := New(created.Bytes(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tor.Close() })
	return tor, content
}

func TestNewRequiresDownloadDir(t *testing.T) {
	root, _ := makeContent(t, []testFile{{"f.bin", 16}})
	created, err := Create(root, CreateOptions{
		Trackers:    []string{"http://t/a"},
		PieceLength: 8,
	})
	require.NoError(t, err)

	_, err = New(created.Bytes(), Config{})
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestNewRejectsGarbage(t *testing.T) {
	_, err := New([]byte("junk"), Config{DownloadDir: t.TempDir()})
	assert.ErrorIs(t, err, ErrInvalidTorrentFile)
}

func TestGeometry(t *testing.T) {
	// Lengths 10, 5, 7 with piece length 8: pieces 8, 8, 6. File names are
	// listed in walk order so the content slice matches the byte space.
	tor, _ := makeTorrent(t, []testFile{
		{"a.bin", 10},
		{"b/b.bin", 5},
		{"c.bin", 7},
	}, 8, 4)

	assert.Equal(t, uint32(3), tor.NumPieces())
	assert.Equal(t, int64(22), tor.TotalLength())

	var sum int64
	for i := uint32(0); i < 3; i++ {
		l, err := tor.PieceLength(i)
		require.NoError(t, err)
		sum += int64(l)
	}
	assert.Equal(t, tor.TotalLength(), sum)

	l, err := tor.PieceLength(2)
	require.NoError(t, err)
	assert.Equal(t, uint32(6), l)

	n, err := tor.BlockCount(2)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), n)

	bl, err := tor.BlockLength(2, 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), bl)

	_, err = tor.PieceLength(3)
	assert.ErrorIs(t, err, ErrInvalidPieceIndex)
	_, err = tor.BlockLength(2, 2)
	assert.ErrorIs(t, err, ErrInvalidBlockIndex)
	_, err = tor.ReadPiece(99)
	assert.ErrorIs(t, err, ErrInvalidPieceIndex)
	_, err = tor.ReadBlock(0, 99)
	assert.ErrorIs(t, err, ErrInvalidBlockIndex)
}

func TestFilesAndMetadata(t *testing.T) {
	tor, _ := makeTorrent(t, []testFile{
		{"a.bin", 10},
		{"sub/b.bin", 5},
	}, 8, 4)

	files := tor.Files()
	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join("data", "a.bin"), files[0].Path)
	assert.Equal(t, filepath.Join("data", "sub", "b.bin"), files[1].Path)
	assert.Equal(t, int64(0), files[0].Offset)
	assert.Equal(t, int64(10), files[1].Offset)

	assert.Equal(t, "data", tor.Name())
	assert.Equal(t, []string{"http://tracker.example.com/announce"}, tor.Trackers())
	_, ok := tor.Private()
	assert.False(t, ok)
	assert.Len(t, tor.InfoHashString(), 40)
}

func TestEnsureFilesExist(t *testing.T) {
	tor, _ := makeTorrent(t, []testFile{
		{"a.bin", 10},
		{"sub/b.bin", 5},
	}, 8, 4)

	require.NoError(t, tor.EnsureFilesExist())
	fi, err := os.Stat(filepath.Join(tor.DownloadDir(), "data", "sub", "b.bin"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), fi.Size())
}

func TestErrorsAreDistinct(t *testing.T) {
	kinds := []error{
		ErrInvalidPieceIndex,
		ErrInvalidBlockIndex,
		ErrAlreadyVerified,
		ErrInvalidParameter,
		ErrInvalidTorrentFile,
		ErrMissingInfoSection,
		ErrMissingTrackers,
	}
	for i, a := range kinds {
		for j, b := range kinds {
			if i != j {
				assert.False(t, errors.Is(a, b))
			}
		}
	}
}
