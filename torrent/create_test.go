package torrent

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "movie.mkv")
	require.NoError(t, os.WriteFile(path, []byte("0123456789abcdef0"), 0o640))

	tor, err := Create(path, CreateOptions{
		Trackers:    []string{"http://t/a"},
		PieceLength: 8,
		Comment:     "home video",
	})
	require.NoError(t, err)
	defer tor.Close()

	assert.Equal(t, "movie.mkv", tor.Name())
	assert.Equal(t, int64(17), tor.TotalLength())
	assert.Equal(t, uint32(3), tor.NumPieces())
	assert.Equal(t, "home video", tor.Comment())
	assert.NotZero(t, tor.CreationDate())
	assert.Equal(t, "mist/"+Version, tor.CreatedBy())

	// Created torrents are complete by construction.
	assert.Equal(t, uint32(3), tor.VerifiedPieceCount())
	assert.Equal(t, int64(0), tor.BytesLeft())
	assert.Equal(t, 1.0, tor.Progress())

	files := tor.Files()
	require.Len(t, files, 1)
	assert.Equal(t, "movie.mkv", files[0].Path)
}

func TestCreateDirectory(t *testing.T) {
	root, _ := makeContent(t, []testFile{
		{"b.bin", 5},
		{"a/nested.bin", 10},
	})

	tor, err := Create(root, CreateOptions{
		Trackers:    []string{"http://t/a"},
		PieceLength: 8,
	})
	require.NoError(t, err)
	defer tor.Close()

	assert.Equal(t, "data", tor.Name())
	assert.Equal(t, int64(15), tor.TotalLength())

	// filepath.Walk visits entries in lexicographic order, so a/nested.bin
	// precedes b.bin regardless of creation order.
	files := tor.Files()
	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join("data", "a", "nested.bin"), files[0].Path)
	assert.Equal(t, filepath.Join("data", "b.bin"), files[1].Path)

	// Pieces hash the walk order, not the makeContent order.
	assert.Equal(t, uint32(2), tor.NumPieces())
	assert.Equal(t, uint32(2), tor.VerifiedPieceCount())
}

func TestCreateDeterministicInfoHash(t *testing.T) {
	root, _ := makeContent(t, []testFile{
		{"x.bin", 9},
		{"y.bin", 3},
	})

	a, err := Create(root, CreateOptions{Trackers: []string{"http://t/a"}, PieceLength: 8})
	require.NoError(t, err)
	defer a.Close()
	b, err := Create(root, CreateOptions{Trackers: []string{"http://other/a"}, PieceLength: 8})
	require.NoError(t, err)
	defer b.Close()

	// The tracker is outside the info dictionary, the hash only covers
	// content identity.
	assert.Equal(t, a.InfoHash(), b.InfoHash())
}

func TestCreateSaveLoadRoundTrip(t *testing.T) {
	root, content := makeContent(t, []testFile{
		{"a.bin", 10},
		{"sub/b.bin", 5},
		{"c.bin", 7},
	})

	private := true
	created, err := Create(root, CreateOptions{
		Trackers:    []string{"http://t1/a", "http://t2/a"},
		PieceLength: 8,
		Private:     &private,
	})
	require.NoError(t, err)
	defer created.Close()

	out := filepath.Join(t.TempDir(), "data.torrent")
	require.NoError(t, created.SaveToFile(out))

	loaded, err := LoadFromFile(out, Config{DownloadDir: t.TempDir(), BlockLength: 4})
	require.NoError(t, err)
	defer loaded.Close()

	// Info-hash stability through save and load.
	assert.Equal(t, created.InfoHash(), loaded.InfoHash())
	assert.Equal(t, created.TotalLength(), loaded.TotalLength())
	assert.Equal(t, []string{"http://t1/a", "http://t2/a"}, loaded.Trackers())
	v, ok := loaded.Private()
	assert.True(t, ok)
	assert.True(t, v)

	// Downloading the saved torrent back into a fresh directory
	// reproduces the content.
	for i := uint32(0); i < loaded.NumPieces(); i++ {
		data, err := created.ReadPiece(i)
		require.NoError(t, err)
		require.NoError(t, loaded.WritePiece(i, data))
	}
	assert.Equal(t, int64(0), loaded.BytesLeft())

	got, err := loaded.ReadPiece(0)
	require.NoError(t, err)
	assert.Equal(t, content[0:8], got)
}

func TestCreateErrors(t *testing.T) {
	_, err := Create(filepath.Join(t.TempDir(), "nope"), CreateOptions{Trackers: []string{"http://t/a"}})
	assert.Error(t, err)
	assert.True(t, os.IsNotExist(err))

	_, err = Create(t.TempDir(), CreateOptions{})
	assert.ErrorIs(t, err, ErrMissingTrackers)

	_, err = Create(t.TempDir(), CreateOptions{Trackers: []string{"http://t/a"}})
	assert.ErrorIs(t, err, ErrInvalidParameter)

	empty := filepath.Join(t.TempDir(), "empty.bin")
	require.NoError(t, os.WriteFile(empty, nil, 0o640))
	_, err = Create(empty, CreateOptions{Trackers: []string{"http://t/a"}})
	assert.ErrorIs(t, err, ErrInvalidParameter)
}
