package torrent

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadResume(t *testing.T) {
	tor, content := makeTorrent(t, []testFile{{"f.bin", 16}}, 8, 4)

	// One verified piece, one half-acquired piece.
	writeWholePiece(t, tor, content, 0)
	require.NoError(t, tor.WriteBlock(1, 0, content[8:12]))
	tor.AddUploaded(5)

	db, err := OpenResumeDB(filepath.Join(t.TempDir(), "resume.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, tor.SaveResume(db))

	// A fresh instance over the same metainfo starts empty, then restores.
	cfg := DefaultConfig
	cfg.DownloadDir = tor.DownloadDir()
	cfg.BlockLength = 4
	fresh, err := New(tor.Bytes(), cfg)
	require.NoError(t, err)
	defer fresh.Close()

	assert.Equal(t, uint32(0), fresh.VerifiedPieceCount())
	require.NoError(t, fresh.LoadResume(db))

	assert.Equal(t, uint32(1), fresh.VerifiedPieceCount())
	assert.Equal(t, int64(8), fresh.BytesDownloaded())
	assert.Equal(t, int64(5), fresh.Stats().BytesUploaded)

	v, err := fresh.IsPieceVerified(0)
	require.NoError(t, err)
	assert.True(t, v)

	// The half-acquired piece continues where it left off: one more block
	// completes and verifies it.
	require.NoError(t, fresh.WriteBlock(1, 0, content[8:12])) // idempotent
	require.NoError(t, fresh.WriteBlock(1, 1, content[12:16]))
	v, err = fresh.IsPieceVerified(1)
	require.NoError(t, err)
	assert.True(t, v)
}

func TestLoadResumeMissing(t *testing.T) {
	tor, _ := makeTorrent(t, []testFile{{"f.bin", 16}}, 8, 4)

	db, err := OpenResumeDB(filepath.Join(t.TempDir(), "resume.db"))
	require.NoError(t, err)
	defer db.Close()

	err = tor.LoadResume(db)
	assert.ErrorIs(t, err, ErrResumeNotFound)
}

func TestLoadResumeWrongTorrent(t *testing.T) {
	a, _ := makeTorrent(t, []testFile{{"f.bin", 16}}, 8, 4)
	b, _ := makeTorrent(t, []testFile{{"g.bin", 24}}, 8, 4)

	db, err := OpenResumeDB(filepath.Join(t.TempDir(), "resume.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, a.SaveResume(db))
	// b's state is keyed by b's info hash; a's entry is not visible to it.
	err = b.LoadResume(db)
	assert.ErrorIs(t, err, ErrResumeNotFound)
}
