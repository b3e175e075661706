package boltdbresumer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"

	"github.com/mistbt/mist/internal/resumer"
)

func newResumer(t *testing.T) *Resumer {
	t.Helper()
	db, err := bolt.Open(filepath.Join(t.TempDir(), "resume.db"), 0o600, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	r, err := New(db, []byte("torrents"))
	require.NoError(t, err)
	return r
}

func TestWriteReadDelete(t *testing.T) {
	r := newResumer(t)

	spec := &resumer.Spec{
		InfoHash:        []byte("aaaaaaaaaaaaaaaaaaaa"),
		Dest:            "/downloads",
		Trackers:        []string{"http://t1/a", "http://t2/a"},
		Verified:        []byte{0xa0},
		Acquired:        [][]byte{{0xff}, {0x80}, nil},
		BytesDownloaded: 42,
		BytesWasted:     7,
	}
	require.NoError(t, r.Write("deadbeef", spec))

	got, err := r.Read("deadbeef")
	require.NoError(t, err)
	assert.Equal(t, spec.InfoHash, got.InfoHash)
	assert.Equal(t, spec.Dest, got.Dest)
	assert.Equal(t, spec.Trackers, got.Trackers)
	assert.Equal(t, spec.Verified, got.Verified)
	assert.Equal(t, spec.Acquired, got.Acquired)
	assert.Equal(t, int64(42), got.BytesDownloaded)
	assert.Equal(t, int64(0), got.BytesUploaded)
	assert.Equal(t, int64(7), got.BytesWasted)

	require.NoError(t, r.Delete("deadbeef"))
	_, err = r.Read("deadbeef")
	assert.ErrorIs(t, err, resumer.ErrNotFound)
}

func TestWriteOverwrites(t *testing.T) {
	r := newResumer(t)

	require.NoError(t, r.Write("k", &resumer.Spec{BytesDownloaded: 1}))
	require.NoError(t, r.Write("k", &resumer.Spec{BytesDownloaded: 2}))

	got, err := r.Read("k")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.BytesDownloaded)
}
