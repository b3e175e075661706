package torrent

import (
	"bytes"
	"fmt"
	"sync/atomic"

	bolt "go.etcd.io/bbolt"

	"github.com/mistbt/mist/internal/bitfield"
	"github.com/mistbt/mist/internal/counters"
	"github.com/mistbt/mist/internal/resumer"
	"github.com/mistbt/mist/internal/resumer/boltdbresumer"
)

// ErrResumeNotFound is returned by LoadResume when the database holds no
// state for the torrent.
var ErrResumeNotFound = resumer.ErrNotFound

var resumeBucket = []byte("torrents")

// ResumeDB persists piece state between runs in a Bolt database file.
type ResumeDB struct {
	db *bolt.DB
	r  resumer.Resumer
}

// OpenResumeDB opens (or creates) the resume database at path.
func OpenResumeDB(path string) (*ResumeDB, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, err
	}
	r, err := boltdbresumer.New(db, resumeBucket)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &ResumeDB{db: db, r: r}, nil
}

// Close the database.
func (d *ResumeDB) Close() error {
	return d.db.Close()
}

// SaveResume stores the torrent's piece state, keyed by info hash.
func (t *Torrent) SaveResume(d *ResumeDB) error {
	spec := &resumer.Spec{
		Dest:     t.cfg.DownloadDir,
		Trackers: t.meta.Trackers,
	}
	hash := t.InfoHash()
	spec.InfoHash = hash[:]

	acquired := make([][]byte, len(t.pieces))
	for i := range t.pieces {
		t.guards[i].Lock()
		acquired[i] = append([]byte(nil), t.acquired[i].Bytes()...)
		t.guards[i].Unlock()
	}
	spec.Acquired = acquired
	spec.Verified = append([]byte(nil), t.verified.Bytes()...)

	spec.BytesDownloaded = t.stats.Read(counters.BytesDownloaded)
	spec.BytesUploaded = t.stats.Read(counters.BytesUploaded)
	spec.BytesWasted = t.stats.Read(counters.BytesWasted)

	return d.r.Write(t.InfoHashString(), spec)
}

// LoadResume restores piece state saved by SaveResume. State recorded for a
// different info hash is rejected.
func (t *Torrent) LoadResume(d *ResumeDB) error {
	spec, err := d.r.Read(t.InfoHashString())
	if err != nil {
		return err
	}
	hash := t.InfoHash()
	if !bytes.Equal(spec.InfoHash, hash[:]) {
		return fmt.Errorf("%w: resume data belongs to a different torrent", ErrInvalidParameter)
	}
	if len(spec.Acquired) != len(t.pieces) {
		return fmt.Errorf("%w: resume data has %d pieces, torrent has %d", ErrInvalidParameter, len(spec.Acquired), len(t.pieces))
	}
	verified := bitfield.NewBytes(spec.Verified, t.NumPieces())
	if verified == nil {
		return fmt.Errorf("%w: resume data verified bitfield too short", ErrInvalidParameter)
	}

	var count int64
	for i := range t.pieces {
		blocks := bitfield.NewBytes(spec.Acquired[i], t.acquired[i].Len())
		if blocks == nil {
			return fmt.Errorf("%w: resume data block bitfield %d too short", ErrInvalidParameter, i)
		}
		t.guards[i].Lock()
		t.acquired[i] = blocks
		if verified.Test(uint32(i)) {
			t.verified.Set(uint32(i))
			count++
		} else {
			t.verified.Clear(uint32(i))
		}
		t.guards[i].Unlock()
	}
	atomic.StoreInt64(&t.verifiedCount, count)
	t.stats = counters.New(spec.BytesDownloaded, spec.BytesUploaded, spec.BytesWasted)
	return nil
}
