// Package boltdbresumer provides a Resumer implementation that uses a Bolt
// database file as storage.
package boltdbresumer

import (
	"encoding/json"
	"strconv"

	bolt "go.etcd.io/bbolt"

	"github.com/mistbt/mist/internal/resumer"
)

// Keys for the persistent storage.
var Keys = struct {
	InfoHash        []byte
	Dest            []byte
	Trackers        []byte
	Verified        []byte
	Acquired        []byte
	BytesDownloaded []byte
	BytesUploaded   []byte
	BytesWasted     []byte
}{
	InfoHash:        []byte("info_hash"),
	Dest:            []byte("dest"),
	Trackers:        []byte("trackers"),
	Verified:        []byte("verified"),
	Acquired:        []byte("acquired"),
	BytesDownloaded: []byte("bytes_downloaded"),
	BytesUploaded:   []byte("bytes_uploaded"),
	BytesWasted:     []byte("bytes_wasted"),
}

// Resumer saves and loads torrent state in a BoltDB database.
type Resumer struct {
	db     *bolt.DB
	bucket []byte
}

var _ resumer.Resumer = (*Resumer)(nil)

// New returns a new Resumer over db, creating bucket if necessary.
func New(db *bolt.DB, bucket []byte) (*Resumer, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		_, err2 := tx.CreateBucketIfNotExists(bucket)
		return err2
	})
	if err != nil {
		return nil, err
	}
	return &Resumer{
		db:     db,
		bucket: bucket,
	}, nil
}

// Write the state of the torrent identified by key.
func (r *Resumer) Write(key string, s *resumer.Spec) error {
	trackers, err := json.Marshal(s.Trackers)
	if err != nil {
		return err
	}
	acquired, err := json.Marshal(s.Acquired)
	if err != nil {
		return err
	}
	return r.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.Bucket(r.bucket).CreateBucketIfNotExists([]byte(key))
		if err != nil {
			return err
		}
		_ = b.Put(Keys.InfoHash, s.InfoHash)
		_ = b.Put(Keys.Dest, []byte(s.Dest))
		_ = b.Put(Keys.Trackers, trackers)
		_ = b.Put(Keys.Verified, s.Verified)
		_ = b.Put(Keys.Acquired, acquired)
		_ = b.Put(Keys.BytesDownloaded, []byte(strconv.FormatInt(s.BytesDownloaded, 10)))
		_ = b.Put(Keys.BytesUploaded, []byte(strconv.FormatInt(s.BytesUploaded, 10)))
		_ = b.Put(Keys.BytesWasted, []byte(strconv.FormatInt(s.BytesWasted, 10)))
		return nil
	})
}

// Read the state of the torrent identified by key.
func (r *Resumer) Read(key string) (*resumer.Spec, error) {
	var spec *resumer.Spec
	err := r.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(r.bucket).Bucket([]byte(key))
		if b == nil {
			return resumer.ErrNotFound
		}
		spec = new(resumer.Spec)

		spec.InfoHash = copyBytes(b.Get(Keys.InfoHash))
		spec.Dest = string(b.Get(Keys.Dest))
		spec.Verified = copyBytes(b.Get(Keys.Verified))

		if v := b.Get(Keys.Trackers); v != nil {
			if err := json.Unmarshal(v, &spec.Trackers); err != nil {
				return err
			}
		}
		if v := b.Get(Keys.Acquired); v != nil {
			if err := json.Unmarshal(v, &spec.Acquired); err != nil {
				return err
			}
		}

		var err error
		if v := b.Get(Keys.BytesDownloaded); v != nil {
			spec.BytesDownloaded, err = strconv.ParseInt(string(v), 10, 64)
			if err != nil {
				return err
			}
		}
		if v := b.Get(Keys.BytesUploaded); v != nil {
			spec.BytesUploaded, err = strconv.ParseInt(string(v), 10, 64)
			if err != nil {
				return err
			}
		}
		if v := b.Get(Keys.BytesWasted); v != nil {
			spec.BytesWasted, err = strconv.ParseInt(string(v), 10, 64)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return spec, nil
}

// Delete the state of the torrent identified by key.
func (r *Resumer) Delete(key string) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(r.bucket).DeleteBucket([]byte(key))
	})
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
