package torrent

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mistbt/mist/internal/filemap"
	"github.com/mistbt/mist/internal/metainfo"
	"github.com/mistbt/mist/internal/piece"
	"github.com/mistbt/mist/internal/sha1hash"
	"github.com/mistbt/mist/storage/filestorage"
)

// CreateOptions control torrent creation from a local path.
type CreateOptions struct {
	// Trackers are the announce URLs. At least one is required.
	Trackers []string
	// PieceLength in bytes. Defaults to DefaultConfig.PieceLength.
	PieceLength uint32
	// Comment is stored in the metainfo file.
	Comment string
	// Private sets the private flag. Leave nil to omit the key.
	Private *bool
	// CreatedBy overrides the default creator string.
	CreatedBy string
}

// Create builds a torrent from the file or directory at path. The files are
// hashed in place; the returned torrent has every piece verified and its
// download directory set to the parent of path. Directory entries are walked
// recursively in lexicographic order so the same content always produces the
// same info hash.
func Create(path string, o CreateOptions) (*Torrent, error) {
	if len(o.Trackers) == 0 {
		return nil, ErrMissingTrackers
	}
	pieceLength := o.PieceLength
	if pieceLength == 0 {
		pieceLength = DefaultConfig.PieceLength
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}

	name := filepath.Base(abs)
	downloadDir := filepath.Dir(abs)

	var info metainfo.Info
	info.Name = name
	info.PieceLength = pieceLength
	info.Private = o.Private

	var entries []filemap.Entry
	if fi.IsDir() {
		// The on-disk paths come from the walk, the display name only
		// names the directory.
		err = filepath.Walk(abs, func(p string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if fi.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(abs, p)
			if err != nil {
				return err
			}
			info.Files = append(info.Files, metainfo.File{
				Path:   filepath.ToSlash(rel),
				Length: fi.Size(),
			})
			entries = append(entries, filemap.Entry{
				Path:   filepath.Join(name, rel),
				Length: fi.Size(),
			})
			info.TotalLength += fi.Size()
			return nil
		})
		if err != nil {
			return nil, err
		}
		if len(info.Files) == 0 {
			return nil, fmt.Errorf("%w: directory %q contains no files", ErrInvalidParameter, path)
		}
	} else {
		info.Length = fi.Size()
		info.TotalLength = fi.Size()
		entries = []filemap.Entry{{Path: name, Length: fi.Size()}}
	}
	if info.TotalLength == 0 {
		return nil, fmt.Errorf("%w: content is empty", ErrInvalidParameter)
	}

	info.Pieces, err = hashPieces(entries, downloadDir, info.TotalLength, pieceLength)
	if err != nil {
		return nil, err
	}
	info.ComputeHash()

	createdBy := o.CreatedBy
	if createdBy == "" {
		createdBy = "mist/" + Version
	}
	meta := &metainfo.MetaInfo{
		Info:         info,
		Trackers:     o.Trackers,
		Comment:      o.Comment,
		CreatedBy:    createdBy,
		CreationDate: time.Now().UTC().Unix(),
	}

	cfg := DefaultConfig
	cfg.DownloadDir = downloadDir
	cfg.PieceLength = pieceLength
	t, err := newTorrent(meta, cfg)
	if err != nil {
		return nil, err
	}
	t.markAllVerified()
	return t, nil
}

func hashPieces(entries []filemap.Entry, dir string, totalLength int64, pieceLength uint32) ([]sha1hash.Hash, error) {
	sto, err := filestorage.New(dir)
	if err != nil {
		return nil, err
	}
	fm := filemap.New(entries, sto)
	defer fm.Close()

	grid := piece.NewPieces(totalLength, pieceLength, make([]sha1hash.Hash, piece.NumPieces(totalLength, pieceLength)))
	hashes := make([]sha1hash.Hash, len(grid))
	for i := range grid {
		data, err := fm.Read(grid[i].Offset, int64(grid[i].Length))
		if err != nil {
			return nil, err
		}
		hashes[i] = sha1hash.Sum(data)
	}
	return hashes, nil
}

// markAllVerified records every piece as acquired and verified. Used for
// torrents created from local data, which is correct by construction.
func (t *Torrent) markAllVerified() {
	for i := range t.pieces {
		t.guards[i].Lock()
		for b := uint32(0); b < t.acquired[i].Len(); b++ {
			t.acquired[i].Set(b)
		}
		if !t.verified.Test(uint32(i)) {
			t.verified.Set(uint32(i))
			t.addVerified(&t.pieces[i])
		}
		t.guards[i].Unlock()
	}
}
