// Package torrent implements the core of a BitTorrent client: metainfo
// parsing, the mapping of torrent content onto files on disk, and piece and
// block I/O with hash verification.
//
// The package performs no peer networking. Block data is supplied by the
// caller through WriteBlock/WritePiece; the only network operation is the
// HTTP tracker announce.
package torrent

import (
	"crypto/rand"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mistbt/mist/internal/bitfield"
	"github.com/mistbt/mist/internal/counters"
	"github.com/mistbt/mist/internal/filemap"
	"github.com/mistbt/mist/internal/logger"
	"github.com/mistbt/mist/internal/metainfo"
	"github.com/mistbt/mist/internal/observer"
	"github.com/mistbt/mist/internal/piece"
	"github.com/mistbt/mist/internal/tracker"
	"github.com/mistbt/mist/internal/tracker/httptracker"
	"github.com/mistbt/mist/storage/filestorage"
)

// Version of the library. Announced to trackers inside the peer ID.
const Version = "0.1.0"

// http://www.bittorrent.org/beps/bep_0020.html
var peerIDPrefix = []byte("-MT0100-")

// PieceVerifiedFunc is called after each piece verification with the piece
// index and the result. It runs synchronously on the goroutine that completed
// the verification and must not write to the same piece again.
type PieceVerifiedFunc func(index uint32, ok bool)

// FileInfo describes one content file of the torrent.
type FileInfo struct {
	// Path relative to the download directory.
	Path string
	// Length in bytes.
	Length int64
	// Offset of the file's first byte in the torrent's byte space.
	Offset int64
}

// Torrent is a single torrent transfer. The descriptor loaded from the
// metainfo is immutable; piece state advances through WriteBlock/WritePiece.
// All methods are safe for concurrent use.
type Torrent struct {
	meta   *metainfo.MetaInfo
	cfg    Config
	data   *filemap.Map
	pieces []piece.Piece
	peerID [20]byte
	log    logger.Logger

	// guards[i] serializes state transitions and same-range writes of piece i.
	guards   []sync.Mutex
	acquired []*bitfield.Bitfield
	verified *bitfield.Bitfield

	verifiedCount int64 // atomic
	stats         counters.Counters

	cbM        sync.Mutex
	verifiedCb PieceVerifiedFunc

	peerSubs *observer.Observable[[]*net.TCPAddr]
	trackers []tracker.Tracker

	interval    int64 // atomic, seconds, from the last announce response
	lastStarted int64 // atomic, unix seconds of the last started announce
}

// New parses a metainfo file from b and prepares a torrent that stores its
// content under cfg.DownloadDir. No file is created until the first write.
func New(b []byte, cfg Config) (*Torrent, error) {
	meta, err := metainfo.Load(b)
	if err != nil {
		return nil, err
	}
	return newTorrent(meta, cfg)
}

// LoadFromFile parses the metainfo file at path.
func LoadFromFile(path string, cfg Config) (*Torrent, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return New(b, cfg)
}

func newTorrent(meta *metainfo.MetaInfo, cfg Config) (*Torrent, error) {
	if cfg.DownloadDir == "" {
		return nil, fmt.Errorf("%w: download directory must not be empty", ErrInvalidParameter)
	}
	if cfg.BlockLength == 0 {
		cfg.BlockLength = DefaultConfig.BlockLength
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultConfig.Port
	}
	if cfg.TrackerTimeout == 0 {
		cfg.TrackerTimeout = DefaultConfig.TrackerTimeout
	}

	sto, err := filestorage.New(cfg.DownloadDir)
	if err != nil {
		return nil, err
	}

	// Multi-file content lives under a directory named after the torrent,
	// single-file content is the named file itself.
	var entries []filemap.Entry
	if meta.Info.MultiFile() {
		for _, f := range meta.Info.Files {
			entries = append(entries, filemap.Entry{
				Path:   filepath.Join(meta.Info.Name, filepath.FromSlash(f.Path)),
				Length: f.Length,
			})
		}
	} else {
		entries = []filemap.Entry{{Path: meta.Info.Name, Length: meta.Info.Length}}
	}

	log := logger.New("torrent " + trimName(meta.Info.Name, 8))

	t := &Torrent{
		meta:     meta,
		cfg:      cfg,
		data:     filemap.New(entries, sto),
		pieces:   piece.NewPieces(meta.Info.TotalLength, meta.Info.PieceLength, meta.Info.Pieces),
		log:      log,
		verified: bitfield.New(meta.Info.NumPieces()),
		peerSubs: observer.New[[]*net.TCPAddr](log),
	}
	t.guards = make([]sync.Mutex, len(t.pieces))
	t.acquired = make([]*bitfield.Bitfield, len(t.pieces))
	for i := range t.pieces {
		t.acquired[i] = bitfield.New(t.pieces[i].NumBlocks(cfg.BlockLength))
	}

	copy(t.peerID[:], peerIDPrefix)
	if _, err := rand.Read(t.peerID[len(peerIDPrefix):]); err != nil {
		return nil, err
	}

	for _, u := range meta.Trackers {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			log.Debugf("skipping unsupported tracker %q", u)
			continue
		}
		tr, err := httptracker.New(u, cfg.TrackerTimeout)
		if err != nil {
			log.Warningf("skipping invalid tracker URL %q: %v", u, err)
			continue
		}
		t.trackers = append(t.trackers, tr)
	}
	return t, nil
}

// Name returns the display name of the torrent.
func (t *Torrent) Name() string { return t.meta.Info.Name }

// InfoHash returns the 20-byte info hash.
func (t *Torrent) InfoHash() [20]byte { return t.meta.Info.Hash }

// InfoHashString returns the info hash as 40 lowercase hex digits.
func (t *Torrent) InfoHashString() string { return t.meta.Info.Hash.String() }

// TotalLength returns the total content size in bytes.
func (t *Torrent) TotalLength() int64 { return t.meta.Info.TotalLength }

// Private reports the private flag. ok is false when the key is absent.
func (t *Torrent) Private() (value, ok bool) {
	if t.meta.Info.Private == nil {
		return false, false
	}
	return *t.meta.Info.Private, true
}

// Comment returns the optional comment field.
func (t *Torrent) Comment() string { return t.meta.Comment }

// CreatedBy returns the optional created-by field.
func (t *Torrent) CreatedBy() string { return t.meta.CreatedBy }

// CreationDate returns the creation time in seconds since the Unix epoch,
// zero when absent.
func (t *Torrent) CreationDate() int64 { return t.meta.CreationDate }

// Trackers returns the announce URLs in the order they were declared.
func (t *Torrent) Trackers() []string { return t.meta.Trackers }

// Files returns the content files in order.
func (t *Torrent) Files() []FileInfo {
	files := t.data.Files()
	infos := make([]FileInfo, len(files))
	for i, f := range files {
		infos[i] = FileInfo{Path: f.Path, Length: f.Length, Offset: f.Offset}
	}
	return infos
}

// DownloadDir returns the directory content files are stored under.
func (t *Torrent) DownloadDir() string { return t.cfg.DownloadDir }

// EnsureFilesExist creates and pre-sizes every missing content file. It is
// idempotent.
func (t *Torrent) EnsureFilesExist() error {
	return t.data.EnsureExist()
}

// CloseFiles closes all open content file handles. They reopen on demand.
func (t *Torrent) CloseFiles() error {
	return t.data.Close()
}

// Close releases the torrent's resources.
func (t *Torrent) Close() error {
	return t.CloseFiles()
}

// Bytes returns the canonical metainfo file encoding of the torrent.
func (t *Torrent) Bytes() []byte {
	return t.meta.Bytes()
}

// SaveToFile writes the metainfo file to path.
func (t *Torrent) SaveToFile(path string) error {
	return t.meta.WriteFile(path)
}

func trimName(name string, max int) string {
	if len(name) <= max {
		return name
	}
	return name[:max]
}
