package torrent

import (
	"errors"

	"github.com/mistbt/mist/internal/metainfo"
)

// Errors returned from Torrent operations.
var (
	// ErrInvalidPieceIndex is returned when a piece index is out of range.
	ErrInvalidPieceIndex = errors.New("invalid piece index")
	// ErrInvalidBlockIndex is returned when a block index is out of range.
	ErrInvalidBlockIndex = errors.New("invalid block index")
	// ErrAlreadyVerified is returned on writes to a verified piece.
	ErrAlreadyVerified = errors.New("piece is already verified")
	// ErrInvalidParameter is returned on bad arguments such as a wrong
	// buffer length or an empty download directory.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInvalidTorrentFile is returned when a metainfo file cannot be parsed.
	ErrInvalidTorrentFile = metainfo.ErrInvalidTorrentFile
	// ErrMissingInfoSection is returned when a metainfo file has no info dictionary.
	ErrMissingInfoSection = metainfo.ErrMissingInfoSection
	// ErrMissingTrackers is returned when a metainfo file names no trackers.
	ErrMissingTrackers = metainfo.ErrMissingTrackers
)
