package torrent

import (
	"sync/atomic"

	"github.com/mistbt/mist/internal/counters"
)

// Stats is a point-in-time snapshot of transfer progress. Values are read
// without locking and may trail concurrent writers slightly.
type Stats struct {
	BytesDownloaded int64
	BytesUploaded   int64
	BytesWasted     int64
	BytesLeft       int64
	VerifiedPieces  uint32
	Progress        float64
}

// Stats returns a snapshot of transfer progress.
func (t *Torrent) Stats() Stats {
	downloaded := t.stats.Read(counters.BytesDownloaded)
	return Stats{
		BytesDownloaded: downloaded,
		BytesUploaded:   t.stats.Read(counters.BytesUploaded),
		BytesWasted:     t.stats.Read(counters.BytesWasted),
		BytesLeft:       t.meta.Info.TotalLength - downloaded,
		VerifiedPieces:  t.VerifiedPieceCount(),
		Progress:        t.Progress(),
	}
}

// VerifiedPieceCount returns the number of pieces that passed their hash check.
func (t *Torrent) VerifiedPieceCount() uint32 {
	return uint32(atomic.LoadInt64(&t.verifiedCount))
}

// BytesDownloaded returns the total length of verified pieces.
func (t *Torrent) BytesDownloaded() int64 {
	return t.stats.Read(counters.BytesDownloaded)
}

// BytesLeft returns the number of bytes still missing.
func (t *Torrent) BytesLeft() int64 {
	return t.meta.Info.TotalLength - t.BytesDownloaded()
}

// Progress returns the completed fraction in [0, 1].
func (t *Torrent) Progress() float64 {
	return float64(t.VerifiedPieceCount()) / float64(t.NumPieces())
}

// AddUploaded records n bytes sent to peers, reported in announces.
func (t *Torrent) AddUploaded(n int64) {
	t.stats.Incr(counters.BytesUploaded, n)
}
