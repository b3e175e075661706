// Package tracker implements the client side of the HTTP announce protocol.
// The core performs no other network I/O.
package tracker

import (
	"errors"
	"net"
	"time"

	"github.com/mistbt/mist/internal/sha1hash"
)

// ErrNetwork wraps transport-level announce failures.
var ErrNetwork = errors.New("network error")

// Error is the failure reason returned by the tracker itself.
type Error string

func (e Error) Error() string { return "tracker error: " + string(e) }

// Transfer is the state of a single torrent transfer as reported in
// announces.
type Transfer interface {
	InfoHash() sha1hash.Hash
	PeerID() [20]byte
	Port() uint16
	BytesUploaded() int64
	BytesDownloaded() int64
	BytesLeft() int64
}

// AnnounceResponse is the parsed response of an announce request.
type AnnounceResponse struct {
	// Interval is the minimum delay before the next periodic announce.
	Interval time.Duration
	Leechers int32
	Seeders  int32
	Peers    []*net.TCPAddr
}

// Tracker announces a transfer and returns the current peer list.
type Tracker interface {
	URL() string
	Announce(t Transfer, e Event) (*AnnounceResponse, error)
}
