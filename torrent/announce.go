package torrent

import (
	"net"
	"sync/atomic"
	"time"

	"github.com/mistbt/mist/internal/observer"
	"github.com/mistbt/mist/internal/sha1hash"
	"github.com/mistbt/mist/internal/tracker"
)

// Event is the transfer state change reported in an announce.
type Event int

// Announce events.
const (
	EventNone Event = iota
	EventStarted
	EventPaused
	EventStopped
)

func (e Event) wire() tracker.Event {
	switch e {
	case EventStarted:
		return tracker.EventStarted
	case EventPaused:
		return tracker.EventPaused
	case EventStopped:
		return tracker.EventStopped
	}
	return tracker.EventNone
}

// Subscription identifies a peer-list subscription.
type Subscription uint64

// SubscribePeers registers fn to receive the peer list after each successful
// announce. Callbacks run synchronously on the announcing goroutine without
// any internal lock held; a panicking callback is logged and skipped.
func (t *Torrent) SubscribePeers(fn func([]*net.TCPAddr)) Subscription {
	return Subscription(t.peerSubs.Subscribe(fn))
}

// UnsubscribePeers removes a subscription. Returns false for unknown tokens.
func (t *Torrent) UnsubscribePeers(s Subscription) bool {
	return t.peerSubs.Unsubscribe(observer.Token(s))
}

// AnnounceInterval returns the minimum delay before the next started
// announce, as dictated by the last tracker response.
func (t *Torrent) AnnounceInterval() time.Duration {
	return time.Duration(atomic.LoadInt64(&t.interval)) * time.Second
}

// Announce reports the transfer state to the torrent's trackers and returns
// the peer list of the first tracker that responds. Subscribers receive the
// peer list as well. A started announce within the interval of the previous
// one is skipped and returns nil peers.
func (t *Torrent) Announce(e Event) ([]*net.TCPAddr, error) {
	if len(t.trackers) == 0 {
		return nil, ErrMissingTrackers
	}
	if e == EventStarted {
		interval := atomic.LoadInt64(&t.interval)
		last := atomic.LoadInt64(&t.lastStarted)
		if interval > 0 && time.Now().Unix() < last+interval {
			t.log.Debug("skipping started announce inside tracker interval")
			return nil, nil
		}
	}

	var lastErr error
	for _, tr := range t.trackers {
		resp, err := tr.Announce(transfer{t}, e.wire())
		if err != nil {
			t.log.Warningf("announce to %q failed: %v", tr.URL(), err)
			lastErr = err
			continue
		}
		atomic.StoreInt64(&t.interval, int64(resp.Interval/time.Second))
		if e == EventStarted {
			atomic.StoreInt64(&t.lastStarted, time.Now().Unix())
		}
		t.peerSubs.Notify(resp.Peers)
		return resp.Peers, nil
	}
	return nil, lastErr
}

// transfer adapts Torrent to the tracker transfer interface.
type transfer struct {
	t *Torrent
}

func (tr transfer) InfoHash() sha1hash.Hash { return tr.t.meta.Info.Hash }
func (tr transfer) PeerID() [20]byte        { return tr.t.peerID }
func (tr transfer) Port() uint16            { return tr.t.cfg.Port }
func (tr transfer) BytesUploaded() int64    { return tr.t.Stats().BytesUploaded }
func (tr transfer) BytesDownloaded() int64  { return tr.t.BytesDownloaded() }
func (tr transfer) BytesLeft() int64        { return tr.t.BytesLeft() }
