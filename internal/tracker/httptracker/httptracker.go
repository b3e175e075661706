// Package httptracker implements the Tracker interface for HTTP trackers.
package httptracker

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v3"
	"github.com/zeebo/bencode"

	"github.com/mistbt/mist/internal/logger"
	"github.com/mistbt/mist/internal/tracker"
)

const maxRetries = 2

// HTTPTracker announces over HTTP GET requests with bencoded responses.
type HTTPTracker struct {
	rawURL    string
	url       *url.URL
	log       logger.Logger
	http      *http.Client
	trackerID string
}

var _ tracker.Tracker = (*HTTPTracker)(nil)

// New returns a new HTTPTracker for the announce URL u. Requests time out
// after the given duration.
func New(u string, timeout time.Duration) (*HTTPTracker, error) {
	parsed, err := url.Parse(u)
	if err != nil {
		return nil, err
	}
	transport := &http.Transport{
		Dial: (&net.Dialer{
			Timeout: timeout,
		}).Dial,
		TLSHandshakeTimeout: timeout,
		DisableKeepAlives:   true,
	}
	return &HTTPTracker{
		rawURL: u,
		url:    parsed,
		log:    logger.New("tracker " + u),
		http: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}, nil
}

// URL returns the announce URL.
func (t *HTTPTracker) URL() string {
	return t.rawURL
}

// Announce sends one announce request and parses the response. Transient
// transport failures are retried with exponential backoff.
func (t *HTTPTracker) Announce(transfer tracker.Transfer, e tracker.Event) (*tracker.AnnounceResponse, error) {
	infoHash := transfer.InfoHash()
	peerID := transfer.PeerID()
	q := url.Values{}
	q.Set("info_hash", string(infoHash[:]))
	q.Set("peer_id", string(peerID[:]))
	q.Set("port", strconv.FormatUint(uint64(transfer.Port()), 10))
	q.Set("uploaded", strconv.FormatInt(transfer.BytesUploaded(), 10))
	q.Set("downloaded", strconv.FormatInt(transfer.BytesDownloaded(), 10))
	q.Set("left", strconv.FormatInt(transfer.BytesLeft(), 10))
	q.Set("compact", "1")
	q.Set("no_peer_id", "1")
	if e != tracker.EventNone {
		q.Set("event", e.String())
	}
	if t.trackerID != "" {
		q.Set("trackerid", t.trackerID)
	}

	u := *t.url
	u.RawQuery = q.Encode()
	t.log.Debugf("making request to: %q", u.String())

	var response announceResponse
	op := func() error {
		resp, err := t.http.Get(u.String())
		if err != nil {
			return fmt.Errorf("%w: %v", tracker.ErrNetwork, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			data, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(fmt.Errorf("status not 200 OK (status: %d body: %q)", resp.StatusCode, string(data)))
		}
		if err := bencode.NewDecoder(resp.Body).Decode(&response); err != nil {
			return backoff.Permanent(fmt.Errorf("cannot parse tracker response: %v", err))
		}
		return nil
	}
	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries)
	if err := backoff.Retry(op, b); err != nil {
		return nil, err
	}

	if response.WarningMessage != "" {
		t.log.Warning(response.WarningMessage)
	}
	if response.FailureReason != "" {
		return nil, tracker.Error(response.FailureReason)
	}
	if response.TrackerID != "" {
		t.trackerID = response.TrackerID
	}

	peers, err := parsePeers(response.Peers)
	if err != nil {
		return nil, err
	}

	return &tracker.AnnounceResponse{
		Interval: time.Duration(response.Interval) * time.Second,
		Leechers: response.Incomplete,
		Seeders:  response.Complete,
		Peers:    peers,
	}, nil
}

// Peers arrive either as one byte string of 6-byte records (compact=1) or as
// a list of dictionaries.
func parsePeers(raw bencode.RawMessage) ([]*net.TCPAddr, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	if raw[0] == 'l' {
		var peers []struct {
			IP   string `bencode:"ip"`
			Port uint16 `bencode:"port"`
		}
		if err := bencode.DecodeBytes(raw, &peers); err != nil {
			return nil, fmt.Errorf("cannot parse peer dictionaries: %v", err)
		}
		addrs := make([]*net.TCPAddr, 0, len(peers))
		for _, p := range peers {
			ip := net.ParseIP(p.IP)
			if ip == nil {
				continue
			}
			addrs = append(addrs, &net.TCPAddr{IP: ip, Port: int(p.Port)})
		}
		return addrs, nil
	}
	var b []byte
	if err := bencode.DecodeBytes(raw, &b); err != nil {
		return nil, fmt.Errorf("cannot parse compact peers: %v", err)
	}
	return tracker.DecodePeersCompact(b)
}

type announceResponse struct {
	FailureReason  string             `bencode:"failure reason"`
	WarningMessage string             `bencode:"warning message"`
	Interval       int32              `bencode:"interval"`
	MinInterval    int32              `bencode:"min interval"`
	TrackerID      string             `bencode:"tracker id"`
	Complete       int32              `bencode:"complete"`
	Incomplete     int32              `bencode:"incomplete"`
	Peers          bencode.RawMessage `bencode:"peers"`
}
