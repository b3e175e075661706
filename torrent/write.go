package torrent

import (
	"fmt"

	"github.com/mistbt/mist/internal/counters"
	"github.com/mistbt/mist/internal/sha1hash"
)

// SetPieceVerifiedCallback registers fn to be called after every piece
// verification. There is a single callback per torrent; passing nil removes
// it. The callback runs synchronously on the goroutine that completed the
// verification, outside the piece guard, and must not write to the piece it
// was called for.
func (t *Torrent) SetPieceVerifiedCallback(fn PieceVerifiedFunc) {
	t.cbM.Lock()
	t.verifiedCb = fn
	t.cbM.Unlock()
}

func (t *Torrent) pieceVerifiedCallback() PieceVerifiedFunc {
	t.cbM.Lock()
	defer t.cbM.Unlock()
	return t.verifiedCb
}

// WriteBlock stores one block of a piece. len(data) must equal the block's
// length. Writing a block that is already acquired is a no-op. When the last
// missing block of the piece arrives the piece is read back from disk,
// hashed and compared against the expected hash: on a match the piece
// becomes verified, on a mismatch all of the piece's blocks are reset to
// missing. Both outcomes are reported through the verified callback; a hash
// mismatch is not an error of this method.
func (t *Torrent) WriteBlock(i, b uint32, data []byte) error {
	if i >= t.NumPieces() {
		return fmt.Errorf("%w: %d", ErrInvalidPieceIndex, i)
	}
	p := &t.pieces[i]
	if b >= p.NumBlocks(t.cfg.BlockLength) {
		return fmt.Errorf("%w: piece %d block %d", ErrInvalidBlockIndex, i, b)
	}
	if blockLen := p.BlockLength(t.cfg.BlockLength, b); uint32(len(data)) != blockLen {
		return fmt.Errorf("%w: block %d of piece %d is %d bytes, got %d", ErrInvalidParameter, b, i, blockLen, len(data))
	}

	t.guards[i].Lock()
	if t.verified.Test(i) {
		t.guards[i].Unlock()
		return fmt.Errorf("%w: piece %d", ErrAlreadyVerified, i)
	}
	if t.acquired[i].Test(b) {
		// Idempotent, does not trigger re-verification.
		t.guards[i].Unlock()
		return nil
	}
	if err := t.data.Write(p.BlockOffset(t.cfg.BlockLength, b), data); err != nil {
		// The acquired bit stays clear, the piece keeps its prior state.
		t.guards[i].Unlock()
		return err
	}
	t.acquired[i].Set(b)
	if !t.acquired[i].All() {
		t.guards[i].Unlock()
		return nil
	}

	// Last missing block arrived. Verify from disk so corruption between
	// write and check is caught.
	ok, err := t.verifyPiece(i, nil)
	t.guards[i].Unlock()
	if err != nil {
		return err
	}
	t.notifyVerified(i, ok)
	return nil
}

// WritePiece stores a whole piece at once. len(data) must equal the piece
// length. The hash check runs directly on data, skipping the disk read-back.
// As with WriteBlock, the result is reported through the verified callback.
func (t *Torrent) WritePiece(i uint32, data []byte) error {
	if i >= t.NumPieces() {
		return fmt.Errorf("%w: %d", ErrInvalidPieceIndex, i)
	}
	p := &t.pieces[i]
	if uint32(len(data)) != p.Length {
		return fmt.Errorf("%w: piece %d is %d bytes, got %d", ErrInvalidParameter, i, p.Length, len(data))
	}

	t.guards[i].Lock()
	if t.verified.Test(i) {
		t.guards[i].Unlock()
		return fmt.Errorf("%w: piece %d", ErrAlreadyVerified, i)
	}
	if err := t.data.Write(p.Offset, data); err != nil {
		t.guards[i].Unlock()
		return err
	}
	for b := uint32(0); b < t.acquired[i].Len(); b++ {
		t.acquired[i].Set(b)
	}
	ok, err := t.verifyPiece(i, data)
	t.guards[i].Unlock()
	if err != nil {
		return err
	}
	t.notifyVerified(i, ok)
	return nil
}

// verifyPiece checks piece i against its expected hash and applies the state
// transition. The piece guard must be held. With data nil the piece is read
// back through the file map.
func (t *Torrent) verifyPiece(i uint32, data []byte) (bool, error) {
	p := &t.pieces[i]
	if data == nil {
		var err error
		data, err = t.data.Read(p.Offset, int64(p.Length))
		if err != nil {
			return false, err
		}
	}
	if sha1hash.Sum(data) == p.Hash {
		t.verified.Set(i)
		t.addVerified(p)
		return true, nil
	}
	t.log.Infof("hash of piece %d does not match", i)
	t.acquired[i].ClearAll()
	t.stats.Incr(counters.BytesWasted, int64(p.Length))
	return false, nil
}

func (t *Torrent) notifyVerified(i uint32, ok bool) {
	if fn := t.pieceVerifiedCallback(); fn != nil {
		fn(i, ok)
	}
}
