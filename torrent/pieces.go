package torrent

import "fmt"

// NumPieces returns the piece count.
func (t *Torrent) NumPieces() uint32 {
	return uint32(len(t.pieces))
}

// PieceLength returns the length of piece i. Every piece has the declared
// piece length except possibly the last one.
func (t *Torrent) PieceLength(i uint32) (uint32, error) {
	if i >= t.NumPieces() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPieceIndex, i)
	}
	return t.pieces[i].Length, nil
}

// PieceHash returns the expected hash of piece i.
func (t *Torrent) PieceHash(i uint32) ([20]byte, error) {
	if i >= t.NumPieces() {
		return [20]byte{}, fmt.Errorf("%w: %d", ErrInvalidPieceIndex, i)
	}
	return t.pieces[i].Hash, nil
}

// BlockCount returns the number of blocks in piece i.
func (t *Torrent) BlockCount(i uint32) (uint32, error) {
	if i >= t.NumPieces() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPieceIndex, i)
	}
	return t.pieces[i].NumBlocks(t.cfg.BlockLength), nil
}

// BlockLength returns the length of block b of piece i. Every block has the
// configured block length except possibly the last block of a piece.
func (t *Torrent) BlockLength(i, b uint32) (uint32, error) {
	if i >= t.NumPieces() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPieceIndex, i)
	}
	p := &t.pieces[i]
	if b >= p.NumBlocks(t.cfg.BlockLength) {
		return 0, fmt.Errorf("%w: piece %d block %d", ErrInvalidBlockIndex, i, b)
	}
	return p.BlockLength(t.cfg.BlockLength, b), nil
}

// ReadPiece reads piece i from disk. Regions backed by missing files read as
// zeroes.
func (t *Torrent) ReadPiece(i uint32) ([]byte, error) {
	if i >= t.NumPieces() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPieceIndex, i)
	}
	p := &t.pieces[i]
	return t.data.Read(p.Offset, int64(p.Length))
}

// ReadBlock reads block b of piece i from disk.
func (t *Torrent) ReadBlock(i, b uint32) ([]byte, error) {
	if i >= t.NumPieces() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPieceIndex, i)
	}
	p := &t.pieces[i]
	if b >= p.NumBlocks(t.cfg.BlockLength) {
		return nil, fmt.Errorf("%w: piece %d block %d", ErrInvalidBlockIndex, i, b)
	}
	return t.data.Read(p.BlockOffset(t.cfg.BlockLength, b), int64(p.BlockLength(t.cfg.BlockLength, b)))
}
