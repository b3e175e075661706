// Package piece models the piece grid of a torrent: the derived array of
// piece offsets, lengths and hashes, and the block subdivision of each piece.
package piece

import (
	"github.com/mistbt/mist/internal/sha1hash"
)

// BlockSize is the default length of a block, the sub-piece I/O unit.
const BlockSize = 16 * 1024

// Piece of a torrent.
type Piece struct {
	Index  uint32 // index in torrent
	Offset int64  // position of the first byte in the virtual byte space
	Length uint32 // equal to piece length except possibly the last piece
	Hash   sha1hash.Hash
}

// NewPieces builds the piece grid for a torrent of totalLength bytes split
// into pieces of pieceLength. len(hashes) must equal the piece count.
func NewPieces(totalLength int64, pieceLength uint32, hashes []sha1hash.Hash) []Piece {
	pieces := make([]Piece, len(hashes))
	var offset int64
	for i := range pieces {
		length := int64(pieceLength)
		if remaining := totalLength - offset; remaining < length {
			length = remaining
		}
		pieces[i] = Piece{
			Index:  uint32(i),
			Offset: offset,
			Length: uint32(length),
			Hash:   hashes[i],
		}
		offset += length
	}
	return pieces
}

// NumPieces returns ⌈totalLength / pieceLength⌉.
func NumPieces(totalLength int64, pieceLength uint32) uint32 {
	return uint32((totalLength + int64(pieceLength) - 1) / int64(pieceLength))
}

// NumBlocks returns the number of blocks in p for the given block size.
func (p *Piece) NumBlocks(blockSize uint32) uint32 {
	div, mod := p.Length/blockSize, p.Length%blockSize
	if mod != 0 {
		div++
	}
	return div
}

// BlockLength returns the length of block i of p. The last block may be
// short. Panics if i is out of range.
func (p *Piece) BlockLength(blockSize, i uint32) uint32 {
	n := p.NumBlocks(blockSize)
	if i >= n {
		panic("block index out of range")
	}
	if i != n-1 {
		return blockSize
	}
	if mod := p.Length % blockSize; mod != 0 {
		return mod
	}
	return blockSize
}

// BlockOffset returns the position of block i of p in the virtual byte space.
func (p *Piece) BlockOffset(blockSize, i uint32) int64 {
	return p.Offset + int64(i)*int64(blockSize)
}
