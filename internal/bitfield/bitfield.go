// Package bitfield provides a fixed-length bit vector for tracking acquired
// blocks and verified pieces.
package bitfield

import "encoding/hex"

// Bitfield is a fixed-length vector of bits.
type Bitfield struct {
	b      []byte
	length uint32
}

// New creates a new Bitfield of length bits, all clear.
func New(length uint32) *Bitfield {
	return &Bitfield{
		b:      make([]byte, (length+7)/8),
		length: length,
	}
}

// NewBytes returns a new Bitfield of length bits backed by a copy of b.
// Unused bits in the last byte are cleared. Returns nil if b is too short.
func NewBytes(b []byte, length uint32) *Bitfield {
	div, mod := divMod32(length, 8)
	required := div
	if mod != 0 {
		required++
	}
	if uint32(len(b)) < required {
		return nil
	}
	bf := &Bitfield{
		b:      make([]byte, required),
		length: length,
	}
	copy(bf.b, b)
	if mod != 0 {
		bf.b[required-1] &= ^byte(0xff >> mod)
	}
	return bf
}

// Bytes returns the underlying bytes. Mutating the returned slice mutates the bits.
func (b *Bitfield) Bytes() []byte { return b.b }

// Len returns the number of bits.
func (b *Bitfield) Len() uint32 { return b.length }

// Hex returns the bytes as a hex string.
func (b *Bitfield) Hex() string { return hex.EncodeToString(b.b) }

// Set bit i. 0 is the most significant bit. Panics if i >= b.Len().
func (b *Bitfield) Set(i uint32) {
	b.checkIndex(i)
	div, mod := divMod32(i, 8)
	b.b[div] |= 1 << (7 - mod)
}

// Clear bit i. Panics if i >= b.Len().
func (b *Bitfield) Clear(i uint32) {
	b.checkIndex(i)
	div, mod := divMod32(i, 8)
	b.b[div] &= ^(1 << (7 - mod))
}

// ClearAll clears all bits.
func (b *Bitfield) ClearAll() {
	for i := range b.b {
		b.b[i] = 0
	}
}

// Test returns true if bit i is set. Panics if i >= b.Len().
func (b *Bitfield) Test(i uint32) bool {
	b.checkIndex(i)
	div, mod := divMod32(i, 8)
	return (b.b[div] & (1 << (7 - mod))) > 0
}

// Count returns the number of set bits.
func (b *Bitfield) Count() uint32 {
	var total uint32
	for _, v := range b.b {
		total += uint32(popCount[v])
	}
	return total
}

// All returns true if every bit is set.
func (b *Bitfield) All() bool {
	return b.Count() == b.length
}

// Copy returns an independent copy of b.
func (b *Bitfield) Copy() *Bitfield {
	c := New(b.length)
	copy(c.b, b.b)
	return c
}

func (b *Bitfield) checkIndex(i uint32) {
	if i >= b.Len() {
		panic("index out of bound")
	}
}

var popCount = [256]byte{
	0, 1, 1, 2, 1, 2, 2, 3, 1, 2, 2, 3, 2, 3, 3, 4,
	1, 2, 2, 3, 2, 3, 3, 4, 2, 3, 3, 4, 3, 4, 4, 5,
	1, 2, 2, 3, 2, 3, 3, 4, 2, 3, 3, 4, 3, 4, 4, 5,
	2, 3, 3, 4, 3, 4, 4, 5, 3, 4, 4, 5, 4, 5, 5, 6,
	1, 2, 2, 3, 2, 3, 3, 4, 2, 3, 3, 4, 3, 4, 4, 5,
	2, 3, 3, 4, 3, 4, 4, 5, 3, 4, 4, 5, 4, 5, 5, 6,
	2, 3, 3, 4, 3, 4, 4, 5, 3, 4, 4, 5, 4, 5, 5, 6,
	3, 4, 4, 5, 4, 5, 5, 6, 4, 5, 5, 6, 5, 6, 6, 7,
	1, 2, 2, 3, 2, 3, 3, 4, 2, 3, 3, 4, 3, 4, 4, 5,
	2, 3, 3, 4, 3, 4, 4, 5, 3, 4, 4, 5, 4, 5, 5, 6,
	2, 3, 3, 4, 3, 4, 4, 5, 3, 4, 4, 5, 4, 5, 5, 6,
	3, 4, 4, 5, 4, 5, 5, 6, 4, 5, 5, 6, 5, 6, 6, 7,
	2, 3, 3, 4, 3, 4, 4, 5, 3, 4, 4, 5, 4, 5, 5, 6,
	3, 4, 4, 5, 4, 5, 5, 6, 4, 5, 5, 6, 5, 6, 6, 7,
	3, 4, 4, 5, 4, 5, 5, 6, 4, 5, 5, 6, 5, 6, 6, 7,
	4, 5, 5, 6, 5, 6, 6, 7, 5, 6, 6, 7, 6, 7, 7, 8,
}

func divMod32(a, b uint32) (uint32, uint32) { return a / b, a % b }
