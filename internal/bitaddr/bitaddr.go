// Package bitaddr provides the mutable bit view over an IP address that
// the tree walker advances bit by bit, plus the in-place manipulation
// the hole-fallback algorithm needs: clearing the most recent set bit at
// or before a position and setting every bit after it.
package bitaddr

import "net/netip"

// MaxBits is the largest Len() any address can report (IPv6's 128
// bits), used to size fixed back-pointer arrays in the tree walker.
const MaxBits = 128

// Bits is a mutable, big-endian bit view over a 4-byte (IPv4) or
// 16-byte (IPv6) address. Bit 0 is the most significant bit of the
// first byte.
type Bits struct {
	b   []byte
	len int // number of significant bits: 32 or 128
}

// From builds a Bits view over addr, which must already have been
// unmapped (see netip.Addr.Unmap) so Is4/Is6 reflect the caller's
// intended family.
func From(addr netip.Addr) *Bits {
	if addr.Is4() {
		a := addr.As4()
		b := make([]byte, 4)
		copy(b, a[:])
		return &Bits{b: b, len: 32}
	}
	a := addr.As16()
	b := make([]byte, 16)
	copy(b, a[:])
	return &Bits{b: b, len: 128}
}

// Len returns the number of significant bits (32 or 128).
func (a *Bits) Len() int {
	return a.len
}

// At reports the bit at position i (0 = most significant bit).
func (a *Bits) At(i int) bool {
	return a.b[i/8]&(0x80>>uint(i%8)) != 0
}

func (a *Bits) set(i int, v bool) {
	mask := byte(0x80 >> uint(i%8))
	if v {
		a.b[i/8] |= mask
	} else {
		a.b[i/8] &^= mask
	}
}

// Backtrack implements the hole-fallback bit rewrite: scanning from
// position down to 0 for the nearest set bit, it clears that bit and
// sets every bit after it through the end of the address, then returns
// the position of the bit it cleared. ok is false if no set bit exists
// at or before position, meaning the lookup has no answer.
func (a *Bits) Backtrack(position int) (newPosition int, ok bool) {
	for k := position; k >= 0; k-- {
		if a.At(k) {
			a.set(k, false)
			for j := k + 1; j < a.len; j++ {
				a.set(j, true)
			}
			return k, true
		}
	}
	return 0, false
}
