// Package rollsum implements the librsync-compatible 32-bit rolling
// checksum: two 16-bit running sums, packed as (b<<16)|a, computed over a
// sliding window with CHAR_OFFSET=31 folded in for historical
// wire-compatibility with rsync's own rollsum.
package rollsum

import (
	"encoding/binary"

	"github.com/faircrest/rdiff/internal/cpufeatures"
)

// charOffset is added into every byte's contribution so that an
// all-zero window doesn't hash to zero. librsync has used 31 since its
// earliest rollsum implementation; changing it would break wire
// compatibility, so it is not configurable.
const charOffset = 31

// wideThreshold is the smallest window size for which the widened fresh-sum
// path pays for its own bookkeeping.
const wideThreshold = 32

// Checksum is the packed 32-bit rolling checksum value, (b<<16)|a.
type Checksum uint32

// Fresh computes the checksum of window from scratch, in O(len(window)).
// On CPU tiers with wide vector registers it accumulates the two running
// sums across four interleaved partial accumulators before folding them
// together; because both a and b are sums taken modulo 2^16, addition is
// commutative and associative in that ring regardless of grouping, so the
// widened and plain paths are guaranteed identical, not just tested as such.
func Fresh(window []byte) Checksum {
	if cpufeatures.Detected() != cpufeatures.TierScalar && len(window) >= wideThreshold {
		return freshWide(window)
	}
	return freshScalar(window)
}

func freshScalar(window []byte) Checksum {
	n := uint32(len(window))
	var s1, s2 uint16

	for i, by := range window {
		s1 += uint16(by)
		s2 += uint16(by) * uint16(n-uint32(i))
	}
	s1 += uint16(n) * charOffset
	s2 += triangular(n) * charOffset

	return combine(s1, s2)
}

// triangular returns n*(n+1)/2 truncated to 16 bits, matching the
// cast-then-multiply order of the reference rollsum implementation.
func triangular(n uint32) uint16 {
	return uint16(n * (n + 1) / 2)
}

// freshWide computes the same sums as freshScalar but walks the window in
// four interleaved strides, each maintaining its own partial (s1, s2) pair,
// then merges the four partials at the end.
func freshWide(window []byte) Checksum {
	n := uint32(len(window))
	const lanes = 4

	var s1 [lanes]uint16
	var s2 [lanes]uint16

	for i, by := range window {
		lane := i % lanes
		s1[lane] += uint16(by)
		s2[lane] += uint16(by) * uint16(uint32(n)-uint32(i))
	}

	var totalS1, totalS2 uint16
	for l := 0; l < lanes; l++ {
		totalS1 += s1[l]
		totalS2 += s2[l]
	}
	totalS1 += uint16(n) * charOffset
	totalS2 += triangular(n) * charOffset

	return combine(totalS1, totalS2)
}

// Rotate slides the window by one byte: oldByte leaves the front of the
// window, newByte joins the back. windowLen is the length of the window
// before the slide (i.e. the block size). This is O(1).
func (c Checksum) Rotate(windowLen int, oldByte, newByte byte) Checksum {
	s1, s2 := c.split()
	size := uint16(windowLen)
	old := uint16(oldByte)

	s1 = s1 + uint16(newByte) - old
	s2 = s2 + s1 - size*(old+charOffset)

	return combine(s1, s2)
}

// Sum32 returns the packed 32-bit checksum value.
func (c Checksum) Sum32() uint32 { return uint32(c) }

// PutSum32 writes the big-endian wire encoding of c into b, which must be
// at least 4 bytes long.
func (c Checksum) PutSum32(b []byte) {
	binary.BigEndian.PutUint32(b, uint32(c))
}

// FromBytes reads a big-endian wire-encoded checksum.
func FromBytes(b []byte) Checksum {
	return Checksum(binary.BigEndian.Uint32(b))
}

func (c Checksum) split() (uint16, uint16) {
	return uint16(c), uint16(c >> 16)
}

func combine(s1, s2 uint16) Checksum {
	return Checksum(uint32(s1) | uint32(s2)<<16)
}
