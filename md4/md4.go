// Package md4 implements the MD4 message digest (RFC 1320), plus a
// four-messages-at-once variant for hashing equal-length messages.
//
// rdiff uses MD4 purely as an equality filter on top of the rolling
// checksum, never as a security primitive — callers that need authenticated
// integrity must verify reconstructed output with something else.
package md4

import (
	"encoding/binary"
	"math/bits"

	"github.com/faircrest/rdiff/internal/cpufeatures"
)

// Size is the length, in bytes, of an MD4 digest.
const Size = 16

// BlockSize is the size, in bytes, of an MD4 input block.
const BlockSize = 64

var initState = [4]uint32{0x67452301, 0xefcdab89, 0x98badcfe, 0x10325476}

// Sum returns the MD4 digest of data.
func Sum(data []byte) [Size]byte {
	s := initState
	orig := len(data)

	for len(data) >= BlockSize {
		processBlock(&s, data[:BlockSize])
		data = data[BlockSize:]
	}

	tail := padTail(data, orig)
	for len(tail) > 0 {
		processBlock(&s, tail[:BlockSize])
		tail = tail[BlockSize:]
	}

	return encodeState(s)
}

// padTail appends MD4 padding (a 0x80 byte, zero fill, and the bit length)
// to the final, sub-block-size remainder of the message.
func padTail(data []byte, totalLen int) []byte {
	var tail []byte
	tail = append(tail, data...)
	tail = append(tail, 0x80)
	for len(tail)%BlockSize != 56 {
		tail = append(tail, 0)
	}
	var lenBytes [8]byte
	binary.LittleEndian.PutUint64(lenBytes[:], uint64(totalLen)*8)
	return append(tail, lenBytes[:]...)
}

func encodeState(s [4]uint32) [Size]byte {
	var out [Size]byte
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*4:i*4+4], v)
	}
	return out
}

// SumFour hashes four independent, equal-length byte slices "in parallel":
// it advances all four MD4 states round-by-round in one shared loop rather
// than calling Sum four times sequentially. This is dispatched on the
// detected CPU feature tier (see internal/cpufeatures) purely as a
// performance choice — the lane-interleaved and plain-scalar paths must
// (and, by construction here, do) produce bit-identical output.
//
// All four inputs must have the same length (any length, including zero);
// SumFour does not require block alignment. Because every lane has the
// same total length, the MD4 padding it appends has the same shape (same
// number of padding blocks) in every lane, which is what makes it possible
// to interleave the padding block(s) across lanes along with the body.
func SumFour(blocks [4][]byte) [4][Size]byte {
	n := len(blocks[0])
	for _, b := range blocks {
		if len(b) != n {
			panic("md4: SumFour requires four equal-length inputs")
		}
	}

	if cpufeatures.Detected() == cpufeatures.TierScalar {
		return sumFourScalar(blocks)
	}
	return sumFourInterleaved(blocks)
}

func sumFourScalar(blocks [4][]byte) [4][Size]byte {
	var out [4][Size]byte
	for i, b := range blocks {
		out[i] = Sum(b)
	}
	return out
}

// sumFourInterleaved processes the four messages' full 64-byte blocks one
// block at a time, keeping all four (a,b,c,d) register sets live
// simultaneously and advancing them together, then pads and processes the
// shared-shape tail the same way. On a real SIMD-capable build this loop
// body is exactly what a compiler's autovectorizer (or a hand-written
// AVX2/NEON kernel) would turn into four-lane vector ops; written in
// portable Go it's still four independent scalar pipelines with no data
// dependency between them.
func sumFourInterleaved(blocks [4][]byte) [4][Size]byte {
	states := [4][4]uint32{initState, initState, initState, initState}
	n := len(blocks[0])

	full := n - n%BlockSize
	for off := 0; off < full; off += BlockSize {
		var words [4][16]uint32
		for lane := 0; lane < 4; lane++ {
			loadWords(&words[lane], blocks[lane][off:off+BlockSize])
		}
		for lane := 0; lane < 4; lane++ {
			processWords(&states[lane], &words[lane])
		}
	}

	var tails [4][]byte
	for lane := 0; lane < 4; lane++ {
		tails[lane] = padTail(blocks[lane][full:], n)
	}
	tailLen := len(tails[0])
	for off := 0; off < tailLen; off += BlockSize {
		var words [4][16]uint32
		for lane := 0; lane < 4; lane++ {
			loadWords(&words[lane], tails[lane][off:off+BlockSize])
		}
		for lane := 0; lane < 4; lane++ {
			processWords(&states[lane], &words[lane])
		}
	}

	var out [4][Size]byte
	for lane := 0; lane < 4; lane++ {
		out[lane] = encodeState(states[lane])
	}
	return out
}

func loadWords(words *[16]uint32, block []byte) {
	for i := 0; i < 16; i++ {
		words[i] = binary.LittleEndian.Uint32(block[i*4 : i*4+4])
	}
}

func processBlock(s *[4]uint32, block []byte) {
	var words [16]uint32
	loadWords(&words, block)
	processWords(s, &words)
}

func f(x, y, z uint32) uint32 { return (x & y) | (^x & z) }
func g(x, y, z uint32) uint32 { return (x & y) | (x & z) | (y & z) }
func h(x, y, z uint32) uint32 { return x ^ y ^ z }

var round2Order = [16]int{0, 4, 8, 12, 1, 5, 9, 13, 2, 6, 10, 14, 3, 7, 11, 15}
var round3Order = [16]int{0, 8, 4, 12, 2, 10, 6, 14, 1, 9, 5, 13, 3, 11, 7, 15}

var shift1 = [4]uint{3, 7, 11, 19}
var shift2 = [4]uint{3, 5, 9, 13}
var shift3 = [4]uint{3, 9, 11, 15}

func processWords(s *[4]uint32, x *[16]uint32) {
	a, b, c, d := s[0], s[1], s[2], s[3]

	for i := 0; i < 16; i++ {
		sh := shift1[i%4]
		switch i % 4 {
		case 0:
			a = bits.RotateLeft32(a+f(b, c, d)+x[i], int(sh))
		case 1:
			d = bits.RotateLeft32(d+f(a, b, c)+x[i], int(sh))
		case 2:
			c = bits.RotateLeft32(c+f(d, a, b)+x[i], int(sh))
		case 3:
			b = bits.RotateLeft32(b+f(c, d, a)+x[i], int(sh))
		}
	}

	const k2 = 0x5a827999
	for idx, i := range round2Order {
		sh := shift2[idx%4]
		switch idx % 4 {
		case 0:
			a = bits.RotateLeft32(a+g(b, c, d)+x[i]+k2, int(sh))
		case 1:
			d = bits.RotateLeft32(d+g(a, b, c)+x[i]+k2, int(sh))
		case 2:
			c = bits.RotateLeft32(c+g(d, a, b)+x[i]+k2, int(sh))
		case 3:
			b = bits.RotateLeft32(b+g(c, d, a)+x[i]+k2, int(sh))
		}
	}

	const k3 = 0x6ed9eba1
	for idx, i := range round3Order {
		sh := shift3[idx%4]
		switch idx % 4 {
		case 0:
			a = bits.RotateLeft32(a+h(b, c, d)+x[i]+k3, int(sh))
		case 1:
			d = bits.RotateLeft32(d+h(a, b, c)+x[i]+k3, int(sh))
		case 2:
			c = bits.RotateLeft32(c+h(d, a, b)+x[i]+k3, int(sh))
		case 3:
			b = bits.RotateLeft32(b+h(c, d, a)+x[i]+k3, int(sh))
		}
	}

	s[0] += a
	s[1] += b
	s[2] += c
	s[3] += d
}
