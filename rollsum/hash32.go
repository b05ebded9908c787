package rollsum

import (
	"github.com/chmduquesne/rollinghash"

	"github.com/faircrest/rdiff/internal/slidebuf"
)

// RollingHash adapts Checksum to hash.Hash32 plus Roll, so that code already
// written against github.com/chmduquesne/rollinghash's Hash32 interface
// (streaming scanners, tests, benchmarks) can use the rsync rolling
// checksum as a drop-in. diff's hot loop does not use this type directly —
// it calls Fresh/Rotate on bare Checksum values to avoid the window's
// bookkeeping overhead — but RollingHash is the public, idiomatic way to
// use this package incrementally.
type RollingHash struct {
	blockSize int
	window    *slidebuf.Window
	sum       Checksum
}

var _ rollinghash.Hash32 = (*RollingHash)(nil)

// New returns a RollingHash with the given window (block) size.
func New(blockSize int) *RollingHash {
	return &RollingHash{
		blockSize: blockSize,
		window:    slidebuf.New(blockSize),
	}
}

// Write adds p to the hash, exactly like hash.Hash.Write: it is equivalent
// to calling Roll for every byte that shifts out of the window, but is
// implemented as a fresh computation over the resulting window for
// efficiency when p is a whole block.
func (h *RollingHash) Write(p []byte) (int, error) {
	h.window.Write(p)
	h.sum = Fresh(h.window.Block())
	return len(p), nil
}

// Roll updates the hash for one byte entering the window.
func (h *RollingHash) Roll(b byte) {
	evictedLen := len(h.window.Block())
	h.window.Write([]byte{b})
	if evictedLen < h.blockSize {
		// window was not yet full: no byte left, so this is equivalent to Write
		h.sum = Fresh(h.window.Block())
		return
	}
	evicted := h.window.Evicted()
	h.sum = h.sum.Rotate(h.blockSize, evicted[0], b)
}

// Sum32 returns the current checksum value.
func (h *RollingHash) Sum32() uint32 { return h.sum.Sum32() }

// Sum appends the big-endian encoding of the current checksum to b.
func (h *RollingHash) Sum(b []byte) []byte {
	var tmp [4]byte
	h.sum.PutSum32(tmp[:])
	return append(b, tmp[:]...)
}

// Reset clears the hash back to its initial state.
func (h *RollingHash) Reset() {
	h.window.Reset()
	h.sum = 0
}

// Size returns the number of bytes Sum will append: always 4.
func (h *RollingHash) Size() int { return 4 }

// BlockSize returns the window size this hash was created with.
func (h *RollingHash) BlockSize() int { return h.blockSize }
