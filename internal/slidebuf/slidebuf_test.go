package slidebuf

import "bytes"
import "testing"

// blockOracle tracks the same "last blockSize bytes written" semantics as
// Window.Block, with a naive append-everything slice, to check Window's
// allocation-free bookkeeping against arbitrary write patterns.
type blockOracle struct {
	blockSize int
	all       []byte
}

func (o *blockOracle) write(b []byte) {
	o.all = append(o.all, b...)
}

func (o *blockOracle) block() []byte {
	n := o.blockSize
	if len(o.all) < n {
		n = len(o.all)
	}
	return o.all[len(o.all)-n:]
}

// TestWindowMatchesOracleByteByByte drives Window the way
// rollsum.RollingHash.Roll does: one byte at a time, well past the point
// where the internal staggered buffers have wrapped around multiple
// times, checking Block against a naive oracle after every byte, and
// Evicted once the window has filled (the only point at which Roll
// actually reads it).
func TestWindowMatchesOracleByteByByte(t *testing.T) {
	const blockSize = 6
	w := New(blockSize)
	oracle := &blockOracle{blockSize: blockSize}

	data := make([]byte, blockSize*20+3)
	for i := range data {
		data[i] = byte(i*37 + 11)
	}

	for i, b := range data {
		full := len(oracle.all) >= blockSize
		var wantEvicted byte
		if full {
			wantEvicted = oracle.all[len(oracle.all)-blockSize]
		}

		oracle.write([]byte{b})
		w.Write([]byte{b})

		if !bytes.Equal(w.Block(), oracle.block()) {
			t.Fatalf("byte %d: Block() = %v, want %v", i, w.Block(), oracle.block())
		}
		if full {
			if ev := w.Evicted(); len(ev) != 1 || ev[0] != wantEvicted {
				t.Fatalf("byte %d: Evicted() = %v, want [%d]", i, ev, wantEvicted)
			}
		}
	}
}

// TestWindowMatchesOracleMixedWriteSizes drives Window the way
// rollsum.RollingHash.Write does: whole chunks of varying, sometimes
// larger-than-block, lengths, repeated enough times to cross the internal
// buffer's wrap boundary several times over. Only Block is checked here,
// matching Write's actual use of the window (it never reads Evicted).
func TestWindowMatchesOracleMixedWriteSizes(t *testing.T) {
	const blockSize = 5
	w := New(blockSize)
	oracle := &blockOracle{blockSize: blockSize}

	sizes := []int{1, 2, 5, 3, 7, 1, 11, 4, 5, 6, 1, 1, 9, 13}
	next := byte(0)
	for round, n := range sizes {
		b := make([]byte, n)
		for i := range b {
			b[i] = next
			next++
		}

		oracle.write(b)
		w.Write(b)

		if !bytes.Equal(w.Block(), oracle.block()) {
			t.Fatalf("round %d (write len %d): Block() = %v, want %v", round, n, w.Block(), oracle.block())
		}
	}
}

// TestWriteAcrossWrapBoundary forces a single Write call whose bytes span
// the staggered buffer's wrap point: fill the window to within a couple
// of bytes of the internal buffer's end, then issue one write long enough
// that staggeredBuffer.write must copy in two pieces, the first ending
// exactly at the buffer boundary and the second resuming at offset zero.
// A copy loop that (incorrectly) kept slicing from the start of the
// original input argument on each iteration, instead of advancing through
// the shrinking remainder, would repeat the boundary bytes instead of
// continuing the sequence — exactly the bug class this test is meant to
// catch. The wrapping write is kept no longer than blockSize, matching
// RollingHash's own usage, since Evicted is only meaningful for writes
// that don't exceed the window they're displacing bytes from.
func TestWriteAcrossWrapBoundary(t *testing.T) {
	const blockSize = 4
	w := New(blockSize)
	oracle := &blockOracle{blockSize: blockSize}

	// The internal buffers are blockSize*2 long; get the head to
	// blockSize*2-2 so the next write must wrap.
	lead := make([]byte, blockSize*2-2)
	for i := range lead {
		lead[i] = byte(i + 1)
	}
	oracle.write(lead)
	w.Write(lead)

	preWindow := append([]byte{}, oracle.block()...)

	wrapping := []byte{200, 201, 203}
	oracle.write(wrapping)
	w.Write(wrapping)

	if !bytes.Equal(w.Block(), oracle.block()) {
		t.Fatalf("after wrapping write: Block() = %v, want %v", w.Block(), oracle.block())
	}

	wantEvicted := preWindow[:len(wrapping)]
	if ev := w.Evicted(); !bytes.Equal(ev, wantEvicted) {
		t.Fatalf("after wrapping write: Evicted() = %v, want %v", ev, wantEvicted)
	}
}

func TestResetClearsWindow(t *testing.T) {
	w := New(4)
	w.Write([]byte{1, 2, 3, 4, 5, 6})
	w.Reset()
	if len(w.Block()) != 0 {
		t.Fatalf("after Reset: Block() = %v, want empty", w.Block())
	}
	w.Write([]byte{9, 9, 9})
	if !bytes.Equal(w.Block(), []byte{9, 9, 9}) {
		t.Fatalf("after Reset and rewrite: Block() = %v", w.Block())
	}
}

// BenchmarkRollByte exercises the allocation-free path RollingHash.Roll
// relies on: many single-byte writes in a row, each followed by an
// Evicted read.
func BenchmarkRollByte(b *testing.B) {
	w := New(64)
	w.Write(make([]byte, 64))
	b.ReportAllocs()

	single := []byte{0}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w.Write(single)
		_ = w.Evicted()
	}
}
