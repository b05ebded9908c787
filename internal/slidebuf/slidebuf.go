// Package slidebuf provides an allocation-free sliding window over a byte
// stream, sized to exactly one rolling-checksum block.
//
// It exists because rollsum.RollingHash needs to know, on every byte that
// slides out of the window, what that byte's value was — without paying for
// a slice reallocation on every Roll call. The trick (taken from the
// teacher's circularbuffer.C2) is to keep two offset copies of the window,
// staggered by half a buffer, so that both "current window" and "bytes just
// evicted" are always available as a single contiguous slice.
package slidebuf

// Window holds the last blockSize bytes written to it, and can report
// exactly which bytes were evicted by the most recent Write.
//
// It keeps two staggered buffers, each blockSize*2 long, so a contiguous
// view of either the current window or the evicted bytes is always
// available without allocating on the hot path.
type Window struct {
	blockSize    int
	lastWritten  int
	totalWritten int
	copies       [2]staggeredBuffer
}

type staggeredBuffer struct {
	head   int
	offset int
	buf    []byte
}

// New returns a Window that tracks the last blockSize bytes written to it.
func New(blockSize int) *Window {
	w := &Window{blockSize: blockSize}
	w.copies[0] = staggeredBuffer{buf: make([]byte, blockSize*2)}
	w.copies[1] = staggeredBuffer{head: blockSize, offset: blockSize, buf: make([]byte, blockSize*2)}
	return w
}

// Reset returns the window to its empty state, reusing its storage.
func (w *Window) Reset() {
	for i := range w.copies {
		w.copies[i].head = w.copies[i].offset
	}
	w.lastWritten = 0
	w.totalWritten = 0
}

// Write appends b to the window, evicting the oldest bytes once the window
// has filled to blockSize.
func (w *Window) Write(b []byte) {
	w.copies[0].write(b)
	w.copies[1].write(b)
	w.lastWritten = len(b)
	w.totalWritten += w.lastWritten
}

// Block returns the current window contents, oldest byte first. Its length
// is min(blockSize, total bytes written so far).
func (w *Window) Block() []byte {
	src := w.contiguousCopy()
	n := w.blockSize
	if w.totalWritten < n {
		n = w.totalWritten
	}
	return src.buf[src.head-n : src.head]
}

// Evicted returns the bytes displaced by the most recent Write, oldest
// first. Its length equals the length of the slice passed to that Write.
func (w *Window) Evicted() []byte {
	src := w.contiguousCopy()
	if src == &w.copies[0] {
		src = &w.copies[1]
	} else {
		src = &w.copies[0]
	}
	return src.buf[src.head+w.blockSize-w.lastWritten : src.head+w.blockSize]
}

// contiguousCopy picks whichever staggered buffer currently holds the
// window contiguously (the one furthest from wrapping around).
func (w *Window) contiguousCopy() *staggeredBuffer {
	if w.copies[1].head > w.copies[0].head {
		return &w.copies[1]
	}
	return &w.copies[0]
}

func (s *staggeredBuffer) write(b []byte) {
	for len(b) > 0 {
		room := len(s.buf) - s.head
		n := len(b)
		if n > room {
			n = room
		}
		copy(s.buf[s.head:s.head+n], b[:n])
		s.head += n
		if s.head == len(s.buf) {
			s.head = 0
		}
		b = b[n:]
	}
}
