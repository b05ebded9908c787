// Package delta implements the librsync delta wire format: the opcode
// stream of LITERAL, COPY, and END commands that a diff encodes and a
// patch applier walks.
package delta

// Magic identifies the delta wire format.
const Magic uint32 = 0x72730236

// Command bytes, per librsync's legacy opcode table.
const (
	OpEnd = 0x00

	// Literal length is packed directly into the opcode for lengths 1..64.
	OpLiteral1  = 0x01
	OpLiteral64 = 0x40

	// Beyond 64 bytes, the opcode names the width of a following
	// big-endian length field (1, 2, 4, or 8 bytes).
	OpLiteralN1 = 0x41
	OpLiteralN2 = 0x42
	OpLiteralN4 = 0x43
	OpLiteralN8 = 0x44

	// Copy opcodes name the widths of a following (offset, length) pair,
	// each independently 1, 2, 4, or 8 bytes: OpCopyN1N1 + 4*offsetWidth +
	// lengthWidth, where width indices are {1:0, 2:1, 4:2, 8:3}.
	OpCopyN1N1 = 0x45
	OpCopyN8N8 = 0x54
)

// varintWidth returns the number of bytes needed to encode val and the
// width index (0..3) used to select an opcode variant.
func varintWidth(val uint64) (width int, index byte) {
	switch {
	case val <= 0xff:
		return 1, 0
	case val <= 0xffff:
		return 2, 1
	case val <= 0xffffffff:
		return 4, 2
	default:
		return 8, 3
	}
}

func putVarint(out []byte, val uint64, width int) {
	for i := 0; i < width; i++ {
		shift := 8 * (width - 1 - i)
		out[i] = byte(val >> uint(shift))
	}
}

// AppendLiteral appends a LITERAL command for n bytes (the bytes
// themselves are not written here; callers append them separately). n
// must be nonzero.
func AppendLiteral(out []byte, n uint64) []byte {
	if n == 0 {
		panic("delta: literal length must be nonzero")
	}
	switch {
	case n <= 64:
		return append(out, OpLiteral1+byte(n-1))
	case n <= 0xff:
		return append(out, OpLiteralN1, byte(n))
	case n <= 0xffff:
		return append(out, OpLiteralN2, byte(n>>8), byte(n))
	case n <= 0xffffffff:
		return append(out, OpLiteralN4, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
	default:
		var b [8]byte
		putVarint(b[:], n, 8)
		return append(append(out, OpLiteralN8), b[:]...)
	}
}

// AppendCopy appends a COPY command for the given base-data offset and
// length.
func AppendCopy(out []byte, offset, length uint64) []byte {
	offsetWidth, offsetIdx := varintWidth(offset)
	lengthWidth, lengthIdx := varintWidth(length)

	op := byte(OpCopyN1N1) + offsetIdx*4 + lengthIdx
	out = append(out, op)

	var buf [8]byte
	putVarint(buf[:offsetWidth], offset, offsetWidth)
	out = append(out, buf[:offsetWidth]...)
	putVarint(buf[:lengthWidth], length, lengthWidth)
	out = append(out, buf[:lengthWidth]...)
	return out
}

// AppendEnd appends the END command that terminates a delta stream.
func AppendEnd(out []byte) []byte {
	return append(out, OpEnd)
}

// AppendMagic appends the 4-byte delta magic that must open every delta.
func AppendMagic(out []byte) []byte {
	m := Magic
	return append(out, byte(m>>24), byte(m>>16), byte(m>>8), byte(m))
}
