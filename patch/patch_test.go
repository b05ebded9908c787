package patch

import (
	"bytes"
	"errors"
	"testing"

	"github.com/faircrest/rdiff/delta"
)

func buildDelta(parts ...interface{}) []byte {
	var out []byte
	out = delta.AppendMagic(out)
	for _, p := range parts {
		switch v := p.(type) {
		case string:
			out = delta.AppendLiteral(out, uint64(len(v)))
			out = append(out, v...)
		case [2]uint64:
			out = delta.AppendCopy(out, v[0], v[1])
		}
	}
	out = delta.AppendEnd(out)
	return out
}

func TestApplyLiteralOnly(t *testing.T) {
	d := buildDelta("hello, ", "world")
	got, err := Apply(nil, d)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if string(got) != "hello, world" {
		t.Errorf("got %q", got)
	}
}

func TestApplyCopyAndLiteral(t *testing.T) {
	base := []byte("the quick brown fox")
	d := buildDelta([2]uint64{4, 5}, " lazy ", [2]uint64{16, 4})
	got, err := Apply(base, d)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if string(got) != "quick lazy fox" {
		t.Errorf("got %q", got)
	}
}

func TestApplyRejectsWrongMagic(t *testing.T) {
	_, err := Apply(nil, []byte{0, 0, 0, 0})
	var wrongMagic *delta.WrongMagicError
	if !errors.As(err, &wrongMagic) {
		t.Fatalf("got %v, want wrapped *delta.WrongMagicError", err)
	}
}

func TestApplyRejectsCopyOutOfBounds(t *testing.T) {
	base := []byte("short")
	d := buildDelta([2]uint64{0, 100})
	_, err := Apply(base, d)
	var oob *CopyOutOfBoundsError
	if !errors.As(err, &oob) {
		t.Fatalf("got %v, want *CopyOutOfBoundsError", err)
	}
}

func TestApplyRejectsCopyOverflow(t *testing.T) {
	base := []byte("short")
	// offset + length overflows but each fits in a uint64 on its own.
	d := buildDelta([2]uint64{1 << 63, 1 << 63})
	_, err := Apply(base, d)
	var oob *CopyOutOfBoundsError
	if !errors.As(err, &oob) {
		t.Fatalf("got %v, want *CopyOutOfBoundsError", err)
	}
}

func TestApplyRejectsZeroLengthCopy(t *testing.T) {
	base := []byte("short")
	d := buildDelta([2]uint64{0, 0})
	_, err := Apply(base, d)
	var zero *CopyZeroError
	if !errors.As(err, &zero) {
		t.Fatalf("got %v, want *CopyZeroError", err)
	}
}

func TestApplyRejectsTrailingData(t *testing.T) {
	d := buildDelta("x")
	d = append(d, 0xde, 0xad)
	_, err := Apply(nil, d)
	var trailing *TrailingDataError
	if !errors.As(err, &trailing) {
		t.Fatalf("got %v, want *TrailingDataError", err)
	}
}

func TestApplyLimitedRejectsOversizedOutput(t *testing.T) {
	d := buildDelta("this literal is too long for the limit")
	_, err := ApplyLimited(nil, d, 4)
	var limitErr *OutputLimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("got %v, want *OutputLimitError", err)
	}
}

func TestApplyIntoAppendsToExistingBuffer(t *testing.T) {
	dst := []byte("prefix: ")
	d := buildDelta("payload")
	got, err := ApplyInto(dst, nil, d, 1<<20)
	if err != nil {
		t.Fatalf("ApplyInto: %v", err)
	}
	if string(got) != "prefix: payload" {
		t.Errorf("got %q", got)
	}
}

func TestApplyEmptyDeltaIsJustMagicAndEnd(t *testing.T) {
	got, err := Apply([]byte("anything"), buildDelta())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %q, want empty", got)
	}
}

func TestApplyReversalRoundTrip(t *testing.T) {
	base := []byte("abcdefgh")
	var d []byte
	d = delta.AppendMagic(d)
	for i := len(base) - 1; i >= 0; i-- {
		d = delta.AppendCopy(d, uint64(i), 1)
	}
	d = delta.AppendEnd(d)

	got, err := Apply(base, d)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !bytes.Equal(got, []byte("hgfedcba")) {
		t.Errorf("got %q", got)
	}
}

