// Package patch applies a delta (as produced by package diff) to base
// data to reconstruct the target buffer the delta was computed against.
package patch

import (
	"fmt"
	"math"

	"github.com/faircrest/rdiff/delta"
)

// ApplyError is returned by Apply and ApplyInto when a delta cannot be
// applied. The error it wraps is either one of the *Error types in this
// package or one of package delta's decoding errors (WrongMagicError,
// UnexpectedEOFError, UnknownCommandError); callers that need to
// distinguish failure modes should use errors.As.
type ApplyError struct {
	err error
}

func (e *ApplyError) Error() string { return e.err.Error() }
func (e *ApplyError) Unwrap() error { return e.err }

func wrap(err error) error {
	if err == nil {
		return nil
	}
	return &ApplyError{err: err}
}

// OutputLimitError reports that applying the delta would have exceeded the
// caller-supplied output limit.
type OutputLimitError struct {
	What      string
	Wanted    int
	Available int
}

func (e *OutputLimitError) Error() string {
	return fmt.Sprintf("patch: exceeded output size limit writing %s (wanted=%d, available=%d)", e.What, e.Wanted, e.Available)
}

// CopyOutOfBoundsError reports that a COPY command referenced bytes
// outside the base buffer.
type CopyOutOfBoundsError struct {
	Offset  uint64
	Length  uint64
	DataLen int
}

func (e *CopyOutOfBoundsError) Error() string {
	return fmt.Sprintf("patch: copy out of bounds (offset=%d, length=%d, data_len=%d)", e.Offset, e.Length, e.DataLen)
}

// CopyZeroError reports a COPY command with a zero length.
type CopyZeroError struct{}

func (e *CopyZeroError) Error() string { return "patch: copy command has zero length" }

// TrailingDataError reports that bytes remained in the delta after its END
// command.
type TrailingDataError struct {
	Length int
}

func (e *TrailingDataError) Error() string {
	return fmt.Sprintf("patch: %d bytes of trailing data after end command", e.Length)
}

// Apply reconstructs the target buffer by applying delta to base. It
// places no bound on the size of the result.
//
// Apply should not be used with untrusted deltas: a delta can request an
// output of unbounded size, exhausting memory before this function
// returns. Use ApplyInto with a sized destination, or ApplyLimited, for
// untrusted input.
func Apply(base, deltaBytes []byte) ([]byte, error) {
	return ApplyLimited(base, deltaBytes, math.MaxInt64)
}

// ApplyLimited is like Apply but fails with an OutputLimitError if the
// reconstructed result would exceed limit bytes.
func ApplyLimited(base, deltaBytes []byte, limit int) ([]byte, error) {
	out := make([]byte, 0, min(limit, len(base)+len(deltaBytes)))
	out, err := appendApplied(out, base, deltaBytes, limit)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ApplyInto reconstructs the target buffer by applying delta to base and
// appending the result to dst, returning the extended slice. It fails
// with an OutputLimitError if the result would grow dst by more than
// limit bytes.
func ApplyInto(dst, base, deltaBytes []byte, limit int) ([]byte, error) {
	return appendApplied(dst, base, deltaBytes, limit)
}

func appendApplied(out, base, deltaBytes []byte, limit int) ([]byte, error) {
	d, err := delta.NewDecoder(deltaBytes)
	if err != nil {
		return nil, wrap(err)
	}

	appendLimited := func(what string, b []byte) error {
		if len(b) > limit {
			return wrap(&OutputLimitError{What: what, Wanted: len(b), Available: limit})
		}
		limit -= len(b)
		out = append(out, b...)
		return nil
	}

	for {
		cmd, err := d.Next()
		if err != nil {
			return nil, wrap(err)
		}

		switch cmd.Kind {
		case delta.End:
			if rem := d.Remaining(); len(rem) != 0 {
				return nil, wrap(&TrailingDataError{Length: len(rem)})
			}
			return out, nil

		case delta.Literal:
			if err := appendLimited("literal", cmd.Data); err != nil {
				return nil, err
			}

		case delta.Copy:
			if cmd.Length == 0 {
				return nil, wrap(&CopyZeroError{})
			}
			oob := func() error {
				return wrap(&CopyOutOfBoundsError{Offset: cmd.Offset, Length: cmd.Length, DataLen: len(base)})
			}
			if cmd.Offset > uint64(len(base)) || cmd.Length > uint64(len(base))-cmd.Offset {
				return nil, oob()
			}
			end := cmd.Offset + cmd.Length
			if err := appendLimited("copy", base[cmd.Offset:end]); err != nil {
				return nil, err
			}
		}
	}
}
