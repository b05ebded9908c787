// Package rdiff is an in-memory, librsync-wire-compatible implementation
// of rsync's differential encoding algorithm: compute a signature of a
// reference buffer, diff a target buffer against that signature, and
// apply the resulting delta to reconstruct the target from the reference.
//
// This package operates purely on in-memory byte slices. It does not read
// or write files, does not speak the rsync network protocol, and does not
// provide a streaming/incremental API — callers who need those should
// build them on top of the signature, delta, diff, and patch packages.
package rdiff

import (
	"github.com/faircrest/rdiff/delta"
	"github.com/faircrest/rdiff/diff"
	"github.com/faircrest/rdiff/patch"
	"github.com/faircrest/rdiff/signature"
)

// SignatureOptions controls how CalculateSignature summarizes a reference
// buffer.
type SignatureOptions = signature.Options

// DiffOptions controls how Diff scans a target buffer against an indexed
// signature.
type DiffOptions = diff.Options

// ApplyError is returned by Apply and ApplyInto when a delta is malformed
// or cannot be satisfied against the given base data.
type ApplyError = patch.ApplyError

// Signature is a decoded signature of a reference buffer: per-block
// rolling checksums and truncated strong hashes, in librsync's MD4 wire
// format.
type Signature = signature.Signature

// IndexedSignature is a Signature built into the in-memory structure Diff
// scans against.
type IndexedSignature = signature.IndexedSignature

// DefaultMaxCollisions is the default bound on how many times Diff will
// tolerate a rolling-checksum collision against a given value before
// giving up on matching it, to keep the scan linear even against an
// adversarial target buffer.
const DefaultMaxCollisions = diff.DefaultMaxCollisions

// CalculateSignature summarizes reference into a signature that can later
// be used to compute a delta against some other, related buffer.
func CalculateSignature(reference []byte, opts SignatureOptions) (*Signature, error) {
	return signature.Calculate(reference, opts)
}

// DecodeSignature parses a wire-format signature previously produced by
// CalculateSignature (by this package or by librsync/rdiff's MD4 variant).
func DecodeSignature(data []byte) (*Signature, error) {
	return signature.Decode(data)
}

// IndexSignature builds the lookup structure Diff needs from sig. Building
// the index is the expensive part of working with a signature; callers
// that will diff several targets against the same reference should build
// it once and reuse it.
func IndexSignature(sig *Signature) *IndexedSignature {
	return sig.Index()
}

// Diff computes a delta that, applied to the reference data idx was built
// from, reconstructs target.
func Diff(idx *IndexedSignature, target []byte, opts DiffOptions) ([]byte, error) {
	return diff.Diff(idx, target, opts)
}

// Apply reconstructs a target buffer by applying deltaBytes to base. It
// places no bound on the size of the result; see ApplyLimited for
// untrusted input.
func Apply(base, deltaBytes []byte) ([]byte, error) {
	return patch.Apply(base, deltaBytes)
}

// ApplyLimited is like Apply but fails rather than allocating more than
// limit bytes of output.
func ApplyLimited(base, deltaBytes []byte, limit int) ([]byte, error) {
	return patch.ApplyLimited(base, deltaBytes, limit)
}

// ApplyInto reconstructs a target buffer by applying deltaBytes to base
// and appending the result to dst, returning the extended slice. It fails
// rather than growing dst by more than limit bytes.
func ApplyInto(dst, base, deltaBytes []byte, limit int) ([]byte, error) {
	return patch.ApplyInto(dst, base, deltaBytes, limit)
}

// DeltaMagic is the 4-byte big-endian magic every delta produced by Diff
// begins with, and every delta Apply accepts must begin with.
const DeltaMagic = delta.Magic

// SignatureMagic is the 4-byte big-endian magic every signature produced
// by CalculateSignature begins with.
const SignatureMagic = signature.Magic
