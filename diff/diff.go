// Package diff scans a target buffer against a reference signature's
// index and emits a delta describing how to reconstruct the target from
// the reference.
package diff

import (
	"fmt"

	"github.com/faircrest/rdiff/delta"
	"github.com/faircrest/rdiff/md4"
	"github.com/faircrest/rdiff/rollsum"
	"github.com/faircrest/rdiff/signature"
)

// DefaultMaxCollisions bounds how many times diff will tolerate a rolling
// checksum matching a bucket without the strong hash also matching, before
// it gives up on that checksum value entirely for the rest of the scan.
// Without this cap, a target buffer engineered to collide against the
// reference's rolling checksums (but not its strong hashes) could force
// diff to perform a full strong-hash comparison at every scan position,
// degrading from linear to quadratic time.
const DefaultMaxCollisions = 1024

// Options controls the encoding pass.
type Options struct {
	// MaxCollisions overrides DefaultMaxCollisions. Zero means use the
	// default.
	MaxCollisions uint32
}

// Diff computes a delta that, applied to the reference data idx was built
// from, reconstructs target. It returns an error only if idx was built
// with a crypto hash size too large to have come from an MD4 signature.
func Diff(idx *signature.IndexedSignature, target []byte, opts Options) ([]byte, error) {
	if idx.CryptoHashSize > md4.Size {
		return nil, fmt.Errorf("diff: crypto hash size %d exceeds MD4 digest size", idx.CryptoHashSize)
	}

	maxCollisions := opts.MaxCollisions
	if maxCollisions == 0 {
		maxCollisions = DefaultMaxCollisions
	}

	blockSize := int(idx.BlockSize)

	out := make([]byte, 0, len(target)/2+16)
	out = delta.AppendMagic(out)

	state := outputState{}
	collisions := make(map[uint32]uint32)

	here := 0
scan:
	for here+blockSize <= len(target) {
		crc := rollsum.Fresh(target[here : here+blockSize])

		for {
			if collisions[crc.Sum32()] < maxCollisions {
				digest := md4.Sum(target[here : here+blockSize])
				if match, ok := idx.Lookup(crc, digest[:]); ok {
					offset := uint64(match.BlockIndex) * uint64(blockSize)
					out = state.copy(offset, blockSize, here, target, out)
					here += blockSize
					continue scan
				}
				collisions[crc.Sum32()]++
			}

			here++
			if here+blockSize > len(target) {
				break scan
			}
			crc = crc.Rotate(blockSize, target[here-1], target[here+blockSize-1])
		}
	}

	out = state.emit(len(target), target, out)
	out = delta.AppendEnd(out)

	return out, nil
}

// outputState tracks the longest pending COPY command so that adjacent
// matching blocks coalesce into one command instead of one per block, and
// how much of target has been committed to out so far.
type outputState struct {
	emitted   int
	queued    bool
	queuedOff uint64
	queuedLen int
}

// emit flushes any queued copy and then any literal bytes needed to catch
// up to until.
func (s *outputState) emit(until int, data []byte, out []byte) []byte {
	if s.emitted == until {
		return out
	}
	if s.queued {
		out = delta.AppendCopy(out, s.queuedOff, uint64(s.queuedLen))
		s.emitted += s.queuedLen
		s.queued = false
	}
	if s.emitted < until {
		run := data[s.emitted:until]
		out = delta.AppendLiteral(out, uint64(len(run)))
		out = append(out, run...)
		s.emitted = until
	}
	return out
}

// copy records a matched block, extending the pending copy in place if it
// is contiguous with the new one both in the target (here) and in the
// reference (offset).
func (s *outputState) copy(offset uint64, length, here int, data []byte, out []byte) []byte {
	if s.queued && s.emitted+s.queuedLen == here && s.queuedOff+uint64(s.queuedLen) == offset {
		s.queuedLen += length
		return out
	}
	out = s.emit(here, data, out)
	s.queued = true
	s.queuedOff = offset
	s.queuedLen = length
	return out
}
