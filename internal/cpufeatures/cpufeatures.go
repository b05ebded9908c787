// Package cpufeatures provides the single, process-wide, one-time CPU
// feature detection used to pick between the scalar and widened code paths
// in md4 and rollsum.
//
// There is exactly one piece of runtime-shared state in this module, and
// this is it: a read-only decision made once via sync.Once and never
// revisited. Nothing here takes a lock on the hot path.
package cpufeatures

import (
	"sync"

	"github.com/klauspost/cpuid/v2"
	"github.com/sirupsen/logrus"
)

// Tier describes how aggressively the wide (lane-interleaved) code paths
// in md4 and rollsum should be used on this CPU.
type Tier int

const (
	// TierScalar means only the plain, one-block-at-a-time paths should be used.
	TierScalar Tier = iota
	// TierWide means the CPU has wide enough vector registers (SSE2/NEON or
	// better) that the four-way MD4 path and the widened rollsum fresh-sum
	// path are worth using.
	TierWide
	// TierWidest means the CPU additionally has AVX2, so the widest
	// accumulation group sizes are used.
	TierWidest
)

var (
	once     sync.Once
	detected Tier
)

// Detected returns the CPU feature tier for this process, computing it on
// the first call and caching it for the lifetime of the process.
func Detected() Tier {
	once.Do(func() {
		detected = detect()
		logrus.WithField("tier", detected).Debug("rdiff: cpu feature tier selected")
	})
	return detected
}

func detect() Tier {
	switch {
	case cpuid.CPU.Supports(cpuid.AVX2):
		return TierWidest
	case cpuid.CPU.Supports(cpuid.SSE2) || cpuid.CPU.Supports(cpuid.ASIMD):
		return TierWide
	default:
		return TierScalar
	}
}

func (t Tier) String() string {
	switch t {
	case TierWidest:
		return "widest"
	case TierWide:
		return "wide"
	default:
		return "scalar"
	}
}
