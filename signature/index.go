package signature

import (
	"bytes"
	"sort"

	"github.com/petar/GoLLRB/llrb"

	"github.com/faircrest/rdiff/rollsum"
)

// BlockMatch is a single matching block found by Lookup.
type BlockMatch struct {
	BlockIndex uint32
	Prefix     []byte
}

// IndexedSignature is the in-memory structure diff scans against: a map
// from rolling checksum to the set of reference blocks sharing it, with a
// second comparison on the strong-hash prefix to resolve checksum
// collisions. Most buckets hold zero or one candidate; buckets that
// accumulate many candidates (either through bad luck on a small reference,
// or through an adversarial reference deliberately built to collide) fall
// back to an ordered tree so lookups stay O(log n) instead of degrading to
// a linear scan, bounding the per-position cost diff's collision cap
// relies on.
type IndexedSignature struct {
	BlockSize      uint32
	CryptoHashSize uint32
	BlockCount     int

	buckets map[uint32]*bucket
}

// bucket mirrors a small closed-addressing hash table's overflow strategy:
// zero candidates need no allocation, one candidate needs no tree, and
// only buckets with two or more candidates pay for the ordered-tree
// structure.
type bucket struct {
	single   *candidate
	many     *llrb.LLRB
	overflow bool
}

type candidate struct {
	prefix []byte
	block  uint32
}

// Less implements llrb.Item, ordering candidates by their strong-hash
// prefix. Ties (equal prefixes, necessarily different blocks once inserted
// as distinct keys) are broken by block index so that distinct blocks with
// identical prefixes both remain reachable via ascending traversal.
func (c *candidate) Less(than llrb.Item) bool {
	o := than.(*candidate)
	if cmp := bytes.Compare(c.prefix, o.prefix); cmp != 0 {
		return cmp < 0
	}
	return c.block < o.block
}

// Index builds the in-memory lookup structure for s. Iteration over a
// bucket's candidates (via CandidatesForChecksum) always proceeds in
// ascending prefix order, making scans over colliding buckets
// deterministic regardless of insertion order.
func (s *Signature) Index() *IndexedSignature {
	idx := &IndexedSignature{
		BlockSize:      s.blockSize,
		CryptoHashSize: s.cryptoHashSize,
		BlockCount:     s.BlockCount(),
		buckets:        make(map[uint32]*bucket, s.BlockCount()),
	}

	for i := 0; i < idx.BlockCount; i++ {
		crc, prefix := s.block(i)
		idx.insert(crc, prefix, uint32(i))
	}

	return idx
}

func (idx *IndexedSignature) insert(crc rollsum.Checksum, prefix []byte, block uint32) {
	key := crc.Sum32()
	b, ok := idx.buckets[key]
	if !ok {
		idx.buckets[key] = &bucket{single: &candidate{prefix: prefix, block: block}}
		return
	}

	if !b.overflow {
		if b.single.block == block {
			return
		}
		tree := llrb.New()
		tree.ReplaceOrInsert(b.single)
		tree.ReplaceOrInsert(&candidate{prefix: prefix, block: block})
		b.many = tree
		b.single = nil
		b.overflow = true
		return
	}

	b.many.ReplaceOrInsert(&candidate{prefix: prefix, block: block})
}

// Lookup reports whether any reference block sharing rolling checksum crc
// also has strong-hash prefix digest (truncated to idx.CryptoHashSize
// bytes before comparison, mirroring the signature's own truncation), and
// if so returns the lowest-indexed matching block.
func (idx *IndexedSignature) Lookup(crc rollsum.Checksum, digest []byte) (BlockMatch, bool) {
	b, ok := idx.buckets[crc.Sum32()]
	if !ok {
		return BlockMatch{}, false
	}

	prefix := digest[:idx.CryptoHashSize]

	if !b.overflow {
		if bytes.Equal(b.single.prefix, prefix) {
			return BlockMatch{BlockIndex: b.single.block, Prefix: b.single.prefix}, true
		}
		return BlockMatch{}, false
	}

	probe := &candidate{prefix: prefix, block: 0}
	var found *candidate
	b.many.AscendGreaterOrEqual(probe, func(item llrb.Item) bool {
		c := item.(*candidate)
		if !bytes.Equal(c.prefix, prefix) {
			return false
		}
		found = c
		return false
	})
	if found == nil {
		return BlockMatch{}, false
	}
	return BlockMatch{BlockIndex: found.block, Prefix: found.prefix}, true
}

// CollisionCount returns the number of distinct candidates sharing crc's
// bucket. diff does not call it; its collision cap keeps its own count of
// strong-hash misses per checksum value.
func (idx *IndexedSignature) CollisionCount(crc rollsum.Checksum) int {
	b, ok := idx.buckets[crc.Sum32()]
	if !ok {
		return 0
	}
	if !b.overflow {
		return 1
	}
	return b.many.Len()
}

// CandidatesForChecksum returns every candidate sharing crc's bucket, in
// ascending strong-hash-prefix order. It exists for tests and diagnostics;
// diff itself only ever needs Lookup.
func (idx *IndexedSignature) CandidatesForChecksum(crc rollsum.Checksum) []BlockMatch {
	b, ok := idx.buckets[crc.Sum32()]
	if !ok {
		return nil
	}
	if !b.overflow {
		return []BlockMatch{{BlockIndex: b.single.block, Prefix: b.single.prefix}}
	}

	out := make([]BlockMatch, 0, b.many.Len())
	b.many.AscendGreaterOrEqual(b.many.Min(), func(item llrb.Item) bool {
		c := item.(*candidate)
		out = append(out, BlockMatch{BlockIndex: c.block, Prefix: c.prefix})
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Prefix, out[j].Prefix) < 0
	})
	return out
}
