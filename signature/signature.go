// Package signature implements the librsync-compatible signature wire
// format: a compact per-block summary of a reference buffer (a rolling
// checksum plus a truncated MD4 digest), and the in-memory index built from
// it that diff uses to find matching blocks.
package signature

import (
	"encoding/binary"
	"fmt"

	"github.com/faircrest/rdiff/md4"
	"github.com/faircrest/rdiff/rollsum"
)

// Magic identifies the MD4-signature wire format (librsync "rs01" MD4
// variant). This module only ever produces and accepts this magic — the
// newer BLAKE2 signature variant is out of scope.
const Magic uint32 = 0x72730136

const headerSize = 4 + 4 + 4 // magic, block_size, crypto_hash_size

// MaxCryptoHashSize is the length of a full MD4 digest, and therefore the
// largest value Options.CryptoHashSize may take.
const MaxCryptoHashSize = md4.Size

// Options controls how a signature is built.
type Options struct {
	// BlockSize is the number of reference bytes summarized by each
	// signature record. Must be greater than zero.
	BlockSize uint32
	// CryptoHashSize is the number of leading bytes of each block's MD4
	// digest retained in the signature. Must be in [1, 16].
	CryptoHashSize uint32
}

func (o Options) validate() error {
	if o.BlockSize == 0 {
		return fmt.Errorf("signature: block size must be greater than zero")
	}
	if o.CryptoHashSize == 0 || o.CryptoHashSize > MaxCryptoHashSize {
		return fmt.Errorf("signature: crypto hash size %d out of range [1, %d]", o.CryptoHashSize, MaxCryptoHashSize)
	}
	return nil
}

// Signature is a decoded librsync signature: the header fields plus the raw
// encoded bytes. The raw bytes are retained (rather than unpacked into a Go
// slice of records) so that Encoded and Index can share one allocation.
type Signature struct {
	blockSize      uint32
	cryptoHashSize uint32
	data           []byte
}

// BlockSize returns the block size this signature was built with.
func (s *Signature) BlockSize() uint32 { return s.blockSize }

// CryptoHashSize returns the number of strong-hash bytes retained per block.
func (s *Signature) CryptoHashSize() uint32 { return s.cryptoHashSize }

// BlockCount returns the number of block records in the signature.
func (s *Signature) BlockCount() int {
	return (len(s.data) - headerSize) / s.recordSize()
}

func (s *Signature) recordSize() int {
	return 4 + int(s.cryptoHashSize)
}

// Encoded returns the wire-format bytes of the signature.
func (s *Signature) Encoded() []byte { return s.data }

// Calculate computes a signature of reference under opts.
func Calculate(reference []byte, opts Options) (*Signature, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	blockSize := int(opts.BlockSize)
	numBlocks := (len(reference) + blockSize - 1) / blockSize
	if len(reference) == 0 {
		numBlocks = 0
	}

	recordSize := 4 + int(opts.CryptoHashSize)
	data := make([]byte, headerSize+numBlocks*recordSize)

	binary.BigEndian.PutUint32(data[0:4], Magic)
	binary.BigEndian.PutUint32(data[4:8], opts.BlockSize)
	binary.BigEndian.PutUint32(data[8:12], opts.CryptoHashSize)

	numFull := len(reference) / blockSize
	hasShort := len(reference)%blockSize != 0

	writeRecord := func(at int, block []byte, digest []byte) {
		crc := rollsum.Fresh(block)
		crc.PutSum32(data[at : at+4])
		copy(data[at+4:at+recordSize], digest[:opts.CryptoHashSize])
	}

	offset := headerSize
	fullBlockAt := func(i int) []byte {
		start := i * blockSize
		return reference[start : start+blockSize]
	}

	// Full-size blocks are hashed four at a time through the SIMD-dispatched
	// four-way MD4 path; only the leftover group of fewer than four full
	// blocks, plus the ragged final block (if any), fall back to the plain
	// scalar Sum.
	i := 0
	for ; i+4 <= numFull; i += 4 {
		var lanes [4][]byte
		for lane := 0; lane < 4; lane++ {
			lanes[lane] = fullBlockAt(i + lane)
		}
		digests := md4.SumFour(lanes)
		for lane := 0; lane < 4; lane++ {
			writeRecord(offset, lanes[lane], digests[lane][:])
			offset += recordSize
		}
	}
	for ; i < numFull; i++ {
		block := fullBlockAt(i)
		digest := md4.Sum(block)
		writeRecord(offset, block, digest[:])
		offset += recordSize
	}
	if hasShort {
		block := reference[numFull*blockSize:]
		digest := md4.Sum(block)
		writeRecord(offset, block, digest[:])
		offset += recordSize
	}

	return &Signature{
		blockSize:      opts.BlockSize,
		cryptoHashSize: opts.CryptoHashSize,
		data:           data,
	}, nil
}

// Decode parses a wire-format signature. It validates the magic, the
// crypto hash size range, and that the body length is an exact multiple of
// the per-block record size; it does not otherwise inspect the records.
func Decode(data []byte) (*Signature, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("signature: truncated header (%d bytes)", len(data))
	}

	magic := binary.BigEndian.Uint32(data[0:4])
	if magic != Magic {
		return nil, fmt.Errorf("signature: unrecognized magic 0x%08x", magic)
	}

	blockSize := binary.BigEndian.Uint32(data[4:8])
	cryptoHashSize := binary.BigEndian.Uint32(data[8:12])
	if cryptoHashSize == 0 || cryptoHashSize > MaxCryptoHashSize {
		return nil, fmt.Errorf("signature: crypto hash size %d out of range [1, %d]", cryptoHashSize, MaxCryptoHashSize)
	}

	recordSize := 4 + int(cryptoHashSize)
	body := data[headerSize:]
	if len(body)%recordSize != 0 {
		return nil, fmt.Errorf("signature: body length %d is not a multiple of record size %d", len(body), recordSize)
	}

	return &Signature{
		blockSize:      blockSize,
		cryptoHashSize: cryptoHashSize,
		data:           data,
	}, nil
}

// block returns the rolling checksum and strong-hash prefix of the i'th
// record.
func (s *Signature) block(i int) (rollsum.Checksum, []byte) {
	recordSize := s.recordSize()
	off := headerSize + i*recordSize
	crc := rollsum.FromBytes(s.data[off : off+4])
	prefix := s.data[off+4 : off+recordSize]
	return crc, prefix
}
