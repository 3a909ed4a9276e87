// Package kernel implements the seed compute kernel: deterministic
// construction of the 16-word parameter block and the single-block SHA-1 /
// LCG fold that derives a 32-bit candidate seed from it.
//
// Two interchangeable implementations are provided: Scalar, the portable
// reference, and Quad, a four-lane batched variant. Both are required to be
// bit-identical on every input; the conformance tests enforce this.
package kernel

import "fmt"

// BlockWords is the fixed parameter block length. The block is always exactly
// one 64-byte SHA-1 compression input, so no variable-length padding exists.
const BlockWords = 16

// Block is one fully-built parameter block, ready for hashing.
type Block [BlockWords]uint32

// Digest holds the five SHA-1 state words of a hashed block. Only H0 and H1
// feed the seed derivation; the rest are retained for diagnostic display.
type Digest struct {
	H0, H1, H2, H3, H4 uint32
}

// Hex renders the digest as a 40-character lowercase hex string.
func (d Digest) Hex() string {
	return fmt.Sprintf("%08x%08x%08x%08x%08x", d.H0, d.H1, d.H2, d.H3, d.H4)
}

// Kernel hashes parameter blocks into candidate seeds.
//
// SeedBatch writes one seed per input block into out, preserving input order.
// len(out) must be >= len(blocks). Implementations are pure: no state is
// carried between calls.
type Kernel interface {
	Name() string
	SeedBatch(blocks []Block, out []uint32)
}

// Scalar is the portable reference kernel: one block per compression call.
type Scalar struct{}

// NewScalar returns the reference kernel.
func NewScalar() Scalar { return Scalar{} }

// Name implements Kernel.
func (Scalar) Name() string { return "scalar" }

// SeedBatch implements Kernel.
func (Scalar) SeedBatch(blocks []Block, out []uint32) {
	for i := range blocks {
		h0, h1 := compress(&blocks[i])
		out[i], _ = foldSeed(h0, h1)
	}
}

// Compute hashes a single block and returns the candidate seed, the
// diagnostic low word of the folded value, and the full digest. Used on the
// match path, where the full digest is wanted for display.
func Compute(b Block) (seed, low uint32, digest Digest) {
	digest = compressFull(&b)
	seed, low = foldSeed(digest.H0, digest.H1)

	return seed, low, digest
}
