package kernel

import "math/bits"

// lanes is the batch width of the Quad kernel. Four independent blocks move
// through the compression rounds in lockstep, keeping the message schedule
// and working state hot and letting the compiler vectorize the lane loops.
const lanes = 4

// Quad is the batched kernel: four blocks per compression pass, with a
// scalar tail for remainders. Bit-identical to Scalar on every input.
type Quad struct{}

// NewQuad returns the batched kernel.
func NewQuad() Quad { return Quad{} }

// Name implements Kernel.
func (Quad) Name() string { return "quad" }

// SeedBatch implements Kernel. Output order equals input order.
func (Quad) SeedBatch(blocks []Block, out []uint32) {
	i := 0
	for ; i+lanes <= len(blocks); i += lanes {
		compress4(blocks[i:i+lanes:i+lanes], out[i:i+lanes:i+lanes])
	}

	// Scalar tail for the last len(blocks) mod 4 entries.
	for ; i < len(blocks); i++ {
		h0, h1 := compress(&blocks[i])
		out[i], _ = foldSeed(h0, h1)
	}
}

// lane4 holds one schedule word across the four lanes.
type lane4 [lanes]uint32

// compress4 runs the 80-round compression over four blocks at once and folds
// each digest pair into its seed.
func compress4(blocks []Block, out []uint32) {
	var w [80]lane4

	for i := 0; i < BlockWords; i++ {
		for l := 0; l < lanes; l++ {
			w[i][l] = blocks[l][i]
		}
	}

	for i := BlockWords; i < 80; i++ {
		for l := 0; l < lanes; l++ {
			w[i][l] = bits.RotateLeft32(w[i-3][l]^w[i-8][l]^w[i-14][l]^w[i-16][l], 1)
		}
	}

	var a, b, c, d, e lane4
	for l := 0; l < lanes; l++ {
		a[l], b[l], c[l], d[l], e[l] = iv0, iv1, iv2, iv3, iv4
	}

	for i := 0; i < 20; i++ {
		for l := 0; l < lanes; l++ {
			t := bits.RotateLeft32(a[l], 5) + (b[l]&c[l] | ^b[l]&d[l]) + e[l] + k0 + w[i][l]
			e[l], d[l], c[l], b[l], a[l] = d[l], c[l], bits.RotateLeft32(b[l], 30), a[l], t
		}
	}

	for i := 20; i < 40; i++ {
		for l := 0; l < lanes; l++ {
			t := bits.RotateLeft32(a[l], 5) + (b[l] ^ c[l] ^ d[l]) + e[l] + k1 + w[i][l]
			e[l], d[l], c[l], b[l], a[l] = d[l], c[l], bits.RotateLeft32(b[l], 30), a[l], t
		}
	}

	for i := 40; i < 60; i++ {
		for l := 0; l < lanes; l++ {
			t := bits.RotateLeft32(a[l], 5) + (b[l]&c[l] | b[l]&d[l] | c[l]&d[l]) + e[l] + k2 + w[i][l]
			e[l], d[l], c[l], b[l], a[l] = d[l], c[l], bits.RotateLeft32(b[l], 30), a[l], t
		}
	}

	for i := 60; i < 80; i++ {
		for l := 0; l < lanes; l++ {
			t := bits.RotateLeft32(a[l], 5) + (b[l] ^ c[l] ^ d[l]) + e[l] + k3 + w[i][l]
			e[l], d[l], c[l], b[l], a[l] = d[l], c[l], bits.RotateLeft32(b[l], 30), a[l], t
		}
	}

	for l := 0; l < lanes; l++ {
		out[l], _ = foldSeed(iv0+a[l], iv1+b[l])
	}
}
