package kernel

import "math/bits"

// SHA-1 initialization vector.
const (
	iv0 = 0x67452301
	iv1 = 0xEFCDAB89
	iv2 = 0x98BADCFE
	iv3 = 0x10325476
	iv4 = 0xC3D2E1F0
)

// SHA-1 round constants.
const (
	k0 = 0x5A827999
	k1 = 0x6ED9EBA1
	k2 = 0x8F1BBCDC
	k3 = 0xCA62C1D6
)

// Seed derivation: the console advances its 64-bit generator once over the
// byte-swapped (H1, H0) pair; the high word of the product is the seed.
const (
	seedMultiplier = 0x5D588B656C078965
	seedIncrement  = 0x269EC3
)

// swap32 reverses the byte order of a 32-bit word.
func swap32(v uint32) uint32 {
	return v<<24 | (v&0xFF00)<<8 | (v>>8)&0xFF00 | v>>24
}

// foldSeed derives the candidate seed from the first two digest words.
// Returns the seed (high word) and the diagnostic low word.
func foldSeed(h0, h1 uint32) (seed, low uint32) {
	v := uint64(swap32(h1))<<32 | uint64(swap32(h0))
	v = v*seedMultiplier + seedIncrement

	return uint32(v >> 32), uint32(v)
}

// compress runs the 80-round compression over one block and returns the
// first two output words, the only ones the seed derivation consumes.
func compress(block *Block) (uint32, uint32) {
	var w [80]uint32

	copy(w[:BlockWords], block[:])

	for i := BlockWords; i < 80; i++ {
		w[i] = bits.RotateLeft32(w[i-3]^w[i-8]^w[i-14]^w[i-16], 1)
	}

	a, b, c, d, e := uint32(iv0), uint32(iv1), uint32(iv2), uint32(iv3), uint32(iv4)

	for i := 0; i < 20; i++ {
		t := bits.RotateLeft32(a, 5) + (b&c | ^b&d) + e + k0 + w[i]
		e, d, c, b, a = d, c, bits.RotateLeft32(b, 30), a, t
	}

	for i := 20; i < 40; i++ {
		t := bits.RotateLeft32(a, 5) + (b ^ c ^ d) + e + k1 + w[i]
		e, d, c, b, a = d, c, bits.RotateLeft32(b, 30), a, t
	}

	for i := 40; i < 60; i++ {
		t := bits.RotateLeft32(a, 5) + (b&c | b&d | c&d) + e + k2 + w[i]
		e, d, c, b, a = d, c, bits.RotateLeft32(b, 30), a, t
	}

	for i := 60; i < 80; i++ {
		t := bits.RotateLeft32(a, 5) + (b ^ c ^ d) + e + k3 + w[i]
		e, d, c, b, a = d, c, bits.RotateLeft32(b, 30), a, t
	}

	return iv0 + a, iv1 + b
}

// compressFull is compress with the complete five-word digest retained.
func compressFull(block *Block) Digest {
	var w [80]uint32

	copy(w[:BlockWords], block[:])

	for i := BlockWords; i < 80; i++ {
		w[i] = bits.RotateLeft32(w[i-3]^w[i-8]^w[i-14]^w[i-16], 1)
	}

	a, b, c, d, e := uint32(iv0), uint32(iv1), uint32(iv2), uint32(iv3), uint32(iv4)

	for i := 0; i < 80; i++ {
		var f, k uint32

		switch {
		case i < 20:
			f, k = b&c|^b&d, k0
		case i < 40:
			f, k = b^c^d, k1
		case i < 60:
			f, k = b&c|b&d|c&d, k2
		default:
			f, k = b^c^d, k3
		}

		t := bits.RotateLeft32(a, 5) + f + e + k + w[i]
		e, d, c, b, a = d, c, bits.RotateLeft32(b, 30), a, t
	}

	return Digest{iv0 + a, iv1 + b, iv2 + c, iv3 + d, iv4 + e}
}
