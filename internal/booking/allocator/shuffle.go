package allocator

import (
	"unicode/utf16"

	"shop-concierge/internal/models"
)

const (
	fnvOffset32 = 2166136261
	fnvPrime32  = 16777619
)

// SeededShuffle returns a copy of pool in an order fixed by seed. Purchases
// use "<sessionID>:<area>" so every read of one purchase sees the same pool
// while different purchases see different ones.
//
// The seed is hashed with FNV-1a over its UTF-16 code units, drives an
// xorshift32 generator, and the permutation is a Fisher-Yates walk from the
// end. Results match the storefront's earlier JavaScript implementation.
func SeededShuffle(pool []models.Shop, seed string) []models.Shop {
	out := make([]models.Shop, len(pool))
	copy(out, pool)

	rnd := newXorshift(seedHash(seed))
	for i := len(out) - 1; i > 0; i-- {
		j := int(rnd() * float64(i+1))
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func seedHash(s string) uint32 {
	h := uint32(fnvOffset32)
	for _, unit := range utf16.Encode([]rune(s)) {
		h ^= uint32(unit)
		h *= fnvPrime32
	}
	return h
}

func newXorshift(x uint32) func() float64 {
	return func() float64 {
		x ^= x << 13
		x ^= x >> 17
		x ^= x << 5
		return float64(x) / 4294967296
	}
}
