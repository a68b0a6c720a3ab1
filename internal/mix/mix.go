// Package mix implements the seeded integer hash used to route keys to
// buckets and containers. It has no state and no allocation.
package mix

// Seeded mixes key with seed using the MurmurHash3 finalizer. Two tables
// constructed with different seeds hash the same key to different buckets,
// which is what makes rehashing on resize possible.
func Seeded(key int32, seed uint32) uint32 {
	h := uint32(key) ^ seed
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return h
}

// Unseeded is Seeded with seed 0. The Variable table uses it to pick a
// container independently of any level's seed.
func Unseeded(key int32) uint32 {
	return Seeded(key, 0)
}

// Seed derives a per-table hash seed from a requested capacity so that two
// tables of different size (in particular, a table and the one it resizes
// into) hash differently.
func Seed(capacity int) uint32 {
	return uint32(capacity) ^ 0x9e3779b9
}
