// Package simple implements the bucketed slot allocator that the Fixed and
// Variable tiny-pointer tables are built from. A Table hashes a key to a
// bucket, finds a free slot inside that bucket via a per-bucket bitmask, and
// hands back the intra-bucket slot index as the tiny pointer. It never
// probes a second bucket: a saturated bucket is a saturated allocation.
package simple

import (
	"math"
	"math/bits"
	"sync"

	"github.com/pkg/errors"

	"github.com/rodrigch18/TinyPointers/errs"
	"github.com/rodrigch18/TinyPointers/internal/mix"
)

const (
	minBucketSize = 8
	maxBucketSize = 32

	// emptyKey marks an unoccupied slot. int32's minimum value is never a
	// key a caller can legitimately allocate with via the int32 API, since
	// the unified facade treats keys and values as ordinary signed 32-bit
	// integers but reserves this one sentinel the way the source reserves -1.
	emptyKey = math.MinInt32
)

// Table is a single hash-bucketed slot array with a per-bucket free-slot
// bitmask. Tiny pointers returned by Allocate are only valid bucket_size
// values in [0, BucketSize()); they must be paired with the key used to
// allocate them since the key alone selects the bucket.
type Table struct {
	mu sync.RWMutex

	requestedCapacity int
	loadFactor        float64

	bucketSize  int
	bucketCount int
	totalSlots  int

	keys     []int32
	store    []int32
	freeMask []uint32

	hashSeed uint32
}

// New constructs a table sized to hold capacity items at the given load
// factor. It fails if capacity is zero or loadFactor is outside (0, 1].
func New(capacity int, loadFactor float64) (*Table, error) {
	if capacity <= 0 {
		return nil, errors.Wrapf(errs.ErrInvalidArgument, "capacity %d must be positive", capacity)
	}
	if loadFactor <= 0 || loadFactor > 1.0 {
		return nil, errors.Wrapf(errs.ErrInvalidArgument, "load factor %v must be in (0, 1]", loadFactor)
	}

	bucketSize := clamp(intLog2(capacity)/2, minBucketSize, maxBucketSize)
	minSlots := int(math.Ceil(float64(capacity) / loadFactor))
	desiredBuckets := ceilDiv(minSlots, bucketSize)
	bucketCount := nextPowerOfTwo(desiredBuckets)
	totalSlots := bucketCount * bucketSize

	t := &Table{
		requestedCapacity: capacity,
		loadFactor:        loadFactor,
		bucketSize:        bucketSize,
		bucketCount:       bucketCount,
		totalSlots:        totalSlots,
		keys:              make([]int32, totalSlots),
		store:             make([]int32, totalSlots),
		freeMask:          make([]uint32, bucketCount),
		hashSeed:          mix.Seed(capacity),
	}
	for i := range t.keys {
		t.keys[i] = emptyKey
	}
	fullMask := uint32((uint64(1) << uint(bucketSize)) - 1)
	for b := range t.freeMask {
		t.freeMask[b] = fullMask
	}
	return t, nil
}

// BucketSize reports the number of slots per bucket, the ceiling a tiny
// pointer returned by Allocate can reach.
func (t *Table) BucketSize() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.bucketSize
}

func (t *Table) bucketFor(key int32) int {
	h := mix.Seeded(key, t.hashSeed)
	return int(h) & (t.bucketCount - 1)
}

// Allocate finds a free slot in the bucket key hashes to and stores value
// there, returning the intra-bucket slot offset. It returns ErrSaturated if
// that bucket's free mask is already zero; Allocate never probes another
// bucket.
func (t *Table) Allocate(key int32, value int32) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	b := t.bucketFor(key)
	free := t.freeMask[b]
	if free == 0 {
		return 0, errors.Wrapf(errs.ErrSaturated, "bucket %d has no free slot", b)
	}
	slot := firstFreeSlot(free)
	t.freeMask[b] &^= 1 << uint(slot)
	idx := b*t.bucketSize + slot
	t.keys[idx] = key
	t.store[idx] = value
	return slot, nil
}

// Dereference returns the value stored at the slot key's bucket plus
// slotOffset names, without checking that the slot's stored key matches key
// (spec.md §7, §9 — wrong-key dereference is a client-side misuse, not an
// error). A free slot reads back as 0 since Free zeroes the payload.
func (t *Table) Dereference(key int32, slotOffset int) (int32, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	idx, err := t.index(key, slotOffset)
	if err != nil {
		return 0, err
	}
	return t.store[idx], nil
}

// DereferenceChecked behaves like Dereference but returns ErrKeyMismatch if
// the slot is occupied by a different key than the one presented, per
// spec.md §9's open question inviting a checked variant.
func (t *Table) DereferenceChecked(key int32, slotOffset int) (int32, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	idx, err := t.index(key, slotOffset)
	if err != nil {
		return 0, err
	}
	if t.keys[idx] != emptyKey && t.keys[idx] != key {
		return 0, errors.Wrapf(errs.ErrKeyMismatch, "slot holds key %d, not %d", t.keys[idx], key)
	}
	return t.store[idx], nil
}

// Free marks the slot named by key and slotOffset empty and zeroes its
// payload. Freeing an already-free slot is a silent no-op, matching
// spec.md §7: it re-sets an already-set free-mask bit and re-zeroes a zero.
func (t *Table) Free(key int32, slotOffset int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx, err := t.index(key, slotOffset)
	if err != nil {
		return
	}
	b := idx / t.bucketSize
	t.keys[idx] = emptyKey
	t.store[idx] = 0
	t.freeMask[b] |= 1 << uint(slotOffset)
}

// index validates slotOffset and returns the absolute slot index for key.
// Must be called with t.mu held.
func (t *Table) index(key int32, slotOffset int) (int, error) {
	if slotOffset < 0 || slotOffset >= t.bucketSize {
		return 0, errors.Wrapf(errs.ErrOutOfRange, "slot offset %d outside [0, %d)", slotOffset, t.bucketSize)
	}
	b := t.bucketFor(key)
	return b*t.bucketSize + slotOffset, nil
}

// Resize builds a new table of newCapacity at the same load factor, rehashes
// every live entry into it, and returns the new table. If any rehashed entry
// lands in an already-saturated bucket of the new geometry, the new table is
// discarded, the error wraps ErrSaturated, and the old table is left
// untouched and still usable. Handles issued before Resize are invalid
// afterwards, since bucket assignments (and bucket_size itself) may have
// changed.
func (t *Table) Resize(newCapacity int) (*Table, error) {
	t.mu.RLock()
	loadFactor := t.loadFactor
	t.mu.RUnlock()

	next, err := New(newCapacity, loadFactor)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	next.mu.Lock()
	defer next.mu.Unlock()

	for idx, key := range t.keys {
		if key == emptyKey {
			continue
		}
		value := t.store[idx]
		b := next.bucketFor(key)
		free := next.freeMask[b]
		if free == 0 {
			return nil, errors.Wrapf(errs.ErrSaturated, "resize to %d cannot host existing entries", newCapacity)
		}
		slot := firstFreeSlot(free)
		next.freeMask[b] &^= 1 << uint(slot)
		nidx := b*next.bucketSize + slot
		next.keys[nidx] = key
		next.store[nidx] = value
	}
	return next, nil
}

// firstFreeSlot returns the index of the lowest set bit in mask. Callers
// must ensure mask != 0.
func firstFreeSlot(mask uint32) int {
	return bits.TrailingZeros32(mask)
}

func intLog2(x int) int {
	log := 0
	for x > 1 {
		x >>= 1
		log++
	}
	return log
}

func nextPowerOfTwo(x int) int {
	p := 1
	for p < x {
		p *= 2
	}
	return p
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

func clamp(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
