// Package variable implements the sharded, cascading-overflow tiny-pointer
// variant: an array of containers, each a stack of simple.Table "levels".
// Allocation picks a container by hashing the key, then walks levels in
// order until one has a free slot.
package variable

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/rodrigch18/TinyPointers/errs"
	"github.com/rodrigch18/TinyPointers/internal/mix"
	"github.com/rodrigch18/TinyPointers/simple"
)

// Handle bit layout, low to high: slot occupies bits 0-3, level bits 4-7,
// container index bits 8-15. This caps level_count at 16, container_count
// at 256, and each level's bucket_size at 16 — see spec.md §9's design note.
const (
	slotBits      = 4
	levelBits     = 4
	containerBits = 8

	slotMask      = 1<<slotBits - 1
	levelMask     = 1<<levelBits - 1
	containerMask = 1<<containerBits - 1

	maxLevelCount     = 1 << levelBits
	maxContainerCount = 1 << containerBits
)

// container is one cascade of simple.Tables sharing a slice of the key space.
type container struct {
	levels []*simple.Table
}

// Table is an array of containers, each sharding a slice of the key space
// and cascading overflow across its levels.
type Table struct {
	mu sync.Mutex

	containers []*container
	levelCount int
}

// New builds containerCount = ceil(totalCapacity / containerCapacity)
// containers, each holding levelCount independent simple.Tables sized
// floor(containerCapacity / levelCount) (minimum 1).
func New(totalCapacity, containerCapacity, levelCount int, loadFactor float64) (*Table, error) {
	if totalCapacity <= 0 || containerCapacity <= 0 {
		return nil, errors.Wrapf(errs.ErrInvalidArgument, "capacities must be positive (total=%d, container=%d)", totalCapacity, containerCapacity)
	}
	if levelCount <= 0 {
		return nil, errors.Wrapf(errs.ErrInvalidArgument, "level count %d must be positive", levelCount)
	}
	if levelCount > maxLevelCount {
		return nil, errors.Wrapf(errs.ErrInvalidArgument, "level count %d exceeds handle width (max %d)", levelCount, maxLevelCount)
	}

	containerCount := ceilDiv(totalCapacity, containerCapacity)
	if containerCount > maxContainerCount {
		return nil, errors.Wrapf(errs.ErrInvalidArgument, "container count %d exceeds handle width (max %d)", containerCount, maxContainerCount)
	}

	levelCapacity := containerCapacity / levelCount
	if levelCapacity < 1 {
		levelCapacity = 1
	}

	// The handle's slot field is 4 bits wide (spec.md §9's design note:
	// "the current layout truncates" at bucket_size > 16), so a level
	// whose bucket_size would exceed that is rejected at construction
	// rather than silently losing the high bits of a slot offset.
	probe, err := simple.New(levelCapacity, loadFactor)
	if err != nil {
		return nil, errors.Wrap(err, "variable: probing level geometry")
	}
	if bs := probe.BucketSize(); bs > slotMask+1 {
		return nil, errors.Wrapf(errs.ErrInvalidArgument, "level bucket_size %d exceeds the 4-bit slot field (max %d); use a larger level_count or smaller container_capacity", bs, slotMask+1)
	}

	containers := make([]*container, containerCount)
	for i := range containers {
		c, err := newContainer(levelCapacity, levelCount, loadFactor)
		if err != nil {
			return nil, errors.Wrap(err, "variable: building container")
		}
		containers[i] = c
	}

	return &Table{containers: containers, levelCount: levelCount}, nil
}

func newContainer(levelCapacity, levelCount int, loadFactor float64) (*container, error) {
	levels := make([]*simple.Table, levelCount)
	for i := range levels {
		lvl, err := simple.New(levelCapacity, loadFactor)
		if err != nil {
			return nil, err
		}
		levels[i] = lvl
	}
	return &container{levels: levels}, nil
}

func (t *Table) containerFor(key int32) int {
	h := mix.Unseeded(key)
	return int(h) % len(t.containers)
}

// Allocate picks a container by hashing key, then tries each level in order
// until one succeeds, encoding container|level|slot into the handle.
func (t *Table) Allocate(key int32, value int32) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ci := t.containerFor(key)
	c := t.containers[ci]
	for level, lvl := range c.levels {
		slot, err := lvl.Allocate(key, value)
		if err == nil {
			return encode(ci, level, slot), nil
		}
	}
	return 0, errors.Wrapf(errs.ErrSaturated, "container %d saturated across all %d levels", ci, t.levelCount)
}

// Dereference decodes container, level, and slot from tinyPtr and dispatches
// to the named level's simple.Table.
func (t *Table) Dereference(key int32, tinyPtr int) (int32, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	lvl, offset, err := t.level(tinyPtr)
	if err != nil {
		return 0, err
	}
	return lvl.Dereference(key, offset)
}

// DereferenceChecked is the key-verifying counterpart of Dereference.
func (t *Table) DereferenceChecked(key int32, tinyPtr int) (int32, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	lvl, offset, err := t.level(tinyPtr)
	if err != nil {
		return 0, err
	}
	return lvl.DereferenceChecked(key, offset)
}

// Free decodes tinyPtr and frees the slot in the named level.
func (t *Table) Free(key int32, tinyPtr int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	lvl, offset, err := t.level(tinyPtr)
	if err != nil {
		return
	}
	lvl.Free(key, offset)
}

func (t *Table) level(tinyPtr int) (*simple.Table, int, error) {
	ci, level, offset := decode(tinyPtr)
	if ci < 0 || ci >= len(t.containers) {
		return nil, 0, errors.Wrapf(errs.ErrOutOfRange, "container index %d out of range", ci)
	}
	c := t.containers[ci]
	if level < 0 || level >= len(c.levels) {
		return nil, 0, errors.Wrapf(errs.ErrOutOfRange, "level %d out of range", level)
	}
	return c.levels[level], offset, nil
}

func encode(containerIndex, level, slot int) int {
	return (containerIndex&containerMask)<<(levelBits+slotBits) | (level&levelMask)<<slotBits | (slot & slotMask)
}

func decode(tinyPtr int) (containerIndex, level, slot int) {
	slot = tinyPtr & slotMask
	level = (tinyPtr >> slotBits) & levelMask
	containerIndex = (tinyPtr >> (slotBits + levelBits)) & containerMask
	return
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
