// Package fixed implements the two-table tiny-pointer variant: a large
// primary simple table and a small secondary overflow table, tagged by one
// bit in the handle. Resizing is not supported — see spec.md's Non-goals.
package fixed

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/rodrigch18/TinyPointers/errs"
	"github.com/rodrigch18/TinyPointers/simple"
)

const primaryShare = 0.90

// Table holds a primary and secondary simple.Table under one lock. Handles
// are primary/secondary slot offsets with bit 0 naming which sub-table: 0
// for primary, 1 for secondary.
type Table struct {
	mu sync.Mutex

	primary   *simple.Table
	secondary *simple.Table
}

// New splits totalCapacity 90/10 (integer truncation) between a primary and
// a secondary simple.Table, both built at loadFactor.
func New(totalCapacity int, loadFactor float64) (*Table, error) {
	if totalCapacity <= 0 {
		return nil, errors.Wrapf(errs.ErrInvalidArgument, "total capacity %d must be positive", totalCapacity)
	}

	primaryCapacity := int(float64(totalCapacity) * primaryShare)
	secondaryCapacity := totalCapacity - primaryCapacity
	if primaryCapacity <= 0 {
		primaryCapacity = 1
	}
	if secondaryCapacity <= 0 {
		secondaryCapacity = 1
	}

	primary, err := simple.New(primaryCapacity, loadFactor)
	if err != nil {
		return nil, errors.Wrap(err, "fixed: building primary table")
	}
	secondary, err := simple.New(secondaryCapacity, loadFactor)
	if err != nil {
		return nil, errors.Wrap(err, "fixed: building secondary table")
	}

	return &Table{primary: primary, secondary: secondary}, nil
}

// Allocate tries the primary table first and falls back to the secondary
// only on saturation. It fails only if both are saturated.
func (t *Table) Allocate(key int32, value int32) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if tp, err := t.primary.Allocate(key, value); err == nil {
		return encode(tp, 0), nil
	}
	tp, err := t.secondary.Allocate(key, value)
	if err != nil {
		return 0, errors.Wrap(errs.ErrSaturated, "fixed: both primary and secondary saturated")
	}
	return encode(tp, 1), nil
}

// Dereference decodes the handle's tag bit and dispatches to the named
// sub-table.
func (t *Table) Dereference(key int32, tinyPtr int) (int32, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	sub, offset := decode(tinyPtr)
	return t.sub(sub).Dereference(key, offset)
}

// DereferenceChecked is the key-verifying counterpart of Dereference.
func (t *Table) DereferenceChecked(key int32, tinyPtr int) (int32, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	sub, offset := decode(tinyPtr)
	return t.sub(sub).DereferenceChecked(key, offset)
}

// Free decodes the handle and frees the slot in the named sub-table.
func (t *Table) Free(key int32, tinyPtr int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	sub, offset := decode(tinyPtr)
	t.sub(sub).Free(key, offset)
}

func (t *Table) sub(flag int) *simple.Table {
	if flag == 0 {
		return t.primary
	}
	return t.secondary
}

// encode packs a sub-table slot offset and its 1-bit table tag into a
// handle: bit 0 is the tag, bits >= 1 are the offset. With bucket_size
// capped at 32 this still fits in six bits.
func encode(slotOffset, tableFlag int) int {
	return (slotOffset << 1) | tableFlag
}

func decode(tinyPtr int) (tableFlag, slotOffset int) {
	return tinyPtr & 1, tinyPtr >> 1
}
