// Package tinyptr is the unified facade over the three tiny-pointer table
// variants (Simple, Fixed, Variable). It dispatches a uniform five-operation
// API — New, Allocate, Dereference, Free, Resize — to whichever variant a
// Table was constructed as, the way a tagged union would in a language
// without interfaces.
package tinyptr

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/rodrigch18/TinyPointers/errs"
	"github.com/rodrigch18/TinyPointers/fixed"
	"github.com/rodrigch18/TinyPointers/simple"
	"github.com/rodrigch18/TinyPointers/variable"
)

// Variant selects which tiny-pointer table representation a Table uses.
type Variant int

const (
	// Simple is a single hash-bucketed slot array.
	Simple Variant = iota
	// Fixed is a primary/secondary pair of Simple tables under a tag bit.
	Fixed
	// Variable is an array of containers, each a cascade of Simple levels.
	Variable
)

func (v Variant) String() string {
	switch v {
	case Simple:
		return "simple"
	case Fixed:
		return "fixed"
	case Variable:
		return "variable"
	default:
		return "unknown"
	}
}

// defaultContainerDivisor and defaultLevelCount give the Variable variant's
// geometry when the caller only supplies capacity and load factor, per
// spec.md §6: container_capacity = max(1, capacity/4), level_count = 4.
const (
	defaultContainerDivisor = 4
	defaultLevelCount       = 4
)

// Table is a tagged union over the three variants. The zero Table is not
// usable; construct one with New or NewVariable.
//
// mu guards only the simpleTable pointer itself, so a Resize swap never
// races with a concurrent operation reading the field; the table it points
// to has its own lock for the operation's duration.
type Table struct {
	mu      sync.RWMutex
	variant Variant

	simpleTable   *simple.Table
	fixedTable    *fixed.Table
	variableTable *variable.Table
}

// New creates a table of the given variant. For Variable, it chooses the
// default geometry described in spec.md §6; use NewVariable for an explicit
// container_capacity and level_count.
func New(capacity int, variant Variant, loadFactor float64) (*Table, error) {
	switch variant {
	case Simple:
		st, err := simple.New(capacity, loadFactor)
		if err != nil {
			return nil, err
		}
		return &Table{variant: Simple, simpleTable: st}, nil
	case Fixed:
		ft, err := fixed.New(capacity, loadFactor)
		if err != nil {
			return nil, err
		}
		return &Table{variant: Fixed, fixedTable: ft}, nil
	case Variable:
		containerCapacity := capacity / defaultContainerDivisor
		if containerCapacity < 1 {
			containerCapacity = 1
		}
		vt, err := variable.New(capacity, containerCapacity, defaultLevelCount, loadFactor)
		if err != nil {
			return nil, err
		}
		return &Table{variant: Variable, variableTable: vt}, nil
	default:
		return nil, errors.Wrapf(errs.ErrInvalidArgument, "unknown variant %v", variant)
	}
}

// NewVariable creates a Variable-variant table with an explicit container
// capacity and level count, bypassing New's defaults.
func NewVariable(totalCapacity, containerCapacity, levelCount int, loadFactor float64) (*Table, error) {
	vt, err := variable.New(totalCapacity, containerCapacity, levelCount, loadFactor)
	if err != nil {
		return nil, err
	}
	return &Table{variant: Variable, variableTable: vt}, nil
}

// Variant reports which representation this table uses.
func (t *Table) Variant() Variant {
	if t == nil {
		return -1
	}
	return t.variant
}

// Allocate stores value under key and returns a tiny pointer meaningful only
// in combination with key.
func (t *Table) Allocate(key, value int32) (int, error) {
	if t == nil {
		return 0, errs.ErrNilTable
	}
	switch t.variant {
	case Simple:
		return t.currentSimple().Allocate(key, value)
	case Fixed:
		return t.fixedTable.Allocate(key, value)
	case Variable:
		return t.variableTable.Allocate(key, value)
	default:
		return 0, errs.ErrInvalidArgument
	}
}

// currentSimple reads the simpleTable pointer under the facade's lock so it
// can't observe a half-completed Resize swap.
func (t *Table) currentSimple() *simple.Table {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.simpleTable
}

// Dereference returns the value stored at tinyPtr, without verifying that
// the slot's key matches the one presented (spec.md §7, §9).
func (t *Table) Dereference(key int32, tinyPtr int) (int32, error) {
	if t == nil {
		return 0, errs.ErrNilTable
	}
	switch t.variant {
	case Simple:
		return t.currentSimple().Dereference(key, tinyPtr)
	case Fixed:
		return t.fixedTable.Dereference(key, tinyPtr)
	case Variable:
		return t.variableTable.Dereference(key, tinyPtr)
	default:
		return 0, errs.ErrInvalidArgument
	}
}

// DereferenceChecked is Dereference's key-verifying counterpart, per
// spec.md §9's open question.
func (t *Table) DereferenceChecked(key int32, tinyPtr int) (int32, error) {
	if t == nil {
		return 0, errs.ErrNilTable
	}
	switch t.variant {
	case Simple:
		return t.currentSimple().DereferenceChecked(key, tinyPtr)
	case Fixed:
		return t.fixedTable.DereferenceChecked(key, tinyPtr)
	case Variable:
		return t.variableTable.DereferenceChecked(key, tinyPtr)
	default:
		return 0, errs.ErrInvalidArgument
	}
}

// Free releases the slot named by key and tinyPtr. A nil table or an
// already-free slot is a silent no-op, matching spec.md §7.
func (t *Table) Free(key int32, tinyPtr int) {
	if t == nil {
		return
	}
	switch t.variant {
	case Simple:
		t.currentSimple().Free(key, tinyPtr)
	case Fixed:
		t.fixedTable.Free(key, tinyPtr)
	case Variable:
		t.variableTable.Free(key, tinyPtr)
	}
}

// Resize is supported only for the Simple variant; it returns
// ErrVariantUnsupported for Fixed and Variable without modifying the table,
// per spec.md §4.5. Tiny pointers issued before a successful Resize are
// invalid afterwards, since the rehash may move entries to other slots.
func (t *Table) Resize(newCapacity int) error {
	if t == nil {
		return errs.ErrNilTable
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.variant != Simple {
		return errors.Wrapf(errs.ErrVariantUnsupported, "resize is not supported for %v tables", t.variant)
	}
	next, err := t.simpleTable.Resize(newCapacity)
	if err != nil {
		return err
	}
	t.simpleTable = next
	return nil
}
