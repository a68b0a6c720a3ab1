// Package errs holds the sentinel errors shared by every tiny-pointer table
// variant, so callers can errors.Is against one set regardless of which
// variant produced the error.
package errs

import "errors"

var (
	// ErrInvalidArgument marks a zero capacity, an out-of-range load factor,
	// or any other construction argument a table cannot be built from.
	ErrInvalidArgument = errors.New("tinyptr: invalid argument")

	// ErrSaturated marks a bucket, level set, or sub-table with no free slot
	// left to allocate into.
	ErrSaturated = errors.New("tinyptr: saturated")

	// ErrAllocation marks a failure to obtain backing memory for create or
	// resize. No table in this module returns it: the Go runtime allocator
	// panics rather than returning an error, and table constructors do not
	// check their size computations for overflow.
	ErrAllocation = errors.New("tinyptr: allocation failed")

	// ErrNilTable marks an operation called on a nil table.
	ErrNilTable = errors.New("tinyptr: nil table")

	// ErrVariantUnsupported marks an operation not supported by a variant,
	// e.g. Resize on Fixed or Variable.
	ErrVariantUnsupported = errors.New("tinyptr: operation unsupported by variant")

	// ErrOutOfRange marks a tiny pointer whose decoded slot offset falls
	// outside a table's bucket_size. Spec.md leaves this a client
	// responsibility; this implementation tightens it per spec.md §7's
	// invitation to do so.
	ErrOutOfRange = errors.New("tinyptr: tiny pointer out of range")

	// ErrKeyMismatch marks a checked dereference whose stored key disagrees
	// with the key presented by the caller.
	ErrKeyMismatch = errors.New("tinyptr: key does not match stored entry")
)
