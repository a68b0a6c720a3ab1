package tinyptr

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/rodrigch18/TinyPointers/errs"
)

func TestNilTableOperations(t *testing.T) {
	var table *Table

	_, err := table.Allocate(123, 456)
	assert.ErrorIs(t, err, errs.ErrNilTable)

	_, err = table.Dereference(123, 0)
	assert.ErrorIs(t, err, errs.ErrNilTable)

	assert.NotPanics(t, func() { table.Free(123, 0) })
}

func TestSimpleRoundTrip(t *testing.T) {
	table, err := New(1024, Simple, 0.9)
	require.NoError(t, err)

	key, value := int32(1000), int32(10000)
	tp, err := table.Allocate(key, value)
	require.NoError(t, err)

	got, err := table.Dereference(key, tp)
	require.NoError(t, err)
	assert.Equal(t, value, got)

	table.Free(key, tp)
	got, err = table.Dereference(key, tp)
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestFixedRoundTrip(t *testing.T) {
	table, err := New(1024, Fixed, 0.9)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		key := int32(i + 1000)
		value := key * 10
		tp, err := table.Allocate(key, value)
		require.NoError(t, err)
		got, err := table.Dereference(key, tp)
		require.NoError(t, err)
		assert.Equal(t, value, got)
	}
}

func TestVariableDefaultGeometry(t *testing.T) {
	table, err := New(10000, Variable, 0.9)
	require.NoError(t, err)
	assert.Equal(t, Variable, table.Variant())

	key, value := int32(777), int32(888)
	tp, err := table.Allocate(key, value)
	require.NoError(t, err)
	got, err := table.Dereference(key, tp)
	require.NoError(t, err)
	assert.Equal(t, value, got)
}

func TestResizeOnlySupportedForSimple(t *testing.T) {
	simpleTable, err := New(128, Simple, 0.9)
	require.NoError(t, err)
	assert.NoError(t, simpleTable.Resize(256))

	fixedTable, err := New(128, Fixed, 0.9)
	require.NoError(t, err)
	assert.ErrorIs(t, fixedTable.Resize(256), errs.ErrVariantUnsupported)

	variableTable, err := New(128, Variable, 0.9)
	require.NoError(t, err)
	assert.ErrorIs(t, variableTable.Resize(256), errs.ErrVariantUnsupported)
}

func TestResizeInvalidatesHandlesButTableStaysUsable(t *testing.T) {
	table, err := New(128, Simple, 0.9)
	require.NoError(t, err)

	key, value := int32(10), int32(100)
	tp, err := table.Allocate(key, value)
	require.NoError(t, err)

	require.NoError(t, table.Resize(256))

	// Post-resize, a fresh allocate/dereference cycle for the same key
	// works, but it's a new handle — the pre-resize tp is not reused here
	// since geometry (and possibly bucket_size) changed.
	newTP, err := table.Allocate(key, value)
	require.NoError(t, err)
	got, err := table.Dereference(key, newTP)
	require.NoError(t, err)
	assert.Equal(t, value, got)
	_ = tp
}

func TestVariableConcurrency(t *testing.T) {
	table, err := New(10000, Variable, 0.9)
	require.NoError(t, err)

	const workers = 4
	const perWorker = 1000

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		start := w * perWorker
		g.Go(func() error {
			for i := 0; i < perWorker; i++ {
				key := int32(start + i)
				value := key * 10
				tp, err := table.Allocate(key, value)
				if err != nil {
					return fmt.Errorf("allocate(%d): %w", key, err)
				}
				got, err := table.Dereference(key, tp)
				if err != nil {
					return fmt.Errorf("dereference(%d): %w", key, err)
				}
				if got != value {
					return fmt.Errorf("key %d: got %d want %d", key, got, value)
				}
				table.Free(key, tp)
			}
			return nil
		})
	}
	assert.NoError(t, g.Wait())
}
