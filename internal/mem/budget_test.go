package mem_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"citrine/internal/mem"
)

func TestBudgetReserveRelease(t *testing.T) {
	b := mem.NewBudget(1024)

	require.NoError(t, b.Reserve(512))
	require.Equal(t, int64(512), b.Used())

	require.NoError(t, b.Reserve(512))
	require.Equal(t, int64(1024), b.Used())

	b.Release(512)
	require.Equal(t, int64(512), b.Used())

	b.Release(512)
	require.Equal(t, int64(0), b.Used())
	require.Equal(t, int64(1024), b.Limit())
}

func TestBudgetExhaustion(t *testing.T) {
	b := mem.NewBudget(1000)

	require.NoError(t, b.Reserve(600))

	// Second reservation would exceed the cap and must reserve nothing.
	err := b.Reserve(500)
	require.ErrorIs(t, err, mem.ErrNoMem)
	require.Equal(t, int64(600), b.Used())

	// Releasing makes room again.
	b.Release(600)
	require.NoError(t, b.Reserve(1000))
}

func TestNilBudgetUnlimited(t *testing.T) {
	var b *mem.Budget

	require.NoError(t, b.Reserve(1<<40))
	b.Release(1 << 40)
	require.Equal(t, int64(0), b.Used())
	require.Equal(t, int64(0), b.Limit())
}

func TestBudgetIgnoresNonPositive(t *testing.T) {
	b := mem.NewBudget(10)

	require.NoError(t, b.Reserve(0))
	require.NoError(t, b.Reserve(-5))
	require.Equal(t, int64(0), b.Used())

	b.Release(0)
	b.Release(-5)
	require.Equal(t, int64(0), b.Used())
}
