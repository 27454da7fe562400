package pagestore_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"citrine/internal/common"
	"citrine/internal/mem"
	"citrine/internal/pagestore"
)

func TestPutAndGet(t *testing.T) {
	st := pagestore.NewMapStore(nil)

	image := []byte{1, 2, 3, 4}
	require.NoError(t, st.Put(7, image))

	// Mutate the original slice to ensure the store kept a clone.
	image[0] = 99

	got, ok := st.Get(7)
	require.True(t, ok)
	require.Equal(t, []byte{1, 2, 3, 4}, got)

	// Mutating what Get handed back must not touch the stored copy.
	got[1] = 88
	again, ok := st.Get(7)
	require.True(t, ok)
	require.Equal(t, []byte{1, 2, 3, 4}, again)
}

func TestGetMissing(t *testing.T) {
	st := pagestore.NewMapStore(nil)

	_, ok := st.Get(1)
	require.False(t, ok)
}

func TestOverwriteAndDelete(t *testing.T) {
	st := pagestore.NewMapStore(nil)

	require.NoError(t, st.Put(3, []byte("v1")))
	require.NoError(t, st.Put(3, []byte("v2")))
	require.Equal(t, 1, st.Len())

	got, ok := st.Get(3)
	require.True(t, ok)
	require.Equal(t, []byte("v2"), got)

	st.Delete(3)
	st.Delete(3) // deleting a missing page is fine
	require.Equal(t, 0, st.Len())
	_, ok = st.Get(3)
	require.False(t, ok)
}

func TestPagesSorted(t *testing.T) {
	st := pagestore.NewMapStore(nil)

	for _, pgno := range []common.PageNo{9, 2, 40, 1, 17} {
		require.NoError(t, st.Put(pgno, []byte{byte(pgno)}))
	}
	require.Equal(t, []common.PageNo{1, 2, 9, 17, 40}, st.Pages())
}

func TestBudgetAccounting(t *testing.T) {
	budget := mem.NewBudget(10)
	st := pagestore.NewMapStore(budget)

	require.NoError(t, st.Put(1, make([]byte, 4)))
	require.NoError(t, st.Put(2, make([]byte, 4)))
	require.Equal(t, int64(8), budget.Used())

	err := st.Put(3, make([]byte, 4))
	require.ErrorIs(t, err, mem.ErrNoMem)
	require.Equal(t, 2, st.Len())

	// Overwrites settle at the new image's size, not the sum.
	require.NoError(t, st.Put(1, make([]byte, 2)))
	require.Equal(t, int64(6), budget.Used())

	st.Delete(2)
	require.Equal(t, int64(2), budget.Used())

	st.Clear()
	require.Equal(t, int64(0), budget.Used())
	require.Equal(t, 0, st.Len())
}
