package strhash

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashInsertFind(t *testing.T) {
	h := NewHash()
	require.Nil(t, h.Insert("alpha", 1))
	require.Nil(t, h.Insert("beta", 2))
	require.Nil(t, h.Insert("gamma", 3))

	require.Equal(t, 3, h.Len())
	require.Equal(t, 1, h.Find("alpha"))
	require.Equal(t, 2, h.Find("beta"))
	require.Equal(t, 3, h.Find("gamma"))
	require.Nil(t, h.Find("delta"))

	// Keys compare like SQL identifiers.
	require.Equal(t, 1, h.Find("ALPHA"))
	require.Equal(t, 2, h.Find("Beta"))
}

func TestHashReplaceReturnsOld(t *testing.T) {
	h := NewHash()
	require.Nil(t, h.Insert("sp1", "first"))
	require.Equal(t, "first", h.Insert("SP1", "second"))

	require.Equal(t, 1, h.Len())
	require.Equal(t, "second", h.Find("sp1"))
	// A replacement adopts the latest spelling of the key.
	require.Equal(t, "SP1", h.First().Key())
}

func TestHashRemove(t *testing.T) {
	h := NewHash()
	h.Insert("one", 1)
	h.Insert("two", 2)

	require.Nil(t, h.Insert("three", nil), "removing an absent key is a no-op")
	require.Equal(t, 2, h.Len())

	require.Equal(t, 1, h.Insert("one", nil))
	require.Equal(t, 1, h.Len())
	require.Nil(t, h.Find("one"))
	require.Equal(t, 2, h.Find("two"))

	require.Equal(t, 2, h.Insert("two", nil))
	require.Equal(t, 0, h.Len())
	require.Nil(t, h.First())
}

func TestHashGrowth(t *testing.T) {
	h := NewHash()
	for i := 0; i < 50; i++ {
		require.Nil(t, h.Insert(fmt.Sprintf("key-%02d", i), i))
	}
	require.Equal(t, 50, h.Len())
	require.NotEmpty(t, h.ht, "a table this large should have grown buckets")

	for i := 0; i < 50; i++ {
		require.Equal(t, i, h.Find(fmt.Sprintf("KEY-%02d", i)))
	}

	for i := 0; i < 50; i++ {
		require.Equal(t, i, h.Insert(fmt.Sprintf("key-%02d", i), nil))
	}
	require.Equal(t, 0, h.Len())
	require.Nil(t, h.First())
	require.Empty(t, h.ht, "draining the table resets it")
}

func TestHashIterationOrder(t *testing.T) {
	h := NewHash()
	h.Insert("a", 1)
	h.Insert("b", 2)
	h.Insert("c", 3)

	var keys []string
	for e := h.First(); e != nil; e = e.Next() {
		keys = append(keys, e.Key())
	}
	require.Equal(t, []string{"c", "b", "a"}, keys)
}
