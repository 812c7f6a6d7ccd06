package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_InsertAndRetrieve(t *testing.T) {
	c := NewCache[string](10)

	require.NoError(t, c.Insert("A", "valueA", 1))
	require.NoError(t, c.Insert("B", "valueB", 2))
	assert.Equal(t, 3, c.GetWeight())
	assert.Equal(t, 10, c.GetBudget())

	value, ok := c.Retrieve("A")
	assert.True(t, ok)
	assert.Equal(t, "valueA", value)

	_, ok = c.Retrieve("C")
	assert.False(t, ok)

	assert.Equal(t, ErrKeyExists, c.Insert("A", "other", 1))
	value, _ = c.Retrieve("A")
	assert.Equal(t, "valueA", value)

	assert.Equal(t, ErrOverBudget, c.Insert("D", "too big", 11))
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCache[int](3)
	c.SetVerbose(true)

	require.NoError(t, c.Insert("A", 1, 1))
	require.NoError(t, c.Insert("B", 2, 1))
	require.NoError(t, c.Insert("C", 3, 1))

	// Touch A so that B becomes the oldest entry.
	_, ok := c.Retrieve("A")
	require.True(t, ok)

	require.NoError(t, c.Insert("D", 4, 1))
	_, ok = c.Retrieve("B")
	assert.False(t, ok)
	for _, key := range []string{"A", "C", "D"} {
		_, ok := c.Retrieve(key)
		assert.True(t, ok, key)
	}

	// A heavy entry can evict several light ones.
	require.NoError(t, c.Insert("E", 5, 3))
	assert.Equal(t, 3, c.GetWeight())
	for _, key := range []string{"A", "C", "D"} {
		_, ok := c.Retrieve(key)
		assert.False(t, ok, key)
	}
}

func TestCache_DeleteAndClear(t *testing.T) {
	c := NewCache[int](10)
	require.NoError(t, c.Insert("A", 1, 4))
	require.NoError(t, c.Insert("B", 2, 4))

	c.Delete("A")
	c.Delete("missing")
	assert.Equal(t, 4, c.GetWeight())
	_, ok := c.Retrieve("A")
	assert.False(t, ok)

	c.Clear()
	assert.Zero(t, c.GetWeight())
	_, ok = c.Retrieve("B")
	assert.False(t, ok)

	require.NoError(t, c.Insert("A", 3, 4))
}

func TestCache_Concurrent(t *testing.T) {
	c := NewCache[int](50)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("%d-%d", worker, j)
				_ = c.Insert(key, j, 1)
				c.Retrieve(key)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, c.GetWeight())
}
