package cache_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/cache"
)

func TestLRU_Basic(t *testing.T) {
	t.Run("put and get", func(t *testing.T) {
		c := cache.NewLRU[string, int](3)
		c.Put("a", 1)
		c.Put("b", 2)

		val, ok := c.Get("a")
		assert.True(t, ok)
		assert.Equal(t, 1, val)
		assert.Equal(t, 2, c.Len())
	})

	t.Run("missing key", func(t *testing.T) {
		c := cache.NewLRU[string, int](3)
		val, ok := c.Get("missing")
		assert.False(t, ok)
		assert.Zero(t, val)
	})

	t.Run("replace keeps size", func(t *testing.T) {
		c := cache.NewLRU[string, int](3)
		c.Put("a", 1)
		c.Put("a", 2)

		val, _ := c.Get("a")
		assert.Equal(t, 2, val)
		assert.Equal(t, 1, c.Len())
	})

	t.Run("invalid capacity panics", func(t *testing.T) {
		assert.Panics(t, func() { cache.NewLRU[string, int](0) })
	})
}

func TestLRU_Eviction(t *testing.T) {
	var evicted []string
	c := cache.NewLRU[string, int](2, cache.WithEvictCallback(func(k string, _ int) {
		evicted = append(evicted, k)
	}))

	c.Put("a", 1)
	c.Put("b", 2)
	_, _ = c.Get("a") // b is now least recently used
	c.Put("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok)
	assert.Equal(t, []string{"b"}, evicted)

	assert.True(t, c.Remove("a"))
	assert.False(t, c.Remove("a"))
	assert.Equal(t, []string{"b", "a"}, evicted)

	c.Clear()
	assert.Equal(t, []string{"b", "a", "c"}, evicted)
	assert.Zero(t, c.Len())
}

func TestLRU_GetOrCreate(t *testing.T) {
	t.Run("creates once", func(t *testing.T) {
		c := cache.NewLRU[string, int](4)
		calls := 0
		create := func() int { calls++; return 42 }

		assert.Equal(t, 42, c.GetOrCreate("k", create))
		assert.Equal(t, 42, c.GetOrCreate("k", create))
		assert.Equal(t, 1, calls)
	})

	t.Run("concurrent callers share value", func(t *testing.T) {
		c := cache.NewLRU[string, *int](4)
		var wg sync.WaitGroup
		results := make([]*int, 50)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = c.GetOrCreate("shared", func() *int { v := i; return &v })
			}(i)
		}
		wg.Wait()

		for _, r := range results {
			require.Same(t, results[0], r)
		}
	})
}

func TestLRU_Concurrent(t *testing.T) {
	c := cache.NewLRU[string, int](10)
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%15)
			c.Put(key, i)
			_, _ = c.Get(key)
			if i%5 == 0 {
				c.Remove(key)
			}
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 10)
}
