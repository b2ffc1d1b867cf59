package cache

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCachesWithinTTL(t *testing.T) {
	c := New(10)
	var calls int32
	load := func() (any, error) {
		atomic.AddInt32(&calls, 1)
		return "value", nil
	}

	v1, err := c.Get("key", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, "value", v1)

	v2, err := c.Get("key", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, "value", v2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "second Get within TTL must not invoke the loader")
}

func TestGetReloadsAfterExpiry(t *testing.T) {
	c := New(10)
	var calls int32
	load := func() (any, error) {
		atomic.AddInt32(&calls, 1)
		return atomic.LoadInt32(&calls), nil
	}

	_, err := c.Get("key", time.Millisecond, load)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = c.Get("key", time.Millisecond, load)
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetLoaderFailureNotCached(t *testing.T) {
	c := New(10)
	var calls int32
	load := func() (any, error) {
		atomic.AddInt32(&calls, 1)
		return nil, assert.AnError
	}

	_, err := c.Get("key", time.Minute, load)
	assert.Error(t, err)
	_, err = c.Get("key", time.Minute, load)
	assert.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "a failed load must never be cached")
}

func TestGetCoalescesConcurrentLoads(t *testing.T) {
	c := New(10)
	var calls int32
	release := make(chan struct{})
	load := func() (any, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "value", nil
	}

	var wg sync.WaitGroup
	results := make([]any, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.Get("shared", time.Minute, load)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	time.Sleep(10 * time.Millisecond) // let every goroutine reach the inflight wait
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "concurrent loads for the same key must coalesce into one call")
	for _, v := range results {
		assert.Equal(t, "value", v)
	}
}

func TestPeekDoesNotTriggerLoad(t *testing.T) {
	c := New(10)
	_, ok := c.Peek("missing", time.Minute)
	assert.False(t, ok)

	c.Put("present", 42)
	v, ok := c.Peek("present", time.Minute)
	assert.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestEvictionRespectsMaxSize(t *testing.T) {
	c := New(2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)

	assert.Equal(t, 2, c.Len())
	_, ok := c.Peek("a", time.Minute)
	assert.False(t, ok, "oldest entry should have been evicted")
	_, ok = c.Peek("c", time.Minute)
	assert.True(t, ok)
}

func TestEvictionRefreshesOnAccess(t *testing.T) {
	c := New(2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Peek("a", time.Minute) // touch a, making b the least-recently-used entry
	c.Put("c", 3)

	_, ok := c.Peek("b", time.Minute)
	assert.False(t, ok, "b should be evicted, not a, since a was touched more recently")
	_, ok = c.Peek("a", time.Minute)
	assert.True(t, ok)
}
