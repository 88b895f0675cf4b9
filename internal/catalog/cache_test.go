package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCacheHitAndExpiry(t *testing.T) {
	c := NewCache[int](time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	var loads int
	load := func(context.Context) (int, error) {
		loads++
		return loads, nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.GetOrLoad(context.Background(), "menu", load)
		if err != nil || v != 1 {
			t.Fatalf("call %d: got %d, %v", i, v, err)
		}
	}
	if loads != 1 {
		t.Fatalf("expected 1 load, got %d", loads)
	}

	now = now.Add(2 * time.Minute)
	v, _ := c.GetOrLoad(context.Background(), "menu", load)
	if v != 2 || loads != 2 {
		t.Fatalf("expected reload after expiry, got value %d after %d loads", v, loads)
	}
}

func TestCacheZeroTTLDisablesCaching(t *testing.T) {
	c := NewCache[int](0)
	var loads int
	for i := 0; i < 3; i++ {
		c.GetOrLoad(context.Background(), "k", func(context.Context) (int, error) {
			loads++
			return loads, nil
		})
	}
	if loads != 3 {
		t.Fatalf("expected every call to load, got %d loads", loads)
	}
	if c.Len() != 0 {
		t.Fatalf("expected empty cache, got %d entries", c.Len())
	}
}

func TestCacheDoesNotStoreErrors(t *testing.T) {
	c := NewCache[int](time.Minute)
	boom := errors.New("db down")

	_, err := c.GetOrLoad(context.Background(), "k", func(context.Context) (int, error) { return 0, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected load error, got %v", err)
	}
	v, err := c.GetOrLoad(context.Background(), "k", func(context.Context) (int, error) { return 7, nil })
	if err != nil || v != 7 {
		t.Fatalf("expected fresh load after error, got %d, %v", v, err)
	}
}

func TestCacheCollapsesConcurrentMisses(t *testing.T) {
	c := NewCache[int](time.Minute)
	var loads atomic.Int32
	release := make(chan struct{})

	load := func(context.Context) (int, error) {
		loads.Add(1)
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if v, err := c.GetOrLoad(context.Background(), "menu", load); err != nil || v != 42 {
				t.Errorf("got %d, %v", v, err)
			}
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := loads.Load(); n != 1 {
		t.Fatalf("expected a single load, got %d", n)
	}
}

func TestCacheInvalidateDropsInFlightResult(t *testing.T) {
	c := NewCache[string](time.Minute)
	started := make(chan struct{})
	release := make(chan struct{})

	done := make(chan string)
	go func() {
		v, _ := c.GetOrLoad(context.Background(), "menu", func(context.Context) (string, error) {
			close(started)
			<-release
			return "stale", nil
		})
		done <- v
	}()

	<-started
	c.Invalidate()
	close(release)
	if v := <-done; v != "stale" {
		t.Fatalf("in-flight caller should still get its value, got %q", v)
	}

	v, _ := c.GetOrLoad(context.Background(), "menu", func(context.Context) (string, error) {
		return "fresh", nil
	})
	if v != "fresh" {
		t.Fatalf("expected fresh value after invalidation, got %q", v)
	}
}
