package cachestore_test

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prefix-dev/pixi-sub001/internal/cachestore"
)

func TestPutThenGet(t *testing.T) {
	m, err := cachestore.New(cachestore.WithDir(t.TempDir()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	path, err := m.Put(context.Background(), "abc123", strings.NewReader("package bytes"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok := m.Get("abc123")
	if !ok || got != path {
		t.Fatalf("expected cache hit at %s, got %s ok=%v", path, got, ok)
	}
}

func TestPutIsIdempotent(t *testing.T) {
	m, err := cachestore.New(cachestore.WithDir(t.TempDir()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := m.Put(context.Background(), "hash", strings.NewReader("first")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	path, err := m.Put(context.Background(), "hash", strings.NewReader("second, should be ignored"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := m.Get("hash"); !ok {
		t.Fatalf("expected %s to remain cached", path)
	}
}

func TestPutDeduplicatesConcurrentWriters(t *testing.T) {
	m, err := cachestore.New(cachestore.WithDir(t.TempDir()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var writes int32

	var wg sync.WaitGroup

	for range 10 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := m.Put(context.Background(), "shared", newCountingReader(&writes, "payload"))
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}

	wg.Wait()

	if _, ok := m.Get("shared"); !ok {
		t.Fatal("expected the package to end up cached")
	}

	if atomic.LoadInt32(&writes) == 0 {
		t.Fatal("expected at least one reader to have actually been drained")
	}
}

// countingReader wraps a fixed payload, counting Read calls in a counter
// that several readers can share, so a test can tell whether any of them
// was actually drained.
type countingReader struct {
	reads *int32
	r     *strings.Reader
}

func newCountingReader(reads *int32, payload string) *countingReader {
	return &countingReader{reads: reads, r: strings.NewReader(payload)}
}

func (c *countingReader) Read(p []byte) (int, error) {
	atomic.AddInt32(c.reads, 1)
	return c.r.Read(p)
}

func TestAcquireReleaseRefCounting(t *testing.T) {
	m, err := cachestore.New(cachestore.WithDir(t.TempDir()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	release1 := m.Acquire("numpy-1.2.3")
	release2 := m.Acquire("numpy-1.2.3")

	if got := m.RefCount("numpy-1.2.3"); got != 2 {
		t.Fatalf("expected refcount 2, got %d", got)
	}

	release1()

	if got := m.RefCount("numpy-1.2.3"); got != 1 {
		t.Fatalf("expected refcount 1 after one release, got %d", got)
	}

	release2()
	release2() // idempotent: a second release must not go negative

	if got := m.RefCount("numpy-1.2.3"); got != 0 {
		t.Fatalf("expected refcount 0, got %d", got)
	}
}

func TestDefaultDirHonorsPixiCacheDir(t *testing.T) {
	env := map[string]string{"PIXI_CACHE_DIR": "/custom/cache"}

	dir := cachestore.DefaultDir(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	if dir != "/custom/cache" {
		t.Fatalf("expected PIXI_CACHE_DIR to win, got %s", dir)
	}
}
