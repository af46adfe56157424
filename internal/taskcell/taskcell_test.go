package taskcell_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prefix-dev/pixi-sub001/internal/taskcell"
)

func TestWaitBlocksUntilSet(t *testing.T) {
	c := taskcell.New[int]()

	var wg sync.WaitGroup
	results := make([]int, 3)

	for i := range results {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			v, err := c.Wait(context.Background())
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			results[i] = v
		}(i)
	}

	time.Sleep(10 * time.Millisecond)
	c.Set(42, nil)
	wg.Wait()

	for i, v := range results {
		if v != 42 {
			t.Errorf("reader %d got %d, want 42", i, v)
		}
	}
}

func TestSetTwicePanics(t *testing.T) {
	c := taskcell.New[string]()
	c.Set("a", nil)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on double Set")
		}
	}()

	c.Set("b", nil)
}

func TestWaitRespectsContextCancellation(t *testing.T) {
	c := taskcell.New[int]()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err := c.Wait(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}

func TestTryGet(t *testing.T) {
	c := taskcell.New[int]()

	if _, _, ok := c.TryGet(); ok {
		t.Error("expected TryGet to report not-ready before Set")
	}

	c.Set(7, nil)

	v, err, ok := c.TryGet()
	if !ok || err != nil || v != 7 {
		t.Errorf("unexpected TryGet result: v=%d err=%v ok=%v", v, err, ok)
	}
}
