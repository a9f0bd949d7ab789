package asyncx_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/libromesh/identity/pkg/asyncx"
)

func TestFuture(t *testing.T) {
	f := asyncx.Run(func() (int, error) { return 42, nil })

	v, err := f.Await()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 {
		t.Fatalf("expected 42, got %d", v)
	}

	// Await is idempotent.
	v, err = f.Await()
	if err != nil || v != 42 {
		t.Fatalf("second Await changed the result: %d, %v", v, err)
	}
}

func TestFuture_Error(t *testing.T) {
	boom := errors.New("boom")
	f := asyncx.Run(func() (int, error) { return 0, boom })

	if _, err := f.Await(); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestPool(t *testing.T) {
	items := make([]int, 50)
	for i := range items {
		items[i] = i
	}

	var inFlight, peak atomic.Int32
	results, err := asyncx.Pool(context.Background(), 4, items, func(ctx context.Context, n int) (int, error) {
		cur := inFlight.Add(1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		inFlight.Add(-1)
		return n * 2, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, r := range results {
		if r != i*2 {
			t.Fatalf("result %d out of order: %d", i, r)
		}
	}
	if peak.Load() > 4 {
		t.Fatalf("worker bound violated: peak %d", peak.Load())
	}
}

func TestPool_Error(t *testing.T) {
	boom := errors.New("boom")
	_, err := asyncx.Pool(context.Background(), 2, []int{1, 2, 3}, func(ctx context.Context, n int) (int, error) {
		if n == 2 {
			return 0, boom
		}
		return n, nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}
