package async

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

func TestMap_PreservesOrder(t *testing.T) {
	items := []int{5, 1, 4, 2, 3}

	results := Map(context.Background(), items, 2, func(_ context.Context, n int) (string, error) {
		time.Sleep(time.Duration(n) * time.Millisecond)
		return fmt.Sprintf("item-%d", n), nil
	})

	if len(results) != len(items) {
		t.Fatalf("expected %d results, got %d", len(items), len(results))
	}
	for i, n := range items {
		want := fmt.Sprintf("item-%d", n)
		if results[i].Value != want || results[i].Err != nil {
			t.Errorf("result %d: expected %q, got %+v", i, want, results[i])
		}
	}
}

func TestMap_RespectsLimit(t *testing.T) {
	var running, peak atomic.Int32

	Map(context.Background(), make([]int, 12), 3, func(_ context.Context, _ int) (struct{}, error) {
		n := running.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return struct{}{}, nil
	})

	if peak.Load() > 3 {
		t.Errorf("expected at most 3 concurrent calls, saw %d", peak.Load())
	}
}

func TestMap_Empty(t *testing.T) {
	results := Map(context.Background(), []string(nil), 4, func(context.Context, string) (int, error) {
		t.Fatal("fn should not be called")
		return 0, nil
	})
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestMap_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	results := Map(ctx, []int{1, 2, 3}, 1, func(context.Context, int) (int, error) {
		calls.Add(1)
		return 0, nil
	})

	for i, r := range results {
		if !errors.Is(r.Err, context.Canceled) {
			t.Errorf("result %d: expected context.Canceled, got %v", i, r.Err)
		}
	}
	if calls.Load() != 0 {
		t.Errorf("expected no calls after cancellation, got %d", calls.Load())
	}
}

func TestErrors(t *testing.T) {
	errA := errors.New("boom")
	results := []Result[int]{{Value: 1}, {Err: errA}, {Value: 3}}

	err := Errors(results, func(i int) string { return fmt.Sprintf("item %d", i) })

	if !errors.Is(err, errA) {
		t.Errorf("expected joined error to wrap errA, got %v", err)
	}
	if err.Error() != "item 1: boom" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if Errors([]Result[int]{{Value: 1}}, func(int) string { return "" }) != nil {
		t.Error("expected nil when nothing failed")
	}
}
