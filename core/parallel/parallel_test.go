package parallel

import (
	"sync/atomic"
	"testing"
)

func TestParallelizeCoversEveryItem(t *testing.T) {
	for _, items := range []int{0, 1, 7, 64, 1000} {
		hits := make([]int32, items)
		Parallelize(items, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
		})
		for i, h := range hits {
			if h != 1 {
				t.Fatalf("items=%d: index %d visited %d times", items, i, h)
			}
		}
	}
}

func TestParallelizeWithThresholdRunsSmallInputsInline(t *testing.T) {
	calls := 0
	ParallelizeWithThreshold(10, 10, func(start, end int) {
		calls++
		if start != 0 || end != 10 {
			t.Fatalf("expected single full range, got [%d, %d)", start, end)
		}
	})
	if calls != 1 {
		t.Fatalf("expected one sequential call, got %d", calls)
	}
}
