package utils

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerPoolRunsEveryJob(t *testing.T) {
	pool := NewWorkerPool(4)
	var done int64

	for i := 0; i < 50; i++ {
		pool.Submit(func() {
			atomic.AddInt64(&done, 1)
		})
	}
	pool.Wait()

	if done != 50 {
		t.Errorf("completed jobs: got %d, want 50", done)
	}
}

func TestWorkerPoolBoundsConcurrency(t *testing.T) {
	const limit = 3
	pool := NewWorkerPool(limit)
	var inFlight, peak int64

	for i := 0; i < 20; i++ {
		pool.Submit(func() {
			n := atomic.AddInt64(&inFlight, 1)
			for {
				p := atomic.LoadInt64(&peak)
				if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&inFlight, -1)
		})
	}
	pool.Wait()

	if peak > limit {
		t.Errorf("peak concurrency: got %d, want <= %d", peak, limit)
	}
}

func TestWorkerPoolMinimumSize(t *testing.T) {
	if got := NewWorkerPool(0).Size(); got != 1 {
		t.Errorf("Size() for 0 workers: got %d, want 1", got)
	}
	if got := NewWorkerPool(-5).Size(); got != 1 {
		t.Errorf("Size() for -5 workers: got %d, want 1", got)
	}
}
