package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
)

func TestWorkerPool_Create(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	if pool.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", pool.Workers())
	}
	if !pool.IsRunning() {
		t.Error("pool should be running after creation")
	}
}

func TestWorkerPool_CreateDefaultWorkers(t *testing.T) {
	for _, n := range []int{0, -3} {
		pool := NewWorkerPool(n)
		if got, want := pool.Workers(), runtime.GOMAXPROCS(0); got != want {
			t.Errorf("NewWorkerPool(%d).Workers() = %d, want %d", n, got, want)
		}
		pool.Close()
	}
}

func TestWorkerPool_Submit(t *testing.T) {
	pool := NewWorkerPool(3)
	defer pool.Close()

	var wg sync.WaitGroup
	var counter atomic.Int64
	for range 50 {
		wg.Add(1)
		if !pool.Submit(func() {
			defer wg.Done()
			counter.Add(1)
		}) {
			t.Fatal("Submit() = false on a running pool")
		}
	}
	wg.Wait()

	if got := counter.Load(); got != 50 {
		t.Errorf("counter = %d, want 50", got)
	}
}

func TestWorkerPool_SubmitAfterClose(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Close()
	pool.Close() // idempotent

	if pool.Submit(func() { t.Error("work ran after Close") }) {
		t.Error("Submit() = true after Close, want false")
	}
	if pool.IsRunning() {
		t.Error("IsRunning() = true after Close")
	}
}

func TestWorkerPool_SubmitDuringClose(t *testing.T) {
	for range 20 {
		pool := NewWorkerPool(2)

		var accepted, ran atomic.Int64
		var wg sync.WaitGroup
		start := make(chan struct{})
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				for range 50 {
					if pool.Submit(func() { ran.Add(1) }) {
						accepted.Add(1)
					}
				}
			}()
		}
		close(start)
		pool.Close()
		wg.Wait()

		if a, r := accepted.Load(), ran.Load(); a != r {
			t.Fatalf("accepted %d functions, ran %d", a, r)
		}
	}
}

func TestWorkerPool_ForEachBand(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		n       int
	}{
		{"single row", 4, 1},
		{"fewer rows than bands", 4, 5},
		{"uneven split", 3, 101},
		{"one worker", 1, 64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := NewWorkerPool(tt.workers)
			defer pool.Close()

			hits := make([]atomic.Int32, tt.n)
			pool.ForEachBand(tt.n, func(lo, hi int) {
				for i := lo; i < hi; i++ {
					hits[i].Add(1)
				}
			})
			for i := range hits {
				if got := hits[i].Load(); got != 1 {
					t.Errorf("row %d visited %d times, want 1", i, got)
				}
			}
		})
	}
}

func TestWorkerPool_ForEachBandClosed(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Close()

	var rows int
	pool.ForEachBand(10, func(lo, hi int) { rows += hi - lo })
	if rows != 10 {
		t.Errorf("rows = %d, want 10", rows)
	}
}

func TestShared(t *testing.T) {
	if Shared() != Shared() {
		t.Error("Shared() returned different pools")
	}
	if !Shared().IsRunning() {
		t.Error("shared pool is not running")
	}
}
