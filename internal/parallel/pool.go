// Package parallel provides the worker pool used for row-band shading and
// for background lookup-table loading.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool runs submitted functions on a fixed set of goroutines.
//
// Each worker owns a queue and steals from its neighbours when idle, so a
// few slow bands do not leave the other workers waiting.
//
// WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers int
	queues  []chan func()
	done    chan struct{}
	wg      sync.WaitGroup
	next    atomic.Uint32

	// mu orders Submit against Close: a queued function is always seen by
	// a worker before it exits.
	mu      sync.RWMutex
	running atomic.Bool
}

// NewWorkerPool starts a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	queueSize := max(workers*4, 8)

	p := &WorkerPool{
		workers: workers,
		queues:  make([]chan func(), workers),
		done:    make(chan struct{}),
	}
	for i := range workers {
		p.queues[i] = make(chan func(), queueSize)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	own := p.queues[id]
	for {
		select {
		case fn := <-own:
			fn()
			continue
		default:
		}

		if fn := p.steal(id); fn != nil {
			fn()
			continue
		}

		select {
		case fn := <-own:
			fn()
		case <-p.done:
			for {
				select {
				case fn := <-own:
					fn()
				default:
					return
				}
			}
		}
	}
}

func (p *WorkerPool) steal(id int) func() {
	for i := 1; i < p.workers; i++ {
		select {
		case fn := <-p.queues[(id+i)%p.workers]:
			return fn
		default:
		}
	}
	return nil
}

// Submit queues fn for asynchronous execution. It reports false if the
// pool is closed, in which case fn is not run. When Submit reports true fn
// runs, even if Close is called concurrently. Submit blocks while the
// chosen queue is full.
func (p *WorkerPool) Submit(fn func()) bool {
	if fn == nil {
		return false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.running.Load() {
		return false
	}
	p.queues[int(p.next.Add(1))%p.workers] <- fn
	return true
}

// ForEachBand splits [0, n) into contiguous bands and calls fn(lo, hi) for
// each of them in parallel, returning when all bands are done. If the pool
// is closed the bands run on the calling goroutine.
func (p *WorkerPool) ForEachBand(n int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	bands := min(p.workers*2, n)
	if bands <= 1 || !p.running.Load() {
		fn(0, n)
		return
	}

	step := (n + bands - 1) / bands
	var wg sync.WaitGroup
	wg.Add((n + step - 1) / step)
	for lo := 0; lo < n; lo += step {
		hi := min(lo+step, n)
		band := func() {
			defer wg.Done()
			fn(lo, hi)
		}
		if !p.Submit(band) {
			band()
		}
	}
	wg.Wait()
}

// Close stops accepting work, runs what is already queued and waits for
// the workers to exit. Close is safe to call multiple times but must not be
// called from a submitted function.
func (p *WorkerPool) Close() {
	p.mu.Lock()
	if !p.running.CompareAndSwap(true, false) {
		p.mu.Unlock()
		return
	}
	close(p.done)
	p.mu.Unlock()
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning reports whether the pool still accepts work.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}

var (
	sharedOnce sync.Once
	shared     *WorkerPool
)

// Shared returns a process-wide pool sized to GOMAXPROCS. It is never
// closed.
func Shared() *WorkerPool {
	sharedOnce.Do(func() {
		shared = NewWorkerPool(0)
	})
	return shared
}
