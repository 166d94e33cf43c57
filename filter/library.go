package filter

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/gogpu/darkroom"
	"github.com/gogpu/darkroom/cube"
	"github.com/gogpu/darkroom/internal/cache"
	"github.com/gogpu/darkroom/internal/parallel"
)

var (
	// ErrUnknownFilter is returned for IDs missing from the catalog.
	ErrUnknownFilter = errors.New("filter: unknown filter")

	// ErrClosed is returned by loads on a closed library.
	ErrClosed = errors.New("filter: library closed")
)

// Library loads the filters of a catalog from a file system.
//
// Load parses tables on a small worker pool and caches the results, so a
// filter chosen twice is parsed once. Library is safe for concurrent use.
type Library struct {
	fsys    fs.FS
	catalog *Catalog
	byID    map[string]Entry

	pool   *parallel.WorkerPool
	tables *cache.LRU[string, *cube.Table]

	// inflight coalesces concurrent loads of the same filter.
	mu       sync.Mutex
	inflight map[string][]func(*cube.Table, error)
}

var _ darkroom.LUTLoader = (*Library)(nil)

// New creates a library over fsys for the filters in c.
func New(fsys fs.FS, c *Catalog) *Library {
	byID := make(map[string]Entry, len(c.Filters))
	for _, f := range c.Filters {
		byID[f.ID] = f
	}
	return &Library{
		fsys:     fsys,
		catalog:  c,
		byID:     byID,
		pool:     parallel.NewWorkerPool(c.Workers),
		tables:   cache.NewLRU[string, *cube.Table](c.CacheSize),
		inflight: make(map[string][]func(*cube.Table, error)),
	}
}

// Open reads the catalog at path inside fsys and creates a library over
// the same file system.
func Open(fsys fs.FS, path string) (*Library, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("filter: open catalog: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	c, err := ParseCatalog(f)
	if err != nil {
		return nil, err
	}
	return New(fsys, c), nil
}

// Filters returns the catalog entries in catalog order.
func (l *Library) Filters() []Entry {
	out := make([]Entry, len(l.catalog.Filters))
	copy(out, l.catalog.Filters)
	return out
}

// Lookup returns the catalog entry for id.
func (l *Library) Lookup(id string) (Entry, bool) {
	e, ok := l.byID[id]
	return e, ok
}

// Load resolves id on a worker goroutine and passes the table, or the
// error that made it unavailable, to done. Cached tables are delivered on
// the calling goroutine. The table is validated before delivery.
func (l *Library) Load(id string, done func(*cube.Table, error)) {
	if t, ok := l.tables.Get(id); ok {
		done(t, nil)
		return
	}
	entry, ok := l.byID[id]
	if !ok {
		done(nil, fmt.Errorf("%w: %q", ErrUnknownFilter, id))
		return
	}

	l.mu.Lock()
	if t, ok := l.tables.Get(id); ok {
		l.mu.Unlock()
		done(t, nil)
		return
	}
	waiters, busy := l.inflight[id]
	l.inflight[id] = append(waiters, done)
	l.mu.Unlock()
	if busy {
		return
	}

	if !l.pool.Submit(func() {
		t, err := l.parse(entry)
		l.finish(id, t, err)
	}) {
		l.finish(id, nil, ErrClosed)
	}
}

// LoadContext is the blocking form of Load.
func (l *Library) LoadContext(ctx context.Context, id string) (*cube.Table, error) {
	type result struct {
		t   *cube.Table
		err error
	}
	ch := make(chan result, 1)
	l.Load(id, func(t *cube.Table, err error) {
		ch <- result{t, err}
	})
	select {
	case r := <-ch:
		return r.t, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *Library) parse(e Entry) (*cube.Table, error) {
	f, err := l.fsys.Open(e.File)
	if err != nil {
		return nil, fmt.Errorf("filter %q: %w", e.ID, err)
	}
	defer func() {
		_ = f.Close()
	}()

	t, err := cube.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("filter %q: %w", e.ID, err)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("filter %q: %w", e.ID, err)
	}
	if t.Title == "" {
		t.Title = e.Name
	}
	return t, nil
}

func (l *Library) finish(id string, t *cube.Table, err error) {
	if err == nil {
		l.tables.Add(id, t)
		darkroom.Logger().Debug("filter: loaded", "id", id, "size", t.Size)
	} else {
		darkroom.Logger().Warn("filter: load failed", "id", id, "err", err)
	}

	l.mu.Lock()
	waiters := l.inflight[id]
	delete(l.inflight, id)
	l.mu.Unlock()

	for _, done := range waiters {
		done(t, err)
	}
}

// Close stops the worker pool after queued loads finish.
func (l *Library) Close() {
	l.pool.Close()
}
