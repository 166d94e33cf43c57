package darkroom

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/darkroom/cube"
)

// LUTLoader resolves filter IDs to lookup tables, usually off the calling
// goroutine. done is called exactly once.
type LUTLoader interface {
	Load(id string, done func(*cube.Table, error))
}

// Editor connects user actions to a Pipeline and records commit points in
// a History.
//
// Continuous gestures (Pan, Zoom, SetTone) update the pipeline live and
// are committed by EndGesture or CommitTone. Discrete actions (rotate,
// flip, crop, filter) commit once the pipeline has applied them.
// Undo and Redo restore a snapshot without committing.
//
// Editor methods are safe for concurrent use.
type Editor struct {
	p    *Pipeline
	opts editorOptions

	// gen identifies the latest filter request; results carrying an older
	// token are dropped.
	gen atomic.Uint64

	mu      sync.Mutex
	hist    *History
	filter  string // latest requested filter ID
	loading bool   // a table for filter is still being loaded
}

// NewEditor creates an editor for p. The history starts at p's current
// state.
func NewEditor(p *Pipeline, opts ...EditorOption) *Editor {
	var o editorOptions
	for _, opt := range opts {
		opt(&o)
	}
	s := p.State()
	e := &Editor{p: p, opts: o, hist: NewHistory(o.depth), filter: s.FilterID}
	e.hist.Init(s)
	return e
}

// Pipeline returns the pipeline the editor drives.
func (e *Editor) Pipeline() *Pipeline { return e.p }

// Pan moves the image during a drag gesture.
func (e *Editor) Pan(dx, dy float64) { e.p.Pan(dx, dy) }

// Zoom scales the image during a pinch gesture.
func (e *Editor) Zoom(factor float64) { e.p.Zoom(factor) }

// EndGesture commits the state reached by a pan or zoom gesture.
func (e *Editor) EndGesture() { e.commit(e.p.State()) }

// SetTone previews a tonal adjustment without committing it.
func (e *Editor) SetTone(t Tone) { e.p.SetTone(t) }

// SetSliders previews a tonal adjustment from 0..100 slider positions.
func (e *Editor) SetSliders(brightness, contrast, saturation int) {
	e.p.SetTone(ToneFromSliders(brightness, contrast, saturation))
}

// CommitTone commits the current tonal adjustment, typically when a slider
// is released.
func (e *Editor) CommitTone() { e.commit(e.p.State()) }

// ResetTone returns all tonal adjustments to neutral and commits.
func (e *Editor) ResetTone() {
	e.p.SetTone(NeutralTone())
	e.commit(e.p.State())
}

// SetIntensity changes the filter strength. It is not part of the history.
func (e *Editor) SetIntensity(v float32) { e.p.SetIntensity(v) }

// RotateLeft rotates 90 degrees counter-clockwise and commits.
func (e *Editor) RotateLeft() { e.p.RotateLeft(e.commit) }

// RotateRight rotates 90 degrees clockwise and commits.
func (e *Editor) RotateRight() { e.p.RotateRight(e.commit) }

// Flip mirrors the image horizontally and commits.
func (e *Editor) Flip() { e.p.Flip(e.commit) }

// Crop applies a viewport selection and commits on success. done, if not
// nil, receives the cropped size in source pixels, or the error that left
// the state unchanged.
func (e *Editor) Crop(sel Rect, done func(w, h int, err error)) {
	e.p.Crop(sel, func(s Snapshot, res CropResult, err error) {
		if err == nil {
			e.commit(s)
		}
		if done != nil {
			done(res.PixelW, res.PixelH, err)
		}
	})
}

// ApplyFilter loads the table for id and activates it, committing once it
// is in place. An empty id clears the filter. If the table cannot be
// loaded the filter is cleared and the error is reported to done and to
// the editor's error hook.
//
// A later ApplyFilter, Undo or Redo supersedes the request: if it has not
// completed by then, nothing is committed and done receives
// ErrFilterSuperseded.
func (e *Editor) ApplyFilter(id string, done func(error)) {
	e.loadFilter(id, func(s Snapshot, err error) {
		if err == nil {
			e.commit(s)
		}
		if done != nil {
			done(err)
		}
	})
}

// Undo steps back to the previous commit. It reports false when there is
// nothing to undo.
func (e *Editor) Undo() bool {
	e.mu.Lock()
	s, ok := e.hist.Undo()
	e.mu.Unlock()
	if !ok {
		return false
	}
	e.apply(s)
	e.notify()
	return true
}

// Redo re-applies the most recently undone commit. It reports false when
// there is nothing to redo.
func (e *Editor) Redo() bool {
	e.mu.Lock()
	s, ok := e.hist.Redo()
	e.mu.Unlock()
	if !ok {
		return false
	}
	e.apply(s)
	e.notify()
	return true
}

// CanUndo reports whether Undo would succeed.
func (e *Editor) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hist.CanUndo()
}

// CanRedo reports whether Redo would succeed.
func (e *Editor) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hist.CanRedo()
}

// Current returns the last committed snapshot.
func (e *Editor) Current() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hist.Current()
}

// Export renders the next frame into a pixmap, see Pipeline.Export.
func (e *Editor) Export(fn func(*Pixmap, error)) error {
	return e.p.Export(fn)
}

func (e *Editor) commit(s Snapshot) {
	e.mu.Lock()
	e.hist.Commit(s)
	e.mu.Unlock()
	e.notify()
}

func (e *Editor) notify() {
	if e.opts.onChange == nil {
		return
	}
	e.mu.Lock()
	u, r := e.hist.CanUndo(), e.hist.CanRedo()
	e.mu.Unlock()
	e.opts.onChange(u, r)
}

// apply restores s on the pipeline, supersedes any pending filter request
// and reloads the filter of s unless it is already the requested one.
func (e *Editor) apply(s Snapshot) {
	e.mu.Lock()
	reload := s.FilterID != e.filter || e.loading
	e.gen.Add(1)
	e.p.Restore(s, nil)
	e.mu.Unlock()
	if reload {
		e.loadFilter(s.FilterID, nil)
	}
}

// loadFilter requests id. Pipeline commands for a request are submitted
// under e.mu after checking its token, so they stay ordered with those of
// newer requests.
func (e *Editor) loadFilter(id string, done func(Snapshot, error)) {
	e.mu.Lock()
	tok := e.gen.Add(1)
	e.filter = id
	e.loading = false
	if id == "" {
		e.p.ClearFilter(e.settle(tok, done))
		e.mu.Unlock()
		return
	}
	if e.opts.filters == nil {
		e.mu.Unlock()
		err := fmt.Errorf("darkroom: filter %q: no filter source configured", id)
		e.filterFailed(tok, err, done)
		return
	}
	e.loading = true
	e.mu.Unlock()

	e.opts.filters.Load(id, func(t *cube.Table, err error) {
		if err != nil {
			e.filterFailed(tok, fmt.Errorf("darkroom: filter %q unavailable: %w", id, err), done)
			return
		}
		e.mu.Lock()
		if e.gen.Load() != tok {
			e.mu.Unlock()
			e.superseded(id, done)
			return
		}
		e.loading = false
		e.p.SetFilter(id, t, e.settle(tok, func(s Snapshot, err error) {
			if err != nil && e.opts.onError != nil {
				e.opts.onError(err)
			}
			if done != nil {
				done(s, err)
			}
		}))
		e.mu.Unlock()
	})
}

// settle wraps done so that it only sees the result of request tok while
// tok is still the latest request.
func (e *Editor) settle(tok uint64, done func(Snapshot, error)) func(Snapshot, error) {
	return func(s Snapshot, err error) {
		if e.gen.Load() != tok {
			e.superseded(s.FilterID, done)
			return
		}
		if done != nil {
			done(s, err)
		}
	}
}

func (e *Editor) superseded(id string, done func(Snapshot, error)) {
	slogger().Debug("darkroom: dropping superseded filter result", "filter", id)
	if done != nil {
		done(Snapshot{}, ErrFilterSuperseded)
	}
}

// filterFailed clears the filter and reports err once it is cleared. A
// failure of a superseded request is dropped.
func (e *Editor) filterFailed(tok uint64, err error, done func(Snapshot, error)) {
	e.mu.Lock()
	if e.gen.Load() != tok {
		e.mu.Unlock()
		e.superseded("", done)
		return
	}
	e.filter = ""
	e.loading = false
	e.p.ClearFilter(e.settle(tok, func(s Snapshot, _ error) {
		if done != nil {
			done(s, err)
		}
	}))
	e.mu.Unlock()

	slogger().Warn("darkroom: filter load failed", "err", err)
	if e.opts.onError != nil {
		e.opts.onError(err)
	}
}
