package darkroom

import (
	"fmt"
	"sync"

	"github.com/gogpu/darkroom/cube"
)

// Command is an operation executed on the render goroutine at the start of
// the next frame. Commands run in submission order, each exactly once.
//
// Done callbacks, where present, run on the render goroutine and must not
// block.
type Command interface {
	execute(p *Pipeline)
}

// UploadLookupTable makes Table the active filter under ID. A nil Table
// clears the filter. An invalid table also clears the filter and reports
// the error.
type UploadLookupTable struct {
	ID    string
	Table *cube.Table
	Done  func(Snapshot, error)
}

// CommitRotation rotates by 90 degrees in direction Dir (+1 or -1).
type CommitRotation struct {
	Dir  int
	Done func(Snapshot)
}

// CommitFlip toggles the horizontal mirror.
type CommitFlip struct {
	Done func(Snapshot)
}

// CommitCrop reprojects Selection, given in viewport coordinates, into the
// crop rectangle. On error the state is unchanged.
type CommitCrop struct {
	Selection Rect
	Done      func(Snapshot, CropResult, error)
}

// RestoreSnapshot replaces geometry and tone. The filter is restored
// separately with UploadLookupTable because it needs a loaded table.
type RestoreSnapshot struct {
	Snapshot Snapshot
	Done     func(Snapshot)
}

// ResizeViewport reallocates the device color buffer. Frames take the new
// size only once the buffer exists.
type ResizeViewport struct {
	W, H int
}

// UploadSource replaces the source image and resets the geometry.
type UploadSource struct {
	Pixmap *Pixmap
	Done   func(Snapshot, error)
}

func (c UploadLookupTable) execute(p *Pipeline) {
	var err error
	if c.Table != nil {
		err = c.Table.Validate()
		if err == nil {
			err = p.dev.UploadLUT(c.Table)
		}
		if err != nil {
			err = fmt.Errorf("darkroom: filter %q unavailable: %w", c.ID, err)
			p.report(err)
		}
	}

	filtered := c.Table != nil && err == nil
	if !filtered {
		if uerr := p.dev.UploadLUT(nil); uerr != nil {
			slogger().Warn("bypass table upload failed", "err", uerr)
		}
	}
	p.hasLUT = filtered

	p.mu.Lock()
	if filtered {
		p.filterID = c.ID
	} else {
		p.filterID = ""
	}
	s := p.snapshotLocked()
	p.mu.Unlock()

	if c.Done != nil {
		c.Done(s, err)
	}
}

func (c CommitRotation) execute(p *Pipeline) {
	p.mu.Lock()
	p.geom = p.geom.RotateBy90(c.Dir)
	s := p.snapshotLocked()
	p.mu.Unlock()

	if c.Done != nil {
		c.Done(s)
	}
}

func (c CommitFlip) execute(p *Pipeline) {
	p.mu.Lock()
	p.geom = p.geom.Flip()
	s := p.snapshotLocked()
	p.mu.Unlock()

	if c.Done != nil {
		c.Done(s)
	}
}

func (c CommitCrop) execute(p *Pipeline) {
	p.mu.Lock()
	res, err := ReprojectCrop(p.geom, c.Selection, p.image, p.view)
	if err == nil {
		p.geom = res.Geometry
	}
	s := p.snapshotLocked()
	p.mu.Unlock()

	if err != nil {
		err = fmt.Errorf("darkroom: crop: %w", err)
		p.report(err)
	}
	if c.Done != nil {
		c.Done(s, res, err)
	}
}

func (c RestoreSnapshot) execute(p *Pipeline) {
	p.mu.Lock()
	p.geom = c.Snapshot.Geometry
	p.tone = c.Snapshot.Tone.Clamp()
	s := p.snapshotLocked()
	p.mu.Unlock()

	if c.Done != nil {
		c.Done(s)
	}
}

func (c ResizeViewport) execute(p *Pipeline) {
	if err := p.dev.Resize(c.W, c.H); err != nil {
		p.report(fmt.Errorf("darkroom: resize: %w", err))
		return
	}
	p.mu.Lock()
	p.view = Size{W: c.W, H: c.H}
	p.mu.Unlock()
}

func (c UploadSource) execute(p *Pipeline) {
	err := p.dev.UploadSource(c.Pixmap)

	p.mu.Lock()
	if err == nil {
		p.image = c.Pixmap.Size()
		p.geom = IdentityGeometry()
	}
	s := p.snapshotLocked()
	p.mu.Unlock()

	if err != nil {
		err = fmt.Errorf("darkroom: upload source: %w", err)
		p.report(err)
	}
	if c.Done != nil {
		c.Done(s, err)
	}
}

// commandQueue is a multi-producer, single-consumer queue. Producers
// append under the lock; the consumer swaps the whole batch out.
type commandQueue struct {
	mu      sync.Mutex
	pending []Command
	spare   []Command
}

func (q *commandQueue) push(c Command) {
	q.mu.Lock()
	q.pending = append(q.pending, c)
	q.mu.Unlock()
}

// take returns all queued commands in FIFO order. The slice is valid until
// the next call to recycle.
func (q *commandQueue) take() []Command {
	q.mu.Lock()
	batch := q.pending
	q.pending = q.spare[:0]
	q.spare = nil
	q.mu.Unlock()
	return batch
}

// recycle hands a drained batch back for reuse.
func (q *commandQueue) recycle(batch []Command) {
	clear(batch)
	q.mu.Lock()
	q.spare = batch[:0]
	q.mu.Unlock()
}

func (q *commandQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
