package darkroom

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/darkroom/cube"
)

// Pipeline renders a source image with its edit parameters.
//
// A pipeline has two sides. The render goroutine calls RenderFrame (or
// Run) and owns the Device. Every other method may be called from any
// goroutine: pure value edits (Pan, Zoom, SetTone, SetIntensity) apply
// immediately under a lock, and edits with device side effects (rotation,
// flip, crop, filters, restores, resizes, new sources) are queued as
// Commands for the next frame. Every edit requests a redraw.
type Pipeline struct {
	opts pipelineOptions

	// Guarded by mu; read by the render goroutine each frame.
	mu        sync.Mutex
	geom      Geometry
	tone      Tone
	intensity float32
	filterID  string
	requested Size // last Resize; view follows once ResizeViewport runs
	view      Size // size of the device color buffer
	image     Size

	queue  commandQueue
	redraw chan struct{}

	exportMu sync.Mutex
	export   func(*Pixmap, error)

	closed    atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
	disabled  atomic.Bool

	// Render goroutine only.
	src     *Pixmap
	dev     Device
	ready   bool
	hasLUT  bool
	scratch []byte
	frames  uint64
}

// NewPipeline creates a pipeline for src. No device work happens until the
// first frame. The pixmap is retained and must not be modified.
func NewPipeline(src *Pixmap, opts ...PipelineOption) (*Pipeline, error) {
	if src == nil || src.Size().Empty() {
		return nil, fmt.Errorf("darkroom: new pipeline: %w", ErrInvalidSize)
	}
	o := defaultPipelineOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Pipeline{
		opts:      o,
		geom:      IdentityGeometry(),
		tone:      NeutralTone(),
		intensity: o.intensity,
		image:     src.Size(),
		src:       src,
		redraw:    make(chan struct{}, 1),
		done:      make(chan struct{}),
	}, nil
}

// RequestRender asks the render loop for a new frame. Requests made
// before the next frame starts collapse into one.
func (p *Pipeline) RequestRender() {
	select {
	case p.redraw <- struct{}{}:
	default:
	}
}

// Redraw returns the channel Run waits on. Callers driving RenderFrame
// themselves receive from it to learn when a frame is due.
func (p *Pipeline) Redraw() <-chan struct{} {
	return p.redraw
}

// State returns the current edit parameters.
func (p *Pipeline) State() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// Viewport returns the most recently requested viewport size. Frames use
// it from the first frame after the request.
func (p *Pipeline) Viewport() Size {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requested
}

// FrameSize returns the size of the frames currently rendered, which lags
// Viewport until the resize has been applied. It must be called from the
// render goroutine.
func (p *Pipeline) FrameSize() Size {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.view
}

// ImageSize returns the size of the current source image.
func (p *Pipeline) ImageSize() Size {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.image
}

// Intensity returns the filter intensity.
func (p *Pipeline) Intensity() float32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.intensity
}

func (p *Pipeline) snapshotLocked() Snapshot {
	return Snapshot{Geometry: p.geom, Tone: p.tone, FilterID: p.filterID}
}

// Pan moves the image by (dx, dy) normalized device units.
func (p *Pipeline) Pan(dx, dy float64) {
	p.mu.Lock()
	p.geom = p.geom.Pan(dx, dy)
	p.mu.Unlock()
	p.RequestRender()
}

// Zoom multiplies the scale by factor, clamped to [MinScale, MaxScale].
func (p *Pipeline) Zoom(factor float64) {
	p.mu.Lock()
	p.geom = p.geom.Zoom(factor)
	p.mu.Unlock()
	p.RequestRender()
}

// SetTone replaces the tonal adjustments. Out-of-range values are clamped.
func (p *Pipeline) SetTone(t Tone) {
	p.mu.Lock()
	p.tone = t.Clamp()
	p.mu.Unlock()
	p.RequestRender()
}

// SetIntensity sets how strongly the filter is blended, from 0 to 1.
func (p *Pipeline) SetIntensity(v float32) {
	p.mu.Lock()
	p.intensity = clampIntensity(v)
	p.mu.Unlock()
	p.RequestRender()
}

// RotateLeft rotates 90 degrees counter-clockwise. done, if not nil,
// receives the resulting state on the render goroutine.
func (p *Pipeline) RotateLeft(done func(Snapshot)) {
	p.Submit(CommitRotation{Dir: 1, Done: done})
}

// RotateRight rotates 90 degrees clockwise.
func (p *Pipeline) RotateRight(done func(Snapshot)) {
	p.Submit(CommitRotation{Dir: -1, Done: done})
}

// Flip toggles the horizontal mirror.
func (p *Pipeline) Flip(done func(Snapshot)) {
	p.Submit(CommitFlip{Done: done})
}

// Crop narrows the crop rectangle to sel, a selection normalized to the
// viewport with the origin at the top-left. See ReprojectCrop.
func (p *Pipeline) Crop(sel Rect, done func(Snapshot, CropResult, error)) {
	p.Submit(CommitCrop{Selection: sel, Done: done})
}

// SetFilter activates a lookup table under id.
func (p *Pipeline) SetFilter(id string, t *cube.Table, done func(Snapshot, error)) {
	p.Submit(UploadLookupTable{ID: id, Table: t, Done: done})
}

// ClearFilter deactivates the lookup table.
func (p *Pipeline) ClearFilter(done func(Snapshot, error)) {
	p.Submit(UploadLookupTable{Done: done})
}

// Restore replaces geometry and tone with those of s.
func (p *Pipeline) Restore(s Snapshot, done func(Snapshot)) {
	p.Submit(RestoreSnapshot{Snapshot: s, Done: done})
}

// Resize sets the viewport size in pixels.
func (p *Pipeline) Resize(w, h int) {
	p.mu.Lock()
	p.requested = Size{W: w, H: h}
	p.mu.Unlock()
	p.Submit(ResizeViewport{W: w, H: h})
}

// SetSource replaces the source image and resets the geometry.
func (p *Pipeline) SetSource(src *Pixmap, done func(Snapshot, error)) {
	p.Submit(UploadSource{Pixmap: src, Done: done})
}

// Submit queues c for the next frame and requests a redraw. Commands
// submitted after Close are dropped.
func (p *Pipeline) Submit(c Command) {
	if p.closed.Load() {
		return
	}
	p.queue.push(c)
	p.RequestRender()
}

// Export reads back the next rendered frame as a top-down RGBA pixmap and
// passes it to fn on the render goroutine. At most one export may be
// pending; a second request returns ErrExportPending.
func (p *Pipeline) Export(fn func(*Pixmap, error)) error {
	if fn == nil {
		return fmt.Errorf("darkroom: export: nil callback")
	}
	if p.disabled.Load() {
		return ErrPipelineDisabled
	}

	// Destroy marks the pipeline closed before failing the slot under
	// exportMu, so a request stored here is always delivered.
	p.exportMu.Lock()
	if p.closed.Load() {
		p.exportMu.Unlock()
		return ErrClosed
	}
	if p.export != nil {
		p.exportMu.Unlock()
		return ErrExportPending
	}
	p.export = fn
	p.exportMu.Unlock()

	p.RequestRender()
	return nil
}

// takeExport clears and returns the pending export request.
func (p *Pipeline) takeExport() func(*Pixmap, error) {
	p.exportMu.Lock()
	fn := p.export
	p.export = nil
	p.exportMu.Unlock()
	return fn
}

// failExport delivers err to a pending export, if any.
func (p *Pipeline) failExport(err error) {
	if fn := p.takeExport(); fn != nil {
		fn(nil, err)
	}
}

func (p *Pipeline) report(err error) {
	slogger().Warn("darkroom: operation failed", "err", err)
	if p.opts.onError != nil {
		p.opts.onError(err)
	}
}

// RenderFrame renders one frame. It must be called from the render
// goroutine.
//
// The first call opens the device, creates the program and uploads the
// source. If that fails the error wraps ErrResourceCreation, it is
// reported once, and every later call returns ErrPipelineDisabled.
func (p *Pipeline) RenderFrame() error {
	if p.closed.Load() {
		return ErrClosed
	}
	if p.disabled.Load() {
		return ErrPipelineDisabled
	}
	if !p.ready {
		if err := p.initSession(); err != nil {
			err = fmt.Errorf("%w: %w", ErrResourceCreation, err)
			p.disabled.Store(true)
			p.report(err)
			p.failExport(fmt.Errorf("%w: %w", ErrExportFailure, err))
			return err
		}
	}

	p.drain()
	return p.draw()
}

func (p *Pipeline) initSession() error {
	if p.dev == nil {
		if p.opts.device != nil {
			p.dev = p.opts.device
		} else {
			p.dev = openDevice()
		}
	}
	if err := p.dev.CreateProgram(); err != nil {
		return fmt.Errorf("create program: %w", err)
	}
	if err := p.dev.UploadLUT(nil); err != nil {
		return fmt.Errorf("bind bypass table: %w", err)
	}
	if err := p.dev.UploadSource(p.src); err != nil {
		return fmt.Errorf("upload source: %w", err)
	}

	view := p.Viewport()
	if !view.Empty() {
		if err := p.dev.Resize(view.W, view.H); err != nil {
			return fmt.Errorf("allocate %dx%d color buffer: %w", view.W, view.H, err)
		}
	}
	p.mu.Lock()
	p.view = view
	p.mu.Unlock()

	p.ready = true
	slogger().Info("darkroom: session ready", "device", p.dev.Name(), "image", p.src.Size())
	return nil
}

// drain executes every queued command in order.
func (p *Pipeline) drain() {
	batch := p.queue.take()
	if len(batch) == 0 {
		p.queue.recycle(batch)
		return
	}
	slogger().Debug("darkroom: draining commands", "n", len(batch))
	for _, c := range batch {
		c.execute(p)
	}
	p.queue.recycle(batch)
}

func (p *Pipeline) draw() error {
	p.mu.Lock()
	g, t, intensity := p.geom, p.tone, p.intensity
	view, image := p.view, p.image
	p.mu.Unlock()

	if view.Empty() {
		p.failExport(fmt.Errorf("%w: %w", ErrExportFailure, ErrInvalidSize))
		return nil
	}

	sx, sy := FitInside(image, view, g.Crop, g.Rotation)
	dc := DrawCall{
		Quad:       Quad{HalfW: sx, HalfH: sy, UV: g.Crop},
		MVP:        g.ModelMatrix(),
		HasLUT:     p.hasLUT,
		Intensity:  intensity,
		Brightness: float32(t.Brightness),
		Contrast:   float32(t.Contrast),
		Saturation: float32(t.Saturation),
		Clear:      p.opts.clear,
	}
	if err := p.dev.Draw(dc); err != nil {
		err = fmt.Errorf("darkroom: draw: %w", err)
		p.report(err)
		p.failExport(fmt.Errorf("%w: %w", ErrExportFailure, err))
		return err
	}
	p.frames++
	slogger().Debug("darkroom: frame", "n", p.frames, "view", view, "lut", p.hasLUT)

	if fn := p.takeExport(); fn != nil {
		pm := NewPixmap(view.W, view.H)
		if err := p.readInto(pm); err != nil {
			err = fmt.Errorf("%w: %w", ErrExportFailure, err)
			p.report(err)
			fn(nil, err)
		} else {
			fn(pm, nil)
		}
	}
	return nil
}

// ReadFrame copies the last rendered frame into dst as top-down RGBA. It
// must be called from the render goroutine, and dst must match FrameSize.
func (p *Pipeline) ReadFrame(dst *Pixmap) error {
	if !p.ready {
		return ErrPipelineDisabled
	}
	if dst == nil || dst.Size() != p.FrameSize() {
		return fmt.Errorf("darkroom: read frame: %w", ErrInvalidSize)
	}
	return p.readInto(dst)
}

func (p *Pipeline) readInto(dst *Pixmap) error {
	n := dst.width * dst.height * 4
	if cap(p.scratch) < n {
		p.scratch = make([]byte, n)
	}
	fb := p.scratch[:n]
	f, err := p.dev.ReadPixels(fb)
	if err != nil {
		return err
	}
	framebufferToPixmap(dst, fb, f)
	return nil
}

// Run renders a frame for every redraw request until ctx is done or Close
// is called, then releases the device. It returns ctx.Err() or nil.
//
// Errors from individual frames are reported through WithOnError; they do
// not stop the loop.
func (p *Pipeline) Run(ctx context.Context) error {
	defer p.Destroy()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.done:
			return nil
		case <-p.redraw:
			if err := p.RenderFrame(); err != nil {
				continue
			}
			if p.opts.onFrame != nil {
				p.opts.onFrame()
			}
		}
	}
}

// Close stops Run and rejects further commands and exports. It is safe to
// call from any goroutine and more than once.
func (p *Pipeline) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.done)
	})
}

// Destroy releases the device and fails a pending export with ErrClosed.
// Run calls it on exit; callers driving RenderFrame themselves call it
// from the render goroutine when done.
func (p *Pipeline) Destroy() {
	p.Close()
	p.failExport(ErrClosed)
	if p.dev != nil {
		p.dev.Destroy()
		p.dev = nil
	}
	p.ready = false
}
