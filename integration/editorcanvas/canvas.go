// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package editorcanvas

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/darkroom"
)

// Common errors returned by Canvas operations.
var (
	// ErrCanvasClosed is returned when operations are attempted on a closed canvas.
	ErrCanvasClosed = errors.New("editorcanvas: canvas is closed")

	// ErrInvalidDimensions is returned when width or height is invalid.
	ErrInvalidDimensions = errors.New("editorcanvas: invalid dimensions")

	// ErrNilProvider is returned when a nil DeviceProvider is passed.
	ErrNilProvider = errors.New("editorcanvas: nil DeviceProvider")

	// ErrNilPipeline is returned when a nil pipeline is passed.
	ErrNilPipeline = errors.New("editorcanvas: nil pipeline")
)

// textureDestroyer matches the gogpu.Texture.Destroy signature.
type textureDestroyer interface {
	Destroy()
}

// Canvas presents the frames of a darkroom.Pipeline as a window texture.
type Canvas struct {
	p           *darkroom.Pipeline
	provider    gpucontext.DeviceProvider
	frame       *darkroom.Pixmap
	texture     any // lazily created; *pendingTexture until the first RenderTo
	oldTexture  any // previous texture awaiting deferred destruction
	dirty       bool
	sizeChanged bool
	width       int
	height      int
	closed      bool
}

// New creates a Canvas rendering p into a width x height texture. It sets
// the pipeline viewport to that size.
//
// The window device is offered to the registered darkroom device provider.
// A provider that cannot share it opens its own device.
func New(provider gpucontext.DeviceProvider, p *darkroom.Pipeline, width, height int) (*Canvas, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	if p == nil {
		return nil, ErrNilPipeline
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, width, height)
	}

	// Non-fatal: the provider may not expose HAL types.
	_ = darkroom.ShareDevice(provider)

	p.Resize(width, height)
	return &Canvas{
		p:        p,
		provider: provider,
		width:    width,
		height:   height,
		dirty:    true,
	}, nil
}

// Pipeline returns the pipeline shown by the canvas.
func (c *Canvas) Pipeline() *darkroom.Pipeline {
	return c.p
}

// Size returns the canvas size in pixels.
func (c *Canvas) Size() (width, height int) {
	return c.width, c.height
}

// MarkDirty forces a render and upload on the next Flush.
func (c *Canvas) MarkDirty() {
	c.dirty = true
}

// IsDirty reports whether the next Flush renders a frame.
func (c *Canvas) IsDirty() bool {
	return c.dirty
}

// Resize changes the canvas and pipeline viewport size. The texture is
// recreated on the next render.
func (c *Canvas) Resize(width, height int) error {
	if c.closed {
		return ErrCanvasClosed
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, width, height)
	}
	if c.width == width && c.height == height {
		return nil
	}

	c.p.Resize(width, height)
	c.width = width
	c.height = height
	c.sizeChanged = true
	c.dirty = true
	return nil
}

// Flush renders a frame if the pipeline asked for one and uploads it.
// It returns the texture, which is a placeholder until RenderTo has
// created the real one.
func (c *Canvas) Flush() (any, error) {
	if c.closed {
		return nil, ErrCanvasClosed
	}

	// The old texture may still be used by in-flight command buffers, so
	// it is destroyed in RenderToEx after the new one is written.
	if c.sizeChanged {
		if c.texture != nil {
			destroyTexture(c.oldTexture)
			if _, pending := c.texture.(*pendingTexture); pending {
				c.oldTexture = nil
			} else {
				c.oldTexture = c.texture
			}
			c.texture = nil
		}
		c.sizeChanged = false
	}

	select {
	case <-c.p.Redraw():
		c.dirty = true
	default:
	}

	if !c.dirty && c.texture != nil {
		return c.texture, nil
	}

	if err := c.p.RenderFrame(); err != nil {
		return nil, fmt.Errorf("editorcanvas: render: %w", err)
	}
	// A failed device resize leaves the pipeline at the previous size.
	size := c.p.FrameSize()
	if size.W != c.width || size.H != c.height {
		return nil, fmt.Errorf("editorcanvas: frame is %dx%d, want %dx%d: %w",
			size.W, size.H, c.width, c.height, darkroom.ErrInvalidSize)
	}
	if c.frame == nil || c.frame.Size() != size {
		c.frame = darkroom.NewPixmap(size.W, size.H)
	}
	if err := c.p.ReadFrame(c.frame); err != nil {
		return nil, fmt.Errorf("editorcanvas: read frame: %w", err)
	}
	data := c.frame.Data()

	switch tex := c.texture.(type) {
	case nil:
		c.texture = &pendingTexture{width: c.width, height: c.height, data: data}
	case *pendingTexture:
		tex.data = data
	case gpucontext.TextureUpdater:
		if err := tex.UpdateData(data); err != nil {
			return nil, fmt.Errorf("editorcanvas: texture update failed: %w", err)
		}
	}

	c.dirty = false
	return c.texture, nil
}

// Texture returns the current texture without flushing.
func (c *Canvas) Texture() any {
	return c.texture
}

// Close releases the textures and the pipeline's device. It is safe to
// call more than once.
func (c *Canvas) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	destroyTexture(c.oldTexture)
	destroyTexture(c.texture)
	c.oldTexture = nil
	c.texture = nil

	c.p.Destroy()
	c.frame = nil
	c.provider = nil
	return nil
}

// Provider returns the DeviceProvider associated with this canvas, or nil
// once it is closed.
func (c *Canvas) Provider() gpucontext.DeviceProvider {
	if c.closed {
		return nil
	}
	return c.provider
}

func destroyTexture(tex any) {
	if d, ok := tex.(textureDestroyer); ok {
		d.Destroy()
	}
}

// pendingTexture holds a frame until RenderTo has a texture creator.
type pendingTexture struct {
	width  int
	height int
	data   []byte
}
