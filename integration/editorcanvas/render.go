// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package editorcanvas

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/darkroom"
)

// Rendering errors.
var (
	// ErrInvalidDrawContext is returned when the texture cannot be drawn by
	// the draw context.
	ErrInvalidDrawContext = errors.New("editorcanvas: dc must implement gpucontext.TextureDrawer")

	// ErrInvalidRenderer is returned when the draw context has no texture
	// creator.
	ErrInvalidRenderer = errors.New("editorcanvas: renderer must implement gpucontext.TextureCreator")
)

// RenderOptions controls where the canvas is drawn.
type RenderOptions struct {
	// X, Y is the position of the top-left corner (default: 0, 0).
	X, Y float32
}

// RenderTo draws the canvas at (0, 0).
//
//	app.OnDraw(func(dc *gogpu.Context) {
//	    canvas.RenderTo(dc.AsTextureDrawer())
//	})
func (c *Canvas) RenderTo(dc gpucontext.TextureDrawer) error {
	return c.RenderToEx(dc, RenderOptions{})
}

// RenderToPosition draws the canvas with its top-left corner at (x, y).
func (c *Canvas) RenderToPosition(dc gpucontext.TextureDrawer, x, y float32) error {
	return c.RenderToEx(dc, RenderOptions{X: x, Y: y})
}

// RenderToEx flushes the canvas and draws its texture with opts.
func (c *Canvas) RenderToEx(dc gpucontext.TextureDrawer, opts RenderOptions) error {
	if c.closed {
		return ErrCanvasClosed
	}
	if dc == nil {
		return ErrInvalidDrawContext
	}

	tex, err := c.Flush()
	if err != nil {
		return err
	}

	if pending, ok := tex.(*pendingTexture); ok {
		creator := dc.TextureCreator()
		if creator == nil {
			return ErrInvalidRenderer
		}
		// NewTextureFromRGBA waits for the GPU, so the old texture is idle
		// once it returns.
		realTex, err := creator.NewTextureFromRGBA(pending.width, pending.height, pending.data)
		if err != nil {
			return fmt.Errorf("editorcanvas: NewTextureFromRGBA failed: %w", err)
		}
		c.texture = realTex
		tex = realTex
		darkroom.Logger().Debug("editorcanvas: texture created", "width", pending.width, "height", pending.height)

		destroyTexture(c.oldTexture)
		c.oldTexture = nil
	}

	gpuTex, ok := tex.(gpucontext.Texture)
	if !ok {
		return ErrInvalidDrawContext
	}
	return dc.DrawTexture(gpuTex, opts.X, opts.Y)
}
