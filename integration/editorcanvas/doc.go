// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package editorcanvas shows a darkroom pipeline in a gogpu window.
//
// The host's draw callback drives the pipeline: each RenderTo renders a
// frame when an edit requested one, reads it back and uploads it to a
// window texture. The data flow is:
//
//	darkroom.Pipeline (render) -> Pixmap (CPU) -> GPU Texture -> Window
//
// # Usage
//
//	p, _ := darkroom.NewPipeline(src)
//	canvas, err := editorcanvas.New(app.GPUContextProvider(), p, 800, 600)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer canvas.Close()
//
//	app.OnDraw(func(dc *gogpu.Context) {
//	    canvas.RenderTo(dc.AsTextureDrawer())
//	})
//
// Edits made through the pipeline or a darkroom.Editor from any goroutine
// show up on the next draw. Call Resize when the window size changes.
//
// New also offers the window's device to the registered darkroom device
// provider, so with github.com/gogpu/darkroom/gpu imported the pipeline
// renders on the same GPU as the window.
//
// Canvas is not safe for concurrent use; call it from the draw callback.
package editorcanvas
