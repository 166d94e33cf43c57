// Package darkroom provides non-destructive, GPU-accelerated photo editing.
//
// # Overview
//
// darkroom keeps one source image and a compact set of edit parameters:
// a geometric transform, a crop window, tonal adjustments and an optional
// color-lookup filter. A [Pipeline] renders those parameters into frames
// without ever modifying the source pixels, and an [Editor] wires user
// gestures to the pipeline and to a bounded undo/redo [History].
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/darkroom"
//	    _ "github.com/gogpu/darkroom/gpu" // optional: GPU device
//	)
//
//	src, _ := darkroom.NewSource(img, darkroom.WithMaxSize(2048))
//	p, _ := darkroom.NewPipeline(src)
//	go p.Run(ctx)
//
//	p.Resize(1080, 1920)
//	p.Zoom(1.5)
//	p.SetTone(darkroom.ToneFromSliders(60, 55, 50))
//	p.Export(func(pm *darkroom.Pixmap, err error) { ... })
//
// # Threading
//
// One render goroutine owns the [Device] and runs [Pipeline.Run] (or calls
// [Pipeline.RenderFrame] directly). Every other Pipeline method is safe to
// call from any goroutine: value updates such as Pan or SetTone are applied
// under a lock, while operations with device side effects are queued and
// executed in order at the start of the next frame.
//
// # Coordinate System
//
// Geometry lives in normalized device coordinates: the viewport spans
// [-1, 1] on both axes with +Y up. Crop rectangles and on-screen selections
// are normalized to [0, 1] with the origin at the top-left. Rotation is in
// degrees, positive counter-clockwise.
//
// # Devices
//
// Without a registered device factory the pipeline renders with
// [SoftwareDevice], a CPU implementation of the same shading contract.
// Blank-importing the gpu package registers a Vulkan compute device.
package darkroom
