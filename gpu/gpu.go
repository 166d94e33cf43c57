//go:build !nogpu

// Package gpu registers the wgpu/hal compute device with darkroom.
//
// Import it for its side effect:
//
//	import _ "github.com/gogpu/darkroom/gpu"
//
// Pipelines created afterwards render on the first Vulkan adapter. If no
// adapter can be opened, sessions fall back to the software device.
package gpu

import (
	"github.com/gogpu/darkroom"
	gpuimpl "github.com/gogpu/darkroom/internal/gpu"
)

func init() {
	if err := darkroom.RegisterDeviceProvider(&gpuimpl.Provider{}); err != nil {
		darkroom.Logger().Warn("GPU device provider not available", "err", err)
	}
}

// SetDeviceProvider shares a GPU device owned by the host application
// (e.g., gogpu) with darkroom sessions opened afterwards.
//
// The provider should implement HalDevice() any and HalQueue() any
// returning wgpu/hal types. Call it before the first frame, typically
// from editorcanvas.New.
func SetDeviceProvider(provider any) error {
	return darkroom.ShareDevice(provider)
}
