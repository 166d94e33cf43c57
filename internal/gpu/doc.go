//go:build !nogpu

// Package gpu implements darkroom.Device on wgpu/hal compute shaders.
//
// A frame is one compute dispatch over the color buffer (8x8 workgroups)
// followed by a copy into a staging buffer for read-back. The WGSL source
// is compiled to SPIR-V with naga. Shading matches the software device:
// bilinear source sampling, trilinear lookup-table grading blended by
// intensity, then the tone matrix from internal/shade.
//
// The package is registered by importing github.com/gogpu/darkroom/gpu.
// Build with -tags nogpu to leave it out.
package gpu
