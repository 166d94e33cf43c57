//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/darkroom"
	"github.com/gogpu/darkroom/cube"
)

// errNoProgram is returned by Draw before CreateProgram.
var errNoProgram = errors.New("gpu: draw before CreateProgram")

// fenceTimeout bounds the wait for one frame.
const fenceTimeout = 5 * time.Second

// bypassLUT is the 1x1x1 white table bound when no filter is active.
var bypassLUT = []float32{1, 1, 1}

// Device renders frames with a wgpu/hal compute pipeline. It implements
// darkroom.Device.
//
// The source image, lookup table and color buffer live in storage
// buffers. Draw encodes one compute pass over the color buffer and copies
// it into a staging buffer that ReadPixels reads back.
type Device struct {
	name string

	instance hal.Instance // nil for shared devices
	device   hal.Device
	queue    hal.Queue
	external bool // shared device: not destroyed by Destroy

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline

	paramsBuf hal.Buffer

	srcBuf   hal.Buffer
	srcSize  darkroom.Size
	srcBytes uint64

	lutBuf    hal.Buffer
	lutSize   int
	lutBytes  uint64
	lutActive bool

	outBuf     hal.Buffer
	stagingBuf hal.Buffer
	w, h       int
	outBytes   uint64

	bindGroup hal.BindGroup
	drawn     bool
}

var _ darkroom.Device = (*Device)(nil)

// Name implements darkroom.Device.
func (d *Device) Name() string { return d.name }

// CreateProgram implements darkroom.Device.
func (d *Device) CreateProgram() error {
	shader, err := createShaderModule(d.device, "darkroom_grade", gradeShaderWGSL)
	if err != nil {
		return fmt.Errorf("gpu: %w", err)
	}
	d.shader = shader

	bindLayout, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "darkroom_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 3, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create bind group layout: %w", err)
	}
	d.bindLayout = bindLayout

	pipeLayout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "darkroom_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{d.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("gpu: create pipeline layout: %w", err)
	}
	d.pipeLayout = pipeLayout

	pipeline, err := d.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "darkroom_pipeline", Layout: d.pipeLayout,
		Compute: hal.ComputeState{Module: d.shader, EntryPoint: "main"},
	})
	if err != nil {
		return fmt.Errorf("gpu: create compute pipeline: %w", err)
	}
	d.pipeline = pipeline

	paramsBuf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "darkroom_params", Size: paramsSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("gpu: create params buffer: %w", err)
	}
	d.paramsBuf = paramsBuf

	slogger().Debug("gpu: program created", "device", d.name)
	return nil
}

// UploadSource implements darkroom.Device.
func (d *Device) UploadSource(src *darkroom.Pixmap) error {
	if src == nil || src.Size().Empty() {
		return fmt.Errorf("gpu: upload source: %w", darkroom.ErrInvalidSize)
	}
	size := src.Size()
	n := uint64(size.W * size.H * 4) //nolint:gosec // positive dimensions

	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "darkroom_source", Size: n,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("gpu: create source buffer: %w", err)
	}
	d.queue.WriteBuffer(buf, 0, packSource(src.Data(), size.W*size.H))

	d.destroyBuffer(&d.srcBuf)
	d.srcBuf, d.srcSize, d.srcBytes = buf, size, n
	d.invalidateBindings()
	return nil
}

// UploadLUT implements darkroom.Device.
func (d *Device) UploadLUT(t *cube.Table) error {
	data, size := bypassLUT, 1
	if t != nil {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("gpu: upload lut: %w", err)
		}
		data, size = t.Data, t.Size
	}
	n := uint64(len(data) * 4) //nolint:gosec // validated table length

	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "darkroom_lut", Size: n,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("gpu: create lut buffer: %w", err)
	}
	d.queue.WriteBuffer(buf, 0, packTable(data))

	d.destroyBuffer(&d.lutBuf)
	d.lutBuf, d.lutSize, d.lutBytes = buf, size, n
	d.lutActive = t != nil
	d.invalidateBindings()
	return nil
}

// Resize implements darkroom.Device.
func (d *Device) Resize(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("gpu: resize %dx%d: %w", w, h, darkroom.ErrInvalidSize)
	}
	if w == d.w && h == d.h && d.outBuf != nil {
		return nil
	}
	n := uint64(w * h * 4) //nolint:gosec // positive dimensions

	out, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "darkroom_color", Size: n,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("gpu: create color buffer: %w", err)
	}
	staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "darkroom_staging", Size: n,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		d.device.DestroyBuffer(out)
		return fmt.Errorf("gpu: create staging buffer: %w", err)
	}

	d.destroyBuffer(&d.outBuf)
	d.destroyBuffer(&d.stagingBuf)
	d.outBuf, d.stagingBuf = out, staging
	d.w, d.h, d.outBytes = w, h, n
	d.drawn = false
	d.invalidateBindings()
	slogger().Debug("gpu: color buffer allocated", "w", w, "h", h)
	return nil
}

// Draw implements darkroom.Device. It blocks until the frame is in the
// staging buffer.
func (d *Device) Draw(dc darkroom.DrawCall) error {
	if d.pipeline == nil {
		return errNoProgram
	}
	if d.srcBuf == nil || d.lutBuf == nil || d.outBuf == nil {
		return fmt.Errorf("gpu: draw: %w", darkroom.ErrInvalidSize)
	}
	if err := d.ensureBindings(); err != nil {
		return err
	}

	params := newDrawParams(dc, darkroom.Size{W: d.w, H: d.h}, d.srcSize, d.lutSize, d.lutActive)
	d.queue.WriteBuffer(d.paramsBuf, 0, params.bytes())

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "darkroom_frame"})
	if err != nil {
		return fmt.Errorf("gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("darkroom_frame"); err != nil {
		return fmt.Errorf("gpu: begin encoding: %w", err)
	}

	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "darkroom_grade"})
	pass.SetPipeline(d.pipeline)
	pass.SetBindGroup(0, d.bindGroup, nil)
	pass.Dispatch(uint32((d.w+7)/8), uint32((d.h+7)/8), 1) //nolint:gosec // positive dimensions
	pass.End()

	encoder.CopyBufferToBuffer(d.outBuf, d.stagingBuf, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: d.outBytes},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("gpu: end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	fence, err := d.device.CreateFence()
	if err != nil {
		return fmt.Errorf("gpu: create fence: %w", err)
	}
	defer d.device.DestroyFence(fence)
	if err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("gpu: submit: %w", err)
	}
	ok, err := d.device.Wait(fence, 1, fenceTimeout)
	if err != nil {
		return fmt.Errorf("gpu: wait for frame: %w", err)
	}
	if !ok {
		return fmt.Errorf("gpu: frame not finished after %v", fenceTimeout)
	}
	d.drawn = true
	return nil
}

// ReadPixels implements darkroom.Device. Pixels are BGRA8, bottom-up.
func (d *Device) ReadPixels(dst []byte) (darkroom.PixelFormat, error) {
	if !d.drawn {
		return darkroom.FormatBGRA8, fmt.Errorf("gpu: read pixels before draw")
	}
	if uint64(len(dst)) < d.outBytes {
		return darkroom.FormatBGRA8, fmt.Errorf("gpu: read pixels: %w", darkroom.ErrInvalidSize)
	}
	if err := d.queue.ReadBuffer(d.stagingBuf, 0, dst[:d.outBytes]); err != nil {
		return darkroom.FormatBGRA8, fmt.Errorf("gpu: readback: %w", err)
	}
	return darkroom.FormatBGRA8, nil
}

// Destroy implements darkroom.Device. Shared devices are left alive.
func (d *Device) Destroy() {
	if d.device == nil {
		return
	}
	d.invalidateBindings()
	d.destroyBuffer(&d.paramsBuf)
	d.destroyBuffer(&d.srcBuf)
	d.destroyBuffer(&d.lutBuf)
	d.destroyBuffer(&d.outBuf)
	d.destroyBuffer(&d.stagingBuf)

	if d.pipeline != nil {
		d.device.DestroyComputePipeline(d.pipeline)
		d.pipeline = nil
	}
	if d.pipeLayout != nil {
		d.device.DestroyPipelineLayout(d.pipeLayout)
		d.pipeLayout = nil
	}
	if d.bindLayout != nil {
		d.device.DestroyBindGroupLayout(d.bindLayout)
		d.bindLayout = nil
	}
	if d.shader != nil {
		d.device.DestroyShaderModule(d.shader)
		d.shader = nil
	}

	if !d.external {
		d.device.Destroy()
		if d.instance != nil {
			d.instance.Destroy()
		}
	}
	d.device, d.queue, d.instance = nil, nil, nil
	d.drawn = false
	slogger().Debug("gpu: device destroyed", "device", d.name)
}

// ensureBindings creates the bind group if a buffer changed since the
// last frame.
func (d *Device) ensureBindings() error {
	if d.bindGroup != nil {
		return nil
	}
	bg, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "darkroom_bind", Layout: d.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: d.paramsBuf.NativeHandle(), Offset: 0, Size: paramsSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: d.srcBuf.NativeHandle(), Offset: 0, Size: d.srcBytes}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: d.lutBuf.NativeHandle(), Offset: 0, Size: d.lutBytes}},
			{Binding: 3, Resource: gputypes.BufferBinding{Buffer: d.outBuf.NativeHandle(), Offset: 0, Size: d.outBytes}},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create bind group: %w", err)
	}
	d.bindGroup = bg
	return nil
}

func (d *Device) invalidateBindings() {
	if d.bindGroup != nil {
		d.device.DestroyBindGroup(d.bindGroup)
		d.bindGroup = nil
	}
}

func (d *Device) destroyBuffer(b *hal.Buffer) {
	if *b != nil {
		d.device.DestroyBuffer(*b)
		*b = nil
	}
}
