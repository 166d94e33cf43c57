package darkroom

import (
	"fmt"

	"github.com/gogpu/darkroom/cube"
	"github.com/gogpu/darkroom/internal/parallel"
	"github.com/gogpu/darkroom/internal/shade"
)

// bypassTable is the 1x1x1 white table bound when no filter is active.
var bypassTable = &cube.Table{Title: "bypass", Size: 1, Data: []float32{1, 1, 1}}

// SoftwareDevice renders on the CPU. It implements the same shading as the
// GPU device and is used when no GPU is available and in tests.
//
// Each color-buffer pixel is mapped back through the inverse of the MVP
// matrix onto the quad; pixels that land on the quad sample the source
// bilinearly, the rest take the clear color. Rows are shaded in parallel.
type SoftwareDevice struct {
	pool *parallel.WorkerPool

	program bool
	src     *Pixmap
	lut     *cube.Table

	w, h  int
	color []uint8 // RGBA, bottom-up rows
}

var _ Device = (*SoftwareDevice)(nil)

// NewSoftwareDevice creates a CPU device shading on the shared worker pool.
func NewSoftwareDevice() *SoftwareDevice {
	return &SoftwareDevice{pool: parallel.Shared(), lut: bypassTable}
}

// Name implements Device.
func (d *SoftwareDevice) Name() string { return "software" }

// CreateProgram implements Device.
func (d *SoftwareDevice) CreateProgram() error {
	d.program = true
	return nil
}

// UploadSource implements Device. The pixmap is retained, not copied;
// callers must not modify it afterwards.
func (d *SoftwareDevice) UploadSource(src *Pixmap) error {
	if src == nil || src.Size().Empty() {
		return fmt.Errorf("software: upload source: %w", ErrInvalidSize)
	}
	d.src = src
	return nil
}

// UploadLUT implements Device.
func (d *SoftwareDevice) UploadLUT(t *cube.Table) error {
	if t == nil {
		d.lut = bypassTable
		return nil
	}
	if err := t.Validate(); err != nil {
		return fmt.Errorf("software: upload lut: %w", err)
	}
	d.lut = t
	return nil
}

// Resize implements Device.
func (d *SoftwareDevice) Resize(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("software: resize %dx%d: %w", w, h, ErrInvalidSize)
	}
	if w == d.w && h == d.h {
		return nil
	}
	d.w, d.h = w, h
	d.color = make([]uint8, w*h*4)
	return nil
}

// Draw implements Device.
func (d *SoftwareDevice) Draw(dc DrawCall) error {
	if !d.program {
		return fmt.Errorf("software: draw before CreateProgram")
	}
	if d.src == nil || d.color == nil {
		return fmt.Errorf("software: draw: %w", ErrInvalidSize)
	}

	cr, cg, cb, ca := shade.ToByte(dc.Clear[0]), shade.ToByte(dc.Clear[1]), shade.ToByte(dc.Clear[2]), shade.ToByte(dc.Clear[3])

	inv, ok := dc.MVP.Invert()
	if !ok || dc.Quad.HalfW == 0 || dc.Quad.HalfH == 0 {
		for i := 0; i < len(d.color); i += 4 {
			d.color[i], d.color[i+1], d.color[i+2], d.color[i+3] = cr, cg, cb, ca
		}
		return nil
	}

	params := shade.Params{
		Intensity: dc.Intensity,
		Tone:      shade.ToneMatrix(dc.Brightness, dc.Contrast, dc.Saturation),
	}
	if dc.HasLUT && d.lut != bypassTable {
		params.LUT = d.lut
	}

	q := dc.Quad
	src := d.src
	w, h := d.w, d.h

	d.pool.ForEachBand(h, func(lo, hi int) {
		for row := lo; row < hi; row++ {
			// Row 0 is the bottom of the framebuffer.
			ny := (float64(row)+0.5)/float64(h)*2 - 1
			out := d.color[row*w*4 : (row+1)*w*4]
			for x := 0; x < w; x++ {
				nx := (float64(x)+0.5)/float64(w)*2 - 1
				m := inv.MulVec4(Vec4{X: nx, Y: ny, Z: 0, W: 1})

				o := out[x*4 : x*4+4]
				if m.X < -q.HalfW || m.X > q.HalfW || m.Y < -q.HalfH || m.Y > q.HalfH {
					o[0], o[1], o[2], o[3] = cr, cg, cb, ca
					continue
				}

				s := (m.X/q.HalfW)*0.5 + 0.5
				t := 0.5 - (m.Y/q.HalfH)*0.5
				u := q.UV.Left + s*q.UV.Width()
				v := q.UV.Top + t*q.UV.Height()

				r, g, b, a := shade.Bilinear(src.data, src.width, src.height, float32(u), float32(v))
				r, g, b, a = params.Color(r, g, b, a)
				o[0], o[1], o[2], o[3] = shade.ToByte(r), shade.ToByte(g), shade.ToByte(b), shade.ToByte(a)
			}
		}
	})
	return nil
}

// ReadPixels implements Device.
func (d *SoftwareDevice) ReadPixels(dst []byte) (PixelFormat, error) {
	if len(dst) < len(d.color) || d.color == nil {
		return FormatRGBA8, fmt.Errorf("software: read pixels: %w", ErrInvalidSize)
	}
	copy(dst, d.color)
	return FormatRGBA8, nil
}

// Destroy implements Device.
func (d *SoftwareDevice) Destroy() {
	d.src = nil
	d.color = nil
	d.lut = bypassTable
	d.program = false
}
