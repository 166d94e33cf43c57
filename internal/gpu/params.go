//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/darkroom"
	"github.com/gogpu/darkroom/internal/shade"
)

// paramsSize is the size of the Params uniform in gradeShaderWGSL,
// rounded up to its 16-byte alignment.
const paramsSize = 224

// drawParams mirrors the Params uniform.
type drawParams struct {
	invMVP     [16]float32 // column-major
	tone       [16]float32 // column-major
	toneBias   [4]float32
	uv         [4]float32
	clear      [4]float32
	halfExtent [2]float32
	viewSize   [2]uint32
	srcSize    [2]uint32
	lutSize    uint32
	hasLUT     uint32
	intensity  float32
	visible    uint32
}

// newDrawParams builds the uniform for dc. A singular MVP or an empty quad
// clears the whole frame.
func newDrawParams(dc darkroom.DrawCall, view, src darkroom.Size, lutSize int, lutActive bool) drawParams {
	p := drawParams{
		uv:         [4]float32{float32(dc.Quad.UV.Left), float32(dc.Quad.UV.Top), float32(dc.Quad.UV.Right), float32(dc.Quad.UV.Bottom)},
		clear:      dc.Clear,
		halfExtent: [2]float32{float32(dc.Quad.HalfW), float32(dc.Quad.HalfH)},
		viewSize:   [2]uint32{uint32(view.W), uint32(view.H)}, //nolint:gosec // positive dimensions
		srcSize:    [2]uint32{uint32(src.W), uint32(src.H)},   //nolint:gosec // positive dimensions
		lutSize:    uint32(lutSize),                           //nolint:gosec // validated table size
		intensity:  dc.Intensity,
	}

	if inv, ok := dc.MVP.Invert(); ok && dc.Quad.HalfW != 0 && dc.Quad.HalfH != 0 {
		p.invMVP = inv.Float32()
		p.visible = 1
	}
	if dc.HasLUT && lutActive {
		p.hasLUT = 1
	}

	m := shade.ToneMatrix(dc.Brightness, dc.Contrast, dc.Saturation)
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			p.tone[col*4+row] = m[row*5+col]
		}
		p.toneBias[row] = m[row*5+4]
	}
	return p
}

// bytes serializes p in the uniform's std140 layout.
func (p *drawParams) bytes() []byte {
	buf := make([]byte, 0, paramsSize)
	f32 := func(vs ...float32) {
		for _, v := range vs {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}
	}
	u32 := func(vs ...uint32) {
		for _, v := range vs {
			buf = binary.LittleEndian.AppendUint32(buf, v)
		}
	}

	f32(p.invMVP[:]...)
	f32(p.tone[:]...)
	f32(p.toneBias[:]...)
	f32(p.uv[:]...)
	f32(p.clear[:]...)
	f32(p.halfExtent[:]...)
	u32(p.viewSize[:]...)
	u32(p.srcSize[:]...)
	u32(p.lutSize, p.hasLUT)
	f32(p.intensity)
	u32(p.visible)
	u32(0, 0) // padding
	return buf
}

// packSource packs straight-alpha RGBA8 pixels into the shader's u32
// layout.
func packSource(data []uint8, pixelCount int) []byte {
	out := make([]byte, pixelCount*4)
	for i := 0; i < pixelCount; i++ {
		j := i * 4
		packed := uint32(data[j]) | uint32(data[j+1])<<8 | uint32(data[j+2])<<16 | uint32(data[j+3])<<24
		binary.LittleEndian.PutUint32(out[j:], packed)
	}
	return out
}

// packTable serializes lookup-table samples as little-endian float32.
func packTable(data []float32) []byte {
	out := make([]byte, len(data)*4)
	for i, v := range data {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}
