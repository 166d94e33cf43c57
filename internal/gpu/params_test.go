//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gogpu/darkroom"
)

func readF32(b []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
}

func readU32(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off:])
}

func testDrawCall() darkroom.DrawCall {
	return darkroom.DrawCall{
		Quad:       darkroom.Quad{HalfW: 1, HalfH: 0.5, UV: darkroom.Rect{Left: 0.1, Top: 0.2, Right: 0.9, Bottom: 0.8}},
		MVP:        darkroom.Identity().Translate(0.5, 0, 0),
		HasLUT:     true,
		Intensity:  0.75,
		Contrast:   1,
		Saturation: 1,
		Clear:      [4]float32{0.1, 0.2, 0.3, 1},
	}
}

func TestDrawParamsLayout(t *testing.T) {
	p := newDrawParams(testDrawCall(), darkroom.Size{W: 640, H: 480}, darkroom.Size{W: 100, H: 50}, 33, true)
	b := p.bytes()

	if len(b) != paramsSize {
		t.Fatalf("len(bytes()) = %d, want %d", len(b), paramsSize)
	}

	tests := []struct {
		name string
		off  int
		want float32
	}{
		{"inv_mvp translation x", 48, -0.5},
		{"inv_mvp w", 60, 1},
		{"tone identity", 64, 1},
		{"tone off-diagonal", 68, 0},
		{"tone bias r", 128, 0},
		{"uv left", 144, 0.1},
		{"uv bottom", 156, 0.8},
		{"clear g", 164, 0.2},
		{"half extent y", 180, 0.5},
		{"intensity", 208, 0.75},
	}
	for _, tt := range tests {
		if got := readF32(b, tt.off); math.Abs(float64(got-tt.want)) > 1e-6 {
			t.Errorf("%s at %d = %v, want %v", tt.name, tt.off, got, tt.want)
		}
	}

	u32s := []struct {
		name string
		off  int
		want uint32
	}{
		{"view w", 184, 640},
		{"view h", 188, 480},
		{"src w", 192, 100},
		{"src h", 196, 50},
		{"lut size", 200, 33},
		{"has lut", 204, 1},
		{"visible", 212, 1},
	}
	for _, tt := range u32s {
		if got := readU32(b, tt.off); got != tt.want {
			t.Errorf("%s at %d = %d, want %d", tt.name, tt.off, got, tt.want)
		}
	}
}

func TestDrawParamsSingular(t *testing.T) {
	dc := testDrawCall()
	dc.MVP = darkroom.Identity().Scale(0, 0, 1)
	p := newDrawParams(dc, darkroom.Size{W: 1, H: 1}, darkroom.Size{W: 1, H: 1}, 2, true)
	if p.visible != 0 {
		t.Error("singular MVP left the quad visible")
	}

	dc = testDrawCall()
	dc.Quad.HalfW = 0
	p = newDrawParams(dc, darkroom.Size{W: 1, H: 1}, darkroom.Size{W: 1, H: 1}, 2, true)
	if p.visible != 0 {
		t.Error("empty quad left visible")
	}
}

func TestDrawParamsBypass(t *testing.T) {
	p := newDrawParams(testDrawCall(), darkroom.Size{W: 1, H: 1}, darkroom.Size{W: 1, H: 1}, 1, false)
	if p.hasLUT != 0 {
		t.Error("bypass table enabled the lookup stage")
	}
}

func TestDrawParamsToneColumnMajor(t *testing.T) {
	dc := testDrawCall()
	dc.Contrast = 2
	dc.Brightness = 0.1
	dc.Saturation = 0
	p := newDrawParams(dc, darkroom.Size{W: 1, H: 1}, darkroom.Size{W: 1, H: 1}, 2, true)

	// Saturation 0 makes every output channel the same luma row, so
	// column 0 holds the red weight in all three color rows.
	for row := 0; row < 3; row++ {
		if p.tone[row] != p.tone[0] {
			t.Errorf("tone[col 0, row %d] = %v, want %v", row, p.tone[row], p.tone[0])
		}
	}
	if p.tone[15] != 1 || p.toneBias[3] != 0 {
		t.Error("alpha row is not pass-through")
	}
	if p.toneBias[0] == 0 {
		t.Error("contrast and brightness produced no bias")
	}
}

func TestPackSource(t *testing.T) {
	data := []uint8{1, 2, 3, 4, 0xFF, 0, 0x80, 0x10}
	out := packSource(data, 2)
	if got := binary.LittleEndian.Uint32(out); got != 0x04030201 {
		t.Errorf("pixel 0 = 0x%08X, want 0x04030201", got)
	}
	if got := binary.LittleEndian.Uint32(out[4:]); got != 0x108000FF {
		t.Errorf("pixel 1 = 0x%08X, want 0x108000FF", got)
	}
}

func TestPackTable(t *testing.T) {
	out := packTable([]float32{0, 0.5, 1})
	if len(out) != 12 {
		t.Fatalf("len = %d, want 12", len(out))
	}
	if readF32(out, 4) != 0.5 || readF32(out, 8) != 1 {
		t.Error("packTable values mismatch")
	}
}
