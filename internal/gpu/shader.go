//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// gradeShaderWGSL renders one frame: each invocation maps a color-buffer
// pixel back onto the image quad, samples the source bilinearly, applies
// the lookup table blended by intensity and the tone matrix, and writes a
// packed BGRA8 pixel. Pixels off the quad get the clear color.
//
// Rows are bottom-up. There are no loops: naga's SPIR-V output executes
// only the first iteration of some loops, so the sampling is unrolled.
//
// Bindings:
//
//	0: Params (uniform)
//	1: source pixels, RGBA8 packed r | g<<8 | b<<16 | a<<24
//	2: lookup table, r-fastest float triples
//	3: color buffer, BGRA8 packed
const gradeShaderWGSL = `
struct Params {
    inv_mvp: mat4x4<f32>,
    tone: mat4x4<f32>,
    tone_bias: vec4<f32>,
    uv: vec4<f32>,
    clear_color: vec4<f32>,
    half_extent: vec2<f32>,
    view_size: vec2<u32>,
    src_size: vec2<u32>,
    lut_size: u32,
    has_lut: u32,
    intensity: f32,
    visible: u32,
    _pad0: u32,
    _pad1: u32,
}

@group(0) @binding(0) var<uniform> params: Params;
@group(0) @binding(1) var<storage, read> src: array<u32>;
@group(0) @binding(2) var<storage, read> lut: array<f32>;
@group(0) @binding(3) var<storage, read_write> dst: array<u32>;

fn unpack_rgba(p: u32) -> vec4<f32> {
    return vec4<f32>(
        f32(p & 0xFFu),
        f32((p >> 8u) & 0xFFu),
        f32((p >> 16u) & 0xFFu),
        f32((p >> 24u) & 0xFFu),
    ) / 255.0;
}

fn pack_bgra(c: vec4<f32>) -> u32 {
    let v = vec4<u32>(clamp(c, vec4<f32>(0.0), vec4<f32>(1.0)) * 255.0 + vec4<f32>(0.5));
    return v.b | (v.g << 8u) | (v.r << 16u) | (v.a << 24u);
}

fn texel(x: i32, y: i32) -> vec4<f32> {
    let w = i32(params.src_size.x);
    let h = i32(params.src_size.y);
    let cx = clamp(x, 0, w - 1);
    let cy = clamp(y, 0, h - 1);
    return unpack_rgba(src[u32(cy * w + cx)]);
}

fn sample_source(uv: vec2<f32>) -> vec4<f32> {
    let pos = uv * vec2<f32>(params.src_size) - vec2<f32>(0.5, 0.5);
    let base = floor(pos);
    let f = pos - base;
    let x0 = i32(base.x);
    let y0 = i32(base.y);
    let top = mix(texel(x0, y0), texel(x0 + 1, y0), f.x);
    let bot = mix(texel(x0, y0 + 1), texel(x0 + 1, y0 + 1), f.x);
    return mix(top, bot, f.y);
}

fn lut_fetch(r: u32, g: u32, b: u32) -> vec3<f32> {
    let n = params.lut_size;
    let i = ((b * n + g) * n + r) * 3u;
    return vec3<f32>(lut[i], lut[i + 1u], lut[i + 2u]);
}

fn sample_lut(c: vec3<f32>) -> vec3<f32> {
    let last = params.lut_size - 1u;
    let pos = clamp(c, vec3<f32>(0.0), vec3<f32>(1.0)) * f32(last);
    let i0 = min(vec3<u32>(pos), vec3<u32>(last));
    let i1 = min(i0 + vec3<u32>(1u), vec3<u32>(last));
    let f = pos - vec3<f32>(i0);
    let c00 = mix(lut_fetch(i0.x, i0.y, i0.z), lut_fetch(i1.x, i0.y, i0.z), f.x);
    let c10 = mix(lut_fetch(i0.x, i1.y, i0.z), lut_fetch(i1.x, i1.y, i0.z), f.x);
    let c01 = mix(lut_fetch(i0.x, i0.y, i1.z), lut_fetch(i1.x, i0.y, i1.z), f.x);
    let c11 = mix(lut_fetch(i0.x, i1.y, i1.z), lut_fetch(i1.x, i1.y, i1.z), f.x);
    return mix(mix(c00, c10, f.y), mix(c01, c11, f.y), f.z);
}

@compute @workgroup_size(8, 8, 1)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let w = params.view_size.x;
    let h = params.view_size.y;
    if (gid.x >= w || gid.y >= h) {
        return;
    }
    let idx = gid.y * w + gid.x;

    let ndc = vec2<f32>(
        (f32(gid.x) + 0.5) / f32(w) * 2.0 - 1.0,
        (f32(gid.y) + 0.5) / f32(h) * 2.0 - 1.0,
    );
    let m = params.inv_mvp * vec4<f32>(ndc, 0.0, 1.0);
    let he = params.half_extent;
    if (params.visible == 0u || abs(m.x) > he.x || abs(m.y) > he.y) {
        dst[idx] = pack_bgra(params.clear_color);
        return;
    }

    let st = vec2<f32>(m.x / he.x * 0.5 + 0.5, 0.5 - m.y / he.y * 0.5);
    let uv = params.uv.xy + st * (params.uv.zw - params.uv.xy);
    var color = sample_source(uv);

    if (params.has_lut != 0u) {
        let graded = sample_lut(color.rgb);
        color = vec4<f32>(mix(color.rgb, graded, params.intensity), color.a);
    }

    let toned = params.tone * color + params.tone_bias;
    dst[idx] = pack_bgra(vec4<f32>(toned.rgb, color.a));
}
`

// compileSPIRV compiles WGSL source to SPIR-V words.
func compileSPIRV(wgsl string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("compile shader: %w", err)
	}

	// SPIR-V is little-endian 32-bit words.
	code := make([]uint32, len(spirvBytes)/4)
	for i := range code {
		code[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return code, nil
}

// createShaderModule compiles the WGSL source with naga and loads the
// SPIR-V into a shader module.
func createShaderModule(device hal.Device, label, wgsl string) (hal.ShaderModule, error) {
	code, err := compileSPIRV(wgsl)
	if err != nil {
		return nil, err
	}
	return device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: code},
	})
}
