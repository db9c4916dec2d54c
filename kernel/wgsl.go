package kernel

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/naga"
)

// Input textures are bound as read-only storage buffers of packed RGBA8
// texels (one u32 per texel, R in the low byte) at bindings 1..n; the
// uniform block is binding 0.

const wgslVertex = `
struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
}

@vertex
fn vs_main(@location(0) position: vec2<f32>, @location(1) uv: vec2<f32>) -> VertexOutput {
    var out: VertexOutput;
    out.position = vec4<f32>(position.x * 2.0 - 1.0, 1.0 - position.y * 2.0, 0.0, 1.0);
    out.uv = uv;
    return out;
}
`

const wgslCommon = `
fn luma(c: vec3<f32>) -> f32 {
    return dot(c, vec3<f32>(0.299, 0.587, 0.114));
}

fn texel(uv: vec2<f32>) -> vec2<i32> {
    return vec2<i32>(floor(uv * params.resolution));
}

fn smooth_threshold(lo: f32, hi: f32, v: f32) -> f32 {
    if (hi > lo) {
        return smoothstep(lo, hi, v);
    }
    return step(lo, v);
}
`

const wgslSampler = `
fn load$N(x: i32, y: i32) -> vec4<f32> {
    let size = vec2<i32>(params.resolution);
    let cx = clamp(x, 0, size.x - 1);
    let cy = clamp(y, 0, size.y - 1);
    let v = tex$N[u32(cy * size.x + cx)];
    return vec4<f32>(
        f32(v & 0xffu),
        f32((v >> 8u) & 0xffu),
        f32((v >> 16u) & 0xffu),
        f32((v >> 24u) & 0xffu)
    ) / 255.0;
}

fn sample$N(p: vec2<f32>) -> vec4<f32> {
    let base = floor(p);
    let f = p - base;
    let x = i32(base.x);
    let y = i32(base.y);
    let a = load$N(x, y);
    let b = load$N(x + 1, y);
    let c = load$N(x, y + 1);
    let d = load$N(x + 1, y + 1);
    let r0 = a + (b - a) * f.x;
    let r1 = c + (d - c) * f.x;
    return r0 + (r1 - r0) * f.y;
}
`

var wgslBodies = [kindCount]string{
	KindDiffuse: `
@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    let p = texel(uv);
    let src = load0(p.x, p.y);
    var c = src.rgb;
    if (params.hue != 0.0) {
        let k = vec3<f32>(0.57735027);
        let angle = params.hue * 3.14159265;
        let ca = cos(angle);
        c = c * ca + cross(k, c) * sin(angle) + k * dot(k, c) * (1.0 - ca);
    }
    c = (c - vec3<f32>(0.5)) * params.contrast + vec3<f32>(0.5);
    c = c + vec3<f32>(params.brightness);
    c = mix(vec3<f32>(luma(c)), c, params.saturation);
    return vec4<f32>(clamp(c, vec3<f32>(0.0), vec3<f32>(1.0)), src.a);
}
`,
	KindHeight: `
@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    let p = texel(uv);
    let l = luma(load0(p.x, p.y).rgb);
    var diff = 0.0;
    for (var dy = -1; dy <= 1; dy = dy + 1) {
        for (var dx = -1; dx <= 1; dx = dx + 1) {
            if (dx == 0 && dy == 0) {
                continue;
            }
            diff = diff + abs(l - luma(load0(p.x + dx, p.y + dy).rgb));
        }
    }
    let contrast = diff / 8.0;
    var h = 0.7 * l + 0.3 * contrast;
    h = clamp((h - 0.5) * params.intensity + 0.5, 0.0, 1.0);
    return vec4<f32>(h, h, h, 1.0);
}
`,
	KindBlur: `
@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    let p = texel(uv);
    let d = vec2<i32>(params.direction);
    var acc = load0(p.x, p.y) * params.centerWeight;
    acc = acc + (load0(p.x + d.x, p.y + d.y) + load0(p.x - d.x, p.y - d.y)) * params.weights.x;
    acc = acc + (load0(p.x + 2 * d.x, p.y + 2 * d.y) + load0(p.x - 2 * d.x, p.y - 2 * d.y)) * params.weights.y;
    acc = acc + (load0(p.x + 3 * d.x, p.y + 3 * d.y) + load0(p.x - 3 * d.x, p.y - 3 * d.y)) * params.weights.z;
    acc = acc + (load0(p.x + 4 * d.x, p.y + 4 * d.y) + load0(p.x - 4 * d.x, p.y - 4 * d.y)) * params.weights.w;
    return clamp(acc, vec4<f32>(0.0), vec4<f32>(1.0));
}
`,
	KindNormal: `
@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    let p = vec2<f32>(texel(uv));
    let s = max(1.0, params.step);
    let tl = sample0(p + vec2<f32>(-s, s)).r;
    let t = sample0(p + vec2<f32>(0.0, s)).r;
    let tr = sample0(p + vec2<f32>(s, s)).r;
    let l = sample0(p + vec2<f32>(-s, 0.0)).r;
    let r = sample0(p + vec2<f32>(s, 0.0)).r;
    let bl = sample0(p + vec2<f32>(-s, -s)).r;
    let b = sample0(p + vec2<f32>(0.0, -s)).r;
    let br = sample0(p + vec2<f32>(s, -s)).r;
    let dx = tr + 2.0 * r + br - (tl + 2.0 * l + bl);
    let dy = tl + 2.0 * t + tr - (bl + 2.0 * b + br);
    var n = normalize(vec3<f32>(-dx * params.strength, -dy * params.strength, 1.0));
    if (params.flipY > 0.5) {
        n.y = -n.y;
    }
    return vec4<f32>(n * 0.5 + vec3<f32>(0.5), 1.0);
}
`,
	KindEdge: `
@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    let p = texel(uv);
    let tl = load0(p.x - 1, p.y + 1).rgb;
    let t = load0(p.x, p.y + 1).rgb;
    let tr = load0(p.x + 1, p.y + 1).rgb;
    let l = load0(p.x - 1, p.y).rgb;
    let r = load0(p.x + 1, p.y).rgb;
    let bl = load0(p.x - 1, p.y - 1).rgb;
    let b = load0(p.x, p.y - 1).rgb;
    let br = load0(p.x + 1, p.y - 1).rgb;
    let sx = tr + 2.0 * r + br - (tl + 2.0 * l + bl);
    let sy = tl + 2.0 * t + tr - (bl + 2.0 * b + br);
    let e = clamp((length(sx) + length(sy)) / 8.0 * params.edgeStrength, 0.0, 1.0);
    let v = smooth_threshold(params.threshold - 0.2, params.threshold + 0.2, 1.0 - e);
    return vec4<f32>(v, v, v, 1.0);
}
`,
	KindAO: `
@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    let p = texel(uv);
    let pf = vec2<f32>(p);
    let center = load1(p.x, p.y).r;
    let n = clamp(params.aoSamples, 1.0, 16.0);
    var acc = 0.0;
    for (var i = 0; i < 16; i = i + 1) {
        if (f32(i) >= n) {
            break;
        }
        let angle = f32(i) * (6.28318531 / n);
        let off = vec2<f32>(cos(angle), sin(angle)) * params.aoSpread;
        acc = acc + max(0.0, sample1(pf + off).r - center);
    }
    let ao = clamp(1.0 - acc / n * params.aoStrength, 0.0, 1.0);
    return vec4<f32>(ao, ao, ao, 1.0);
}
`,
	KindMetallic: `
@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    let p = texel(uv);
    let c = load0(p.x, p.y).rgb;
    let sat = max(max(c.r, c.g), c.b) - min(min(c.r, c.g), c.b);
    let m = luma(c) * (1.0 - sat);
    let v = smooth_threshold(params.threshold - params.smoothness, params.threshold + params.smoothness, m);
    return vec4<f32>(v, v, v, 1.0);
}
`,
	KindRoughness: `
@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    let p = texel(uv);
    let c = load0(p.x, p.y).rgb;
    let n = load1(p.x, p.y).rgb;
    var colorVar = 0.0;
    var normalVar = 0.0;
    for (var dy = -1; dy <= 1; dy = dy + 1) {
        for (var dx = -1; dx <= 1; dx = dx + 1) {
            colorVar = colorVar + distance(c, load0(p.x + dx, p.y + dy).rgb);
            normalVar = normalVar + distance(n, load1(p.x + dx, p.y + dy).rgb);
        }
    }
    let r = clamp(params.baseRoughness + colorVar / 9.0 + normalVar / 9.0 * params.normalInfluence, 0.0, 1.0);
    return vec4<f32>(r, r, r, 1.0);
}
`,
	KindORM: `
@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    let p = texel(uv);
    return vec4<f32>(load0(p.x, p.y).r, load1(p.x, p.y).r, load2(p.x, p.y).r, 1.0);
}
`,
}

func wgslSource(k Kind) Source {
	d := &declarations[k]
	var b strings.Builder
	b.WriteString("struct Params {\n")
	for _, u := range d.Uniforms {
		fmt.Fprintf(&b, "    %s: %s,\n", u.Name, u.Type)
	}
	b.WriteString("}\n\n@group(0) @binding(0) var<uniform> params: Params;\n")
	for i, s := range d.Samplers {
		fmt.Fprintf(&b, "@group(0) @binding(%d) var<storage, read> tex%d: array<u32>; // %s\n", i+1, i, s)
	}
	b.WriteString(wgslCommon)
	for i := range d.Samplers {
		b.WriteString(strings.ReplaceAll(wgslSampler, "$N", strconv.Itoa(i)))
	}
	b.WriteString(wgslBodies[k])
	return Source{Kind: k, Vertex: wgslVertex, Fragment: b.String()}
}

// CompileWGSL compiles WGSL to SPIR-V words.
func CompileWGSL(src string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(src)
	if err != nil {
		return nil, err
	}

	// SPIR-V is little-endian 32-bit words
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}
