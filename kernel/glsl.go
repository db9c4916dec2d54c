package kernel

import (
	"fmt"
	"strings"
)

const glslVertex = `#version 410 core
layout(location = 0) in vec2 a_position;
layout(location = 1) in vec2 a_uv;
out vec2 v_uv;

void main() {
    gl_Position = vec4(a_position * 2.0 - 1.0, 0.0, 1.0);
    v_uv = a_uv;
}
`

const glslCommon = `
float luma(vec3 c) {
    return dot(c, vec3(0.299, 0.587, 0.114));
}

ivec2 texel() {
    return ivec2(floor(v_uv * u_resolution));
}

vec4 load(sampler2D s, ivec2 p) {
    ivec2 size = ivec2(u_resolution);
    return texelFetch(s, clamp(p, ivec2(0), size - 1), 0);
}

vec4 bilinear(sampler2D s, vec2 p) {
    vec2 base = floor(p);
    vec2 f = p - base;
    ivec2 i = ivec2(base);
    vec4 a = load(s, i);
    vec4 b = load(s, i + ivec2(1, 0));
    vec4 c = load(s, i + ivec2(0, 1));
    vec4 d = load(s, i + ivec2(1, 1));
    vec4 r0 = a + (b - a) * f.x;
    vec4 r1 = c + (d - c) * f.x;
    return r0 + (r1 - r0) * f.y;
}

float smooth_threshold(float lo, float hi, float v) {
    if (hi > lo) {
        return smoothstep(lo, hi, v);
    }
    return step(lo, v);
}
`

var glslBodies = [kindCount]string{
	KindDiffuse: `
void main() {
    ivec2 p = texel();
    vec4 src = load(u_image, p);
    vec3 c = src.rgb;
    if (u_hue != 0.0) {
        const vec3 k = vec3(0.57735027);
        float angle = u_hue * 3.14159265;
        float ca = cos(angle);
        c = c * ca + cross(k, c) * sin(angle) + k * dot(k, c) * (1.0 - ca);
    }
    c = (c - 0.5) * u_contrast + 0.5;
    c += u_brightness;
    c = mix(vec3(luma(c)), c, u_saturation);
    fragColor = vec4(clamp(c, 0.0, 1.0), src.a);
}
`,
	KindHeight: `
void main() {
    ivec2 p = texel();
    float l = luma(load(u_image, p).rgb);
    float diff = 0.0;
    for (int dy = -1; dy <= 1; dy++) {
        for (int dx = -1; dx <= 1; dx++) {
            if (dx == 0 && dy == 0) continue;
            diff += abs(l - luma(load(u_image, p + ivec2(dx, dy)).rgb));
        }
    }
    float contrast = diff / 8.0;
    float h = 0.7 * l + 0.3 * contrast;
    h = clamp((h - 0.5) * u_intensity + 0.5, 0.0, 1.0);
    fragColor = vec4(vec3(h), 1.0);
}
`,
	KindBlur: `
void main() {
    ivec2 p = texel();
    ivec2 d = ivec2(u_direction);
    vec4 acc = load(u_image, p) * u_centerWeight;
    for (int i = 1; i <= 4; i++) {
        acc += (load(u_image, p + d * i) + load(u_image, p - d * i)) * u_weights[i - 1];
    }
    fragColor = clamp(acc, 0.0, 1.0);
}
`,
	KindNormal: `
void main() {
    vec2 p = vec2(texel());
    float s = max(1.0, u_step);
    float tl = bilinear(u_heightMap, p + vec2(-s, s)).r;
    float t  = bilinear(u_heightMap, p + vec2(0.0, s)).r;
    float tr = bilinear(u_heightMap, p + vec2(s, s)).r;
    float l  = bilinear(u_heightMap, p + vec2(-s, 0.0)).r;
    float r  = bilinear(u_heightMap, p + vec2(s, 0.0)).r;
    float bl = bilinear(u_heightMap, p + vec2(-s, -s)).r;
    float b  = bilinear(u_heightMap, p + vec2(0.0, -s)).r;
    float br = bilinear(u_heightMap, p + vec2(s, -s)).r;
    float dX = tr + 2.0 * r + br - (tl + 2.0 * l + bl);
    float dY = tl + 2.0 * t + tr - (bl + 2.0 * b + br);
    vec3 n = normalize(vec3(-dX * u_strength, -dY * u_strength, 1.0));
    if (u_flipY > 0.5) n.y = -n.y;
    fragColor = vec4(n * 0.5 + 0.5, 1.0);
}
`,
	KindEdge: `
void main() {
    ivec2 p = texel();
    vec3 tl = load(u_normalMap, p + ivec2(-1, 1)).rgb;
    vec3 t  = load(u_normalMap, p + ivec2(0, 1)).rgb;
    vec3 tr = load(u_normalMap, p + ivec2(1, 1)).rgb;
    vec3 l  = load(u_normalMap, p + ivec2(-1, 0)).rgb;
    vec3 r  = load(u_normalMap, p + ivec2(1, 0)).rgb;
    vec3 bl = load(u_normalMap, p + ivec2(-1, -1)).rgb;
    vec3 b  = load(u_normalMap, p + ivec2(0, -1)).rgb;
    vec3 br = load(u_normalMap, p + ivec2(1, -1)).rgb;
    vec3 sx = tr + 2.0 * r + br - (tl + 2.0 * l + bl);
    vec3 sy = tl + 2.0 * t + tr - (bl + 2.0 * b + br);
    float e = clamp((length(sx) + length(sy)) / 8.0 * u_edgeStrength, 0.0, 1.0);
    float v = smooth_threshold(u_threshold - 0.2, u_threshold + 0.2, 1.0 - e);
    fragColor = vec4(vec3(v), 1.0);
}
`,
	KindAO: `
void main() {
    ivec2 p = texel();
    vec2 pf = vec2(p);
    float center = load(u_heightMap, p).r;
    float n = clamp(u_aoSamples, 1.0, 16.0);
    float acc = 0.0;
    for (int i = 0; i < 16; i++) {
        if (float(i) >= n) break;
        float angle = float(i) * (6.28318531 / n);
        vec2 off = vec2(cos(angle), sin(angle)) * u_aoSpread;
        acc += max(0.0, bilinear(u_heightMap, pf + off).r - center);
    }
    float ao = clamp(1.0 - acc / n * u_aoStrength, 0.0, 1.0);
    fragColor = vec4(vec3(ao), 1.0);
}
`,
	KindMetallic: `
void main() {
    vec3 c = load(u_image, texel()).rgb;
    float sat = max(max(c.r, c.g), c.b) - min(min(c.r, c.g), c.b);
    float m = luma(c) * (1.0 - sat);
    float v = smooth_threshold(u_threshold - u_smoothness, u_threshold + u_smoothness, m);
    fragColor = vec4(vec3(v), 1.0);
}
`,
	KindRoughness: `
void main() {
    ivec2 p = texel();
    vec3 c = load(u_diffuseMap, p).rgb;
    vec3 n = load(u_normalMap, p).rgb;
    float colorVar = 0.0;
    float normalVar = 0.0;
    for (int dy = -1; dy <= 1; dy++) {
        for (int dx = -1; dx <= 1; dx++) {
            colorVar += distance(c, load(u_diffuseMap, p + ivec2(dx, dy)).rgb);
            normalVar += distance(n, load(u_normalMap, p + ivec2(dx, dy)).rgb);
        }
    }
    float r = clamp(u_baseRoughness + colorVar / 9.0 + normalVar / 9.0 * u_normalInfluence, 0.0, 1.0);
    fragColor = vec4(vec3(r), 1.0);
}
`,
	KindORM: `
void main() {
    ivec2 p = texel();
    fragColor = vec4(load(u_aoMap, p).r, load(u_roughnessMap, p).r, load(u_metallicMap, p).r, 1.0);
}
`,
}

var glslTypes = map[UniformType]string{
	Float: "float",
	Vec2:  "vec2",
	Vec3:  "vec3",
	Vec4:  "vec4",
}

// GLSLName returns the shader identifier of a uniform or sampler name.
func GLSLName(name string) string {
	return "u_" + name
}

func glslSource(k Kind) Source {
	d := &declarations[k]
	var b strings.Builder
	b.WriteString("#version 410 core\nin vec2 v_uv;\nout vec4 fragColor;\n\n")
	for _, u := range d.Uniforms {
		fmt.Fprintf(&b, "uniform %s %s;\n", glslTypes[u.Type], GLSLName(u.Name))
	}
	for _, s := range d.Samplers {
		fmt.Fprintf(&b, "uniform sampler2D %s;\n", GLSLName(s))
	}
	b.WriteString(glslCommon)
	b.WriteString(glslBodies[k])
	return Source{Kind: k, Vertex: glslVertex, Fragment: b.String()}
}

// SourceFor returns the built-in program text of k in dialect d.
// DialectNone yields a Source with empty text.
func SourceFor(k Kind, d Dialect) (Source, error) {
	if !k.Valid() {
		return Source{}, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(k))
	}
	switch d {
	case DialectWGSL:
		return wgslSource(k), nil
	case DialectGLSL:
		return glslSource(k), nil
	default:
		return Source{Kind: k}, nil
	}
}
