package kernel

// UniformType is the shader type of a uniform value.
type UniformType uint8

const (
	Float UniformType = iota + 1
	Vec2
	Vec3
	Vec4
)

// Components returns the number of float components.
func (t UniformType) Components() int {
	switch t {
	case Float:
		return 1
	case Vec2:
		return 2
	case Vec3:
		return 3
	case Vec4:
		return 4
	default:
		return 0
	}
}

// String returns the WGSL spelling of the type.
func (t UniformType) String() string {
	switch t {
	case Float:
		return "f32"
	case Vec2:
		return "vec2<f32>"
	case Vec3:
		return "vec3<f32>"
	case Vec4:
		return "vec4<f32>"
	default:
		return "invalid"
	}
}

// Value is one bound uniform.
type Value struct {
	Name string
	Type UniformType
	Data [4]float32
}

func scalar(name string, v float32) Value {
	return Value{Name: name, Type: Float, Data: [4]float32{v}}
}

func vec2(name string, v [2]float32) Value {
	return Value{Name: name, Type: Vec2, Data: [4]float32{v[0], v[1]}}
}

func vec4(name string, v [4]float32) Value {
	return Value{Name: name, Type: Vec4, Data: v}
}

// Uniforms is the typed uniform block of one kernel kind.
// Values must be returned in declaration order.
type Uniforms interface {
	Kind() Kind
	Values() []Value
}

// Resolution returns the resolution uniform for a w×h target.
func Resolution(w, h int) [2]float32 {
	return [2]float32{float32(w), float32(h)}
}

// DiffuseUniforms grades the source colour.
type DiffuseUniforms struct {
	Resolution [2]float32
	Brightness float32
	Contrast   float32
	Saturation float32
	// Hue in [-1, 1]; rotated by Hue·π about the grey axis.
	Hue float32
}

func (*DiffuseUniforms) Kind() Kind { return KindDiffuse }

func (u *DiffuseUniforms) Values() []Value {
	return []Value{
		vec2("resolution", u.Resolution),
		scalar("brightness", u.Brightness),
		scalar("contrast", u.Contrast),
		scalar("saturation", u.Saturation),
		scalar("hue", u.Hue),
	}
}

// HeightUniforms derives height from luma.
// The blur weights are bound but not read by the kernel.
type HeightUniforms struct {
	Resolution  [2]float32
	Intensity   float32
	BlurWeights [4]float32
}

func (*HeightUniforms) Kind() Kind { return KindHeight }

func (u *HeightUniforms) Values() []Value {
	return []Value{
		vec2("resolution", u.Resolution),
		scalar("intensity", u.Intensity),
		vec4("blurWeights", u.BlurWeights),
	}
}

// BlurUniforms is one pass of a separable blur.
// Direction is (1,0) for horizontal and (0,1) for vertical.
// Center weights the middle tap, Weights the taps at distance 1..4.
type BlurUniforms struct {
	Resolution [2]float32
	Direction  [2]float32
	Weights    [4]float32
	Center     float32
}

func (*BlurUniforms) Kind() Kind { return KindBlur }

func (u *BlurUniforms) Values() []Value {
	return []Value{
		vec2("resolution", u.Resolution),
		vec2("direction", u.Direction),
		vec4("weights", u.Weights),
		scalar("centerWeight", u.Center),
	}
}

// NormalUniforms builds a normal map from height.
type NormalUniforms struct {
	Resolution [2]float32
	Strength   float32
	Step       float32
	// FlipY is 1 for the Y-down (DirectX) convention.
	FlipY float32
}

func (*NormalUniforms) Kind() Kind { return KindNormal }

func (u *NormalUniforms) Values() []Value {
	return []Value{
		vec2("resolution", u.Resolution),
		scalar("strength", u.Strength),
		scalar("step", u.Step),
		scalar("flipY", u.FlipY),
	}
}

// EdgeUniforms detects edges in a normal map.
type EdgeUniforms struct {
	Resolution   [2]float32
	EdgeStrength float32
	Threshold    float32
}

func (*EdgeUniforms) Kind() Kind { return KindEdge }

func (u *EdgeUniforms) Values() []Value {
	return []Value{
		vec2("resolution", u.Resolution),
		scalar("edgeStrength", u.EdgeStrength),
		scalar("threshold", u.Threshold),
	}
}

// AOUniforms approximates ambient occlusion.
type AOUniforms struct {
	Resolution [2]float32
	Strength   float32
	Spread     float32
	Samples    float32
}

func (*AOUniforms) Kind() Kind { return KindAO }

func (u *AOUniforms) Values() []Value {
	return []Value{
		vec2("resolution", u.Resolution),
		scalar("aoStrength", u.Strength),
		scalar("aoSpread", u.Spread),
		scalar("aoSamples", u.Samples),
	}
}

// MetallicUniforms classifies metallic surfaces.
type MetallicUniforms struct {
	Resolution [2]float32
	Threshold  float32
	Smoothness float32
}

func (*MetallicUniforms) Kind() Kind { return KindMetallic }

func (u *MetallicUniforms) Values() []Value {
	return []Value{
		vec2("resolution", u.Resolution),
		scalar("threshold", u.Threshold),
		scalar("smoothness", u.Smoothness),
	}
}

// RoughnessUniforms estimates roughness.
type RoughnessUniforms struct {
	Resolution      [2]float32
	BaseRoughness   float32
	NormalInfluence float32
}

func (*RoughnessUniforms) Kind() Kind { return KindRoughness }

func (u *RoughnessUniforms) Values() []Value {
	return []Value{
		vec2("resolution", u.Resolution),
		scalar("baseRoughness", u.BaseRoughness),
		scalar("normalInfluence", u.NormalInfluence),
	}
}

// ORMUniforms packs occlusion, roughness and metallic.
type ORMUniforms struct {
	Resolution [2]float32
}

func (*ORMUniforms) Kind() Kind { return KindORM }

func (u *ORMUniforms) Values() []Value {
	return []Value{vec2("resolution", u.Resolution)}
}
