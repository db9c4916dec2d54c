package kernel

import (
	"encoding/binary"
	"fmt"
	"math"
)

// UniformDecl declares one uniform of a kernel.
type UniformDecl struct {
	Name string
	Type UniformType
}

// Declaration is the static interface of one kernel kind: the samplers it
// reads, in binding order, and its uniforms, in block order.
type Declaration struct {
	Kind     Kind
	Samplers []string
	Uniforms []UniformDecl
}

var resolutionDecl = UniformDecl{"resolution", Vec2}

var declarations = [kindCount]Declaration{
	KindDiffuse: {
		Kind:     KindDiffuse,
		Samplers: []string{"image"},
		Uniforms: []UniformDecl{resolutionDecl, {"brightness", Float}, {"contrast", Float}, {"saturation", Float}, {"hue", Float}},
	},
	KindHeight: {
		Kind:     KindHeight,
		Samplers: []string{"image"},
		Uniforms: []UniformDecl{resolutionDecl, {"intensity", Float}, {"blurWeights", Vec4}},
	},
	KindBlur: {
		Kind:     KindBlur,
		Samplers: []string{"image"},
		Uniforms: []UniformDecl{resolutionDecl, {"direction", Vec2}, {"weights", Vec4}, {"centerWeight", Float}},
	},
	KindNormal: {
		Kind:     KindNormal,
		Samplers: []string{"heightMap"},
		Uniforms: []UniformDecl{resolutionDecl, {"strength", Float}, {"step", Float}, {"flipY", Float}},
	},
	KindEdge: {
		Kind:     KindEdge,
		Samplers: []string{"normalMap"},
		Uniforms: []UniformDecl{resolutionDecl, {"edgeStrength", Float}, {"threshold", Float}},
	},
	KindAO: {
		Kind:     KindAO,
		Samplers: []string{"normalMap", "heightMap"},
		Uniforms: []UniformDecl{resolutionDecl, {"aoStrength", Float}, {"aoSpread", Float}, {"aoSamples", Float}},
	},
	KindMetallic: {
		Kind:     KindMetallic,
		Samplers: []string{"image"},
		Uniforms: []UniformDecl{resolutionDecl, {"threshold", Float}, {"smoothness", Float}},
	},
	KindRoughness: {
		Kind:     KindRoughness,
		Samplers: []string{"diffuseMap", "normalMap"},
		Uniforms: []UniformDecl{resolutionDecl, {"baseRoughness", Float}, {"normalInfluence", Float}},
	},
	KindORM: {
		Kind:     KindORM,
		Samplers: []string{"aoMap", "roughnessMap", "metallicMap"},
		Uniforms: []UniformDecl{resolutionDecl},
	},
}

// Lookup returns the declaration of k.
func Lookup(k Kind) (*Declaration, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(k))
	}
	return &declarations[k], nil
}

// Check verifies that u carries exactly the declared uniforms, in order,
// with finite values, and that textures matches the sampler count.
func (d *Declaration) Check(u Uniforms, textures int) error {
	if u == nil {
		return fmt.Errorf("%w: %s: nil uniforms", ErrUniformMismatch, d.Kind)
	}
	if u.Kind() != d.Kind {
		return fmt.Errorf("%w: %s uniforms bound to %s", ErrUniformMismatch, u.Kind(), d.Kind)
	}
	if textures != len(d.Samplers) {
		return fmt.Errorf("%w: %s reads %d textures, got %d", ErrUniformMismatch, d.Kind, len(d.Samplers), textures)
	}
	values := u.Values()
	if len(values) != len(d.Uniforms) {
		return fmt.Errorf("%w: %s declares %d uniforms, got %d", ErrUniformMismatch, d.Kind, len(d.Uniforms), len(values))
	}
	for i, v := range values {
		want := d.Uniforms[i]
		if v.Name != want.Name || v.Type != want.Type {
			return fmt.Errorf("%w: %s uniform %d is %s %s, want %s %s",
				ErrUniformMismatch, d.Kind, i, v.Name, v.Type, want.Name, want.Type)
		}
		for c := 0; c < v.Type.Components(); c++ {
			f := float64(v.Data[c])
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return fmt.Errorf("%w: %s uniform %s is not finite", ErrUniformMismatch, d.Kind, v.Name)
			}
		}
	}
	return nil
}

func alignOf(t UniformType) int {
	switch t {
	case Vec2:
		return 8
	case Vec3, Vec4:
		return 16
	default:
		return 4
	}
}

func roundUp(n, align int) int {
	return (n + align - 1) / align * align
}

// Layout returns the byte offset of every uniform in the WGSL uniform
// block and the block size, padded to 16 bytes.
func (d *Declaration) Layout() (offsets []int, size int) {
	offsets = make([]int, len(d.Uniforms))
	end, maxAlign := 0, 4
	for i, u := range d.Uniforms {
		a := alignOf(u.Type)
		if a > maxAlign {
			maxAlign = a
		}
		offsets[i] = roundUp(end, a)
		end = offsets[i] + 4*u.Type.Components()
	}
	size = roundUp(roundUp(end, maxAlign), 16)
	return offsets, size
}

// Encode packs u into a little-endian uniform buffer laid out per Layout.
// u must already have passed Check.
func (d *Declaration) Encode(u Uniforms) []byte {
	offsets, size := d.Layout()
	buf := make([]byte, size)
	for i, v := range u.Values() {
		for c := 0; c < v.Type.Components(); c++ {
			binary.LittleEndian.PutUint32(buf[offsets[i]+4*c:], math.Float32bits(v.Data[c]))
		}
	}
	return buf
}
