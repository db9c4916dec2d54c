package kernel

import "fmt"

// Kind identifies one per-pixel program.
type Kind uint8

const (
	// KindDiffuse grades colour: hue rotation, contrast, brightness, saturation.
	KindDiffuse Kind = iota
	// KindHeight derives height from luma and local contrast.
	KindHeight
	// KindBlur is one direction of a separable 9-tap Gaussian blur.
	KindBlur
	// KindNormal derives a tangent-space normal from a height field.
	KindNormal
	// KindEdge detects edges in a normal map.
	KindEdge
	// KindAO approximates ambient occlusion from a height field.
	KindAO
	// KindMetallic classifies metallic surfaces from colour.
	KindMetallic
	// KindRoughness estimates roughness from colour and normal variation.
	KindRoughness
	// KindORM packs occlusion, roughness and metallic into one image.
	KindORM

	kindCount
)

var kindNames = [kindCount]string{
	KindDiffuse:   "diffuse",
	KindHeight:    "height",
	KindBlur:      "blur",
	KindNormal:    "normal",
	KindEdge:      "edge",
	KindAO:        "ao",
	KindMetallic:  "metallic",
	KindRoughness: "roughness",
	KindORM:       "orm",
}

// String returns the kind name.
func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Valid reports whether k is a known kernel kind.
func (k Kind) Valid() bool {
	return k < kindCount
}

// Kinds returns every kernel kind in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, kindCount)
	for k := Kind(0); k < kindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}
