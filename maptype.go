package texgen

import (
	"fmt"
	"strings"
)

// MapType is one of the synthesized texture roles.
type MapType uint8

// Map types, in dependency order: every type's dependencies precede it.
const (
	Diffuse MapType = iota
	Height
	Normal
	Metallic
	Roughness
	AO
	Edge
	Combined

	mapTypeCount
)

var mapTypeNames = [mapTypeCount]string{
	Diffuse:   "diffuse",
	Height:    "height",
	Normal:    "normal",
	Metallic:  "metallic",
	Roughness: "roughness",
	AO:        "ao",
	Edge:      "edge",
	Combined:  "combined",
}

// Upstream generated maps of each type. Diffuse, height and metallic read
// the source image instead.
var mapDeps = [mapTypeCount][]MapType{
	Normal:    {Height},
	Edge:      {Normal},
	AO:        {Normal, Height},
	Roughness: {Diffuse, Normal},
	Combined:  {AO, Roughness, Metallic},
}

var mapNeedsSource = [mapTypeCount]bool{
	Diffuse:  true,
	Height:   true,
	Metallic: true,
}

func (t MapType) String() string {
	if t < mapTypeCount {
		return mapTypeNames[t]
	}
	return fmt.Sprintf("MapType(%d)", uint8(t))
}

// Valid reports whether t is a known map type.
func (t MapType) Valid() bool {
	return t < mapTypeCount
}

// ParseMapType parses a map type name, case-insensitively.
// "orm" is accepted for Combined.
func ParseMapType(s string) (MapType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "orm" {
		return Combined, nil
	}
	for t, name := range mapTypeNames {
		if name == s {
			return MapType(t), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMapType, s)
}

// MapTypes returns every map type in dependency order.
func MapTypes() []MapType {
	types := make([]MapType, 0, mapTypeCount)
	for t := MapType(0); t < mapTypeCount; t++ {
		types = append(types, t)
	}
	return types
}

// Dependencies returns the generated maps t reads, in sampler order.
func (t MapType) Dependencies() []MapType {
	if !t.Valid() {
		return nil
	}
	return append([]MapType(nil), mapDeps[t]...)
}

// NeedsSource reports whether t reads the source image.
func (t MapType) NeedsSource() bool {
	return t.Valid() && mapNeedsSource[t]
}

// Dependents returns the map types that read t directly.
func (t MapType) Dependents() []MapType {
	var out []MapType
	for d := MapType(0); d < mapTypeCount; d++ {
		for _, dep := range mapDeps[d] {
			if dep == t {
				out = append(out, d)
			}
		}
	}
	return out
}
