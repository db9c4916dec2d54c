package kernel

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func allUniforms() []Uniforms {
	res := Resolution(4, 4)
	return []Uniforms{
		&DiffuseUniforms{Resolution: res, Contrast: 1, Saturation: 1},
		&HeightUniforms{Resolution: res, Intensity: 2, BlurWeights: [4]float32{0.15, 0.19, 0.24, 0.42}},
		&BlurUniforms{Resolution: res, Direction: [2]float32{1, 0}, Center: 1},
		&NormalUniforms{Resolution: res, Strength: 2, Step: 1},
		&EdgeUniforms{Resolution: res, EdgeStrength: 2, Threshold: 0.1},
		&AOUniforms{Resolution: res, Strength: 1, Spread: 3, Samples: 16},
		&MetallicUniforms{Resolution: res, Threshold: 0.5, Smoothness: 0.1},
		&RoughnessUniforms{Resolution: res, BaseRoughness: 0.3, NormalInfluence: 0.5},
		&ORMUniforms{Resolution: res},
	}
}

func TestUniformsMatchDeclarations(t *testing.T) {
	seen := make(map[Kind]bool)
	for _, u := range allUniforms() {
		t.Run(u.Kind().String(), func(t *testing.T) {
			d, err := Lookup(u.Kind())
			if err != nil {
				t.Fatalf("Lookup: %v", err)
			}
			if err := d.Check(u, len(d.Samplers)); err != nil {
				t.Errorf("Check: %v", err)
			}
			if d.Uniforms[0] != resolutionDecl {
				t.Errorf("first uniform = %v, want resolution", d.Uniforms[0])
			}
		})
		seen[u.Kind()] = true
	}
	for _, k := range Kinds() {
		if !seen[k] {
			t.Errorf("kind %s has no uniform struct", k)
		}
	}
}

func TestCheckRejects(t *testing.T) {
	d, _ := Lookup(KindNormal)
	tests := []struct {
		name     string
		u        Uniforms
		textures int
	}{
		{"nil", nil, 1},
		{"wrong kind", &EdgeUniforms{}, 1},
		{"wrong texture count", &NormalUniforms{}, 2},
		{"nan", &NormalUniforms{Strength: float32(math.NaN())}, 1},
		{"inf", &NormalUniforms{Step: float32(math.Inf(1))}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := d.Check(tt.u, tt.textures)
			if !errors.Is(err, ErrUniformMismatch) {
				t.Errorf("Check() = %v, want ErrUniformMismatch", err)
			}
		})
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, err := Lookup(kindCount); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("Lookup(kindCount) = %v, want ErrUnknownKind", err)
	}
}

func TestLayout(t *testing.T) {
	tests := []struct {
		kind    Kind
		offsets []int
		size    int
	}{
		{KindORM, []int{0}, 16},
		{KindAO, []int{0, 8, 12, 16}, 32},
		{KindHeight, []int{0, 8, 16}, 32},
		{KindBlur, []int{0, 8, 16, 32}, 48},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			d, _ := Lookup(tt.kind)
			offsets, size := d.Layout()
			if size != tt.size {
				t.Errorf("size = %d, want %d", size, tt.size)
			}
			if len(offsets) != len(tt.offsets) {
				t.Fatalf("offsets = %v, want %v", offsets, tt.offsets)
			}
			for i := range offsets {
				if offsets[i] != tt.offsets[i] {
					t.Errorf("offsets = %v, want %v", offsets, tt.offsets)
					break
				}
			}
		})
	}
}

func TestEncode(t *testing.T) {
	d, _ := Lookup(KindBlur)
	u := &BlurUniforms{
		Resolution: Resolution(64, 32),
		Direction:  [2]float32{0, 1},
		Weights:    [4]float32{0.1, 0.2, 0.3, 0.4},
		Center:     0.5,
	}
	buf := d.Encode(u)
	if len(buf) != 48 {
		t.Fatalf("len = %d, want 48", len(buf))
	}
	at := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
	}
	checks := map[int]float32{0: 64, 4: 32, 8: 0, 12: 1, 16: 0.1, 28: 0.4, 32: 0.5}
	for off, want := range checks {
		if got := at(off); got != want {
			t.Errorf("float at %d = %v, want %v", off, got, want)
		}
	}
}
