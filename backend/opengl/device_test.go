//go:build gl

package opengl

import (
	"errors"
	"testing"

	"github.com/gogpu/texgen/backend/software"
	"github.com/gogpu/texgen/kernel"
)

// openOrSkip opens a GL device, skipping where no context can be created.
func openOrSkip(t *testing.T) *Device {
	t.Helper()
	d, err := New()
	if err != nil {
		t.Skipf("no GL context: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func gradient(w, h int) []byte {
	data := make([]byte, w*h*4)
	for y := range h {
		for x := range w {
			i := (y*w + x) * 4
			data[i] = byte(x * 255 / max(1, w-1))
			data[i+1] = byte(y * 255 / max(1, h-1))
			data[i+2] = byte((x + y) * 20)
			data[i+3] = 255
		}
	}
	return data
}

func run(t *testing.T, dev kernel.Device, w, h int, u kernel.Uniforms, inputs ...[]byte) []byte {
	t.Helper()
	rt := kernel.NewRuntime(dev)
	defer rt.Close()

	ids := make([]kernel.TextureID, len(inputs))
	for i, data := range inputs {
		id, err := dev.CreateTexture(w, h, data)
		if err != nil {
			t.Fatal(err)
		}
		defer dev.DestroyTexture(id)
		ids[i] = id
	}
	target, err := dev.CreateRenderTarget(w, h)
	if err != nil {
		t.Fatal(err)
	}
	defer dev.DestroyRenderTarget(target)
	if err := rt.Run(target, ids, u); err != nil {
		t.Fatalf("Run(%s): %v", u.Kind(), err)
	}
	px, err := dev.ReadPixels(target)
	if err != nil {
		t.Fatal(err)
	}
	return px
}

// TestMatchesSoftware compares every kernel with the CPU reference,
// allowing two steps of rounding difference.
func TestMatchesSoftware(t *testing.T) {
	d := openOrSkip(t)
	sw := software.New()
	defer sw.Close()

	const w, h = 8, 6
	res := kernel.Resolution(w, h)
	img := gradient(w, h)
	tests := []struct {
		u      kernel.Uniforms
		inputs [][]byte
	}{
		{&kernel.DiffuseUniforms{Resolution: res, Brightness: 0.1, Contrast: 1.2, Saturation: 0.8, Hue: 0.25}, [][]byte{img}},
		{&kernel.HeightUniforms{Resolution: res, Intensity: 2}, [][]byte{img}},
		{&kernel.BlurUniforms{Resolution: res, Direction: [2]float32{1, 0}, Weights: [4]float32{0.2, 0.1, 0.05, 0.025}, Center: 0.25}, [][]byte{img}},
		{&kernel.NormalUniforms{Resolution: res, Strength: 2, Step: 1}, [][]byte{img}},
		{&kernel.EdgeUniforms{Resolution: res, EdgeStrength: 2, Threshold: 0.1}, [][]byte{img}},
		{&kernel.AOUniforms{Resolution: res, Strength: 1, Spread: 2, Samples: 8}, [][]byte{img, img}},
		{&kernel.MetallicUniforms{Resolution: res, Threshold: 0.5, Smoothness: 0.1}, [][]byte{img}},
		{&kernel.RoughnessUniforms{Resolution: res, BaseRoughness: 0.3, NormalInfluence: 0.5}, [][]byte{img, img}},
		{&kernel.ORMUniforms{Resolution: res}, [][]byte{img, img, img}},
	}
	for _, tt := range tests {
		t.Run(tt.u.Kind().String(), func(t *testing.T) {
			got := run(t, d, w, h, tt.u, tt.inputs...)
			want := run(t, sw, w, h, tt.u, tt.inputs...)
			for i := range got {
				if diff := int(got[i]) - int(want[i]); diff < -2 || diff > 2 {
					t.Fatalf("byte %d: gl %d, software %d", i, got[i], want[i])
				}
			}
		})
	}
	if d.LiveTextures() != 0 || d.LiveTargets() != 0 {
		t.Errorf("leaked %d textures, %d targets", d.LiveTextures(), d.LiveTargets())
	}
}

func TestCompileErrorCarriesLog(t *testing.T) {
	d := openOrSkip(t)
	_, err := d.CompileProgram(kernel.Source{
		Kind:     kernel.KindORM,
		Vertex:   "#version 410 core\nvoid main() {}",
		Fragment: "#version 410 core\nvoid main() { undefined_call(); }",
	})
	var ce *kernel.CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want *kernel.CompileError", err)
	}
	if ce.Stage != "fragment" || ce.Log == "" {
		t.Errorf("Stage %q, Log %q", ce.Stage, ce.Log)
	}
}
