package resource

import (
	"errors"
	"testing"

	"github.com/gogpu/texgen/kernel"
)

type countingDevice struct {
	next         uint64
	destroyedTex []kernel.TextureID
	destroyedTgt []kernel.TargetID
	failAlloc    bool
	order        []uint64
	maxDim       int
}

func (d *countingDevice) Name() string                    { return "counting" }
func (d *countingDevice) Dialect() kernel.Dialect         { return kernel.DialectNone }
func (d *countingDevice) Limits() kernel.Limits           { return kernel.Limits{MaxDimension: d.maxDim} }
func (d *countingDevice) DestroyProgram(kernel.ProgramID) {}
func (d *countingDevice) Close() error                    { return nil }

func (d *countingDevice) CompileProgram(kernel.Source) (kernel.ProgramID, error) { return 1, nil }

func (d *countingDevice) CreateTexture(w, h int, rgba []byte) (kernel.TextureID, error) {
	if d.failAlloc {
		return 0, errors.New("out of memory")
	}
	d.next++
	return kernel.TextureID(d.next), nil
}

func (d *countingDevice) DestroyTexture(id kernel.TextureID) {
	d.destroyedTex = append(d.destroyedTex, id)
	d.order = append(d.order, uint64(id))
}

func (d *countingDevice) CreateRenderTarget(w, h int) (kernel.TargetID, error) {
	if d.failAlloc {
		return 0, errors.New("out of memory")
	}
	d.next++
	return kernel.TargetID(d.next), nil
}

func (d *countingDevice) DestroyRenderTarget(id kernel.TargetID) {
	d.destroyedTgt = append(d.destroyedTgt, id)
	d.order = append(d.order, uint64(id))
}

func (d *countingDevice) Draw(kernel.ProgramID, kernel.TargetID, kernel.Bindings) error { return nil }

func (d *countingDevice) ReadPixels(kernel.TargetID) ([]byte, error) {
	return make([]byte, 2*2*4), nil
}

func TestDoubleDestroy(t *testing.T) {
	dev := &countingDevice{}
	m := NewManager(dev)

	tex, err := m.CreateTexture(2, 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Destroy(tex); err != nil {
		t.Fatalf("first Destroy: %v", err)
	}
	if err := m.Destroy(tex); !errors.Is(err, ErrReleased) {
		t.Errorf("second Destroy = %v, want ErrReleased", err)
	}
	if len(dev.destroyedTex) != 1 {
		t.Errorf("device destroyed %d textures, want 1", len(dev.destroyedTex))
	}
	if s := m.Stats(); s.Created != 1 || s.Destroyed != 1 || s.Live() != 0 {
		t.Errorf("Stats = %+v", s)
	}
}

func TestTextureAndTargetIDsDoNotCollide(t *testing.T) {
	dev := &countingDevice{}
	m := NewManager(dev)
	tex := Texture{ID: 1, Width: 1, Height: 1}
	tgt := Target{ID: 1, Width: 1, Height: 1}
	m.track(tex.key())
	m.track(tgt.key())
	if err := m.Destroy(tex); err != nil {
		t.Fatal(err)
	}
	if err := m.Destroy(tgt); err != nil {
		t.Errorf("Destroy target with same ID = %v", err)
	}
}

func TestScopeClosesInReverseOrder(t *testing.T) {
	dev := &countingDevice{}
	m := NewManager(dev)
	s := m.Scope()

	if _, err := s.Texture(2, 2, make([]byte, 16)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Target(2, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Texture(2, 2, nil); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 3 {
		t.Fatalf("Len = %d, want 3", s.Len())
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	want := []uint64{3, 2, 1}
	if len(dev.order) != len(want) {
		t.Fatalf("destroy order = %v, want %v", dev.order, want)
	}
	for i := range want {
		if dev.order[i] != want[i] {
			t.Fatalf("destroy order = %v, want %v", dev.order, want)
		}
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
	if live := m.Stats().Live(); live != 0 {
		t.Errorf("Live = %d, want 0", live)
	}
}

func TestScopeSkipsHandlesReleasedEarly(t *testing.T) {
	dev := &countingDevice{}
	m := NewManager(dev)
	s := m.Scope()
	tgt, _ := s.Target(2, 2)
	if err := m.Destroy(tgt); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close = %v", err)
	}
	if len(dev.destroyedTgt) != 1 {
		t.Errorf("device destroyed %d targets, want 1", len(dev.destroyedTgt))
	}
}

func TestSizeLimits(t *testing.T) {
	dev := &countingDevice{maxDim: 64}
	m := NewManager(dev, WithMaxDimension(32))
	if m.MaxDimension() != 32 {
		t.Errorf("MaxDimension = %d, want 32", m.MaxDimension())
	}

	tests := []struct {
		name string
		w, h int
		data []byte
		want error
	}{
		{"too wide", 33, 1, nil, ErrExhausted},
		{"too tall", 1, 33, nil, ErrExhausted},
		{"zero", 0, 4, nil, ErrInvalidSize},
		{"short data", 2, 2, make([]byte, 3), ErrInvalidSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.CreateTexture(tt.w, tt.h, tt.data); !errors.Is(err, tt.want) {
				t.Errorf("CreateTexture = %v, want %v", err, tt.want)
			}
		})
	}
	if s := m.Stats(); s.Created != 0 {
		t.Errorf("Created = %d after rejected allocations", s.Created)
	}
}

func TestDeviceAllocationFailure(t *testing.T) {
	dev := &countingDevice{failAlloc: true}
	m := NewManager(dev)
	if _, err := m.CreateRenderTarget(4, 4); !errors.Is(err, ErrExhausted) {
		t.Errorf("CreateRenderTarget = %v, want ErrExhausted", err)
	}
	if s := m.Stats(); s.Created != 0 {
		t.Errorf("Created = %d, want 0", s.Created)
	}
}

func TestReadPixelsAfterDestroy(t *testing.T) {
	m := NewManager(&countingDevice{})
	tgt, err := m.CreateRenderTarget(2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.ReadPixels(tgt); err != nil {
		t.Fatalf("ReadPixels: %v", err)
	}
	_ = m.Destroy(tgt)
	if _, err := m.ReadPixels(tgt); !errors.Is(err, ErrReleased) {
		t.Errorf("ReadPixels after Destroy = %v, want ErrReleased", err)
	}
}
