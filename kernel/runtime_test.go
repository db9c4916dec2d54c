package kernel

import (
	"errors"
	"testing"
)

type fakeDevice struct {
	dialect   Dialect
	compiles  map[Kind]int
	failKinds map[Kind]bool
	destroyed []ProgramID
	draws     int
	next      uint64
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{compiles: make(map[Kind]int), failKinds: make(map[Kind]bool)}
}

func (d *fakeDevice) Name() string     { return "fake" }
func (d *fakeDevice) Dialect() Dialect { return d.dialect }
func (d *fakeDevice) Limits() Limits   { return Limits{MaxDimension: 16} }

func (d *fakeDevice) CompileProgram(src Source) (ProgramID, error) {
	d.compiles[src.Kind]++
	if d.failKinds[src.Kind] {
		return 0, &CompileError{Kind: src.Kind, Stage: "fragment", Log: "0:1: syntax error"}
	}
	d.next++
	return ProgramID(d.next), nil
}

func (d *fakeDevice) DestroyProgram(id ProgramID) { d.destroyed = append(d.destroyed, id) }

func (d *fakeDevice) CreateTexture(w, h int, rgba []byte) (TextureID, error) {
	d.next++
	return TextureID(d.next), nil
}

func (d *fakeDevice) DestroyTexture(TextureID) {}

func (d *fakeDevice) CreateRenderTarget(w, h int) (TargetID, error) {
	d.next++
	return TargetID(d.next), nil
}

func (d *fakeDevice) DestroyRenderTarget(TargetID) {}

func (d *fakeDevice) Draw(ProgramID, TargetID, Bindings) error {
	d.draws++
	return nil
}

func (d *fakeDevice) ReadPixels(TargetID) ([]byte, error) { return nil, nil }
func (d *fakeDevice) Close() error                        { return nil }

func TestRuntimeCompilesOncePerKind(t *testing.T) {
	dev := newFakeDevice()
	rt := NewRuntime(dev)
	defer rt.Close()

	u := &ORMUniforms{Resolution: Resolution(1, 1)}
	for i := 0; i < 3; i++ {
		if err := rt.Run(1, []TextureID{1, 2, 3}, u); err != nil {
			t.Fatalf("Run #%d: %v", i, err)
		}
	}
	if got := dev.compiles[KindORM]; got != 1 {
		t.Errorf("compiles = %d, want 1", got)
	}
	if dev.draws != 3 {
		t.Errorf("draws = %d, want 3", dev.draws)
	}
}

func TestRuntimeCachesCompileFailure(t *testing.T) {
	dev := newFakeDevice()
	dev.failKinds[KindEdge] = true
	rt := NewRuntime(dev)
	defer rt.Close()

	u := &EdgeUniforms{Resolution: Resolution(1, 1)}
	for i := 0; i < 2; i++ {
		err := rt.Run(1, []TextureID{1}, u)
		var ce *CompileError
		if !errors.As(err, &ce) {
			t.Fatalf("Run #%d = %v, want CompileError", i, err)
		}
		if ce.Log == "" {
			t.Error("CompileError has no diagnostic")
		}
	}
	if got := dev.compiles[KindEdge]; got != 1 {
		t.Errorf("compiles = %d, want 1", got)
	}
	if dev.draws != 0 {
		t.Errorf("draws = %d, want 0", dev.draws)
	}
}

func TestRuntimeRejectsMismatchBeforeDraw(t *testing.T) {
	dev := newFakeDevice()
	rt := NewRuntime(dev)
	defer rt.Close()

	err := rt.Run(1, []TextureID{1}, &AOUniforms{})
	if !errors.Is(err, ErrUniformMismatch) {
		t.Fatalf("Run = %v, want ErrUniformMismatch", err)
	}
	if dev.draws != 0 || len(dev.compiles) != 0 {
		t.Errorf("device touched: draws=%d compiles=%v", dev.draws, dev.compiles)
	}
}

func TestRuntimeCompileWrapsPlainErrors(t *testing.T) {
	rt := NewRuntime(&plainFailDevice{newFakeDevice()})
	_, err := rt.Compile(KindHeight, "", "")
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("Compile = %v, want CompileError", err)
	}
	if ce.Kind != KindHeight {
		t.Errorf("Kind = %s, want height", ce.Kind)
	}
}

type plainFailDevice struct{ *fakeDevice }

func (plainFailDevice) CompileProgram(Source) (ProgramID, error) {
	return 0, errors.New("driver rejected program")
}

func TestRuntimeClose(t *testing.T) {
	dev := newFakeDevice()
	rt := NewRuntime(dev)
	for _, k := range []Kind{KindHeight, KindNormal} {
		if _, err := rt.Program(k); err != nil {
			t.Fatal(err)
		}
	}
	if err := rt.Close(); err != nil {
		t.Fatal(err)
	}
	if len(dev.destroyed) != 2 {
		t.Errorf("destroyed %d programs, want 2", len(dev.destroyed))
	}
	if _, err := rt.Program(KindHeight); !errors.Is(err, ErrClosed) {
		t.Errorf("Program after Close = %v, want ErrClosed", err)
	}
	if err := rt.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
}

func TestInitErrorIs(t *testing.T) {
	err := error(&InitError{Backend: "wgpu", Err: errors.New("no adapters")})
	if !errors.Is(err, ErrDeviceUnavailable) {
		t.Error("InitError does not match ErrDeviceUnavailable")
	}
}
