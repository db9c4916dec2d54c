package texgen

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/gogpu/texgen/backend/software"
)

// editableParams is a ParamSource tests can change.
type editableParams struct {
	sets map[MapType]ParameterSet
}

func (p *editableParams) Params(t MapType) ParameterSet {
	if s, ok := p.sets[t]; ok {
		return s
	}
	return DefaultParams(t)
}

func TestPlan(t *testing.T) {
	all := func(MapType) bool { return true }
	none := func(MapType) bool { return false }

	tests := []struct {
		name    string
		targets []MapType
		stale   func(MapType) bool
		want    []MapType
	}{
		{"normal from scratch", []MapType{Normal}, all, []MapType{Height, Normal}},
		{"normal with fresh height", []MapType{Normal}, none, []MapType{Normal}},
		{"combined from scratch", []MapType{Combined}, all, []MapType{Diffuse, Height, Normal, Metallic, Roughness, AO, Combined}},
		{"edge and ao", []MapType{Edge, AO}, all, []MapType{Height, Normal, AO, Edge}},
		{"only stale height", []MapType{AO}, func(t MapType) bool { return t == Height }, []MapType{Height, AO}},
		{"unknown ignored", []MapType{MapType(42)}, all, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Plan(tt.targets, tt.stale); !slices.Equal(got, tt.want) {
				t.Errorf("Plan(%v) = %v, want %v", tt.targets, got, tt.want)
			}
		})
	}
}

func newTestWorkspace(t *testing.T, opts ...Option) (*Workspace, *flakyDevice) {
	t.Helper()
	dev := &flakyDevice{Device: software.New()}
	ws := NewWorkspace(newTestPipeline(t, dev), opts...)
	ws.SetSource(checker(8, 8))
	return ws, dev
}

func TestWorkspaceResolvesDependencies(t *testing.T) {
	ws, _ := newTestWorkspace(t)
	ctx := context.Background()

	m, err := ws.Generate(ctx, Normal)
	if err != nil {
		t.Fatalf("Generate(normal): %v", err)
	}
	if m.Type != Normal {
		t.Errorf("Type = %s", m.Type)
	}
	h, ok := ws.Map(Height)
	if !ok {
		t.Fatal("height was not generated as a dependency")
	}
	if m.Inputs[Height] != h.Generation {
		t.Errorf("normal read height generation %d, published %d", m.Inputs[Height], h.Generation)
	}

	// A standalone pipeline call yields the same pixels.
	direct, err := ws.pipe.Synthesize(Normal, Inputs{Maps: map[MapType]*PixelBuffer{Height: h.Pixels}}, DefaultParams(Normal))
	if err != nil {
		t.Fatal(err)
	}
	if !direct.Equal(m.Pixels) {
		t.Error("workspace and pipeline results differ")
	}
}

func TestWorkspaceNoSource(t *testing.T) {
	ws, _ := newTestWorkspace(t)
	ws.SetSource(nil)
	if _, err := ws.Generate(context.Background(), Height); !errors.Is(err, ErrNoSource) {
		t.Errorf("err = %v, want ErrNoSource", err)
	}
	if _, err := ws.GenerateAll(context.Background()); !errors.Is(err, ErrNoSource) {
		t.Errorf("GenerateAll err = %v, want ErrNoSource", err)
	}
}

func TestWorkspaceStaleness(t *testing.T) {
	params := &editableParams{sets: map[MapType]ParameterSet{}}
	ws, _ := newTestWorkspace(t, WithParamSource(params))
	ctx := context.Background()

	if _, err := ws.GenerateAll(ctx); err != nil {
		t.Fatalf("GenerateAll: %v", err)
	}
	for _, mt := range MapTypes() {
		if ws.Stale(mt) {
			t.Errorf("%s stale after GenerateAll", mt)
		}
	}

	// Preview-only edits do not invalidate.
	params.sets[Height], _ = DefaultParams(Height).Set("displacementScale", 0.2)
	if ws.Stale(Height) {
		t.Error("preview-only edit made height stale")
	}

	params.sets[Height], _ = DefaultParams(Height).Set("intensity", 4)
	wantStale := map[MapType]bool{Height: true, Normal: true, Edge: true, AO: true, Roughness: true, Combined: true}
	for _, mt := range MapTypes() {
		if got := ws.Stale(mt); got != wantStale[mt] {
			t.Errorf("after height edit: Stale(%s) = %v, want %v", mt, got, wantStale[mt])
		}
	}

	// Regenerating height alone leaves dependents stale.
	if _, err := ws.Generate(ctx, Height); err != nil {
		t.Fatal(err)
	}
	if ws.Stale(Height) {
		t.Error("height still stale after regeneration")
	}
	if !ws.Stale(Normal) {
		t.Error("normal not stale after height regenerated")
	}

	ws.Clear()
	if !ws.Stale(Diffuse) || len(ws.Maps()) != 0 {
		t.Error("Clear kept maps")
	}
}

func TestWorkspaceKeepsLastGoodMap(t *testing.T) {
	params := &editableParams{sets: map[MapType]ParameterSet{}}
	ws, dev := newTestWorkspace(t, WithParamSource(params))
	ctx := context.Background()

	good, err := ws.Generate(ctx, Normal)
	if err != nil {
		t.Fatal(err)
	}
	params.sets[Normal], _ = DefaultParams(Normal).Set("strength", 9)

	dev.fail.Store(true)
	if _, err := ws.Generate(ctx, Normal); !errors.Is(err, errInjected) {
		t.Fatalf("err = %v, want injected failure", err)
	}
	got, ok := ws.Map(Normal)
	if !ok || got != good {
		t.Error("failed generation replaced the last good normal map")
	}

	dev.fail.Store(false)
	if _, err := ws.Generate(ctx, Normal); err != nil {
		t.Fatalf("Generate after recovery: %v", err)
	}
}

func TestWorkspaceGenerateAllIsolatesFailures(t *testing.T) {
	ws, dev := newTestWorkspace(t)
	ctx := context.Background()
	if _, err := ws.GenerateAll(ctx); err != nil {
		t.Fatal(err)
	}
	before := ws.Maps()

	dev.fail.Store(true)
	out, err := ws.GenerateAll(ctx)
	if err == nil {
		t.Fatal("GenerateAll succeeded on a failing device")
	}
	if len(out) != 0 {
		t.Errorf("GenerateAll returned %d maps", len(out))
	}
	after := ws.Maps()
	if !slices.Equal(before, after) {
		t.Error("failed batch changed published maps")
	}
}

func TestWorkspaceSetSourceInvalidates(t *testing.T) {
	ws, _ := newTestWorkspace(t)
	ctx := context.Background()
	if _, err := ws.Generate(ctx, Diffuse); err != nil {
		t.Fatal(err)
	}
	ws.SetSource(checker(4, 4))
	if _, ok := ws.Map(Diffuse); ok {
		t.Error("SetSource kept generated maps")
	}
	m, err := ws.Generate(ctx, Diffuse)
	if err != nil {
		t.Fatal(err)
	}
	if m.Pixels.Width() != 4 {
		t.Errorf("width = %d, want 4", m.Pixels.Width())
	}
}

func TestWorkspaceResetOnNewSource(t *testing.T) {
	tests := []struct {
		name  string
		reset bool
		want  float64
	}{
		{"kept", false, 7},
		{"reset", true, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tuner := NewTuner()
			opts := []Option{WithParamSource(tuner)}
			if tt.reset {
				opts = append(opts, WithResetOnNewSource())
			}
			ws, _ := newTestWorkspace(t, opts...)
			if err := tuner.SetParameter(Normal, "strength", 7); err != nil {
				t.Fatal(err)
			}

			ws.SetSource(checker(4, 4))
			if got, _ := tuner.Params(Normal).Get("strength"); got != tt.want {
				t.Errorf("strength after new source = %g, want %g", got, tt.want)
			}
			if tt.reset && len(tuner.Pending()) != 0 {
				t.Errorf("pending after reset = %v, want none", tuner.Pending())
			}
		})
	}
}

func TestWorkspaceCanceledContext(t *testing.T) {
	ws, _ := newTestWorkspace(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ws.Generate(ctx, Normal); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
