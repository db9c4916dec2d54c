package texgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// GeneratedMap is a finished map together with what produced it.
// A GeneratedMap is never modified after a Workspace publishes it; callers
// must not modify Pixels.
type GeneratedMap struct {
	Type   MapType
	Pixels *PixelBuffer
	// Params are the parameters the map was synthesized with.
	Params ParameterSet
	// Generation increases with every map the workspace publishes.
	Generation uint64
	// Inputs holds the Generation of each upstream map that was read.
	Inputs map[MapType]uint64
	// Duration is the synthesis time.
	Duration time.Duration
}

// ParamSource supplies the current parameters of a map type.
type ParamSource interface {
	Params(t MapType) ParameterSet
}

// paramResetter is a ParamSource that can restore its defaults.
type paramResetter interface {
	ResetAll()
}

type defaultParamSource struct{}

func (defaultParamSource) Params(t MapType) ParameterSet { return DefaultParams(t) }

// Workspace holds one source image and the maps generated from it, and
// resolves dependencies before synthesis: generating a map first generates
// every upstream map that is missing or stale.
//
// A failed generation leaves the previously published map of every type
// in place. Generation calls are serialized.
type Workspace struct {
	pipe          *Pipeline
	params        ParamSource
	resetOnSource bool
	clock         Clock
	log           *slog.Logger
	sem           *semaphore.Weighted

	mu        sync.RWMutex
	source    *PixelBuffer
	sourceGen uint64
	gen       uint64
	maps      [mapTypeCount]*GeneratedMap
}

// NewWorkspace creates an empty workspace that synthesizes with pipe.
// Parameters come from the WithParamSource option, or are the defaults.
func NewWorkspace(pipe *Pipeline, opts ...Option) *Workspace {
	o := buildOptions(opts)
	return &Workspace{
		pipe:          pipe,
		params:        o.params,
		resetOnSource: o.resetOnSource,
		clock:         o.clock,
		log:           o.log(),
		sem:           semaphore.NewWeighted(1),
	}
}

// SetSource replaces the source image and drops every generated map.
// With WithResetOnNewSource it also restores the param source's defaults.
func (w *Workspace) SetSource(src *PixelBuffer) {
	w.mu.Lock()
	w.source = src
	w.sourceGen++
	w.maps = [mapTypeCount]*GeneratedMap{}
	w.mu.Unlock()

	if src == nil {
		return
	}
	w.log.Info("texgen: source set", "width", src.Width(), "height", src.Height())
	if r, ok := w.params.(paramResetter); ok && w.resetOnSource {
		r.ResetAll()
	}
}

// LoadSource decodes the image at path and makes it the source.
func (w *Workspace) LoadSource(path string, opts ...LoadOption) error {
	src, err := LoadSource(path, opts...)
	if err != nil {
		return err
	}
	w.SetSource(src)
	return nil
}

// Source returns the current source image, or nil.
func (w *Workspace) Source() *PixelBuffer {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.source
}

// Map returns the last published map of type t.
func (w *Workspace) Map(t MapType) (*GeneratedMap, bool) {
	if !t.Valid() {
		return nil, false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	m := w.maps[t]
	return m, m != nil
}

// Maps returns every published map in dependency order.
func (w *Workspace) Maps() []*GeneratedMap {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var out []*GeneratedMap
	for _, m := range w.maps {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

// Clear drops every generated map and keeps the source.
func (w *Workspace) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.maps = [mapTypeCount]*GeneratedMap{}
}

// Stale reports whether the map of type t is missing or out of date: its
// parameters differ from the current ones (preview-only parameters
// excepted), an upstream map was regenerated after it, or an upstream map
// is itself stale.
func (w *Workspace) Stale(t MapType) bool {
	if !t.Valid() {
		return false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.staleLocked(t)
}

func (w *Workspace) staleLocked(t MapType) bool {
	m := w.maps[t]
	if m == nil {
		return true
	}
	if !sameEffectiveParams(m.Params, w.params.Params(t)) {
		return true
	}
	for _, d := range mapDeps[t] {
		dm := w.maps[d]
		if dm == nil || dm.Generation != m.Inputs[d] || w.staleLocked(d) {
			return true
		}
	}
	return false
}

// sameEffectiveParams compares two sets ignoring preview-only parameters.
func sameEffectiveParams(a, b ParameterSet) bool {
	if a.Type() != b.Type() {
		return false
	}
	for _, s := range schemas[a.Type()] {
		if s.PreviewOnly {
			continue
		}
		av, _ := a.Get(s.Name)
		bv, _ := b.Get(s.Name)
		if av != bv {
			return false
		}
	}
	return true
}

// Generate synthesizes the map of type t, first generating every upstream
// map that is missing or stale, in dependency order. On failure the
// maps generated before the failing step stay published.
func (w *Workspace) Generate(ctx context.Context, t MapType) (*GeneratedMap, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMapType, uint8(t))
	}
	if err := w.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer w.sem.Release(1)

	if w.Source() == nil {
		return nil, ErrNoSource
	}

	w.mu.RLock()
	plan := Plan([]MapType{t}, w.staleLocked)
	w.mu.RUnlock()
	if len(plan) > 1 {
		w.log.Debug("texgen: resolved dependencies", "map", t, "plan", plan)
	}

	var out *GeneratedMap
	for _, step := range plan {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m, err := w.generateOne(step)
		if err != nil {
			return nil, err
		}
		out = m
	}
	return out, nil
}

// Regenerate is Generate without the result. It lets a Tuner drive the
// workspace.
func (w *Workspace) Regenerate(ctx context.Context, t MapType) error {
	_, err := w.Generate(ctx, t)
	return err
}

// GenerateAll synthesizes every map type in dependency order. A failure
// does not stop the batch; maps downstream of a failed one use its last
// published version when there is one. The returned error joins every
// failure.
func (w *Workspace) GenerateAll(ctx context.Context) ([]*GeneratedMap, error) {
	if err := w.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer w.sem.Release(1)

	if w.Source() == nil {
		return nil, ErrNoSource
	}

	start := w.clock.Now()
	var (
		out  []*GeneratedMap
		errs []error
	)
	for _, t := range MapTypes() {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		m, err := w.generateOne(t)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, m)
	}
	w.log.Info("texgen: batch finished", "generated", len(out), "failed", len(errs),
		"duration", w.clock.Now().Sub(start))
	return out, errors.Join(errs...)
}

// generateOne synthesizes t from the current source and published maps
// and publishes the result. The caller holds the semaphore.
func (w *Workspace) generateOne(t MapType) (*GeneratedMap, error) {
	w.mu.RLock()
	srcGen := w.sourceGen
	in := Inputs{Source: w.source, Maps: make(map[MapType]*PixelBuffer, len(mapDeps[t]))}
	used := make(map[MapType]uint64, len(mapDeps[t]))
	for _, d := range mapDeps[t] {
		if m := w.maps[d]; m != nil {
			in.Maps[d] = m.Pixels
			used[d] = m.Generation
		}
	}
	w.mu.RUnlock()

	params := w.params.Params(t)
	start := w.clock.Now()
	pix, err := w.pipe.Synthesize(t, in, params)
	if err != nil {
		w.log.Warn("texgen: generation failed", "map", t, "err", err)
		return nil, err
	}
	elapsed := w.clock.Now().Sub(start)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.sourceGen != srcGen {
		return nil, fmt.Errorf("texgen: generate %s: %w", t, ErrSourceReplaced)
	}
	w.gen++
	m := &GeneratedMap{
		Type:       t,
		Pixels:     pix,
		Params:     params,
		Generation: w.gen,
		Inputs:     used,
		Duration:   elapsed,
	}
	w.maps[t] = m
	w.log.Info("texgen: map generated", "map", t, "generation", m.Generation, "duration", elapsed)
	return m, nil
}
