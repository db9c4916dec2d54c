package texgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// PreviewSink receives preview-only parameter values, which are applied
// directly by a preview viewport and never cause regeneration.
type PreviewSink interface {
	SetPreview(t MapType, name string, v float64)
}

// Regenerator regenerates one map type. *Workspace implements it.
type Regenerator interface {
	Regenerate(ctx context.Context, t MapType) error
}

// Clock is the tuner's time source.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Tuner owns the parameters of every map type and debounces edits: each
// edit of a regenerating parameter moves the map type's deadline to now
// plus the quiescence window, and Poll fires regeneration for deadlines
// that have passed. Only the last edit within a window is acted on.
//
// Regeneration does not cascade to dependent map types; callers decide
// whether to regenerate those (Workspace.Stale reports them).
type Tuner struct {
	window  time.Duration
	clock   Clock
	preview PreviewSink
	log     *slog.Logger

	mu        sync.Mutex
	params    [mapTypeCount]ParameterSet
	deadlines [mapTypeCount]time.Time
}

// NewTuner creates a tuner holding default parameters for every map type.
func NewTuner(opts ...Option) *Tuner {
	o := buildOptions(opts)
	t := &Tuner{
		window:  o.debounce,
		clock:   o.clock,
		preview: o.preview,
		log:     o.log(),
	}
	for mt := range mapTypeCount {
		t.params[mt] = DefaultParams(mt)
	}
	return t
}

// Window returns the quiescence window.
func (t *Tuner) Window() time.Duration { return t.window }

// Params returns the current parameters of mt.
func (t *Tuner) Params(mt MapType) ParameterSet {
	if !mt.Valid() {
		return DefaultParams(mt)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.params[mt]
}

// SetParameter assigns one parameter. Preview-only parameters go to the
// preview sink; all others schedule regeneration of mt.
func (t *Tuner) SetParameter(mt MapType, name string, v float64) error {
	if !mt.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownMapType, uint8(mt))
	}
	t.mu.Lock()
	next, err := t.params[mt].Set(name, v)
	if err != nil {
		t.mu.Unlock()
		return err
	}
	t.params[mt] = next
	spec, _ := LookupParam(mt, name)
	if !spec.PreviewOnly {
		t.scheduleLocked(mt)
	}
	t.mu.Unlock()

	if spec.PreviewOnly {
		t.pushPreview(mt, name, v)
	}
	return nil
}

// SetOption selects a named option of a select parameter, such as the
// normal map's "type".
func (t *Tuner) SetOption(mt MapType, name, option string) error {
	spec, ok := LookupParam(mt, name)
	if !ok {
		return &ParamError{Type: mt, Name: name, Err: ErrUnknownParameter}
	}
	i, ok := spec.OptionIndex(option)
	if !ok {
		return &ParamError{Type: mt, Name: name,
			Err: fmt.Errorf("%w: option %q not in %v", ErrOutOfRange, option, spec.Options)}
	}
	return t.SetParameter(mt, name, float64(i))
}

// ResetToDefaults restores mt's defaults and schedules its regeneration.
func (t *Tuner) ResetToDefaults(mt MapType) error {
	if !mt.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownMapType, uint8(mt))
	}
	t.mu.Lock()
	t.params[mt] = DefaultParams(mt)
	t.scheduleLocked(mt)
	t.mu.Unlock()

	t.pushPreviewDefaults(mt)
	return nil
}

// ResetAll restores every default and cancels pending regeneration.
func (t *Tuner) ResetAll() {
	t.mu.Lock()
	for mt := range mapTypeCount {
		t.params[mt] = DefaultParams(mt)
		t.deadlines[mt] = time.Time{}
	}
	t.mu.Unlock()

	for mt := range mapTypeCount {
		t.pushPreviewDefaults(mt)
	}
	t.log.Debug("texgen: parameters reset")
}

func (t *Tuner) scheduleLocked(mt MapType) {
	t.deadlines[mt] = t.clock.Now().Add(t.window)
}

func (t *Tuner) pushPreview(mt MapType, name string, v float64) {
	if t.preview != nil {
		t.preview.SetPreview(mt, name, v)
	}
}

func (t *Tuner) pushPreviewDefaults(mt MapType) {
	for _, s := range schemas[mt] {
		if s.PreviewOnly {
			t.pushPreview(mt, s.Name, s.Default)
		}
	}
}

// Deadline returns when mt's pending regeneration fires.
func (t *Tuner) Deadline(mt MapType) (time.Time, bool) {
	if !mt.Valid() {
		return time.Time{}, false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	d := t.deadlines[mt]
	return d, !d.IsZero()
}

// Pending returns the map types with a scheduled regeneration.
func (t *Tuner) Pending() []MapType {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []MapType
	for mt, d := range t.deadlines {
		if !d.IsZero() {
			out = append(out, MapType(mt))
		}
	}
	return out
}

// Cancel drops mt's pending regeneration.
func (t *Tuner) Cancel(mt MapType) {
	if !mt.Valid() {
		return
	}
	t.mu.Lock()
	t.deadlines[mt] = time.Time{}
	t.mu.Unlock()
}

// Poll regenerates every map type whose deadline is at or before now and
// returns those types in dependency order. Deadlines are cleared before r
// runs, so an edit made during regeneration schedules a new one.
func (t *Tuner) Poll(ctx context.Context, now time.Time, r Regenerator) ([]MapType, error) {
	t.mu.Lock()
	var due []MapType
	for mt, d := range t.deadlines {
		if !d.IsZero() && !now.Before(d) {
			due = append(due, MapType(mt))
			t.deadlines[mt] = time.Time{}
		}
	}
	t.mu.Unlock()

	var errs []error
	for _, mt := range due {
		if err := r.Regenerate(ctx, mt); err != nil {
			errs = append(errs, fmt.Errorf("texgen: regenerate %s: %w", mt, err))
		}
	}
	return due, errors.Join(errs...)
}

// Run polls until ctx is done, checking deadlines several times per
// window. Regeneration failures are logged and do not stop the loop.
func (t *Tuner) Run(ctx context.Context, r Regenerator) error {
	interval := t.window / 5
	if interval < time.Millisecond {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			fired, err := t.Poll(ctx, t.clock.Now(), r)
			if err != nil {
				t.log.Warn("texgen: regeneration failed", "maps", fired, "err", err)
			}
		}
	}
}
