package texgen

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/texgen/kernel"
	"github.com/gogpu/texgen/resource"
)

// Inputs are the images a synthesis call reads.
type Inputs struct {
	// Source is the uploaded colour image.
	Source *PixelBuffer
	// Maps holds previously generated maps by type.
	Maps map[MapType]*PixelBuffer
}

// Pipeline turns inputs and parameters into map pixels on one device.
// Calls are serialized; every device resource a call allocates is released
// before it returns.
type Pipeline struct {
	dev kernel.Device
	rt  *kernel.Runtime
	res *resource.Manager
	log *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewPipeline creates a pipeline on dev. The caller keeps ownership of
// dev and must close it after the pipeline.
func NewPipeline(dev kernel.Device, opts ...Option) *Pipeline {
	o := buildOptions(opts)
	var resOpts []resource.Option
	if o.maxDim > 0 {
		resOpts = append(resOpts, resource.WithMaxDimension(o.maxDim))
	}
	attachDevice(dev)
	p := &Pipeline{
		dev: dev,
		rt:  kernel.NewRuntime(dev),
		res: resource.NewManager(dev, resOpts...),
		log: o.log(),
	}
	p.log.Info("texgen: pipeline ready", "device", dev.Name(), "dialect", dev.Dialect())
	return p
}

// Device returns the pipeline's device.
func (p *Pipeline) Device() kernel.Device {
	return p.dev
}

// Stats returns the resource counters of the pipeline's device allocations.
func (p *Pipeline) Stats() resource.Stats {
	return p.res.Stats()
}

// Close releases the compiled kernels. The device stays open.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	detachDevice(p.dev)
	return p.rt.Close()
}

// Synthesize produces the map of type t from in using params.
//
// It fails with *MissingDependencyError when in lacks the source image or
// an upstream map t reads; nothing runs on the device in that case.
func (p *Pipeline) Synthesize(t MapType, in Inputs, params ParameterSet) (out *PixelBuffer, err error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMapType, uint8(t))
	}
	if params.Type() != t {
		return nil, fmt.Errorf("texgen: %s parameters passed to %s synthesis", params.Type(), t)
	}
	w, h, err := checkInputs(t, in)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrClosed
	}

	scope := p.res.Scope()
	defer func() {
		if cerr := scope.Close(); cerr != nil {
			p.log.Warn("texgen: release failed", "map", t, "err", cerr)
			if err == nil {
				out, err = nil, cerr
			}
		}
	}()

	out, err = p.synthesize(scope, t, w, h, in, params)
	if err != nil {
		return nil, fmt.Errorf("texgen: synthesize %s: %w", t, err)
	}
	return out, nil
}

// checkInputs verifies that every input t reads is present and that all
// share one size.
func checkInputs(t MapType, in Inputs) (w, h int, err error) {
	missing := &MissingDependencyError{Type: t}
	var ref *PixelBuffer
	if t.NeedsSource() {
		if in.Source == nil {
			missing.NeedSource = true
		} else {
			ref = in.Source
		}
	}
	for _, d := range mapDeps[t] {
		m := in.Maps[d]
		if m == nil {
			missing.Missing = append(missing.Missing, d)
			continue
		}
		if ref == nil {
			ref = m
		} else if !ref.SameSize(m) {
			return 0, 0, fmt.Errorf("%w: %s map is %dx%d, want %dx%d",
				ErrDimensionMismatch, d, m.Width(), m.Height(), ref.Width(), ref.Height())
		}
	}
	if missing.NeedSource || len(missing.Missing) > 0 {
		return 0, 0, missing
	}
	return ref.Width(), ref.Height(), nil
}

// pass uploads inputs, runs one kernel into a fresh target and reads the
// result back. All allocations belong to scope.
func (p *Pipeline) pass(scope *resource.Scope, w, h int, u kernel.Uniforms, inputs ...*PixelBuffer) (*PixelBuffer, error) {
	ids := make([]kernel.TextureID, len(inputs))
	for i, in := range inputs {
		tex, err := scope.Texture(w, h, in.Data())
		if err != nil {
			return nil, err
		}
		ids[i] = tex.ID
	}
	target, err := scope.Target(w, h)
	if err != nil {
		return nil, err
	}
	if err := p.rt.Run(target.ID, ids, u); err != nil {
		return nil, err
	}
	data, err := scope.ReadPixels(target)
	if err != nil {
		return nil, err
	}
	p.log.Debug("texgen: pass", "kernel", u.Kind(), "width", w, "height", h, "live", scope.Len())
	return PixelBufferFrom(w, h, data)
}

// IsDeviceError reports whether err came from the kernel runtime or the
// device rather than from invalid inputs.
func IsDeviceError(err error) bool {
	var ce *kernel.CompileError
	return errors.As(err, &ce) ||
		errors.Is(err, kernel.ErrDeviceUnavailable) ||
		errors.Is(err, resource.ErrExhausted)
}
