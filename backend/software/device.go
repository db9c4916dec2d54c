package software

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/texgen/kernel"
)

// DefaultMaxDimension is the largest texture width or height.
const DefaultMaxDimension = 16384

// Device executes kernels on the CPU. It is not safe for concurrent use.
type Device struct {
	next     uint64
	programs map[kernel.ProgramID]kernel.Kind
	textures map[kernel.TextureID]*surface
	targets  map[kernel.TargetID]*surface
	closed   bool

	logger atomic.Pointer[slog.Logger]
}

// New creates a software device.
func New() *Device {
	d := &Device{
		programs: make(map[kernel.ProgramID]kernel.Kind),
		textures: make(map[kernel.TextureID]*surface),
		targets:  make(map[kernel.TargetID]*surface),
	}
	d.logger.Store(slog.New(slog.DiscardHandler))
	return d
}

// SetLogger sets the logger for draw diagnostics.
func (d *Device) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	d.logger.Store(l)
}

func (d *Device) Name() string { return "software" }

func (d *Device) Dialect() kernel.Dialect { return kernel.DialectNone }

func (d *Device) Limits() kernel.Limits {
	return kernel.Limits{MaxDimension: DefaultMaxDimension}
}

func (d *Device) id() uint64 {
	d.next++
	return d.next
}

// CompileProgram binds a kernel kind. Source text is ignored.
func (d *Device) CompileProgram(src kernel.Source) (kernel.ProgramID, error) {
	if d.closed {
		return 0, kernel.ErrClosed
	}
	if !src.Kind.Valid() {
		return 0, &kernel.CompileError{Kind: src.Kind, Stage: "link", Err: kernel.ErrUnknownKind}
	}
	id := kernel.ProgramID(d.id())
	d.programs[id] = src.Kind
	return id, nil
}

func (d *Device) DestroyProgram(id kernel.ProgramID) {
	delete(d.programs, id)
}

func (d *Device) CreateTexture(w, h int, rgba []byte) (kernel.TextureID, error) {
	if d.closed {
		return 0, kernel.ErrClosed
	}
	s := newSurface(w, h)
	if rgba != nil {
		if len(rgba) != len(s.pix) {
			return 0, fmt.Errorf("software: texture data is %d bytes, want %d", len(rgba), len(s.pix))
		}
		copy(s.pix, rgba)
	}
	id := kernel.TextureID(d.id())
	d.textures[id] = s
	return id, nil
}

func (d *Device) DestroyTexture(id kernel.TextureID) {
	delete(d.textures, id)
}

func (d *Device) CreateRenderTarget(w, h int) (kernel.TargetID, error) {
	if d.closed {
		return 0, kernel.ErrClosed
	}
	id := kernel.TargetID(d.id())
	d.targets[id] = newSurface(w, h)
	return id, nil
}

func (d *Device) DestroyRenderTarget(id kernel.TargetID) {
	delete(d.targets, id)
}

// Draw runs the program's kernel over every target pixel.
func (d *Device) Draw(program kernel.ProgramID, target kernel.TargetID, b kernel.Bindings) error {
	if d.closed {
		return kernel.ErrClosed
	}
	kind, ok := d.programs[program]
	if !ok {
		return fmt.Errorf("%w: program %d", kernel.ErrUnknownHandle, program)
	}
	dst, ok := d.targets[target]
	if !ok {
		return fmt.Errorf("%w: target %d", kernel.ErrUnknownHandle, target)
	}
	if b.Uniforms == nil || b.Uniforms.Kind() != kind {
		return fmt.Errorf("%w: program is %s", kernel.ErrUniformMismatch, kind)
	}
	inputs := make([]*surface, len(b.Textures))
	for i, id := range b.Textures {
		s, ok := d.textures[id]
		if !ok {
			return fmt.Errorf("%w: texture %d", kernel.ErrUnknownHandle, id)
		}
		if s.w != dst.w || s.h != dst.h {
			return fmt.Errorf("software: texture %d is %dx%d, target is %dx%d", id, s.w, s.h, dst.w, dst.h)
		}
		inputs[i] = s
	}
	fn, err := shaderFor(b.Uniforms, inputs)
	if err != nil {
		return err
	}

	d.logger.Load().Debug("software: draw", "kernel", kind, "width", dst.w, "height", dst.h)

	for y := 0; y < dst.h; y++ {
		for x := 0; x < dst.w; x++ {
			dst.store(x, y, fn(x, y))
		}
	}
	return nil
}

func (d *Device) ReadPixels(target kernel.TargetID) ([]byte, error) {
	if d.closed {
		return nil, kernel.ErrClosed
	}
	s, ok := d.targets[target]
	if !ok {
		return nil, fmt.Errorf("%w: target %d", kernel.ErrUnknownHandle, target)
	}
	out := make([]byte, len(s.pix))
	copy(out, s.pix)
	return out, nil
}

// Close releases everything the device holds.
func (d *Device) Close() error {
	d.closed = true
	d.programs = nil
	d.textures = nil
	d.targets = nil
	return nil
}

// LiveTextures returns the number of textures not yet destroyed.
func (d *Device) LiveTextures() int { return len(d.textures) }

// LiveTargets returns the number of render targets not yet destroyed.
func (d *Device) LiveTargets() int { return len(d.targets) }
