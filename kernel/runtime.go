package kernel

import (
	"errors"
	"fmt"
	"sync"
)

type program struct {
	id  ProgramID
	err error
}

// Runtime compiles kernels once and runs them on a device.
type Runtime struct {
	dev Device

	mu       sync.Mutex
	programs map[Kind]program
	closed   bool
}

// NewRuntime creates a runtime over dev. The runtime does not own dev.
func NewRuntime(dev Device) *Runtime {
	return &Runtime{
		dev:      dev,
		programs: make(map[Kind]program),
	}
}

// Device returns the device the runtime draws on.
func (r *Runtime) Device() Device {
	return r.dev
}

// Compile builds a program from explicit vertex and fragment sources.
// The result is not cached; the caller owns the program.
func (r *Runtime) Compile(kind Kind, vertex, fragment string) (ProgramID, error) {
	if !kind.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(kind))
	}
	id, err := r.dev.CompileProgram(Source{Kind: kind, Vertex: vertex, Fragment: fragment})
	if err != nil {
		var ce *CompileError
		if !errors.As(err, &ce) {
			err = &CompileError{Kind: kind, Stage: "link", Err: err}
		}
		return 0, err
	}
	return id, nil
}

// Program returns the cached program of kind, compiling the built-in
// source on first use. A kind that failed to compile keeps failing with
// the same error.
func (r *Runtime) Program(kind Kind) (ProgramID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, ErrClosed
	}
	if p, ok := r.programs[kind]; ok {
		return p.id, p.err
	}
	src, err := SourceFor(kind, r.dev.Dialect())
	if err != nil {
		return 0, err
	}
	id, err := r.Compile(kind, src.Vertex, src.Fragment)
	r.programs[kind] = program{id: id, err: err}
	return id, err
}

// Run checks u against its kind's declaration and draws that kernel into
// target, reading textures in sampler order.
func (r *Runtime) Run(target TargetID, textures []TextureID, u Uniforms) error {
	if u == nil {
		return fmt.Errorf("%w: nil uniforms", ErrUniformMismatch)
	}
	decl, err := Lookup(u.Kind())
	if err != nil {
		return err
	}
	if err := decl.Check(u, len(textures)); err != nil {
		return err
	}
	prog, err := r.Program(decl.Kind)
	if err != nil {
		return err
	}
	if err := r.dev.Draw(prog, target, Bindings{Decl: decl, Textures: textures, Uniforms: u}); err != nil {
		return fmt.Errorf("kernel: draw %s: %w", decl.Kind, err)
	}
	return nil
}

// Close destroys every cached program. The device stays open.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	for _, p := range r.programs {
		if p.err == nil {
			r.dev.DestroyProgram(p.id)
		}
	}
	r.programs = nil
	return nil
}
