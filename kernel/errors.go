package kernel

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the kernel runtime and devices.
var (
	// ErrDeviceUnavailable is matched by every InitError.
	ErrDeviceUnavailable = errors.New("kernel: no usable device")

	// ErrUnknownKind is returned for a kind with no declaration.
	ErrUnknownKind = errors.New("kernel: unknown kind")

	// ErrUniformMismatch is returned when a uniform block does not match
	// its kind's declaration.
	ErrUniformMismatch = errors.New("kernel: uniforms do not match declaration")

	// ErrUnknownHandle is returned by devices for IDs they did not issue.
	ErrUnknownHandle = errors.New("kernel: unknown handle")

	// ErrClosed is returned after the runtime or device has been closed.
	ErrClosed = errors.New("kernel: closed")
)

// CompileError reports a program that failed to build or link.
// Log carries the compiler diagnostic.
type CompileError struct {
	Kind  Kind
	Stage string // "vertex", "fragment" or "link"
	Log   string
	Err   error
}

func (e *CompileError) Error() string {
	if e.Log != "" {
		return fmt.Sprintf("kernel: compile %s (%s): %s", e.Kind, e.Stage, e.Log)
	}
	return fmt.Sprintf("kernel: compile %s (%s): %v", e.Kind, e.Stage, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// InitError reports that a device could not be opened.
type InitError struct {
	Backend string
	Err     error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("kernel: init %s device: %v", e.Backend, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// Is makes every InitError match ErrDeviceUnavailable.
func (e *InitError) Is(target error) bool {
	return target == ErrDeviceUnavailable
}
