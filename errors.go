package texgen

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors.
var (
	// ErrMissingDependency is matched by every MissingDependencyError.
	ErrMissingDependency = errors.New("texgen: missing dependency")

	// ErrNoSource is returned when no source image has been loaded.
	ErrNoSource = errors.New("texgen: no source image")

	// ErrUnknownMapType is returned for an unrecognised map type.
	ErrUnknownMapType = errors.New("texgen: unknown map type")

	// ErrUnknownParameter is returned for a name not in a map type's schema.
	ErrUnknownParameter = errors.New("texgen: unknown parameter")

	// ErrOutOfRange is returned for a parameter value outside its range.
	ErrOutOfRange = errors.New("texgen: parameter out of range")

	// ErrDimensionMismatch is returned when inputs differ in size.
	ErrDimensionMismatch = errors.New("texgen: dimension mismatch")

	// ErrUnsupportedFormat is returned for an image format not accepted
	// by the loader.
	ErrUnsupportedFormat = errors.New("texgen: unsupported image format")

	// ErrFileTooLarge is returned for an encoded image over the size cap.
	ErrFileTooLarge = errors.New("texgen: file too large")

	// ErrTooManyPixels is returned when an image header declares more
	// pixels than the decode budget.
	ErrTooManyPixels = errors.New("texgen: image dimensions too large")

	// ErrSourceReplaced is returned when the source image changed while a
	// map was being generated from the previous one.
	ErrSourceReplaced = errors.New("texgen: source replaced during generation")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("texgen: closed")
)

// MissingDependencyError reports a synthesis request whose upstream maps
// are absent.
type MissingDependencyError struct {
	Type       MapType
	Missing    []MapType
	NeedSource bool
}

func (e *MissingDependencyError) Error() string {
	var parts []string
	if e.NeedSource {
		parts = append(parts, "source image")
	}
	for _, m := range e.Missing {
		parts = append(parts, m.String()+" map")
	}
	return fmt.Sprintf("texgen: %s requires %s", e.Type, strings.Join(parts, ", "))
}

// Is makes every MissingDependencyError match ErrMissingDependency.
func (e *MissingDependencyError) Is(target error) bool {
	return target == ErrMissingDependency
}

// ParamError reports a rejected parameter assignment.
type ParamError struct {
	Type  MapType
	Name  string
	Value float64
	Err   error
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("texgen: %s.%s = %g: %v", e.Type, e.Name, e.Value, e.Err)
}

func (e *ParamError) Unwrap() error { return e.Err }

// LoadError reports a source image that could not be loaded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("texgen: load image: %v", e.Err)
	}
	return fmt.Sprintf("texgen: load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
