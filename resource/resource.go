// Package resource tracks the textures and render targets of a kernel
// device and guarantees they are released.
//
// All allocations made during one synthesis call go through a [Scope];
// closing the scope destroys them in reverse order, whatever path the
// call took.
package resource

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/texgen/kernel"
)

var (
	// ErrReleased is returned when a handle is destroyed twice or used
	// after it was destroyed. The device is not called.
	ErrReleased = errors.New("resource: handle already released")

	// ErrExhausted is returned when an allocation exceeds the device
	// limits or the device fails to allocate.
	ErrExhausted = errors.New("resource: exhausted")

	// ErrInvalidSize is returned for non-positive dimensions or a data
	// slice of the wrong length.
	ErrInvalidSize = errors.New("resource: invalid size")
)

type handleKind uint8

const (
	kindTexture handleKind = iota + 1
	kindTarget
)

type key struct {
	kind handleKind
	id   uint64
}

// Handle is a texture or render target owned by a Manager.
type Handle interface {
	key() key
	Size() (w, h int)
}

// Texture is an input texture.
type Texture struct {
	ID     kernel.TextureID
	Width  int
	Height int
}

func (t Texture) key() key         { return key{kindTexture, uint64(t.ID)} }
func (t Texture) Size() (w, h int) { return t.Width, t.Height }

// Target is a render target.
type Target struct {
	ID     kernel.TargetID
	Width  int
	Height int
}

func (t Target) key() key         { return key{kindTarget, uint64(t.ID)} }
func (t Target) Size() (w, h int) { return t.Width, t.Height }

// Stats counts allocations over the manager lifetime.
type Stats struct {
	Created   int
	Destroyed int
}

// Live returns the number of handles not yet destroyed.
func (s Stats) Live() int { return s.Created - s.Destroyed }

// Manager allocates and destroys device resources.
type Manager struct {
	dev    kernel.Device
	maxDim int

	mu    sync.Mutex
	live  map[key]struct{}
	stats Stats
}

// Option configures a Manager.
type Option func(*Manager)

// WithMaxDimension caps texture width and height below the device limit.
func WithMaxDimension(n int) Option {
	return func(m *Manager) {
		if n > 0 && (m.maxDim == 0 || n < m.maxDim) {
			m.maxDim = n
		}
	}
}

// NewManager creates a manager over dev.
func NewManager(dev kernel.Device, opts ...Option) *Manager {
	m := &Manager{
		dev:    dev,
		maxDim: dev.Limits().MaxDimension,
		live:   make(map[key]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MaxDimension returns the largest width or height the manager accepts.
// Zero means unlimited.
func (m *Manager) MaxDimension() int {
	return m.maxDim
}

// Stats returns a snapshot of the allocation counters.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

func (m *Manager) checkSize(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, w, h)
	}
	if m.maxDim > 0 && (w > m.maxDim || h > m.maxDim) {
		return fmt.Errorf("%w: %dx%d exceeds %d", ErrExhausted, w, h, m.maxDim)
	}
	return nil
}

func (m *Manager) track(k key) {
	m.mu.Lock()
	m.live[k] = struct{}{}
	m.stats.Created++
	m.mu.Unlock()
}

func (m *Manager) isLive(k key) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.live[k]
	return ok
}

// CreateTexture uploads w×h RGBA pixels. data may be nil for an
// uninitialised texture.
func (m *Manager) CreateTexture(w, h int, data []byte) (Texture, error) {
	if err := m.checkSize(w, h); err != nil {
		return Texture{}, err
	}
	if data != nil && len(data) != w*h*4 {
		return Texture{}, fmt.Errorf("%w: %d bytes for %dx%d", ErrInvalidSize, len(data), w, h)
	}
	id, err := m.dev.CreateTexture(w, h, data)
	if err != nil {
		return Texture{}, fmt.Errorf("%w: texture %dx%d: %w", ErrExhausted, w, h, err)
	}
	t := Texture{ID: id, Width: w, Height: h}
	m.track(t.key())
	return t, nil
}

// CreateRenderTarget allocates a w×h RGBA8 render target.
func (m *Manager) CreateRenderTarget(w, h int) (Target, error) {
	if err := m.checkSize(w, h); err != nil {
		return Target{}, err
	}
	id, err := m.dev.CreateRenderTarget(w, h)
	if err != nil {
		return Target{}, fmt.Errorf("%w: render target %dx%d: %w", ErrExhausted, w, h, err)
	}
	t := Target{ID: id, Width: w, Height: h}
	m.track(t.key())
	return t, nil
}

// ReadPixels returns the target contents as w×h×4 RGBA bytes, row-major.
func (m *Manager) ReadPixels(t Target) ([]byte, error) {
	if !m.isLive(t.key()) {
		return nil, ErrReleased
	}
	data, err := m.dev.ReadPixels(t.ID)
	if err != nil {
		return nil, fmt.Errorf("resource: read back %dx%d: %w", t.Width, t.Height, err)
	}
	if len(data) != t.Width*t.Height*4 {
		return nil, fmt.Errorf("resource: read back %d bytes, want %d", len(data), t.Width*t.Height*4)
	}
	return data, nil
}

// Destroy releases h immediately. Destroying a handle twice returns
// ErrReleased without touching the device.
func (m *Manager) Destroy(h Handle) error {
	k := h.key()
	m.mu.Lock()
	if _, ok := m.live[k]; !ok {
		m.mu.Unlock()
		return ErrReleased
	}
	delete(m.live, k)
	m.stats.Destroyed++
	m.mu.Unlock()

	switch k.kind {
	case kindTexture:
		m.dev.DestroyTexture(kernel.TextureID(k.id))
	case kindTarget:
		m.dev.DestroyRenderTarget(kernel.TargetID(k.id))
	}
	return nil
}

// Scope returns a new allocation scope.
func (m *Manager) Scope() *Scope {
	return &Scope{m: m}
}
