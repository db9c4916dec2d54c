package resource

import "errors"

// Scope owns the handles allocated through it. Close destroys them in
// reverse allocation order. A Scope is used by one goroutine.
type Scope struct {
	m       *Manager
	handles []Handle
}

// Texture allocates a texture owned by the scope.
func (s *Scope) Texture(w, h int, data []byte) (Texture, error) {
	t, err := s.m.CreateTexture(w, h, data)
	if err != nil {
		return Texture{}, err
	}
	s.handles = append(s.handles, t)
	return t, nil
}

// Target allocates a render target owned by the scope.
func (s *Scope) Target(w, h int) (Target, error) {
	t, err := s.m.CreateRenderTarget(w, h)
	if err != nil {
		return Target{}, err
	}
	s.handles = append(s.handles, t)
	return t, nil
}

// ReadPixels reads back a target.
func (s *Scope) ReadPixels(t Target) ([]byte, error) {
	return s.m.ReadPixels(t)
}

// Len returns the number of handles the scope still owns.
func (s *Scope) Len() int {
	return len(s.handles)
}

// Close destroys every handle the scope owns. Handles already destroyed
// through the Manager are skipped. Close is idempotent.
func (s *Scope) Close() error {
	var errs []error
	for i := len(s.handles) - 1; i >= 0; i-- {
		if err := s.m.Destroy(s.handles[i]); err != nil && !errors.Is(err, ErrReleased) {
			errs = append(errs, err)
		}
	}
	s.handles = nil
	return errors.Join(errs...)
}
