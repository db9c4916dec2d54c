package backend

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gogpu/texgen/kernel"
)

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Priority order for backend selection (first that opens wins).
	backendPriority = []string{NameWGPU, NameGL, NameSoftware}
)

// Register registers a device factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it will be replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns the registered backend names, sorted.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Open opens a device from the named backend.
func Open(name string) (kernel.Device, error) {
	registryMu.RLock()
	factory, ok := backends[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}
	dev, err := factory()
	if err != nil {
		return nil, err
	}
	if dev == nil {
		return nil, &kernel.InitError{Backend: name, Err: ErrBackendNotAvailable}
	}
	return dev, nil
}

// OpenDefault opens the best available device.
// Priority order: wgpu > gl > software, then any other registered backend.
// The returned error joins every failed attempt.
func OpenDefault() (kernel.Device, error) {
	var errs []error
	tried := make(map[string]bool)
	names := append(append([]string(nil), backendPriority...), Available()...)
	for _, name := range names {
		if tried[name] || !IsRegistered(name) {
			continue
		}
		tried[name] = true
		dev, err := Open(name)
		if err == nil {
			return dev, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, &kernel.InitError{Backend: "default", Err: ErrBackendNotAvailable}
	}
	return nil, &kernel.InitError{Backend: "default", Err: errors.Join(errs...)}
}
