package backend

import (
	"errors"

	"github.com/gogpu/texgen/kernel"
)

// Backend name constants.
const (
	// NameSoftware is the CPU reference device.
	NameSoftware = "software"
	// NameWGPU is the gogpu/wgpu HAL device.
	NameWGPU = "wgpu"
	// NameGL is the OpenGL 4.1 device.
	NameGL = "gl"
)

// ErrBackendNotAvailable is returned when a requested backend is not registered.
var ErrBackendNotAvailable = errors.New("backend: not available")

// Factory opens a new device. A factory that cannot find usable hardware
// returns a *kernel.InitError.
type Factory func() (kernel.Device, error)
