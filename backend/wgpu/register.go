//go:build !nogpu

package wgpu

import (
	"github.com/gogpu/texgen/backend"
	"github.com/gogpu/texgen/kernel"
)

func init() {
	backend.Register(backend.NameWGPU, func() (kernel.Device, error) {
		return New()
	})
}
