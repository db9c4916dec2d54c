package backend

import (
	"github.com/gogpu/texgen/backend/software"
	"github.com/gogpu/texgen/kernel"
)

// init registers the software backend on package import.
func init() {
	Register(NameSoftware, func() (kernel.Device, error) {
		return software.New(), nil
	})
}
