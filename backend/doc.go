// Package backend selects the device kernels run on.
//
// Backends register a [Factory] from init(). The software backend is
// always registered by this package; GPU backends register when their
// package is imported:
//
//	import (
//		"github.com/gogpu/texgen/backend"
//		_ "github.com/gogpu/texgen/backend/wgpu"
//	)
//
//	dev, err := backend.OpenDefault() // wgpu, else gl, else software
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer dev.Close()
//
// Use [Open] to request a backend by name and [Available] to list them.
package backend
