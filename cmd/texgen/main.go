// Command texgen synthesizes PBR texture maps from a source image.
//
// Usage:
//
//	texgen generate photo.jpg --out maps/
//	texgen generate photo.jpg --maps normal,ao --config params.yaml
//	texgen schema normal
//	texgen backends
//
// Parameters come from an optional config file (YAML, JSON or TOML) with
// <map>.<name> keys, overridden by TEXGEN_<MAP>_<NAME> environment
// variables:
//
//	normal:
//	  strength: 4
//	  type: directx
//	height:
//	  intensity: 3
package main

import (
	"os"

	_ "github.com/gogpu/texgen/backend/wgpu" // register the wgpu backend
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
