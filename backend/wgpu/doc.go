// Package wgpu runs texgen kernels on the GPU through the gogpu/wgpu HAL.
//
// Kernels are WGSL, compiled to SPIR-V with naga and drawn as one
// full-screen quad per pass. Input textures are read-only storage buffers
// of packed RGBA8 texels; render targets are RGBA8 textures read back
// through a staging buffer with 256-byte aligned rows.
//
// Importing the package registers the "wgpu" backend:
//
//	import _ "github.com/gogpu/texgen/backend/wgpu"
//
// Build with -tags nogpu to leave it out.
package wgpu
