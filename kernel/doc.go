// Package kernel runs per-pixel programs over a full-screen quad.
//
// A kernel is identified by its [Kind]. Every kind has a static
// [Declaration] listing the samplers it reads and the uniforms it
// consumes, and a typed uniform struct (for example [NormalUniforms])
// carrying exactly those fields. [Runtime] checks a uniform value against
// its declaration before any draw, compiles each kind once per process
// lifetime and dispatches the draw to a [Device].
//
// Devices live in the backend packages:
//
//	backend/software  CPU reference implementation (always available)
//	backend/wgpu      gogpu/wgpu HAL device, WGSL kernels compiled by naga
//	backend/opengl    OpenGL 4.1 device, GLSL kernels (build tag "gl")
//
// Typical use:
//
//	rt := kernel.NewRuntime(dev)
//	defer rt.Close()
//
//	err := rt.Run(target, []kernel.TextureID{height}, &kernel.NormalUniforms{
//	    Resolution: kernel.Resolution(w, h),
//	    Strength:   2,
//	    Step:       1,
//	})
package kernel
