// Package opengl runs texgen kernels with OpenGL 4.1 core.
//
// A hidden GLFW window provides the context. Kernels are GLSL 410;
// input textures are RGBA8 textures read with texelFetch, and render
// targets are framebuffer objects read back with glReadPixels. Every GL
// call runs on one locked OS thread owned by the device.
//
// The package is built only with -tags gl, since it needs cgo and a GL
// driver. Importing it registers the "gl" backend.
package opengl
