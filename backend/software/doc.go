// Package software is the CPU reference device.
//
// It executes every kernel kind natively in Go, one pixel at a time in
// row-major order, with the same sampling and quantisation rules as the
// GPU kernels: clamp-to-edge addressing, bilinear filtering at fractional
// offsets and round-to-nearest 8-bit output. Results are deterministic,
// so it is the device used by tests and the fallback on hosts with no GPU.
package software
