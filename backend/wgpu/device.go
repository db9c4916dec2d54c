//go:build !nogpu

package wgpu

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/texgen/kernel"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// Device is a kernel.Device backed by a HAL device. It is not safe for
// concurrent use.
type Device struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	adapter  string
	limits   kernel.Limits
	external bool // shared device, not destroyed on Close

	quad hal.Buffer

	next     uint64
	programs map[kernel.ProgramID]*program
	textures map[kernel.TextureID]*texture
	targets  map[kernel.TargetID]*target
	closed   bool

	logger atomic.Pointer[slog.Logger]
}

type texture struct {
	buf           hal.Buffer
	size          uint64
	width, height int
}

type target struct {
	tex           hal.Texture
	view          hal.TextureView
	width, height int
}

// New opens the first discrete or integrated Vulkan adapter. Failures are
// reported as *kernel.InitError.
func New() (*Device, error) {
	b, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, initError(fmt.Errorf("vulkan backend not available"))
	}
	instance, err := b.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, initError(fmt.Errorf("create instance: %w", err))
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, initError(fmt.Errorf("no GPU adapters found"))
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	limits := gputypes.DefaultLimits()
	openDev, err := selected.Adapter.Open(gputypes.Features(0), limits)
	if err != nil {
		instance.Destroy()
		return nil, initError(fmt.Errorf("open device: %w", err))
	}

	d, err := newDevice(openDev.Device, openDev.Queue, maxDimension(limits))
	if err != nil {
		openDev.Device.Destroy()
		instance.Destroy()
		return nil, initError(err)
	}
	d.instance = instance
	d.adapter = selected.Info.Name
	d.Logger().Info("wgpu: device opened", "adapter", d.adapter)
	return d, nil
}

// NewFromProvider wraps the HAL device of a host application, such as a
// gogpu window, so kernels share its GPU. The provider must expose
// HalDevice() and HalQueue(). Close leaves the shared device open.
func NewFromProvider(provider gpucontext.DeviceProvider) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, initError(fmt.Errorf("provider does not expose HAL types"))
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, initError(fmt.Errorf("provider HalDevice is not hal.Device"))
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, initError(fmt.Errorf("provider HalQueue is not hal.Queue"))
	}
	d, err := newDevice(device, queue, maxDimension(gputypes.DefaultLimits()))
	if err != nil {
		return nil, initError(err)
	}
	d.external = true
	d.adapter = "shared"
	return d, nil
}

// maxStorageSide keeps a w×h×4 input buffer under the default 128 MiB
// storage binding limit.
const maxStorageSide = 4096

func maxDimension(l gputypes.Limits) int {
	return min(int(l.MaxTextureDimension2D), maxStorageSide)
}

func initError(err error) error {
	return &kernel.InitError{Backend: "wgpu", Err: err}
}

func newDevice(device hal.Device, queue hal.Queue, maxDim int) (*Device, error) {
	d := &Device{
		device:   device,
		queue:    queue,
		limits:   kernel.Limits{MaxDimension: maxDim},
		programs: make(map[kernel.ProgramID]*program),
		textures: make(map[kernel.TextureID]*texture),
		targets:  make(map[kernel.TargetID]*target),
	}
	d.logger.Store(slog.New(slog.DiscardHandler))

	verts := make([]byte, len(kernel.QuadVertices)*4)
	for i, v := range kernel.QuadVertices {
		binary.LittleEndian.PutUint32(verts[i*4:], math.Float32bits(v))
	}
	quad, err := d.createAndUploadBuffer("texgen_quad", verts, gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	d.quad = quad
	return d, nil
}

// SetLogger sets the logger for device diagnostics.
func (d *Device) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	d.logger.Store(l)
}

// Logger returns the device logger.
func (d *Device) Logger() *slog.Logger {
	return d.logger.Load()
}

func (d *Device) Name() string { return "wgpu" }

// Adapter returns the adapter name, or "shared" for a provider device.
func (d *Device) Adapter() string { return d.adapter }

func (d *Device) Dialect() kernel.Dialect { return kernel.DialectWGSL }

func (d *Device) Limits() kernel.Limits { return d.limits }

func (d *Device) id() uint64 {
	d.next++
	return d.next
}

func (d *Device) createAndUploadBuffer(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	d.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

// CreateTexture uploads rgba as a storage buffer; the RGBA byte order is
// the packed little-endian u32 layout the kernels read.
func (d *Device) CreateTexture(w, h int, rgba []byte) (kernel.TextureID, error) {
	if d.closed {
		return 0, kernel.ErrClosed
	}
	size := uint64(w) * uint64(h) * 4
	if rgba != nil && uint64(len(rgba)) != size {
		return 0, fmt.Errorf("wgpu: texture data is %d bytes, want %d", len(rgba), size)
	}
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "texgen_input",
		Size:  size,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return 0, fmt.Errorf("wgpu: create input buffer: %w", err)
	}
	if rgba != nil {
		d.queue.WriteBuffer(buf, 0, rgba)
	}
	id := kernel.TextureID(d.id())
	d.textures[id] = &texture{buf: buf, size: size, width: w, height: h}
	return id, nil
}

func (d *Device) DestroyTexture(id kernel.TextureID) {
	if t, ok := d.textures[id]; ok {
		d.device.DestroyBuffer(t.buf)
		delete(d.textures, id)
	}
}

func (d *Device) CreateRenderTarget(w, h int) (kernel.TargetID, error) {
	if d.closed {
		return 0, kernel.ErrClosed
	}
	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "texgen_target",
		Size:          hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1}, //nolint:gosec // bounded by Limits
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return 0, fmt.Errorf("wgpu: create target: %w", err)
	}
	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "texgen_target_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		d.device.DestroyTexture(tex)
		return 0, fmt.Errorf("wgpu: create target view: %w", err)
	}
	id := kernel.TargetID(d.id())
	d.targets[id] = &target{tex: tex, view: view, width: w, height: h}
	return id, nil
}

func (d *Device) DestroyRenderTarget(id kernel.TargetID) {
	if t, ok := d.targets[id]; ok {
		d.device.DestroyTextureView(t.view)
		d.device.DestroyTexture(t.tex)
		delete(d.targets, id)
	}
}

// LiveTextures returns the number of input textures not yet destroyed.
func (d *Device) LiveTextures() int { return len(d.textures) }

// LiveTargets returns the number of render targets not yet destroyed.
func (d *Device) LiveTargets() int { return len(d.targets) }

// Close destroys every remaining resource, then the device unless it is
// shared.
func (d *Device) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	for id := range d.programs {
		d.DestroyProgram(id)
	}
	for id := range d.textures {
		d.DestroyTexture(id)
	}
	for id := range d.targets {
		d.DestroyRenderTarget(id)
	}
	if d.quad != nil {
		d.device.DestroyBuffer(d.quad)
		d.quad = nil
	}
	if !d.external {
		d.device.Destroy()
		if d.instance != nil {
			d.instance.Destroy()
		}
	}
	d.device = nil
	d.queue = nil
	d.instance = nil
	return nil
}
