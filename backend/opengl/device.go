//go:build gl

package opengl

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/gogpu/texgen/backend"
	"github.com/gogpu/texgen/kernel"
)

func init() {
	backend.Register(backend.NameGL, func() (kernel.Device, error) {
		return New()
	})
}

// Device is a kernel.Device on an offscreen OpenGL context. It is not safe
// for concurrent use.
type Device struct {
	th       *thread
	window   *glfw.Window
	renderer string
	maxDim   int
	quadVAO  uint32
	quadVBO  uint32

	next     uint64
	programs map[kernel.ProgramID]*program
	textures map[kernel.TextureID]*texture
	targets  map[kernel.TargetID]*target
	closed   bool

	logger atomic.Pointer[slog.Logger]
}

type program struct {
	kind     kernel.Kind
	handle   uint32
	uniforms map[string]int32
	samplers []int32
}

type texture struct {
	handle        uint32
	width, height int
}

type target struct {
	fbo, tex      uint32
	width, height int
}

// New creates a hidden window with a 4.1 core context. Failures are
// reported as *kernel.InitError.
func New() (*Device, error) {
	d := &Device{
		th:       newThread(),
		programs: make(map[kernel.ProgramID]*program),
		textures: make(map[kernel.TextureID]*texture),
		targets:  make(map[kernel.TargetID]*target),
	}
	d.logger.Store(slog.New(slog.DiscardHandler))

	var err error
	d.th.do(func() { err = d.init() })
	if err != nil {
		d.th.stop()
		return nil, &kernel.InitError{Backend: "gl", Err: err}
	}
	d.Logger().Info("gl: device opened", "renderer", d.renderer)
	return d, nil
}

func (d *Device) init() error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("glfw init: %w", err)
	}
	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Visible, glfw.False)

	window, err := glfw.CreateWindow(1, 1, "texgen", nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("create window: %w", err)
	}
	window.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		window.Destroy()
		glfw.Terminate()
		return fmt.Errorf("gl init: %w", err)
	}
	d.window = window
	d.renderer = gl.GoStr(gl.GetString(gl.RENDERER))

	var maxSize int32
	gl.GetIntegerv(gl.MAX_TEXTURE_SIZE, &maxSize)
	d.maxDim = int(maxSize)

	quad := kernel.QuadVertices
	gl.GenVertexArrays(1, &d.quadVAO)
	gl.BindVertexArray(d.quadVAO)
	gl.GenBuffers(1, &d.quadVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, d.quadVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(quad)*4, gl.Ptr(&quad[0]), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, kernel.QuadStride, gl.PtrOffset(0)) // position
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, kernel.QuadStride, gl.PtrOffset(8)) // uv
	gl.BindVertexArray(0)

	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	return nil
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

func (d *Device) Name() string { return "gl" }

// Renderer returns the GL_RENDERER string.
func (d *Device) Renderer() string { return d.renderer }

func (d *Device) Dialect() kernel.Dialect { return kernel.DialectGLSL }

func (d *Device) Limits() kernel.Limits { return kernel.Limits{MaxDimension: d.maxDim} }

func (d *Device) id() uint64 {
	d.next++
	return d.next
}

// CompileProgram compiles and links GLSL and resolves uniform locations.
func (d *Device) CompileProgram(src kernel.Source) (kernel.ProgramID, error) {
	if d.closed {
		return 0, kernel.ErrClosed
	}
	decl, err := kernel.Lookup(src.Kind)
	if err != nil {
		return 0, &kernel.CompileError{Kind: src.Kind, Stage: "link", Err: err}
	}

	p := &program{kind: src.Kind, uniforms: make(map[string]int32)}
	var cerr error
	d.th.do(func() {
		p.handle, cerr = newProgram(src.Kind, src.Vertex, src.Fragment)
		if cerr != nil {
			return
		}
		for _, u := range decl.Uniforms {
			p.uniforms[u.Name] = gl.GetUniformLocation(p.handle, gl.Str(kernel.GLSLName(u.Name)+"\x00"))
		}
		for _, s := range decl.Samplers {
			p.samplers = append(p.samplers, gl.GetUniformLocation(p.handle, gl.Str(kernel.GLSLName(s)+"\x00")))
		}
	})
	if cerr != nil {
		return 0, cerr
	}
	id := kernel.ProgramID(d.id())
	d.programs[id] = p
	return id, nil
}

func newProgram(kind kernel.Kind, vertSrc, fragSrc string) (uint32, error) {
	vert, err := compileShader(kind, "vertex", vertSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vert)
	frag, err := compileShader(kind, "fragment", fragSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(frag)

	prog := gl.CreateProgram()
	gl.AttachShader(prog, vert)
	gl.AttachShader(prog, frag)
	gl.LinkProgram(prog)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(log))
		gl.DeleteProgram(prog)
		return 0, &kernel.CompileError{Kind: kind, Stage: "link", Log: strings.TrimRight(log, "\x00"),
			Err: errors.New("link failed")}
	}
	return prog, nil
}

func compileShader(kind kernel.Kind, stage, src string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src + "\x00")
	gl.ShaderSource(shader, 1, csrc, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, &kernel.CompileError{Kind: kind, Stage: stage, Log: strings.TrimRight(log, "\x00"),
			Err: errors.New("compile failed")}
	}
	return shader, nil
}

func (d *Device) DestroyProgram(id kernel.ProgramID) {
	if p, ok := d.programs[id]; ok {
		d.th.do(func() { gl.DeleteProgram(p.handle) })
		delete(d.programs, id)
	}
}

func (d *Device) CreateTexture(w, h int, rgba []byte) (kernel.TextureID, error) {
	if d.closed {
		return 0, kernel.ErrClosed
	}
	if rgba != nil && len(rgba) != w*h*4 {
		return 0, fmt.Errorf("gl: texture data is %d bytes, want %d", len(rgba), w*h*4)
	}
	t := &texture{width: w, height: h}
	d.th.do(func() {
		t.handle = newTexture(w, h, rgba)
	})
	id := kernel.TextureID(d.id())
	d.textures[id] = t
	return id, nil
}

// newTexture allocates an RGBA8 texture with nearest filtering and
// clamp-to-edge wrapping.
func newTexture(w, h int, rgba []byte) uint32 {
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	var ptr = gl.Ptr(nil)
	if rgba != nil {
		ptr = gl.Ptr(&rgba[0])
	}
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(w), int32(h), 0, gl.RGBA, gl.UNSIGNED_BYTE, ptr) //nolint:gosec // bounded by Limits
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return tex
}

func (d *Device) DestroyTexture(id kernel.TextureID) {
	if t, ok := d.textures[id]; ok {
		d.th.do(func() { gl.DeleteTextures(1, &t.handle) })
		delete(d.textures, id)
	}
}

func (d *Device) CreateRenderTarget(w, h int) (kernel.TargetID, error) {
	if d.closed {
		return 0, kernel.ErrClosed
	}
	t := &target{width: w, height: h}
	var err error
	d.th.do(func() {
		t.tex = newTexture(w, h, nil)
		gl.GenFramebuffers(1, &t.fbo)
		gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, t.tex, 0)
		if s := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); s != gl.FRAMEBUFFER_COMPLETE {
			err = fmt.Errorf("gl: framebuffer incomplete: 0x%x", s)
			gl.DeleteFramebuffers(1, &t.fbo)
			gl.DeleteTextures(1, &t.tex)
		}
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	})
	if err != nil {
		return 0, err
	}
	id := kernel.TargetID(d.id())
	d.targets[id] = t
	return id, nil
}

func (d *Device) DestroyRenderTarget(id kernel.TargetID) {
	if t, ok := d.targets[id]; ok {
		d.th.do(func() {
			gl.DeleteFramebuffers(1, &t.fbo)
			gl.DeleteTextures(1, &t.tex)
		})
		delete(d.targets, id)
	}
}

// Draw binds uniforms by name and textures to units 0..n, then draws the
// quad into the target framebuffer.
func (d *Device) Draw(id kernel.ProgramID, tid kernel.TargetID, b kernel.Bindings) error {
	if d.closed {
		return kernel.ErrClosed
	}
	p, ok := d.programs[id]
	if !ok {
		return fmt.Errorf("%w: program %d", kernel.ErrUnknownHandle, id)
	}
	t, ok := d.targets[tid]
	if !ok {
		return fmt.Errorf("%w: target %d", kernel.ErrUnknownHandle, tid)
	}
	if b.Uniforms == nil || b.Uniforms.Kind() != p.kind {
		return fmt.Errorf("%w: %s program", kernel.ErrUniformMismatch, p.kind)
	}
	if len(b.Textures) != len(p.samplers) {
		return fmt.Errorf("%w: %d textures for %d samplers", kernel.ErrUniformMismatch, len(b.Textures), len(p.samplers))
	}
	inputs := make([]*texture, len(b.Textures))
	for i, texID := range b.Textures {
		tex, ok := d.textures[texID]
		if !ok {
			return fmt.Errorf("%w: texture %d", kernel.ErrUnknownHandle, texID)
		}
		inputs[i] = tex
	}

	var glErr uint32
	d.th.do(func() {
		gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
		gl.Viewport(0, 0, int32(t.width), int32(t.height)) //nolint:gosec // bounded by Limits
		gl.Disable(gl.BLEND)
		gl.UseProgram(p.handle)

		for _, v := range b.Uniforms.Values() {
			loc, ok := p.uniforms[v.Name]
			if !ok || loc < 0 {
				continue // optimized out
			}
			switch v.Type {
			case kernel.Float:
				gl.Uniform1f(loc, v.Data[0])
			case kernel.Vec2:
				gl.Uniform2f(loc, v.Data[0], v.Data[1])
			case kernel.Vec3:
				gl.Uniform3f(loc, v.Data[0], v.Data[1], v.Data[2])
			case kernel.Vec4:
				gl.Uniform4f(loc, v.Data[0], v.Data[1], v.Data[2], v.Data[3])
			}
		}
		for i, tex := range inputs {
			gl.ActiveTexture(gl.TEXTURE0 + uint32(i)) //nolint:gosec // at most three samplers
			gl.BindTexture(gl.TEXTURE_2D, tex.handle)
			if p.samplers[i] >= 0 {
				gl.Uniform1i(p.samplers[i], int32(i)) //nolint:gosec // at most three samplers
			}
		}

		gl.BindVertexArray(d.quadVAO)
		gl.DrawArrays(gl.TRIANGLES, 0, 6)
		gl.BindVertexArray(0)
		gl.UseProgram(0)
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		glErr = gl.GetError()
	})
	if glErr != gl.NO_ERROR {
		return fmt.Errorf("gl: draw %s: error 0x%x", p.kind, glErr)
	}
	d.Logger().Debug("gl: draw", "kernel", p.kind, "width", t.width, "height", t.height)
	return nil
}

// ReadPixels reads the target framebuffer. GL row 0 is the bottom row,
// which the vertex stage maps to v=0, so no flip is needed.
func (d *Device) ReadPixels(tid kernel.TargetID) ([]byte, error) {
	if d.closed {
		return nil, kernel.ErrClosed
	}
	t, ok := d.targets[tid]
	if !ok {
		return nil, fmt.Errorf("%w: target %d", kernel.ErrUnknownHandle, tid)
	}
	out := make([]byte, t.width*t.height*4)
	d.th.do(func() {
		gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
		gl.ReadPixels(0, 0, int32(t.width), int32(t.height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(&out[0])) //nolint:gosec // bounded by Limits
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	})
	return out, nil
}

// LiveTextures returns the number of input textures not yet destroyed.
func (d *Device) LiveTextures() int { return len(d.textures) }

// LiveTargets returns the number of render targets not yet destroyed.
func (d *Device) LiveTargets() int { return len(d.targets) }

// Close deletes every remaining object, the context and the window.
func (d *Device) Close() error {
	if d.closed {
		return nil
	}
	for id := range d.programs {
		d.DestroyProgram(id)
	}
	for id := range d.textures {
		d.DestroyTexture(id)
	}
	for id := range d.targets {
		d.DestroyRenderTarget(id)
	}
	d.closed = true
	d.th.do(func() {
		gl.DeleteBuffers(1, &d.quadVBO)
		gl.DeleteVertexArrays(1, &d.quadVAO)
		glfw.DetachCurrentContext()
		d.window.Destroy()
		glfw.Terminate()
	})
	d.th.stop()
	return nil
}
