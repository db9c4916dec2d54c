package kernel

// ProgramID identifies a compiled program on a device.
type ProgramID uint64

// TextureID identifies an input texture on a device.
type TextureID uint64

// TargetID identifies a render target on a device.
type TargetID uint64

// Dialect is the shading language a device compiles.
type Dialect uint8

const (
	// DialectNone marks devices that execute kernels natively and ignore
	// source text.
	DialectNone Dialect = iota
	// DialectWGSL is WebGPU shading language.
	DialectWGSL
	// DialectGLSL is GLSL 4.10 core.
	DialectGLSL
)

func (d Dialect) String() string {
	switch d {
	case DialectWGSL:
		return "wgsl"
	case DialectGLSL:
		return "glsl"
	default:
		return "none"
	}
}

// Source is the program text of one kernel kind.
type Source struct {
	Kind     Kind
	Vertex   string
	Fragment string
}

// Bindings is everything bound for one draw.
type Bindings struct {
	Decl     *Declaration
	Textures []TextureID
	Uniforms Uniforms
}

// Limits reports device allocation limits.
type Limits struct {
	// MaxDimension is the largest texture width or height.
	MaxDimension int
}

// Device executes kernels. Implementations are not safe for concurrent
// use; every call completes synchronously.
//
// Texture data is w×h×4 bytes, RGBA, row-major, row 0 first. Row 0
// corresponds to texture coordinate v≈0 in every dialect.
type Device interface {
	Name() string
	Dialect() Dialect
	Limits() Limits

	CompileProgram(src Source) (ProgramID, error)
	DestroyProgram(id ProgramID)

	CreateTexture(w, h int, rgba []byte) (TextureID, error)
	DestroyTexture(id TextureID)

	CreateRenderTarget(w, h int) (TargetID, error)
	DestroyRenderTarget(id TargetID)

	// Draw runs program over the full-screen quad into target.
	Draw(program ProgramID, target TargetID, b Bindings) error

	// ReadPixels copies the target contents back to memory.
	ReadPixels(target TargetID) ([]byte, error)

	Close() error
}

// QuadVertices is the full-screen quad: two triangles over the unit
// square, interleaved position (x, y) and texture coordinate (u, v).
// Devices map position (0,0) to the first row of the target.
var QuadVertices = [24]float32{
	0, 0, 0, 0,
	1, 0, 1, 0,
	0, 1, 0, 1,
	0, 1, 0, 1,
	1, 0, 1, 0,
	1, 1, 1, 1,
}

// QuadStride is the byte stride of one QuadVertices vertex.
const QuadStride = 16
