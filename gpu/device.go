// Package gpu defines the rendering context the particle simulation runs against.
// A Device owns GPU objects (programs, textures, render targets, buffers) and
// executes the two draw shapes the feedback loop needs: a triangle mesh drawn
// through a program into the current render destination, and a point cloud.
package gpu

import "github.com/go-gl/mathgl/mgl32"

// Filter selects texture sampling between texels.
type Filter int

const (
	FilterNearest Filter = iota
	FilterLinear
)

func (f Filter) String() string {
	switch f {
	case FilterNearest:
		return "nearest"
	case FilterLinear:
		return "linear"
	}
	return "unknown"
}

// Format is the channel layout of a texture.
type Format int

const (
	FormatRGBA Format = iota
)

// ComponentType is the storage type of each texture channel.
type ComponentType int

const (
	ComponentUint8 ComponentType = iota
	ComponentFloat32
)

func (c ComponentType) String() string {
	switch c {
	case ComponentUint8:
		return "uint8"
	case ComponentFloat32:
		return "float32"
	}
	return "unknown"
}

// TargetDesc declares an off-screen render target.
type TargetDesc struct {
	Width     int
	Height    int
	MinFilter Filter
	MagFilter Filter
	Format    Format
	Type      ComponentType
	Depth     bool
	Stencil   bool
}

// BlendMode controls how point fragments combine with the destination.
type BlendMode int

const (
	BlendAlpha BlendMode = iota
	BlendAdditive
)

// PointState is the fixed-function state for a point draw.
type PointState struct {
	Blend      BlendMode
	DepthWrite bool
	DepthTest  bool
}

// Texture is a sampled GPU image.
type Texture interface {
	ID() uint32
	Size() (width, height int)
	Release()
}

// RenderTarget is an off-screen destination whose colour attachment can be
// sampled by a different program in the same frame.
type RenderTarget interface {
	Texture() Texture
	Desc() TargetDesc
	Release()
}

// Program is a compiled vertex/fragment pair.
type Program interface {
	Name() string
	Release()
}

// Mesh is an uploaded triangle list with a UV per vertex.
type Mesh interface {
	VertexCount() int
	Release()
}

// VertexBuffer is an uploaded per-vertex float attribute.
type VertexBuffer interface {
	Len() int
	Components() int
	Release()
}

// Uniforms carries the values a draw binds to its program.
type Uniforms struct {
	Floats   map[string]float32
	Vec3s    map[string]mgl32.Vec3
	Matrices map[string]mgl32.Mat4
	Textures map[string]Texture
}

// NewUniforms returns an empty, writable uniform set.
func NewUniforms() Uniforms {
	return Uniforms{
		Floats:   make(map[string]float32),
		Vec3s:    make(map[string]mgl32.Vec3),
		Matrices: make(map[string]mgl32.Mat4),
		Textures: make(map[string]Texture),
	}
}

// Device is the host rendering context.
//
// SetRenderTarget(nil) redirects output to the main framebuffer. All methods
// must be called from the thread that owns the context.
type Device interface {
	CompileProgram(src ProgramSource) (Program, error)
	NewDataTexture(width, height int, data []float32) (Texture, error)
	NewRenderTarget(desc TargetDesc) (RenderTarget, error)
	NewMesh(positions, uvs []float32) (Mesh, error)
	NewVertexBuffer(data []float32, components int) (VertexBuffer, error)

	SetRenderTarget(rt RenderTarget) error
	Clear() error
	DrawMesh(p Program, m Mesh, u Uniforms) error
	DrawPoints(p Program, vb VertexBuffer, count int, u Uniforms, state PointState) error

	// ReadPixels copies a target's RGBA float contents back to the CPU.
	ReadPixels(rt RenderTarget) ([]float32, error)

	// Err reports and clears any error raised asynchronously by the context.
	Err() error
}
