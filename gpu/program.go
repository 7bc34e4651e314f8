package gpu

import "github.com/go-gl/mathgl/mgl32"

// Sampler reads a texture at a normalized coordinate.
type Sampler interface {
	Sample(uv mgl32.Vec2) mgl32.Vec4
}

// Env is the uniform environment visible to CPU program stages.
type Env struct {
	Floats   map[string]float32
	Vec3s    map[string]mgl32.Vec3
	Matrices map[string]mgl32.Mat4
	Samplers map[string]Sampler
}

// VertexFunc maps an object-space position to a clip-space position.
type VertexFunc func(pos mgl32.Vec3, env Env) mgl32.Vec4

// FragmentFunc computes the colour of a fragment from its interpolated UV.
type FragmentFunc func(uv mgl32.Vec2, env Env) mgl32.Vec4

// PointFunc resolves the world position of a point from its vertex attribute.
type PointFunc func(attr []float32, env Env) mgl32.Vec3

// ProgramSource is everything a Device needs to build a Program.
//
// Hardware devices compile the GLSL pair. The CPU stages mirror the GLSL and
// are run by devices without a shader compiler; a program that only has one
// of the two forms can only be compiled by the matching kind of device.
type ProgramSource struct {
	Name         string
	VertexGLSL   string
	FragmentGLSL string

	Vertex   VertexFunc
	Fragment FragmentFunc
	Point    PointFunc
}
