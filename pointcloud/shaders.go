package pointcloud

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/fboparticles/gpu"
)

// Uniform names of the point program.
const (
	UniformPositions  = "uPositions"
	UniformView       = "uView"
	UniformProjection = "uProjection"
	UniformGridSize   = "uGridSize"
	UniformPointSize  = "uPointSize"
	UniformColor      = "uColor"
	UniformAlpha      = "uAlpha"
)

// The lookup coordinate addresses a texel corner; half a texel moves the
// sample onto the centre so nearest filtering never rounds into a neighbour.
const vertexGLSL = `#version 330
layout(location = 0) in vec2 aLookup;

uniform sampler2D uPositions;
uniform mat4 uView;
uniform mat4 uProjection;
uniform float uGridSize;
uniform float uPointSize;

void main() {
    vec3 pos = texture(uPositions, aLookup + vec2(0.5 / uGridSize)).xyz;
    vec4 viewPos = uView * vec4(pos, 1.0);
    gl_Position = uProjection * viewPos;
    gl_PointSize = uPointSize * (3.0 / max(-viewPos.z, 0.001));
}
`

const fragmentGLSL = `#version 330
uniform vec3 uColor;
uniform float uAlpha;

out vec4 fragColor;

void main() {
    float d = length(gl_PointCoord - vec2(0.5));
    if (d > 0.5) {
        discard;
    }
    float strength = 1.0 - d * 2.0;
    fragColor = vec4(uColor * strength, uAlpha * strength);
}
`

// Source returns the point program.
func Source() gpu.ProgramSource {
	return gpu.ProgramSource{
		Name:         "pointcloud",
		VertexGLSL:   vertexGLSL,
		FragmentGLSL: fragmentGLSL,
		Point:        pointStage,
	}
}

// pointStage is the CPU form of the vertex shader up to the world position.
func pointStage(attr []float32, env gpu.Env) mgl32.Vec3 {
	return SamplePosition(env.Samplers[UniformPositions], mgl32.Vec2{attr[0], attr[1]}, env.Floats[UniformGridSize])
}

// SamplePosition reads the world position stored for the particle whose
// lookup coordinate is lookup, on a grid of the given size.
func SamplePosition(s gpu.Sampler, lookup mgl32.Vec2, gridSize float32) mgl32.Vec3 {
	half := 0.5 / gridSize
	return s.Sample(lookup.Add(mgl32.Vec2{half, half})).Vec3()
}
