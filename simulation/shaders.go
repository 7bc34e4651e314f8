package simulation

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/fboparticles/gpu"
)

// Uniform names shared by both variants.
const (
	UniformPositions = "positions"
	UniformTime      = "uTime"
	UniformFrequency = "uFrequency"
	UniformAmplitude = "uAmplitude"
	UniformMVP       = "uMVP"
)

const vertexGLSL = `#version 330
layout(location = 0) in vec3 vertexPosition;
layout(location = 1) in vec2 vertexTexCoord;

uniform mat4 uMVP;

out vec2 vUv;

void main() {
    vUv = vertexTexCoord;
    gl_Position = uMVP * vec4(vertexPosition, 1.0);
}
`

const wavyFragmentGLSL = `#version 330
in vec2 vUv;
out vec4 fragColor;

uniform sampler2D positions;
uniform float uTime;
uniform float uFrequency;
uniform float uAmplitude;

void main() {
    vec3 pos = texture(positions, vUv).xyz;
    float s = sin(uTime * uFrequency);
    vec3 wave = vec3(
        sin(pos.y * 3.0 + uTime),
        sin(pos.z * 3.0 + uTime),
        sin(pos.x * 3.0 + uTime)
    );
    pos += wave * (uAmplitude * s);
    fragColor = vec4(pos, 1.0);
}
`

const meshFragmentGLSL = `#version 330
in vec2 vUv;
out vec4 fragColor;

uniform sampler2D positions;
uniform float uTime;
uniform float uFrequency;
uniform float uAmplitude;

void main() {
    vec3 pos = texture(positions, vUv).xyz;
    float s = sin(2.0 * uTime * uFrequency);
    pos += pos * (uAmplitude * s);
    pos.y += 0.5 * uAmplitude * s * sin(pos.x * 4.0 + uTime);
    fragColor = vec4(pos, 1.0);
}
`

// Source returns the program for v. The CPU stages compute the same values
// as the GLSL, in float32.
func Source(v Variant) gpu.ProgramSource {
	src := gpu.ProgramSource{
		Name:       "simulation/" + v.String(),
		VertexGLSL: vertexGLSL,
		Vertex:     vertexStage,
	}
	if v == MeshSeed {
		src.FragmentGLSL = meshFragmentGLSL
		src.Fragment = fragmentStage(Breathe)
	} else {
		src.FragmentGLSL = wavyFragmentGLSL
		src.Fragment = fragmentStage(Wobble)
	}
	return src
}

func vertexStage(pos mgl32.Vec3, env gpu.Env) mgl32.Vec4 {
	return env.Matrices[UniformMVP].Mul4x1(pos.Vec4(1))
}

// Perturbation moves one seed position at time t.
type Perturbation func(p mgl32.Vec3, t, frequency, amplitude float32) mgl32.Vec3

func fragmentStage(perturb Perturbation) gpu.FragmentFunc {
	return func(uv mgl32.Vec2, env gpu.Env) mgl32.Vec4 {
		base := env.Samplers[UniformPositions].Sample(uv).Vec3()
		p := perturb(base,
			env.Floats[UniformTime],
			env.Floats[UniformFrequency],
			env.Floats[UniformAmplitude],
		)
		return p.Vec4(1)
	}
}

// Wobble is the procedural-seed perturbation. It is the identity at t = 0.
func Wobble(p mgl32.Vec3, t, frequency, amplitude float32) mgl32.Vec3 {
	s := sin32(t * frequency)
	wave := mgl32.Vec3{
		sin32(p[1]*3 + t),
		sin32(p[2]*3 + t),
		sin32(p[0]*3 + t),
	}
	return p.Add(wave.Mul(amplitude * s))
}

// Breathe is the mesh-seed perturbation. It is the identity at t = 0.
func Breathe(p mgl32.Vec3, t, frequency, amplitude float32) mgl32.Vec3 {
	s := sin32(2 * t * frequency)
	out := p.Add(p.Mul(amplitude * s))
	out[1] += 0.5 * amplitude * s * sin32(out[0]*4+t)
	return out
}

// PerturbationFor returns the CPU form of v's fragment stage.
func PerturbationFor(v Variant) Perturbation {
	if v == MeshSeed {
		return Breathe
	}
	return Wobble
}

func sin32(x float32) float32 {
	return float32(math.Sin(float64(x)))
}
