package simulation

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/fboparticles/gpu"
)

// QuadPositions is the bi-unit quad as two counter-clockwise triangles.
var QuadPositions = []float32{
	-1, -1, 0,
	1, -1, 0,
	1, 1, 0,
	-1, -1, 0,
	1, 1, 0,
	-1, 1, 0,
}

// QuadUVs maps the quad corners onto [0,1]².
var QuadUVs = []float32{
	0, 0, // bottom-left
	1, 0, // bottom-right
	1, 1, // top-right
	0, 0, // bottom-left
	1, 1, // top-right
	0, 1, // top-left
}

// Program holds the uniform values of the simulation pass. The feedback
// driver is the only writer.
type Program struct {
	Variant   Variant
	Frequency float32
	Amplitude float32
	Time      float32
}

// NewProgram returns a program at t = 0 with the default frequency and the
// variant's default amplitude.
func NewProgram(v Variant) *Program {
	return &Program{
		Variant:   v,
		Frequency: DefaultFrequency,
		Amplitude: DefaultAmplitude(v),
	}
}

// Source returns the shader pair for the program's variant.
func (p *Program) Source() gpu.ProgramSource {
	return Source(p.Variant)
}

// Uniforms binds the seed texture and the current scalar values.
func (p *Program) Uniforms(positions gpu.Texture, mvp mgl32.Mat4) gpu.Uniforms {
	u := gpu.NewUniforms()
	u.Textures[UniformPositions] = positions
	u.Floats[UniformTime] = p.Time
	u.Floats[UniformFrequency] = p.Frequency
	u.Floats[UniformAmplitude] = p.Amplitude
	u.Matrices[UniformMVP] = mvp
	return u
}

// Step applies the program to a CPU copy of the state, the same way one pass
// over the full-screen quad would.
func (p *Program) Step(seed []float32) []float32 {
	perturb := PerturbationFor(p.Variant)
	out := make([]float32, len(seed))
	for i := 0; i+3 < len(seed); i += 4 {
		q := perturb(mgl32.Vec3{seed[i], seed[i+1], seed[i+2]}, p.Time, p.Frequency, p.Amplitude)
		out[i], out[i+1], out[i+2], out[i+3] = q[0], q[1], q[2], 1
	}
	return out
}
