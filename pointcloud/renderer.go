// Package pointcloud draws one point per particle. Each vertex carries only a
// lookup coordinate; its world position comes from the state texture bound at
// draw time.
package pointcloud

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/fboparticles/camera"
	"github.com/pthm-cable/fboparticles/gpu"
	"github.com/pthm-cable/fboparticles/particles"
)

// PaddingPolicy decides what happens to texels past the last real particle.
type PaddingPolicy int

const (
	// PaddingHide draws only the texels that hold a real particle.
	PaddingHide PaddingPolicy = iota
	// PaddingShow draws every texel; padding shows up as points at the origin.
	PaddingShow
)

func (p PaddingPolicy) String() string {
	if p == PaddingShow {
		return "show"
	}
	return "hide"
}

// ParsePadding parses "hide" or "show".
func ParsePadding(s string) (PaddingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hide", "":
		return PaddingHide, nil
	case "show":
		return PaddingShow, nil
	}
	return 0, fmt.Errorf("pointcloud: unknown padding policy %q", s)
}

// State is the blend/depth state every point draw uses: contributions add up
// and points never write depth, so they glow through each other while still
// being depth tested against the rest of the scene.
var State = gpu.PointState{
	Blend:      gpu.BlendAdditive,
	DepthWrite: false,
	DepthTest:  true,
}

// Options are the appearance settings of the cloud.
type Options struct {
	PointSize float32
	Color     mgl32.Vec3
	Alpha     float32
	Padding   PaddingPolicy
}

// DefaultOptions returns a soft blue glow.
func DefaultOptions() Options {
	return Options{
		PointSize: 2,
		Color:     mgl32.Vec3{0.34, 0.53, 0.96},
		Alpha:     0.8,
		Padding:   PaddingHide,
	}
}

// Renderer owns the point program and the lookup coordinate buffer.
type Renderer struct {
	program gpu.Program
	lookup  gpu.VertexBuffer

	size    int
	visible int
	opts    Options

	positions gpu.Texture
}

// New compiles the point program and uploads size*size lookup coordinates.
// visible is the number of texels that hold real particles.
func New(dev gpu.Device, size, visible int, opts Options) (*Renderer, error) {
	if visible < 0 || visible > size*size {
		return nil, fmt.Errorf("%w: %d visible points on a %dx%d grid", gpu.ErrSetup, visible, size, size)
	}
	prog, err := dev.CompileProgram(Source())
	if err != nil {
		return nil, fmt.Errorf("%w: compiling point program: %w", gpu.ErrSetup, err)
	}
	lookup, err := dev.NewVertexBuffer(particles.LookupCoords(size), 2)
	if err != nil {
		prog.Release()
		return nil, fmt.Errorf("%w: uploading lookup coordinates: %w", gpu.ErrSetup, err)
	}
	return &Renderer{
		program: prog,
		lookup:  lookup,
		size:    size,
		visible: visible,
		opts:    opts,
	}, nil
}

// Bind points the material at the latest state texture. Nothing is copied.
func (r *Renderer) Bind(tex gpu.Texture) {
	r.positions = tex
}

// Bound returns the texture the next draw will sample.
func (r *Renderer) Bound() gpu.Texture {
	return r.positions
}

// Options returns the current appearance settings.
func (r *Renderer) Options() Options {
	return r.opts
}

// SetOptions replaces the appearance settings.
func (r *Renderer) SetOptions(opts Options) {
	r.opts = opts
}

// DrawCount is the number of points a draw emits under the padding policy.
func (r *Renderer) DrawCount() int {
	if r.opts.Padding == PaddingShow {
		return r.size * r.size
	}
	return r.visible
}

// Uniforms returns the values bound for a draw through view.
func (r *Renderer) Uniforms(view camera.ViewProjection) gpu.Uniforms {
	u := gpu.NewUniforms()
	u.Textures[UniformPositions] = r.positions
	u.Matrices[UniformView] = view.View
	u.Matrices[UniformProjection] = view.Projection
	u.Floats[UniformGridSize] = float32(r.size)
	u.Floats[UniformPointSize] = r.opts.PointSize
	u.Floats[UniformAlpha] = r.opts.Alpha
	u.Vec3s[UniformColor] = r.opts.Color
	return u
}

// Draw emits the point cloud into the current render destination.
func (r *Renderer) Draw(dev gpu.Device, view camera.ViewProjection) error {
	if r.positions == nil {
		return fmt.Errorf("pointcloud: no position texture bound")
	}
	return dev.DrawPoints(r.program, r.lookup, r.DrawCount(), r.Uniforms(view), State)
}

// Release frees the program and the lookup buffer.
func (r *Renderer) Release() {
	if r.program != nil {
		r.program.Release()
		r.program = nil
	}
	if r.lookup != nil {
		r.lookup.Release()
		r.lookup = nil
	}
	r.positions = nil
}
