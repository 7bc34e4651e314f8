// Package feedback drives the per-frame simulation loop: render the
// simulation quad into an off-screen float target, restore the main
// framebuffer, point the particle material at the fresh texture, draw the
// points, then advance time.
package feedback

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/pthm-cable/fboparticles/camera"
	"github.com/pthm-cable/fboparticles/gpu"
	"github.com/pthm-cable/fboparticles/particles"
	"github.com/pthm-cable/fboparticles/pointcloud"
	"github.com/pthm-cable/fboparticles/simulation"
)

// State is where the loop is within a frame.
type State int

const (
	Idle State = iota
	SimulatingPass
	Presenting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case SimulatingPass:
		return "simulating"
	case Presenting:
		return "presenting"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ErrClosed is returned by Frame after Close.
var ErrClosed = errors.New("feedback: loop closed")

// Options configure a loop. Variant selects the seed: ProceduralSeed scatters
// Size×Size particles, MeshSeed places Mesh (xyz triples) on a grid sized to
// fit it and ignores Size.
type Options struct {
	Variant   simulation.Variant
	Size      int
	Mesh      []float32
	Frequency float32
	Amplitude float32
	Seed      int64
	Camera    camera.Ortho
	Points    pointcloud.Options
}

// DefaultOptions returns a 128×128 procedural loop.
func DefaultOptions() Options {
	return Options{
		Variant:   simulation.ProceduralSeed,
		Size:      128,
		Frequency: simulation.DefaultFrequency,
		Amplitude: simulation.DefaultAmplitude(simulation.ProceduralSeed),
		Seed:      1,
		Camera:    camera.NewSim(),
		Points:    pointcloud.DefaultOptions(),
	}
}

// Loop owns the simulation scene (quad, program, camera), the render target
// and the point cloud for its whole lifetime.
type Loop struct {
	opts   Options
	state  State
	frames uint64
	closed bool

	seed    *particles.StateTexture
	seedTex gpu.Texture
	quad    gpu.Mesh
	sim     gpu.Program
	program *simulation.Program
	target  gpu.RenderTarget
	points  *pointcloud.Renderer
}

// New builds every GPU object the loop needs. Any failure is a setup failure;
// objects created before it are released.
func New(dev gpu.Device, opts Options) (*Loop, error) {
	l := &Loop{opts: opts}
	if err := l.setup(dev); err != nil {
		l.release()
		return nil, err
	}

	slog.Info("feedback loop ready",
		"variant", opts.Variant.String(),
		"size", l.seed.Size,
		"particles", l.seed.Count,
		"padding", opts.Points.Padding.String(),
		"frequency", opts.Frequency,
	)
	return l, nil
}

func setupErr(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", gpu.ErrSetup, what, err)
}

func (l *Loop) setup(dev gpu.Device) error {
	seed, err := buildSeed(l.opts)
	if err != nil {
		return setupErr("building seed state", err)
	}
	l.seed = seed

	l.seedTex, err = dev.NewDataTexture(seed.Size, seed.Size, seed.Data)
	if err != nil {
		return setupErr("uploading seed texture", err)
	}

	l.quad, err = dev.NewMesh(simulation.QuadPositions, simulation.QuadUVs)
	if err != nil {
		return setupErr("uploading simulation quad", err)
	}

	l.program = simulation.NewProgram(l.opts.Variant)
	l.program.Frequency = l.opts.Frequency
	l.program.Amplitude = l.opts.Amplitude
	l.sim, err = dev.CompileProgram(l.program.Source())
	if err != nil {
		return setupErr("compiling simulation program", err)
	}

	l.target, err = dev.NewRenderTarget(TargetDescFor(seed.Size))
	if err != nil {
		return setupErr("allocating render target", err)
	}

	l.points, err = pointcloud.New(dev, seed.Size, seed.Count, l.opts.Points)
	if err != nil {
		return err
	}

	if err := dev.Err(); err != nil {
		return setupErr("device", err)
	}
	return nil
}

func buildSeed(opts Options) (*particles.StateTexture, error) {
	switch opts.Variant {
	case simulation.MeshSeed:
		if len(opts.Mesh) == 0 {
			return nil, particles.ErrNoVertices
		}
		if len(opts.Mesh)%3 != 0 {
			return nil, fmt.Errorf("mesh has %d floats, not whole xyz triples", len(opts.Mesh))
		}
		size, err := particles.GridSize(len(opts.Mesh) / 3)
		if err != nil {
			return nil, err
		}
		return particles.FromMesh(size, opts.Mesh)
	case simulation.ProceduralSeed:
		return particles.Procedural(opts.Size, rand.New(rand.NewSource(opts.Seed)))
	}
	return nil, fmt.Errorf("unknown variant %s", opts.Variant)
}

// Frame runs one feedback step and draws the point cloud through view.
//
// Order is fixed: bind target, clear, draw the quad through the simulation
// program, bind the main framebuffer, hand the target's texture to the point
// material, draw points, advance uTime to elapsed. The main framebuffer is
// rebound even when the simulation pass fails. Errors wrap gpu.ErrFrame and
// leave the loop ready for the next call.
func (l *Loop) Frame(dev gpu.Device, elapsed float64, view camera.ViewProjection) error {
	if l.closed {
		return ErrClosed
	}
	defer func() {
		l.program.Time = float32(elapsed)
		l.frames++
		l.state = Idle
	}()

	l.state = SimulatingPass
	if err := l.simulate(dev); err != nil {
		_ = dev.SetRenderTarget(nil)
		return frameErr("simulation pass", err)
	}
	if err := dev.SetRenderTarget(nil); err != nil {
		return frameErr("restoring main framebuffer", err)
	}

	l.state = Presenting
	l.points.Bind(l.target.Texture())
	if err := l.points.Draw(dev, view); err != nil {
		return frameErr("drawing points", err)
	}

	if err := dev.Err(); err != nil {
		return frameErr("device", err)
	}
	return nil
}

func (l *Loop) simulate(dev gpu.Device) error {
	if err := dev.SetRenderTarget(l.target); err != nil {
		return err
	}
	if err := dev.Clear(); err != nil {
		return err
	}
	return dev.DrawMesh(l.sim, l.quad, l.program.Uniforms(l.seedTex, l.opts.Camera.Matrix()))
}

func frameErr(step string, err error) error {
	return fmt.Errorf("%w: %s: %w", gpu.ErrFrame, step, err)
}

// Rebuild replaces every GPU object with ones built from opts. A new grid
// size always means a new render target; targets are never resized.
func (l *Loop) Rebuild(dev gpu.Device, opts Options) error {
	if l.closed {
		return ErrClosed
	}
	next, err := New(dev, opts)
	if err != nil {
		return err
	}
	l.release()
	*l = *next
	return nil
}

// SetFrequency sets uFrequency for the following frames.
func (l *Loop) SetFrequency(f float32) {
	l.program.Frequency = f
	l.opts.Frequency = f
}

// SetAmplitude sets uAmplitude for the following frames.
func (l *Loop) SetAmplitude(a float32) {
	l.program.Amplitude = a
	l.opts.Amplitude = a
}

// SetPointOptions changes the point cloud appearance.
func (l *Loop) SetPointOptions(opts pointcloud.Options) {
	l.points.SetOptions(opts)
	l.opts.Points = opts
}

// Snapshot reads the state texture produced by the last frame.
func (l *Loop) Snapshot(dev gpu.Device) ([]float32, error) {
	if l.closed {
		return nil, ErrClosed
	}
	return dev.ReadPixels(l.target)
}

// State returns where the loop is within a frame.
func (l *Loop) State() State { return l.state }

// Frames returns how many frames have run.
func (l *Loop) Frames() uint64 { return l.frames }

// Size returns the grid side.
func (l *Loop) Size() int { return l.seed.Size }

// Count returns the number of real particles.
func (l *Loop) Count() int { return l.seed.Count }

// Frequency returns the current uFrequency.
func (l *Loop) Frequency() float32 { return l.program.Frequency }

// Time returns the uTime the next simulation pass will read.
func (l *Loop) Time() float32 { return l.program.Time }

// Options returns the options the loop currently runs with.
func (l *Loop) Options() Options { return l.opts }

// Program returns the simulation uniforms.
func (l *Loop) Program() simulation.Program { return *l.program }

// Seed returns the initial state the simulation pass samples.
func (l *Loop) Seed() *particles.StateTexture { return l.seed }

// Target returns the off-screen render target.
func (l *Loop) Target() gpu.RenderTarget { return l.target }

// Points returns the point cloud renderer.
func (l *Loop) Points() *pointcloud.Renderer { return l.points }

// Close releases every GPU object. Safe to call twice.
func (l *Loop) Close() {
	if l.closed {
		return
	}
	l.release()
	l.closed = true
}

func (l *Loop) release() {
	if l.points != nil {
		l.points.Release()
		l.points = nil
	}
	if l.target != nil {
		l.target.Release()
		l.target = nil
	}
	if l.sim != nil {
		l.sim.Release()
		l.sim = nil
	}
	if l.quad != nil {
		l.quad.Release()
		l.quad = nil
	}
	if l.seedTex != nil {
		l.seedTex.Release()
		l.seedTex = nil
	}
}
