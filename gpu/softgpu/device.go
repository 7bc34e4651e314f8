// Package softgpu is a software gpu.Device. It runs programs through their CPU
// stages, rasterizes into float32 buffers and keeps a log of every state
// change and draw so callers can check ordering without a GPU.
package softgpu

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/fboparticles/gpu"
)

// Device is a single-threaded software rendering context.
type Device struct {
	width, height int
	screen        *texture

	current *target
	nextID  uint32
	live    map[uint32]string

	ops         []Op
	allocations []gpu.TargetDesc
	presented   []mgl32.Vec3
	lastState   gpu.PointState
	writes      []int

	fault    error
	asyncErr error
}

// New creates a device whose main framebuffer is width×height.
func New(width, height int) *Device {
	d := &Device{
		width:  width,
		height: height,
		live:   make(map[uint32]string),
	}
	d.screen = &texture{id: 0, width: width, height: height, data: make([]float32, width*height*4), float: true, nearest: true}
	return d
}

func (d *Device) allocID(kind string) uint32 {
	d.nextID++
	d.live[d.nextID] = kind
	return d.nextID
}

func (d *Device) free(id uint32) {
	delete(d.live, id)
}

// Live returns how many GPU objects have not been released.
func (d *Device) Live() int {
	return len(d.live)
}

// Ops returns the recorded operation log.
func (d *Device) Ops() []Op {
	return d.ops
}

// ResetOps clears the operation log.
func (d *Device) ResetOps() {
	d.ops = d.ops[:0]
}

// Allocations returns the descriptors of every render target allocated so far.
func (d *Device) Allocations() []gpu.TargetDesc {
	return d.allocations
}

// Presented returns the world positions resolved by the last point draw.
func (d *Device) Presented() []mgl32.Vec3 {
	return d.presented
}

// LastPointState returns the fixed-function state of the last point draw.
func (d *Device) LastPointState() gpu.PointState {
	return d.lastState
}

// Writes returns how many fragments landed on each texel of the destination
// during the last mesh draw.
func (d *Device) Writes() []int {
	return d.writes
}

// InjectFault makes the next draw call fail with err.
func (d *Device) InjectFault(err error) {
	d.fault = err
}

// InjectAsyncError makes the next Err call report err.
func (d *Device) InjectAsyncError(err error) {
	d.asyncErr = err
}

func (d *Device) takeFault() error {
	err := d.fault
	d.fault = nil
	return err
}

// CompileProgram implements gpu.Device. Programs need CPU stages here.
func (d *Device) CompileProgram(src gpu.ProgramSource) (gpu.Program, error) {
	if src.Point == nil && (src.Vertex == nil || src.Fragment == nil) {
		return nil, fmt.Errorf("%w: program %q has no CPU stages", gpu.ErrSetup, src.Name)
	}
	p := &program{dev: d, src: src}
	p.id = d.allocID("program")
	return p, nil
}

// NewDataTexture implements gpu.Device.
func (d *Device) NewDataTexture(width, height int, data []float32) (gpu.Texture, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: texture size %dx%d", gpu.ErrSetup, width, height)
	}
	if len(data) != width*height*4 {
		return nil, fmt.Errorf("%w: texture data has %d floats, want %d", gpu.ErrSetup, len(data), width*height*4)
	}
	t := &texture{dev: d, width: width, height: height, data: append([]float32(nil), data...), float: true, nearest: true}
	t.id = d.allocID("texture")
	return t, nil
}

// NewRenderTarget implements gpu.Device.
func (d *Device) NewRenderTarget(desc gpu.TargetDesc) (gpu.RenderTarget, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("%w: render target size %dx%d", gpu.ErrSetup, desc.Width, desc.Height)
	}
	if desc.Format != gpu.FormatRGBA {
		return nil, fmt.Errorf("%w: unsupported target format %d", gpu.ErrSetup, desc.Format)
	}
	d.allocations = append(d.allocations, desc)
	tex := &texture{
		dev:     d,
		width:   desc.Width,
		height:  desc.Height,
		data:    make([]float32, desc.Width*desc.Height*4),
		float:   desc.Type == gpu.ComponentFloat32,
		nearest: desc.MinFilter == gpu.FilterNearest && desc.MagFilter == gpu.FilterNearest,
	}
	tex.id = d.allocID("target-texture")
	t := &target{dev: d, desc: desc, tex: tex}
	t.id = d.allocID("target")
	return t, nil
}

// NewMesh implements gpu.Device.
func (d *Device) NewMesh(positions, uvs []float32) (gpu.Mesh, error) {
	if len(positions)%9 != 0 || len(positions) == 0 {
		return nil, fmt.Errorf("%w: mesh needs whole triangles, got %d position floats", gpu.ErrSetup, len(positions))
	}
	if len(uvs)/2 != len(positions)/3 {
		return nil, fmt.Errorf("%w: mesh has %d positions but %d uvs", gpu.ErrSetup, len(positions)/3, len(uvs)/2)
	}
	m := &mesh{dev: d, positions: append([]float32(nil), positions...), uvs: append([]float32(nil), uvs...)}
	m.id = d.allocID("mesh")
	return m, nil
}

// NewVertexBuffer implements gpu.Device.
func (d *Device) NewVertexBuffer(data []float32, components int) (gpu.VertexBuffer, error) {
	if components <= 0 || len(data)%components != 0 {
		return nil, fmt.Errorf("%w: %d floats do not split into %d components", gpu.ErrSetup, len(data), components)
	}
	vb := &vertexBuffer{dev: d, data: append([]float32(nil), data...), components: components}
	vb.id = d.allocID("vertex-buffer")
	return vb, nil
}

// SetRenderTarget implements gpu.Device.
func (d *Device) SetRenderTarget(rt gpu.RenderTarget) error {
	if rt == nil {
		d.current = nil
		d.ops = append(d.ops, Op{Kind: OpBindMain})
		return nil
	}
	t, ok := rt.(*target)
	if !ok || t.dev != d {
		return fmt.Errorf("render target %T does not belong to this device", rt)
	}
	if t.released {
		return fmt.Errorf("render target %d used after release", t.id)
	}
	d.current = t
	d.ops = append(d.ops, Op{Kind: OpBindTarget, Target: t.id})
	return nil
}

func (d *Device) destination() *texture {
	if d.current == nil {
		return d.screen
	}
	return d.current.tex
}

// Clear implements gpu.Device.
func (d *Device) Clear() error {
	dst := d.destination()
	clear(dst.data)
	d.ops = append(d.ops, Op{Kind: OpClear, Target: d.currentID()})
	return nil
}

func (d *Device) currentID() uint32 {
	if d.current == nil {
		return 0
	}
	return d.current.id
}

// DrawMesh implements gpu.Device.
func (d *Device) DrawMesh(p gpu.Program, m gpu.Mesh, u gpu.Uniforms) error {
	if err := d.takeFault(); err != nil {
		return err
	}
	prog, ok := p.(*program)
	if !ok || prog.src.Vertex == nil || prog.src.Fragment == nil {
		return fmt.Errorf("program %v cannot draw meshes on a software device", p)
	}
	sm, ok := m.(*mesh)
	if !ok {
		return fmt.Errorf("mesh %T does not belong to this device", m)
	}
	env, err := d.env(u)
	if err != nil {
		return err
	}

	dst := d.destination()
	if d.current != nil {
		for _, tex := range u.Textures {
			if t, ok := tex.(*texture); ok && t == dst {
				return fmt.Errorf("texture %d is both sampled and written", t.id)
			}
		}
	}

	d.writes = make([]int, dst.width*dst.height)
	rasterize(sm, prog.src, env, dst, d.writes)
	dst.generation++
	d.ops = append(d.ops, Op{Kind: OpDrawMesh, Target: d.currentID(), Texture: dst.id, Generation: dst.generation})
	return nil
}

// DrawPoints implements gpu.Device. Each point's world position is resolved
// through the program's CPU point stage and kept for Presented.
func (d *Device) DrawPoints(p gpu.Program, vb gpu.VertexBuffer, count int, u gpu.Uniforms, state gpu.PointState) error {
	if err := d.takeFault(); err != nil {
		return err
	}
	prog, ok := p.(*program)
	if !ok || prog.src.Point == nil {
		return fmt.Errorf("program %v cannot draw points on a software device", p)
	}
	buf, ok := vb.(*vertexBuffer)
	if !ok {
		return fmt.Errorf("vertex buffer %T does not belong to this device", vb)
	}
	if count < 0 || count > buf.Len() {
		return fmt.Errorf("point count %d outside buffer of %d", count, buf.Len())
	}
	env, err := d.env(u)
	if err != nil {
		return err
	}

	d.presented = d.presented[:0]
	c := buf.components
	for i := 0; i < count; i++ {
		d.presented = append(d.presented, prog.src.Point(buf.data[i*c:(i+1)*c], env))
	}
	d.lastState = state

	op := Op{Kind: OpDrawPoints, Target: d.currentID()}
	for _, tex := range u.Textures {
		if t, ok := tex.(*texture); ok {
			op.Texture = t.id
			op.Generation = t.generation
		}
	}
	d.ops = append(d.ops, op)
	return nil
}

// ReadPixels implements gpu.Device.
func (d *Device) ReadPixels(rt gpu.RenderTarget) ([]float32, error) {
	t, ok := rt.(*target)
	if !ok || t.dev != d {
		return nil, fmt.Errorf("render target %T does not belong to this device", rt)
	}
	return append([]float32(nil), t.tex.data...), nil
}

// Err implements gpu.Device.
func (d *Device) Err() error {
	err := d.asyncErr
	d.asyncErr = nil
	return err
}

func (d *Device) env(u gpu.Uniforms) (gpu.Env, error) {
	env := gpu.Env{
		Floats:   u.Floats,
		Vec3s:    u.Vec3s,
		Matrices: u.Matrices,
		Samplers: make(map[string]gpu.Sampler, len(u.Textures)),
	}
	for name, tex := range u.Textures {
		t, ok := tex.(*texture)
		if !ok || t.dev != d {
			return env, fmt.Errorf("uniform %q: texture %T does not belong to this device", name, tex)
		}
		if t.released {
			return env, fmt.Errorf("uniform %q: texture %d used after release", name, t.id)
		}
		env.Samplers[name] = t
	}
	return env, nil
}
