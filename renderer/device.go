// Package renderer implements gpu.Device on the OpenGL context raylib opens.
// raylib compiles shaders and manages framebuffer objects; float textures,
// vertex arrays and the point draw go through go-gl on the same context,
// after raylib's batch has been flushed.
package renderer

import (
	"fmt"
	"sort"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/pthm-cable/fboparticles/gpu"
)

// Device draws on the current raylib window. Create it after rl.InitWindow
// and use it from the thread that owns the window.
type Device struct {
	current *target
}

// New loads the GL entry points for the context raylib created.
func New() (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("%w: loading OpenGL: %w", gpu.ErrSetup, err)
	}
	return &Device{}, nil
}

// CompileProgram implements gpu.Device.
func (d *Device) CompileProgram(src gpu.ProgramSource) (gpu.Program, error) {
	if src.VertexGLSL == "" || src.FragmentGLSL == "" {
		return nil, fmt.Errorf("%w: program %q has no GLSL", gpu.ErrSetup, src.Name)
	}
	shader := rl.LoadShaderFromMemory(src.VertexGLSL, src.FragmentGLSL)
	// raylib falls back to its default shader when compilation fails.
	if !rl.IsShaderValid(shader) || shader.ID == rl.GetShaderIdDefault() {
		return nil, fmt.Errorf("%w: compiling program %q", gpu.ErrSetup, src.Name)
	}
	return &program{
		name:   src.Name,
		shader: shader,
		locs:   make(map[string]int32),
	}, nil
}

// NewDataTexture implements gpu.Device.
func (d *Device) NewDataTexture(width, height int, data []float32) (gpu.Texture, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: texture size %dx%d", gpu.ErrSetup, width, height)
	}
	if len(data) != width*height*4 {
		return nil, fmt.Errorf("%w: texture data has %d floats, want %d", gpu.ErrSetup, len(data), width*height*4)
	}
	rl.DrawRenderBatchActive()
	tex := newFloatTexture(width, height, gl.NEAREST, gl.NEAREST, data)
	if err := glError(); err != nil {
		tex.Release()
		return nil, fmt.Errorf("%w: uploading texture: %w", gpu.ErrSetup, err)
	}
	return tex, nil
}

// NewRenderTarget implements gpu.Device.
func (d *Device) NewRenderTarget(desc gpu.TargetDesc) (gpu.RenderTarget, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("%w: render target size %dx%d", gpu.ErrSetup, desc.Width, desc.Height)
	}
	if desc.Format != gpu.FormatRGBA {
		return nil, fmt.Errorf("%w: unsupported target format %d", gpu.ErrSetup, desc.Format)
	}
	if desc.Type != gpu.ComponentFloat32 {
		return nil, fmt.Errorf("%w: render targets must be float32, got %s", gpu.ErrSetup, desc.Type)
	}
	if desc.Depth || desc.Stencil {
		return nil, fmt.Errorf("%w: depth and stencil attachments are not supported", gpu.ErrSetup)
	}

	rl.DrawRenderBatchActive()
	tex := newFloatTexture(desc.Width, desc.Height, glFilter(desc.MinFilter), glFilter(desc.MagFilter), nil)

	fbo := rl.LoadFramebuffer()
	if fbo == 0 {
		tex.Release()
		return nil, fmt.Errorf("%w: creating framebuffer", gpu.ErrSetup)
	}
	rl.FramebufferAttach(fbo, tex.id, rl.AttachmentColorChannel0, rl.AttachmentTexture2d, 0)
	if !rl.FramebufferComplete(fbo) {
		rl.UnloadFramebuffer(fbo)
		tex.Release()
		return nil, fmt.Errorf("%w: framebuffer %d incomplete", gpu.ErrSetup, fbo)
	}
	if err := glError(); err != nil {
		rl.UnloadFramebuffer(fbo)
		tex.Release()
		return nil, fmt.Errorf("%w: allocating render target: %w", gpu.ErrSetup, err)
	}
	return &target{dev: d, fbo: fbo, desc: desc, tex: tex}, nil
}

func glFilter(f gpu.Filter) int32 {
	if f == gpu.FilterLinear {
		return gl.LINEAR
	}
	return gl.NEAREST
}

// NewMesh implements gpu.Device.
func (d *Device) NewMesh(positions, uvs []float32) (gpu.Mesh, error) {
	if len(positions)%9 != 0 || len(positions) == 0 {
		return nil, fmt.Errorf("%w: mesh needs whole triangles, got %d position floats", gpu.ErrSetup, len(positions))
	}
	if len(uvs)/2 != len(positions)/3 {
		return nil, fmt.Errorf("%w: mesh has %d positions but %d uvs", gpu.ErrSetup, len(positions)/3, len(uvs)/2)
	}
	rl.DrawRenderBatchActive()
	m := &mesh{count: int32(len(positions) / 3)}
	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)
	m.vbos[0] = uploadAttrib(0, 3, positions)
	m.vbos[1] = uploadAttrib(1, 2, uvs)
	gl.BindVertexArray(0)
	if err := glError(); err != nil {
		m.Release()
		return nil, fmt.Errorf("%w: uploading mesh: %w", gpu.ErrSetup, err)
	}
	return m, nil
}

// NewVertexBuffer implements gpu.Device.
func (d *Device) NewVertexBuffer(data []float32, components int) (gpu.VertexBuffer, error) {
	if components <= 0 || components > 4 || len(data)%components != 0 || len(data) == 0 {
		return nil, fmt.Errorf("%w: %d floats do not split into %d components", gpu.ErrSetup, len(data), components)
	}
	rl.DrawRenderBatchActive()
	vb := &vertexBuffer{n: len(data) / components, components: components}
	gl.GenVertexArrays(1, &vb.vao)
	gl.BindVertexArray(vb.vao)
	vb.vbo = uploadAttrib(0, int32(components), data)
	gl.BindVertexArray(0)
	if err := glError(); err != nil {
		vb.Release()
		return nil, fmt.Errorf("%w: uploading vertex buffer: %w", gpu.ErrSetup, err)
	}
	return vb, nil
}

func uploadAttrib(location uint32, size int32, data []float32) uint32 {
	var vbo uint32
	gl.GenBuffers(1, &vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(location)
	gl.VertexAttribPointerWithOffset(location, size, gl.FLOAT, false, size*4, 0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return vbo
}

// SetRenderTarget implements gpu.Device. nil selects the window.
func (d *Device) SetRenderTarget(rt gpu.RenderTarget) error {
	rl.DrawRenderBatchActive()
	if rt == nil {
		rl.DisableFramebuffer()
		rl.Viewport(0, 0, int32(rl.GetRenderWidth()), int32(rl.GetRenderHeight()))
		d.current = nil
		return nil
	}
	t, ok := rt.(*target)
	if !ok || t.dev != d {
		return fmt.Errorf("render target %T does not belong to this device", rt)
	}
	if t.fbo == 0 {
		return fmt.Errorf("render target used after release")
	}
	rl.EnableFramebuffer(t.fbo)
	rl.Viewport(0, 0, int32(t.desc.Width), int32(t.desc.Height))
	d.current = t
	return nil
}

// Clear implements gpu.Device. Off-screen targets clear to transparent black.
func (d *Device) Clear() error {
	rl.DrawRenderBatchActive()
	gl.ClearColor(0, 0, 0, 0)
	if d.current == nil {
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
		return nil
	}
	gl.Clear(gl.COLOR_BUFFER_BIT)
	return nil
}

// DrawMesh implements gpu.Device. Blending and depth testing are off for the
// pass so every fragment lands unmodified.
func (d *Device) DrawMesh(p gpu.Program, m gpu.Mesh, u gpu.Uniforms) error {
	prog, ok := p.(*program)
	if !ok || prog.shader.ID == 0 {
		return fmt.Errorf("program %v does not belong to this device", p)
	}
	gm, ok := m.(*mesh)
	if !ok || gm.vao == 0 {
		return fmt.Errorf("mesh %T does not belong to this device", m)
	}
	if d.current != nil {
		for name, tex := range u.Textures {
			if tex != nil && tex.ID() == d.current.tex.id {
				return fmt.Errorf("uniform %q samples the texture being written", name)
			}
		}
	}

	rl.DrawRenderBatchActive()
	restore := saveState()
	defer restore()
	gl.Disable(gl.BLEND)
	gl.Disable(gl.DEPTH_TEST)

	if err := prog.bind(u); err != nil {
		return err
	}
	gl.BindVertexArray(gm.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, gm.count)
	gl.BindVertexArray(0)
	return nil
}

// DrawPoints implements gpu.Device.
func (d *Device) DrawPoints(p gpu.Program, vb gpu.VertexBuffer, count int, u gpu.Uniforms, state gpu.PointState) error {
	prog, ok := p.(*program)
	if !ok || prog.shader.ID == 0 {
		return fmt.Errorf("program %v does not belong to this device", p)
	}
	buf, ok := vb.(*vertexBuffer)
	if !ok || buf.vao == 0 {
		return fmt.Errorf("vertex buffer %T does not belong to this device", vb)
	}
	if count < 0 || count > buf.n {
		return fmt.Errorf("point count %d outside buffer of %d", count, buf.n)
	}
	if count == 0 {
		return nil
	}

	rl.DrawRenderBatchActive()
	restore := saveState()
	defer restore()

	gl.Enable(gl.PROGRAM_POINT_SIZE)
	gl.Enable(gl.BLEND)
	if state.Blend == gpu.BlendAdditive {
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE)
	} else {
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	}
	gl.DepthMask(state.DepthWrite)
	if state.DepthTest {
		gl.Enable(gl.DEPTH_TEST)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}

	if err := prog.bind(u); err != nil {
		return err
	}
	gl.BindVertexArray(buf.vao)
	gl.DrawArrays(gl.POINTS, 0, int32(count))
	gl.BindVertexArray(0)
	return nil
}

// saveState records the fixed-function state a draw may change and returns
// a func that puts it back for raylib.
func saveState() func() {
	blend := gl.IsEnabled(gl.BLEND)
	depth := gl.IsEnabled(gl.DEPTH_TEST)
	pointSize := gl.IsEnabled(gl.PROGRAM_POINT_SIZE)
	var depthMask bool
	gl.GetBooleanv(gl.DEPTH_WRITEMASK, &depthMask)
	var src, dst int32
	gl.GetIntegerv(gl.BLEND_SRC_RGB, &src)
	gl.GetIntegerv(gl.BLEND_DST_RGB, &dst)

	return func() {
		gl.UseProgram(0)
		gl.ActiveTexture(gl.TEXTURE0)
		gl.BindTexture(gl.TEXTURE_2D, 0)
		setEnabled(gl.BLEND, blend)
		setEnabled(gl.DEPTH_TEST, depth)
		setEnabled(gl.PROGRAM_POINT_SIZE, pointSize)
		gl.DepthMask(depthMask)
		gl.BlendFunc(uint32(src), uint32(dst))
	}
}

func setEnabled(capability uint32, on bool) {
	if on {
		gl.Enable(capability)
	} else {
		gl.Disable(capability)
	}
}

// ReadPixels implements gpu.Device.
func (d *Device) ReadPixels(rt gpu.RenderTarget) ([]float32, error) {
	t, ok := rt.(*target)
	if !ok || t.dev != d || t.fbo == 0 {
		return nil, fmt.Errorf("render target %T cannot be read", rt)
	}
	rl.DrawRenderBatchActive()
	out := make([]float32, t.desc.Width*t.desc.Height*4)
	rl.EnableFramebuffer(t.fbo)
	gl.ReadPixels(0, 0, int32(t.desc.Width), int32(t.desc.Height), gl.RGBA, gl.FLOAT, gl.Ptr(out))
	if d.current != nil {
		rl.EnableFramebuffer(d.current.fbo)
	} else {
		rl.DisableFramebuffer()
	}
	if err := glError(); err != nil {
		return nil, err
	}
	return out, nil
}

// Err implements gpu.Device. It drains the GL error flag.
func (d *Device) Err() error {
	return glError()
}

func glError() error {
	var first uint32
	// A lost context can report the same error forever.
	for i := 0; i < 16; i++ {
		code := gl.GetError()
		if code == gl.NO_ERROR {
			break
		}
		if first == 0 {
			first = code
		}
	}
	if first != 0 {
		return fmt.Errorf("gl error 0x%04X", first)
	}
	return nil
}

// sortedNames gives texture units a stable order.
func sortedNames(m map[string]gpu.Texture) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
