package renderer

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/pthm-cable/fboparticles/gpu"
)

type texture struct {
	id            uint32
	width, height int
}

// newFloatTexture allocates an RGBA32F texture with clamp-to-edge addressing.
// data may be nil for an uninitialised target.
func newFloatTexture(width, height int, minFilter, magFilter int32, data []float32) *texture {
	t := &texture{width: width, height: height}
	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, minFilter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, magFilter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	var ptr = gl.Ptr(nil)
	if len(data) > 0 {
		ptr = gl.Ptr(data)
	}
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA32F, int32(width), int32(height), 0, gl.RGBA, gl.FLOAT, ptr)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return t
}

func (t *texture) ID() uint32 { return t.id }

func (t *texture) Size() (int, int) { return t.width, t.height }

func (t *texture) Release() {
	if t.id == 0 {
		return
	}
	rl.DrawRenderBatchActive()
	gl.DeleteTextures(1, &t.id)
	t.id = 0
}

type target struct {
	dev  *Device
	fbo  uint32
	desc gpu.TargetDesc
	tex  *texture
}

func (t *target) Texture() gpu.Texture { return t.tex }

func (t *target) Desc() gpu.TargetDesc { return t.desc }

func (t *target) Release() {
	if t.fbo == 0 {
		return
	}
	if t.dev.current == t {
		rl.DisableFramebuffer()
		t.dev.current = nil
	}
	rl.UnloadFramebuffer(t.fbo)
	t.fbo = 0
	t.tex.Release()
}

type program struct {
	name   string
	shader rl.Shader
	locs   map[string]int32
}

func (p *program) Name() string { return p.name }

func (p *program) String() string { return p.name }

func (p *program) Release() {
	if p.shader.ID == 0 {
		return
	}
	rl.UnloadShader(p.shader)
	p.shader.ID = 0
}

// loc caches uniform locations. -1 (not found, or optimised away) is cached
// too and ignored by GL.
func (p *program) loc(name string) int32 {
	if l, ok := p.locs[name]; ok {
		return l
	}
	l := rl.GetShaderLocation(p.shader, name)
	p.locs[name] = l
	return l
}

// bind makes p current and uploads u. Textures take units in name order.
func (p *program) bind(u gpu.Uniforms) error {
	gl.UseProgram(p.shader.ID)
	for name, v := range u.Floats {
		gl.Uniform1f(p.loc(name), v)
	}
	for name, v := range u.Vec3s {
		gl.Uniform3f(p.loc(name), v[0], v[1], v[2])
	}
	for name, m := range u.Matrices {
		gl.UniformMatrix4fv(p.loc(name), 1, false, &m[0])
	}
	for unit, name := range sortedNames(u.Textures) {
		tex, ok := u.Textures[name].(*texture)
		if !ok || tex.id == 0 {
			return fmt.Errorf("uniform %q: texture %T is not usable on this device", name, u.Textures[name])
		}
		gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
		gl.BindTexture(gl.TEXTURE_2D, tex.id)
		gl.Uniform1i(p.loc(name), int32(unit))
	}
	return nil
}

type mesh struct {
	vao   uint32
	vbos  [2]uint32
	count int32
}

func (m *mesh) VertexCount() int { return int(m.count) }

func (m *mesh) Release() {
	if m.vao == 0 {
		return
	}
	gl.DeleteBuffers(2, &m.vbos[0])
	gl.DeleteVertexArrays(1, &m.vao)
	m.vao = 0
}

type vertexBuffer struct {
	vao, vbo   uint32
	n          int
	components int
}

func (vb *vertexBuffer) Len() int { return vb.n }

func (vb *vertexBuffer) Components() int { return vb.components }

func (vb *vertexBuffer) Release() {
	if vb.vao == 0 {
		return
	}
	gl.DeleteBuffers(1, &vb.vbo)
	gl.DeleteVertexArrays(1, &vb.vao)
	vb.vao = 0
}
