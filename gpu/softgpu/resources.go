package softgpu

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/fboparticles/gpu"
)

type texture struct {
	dev           *Device
	id            uint32
	width, height int
	data          []float32
	float         bool
	nearest       bool
	generation    uint64
	released      bool
}

func (t *texture) ID() uint32 { return t.id }

func (t *texture) Size() (int, int) { return t.width, t.height }

func (t *texture) Release() {
	if t.released || t.dev == nil {
		return
	}
	t.released = true
	t.dev.free(t.id)
}

// Sample reads the texture at uv with clamp-to-edge addressing. Row 0 is
// v = 0. Nearest textures return the texel under uv; linear ones blend the
// four surrounding texel centres.
func (t *texture) Sample(uv mgl32.Vec2) mgl32.Vec4 {
	fx := float64(uv[0]) * float64(t.width)
	fy := float64(uv[1]) * float64(t.height)
	if t.nearest {
		return t.texel(clampIndex(int(math.Floor(fx)), t.width), clampIndex(int(math.Floor(fy)), t.height))
	}

	fx -= 0.5
	fy -= 0.5
	x0, y0 := math.Floor(fx), math.Floor(fy)
	ax, ay := float32(fx-x0), float32(fy-y0)
	x1 := clampIndex(int(x0)+1, t.width)
	y1 := clampIndex(int(y0)+1, t.height)
	xi := clampIndex(int(x0), t.width)
	yi := clampIndex(int(y0), t.height)

	top := lerp4(t.texel(xi, yi), t.texel(x1, yi), ax)
	bottom := lerp4(t.texel(xi, y1), t.texel(x1, y1), ax)
	return lerp4(top, bottom, ay)
}

func (t *texture) texel(x, y int) mgl32.Vec4 {
	i := (y*t.width + x) * 4
	return mgl32.Vec4{t.data[i], t.data[i+1], t.data[i+2], t.data[i+3]}
}

// store writes texel idx. Unsigned byte textures clamp to [0, 1] and keep
// 8 bits per channel, as a UNSIGNED_BYTE attachment would.
func (t *texture) store(idx int, c mgl32.Vec4) {
	if !t.float {
		for k := range c {
			c[k] = quantize8(c[k])
		}
	}
	copy(t.data[idx*4:idx*4+4], c[:])
}

func quantize8(v float32) float32 {
	if v != v || v <= 0 {
		return 0
	}
	if v >= 1 {
		return 1
	}
	return float32(math.Round(float64(v)*255)) / 255
}

func lerp4(a, b mgl32.Vec4, f float32) mgl32.Vec4 {
	return a.Add(b.Sub(a).Mul(f))
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

type target struct {
	dev      *Device
	id       uint32
	desc     gpu.TargetDesc
	tex      *texture
	released bool
}

func (t *target) Texture() gpu.Texture { return t.tex }

func (t *target) Desc() gpu.TargetDesc { return t.desc }

func (t *target) Release() {
	if t.released {
		return
	}
	t.released = true
	t.tex.Release()
	t.dev.free(t.id)
	if t.dev.current == t {
		t.dev.current = nil
	}
}

type program struct {
	dev      *Device
	id       uint32
	src      gpu.ProgramSource
	released bool
}

func (p *program) Name() string { return p.src.Name }

func (p *program) String() string { return p.src.Name }

func (p *program) Release() {
	if p.released {
		return
	}
	p.released = true
	p.dev.free(p.id)
}

type mesh struct {
	dev       *Device
	id        uint32
	positions []float32
	uvs       []float32
	released  bool
}

func (m *mesh) VertexCount() int { return len(m.positions) / 3 }

func (m *mesh) Release() {
	if m.released {
		return
	}
	m.released = true
	m.dev.free(m.id)
}

type vertexBuffer struct {
	dev        *Device
	id         uint32
	data       []float32
	components int
	released   bool
}

func (vb *vertexBuffer) Len() int { return len(vb.data) / vb.components }

func (vb *vertexBuffer) Components() int { return vb.components }

func (vb *vertexBuffer) Release() {
	if vb.released {
		return
	}
	vb.released = true
	vb.dev.free(vb.id)
}
