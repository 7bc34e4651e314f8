package softgpu

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/fboparticles/gpu"
)

type vertex struct {
	x, y float64
	uv   mgl32.Vec2
}

// rasterize draws every triangle of m into dst. Pixel centres sit at half
// integers; a centre exactly on a shared edge belongs to one triangle only, so
// a mesh that tiles the viewport writes every texel exactly once.
//
// Triangles with a vertex outside the depth range are dropped whole instead of
// being clipped.
func rasterize(m *mesh, src gpu.ProgramSource, env gpu.Env, dst *texture, writes []int) {
	w, h := float64(dst.width), float64(dst.height)

	for tri := 0; tri < m.VertexCount()/3; tri++ {
		var v [3]vertex
		visible := true
		for k := 0; k < 3; k++ {
			i := tri*3 + k
			pos := mgl32.Vec3{m.positions[i*3], m.positions[i*3+1], m.positions[i*3+2]}
			clip := src.Vertex(pos, env)
			if clip[3] == 0 {
				visible = false
				break
			}
			ndc := clip.Vec3().Mul(1 / clip[3])
			if ndc[2] < -1 || ndc[2] > 1 {
				visible = false
				break
			}
			v[k] = vertex{
				x:  (float64(ndc[0]) + 1) * 0.5 * w,
				y:  (float64(ndc[1]) + 1) * 0.5 * h,
				uv: mgl32.Vec2{m.uvs[i*2], m.uvs[i*2+1]},
			}
		}
		if !visible {
			continue
		}

		area := edge(v[0], v[1], v[2].x, v[2].y)
		if area == 0 {
			continue
		}
		if area < 0 {
			v[1], v[2] = v[2], v[1]
			area = -area
		}

		minX := int(math.Max(0, math.Floor(math.Min(v[0].x, math.Min(v[1].x, v[2].x)))))
		maxX := int(math.Min(w-1, math.Ceil(math.Max(v[0].x, math.Max(v[1].x, v[2].x)))))
		minY := int(math.Max(0, math.Floor(math.Min(v[0].y, math.Min(v[1].y, v[2].y)))))
		maxY := int(math.Min(h-1, math.Ceil(math.Max(v[0].y, math.Max(v[1].y, v[2].y)))))

		for py := minY; py <= maxY; py++ {
			for px := minX; px <= maxX; px++ {
				cx, cy := float64(px)+0.5, float64(py)+0.5
				e0 := edge(v[1], v[2], cx, cy)
				e1 := edge(v[2], v[0], cx, cy)
				e2 := edge(v[0], v[1], cx, cy)
				if !covers(e0, v[1], v[2]) || !covers(e1, v[2], v[0]) || !covers(e2, v[0], v[1]) {
					continue
				}

				l0 := float32(e0 / area)
				l1 := float32(e1 / area)
				l2 := float32(e2 / area)
				uv := v[0].uv.Mul(l0).Add(v[1].uv.Mul(l1)).Add(v[2].uv.Mul(l2))
				c := src.Fragment(uv, env)

				idx := py*dst.width + px
				dst.store(idx, c)
				writes[idx]++
			}
		}
	}
}

// edge is the signed doubled area of (a, b, p); positive when p is left of a→b.
func edge(a, b vertex, px, py float64) float64 {
	return (b.x-a.x)*(py-a.y) - (b.y-a.y)*(px-a.x)
}

// covers applies the tie-break for centres lying exactly on edge a→b of a
// counter-clockwise triangle. The reversed edge of a neighbour gets the
// opposite answer.
func covers(e float64, a, b vertex) bool {
	if e > 0 {
		return true
	}
	if e < 0 {
		return false
	}
	dy, dx := b.y-a.y, b.x-a.x
	return dy > 0 || (dy == 0 && dx < 0)
}
