package pointcloud

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/fboparticles/camera"
	"github.com/pthm-cable/fboparticles/gpu"
	"github.com/pthm-cable/fboparticles/gpu/softgpu"
	"github.com/pthm-cable/fboparticles/particles"
)

// gridSampler returns the texel index of the sampled cell in x.
type gridSampler struct{ size int }

func (g gridSampler) Sample(uv mgl32.Vec2) mgl32.Vec4 {
	x := int(uv[0] * float32(g.size))
	y := int(uv[1] * float32(g.size))
	return mgl32.Vec4{float32(y*g.size + x), 0, 0, 1}
}

func TestSamplePositionHitsOwnTexel(t *testing.T) {
	for _, size := range []int{1, 2, 4, 191} {
		coords := particles.LookupCoords(size)
		s := gridSampler{size: size}
		for i := 0; i < size*size; i++ {
			lookup := mgl32.Vec2{coords[i*2], coords[i*2+1]}
			got := SamplePosition(s, lookup, float32(size))
			require.Equal(t, float32(i), got[0], "size %d point %d", size, i)
		}
	}
}

func TestParsePadding(t *testing.T) {
	p, err := ParsePadding("show")
	require.NoError(t, err)
	assert.Equal(t, PaddingShow, p)

	p, err = ParsePadding(" Hide ")
	require.NoError(t, err)
	assert.Equal(t, PaddingHide, p)

	p, err = ParsePadding("")
	require.NoError(t, err)
	assert.Equal(t, PaddingHide, p)

	_, err = ParsePadding("stretch")
	assert.Error(t, err)

	assert.Equal(t, "show", PaddingShow.String())
	assert.Equal(t, "hide", PaddingHide.String())
}

func TestDrawCount(t *testing.T) {
	dev := softgpu.New(8, 8)
	r, err := New(dev, 4, 10, DefaultOptions())
	require.NoError(t, err)
	defer r.Release()

	assert.Equal(t, 10, r.DrawCount())

	opts := r.Options()
	opts.Padding = PaddingShow
	r.SetOptions(opts)
	assert.Equal(t, 16, r.DrawCount())
}

func TestNewRejectsTooManyVisible(t *testing.T) {
	dev := softgpu.New(8, 8)
	_, err := New(dev, 2, 5, DefaultOptions())
	assert.ErrorIs(t, err, gpu.ErrSetup)
	assert.Zero(t, dev.Live())
}

func TestDrawRequiresBoundTexture(t *testing.T) {
	dev := softgpu.New(8, 8)
	r, err := New(dev, 2, 4, DefaultOptions())
	require.NoError(t, err)
	defer r.Release()

	view := camera.NewOrbit(mgl32.Vec3{}, 3, 45, 8, 8).ViewProjection()
	assert.Error(t, r.Draw(dev, view))

	data := make([]float32, 16)
	for i := 0; i < 4; i++ {
		data[i*4] = float32(i)
		data[i*4+3] = 1
	}
	tex, err := dev.NewDataTexture(2, 2, data)
	require.NoError(t, err)
	r.Bind(tex)
	assert.Equal(t, tex, r.Bound())

	require.NoError(t, r.Draw(dev, view))
	assert.Equal(t, []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {3, 0, 0}}, dev.Presented())
	assert.Equal(t, State, dev.LastPointState())
}

func TestUniforms(t *testing.T) {
	dev := softgpu.New(8, 8)
	r, err := New(dev, 3, 9, DefaultOptions())
	require.NoError(t, err)
	defer r.Release()

	view := camera.NewOrbit(mgl32.Vec3{}, 3, 45, 8, 8).ViewProjection()
	u := r.Uniforms(view)
	assert.Equal(t, float32(3), u.Floats[UniformGridSize])
	assert.Equal(t, DefaultOptions().PointSize, u.Floats[UniformPointSize])
	assert.Equal(t, DefaultOptions().Color, u.Vec3s[UniformColor])
	assert.Equal(t, view.View, u.Matrices[UniformView])
	assert.Equal(t, view.Projection, u.Matrices[UniformProjection])
}

func TestPointStateIsAdditiveWithoutDepthWrite(t *testing.T) {
	assert.Equal(t, gpu.BlendAdditive, State.Blend)
	assert.False(t, State.DepthWrite)
}

func TestReleaseFreesEverything(t *testing.T) {
	dev := softgpu.New(8, 8)
	r, err := New(dev, 4, 16, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, dev.Live())

	r.Release()
	r.Release()
	assert.Zero(t, dev.Live())
}
