package feedback

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/fboparticles/camera"
	"github.com/pthm-cable/fboparticles/gpu"
	"github.com/pthm-cable/fboparticles/gpu/softgpu"
	"github.com/pthm-cable/fboparticles/pointcloud"
	"github.com/pthm-cable/fboparticles/simulation"
)

func testView() camera.ViewProjection {
	return camera.NewOrbit(mgl32.Vec3{}, 3, 45, 640, 480).ViewProjection()
}

func proceduralOptions(size int) Options {
	opts := DefaultOptions()
	opts.Size = size
	return opts
}

// tenVertexMesh returns ten distinct points along the x axis.
func tenVertexMesh() []float32 {
	var pos []float32
	for i := 0; i < 10; i++ {
		pos = append(pos, float32(i+1), float32(i)*0.5, -float32(i))
	}
	return pos
}

func meshOptions(mesh []float32) Options {
	opts := DefaultOptions()
	opts.Variant = simulation.MeshSeed
	opts.Amplitude = simulation.DefaultAmplitude(simulation.MeshSeed)
	opts.Mesh = mesh
	return opts
}

func TestTargetDesc(t *testing.T) {
	desc := TargetDescFor(64)
	assert.Equal(t, 64, desc.Width)
	assert.Equal(t, 64, desc.Height)
	assert.Equal(t, gpu.FilterNearest, desc.MinFilter)
	assert.Equal(t, gpu.FilterNearest, desc.MagFilter)
	assert.Equal(t, gpu.FormatRGBA, desc.Format)
	assert.Equal(t, gpu.ComponentFloat32, desc.Type)
	assert.False(t, desc.Depth)
	assert.False(t, desc.Stencil)
}

func TestFirstFrameIsIdentity(t *testing.T) {
	dev := softgpu.New(64, 64)
	loop, err := New(dev, proceduralOptions(4))
	require.NoError(t, err)
	defer loop.Close()

	require.NoError(t, loop.Frame(dev, 0, testView()))

	got, err := loop.Snapshot(dev)
	require.NoError(t, err)
	assert.Equal(t, loop.Seed().Data, got, "uTime = 0 reproduces the seed")

	presented := dev.Presented()
	require.Len(t, presented, 16)
	for i, p := range presented {
		texel := loop.Seed().Texel(i)
		assert.Equal(t, mgl32.Vec3{texel[0], texel[1], texel[2]}, p, "point %d", i)
	}
}

func TestFrameMatchesCPUStep(t *testing.T) {
	dev := softgpu.New(64, 64)
	loop, err := New(dev, proceduralOptions(8))
	require.NoError(t, err)
	defer loop.Close()

	require.NoError(t, loop.Frame(dev, 1.5, testView()))
	assert.Equal(t, float32(1.5), loop.Time())

	// The second pass reads the time written at the end of the first.
	require.NoError(t, loop.Frame(dev, 3, testView()))

	want := (&simulation.Program{
		Variant:   simulation.ProceduralSeed,
		Frequency: loop.Program().Frequency,
		Amplitude: loop.Program().Amplitude,
		Time:      1.5,
	}).Step(loop.Seed().Data)
	got, err := loop.Snapshot(dev)
	require.NoError(t, err)
	assert.InDeltaSlice(t, want, got, 1e-6)
	assert.NotEqual(t, loop.Seed().Data, got)
}

func TestFrameOrdering(t *testing.T) {
	dev := softgpu.New(64, 64)
	loop, err := New(dev, proceduralOptions(4))
	require.NoError(t, err)
	defer loop.Close()

	for frame := 0; frame < 3; frame++ {
		dev.ResetOps()
		require.NoError(t, loop.Frame(dev, float64(frame), testView()))

		ops := dev.Ops()
		require.Len(t, ops, 5)
		assert.Equal(t, softgpu.OpBindTarget, ops[0].Kind)
		assert.Equal(t, softgpu.OpClear, ops[1].Kind)
		assert.Equal(t, softgpu.OpDrawMesh, ops[2].Kind)
		assert.Equal(t, softgpu.OpBindMain, ops[3].Kind)
		assert.Equal(t, softgpu.OpDrawPoints, ops[4].Kind)

		assert.Equal(t, ops[0].Target, ops[2].Target, "quad is drawn into the target")
		assert.Equal(t, uint32(0), ops[4].Target, "points are drawn to the main framebuffer")

		// The points sample exactly what this frame's pass wrote.
		assert.Equal(t, ops[2].Texture, ops[4].Texture)
		assert.Equal(t, ops[2].Generation, ops[4].Generation)
		assert.Equal(t, uint64(frame+1), ops[4].Generation)
	}
	assert.Equal(t, Idle, loop.State())
	assert.Equal(t, uint64(3), loop.Frames())
}

func TestPointStateAdditiveNoDepthWrite(t *testing.T) {
	dev := softgpu.New(64, 64)
	loop, err := New(dev, proceduralOptions(4))
	require.NoError(t, err)
	defer loop.Close()

	require.NoError(t, loop.Frame(dev, 0, testView()))
	state := dev.LastPointState()
	assert.Equal(t, gpu.BlendAdditive, state.Blend)
	assert.False(t, state.DepthWrite)
}

func TestTargetAllocatedOnce(t *testing.T) {
	dev := softgpu.New(64, 64)
	loop, err := New(dev, proceduralOptions(16))
	require.NoError(t, err)
	defer loop.Close()

	for i := 0; i < 10; i++ {
		require.NoError(t, loop.Frame(dev, float64(i)/60, testView()))
	}

	allocs := dev.Allocations()
	require.Len(t, allocs, 1)
	assert.Equal(t, TargetDescFor(16), allocs[0])
	assert.Equal(t, TargetDescFor(16), loop.Target().Desc())
}

func TestSetupSameSizeSameTarget(t *testing.T) {
	dev := softgpu.New(64, 64)
	first, err := New(dev, proceduralOptions(16))
	require.NoError(t, err)
	defer first.Close()
	second, err := New(dev, proceduralOptions(16))
	require.NoError(t, err)
	defer second.Close()

	opts := proceduralOptions(16)
	opts.Seed = 7
	require.NoError(t, first.Rebuild(dev, opts))

	allocs := dev.Allocations()
	require.Len(t, allocs, 3)
	assert.Equal(t, allocs[0], allocs[1], "two loops of one size")
	assert.Equal(t, allocs[0], allocs[2], "rebuild at the same size")
	assert.Equal(t, gpu.FormatRGBA, allocs[2].Format)
	assert.Equal(t, gpu.ComponentFloat32, allocs[2].Type)
	assert.Equal(t, first.Target().Desc(), second.Target().Desc())
}

func TestMeshSeedPadding(t *testing.T) {
	tests := []struct {
		name    string
		padding pointcloud.PaddingPolicy
		want    int
	}{
		{"hide", pointcloud.PaddingHide, 10},
		{"show", pointcloud.PaddingShow, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := softgpu.New(64, 64)
			opts := meshOptions(tenVertexMesh())
			opts.Points.Padding = tt.padding
			loop, err := New(dev, opts)
			require.NoError(t, err)
			defer loop.Close()

			assert.Equal(t, 4, loop.Size())
			assert.Equal(t, 10, loop.Count())

			require.NoError(t, loop.Frame(dev, 0, testView()))
			presented := dev.Presented()
			require.Len(t, presented, tt.want)

			mesh := tenVertexMesh()
			for i := 0; i < 10; i++ {
				assert.Equal(t, mgl32.Vec3{mesh[i*3], mesh[i*3+1], mesh[i*3+2]}, presented[i])
			}
			for i := 10; i < len(presented); i++ {
				assert.Equal(t, mgl32.Vec3{}, presented[i], "padding texel %d sits at the origin", i)
			}
		})
	}
}

func TestSetupErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"zero size", proceduralOptions(0)},
		{"mesh without vertices", meshOptions(nil)},
		{"partial triple", meshOptions([]float32{1, 2, 3, 4})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := softgpu.New(64, 64)
			_, err := New(dev, tt.opts)
			require.Error(t, err)
			assert.ErrorIs(t, err, gpu.ErrSetup)
			assert.Zero(t, dev.Live(), "partial setup is released")
		})
	}
}

func TestSetupDeviceError(t *testing.T) {
	dev := softgpu.New(64, 64)
	dev.InjectAsyncError(errors.New("out of memory"))

	_, err := New(dev, proceduralOptions(4))
	assert.ErrorIs(t, err, gpu.ErrSetup)
	assert.Zero(t, dev.Live())
}

func TestFrameFaultRecovers(t *testing.T) {
	dev := softgpu.New(64, 64)
	loop, err := New(dev, proceduralOptions(4))
	require.NoError(t, err)
	defer loop.Close()

	dev.InjectFault(errors.New("lost context"))
	dev.ResetOps()
	err = loop.Frame(dev, 0.5, testView())
	require.Error(t, err)
	assert.ErrorIs(t, err, gpu.ErrFrame)
	assert.Equal(t, Idle, loop.State())

	// The main framebuffer is still restored after a failed pass.
	ops := dev.Ops()
	require.NotEmpty(t, ops)
	assert.Equal(t, softgpu.OpBindMain, ops[len(ops)-1].Kind)

	require.NoError(t, loop.Frame(dev, 1, testView()))
	assert.Equal(t, uint64(2), loop.Frames())
}

func TestFrameAsyncError(t *testing.T) {
	dev := softgpu.New(64, 64)
	loop, err := New(dev, proceduralOptions(4))
	require.NoError(t, err)
	defer loop.Close()

	dev.InjectAsyncError(errors.New("invalid operation"))
	assert.ErrorIs(t, loop.Frame(dev, 0, testView()), gpu.ErrFrame)
	assert.NoError(t, loop.Frame(dev, 0, testView()))
}

func TestUniformUpdates(t *testing.T) {
	dev := softgpu.New(64, 64)
	loop, err := New(dev, proceduralOptions(4))
	require.NoError(t, err)
	defer loop.Close()

	loop.SetFrequency(0)
	loop.SetAmplitude(0.5)
	assert.Equal(t, float32(0), loop.Program().Frequency)
	assert.Equal(t, float32(0.5), loop.Options().Amplitude)

	// Zero frequency freezes the cloud at the seed.
	require.NoError(t, loop.Frame(dev, 10, testView()))
	require.NoError(t, loop.Frame(dev, 20, testView()))
	got, err := loop.Snapshot(dev)
	require.NoError(t, err)
	assert.Equal(t, loop.Seed().Data, got)

	opts := loop.Points().Options()
	opts.PointSize = 5
	loop.SetPointOptions(opts)
	assert.Equal(t, float32(5), loop.Points().Options().PointSize)
}

func TestRebuildAllocatesNewTarget(t *testing.T) {
	dev := softgpu.New(64, 64)
	loop, err := New(dev, proceduralOptions(4))
	require.NoError(t, err)
	defer loop.Close()

	live := dev.Live()
	require.NoError(t, loop.Rebuild(dev, proceduralOptions(8)))

	assert.Equal(t, 8, loop.Size())
	assert.Equal(t, live, dev.Live(), "old objects are released")
	require.Len(t, dev.Allocations(), 2)
	assert.Equal(t, TargetDescFor(8), dev.Allocations()[1])
	require.NoError(t, loop.Frame(dev, 0, testView()))
	assert.Len(t, dev.Presented(), 64)
}

func TestCloseIdempotent(t *testing.T) {
	dev := softgpu.New(64, 64)
	loop, err := New(dev, proceduralOptions(4))
	require.NoError(t, err)
	require.NotZero(t, dev.Live())

	loop.Close()
	assert.Zero(t, dev.Live())
	loop.Close()
	assert.Zero(t, dev.Live())

	assert.ErrorIs(t, loop.Frame(dev, 0, testView()), ErrClosed)
	_, err = loop.Snapshot(dev)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "simulating", SimulatingPass.String())
	assert.Equal(t, "presenting", Presenting.String())
}
