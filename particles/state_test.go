package particles

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupCoords(t *testing.T) {
	for _, size := range []int{1, 2, 4, 7, 128} {
		coords := LookupCoords(size)
		require.Len(t, coords, size*size*2, "size %d", size)

		for i := 0; i < size*size; i++ {
			u, v := coords[i*2], coords[i*2+1]
			assert.GreaterOrEqual(t, u, float32(0))
			assert.Less(t, u, float32(1))
			assert.GreaterOrEqual(t, v, float32(0))
			assert.Less(t, v, float32(1))

			assert.Equal(t, float32(i%size)/float32(size), u, "u of entry %d", i)
			assert.Equal(t, float32(i/size)/float32(size), v, "v of entry %d", i)
		}
	}
}

func TestLookupCoordsDeterministic(t *testing.T) {
	assert.Equal(t, LookupCoords(16), LookupCoords(16))
}

func TestGridSize(t *testing.T) {
	cases := []struct {
		vertices int
		want     int
	}{
		{1, 2},
		{4, 3},
		{10, 4},
		{16, 5},
		{17, 5},
		{35_947, 191},
	}
	for _, tc := range cases {
		got, err := GridSize(tc.vertices)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "vertices=%d", tc.vertices)
		assert.GreaterOrEqual(t, got*got, tc.vertices)
	}

	_, err := GridSize(0)
	assert.Error(t, err)
}

func TestProceduralWithinSphere(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	s, err := Procedural(32, rng)
	require.NoError(t, err)
	require.Len(t, s.Data, 32*32*4)
	assert.Equal(t, 32*32, s.Count)

	for i := 0; i < s.Texels(); i++ {
		tx := s.Texel(i)
		d := math.Sqrt(float64(tx[0]*tx[0] + tx[1]*tx[1] + tx[2]*tx[2]))
		assert.LessOrEqual(t, d, SeedRadius+1e-5, "texel %d", i)
		assert.Equal(t, float32(1), tx[3], "texel %d w", i)
	}
}

func TestProceduralSeeded(t *testing.T) {
	a, err := Procedural(8, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	b, err := Procedural(8, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	assert.Equal(t, a.Data, b.Data)
}

func TestProceduralRejectsBadSize(t *testing.T) {
	_, err := Procedural(0, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

func TestFromMesh(t *testing.T) {
	positions := make([]float32, 10*3)
	for i := range positions {
		positions[i] = float32(i) * 0.5
	}
	size, err := GridSize(10)
	require.NoError(t, err)
	require.Equal(t, 4, size)

	s, err := FromMesh(size, positions)
	require.NoError(t, err)
	assert.Equal(t, 10, s.Count)
	assert.Len(t, LookupCoords(size), 16*2)

	for i := 0; i < 10; i++ {
		want := [4]float32{positions[i*3], positions[i*3+1], positions[i*3+2], 1}
		assert.Equal(t, want, s.Texel(i), "texel %d", i)
	}
	for i := 10; i < 16; i++ {
		assert.Equal(t, [4]float32{}, s.Texel(i), "padding texel %d", i)
	}
}

func TestFromMeshErrors(t *testing.T) {
	_, err := FromMesh(4, nil)
	assert.ErrorIs(t, err, ErrNoVertices)

	_, err = FromMesh(4, []float32{1, 2})
	assert.Error(t, err)

	_, err = FromMesh(2, make([]float32, 5*3))
	assert.Error(t, err)
}
