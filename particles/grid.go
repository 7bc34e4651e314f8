package particles

import (
	"fmt"
	"math"
)

// GridSize returns the side of the square grid used for an imported point
// cloud: ceil(sqrt(n) + 0.5). The half texel of slack guarantees size*size >= n.
func GridSize(vertexCount int) (int, error) {
	if vertexCount <= 0 {
		return 0, fmt.Errorf("particles: vertex count must be positive, got %d", vertexCount)
	}
	return int(math.Ceil(math.Sqrt(float64(vertexCount)) + 0.5)), nil
}

// LookupCoords returns size*size (u, v) pairs, flattened. Entry i addresses the
// lower-left corner of texel i: ((i mod size)/size, floor(i/size)/size).
func LookupCoords(size int) []float32 {
	n := size * size
	coords := make([]float32, n*2)
	s := float32(size)
	for i := 0; i < n; i++ {
		coords[i*2] = float32(i%size) / s
		coords[i*2+1] = float32(i/size) / s
	}
	return coords
}
