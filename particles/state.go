// Package particles builds the initial per-particle state: a size×size RGBA
// float image holding one particle position per texel, and the lookup
// coordinates that map each particle index to its texel.
package particles

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// SeedRadius bounds procedural positions: distance = sqrt(u) * SeedRadius.
const SeedRadius = 2.0

// ErrNoVertices is returned when a mesh seed has nothing to place.
var ErrNoVertices = errors.New("particles: mesh has no vertices")

// StateTexture is a size×size image with four float channels per texel.
// Count is the number of texels that hold a real particle; the rest is padding.
type StateTexture struct {
	Size  int
	Count int
	Data  []float32
}

// Texel returns the four channels of texel i.
func (s *StateTexture) Texel(i int) [4]float32 {
	o := i * 4
	return [4]float32{s.Data[o], s.Data[o+1], s.Data[o+2], s.Data[o+3]}
}

// Texels returns size*size.
func (s *StateTexture) Texels() int {
	return s.Size * s.Size
}

func newState(size int) (*StateTexture, error) {
	if size <= 0 {
		return nil, fmt.Errorf("particles: grid size must be positive, got %d", size)
	}
	return &StateTexture{Size: size, Data: make([]float32, size*size*4)}, nil
}

// Procedural scatters size*size particles inside a sphere of radius SeedRadius.
//
// The radius is sqrt-weighted but theta and phi are drawn independently over a
// full turn, so directions are not uniform on the sphere. The clustering this
// produces along the poles is part of the look and is kept.
func Procedural(size int, rng *rand.Rand) (*StateTexture, error) {
	s, err := newState(size)
	if err != nil {
		return nil, err
	}
	for i := 0; i < s.Texels(); i++ {
		distance := math.Sqrt(rng.Float64()) * SeedRadius
		theta := spread(rng, 2*math.Pi)
		phi := spread(rng, 2*math.Pi)

		o := i * 4
		s.Data[o] = float32(distance * math.Sin(theta) * math.Cos(phi))
		s.Data[o+1] = float32(distance * math.Sin(theta) * math.Sin(phi))
		s.Data[o+2] = float32(distance * math.Cos(theta))
		s.Data[o+3] = 1.0
	}
	s.Count = s.Texels()
	return s, nil
}

// spread returns a value in [-r/2, r/2).
func spread(rng *rand.Rand, r float64) float64 {
	return r * (rng.Float64() - 0.5)
}

// FromMesh copies xyz triples into the first texels, one vertex per texel, with
// w = 1. Texels past the last vertex stay zero in every channel.
func FromMesh(size int, positions []float32) (*StateTexture, error) {
	if len(positions) == 0 {
		return nil, ErrNoVertices
	}
	if len(positions)%3 != 0 {
		return nil, fmt.Errorf("particles: position array length %d is not a multiple of 3", len(positions))
	}
	s, err := newState(size)
	if err != nil {
		return nil, err
	}
	n := len(positions) / 3
	if n > s.Texels() {
		return nil, fmt.Errorf("particles: %d vertices do not fit a %dx%d grid", n, size, size)
	}
	for i := 0; i < n; i++ {
		o := i * 4
		s.Data[o] = positions[i*3]
		s.Data[o+1] = positions[i*3+1]
		s.Data[o+2] = positions[i*3+2]
		s.Data[o+3] = 1.0
	}
	s.Count = n
	return s, nil
}
