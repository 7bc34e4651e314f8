// Package simulation holds the shader pair that advances particle state: it
// samples the seed state texture and writes perturbed positions into the
// render target, one texel per particle.
package simulation

import (
	"fmt"
	"strings"
)

// Variant selects the perturbation and the kind of seed it expects.
type Variant int

const (
	// ProceduralSeed wobbles a randomly scattered sphere.
	ProceduralSeed Variant = iota
	// MeshSeed breathes an imported point cloud around its origin.
	MeshSeed
)

func (v Variant) String() string {
	switch v {
	case ProceduralSeed:
		return "procedural"
	case MeshSeed:
		return "mesh"
	}
	return fmt.Sprintf("variant(%d)", int(v))
}

// ParseVariant parses the names printed by String.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "procedural", "noise", "":
		return ProceduralSeed, nil
	case "mesh":
		return MeshSeed, nil
	}
	return 0, fmt.Errorf("simulation: unknown variant %q", s)
}

// DefaultFrequency is the initial uFrequency.
const DefaultFrequency = 0.25

// DefaultAmplitude returns the perturbation strength a variant is tuned for.
func DefaultAmplitude(v Variant) float32 {
	if v == MeshSeed {
		return 0.05
	}
	return 0.25
}
