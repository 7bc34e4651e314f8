package feedback

import "github.com/pthm-cable/fboparticles/gpu"

// TargetDescFor declares the render target for a size×size grid: one texel per
// particle, nearest filtering both ways so a sample never blends two
// particles, RGBA float storage for unbounded positions, no depth or stencil.
func TargetDescFor(size int) gpu.TargetDesc {
	return gpu.TargetDesc{
		Width:     size,
		Height:    size,
		MinFilter: gpu.FilterNearest,
		MagFilter: gpu.FilterNearest,
		Format:    gpu.FormatRGBA,
		Type:      gpu.ComponentFloat32,
		Depth:     false,
		Stencil:   false,
	}
}
