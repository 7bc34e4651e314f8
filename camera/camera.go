// Package camera provides the two cameras of the particle scene: the fixed
// orthographic camera that frames the simulation quad, and the orbit camera
// the visible point cloud is viewed through.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// SimNear is the near plane of the simulation camera: 2^-53, far below any
// distance a float32 can tell apart from zero, so the flat quad at z = 0 sits
// on the near plane instead of being clipped by it.
const SimNear = 1.0 / (1 << 53)

// Ortho is an orthographic camera at the origin looking down -Z.
type Ortho struct {
	Left, Right float32
	Bottom, Top float32
	Near, Far   float32
}

// NewSim returns the unit-cube simulation camera.
func NewSim() Ortho {
	return Ortho{Left: -1, Right: 1, Bottom: -1, Top: 1, Near: SimNear, Far: 1}
}

// Matrix returns the projection; the view is the identity.
func (o Ortho) Matrix() mgl32.Mat4 {
	return mgl32.Ortho(o.Left, o.Right, o.Bottom, o.Top, o.Near, o.Far)
}

// ViewProjection is what the point cloud needs from a view camera.
type ViewProjection struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
}

// Orbit circles a target point at a distance.
// Yaw turns around +Y, pitch tilts toward +Y; both in radians.
type Orbit struct {
	Target   mgl32.Vec3
	Distance float32
	Yaw      float32
	Pitch    float32

	// Vertical field of view in degrees
	FOV float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// Zoom constraints
	MinDistance, MaxDistance float32

	home pose
}

// pose is what Reset returns to.
type pose struct {
	Distance, Yaw, Pitch float32
}

const maxPitch = math.Pi/2 - 0.01

// NewOrbit creates an orbit camera looking at target from +Z at distance.
func NewOrbit(target mgl32.Vec3, distance, fov, viewportW, viewportH float32) *Orbit {
	return &Orbit{
		Target:      target,
		Distance:    distance,
		FOV:         fov,
		ViewportW:   viewportW,
		ViewportH:   viewportH,
		MinDistance: 0.5,
		MaxDistance: 50,
		home:        pose{Distance: distance},
	}
}

// Eye returns the camera position in world coordinates.
func (c *Orbit) Eye() mgl32.Vec3 {
	cp := float32(math.Cos(float64(c.Pitch)))
	offset := mgl32.Vec3{
		cp * float32(math.Sin(float64(c.Yaw))),
		float32(math.Sin(float64(c.Pitch))),
		cp * float32(math.Cos(float64(c.Yaw))),
	}
	return c.Target.Add(offset.Mul(c.Distance))
}

// View returns the world-to-camera matrix.
func (c *Orbit) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Eye(), c.Target, mgl32.Vec3{0, 1, 0})
}

// Projection returns the perspective matrix for the current viewport.
func (c *Orbit) Projection() mgl32.Mat4 {
	aspect := float32(1)
	if c.ViewportH > 0 {
		aspect = c.ViewportW / c.ViewportH
	}
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), aspect, 0.1, 100)
}

// ViewProjection bundles View and Projection.
func (c *Orbit) ViewProjection() ViewProjection {
	return ViewProjection{View: c.View(), Projection: c.Projection()}
}

// Rotate orbits by the given yaw and pitch deltas. Pitch stops short of the
// poles so the up vector never lines up with the view direction.
func (c *Orbit) Rotate(dYaw, dPitch float32) {
	c.Yaw = wrapAngle(c.Yaw + dYaw)
	c.Pitch = clamp(c.Pitch+dPitch, -maxPitch, maxPitch)
}

// SetDistance sets the orbit distance, clamped to min/max.
func (c *Orbit) SetDistance(d float32) {
	c.Distance = clamp(d, c.MinDistance, c.MaxDistance)
}

// ZoomBy divides the distance by factor (factor > 1 moves closer).
func (c *Orbit) ZoomBy(factor float32) {
	if factor <= 0 {
		return
	}
	c.SetDistance(c.Distance / factor)
}

// Resize updates viewport dimensions.
func (c *Orbit) Resize(viewportW, viewportH float32) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
}

// Reset returns the camera to its initial pose.
func (c *Orbit) Reset() {
	c.Distance = c.home.Distance
	c.Yaw = c.home.Yaw
	c.Pitch = c.home.Pitch
}

// wrapAngle wraps an angle to [-pi, pi].
func wrapAngle(a float32) float32 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// clamp restricts a value to a range.
func clamp(x, min, max float32) float32 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
