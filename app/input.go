package app

import (
	"log/slog"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fboparticles/ui"
)

// Orbit input tuning.
const (
	orbitSensitivity = 0.005 // radians per pixel dragged
	zoomStep         = 1.1   // distance factor per wheel notch
)

// handleInput processes keyboard and mouse input.
func (a *App) handleInput() {
	a.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		a.controls.Paused = !a.controls.Paused
		a.paused = a.controls.Paused
	}

	if rl.IsKeyPressed(rl.KeyR) {
		if err := a.Reseed(a.loop.Options().Seed + 1); err != nil {
			slog.Error("reseed failed", "error", err)
		}
	}

	a.overlays.HandleInput()
	a.handleCameraInput()
}

// handleResize checks for window resize and propagates new dimensions.
func (a *App) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == a.screenWidth && h == a.screenHeight {
		return
	}
	a.screenWidth = w
	a.screenHeight = h

	a.orbit.Resize(w, h)
	a.perfPanel.SetPosition(int32(w)-290, 10)
	a.cloudPanel.SetPosition(int32(w)-290, 10)
	a.controlsPanel.SetPosition(ui.ControlsOrigin(int32(h)))
}

// handleCameraInput orbits on left drag, zooms on the wheel and resets on Home.
// Drags that start over the controls panel belong to the sliders.
func (a *App) handleCameraInput() {
	mouse := rl.GetMousePosition()

	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		overPanel := a.overlays.IsEnabled(ui.OverlayControls) && a.controlsPanel.Contains(mouse.X, mouse.Y)
		a.dragging = !overPanel
	}
	if rl.IsMouseButtonReleased(rl.MouseButtonLeft) {
		a.dragging = false
	}
	if a.dragging && rl.IsMouseButtonDown(rl.MouseButtonLeft) {
		d := rl.GetMouseDelta()
		a.orbit.Rotate(-d.X*orbitSensitivity, d.Y*orbitSensitivity)
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		a.orbit.ZoomBy(float32(math.Pow(zoomStep, float64(wheel))))
	}

	if rl.IsKeyPressed(rl.KeyHome) {
		a.orbit.Reset()
	}
}
