package app

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fboparticles/telemetry"
	"github.com/pthm-cable/fboparticles/ui"
)

var background = rl.Color{R: 5, G: 6, B: 10, A: 255}

const cameraLegend = "  |  Drag: orbit  Wheel: zoom  Home: reset view  Space: pause  R: reseed"

// Update handles input for the coming frame.
func (a *App) Update() {
	a.handleInput()
}

// Draw renders one frame: the feedback pass and point cloud, then the
// overlays. Only non-frame errors are returned.
func (a *App) Draw() error {
	a.perfCollector.StartTick()

	rl.BeginDrawing()
	rl.ClearBackground(background)

	if err := a.step(float64(rl.GetFrameTime())); err != nil {
		rl.EndDrawing()
		return err
	}

	a.perfCollector.StartPhase(telemetry.PhaseUI)
	a.drawUI()

	a.perfCollector.StartPhase(telemetry.PhasePresent)
	rl.EndDrawing()

	a.perfCollector.EndTick()
	a.perfCollector.RecordFrame()

	a.maybeFlush()
	return nil
}

func (a *App) drawUI() {
	if a.overlays.IsEnabled(ui.OverlayHUD) {
		a.hud.Draw(ui.HUDData{
			Title:     a.cfg.Screen.Title,
			Variant:   a.loop.Options().Variant.String(),
			Particles: a.loop.Count(),
			GridSize:  a.loop.Size(),
			Frame:     a.loop.Frames(),
			SimTime:   a.loop.Time(),
			FPS:       rl.GetFPS(),
			Paused:    a.paused,
		})
	}

	if a.overlays.IsEnabled(ui.OverlayControls) {
		act := a.controlsPanel.Draw(&a.controls)
		a.applyControls(act)
	}

	if a.overlays.IsEnabled(ui.OverlayPerf) {
		a.perfPanel.Draw(a.perfCollector.Stats())
	}
	if a.overlays.IsEnabled(ui.OverlayCloud) {
		a.cloudPanel.Draw(a.lastCloud)
	}

	a.hud.DrawControls(int32(a.screenHeight), a.overlays.Legend()+cameraLegend)
}
