// Package app hosts the feedback loop: it owns the device, the orbit camera,
// the simulation clock, the overlays and the telemetry sinks, and drives one
// loop frame per rendered frame (windowed) or per fixed step (headless).
package app

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/pthm-cable/fboparticles/camera"
	"github.com/pthm-cable/fboparticles/config"
	"github.com/pthm-cable/fboparticles/feedback"
	"github.com/pthm-cable/fboparticles/gpu"
	"github.com/pthm-cable/fboparticles/meshimport"
	"github.com/pthm-cable/fboparticles/pointcloud"
	"github.com/pthm-cable/fboparticles/telemetry"
	"github.com/pthm-cable/fboparticles/ui"
)

// Options configures an App.
type Options struct {
	Config    *config.Config // nil = config.Cfg()
	Headless  bool
	LogStats  bool
	OutputDir string
}

// App holds the complete viewer state.
type App struct {
	cfg  *config.Config
	dev  gpu.Device
	loop *feedback.Loop
	mesh []float32

	orbit *camera.Orbit

	// Simulation clock in seconds; this is what uTime follows.
	clock    float64
	paused   bool
	dragging bool

	headless bool

	// UI
	controls      ui.Controls
	overlays      *ui.OverlayRegistry
	hud           *ui.HUD
	controlsPanel *ui.ControlsPanel
	perfPanel     *ui.PerfPanel
	cloudPanel    *ui.CloudPanel

	// Telemetry
	perfCollector *telemetry.PerfCollector
	outputManager *telemetry.OutputManager
	logStats      bool
	lastFlush     float64
	lastCloud     telemetry.CloudStats
	frameErrors   int

	screenWidth, screenHeight float32
}

// LoopOptions builds feedback loop options from configuration. mesh is used
// only by the mesh variant.
func LoopOptions(cfg *config.Config, mesh []float32) feedback.Options {
	return feedback.Options{
		Variant:   cfg.Derived.Variant,
		Size:      cfg.Simulation.Size,
		Mesh:      mesh,
		Frequency: cfg.Derived.Frequency,
		Amplitude: cfg.Derived.Amplitude,
		Seed:      cfg.Simulation.Seed,
		Camera:    cfg.Derived.SimCamera,
		Points: pointcloud.Options{
			PointSize: float32(cfg.Points.Size),
			Color:     cfg.Derived.Color,
			Alpha:     float32(cfg.Points.Alpha),
			Padding:   cfg.Derived.Padding,
		},
	}
}

// New builds the loop on dev. Setup errors wrap gpu.ErrSetup; nothing is
// left allocated on failure.
func New(dev gpu.Device, opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}

	a := &App{
		cfg:           cfg,
		dev:           dev,
		headless:      opts.Headless,
		logStats:      opts.LogStats,
		perfCollector: telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		screenWidth:   cfg.Derived.ScreenW32,
		screenHeight:  cfg.Derived.ScreenH32,
	}

	if cfg.Mesh.Path != "" {
		mesh, err := meshimport.Load(cfg.Mesh.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: loading mesh: %w", gpu.ErrSetup, err)
		}
		a.mesh = mesh
	}

	loop, err := feedback.New(dev, LoopOptions(cfg, a.mesh))
	if err != nil {
		return nil, err
	}
	a.loop = loop
	a.controls = ui.ControlsFrom(loop.Options())

	a.orbit = camera.NewOrbit(
		cfg.Derived.Target,
		float32(cfg.View.Distance),
		float32(cfg.View.FOV),
		a.screenWidth, a.screenHeight,
	)
	a.orbit.MinDistance = float32(cfg.View.MinDistance)
	a.orbit.MaxDistance = float32(cfg.View.MaxDistance)

	if !a.headless {
		a.overlays = ui.NewOverlayRegistry()
		a.hud = ui.NewHUD()
		cx, cy := ui.ControlsOrigin(int32(a.screenHeight))
		a.controlsPanel = ui.NewControlsPanel(cx, cy, 260)
		a.perfPanel = ui.NewPerfPanel(int32(a.screenWidth)-290, 10)
		a.cloudPanel = ui.NewCloudPanel(int32(a.screenWidth)-290, 10, 280)
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		a.loop.Close()
		return nil, err
	}
	a.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	return a, nil
}

// step advances the clock by dt (unless paused) and runs one loop frame.
// Frame errors are logged and counted; the loop stays usable.
func (a *App) step(dt float64) error {
	if !a.paused {
		a.clock += dt
	}

	a.perfCollector.StartPhase(telemetry.PhaseSimulate)
	err := a.loop.Frame(a.dev, a.clock, a.orbit.ViewProjection())
	if err == nil {
		return nil
	}
	if errors.Is(err, gpu.ErrFrame) {
		a.frameErrors++
		slog.Warn("frame failed", "frame", a.loop.Frames(), "error", err)
		return nil
	}
	return err
}

// applyControls pushes panel values into the loop.
func (a *App) applyControls(act ui.Actions) {
	if a.controls.Frequency != a.loop.Frequency() {
		a.loop.SetFrequency(a.controls.Frequency)
	}
	opts := a.loop.Options()
	if a.controls.Amplitude != opts.Amplitude {
		a.loop.SetAmplitude(a.controls.Amplitude)
	}
	if points := a.controls.PointOptions(opts.Points); points != opts.Points {
		a.loop.SetPointOptions(points)
	}
	a.paused = a.controls.Paused

	if act.ResetCamera {
		a.orbit.Reset()
	}
	if act.ResetTime {
		a.clock = 0
	}
}

// Reseed rebuilds the loop with a new procedural seed, keeping the current
// tuning. Mesh loops are rebuilt from the same mesh.
func (a *App) Reseed(seed int64) error {
	opts := a.loop.Options()
	opts.Seed = seed
	if err := a.loop.Rebuild(a.dev, opts); err != nil {
		return err
	}
	a.clock = 0
	slog.Info("reseeded", "seed", seed, "particles", a.loop.Count())
	return nil
}

// Loop returns the feedback loop.
func (a *App) Loop() *feedback.Loop { return a.loop }

// Frames returns how many loop frames have run.
func (a *App) Frames() uint64 { return a.loop.Frames() }

// Clock returns the simulation clock in seconds.
func (a *App) Clock() float64 { return a.clock }

// FrameErrors returns how many frames failed and were skipped.
func (a *App) FrameErrors() int { return a.frameErrors }

// OutputDir returns the run output directory, or "" when disabled.
func (a *App) OutputDir() string { return a.outputManager.Dir() }

// Unload writes the final state dump and releases everything.
func (a *App) Unload() {
	if a.outputManager != nil && a.loop.Frames() > 0 {
		a.writeSnapshot()
	}
	a.loop.Close()
	if err := a.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
}
