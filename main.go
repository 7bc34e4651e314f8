package main

import (
	"flag"
	"log/slog"
	"os"
	"runtime"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fboparticles/app"
	"github.com/pthm-cable/fboparticles/config"
	"github.com/pthm-cable/fboparticles/gpu/softgpu"
	"github.com/pthm-cable/fboparticles/renderer"
)

// GL calls must stay on the thread that created the context.
func init() {
	runtime.LockOSThread()
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run on the software device without a window")
	meshPath := flag.String("mesh", "", "Seed particles from a mesh (.ply or .csv); overrides mesh.path")
	logStats := flag.Bool("log-stats", false, "Output perf and cloud stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, state dumps and config snapshot")
	seed := flag.Int64("seed", 0, "Procedural seed (0 = use config)")
	maxFrames := flag.Int("max-frames", 0, "Stop after N frames (0 = unlimited)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	if *meshPath != "" || *seed != 0 {
		if *meshPath != "" {
			cfg.Mesh.Path = *meshPath
		}
		if *seed != 0 {
			cfg.Simulation.Seed = *seed
		}
		if err := cfg.Finalize(); err != nil {
			slog.Error("invalid flags", "error", err)
			os.Exit(1)
		}
	}

	opts := app.Options{
		Config:    cfg,
		Headless:  *headless,
		LogStats:  *logStats,
		OutputDir: *outputDir,
	}

	if *headless {
		os.Exit(runHeadless(opts, *maxFrames))
	}
	os.Exit(runWindowed(opts, *maxFrames))
}

func runHeadless(opts app.Options, maxFrames int) int {
	cfg := opts.Config
	dev := softgpu.New(cfg.Screen.Width, cfg.Screen.Height)

	a, err := app.New(dev, opts)
	if err != nil {
		slog.Error("setup failed", "error", err)
		return 1
	}
	defer a.Unload()

	slog.Info("starting headless simulation",
		"seed", cfg.Simulation.Seed,
		"max_frames", maxFrames,
		"output_dir", opts.OutputDir,
	)

	for maxFrames <= 0 || int(a.Frames()) < maxFrames {
		if err := a.UpdateHeadless(); err != nil {
			slog.Error("simulation stopped", "frame", a.Frames(), "error", err)
			return 1
		}
	}
	slog.Info("max frames reached", "frame", a.Frames(), "frame_errors", a.FrameErrors())
	return 0
}

func runWindowed(opts app.Options, maxFrames int) int {
	cfg := opts.Config

	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), cfg.Screen.Title)
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	dev, err := renderer.New()
	if err != nil {
		slog.Error("setup failed", "error", err)
		return 1
	}

	a, err := app.New(dev, opts)
	if err != nil {
		slog.Error("setup failed", "error", err)
		return 1
	}
	defer a.Unload()

	for !rl.WindowShouldClose() {
		a.Update()
		if err := a.Draw(); err != nil {
			slog.Error("render loop stopped", "frame", a.Frames(), "error", err)
			return 1
		}

		if maxFrames > 0 && int(a.Frames()) >= maxFrames {
			break
		}
	}
	return 0
}
