// Shader debug tool - runs the feedback loop for a number of frames in a
// hidden window, then writes the rendered point cloud to a PNG and the state
// texture to a CSV for inspection.
//
// Usage: go run ./cmd/shaderdebug -frames 120 -out debug.png -state state.csv
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fboparticles/app"
	"github.com/pthm-cable/fboparticles/camera"
	"github.com/pthm-cable/fboparticles/config"
	"github.com/pthm-cable/fboparticles/feedback"
	"github.com/pthm-cable/fboparticles/meshimport"
	"github.com/pthm-cable/fboparticles/renderer"
	"github.com/pthm-cable/fboparticles/telemetry"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	meshPath := flag.String("mesh", "", "Mesh to seed from (.ply or .csv)")
	frames := flag.Int("frames", 60, "Frames to run before capture")
	fps := flag.Float64("fps", 60, "Simulated frame rate for uTime")
	outPath := flag.String("out", "debug.png", "Output PNG path")
	statePath := flag.String("state", "", "Optional CSV dump of the state texture")
	width := flag.Int("width", 512, "Render width")
	height := flag.Int("height", 512, "Render height")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	if err := run(*configPath, *meshPath, *frames, *fps, *outPath, *statePath, *width, *height); err != nil {
		fmt.Fprintf(os.Stderr, "shaderdebug: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, meshPath string, frames int, fps float64, outPath, statePath string, width, height int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg.Screen.Width = width
	cfg.Screen.Height = height
	if meshPath != "" {
		cfg.Mesh.Path = meshPath
	}
	if err := cfg.Finalize(); err != nil {
		return err
	}

	rl.SetConfigFlags(rl.FlagWindowHidden)
	rl.InitWindow(int32(width), int32(height), "Shader Debug")
	defer rl.CloseWindow()

	dev, err := renderer.New()
	if err != nil {
		return err
	}

	var mesh []float32
	if cfg.Mesh.Path != "" {
		if mesh, err = meshimport.Load(cfg.Mesh.Path); err != nil {
			return err
		}
	}

	loop, err := feedback.New(dev, app.LoopOptions(cfg, mesh))
	if err != nil {
		return err
	}
	defer loop.Close()

	orbit := camera.NewOrbit(cfg.Derived.Target, float32(cfg.View.Distance), float32(cfg.View.FOV), float32(width), float32(height))

	// Points land on the default framebuffer, so the capture reads the back
	// buffer before the last swap.
	var img *rl.Image
	for i := 1; i <= frames; i++ {
		rl.BeginDrawing()
		rl.ClearBackground(rl.Black)
		err := loop.Frame(dev, float64(i)/fps, orbit.ViewProjection())
		if err == nil && i == frames {
			img = rl.LoadImageFromScreen()
		}
		rl.EndDrawing()
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}
	if img == nil {
		return fmt.Errorf("no frames rendered")
	}

	ok := rl.ExportImage(*img, outPath)
	rl.UnloadImage(img)
	if !ok {
		return fmt.Errorf("failed to export %s", outPath)
	}
	fmt.Printf("Point cloud rendered to: %s (%dx%d, %d frames)\n", outPath, width, height, frames)

	if statePath == "" {
		return nil
	}
	data, err := loop.Snapshot(dev)
	if err != nil {
		return err
	}
	f, err := os.Create(statePath)
	if err != nil {
		return err
	}
	if err := telemetry.WriteSnapshot(f, data, loop.Count()); err != nil {
		f.Close()
		return err
	}
	fmt.Printf("State texture written to: %s (%d particles)\n", statePath, loop.Count())
	return f.Close()
}
