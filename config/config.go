// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/fboparticles/camera"
	"github.com/pthm-cable/fboparticles/pointcloud"
	"github.com/pthm-cable/fboparticles/simulation"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	Simulation SimulationConfig `yaml:"simulation"`
	Mesh       MeshConfig       `yaml:"mesh"`
	SimCamera  SimCameraConfig  `yaml:"sim_camera"`
	View       ViewConfig       `yaml:"view"`
	Points     PointsConfig     `yaml:"points"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	TargetFPS int    `yaml:"target_fps"`
	Title     string `yaml:"title"`
}

// SimulationConfig holds the feedback pass parameters.
type SimulationConfig struct {
	Variant   string  `yaml:"variant"`   // procedural | mesh
	Size      int     `yaml:"size"`      // Grid side for the procedural seed
	Frequency float64 `yaml:"frequency"` // uFrequency
	Amplitude float64 `yaml:"amplitude"` // uAmplitude (0 = variant default)
	Seed      int64   `yaml:"seed"`      // RNG seed for the procedural scatter
}

// MeshConfig holds mesh-seed parameters.
type MeshConfig struct {
	Path    string `yaml:"path"`    // .ply or .csv; setting it selects the mesh variant
	Padding string `yaml:"padding"` // hide | show
}

// SimCameraConfig holds the orthographic camera that frames the simulation quad.
type SimCameraConfig struct {
	Left   float64 `yaml:"left"`
	Right  float64 `yaml:"right"`
	Top    float64 `yaml:"top"`
	Bottom float64 `yaml:"bottom"`
	Near   float64 `yaml:"near"` // 0 = 2^-53
	Far    float64 `yaml:"far"`
}

// ViewConfig holds the orbit camera the point cloud is viewed through.
type ViewConfig struct {
	FOV         float64    `yaml:"fov"`
	Distance    float64    `yaml:"distance"`
	MinDistance float64    `yaml:"min_distance"`
	MaxDistance float64    `yaml:"max_distance"`
	Target      [3]float64 `yaml:"target"`
}

// PointsConfig holds point cloud appearance.
type PointsConfig struct {
	Size  float64    `yaml:"size"`
	Color [3]float64 `yaml:"color"`
	Alpha float64    `yaml:"alpha"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	PerfWindow    int     `yaml:"perf_window"`    // Frames kept for rolling statistics
	LogInterval   float64 `yaml:"log_interval"`   // Seconds between perf log lines
	SnapshotEvery int     `yaml:"snapshot_every"` // Frames between state dumps (0 = final only)
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Variant   simulation.Variant
	Padding   pointcloud.PaddingPolicy
	Frequency float32
	Amplitude float32
	SimCamera camera.Ortho
	Target    mgl32.Vec3
	Color     mgl32.Vec3
	ScreenW32 float32
	ScreenH32 float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Finalize validates the configuration and recomputes derived values. Call it
// after changing fields by hand (for example from command-line flags).
func (c *Config) Finalize() error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.computeDerived()
	return nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Screen.Width <= 0 || c.Screen.Height <= 0 {
		errs = append(errs, fmt.Errorf("screen size %dx%d must be positive", c.Screen.Width, c.Screen.Height))
	}
	v, err := simulation.ParseVariant(c.Simulation.Variant)
	if err != nil {
		errs = append(errs, err)
	}
	if v == simulation.ProceduralSeed && c.Mesh.Path == "" && c.Simulation.Size <= 0 {
		errs = append(errs, fmt.Errorf("simulation.size must be positive, got %d", c.Simulation.Size))
	}
	if v == simulation.MeshSeed && c.Mesh.Path == "" {
		errs = append(errs, errors.New("mesh variant needs mesh.path"))
	}
	if !finite(c.Simulation.Frequency) {
		errs = append(errs, fmt.Errorf("simulation.frequency must be finite, got %v", c.Simulation.Frequency))
	}
	if !finite(c.Simulation.Amplitude) {
		errs = append(errs, fmt.Errorf("simulation.amplitude must be finite, got %v", c.Simulation.Amplitude))
	}
	if _, err := pointcloud.ParsePadding(c.Mesh.Padding); err != nil {
		errs = append(errs, err)
	}
	if c.SimCamera.Near < 0 || (c.SimCamera.Far <= c.SimCamera.Near) {
		errs = append(errs, fmt.Errorf("sim_camera near %v / far %v", c.SimCamera.Near, c.SimCamera.Far))
	}
	if c.View.MinDistance <= 0 || c.View.MaxDistance < c.View.MinDistance {
		errs = append(errs, fmt.Errorf("view distance range [%v, %v]", c.View.MinDistance, c.View.MaxDistance))
	}
	if c.Points.Size <= 0 {
		errs = append(errs, fmt.Errorf("points.size must be positive, got %v", c.Points.Size))
	}
	if c.Telemetry.PerfWindow <= 0 {
		errs = append(errs, fmt.Errorf("telemetry.perf_window must be positive, got %d", c.Telemetry.PerfWindow))
	}
	if c.Telemetry.LogInterval <= 0 {
		errs = append(errs, fmt.Errorf("telemetry.log_interval must be positive, got %v", c.Telemetry.LogInterval))
	}
	if c.Telemetry.SnapshotEvery < 0 {
		errs = append(errs, fmt.Errorf("telemetry.snapshot_every must not be negative, got %d", c.Telemetry.SnapshotEvery))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.Variant, _ = simulation.ParseVariant(c.Simulation.Variant)
	// A mesh path always means the mesh variant.
	if c.Mesh.Path != "" {
		c.Derived.Variant = simulation.MeshSeed
	}
	c.Derived.Padding, _ = pointcloud.ParsePadding(c.Mesh.Padding)

	c.Derived.Frequency = float32(c.Simulation.Frequency)
	c.Derived.Amplitude = float32(c.Simulation.Amplitude)
	if c.Derived.Amplitude == 0 {
		c.Derived.Amplitude = simulation.DefaultAmplitude(c.Derived.Variant)
	}

	near := float32(c.SimCamera.Near)
	if near == 0 {
		near = camera.SimNear
	}
	c.Derived.SimCamera = camera.Ortho{
		Left:   float32(c.SimCamera.Left),
		Right:  float32(c.SimCamera.Right),
		Bottom: float32(c.SimCamera.Bottom),
		Top:    float32(c.SimCamera.Top),
		Near:   near,
		Far:    float32(c.SimCamera.Far),
	}

	c.Derived.Target = vec3(c.View.Target)
	c.Derived.Color = vec3(c.Points.Color)
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)
}

func vec3(v [3]float64) mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
