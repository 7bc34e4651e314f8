package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fboparticles/feedback"
	"github.com/pthm-cable/fboparticles/pointcloud"
)

// Slider limits.
const (
	FrequencyMax = 2.0
	AmplitudeMax = 2.0
	PointSizeMin = 1.0
	PointSizeMax = 10.0
)

// Controls are the values the tuning panel edits.
type Controls struct {
	Frequency   float32
	Amplitude   float32
	PointSize   float32
	Alpha       float32
	ShowPadding bool
	Paused      bool
}

// ControlsFrom reads the tunable values out of loop options.
func ControlsFrom(opts feedback.Options) Controls {
	return Controls{
		Frequency:   opts.Frequency,
		Amplitude:   opts.Amplitude,
		PointSize:   opts.Points.PointSize,
		Alpha:       opts.Points.Alpha,
		ShowPadding: opts.Points.Padding == pointcloud.PaddingShow,
	}
}

// PointOptions applies the point settings to base.
func (c Controls) PointOptions(base pointcloud.Options) pointcloud.Options {
	base.PointSize = c.PointSize
	base.Alpha = c.Alpha
	base.Padding = pointcloud.PaddingHide
	if c.ShowPadding {
		base.Padding = pointcloud.PaddingShow
	}
	return base
}

// Actions are the one-shot buttons pressed this frame.
type Actions struct {
	ResetCamera bool
	ResetTime   bool
}

// ControlsPanel renders the tuning sliders.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (c *ControlsPanel) SetPosition(x, y int32) {
	c.x = x
	c.y = y
}

const controlsHeight = 300

// ControlsOrigin places the controls panel on a screen of the given height:
// below the HUD when there is room, lifted clear of the legend when not.
func ControlsOrigin(screenHeight int32) (x, y int32) {
	y = 100
	if limit := screenHeight - controlsHeight - 40; limit < y {
		y = limit
	}
	return 10, max(y, 10)
}

// Contains reports whether a screen point is over the panel, so camera
// dragging can ignore clicks on the sliders.
func (c *ControlsPanel) Contains(px, py float32) bool {
	return px >= float32(c.x) && px < float32(c.x+c.width) &&
		py >= float32(c.y) && py < float32(c.y+controlsHeight)
}

// Draw renders the panel, writes slider changes into ctl and returns the
// buttons pressed.
func (c *ControlsPanel) Draw(ctl *Controls) Actions {
	r := c.renderer
	padding := r.Theme.Padding

	r.DrawPanel(c.x, c.y, c.width, controlsHeight)

	x := float32(c.x + padding)
	y := float32(c.y + padding)
	sliderW := float32(c.width - padding*2 - 50)

	rl.DrawText("Simulation", int32(x), int32(y), 16, rl.White)
	y += 24

	ctl.Frequency = c.slider(x, &y, sliderW, "Frequency", ctl.Frequency, 0, FrequencyMax)
	ctl.Amplitude = c.slider(x, &y, sliderW, "Amplitude", ctl.Amplitude, 0, AmplitudeMax)

	rl.DrawText("Points", int32(x), int32(y), 16, rl.White)
	y += 24

	ctl.PointSize = c.slider(x, &y, sliderW, "Size", ctl.PointSize, PointSizeMin, PointSizeMax)
	ctl.Alpha = c.slider(x, &y, sliderW, "Alpha", ctl.Alpha, 0, 1)

	var act Actions
	bw := (float32(c.width-padding*2) - 10) / 2

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: bw, Height: 24}, toggleText(ctl.ShowPadding, "Hide Padding", "Show Padding")) {
		ctl.ShowPadding = !ctl.ShowPadding
	}
	if gui.Button(rl.Rectangle{X: x + bw + 10, Y: y, Width: bw, Height: 24}, toggleText(ctl.Paused, "Resume", "Pause")) {
		ctl.Paused = !ctl.Paused
	}
	y += 32

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: bw, Height: 24}, "Reset Camera") {
		act.ResetCamera = true
	}
	if gui.Button(rl.Rectangle{X: x + bw + 10, Y: y, Width: bw, Height: 24}, "Reset Time") {
		act.ResetTime = true
	}

	return act
}

func (c *ControlsPanel) slider(x float32, y *float32, w float32, label string, value, min, max float32) float32 {
	t := c.renderer.Theme
	rl.DrawText(label, int32(x), int32(*y), t.FontSize, t.LabelColor)
	*y += 14
	v := gui.SliderBar(rl.Rectangle{X: x, Y: *y, Width: w, Height: 16}, "", "", value, min, max)
	rl.DrawText(fmt.Sprintf("%.2f", v), int32(x+w+8), int32(*y+2), t.FontSize, t.ValueColor)
	*y += 26
	return v
}

func toggleText(on bool, onText, offText string) string {
	if on {
		return onText
	}
	return offText
}
