package ui

import (
	"testing"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/fboparticles/feedback"
	"github.com/pthm-cable/fboparticles/pointcloud"
	"github.com/pthm-cable/fboparticles/telemetry"
)

func TestOverlayRegistry_Defaults(t *testing.T) {
	reg := NewOverlayRegistry()

	assert.True(t, reg.IsEnabled(OverlayHUD))
	assert.True(t, reg.IsEnabled(OverlayControls))
	assert.False(t, reg.IsEnabled(OverlayPerf))
	assert.False(t, reg.IsEnabled(OverlayCloud))
	assert.Equal(t, []OverlayID{OverlayHUD, OverlayControls}, reg.EnabledOverlays())
}

func TestOverlayRegistry_Exclusive(t *testing.T) {
	reg := NewOverlayRegistry()

	assert.True(t, reg.Toggle(OverlayPerf))
	assert.True(t, reg.Toggle(OverlayCloud))
	assert.False(t, reg.IsEnabled(OverlayPerf), "cloud stats should replace frame timing")

	reg.SetEnabled(OverlayPerf, true)
	assert.False(t, reg.IsEnabled(OverlayCloud))

	assert.False(t, reg.Toggle("missing"))
}

func TestOverlayRegistry_HandleKeyPress(t *testing.T) {
	reg := NewOverlayRegistry()

	id, on, ok := reg.HandleKeyPress(rl.KeyH)
	require.True(t, ok)
	assert.Equal(t, OverlayHUD, id)
	assert.False(t, on)

	_, _, ok = reg.HandleKeyPress(rl.KeyZ)
	assert.False(t, ok)
}

func TestOverlayRegistry_Legend(t *testing.T) {
	reg := NewOverlayRegistry()
	assert.Equal(t, "[H] HUD  [Tab] Controls  [P] Frame Timing  [S] Cloud Stats", reg.Legend())
}

func TestFieldRange_Normalize(t *testing.T) {
	r := FieldRange{Min: 0, Max: 2}
	assert.Equal(t, float32(0), r.Normalize(-1))
	assert.Equal(t, float32(0.5), r.Normalize(1))
	assert.Equal(t, float32(1), r.Normalize(3))
	assert.Equal(t, float32(0), FieldRange{Min: 1, Max: 1}.Normalize(5))
	assert.Equal(t, float32(0.25), DefaultRange().Normalize(0.25))
}

func TestFieldText(t *testing.T) {
	fd := FieldDescriptor{Getter: func(any) float32 { return 1.5 }}
	assert.Equal(t, "1.50", FieldText(fd, nil))

	fd.Format = "%.0f"
	assert.Equal(t, "2", FieldText(fd, nil))

	fd.TextGetter = func(any) string { return "text" }
	assert.Equal(t, "text", FieldText(fd, nil))

	assert.Empty(t, FieldText(FieldDescriptor{}, nil))
}

func TestCloudSections_Visibility(t *testing.T) {
	r := NewRenderer()
	lh := r.Theme.LineHeight

	var sample, radius SectionDescriptor
	for _, sd := range CloudSections() {
		switch sd.ID {
		case "sample":
			sample = sd
		case "radius":
			radius = sd
		}
	}

	empty := telemetry.CloudStats{}
	assert.Zero(t, r.SectionHeight(radius, empty), "radius section hides without particles")
	assert.Equal(t, 3*lh+4, r.SectionHeight(sample, empty), "title plus frame and particles")

	bad := telemetry.CloudStats{Particles: 10, NonFinite: 2}
	assert.Equal(t, 4*lh+4, r.SectionHeight(sample, bad), "non-finite row appears")
	assert.Equal(t, 4*lh+3*(lh+2)+4, r.SectionHeight(radius, bad))

	panel := NewCloudPanel(0, 0, 200)
	assert.Greater(t, panel.Height(bad), panel.Height(empty))
}

func TestSortedPhases(t *testing.T) {
	stats := telemetry.PerfStats{PhaseAvg: map[string]time.Duration{
		telemetry.PhaseUI:       time.Millisecond,
		telemetry.PhaseSimulate: 3 * time.Millisecond,
		telemetry.PhasePresent:  time.Millisecond,
	}}

	assert.Equal(t, []string{telemetry.PhaseSimulate, telemetry.PhasePresent, telemetry.PhaseUI}, SortedPhases(stats))
	assert.Empty(t, SortedPhases(telemetry.PerfStats{}))
}

func TestControls(t *testing.T) {
	opts := feedback.DefaultOptions()
	ctl := ControlsFrom(opts)

	assert.Equal(t, opts.Frequency, ctl.Frequency)
	assert.Equal(t, opts.Amplitude, ctl.Amplitude)
	assert.Equal(t, opts.Points.PointSize, ctl.PointSize)
	assert.False(t, ctl.ShowPadding)

	ctl.PointSize = 4
	ctl.Alpha = 0.5
	ctl.ShowPadding = true
	got := ctl.PointOptions(opts.Points)

	assert.Equal(t, float32(4), got.PointSize)
	assert.Equal(t, float32(0.5), got.Alpha)
	assert.Equal(t, pointcloud.PaddingShow, got.Padding)
	assert.Equal(t, opts.Points.Color, got.Color, "color is not a slider")
}

func TestControlsPanel_Contains(t *testing.T) {
	p := NewControlsPanel(10, 100, 200)
	assert.True(t, p.Contains(15, 105))
	assert.False(t, p.Contains(5, 105))
	assert.False(t, p.Contains(15, 100+controlsHeight))
}

func TestControlsPanel_FollowsResize(t *testing.T) {
	x, y := ControlsOrigin(720)
	assert.Equal(t, int32(10), x)
	assert.Equal(t, int32(100), y, "tall screens keep the panel under the HUD")

	x, y = ControlsOrigin(400)
	assert.Equal(t, int32(10), x)
	assert.Equal(t, int32(400-controlsHeight-40), y)

	_, y = ControlsOrigin(200)
	assert.Equal(t, int32(10), y, "never above the top margin")

	p := NewControlsPanel(10, 100, 200)
	p.SetPosition(ControlsOrigin(400))
	assert.True(t, p.Contains(15, 61))
	assert.False(t, p.Contains(15, 59))
}
