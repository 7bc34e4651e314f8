package ui

import (
	"fmt"

	"github.com/pthm-cable/fboparticles/telemetry"
)

func cloudStats(data any) telemetry.CloudStats {
	s, _ := data.(telemetry.CloudStats)
	return s
}

// CloudSections describes the cloud stats panel.
func CloudSections() []SectionDescriptor {
	return []SectionDescriptor{
		{
			ID:    "sample",
			Title: "Sample",
			Fields: []FieldDescriptor{
				{ID: "frame", Label: "Frame", Widget: WidgetText, TextGetter: func(d any) string {
					return fmt.Sprintf("%d", cloudStats(d).Frame)
				}},
				{ID: "particles", Label: "Particles", Widget: WidgetText, TextGetter: func(d any) string {
					return fmt.Sprintf("%d", cloudStats(d).Particles)
				}},
				{ID: "non_finite", Label: "Non-finite", Widget: WidgetText,
					Visible: func(d any) bool { return cloudStats(d).NonFinite > 0 },
					TextGetter: func(d any) string {
						return fmt.Sprintf("%d", cloudStats(d).NonFinite)
					}},
			},
		},
		{
			ID:    "centroid",
			Title: "Centroid",
			Fields: []FieldDescriptor{
				{ID: "centroid", Label: "xyz", Widget: WidgetText, TextGetter: func(d any) string {
					s := cloudStats(d)
					return fmt.Sprintf("%+.3f %+.3f %+.3f", s.CentroidX, s.CentroidY, s.CentroidZ)
				}},
			},
		},
		{
			ID:      "radius",
			Title:   "Radius",
			Visible: func(d any) bool { return cloudStats(d).Particles > 0 },
			Fields: []FieldDescriptor{
				{ID: "radius_mean", Label: "Mean", Widget: WidgetText, Format: "%.3f",
					Getter: func(d any) float32 { return float32(cloudStats(d).RadiusMean) }},
				{ID: "radius_std", Label: "Std", Widget: WidgetText, Format: "%.3f",
					Getter: func(d any) float32 { return float32(cloudStats(d).RadiusStd) }},
				{ID: "radius_p10", Label: "p10", Widget: WidgetBar, Range: FieldRange{Min: 0, Max: 2},
					Getter: func(d any) float32 { return float32(cloudStats(d).RadiusP10) }},
				{ID: "radius_p50", Label: "p50", Widget: WidgetBar, Range: FieldRange{Min: 0, Max: 2},
					Getter: func(d any) float32 { return float32(cloudStats(d).RadiusP50) }},
				{ID: "radius_p90", Label: "p90", Widget: WidgetBar, Range: FieldRange{Min: 0, Max: 2},
					Getter: func(d any) float32 { return float32(cloudStats(d).RadiusP90) }},
				{ID: "radius_max", Label: "Max", Widget: WidgetText, Format: "%.3f",
					Getter: func(d any) float32 { return float32(cloudStats(d).RadiusMax) }},
			},
		},
	}
}

// CloudPanel renders the latest cloud stats sample.
type CloudPanel struct {
	renderer *Renderer
	sections []SectionDescriptor
	x, y     int32
	width    int32
}

// NewCloudPanel creates a cloud stats panel.
func NewCloudPanel(x, y, width int32) *CloudPanel {
	return &CloudPanel{
		renderer: NewRenderer(),
		sections: CloudSections(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (c *CloudPanel) SetPosition(x, y int32) {
	c.x = x
	c.y = y
}

// Height returns the panel height for stats.
func (c *CloudPanel) Height(stats telemetry.CloudStats) int32 {
	h := c.renderer.Theme.Padding * 2
	for _, sd := range c.sections {
		h += c.renderer.SectionHeight(sd, stats)
	}
	return h
}

// Draw renders the panel and returns the Y below it.
func (c *CloudPanel) Draw(stats telemetry.CloudStats) int32 {
	r := c.renderer
	padding := r.Theme.Padding

	r.DrawPanel(c.x, c.y, c.width, c.Height(stats))

	y := c.y + padding
	for _, sd := range c.sections {
		y = r.DrawSection(c.x+padding, y, sd, stats, c.width-padding*2)
	}
	return y + padding
}
