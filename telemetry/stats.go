package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// CloudStats summarises one state texture read back from the render target.
type CloudStats struct {
	Frame     int64   `csv:"frame"`
	SimTime   float64 `csv:"sim_time"`
	Particles int     `csv:"particles"`

	// Centroid of the real particles
	CentroidX float64 `csv:"centroid_x"`
	CentroidY float64 `csv:"centroid_y"`
	CentroidZ float64 `csv:"centroid_z"`

	// Distance from the origin
	RadiusMean float64 `csv:"radius_mean"`
	RadiusStd  float64 `csv:"radius_std"`
	RadiusP10  float64 `csv:"radius_p10"`
	RadiusP50  float64 `csv:"radius_p50"`
	RadiusP90  float64 `csv:"radius_p90"`
	RadiusMax  float64 `csv:"radius_max"`

	// Texels that came back NaN or infinite
	NonFinite int `csv:"non_finite"`
}

// ComputeCloudStats reads the first count texels of an RGBA state texture.
// Padding texels past count are ignored.
func ComputeCloudStats(frame int64, simTime float64, data []float32, count int) CloudStats {
	s := CloudStats{Frame: frame, SimTime: simTime}
	if n := len(data) / 4; count > n {
		count = n
	}

	xs := make([]float64, 0, count)
	ys := make([]float64, 0, count)
	zs := make([]float64, 0, count)
	radii := make([]float64, 0, count)
	for i := 0; i < count; i++ {
		x, y, z := float64(data[i*4]), float64(data[i*4+1]), float64(data[i*4+2])
		r := math.Sqrt(x*x + y*y + z*z)
		if math.IsNaN(r) || math.IsInf(r, 0) {
			s.NonFinite++
			continue
		}
		xs = append(xs, x)
		ys = append(ys, y)
		zs = append(zs, z)
		radii = append(radii, r)
	}

	s.Particles = len(radii)
	if s.Particles == 0 {
		return s
	}

	s.CentroidX = stat.Mean(xs, nil)
	s.CentroidY = stat.Mean(ys, nil)
	s.CentroidZ = stat.Mean(zs, nil)

	sort.Float64s(radii)
	s.RadiusMean, s.RadiusStd = stat.PopMeanStdDev(radii, nil)
	s.RadiusP10 = stat.Quantile(0.10, stat.LinInterp, radii, nil)
	s.RadiusP50 = stat.Quantile(0.50, stat.LinInterp, radii, nil)
	s.RadiusP90 = stat.Quantile(0.90, stat.LinInterp, radii, nil)
	s.RadiusMax = radii[len(radii)-1]
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s CloudStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("frame", s.Frame),
		slog.Float64("sim_time", s.SimTime),
		slog.Int("particles", s.Particles),
		slog.Float64("centroid_x", s.CentroidX),
		slog.Float64("centroid_y", s.CentroidY),
		slog.Float64("centroid_z", s.CentroidZ),
		slog.Float64("radius_mean", s.RadiusMean),
		slog.Float64("radius_std", s.RadiusStd),
		slog.Float64("radius_p50", s.RadiusP50),
		slog.Float64("radius_max", s.RadiusMax),
		slog.Int("non_finite", s.NonFinite),
	)
}

// LogStats logs the cloud stats using slog.
func (s CloudStats) LogStats() {
	slog.Info("cloud",
		"frame", s.Frame,
		"sim_time", s.SimTime,
		"particles", s.Particles,
		"radius_mean", s.RadiusMean,
		"radius_p10", s.RadiusP10,
		"radius_p90", s.RadiusP90,
		"radius_max", s.RadiusMax,
		"non_finite", s.NonFinite,
	)
}
