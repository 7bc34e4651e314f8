package app

import (
	"log/slog"

	"github.com/pthm-cable/fboparticles/telemetry"
	"github.com/pthm-cable/fboparticles/ui"
)

// wantsCloud reports whether anything consumes cloud stats this flush.
func (a *App) wantsCloud() bool {
	if a.logStats || a.outputManager != nil {
		return true
	}
	return a.overlays != nil && a.overlays.IsEnabled(ui.OverlayCloud)
}

// sampleCloud reads the state texture back and summarises it.
func (a *App) sampleCloud() (telemetry.CloudStats, bool) {
	data, err := a.loop.Snapshot(a.dev)
	if err != nil {
		slog.Error("failed to read state texture", "error", err)
		return telemetry.CloudStats{}, false
	}
	return telemetry.ComputeCloudStats(int64(a.loop.Frames()), a.clock, data, a.loop.Count()), true
}

// maybeFlush runs the periodic telemetry work once per log interval of
// simulation time, plus state dumps every snapshot_every frames.
func (a *App) maybeFlush() {
	cfg := a.cfg.Telemetry
	frame := a.loop.Frames()

	if a.outputManager != nil && cfg.SnapshotEvery > 0 && frame%uint64(cfg.SnapshotEvery) == 0 {
		a.writeSnapshot()
	}

	if a.clock-a.lastFlush < cfg.LogInterval {
		return
	}
	a.lastFlush = a.clock
	a.flushTelemetry()
}

// flushTelemetry logs and records perf and cloud stats.
func (a *App) flushTelemetry() {
	frame := int64(a.loop.Frames())
	perfStats := a.perfCollector.Stats()

	if a.wantsCloud() {
		if stats, ok := a.sampleCloud(); ok {
			a.lastCloud = stats
		}
	}

	if a.logStats {
		perfStats.LogStats()
		a.lastCloud.LogStats()
	}

	if a.outputManager != nil {
		if err := a.outputManager.WritePerf(perfStats, frame); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
		if err := a.outputManager.WriteCloud(a.lastCloud); err != nil {
			slog.Error("failed to write cloud stats", "error", err)
		}
	}
}

// writeSnapshot dumps the current state texture.
func (a *App) writeSnapshot() {
	data, err := a.loop.Snapshot(a.dev)
	if err != nil {
		slog.Error("failed to read state texture", "error", err)
		return
	}
	path, err := a.outputManager.WriteSnapshot(int64(a.loop.Frames()), data, a.loop.Count())
	if err != nil {
		slog.Error("failed to write snapshot", "error", err)
		return
	}
	slog.Info("snapshot written", "path", path, "frame", a.loop.Frames())
}
