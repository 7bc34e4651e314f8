package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseSimulate)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseUI)
		time.Sleep(200 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()

	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration")
	}
	if _, ok := stats.PhaseAvg[PhaseSimulate]; !ok {
		t.Error("expected simulate phase to be tracked")
	}
	if _, ok := stats.PhaseAvg[PhaseUI]; !ok {
		t.Error("expected ui phase to be tracked")
	}
	if stats.MinTickDuration > stats.P95TickDuration || stats.P95TickDuration > stats.MaxTickDuration {
		t.Errorf("expected min <= p95 <= max, got %v %v %v", stats.MinTickDuration, stats.P95TickDuration, stats.MaxTickDuration)
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	for i := 0; i < 10; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseSimulate)
		pc.EndTick()
	}

	if pc.sampleCount != 5 {
		t.Errorf("expected window to cap at 5 samples, got %d", pc.sampleCount)
	}

	stats := pc.Stats()
	if stats.TicksPerSecond <= 0 {
		t.Error("expected positive ticks per second")
	}
}

func TestPerfCollector_KnownSamples(t *testing.T) {
	pc := NewPerfCollector(4)
	for _, d := range []time.Duration{4, 1, 3, 2} {
		pc.record(PerfSample{
			TickDuration: d * time.Millisecond,
			Phases:       map[string]time.Duration{PhaseSimulate: d * time.Millisecond / 2},
		})
	}

	stats := pc.Stats()

	if stats.AvgTickDuration != 2500*time.Microsecond {
		t.Errorf("expected 2.5ms average, got %v", stats.AvgTickDuration)
	}
	if stats.MinTickDuration != time.Millisecond || stats.MaxTickDuration != 4*time.Millisecond {
		t.Errorf("expected 1ms..4ms, got %v..%v", stats.MinTickDuration, stats.MaxTickDuration)
	}
	if stats.P95TickDuration != 4*time.Millisecond {
		t.Errorf("expected p95 of 4ms, got %v", stats.P95TickDuration)
	}
	if stats.StdTickDuration <= 0 {
		t.Error("expected positive spread")
	}
	if pct := stats.PhasePct[PhaseSimulate]; pct < 49.9 || pct > 50.1 {
		t.Errorf("expected simulate at 50%%, got %v", pct)
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase("fast")
		time.Sleep(10 * time.Microsecond)
		pc.StartPhase("slow")
		time.Sleep(100 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.PhasePct["slow"] <= stats.PhasePct["fast"] {
		t.Errorf("expected slow phase (%v%%) > fast phase (%v%%)", stats.PhasePct["slow"], stats.PhasePct["fast"])
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10)

	stats := pc.Stats()

	if stats.AvgTickDuration != 0 {
		t.Error("expected zero avg tick duration for empty collector")
	}
	if stats.PhaseAvg == nil || stats.PhasePct == nil {
		t.Error("expected non-nil phase maps")
	}
}

func TestPerfCollector_SingleSample(t *testing.T) {
	pc := NewPerfCollector(10)
	pc.record(PerfSample{TickDuration: time.Millisecond})

	stats := pc.Stats()
	if stats.StdTickDuration != 0 {
		t.Errorf("expected zero spread for one sample, got %v", stats.StdTickDuration)
	}
}

func TestPerfCollector_FrameTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	pc.RecordFrame()
	time.Sleep(16 * time.Millisecond)
	pc.RecordFrame()

	stats := pc.Stats()

	if stats.FrameDuration < 15*time.Millisecond {
		t.Errorf("expected frame duration >= 15ms, got %v", stats.FrameDuration)
	}
	if stats.FPS <= 0 || stats.FPS > 80 {
		t.Errorf("expected FPS in (0, 80] with 16ms frame time, got %v", stats.FPS)
	}
}

func TestPerfStats_ToCSV(t *testing.T) {
	stats := PerfStats{
		AvgTickDuration: 1500 * time.Microsecond,
		PhasePct:        map[string]float64{PhaseSimulate: 70, PhaseUI: 20, PhasePresent: 10},
	}

	row := stats.ToCSV("run", 120)
	if row.RunID != "run" || row.Frame != 120 {
		t.Errorf("unexpected identity columns: %+v", row)
	}
	if row.AvgTickUS != 1500 {
		t.Errorf("expected 1500us, got %d", row.AvgTickUS)
	}
	if row.SimulatePct != 70 || row.UIPct != 20 || row.PresentPct != 10 {
		t.Errorf("unexpected phase columns: %+v", row)
	}
}
