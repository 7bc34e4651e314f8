package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"

	"github.com/pthm-cable/fboparticles/config"
)

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir       string
	runID     string
	perfFile  *os.File
	cloudFile *os.File

	// Track if headers have been written
	perfHeaderWritten  bool
	cloudHeaderWritten bool
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(filepath.Join(dir, "snapshots"), 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir, runID: uuid.NewString()}

	f, err := os.Create(filepath.Join(dir, "perf.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating perf.csv: %w", err)
	}
	om.perfFile = f

	f, err = os.Create(filepath.Join(dir, "cloud.csv"))
	if err != nil {
		om.perfFile.Close()
		return nil, fmt.Errorf("creating cloud.csv: %w", err)
	}
	om.cloudFile = f

	return om, nil
}

// RunID identifies this run in every CSV row.
func (om *OutputManager) RunID() string {
	if om == nil {
		return ""
	}
	return om.runID
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, frame int64) error {
	if om == nil {
		return nil
	}

	records := []PerfStatsCSV{stats.ToCSV(om.runID, frame)}

	if !om.perfHeaderWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, om.perfFile); err != nil {
			return fmt.Errorf("writing perf: %w", err)
		}
		om.perfHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.perfFile); err != nil {
			return fmt.Errorf("writing perf: %w", err)
		}
	}

	return nil
}

// WriteCloud writes a cloud stats record to cloud.csv.
func (om *OutputManager) WriteCloud(stats CloudStats) error {
	if om == nil {
		return nil
	}

	records := []CloudStats{stats}

	if !om.cloudHeaderWritten {
		if err := gocsv.Marshal(records, om.cloudFile); err != nil {
			return fmt.Errorf("writing cloud stats: %w", err)
		}
		om.cloudHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.cloudFile); err != nil {
			return fmt.Errorf("writing cloud stats: %w", err)
		}
	}

	return nil
}

// WriteSnapshot saves a state texture to snapshots/state_<frame>.csv and
// returns the path.
func (om *OutputManager) WriteSnapshot(frame int64, data []float32, count int) (string, error) {
	if om == nil {
		return "", nil
	}

	path := filepath.Join(om.dir, "snapshots", fmt.Sprintf("state_%06d.csv", frame))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating snapshot: %w", err)
	}
	if err := WriteSnapshot(f, data, count); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing snapshot: %w", err)
	}
	return path, nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error

	if om.perfFile != nil {
		if err := om.perfFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if om.cloudFile != nil {
		if err := om.cloudFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
