// Package meshimport reads point positions out of mesh files so they can seed
// the particle state. Only vertex positions are kept; faces, normals and
// colours are ignored.
package meshimport

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
)

var (
	// ErrUnsupported is returned for file types or encodings that cannot be read.
	ErrUnsupported = errors.New("meshimport: unsupported format")
	// ErrMalformed is returned when a file does not parse.
	ErrMalformed = errors.New("meshimport: malformed mesh")
)

// Load reads xyz triples from path. The extension picks the parser: .ply or
// .csv (header row with x, y, z columns).
func Load(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening mesh: %w", err)
	}
	defer f.Close()

	var positions []float32
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".ply":
		positions, err = ReadPLY(f)
	case ".csv":
		positions, err = ReadCSV(f)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(positions) == 0 {
		return nil, fmt.Errorf("%w: %s has no vertices", ErrMalformed, path)
	}

	slog.Info("mesh loaded", "path", path, "vertices", len(positions)/3)
	return positions, nil
}

// Vertex is one CSV row.
type Vertex struct {
	X float32 `csv:"x"`
	Y float32 `csv:"y"`
	Z float32 `csv:"z"`
}

// ReadCSV reads a CSV point list with x, y, z header columns. Extra columns
// are ignored.
func ReadCSV(r io.Reader) ([]float32, error) {
	var rows []Vertex
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	out := make([]float32, 0, len(rows)*3)
	for _, v := range rows {
		out = append(out, v.X, v.Y, v.Z)
	}
	return out, nil
}

// WriteCSV writes positions as CSV rows with an x, y, z header.
func WriteCSV(w io.Writer, positions []float32) error {
	if len(positions)%3 != 0 {
		return fmt.Errorf("%w: %d floats are not whole xyz triples", ErrMalformed, len(positions))
	}
	rows := make([]Vertex, len(positions)/3)
	for i := range rows {
		rows[i] = Vertex{X: positions[i*3], Y: positions[i*3+1], Z: positions[i*3+2]}
	}
	return gocsv.Marshal(rows, w)
}
