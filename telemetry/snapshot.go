package telemetry

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
)

// TexelState is one texel of a state texture as written to a snapshot.
type TexelState struct {
	Index   int     `csv:"index"`
	X       float32 `csv:"x"`
	Y       float32 `csv:"y"`
	Z       float32 `csv:"z"`
	W       float32 `csv:"w"`
	Padding bool    `csv:"padding"`
}

// SnapshotRows flattens an RGBA state texture. Texels from count onward are
// marked as padding.
func SnapshotRows(data []float32, count int) []TexelState {
	rows := make([]TexelState, len(data)/4)
	for i := range rows {
		rows[i] = TexelState{
			Index:   i,
			X:       data[i*4],
			Y:       data[i*4+1],
			Z:       data[i*4+2],
			W:       data[i*4+3],
			Padding: i >= count,
		}
	}
	return rows
}

// WriteSnapshot writes a state texture as CSV with a header row.
func WriteSnapshot(w io.Writer, data []float32, count int) error {
	if len(data)%4 != 0 {
		return fmt.Errorf("state has %d floats, not whole texels", len(data))
	}
	if err := gocsv.Marshal(SnapshotRows(data, count), w); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot reads a CSV written by WriteSnapshot back into RGBA floats.
func ReadSnapshot(r io.Reader) ([]float32, error) {
	var rows []TexelState
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	data := make([]float32, len(rows)*4)
	for i, t := range rows {
		if t.Index != i {
			return nil, fmt.Errorf("snapshot row %d has index %d", i, t.Index)
		}
		data[i*4], data[i*4+1], data[i*4+2], data[i*4+3] = t.X, t.Y, t.Z, t.W
	}
	return data, nil
}
