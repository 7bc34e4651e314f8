package meshimport

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const asciiPLY = `ply
format ascii 1.0
comment exported for tests
element vertex 3
property float x
property float y
property float z
property uchar red
element face 1
property list uchar int vertex_indices
end_header
0 0 0 255
1 0.5 -2 128
-1.25 2 3 0
3 0 1 2
`

func TestReadPLYASCII(t *testing.T) {
	got, err := ReadPLY(strings.NewReader(asciiPLY))
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 0, 1, 0.5, -2, -1.25, 2, 3}, got)
}

func binaryPLY(t *testing.T, order binary.ByteOrder, name string) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("ply\nformat " + name + " 1.0\n")
	buf.WriteString("element header_junk 1\nproperty list uchar ushort ids\n")
	buf.WriteString("element vertex 2\nproperty double x\nproperty float y\nproperty short z\nproperty float nx\n")
	buf.WriteString("end_header\n")

	// header_junk: a two-entry list.
	buf.WriteByte(2)
	require.NoError(t, binary.Write(&buf, order, []uint16{7, 9}))

	require.NoError(t, binary.Write(&buf, order, float64(1.5)))
	require.NoError(t, binary.Write(&buf, order, float32(-2)))
	require.NoError(t, binary.Write(&buf, order, int16(-3)))
	require.NoError(t, binary.Write(&buf, order, float32(9)))

	require.NoError(t, binary.Write(&buf, order, float64(0.25)))
	require.NoError(t, binary.Write(&buf, order, float32(4)))
	require.NoError(t, binary.Write(&buf, order, int16(100)))
	require.NoError(t, binary.Write(&buf, order, float32(9)))
	return buf.Bytes()
}

func TestReadPLYBinary(t *testing.T) {
	tests := []struct {
		name  string
		order binary.ByteOrder
	}{
		{"binary_little_endian", binary.LittleEndian},
		{"binary_big_endian", binary.BigEndian},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadPLY(bytes.NewReader(binaryPLY(t, tt.order, tt.name)))
			require.NoError(t, err)
			assert.Equal(t, []float32{1.5, -2, -3, 0.25, 4, 100}, got)
		})
	}
}

func TestReadPLYErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"no magic", "obj\n", ErrMalformed},
		{"unknown format", "ply\nformat utf16 1.0\nend_header\n", ErrUnsupported},
		{"no format", "ply\nelement vertex 0\nend_header\n", ErrMalformed},
		{"missing z", "ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\nproperty float y\nend_header\n1 2\n", ErrMalformed},
		{"no vertices", "ply\nformat ascii 1.0\nelement face 0\nproperty list uchar int vertex_indices\nend_header\n", ErrMalformed},
		{"truncated body", "ply\nformat ascii 1.0\nelement vertex 2\nproperty float x\nproperty float y\nproperty float z\nend_header\n1 2 3\n4\n", ErrMalformed},
		{"bad number", "ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\nproperty float y\nproperty float z\nend_header\n1 two 3\n", ErrMalformed},
		{"bad property type", "ply\nformat ascii 1.0\nelement vertex 1\nproperty quad x\nend_header\n", ErrMalformed},
		{"header cut short", "ply\nformat ascii 1.0\nelement vertex 1\n", ErrMalformed},
		{"count overflows", "ply\nformat ascii 1.0\nelement vertex 9223372036854775807\nproperty float x\nproperty float y\nproperty float z\nend_header\n1 2 3\n", ErrMalformed},
		{"count over limit", "ply\nformat ascii 1.0\nelement vertex 67108865\nproperty float x\nproperty float y\nproperty float z\nend_header\n1 2 3\n", ErrMalformed},
		{"count past body", "ply\nformat ascii 1.0\nelement vertex 1000000\nproperty float x\nproperty float y\nproperty float z\nend_header\n1 2 3\n", ErrMalformed},
		{"binary count past body", "ply\nformat binary_little_endian 1.0\nelement vertex 67108864\nproperty float x\nproperty float y\nproperty float z\nend_header\n\x00\x00\x80\x3f", ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadPLY(strings.NewReader(tt.in))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestReadCSV(t *testing.T) {
	in := "x,y,z,label\n1,2,3,a\n-0.5,0,4.25,b\n"
	got, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, -0.5, 0, 4.25}, got)

	_, err = ReadCSV(strings.NewReader("x,y,z\n1,oops,3\n"))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []float32{1, 2, 3, 4, 5, 6}))

	got, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, got)

	assert.ErrorIs(t, WriteCSV(&buf, []float32{1, 2}), ErrMalformed)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	plyPath := filepath.Join(dir, "bunny.PLY")
	require.NoError(t, os.WriteFile(plyPath, []byte(asciiPLY), 0o644))
	got, err := Load(plyPath)
	require.NoError(t, err)
	assert.Len(t, got, 9)

	csvPath := filepath.Join(dir, "cloud.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("x,y,z\n1,1,1\n"), 0o644))
	got, err = Load(csvPath)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 1, 1}, got)

	emptyPath := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(emptyPath, []byte("x,y,z\n"), 0o644))
	_, err = Load(emptyPath)
	assert.ErrorIs(t, err, ErrMalformed)

	objPath := filepath.Join(dir, "model.obj")
	require.NoError(t, os.WriteFile(objPath, []byte("v 0 0 0\n"), 0o644))
	_, err = Load(objPath)
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = Load(filepath.Join(dir, "missing.ply"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
