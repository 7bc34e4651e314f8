package meshimport

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

type plyFormat int

const (
	plyASCII plyFormat = iota
	plyBinaryLE
	plyBinaryBE
)

type plyScalar int

const (
	plyInt8 plyScalar = iota
	plyUint8
	plyInt16
	plyUint16
	plyInt32
	plyUint32
	plyFloat32
	plyFloat64
)

var plyScalars = map[string]plyScalar{
	"char": plyInt8, "int8": plyInt8,
	"uchar": plyUint8, "uint8": plyUint8,
	"short": plyInt16, "int16": plyInt16,
	"ushort": plyUint16, "uint16": plyUint16,
	"int": plyInt32, "int32": plyInt32,
	"uint": plyUint32, "uint32": plyUint32,
	"float": plyFloat32, "float32": plyFloat32,
	"double": plyFloat64, "float64": plyFloat64,
}

func (s plyScalar) size() int {
	switch s {
	case plyInt8, plyUint8:
		return 1
	case plyInt16, plyUint16:
		return 2
	case plyInt32, plyUint32, plyFloat32:
		return 4
	}
	return 8
}

// maxPLYElements bounds the element counts a header may declare.
const maxPLYElements = 1 << 26

type plyProperty struct {
	name  string
	typ   plyScalar
	list  bool
	count plyScalar
}

type plyElement struct {
	name  string
	count int
	props []plyProperty
}

type plyHeader struct {
	format   plyFormat
	elements []plyElement
}

// ReadPLY returns the x, y, z of every vertex in a PLY stream. ASCII and
// both binary encodings are accepted; other vertex properties are skipped.
func ReadPLY(r io.Reader) ([]float32, error) {
	br := bufio.NewReader(r)
	h, err := readPLYHeader(br)
	if err != nil {
		return nil, err
	}

	var src plyValues
	switch h.format {
	case plyASCII:
		sc := bufio.NewScanner(br)
		sc.Split(bufio.ScanWords)
		src = &plyASCIIReader{sc: sc}
	case plyBinaryLE:
		src = &plyBinaryReader{r: br, order: binary.LittleEndian}
	default:
		src = &plyBinaryReader{r: br, order: binary.BigEndian}
	}

	for _, el := range h.elements {
		if el.name != "vertex" {
			if err := skipElement(src, el); err != nil {
				return nil, fmt.Errorf("%w: element %q: %w", ErrMalformed, el.name, err)
			}
			continue
		}
		return readVertices(src, el)
	}
	return nil, fmt.Errorf("%w: no vertex element", ErrMalformed)
}

func readPLYHeader(br *bufio.Reader) (*plyHeader, error) {
	line, err := readLine(br)
	if err != nil || line != "ply" {
		return nil, fmt.Errorf("%w: missing ply magic", ErrMalformed)
	}

	h := &plyHeader{format: -1}
	for {
		line, err := readLine(br)
		if err != nil {
			return nil, fmt.Errorf("%w: header ended early: %w", ErrMalformed, err)
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "end_header":
			if h.format < 0 {
				return nil, fmt.Errorf("%w: no format line", ErrMalformed)
			}
			return h, nil
		case "comment", "obj_info":
		case "format":
			if len(fields) < 2 {
				return nil, fmt.Errorf("%w: bad format line %q", ErrMalformed, line)
			}
			switch fields[1] {
			case "ascii":
				h.format = plyASCII
			case "binary_little_endian":
				h.format = plyBinaryLE
			case "binary_big_endian":
				h.format = plyBinaryBE
			default:
				return nil, fmt.Errorf("%w: ply format %q", ErrUnsupported, fields[1])
			}
		case "element":
			if len(fields) != 3 {
				return nil, fmt.Errorf("%w: bad element line %q", ErrMalformed, line)
			}
			n, err := strconv.Atoi(fields[2])
			if err != nil || n < 0 {
				return nil, fmt.Errorf("%w: bad element count %q", ErrMalformed, fields[2])
			}
			if n > maxPLYElements {
				return nil, fmt.Errorf("%w: element %q declares %d entries, limit %d", ErrMalformed, fields[1], n, maxPLYElements)
			}
			h.elements = append(h.elements, plyElement{name: fields[1], count: n})
		case "property":
			if len(h.elements) == 0 {
				return nil, fmt.Errorf("%w: property before element", ErrMalformed)
			}
			prop, err := parseProperty(fields[1:])
			if err != nil {
				return nil, err
			}
			el := &h.elements[len(h.elements)-1]
			el.props = append(el.props, prop)
		default:
			return nil, fmt.Errorf("%w: unknown header keyword %q", ErrMalformed, fields[0])
		}
	}
}

func parseProperty(fields []string) (plyProperty, error) {
	if len(fields) == 4 && fields[0] == "list" {
		count, ok1 := plyScalars[fields[1]]
		typ, ok2 := plyScalars[fields[2]]
		if !ok1 || !ok2 {
			return plyProperty{}, fmt.Errorf("%w: list property types %q %q", ErrMalformed, fields[1], fields[2])
		}
		return plyProperty{name: fields[3], typ: typ, list: true, count: count}, nil
	}
	if len(fields) != 2 {
		return plyProperty{}, fmt.Errorf("%w: bad property %q", ErrMalformed, strings.Join(fields, " "))
	}
	typ, ok := plyScalars[fields[0]]
	if !ok {
		return plyProperty{}, fmt.Errorf("%w: property type %q", ErrMalformed, fields[0])
	}
	return plyProperty{name: fields[1], typ: typ}, nil
}

func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func readVertices(src plyValues, el plyElement) ([]float32, error) {
	axis := map[string]int{"x": 0, "y": 1, "z": 2}
	found := 0
	for _, p := range el.props {
		if _, ok := axis[p.name]; ok {
			if p.list {
				return nil, fmt.Errorf("%w: vertex property %q is a list", ErrMalformed, p.name)
			}
			found++
		}
	}
	if found != 3 {
		return nil, fmt.Errorf("%w: vertex element needs x, y and z", ErrMalformed)
	}

	// The header count is only a claim; the body has to back it up.
	out := make([]float32, 0, min(el.count, 4096)*3)
	for i := 0; i < el.count; i++ {
		var xyz [3]float32
		for _, p := range el.props {
			if p.list {
				if err := skipList(src, p); err != nil {
					return nil, fmt.Errorf("%w: vertex %d: %w", ErrMalformed, i, err)
				}
				continue
			}
			v, err := src.next(p.typ)
			if err != nil {
				return nil, fmt.Errorf("%w: vertex %d: %w", ErrMalformed, i, err)
			}
			if a, ok := axis[p.name]; ok {
				xyz[a] = float32(v)
			}
		}
		out = append(out, xyz[:]...)
	}
	return out, nil
}

func skipElement(src plyValues, el plyElement) error {
	for i := 0; i < el.count; i++ {
		for _, p := range el.props {
			if p.list {
				if err := skipList(src, p); err != nil {
					return err
				}
				continue
			}
			if _, err := src.next(p.typ); err != nil {
				return err
			}
		}
	}
	return nil
}

func skipList(src plyValues, p plyProperty) error {
	n, err := src.next(p.count)
	if err != nil {
		return err
	}
	if n < 0 || n != math.Trunc(n) {
		return fmt.Errorf("bad list length %v", n)
	}
	for j := 0; j < int(n); j++ {
		if _, err := src.next(p.typ); err != nil {
			return err
		}
	}
	return nil
}

type plyValues interface {
	next(t plyScalar) (float64, error)
}

type plyASCIIReader struct {
	sc *bufio.Scanner
}

func (a *plyASCIIReader) next(t plyScalar) (float64, error) {
	if !a.sc.Scan() {
		if err := a.sc.Err(); err != nil {
			return 0, err
		}
		return 0, io.ErrUnexpectedEOF
	}
	return strconv.ParseFloat(a.sc.Text(), 64)
}

type plyBinaryReader struct {
	r     io.Reader
	order binary.ByteOrder
	buf   [8]byte
}

func (b *plyBinaryReader) next(t plyScalar) (float64, error) {
	buf := b.buf[:t.size()]
	if _, err := io.ReadFull(b.r, buf); err != nil {
		return 0, err
	}
	switch t {
	case plyInt8:
		return float64(int8(buf[0])), nil
	case plyUint8:
		return float64(buf[0]), nil
	case plyInt16:
		return float64(int16(b.order.Uint16(buf))), nil
	case plyUint16:
		return float64(b.order.Uint16(buf)), nil
	case plyInt32:
		return float64(int32(b.order.Uint32(buf))), nil
	case plyUint32:
		return float64(b.order.Uint32(buf)), nil
	case plyFloat32:
		return float64(math.Float32frombits(b.order.Uint32(buf))), nil
	}
	return math.Float64frombits(b.order.Uint64(buf)), nil
}
