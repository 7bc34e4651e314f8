package softgpu

import "fmt"

// OpKind identifies a recorded device operation.
type OpKind int

const (
	OpBindTarget OpKind = iota
	OpBindMain
	OpClear
	OpDrawMesh
	OpDrawPoints
)

func (k OpKind) String() string {
	switch k {
	case OpBindTarget:
		return "bind-target"
	case OpBindMain:
		return "bind-main"
	case OpClear:
		return "clear"
	case OpDrawMesh:
		return "draw-mesh"
	case OpDrawPoints:
		return "draw-points"
	}
	return fmt.Sprintf("op(%d)", int(k))
}

// Op is one entry in the device log.
//
// Target is the bound destination (0 = main framebuffer). For mesh draws
// Texture and Generation identify the image written; for point draws they
// identify the image sampled and the generation it held at draw time.
type Op struct {
	Kind       OpKind
	Target     uint32
	Texture    uint32
	Generation uint64
}

func (o Op) String() string {
	return fmt.Sprintf("%s target=%d tex=%d gen=%d", o.Kind, o.Target, o.Texture, o.Generation)
}
