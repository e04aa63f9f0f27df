package actor

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrUnknownShape is returned by ShapeByName for an unregistered dice type
var ErrUnknownShape = errors.New("unknown dice shape")

var phi = (1 + math.Sqrt(5)) / 2

// shapeBuilders maps a dice name to its constructor. size is the half-width
// of the die; each builder scales its own circumradius so that dice of the
// same size have a comparable footprint.
var shapeBuilders = map[string]func(size float64) (*ShapeDescriptor, error){
	"d4":   func(size float64) (*ShapeDescriptor, error) { return NewTetrahedron(size * 1.5) },
	"d6":   NewCube,
	"d8":   func(size float64) (*ShapeDescriptor, error) { return NewOctahedron(size * 1.3) },
	"d12":  func(size float64) (*ShapeDescriptor, error) { return NewDodecahedron(size * 1.25) },
	"d20":  func(size float64) (*ShapeDescriptor, error) { return NewIcosahedron(size * 1.3) },
	"coin": func(size float64) (*ShapeDescriptor, error) { return NewCoin(size, size*0.2, 16) },
}

// ShapeByName builds one of the standard dice by name ("d4", "d6", "d8",
// "d12", "d20", "coin").
func ShapeByName(name string, size float64) (*ShapeDescriptor, error) {
	build, ok := shapeBuilders[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownShape, name)
	}
	return build(size)
}

// ShapeNames lists the registered dice names, sorted
func ShapeNames() []string {
	names := make([]string, 0, len(shapeBuilders))
	for name := range shapeBuilders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewTetrahedron builds a d4 of circumradius radius. It is read from the
// face lying on the ground.
func NewTetrahedron(radius float64) (*ShapeDescriptor, error) {
	k := radius / math.Sqrt(3)
	vertices := []mgl64.Vec3{
		{k, k, k},
		{k, -k, -k},
		{-k, k, -k},
		{-k, -k, k},
	}

	// The face opposite vertex i points away from it
	normals := make([]mgl64.Vec3, len(vertices))
	values := make([]FaceValue, len(vertices))
	for i, v := range vertices {
		normals[i] = v.Mul(-1)
		values[i] = Points(i + 1)
	}

	return NewShape(ShapeDescriptor{
		Name:        "d4",
		Vertices:    vertices,
		FaceNormals: normals,
		FaceValues:  values,
		HalfExtent:  radius * 0.5,
		ReadBottom:  true,
	})
}

// NewCube builds a d6 with the given half side. Opposite faces sum to 7 and
// the +Y face shows 1.
func NewCube(halfSize float64) (*ShapeDescriptor, error) {
	h := halfSize
	vertices := []mgl64.Vec3{
		{-h, -h, -h}, {h, -h, -h}, {-h, h, -h}, {h, h, -h},
		{-h, -h, h}, {h, -h, h}, {-h, h, h}, {h, h, h},
	}
	normals, values := opposingFaces([]mgl64.Vec3{
		{0, 1, 0},
		{1, 0, 0},
		{0, 0, 1},
	})

	return NewShape(ShapeDescriptor{
		Name:        "d6",
		Vertices:    vertices,
		FaceNormals: normals,
		FaceValues:  values,
	})
}

// NewOctahedron builds a d8 of circumradius radius
func NewOctahedron(radius float64) (*ShapeDescriptor, error) {
	r := radius
	vertices := []mgl64.Vec3{
		{r, 0, 0}, {-r, 0, 0},
		{0, r, 0}, {0, -r, 0},
		{0, 0, r}, {0, 0, -r},
	}
	normals, values := opposingFaces([]mgl64.Vec3{
		{1, 1, 1},
		{1, 1, -1},
		{1, -1, 1},
		{-1, 1, 1},
	})

	return NewShape(ShapeDescriptor{
		Name:        "d8",
		Vertices:    vertices,
		FaceNormals: normals,
		FaceValues:  values,
	})
}

// NewDodecahedron builds a d12 of circumradius radius
func NewDodecahedron(radius float64) (*ShapeDescriptor, error) {
	p, q := phi, 1/phi
	raw := []mgl64.Vec3{
		{1, 1, 1}, {1, 1, -1}, {1, -1, 1}, {1, -1, -1},
		{-1, 1, 1}, {-1, 1, -1}, {-1, -1, 1}, {-1, -1, -1},
		{0, q, p}, {0, q, -p}, {0, -q, p}, {0, -q, -p},
		{q, p, 0}, {q, -p, 0}, {-q, p, 0}, {-q, -p, 0},
		{p, 0, q}, {p, 0, -q}, {-p, 0, q}, {-p, 0, -q},
	}
	normals, values := opposingFaces([]mgl64.Vec3{
		{0, p, 1}, {0, p, -1},
		{p, 1, 0}, {p, -1, 0},
		{1, 0, p}, {-1, 0, p},
	})

	return NewShape(ShapeDescriptor{
		Name:        "d12",
		Vertices:    scaleTo(raw, radius),
		FaceNormals: normals,
		FaceValues:  values,
	})
}

// NewIcosahedron builds a d20 of circumradius radius
func NewIcosahedron(radius float64) (*ShapeDescriptor, error) {
	p, q := phi, 1/phi
	raw := []mgl64.Vec3{
		{0, 1, p}, {0, 1, -p}, {0, -1, p}, {0, -1, -p},
		{1, p, 0}, {1, -p, 0}, {-1, p, 0}, {-1, -p, 0},
		{p, 0, 1}, {p, 0, -1}, {-p, 0, 1}, {-p, 0, -1},
	}
	normals, values := opposingFaces([]mgl64.Vec3{
		{1, 1, 1}, {1, 1, -1}, {1, -1, 1}, {-1, 1, 1},
		{0, p, q}, {0, p, -q},
		{p, q, 0}, {p, -q, 0},
		{q, 0, p}, {-q, 0, p},
	})

	return NewShape(ShapeDescriptor{
		Name:        "d20",
		Vertices:    scaleTo(raw, radius),
		FaceNormals: normals,
		FaceValues:  values,
	})
}

// NewCoin builds a flat prism with a Heads (+Y) and a Tails (-Y) face.
// A coin standing on its rim is snapped flat once it settles.
func NewCoin(radius, thickness float64, segments int) (*ShapeDescriptor, error) {
	if segments < 3 {
		return nil, fmt.Errorf("%w: coin needs at least 3 segments, got %d", ErrInvalidShape, segments)
	}

	vertices := make([]mgl64.Vec3, 0, segments*2)
	for i := range segments {
		angle := 2 * math.Pi * float64(i) / float64(segments)
		x, z := radius*math.Cos(angle), radius*math.Sin(angle)
		vertices = append(vertices, mgl64.Vec3{x, thickness / 2, z}, mgl64.Vec3{x, -thickness / 2, z})
	}

	return NewShape(ShapeDescriptor{
		Name:        "coin",
		Vertices:    vertices,
		FaceNormals: []mgl64.Vec3{{0, 1, 0}, {0, -1, 0}},
		FaceValues:  []FaceValue{Label("Heads", 1), Label("Tails", 0)},
		HalfExtent:  radius,
	})
}

// opposingFaces mirrors half of a centrally symmetric face set. Face i of
// half shows i+1 and its opposite shows n-i, so opposite faces sum to n+1.
func opposingFaces(half []mgl64.Vec3) ([]mgl64.Vec3, []FaceValue) {
	n := len(half) * 2
	normals := make([]mgl64.Vec3, 0, n)
	values := make([]FaceValue, 0, n)

	for i, normal := range half {
		normals = append(normals, normal)
		values = append(values, Points(i+1))
	}
	for i, normal := range half {
		normals = append(normals, normal.Mul(-1))
		values = append(values, Points(n-i))
	}

	return normals, values
}

func scaleTo(vertices []mgl64.Vec3, radius float64) []mgl64.Vec3 {
	scaled := make([]mgl64.Vec3, len(vertices))
	for i, v := range vertices {
		scaled[i] = v.Mul(radius / v.Len())
	}
	return scaled
}
