package actor

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrInvalidShape is returned when a shape descriptor cannot describe a convex die
var ErrInvalidShape = errors.New("invalid shape descriptor")

// FaceValue is the outcome printed on a face. Points is used for scoring,
// Label for display; a numeric face has Label == strconv.Itoa(Points).
type FaceValue struct {
	Points int    `json:"points"`
	Label  string `json:"label"`
}

// Points builds a numeric face value
func Points(n int) FaceValue {
	return FaceValue{Points: n, Label: strconv.Itoa(n)}
}

// Label builds a symbolic face value with the given score
func Label(label string, points int) FaceValue {
	return FaceValue{Points: points, Label: label}
}

func (v FaceValue) String() string {
	return v.Label
}

// ShapeDescriptor is the immutable collision description of a dice type.
// All vectors are expressed in the body's local, unrotated frame.
// A descriptor is shared read-only by every body of the same type.
type ShapeDescriptor struct {
	Name        string
	Vertices    []mgl64.Vec3
	FaceNormals []mgl64.Vec3
	FaceValues  []FaceValue

	// Radius bounds every vertex; used by the broad phase
	Radius float64
	// RestHeight is the centre height above the ground when resting on a face
	RestHeight float64
	// HalfExtent is used for wall containment and the sphere narrow phase
	HalfExtent float64
	// ReadBottom reports the value of the face pointing down (d4)
	ReadBottom bool
}

// NewShape validates a descriptor and completes the derived fields
// (Radius, RestHeight, HalfExtent) when they are left at zero.
// Vertices and normals are copied, normals are normalized.
func NewShape(desc ShapeDescriptor) (*ShapeDescriptor, error) {
	if len(desc.Vertices) == 0 {
		return nil, fmt.Errorf("%w: %q has no vertices", ErrInvalidShape, desc.Name)
	}
	if len(desc.FaceNormals) == 0 {
		return nil, fmt.Errorf("%w: %q has no face normals", ErrInvalidShape, desc.Name)
	}
	if len(desc.FaceNormals) != len(desc.FaceValues) {
		return nil, fmt.Errorf("%w: %q has %d face normals but %d face values",
			ErrInvalidShape, desc.Name, len(desc.FaceNormals), len(desc.FaceValues))
	}

	shape := &ShapeDescriptor{
		Name:        desc.Name,
		Vertices:    make([]mgl64.Vec3, len(desc.Vertices)),
		FaceNormals: make([]mgl64.Vec3, len(desc.FaceNormals)),
		FaceValues:  make([]FaceValue, len(desc.FaceValues)),
		Radius:      desc.Radius,
		RestHeight:  desc.RestHeight,
		HalfExtent:  desc.HalfExtent,
		ReadBottom:  desc.ReadBottom,
	}
	copy(shape.FaceValues, desc.FaceValues)

	for i, v := range desc.Vertices {
		if !finiteVec(v) {
			return nil, fmt.Errorf("%w: %q vertex %d is not finite", ErrInvalidShape, desc.Name, i)
		}
		shape.Vertices[i] = v
	}
	for i, n := range desc.FaceNormals {
		l := n.Len()
		if !finiteVec(n) || l < normalEpsilon {
			return nil, fmt.Errorf("%w: %q face normal %d is degenerate", ErrInvalidShape, desc.Name, i)
		}
		shape.FaceNormals[i] = n.Mul(1.0 / l)
	}

	if shape.Radius == 0 {
		for _, v := range shape.Vertices {
			shape.Radius = math.Max(shape.Radius, v.Len())
		}
	}
	if shape.RestHeight == 0 {
		shape.RestHeight = math.Inf(1)
		for _, n := range shape.FaceNormals {
			shape.RestHeight = math.Min(shape.RestHeight, shape.support(n))
		}
	}
	if shape.HalfExtent == 0 {
		shape.HalfExtent = shape.RestHeight
	}

	for name, value := range map[string]float64{
		"radius":      shape.Radius,
		"rest height": shape.RestHeight,
		"half extent": shape.HalfExtent,
	} {
		if !(value > 0) || math.IsInf(value, 0) {
			return nil, fmt.Errorf("%w: %q %s must be positive and finite, got %v", ErrInvalidShape, desc.Name, name, value)
		}
	}

	return shape, nil
}

// support returns the largest projection of the hull on direction
func (s *ShapeDescriptor) support(direction mgl64.Vec3) float64 {
	best := -math.MaxFloat64
	for _, v := range s.Vertices {
		best = math.Max(best, v.Dot(direction))
	}
	return best
}

// FaceCount returns the number of readable faces
func (s *ShapeDescriptor) FaceCount() int {
	return len(s.FaceNormals)
}

// HasValue reports whether value is one of the declared face values
func (s *ShapeDescriptor) HasValue(value FaceValue) bool {
	for _, v := range s.FaceValues {
		if v == value {
			return true
		}
	}
	return false
}

func finiteVec(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
