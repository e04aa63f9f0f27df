package actor

import (
	"errors"
	"slices"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestShapeByName(t *testing.T) {
	tests := []struct {
		name     string
		faces    int
		vertices int
	}{
		{"d4", 4, 4},
		{"d6", 6, 8},
		{"d8", 8, 6},
		{"d12", 12, 20},
		{"d20", 20, 12},
		{"coin", 2, 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shape, err := ShapeByName(tt.name, 0.5)
			if err != nil {
				t.Fatalf("ShapeByName() error = %v", err)
			}
			if shape.Name != tt.name {
				t.Errorf("Name = %q", shape.Name)
			}
			if shape.FaceCount() != tt.faces || len(shape.FaceValues) != tt.faces {
				t.Errorf("faces = %d, want %d", shape.FaceCount(), tt.faces)
			}
			if len(shape.Vertices) != tt.vertices {
				t.Errorf("vertices = %d, want %d", len(shape.Vertices), tt.vertices)
			}
		})
	}

	if _, err := ShapeByName("d7", 0.5); !errors.Is(err, ErrUnknownShape) {
		t.Errorf("unknown name error = %v, want ErrUnknownShape", err)
	}
	if !slices.IsSorted(ShapeNames()) || len(ShapeNames()) != len(tests) {
		t.Errorf("ShapeNames() = %v", ShapeNames())
	}
}

// Every declared normal must be the normal of a real face: at least three
// hull vertices lie in its supporting plane.
func TestStandardShapes_NormalsAreFaces(t *testing.T) {
	for _, name := range ShapeNames() {
		t.Run(name, func(t *testing.T) {
			shape := mustShape(t)(ShapeByName(name, 0.5))

			for i, n := range shape.FaceNormals {
				support := shape.support(n)
				onFace := 0
				for _, v := range shape.Vertices {
					if v.Dot(n) > support-1e-9 {
						onFace++
					}
				}
				if onFace < 3 {
					t.Errorf("normal %d %v touches %d vertices", i, n, onFace)
				}
			}
		})
	}
}

func TestStandardShapes_RegularRestHeight(t *testing.T) {
	// Platonic dice rest at the same height on every face
	for _, name := range []string{"d4", "d6", "d8", "d12", "d20"} {
		t.Run(name, func(t *testing.T) {
			shape := mustShape(t)(ShapeByName(name, 0.5))
			for i, n := range shape.FaceNormals {
				if h := shape.support(n); !almostEqual(h, shape.RestHeight, 1e-9) {
					t.Errorf("face %d rests at %v, want %v", i, h, shape.RestHeight)
				}
			}
		})
	}
}

func TestStandardShapes_OppositeFacesSum(t *testing.T) {
	tests := []struct {
		name string
		sum  int
	}{
		{"d6", 7},
		{"d8", 9},
		{"d12", 13},
		{"d20", 21},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shape := mustShape(t)(ShapeByName(tt.name, 0.5))

			seen := make(map[int]bool)
			for i, n := range shape.FaceNormals {
				for j, m := range shape.FaceNormals {
					if vec3AlmostEqual(n, m.Mul(-1), 1e-12) {
						if got := shape.FaceValues[i].Points + shape.FaceValues[j].Points; got != tt.sum {
							t.Errorf("faces %d and %d sum to %d, want %d", i, j, got, tt.sum)
						}
					}
				}
				seen[shape.FaceValues[i].Points] = true
			}
			if len(seen) != shape.FaceCount() {
				t.Errorf("face values are not distinct: %v", shape.FaceValues)
			}
		})
	}
}

func TestCube_IdentityReadsOne(t *testing.T) {
	rb := mustBody(t, mustShape(t)(NewCube(0.5)), mgl64.Vec3{0, 0.5, 0})
	rb.IsSettled = true

	if value, ok := rb.Value(); !ok || value != Points(1) {
		t.Errorf("Value() = %v, %v, want 1", value, ok)
	}
}

func TestNewCoin_TooFewSegments(t *testing.T) {
	if _, err := NewCoin(0.5, 0.1, 2); !errors.Is(err, ErrInvalidShape) {
		t.Errorf("error = %v, want ErrInvalidShape", err)
	}
}
