package actor

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestNewTransformAt_NormalizesRotation(t *testing.T) {
	tests := []struct {
		name     string
		rotation mgl64.Quat
		want     mgl64.Quat
	}{
		{"identity", mgl64.QuatIdent(), mgl64.QuatIdent()},
		{"scaled identity", mgl64.Quat{W: 5}, mgl64.QuatIdent()},
		{"zero falls back to identity", mgl64.Quat{}, mgl64.QuatIdent()},
		{"NaN falls back to identity", mgl64.Quat{W: math.NaN(), V: mgl64.Vec3{0, 1, 0}}, mgl64.QuatIdent()},
		{"scaled rotation", mgl64.Quat{W: 2, V: mgl64.Vec3{0, 2, 0}}, mgl64.Quat{W: math.Sqrt2 / 2, V: mgl64.Vec3{0, math.Sqrt2 / 2, 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTransformAt(mgl64.Vec3{1, 2, 3}, tt.rotation)

			if !quatAlmostEqual(tr.Rotation, tt.want, 1e-12) {
				t.Errorf("Rotation = %v, want %v", tr.Rotation, tt.want)
			}
			if !quatAlmostEqual(tr.Rotation.Mul(tr.InverseRotation), mgl64.QuatIdent(), 1e-12) {
				t.Errorf("InverseRotation is not the inverse: %v", tr.InverseRotation)
			}
		})
	}
}

func TestTransform_RoundTrip(t *testing.T) {
	rotations := []mgl64.Quat{
		mgl64.QuatIdent(),
		mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0}),
		mgl64.QuatRotate(2.1, mgl64.Vec3{1, -2, 0.5}.Normalize()),
		mgl64.QuatRotate(math.Pi, mgl64.Vec3{1, 0, 0}),
	}
	points := []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0.3, -0.7, 2.5}, {-4, 4, -4}}

	for _, rotation := range rotations {
		tr := NewTransformAt(mgl64.Vec3{-1, 0.5, 3}, rotation)
		for _, p := range points {
			if got := tr.WorldToLocal(tr.LocalToWorld(p)); !vec3AlmostEqual(got, p, 1e-12) {
				t.Errorf("WorldToLocal(LocalToWorld(%v)) = %v", p, got)
			}
			if got := tr.WorldDirectionToLocal(tr.LocalDirectionToWorld(p)); !vec3AlmostEqual(got, p, 1e-12) {
				t.Errorf("direction round trip of %v = %v", p, got)
			}
		}
	}
}

func TestTransform_LocalToWorld(t *testing.T) {
	// A quarter turn around Y maps +X onto -Z
	tr := NewTransformAt(mgl64.Vec3{0, 1, 0}, mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0}))

	got := tr.LocalToWorld(mgl64.Vec3{1, 0, 0})
	want := mgl64.Vec3{0, 1, -1}
	if !vec3AlmostEqual(got, want, 1e-12) {
		t.Errorf("LocalToWorld = %v, want %v", got, want)
	}

	// Directions ignore the translation
	if got := tr.LocalDirectionToWorld(mgl64.Vec3{1, 0, 0}); !vec3AlmostEqual(got, mgl64.Vec3{0, 0, -1}, 1e-12) {
		t.Errorf("LocalDirectionToWorld = %v", got)
	}
}
