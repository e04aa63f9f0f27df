package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Transform represents a rigid pose in 3D space
type Transform struct {
	Position        mgl64.Vec3
	Rotation        mgl64.Quat
	InverseRotation mgl64.Quat
}

// NewTransform creates an identity transform
func NewTransform() Transform {
	return Transform{
		Position:        mgl64.Vec3{0, 0, 0},
		Rotation:        mgl64.QuatIdent(),
		InverseRotation: mgl64.QuatIdent(),
	}
}

// NewTransformAt creates a transform at position with the given rotation.
// The rotation is normalized; a zero or NaN quaternion falls back to identity.
func NewTransformAt(position mgl64.Vec3, rotation mgl64.Quat) Transform {
	if l := rotation.Len(); l < orientationEpsilon || math.IsNaN(l) {
		rotation = mgl64.QuatIdent()
	}
	rotation = rotation.Scale(1.0 / rotation.Len())

	return Transform{
		Position:        position,
		Rotation:        rotation,
		InverseRotation: rotation.Conjugate(),
	}
}

// LocalToWorld maps a local point to world space (rotation then translation)
func (t Transform) LocalToWorld(p mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Rotate(p).Add(t.Position)
}

// WorldToLocal is the exact inverse of LocalToWorld
func (t Transform) WorldToLocal(p mgl64.Vec3) mgl64.Vec3 {
	return t.InverseRotation.Rotate(p.Sub(t.Position))
}

// LocalDirectionToWorld rotates a direction without translating it
func (t Transform) LocalDirectionToWorld(d mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Rotate(d)
}

// WorldDirectionToLocal rotates a world direction into the local frame
func (t Transform) WorldDirectionToLocal(d mgl64.Vec3) mgl64.Vec3 {
	return t.InverseRotation.Rotate(d)
}

func (t *Transform) setRotation(q mgl64.Quat) {
	t.Rotation = q
	t.InverseRotation = q.Conjugate()
}
