package actor

import "github.com/go-gl/mathgl/mgl64"

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// Overlaps checks if two AABBs overlap
func (a AABB) Overlaps(other AABB) bool {
	// AABBs overlap if they overlap on all three axes
	return a.Max.X() >= other.Min.X() && a.Min.X() <= other.Max.X() &&
		a.Max.Y() >= other.Min.Y() && a.Min.Y() <= other.Max.Y() &&
		a.Max.Z() >= other.Min.Z() && a.Min.Z() <= other.Max.Z()
}

// BoundingBox returns the box around the body's bounding sphere.
// It does not depend on orientation.
func (rb *RigidBody) BoundingBox() AABB {
	r := rb.Shape.Radius
	radiusVec := mgl64.Vec3{r, r, r}

	return AABB{
		Min: rb.Transform.Position.Sub(radiusVec),
		Max: rb.Transform.Position.Add(radiusVec),
	}
}
