package constraint

import (
	"github.com/akmonengine/dice/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// WallParams describe the four vertical planes bounding the play area
type WallParams struct {
	MinX, MaxX float64
	MinZ, MaxZ float64

	Restitution float64
	// Spin converts vertical velocity into angular velocity on a wall hit,
	// approximating the twist of an off-centre strike
	Spin float64
}

type wall struct {
	axis   int
	bound  float64
	normal mgl64.Vec3 // points into the play area
}

// ResolveWalls keeps the body centre at least HalfExtent inside every wall.
// It reports whether any wall was touched.
func ResolveWalls(body *actor.RigidBody, params WallParams) bool {
	if body.IsSettled {
		return false
	}

	walls := [4]wall{
		{axis: 0, bound: params.MinX, normal: mgl64.Vec3{1, 0, 0}},
		{axis: 0, bound: params.MaxX, normal: mgl64.Vec3{-1, 0, 0}},
		{axis: 2, bound: params.MinZ, normal: mgl64.Vec3{0, 0, 1}},
		{axis: 2, bound: params.MaxZ, normal: mgl64.Vec3{0, 0, -1}},
	}

	halfExtent := body.Shape.HalfExtent
	hit := false

	for _, w := range walls {
		// Signed distance of the body's extent from the wall, positive inside
		side := w.normal[w.axis]
		distance := (body.Transform.Position[w.axis]-w.bound)*side - halfExtent
		if distance >= 0 {
			continue
		}
		hit = true

		body.Transform.Position[w.axis] = w.bound + side*halfExtent

		outward := body.Velocity.Dot(w.normal)
		if outward >= 0 {
			continue
		}
		body.Velocity[w.axis] = -body.Velocity[w.axis] * params.Restitution

		vertical := mgl64.Vec3{0, body.Velocity.Y(), 0}
		body.AngularVelocity = body.AngularVelocity.Add(w.normal.Cross(vertical).Mul(params.Spin))
		body.SettleTimer = 0
	}

	return hit
}
