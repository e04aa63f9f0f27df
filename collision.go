package dice

import (
	"github.com/akmonengine/dice/actor"
	"github.com/akmonengine/dice/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

const distanceEpsilon = 1e-9

var up = mgl64.Vec3{0, 1, 0}

// Contact is a resolved-order contact along with the body indices
type Contact struct {
	IndexA, IndexB int
	Constraint     *constraint.ContactConstraint
}

// BroadPhase returns the pairs whose bounding spheres intersect, in (i, j)
// order. The grid only prunes; the sphere test decides.
func BroadPhase(grid *SpatialGrid, bodies []*actor.RigidBody) []Pair {
	grid.Clear()
	for i, body := range bodies {
		grid.Insert(i, body)
	}

	candidates := grid.FindPairs(bodies)
	pairs := candidates[:0]
	for _, pair := range candidates {
		reach := pair.BodyA.Shape.Radius + pair.BodyB.Shape.Radius
		if pair.BodyA.Position().Sub(pair.BodyB.Position()).LenSqr() < reach*reach {
			pairs = append(pairs, pair)
		}
	}

	return pairs
}

// FindContacts builds one contact per penetrating pair with the given model.
// The order of pairs is preserved.
func FindContacts(pairs []Pair, mode NarrowPhase, sphereScale float64) []Contact {
	contacts := make([]Contact, 0, len(pairs))

	for _, pair := range pairs {
		var (
			contact *constraint.ContactConstraint
			ok      bool
		)
		switch mode {
		case NarrowPhaseVertex:
			contact, ok = collideVertices(pair.BodyA, pair.BodyB)
		default:
			contact, ok = collideSpheres(pair.BodyA, pair.BodyB, sphereScale)
		}

		if ok {
			contacts = append(contacts, Contact{IndexA: pair.IndexA, IndexB: pair.IndexB, Constraint: contact})
		}
	}

	return contacts
}

// collideSpheres treats both dice as spheres of HalfExtent·scale
func collideSpheres(bodyA, bodyB *actor.RigidBody, scale float64) (*constraint.ContactConstraint, bool) {
	radiusA := bodyA.Shape.HalfExtent * scale
	radiusB := bodyB.Shape.HalfExtent * scale

	delta := bodyA.Position().Sub(bodyB.Position())
	distance := delta.Len()
	penetration := radiusA + radiusB - distance
	if penetration <= 0 {
		return nil, false
	}

	normal := up
	if distance > distanceEpsilon {
		normal = delta.Mul(1.0 / distance)
	}

	return &constraint.ContactConstraint{
		BodyA:       bodyA,
		BodyB:       bodyB,
		Point:       bodyB.Position().Add(normal.Mul(radiusB - penetration/2)),
		Normal:      normal,
		Penetration: penetration,
	}, true
}

// collideVertices finds the deepest vertex of either die inside the inner
// sphere (radius RestHeight) of the other one
func collideVertices(bodyA, bodyB *actor.RigidBody) (*constraint.ContactConstraint, bool) {
	var best *constraint.ContactConstraint

	consider := func(vertex, center mgl64.Vec3, innerRadius float64, flip bool) {
		delta := vertex.Sub(center)
		distance := delta.Len()
		penetration := innerRadius - distance
		if penetration <= 0 || (best != nil && penetration <= best.Penetration) {
			return
		}

		normal := bodyA.Position().Sub(bodyB.Position())
		if distance > distanceEpsilon {
			normal = delta.Mul(1.0 / distance)
			if flip {
				normal = normal.Mul(-1)
			}
		} else if normal.Len() > distanceEpsilon {
			normal = normal.Normalize()
		} else {
			normal = up
		}

		best = &constraint.ContactConstraint{
			BodyA:       bodyA,
			BodyB:       bodyB,
			Point:       vertex,
			Normal:      normal,
			Penetration: penetration,
		}
	}

	// A's vertices inside B push A away from B's centre
	for _, vertex := range bodyA.WorldVertices() {
		consider(vertex, bodyB.Position(), bodyB.Shape.RestHeight, false)
	}
	// B's vertices inside A push B away from A's centre, i.e. A towards -delta
	for _, vertex := range bodyB.WorldVertices() {
		consider(vertex, bodyA.Position(), bodyA.Shape.RestHeight, true)
	}

	return best, best != nil
}
