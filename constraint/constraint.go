package constraint

import (
	"github.com/akmonengine/dice/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// denominatorEpsilon guards impulse denominators: a contact seen through
	// an (almost) infinite effective mass is skipped
	denominatorEpsilon = 1e-10
	tangentEpsilon     = 1e-6
	reboundTolerance   = 1e-9
)

var groundNormal = mgl64.Vec3{0, 1, 0}

func clampSmallVelocities(rb *actor.RigidBody) {
	const velocityThreshold = 1e-5

	if rb.Velocity.Len() < velocityThreshold {
		rb.Velocity = mgl64.Vec3{0, 0, 0}
	}
	if rb.AngularVelocity.Len() < velocityThreshold {
		rb.AngularVelocity = mgl64.Vec3{0, 0, 0}
	}
}
