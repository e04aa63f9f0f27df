package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var up = mgl64.Vec3{0, 1, 0}

// SettleParams drive the settling state machine
type SettleParams struct {
	LinearThreshold  float64 // m/s
	AngularThreshold float64 // rad/s
	Duration         float64 // seconds spent below both thresholds
	GroundY          float64
}

// TrySettle updates the settling state. A body below both thresholds counts
// time; once Duration is reached it is frozen in its resting pose and
// TrySettle reports true. Any excursion above a threshold restarts the timer.
func (rb *RigidBody) TrySettle(dt float64, params SettleParams) bool {
	if rb.IsSettled {
		return false
	}

	if rb.Speed() < params.LinearThreshold && rb.AngularSpeed() < params.AngularThreshold {
		rb.SettleTimer += dt
		if rb.SettleTimer >= params.Duration {
			rb.Settle(params.GroundY)
			return true
		}
	} else {
		rb.SettleTimer = 0.0
	}

	return false
}

// Settle freezes the body: velocities are zeroed, the reading face is
// rotated exactly onto the vertical and the lowest vertex touches groundY.
func (rb *RigidBody) Settle(groundY float64) {
	rb.IsSettled = true
	rb.SettleTimer = 0.0
	rb.ClearForces()
	rb.Velocity = mgl64.Vec3{}
	rb.AngularVelocity = mgl64.Vec3{}

	// Bottom-read dice rest on their reading face: align it with -Y.
	// Every other die aligns its top face with +Y.
	target := up
	if rb.Shape.ReadBottom {
		target = up.Mul(-1)
	}
	normal := rb.LocalDirectionToWorld(rb.Shape.FaceNormals[rb.UpFace()])
	snap := mgl64.QuatBetweenVectors(normal, target)
	rb.Transform.setRotation(snap.Mul(rb.Transform.Rotation))
	rb.NormalizeOrientation()

	rb.Transform.Position[1] += groundY - rb.LowestVertex().Y()
}

// UpFace returns the index of the reading face: the face normal most aligned
// with +Y, or the least aligned one for bottom-read dice.
func (rb *RigidBody) UpFace() int {
	best := 0
	bestDot := math.Inf(-1)
	for i, n := range rb.Shape.FaceNormals {
		dot := rb.LocalDirectionToWorld(n).Dot(up)
		if rb.Shape.ReadBottom {
			dot = -dot
		}
		if dot > bestDot {
			bestDot = dot
			best = i
		}
	}
	return best
}

// Value returns the face value shown by the die. ok is false until the body
// has settled; the face is still computed from the current pose.
func (rb *RigidBody) Value() (value FaceValue, ok bool) {
	return rb.Shape.FaceValues[rb.UpFace()], rb.IsSettled
}
