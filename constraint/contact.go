package constraint

import (
	"math"

	"github.com/akmonengine/dice/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// ContactParams tune the body-to-body response
type ContactParams struct {
	Restitution float64
	Friction    float64
	// SpinTransfer is the fraction of the impulse moment turned into spin
	SpinTransfer float64

	// Positional separation
	Slop             float64
	CorrectionFactor float64

	// Approach speed above which a settled body is woken by the contact.
	// Slower contacts treat settled bodies as immovable.
	WakeThreshold float64
}

// ContactConstraint is a single-point contact between two bodies
type ContactConstraint struct {
	BodyA       *actor.RigidBody
	BodyB       *actor.RigidBody
	Point       mgl64.Vec3
	Normal      mgl64.Vec3 // unit, from B towards A
	Penetration float64
}

// ContactResult reports what Solve did
type ContactResult struct {
	Impulse float64
	Woken   []*actor.RigidBody
}

// Solve applies the collision impulse, friction, spin and positional
// separation for the contact.
func (c *ContactConstraint) Solve(params ContactParams) ContactResult {
	var result ContactResult

	bodyA := c.BodyA
	bodyB := c.BodyB

	rA := c.Point.Sub(bodyA.Transform.Position)
	rB := c.Point.Sub(bodyB.Transform.Position)
	relativeVel := bodyA.VelocityAt(c.Point).Sub(bodyB.VelocityAt(c.Point))
	normalVel := relativeVel.Dot(c.Normal)

	// ========== Wake ==========
	// Only a hard approach wakes a settled die. Waking on every resting
	// contact would keep piles from ever settling.
	if -normalVel > params.WakeThreshold {
		for _, body := range []*actor.RigidBody{bodyA, bodyB} {
			if body.IsSettled {
				result.Woken = append(result.Woken, body)
			}
			body.Wake()
		}
	}

	// Settled bodies behave as static for gentle contacts
	wA, wB := weight(bodyA), weight(bodyB)
	if wA == 0 && wB == 0 {
		return result
	}

	// ========== NORMAL IMPULSE ==========
	if normalVel < 0 {
		k := wA*effectiveInverseMass(bodyA, rA, c.Normal, params.SpinTransfer) +
			wB*effectiveInverseMass(bodyB, rB, c.Normal, params.SpinTransfer)

		if k >= denominatorEpsilon {
			lambdaNormal := -(1 + params.Restitution) * normalVel / k
			impulse := c.Normal.Mul(lambdaNormal)

			// ========== TANGENTIAL IMPULSE (friction) ==========
			tangentVel := relativeVel.Sub(c.Normal.Mul(normalVel))
			tangentSpeed := tangentVel.Len()
			if tangentSpeed > tangentEpsilon {
				tangentDir := tangentVel.Mul(1.0 / tangentSpeed)
				kt := wA*effectiveInverseMass(bodyA, rA, tangentDir, params.SpinTransfer) +
					wB*effectiveInverseMass(bodyB, rB, tangentDir, params.SpinTransfer)

				if kt >= denominatorEpsilon {
					lambdaTangent := math.Min(tangentSpeed/kt, params.Friction*lambdaNormal)
					impulse = impulse.Sub(tangentDir.Mul(lambdaTangent))
				}
			}

			applyContactImpulse(bodyA, wA, rA, impulse, params.SpinTransfer)
			applyContactImpulse(bodyB, wB, rB, impulse.Mul(-1), params.SpinTransfer)
			result.Impulse = lambdaNormal
		}
	}

	// ========== POSITIONAL SEPARATION ==========
	if c.Penetration > params.Slop {
		correction := (c.Penetration - params.Slop) * params.CorrectionFactor
		invMassA := wA * bodyA.InverseMass
		invMassB := wB * bodyB.InverseMass
		total := invMassA + invMassB

		bodyA.Transform.Position = bodyA.Transform.Position.Add(c.Normal.Mul(correction * invMassA / total))
		bodyB.Transform.Position = bodyB.Transform.Position.Sub(c.Normal.Mul(correction * invMassB / total))
	}

	return result
}

func weight(body *actor.RigidBody) float64 {
	if body.IsSettled {
		return 0
	}
	return 1
}

// effectiveInverseMass is the body's inverse mass seen along direction, with
// the angular response scaled by spin
func effectiveInverseMass(body *actor.RigidBody, r, direction mgl64.Vec3, spin float64) float64 {
	angular := body.EffectiveInverseMass(r, direction) - body.InverseMass
	return body.InverseMass + spin*angular
}

func applyContactImpulse(body *actor.RigidBody, w float64, r, impulse mgl64.Vec3, spin float64) {
	if w == 0 {
		return
	}

	body.Velocity = body.Velocity.Add(impulse.Mul(body.InverseMass))
	body.AngularVelocity = body.AngularVelocity.Add(r.Cross(impulse).Mul(body.InverseInertia * spin))
}
