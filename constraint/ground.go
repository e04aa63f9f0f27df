package constraint

import (
	"math"

	"github.com/akmonengine/dice/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// GroundParams tune the contact with the infinite plane y = GroundY
type GroundParams struct {
	GroundY     float64
	Restitution float64
	// Impacts slower than BounceThreshold are treated as inelastic
	BounceThreshold float64
	KineticFriction float64
	// Iterations is the number of sequential-impulse sweeps over the contacts
	Iterations int

	// Baumgarte positional correction
	Slop             float64
	CorrectionFactor float64

	// Per-step velocity multipliers applied while touching the ground
	LinearDamping  float64
	AngularDamping float64

	// A velocity change above WakeThreshold restarts the settle timer
	WakeThreshold float64
}

// GroundResult summarizes one ground resolution
type GroundResult struct {
	Contacts       int
	MaxPenetration float64
	// Impulse is the total normal impulse magnitude applied
	Impulse float64
}

type groundContact struct {
	point    mgl64.Vec3
	r        mgl64.Vec3
	approach float64 // normal velocity at detection, negative when moving down
	target   float64 // desired normal velocity after the impact
	normal   float64 // accumulated normal impulse
	friction float64 // accumulated friction impulse magnitude
}

// ResolveGround pushes the body out of the ground with per-vertex impulses,
// Coulomb friction and Baumgarte correction. Settled bodies are ignored.
func ResolveGround(body *actor.RigidBody, params GroundParams) GroundResult {
	var result GroundResult
	if body.IsSettled {
		return result
	}

	// ========== 1. Contact detection ==========
	contacts := make([]groundContact, 0, 4)
	for _, vertex := range body.WorldVertices() {
		penetration := params.GroundY - vertex.Y()
		if penetration <= 0 {
			continue
		}
		result.MaxPenetration = math.Max(result.MaxPenetration, penetration)

		contact := groundContact{
			point: vertex,
			r:     vertex.Sub(body.Transform.Position),
		}
		// The bounce target comes from the approach velocity before any impulse
		contact.approach = body.VelocityAt(vertex).Dot(groundNormal)
		if -contact.approach > params.BounceThreshold {
			contact.target = -params.Restitution * contact.approach
		}
		contacts = append(contacts, contact)
	}
	result.Contacts = len(contacts)
	if len(contacts) == 0 {
		return result
	}

	// ========== 2. Sequential impulses ==========
	// Friction comes first at each contact so that the normal impulse, solved
	// last, sees the spin the friction impulse created
	velocityBefore := body.Velocity
	for range max(1, params.Iterations) {
		for i := range contacts {
			c := &contacts[i]

			c.friction += applyGroundFriction(body, c, params.KineticFriction*c.normal-c.friction)

			normalVel := body.VelocityAt(c.point).Dot(groundNormal)
			if c.normal == 0 && normalVel >= 0 {
				continue // only vertices moving down start a contact
			}

			k := body.EffectiveInverseMass(c.r, groundNormal)
			if k < denominatorEpsilon {
				continue
			}

			// Accumulated impulse stays non-negative: the ground only pushes
			lambda := (c.target - normalVel) / k
			accumulated := math.Max(c.normal+lambda, 0)
			lambda = accumulated - c.normal
			c.normal = accumulated
			if lambda != 0 {
				body.ApplyImpulseAtPoint(groundNormal.Mul(lambda), c.point)
			}
		}
	}

	// ========== 3. Rebound limit ==========
	// Impulses at the other corners can still lift a vertex that hit the
	// ground. No vertex leaves faster than its restitution target.
	for range max(1, params.Iterations) {
		limited := false
		for i := range contacts {
			c := &contacts[i]
			if c.approach >= 0 {
				continue
			}

			excess := body.VelocityAt(c.point).Dot(groundNormal) - c.target
			k := body.EffectiveInverseMass(c.r, groundNormal)
			if excess <= reboundTolerance || k < denominatorEpsilon {
				continue
			}
			body.ApplyImpulseAtPoint(groundNormal.Mul(-excess/k), c.point)
			limited = true
		}
		if !limited {
			break
		}
	}

	for _, c := range contacts {
		result.Impulse += c.normal
	}

	// ========== 4. Baumgarte correction ==========
	if result.MaxPenetration > params.Slop {
		body.Transform.Position[1] += (result.MaxPenetration - params.Slop) * params.CorrectionFactor
	}

	// ========== 5. Contact damping ==========
	body.Velocity = body.Velocity.Mul(params.LinearDamping)
	body.AngularVelocity = body.AngularVelocity.Mul(params.AngularDamping)
	clampSmallVelocities(body)

	if body.Velocity.Sub(velocityBefore).Len() > params.WakeThreshold {
		body.SettleTimer = 0
	}

	return result
}

// applyGroundFriction opposes the tangential slip at a contact. The impulse
// is capped by budget and by what is needed to stop the slip, so it never
// reverses the sliding direction. It returns the magnitude applied.
func applyGroundFriction(body *actor.RigidBody, c *groundContact, budget float64) float64 {
	if budget <= 0 {
		return 0
	}

	velocity := body.VelocityAt(c.point)
	tangentVel := velocity.Sub(groundNormal.Mul(velocity.Dot(groundNormal)))
	tangentSpeed := tangentVel.Len()
	if tangentSpeed < tangentEpsilon {
		return 0
	}

	tangentDir := tangentVel.Mul(1.0 / tangentSpeed)
	k := body.EffectiveInverseMass(c.r, tangentDir)
	if k < denominatorEpsilon {
		return 0
	}

	magnitude := math.Min(tangentSpeed/k, budget)
	body.ApplyImpulseAtPoint(tangentDir.Mul(-magnitude), c.point)

	return magnitude
}
