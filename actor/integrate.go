package actor

import "github.com/go-gl/mathgl/mgl64"

// IntegrationParams are the force-field constants used by Integrate
type IntegrationParams struct {
	// Gravity is the downward acceleration magnitude (m/s²)
	Gravity float64
	// LinearDrag scales the v² air drag force
	LinearDrag float64
	// AngularDrag scales the ω² drag torque
	AngularDrag float64
}

// Integrate advances the body by dt with semi-implicit Euler: velocities are
// updated first and the new velocities move the pose.
// Settled bodies are left untouched.
func (rb *RigidBody) Integrate(dt float64, params IntegrationParams) {
	if rb.IsSettled {
		return
	}

	// ========== FORCES ==========
	rb.ApplyForce(mgl64.Vec3{0, -params.Gravity * rb.Mass, 0})

	// Quadratic drag: |F| = c·|v|², opposite to v
	if speed := rb.Speed(); speed > 0 {
		rb.ApplyForce(rb.Velocity.Mul(-params.LinearDrag * speed))
	}
	if angularSpeed := rb.AngularSpeed(); angularSpeed > 0 {
		rb.ApplyTorque(rb.AngularVelocity.Mul(-params.AngularDrag * angularSpeed))
	}

	// ========== VELOCITIES ==========
	rb.Velocity = rb.Velocity.Add(rb.accumulatedForce.Mul(rb.InverseMass * dt))
	rb.AngularVelocity = rb.AngularVelocity.Add(rb.accumulatedTorque.Mul(rb.InverseInertia * dt))

	// ========== POSE ==========
	rb.Transform.Position = rb.Transform.Position.Add(rb.Velocity.Mul(dt))

	// dq/dt = 0.5 · (0, ω) · q
	omegaQuat := mgl64.Quat{V: rb.AngularVelocity, W: 0}
	qDot := omegaQuat.Mul(rb.Transform.Rotation).Scale(0.5)
	rb.Transform.Rotation = rb.Transform.Rotation.Add(qDot.Scale(dt))
	rb.NormalizeOrientation()

	rb.ClearForces()
}
