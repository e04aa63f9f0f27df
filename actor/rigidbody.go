package actor

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	orientationEpsilon = 1e-12
	normalEpsilon      = 1e-9
)

// ErrInvalidMass is returned when a body mass is not strictly positive and finite
var ErrInvalidMass = errors.New("invalid body mass")

// RigidBody represents a die in the physics simulation
type RigidBody struct {
	// Spatial properties
	Transform Transform

	// Linear motion
	Velocity mgl64.Vec3 // Linear velocity (m/s)

	// Angular motion
	AngularVelocity mgl64.Vec3 // rad/s

	// Mass properties. Inertia is isotropic, which is close enough for
	// cubes and the near-spherical platonic dice.
	Mass           float64
	InverseMass    float64
	Inertia        float64
	InverseInertia float64

	accumulatedForce  mgl64.Vec3
	accumulatedTorque mgl64.Vec3

	IsSettled   bool
	SettleTimer float64
	// Degenerate is raised when the orientation collapsed to a near-zero
	// quaternion and could not be normalized
	Degenerate bool

	// Collision shape, shared with every body of the same dice type
	Shape *ShapeDescriptor
}

// NewRigidBody creates a body at rest with the given pose.
// The inertia approximates the die as a solid sphere of the shape radius.
func NewRigidBody(transform Transform, shape *ShapeDescriptor, mass float64) (*RigidBody, error) {
	if shape == nil {
		return nil, fmt.Errorf("%w: nil shape", ErrInvalidShape)
	}
	if !(mass > 0) || math.IsInf(mass, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMass, mass)
	}

	inertia := 0.4 * mass * shape.Radius * shape.Radius
	rb := &RigidBody{
		Transform:      NewTransformAt(transform.Position, transform.Rotation),
		Mass:           mass,
		InverseMass:    1.0 / mass,
		Inertia:        inertia,
		InverseInertia: 1.0 / inertia,
		Shape:          shape,
	}

	return rb, nil
}

// Position returns the world position of the centre of mass
func (rb *RigidBody) Position() mgl64.Vec3 {
	return rb.Transform.Position
}

// Orientation returns the world orientation as a unit quaternion
func (rb *RigidBody) Orientation() mgl64.Quat {
	return rb.Transform.Rotation
}

// ApplyForce accumulates a force for the next integration step
func (rb *RigidBody) ApplyForce(force mgl64.Vec3) {
	rb.accumulatedForce = rb.accumulatedForce.Add(force)
}

// ApplyTorque accumulates a torque for the next integration step
func (rb *RigidBody) ApplyTorque(torque mgl64.Vec3) {
	rb.accumulatedTorque = rb.accumulatedTorque.Add(torque)
}

// AccumulatedForce returns the force gathered since the last step
func (rb *RigidBody) AccumulatedForce() mgl64.Vec3 {
	return rb.accumulatedForce
}

// AccumulatedTorque returns the torque gathered since the last step
func (rb *RigidBody) AccumulatedTorque() mgl64.Vec3 {
	return rb.accumulatedTorque
}

// ClearForces resets the accumulated force and torque
func (rb *RigidBody) ClearForces() {
	rb.accumulatedForce = mgl64.Vec3{0, 0, 0}
	rb.accumulatedTorque = mgl64.Vec3{0, 0, 0}
}

// ApplyImpulseAtPoint changes the velocities instantly.
// worldPoint is the point of application in world space.
func (rb *RigidBody) ApplyImpulseAtPoint(impulse, worldPoint mgl64.Vec3) {
	r := worldPoint.Sub(rb.Transform.Position)

	rb.Velocity = rb.Velocity.Add(impulse.Mul(rb.InverseMass))
	rb.AngularVelocity = rb.AngularVelocity.Add(r.Cross(impulse).Mul(rb.InverseInertia))
}

// VelocityAt returns the velocity of a world point attached to the body
func (rb *RigidBody) VelocityAt(worldPoint mgl64.Vec3) mgl64.Vec3 {
	r := worldPoint.Sub(rb.Transform.Position)
	return rb.Velocity.Add(rb.AngularVelocity.Cross(r))
}

// EffectiveInverseMass is the inverse mass seen by an impulse along
// direction at lever arm r: invMass + ((invI (r×n)) × r)·n
func (rb *RigidBody) EffectiveInverseMass(r, direction mgl64.Vec3) float64 {
	angular := r.Cross(direction).Mul(rb.InverseInertia).Cross(r).Dot(direction)
	return rb.InverseMass + angular
}

// LocalToWorld maps a local point through the body transform
func (rb *RigidBody) LocalToWorld(p mgl64.Vec3) mgl64.Vec3 {
	return rb.Transform.LocalToWorld(p)
}

// WorldToLocal is the exact inverse of LocalToWorld
func (rb *RigidBody) WorldToLocal(p mgl64.Vec3) mgl64.Vec3 {
	return rb.Transform.WorldToLocal(p)
}

// LocalDirectionToWorld rotates a local direction, used for face normals
func (rb *RigidBody) LocalDirectionToWorld(d mgl64.Vec3) mgl64.Vec3 {
	return rb.Transform.LocalDirectionToWorld(d)
}

// WorldVertices maps every shape vertex to world space. Orientation changes
// every step, so this is never cached.
func (rb *RigidBody) WorldVertices() []mgl64.Vec3 {
	vertices := make([]mgl64.Vec3, len(rb.Shape.Vertices))
	for i, v := range rb.Shape.Vertices {
		vertices[i] = rb.Transform.LocalToWorld(v)
	}
	return vertices
}

// LowestVertex returns the world vertex with the smallest height
func (rb *RigidBody) LowestVertex() mgl64.Vec3 {
	lowest := rb.Transform.LocalToWorld(rb.Shape.Vertices[0])
	for _, v := range rb.Shape.Vertices[1:] {
		w := rb.Transform.LocalToWorld(v)
		if w.Y() < lowest.Y() {
			lowest = w
		}
	}
	return lowest
}

// Speed is the norm of the linear velocity
func (rb *RigidBody) Speed() float64 {
	return rb.Velocity.Len()
}

// AngularSpeed is the norm of the angular velocity
func (rb *RigidBody) AngularSpeed() float64 {
	return rb.AngularVelocity.Len()
}

// NormalizeOrientation rescales the orientation to unit length.
// A near-zero quaternion is left untouched and flags the body as degenerate.
func (rb *RigidBody) NormalizeOrientation() bool {
	l := rb.Transform.Rotation.Len()
	if l < orientationEpsilon || math.IsNaN(l) {
		rb.Degenerate = true
		return false
	}

	rb.Transform.setRotation(rb.Transform.Rotation.Scale(1.0 / l))
	return true
}

// SetPose teleports the body
func (rb *RigidBody) SetPose(position mgl64.Vec3, rotation mgl64.Quat) {
	rb.Transform = NewTransformAt(position, rotation)
}

// Reset puts the body back at rest at position with identity orientation
func (rb *RigidBody) Reset(position mgl64.Vec3) {
	rb.Transform = NewTransformAt(position, mgl64.QuatIdent())
	rb.Velocity = mgl64.Vec3{}
	rb.AngularVelocity = mgl64.Vec3{}
	rb.ClearForces()
	rb.IsSettled = false
	rb.SettleTimer = 0
	rb.Degenerate = false
}

// Wake returns a settled body to the active state and restarts its timer
func (rb *RigidBody) Wake() {
	rb.IsSettled = false
	rb.SettleTimer = 0.0
}
