package constraint

import (
	"testing"

	"github.com/akmonengine/dice/actor"
	"github.com/go-gl/mathgl/mgl64"
)

func defaultContactParams() ContactParams {
	return ContactParams{
		Restitution:      0.5,
		Friction:         0.3,
		SpinTransfer:     0.5,
		Slop:             0.001,
		CorrectionFactor: 0.8,
		WakeThreshold:    0.3,
	}
}

// headOnContact places A at the origin and B on +X, touching at penetration.
// The normal points from B towards A.
func headOnContact(bodyA, bodyB *actor.RigidBody, penetration float64) *ContactConstraint {
	return &ContactConstraint{
		BodyA:       bodyA,
		BodyB:       bodyB,
		Point:       bodyA.Position().Add(bodyB.Position()).Mul(0.5),
		Normal:      mgl64.Vec3{-1, 0, 0},
		Penetration: penetration,
	}
}

func TestContactConstraint_Solve_Approaching(t *testing.T) {
	bodyA := createBody(t, cubeShape(t), mgl64.Vec3{0, 1, 0}, mgl64.Vec3{2, 0, 0})
	bodyB := createBody(t, cubeShape(t), mgl64.Vec3{0.9, 1, 0}, mgl64.Vec3{})
	params := defaultContactParams()
	params.Slop = 1

	result := headOnContact(bodyA, bodyB, 0.1).Solve(params)

	// j = -(1+e)·vn / (1/mA + 1/mB) with vn = -2
	if !almostEqual(result.Impulse, 1.5, 1e-12) {
		t.Errorf("Impulse = %v, want 1.5", result.Impulse)
	}
	if !vec3AlmostEqual(bodyA.Velocity, mgl64.Vec3{0.5, 0, 0}, 1e-12) {
		t.Errorf("BodyA velocity = %v, want (0.5, 0, 0)", bodyA.Velocity)
	}
	if !vec3AlmostEqual(bodyB.Velocity, mgl64.Vec3{1.5, 0, 0}, 1e-12) {
		t.Errorf("BodyB velocity = %v, want (1.5, 0, 0)", bodyB.Velocity)
	}

	momentum := bodyA.Velocity.Add(bodyB.Velocity)
	if !almostEqual(momentum.X(), 2, 1e-12) {
		t.Errorf("momentum not conserved: %v", momentum)
	}
}

func TestContactConstraint_Solve_Separating(t *testing.T) {
	bodyA := createBody(t, cubeShape(t), mgl64.Vec3{0, 1, 0}, mgl64.Vec3{-2, 0, 0})
	bodyB := createBody(t, cubeShape(t), mgl64.Vec3{0.9, 1, 0}, mgl64.Vec3{1, 0, 0})
	params := defaultContactParams()
	params.Slop = 1

	result := headOnContact(bodyA, bodyB, 0.1).Solve(params)

	if result.Impulse != 0 {
		t.Errorf("Impulse = %v, want 0", result.Impulse)
	}
	if bodyA.Velocity != (mgl64.Vec3{-2, 0, 0}) || bodyB.Velocity != (mgl64.Vec3{1, 0, 0}) {
		t.Errorf("separating bodies changed velocity: %v, %v", bodyA.Velocity, bodyB.Velocity)
	}
}

func TestContactConstraint_Solve_PositionalSeparation(t *testing.T) {
	bodyA := createBody(t, cubeShape(t), mgl64.Vec3{0, 1, 0}, mgl64.Vec3{})
	bodyB := createBody(t, cubeShape(t), mgl64.Vec3{0.9, 1, 0}, mgl64.Vec3{})
	params := defaultContactParams()

	headOnContact(bodyA, bodyB, 0.1).Solve(params)

	shift := (0.1 - params.Slop) * params.CorrectionFactor / 2
	if !almostEqual(bodyA.Position().X(), -shift, 1e-12) {
		t.Errorf("BodyA X = %v, want %v", bodyA.Position().X(), -shift)
	}
	if !almostEqual(bodyB.Position().X(), 0.9+shift, 1e-12) {
		t.Errorf("BodyB X = %v, want %v", bodyB.Position().X(), 0.9+shift)
	}
}

func TestContactConstraint_Solve_SettledBody(t *testing.T) {
	tests := []struct {
		name       string
		approach   float64
		wantWoken  bool
		wantStatic bool
	}{
		{"gentle contact leaves it asleep", 0.2, false, true},
		{"hard contact wakes it", 2, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bodyA := createBody(t, cubeShape(t), mgl64.Vec3{0, 1, 0}, mgl64.Vec3{tt.approach, 0, 0})
			bodyB := createBody(t, cubeShape(t), mgl64.Vec3{0.9, 1, 0}, mgl64.Vec3{})
			bodyB.IsSettled = true

			result := headOnContact(bodyA, bodyB, 0.1).Solve(defaultContactParams())

			if woken := len(result.Woken) == 1 && result.Woken[0] == bodyB; woken != tt.wantWoken {
				t.Errorf("woken = %v, want %v", result.Woken, tt.wantWoken)
			}
			if bodyB.IsSettled != tt.wantStatic {
				t.Errorf("BodyB settled = %v, want %v", bodyB.IsSettled, tt.wantStatic)
			}

			moved := bodyB.Position() != (mgl64.Vec3{0.9, 1, 0}) || bodyB.Velocity != (mgl64.Vec3{})
			if moved == tt.wantStatic {
				t.Errorf("BodyB moved = %v: position %v velocity %v", moved, bodyB.Position(), bodyB.Velocity)
			}
			if bodyA.Velocity.X() >= tt.approach {
				t.Errorf("BodyA was not slowed: %v", bodyA.Velocity)
			}
		})
	}
}

func TestContactConstraint_Solve_BothSettled(t *testing.T) {
	bodyA := createBody(t, cubeShape(t), mgl64.Vec3{0, 1, 0}, mgl64.Vec3{})
	bodyB := createBody(t, cubeShape(t), mgl64.Vec3{0.9, 1, 0}, mgl64.Vec3{})
	bodyA.IsSettled = true
	bodyB.IsSettled = true

	result := headOnContact(bodyA, bodyB, 0.1).Solve(defaultContactParams())

	if result.Impulse != 0 || len(result.Woken) != 0 {
		t.Errorf("settled pair was resolved: %+v", result)
	}
	if bodyA.Position() != (mgl64.Vec3{0, 1, 0}) || bodyB.Position() != (mgl64.Vec3{0.9, 1, 0}) {
		t.Error("settled pair was separated")
	}
}

func TestContactConstraint_Solve_FrictionAndSpin(t *testing.T) {
	// A grazes B while sliding along Z: friction opposes the slide and spins both
	bodyA := createBody(t, cubeShape(t), mgl64.Vec3{0, 1, 0}, mgl64.Vec3{1, 0, 3})
	bodyB := createBody(t, cubeShape(t), mgl64.Vec3{0.9, 1, 0}, mgl64.Vec3{})
	params := defaultContactParams()
	params.Slop = 1

	headOnContact(bodyA, bodyB, 0.1).Solve(params)

	if bodyA.Velocity.Z() >= 3 {
		t.Errorf("friction did not slow the slide: %v", bodyA.Velocity)
	}
	if bodyA.Velocity.Z() < 0 {
		t.Errorf("friction reversed the slide: %v", bodyA.Velocity)
	}
	if bodyA.AngularSpeed() == 0 || bodyB.AngularSpeed() == 0 {
		t.Errorf("no spin transferred: %v, %v", bodyA.AngularVelocity, bodyB.AngularVelocity)
	}
}
