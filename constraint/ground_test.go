package constraint

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func defaultGroundParams() GroundParams {
	return GroundParams{
		GroundY:          0,
		Restitution:      0.5,
		BounceThreshold:  0.5,
		KineticFriction:  0.4,
		Iterations:       8,
		Slop:             0.005,
		CorrectionFactor: 0.4,
		LinearDamping:    0.99,
		AngularDamping:   0.98,
		WakeThreshold:    0.5,
	}
}

func TestResolveGround_NoContact(t *testing.T) {
	rb := createBody(t, probeShape(t), mgl64.Vec3{0, 1, 0}, mgl64.Vec3{1, -2, 0})

	result := ResolveGround(rb, defaultGroundParams())

	if result.Contacts != 0 {
		t.Errorf("Contacts = %d, want 0", result.Contacts)
	}
	if rb.Velocity != (mgl64.Vec3{1, -2, 0}) {
		t.Errorf("velocity changed without contact: %v", rb.Velocity)
	}
}

func TestResolveGround_SettledBodyIgnored(t *testing.T) {
	rb := createBody(t, probeShape(t), mgl64.Vec3{0, 0.4, 0}, mgl64.Vec3{0, -1, 0})
	rb.IsSettled = true

	result := ResolveGround(rb, defaultGroundParams())

	if result.Contacts != 0 || rb.Velocity != (mgl64.Vec3{0, -1, 0}) {
		t.Errorf("settled body was resolved: %+v, velocity %v", result, rb.Velocity)
	}
}

func TestResolveGround_Impact(t *testing.T) {
	tests := []struct {
		name      string
		velocityY float64
		wantY     float64
	}{
		// Below the bounce threshold the impact is inelastic
		{"slow impact stops", -0.3, 0},
		// Above it the rebound is -e·v, then damped once
		{"fast impact bounces", -4, 2 * 0.99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rb := createBody(t, probeShape(t), mgl64.Vec3{0, 0.49, 0}, mgl64.Vec3{0, tt.velocityY, 0})
			speedBefore := rb.Speed()

			result := ResolveGround(rb, defaultGroundParams())

			if result.Contacts != 1 {
				t.Fatalf("Contacts = %d, want 1", result.Contacts)
			}
			if !almostEqual(rb.Velocity.Y(), tt.wantY, 1e-9) {
				t.Errorf("velocity Y = %v, want %v", rb.Velocity.Y(), tt.wantY)
			}
			if rb.Speed() > speedBefore {
				t.Errorf("speed grew from %v to %v", speedBefore, rb.Speed())
			}
			if rb.AngularSpeed() > 1e-9 {
				t.Errorf("central impact created spin: %v", rb.AngularVelocity)
			}
		})
	}
}

func TestResolveGround_SpinningImpactRebound(t *testing.T) {
	tests := []struct {
		name            string
		rotation        mgl64.Quat
		velocity        mgl64.Vec3
		angularVelocity mgl64.Vec3
		friction        float64
	}{
		{"edge hit with friction", mgl64.QuatRotate(0.6, mgl64.Vec3{0, 0, 1}), mgl64.Vec3{1, -4, 0}, mgl64.Vec3{5, 3, -6}, 0.4},
		{"edge hit without friction", mgl64.QuatRotate(0.6, mgl64.Vec3{0, 0, 1}), mgl64.Vec3{1, -4, 0}, mgl64.Vec3{5, 3, -6}, 0},
		{"edge hit against the spin", mgl64.QuatRotate(0.6, mgl64.Vec3{0, 0, 1}), mgl64.Vec3{-2, -3, 1}, mgl64.Vec3{-4, 8, 7}, 0.8},
		{"corner hit", mgl64.QuatRotate(0.3, mgl64.Vec3{1, 0, 0}).Mul(mgl64.QuatRotate(0.6, mgl64.Vec3{0, 0, 1})), mgl64.Vec3{2, -5, -1}, mgl64.Vec3{0, -6, 9}, 0.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shape := cubeShape(t)
			rb := createBody(t, shape, mgl64.Vec3{}, tt.velocity)
			rb.SetPose(mgl64.Vec3{}, tt.rotation)
			// Sink the lowest corner 5mm into the ground
			rb.SetPose(mgl64.Vec3{0, -rb.LowestVertex().Y() - 0.005, 0}, tt.rotation)
			rb.AngularVelocity = tt.angularVelocity

			params := defaultGroundParams()
			params.Restitution = 0.3
			params.KineticFriction = tt.friction
			params.LinearDamping = 1
			params.AngularDamping = 1

			before := make(map[int]float64)
			for i, v := range shape.Vertices {
				if p := rb.LocalToWorld(v); p.Y() < 0 {
					before[i] = rb.VelocityAt(p).Y()
				}
			}

			result := ResolveGround(rb, params)
			if result.Contacts == 0 || result.Contacts != len(before) {
				t.Fatalf("Contacts = %d, want %d", result.Contacts, len(before))
			}

			for i, preVn := range before {
				if preVn >= 0 {
					continue
				}
				postVn := rb.VelocityAt(rb.LocalToWorld(shape.Vertices[i])).Y()
				if limit := params.Restitution * math.Abs(preVn); postVn > limit+1e-6 {
					t.Errorf("vertex %d leaves at %v, faster than %v (hit at %v)", i, postVn, limit, preVn)
				}
			}
		})
	}
}

func TestResolveGround_PositionalCorrection(t *testing.T) {
	rb := createBody(t, probeShape(t), mgl64.Vec3{0, 0.45, 0}, mgl64.Vec3{})
	params := defaultGroundParams()

	result := ResolveGround(rb, params)

	if !almostEqual(result.MaxPenetration, 0.05, 1e-12) {
		t.Fatalf("MaxPenetration = %v, want 0.05", result.MaxPenetration)
	}
	want := 0.45 + (0.05-params.Slop)*params.CorrectionFactor
	if !almostEqual(rb.Position().Y(), want, 1e-12) {
		t.Errorf("position Y = %v, want %v", rb.Position().Y(), want)
	}
}

func TestResolveGround_NeverPulls(t *testing.T) {
	// A vertex below the ground but already moving up gets no impulse
	rb := createBody(t, probeShape(t), mgl64.Vec3{0, 0.49, 0}, mgl64.Vec3{0, 1, 0})

	result := ResolveGround(rb, defaultGroundParams())

	if result.Impulse != 0 {
		t.Errorf("Impulse = %v, want 0", result.Impulse)
	}
	if rb.Velocity.Y() <= 0 {
		t.Errorf("separating body was pulled down: %v", rb.Velocity)
	}
}

func TestResolveGround_FrictionNeverReverses(t *testing.T) {
	tests := []struct {
		name     string
		slideX   float64
		friction float64
	}{
		{"fast slide is slowed", 3, 0.4},
		{"slow slide is stopped", 0.1, 0.4},
		{"high friction cannot push back", 0.5, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rb := createBody(t, probeShape(t), mgl64.Vec3{0, 0.49, 0}, mgl64.Vec3{tt.slideX, -1, 0})
			params := defaultGroundParams()
			params.BounceThreshold = 2
			params.KineticFriction = tt.friction
			ResolveGround(rb, params)

			slip := rb.VelocityAt(rb.Position().Add(mgl64.Vec3{0, -0.5, 0})).X()
			if slip < -1e-9 {
				t.Errorf("contact slip reversed: %v", slip)
			}
			if slip > tt.slideX {
				t.Errorf("contact slip grew from %v to %v", tt.slideX, slip)
			}
		})
	}
}

func TestResolveGround_WakeThreshold(t *testing.T) {
	tests := []struct {
		name      string
		velocityY float64
		wantTimer float64
	}{
		{"resting contact keeps the timer", -0.3, 0.2},
		{"hard impact resets the timer", -4, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rb := createBody(t, probeShape(t), mgl64.Vec3{0, 0.49, 0}, mgl64.Vec3{0, tt.velocityY, 0})
			rb.SettleTimer = 0.2

			ResolveGround(rb, defaultGroundParams())

			if rb.SettleTimer != tt.wantTimer {
				t.Errorf("SettleTimer = %v, want %v", rb.SettleTimer, tt.wantTimer)
			}
		})
	}
}

func TestResolveGround_FlatCube(t *testing.T) {
	// A cube falling flat touches with its four bottom corners
	rb := createBody(t, cubeShape(t), mgl64.Vec3{0, 0.499, 0}, mgl64.Vec3{0, -1, 0})

	result := ResolveGround(rb, defaultGroundParams())

	if result.Contacts != 4 {
		t.Fatalf("Contacts = %d, want 4", result.Contacts)
	}
	if rb.Velocity.Y() < -0.05 {
		t.Errorf("cube still moving down: %v", rb.Velocity)
	}
	if rb.Velocity.Y() > 1.0 {
		t.Errorf("cube gained energy: %v", rb.Velocity)
	}
}
