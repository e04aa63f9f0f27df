package dice

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Rand is the random source used to build rolls. *rand.Rand from math/rand
// and math/rand/v2 both satisfy it.
type Rand interface {
	Float64() float64
}

// RollImpulse is a complete launch state for one die
type RollImpulse struct {
	Orientation     mgl64.Quat
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3
}

// RollParams bound the random launch drawn by RandomRoll
type RollParams struct {
	// Horizontal throw speed range (m/s)
	MinSpeed, MaxSpeed float64
	// Upward speed added to the throw
	Lift float64
	// Maximum angular speed around each axis (rad/s)
	MaxSpin float64
}

// DefaultRollParams is a firm throw across a table
func DefaultRollParams() RollParams {
	return RollParams{
		MinSpeed: 2,
		MaxSpeed: 5,
		Lift:     1.5,
		MaxSpin:  15,
	}
}

// RandomRoll draws a uniformly random orientation, a horizontal throw in a
// random direction and a random spin. The same sequence of numbers from r
// always yields the same roll.
func RandomRoll(r Rand, params RollParams) RollImpulse {
	heading := 2 * math.Pi * r.Float64()
	speed := params.MinSpeed + (params.MaxSpeed-params.MinSpeed)*r.Float64()

	spin := func() float64 {
		return (2*r.Float64() - 1) * params.MaxSpin
	}

	return RollImpulse{
		Orientation: randomOrientation(r),
		Velocity: mgl64.Vec3{
			speed * math.Cos(heading),
			params.Lift,
			speed * math.Sin(heading),
		},
		AngularVelocity: mgl64.Vec3{spin(), spin(), spin()},
	}
}

// randomOrientation samples a rotation uniformly (Shoemake's method)
func randomOrientation(r Rand) mgl64.Quat {
	u1, u2, u3 := r.Float64(), 2*math.Pi*r.Float64(), 2*math.Pi*r.Float64()
	a, b := math.Sqrt(1-u1), math.Sqrt(u1)

	return mgl64.Quat{
		W: b * math.Cos(u3),
		V: mgl64.Vec3{a * math.Sin(u2), a * math.Cos(u2), b * math.Sin(u3)},
	}
}
