// pkg/physics/vector.go
package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Up is the world vertical axis. Headings rotate about it.
var Up = mgl64.Vec3{0, 1, 0}

// Forward is the canonical forward axis of an unrotated vehicle.
var Forward = mgl64.Vec3{0, 0, 1}

// HeadingRotation returns the rotation about the vertical axis for heading
func HeadingRotation(heading float64) mgl64.Quat {
	return mgl64.QuatRotate(heading, Up)
}

// ForwardFromHeading returns the unit forward direction for a heading in radians
func ForwardFromHeading(heading float64) mgl64.Vec3 {
	return mgl64.Vec3{math.Sin(heading), 0, math.Cos(heading)}
}

// RotateByHeading rotates v about the vertical axis by heading
func RotateByHeading(v mgl64.Vec3, heading float64) mgl64.Vec3 {
	return HeadingRotation(heading).Rotate(v)
}

// Lerp linearly interpolates from a toward b by t
func Lerp(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// Distance returns the Euclidean distance between two points
func Distance(a, b mgl64.Vec3) float64 {
	return b.Sub(a).Len()
}

// PlanarDistance returns the distance between two points projected on the X/Z plane
func PlanarDistance(a, b mgl64.Vec3) float64 {
	dx := b.X() - a.X()
	dz := b.Z() - a.Z()
	return math.Sqrt(dx*dx + dz*dz)
}

// ClampPlanar clamps X and Z independently into [-bound, bound]. Y is untouched.
func ClampPlanar(p mgl64.Vec3, bound float64) mgl64.Vec3 {
	return mgl64.Vec3{
		mgl64.Clamp(p.X(), -bound, bound),
		p.Y(),
		mgl64.Clamp(p.Z(), -bound, bound),
	}
}

// Sign returns -1, 0 or 1
func Sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

// DecayFactor returns the multiplier to apply for one tick of length delta.
// With referenceRate <= 0 the factor is applied flat, once per call.
func DecayFactor(factor, delta, referenceRate float64) float64 {
	if referenceRate <= 0 {
		return factor
	}
	return math.Pow(factor, delta*referenceRate)
}

// SmoothingFactor converts a per-reference-tick interpolation factor into the
// factor for a tick of length delta. With referenceRate <= 0 it is returned as is.
func SmoothingFactor(factor, delta, referenceRate float64) float64 {
	if referenceRate <= 0 {
		return factor
	}
	return 1 - math.Pow(1-factor, delta*referenceRate)
}
