package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-drivecam/pkg/physics"
)

// OrbitParams limits and damps the free-look controls
type OrbitParams struct {
	MinDistance   float64
	MaxDistance   float64
	MinPolarAngle float64 // radians from straight above
	MaxPolarAngle float64
	SmoothTime    float64 // seconds to close most of the gap to the goal; 0 snaps
	EnablePan     bool
	EnableZoom    bool
	EnableRotate  bool
}

// DefaultOrbitParams returns the playground free camera limits
func DefaultOrbitParams() OrbitParams {
	return OrbitParams{
		MinDistance:   5,
		MaxDistance:   40,
		MinPolarAngle: 0,
		MaxPolarAngle: math.Pi / 2,
		SmoothTime:    0.25,
		EnablePan:     true,
		EnableZoom:    true,
		EnableRotate:  true,
	}
}

type spherical struct {
	distance float64
	polar    float64
	azimuth  float64
}

// Orbit rotates, zooms and pans the camera around a look-at point. Input
// moves a goal; Update eases the current view toward it.
type Orbit struct {
	params OrbitParams

	target     mgl64.Vec3
	goalTarget mgl64.Vec3
	current    spherical
	goal       spherical
}

// NewOrbit creates orbit controls looking at the origin from MinDistance above the horizon
func NewOrbit(params OrbitParams) *Orbit {
	o := &Orbit{params: params}
	start := spherical{distance: params.MinDistance, polar: params.MaxPolarAngle / 2}
	o.current = o.clamp(start)
	o.goal = o.current
	return o
}

// Params returns the orbit limits
func (o *Orbit) Params() OrbitParams {
	return o.params
}

// SetLookAt places the camera at position looking at target. Without
// transition the view jumps there on the next Update.
func (o *Orbit) SetLookAt(position, target mgl64.Vec3, transition bool) {
	o.goalTarget = target
	o.goal = o.clamp(toSpherical(position.Sub(target)))
	if !transition {
		o.target = o.goalTarget
		o.current = o.goal
	}
}

// FocusOn moves the look-at point to target at the given distance with a transition
func (o *Orbit) FocusOn(target mgl64.Vec3, distance float64) {
	o.goalTarget = target
	o.goal.distance = distance
	o.goal = o.clamp(o.goal)
}

// Rotate adds to the goal azimuth and polar angle, in radians
func (o *Orbit) Rotate(dAzimuth, dPolar float64) {
	if !o.params.EnableRotate {
		return
	}
	o.goal.azimuth += dAzimuth
	o.goal.polar += dPolar
	o.goal = o.clamp(o.goal)
}

// Zoom scales the goal distance; values below 1 move closer
func (o *Orbit) Zoom(scale float64) {
	if !o.params.EnableZoom || scale <= 0 {
		return
	}
	o.goal.distance *= scale
	o.goal = o.clamp(o.goal)
}

// Pan shifts the look-at point along the ground, relative to the view:
// right moves across the screen, forward moves away from the camera.
func (o *Orbit) Pan(right, forward float64) {
	if !o.params.EnablePan {
		return
	}
	az := o.goal.azimuth
	// screen right and into-screen directions projected on the ground
	r := mgl64.Vec3{math.Cos(az), 0, -math.Sin(az)}
	f := mgl64.Vec3{-math.Sin(az), 0, -math.Cos(az)}
	o.goalTarget = o.goalTarget.Add(r.Mul(right)).Add(f.Mul(forward))
}

// Update eases toward the goal and returns the camera pose
func (o *Orbit) Update(delta float64) (mgl64.Vec3, mgl64.Quat) {
	t := 1.0
	if o.params.SmoothTime > 0 {
		t = 1 - math.Exp(-delta/o.params.SmoothTime)
	}

	o.target = physics.Lerp(o.target, o.goalTarget, t)
	o.current.distance += (o.goal.distance - o.current.distance) * t
	o.current.polar += (o.goal.polar - o.current.polar) * t
	o.current.azimuth += (o.goal.azimuth - o.current.azimuth) * t

	pos := o.Position()
	q, _ := LookRotation(pos, o.target, 0)
	return pos, q
}

// Position returns the current camera position
func (o *Orbit) Position() mgl64.Vec3 {
	return o.target.Add(fromSpherical(o.current))
}

// Target returns the current look-at point
func (o *Orbit) Target() mgl64.Vec3 {
	return o.target
}

// Distance returns the current distance to the look-at point
func (o *Orbit) Distance() float64 {
	return o.current.distance
}

// PolarAngle returns the current angle from straight above
func (o *Orbit) PolarAngle() float64 {
	return o.current.polar
}

// Azimuth returns the current angle around the vertical axis
func (o *Orbit) Azimuth() float64 {
	return o.current.azimuth
}

// Settled reports whether the view has reached its goal
func (o *Orbit) Settled() bool {
	const eps = 1e-6
	return math.Abs(o.goal.distance-o.current.distance) < eps &&
		math.Abs(o.goal.polar-o.current.polar) < eps &&
		math.Abs(o.goal.azimuth-o.current.azimuth) < eps &&
		o.goalTarget.Sub(o.target).Len() < eps
}

func (o *Orbit) clamp(s spherical) spherical {
	s.distance = mgl64.Clamp(s.distance, o.params.MinDistance, o.params.MaxDistance)
	s.polar = mgl64.Clamp(s.polar, o.params.MinPolarAngle, o.params.MaxPolarAngle)
	return s
}

func toSpherical(offset mgl64.Vec3) spherical {
	d := offset.Len()
	if d == 0 {
		return spherical{}
	}
	return spherical{
		distance: d,
		polar:    math.Acos(mgl64.Clamp(offset.Y()/d, -1, 1)),
		azimuth:  math.Atan2(offset.X(), offset.Z()),
	}
}

func fromSpherical(s spherical) mgl64.Vec3 {
	sinPolar := math.Sin(s.polar)
	return mgl64.Vec3{
		s.distance * sinPolar * math.Sin(s.azimuth),
		s.distance * math.Cos(s.polar),
		s.distance * sinPolar * math.Cos(s.azimuth),
	}
}
