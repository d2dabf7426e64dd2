// Package autopilot drives the car toward the nearest undiscovered point.
// It plugs into a playground as an engine.Driver.
package autopilot

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-drivecam/pkg/discovery"
	"github.com/opd-ai/go-drivecam/pkg/input"
	"github.com/opd-ai/go-drivecam/pkg/physics"
)

// Params tunes the steering
type Params struct {
	CruiseSpeed      float64 // accelerate only below this speed
	TurnSpeed        float64 // brake toward this speed for sharp turns
	SharpTurn        float64 // heading error in radians that counts as sharp
	HeadingTolerance float64 // no steering inside this heading error
	ApproachDistance float64 // stop accelerating this close to the target
}

// DefaultParams returns tuning that suits the default vehicle
func DefaultParams() Params {
	return Params{
		CruiseSpeed:      9,
		TurnSpeed:        4,
		SharpTurn:        math.Pi / 3,
		HeadingTolerance: 0.05,
		ApproachDistance: 6,
	}
}

// Autopilot is a stateless controller apart from the target it reports
type Autopilot struct {
	tracker *discovery.Tracker
	vehicle physics.VehicleParams
	params  Params

	mu     sync.Mutex
	target *discovery.Point
}

// New creates an autopilot that reads discoveries from tracker and steers a
// car tuned with vehicle.
func New(tracker *discovery.Tracker, vehicle physics.VehicleParams, params Params) *Autopilot {
	return &Autopilot{tracker: tracker, vehicle: vehicle, params: params}
}

// Drive returns the actions to hold for the next tick
func (a *Autopilot) Drive(state physics.VehicleState) input.Actions {
	point, dist, ok := a.tracker.Nearest(state.Position, true)

	a.mu.Lock()
	if ok {
		a.target = &point
	} else {
		a.target = nil
	}
	a.mu.Unlock()

	if !ok {
		// nothing left: roll to a stop
		if state.LinearVelocity > 0.5 {
			return input.NewActions(input.Brake)
		}
		return 0
	}
	return a.steer(state, point.Position, dist)
}

func (a *Autopilot) steer(state physics.VehicleState, target mgl64.Vec3, dist float64) input.Actions {
	p := a.params
	v := state.LinearVelocity

	desired := math.Atan2(target.X()-state.Position.X(), target.Z()-state.Position.Z())
	errNow := WrapAngle(desired - state.Heading)
	errPredicted := WrapAngle(desired - (state.Heading + a.coastRotation(state.AngularVelocity)))

	var held input.Actions
	if math.Abs(errPredicted) > p.HeadingTolerance {
		// turning left raises the heading while moving forward
		if errPredicted > 0 {
			held = held.With(input.TurnLeft)
		} else {
			held = held.With(input.TurnRight)
		}
	}

	sharp := math.Abs(errNow) > p.SharpTurn
	switch {
	case sharp && v > p.TurnSpeed:
		held = held.With(input.Brake)
	case v <= a.vehicle.TurnDeadband*10:
		// steering needs some speed
		held = held.With(input.Accelerate)
	case dist < p.ApproachDistance && v > p.TurnSpeed:
		// coast in
	case !sharp && v < p.CruiseSpeed:
		held = held.With(input.Accelerate)
	case sharp && v < p.TurnSpeed:
		held = held.With(input.Accelerate)
	}
	return held
}

// coastRotation estimates how far the heading keeps turning once steering stops
func (a *Autopilot) coastRotation(w float64) float64 {
	f := a.vehicle.AngularFriction
	rate := a.vehicle.ReferenceRate
	if rate <= 0 || f <= 0 || f >= 1 {
		return 0
	}
	return w / rate * f / (1 - f)
}

// Target returns the point currently steered toward
func (a *Autopilot) Target() (discovery.Point, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.target == nil {
		return discovery.Point{}, false
	}
	return *a.target, true
}

// Done reports whether every point has been discovered
func (a *Autopilot) Done() bool {
	discovered, total := a.tracker.Counts()
	return discovered == total
}

// WrapAngle maps an angle into (-pi, pi]
func WrapAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}
