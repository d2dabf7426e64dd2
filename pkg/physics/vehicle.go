package physics

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-drivecam/pkg/input"
)

// VehicleState is the kinematic state of the drivable car
type VehicleState struct {
	Position        mgl64.Vec3
	Heading         float64 // radians about +Y, 0 faces +Z
	LinearVelocity  float64 // signed speed along the forward axis
	AngularVelocity float64 // radians per second
}

// Pose is the read-only view of a vehicle consumed by the camera and triggers
type Pose struct {
	Position mgl64.Vec3
	Heading  float64
}

// Pose returns the position and heading of the state
func (s VehicleState) Pose() Pose {
	return Pose{Position: s.Position, Heading: s.Heading}
}

// Forward returns the unit forward direction of the vehicle
func (s VehicleState) Forward() mgl64.Vec3 {
	return ForwardFromHeading(s.Heading)
}

// VehicleParams tunes the motion model
type VehicleParams struct {
	AccelRate       float64 // velocity gained per second while accelerating
	BrakeRate       float64 // velocity lost per second while braking or reversing
	MaxForwardSpeed float64
	MaxReverseSpeed float64 // magnitude of the reverse cap
	TurnRate        float64 // angular velocity gained per second while steering
	Friction        float64 // per reference tick, in (0,1)
	AngularFriction float64 // per reference tick, in (0,1)
	TurnDeadband    float64 // no steering while |velocity| is at or below this
	Bounds          float64 // world half-extent on X and Z
	MaxDelta        float64 // longest tick accepted, in seconds
	ReferenceRate   float64 // ticks per second the friction factors are tuned for; 0 applies them per call
}

// DefaultVehicleParams returns the tuning used by the playground
func DefaultVehicleParams() VehicleParams {
	return VehicleParams{
		AccelRate:       9,
		BrakeRate:       5.4,
		MaxForwardSpeed: 20,
		MaxReverseSpeed: 8,
		TurnRate:        24,
		Friction:        0.92,
		AngularFriction: 0.85,
		TurnDeadband:    0.01,
		Bounds:          70,
		MaxDelta:        0.1,
		ReferenceRate:   60,
	}
}

// Simulator integrates a single vehicle once per frame
type Simulator struct {
	params VehicleParams
	state  VehicleState
}

// NewSimulator creates a simulator at the given pose with zero velocity
func NewSimulator(params VehicleParams, position mgl64.Vec3, heading float64) *Simulator {
	return &Simulator{
		params: params,
		state: VehicleState{
			Position: ClampPlanar(position, params.Bounds),
			Heading:  heading,
		},
	}
}

// Params returns the tuning in use
func (s *Simulator) Params() VehicleParams {
	return s.params
}

// State returns a copy of the current state
func (s *Simulator) State() VehicleState {
	return s.state
}

// Pose returns the current pose. The simulator is always available as a pose source.
func (s *Simulator) Pose() (Pose, bool) {
	return s.state.Pose(), true
}

// Tick advances the vehicle by delta seconds using the held actions and returns
// the updated state.
func (s *Simulator) Tick(held input.Actions, delta float64) VehicleState {
	s.state = Step(s.state, s.params, held, delta)
	return s.state
}

// Step is the pure motion model: it returns the state after one tick.
func Step(state VehicleState, p VehicleParams, held input.Actions, delta float64) VehicleState {
	dt := clampDelta(delta, p.MaxDelta)

	accelerating := held.Has(input.Accelerate)
	braking := held.Has(input.Brake)

	v := state.LinearVelocity
	if accelerating && v < p.MaxForwardSpeed {
		v = min(v+p.AccelRate*dt, p.MaxForwardSpeed)
	}
	if braking && v > -p.MaxReverseSpeed {
		v = max(v-p.BrakeRate*dt, -p.MaxReverseSpeed)
	}
	if !accelerating && !braking {
		v *= DecayFactor(p.Friction, dt, p.ReferenceRate)
	}

	w := state.AngularVelocity
	if abs(v) > p.TurnDeadband {
		steer := p.TurnRate * Sign(v) * dt
		if held.Has(input.TurnLeft) {
			w += steer
		}
		if held.Has(input.TurnRight) {
			w -= steer
		}
	}
	w *= DecayFactor(p.AngularFriction, dt, p.ReferenceRate)

	heading := state.Heading + w*dt
	position := state.Position.Add(ForwardFromHeading(heading).Mul(v * dt))

	return VehicleState{
		Position:        ClampPlanar(position, p.Bounds),
		Heading:         heading,
		LinearVelocity:  v,
		AngularVelocity: w,
	}
}

// clampDelta guards against spikes such as a backgrounded tab resuming
func clampDelta(delta, maxDelta float64) float64 {
	if delta < 0 {
		return 0
	}
	if maxDelta > 0 && delta > maxDelta {
		return maxDelta
	}
	return delta
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
