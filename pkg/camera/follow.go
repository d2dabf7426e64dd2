package camera

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-drivecam/pkg/physics"
)

// PoseSource exposes the tracked target. It reports false once the target is
// gone, e.g. after the scene unmounts.
type PoseSource interface {
	Pose() (physics.Pose, bool)
}

// FollowParams tunes the chase camera
type FollowParams struct {
	// Offset from the target in its local frame; +Z is the target's forward axis
	Offset            mgl64.Vec3
	PositionSmoothing float64 // per reference tick, in (0,1)
	RotationSmoothing float64 // per reference tick, in (0,1)
	PitchBias         float64 // extra downward pitch in radians
	ReferenceRate     float64 // 0 applies the smoothing factors once per tick
}

// DefaultFollowParams returns the chase rig used by the playground
func DefaultFollowParams() FollowParams {
	return FollowParams{
		Offset:            mgl64.Vec3{0, 5, -10},
		PositionSmoothing: 0.1,
		RotationSmoothing: 0.1,
		ReferenceRate:     60,
	}
}

// ResetParams describes the canonical view restored by Reset
type ResetParams struct {
	Position mgl64.Vec3
	Target   mgl64.Vec3
	Duration time.Duration
	Easing   Easing
}

// DefaultResetParams returns the room view restore
func DefaultResetParams() ResetParams {
	return ResetParams{
		Position: mgl64.Vec3{8, 6, 8},
		Target:   mgl64.Vec3{0, 2, 0},
		Duration: time.Second,
		Easing:   EaseInOutCubic,
	}
}

// FollowCamera owns the camera pose and decides each tick who moves it:
// an active reset tween, the orbit controls, or the follow smoothing.
type FollowCamera struct {
	params FollowParams
	reset  ResetParams
	state  State
	source PoseSource
	orbit  *Orbit
	tween  *Tween
}

// NewFollowCamera creates a camera at position looking at lookAt in follow mode.
// orbit may be nil, in which case FreeOrbit leaves the pose untouched.
func NewFollowCamera(params FollowParams, reset ResetParams, orbit *Orbit, position, lookAt mgl64.Vec3) *FollowCamera {
	q, _ := LookRotation(position, lookAt, 0)
	return &FollowCamera{
		params: params,
		reset:  reset,
		orbit:  orbit,
		state: State{
			Position:    position,
			Orientation: q,
			Mode:        FollowThirdPerson,
		},
	}
}

// Bind attaches the read-only pose source to track
func (c *FollowCamera) Bind(src PoseSource) {
	c.source = src
}

// Detach drops the tracked source; follow ticks become no-ops
func (c *FollowCamera) Detach() {
	c.source = nil
}

// Bound reports whether a pose source is attached
func (c *FollowCamera) Bound() bool {
	return c.source != nil
}

// State returns the current camera pose
func (c *FollowCamera) State() State {
	return c.state
}

// Params returns the follow tuning
func (c *FollowCamera) Params() FollowParams {
	return c.params
}

// Orbit returns the orbit controls, possibly nil
func (c *FollowCamera) Orbit() *Orbit {
	return c.orbit
}

// Mode returns the current mode
func (c *FollowCamera) Mode() Mode {
	return c.state.Mode
}

// SetMode switches modes instantly. Entering FreeOrbit seeds the orbit
// controls from the current pose; entering FollowThirdPerson resumes smoothing
// from wherever the camera is.
func (c *FollowCamera) SetMode(m Mode) {
	if m == c.state.Mode {
		return
	}
	if m == FreeOrbit && c.orbit != nil {
		c.orbit.SetLookAt(c.state.Position, c.lookTarget(), false)
	}
	c.state.Mode = m
}

// ToggleMode flips between follow and orbit and returns the new mode
func (c *FollowCamera) ToggleMode() Mode {
	if c.state.Mode == FollowThirdPerson {
		c.SetMode(FreeOrbit)
	} else {
		c.SetMode(FollowThirdPerson)
	}
	return c.state.Mode
}

// Reset starts the eased transition to the canonical view
func (c *FollowCamera) Reset() {
	c.tween = NewTween(c.state.Position, c.lookTarget(), c.reset.Position, c.reset.Target, c.reset.Duration, c.reset.Easing)
}

// Resetting reports whether a reset transition is in progress
func (c *FollowCamera) Resetting() bool {
	return c.tween != nil
}

// Desired returns the chase position and orientation for a target pose
func (c *FollowCamera) Desired(target physics.Pose) (mgl64.Vec3, mgl64.Quat, bool) {
	pos := target.Position.Add(physics.RotateByHeading(c.params.Offset, target.Heading))
	q, ok := LookRotation(pos, target.Position, c.params.PitchBias)
	return pos, q, ok
}

// Tick advances the camera by delta seconds and returns the new pose
func (c *FollowCamera) Tick(delta float64) State {
	if delta < 0 {
		delta = 0
	}

	if c.tween != nil {
		c.advanceReset(delta)
		return c.state
	}

	switch c.state.Mode {
	case FreeOrbit:
		if c.orbit != nil {
			c.state.Position, c.state.Orientation = c.orbit.Update(delta)
		}
	case FollowThirdPerson:
		c.follow(delta)
	}
	return c.state
}

func (c *FollowCamera) follow(delta float64) {
	if c.source == nil {
		return
	}
	pose, ok := c.source.Pose()
	if !ok {
		return
	}

	desiredPos, desiredRot, ok := c.Desired(pose)
	s := physics.SmoothingFactor(c.params.PositionSmoothing, delta, c.params.ReferenceRate)
	c.state.Position = physics.Lerp(c.state.Position, desiredPos, s)
	if ok {
		r := physics.SmoothingFactor(c.params.RotationSmoothing, delta, c.params.ReferenceRate)
		c.state.Orientation = Slerp(c.state.Orientation, desiredRot, r)
	}
}

func (c *FollowCamera) advanceReset(delta float64) {
	pos, target, done := c.tween.Advance(delta)
	c.state.Position = pos
	if q, ok := LookRotation(pos, target, 0); ok {
		c.state.Orientation = q
	}
	if done {
		c.tween = nil
		if c.orbit != nil {
			c.orbit.SetLookAt(pos, target, false)
		}
	}
}

// lookTarget is the point the camera is currently aimed at
func (c *FollowCamera) lookTarget() mgl64.Vec3 {
	if c.state.Mode == FreeOrbit && c.orbit != nil {
		return c.orbit.Target()
	}
	if c.source != nil {
		if pose, ok := c.source.Pose(); ok {
			return pose.Position
		}
	}
	return c.state.Position.Add(c.state.Forward().Mul(10))
}
