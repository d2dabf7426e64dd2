// Package camera drives the playground camera: a smoothed third-person
// follow rig, a damped free orbit, one-shot reset tweens and the scroll rig.
package camera

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-drivecam/pkg/physics"
)

// Mode selects who owns the camera pose
type Mode int

const (
	// FollowThirdPerson smooths toward a chase position behind the tracked pose
	FollowThirdPerson Mode = iota
	// FreeOrbit hands the pose to the orbit controls
	FreeOrbit
)

// String returns the label shown on the mode toggle
func (m Mode) String() string {
	switch m {
	case FollowThirdPerson:
		return "third-person"
	case FreeOrbit:
		return "free"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode accepts the labels returned by String
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "third-person", "follow":
		return FollowThirdPerson, nil
	case "free", "orbit":
		return FreeOrbit, nil
	}
	return 0, fmt.Errorf("unknown camera mode %q", s)
}

// State is the camera pose handed to the renderer
type State struct {
	Position    mgl64.Vec3
	Orientation mgl64.Quat
	Mode        Mode
}

// viewAxis is the direction an unrotated camera looks along
var viewAxis = mgl64.Vec3{0, 0, -1}

// Forward returns the viewing direction
func (s State) Forward() mgl64.Vec3 {
	return s.Orientation.Rotate(viewAxis)
}

// LookRotation returns the orientation of a camera at eye looking at target,
// kept upright (no roll). pitchBias tilts the view further down. It reports
// false when eye and target coincide.
func LookRotation(eye, target mgl64.Vec3, pitchBias float64) (mgl64.Quat, bool) {
	dir := target.Sub(eye)
	if dir.Len() < 1e-9 {
		return mgl64.QuatIdent(), false
	}
	dir = dir.Normalize()

	pitch := math.Asin(mgl64.Clamp(dir.Y(), -1, 1)) - pitchBias
	yaw := math.Atan2(-dir.X(), -dir.Z())

	q := mgl64.QuatRotate(yaw, physics.Up).Mul(mgl64.QuatRotate(pitch, mgl64.Vec3{1, 0, 0}))
	return q.Normalize(), true
}

// Slerp interpolates orientations along the shortest arc
func Slerp(from, to mgl64.Quat, t float64) mgl64.Quat {
	if from.Dot(to) < 0 {
		to = to.Scale(-1)
	}
	return mgl64.QuatSlerp(from, to, t).Normalize()
}

// AngleBetween returns the rotation angle separating two orientations
func AngleBetween(a, b mgl64.Quat) float64 {
	d := math.Abs(a.Normalize().Dot(b.Normalize()))
	return 2 * math.Acos(mgl64.Clamp(d, -1, 1))
}
