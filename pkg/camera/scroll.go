package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-drivecam/pkg/physics"
)

// ScrollFrame is the camera and showcase car pose for a scroll offset
type ScrollFrame struct {
	Offset            float64
	CameraPosition    mgl64.Vec3
	CameraOrientation mgl64.Quat
	CarPosition       mgl64.Vec3
	CarOrientation    mgl64.Quat
	CarHeading        float64 // yaw part of CarOrientation
}

// Vehicle returns the display car as a vehicle state, for renderers
func (f ScrollFrame) Vehicle() physics.VehicleState {
	return physics.VehicleState{Position: f.CarPosition, Heading: f.CarHeading}
}

// Camera returns the camera pose, for renderers
func (f ScrollFrame) Camera() State {
	return State{Position: f.CameraPosition, Orientation: f.CameraOrientation}
}

// ScrollPose maps a scroll offset (0 at the top, 1 at the bottom) to a frame:
// the camera pulls back and tilts down while the car sinks and turns around.
func ScrollPose(offset float64) ScrollFrame {
	offset = mgl64.Clamp(offset, 0, 1)
	xAxis := mgl64.Vec3{1, 0, 0}
	yAxis := mgl64.Vec3{0, 1, 0}

	camPitch := -0.2 - offset*0.3
	camYaw := offset * 0.1
	carPitch := offset * 0.5
	carYaw := offset * math.Pi

	return ScrollFrame{
		Offset:            offset,
		CameraPosition:    mgl64.Vec3{0, 0, 10 - offset*40},
		CameraOrientation: mgl64.QuatRotate(camPitch, xAxis).Mul(mgl64.QuatRotate(camYaw, yAxis)),
		CarPosition:       mgl64.Vec3{0, -1 - offset*5, 0},
		CarOrientation:    mgl64.QuatRotate(carPitch, xAxis).Mul(mgl64.QuatRotate(carYaw, yAxis)),
		CarHeading:        carYaw,
	}
}

// ScrollRig damps raw scroll input before mapping it to a frame
type ScrollRig struct {
	damping float64 // seconds
	offset  float64
	goal    float64
}

// NewScrollRig creates a rig at the top of the page
func NewScrollRig(damping float64) *ScrollRig {
	return &ScrollRig{damping: damping}
}

// SetScroll sets the raw scroll offset
func (r *ScrollRig) SetScroll(offset float64) {
	r.goal = mgl64.Clamp(offset, 0, 1)
}

// Offset returns the damped offset
func (r *ScrollRig) Offset() float64 {
	return r.offset
}

// Tick eases the offset toward the raw scroll position and returns the frame
func (r *ScrollRig) Tick(delta float64) ScrollFrame {
	t := 1.0
	if r.damping > 0 {
		t = 1 - math.Exp(-math.Max(delta, 0)/r.damping)
	}
	r.offset += (r.goal - r.offset) * t
	return ScrollPose(r.offset)
}
