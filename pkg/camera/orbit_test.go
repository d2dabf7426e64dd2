package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func settle(o *Orbit) (mgl64.Vec3, mgl64.Quat) {
	var pos mgl64.Vec3
	var q mgl64.Quat
	for i := 0; i < 600; i++ {
		pos, q = o.Update(frame)
	}
	return pos, q
}

func TestOrbit_SetLookAtWithoutTransition(t *testing.T) {
	o := NewOrbit(DefaultOrbitParams())
	o.SetLookAt(mgl64.Vec3{0, 5, -10}, mgl64.Vec3{}, false)

	pos, q := o.Update(frame)
	assert.True(t, pos.ApproxEqualThreshold(mgl64.Vec3{0, 5, -10}, 1e-9), "got %v", pos)
	assert.True(t, State{Orientation: q}.Forward().ApproxEqualThreshold(mgl64.Vec3{0, -5, 10}.Normalize(), 1e-9))
	assert.True(t, o.Settled())
}

func TestOrbit_ClampsDistanceAndPolar(t *testing.T) {
	p := DefaultOrbitParams()
	o := NewOrbit(p)

	o.SetLookAt(mgl64.Vec3{0, 100, 0.001}, mgl64.Vec3{}, false)
	assert.InDelta(t, p.MaxDistance, o.Distance(), 1e-9)

	o.SetLookAt(mgl64.Vec3{0, -3, 1}, mgl64.Vec3{}, false)
	assert.InDelta(t, p.MinDistance, o.Distance(), 1e-9)
	assert.InDelta(t, p.MaxPolarAngle, o.PolarAngle(), 1e-9, "camera must stay above the ground plane")

	o.Rotate(0, 10)
	settle(o)
	assert.InDelta(t, p.MaxPolarAngle, o.PolarAngle(), 1e-9)
}

func TestOrbit_ZoomIsDampedAndClamped(t *testing.T) {
	o := NewOrbit(DefaultOrbitParams())
	o.SetLookAt(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{}, false)

	o.Zoom(2)
	o.Update(frame)
	assert.Greater(t, o.Distance(), 10.0)
	assert.Less(t, o.Distance(), 20.0, "zoom should ease, not jump")

	settle(o)
	assert.InDelta(t, 20, o.Distance(), 1e-6)

	o.Zoom(100)
	settle(o)
	assert.InDelta(t, 40, o.Distance(), 1e-6)
}

func TestOrbit_FocusOn(t *testing.T) {
	o := NewOrbit(DefaultOrbitParams())
	o.FocusOn(mgl64.Vec3{15, 1, 15}, 10)
	settle(o)

	assert.True(t, o.Target().ApproxEqualThreshold(mgl64.Vec3{15, 1, 15}, 1e-6))
	assert.InDelta(t, 10, o.Distance(), 1e-6)
	assert.InDelta(t, 10, o.Position().Sub(o.Target()).Len(), 1e-6)
}

func TestOrbit_PanFollowsView(t *testing.T) {
	o := NewOrbit(DefaultOrbitParams())
	o.SetLookAt(mgl64.Vec3{0, 5, 10}, mgl64.Vec3{}, false)

	o.Pan(3, 0)
	settle(o)
	assert.True(t, o.Target().ApproxEqualThreshold(mgl64.Vec3{3, 0, 0}, 1e-6), "got %v", o.Target())

	o.Pan(0, 2)
	settle(o)
	assert.True(t, o.Target().ApproxEqualThreshold(mgl64.Vec3{3, 0, -2}, 1e-6), "got %v", o.Target())
}

func TestOrbit_DisabledControls(t *testing.T) {
	p := DefaultOrbitParams()
	p.EnablePan, p.EnableZoom, p.EnableRotate = false, false, false
	o := NewOrbit(p)
	o.SetLookAt(mgl64.Vec3{0, 5, 10}, mgl64.Vec3{}, false)
	before := o.Position()

	o.Pan(5, 5)
	o.Zoom(3)
	o.Rotate(math.Pi, 0.2)
	pos, _ := settle(o)
	assert.True(t, pos.ApproxEqualThreshold(before, 1e-9))
}

func TestTween_Easing(t *testing.T) {
	for name, ease := range map[string]Easing{"linear": Linear, "outQuad": EaseOutQuad, "inOutCubic": EaseInOutCubic} {
		assert.InDelta(t, 0, ease(0), 1e-12, name)
		assert.InDelta(t, 1, ease(1), 1e-12, name)
	}
	assert.InDelta(t, 0.5, EaseInOutCubic(0.5), 1e-12)
}

func TestTween_Advance(t *testing.T) {
	tw := NewTween(mgl64.Vec3{}, mgl64.Vec3{}, mgl64.Vec3{10, 0, 0}, mgl64.Vec3{0, 0, 10}, 1e9, nil)

	pos, target, done := tw.Advance(0.25)
	assert.False(t, done)
	assert.InDelta(t, 2.5, pos.X(), 1e-9)
	assert.InDelta(t, 2.5, target.Z(), 1e-9)

	pos, _, done = tw.Advance(1)
	assert.True(t, done)
	assert.Equal(t, mgl64.Vec3{10, 0, 0}, pos)
	assert.True(t, tw.Done())
}

func TestTween_ZeroDuration(t *testing.T) {
	tw := NewTween(mgl64.Vec3{}, mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}, mgl64.Vec3{}, 0, EaseInOutCubic)
	pos, _, done := tw.Advance(0)
	assert.True(t, done)
	assert.Equal(t, mgl64.Vec3{1, 1, 1}, pos)
}

func TestScrollPose(t *testing.T) {
	top := ScrollPose(0)
	assert.Equal(t, mgl64.Vec3{0, 0, 10}, top.CameraPosition)
	assert.Equal(t, mgl64.Vec3{0, -1, 0}, top.CarPosition)

	bottom := ScrollPose(1)
	assert.InDelta(t, -30, bottom.CameraPosition.Z(), 1e-9)
	assert.InDelta(t, -6, bottom.CarPosition.Y(), 1e-9)

	// car has turned around by the bottom of the page
	carForward := bottom.CarOrientation.Rotate(mgl64.Vec3{0, 0, 1})
	assert.Less(t, carForward.Z(), 0.0)

	assert.Equal(t, bottom, ScrollPose(3), "offset beyond the page is clamped")

	car := bottom.Vehicle()
	assert.Equal(t, bottom.CarPosition, car.Position)
	assert.InDelta(t, math.Pi, car.Heading, 1e-9)
	assert.Equal(t, bottom.CameraPosition, bottom.Camera().Position)
}

func TestScrollRig_Damped(t *testing.T) {
	rig := NewScrollRig(0.1)
	rig.SetScroll(1)

	first := rig.Tick(frame)
	assert.Greater(t, first.Offset, 0.0)
	assert.Less(t, first.Offset, 1.0)

	for i := 0; i < 300; i++ {
		rig.Tick(frame)
	}
	assert.InDelta(t, 1, rig.Offset(), 1e-6)
}
