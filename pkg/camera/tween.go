package camera

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-drivecam/pkg/physics"
)

// Easing maps linear progress in [0,1] to eased progress
type Easing func(t float64) float64

// Linear applies no easing
func Linear(t float64) float64 { return t }

// EaseOutQuad decelerates toward the end
func EaseOutQuad(t float64) float64 { return 1 - (1-t)*(1-t) }

// EaseInOutCubic accelerates then decelerates
func EaseInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	u := -2*t + 2
	return 1 - u*u*u/2
}

// Tween moves a camera position and its look-at point over a fixed duration
type Tween struct {
	fromPos, toPos       mgl64.Vec3
	fromTarget, toTarget mgl64.Vec3
	duration             float64
	elapsed              float64
	ease                 Easing
}

// NewTween creates a transition. A nil easing is linear.
func NewTween(fromPos, fromTarget, toPos, toTarget mgl64.Vec3, duration time.Duration, ease Easing) *Tween {
	if ease == nil {
		ease = Linear
	}
	return &Tween{
		fromPos:    fromPos,
		toPos:      toPos,
		fromTarget: fromTarget,
		toTarget:   toTarget,
		duration:   duration.Seconds(),
		ease:       ease,
	}
}

// Progress returns the linear progress in [0,1]
func (tw *Tween) Progress() float64 {
	if tw.duration <= 0 {
		return 1
	}
	return mgl64.Clamp(tw.elapsed/tw.duration, 0, 1)
}

// Done reports whether the transition has finished
func (tw *Tween) Done() bool {
	return tw.Progress() >= 1
}

// Advance moves the tween forward by delta seconds
func (tw *Tween) Advance(delta float64) (pos, target mgl64.Vec3, done bool) {
	if delta > 0 {
		tw.elapsed += delta
	}
	p := tw.Progress()
	if p >= 1 {
		return tw.toPos, tw.toTarget, true
	}
	e := tw.ease(p)
	return physics.Lerp(tw.fromPos, tw.toPos, e), physics.Lerp(tw.fromTarget, tw.toTarget, e), false
}
