package engine

import (
	"math"

	"github.com/opd-ai/go-drivecam/pkg/camera"
	"github.com/opd-ai/go-drivecam/pkg/input"
)

// Free orbit steps applied per command
const (
	OrbitStep = math.Pi / 12 // radians per rotate key press
	ZoomStep  = 0.8          // distance scale per zoom-in press
	PanStep   = 2.0          // world units per pan key press
)

// The orbit controls below only act while the camera is in free orbit and not
// resetting. Each reports whether the input was applied.

// OrbitRotate turns the free camera around its look-at point
func (p *Playground) OrbitRotate(dAzimuth, dPolar float64) bool {
	return p.withOrbit(func(o *camera.Orbit) { o.Rotate(dAzimuth, dPolar) })
}

// OrbitZoom scales the distance to the look-at point; below 1 moves closer
func (p *Playground) OrbitZoom(scale float64) bool {
	return p.withOrbit(func(o *camera.Orbit) { o.Zoom(scale) })
}

// OrbitPan slides the look-at point over the ground relative to the view
func (p *Playground) OrbitPan(right, forward float64) bool {
	return p.withOrbit(func(o *camera.Orbit) { o.Pan(right, forward) })
}

// FocusVehicle moves the look-at point onto the car, keeping the distance
func (p *Playground) FocusVehicle() bool {
	return p.withOrbit(func(o *camera.Orbit) {
		o.FocusOn(p.Vehicle.State().Position, o.Distance())
	})
}

func (p *Playground) withOrbit(fn func(o *camera.Orbit)) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.orbitLocked(fn)
}

func (p *Playground) orbitLocked(fn func(o *camera.Orbit)) bool {
	o := p.Camera.Orbit()
	if o == nil || p.Camera.Mode() != camera.FreeOrbit || p.Camera.Resetting() {
		return false
	}
	fn(o)
	return true
}

// panLocked pans one step in the direction of a driving action
func (p *Playground) panLocked(a input.Action) {
	p.orbitLocked(func(o *camera.Orbit) {
		switch a {
		case input.Accelerate:
			o.Pan(0, PanStep)
		case input.Brake:
			o.Pan(0, -PanStep)
		case input.TurnLeft:
			o.Pan(-PanStep, 0)
		case input.TurnRight:
			o.Pan(PanStep, 0)
		}
	})
}
