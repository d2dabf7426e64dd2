// pkg/render/engo/click.go
package engo

import (
	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-drivecam/pkg/engine"
)

// ClickRadius is how close, in screen pixels, a click must land to a point marker
const ClickRadius = 24

// ClickSystem discovers the point marker under a left click
type ClickSystem struct {
	playground *engine.Playground
	camera     *CameraSystem
	radius     float64
	poll       func() (mgl64.Vec2, bool)
	wasDown    bool
}

// NewClickSystem watches the mouse. A nil poll reads engo's left button.
func NewClickSystem(p *engine.Playground, cam *CameraSystem, poll func() (mgl64.Vec2, bool)) *ClickSystem {
	if poll == nil {
		poll = func() (mgl64.Vec2, bool) {
			m := engo.Input.Mouse
			return mgl64.Vec2{float64(m.X), float64(m.Y)}, m.Action == engo.Press && m.Button == engo.MouseButtonLeft
		}
	}
	return &ClickSystem{playground: p, camera: cam, radius: ClickRadius, poll: poll}
}

// Remove satisfies the ecs.System interface
func (cs *ClickSystem) Remove(ecs.BasicEntity) {}

// Update clicks once per press
func (cs *ClickSystem) Update(dt float32) {
	pos, down := cs.poll()
	if down && !cs.wasDown {
		cs.Click(pos)
	}
	cs.wasDown = down
}

// Click discovers the nearest point within the click radius of a screen
// position. It returns the point and whether it was newly discovered.
func (cs *ClickSystem) Click(screen mgl64.Vec2) (string, bool) {
	var hit string
	best := cs.radius
	for _, pt := range cs.playground.Discovery.Points() {
		if d := cs.camera.WorldToScreen(pt.Position).Sub(screen).Len(); d <= best {
			hit, best = pt.ID, d
		}
	}
	if hit == "" {
		return "", false
	}
	fresh, err := cs.playground.DiscoverPoint(hit)
	return hit, err == nil && fresh
}
