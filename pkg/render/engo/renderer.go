// pkg/render/engo/renderer.go
package engo

import (
	"image/color"
	"math"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"

	"github.com/opd-ai/go-drivecam/pkg/camera"
	"github.com/opd-ai/go-drivecam/pkg/discovery"
	"github.com/opd-ai/go-drivecam/pkg/engine"
	"github.com/opd-ai/go-drivecam/pkg/physics"
)

// sprite is one drawn entity
type sprite struct {
	ecs.BasicEntity
	common.RenderComponent
	common.SpaceComponent
}

// EngoRenderer implements render.Renderer on top of engo's RenderSystem.
// Entities are created on first sight and moved every frame after that.
type EngoRenderer struct {
	renderSystem *common.RenderSystem
	assets       *AssetManager
	camera       *CameraSystem
	hud          *HUDSystem

	vehicle *sprite
	marker  *sprite
	points  map[string]*sprite
}

// NewEngoRenderer creates a renderer. With a nil render system entities are
// tracked but never drawn.
func NewEngoRenderer(rs *common.RenderSystem, assets *AssetManager, cam *CameraSystem, hud *HUDSystem) *EngoRenderer {
	if assets == nil {
		assets = NewAssetManager()
	}
	if cam == nil {
		cam = NewCameraSystem()
	}
	return &EngoRenderer{
		renderSystem: rs,
		assets:       assets,
		camera:       cam,
		hud:          hud,
		points:       make(map[string]*sprite),
	}
}

func (r *EngoRenderer) newSprite(name string, z float32) *sprite {
	s := &sprite{BasicEntity: ecs.NewBasic()}
	s.RenderComponent.Drawable = r.assets.Sprite(name)
	s.RenderComponent.Color = color.White
	s.RenderComponent.SetZIndex(z)
	if img, ok := r.assets.Image(name); ok {
		b := img.Bounds()
		s.SpaceComponent.Width = float32(b.Dx())
		s.SpaceComponent.Height = float32(b.Dy())
	}
	if r.renderSystem != nil && s.RenderComponent.Drawable != nil {
		r.renderSystem.Add(&s.BasicEntity, &s.RenderComponent, &s.SpaceComponent)
	}
	return s
}

// place centers s on a world position
func (r *EngoRenderer) place(s *sprite, pos physics.Pose) {
	p := r.camera.WorldToPixels(pos.Position)
	s.SpaceComponent.Position = engo.Point{X: p.X - s.SpaceComponent.Width/2, Y: p.Y - s.SpaceComponent.Height/2}
}

// Clear implements render.Renderer. Entities persist between frames.
func (r *EngoRenderer) Clear() {}

// Present implements render.Renderer. engo's RenderSystem draws on its own.
func (r *EngoRenderer) Present() {}

// RenderVehicle implements render.Renderer
func (r *EngoRenderer) RenderVehicle(state physics.VehicleState) {
	if r.vehicle == nil {
		r.vehicle = r.newSprite(SpriteCar, 10)
	}
	r.place(r.vehicle, state.Pose())
	r.vehicle.SpaceComponent.Rotation = SpriteRotation(state.Heading)
}

// SpriteRotation converts a heading into engo's clockwise degrees for a
// sprite drawn pointing up. Heading 0 faces +Z, which is down on screen.
func SpriteRotation(heading float64) float32 {
	deg := 180 - heading*180/math.Pi
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return float32(deg)
}

// RenderPoint implements render.Renderer
func (r *EngoRenderer) RenderPoint(point discovery.Point, discovered bool) {
	name := SpritePoint
	if discovered {
		name = SpriteDiscovered
	}
	s, ok := r.points[point.ID]
	if !ok {
		s = r.newSprite(name, 5)
		r.points[point.ID] = s
	}
	s.RenderComponent.Drawable = r.assets.Sprite(name)
	r.place(s, physics.Pose{Position: point.Position})
}

// RenderCamera implements render.Renderer. The 2D view follows the 3D
// camera's ground position; a marker shows where it is.
func (r *EngoRenderer) RenderCamera(state camera.State) {
	if r.marker == nil {
		r.marker = r.newSprite(SpriteCameraMarker, 8)
	}
	r.place(r.marker, physics.Pose{Position: state.Position})
	r.camera.SetTarget(state.Position)
}

// RenderStatus implements render.Renderer
func (r *EngoRenderer) RenderStatus(frame engine.Frame) {
	if r.hud != nil {
		r.hud.SetFrame(frame)
	}
}

// RemovePoint drops a point's entity
func (r *EngoRenderer) RemovePoint(id string) {
	s, ok := r.points[id]
	if !ok {
		return
	}
	if r.renderSystem != nil {
		r.renderSystem.Remove(s.BasicEntity)
	}
	delete(r.points, id)
}
