// pkg/render/engo/camera.go
package engo

import (
	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-drivecam/pkg/physics"
)

// PixelsPerUnit maps one world unit onto the screen at zoom 1
const PixelsPerUnit = 16

// CameraSystem pans the 2D view over the ground plane toward a target,
// usually the playground camera projected onto the ground.
type CameraSystem struct {
	// Target to follow, in world (x, z)
	target    mgl64.Vec2
	targetSet bool

	// Camera properties
	zoom    float64
	minZoom float64
	maxZoom float64

	// Smooth following
	followRate float64 // fraction closed per reference frame
	smoothing  bool

	// Current camera state
	current mgl64.Vec2

	viewWidth, viewHeight float64
	readInput             bool

	// zoomHandler may take zoom input instead of the map zoom
	zoomHandler func(scale float64) bool
}

// NewCameraSystem creates a new camera system
func NewCameraSystem() *CameraSystem {
	return &CameraSystem{
		zoom:       1.0,
		minZoom:    0.25,
		maxZoom:    4.0,
		followRate: 0.1,
		smoothing:  true,
	}
}

// Remove satisfies the ecs.System interface
func (cs *CameraSystem) Remove(basic ecs.BasicEntity) {}

// Update updates the camera position and zoom
func (cs *CameraSystem) Update(dt float32) {
	if cs.readInput && engo.Input != nil {
		cs.handleZoomInput()
	}

	if cs.targetSet {
		cs.updateCameraPosition(float64(dt))
	}

	cs.applyCameraTransform()
}

// EnableInput reads zoom keys and the mouse wheel each update
func (cs *CameraSystem) EnableInput(enabled bool) {
	cs.readInput = enabled
}

// handleZoomInput processes zoom-related input
func (cs *CameraSystem) handleZoomInput() {
	if scrollY := engo.Input.Mouse.ScrollY; scrollY != 0 {
		cs.applyZoom(1.0 + float64(scrollY)*0.1)
	}
	if engo.Input.Button("zoomIn").Down() {
		cs.applyZoom(1.02)
	}
	if engo.Input.Button("zoomOut").Down() {
		cs.applyZoom(0.98)
	}
}

// SetZoomHandler routes zoom input to h first. When h returns true the map
// zoom is left alone; nil restores plain map zoom.
func (cs *CameraSystem) SetZoomHandler(h func(scale float64) bool) {
	cs.zoomHandler = h
}

// applyZoom scales the view; above 1 zooms in
func (cs *CameraSystem) applyZoom(scale float64) {
	if scale <= 0 {
		return
	}
	if cs.zoomHandler != nil && cs.zoomHandler(scale) {
		return
	}
	cs.SetZoom(cs.zoom * scale)
}

// updateCameraPosition eases the view toward the target, frame-rate independent
func (cs *CameraSystem) updateCameraPosition(dt float64) {
	if !cs.smoothing {
		cs.current = cs.target
		return
	}
	t := physics.SmoothingFactor(cs.followRate, dt, 60)
	cs.current = cs.current.Add(cs.target.Sub(cs.current).Mul(t))
}

// applyCameraTransform centers the engo camera on the current position
func (cs *CameraSystem) applyCameraTransform() {
	if engo.Mailbox == nil {
		return
	}
	center := cs.WorldToPixels(mgl64.Vec3{cs.current.X(), 0, cs.current.Y()})
	engo.Mailbox.Dispatch(common.CameraMessage{Axis: common.XAxis, Value: center.X})
	engo.Mailbox.Dispatch(common.CameraMessage{Axis: common.YAxis, Value: center.Y})
	engo.Mailbox.Dispatch(common.CameraMessage{Axis: common.ZAxis, Value: float32(1 / cs.zoom)})
}

// SetTarget sets the ground position for the view to follow
func (cs *CameraSystem) SetTarget(pos mgl64.Vec3) {
	cs.target = mgl64.Vec2{pos.X(), pos.Z()}

	// the first target snaps
	if !cs.targetSet || !cs.smoothing {
		cs.current = cs.target
	}
	cs.targetSet = true
}

// ClearTarget stops following
func (cs *CameraSystem) ClearTarget() {
	cs.targetSet = false
}

// SetZoom sets the camera zoom level
func (cs *CameraSystem) SetZoom(zoom float64) {
	cs.zoom = cs.clampZoom(zoom)
}

// Zoom returns the current zoom level
func (cs *CameraSystem) Zoom() float64 {
	return cs.zoom
}

func (cs *CameraSystem) clampZoom(zoom float64) float64 {
	if zoom < cs.minZoom {
		return cs.minZoom
	}
	if zoom > cs.maxZoom {
		return cs.maxZoom
	}
	return zoom
}

// SetZoomLimits sets the minimum and maximum zoom levels
func (cs *CameraSystem) SetZoomLimits(min, max float64) {
	cs.minZoom = min
	cs.maxZoom = max
	cs.zoom = cs.clampZoom(cs.zoom)
}

// EnableSmoothing enables or disables camera smoothing
func (cs *CameraSystem) EnableSmoothing(enabled bool) {
	cs.smoothing = enabled
}

// SetViewport sets the screen size used by WorldToScreen
func (cs *CameraSystem) SetViewport(width, height float64) {
	cs.viewWidth = width
	cs.viewHeight = height
}

// CurrentPosition returns the ground position at the middle of the view
func (cs *CameraSystem) CurrentPosition() mgl64.Vec2 {
	return cs.current
}

// WorldToPixels maps a world position onto the engo world plane
func (cs *CameraSystem) WorldToPixels(pos mgl64.Vec3) engo.Point {
	return engo.Point{
		X: float32(pos.X() * PixelsPerUnit),
		Y: float32(pos.Z() * PixelsPerUnit),
	}
}

// WorldToScreen converts a world position to screen pixels
func (cs *CameraSystem) WorldToScreen(pos mgl64.Vec3) mgl64.Vec2 {
	rel := mgl64.Vec2{pos.X(), pos.Z()}.Sub(cs.current).Mul(PixelsPerUnit * cs.zoom)
	return rel.Add(mgl64.Vec2{cs.viewWidth / 2, cs.viewHeight / 2})
}

// ScreenToWorld converts screen pixels to a ground position (y = 0)
func (cs *CameraSystem) ScreenToWorld(screen mgl64.Vec2) mgl64.Vec3 {
	rel := screen.Sub(mgl64.Vec2{cs.viewWidth / 2, cs.viewHeight / 2}).Mul(1 / (PixelsPerUnit * cs.zoom))
	w := rel.Add(cs.current)
	return mgl64.Vec3{w.X(), 0, w.Y()}
}

// SetupCameraControls registers the zoom buttons
func SetupCameraControls() {
	engo.Input.RegisterButton("zoomIn", engo.KeyEquals, engo.KeyNumAdd)
	engo.Input.RegisterButton("zoomOut", engo.KeyDash, engo.KeyNumSubtract)
}
