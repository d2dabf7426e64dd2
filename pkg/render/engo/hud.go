// pkg/render/engo/hud.go
package engo

import (
	"fmt"
	"image/color"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"

	"github.com/opd-ai/go-drivecam/pkg/engine"
	"github.com/opd-ai/go-drivecam/pkg/event"
)

// Toast is a short-lived HUD message
type Toast struct {
	Text      string
	Remaining float64 // seconds
}

// HUDSystem draws the status line, discovery progress and toasts
type HUDSystem struct {
	render *common.RenderSystem
	font   *common.Font

	frame    engine.Frame
	toasts   []Toast
	maxLines int
	ttl      float64

	texts []*hudText

	hudColor   color.Color
	toastColor color.Color
}

type hudText struct {
	ecs.BasicEntity
	common.RenderComponent
	common.SpaceComponent
}

// NewHUDSystem creates a HUD. rs and font may be nil, in which case nothing is drawn.
func NewHUDSystem(rs *common.RenderSystem, font *common.Font) *HUDSystem {
	return &HUDSystem{
		render:     rs,
		font:       font,
		maxLines:   5,
		ttl:        3,
		hudColor:   color.RGBA{255, 255, 255, 255},
		toastColor: color.RGBA{255, 220, 120, 255},
	}
}

// Remove satisfies the ecs.System interface
func (hud *HUDSystem) Remove(basic ecs.BasicEntity) {}

// Update ages toasts and redraws the text
func (hud *HUDSystem) Update(dt float32) {
	hud.expire(float64(dt))
	if hud.render == nil || hud.font == nil {
		return
	}
	hud.draw(hud.Lines())
}

func (hud *HUDSystem) expire(dt float64) {
	kept := hud.toasts[:0]
	for _, t := range hud.toasts {
		t.Remaining -= dt
		if t.Remaining > 0 {
			kept = append(kept, t)
		}
	}
	hud.toasts = kept
}

// Subscribe shows toasts for discoveries and camera changes
func (hud *HUDSystem) Subscribe(bus *event.Bus) []*event.Subscription {
	return []*event.Subscription{
		bus.Subscribe(event.PointDiscovered, func(e event.Event) {
			if de, ok := e.(*event.DiscoveryEvent); ok {
				hud.AddToast(fmt.Sprintf("Discovered %s (%d/%d)", de.Title, de.Discovered, de.Total))
			}
		}),
		bus.Subscribe(event.CameraModeChanged, func(e event.Event) {
			if ce, ok := e.(*event.CameraEvent); ok {
				hud.AddToast("Camera: " + ce.Mode)
			}
		}),
	}
}

// SetFrame records the frame the status line describes
func (hud *HUDSystem) SetFrame(frame engine.Frame) {
	hud.frame = frame
}

// AddToast shows a message for a few seconds
func (hud *HUDSystem) AddToast(text string) {
	hud.toasts = append(hud.toasts, Toast{Text: text, Remaining: hud.ttl})
	if len(hud.toasts) > hud.maxLines {
		hud.toasts = hud.toasts[len(hud.toasts)-hud.maxLines:]
	}
}

// Toasts returns the visible toasts, oldest first
func (hud *HUDSystem) Toasts() []Toast {
	return append([]Toast(nil), hud.toasts...)
}

// Lines returns the HUD text, status first
func (hud *HUDSystem) Lines() []string {
	f := hud.frame
	status := fmt.Sprintf("Speed %.1f   Camera %s   Discovered %d/%d",
		f.Vehicle.LinearVelocity, f.Camera.Mode, f.Discovered, f.Total)
	if f.Resetting {
		status += "   resetting"
	}
	lines := []string{status}
	for _, t := range hud.toasts {
		lines = append(lines, t.Text)
	}
	return lines
}

// draw reuses one text entity per line
func (hud *HUDSystem) draw(lines []string) {
	for len(hud.texts) < len(lines) {
		t := &hudText{BasicEntity: ecs.NewBasic()}
		t.RenderComponent.SetZIndex(100)
		t.RenderComponent.SetShader(common.HUDShader)
		t.SpaceComponent.Position = engo.Point{X: 10, Y: float32(10 + 20*len(hud.texts))}
		hud.texts = append(hud.texts, t)
		hud.render.Add(&t.BasicEntity, &t.RenderComponent, &t.SpaceComponent)
	}

	for i, t := range hud.texts {
		if i >= len(lines) {
			t.RenderComponent.Hidden = true
			continue
		}
		t.RenderComponent.Hidden = false
		t.RenderComponent.Drawable = common.Text{Font: hud.font, Text: lines[i]}
		t.RenderComponent.Color = hud.hudColor
		if i > 0 {
			t.RenderComponent.Color = hud.toastColor
		}
	}
}
