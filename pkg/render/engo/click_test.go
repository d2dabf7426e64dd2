// pkg/render/engo/click_test.go
package engo

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-drivecam/pkg/event"
)

func newClickCamera() *CameraSystem {
	cam := NewCameraSystem()
	cam.SetViewport(800, 600)
	cam.SetTarget(mgl64.Vec3{})
	return cam
}

func TestClickSystem_Click(t *testing.T) {
	p := newTestPlayground(t)
	cam := newClickCamera()
	cs := NewClickSystem(p, cam, func() (mgl64.Vec2, bool) { return mgl64.Vec2{}, false })

	marker := cam.WorldToScreen(mgl64.Vec3{15, 1, -15})
	tests := []struct {
		name   string
		screen mgl64.Vec2
		wantID string
		fresh  bool
	}{
		{"empty ground", mgl64.Vec2{400, 300}, "", false},
		{"on the marker", marker, "power", true},
		{"near the marker again", marker.Add(mgl64.Vec2{10, -10}), "power", false},
		{"just outside the radius", marker.Add(mgl64.Vec2{ClickRadius + 1, 0}), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, fresh := cs.Click(tt.screen)
			if id != tt.wantID || fresh != tt.fresh {
				t.Errorf("Click(%v) = %q, %v; want %q, %v", tt.screen, id, fresh, tt.wantID, tt.fresh)
			}
		})
	}

	if !p.Discovery.IsDiscovered("power") {
		t.Error("expected the clicked point to be discovered")
	}
}

func TestClickSystem_UpdateClicksOncePerPress(t *testing.T) {
	p := newTestPlayground(t)
	cam := newClickCamera()

	var found int
	p.EventBus.Subscribe(event.PointDiscovered, func(event.Event) { found++ })

	presses := []struct {
		pos  mgl64.Vec3
		down bool
	}{
		{mgl64.Vec3{-18, 1, 0}, true},
		{mgl64.Vec3{-18, 1, 0}, true},
		{mgl64.Vec3{18, 1, 0}, true}, // dragged while held
		{mgl64.Vec3{18, 1, 0}, false},
		{mgl64.Vec3{18, 1, 0}, true},
	}
	i := 0
	cs := NewClickSystem(p, cam, func() (mgl64.Vec2, bool) {
		pr := presses[i]
		return cam.WorldToScreen(pr.pos), pr.down
	})
	for i = range presses {
		cs.Update(1.0 / 60)
	}

	if found != 2 {
		t.Errorf("expected 2 discoveries, got %d", found)
	}
	if !p.Discovery.IsDiscovered("archery") || !p.Discovery.IsDiscovered("achievements") {
		t.Errorf("expected archery and achievements, got %v", p.Discovery.Discovered())
	}
}
