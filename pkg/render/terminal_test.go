package render

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-drivecam/pkg/camera"
	"github.com/opd-ai/go-drivecam/pkg/discovery"
	"github.com/opd-ai/go-drivecam/pkg/engine"
	"github.com/opd-ai/go-drivecam/pkg/physics"
)

func TestNewTerminalRenderer_CreatesValidRenderer_WithCorrectDimensions(t *testing.T) {
	tests := []struct {
		name   string
		width  int
		height int
		scale  float64
	}{
		{name: "small renderer", width: 10, height: 5, scale: 1.0},
		{name: "medium renderer", width: 80, height: 24, scale: 0.5},
		{name: "large renderer", width: 120, height: 40, scale: 2.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			renderer := NewTerminalRenderer(&bytes.Buffer{}, tt.width, tt.height, tt.scale)

			if renderer.width != tt.width || renderer.height != tt.height {
				t.Errorf("expected %dx%d, got %dx%d", tt.width, tt.height, renderer.width, renderer.height)
			}
			if renderer.scale != tt.scale {
				t.Errorf("expected scale %f, got %f", tt.scale, renderer.scale)
			}
			if len(renderer.buffer) != tt.height {
				t.Fatalf("expected buffer height %d, got %d", tt.height, len(renderer.buffer))
			}
			for i, row := range renderer.buffer {
				if len(row) != tt.width {
					t.Errorf("row %d: expected width %d, got %d", i, tt.width, len(row))
				}
				for _, c := range row {
					if c != ' ' {
						t.Fatalf("row %d: expected blank buffer, got %q", i, c)
					}
				}
			}
		})
	}
}

func TestNewTerminalRenderer_ClampsInvalidDimensions(t *testing.T) {
	renderer := NewTerminalRenderer(&bytes.Buffer{}, 0, -3, 0)
	if renderer.width != 1 || renderer.height != 1 || renderer.scale != 1 {
		t.Errorf("expected 1x1 at scale 1, got %dx%d at %f", renderer.width, renderer.height, renderer.scale)
	}
}

func TestWorldToScreen(t *testing.T) {
	renderer := NewTerminalRenderer(&bytes.Buffer{}, 20, 10, 1)

	tests := []struct {
		name         string
		center       mgl64.Vec2
		pos          mgl64.Vec3
		wantX, wantY int
	}{
		{"origin", mgl64.Vec2{}, mgl64.Vec3{0, 0, 0}, 10, 5},
		{"x right z down", mgl64.Vec2{}, mgl64.Vec3{-3, 7, 2}, 7, 7},
		{"height ignored", mgl64.Vec2{}, mgl64.Vec3{0, 100, 0}, 10, 5},
		{"recentered", mgl64.Vec2{5, -5}, mgl64.Vec3{5, 0, -5}, 10, 5},
		{"negative fraction floors", mgl64.Vec2{}, mgl64.Vec3{-10.5, 0, 0}, -1, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			renderer.SetCenter(tt.center.X(), tt.center.Y())
			x, y := renderer.worldToScreen(tt.pos)
			if x != tt.wantX || y != tt.wantY {
				t.Errorf("expected (%d,%d), got (%d,%d)", tt.wantX, tt.wantY, x, y)
			}
		})
	}
}

func TestRenderVehicle_GlyphFollowsHeading(t *testing.T) {
	tests := []struct {
		heading float64
		want    rune
	}{
		{0, 'v'},
		{math.Pi / 2, '>'},
		{math.Pi, '^'},
		{-math.Pi / 2, '<'},
		{math.Pi / 8, 'v'},
	}

	for _, tt := range tests {
		renderer := NewTerminalRenderer(&bytes.Buffer{}, 9, 9, 1)
		renderer.RenderVehicle(physics.VehicleState{Heading: tt.heading})
		if got := renderer.Cell(4, 4); got != tt.want {
			t.Errorf("heading %.3f: expected %q, got %q", tt.heading, tt.want, got)
		}
	}
}

func TestRenderVehicle_FollowRecenters(t *testing.T) {
	renderer := NewTerminalRenderer(&bytes.Buffer{}, 9, 9, 1)
	renderer.FollowVehicle(true)
	renderer.RenderVehicle(physics.VehicleState{Position: mgl64.Vec3{100, 0, -40}})

	if got := renderer.Cell(4, 4); got != 'v' {
		t.Errorf("expected the car in the middle of the map, got %q", got)
	}
}

func TestRenderPoint_AndCamera(t *testing.T) {
	renderer := NewTerminalRenderer(&bytes.Buffer{}, 10, 10, 1)

	renderer.RenderPoint(discovery.Point{ID: "a", Position: mgl64.Vec3{-2, 1, 0}}, false)
	renderer.RenderPoint(discovery.Point{ID: "b", Position: mgl64.Vec3{2, 1, 0}}, true)
	renderer.RenderPoint(discovery.Point{ID: "far", Position: mgl64.Vec3{500, 1, 0}}, false)
	renderer.RenderVehicle(physics.VehicleState{})
	renderer.RenderCamera(camera.State{Position: mgl64.Vec3{0, 5, 0}})
	renderer.RenderCamera(camera.State{Position: mgl64.Vec3{0, 5, 3}})

	if got := renderer.Cell(3, 5); got != GlyphUndiscovered {
		t.Errorf("expected undiscovered glyph, got %q", got)
	}
	if got := renderer.Cell(7, 5); got != GlyphDiscovered {
		t.Errorf("expected discovered glyph, got %q", got)
	}
	if got := renderer.Cell(5, 5); got != 'v' {
		t.Errorf("camera must not overwrite the car, got %q", got)
	}
	if got := renderer.Cell(5, 8); got != GlyphCamera {
		t.Errorf("expected camera glyph, got %q", got)
	}
	if got := renderer.Cell(50, 5); got != 0 {
		t.Errorf("expected 0 outside the map, got %q", got)
	}
}

func TestClear_BlanksBufferAndStatus(t *testing.T) {
	renderer := NewTerminalRenderer(&bytes.Buffer{}, 5, 5, 1)
	renderer.RenderVehicle(physics.VehicleState{})
	renderer.RenderStatus(engine.Frame{Tick: 1})
	renderer.Clear()

	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			if renderer.Cell(x, y) != ' ' {
				t.Fatalf("cell (%d,%d) not cleared", x, y)
			}
		}
	}
	if renderer.status != "" {
		t.Errorf("expected empty status, got %q", renderer.status)
	}
}

func TestPresent_WritesBorderedMapAndStatus(t *testing.T) {
	var out bytes.Buffer
	renderer := NewTerminalRenderer(&out, 4, 2, 1)
	renderer.RenderStatus(engine.Frame{
		Tick:            12,
		Discovered:      1,
		Total:           7,
		Resetting:       true,
		NewlyDiscovered: []discovery.Point{{ID: "music", Title: "Music & Performance"}},
	})
	renderer.Present()

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d: %q", len(lines), out.String())
	}
	if lines[0] != "+----+" || lines[3] != "+----+" {
		t.Errorf("unexpected border %q / %q", lines[0], lines[3])
	}
	if lines[1] != "|    |" {
		t.Errorf("unexpected row %q", lines[1])
	}
	for _, want := range []string{"tick 12", "discovered 1/7", "camera third-person", "(resetting)", "last: Music & Performance"} {
		if !strings.Contains(lines[4], want) {
			t.Errorf("status %q missing %q", lines[4], want)
		}
	}
	if strings.Contains(out.String(), "\033[") {
		t.Error("expected no escape codes without ANSI")
	}
}

func TestPresent_ANSIClearsScreen(t *testing.T) {
	var out bytes.Buffer
	renderer := NewTerminalRenderer(&out, 2, 1, 1)
	renderer.UseANSI(true)
	renderer.Present()

	if !strings.HasPrefix(out.String(), "\033[H\033[2J") {
		t.Errorf("expected clear-screen prefix, got %q", out.String())
	}
}
