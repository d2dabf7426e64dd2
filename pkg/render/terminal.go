package render

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-drivecam/pkg/camera"
	"github.com/opd-ai/go-drivecam/pkg/discovery"
	"github.com/opd-ai/go-drivecam/pkg/engine"
	"github.com/opd-ai/go-drivecam/pkg/physics"
)

// Map glyphs
const (
	GlyphUndiscovered = '?'
	GlyphDiscovered   = '*'
	GlyphCamera       = 'C'
)

// TerminalRenderer draws a top-down ASCII map of the ground plane: world X
// runs left to right and world Z top to bottom.
type TerminalRenderer struct {
	out       io.Writer
	width     int
	height    int
	buffer    [][]rune
	scale     float64 // world units per cell
	center    mgl64.Vec2
	follow    bool
	ansi      bool
	status    string
	lastTitle string
}

// NewTerminalRenderer creates a new terminal renderer with the specified dimensions
func NewTerminalRenderer(out io.Writer, width, height int, scale float64) *TerminalRenderer {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	if scale <= 0 {
		scale = 1
	}
	buffer := make([][]rune, height)
	for i := range buffer {
		buffer[i] = make([]rune, width)
	}

	r := &TerminalRenderer{
		out:    out,
		width:  width,
		height: height,
		buffer: buffer,
		scale:  scale,
	}
	r.Clear()
	return r
}

// SetCenter sets the world position (x, z) at the middle of the map
func (r *TerminalRenderer) SetCenter(x, z float64) {
	r.center = mgl64.Vec2{x, z}
}

// FollowVehicle keeps the map centered on the car
func (r *TerminalRenderer) FollowVehicle(enabled bool) {
	r.follow = enabled
}

// UseANSI clears the terminal before each frame
func (r *TerminalRenderer) UseANSI(enabled bool) {
	r.ansi = enabled
}

// worldToScreen converts a world position to a cell
func (r *TerminalRenderer) worldToScreen(pos mgl64.Vec3) (int, int) {
	screenX := int(math.Floor((pos.X()-r.center.X())/r.scale + float64(r.width)/2))
	screenY := int(math.Floor((pos.Z()-r.center.Y())/r.scale + float64(r.height)/2))
	return screenX, screenY
}

func (r *TerminalRenderer) plot(pos mgl64.Vec3, glyph rune) {
	x, y := r.worldToScreen(pos)
	if x >= 0 && x < r.width && y >= 0 && y < r.height {
		r.buffer[y][x] = glyph
	}
}

// Clear implements Renderer
func (r *TerminalRenderer) Clear() {
	for y := range r.buffer {
		for x := range r.buffer[y] {
			r.buffer[y][x] = ' '
		}
	}
	r.status = ""
}

// RenderVehicle implements Renderer. The glyph points where the car faces.
func (r *TerminalRenderer) RenderVehicle(state physics.VehicleState) {
	if r.follow {
		r.SetCenter(state.Position.X(), state.Position.Z())
	}
	r.plot(state.Position, headingGlyph(state.Heading))
}

func headingGlyph(heading float64) rune {
	f := physics.ForwardFromHeading(heading)
	if math.Abs(f.X()) > math.Abs(f.Z()) {
		if f.X() > 0 {
			return '>'
		}
		return '<'
	}
	if f.Z() > 0 {
		return 'v'
	}
	return '^'
}

// RenderPoint implements Renderer
func (r *TerminalRenderer) RenderPoint(point discovery.Point, discovered bool) {
	glyph := rune(GlyphUndiscovered)
	if discovered {
		glyph = GlyphDiscovered
	}
	r.plot(point.Position, glyph)
}

// RenderCamera implements Renderer. The car is drawn over the camera when they share a cell.
func (r *TerminalRenderer) RenderCamera(state camera.State) {
	x, y := r.worldToScreen(state.Position)
	if x >= 0 && x < r.width && y >= 0 && y < r.height && r.buffer[y][x] == ' ' {
		r.buffer[y][x] = GlyphCamera
	}
}

// RenderStatus implements Renderer
func (r *TerminalRenderer) RenderStatus(frame engine.Frame) {
	for _, p := range frame.NewlyDiscovered {
		r.lastTitle = p.Title
	}
	r.status = fmt.Sprintf("tick %d  speed %.1f  camera %s  discovered %d/%d",
		frame.Tick, frame.Vehicle.LinearVelocity, frame.Camera.Mode, frame.Discovered, frame.Total)
	if frame.Resetting {
		r.status += "  (resetting)"
	}
	if r.lastTitle != "" {
		r.status += "  last: " + r.lastTitle
	}
}

// SetStatus replaces the status line until the next Clear
func (r *TerminalRenderer) SetStatus(line string) {
	r.status = line
}

// Present implements Renderer
func (r *TerminalRenderer) Present() {
	var b strings.Builder
	if r.ansi {
		b.WriteString("\033[H\033[2J")
	}

	border := "+" + strings.Repeat("-", r.width) + "+\n"
	b.WriteString(border)
	for y := range r.buffer {
		b.WriteByte('|')
		b.WriteString(string(r.buffer[y]))
		b.WriteString("|\n")
	}
	b.WriteString(border)
	if r.status != "" {
		b.WriteString(r.status)
		b.WriteByte('\n')
	}

	io.WriteString(r.out, b.String())
}

// Cell returns the glyph at a cell, or 0 outside the map
func (r *TerminalRenderer) Cell(x, y int) rune {
	if x < 0 || x >= r.width || y < 0 || y >= r.height {
		return 0
	}
	return r.buffer[y][x]
}
