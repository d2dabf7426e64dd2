// pkg/render/renderer.go
package render

import (
	"context"
	"fmt"

	"github.com/opd-ai/go-drivecam/pkg/camera"
	"github.com/opd-ai/go-drivecam/pkg/discovery"
	"github.com/opd-ai/go-drivecam/pkg/engine"
	"github.com/opd-ai/go-drivecam/pkg/logging"
	"github.com/opd-ai/go-drivecam/pkg/physics"
)

// Renderer draws one playground frame. Clear is called first and Present last.
type Renderer interface {
	Clear()
	RenderVehicle(state physics.VehicleState)
	RenderPoint(point discovery.Point, discovered bool)
	RenderCamera(state camera.State)
	RenderStatus(frame engine.Frame)
	Present()
}

// DrawFrame renders the playground's latest frame with r
func DrawFrame(r Renderer, p *engine.Playground) {
	frame := p.Frame()

	r.Clear()
	for _, point := range p.Discovery.Points() {
		r.RenderPoint(point, p.Discovery.IsDiscovered(point.ID))
	}
	r.RenderVehicle(frame.Vehicle)
	r.RenderCamera(frame.Camera)
	r.RenderStatus(frame)
	r.Present()
}

// StatusWriter is implemented by renderers that can show a free-form status line
type StatusWriter interface {
	SetStatus(line string)
}

// DrawShowcase renders one scroll showcase frame with r
func DrawShowcase(r Renderer, f camera.ScrollFrame) {
	r.Clear()
	r.RenderVehicle(f.Vehicle())
	r.RenderCamera(f.Camera())
	if sw, ok := r.(StatusWriter); ok {
		sw.SetStatus(fmt.Sprintf("scroll %.2f  camera z %.1f  car y %.1f",
			f.Offset, f.CameraPosition.Z(), f.CarPosition.Y()))
	}
	r.Present()
}

// NullRenderer logs what it is asked to draw at debug level.
type NullRenderer struct {
	logger *logging.Logger
}

// NewNullRenderer creates a new NullRenderer with structured logging.
func NewNullRenderer(logger *logging.Logger) *NullRenderer {
	if logger == nil {
		logger = logging.NewLogger()
	}
	return &NullRenderer{
		logger: logger.WithComponent("render"),
	}
}

// SetStatus implements StatusWriter
func (d *NullRenderer) SetStatus(line string) {
	d.logger.Debug(context.Background(), "SetStatus called", "status", line)
}

// Clear implements Renderer.
func (d *NullRenderer) Clear() {
	ctx := context.Background()
	d.logger.Debug(ctx, "Clear called")
}

// Present implements Renderer.
func (d *NullRenderer) Present() {
	ctx := context.Background()
	d.logger.Debug(ctx, "Present called")
}

// RenderVehicle implements Renderer.
func (d *NullRenderer) RenderVehicle(state physics.VehicleState) {
	ctx := context.Background()
	d.logger.Debug(ctx, "RenderVehicle called",
		"x", state.Position.X(),
		"z", state.Position.Z(),
		"heading", state.Heading,
		"speed", state.LinearVelocity,
	)
}

// RenderPoint implements Renderer.
func (d *NullRenderer) RenderPoint(point discovery.Point, discovered bool) {
	ctx := context.Background()
	d.logger.Debug(ctx, "RenderPoint called",
		"point_id", point.ID,
		"discovered", discovered,
	)
}

// RenderCamera implements Renderer.
func (d *NullRenderer) RenderCamera(state camera.State) {
	ctx := context.Background()
	d.logger.Debug(ctx, "RenderCamera called",
		"mode", state.Mode.String(),
		"x", state.Position.X(),
		"y", state.Position.Y(),
		"z", state.Position.Z(),
	)
}

// RenderStatus implements Renderer.
func (d *NullRenderer) RenderStatus(frame engine.Frame) {
	ctx := context.Background()
	d.logger.Debug(ctx, "RenderStatus called",
		"tick", frame.Tick,
		"discovered", frame.Discovered,
		"total", frame.Total,
	)
}
