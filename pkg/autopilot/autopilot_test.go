package autopilot

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/go-drivecam/pkg/config"
	"github.com/opd-ai/go-drivecam/pkg/discovery"
	"github.com/opd-ai/go-drivecam/pkg/engine"
	"github.com/opd-ai/go-drivecam/pkg/input"
	"github.com/opd-ai/go-drivecam/pkg/logging"
	"github.com/opd-ai/go-drivecam/pkg/physics"
)

var _ engine.Driver = (*Autopilot)(nil)

func newTracker(t *testing.T, points ...discovery.Point) *discovery.Tracker {
	t.Helper()
	tr, err := discovery.NewTracker(points, discovery.DefaultRadius)
	require.NoError(t, err)
	return tr
}

func TestWrapAngle(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{math.Pi, math.Pi},
		{-math.Pi, math.Pi},
		{3 * math.Pi / 2, -math.Pi / 2},
		{-3 * math.Pi / 2, math.Pi / 2},
		{5 * math.Pi, math.Pi},
		{0.25, 0.25},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, WrapAngle(tt.in), 1e-9, "WrapAngle(%f)", tt.in)
	}
}

func TestDrive_SteersTowardTarget(t *testing.T) {
	moving := physics.VehicleState{LinearVelocity: 5}

	tests := []struct {
		name     string
		target   mgl64.Vec3
		want     []input.Action
		wantNone []input.Action
	}{
		{"ahead", mgl64.Vec3{0, 1, 30}, []input.Action{input.Accelerate}, []input.Action{input.TurnLeft, input.TurnRight, input.Brake}},
		{"plus x", mgl64.Vec3{30, 1, 5}, []input.Action{input.TurnLeft, input.Brake}, []input.Action{input.TurnRight}},
		{"minus x", mgl64.Vec3{-30, 1, 5}, []input.Action{input.TurnRight, input.Brake}, []input.Action{input.TurnLeft}},
		{"slightly left", mgl64.Vec3{3, 1, 30}, []input.Action{input.TurnLeft, input.Accelerate}, []input.Action{input.Brake}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ap := New(newTracker(t, discovery.Point{ID: "p", Position: tt.target}), physics.DefaultVehicleParams(), DefaultParams())
			held := ap.Drive(moving)
			for _, a := range tt.want {
				assert.True(t, held.Has(a), "expected %s in %s", a, held)
			}
			for _, a := range tt.wantNone {
				assert.False(t, held.Has(a), "unexpected %s in %s", a, held)
			}
			target, ok := ap.Target()
			require.True(t, ok)
			assert.Equal(t, "p", target.ID)
		})
	}
}

func TestDrive_AcceleratesFromRest(t *testing.T) {
	ap := New(newTracker(t, discovery.Point{ID: "behind", Position: mgl64.Vec3{0, 1, -30}}),
		physics.DefaultVehicleParams(), DefaultParams())

	held := ap.Drive(physics.VehicleState{})
	assert.True(t, held.Has(input.Accelerate))
	assert.False(t, held.Has(input.Brake))
}

func TestDrive_AnticipatesCoastingRotation(t *testing.T) {
	ap := New(newTracker(t, discovery.Point{ID: "p", Position: mgl64.Vec3{3, 1, 30}}),
		physics.DefaultVehicleParams(), DefaultParams())

	// already spinning left fast enough to overshoot the small error
	held := ap.Drive(physics.VehicleState{LinearVelocity: 8, AngularVelocity: 2})
	assert.True(t, held.Has(input.TurnRight))
}

func TestDrive_StopsWhenEverythingIsFound(t *testing.T) {
	tr := newTracker(t, discovery.Point{ID: "p", Position: mgl64.Vec3{10, 1, 10}})
	_, _, err := tr.Discover("p")
	require.NoError(t, err)
	ap := New(tr, physics.DefaultVehicleParams(), DefaultParams())

	assert.True(t, ap.Done())
	assert.Equal(t, input.NewActions(input.Brake), ap.Drive(physics.VehicleState{LinearVelocity: 6}))
	assert.Equal(t, input.Actions(0), ap.Drive(physics.VehicleState{LinearVelocity: 0.2}))
	_, ok := ap.Target()
	assert.False(t, ok)
}

func TestCoastRotation(t *testing.T) {
	vp := physics.DefaultVehicleParams()
	ap := New(newTracker(t, discovery.Point{ID: "p"}), vp, DefaultParams())

	// simulate the decay with no steering and compare
	w, turned := 1.5, 0.0
	for i := 0; i < 2000; i++ {
		w *= vp.AngularFriction
		turned += w / vp.ReferenceRate
	}
	assert.InDelta(t, turned, ap.coastRotation(1.5), 1e-9)

	vp.ReferenceRate = 0
	assert.Zero(t, New(ap.tracker, vp, DefaultParams()).coastRotation(1.5))
}

func TestAutopilot_DiscoversEveryDefaultPoint(t *testing.T) {
	p, err := engine.NewPlayground(config.DefaultConfig(), nil, logging.Discard())
	require.NoError(t, err)
	p.Mount()
	defer p.Close()

	ap := New(p.Discovery, p.Vehicle.Params(), DefaultParams())
	p.SetDriver(ap)

	const dt = 1.0 / 60
	for i := 0; i < 180*60 && !ap.Done(); i++ {
		frame := p.Step(dt)
		require.LessOrEqual(t, math.Abs(frame.Vehicle.Position.X()), p.Vehicle.Params().Bounds)
	}

	discovered, total := p.Discovery.Counts()
	assert.Equal(t, total, discovered, "discovered %v", p.Discovery.Discovered())
}
