package engine

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/go-drivecam/pkg/camera"
	"github.com/opd-ai/go-drivecam/pkg/event"
	"github.com/opd-ai/go-drivecam/pkg/logging"
)

func TestShowcase_ScrollMovesCameraAndCar(t *testing.T) {
	s := NewShowcase(DefaultScrollDamping, event.NewEventBus(), logging.Discard())
	rec := listen(s.EventBus, event.PoseUpdated)

	top := s.Step(frameDelta)
	assert.Equal(t, camera.ScrollPose(0), top)
	assert.Empty(t, rec.ofType(event.PoseUpdated), "nothing moves without scrolling")

	require.NoError(t, s.SetScroll(1))
	first := s.Step(frameDelta)
	assert.Greater(t, first.Offset, 0.0)
	assert.Less(t, first.Offset, 1.0, "the shown offset is damped")

	var last camera.ScrollFrame
	for i := 0; i < 300; i++ {
		last = s.Step(frameDelta)
	}
	assert.InDelta(t, 1, last.Offset, 1e-4)
	assert.InDelta(t, -30, last.CameraPosition.Z(), 1e-2)
	assert.InDelta(t, math.Pi, last.CarHeading, 1e-3)
	assert.Equal(t, last, s.Frame())

	poses := rec.ofType(event.PoseUpdated)
	require.NotEmpty(t, poses)
	pe := poses[len(poses)-1].(*event.PoseEvent)
	assert.Equal(t, last.CarPosition, pe.Position)
}

func TestShowcase_RejectsNonFiniteScroll(t *testing.T) {
	s := NewShowcase(DefaultScrollDamping, nil, logging.Discard())
	assert.Error(t, s.SetScroll(math.NaN()))
	assert.Error(t, s.SetScroll(math.Inf(1)))

	require.NoError(t, s.SetScroll(5))
	for i := 0; i < 300; i++ {
		s.Step(MaxFrameDelta * 10)
	}
	assert.InDelta(t, 1, s.Frame().Offset, 1e-9, "offsets past the page are clamped")
}

func TestShowcase_Run(t *testing.T) {
	s := NewShowcase(0, nil, logging.Discard())
	require.NoError(t, s.SetScroll(0.5))

	ctx, cancel := context.WithCancel(context.Background())
	frames := make(chan camera.ScrollFrame, 1)
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, time.Millisecond, func(f camera.ScrollFrame) {
			select {
			case frames <- f:
			default:
			}
		})
	}()

	select {
	case f := <-frames:
		assert.InDelta(t, 0.5, f.Offset, 1e-9, "zero damping snaps")
	case <-time.After(2 * time.Second):
		t.Fatal("no frame delivered")
	}
	cancel()
	assert.NoError(t, <-done)

	assert.Error(t, s.Run(context.Background(), 0, nil))
}
