package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/opd-ai/go-drivecam/pkg/camera"
	"github.com/opd-ai/go-drivecam/pkg/event"
	"github.com/opd-ai/go-drivecam/pkg/logging"
	"github.com/opd-ai/go-drivecam/pkg/validation"
)

// DefaultScrollDamping is how long, in seconds, the showcase takes to close
// most of the gap between the raw and the shown scroll offset
const DefaultScrollDamping = 0.25

// Showcase is the scroll-driven page view. The page offset alone poses the
// camera and the display car; nobody drives.
type Showcase struct {
	EventBus *event.Bus

	mu   sync.Mutex
	rig  *camera.ScrollRig
	last camera.ScrollFrame

	logger *logging.Logger
	ctx    context.Context
}

// NewShowcase creates a showcase at the top of the page
func NewShowcase(damping float64, bus *event.Bus, logger *logging.Logger) *Showcase {
	if bus == nil {
		bus = event.NewEventBus()
	}
	if logger == nil {
		logger = logging.NewLogger()
	}
	return &Showcase{
		EventBus: bus,
		rig:      camera.NewScrollRig(damping),
		last:     camera.ScrollPose(0),
		logger:   logger.WithComponent("showcase"),
		ctx:      logging.WithCorrelationID(context.Background(), ""),
	}
}

// SetScroll sets the raw page offset, 0 at the top and 1 at the bottom.
// Offsets outside the page are clamped.
func (s *Showcase) SetScroll(offset float64) error {
	if err := validation.ValidateFinite("scroll offset", offset); err != nil {
		return err
	}
	s.mu.Lock()
	s.rig.SetScroll(offset)
	s.mu.Unlock()

	s.logger.Debug(s.ctx, "scroll offset set", "offset", offset)
	return nil
}

// Step eases the shown offset toward the raw one. The car pose is published
// as PoseUpdated whenever it moves.
func (s *Showcase) Step(delta float64) camera.ScrollFrame {
	if delta < 0 {
		delta = 0
	}
	if delta > MaxFrameDelta {
		delta = MaxFrameDelta
	}

	s.mu.Lock()
	frame := s.rig.Tick(delta)
	moved := frame.Offset != s.last.Offset
	s.last = frame
	s.mu.Unlock()

	if moved {
		s.EventBus.Publish(event.NewPoseEvent(s, frame.CarPosition, frame.CarHeading, 0))
	}
	return frame
}

// Frame returns the most recent frame
func (s *Showcase) Frame() camera.ScrollFrame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Run steps the showcase every interval until ctx is done, passing each
// frame to onFrame (which may be nil).
func (s *Showcase) Run(ctx context.Context, interval time.Duration, onFrame func(camera.ScrollFrame)) error {
	if interval <= 0 {
		return errors.New("tick interval must be positive")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			frame := s.Step(interval.Seconds())
			if onFrame != nil {
				onFrame(frame)
			}
		}
	}
}
