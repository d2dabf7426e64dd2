// pkg/engine/playground.go
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/opd-ai/go-drivecam/pkg/camera"
	"github.com/opd-ai/go-drivecam/pkg/config"
	"github.com/opd-ai/go-drivecam/pkg/discovery"
	"github.com/opd-ai/go-drivecam/pkg/event"
	"github.com/opd-ai/go-drivecam/pkg/input"
	"github.com/opd-ai/go-drivecam/pkg/logging"
	"github.com/opd-ai/go-drivecam/pkg/physics"
	"github.com/opd-ai/go-drivecam/pkg/validation"
)

// MaxFrameDelta caps the wall-clock delta fed to a frame
const MaxFrameDelta = 0.1

// Command keys handled by the playground when they are not bound to a driving action
const (
	ToggleCameraKey = "c"
	ResetCameraKey  = "r"
	OrbitLeftKey    = "q"
	OrbitRightKey   = "e"
	FocusKey        = "f"
	ZoomInKey       = "+"
	ZoomOutKey      = "-"

	// PanModifierKey turns driving keys into pan keys while the camera orbits freely
	PanModifierKey = "shift"
)

// CommandKeys returns every key the playground handles besides the driving bindings
func CommandKeys() []string {
	return []string{
		ToggleCameraKey, ResetCameraKey,
		OrbitLeftKey, OrbitRightKey, FocusKey,
		ZoomInKey, ZoomOutKey, PanModifierKey,
	}
}

// camera commands allowed per commandWindow
const (
	commandBurst  = 5
	commandWindow = time.Second
)

// Driver supplies held actions on top of the keyboard, e.g. an autopilot
type Driver interface {
	Drive(state physics.VehicleState) input.Actions
}

// Frame is a snapshot of the playground after one tick
type Frame struct {
	Tick            uint64
	Delta           float64
	Held            input.Actions
	Vehicle         physics.VehicleState
	Camera          camera.State
	Resetting       bool
	NewlyDiscovered []discovery.Point
	Discovered      int
	Total           int
}

// Playground is one mounted driving session. It owns the vehicle, the held
// keys, the camera and the discovery tracker; every tick runs them in that order.
type Playground struct {
	Config    *config.Config
	EventBus  *event.Bus
	Vehicle   *physics.Simulator
	Input     *input.State
	Camera    *camera.FollowCamera
	Discovery *discovery.Tracker
	SessionID string

	CurrentTick uint64
	LastUpdate  time.Time

	mu        sync.Mutex
	driver    Driver
	subs      []*event.Subscription
	mounted   bool
	resetting bool
	panning   bool
	last      Frame

	logger  *logging.Logger
	ctx     context.Context
	limiter *validation.RateLimiter
}

// NewPlayground builds a session from cfg. The camera starts behind the car.
func NewPlayground(cfg *config.Config, bus *event.Bus, logger *logging.Logger) (*Playground, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if bus == nil {
		bus = event.NewEventBus()
	}
	if logger == nil {
		logger = logging.NewLogger()
	}

	km, unknown := cfg.KeyMap()
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown actions in key bindings: %v", unknown)
	}

	tracker, err := discovery.NewTracker(cfg.Points(), cfg.Discovery.Radius)
	if err != nil {
		return nil, logging.WrapError(err, "failed to create discovery tracker")
	}

	vehicle := physics.NewSimulator(cfg.VehicleParams(), cfg.Vehicle.Start.Vec(), cfg.Vehicle.StartHeading)

	follow := cfg.FollowParams()
	cam := camera.NewFollowCamera(follow, cfg.ResetParams(), camera.NewOrbit(cfg.OrbitParams()),
		initialCameraPosition(vehicle.State(), follow), vehicle.State().Position)

	sessionID := uuid.NewString()
	p := &Playground{
		Config:     cfg,
		EventBus:   bus,
		Vehicle:    vehicle,
		Input:      input.NewState(km),
		Camera:     cam,
		Discovery:  tracker,
		SessionID:  sessionID,
		LastUpdate: time.Now(),
		logger:     logger.WithComponent("playground"),
		ctx:        logging.WithCorrelationID(context.Background(), sessionID),
		limiter:    validation.NewRateLimiter(commandBurst, commandWindow),
	}
	cam.SetMode(cfg.CameraMode())
	_, total := tracker.Counts()
	p.last = Frame{Vehicle: vehicle.State(), Camera: cam.State(), Total: total}

	return p, nil
}

func initialCameraPosition(state physics.VehicleState, follow camera.FollowParams) mgl64.Vec3 {
	return state.Position.Add(physics.RotateByHeading(follow.Offset, state.Heading))
}

// SetDriver installs or clears (nil) an extra source of held actions
func (p *Playground) SetDriver(d Driver) {
	p.mu.Lock()
	p.driver = d
	p.mu.Unlock()
}

// Mounted reports whether the session is live
func (p *Playground) Mounted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mounted
}

// Mount subscribes the key handlers and binds the camera to the car.
// Mounting twice is a no-op.
func (p *Playground) Mount() {
	p.mu.Lock()
	if p.mounted {
		p.mu.Unlock()
		return
	}
	p.subs = []*event.Subscription{
		p.EventBus.Subscribe(event.KeyPressed, p.handleKeyPressed),
		p.EventBus.Subscribe(event.KeyReleased, p.handleKeyReleased),
		p.EventBus.Subscribe(event.InputReleased, p.handleInputReleased),
	}
	p.Camera.Bind(p.Vehicle)
	p.mounted = true
	p.LastUpdate = time.Now()
	p.mu.Unlock()

	p.logger.Info(p.ctx, "playground mounted", "points", len(p.Discovery.Points()))
	p.EventBus.Publish(&event.BaseEvent{EventType: event.SceneMounted, Source: p})
}

// Unmount detaches every key handler, releases held keys and detaches the
// camera. It is safe to call on any path, any number of times.
func (p *Playground) Unmount() {
	p.mu.Lock()
	if !p.mounted {
		p.mu.Unlock()
		return
	}
	for _, sub := range p.subs {
		sub.Cancel()
	}
	p.subs = nil
	p.Camera.Detach()
	p.Input.Release()
	p.panning = false
	p.mounted = false
	ticks := p.CurrentTick
	p.mu.Unlock()

	p.logger.Info(p.ctx, "playground unmounted", "ticks", ticks)
	p.EventBus.Publish(&event.BaseEvent{EventType: event.SceneUnmounted, Source: p})
}

// Close unmounts and stops background helpers
func (p *Playground) Close() {
	p.Unmount()
	p.limiter.Close()
}

func (p *Playground) handleKeyPressed(e event.Event) {
	ke, ok := e.(*event.KeyEvent)
	if !ok {
		return
	}
	key := input.NormalizeKey(ke.Key)
	action, bound := p.Input.Action(key)

	p.mu.Lock()
	// a press already in flight when Unmount ran must not stay held
	if !p.mounted {
		p.mu.Unlock()
		return
	}
	switch {
	case !bound && key == PanModifierKey:
		p.panning = true
		p.mu.Unlock()
		return
	case bound && p.panning && p.Camera.Mode() == camera.FreeOrbit:
		p.panLocked(action)
		p.mu.Unlock()
		return
	case bound:
		p.Input.KeyDown(key)
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	p.handleCommand(key)
}

func (p *Playground) handleCommand(key string) {
	switch key {
	case ToggleCameraKey, ResetCameraKey:
		if !p.limiter.Allow("camera-command") {
			p.logger.Debug(p.ctx, "camera command throttled", "key", key)
			return
		}
		if key == ToggleCameraKey {
			p.ToggleCameraMode()
		} else {
			p.ResetCamera()
		}
	case OrbitLeftKey:
		p.OrbitRotate(-OrbitStep, 0)
	case OrbitRightKey:
		p.OrbitRotate(OrbitStep, 0)
	case ZoomInKey:
		p.OrbitZoom(ZoomStep)
	case ZoomOutKey:
		p.OrbitZoom(1 / ZoomStep)
	case FocusKey:
		p.FocusVehicle()
	default:
		if p.limiter.Allow("unbound:" + key) {
			p.logger.Debug(p.ctx, "ignoring unbound key", "key", key)
		}
	}
}

func (p *Playground) handleKeyReleased(e event.Event) {
	ke, ok := e.(*event.KeyEvent)
	if !ok {
		return
	}
	key := input.NormalizeKey(ke.Key)

	p.mu.Lock()
	if key == PanModifierKey {
		p.panning = false
	}
	p.mu.Unlock()
	p.Input.KeyUp(key)
}

func (p *Playground) handleInputReleased(event.Event) {
	p.mu.Lock()
	p.panning = false
	p.mu.Unlock()
	p.Input.Release()
}

// Update advances one frame using the wall-clock time since the last update
func (p *Playground) Update() Frame {
	now := time.Now()
	p.mu.Lock()
	delta := now.Sub(p.LastUpdate).Seconds()
	p.LastUpdate = now
	p.mu.Unlock()

	// Cap delta time to prevent physics issues
	if delta > MaxFrameDelta {
		delta = MaxFrameDelta
	}
	return p.Step(delta)
}

// Step advances the vehicle, then the camera, then discovery by delta seconds.
// While unmounted it returns the last frame unchanged.
func (p *Playground) Step(delta float64) Frame {
	p.mu.Lock()
	if !p.mounted {
		frame := p.last
		p.mu.Unlock()
		return frame
	}
	if delta < 0 {
		delta = 0
	}
	if delta > MaxFrameDelta {
		delta = MaxFrameDelta
	}

	held := p.Input.Snapshot()
	if p.driver != nil {
		held |= p.driver.Drive(p.Vehicle.State())
	}

	state := p.Vehicle.Tick(held, delta)
	cam := p.Camera.Tick(delta)
	found := p.Discovery.Observe(state.Position)
	discovered, total := p.Discovery.Counts()

	p.CurrentTick++
	resetFinished := p.resetting && !p.Camera.Resetting()
	p.resetting = p.Camera.Resetting()

	frame := Frame{
		Tick:            p.CurrentTick,
		Delta:           delta,
		Held:            held,
		Vehicle:         state,
		Camera:          cam,
		Resetting:       p.resetting,
		NewlyDiscovered: found,
		Discovered:      discovered,
		Total:           total,
	}
	p.last = frame
	p.mu.Unlock()

	// publish outside the lock so handlers may call back into the playground
	p.EventBus.Publish(event.NewPoseEvent(p, state.Position, state.Heading, state.LinearVelocity))
	for i, pt := range found {
		n := discovered - len(found) + i + 1
		p.logger.Info(p.ctx, "point discovered", "point", pt.ID, "discovered", n, "total", total)
		p.EventBus.Publish(event.NewDiscoveryEvent(p, pt.ID, pt.Title, n, total))
	}
	if resetFinished {
		p.EventBus.Publish(event.NewCameraEvent(event.CameraResetFinished, p, cam.Mode.String()))
	}

	return frame
}

// Frame returns the most recent frame
func (p *Playground) Frame() Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Run mounts the playground and steps it every interval until ctx is done,
// passing each frame to onFrame (which may be nil). It always unmounts before returning.
func (p *Playground) Run(ctx context.Context, interval time.Duration, onFrame func(Frame)) error {
	if interval <= 0 {
		return errors.New("tick interval must be positive")
	}

	p.Mount()
	defer p.Unmount()

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
			frame := p.Update()
			if onFrame != nil {
				onFrame(frame)
			}
		}
	}
}

// ToggleCameraMode flips between follow and free orbit and returns the new mode
func (p *Playground) ToggleCameraMode() camera.Mode {
	p.mu.Lock()
	mode := p.Camera.ToggleMode()
	p.last.Camera.Mode = mode
	p.mu.Unlock()

	p.logger.Info(p.ctx, "camera mode changed", "mode", mode.String())
	p.EventBus.Publish(event.NewCameraEvent(event.CameraModeChanged, p, mode.String()))
	return mode
}

// SetCameraMode switches to mode
func (p *Playground) SetCameraMode(mode camera.Mode) {
	p.mu.Lock()
	changed := p.Camera.Mode() != mode
	p.Camera.SetMode(mode)
	p.last.Camera.Mode = mode
	p.mu.Unlock()

	if changed {
		p.EventBus.Publish(event.NewCameraEvent(event.CameraModeChanged, p, mode.String()))
	}
}

// DiscoverPoint marks a point as found without driving to it, the way a
// click on its marker does. It reports whether the point was new.
func (p *Playground) DiscoverPoint(id string) (bool, error) {
	pt, fresh, err := p.Discovery.Discover(id)
	if err != nil {
		return false, err
	}
	if !fresh {
		return false, nil
	}
	discovered, total := p.Discovery.Counts()

	p.mu.Lock()
	p.last.Discovered = discovered
	p.mu.Unlock()

	p.logger.Info(p.ctx, "point discovered", "point", pt.ID, "discovered", discovered, "total", total, "direct", true)
	p.EventBus.Publish(event.NewDiscoveryEvent(p, pt.ID, pt.Title, discovered, total))
	return true, nil
}

// ResetCamera starts the eased transition back to the canonical view
func (p *Playground) ResetCamera() {
	p.mu.Lock()
	p.Camera.Reset()
	p.resetting = true
	mode := p.Camera.Mode()
	p.mu.Unlock()

	p.EventBus.Publish(event.NewCameraEvent(event.CameraResetStarted, p, mode.String()))
}
