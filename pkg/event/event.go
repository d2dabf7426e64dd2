// pkg/event/event.go
package event

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// Type represents the type of event
type Type string

// Common event types
const (
	KeyPressed          Type = "key_pressed"
	KeyReleased         Type = "key_released"
	InputReleased       Type = "input_released"
	PoseUpdated         Type = "pose_updated"
	PointDiscovered     Type = "point_discovered"
	CameraModeChanged   Type = "camera_mode_changed"
	CameraResetStarted  Type = "camera_reset_started"
	CameraResetFinished Type = "camera_reset_finished"
	AssetLoaded         Type = "asset_loaded"
	AssetLoadFailed     Type = "asset_load_failed"
	SceneMounted        Type = "scene_mounted"
	SceneUnmounted      Type = "scene_unmounted"
)

// Event is the base interface for all events
type Event interface {
	GetType() Type
	GetSource() interface{}
}

// BaseEvent provides common functionality for all events
type BaseEvent struct {
	EventType Type
	Source    interface{}
}

// GetType returns the event type
func (e *BaseEvent) GetType() Type {
	return e.EventType
}

// GetSource returns the event source
func (e *BaseEvent) GetSource() interface{} {
	return e.Source
}

// Handler is a function that handles events
type Handler func(Event)

// Subscription identifies a registered handler. Cancel removes it; calling
// Cancel more than once is harmless.
type Subscription struct {
	ID     uint64
	Type   Type
	Cancel func()
}

type subscriber struct {
	id      uint64
	handler Handler
}

// Bus manages event subscriptions and dispatching
type Bus struct {
	handlers map[Type][]subscriber
	nextID   uint64
	mu       sync.RWMutex
}

// NewEventBus creates a new event bus
func NewEventBus() *Bus {
	return &Bus{
		handlers: make(map[Type][]subscriber),
		nextID:   1,
	}
}

// Subscribe registers a handler for a specific event type
func (b *Bus) Subscribe(eventType Type, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[eventType] = append(b.handlers[eventType], subscriber{id: id, handler: handler})

	return &Subscription{
		ID:   id,
		Type: eventType,
		Cancel: func() {
			b.Unsubscribe(eventType, id)
		},
	}
}

// Unsubscribe removes the handler registered under id
func (b *Bus) Unsubscribe(eventType Type, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.handlers[eventType]
	if !ok {
		return
	}

	for i, s := range subs {
		if s.id == id {
			// copy so a Publish iterating the old slice is unaffected
			next := make([]subscriber, 0, len(subs)-1)
			next = append(next, subs[:i]...)
			next = append(next, subs[i+1:]...)
			if len(next) == 0 {
				delete(b.handlers, eventType)
			} else {
				b.handlers[eventType] = next
			}
			return
		}
	}
}

// HandlerCount returns the number of handlers registered for a type
func (b *Bus) HandlerCount(eventType Type) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}

// Publish sends an event to all subscribed handlers
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	subs, ok := b.handlers[event.GetType()]
	b.mu.RUnlock()

	if !ok {
		return
	}

	// Call each handler
	for _, s := range subs {
		s.handler(event)
	}
}

// Specific event implementations

// KeyEvent carries a raw key press or release
type KeyEvent struct {
	BaseEvent
	Key string
}

// NewKeyEvent creates a new key event
func NewKeyEvent(eventType Type, source interface{}, key string) *KeyEvent {
	return &KeyEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		Key: key,
	}
}

// PoseEvent reports the vehicle pose after a tick
type PoseEvent struct {
	BaseEvent
	Position mgl64.Vec3
	Heading  float64
	Speed    float64
}

// NewPoseEvent creates a new pose event
func NewPoseEvent(source interface{}, position mgl64.Vec3, heading, speed float64) *PoseEvent {
	return &PoseEvent{
		BaseEvent: BaseEvent{
			EventType: PoseUpdated,
			Source:    source,
		},
		Position: position,
		Heading:  heading,
		Speed:    speed,
	}
}

// DiscoveryEvent reports an info point reached for the first time
type DiscoveryEvent struct {
	BaseEvent
	PointID    string
	Title      string
	Discovered int
	Total      int
}

// NewDiscoveryEvent creates a new discovery event
func NewDiscoveryEvent(source interface{}, pointID, title string, discovered, total int) *DiscoveryEvent {
	return &DiscoveryEvent{
		BaseEvent: BaseEvent{
			EventType: PointDiscovered,
			Source:    source,
		},
		PointID:    pointID,
		Title:      title,
		Discovered: discovered,
		Total:      total,
	}
}

// CameraEvent reports camera mode changes and resets
type CameraEvent struct {
	BaseEvent
	Mode string
}

// NewCameraEvent creates a new camera event
func NewCameraEvent(eventType Type, source interface{}, mode string) *CameraEvent {
	return &CameraEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		Mode: mode,
	}
}

// AssetEvent reports the outcome of loading one asset
type AssetEvent struct {
	BaseEvent
	Name string
	URL  string
	Err  error
}

// NewAssetEvent creates a new asset event. A non-nil err makes it an AssetLoadFailed event.
func NewAssetEvent(source interface{}, name, url string, err error) *AssetEvent {
	eventType := AssetLoaded
	if err != nil {
		eventType = AssetLoadFailed
	}
	return &AssetEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		Name: name,
		URL:  url,
		Err:  err,
	}
}
