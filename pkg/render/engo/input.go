// pkg/render/engo/input.go
package engo

import (
	"sort"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"

	"github.com/opd-ai/go-drivecam/pkg/event"
	"github.com/opd-ai/go-drivecam/pkg/input"
)

// engoKeys maps normalized key names onto engo keys
var engoKeys = map[string]engo.Key{
	"w": engo.KeyW, "a": engo.KeyA, "s": engo.KeyS, "d": engo.KeyD,
	"q": engo.KeyQ, "e": engo.KeyE, "c": engo.KeyC, "r": engo.KeyR,
	"f": engo.KeyF, "space": engo.KeySpace,
	"arrowup":    engo.KeyArrowUp,
	"arrowdown":  engo.KeyArrowDown,
	"arrowleft":  engo.KeyArrowLeft,
	"arrowright": engo.KeyArrowRight,
	"shift":      engo.KeyLeftShift,
	"escape":     engo.KeyEscape,
}

// InputSystem turns keyboard state into KeyPressed and KeyReleased events
type InputSystem struct {
	bus  *event.Bus
	keys []string
	poll func(name string) bool
	down map[string]bool
}

// NewInputSystem watches keys. A nil poll reads engo's registered buttons.
func NewInputSystem(bus *event.Bus, keys []string, poll func(name string) bool) *InputSystem {
	if poll == nil {
		poll = func(name string) bool { return engo.Input.Button(name).Down() }
	}
	normalized := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		k = input.NormalizeKey(k)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		normalized = append(normalized, k)
	}
	sort.Strings(normalized)

	return &InputSystem{
		bus:  bus,
		keys: normalized,
		poll: poll,
		down: make(map[string]bool),
	}
}

// Remove satisfies the ecs.System interface
func (is *InputSystem) Remove(basic ecs.BasicEntity) {}

// Update publishes an event for every key whose state changed since the last update
func (is *InputSystem) Update(dt float32) {
	for _, key := range is.keys {
		now := is.poll(key)
		if now == is.down[key] {
			continue
		}
		is.down[key] = now
		typ := event.KeyReleased
		if now {
			typ = event.KeyPressed
		}
		is.bus.Publish(event.NewKeyEvent(typ, is, key))
	}
}

// ReleaseAll forgets held keys and tells listeners to drop theirs
func (is *InputSystem) ReleaseAll() {
	is.down = make(map[string]bool)
	is.bus.Publish(&event.BaseEvent{EventType: event.InputReleased, Source: is})
}

// Keys returns the watched key names
func (is *InputSystem) Keys() []string {
	return append([]string(nil), is.keys...)
}

// SetupInputBindings registers one engo button per known key name and
// returns the names it could not map.
func SetupInputBindings(keys []string) []string {
	var unknown []string
	for _, k := range keys {
		key, ok := engoKeys[input.NormalizeKey(k)]
		if !ok {
			unknown = append(unknown, k)
			continue
		}
		engo.Input.RegisterButton(input.NormalizeKey(k), key)
	}
	return unknown
}

// KnownKey reports whether a key name can be bound in the window
func KnownKey(name string) bool {
	_, ok := engoKeys[input.NormalizeKey(name)]
	return ok
}
