// Package input maps raw key events onto the canonical driving actions and
// keeps the set of held keys between frames.
package input

import (
	"sort"
	"strings"
	"sync"
)

// Action is a canonical vehicle control
type Action uint8

const (
	Accelerate Action = iota
	Brake
	TurnLeft
	TurnRight
)

var actionNames = [...]string{
	Accelerate: "accelerate",
	Brake:      "brake",
	TurnLeft:   "left",
	TurnRight:  "right",
}

// String returns the configuration name of the action
func (a Action) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return "unknown"
}

// ParseAction returns the action with the given configuration name
func ParseAction(name string) (Action, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range actionNames {
		if n == name {
			return Action(i), true
		}
	}
	return 0, false
}

// AllActions lists every canonical action
func AllActions() []Action {
	return []Action{Accelerate, Brake, TurnLeft, TurnRight}
}

// Actions is a set of actions held during a tick
type Actions uint8

// NewActions builds a set from the given actions
func NewActions(actions ...Action) Actions {
	var set Actions
	for _, a := range actions {
		set = set.With(a)
	}
	return set
}

// Has reports whether a is in the set
func (s Actions) Has(a Action) bool {
	return s&(1<<a) != 0
}

// With returns the set with a added
func (s Actions) With(a Action) Actions {
	return s | 1<<a
}

// Without returns the set with a removed
func (s Actions) Without(a Action) Actions {
	return s &^ (1 << a)
}

// String lists the held actions, e.g. "accelerate+left"
func (s Actions) String() string {
	var names []string
	for _, a := range AllActions() {
		if s.Has(a) {
			names = append(names, a.String())
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "+")
}

// NormalizeKey lower-cases a key name the way browser and engine key events are compared
func NormalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// KeyMap binds normalized key names to actions
type KeyMap map[string]Action

// DefaultKeyMap returns WASD plus arrow keys
func DefaultKeyMap() KeyMap {
	return KeyMap{
		"w":          Accelerate,
		"arrowup":    Accelerate,
		"s":          Brake,
		"arrowdown":  Brake,
		"a":          TurnLeft,
		"arrowleft":  TurnLeft,
		"d":          TurnRight,
		"arrowright": TurnRight,
	}
}

// KeyMapFromBindings builds a key map from action name -> key names.
// Unknown action names are reported in the second return value.
func KeyMapFromBindings(bindings map[string][]string) (KeyMap, []string) {
	km := make(KeyMap)
	var unknown []string
	for name, keys := range bindings {
		action, ok := ParseAction(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		for _, k := range keys {
			km[NormalizeKey(k)] = action
		}
	}
	sort.Strings(unknown)
	return km, unknown
}

// Keys returns the bound key names in sorted order
func (km KeyMap) Keys() []string {
	keys := make([]string, 0, len(km))
	for k := range km {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// State is the set of currently held control keys. Key handlers may run on a
// different goroutine than the frame loop; the last write before a snapshot wins.
type State struct {
	mu     sync.Mutex
	keyMap KeyMap
	held   map[string]struct{}
}

// NewState creates an empty input state using km, or the default bindings when km is nil
func NewState(km KeyMap) *State {
	if km == nil {
		km = DefaultKeyMap()
	}
	return &State{
		keyMap: km,
		held:   make(map[string]struct{}),
	}
}

// KeyDown records a pressed key. It returns false for keys that are not bound.
func (s *State) KeyDown(key string) bool {
	key = NormalizeKey(key)
	if _, ok := s.keyMap[key]; !ok {
		return false
	}
	s.mu.Lock()
	s.held[key] = struct{}{}
	s.mu.Unlock()
	return true
}

// KeyUp records a released key. It returns false for keys that are not bound.
func (s *State) KeyUp(key string) bool {
	key = NormalizeKey(key)
	if _, ok := s.keyMap[key]; !ok {
		return false
	}
	s.mu.Lock()
	delete(s.held, key)
	s.mu.Unlock()
	return true
}

// Release drops every held key, e.g. when the window loses focus
func (s *State) Release() {
	s.mu.Lock()
	clear(s.held)
	s.mu.Unlock()
}

// Held reports whether the key is currently held
func (s *State) Held(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.held[NormalizeKey(key)]
	return ok
}

// Snapshot returns the actions held right now
func (s *State) Snapshot() Actions {
	s.mu.Lock()
	defer s.mu.Unlock()

	var actions Actions
	for key := range s.held {
		actions = actions.With(s.keyMap[key])
	}
	return actions
}

// Action returns the action bound to key
func (s *State) Action(key string) (Action, bool) {
	a, ok := s.keyMap[NormalizeKey(key)]
	return a, ok
}

// Keys returns the bound key names in sorted order
func (s *State) Keys() []string {
	return s.keyMap.Keys()
}
