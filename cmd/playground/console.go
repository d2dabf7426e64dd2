// cmd/playground/console.go
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/opd-ai/go-drivecam/pkg/engine"
	"github.com/opd-ai/go-drivecam/pkg/event"
	"github.com/opd-ai/go-drivecam/pkg/logging"
	"github.com/opd-ai/go-drivecam/pkg/validation"
)

// heldKey is a key tapped on stdin that has not been released yet
type heldKey struct {
	timer *time.Timer
	gen   uint64
}

// console reads commands from stdin. A bare key name is a tap: the key is
// pressed and released hold later; tapping it again while held extends the hold.
//
//	orbit <degrees> [<degrees up>]   rotate the free camera
//	zoom <scale>                     scale the free camera distance
//	pan <right> <forward>            slide the free camera look-at point
//	focus                            look at the car
//	visit <point>                    discover a point directly
//	scroll <offset>                  set the page offset (scroll mode)
type console struct {
	bus        *event.Bus
	playground *engine.Playground
	showcase   *engine.Showcase
	logger     *logging.Logger
	hold       time.Duration

	mu   sync.Mutex
	gen  uint64
	held map[string]*heldKey
}

func newConsole(bus *event.Bus, logger *logging.Logger, hold time.Duration) *console {
	if logger == nil {
		logger = logging.NewLogger()
	}
	return &console{
		bus:    bus,
		logger: logger.WithComponent("console"),
		hold:   hold,
		held:   make(map[string]*heldKey),
	}
}

// run handles every line of r until it is exhausted
func (c *console) run(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := c.handle(scanner.Text()); err != nil {
			c.logger.Warn(context.Background(), "ignoring console input", "input", scanner.Text(), "error", err.Error())
		}
	}
}

func (c *console) handle(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	args, err := parseArgs(fields[1:])

	switch strings.ToLower(fields[0]) {
	case "orbit":
		if err != nil || len(args) == 0 || len(args) > 2 {
			return fmt.Errorf("usage: orbit <degrees> [<degrees up>]")
		}
		args = append(args, 0)
		return c.orbit(c.playground != nil && c.playground.OrbitRotate(radians(args[0]), -radians(args[1])))
	case "zoom":
		if err != nil || len(args) != 1 {
			return fmt.Errorf("usage: zoom <scale>")
		}
		return c.orbit(c.playground != nil && c.playground.OrbitZoom(args[0]))
	case "pan":
		if err != nil || len(args) != 2 {
			return fmt.Errorf("usage: pan <right> <forward>")
		}
		return c.orbit(c.playground != nil && c.playground.OrbitPan(args[0], args[1]))
	case "focus":
		return c.orbit(c.playground != nil && c.playground.FocusVehicle())
	case "visit":
		if len(fields) != 2 || c.playground == nil {
			return fmt.Errorf("usage: visit <point>")
		}
		_, err := c.playground.DiscoverPoint(fields[1])
		return err
	case "scroll":
		if c.showcase == nil {
			return fmt.Errorf("scroll needs -mode scroll")
		}
		if err != nil || len(args) != 1 {
			return fmt.Errorf("usage: scroll <offset>")
		}
		return c.showcase.SetScroll(args[0])
	}

	if len(fields) != 1 {
		return fmt.Errorf("unknown command %q", fields[0])
	}
	key, err := validation.ValidateKeyName(fields[0])
	if err != nil {
		return err
	}
	c.tap(key)
	return nil
}

func (c *console) orbit(applied bool) error {
	if !applied {
		return fmt.Errorf("camera is not in free orbit (press c)")
	}
	return nil
}

// tap presses key unless it is already held, and (re)starts its release timer
func (c *console) tap(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	gen := c.gen
	if h, ok := c.held[key]; ok {
		h.timer.Stop()
		h.gen = gen
		h.timer = time.AfterFunc(c.hold, func() { c.release(key, gen) })
		return
	}

	c.bus.Publish(event.NewKeyEvent(event.KeyPressed, "stdin", key))
	c.held[key] = &heldKey{
		gen:   gen,
		timer: time.AfterFunc(c.hold, func() { c.release(key, gen) }),
	}
}

// release lets go of key unless a later tap owns it
func (c *console) release(key string, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, ok := c.held[key]
	if !ok || h.gen != gen {
		return
	}
	delete(c.held, key)
	c.bus.Publish(event.NewKeyEvent(event.KeyReleased, "stdin", key))
}

// stop cancels pending releases and lets go of every held key
func (c *console) stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, h := range c.held {
		h.timer.Stop()
		delete(c.held, key)
		c.bus.Publish(event.NewKeyEvent(event.KeyReleased, "stdin", key))
	}
}

func parseArgs(fields []string) ([]float64, error) {
	out := make([]float64, 0, len(fields)+1)
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		if err := validation.ValidateFinite("argument", v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
