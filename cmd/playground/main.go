// cmd/playground/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opd-ai/go-drivecam/pkg/assets"
	"github.com/opd-ai/go-drivecam/pkg/autopilot"
	"github.com/opd-ai/go-drivecam/pkg/camera"
	"github.com/opd-ai/go-drivecam/pkg/config"
	"github.com/opd-ai/go-drivecam/pkg/engine"
	"github.com/opd-ai/go-drivecam/pkg/event"
	"github.com/opd-ai/go-drivecam/pkg/logging"
	"github.com/opd-ai/go-drivecam/pkg/render"
	engorender "github.com/opd-ai/go-drivecam/pkg/render/engo"
)

// keyHold is how long a key typed on stdin stays pressed in terminal mode
const keyHold = 400 * time.Millisecond

func main() {
	configPath := flag.String("config", "drivecam.json", "Path to configuration file")
	mode := flag.String("mode", "drive", "Page mode: 'drive' (playground) or 'scroll' (scroll showcase)")
	renderer := flag.String("renderer", "terminal", "Renderer type: 'terminal', 'engo' or 'null'")
	drive := flag.Bool("autopilot", false, "Drive to every point automatically")
	width := flag.Int("width", 1024, "Window width (engo) or map columns (terminal)")
	height := flag.Int("height", 768, "Window height (engo) or map rows (terminal)")
	scale := flag.Float64("scale", 1, "World units per map cell (terminal only)")
	flag.Parse()

	logger := logging.NewLogger()
	ctx := context.Background()

	cfg, err := loadConfig(*configPath, logger)
	if err != nil {
		logger.Error(ctx, "failed to load configuration", err)
		os.Exit(1)
	}
	if cfg.LogLevel != "" {
		logger = logging.NewLoggerTo(os.Stderr, logging.ParseLevel(cfg.LogLevel))
	}

	eventBus := event.NewEventBus()
	con := newConsole(eventBus, logger, keyHold)
	defer con.stop()

	if *mode == "scroll" {
		showcase := engine.NewShowcase(engine.DefaultScrollDamping, eventBus, logger)
		con.showcase = showcase
		go con.run(os.Stdin)
		runShowcase(showcase, newHeadlessRenderer(*renderer, *width, *height, *scale, logger), logger)
		return
	}

	bundle := loadBundle(ctx, cfg, eventBus, logger)

	playground, err := engine.NewPlayground(cfg, eventBus, logger)
	if err != nil {
		logger.Error(ctx, "failed to create playground", err)
		os.Exit(1)
	}
	defer playground.Close()
	con.playground = playground

	if *drive {
		playground.SetDriver(autopilot.New(playground.Discovery, playground.Vehicle.Params(), autopilot.DefaultParams()))
	}

	if *renderer == "engo" {
		engorender.Run("drivecam", *width, *height, engorender.NewPlaygroundScene(playground, bundle, logger))
	} else {
		go con.run(os.Stdin)
		runHeadless(playground, newHeadlessRenderer(*renderer, *width, *height, *scale, logger), logger)
	}

	discovered, total := playground.Discovery.Counts()
	fmt.Printf("Discovered %d of %d points\n", discovered, total)
}

// newHeadlessRenderer returns the null renderer or, by default, a terminal map
func newHeadlessRenderer(kind string, width, height int, scale float64, logger *logging.Logger) render.Renderer {
	if kind == "null" {
		return render.NewNullRenderer(logger)
	}
	cols, rows := width, height
	if cols > 200 || rows > 100 {
		cols, rows = 72, 30
	}
	term := render.NewTerminalRenderer(os.Stdout, cols, rows, scale)
	term.UseANSI(true)
	term.FollowVehicle(true)
	return term
}

func loadConfig(path string, logger *logging.Logger) (*config.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Info(context.Background(), "configuration file not found, using defaults", "path", path)
		path = ""
	}
	return config.LoadConfig(path)
}

// loadBundle loads the configured assets. Failures fall back to the built-in sprites.
func loadBundle(ctx context.Context, cfg *config.Config, bus *event.Bus, logger *logging.Logger) *assets.Bundle {
	if len(cfg.Assets.Models)+len(cfg.Assets.Textures) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	fetch := assets.NewFetchService(cfg.FetchSettings(), nil, logger)
	loader := assets.NewLoader(fetch, logger,
		assets.WithBaseURL(cfg.Assets.BaseURL),
		assets.WithEventBus(bus),
		assets.WithParallelism(cfg.Assets.Parallelism),
	)

	bundle, err := loader.LoadBundle(ctx, cfg.Assets.Models, cfg.Assets.Textures, func(p assets.Progress) {
		logger.Info(ctx, "loading assets", "asset", p.Name, "percent", fmt.Sprintf("%.0f", p.Percent))
	})
	if err != nil {
		logger.Warn(ctx, "asset loading failed, using built-in sprites", "error", err.Error())
		return nil
	}
	return bundle
}

// runHeadless steps the playground on the configured tick until SIGINT or SIGTERM
func runHeadless(p *engine.Playground, r render.Renderer, logger *logging.Logger) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// redraw at most ~15 times a second
	every := uint64(p.Config.Loop.TickRate / 15)
	if every == 0 {
		every = 1
	}

	err := p.Run(ctx, p.Config.TickInterval(), func(f engine.Frame) {
		if f.Tick%every == 0 {
			render.DrawFrame(r, p)
		}
	})
	if err != nil {
		logger.Error(ctx, "playground stopped", err)
	}
}

// runShowcase steps the scroll showcase until SIGINT or SIGTERM, redrawing while it moves
func runShowcase(s *engine.Showcase, r render.Renderer, logger *logging.Logger) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	render.DrawShowcase(r, s.Frame())
	last := s.Frame().Offset
	err := s.Run(ctx, time.Second/30, func(f camera.ScrollFrame) {
		if f.Offset != last {
			last = f.Offset
			render.DrawShowcase(r, f)
		}
	})
	if err != nil {
		logger.Error(ctx, "showcase stopped", err)
	}
}
