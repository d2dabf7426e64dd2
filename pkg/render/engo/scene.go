// pkg/render/engo/scene.go
package engo

import (
	"context"
	"image/color"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"

	"github.com/opd-ai/go-drivecam/pkg/assets"
	"github.com/opd-ai/go-drivecam/pkg/engine"
	"github.com/opd-ai/go-drivecam/pkg/event"
	"github.com/opd-ai/go-drivecam/pkg/logging"
	"github.com/opd-ai/go-drivecam/pkg/render"
)

// PlaygroundScene shows a playground in an engo window. The playground is
// mounted in Setup and unmounted in Exit.
type PlaygroundScene struct {
	world *ecs.World

	playground *engine.Playground
	eventBus   *event.Bus
	bundle     *assets.Bundle
	logger     *logging.Logger

	// Rendering components
	renderer *EngoRenderer
	camera   *CameraSystem
	input    *InputSystem
	click    *ClickSystem
	hud      *HUDSystem
	subs     []*event.Subscription
}

// NewPlaygroundScene creates a scene for p. bundle may be nil; its textures
// replace the built-in sprites of the same name.
func NewPlaygroundScene(p *engine.Playground, bundle *assets.Bundle, logger *logging.Logger) *PlaygroundScene {
	if logger == nil {
		logger = logging.NewLogger()
	}
	return &PlaygroundScene{
		world:      &ecs.World{},
		playground: p,
		eventBus:   p.EventBus,
		bundle:     bundle,
		logger:     logger.WithComponent("engo"),
	}
}

// Type returns the scene type (required by Engo)
func (scene *PlaygroundScene) Type() string {
	return "PlaygroundScene"
}

// Preload is called before the scene starts (required by Engo)
func (scene *PlaygroundScene) Preload() {}

// Setup is called when the scene starts (required by Engo)
func (scene *PlaygroundScene) Setup(u engo.Updater) {
	scene.world = u.(*ecs.World)
	common.SetBackground(color.RGBA{R: 40, G: 60, B: 40, A: 255})

	rs := &common.RenderSystem{}
	scene.world.AddSystem(rs)

	am := NewAssetManager()
	scene.applyBundle(am)
	if err := am.LoadAssets(); err != nil {
		scene.logger.Error(context.Background(), "failed to upload sprites", err)
	}

	keys := scene.bindableKeys()
	if unknown := SetupInputBindings(keys); len(unknown) > 0 {
		scene.logger.Warn(context.Background(), "keys cannot be bound in the window", "keys", unknown)
	}
	SetupCameraControls()

	scene.camera = NewCameraSystem()
	scene.camera.EnableInput(true)
	scene.camera.SetViewport(float64(engo.GameWidth()), float64(engo.GameHeight()))
	// wheel and zoom keys steer the free orbit camera while it is active
	scene.camera.SetZoomHandler(func(scale float64) bool {
		return scene.playground.OrbitZoom(1 / scale)
	})
	scene.click = NewClickSystem(scene.playground, scene.camera, nil)
	scene.input = NewInputSystem(scene.eventBus, keys, nil)
	scene.hud = NewHUDSystem(rs, nil)
	scene.subs = scene.hud.Subscribe(scene.eventBus)
	scene.renderer = NewEngoRenderer(rs, am, scene.camera, scene.hud)

	// input before the frame, camera and HUD after it
	scene.world.AddSystem(scene.input)
	scene.world.AddSystem(&frameSystem{playground: scene.playground, renderer: scene.renderer})
	scene.world.AddSystem(scene.camera)
	scene.world.AddSystem(scene.click)
	scene.world.AddSystem(scene.hud)

	scene.playground.Mount()
}

// bindableKeys returns the driving and command keys the window can report.
// Orbit zoom comes from the zoom buttons and the wheel instead.
func (scene *PlaygroundScene) bindableKeys() []string {
	keys := scene.playground.Input.Keys()
	for _, k := range engine.CommandKeys() {
		if KnownKey(k) {
			keys = append(keys, k)
		}
	}
	return keys
}

func (scene *PlaygroundScene) applyBundle(am *AssetManager) {
	if scene.bundle == nil {
		return
	}
	for name, tex := range scene.bundle.Textures {
		am.UseImage(name, tex.Image)
	}
}

// Exit is called when the scene is exiting (required by Engo)
func (scene *PlaygroundScene) Exit() {
	if scene.input != nil {
		scene.input.ReleaseAll()
	}
	for _, sub := range scene.subs {
		sub.Cancel()
	}
	scene.subs = nil
	scene.playground.Unmount()
}

// frameSystem steps the playground with engo's frame delta and draws it
type frameSystem struct {
	playground *engine.Playground
	renderer   render.Renderer
}

func (fs *frameSystem) Remove(ecs.BasicEntity) {}

func (fs *frameSystem) Update(dt float32) {
	fs.playground.Step(float64(dt))
	render.DrawFrame(fs.renderer, fs.playground)
}

// Run opens a window and blocks until it closes
func Run(title string, width, height int, scene *PlaygroundScene) {
	engo.Run(engo.RunOptions{
		Title:          title,
		Width:          width,
		Height:         height,
		StandardInputs: false,
		VSync:          true,
	}, scene)
}
