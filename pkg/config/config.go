// pkg/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/viper"

	"github.com/opd-ai/go-drivecam/pkg/assets"
	"github.com/opd-ai/go-drivecam/pkg/camera"
	"github.com/opd-ai/go-drivecam/pkg/discovery"
	"github.com/opd-ai/go-drivecam/pkg/input"
	"github.com/opd-ai/go-drivecam/pkg/physics"
	"github.com/opd-ai/go-drivecam/pkg/validation"
)

// EnvPrefix prefixes environment overrides, e.g. DRIVECAM_VEHICLE_FRICTION
const EnvPrefix = "DRIVECAM"

// Config contains configuration for a playground session
type Config struct {
	LogLevel  string          `json:"logLevel" mapstructure:"logLevel"`
	Vehicle   VehicleConfig   `json:"vehicle" mapstructure:"vehicle"`
	Camera    CameraConfig    `json:"camera" mapstructure:"camera"`
	Orbit     OrbitConfig     `json:"orbit" mapstructure:"orbit"`
	Discovery DiscoveryConfig `json:"discovery" mapstructure:"discovery"`
	Input     InputConfig     `json:"input" mapstructure:"input"`
	Assets    AssetConfig     `json:"assets" mapstructure:"assets"`
	Loop      LoopConfig      `json:"loop" mapstructure:"loop"`
}

// Vec3 is a config-friendly vector
type Vec3 struct {
	X float64 `json:"x" mapstructure:"x"`
	Y float64 `json:"y" mapstructure:"y"`
	Z float64 `json:"z" mapstructure:"z"`
}

// Vec converts to an mgl64 vector
func (v Vec3) Vec() mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

// VehicleConfig contains the motion model tuning and the spawn pose
type VehicleConfig struct {
	AccelRate       float64 `json:"accelRate" mapstructure:"accelRate"`
	BrakeRate       float64 `json:"brakeRate" mapstructure:"brakeRate"`
	MaxForwardSpeed float64 `json:"maxForwardSpeed" mapstructure:"maxForwardSpeed"`
	MaxReverseSpeed float64 `json:"maxReverseSpeed" mapstructure:"maxReverseSpeed"`
	TurnRate        float64 `json:"turnRate" mapstructure:"turnRate"`
	Friction        float64 `json:"friction" mapstructure:"friction"`
	AngularFriction float64 `json:"angularFriction" mapstructure:"angularFriction"`
	TurnDeadband    float64 `json:"turnDeadband" mapstructure:"turnDeadband"`
	Bounds          float64 `json:"bounds" mapstructure:"bounds"`
	MaxDelta        float64 `json:"maxDelta" mapstructure:"maxDelta"`
	ReferenceRate   float64 `json:"referenceRate" mapstructure:"referenceRate"`
	Start           Vec3    `json:"start" mapstructure:"start"`
	StartHeading    float64 `json:"startHeading" mapstructure:"startHeading"`
}

// CameraConfig contains the follow rig and reset view
type CameraConfig struct {
	Mode              string  `json:"mode" mapstructure:"mode"`
	Offset            Vec3    `json:"offset" mapstructure:"offset"`
	PositionSmoothing float64 `json:"positionSmoothing" mapstructure:"positionSmoothing"`
	RotationSmoothing float64 `json:"rotationSmoothing" mapstructure:"rotationSmoothing"`
	PitchBias         float64 `json:"pitchBias" mapstructure:"pitchBias"`
	ReferenceRate     float64 `json:"referenceRate" mapstructure:"referenceRate"`
	ResetPosition     Vec3    `json:"resetPosition" mapstructure:"resetPosition"`
	ResetTarget       Vec3    `json:"resetTarget" mapstructure:"resetTarget"`
	ResetSeconds      float64 `json:"resetSeconds" mapstructure:"resetSeconds"`
}

// OrbitConfig contains the free camera limits
type OrbitConfig struct {
	MinDistance   float64 `json:"minDistance" mapstructure:"minDistance"`
	MaxDistance   float64 `json:"maxDistance" mapstructure:"maxDistance"`
	MinPolarAngle float64 `json:"minPolarAngle" mapstructure:"minPolarAngle"`
	MaxPolarAngle float64 `json:"maxPolarAngle" mapstructure:"maxPolarAngle"`
	SmoothTime    float64 `json:"smoothTime" mapstructure:"smoothTime"`
	EnablePan     bool    `json:"enablePan" mapstructure:"enablePan"`
	EnableZoom    bool    `json:"enableZoom" mapstructure:"enableZoom"`
	EnableRotate  bool    `json:"enableRotate" mapstructure:"enableRotate"`
}

// PointConfig describes one info point
type PointConfig struct {
	ID       string `json:"id" mapstructure:"id"`
	Title    string `json:"title" mapstructure:"title"`
	Position Vec3   `json:"position" mapstructure:"position"`
}

// DiscoveryConfig contains the info points and their trigger radius
type DiscoveryConfig struct {
	Radius float64       `json:"radius" mapstructure:"radius"`
	Points []PointConfig `json:"points" mapstructure:"points"`
}

// InputConfig maps action names to key names
type InputConfig struct {
	Bindings map[string][]string `json:"bindings" mapstructure:"bindings"`
}

// AssetConfig contains the models and textures loaded at startup
type AssetConfig struct {
	BaseURL        string            `json:"baseURL" mapstructure:"baseURL"`
	Models         map[string]string `json:"models" mapstructure:"models"`
	Textures       map[string]string `json:"textures" mapstructure:"textures"`
	TimeoutSeconds float64           `json:"timeoutSeconds" mapstructure:"timeoutSeconds"`
	MaxRetries     int               `json:"maxRetries" mapstructure:"maxRetries"`
	Parallelism    int               `json:"parallelism" mapstructure:"parallelism"`
}

// LoopConfig contains the frame loop settings
type LoopConfig struct {
	TickRate int `json:"tickRate" mapstructure:"tickRate"`
}

// LoadConfig loads a configuration. Defaults are overlaid by the JSON file at
// path (skipped when path is empty) and then by DRIVECAM_* environment variables.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	if err := setDefaults(v, DefaultConfig()); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// setDefaults registers every leaf of the default config so that env
// overrides apply to keys the file does not mention.
func setDefaults(v *viper.Viper, defaults *Config) error {
	data, err := json.Marshal(defaults)
	if err != nil {
		return fmt.Errorf("failed to marshal defaults: %w", err)
	}
	var tree map[string]interface{}
	if err := json.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("failed to flatten defaults: %w", err)
	}
	walkDefaults(v, "", tree)
	return nil
}

func walkDefaults(v *viper.Viper, prefix string, tree map[string]interface{}) {
	for k, val := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]interface{}); ok && len(sub) > 0 {
			walkDefaults(v, key, sub)
			continue
		}
		v.SetDefault(key, val)
	}
}

// SaveConfig saves a configuration to a file
func SaveConfig(config *Config, path string) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	v := c.Vehicle
	errs := []error{
		validation.ValidatePositive("vehicle.accelRate", v.AccelRate),
		validation.ValidatePositive("vehicle.brakeRate", v.BrakeRate),
		validation.ValidatePositive("vehicle.maxForwardSpeed", v.MaxForwardSpeed),
		validation.ValidatePositive("vehicle.maxReverseSpeed", v.MaxReverseSpeed),
		validation.ValidateNonNegative("vehicle.turnRate", v.TurnRate),
		validation.ValidateFactor("vehicle.friction", v.Friction),
		validation.ValidateFactor("vehicle.angularFriction", v.AngularFriction),
		validation.ValidateNonNegative("vehicle.turnDeadband", v.TurnDeadband),
		validation.ValidatePositive("vehicle.bounds", v.Bounds),
		validation.ValidatePositive("vehicle.maxDelta", v.MaxDelta),
		validation.ValidateNonNegative("vehicle.referenceRate", v.ReferenceRate),
	}

	cam := c.Camera
	errs = append(errs,
		validation.ValidateFactor("camera.positionSmoothing", cam.PositionSmoothing),
		validation.ValidateFactor("camera.rotationSmoothing", cam.RotationSmoothing),
		validation.ValidateRange("camera.pitchBias", cam.PitchBias, -math.Pi/2, math.Pi/2),
		validation.ValidateNonNegative("camera.referenceRate", cam.ReferenceRate),
		validation.ValidateNonNegative("camera.resetSeconds", cam.ResetSeconds),
	)
	if _, err := camera.ParseMode(cam.Mode); err != nil {
		errs = append(errs, fmt.Errorf("camera.mode: %w", err))
	}

	o := c.Orbit
	errs = append(errs,
		validation.ValidatePositive("orbit.minDistance", o.MinDistance),
		validation.ValidateRange("orbit.maxDistance", o.MaxDistance, o.MinDistance, math.MaxFloat64),
		validation.ValidateRange("orbit.minPolarAngle", o.MinPolarAngle, 0, math.Pi),
		validation.ValidateRange("orbit.maxPolarAngle", o.MaxPolarAngle, o.MinPolarAngle, math.Pi),
		validation.ValidateNonNegative("orbit.smoothTime", o.SmoothTime),
	)

	errs = append(errs, validation.ValidatePositive("discovery.radius", c.Discovery.Radius))
	for i, p := range c.Discovery.Points {
		if _, err := validation.ValidateTitle(p.Title); err != nil {
			errs = append(errs, fmt.Errorf("discovery.points[%d]: %w", i, err))
		}
	}

	for action, keys := range c.Input.Bindings {
		if _, ok := input.ParseAction(action); !ok {
			errs = append(errs, fmt.Errorf("input.bindings: unknown action %q", action))
		}
		for _, k := range keys {
			if _, err := validation.ValidateKeyName(k); err != nil {
				errs = append(errs, fmt.Errorf("input.bindings.%s: %w", action, err))
			}
		}
	}

	for name, loc := range c.Assets.Models {
		if err := validation.ValidateAssetURL(loc); err != nil {
			errs = append(errs, fmt.Errorf("assets.models.%s: %w", name, err))
		}
	}
	for name, loc := range c.Assets.Textures {
		if err := validation.ValidateAssetURL(loc); err != nil {
			errs = append(errs, fmt.Errorf("assets.textures.%s: %w", name, err))
		}
	}
	errs = append(errs, validation.ValidateNonNegative("assets.timeoutSeconds", c.Assets.TimeoutSeconds))
	if c.Assets.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("assets.maxRetries cannot be negative, got %d", c.Assets.MaxRetries))
	}

	if c.Loop.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("loop.tickRate must be positive, got %d", c.Loop.TickRate))
	}

	return validation.Collect(errs...)
}

// VehicleParams converts the vehicle section
func (c *Config) VehicleParams() physics.VehicleParams {
	v := c.Vehicle
	return physics.VehicleParams{
		AccelRate:       v.AccelRate,
		BrakeRate:       v.BrakeRate,
		MaxForwardSpeed: v.MaxForwardSpeed,
		MaxReverseSpeed: v.MaxReverseSpeed,
		TurnRate:        v.TurnRate,
		Friction:        v.Friction,
		AngularFriction: v.AngularFriction,
		TurnDeadband:    v.TurnDeadband,
		Bounds:          v.Bounds,
		MaxDelta:        v.MaxDelta,
		ReferenceRate:   v.ReferenceRate,
	}
}

// FollowParams converts the camera follow settings
func (c *Config) FollowParams() camera.FollowParams {
	return camera.FollowParams{
		Offset:            c.Camera.Offset.Vec(),
		PositionSmoothing: c.Camera.PositionSmoothing,
		RotationSmoothing: c.Camera.RotationSmoothing,
		PitchBias:         c.Camera.PitchBias,
		ReferenceRate:     c.Camera.ReferenceRate,
	}
}

// ResetParams converts the camera reset view
func (c *Config) ResetParams() camera.ResetParams {
	r := camera.DefaultResetParams()
	r.Position = c.Camera.ResetPosition.Vec()
	r.Target = c.Camera.ResetTarget.Vec()
	r.Duration = time.Duration(c.Camera.ResetSeconds * float64(time.Second))
	return r
}

// OrbitParams converts the orbit section
func (c *Config) OrbitParams() camera.OrbitParams {
	o := c.Orbit
	return camera.OrbitParams{
		MinDistance:   o.MinDistance,
		MaxDistance:   o.MaxDistance,
		MinPolarAngle: o.MinPolarAngle,
		MaxPolarAngle: o.MaxPolarAngle,
		SmoothTime:    o.SmoothTime,
		EnablePan:     o.EnablePan,
		EnableZoom:    o.EnableZoom,
		EnableRotate:  o.EnableRotate,
	}
}

// CameraMode returns the starting camera mode
func (c *Config) CameraMode() camera.Mode {
	m, err := camera.ParseMode(c.Camera.Mode)
	if err != nil {
		return camera.FollowThirdPerson
	}
	return m
}

// Points converts the discovery points
func (c *Config) Points() []discovery.Point {
	points := make([]discovery.Point, len(c.Discovery.Points))
	for i, p := range c.Discovery.Points {
		points[i] = discovery.Point{ID: p.ID, Title: p.Title, Position: p.Position.Vec()}
	}
	return points
}

// KeyMap converts the bindings. Unknown action names are returned separately.
func (c *Config) KeyMap() (input.KeyMap, []string) {
	return input.KeyMapFromBindings(c.Input.Bindings)
}

// TickInterval returns the frame loop period
func (c *Config) TickInterval() time.Duration {
	if c.Loop.TickRate <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(c.Loop.TickRate)
}

// FetchSettings converts the asset section into the fetch policy
func (c *Config) FetchSettings() assets.FetchSettings {
	s := assets.DefaultFetchSettings()
	if c.Assets.TimeoutSeconds > 0 {
		s.RequestTimeout = time.Duration(c.Assets.TimeoutSeconds * float64(time.Second))
	}
	s.MaxRetries = c.Assets.MaxRetries
	return s
}

func vec(v mgl64.Vec3) Vec3 {
	return Vec3{X: v.X(), Y: v.Y(), Z: v.Z()}
}

// DefaultConfig returns the playground configuration
func DefaultConfig() *Config {
	vp := physics.DefaultVehicleParams()
	fp := camera.DefaultFollowParams()
	rp := camera.DefaultResetParams()
	op := camera.DefaultOrbitParams()

	points := make([]PointConfig, 0, 7)
	for _, p := range discovery.DefaultPoints() {
		points = append(points, PointConfig{ID: p.ID, Title: p.Title, Position: vec(p.Position)})
	}

	bindings := make(map[string][]string)
	km := input.DefaultKeyMap()
	for _, k := range km.Keys() {
		name := km[k].String()
		bindings[name] = append(bindings[name], k)
	}

	return &Config{
		LogLevel: "info",
		Vehicle: VehicleConfig{
			AccelRate:       vp.AccelRate,
			BrakeRate:       vp.BrakeRate,
			MaxForwardSpeed: vp.MaxForwardSpeed,
			MaxReverseSpeed: vp.MaxReverseSpeed,
			TurnRate:        vp.TurnRate,
			Friction:        vp.Friction,
			AngularFriction: vp.AngularFriction,
			TurnDeadband:    vp.TurnDeadband,
			Bounds:          vp.Bounds,
			MaxDelta:        vp.MaxDelta,
			ReferenceRate:   vp.ReferenceRate,
		},
		Camera: CameraConfig{
			Mode:              camera.FollowThirdPerson.String(),
			Offset:            vec(fp.Offset),
			PositionSmoothing: fp.PositionSmoothing,
			RotationSmoothing: fp.RotationSmoothing,
			PitchBias:         fp.PitchBias,
			ReferenceRate:     fp.ReferenceRate,
			ResetPosition:     vec(rp.Position),
			ResetTarget:       vec(rp.Target),
			ResetSeconds:      rp.Duration.Seconds(),
		},
		Orbit: OrbitConfig{
			MinDistance:   op.MinDistance,
			MaxDistance:   op.MaxDistance,
			MinPolarAngle: op.MinPolarAngle,
			MaxPolarAngle: op.MaxPolarAngle,
			SmoothTime:    op.SmoothTime,
			EnablePan:     op.EnablePan,
			EnableZoom:    op.EnableZoom,
			EnableRotate:  op.EnableRotate,
		},
		Discovery: DiscoveryConfig{
			Radius: discovery.DefaultRadius,
			Points: points,
		},
		Input: InputConfig{
			Bindings: bindings,
		},
		Assets: AssetConfig{
			Models:         map[string]string{},
			Textures:       map[string]string{},
			TimeoutSeconds: 10,
			MaxRetries:     3,
			Parallelism:    4,
		},
		Loop: LoopConfig{
			TickRate: 60,
		},
	}
}
