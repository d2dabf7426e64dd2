// pkg/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/go-drivecam/pkg/camera"
	"github.com/opd-ai/go-drivecam/pkg/discovery"
	"github.com/opd-ai/go-drivecam/pkg/input"
	"github.com/opd-ai/go-drivecam/pkg/physics"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "drivecam.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig_IsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestDefaultConfig_MatchesComponentDefaults(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, physics.DefaultVehicleParams(), cfg.VehicleParams())
	assert.Equal(t, camera.DefaultFollowParams(), cfg.FollowParams())
	assert.Equal(t, camera.DefaultOrbitParams(), cfg.OrbitParams())
	assert.Equal(t, camera.FollowThirdPerson, cfg.CameraMode())
	assert.Equal(t, discovery.DefaultPoints(), cfg.Points())
	assert.Equal(t, time.Second/60, cfg.TickInterval())

	km, unknown := cfg.KeyMap()
	assert.Empty(t, unknown)
	assert.Equal(t, input.DefaultKeyMap(), km)

	reset := cfg.ResetParams()
	want := camera.DefaultResetParams()
	assert.Equal(t, want.Position, reset.Position)
	assert.Equal(t, want.Target, reset.Target)
	assert.Equal(t, want.Duration, reset.Duration)
}

func TestLoadConfig_NoFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	if diff := cmp.Diff(DefaultConfig(), cfg, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("LoadConfig(\"\") mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfig_FileOverlaysDefaults(t *testing.T) {
	path := writeConfigFile(t, `{
		"vehicle": {"friction": 0.5, "bounds": 40},
		"camera": {"mode": "free"},
		"discovery": {"radius": 3},
		"input": {"bindings": {"accelerate": ["i"]}},
		"assets": {"models": {"car": "models/car.glb"}}
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 0.5, cfg.Vehicle.Friction)
	assert.Equal(t, 40.0, cfg.Vehicle.Bounds)
	assert.Equal(t, physics.DefaultVehicleParams().AccelRate, cfg.Vehicle.AccelRate, "unset keys keep defaults")
	assert.Equal(t, camera.FreeOrbit, cfg.CameraMode())
	assert.Equal(t, 3.0, cfg.Discovery.Radius)
	assert.Len(t, cfg.Discovery.Points, 7)
	assert.Equal(t, "models/car.glb", cfg.Assets.Models["car"])

	km, _ := cfg.KeyMap()
	assert.Equal(t, input.Accelerate, km["i"])
	assert.Equal(t, input.Brake, km["s"], "other actions keep their default keys")
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("DRIVECAM_VEHICLE_MAXFORWARDSPEED", "12")
	t.Setenv("DRIVECAM_LOOP_TICKRATE", "30")

	path := writeConfigFile(t, `{"vehicle": {"maxForwardSpeed": 15}}`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 12.0, cfg.Vehicle.MaxForwardSpeed, "environment wins over the file")
	assert.Equal(t, 30, cfg.Loop.TickRate)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		errContains string
	}{
		{"malformed json", `{"vehicle": `, "failed to read config file"},
		{"friction above one", `{"vehicle": {"friction": 1.5}}`, "vehicle.friction"},
		{"unknown camera mode", `{"camera": {"mode": "cinematic"}}`, "camera.mode"},
		{"unknown action", `{"input": {"bindings": {"jump": ["space"]}}}`, "unknown action"},
		{"bad asset location", `{"assets": {"textures": {"grass": "ftp://x/grass.png"}}}`, "assets.textures.grass"},
		{"zero tick rate", `{"loop": {"tickRate": 0}}`, "loop.tickRate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfigFile(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Vehicle.Friction = 0
	cfg.Camera.PositionSmoothing = 2
	cfg.Orbit.MaxDistance = 1

	err := cfg.Validate()
	require.Error(t, err)
	for _, field := range []string{"vehicle.friction", "camera.positionSmoothing", "orbit.maxDistance"} {
		assert.Contains(t, err.Error(), field)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Vehicle.TurnRate = 18
	cfg.Discovery.Points = cfg.Discovery.Points[:2]

	path := filepath.Join(t.TempDir(), "saved.json")
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)

	if diff := cmp.Diff(cfg, loaded, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveConfig_BadPath(t *testing.T) {
	err := SaveConfig(DefaultConfig(), filepath.Join(t.TempDir(), "missing", "dir", "c.json"))
	assert.Error(t, err)
}

func TestFetchSettings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Assets.TimeoutSeconds = 2.5
	cfg.Assets.MaxRetries = 7

	s := cfg.FetchSettings()
	assert.Equal(t, 2500*time.Millisecond, s.RequestTimeout)
	assert.Equal(t, 7, s.MaxRetries)

	cfg.Assets.TimeoutSeconds = 0
	assert.Equal(t, 10*time.Second, cfg.FetchSettings().RequestTimeout, "zero keeps the default timeout")
}
