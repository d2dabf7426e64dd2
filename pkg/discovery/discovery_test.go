package discovery

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDefaultTracker(t *testing.T) *Tracker {
	t.Helper()
	tr, err := NewTracker(DefaultPoints(), DefaultRadius)
	require.NoError(t, err)
	return tr
}

func TestNewTracker_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		points []Point
		radius float64
	}{
		{"zero radius", DefaultPoints(), 0},
		{"empty id", []Point{{Title: "x"}}, 5},
		{"duplicate id", []Point{{ID: "a"}, {ID: "a"}}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTracker(tt.points, tt.radius)
			assert.Error(t, err)
		})
	}
}

func TestObserve_DiscoversOnceWithinRadius(t *testing.T) {
	tr := newDefaultTracker(t)

	assert.Empty(t, tr.Observe(mgl64.Vec3{0, 0, 0}), "origin is far from every point")

	// 4.9 away on the ground but 1 below the marker, so just outside
	assert.Empty(t, tr.Observe(mgl64.Vec3{-10.1, 0, -15}))

	found := tr.Observe(mgl64.Vec3{-12, 0, -15})
	require.Len(t, found, 1)
	assert.Equal(t, "railway", found[0].ID)

	assert.Empty(t, tr.Observe(mgl64.Vec3{-15, 0, -15}), "a point is only reported once")
	assert.True(t, tr.IsDiscovered("railway"))

	d, total := tr.Counts()
	assert.Equal(t, 1, d)
	assert.Equal(t, 7, total)
}

func TestObserve_MultiplePointsInOrder(t *testing.T) {
	points := []Point{
		{ID: "b", Position: mgl64.Vec3{1, 0, 0}},
		{ID: "a", Position: mgl64.Vec3{-1, 0, 0}},
		{ID: "far", Position: mgl64.Vec3{50, 0, 50}},
	}
	tr, err := NewTracker(points, 5)
	require.NoError(t, err)

	found := tr.Observe(mgl64.Vec3{})
	ids := make([]string, len(found))
	for i, p := range found {
		ids[i] = p.ID
	}
	if diff := cmp.Diff([]string{"b", "a"}, ids); diff != "" {
		t.Errorf("discovered ids mismatch (-want +got):\n%s", diff)
	}
}

func TestDiscover_Manual(t *testing.T) {
	tr := newDefaultTracker(t)

	p, isNew, err := tr.Discover("archery")
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Equal(t, "Archery", p.Title)

	_, isNew, err = tr.Discover("archery")
	require.NoError(t, err)
	assert.False(t, isNew)

	_, _, err = tr.Discover("skydiving")
	assert.Error(t, err)

	assert.Empty(t, tr.Observe(mgl64.Vec3{-18, 1, 0}), "manually discovered point is not reported again")
	assert.Equal(t, []string{"archery"}, tr.Discovered())
}

func TestNearest(t *testing.T) {
	tr := newDefaultTracker(t)

	p, d, ok := tr.Nearest(mgl64.Vec3{17, 0, 1}, true)
	require.True(t, ok)
	assert.Equal(t, "achievements", p.ID)
	assert.InDelta(t, 1.414, d, 1e-3)

	tr.Discover("achievements")
	p, _, ok = tr.Nearest(mgl64.Vec3{17, 0, 1}, true)
	require.True(t, ok)
	assert.NotEqual(t, "achievements", p.ID)

	p, _, _ = tr.Nearest(mgl64.Vec3{17, 0, 1}, false)
	assert.Equal(t, "achievements", p.ID)

	for _, pt := range tr.Points() {
		tr.Discover(pt.ID)
	}
	_, _, ok = tr.Nearest(mgl64.Vec3{}, true)
	assert.False(t, ok)
}

func TestReset(t *testing.T) {
	tr := newDefaultTracker(t)
	tr.Discover("music")
	tr.Reset()

	d, _ := tr.Counts()
	assert.Zero(t, d)
	assert.False(t, tr.IsDiscovered("music"))
	assert.Len(t, tr.Observe(mgl64.Vec3{-15, 1, 15}), 1)
}
