// Package discovery tracks which points of interest the car has reached.
package discovery

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-drivecam/pkg/physics"
)

// DefaultRadius is the trigger distance around each point
const DefaultRadius = 5.0

// Point is a fixed info point in the playground
type Point struct {
	ID       string
	Title    string
	Position mgl64.Vec3
}

// DefaultPoints returns the seven playground info points
func DefaultPoints() []Point {
	return []Point{
		{ID: "railway", Title: "Railway Engineering", Position: mgl64.Vec3{-15, 1, -15}},
		{ID: "power", Title: "Power Systems", Position: mgl64.Vec3{15, 1, -15}},
		{ID: "music", Title: "Music & Performance", Position: mgl64.Vec3{-15, 1, 15}},
		{ID: "psychology", Title: "Psychology & Advisory", Position: mgl64.Vec3{15, 1, 15}},
		{ID: "motorsports", Title: "Motorsports", Position: mgl64.Vec3{0, 1, -18}},
		{ID: "archery", Title: "Archery", Position: mgl64.Vec3{-18, 1, 0}},
		{ID: "achievements", Title: "Achievements", Position: mgl64.Vec3{18, 1, 0}},
	}
}

// Tracker records discoveries. Discovery is one-way: a point never becomes
// undiscovered except through Reset.
type Tracker struct {
	mu         sync.Mutex
	radius     float64
	points     []Point
	index      map[string]int
	discovered []bool
	order      []string
	tree       *physics.QuadTree[int]
}

// NewTracker indexes points. IDs must be unique and non-empty.
func NewTracker(points []Point, radius float64) (*Tracker, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("discovery radius must be positive, got %v", radius)
	}

	t := &Tracker{
		radius:     radius,
		points:     append([]Point(nil), points...),
		index:      make(map[string]int, len(points)),
		discovered: make([]bool, len(points)),
	}

	extent := radius
	for i, p := range t.points {
		if p.ID == "" {
			return nil, fmt.Errorf("point %d has no id", i)
		}
		if _, dup := t.index[p.ID]; dup {
			return nil, fmt.Errorf("duplicate point id %q", p.ID)
		}
		t.index[p.ID] = i
		extent = math.Max(extent, math.Max(math.Abs(p.Position.X()), math.Abs(p.Position.Z())))
	}

	// a little slack so points on the edge stay inside the half-open boundary
	size := 2*extent + 2
	t.tree = physics.NewQuadTree[int](physics.PlanarRect{Width: size, Depth: size}, 4)
	for i, p := range t.points {
		t.tree.Insert(p.Position, i)
	}

	return t, nil
}

// Radius returns the trigger distance
func (t *Tracker) Radius() float64 {
	return t.radius
}

// Observe checks the car position against every undiscovered point and
// returns the ones reached for the first time, in definition order.
func (t *Tracker) Observe(pos mgl64.Vec3) []Point {
	t.mu.Lock()
	defer t.mu.Unlock()

	candidates := t.tree.Query(physics.RectAround(pos, t.radius))
	sort.Ints(candidates)

	var found []Point
	for _, i := range candidates {
		if t.discovered[i] {
			continue
		}
		trigger := physics.Sphere{Center: t.points[i].Position, Radius: t.radius}
		if trigger.Contains(pos) {
			t.markLocked(i)
			found = append(found, t.points[i])
		}
	}
	return found
}

// Discover marks a point directly, e.g. when it is clicked. It reports
// whether the point was newly discovered.
func (t *Tracker) Discover(id string) (Point, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i, ok := t.index[id]
	if !ok {
		return Point{}, false, fmt.Errorf("unknown point %q", id)
	}
	if t.discovered[i] {
		return t.points[i], false, nil
	}
	t.markLocked(i)
	return t.points[i], true, nil
}

func (t *Tracker) markLocked(i int) {
	t.discovered[i] = true
	t.order = append(t.order, t.points[i].ID)
}

// IsDiscovered reports whether id has been reached
func (t *Tracker) IsDiscovered(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	i, ok := t.index[id]
	return ok && t.discovered[i]
}

// Discovered returns discovered point IDs in the order they were found
func (t *Tracker) Discovered() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.order...)
}

// Counts returns the number of discovered points and the total
func (t *Tracker) Counts() (discovered, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.order), len(t.points)
}

// Points returns every point in definition order
func (t *Tracker) Points() []Point {
	return append([]Point(nil), t.points...)
}

// Nearest returns the closest point on the ground plane, optionally skipping
// discovered ones. It reports false when there is no candidate.
func (t *Tracker) Nearest(pos mgl64.Vec3, undiscoveredOnly bool) (Point, float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	best := -1
	bestDist := math.Inf(1)
	for i, p := range t.points {
		if undiscoveredOnly && t.discovered[i] {
			continue
		}
		if d := physics.PlanarDistance(pos, p.Position); d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return Point{}, 0, false
	}
	return t.points[best], bestDist, true
}

// Reset forgets every discovery
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.discovered {
		t.discovered[i] = false
	}
	t.order = nil
}
