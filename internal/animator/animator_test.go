package animator

import (
	"image"
	"math"
	"testing"

	"karolbroda.com/scrollreel/internal/scene"
)

type recordingSurface struct {
	draws []string
	scene []int
}

func (r *recordingSurface) DrawFrame(sceneIndex int, frame scene.Frame) {
	r.draws = append(r.draws, frame.Name)
	r.scene = append(r.scene, sceneIndex)
}

// stepFollower moves a fixed distance per frame so crossings land on known
// ticks.
type stepFollower struct{ step float64 }

func (s stepFollower) Next(current float64, target float64) float64 {
	if math.Abs(target-current) <= s.step {
		return target
	}
	if target > current {
		return current + s.step
	}
	return current - s.step
}

func (stepFollower) Reset() {}

type jumpFollower struct{}

func (jumpFollower) Next(_ float64, target float64) float64 { return target }
func (jumpFollower) Reset()                                 {}

func normalLayout(t *testing.T, extents ...float64) *scene.Layout {
	t.Helper()
	descs := make([]scene.Descriptor, len(extents))
	byName := make(map[string]float64)
	for i, e := range extents {
		name := string(rune('a' + i))
		descs[i] = scene.Descriptor{Name: name}
		byName[name] = e
	}
	measure := scene.MeasureFunc(func(d scene.Descriptor) float64 { return byName[d.Name] })
	layout, _, err := scene.Initialize(descs, scene.Options{Measure: measure}, 0)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return layout
}

func frames(n int) []scene.Frame {
	out := make([]scene.Frame, n)
	for i := range out {
		out[i] = scene.Frame{
			Name:  string(rune('0' + i)),
			Image: image.NewRGBA(image.Rect(0, 0, 2, 2)),
		}
	}
	return out
}

func pinnedLayout(t *testing.T, fs []scene.Frame) *scene.Layout {
	t.Helper()
	descs := []scene.Descriptor{
		{
			Name:     "intro",
			Kind:     scene.Pinned,
			Frames:   fs,
			Bindings: []scene.Binding{{Channel: scene.ChannelFrameSequence, Segment: scene.FrameSegment(len(fs))}},
		},
		{Name: "outro"},
	}
	measure := scene.MeasureFunc(func(scene.Descriptor) float64 { return 300 })
	layout, _, err := scene.Initialize(descs, scene.Options{ViewportHeight: 200, Measure: measure}, 0)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return layout
}

func runUntilStopped(t *testing.T, a *Animator, limit int) []TickResult {
	t.Helper()
	var results []TickResult
	for i := 0; i < limit; i++ {
		res := a.Tick()
		results = append(results, res)
		if !res.Continue {
			return results
		}
	}
	t.Fatalf("loop did not stop within %d ticks", limit)
	return nil
}

func TestEMAConvergesMonotonically(t *testing.T) {
	layout := normalLayout(t, 5000)
	a := New(layout)

	if !a.Ingest(1000) {
		t.Fatal("expected first ingest to start the loop")
	}

	prev := a.SmoothedOffset()
	ticks := 0
	for {
		res := a.Tick()
		ticks++
		cur := a.SmoothedOffset()
		if cur < prev || cur > 1000 {
			t.Fatalf("tick %d: smoothed offset %v not moving monotonically toward 1000", ticks, cur)
		}
		prev = cur
		if !res.Continue {
			break
		}
		if ticks > 100 {
			t.Fatalf("did not converge within 100 ticks, at %v", cur)
		}
	}

	if math.Abs(1000-a.SmoothedOffset()) >= DefaultEpsilon {
		t.Fatalf("stopped before reaching epsilon: %v", a.SmoothedOffset())
	}
	if a.Running() {
		t.Fatal("expected loop flag to be cleared")
	}
}

func TestSceneSweep(t *testing.T) {
	layout := normalLayout(t, 500, 1000, 300)
	a := New(layout, WithFollower(stepFollower{step: 10}))

	var changes [][2]int
	a.Subscribe(func(prev, next int) {
		changes = append(changes, [2]int{prev, next})
	})

	a.Ingest(2000)

	expected := func(s float64) int {
		switch {
		case s <= 500:
			return 0
		case s <= 1500:
			return 1
		default:
			return 2
		}
	}

	entered := 0
	results := runUntilStopped(t, a, 1000)
	for _, res := range results {
		if res.EnteredScene {
			entered++
		}
	}

	// replay to check the index tick by tick
	a2 := New(normalLayout(t, 500, 1000, 300), WithFollower(stepFollower{step: 10}))
	a2.Ingest(2000)
	for {
		res := a2.Tick()
		if got, want := a2.ActiveScene(), expected(a2.SmoothedOffset()); got != want {
			t.Fatalf("smoothed %v: expected scene %d, got %d", a2.SmoothedOffset(), want, got)
		}
		if !res.Continue {
			break
		}
	}

	if entered != 2 {
		t.Fatalf("expected 2 scene entries, got %d", entered)
	}
	if len(changes) != 2 || changes[0] != [2]int{0, 1} || changes[1] != [2]int{1, 2} {
		t.Fatalf("unexpected scene changes %v", changes)
	}
	if a.ActiveScene() != 2 {
		t.Fatalf("expected to end clamped in last scene, got %d", a.ActiveScene())
	}
	if a.EnteredNewScene() {
		t.Fatal("expected entry flag to be clear past the last scene")
	}
}

func TestSweepBackUp(t *testing.T) {
	layout := normalLayout(t, 500, 1000, 300)
	a := New(layout, WithFollower(stepFollower{step: 10}), WithStart(1700))
	if a.ActiveScene() != 2 {
		t.Fatalf("expected resume in scene 2, got %d", a.ActiveScene())
	}

	a.Ingest(0)
	runUntilStopped(t, a, 1000)

	if a.ActiveScene() != 0 {
		t.Fatalf("expected scene 0, got %d", a.ActiveScene())
	}
}

func TestOverscrollAboveFirstScene(t *testing.T) {
	layout := normalLayout(t, 500, 500)
	a := New(layout, WithFollower(jumpFollower{}))

	var changes int
	a.Subscribe(func(int, int) { changes++ })

	a.Ingest(-120)
	results := runUntilStopped(t, a, 10)

	if a.ActiveScene() != 0 {
		t.Fatalf("expected scene 0, got %d", a.ActiveScene())
	}
	for _, res := range results {
		if res.EnteredScene {
			t.Fatal("overscroll must not flag a scene entry")
		}
	}
	a.Ingest(-200)
	if a.ActiveScene() != 0 || changes != 0 {
		t.Fatalf("index moved during overscroll: scene %d, %d changes", a.ActiveScene(), changes)
	}
}

func TestLoopStartsOnce(t *testing.T) {
	a := New(normalLayout(t, 1000))

	if !a.Ingest(10) {
		t.Fatal("expected loop to start")
	}
	if a.Ingest(20) {
		t.Fatal("expected second ingest to reuse the running loop")
	}
	if a.Ingest(30) {
		t.Fatal("expected third ingest to reuse the running loop")
	}

	runUntilStopped(t, a, 200)

	if !a.Ingest(40) {
		t.Fatal("expected loop to restart after convergence")
	}
}

func TestTickDrawsFrame(t *testing.T) {
	surface := &recordingSurface{}
	layout := pinnedLayout(t, frames(10))
	a := New(layout, WithFollower(jumpFollower{}), WithSurface(surface))

	a.Ingest(400)
	res := a.Tick()

	if !res.Drew || res.Frame != 5 {
		t.Fatalf("expected frame 5 to be drawn, got %+v", res)
	}
	if res.Continue {
		t.Fatal("expected loop to stop once converged")
	}
	if len(surface.draws) != 1 || surface.draws[0] != "5" || surface.scene[0] != 0 {
		t.Fatalf("unexpected draws %v on %v", surface.draws, surface.scene)
	}
	if !a.TakeDirty(0) {
		t.Fatal("expected scene 0 to be marked dirty")
	}
	if a.TakeDirty(0) {
		t.Fatal("expected dirty flag to be consumed")
	}
	if v, ok := a.Value(scene.ChannelFrameSequence); !ok || v != 4.5 {
		t.Fatalf("expected frameSequence value 4.5, got %v %v", v, ok)
	}
}

func TestTickClampsFrameAfterWindow(t *testing.T) {
	surface := &recordingSurface{}
	a := New(pinnedLayout(t, frames(10)), WithFollower(jumpFollower{}), WithSurface(surface))

	a.Ingest(950)
	res := a.Tick()

	if res.Frame != 9 || surface.draws[len(surface.draws)-1] != "9" {
		t.Fatalf("expected last frame past the window, got %+v", res)
	}
}

func TestTickSkipsMissingFrames(t *testing.T) {
	surface := &recordingSurface{}
	fs := frames(10)
	fs[5].Image = nil
	a := New(pinnedLayout(t, fs), WithFollower(jumpFollower{}), WithSurface(surface))

	a.Ingest(400)
	res := a.Tick()

	if res.Drew || len(surface.draws) != 0 {
		t.Fatalf("expected missing frame to be skipped, got %+v draws %v", res, surface.draws)
	}
	if a.TakeDirty(0) {
		t.Fatal("expected no dirty mark without a draw")
	}
}

func TestSceneEntrySuppressesOutput(t *testing.T) {
	surface := &recordingSurface{}
	descs := []scene.Descriptor{
		{Name: "a"},
		{
			Name:     "b",
			Frames:   frames(4),
			Bindings: []scene.Binding{{Channel: scene.ChannelFrameSequence, Segment: scene.Segment{RangeStart: 0, RangeEnd: 3}}},
		},
	}
	measure := scene.MeasureFunc(func(scene.Descriptor) float64 { return 500 })
	layout, _, err := scene.Initialize(descs, scene.Options{Measure: measure}, 0)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	a := New(layout, WithFollower(jumpFollower{}), WithSurface(surface))
	a.Ingest(750)

	first := a.Tick()
	if !first.EnteredScene || first.Drew || first.Scene != 1 {
		t.Fatalf("expected silent entry into scene 1, got %+v", first)
	}
	if !first.Continue {
		t.Fatal("expected one more frame after an entry")
	}

	second := a.Tick()
	if second.EnteredScene || !second.Drew {
		t.Fatalf("expected draw on the frame after entry, got %+v", second)
	}
	if second.Continue {
		t.Fatal("expected loop to stop")
	}
	if a.LocalOffset() != 250 {
		t.Fatalf("expected local offset 250, got %v", a.LocalOffset())
	}
}

func TestPresentationChannelsClamp(t *testing.T) {
	descs := []scene.Descriptor{{
		Name: "a",
		Bindings: []scene.Binding{
			{Channel: scene.ChannelTitleOpacity, Segment: scene.Segment{RangeStart: 1, RangeEnd: 0}},
		},
	}}
	measure := scene.MeasureFunc(func(scene.Descriptor) float64 { return 100 })
	layout, _, err := scene.Initialize(descs, scene.Options{Measure: measure}, 0)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	a := New(layout, WithFollower(jumpFollower{}))
	a.Ingest(-40)
	a.Tick()

	if v, _ := a.Value(scene.ChannelTitleOpacity); v != 1 {
		t.Fatalf("expected opacity clamped to 1, got %v", v)
	}
}

func TestSetLayoutKeepsOffset(t *testing.T) {
	a := New(normalLayout(t, 500, 500), WithStart(700))
	if a.ActiveScene() != 1 {
		t.Fatalf("expected scene 1, got %d", a.ActiveScene())
	}

	var changes [][2]int
	a.Subscribe(func(prev, next int) { changes = append(changes, [2]int{prev, next}) })

	a.SetLayout(normalLayout(t, 1000, 500))

	if a.ActiveScene() != 0 || a.SmoothedOffset() != 700 {
		t.Fatalf("expected scene 0 at 700, got scene %d at %v", a.ActiveScene(), a.SmoothedOffset())
	}
	if len(changes) != 1 || changes[0] != [2]int{1, 0} {
		t.Fatalf("unexpected changes %v", changes)
	}
}

func TestSpringFollowerConverges(t *testing.T) {
	a := New(normalLayout(t, 5000), WithFollower(NewFollower(FollowSpring, DefaultDamping, 60)))
	a.Ingest(1000)
	runUntilStopped(t, a, 600)

	if math.Abs(a.SmoothedOffset()-1000) >= DefaultEpsilon {
		t.Fatalf("expected spring to settle near 1000, got %v", a.SmoothedOffset())
	}
}

func TestNewFollowerDefaultsToEMA(t *testing.T) {
	f, ok := NewFollower("bogus", 0.2, 60).(EMA)
	if !ok || f.Factor != 0.2 {
		t.Fatalf("expected EMA with factor 0.2, got %#v", f)
	}
}

func TestIngestBurstMovesOneSceneBetweenTicks(t *testing.T) {
	layout := normalLayout(t, 3, 3, 3, 1000)
	a := New(layout, WithFollower(jumpFollower{}))

	a.Ingest(500)
	a.Tick()
	if a.ActiveScene() != 1 {
		t.Fatalf("expected scene 1 after the first tick, got %d", a.ActiveScene())
	}

	a.Ingest(501)
	a.Ingest(502)
	if a.ActiveScene() != 2 {
		t.Fatalf("expected one step between ticks, got scene %d", a.ActiveScene())
	}

	res := a.Tick()
	if a.ActiveScene() != 2 || !res.EnteredScene || !res.Continue {
		t.Fatalf("expected the tick to hold scene 2 and continue, got %+v", res)
	}

	runUntilStopped(t, a, 10)
	if a.ActiveScene() != 3 {
		t.Fatalf("expected scene 3 once settled, got %d", a.ActiveScene())
	}
}
