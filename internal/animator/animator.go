package animator

import (
	"math"

	"karolbroda.com/scrollreel/internal/scene"
)

const (
	DefaultDamping = 0.1
	DefaultEpsilon = 1.0
)

// Surface receives frames chosen by the frameSequence channel.
type Surface interface {
	DrawFrame(sceneIndex int, frame scene.Frame)
}

type SceneListener func(prev int, next int)

// TickResult describes one animation frame.
type TickResult struct {
	Continue     bool
	EnteredScene bool
	Scene        int
	Frame        int
	Drew         bool
}

// Animator owns the scroll state of the whole page. It is driven from a
// single goroutine and does no locking.
type Animator struct {
	layout   *scene.Layout
	surface  Surface
	follower Follower

	rawOffset      float64
	smoothedOffset float64
	active         int
	entered        bool
	preceding      float64
	// stepped is set when Ingest moved the index since the last tick
	stepped        bool

	damping float64
	epsilon float64
	running bool

	values    map[scene.Channel]float64
	dirty     []bool
	listeners []SceneListener
}

type Option func(*Animator)

func WithDamping(d float64) Option {
	return func(a *Animator) {
		if d > 0 && d < 1 {
			a.damping = d
		}
	}
}

func WithEpsilon(e float64) Option {
	return func(a *Animator) {
		if e > 0 {
			a.epsilon = e
		}
	}
}

func WithFollower(f Follower) Option {
	return func(a *Animator) {
		if f != nil {
			a.follower = f
		}
	}
}

func WithSurface(s Surface) Option {
	return func(a *Animator) { a.surface = s }
}

// WithStart resumes at offset. The smoothed offset starts there too, so a
// reload in the middle of the page does not sweep in from the top.
func WithStart(offset float64) Option {
	return func(a *Animator) {
		a.rawOffset = offset
		a.smoothedOffset = offset
		a.active = a.layout.IndexAt(offset)
	}
}

func New(layout *scene.Layout, opts ...Option) *Animator {
	a := &Animator{
		layout:  layout,
		damping: DefaultDamping,
		epsilon: DefaultEpsilon,
		values:  make(map[scene.Channel]float64),
		dirty:   make([]bool, layout.Len()),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.follower == nil {
		a.follower = EMA{Factor: a.damping}
	}
	a.preceding = a.layout.PrecedingExtentSum(a.active)

	return a
}

// Subscribe registers fn to run on every active scene change.
func (a *Animator) Subscribe(fn SceneListener) {
	if fn == nil {
		return
	}
	a.listeners = append(a.listeners, fn)
}

// Ingest records a new raw offset and tests for a scene crossing. The index
// moves at most once between two ticks. It reports whether the caller has to
// start the frame loop.
func (a *Animator) Ingest(raw float64) bool {
	a.rawOffset = raw
	if !a.stepped {
		prev := a.active
		a.checkBoundary()
		a.stepped = a.active != prev
	}

	if a.running {
		return false
	}
	a.running = true
	return true
}

// Tick advances the smoothed offset by one frame and evaluates the active
// scene's bindings.
func (a *Animator) Tick() TickResult {
	a.smoothedOffset = a.follower.Next(a.smoothedOffset, a.rawOffset)
	if !a.stepped {
		a.checkBoundary()
	}
	a.stepped = false

	res := TickResult{
		EnteredScene: a.entered,
		Scene:        a.active,
		Frame:        -1,
	}

	if !a.entered {
		res.Frame, res.Drew = a.evaluate()
	}

	// a crossing frame skips evaluation, so keep going for one more frame
	// to give the new scene its first evaluation
	if math.Abs(a.rawOffset-a.smoothedOffset) < a.epsilon && !a.entered {
		a.running = false
		a.follower.Reset()
		return res
	}

	res.Continue = true
	return res
}

func (a *Animator) checkBoundary() {
	a.preceding = a.layout.PrecedingExtentSum(a.active)
	current := a.layout.Scene(a.active)
	if current == nil {
		a.entered = false
		return
	}

	switch {
	case a.smoothedOffset > a.preceding+current.Extent:
		if a.active >= a.layout.Len()-1 {
			a.entered = false
			return
		}
		a.setActive(a.active + 1)
	case a.smoothedOffset < a.preceding:
		if a.active == 0 {
			// overscroll above the first scene
			a.entered = false
			return
		}
		a.setActive(a.active - 1)
	default:
		a.entered = false
	}
}

func (a *Animator) setActive(next int) {
	prev := a.active
	a.active = next
	a.entered = true
	a.preceding = a.layout.PrecedingExtentSum(next)
	clear(a.values)

	for _, fn := range a.listeners {
		fn(prev, next)
	}
}

func (a *Animator) evaluate() (int, bool) {
	current := a.layout.Scene(a.active)
	if current == nil {
		return -1, false
	}

	local := a.smoothedOffset - a.preceding
	frameIdx := -1
	drew := false

	for _, b := range current.Bindings {
		if b.Channel == scene.ChannelFrameSequence {
			value := scene.Evaluate(b.Segment, local, current.Extent)
			a.values[b.Channel] = value
			frameIdx = scene.FrameIndex(value)

			frame, ok := current.Frame(frameIdx)
			if !ok {
				continue
			}
			if a.surface != nil {
				a.surface.DrawFrame(a.active, frame)
			}
			a.dirty[a.active] = true
			drew = true
			continue
		}

		a.values[b.Channel] = scene.Clamped(b.Segment, local, current.Extent)
	}

	return frameIdx, drew
}

// SetLayout swaps in a re-measured layout, keeping the offsets.
func (a *Animator) SetLayout(layout *scene.Layout) {
	a.layout = layout
	a.dirty = make([]bool, layout.Len())

	next := layout.IndexAt(a.smoothedOffset)
	if next != a.active {
		prev := a.active
		a.active = next
		clear(a.values)
		for _, fn := range a.listeners {
			fn(prev, next)
		}
	}
	a.preceding = layout.PrecedingExtentSum(a.active)
	a.entered = false
	a.stepped = false
}

// TakeDirty reports whether scene i drew a frame since the last call.
func (a *Animator) TakeDirty(i int) bool {
	if i < 0 || i >= len(a.dirty) {
		return false
	}
	d := a.dirty[i]
	a.dirty[i] = false
	return d
}

// Value returns the last evaluated value of ch in the active scene.
func (a *Animator) Value(ch scene.Channel) (float64, bool) {
	v, ok := a.values[ch]
	return v, ok
}

func (a *Animator) ActiveScene() int            { return a.active }
func (a *Animator) EnteredNewScene() bool       { return a.entered }
func (a *Animator) RawOffset() float64          { return a.rawOffset }
func (a *Animator) SmoothedOffset() float64     { return a.smoothedOffset }
func (a *Animator) PrecedingExtentSum() float64 { return a.preceding }
func (a *Animator) Running() bool               { return a.running }
func (a *Animator) Layout() *scene.Layout       { return a.layout }

// LocalOffset is the smoothed offset relative to the active scene's top.
func (a *Animator) LocalOffset() float64 {
	return a.smoothedOffset - a.preceding
}
