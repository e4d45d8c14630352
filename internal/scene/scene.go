package scene

import (
	"errors"
	"image"
	"strings"
)

const DefaultPinnedMultiple = 5

var ErrNoScenes = errors.New("no scenes")

type Kind int

const (
	Normal Kind = iota
	Pinned
)

// ParseKind accepts the layout-file spellings. Anything unrecognised is a
// normal scene.
func ParseKind(s string) Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pinned", "sticky":
		return Pinned
	default:
		return Normal
	}
}

func (k Kind) String() string {
	if k == Pinned {
		return "pinned"
	}
	return "normal"
}

type Frame struct {
	Name  string
	Path  string
	Image image.Image
}

// Descriptor is a scene before measurement.
type Descriptor struct {
	Name     string
	Kind     Kind
	Title    string
	Body     string
	Frames   []Frame
	Bindings []Binding
	// PinnedMultiple overrides the layout-wide multiple when > 0.
	PinnedMultiple float64
}

type Scene struct {
	Name     string
	Kind     Kind
	Title    string
	Body     string
	Extent   float64
	Frames   []Frame
	Bindings []Binding
}

func (s *Scene) FrameCount() int { return len(s.Frames) }

// Frame returns the frame at idx, or false when idx is out of range or the
// frame failed to decode.
func (s *Scene) Frame(idx int) (Frame, bool) {
	if idx < 0 || idx >= len(s.Frames) {
		return Frame{}, false
	}
	f := s.Frames[idx]
	if f.Image == nil {
		return Frame{}, false
	}
	return f, true
}

// Measurer reports the rendered height of a normal scene's content.
type Measurer interface {
	Measure(desc Descriptor) float64
}

type MeasureFunc func(desc Descriptor) float64

func (f MeasureFunc) Measure(desc Descriptor) float64 { return f(desc) }

type Layout struct {
	scenes []Scene
	// cumulative[i] is the inclusive extent sum up to scene i.
	cumulative []float64
}

type Options struct {
	ViewportHeight float64
	PinnedMultiple float64
	Measure        Measurer
}

// Initialize measures every scene and returns the layout together with the
// scene that contains rawOffset. Offsets past the end resolve to the last
// scene.
func Initialize(descs []Descriptor, opts Options, rawOffset float64) (*Layout, int, error) {
	if len(descs) == 0 {
		return nil, 0, ErrNoScenes
	}

	multiple := opts.PinnedMultiple
	if multiple <= 0 {
		multiple = DefaultPinnedMultiple
	}

	l := &Layout{
		scenes:     make([]Scene, len(descs)),
		cumulative: make([]float64, len(descs)),
	}

	total := 0.0
	for i, d := range descs {
		var extent float64
		switch d.Kind {
		case Pinned:
			m := multiple
			if d.PinnedMultiple > 0 {
				m = d.PinnedMultiple
			}
			extent = m * opts.ViewportHeight
		default:
			if opts.Measure != nil {
				extent = opts.Measure.Measure(d)
			}
		}
		if extent < 0 {
			extent = 0
		}

		l.scenes[i] = Scene{
			Name:     d.Name,
			Kind:     d.Kind,
			Title:    d.Title,
			Body:     d.Body,
			Extent:   extent,
			Frames:   d.Frames,
			Bindings: d.Bindings,
		}
		total += extent
		l.cumulative[i] = total
	}

	return l, l.IndexAt(rawOffset), nil
}

// IndexAt returns the first scene whose inclusive cumulative extent reaches
// offset.
func (l *Layout) IndexAt(offset float64) int {
	for i, c := range l.cumulative {
		if c >= offset {
			return i
		}
	}
	return len(l.scenes) - 1
}

func (l *Layout) Len() int { return len(l.scenes) }

func (l *Layout) Scene(i int) *Scene {
	if i < 0 || i >= len(l.scenes) {
		return nil
	}
	return &l.scenes[i]
}

func (l *Layout) Scenes() []Scene { return l.scenes }

// PrecedingExtentSum is the total extent of every scene before i.
func (l *Layout) PrecedingExtentSum(i int) float64 {
	if i <= 0 || len(l.cumulative) == 0 {
		return 0
	}
	if i > len(l.cumulative) {
		i = len(l.cumulative)
	}
	return l.cumulative[i-1]
}

func (l *Layout) TotalExtent() float64 {
	if len(l.cumulative) == 0 {
		return 0
	}
	return l.cumulative[len(l.cumulative)-1]
}
