package scene

import "math"

type Channel string

const (
	ChannelFrameSequence  Channel = "frameSequence"
	ChannelTitleOpacity   Channel = "titleOpacity"
	ChannelTitleTranslate Channel = "titleTranslate"
	ChannelBodyOpacity    Channel = "bodyOpacity"
)

// Window is the part of a scene, as fractions of its extent, where a
// segment interpolates.
type Window struct {
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end"`
}

// Segment maps a local scroll offset onto [RangeStart, RangeEnd]. Without a
// window the mapping spans the whole scene.
type Segment struct {
	RangeStart float64 `yaml:"from"`
	RangeEnd   float64 `yaml:"to"`
	Window     *Window `yaml:"window,omitempty"`
}

type Binding struct {
	Channel Channel
	Segment Segment
}

// FrameSegment is the default image-sequence mapping: the whole sequence
// plays over the first 80% of the scene.
func FrameSegment(frameCount int) Segment {
	last := frameCount - 1
	if last < 0 {
		last = 0
	}
	return Segment{
		RangeStart: 0,
		RangeEnd:   float64(last),
		Window:     &Window{Start: 0, End: 0.8},
	}
}

func Evaluate(seg Segment, localOffset float64, extent float64) float64 {
	if extent <= 0 {
		return seg.RangeStart
	}

	span := seg.RangeEnd - seg.RangeStart

	if seg.Window == nil {
		scrollRatio := localOffset / extent
		return scrollRatio*span + seg.RangeStart
	}

	windowStart := seg.Window.Start * extent
	windowEnd := seg.Window.End * extent
	windowHeight := windowEnd - windowStart

	if windowHeight <= 0 {
		// step at windowStart
		if localOffset < windowStart {
			return seg.RangeStart
		}
		return seg.RangeEnd
	}

	switch {
	case localOffset < windowStart:
		return seg.RangeStart
	case localOffset >= windowEnd:
		return seg.RangeEnd
	}

	return (localOffset-windowStart)/windowHeight*span + seg.RangeStart
}

// FrameIndex rounds a frameSequence value to the nearest frame, half away
// from zero.
func FrameIndex(value float64) int {
	return int(math.Round(value))
}

func clamp(val float64, min float64, max float64) float64 {
	if min > max {
		min, max = max, min
	}
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// Clamped evaluates the segment and keeps the result inside its range.
// Unwindowed segments extrapolate past the scene edges during overscroll;
// presentation channels such as opacity must not.
func Clamped(seg Segment, localOffset float64, extent float64) float64 {
	return clamp(Evaluate(seg, localOffset, extent), seg.RangeStart, seg.RangeEnd)
}
