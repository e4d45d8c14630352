package animator

import (
	"strings"

	"github.com/charmbracelet/harmonica"
)

// Follower moves the smoothed offset one frame closer to the raw offset.
type Follower interface {
	Next(current float64, target float64) float64
	Reset()
}

// EMA is the exponential moving average follower:
// current += (target-current)*Factor.
type EMA struct {
	Factor float64
}

func (e EMA) Next(current float64, target float64) float64 {
	return current + (target-current)*e.Factor
}

func (EMA) Reset() {}

// Spring follows the raw offset with a damped harmonic oscillator. It
// overshoots slightly when underdamped.
type Spring struct {
	spring   harmonica.Spring
	velocity float64
}

func NewSpring(fps int, frequency float64, damping float64) *Spring {
	return &Spring{spring: harmonica.NewSpring(harmonica.FPS(fps), frequency, damping)}
}

func (s *Spring) Next(current float64, target float64) float64 {
	pos, vel := s.spring.Update(current, s.velocity, target)
	s.velocity = vel
	return pos
}

func (s *Spring) Reset() {
	s.velocity = 0
}

const (
	FollowEMA    = "ema"
	FollowSpring = "spring"
)

// NewFollower builds the follower named by mode. Unknown modes fall back to
// the EMA.
func NewFollower(mode string, damping float64, fps int) Follower {
	switch strings.ToLower(mode) {
	case FollowSpring:
		return NewSpring(fps, 6.0, 1.0)
	default:
		return EMA{Factor: damping}
	}
}
