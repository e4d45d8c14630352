package colors

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const Background = "#000000"

func HexToRGB(hex string) (int, int, int) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 255, 255, 255
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 255, 255, 255
	}

	return int(v >> 16 & 0xFF), int(v >> 8 & 0xFF), int(v & 0xFF)
}

func RGBToHex(r int, g int, b int) string {
	return fmt.Sprintf("#%02X%02X%02X", clampInt(r, 0, 255), clampInt(g, 0, 255), clampInt(b, 0, 255))
}

func clampInt(val int, min int, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// Blend mixes two colours in sRGB; t=0 is a, t=1 is b.
func Blend(a string, b string, t float64) string {
	t = math.Max(0, math.Min(1, t))
	r1, g1, b1 := HexToRGB(a)
	r2, g2, b2 := HexToRGB(b)

	mix := func(x, y int) int {
		return int(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}

	return RGBToHex(mix(r1, r2), mix(g1, g2), mix(b1, b2))
}

// Fade renders fg at the given opacity over bg.
func Fade(fg string, bg string, opacity float64) string {
	return Blend(bg, fg, opacity)
}

// Boost lifts dark colours and tames very bright ones so they read well on a
// black terminal.
func Boost(r, g, b uint32, brightness float64) string {
	if brightness > 0 && brightness < 0.4 {
		factor := math.Min(0.4/brightness, 2.5)
		r = uint32(math.Min(255, float64(r)*factor))
		g = uint32(math.Min(255, float64(g)*factor))
		b = uint32(math.Min(255, float64(b)*factor))
	}

	if brightness > 0.85 {
		avg := float64(r+g+b) / 3
		r = uint32(avg + (float64(r)-avg)*0.7)
		g = uint32(avg + (float64(g)-avg)*0.7)
		b = uint32(avg + (float64(b)-avg)*0.7)
	}

	return RGBToHex(int(r), int(g), int(b))
}

func smoothStep(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return t * t * (3 - 2*t)
}

func Gradient(start string, end string, steps int) []string {
	if steps < 2 {
		steps = 2
	}

	out := make([]string, steps)
	for i := range out {
		t := float64(i) / float64(steps-1)
		out[i] = Blend(start, end, smoothStep(t))
	}
	return out
}

func GradientText(text string, gradient []string, bold bool) string {
	if text == "" || len(gradient) == 0 {
		return text
	}

	runes := []rune(text)
	var b strings.Builder

	for i, r := range runes {
		idx := 0
		if len(runes) > 1 {
			idx = i * (len(gradient) - 1) / (len(runes) - 1)
		}

		style := lipgloss.NewStyle().Foreground(lipgloss.Color(gradient[idx]))
		if bold {
			style = style.Bold(true)
		}
		b.WriteString(style.Render(string(r)))
	}

	return b.String()
}
